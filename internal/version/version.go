// Package version reports build information for the livechart binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// Set at build time with -ldflags "-X livechart/internal/version.Version=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info holds all the version information.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// Get merges the ldflags values with what the Go toolchain embedded.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range bi.Settings {
			if setting.Key == "vcs.revision" && info.Commit == "unknown" {
				info.Commit = setting.Value
			}
		}
	}

	return info
}

// UserAgent identifies outbound requests made by the CLI.
func UserAgent() string {
	return "livechart/" + Version
}

// GetVersionAge returns a human-readable age of the build.
func GetVersionAge() string {
	return ageSince(BuildDate, time.Now())
}

func ageSince(buildDate string, now time.Time) string {
	t, err := time.Parse(time.RFC3339, buildDate)
	if err != nil {
		return "unknown"
	}

	d := now.Sub(t)
	switch {
	case d < 0:
		return "unknown"
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	case d < 365*24*time.Hour:
		return fmt.Sprintf("%d months ago", int(d.Hours()/(24*30)))
	}
	return fmt.Sprintf("%d years ago", int(d.Hours()/(24*365)))
}
