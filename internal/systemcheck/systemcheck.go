// Package systemcheck verifies that a configuration can actually be served:
// writable directories, an openable rejection journal, valid cron schedules
// and a parseable dashboard template.
package systemcheck

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/robfig/cron/v3"

	"livechart/internal/config"
	"livechart/internal/database"
	"livechart/internal/embeds"
	"livechart/internal/system"
)

// Status represents the health status of a system check.
type Status string

const (
	// StatusOK indicates the check passed successfully.
	StatusOK Status = "ok"
	// StatusError indicates the check failed.
	StatusError Status = "error"
)

// CheckResult represents the result of a single system check.
type CheckResult struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Status      Status   `json:"status"`
	Message     string   `json:"message"`
	Details     string   `json:"details,omitempty"`
	Remediation []string `json:"remediation,omitempty"`
}

// Runner executes system health checks.
type Runner struct {
	cfg *config.Config
}

// NewRunner creates a new system check runner with the provided configuration.
func NewRunner(cfg *config.Config) *Runner {
	return &Runner{cfg: cfg}
}

// Run executes all system checks and returns the results. The journal
// check opens the shared database handle, so Run must not be called
// while a server in the same process is using it.
func (r *Runner) Run(ctx context.Context) []CheckResult {
	return []CheckResult{
		r.checkDirectories(),
		r.checkJournal(),
		r.checkSchedules(),
		r.checkTemplates(),
		r.checkHost(ctx),
	}
}

// Failed reports whether any result is not ok.
func Failed(results []CheckResult) bool {
	for _, res := range results {
		if res.Status != StatusOK {
			return true
		}
	}
	return false
}

func (r *Runner) checkDirectories() CheckResult {
	paths := []string{
		filepath.Dir(r.cfg.DatabasePath),
		r.cfg.LogDir,
	}

	seen := make(map[string]struct{})
	created := make([]string, 0, len(paths))

	for _, p := range paths {
		if p == "" || p == "." {
			continue
		}
		if _, exists := seen[p]; exists {
			continue
		}

		if err := os.MkdirAll(p, 0o755); err != nil { //nolint:gosec // Directory permissions appropriate
			return CheckResult{
				ID:          "directories",
				Name:        "Prepare directories",
				Status:      StatusError,
				Message:     fmt.Sprintf("Failed to prepare %s", p),
				Details:     err.Error(),
				Remediation: directoryRemediation(p),
			}
		}
		seen[p] = struct{}{}
		created = append(created, p)
	}

	return CheckResult{
		ID:      "directories",
		Name:    "Prepare directories",
		Status:  StatusOK,
		Message: "Directories are ready",
		Details: strings.Join(created, "\n"),
	}
}

func (r *Runner) checkJournal() CheckResult {
	if err := database.Initialize(r.cfg.DatabasePath); err != nil {
		return CheckResult{
			ID:      "journal",
			Name:    "Rejection journal",
			Status:  StatusError,
			Message: "Journal database not usable",
			Details: err.Error(),
			Remediation: []string{
				fmt.Sprintf("Check that %s is writable", r.cfg.DatabasePath),
				"Set database_path or LIVECHART_DATABASE_PATH to another location",
			},
		}
	}
	if err := database.Close(); err != nil {
		return CheckResult{
			ID:      "journal",
			Name:    "Rejection journal",
			Status:  StatusError,
			Message: "Journal database did not close cleanly",
			Details: err.Error(),
		}
	}

	return CheckResult{
		ID:      "journal",
		Name:    "Rejection journal",
		Status:  StatusOK,
		Message: "Journal opened and migrated",
		Details: r.cfg.DatabasePath,
	}
}

func (r *Runner) checkSchedules() CheckResult {
	schedules := map[string]string{
		"heartbeat_schedule": r.cfg.HeartbeatSchedule,
	}
	if r.cfg.LogDir != "" {
		schedules["log_rotation_schedule"] = r.cfg.LogRotationSchedule
	}
	if r.cfg.Demo {
		schedules["demo_schedule"] = r.cfg.DemoSchedule
	}

	var problems []string
	for key, spec := range schedules {
		if spec == "" {
			continue
		}
		if _, err := cron.ParseStandard(spec); err != nil {
			problems = append(problems, fmt.Sprintf("%s %q: %v", key, spec, err))
		}
	}

	if len(problems) > 0 {
		return CheckResult{
			ID:          "schedules",
			Name:        "Schedules",
			Status:      StatusError,
			Message:     "Invalid cron schedule",
			Details:     strings.Join(problems, "\n"),
			Remediation: []string{"Use a five-field cron spec or a descriptor such as @every 15s"},
		}
	}

	return CheckResult{
		ID:      "schedules",
		Name:    "Schedules",
		Status:  StatusOK,
		Message: "Schedules parse",
	}
}

func (r *Runner) checkTemplates() CheckResult {
	if _, err := embeds.ParseTemplate("templates/index.html"); err != nil {
		return CheckResult{
			ID:      "templates",
			Name:    "Dashboard template",
			Status:  StatusError,
			Message: "Dashboard template does not parse",
			Details: err.Error(),
		}
	}

	return CheckResult{
		ID:      "templates",
		Name:    "Dashboard template",
		Status:  StatusOK,
		Message: "Dashboard template parses",
	}
}

func (r *Runner) checkHost(ctx context.Context) CheckResult {
	vitals, err := system.Sample(ctx, filepath.Dir(r.cfg.DatabasePath))
	if err != nil {
		return CheckResult{
			ID:      "host",
			Name:    "Host resources",
			Status:  StatusError,
			Message: "Host metrics unavailable",
			Details: err.Error(),
		}
	}

	return CheckResult{
		ID:      "host",
		Name:    "Host resources",
		Status:  StatusOK,
		Message: fmt.Sprintf("cpu %.1f%%, memory %.1f%%, disk %.1f%%", vitals.CPUPercent, vitals.MemPercent, vitals.DiskPercent),
	}
}

func directoryRemediation(path string) []string {
	return []string{
		fmt.Sprintf("Create the directory: mkdir -p %s", path),
		fmt.Sprintf("Set ownership: sudo chown $USER %s", path),
	}
}
