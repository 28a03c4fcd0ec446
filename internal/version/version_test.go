package version

import (
	"strings"
	"testing"
	"time"
)

func TestAgeSince(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		buildDate string
		want      string
	}{
		{"unknown", "unknown"},
		{"2024-06-01T11:30:00Z", "30 minutes ago"},
		{"2024-06-01T02:00:00Z", "10 hours ago"},
		{"2024-05-29T12:00:00Z", "3 days ago"},
		{"2024-03-01T12:00:00Z", "3 months ago"},
		{"2022-05-01T12:00:00Z", "2 years ago"},
		{"2024-06-02T12:00:00Z", "unknown"},
	}

	for _, tt := range tests {
		if got := ageSince(tt.buildDate, now); got != tt.want {
			t.Errorf("ageSince(%q) = %q, want %q", tt.buildDate, got, tt.want)
		}
	}
}

func TestGet(t *testing.T) {
	info := Get()
	if info.Version != Version {
		t.Errorf("Version = %q, want %q", info.Version, Version)
	}
	if !strings.Contains(info.Platform, "/") {
		t.Errorf("Platform = %q", info.Platform)
	}
	if !strings.HasPrefix(UserAgent(), "livechart/") {
		t.Errorf("UserAgent() = %q", UserAgent())
	}
}
