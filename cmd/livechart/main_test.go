package main

import "testing"

func TestRunExitCodes(t *testing.T) {
	t.Setenv("LIVECHART_CONFIG_PATH", "/nonexistent/config.toml")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_SERVICE_NAME", "")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"version", []string{"version", "--json"}, 0},
		{"unknown command", []string{"frobnicate"}, 2},
		{"invalid limit", []string{"rejections", "--limit=0"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := run(tt.args); got != tt.want {
				t.Errorf("run(%v) = %d, want %d", tt.args, got, tt.want)
			}
		})
	}
}
