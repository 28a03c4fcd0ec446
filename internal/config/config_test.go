package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.ListenAddr != DefaultPort {
		t.Errorf("ListenAddr = %v, want %v", cfg.ListenAddr, DefaultPort)
	}
	if cfg.MessageType != "updateHighchart" {
		t.Errorf("MessageType = %v, want updateHighchart", cfg.MessageType)
	}
	if len(cfg.Charts) != 1 || cfg.Charts[0] != "live_highchart" {
		t.Errorf("Charts = %v, want [live_highchart]", cfg.Charts)
	}
	if cfg.PlaceholderCount != 20 || cfg.PlaceholderIntervalMs != 3000 || cfg.PlaceholderValue != 100 {
		t.Errorf("placeholder = %d/%d/%v, want 20/3000/100",
			cfg.PlaceholderCount, cfg.PlaceholderIntervalMs, cfg.PlaceholderValue)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name       string
		envVars    map[string]string
		wantListen string
		wantDBPath string
		wantCharts []string
		wantMax    int
		wantErr    bool
	}{
		{
			name:       "defaults",
			envVars:    map[string]string{},
			wantListen: DefaultPort,
			wantDBPath: "livechart.db",
			wantCharts: []string{"live_highchart"},
			wantMax:    500,
		},
		{
			name: "custom values via environment",
			envVars: map[string]string{
				"LIVECHART_LISTEN_ADDR":   ":8080",
				"LIVECHART_DATABASE_PATH": "/custom/db.sqlite",
				"LIVECHART_CHARTS":        "cpu, memory ,,disk",
				"LIVECHART_MAX_POINTS":    "120",
			},
			wantListen: ":8080",
			wantDBPath: "/custom/db.sqlite",
			wantCharts: []string{"cpu", "memory", "disk"},
			wantMax:    120,
		},
		{
			name:    "non-numeric max points",
			envVars: map[string]string{"LIVECHART_MAX_POINTS": "lots"},
			wantErr: true,
		},
		{
			name:    "max points below placeholder count",
			envVars: map[string]string{"LIVECHART_MAX_POINTS": "10"},
			wantErr: true,
		},
		{
			name:    "invalid demo flag",
			envVars: map[string]string{"LIVECHART_DEMO": "sometimes"},
			wantErr: true,
		},
		{
			name:    "duplicate charts",
			envVars: map[string]string{"LIVECHART_CHARTS": "a,a"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{
				"LIVECHART_LISTEN_ADDR", "LIVECHART_DATABASE_PATH", "LIVECHART_CHARTS",
				"LIVECHART_MAX_POINTS", "LIVECHART_MESSAGE_TYPE", "LIVECHART_QUEUE_SIZE",
				"LIVECHART_DEMO",
			} {
				t.Setenv(key, "")
			}
			t.Setenv("LIVECHART_CONFIG_PATH", "/nonexistent/config.toml")
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("Load() succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			if cfg.ListenAddr != tt.wantListen {
				t.Errorf("ListenAddr = %v, want %v", cfg.ListenAddr, tt.wantListen)
			}
			if cfg.DatabasePath != tt.wantDBPath {
				t.Errorf("DatabasePath = %v, want %v", cfg.DatabasePath, tt.wantDBPath)
			}
			if strings.Join(cfg.Charts, ",") != strings.Join(tt.wantCharts, ",") {
				t.Errorf("Charts = %v, want %v", cfg.Charts, tt.wantCharts)
			}
			if cfg.MaxPoints != tt.wantMax {
				t.Errorf("MaxPoints = %v, want %v", cfg.MaxPoints, tt.wantMax)
			}
		})
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "livechart.toml")

	configContent := `
listen_addr = ":5000"
database_path = "/config/livechart.db"
message_type = "updateChart"
charts = ["left", "right"]
max_points = 60
heartbeat_schedule = "@every 5s"
`
	if err := os.WriteFile(configFile, []byte(configContent), 0600); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	t.Setenv("LIVECHART_CONFIG_PATH", configFile)
	t.Setenv("LIVECHART_LISTEN_ADDR", "")
	t.Setenv("LIVECHART_DATABASE_PATH", "")
	t.Setenv("LIVECHART_CHARTS", "")
	t.Setenv("LIVECHART_MAX_POINTS", "")
	t.Setenv("LIVECHART_MESSAGE_TYPE", "")
	t.Setenv("LIVECHART_HEARTBEAT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ListenAddr != ":5000" {
		t.Errorf("ListenAddr = %v, want :5000", cfg.ListenAddr)
	}
	if cfg.DatabasePath != "/config/livechart.db" {
		t.Errorf("DatabasePath = %v, want /config/livechart.db", cfg.DatabasePath)
	}
	if cfg.MessageType != "updateChart" {
		t.Errorf("MessageType = %v, want updateChart", cfg.MessageType)
	}
	if strings.Join(cfg.Charts, ",") != "left,right" {
		t.Errorf("Charts = %v, want [left right]", cfg.Charts)
	}
	if cfg.MaxPoints != 60 {
		t.Errorf("MaxPoints = %v, want 60", cfg.MaxPoints)
	}
	if cfg.HeartbeatSchedule != "@every 5s" {
		t.Errorf("HeartbeatSchedule = %v", cfg.HeartbeatSchedule)
	}
	// Unset keys keep their defaults.
	if cfg.PlaceholderCount != 20 {
		t.Errorf("PlaceholderCount = %v, want 20", cfg.PlaceholderCount)
	}
}

func TestLoadWithBrokenConfigFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(configFile, []byte("max_points = ["), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LIVECHART_CONFIG_PATH", configFile)

	if _, err := Load(); err == nil {
		t.Error("Load() succeeded with a broken config file")
	}
}

func TestConfigString(t *testing.T) {
	s := defaultConfig().String()
	for _, want := range []string{"ListenAddr: :3000", "MessageType: updateHighchart", "Charts: live_highchart"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}
