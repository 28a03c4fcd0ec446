package config

const (
	// DefaultPort is the default listen address
	DefaultPort = ":3000"

	// TestPort is used by end-to-end tests to avoid conflicts
	TestPort = ":3001"

	// DefaultMessageType is the inbound message type the chart controller handles
	DefaultMessageType = "updateHighchart"

	// DefaultChartID is the chart mounted when none is configured
	DefaultChartID = "live_highchart"

	// DefaultConfigPath is read when LIVECHART_CONFIG_PATH is unset
	DefaultConfigPath = "config.toml"
)
