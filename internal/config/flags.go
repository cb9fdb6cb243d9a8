package config

import "flag"

var (
	flagConfig      = flag.String("config", "", "Path to config file")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagAddr        = flag.String("addr", "", "Server listen address")
	flagDelta       = flag.Float64("delta", 0, "Row latitude spacing in degrees")
	flagMaxPerRow   = flag.Int("max-per-row", 0, "Maximum vertexes per row (power of two)")
	flagNoSelfCheck = flag.Bool("no-self-check", false, "Disable geometry self-checks")
	flagLogFile     = flag.String("log", "", "Log file path")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagAddr != "" {
		cfg.Server.Addr = *flagAddr
	}
	if *flagDelta > 0 {
		cfg.Tessellation.RowLatitudeDelta = *flagDelta
	}
	if *flagMaxPerRow > 0 {
		cfg.Tessellation.MaxVertexesPerRow = *flagMaxPerRow
	}
	if *flagNoSelfCheck {
		cfg.Tessellation.SelfCheck = false
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}
