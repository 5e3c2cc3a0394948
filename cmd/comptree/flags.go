package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
)

// CLIConfig holds command-line configuration.
type CLIConfig struct {
	ConfigPath  string
	LogLevel    string
	LogFormat   string
	HealthPort  int
	MetricsPort int
	NATSURL     string
	Watch       bool
	ShowVersion bool
	ShowHelp    bool
	Validate    bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("COMPTREE_CONFIG", "tree.json"),
		"Path to the tree description (env: COMPTREE_CONFIG)")
	flag.StringVar(&cfg.ConfigPath, "c",
		getEnv("COMPTREE_CONFIG", "tree.json"),
		"Path to the tree description (env: COMPTREE_CONFIG)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("COMPTREE_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: COMPTREE_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("COMPTREE_LOG_FORMAT", "json"),
		"Log format: json, text (env: COMPTREE_LOG_FORMAT)")

	flag.IntVar(&cfg.HealthPort, "health-port",
		getEnvInt("COMPTREE_HEALTH_PORT", 8080),
		"Health check port, 0 to disable (env: COMPTREE_HEALTH_PORT)")

	flag.IntVar(&cfg.MetricsPort, "metrics-port",
		getEnvInt("COMPTREE_METRICS_PORT", 9090),
		"Prometheus metrics port, 0 to disable (env: COMPTREE_METRICS_PORT)")

	flag.StringVar(&cfg.NATSURL, "nats-url",
		getEnv("COMPTREE_NATS_URL", ""),
		"NATS URL for supervision events, empty to disable (env: COMPTREE_NATS_URL)")

	flag.BoolVar(&cfg.Watch, "watch",
		getEnvBool("COMPTREE_WATCH", false),
		"Invalidate cached descriptions when their files change (env: COMPTREE_WATCH)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")
	flag.BoolVar(&cfg.Validate, "validate", false, "Validate the description and exit")

	flag.Usage = printDetailedHelp
	flag.Parse()
	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if _, err := os.Stat(cfg.ConfigPath); err != nil {
		return fmt.Errorf("description file not found: %s", cfg.ConfigPath)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	if cfg.HealthPort < 0 || cfg.HealthPort > 65535 {
		return fmt.Errorf("invalid health port: %d", cfg.HealthPort)
	}
	if cfg.MetricsPort < 0 || cfg.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.MetricsPort)
	}
	return nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - supervised component trees

Usage: %s [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Run a tree description
  %s --config=/path/to/tree.json

  # Run with debug logging
  %s --log-level=debug --log-format=text

  # Run with environment variables
  export COMPTREE_CONFIG=/etc/comptree/tree.json
  export COMPTREE_LOG_LEVEL=debug
  %s

  # Validate a description only
  %s --validate

Version: %s
Build: %s
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], Version, BuildTime)
}

// Environment variable helper functions.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
