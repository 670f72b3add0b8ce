package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the server and the scan executors need. Values
// come from an optional reconflow.yaml plus RECONFLOW_* environment
// overrides.
type Config struct {
	DBHost     string `mapstructure:"db_host"`
	DBPort     int    `mapstructure:"db_port"`
	DBUser     string `mapstructure:"db_user"`
	DBPassword string `mapstructure:"db_password"`
	DBName     string `mapstructure:"db_name"`

	HTTPPort int `mapstructure:"http_port"`

	// MaxConcurrentScans bounds the dispatch queue; fan-out jobs beyond the
	// bound wait for a slot.
	MaxConcurrentScans int `mapstructure:"max_concurrent_scans"`

	// ProbeTimeout bounds each HTTP/HTTPS liveness probe. Clamped to 1-10s.
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`

	// ToolTimeout bounds one external tool invocation; the only cancellation
	// mechanism a running job has.
	ToolTimeout time.Duration `mapstructure:"tool_timeout"`

	// OutputDir holds per-job tool output files, keyed by task id.
	OutputDir string `mapstructure:"output_dir"`

	// ToolsFile points at the YAML file describing the external scanner
	// commands. Empty means built-in defaults.
	ToolsFile string `mapstructure:"tools_file"`
}

// LoadConfig reads reconflow.yaml from the working directory if present and
// applies RECONFLOW_* environment overrides on top of the defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 5432)
	v.SetDefault("db_user", "reconflow")
	v.SetDefault("db_password", "reconflow")
	v.SetDefault("db_name", "reconflow")
	v.SetDefault("http_port", 8080)
	v.SetDefault("max_concurrent_scans", 4)
	v.SetDefault("probe_timeout", 5*time.Second)
	v.SetDefault("tool_timeout", 10*time.Minute)
	v.SetDefault("output_dir", "/tmp/reconflow")
	v.SetDefault("tools_file", "")

	v.SetConfigName("reconflow")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/reconflow")

	v.SetEnvPrefix("RECONFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.ProbeTimeout < time.Second {
		cfg.ProbeTimeout = time.Second
	}
	if cfg.ProbeTimeout > 10*time.Second {
		cfg.ProbeTimeout = 10 * time.Second
	}

	return &cfg, nil
}
