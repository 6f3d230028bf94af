package config

import (
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigtoml"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Config describes all configuration options
type Config struct {
	Speed struct {
		MinInterval int `default:"5" env:"MIN_INTERVAL" toml:"min_interval" usage:"Minimum time between two speed samples in ms (<= 0 disables sampling)"`
		Window      int `default:"10" env:"WINDOW" toml:"window" usage:"Number of samples the displayed speed is averaged over"`
	} `env:"SPEED" toml:"speed"`
	Transfer struct {
		BufferSize     int `default:"32768" env:"BUFFER_SIZE" toml:"buffer_size" usage:"Size of the copy buffer in bytes"`
		ReportInterval int `default:"300" env:"REPORT_INTERVAL" toml:"report_interval" usage:"Time between two progress reports in ms"`
	} `env:"TRANSFER" toml:"transfer"`
	Log struct {
		Level string `default:"info" env:"LEVEL" toml:"level"`
		JSON  bool   `default:"false" env:"JSON" toml:"json" usage:"Output JSONND instead of pretty console messages"`
	} `env:"LOG" toml:"log"`
}

var logLevels = map[string]zerolog.Level{
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
	"fatal":   zerolog.FatalLevel,
}

// Loader initializes an empty config object and returns a new Loader for this object. Values are read from the
// passed TOML files (missing files are skipped) and SPEEDMON_* environment variables. Command line flags are
// handled by the CLI.
func Loader(files ...string) (*Config, *aconfig.Loader) {
	if len(files) == 0 {
		files = []string{"speedmon.toml"}
	}

	cfg := Config{}
	return &cfg, aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SPEEDMON",
		SkipFlags: true,
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".toml": aconfigtoml.New(),
		},
	})
}

// Load is a shortcut for Loader() followed by Load() and Validate()
func Load(files ...string) (*Config, error) {
	cfg, loader := Loader(files...)
	if err := loader.Load(); err != nil {
		return nil, eris.Wrap(err, "failed to load configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate verifies that all config fields have valid values
func (cfg *Config) Validate() error {
	if cfg.Speed.Window < 1 {
		return eris.Errorf("Invalid value for speed.window: %d (must be at least 1)", cfg.Speed.Window)
	}

	if cfg.Transfer.BufferSize < 1 {
		return eris.Errorf("Invalid value for transfer.buffer_size: %d", cfg.Transfer.BufferSize)
	}

	if cfg.Transfer.ReportInterval < 1 {
		return eris.Errorf("Invalid value for transfer.report_interval: %d", cfg.Transfer.ReportInterval)
	}

	_, ok := logLevels[cfg.Log.Level]
	if !ok {
		return eris.Errorf("Invalid value for log.level: %s", cfg.Log.Level)
	}

	return nil
}

// LogLevel converts the .Log.Level field to a zerolog.Level
func (cfg *Config) LogLevel() zerolog.Level {
	return logLevels[cfg.Log.Level]
}

// ReportInterval returns .Transfer.ReportInterval as a time.Duration
func (cfg *Config) ReportInterval() time.Duration {
	return time.Duration(cfg.Transfer.ReportInterval) * time.Millisecond
}
