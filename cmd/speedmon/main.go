package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ngld/knossos/packages/speedmon/pkg/config"
	"github.com/ngld/knossos/packages/speedmon/pkg/tlog"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "speedmon",
	Short: "Copies files while monitoring the transfer speed",
	Long: `speedmon copies local files and reports a smoothed transfer speed.
Settings are read from speedmon.toml, SPEEDMON_* environment variables and the flags below.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}

		var files []string
		if configPath != "" {
			files = []string{configPath}
		}

		cfg, err = config.Load(files...)
		if err != nil {
			return err
		}

		if err := applyFlags(cmd, cfg); err != nil {
			return err
		}

		tlog.Setup(os.Stderr, cfg.LogLevel(), cfg.Log.JSON)
		log.Debug().Interface("config", cfg).Msg("Finished parsing configuration")
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to a TOML config file (default speedmon.toml)")
	flags.Int("min-interval", 0, "Minimum time between two speed samples in ms (<= 0 disables sampling)")
	flags.Int("window", 0, "Number of samples the displayed speed is averaged over")
	flags.String("log-level", "", "One of debug, info, warn, error or fatal")
	flags.Bool("json", false, "Output JSONND instead of pretty console messages")

	rootCmd.AddCommand(copyCmd)
}

// applyFlags overrides config values with explicitly passed flags
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("min-interval") {
		cfg.Speed.MinInterval, err = flags.GetInt("min-interval")
		if err != nil {
			return err
		}
	}

	if flags.Changed("window") {
		cfg.Speed.Window, err = flags.GetInt("window")
		if err != nil {
			return err
		}
	}

	if flags.Changed("log-level") {
		cfg.Log.Level, err = flags.GetString("log-level")
		if err != nil {
			return err
		}
	}

	if flags.Changed("json") {
		cfg.Log.JSON, err = flags.GetBool("json")
		if err != nil {
			return err
		}
	}

	if err := cfg.Validate(); err != nil {
		return eris.Wrap(err, "invalid flags")
	}
	return nil
}

func main() {
	zerolog.ErrorStackMarshaler = func(err error) interface{} {
		return eris.ToString(err, true)
	}

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Failed")
	}
}
