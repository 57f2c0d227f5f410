// Package cmd assembles the farmwatch command line.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/farmwatch/farmwatch/cmd/collect"
	"github.com/farmwatch/farmwatch/cmd/export"
	"github.com/farmwatch/farmwatch/cmd/generate"
	"github.com/farmwatch/farmwatch/cmd/process"
	"github.com/farmwatch/farmwatch/cmd/serve"
	"github.com/farmwatch/farmwatch/cmd/trace"
	"github.com/farmwatch/farmwatch/cmd/version"
	"github.com/farmwatch/farmwatch/cmd/warn"
	"github.com/farmwatch/farmwatch/internal/buildinfo"
	"github.com/farmwatch/farmwatch/internal/conf"
	"github.com/farmwatch/farmwatch/internal/logger"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings, info *buildinfo.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "farmwatch",
		Short:         "FarmWatch farm monitoring service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	if err := setupFlags(rootCmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
	}

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return initLogging(settings)
	}

	rootCmd.AddCommand(
		serve.Command(settings, info),
		collect.Command(settings, info),
		generate.Command(settings, info),
		process.Command(settings, info),
		process.QualityCommand(settings, info),
		warn.Command(settings, info),
		trace.Command(settings, info),
		export.Command(settings, info),
		version.Command(info),
	)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Main.Location, "location", viper.GetString("main.location"), "Location label stored on readings")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}

// initLogging installs the global logger once flags have been parsed.
func initLogging(settings *conf.Settings) error {
	if settings.Debug {
		settings.Logging.DefaultLevel = "debug"
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = "debug"
		}
	}
	cl, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return fmt.Errorf("error initializing logging: %w", err)
	}
	logger.SetGlobal(cl)
	return nil
}
