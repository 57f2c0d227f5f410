// Package serve runs FarmWatch as a long-lived service.
package serve

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/farmwatch/farmwatch/internal/analysis"
	"github.com/farmwatch/farmwatch/internal/buildinfo"
	"github.com/farmwatch/farmwatch/internal/conf"
)

// Command creates the serve command.
func Command(settings *conf.Settings, info *buildinfo.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API, collection, warning checks and MQTT ingestion",
		Long: "Start the JSON API, collect readings on an interval, run scheduled warning " +
			"checks and ingest readings published over MQTT until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := analysis.Open(settings, info)
			if err != nil {
				return err
			}
			defer rt.Close()
			return rt.Serve(cmd.Context())
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
	}
	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.WebServer.Listen, "listen", viper.GetString("webserver.listen"), "Listen address of the JSON API")
	cmd.Flags().BoolVar(&settings.Sensors.Simulate, "simulate", viper.GetBool("sensors.simulate"), "Collect from simulated sensors")
	cmd.Flags().BoolVar(&settings.Sensors.MQTT.Enabled, "mqtt", viper.GetBool("sensors.mqtt.enabled"), "Ingest readings and publish warnings over MQTT")
	cmd.Flags().BoolVar(&settings.Telemetry.Enabled, "telemetry", viper.GetBool("telemetry.enabled"), "Enable Prometheus metrics")
	cmd.Flags().StringVar(&settings.Telemetry.Listen, "telemetry-listen", viper.GetString("telemetry.listen"), "Separate metrics listen address, empty mounts /metrics on the API")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}
