// Package generate fills the store with simulated history.
package generate

import (
	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/farmwatch/farmwatch/internal/analysis"
	"github.com/farmwatch/farmwatch/internal/buildinfo"
	"github.com/farmwatch/farmwatch/internal/conf"
	"github.com/farmwatch/farmwatch/internal/sensors"
)

const defaultDays = 30

// Command creates the generate command.
func Command(settings *conf.Settings, info *buildinfo.Context) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate hourly simulated readings for testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := analysis.Open(settings, info)
			if err != nil {
				return err
			}
			defer rt.Close()

			simulated := sensors.NewSimulatedSensors(nil, rt.Daylight())
			collector, err := rt.Collector(sensors.WithSensors(simulated...))
			if err != nil {
				return err
			}

			bar := pb.Full.Start(days * 24)
			bar.Set("prefix", "readings ")
			written, err := collector.GenerateTestData(cmd.Context(), days, func(done, _ int) {
				bar.SetCurrent(int64(done))
			})
			bar.Finish()
			if err != nil {
				return err
			}

			color.Green("Generated %s readings covering %d days", humanize.Comma(int64(written)), days)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", defaultDays, "Number of days to generate")
	return cmd
}
