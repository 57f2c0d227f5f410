// Package collect provides the collect command.
package collect

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/farmwatch/farmwatch/internal/analysis"
	"github.com/farmwatch/farmwatch/internal/buildinfo"
	"github.com/farmwatch/farmwatch/internal/conf"
	"github.com/farmwatch/farmwatch/internal/datastore"
)

// Command creates the collect command.
func Command(settings *conf.Settings, info *buildinfo.Context) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect readings from the local sensors",
		Long:  "Read every sensor on the configured interval and store the readings. With --once a single reading is taken and printed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := analysis.Open(settings, info)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.RequireSimulation(); err != nil {
				return err
			}
			collector, err := rt.Collector()
			if err != nil {
				return err
			}

			if !once {
				fmt.Printf("Collecting every %s, press Ctrl+C to stop\n", collector.Interval())
				return collector.Run(cmd.Context())
			}

			reading, err := collector.CollectAll(cmd.Context())
			if err != nil {
				return err
			}
			printReading(reading)
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Take a single reading and exit")
	return cmd
}

func printReading(d *datastore.EnvironmentData) {
	label := color.New(color.FgCyan).SprintFunc()
	missing := color.New(color.FgHiBlack).Sprint("n/a")

	fields := []struct {
		name  string
		value *float64
		unit  string
	}{
		{"temperature", d.Temperature, "°C"},
		{"humidity", d.Humidity, "%"},
		{"soil moisture", d.SoilMoisture, "%"},
		{"light", d.LightIntensity, "lx"},
		{"wind speed", d.WindSpeed, "m/s"},
		{"rainfall", d.Rainfall, "mm"},
		{"air pressure", d.AirPressure, "hPa"},
	}

	fmt.Fprintf(os.Stdout, "Reading #%d at %s (%s)\n", d.ID, d.Timestamp.Format("2006-01-02 15:04:05"), d.Location)
	for _, f := range fields {
		v := missing
		if f.value != nil {
			v = humanize.FormatFloat("#,###.##", *f.value) + " " + f.unit
		}
		fmt.Fprintf(os.Stdout, "  %-14s %s\n", label(f.name), v)
	}
}
