// Package process provides the process and quality commands.
package process

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/farmwatch/farmwatch/internal/analysis"
	"github.com/farmwatch/farmwatch/internal/buildinfo"
	"github.com/farmwatch/farmwatch/internal/conf"
	"github.com/farmwatch/farmwatch/internal/preprocess"
)

const defaultDays = 7

// window returns [now-days, now].
func window(days int) (time.Time, time.Time) {
	end := time.Now()
	return end.AddDate(0, 0, -days), end
}

// Command creates the process command.
func Command(settings *conf.Settings, info *buildinfo.Context) *cobra.Command {
	var (
		days       int
		smooth     bool
		normalize  bool
		noOutliers bool
		output     string
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Run the preprocessing pipeline over recent readings",
		Long: "Load readings, remove outliers, interpolate gaps and derive features. " +
			"With --output the processed rows are written as JSON.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := analysis.Open(settings, info)
			if err != nil {
				return err
			}
			defer rt.Close()

			opts := preprocess.OptionsFromSettings(settings.Preprocess)
			opts.Smooth = smooth
			opts.Normalize = normalize
			opts.RemoveOutliers = !noOutliers

			start, end := window(days)
			res, err := rt.Preprocessor().Process(cmd.Context(), start, end, opts)
			if err != nil {
				return err
			}

			printSummary(res)
			if output == "" {
				return nil
			}
			data, err := json.MarshalIndent(res.Frame.Records(), "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s rows to %s\n", humanize.Comma(int64(res.Frame.Len())), output)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", defaultDays, "Number of days to process")
	cmd.Flags().BoolVar(&smooth, "smooth", false, "Smooth sensor columns")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "Normalize sensor columns")
	cmd.Flags().BoolVar(&noOutliers, "no-outliers", false, "Keep outliers")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write processed rows to this JSON file")
	return cmd
}

func printSummary(res *preprocess.Result) {
	head := color.New(color.Bold).SprintFunc()
	fmt.Println(head("Preprocessing summary"))
	fmt.Printf("  rows loaded   %s\n", humanize.Comma(int64(res.RowsLoaded)))
	fmt.Printf("  rows dropped  %s\n", humanize.Comma(int64(res.RowsDropped)))
	if res.Frame != nil {
		fmt.Printf("  columns       %v\n", res.Frame.ColumnNames())
	}

	cols := make([]string, 0, len(res.OutliersRemoved))
	for col := range res.OutliersRemoved {
		cols = append(cols, col)
	}
	slices.Sort(cols)
	for _, col := range cols {
		fmt.Printf("  %s %s\n", color.YellowString("outliers"), fmt.Sprintf("%s=%d", col, res.OutliersRemoved[col]))
	}
}

// QualityCommand creates the quality command.
func QualityCommand(settings *conf.Settings, info *buildinfo.Context) *cobra.Command {
	var (
		days   int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "quality",
		Short: "Report missing values, outliers and statistics per sensor",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := analysis.Open(settings, info)
			if err != nil {
				return err
			}
			defer rt.Close()

			start, end := window(days)
			report, err := rt.Preprocessor().QualityReport(cmd.Context(), start, end)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printQuality(report)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", defaultDays, "Number of days to report on")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func printQuality(r *preprocess.QualityReport) {
	fmt.Printf("%s %s records\n", color.New(color.Bold).Sprint("Data quality:"), humanize.Comma(int64(r.TotalRecords)))
	if r.DateRange != nil {
		fmt.Printf("  %s to %s\n", r.DateRange.Start, r.DateRange.End)
	}
	if r.TotalRecords == 0 {
		return
	}

	fmt.Printf("  %-16s %9s %9s %9s %9s %9s\n", "column", "missing%", "outliers", "mean", "min", "max")
	for _, col := range preprocess.SensorColumns {
		stats, ok := r.Statistics[col]
		if !ok {
			continue
		}
		missing := fmt.Sprintf("%9.1f", r.MissingValues[col].Percentage)
		if r.MissingValues[col].Percentage > 20 {
			missing = color.RedString(missing)
		}
		fmt.Printf("  %-16s %s %9d %9s %9s %9s\n",
			col, missing, r.Outliers[col].Count,
			format(stats.Mean), format(stats.Min), format(stats.Max))
	}
}

func format(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}
