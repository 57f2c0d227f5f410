// Package trace provides the product ledger commands.
package trace

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/farmwatch/farmwatch/internal/analysis"
	"github.com/farmwatch/farmwatch/internal/buildinfo"
	"github.com/farmwatch/farmwatch/internal/conf"
	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/traceability"
)

// Command creates the trace parent command
func Command(settings *conf.Settings, info *buildinfo.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Create products and maintain their traceability ledger",
	}

	cmd.AddCommand(
		createCommand(settings, info),
		reportCommand(settings, info),
		addCommand(settings, info),
	)
	return cmd
}

// withManager opens the runtime for the duration of fn.
func withManager(settings *conf.Settings, info *buildinfo.Context, fn func(*traceability.Manager) error) error {
	rt, err := analysis.Open(settings, info)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(traceability.NewManager(rt.Store, settings.Traceability))
}

func parseDate(value string, loc *time.Location) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, value, loc)
	if err != nil {
		return nil, errors.ValidationError(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", value))
	}
	return &t, nil
}

func createCommand(settings *conf.Settings, info *buildinfo.Context) *cobra.Command {
	var (
		planting, harvest, packaging string
		location                     string
		qrPath                       string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product and print its ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := settings.Location()
			var productInfo traceability.ProductInfo
			var err error
			if productInfo.PlantingDate, err = parseDate(planting, loc); err != nil {
				return err
			}
			if productInfo.HarvestDate, err = parseDate(harvest, loc); err != nil {
				return err
			}
			if productInfo.PackagingDate, err = parseDate(packaging, loc); err != nil {
				return err
			}
			productInfo.Location = location
			if productInfo.Location == "" {
				productInfo.Location = settings.Main.Location
			}

			return withManager(settings, info, func(m *traceability.Manager) error {
				id, err := m.CreateProduct(productInfo)
				if err != nil {
					return err
				}
				fmt.Println(id)
				fmt.Fprintf(os.Stderr, "trace URL: %s\n", m.QRPayload(id).TraceURL)

				if qrPath == "" {
					return nil
				}
				p, err := m.GetTraceInfo(id)
				if err != nil {
					return err
				}
				png, err := base64.StdEncoding.DecodeString(p.QRCode)
				if err != nil {
					return err
				}
				return os.WriteFile(qrPath, png, 0o644)
			})
		},
	}

	cmd.Flags().StringVar(&planting, "planting-date", "", "Planting date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&harvest, "harvest-date", "", "Harvest date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&packaging, "packaging-date", "", "Packaging date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&location, "product-location", "", "Growing location, defaults to main.location")
	cmd.Flags().StringVar(&qrPath, "qr", "", "Write the QR code PNG to this file")
	return cmd
}

func reportCommand(settings *conf.Settings, info *buildinfo.Context) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "report <product-id>",
		Short: "Print the trace report of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(settings, info, func(m *traceability.Manager) error {
				report, err := m.TraceReport(args[0])
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(os.Stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(report)
				}
				printReport(report)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func printReport(r *traceability.Report) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Printf("%s %s (%s)\n", bold("Product"), r.ProductID, r.BasicInfo.Location)

	fmt.Println(bold("Timeline"))
	for _, e := range r.Timeline {
		date := e.Date
		if date == "" {
			date = "undated"
		}
		fmt.Printf("  %-10s  %-12s %s\n", date, e.Stage, e.Description)
	}

	fmt.Println(bold("Inputs"))
	fmt.Printf("  fertilizer applications %d, pesticide applications %d\n", r.Inputs.FertilizerCount, r.Inputs.PesticideCount)

	fmt.Println(bold("Quality"))
	fmt.Printf("  %d checks, %.0f%% passed\n", r.Quality.TotalChecks, r.Quality.PassRate*100)

	status := color.GreenString(r.Compliance.OverallStatus)
	if len(r.Compliance.Issues) > 0 {
		status = color.RedString(r.Compliance.OverallStatus)
	}
	fmt.Printf("%s %s\n", bold("Compliance"), status)
	for _, issue := range r.Compliance.Issues {
		fmt.Printf("  - %s\n", issue)
	}
	for _, rec := range r.Recommendations {
		fmt.Printf("  * %s\n", rec)
	}
}

func addCommand(settings *conf.Settings, info *buildinfo.Context) *cobra.Command {
	var (
		data string
		file string
	)

	cmd := &cobra.Command{
		Use:   "add <product-id> <kind>",
		Short: "Append a JSON record to a product ledger",
		Long: "Append a record to the product ledger. kind is one of " + strings.Join(traceability.RecordKinds, ", ") +
			". The record is read from --data, --file or standard input.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readRecord(cmd.InOrStdin(), data, file)
			if err != nil {
				return err
			}
			return withManager(settings, info, func(m *traceability.Manager) error {
				if err := m.AddRecordJSON(args[0], args[1], body); err != nil {
					return err
				}
				color.Green("Added %s record to %s", args[1], args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "Record as a JSON string")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the record from a JSON file")
	return cmd
}

func readRecord(stdin io.Reader, data, file string) ([]byte, error) {
	switch {
	case data != "":
		return []byte(data), nil
	case file != "":
		return os.ReadFile(file)
	default:
		return io.ReadAll(stdin)
	}
}
