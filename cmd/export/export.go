// Package export copies the configured database into another backend.
package export

import (
	"fmt"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/farmwatch/farmwatch/internal/analysis"
	"github.com/farmwatch/farmwatch/internal/buildinfo"
	"github.com/farmwatch/farmwatch/internal/conf"
	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/errors"
)

// Target describes the destination backend.
type Target struct {
	Backend  string
	Path     string
	Host     string
	Port     string
	Username string
	Password string
	Database string
	SSLMode  string
}

// Output returns the storage settings selecting the target backend.
func (t *Target) Output() (conf.OutputSettings, error) {
	var out conf.OutputSettings
	switch strings.ToLower(t.Backend) {
	case "sqlite":
		if t.Path == "" {
			return out, errors.ValidationError("--target-path is required for sqlite")
		}
		out.SQLite = conf.SQLiteSettings{Enabled: true, Path: t.Path}
	case "mysql":
		out.MySQL = conf.MySQLSettings{
			Enabled: true, Host: t.Host, Port: or(t.Port, "3306"),
			Username: t.Username, Password: t.Password, Database: t.Database,
		}
	case "postgres", "postgresql":
		out.Postgres = conf.PostgresSettings{
			Enabled: true, Host: t.Host, Port: or(t.Port, "5432"),
			Username: t.Username, Password: t.Password, Database: t.Database,
			SSLMode: or(t.SSLMode, "disable"),
		}
	default:
		return out, errors.ValidationError(fmt.Sprintf("unknown target backend %q", t.Backend))
	}
	return out, nil
}

func or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// Command creates the export command.
func Command(settings *conf.Settings, info *buildinfo.Context) *cobra.Command {
	var (
		target     Target
		batchSize  int
		skipVerify bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy all data from the configured database to another backend",
		Long: `Copy every table from the configured database into a target SQLite,
MySQL or PostgreSQL database. The schema is created on the target. Rows that
already exist on the target are skipped, so an interrupted export can be rerun.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := target.Output()
			if err != nil {
				return err
			}

			rt, err := analysis.Open(settings, info)
			if err != nil {
				return err
			}
			defer rt.Close()

			targetSettings := *settings
			targetSettings.Output = output
			dst, err := datastore.New(&targetSettings)
			if err != nil {
				return err
			}
			if err := dst.Open(); err != nil {
				return err
			}
			defer func() { _ = dst.Close() }()

			src, ok := rt.Store.(datastore.Connector)
			if !ok {
				return errors.NewStd("configured store does not support export")
			}
			dstConn, ok := dst.(datastore.Connector)
			if !ok {
				return errors.NewStd("target store does not support export")
			}

			var bar *pb.ProgressBar
			current := ""
			stats, err := datastore.Export(cmd.Context(), src, dstConn, batchSize, func(table string, done, total int64) {
				if table != current {
					if bar != nil {
						bar.Finish()
					}
					bar = pb.Full.Start64(total)
					bar.Set("prefix", table+" ")
					current = table
				}
				bar.SetCurrent(done)
			})
			if bar != nil {
				bar.Finish()
			}
			printStats(stats)
			if err != nil {
				return err
			}

			if skipVerify {
				return nil
			}
			counts, err := datastore.VerifyExport(cmd.Context(), src, dstConn)
			if err != nil {
				return err
			}
			return printCounts(counts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&target.Backend, "target", "", "Target backend: sqlite, mysql or postgres")
	f.StringVar(&target.Path, "target-path", "", "Target SQLite database file")
	f.StringVar(&target.Host, "target-host", "localhost", "Target database host")
	f.StringVar(&target.Port, "target-port", "", "Target database port")
	f.StringVar(&target.Username, "target-user", "", "Target database user")
	f.StringVar(&target.Password, "target-password", "", "Target database password")
	f.StringVar(&target.Database, "target-database", "farmwatch", "Target database name")
	f.StringVar(&target.SSLMode, "target-sslmode", "", "Target PostgreSQL sslmode")
	f.IntVar(&batchSize, "batch-size", datastore.DefaultExportBatchSize, "Rows per insert batch")
	f.BoolVar(&skipVerify, "skip-verify", false, "Skip the row count comparison")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func printStats(stats []datastore.TableStats) {
	fmt.Printf("\n%-26s %10s %10s %10s %10s\n", "Table", "Source", "Copied", "Skipped", "Failed")
	var copied, failed int64
	for _, s := range stats {
		line := fmt.Sprintf("%-26s %10s %10s %10s %10d", s.Table,
			humanize.Comma(s.Source), humanize.Comma(s.Copied), humanize.Comma(s.Skipped), s.Failed)
		if s.Failed > 0 {
			line = color.RedString(line)
		}
		fmt.Println(line)
		copied += s.Copied
		failed += s.Failed
	}
	fmt.Printf("Copied %s rows", humanize.Comma(copied))
	if failed > 0 {
		fmt.Print(color.RedString(", %s failed", humanize.Comma(failed)))
	}
	fmt.Println()
}

func printCounts(counts []datastore.TableCount) error {
	mismatched := 0
	for _, c := range counts {
		if !c.Match() {
			mismatched++
			fmt.Println(color.RedString("  %s: source %d, target %d", c.Table, c.Source, c.Target))
		}
	}
	if mismatched > 0 {
		return errors.Newf("%d tables differ after export", mismatched).
			Component("export").
			Category(errors.CategoryDatabase).
			Build()
	}
	color.Green("Verified %d tables", len(counts))
	return nil
}
