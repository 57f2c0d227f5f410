// Package warn provides the warn command and its subcommands.
package warn

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/farmwatch/farmwatch/internal/analysis"
	"github.com/farmwatch/farmwatch/internal/buildinfo"
	"github.com/farmwatch/farmwatch/internal/conf"
	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/warning"
)

// Command creates the warn parent command
func Command(settings *conf.Settings, info *buildinfo.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warn",
		Short: "Evaluate and manage warnings",
	}

	cmd.AddCommand(
		checkCommand(settings, info),
		listCommand(settings, info),
		resolveCommand(settings, info),
	)
	return cmd
}

func severityColor(severity string) func(format string, a ...any) string {
	switch severity {
	case "high":
		return color.RedString
	case "medium":
		return color.YellowString
	default:
		return color.CyanString
	}
}

func checkCommand(settings *conf.Settings, info *buildinfo.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check the latest reading and predictions against the thresholds",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := analysis.Open(settings, info)
			if err != nil {
				return err
			}
			defer rt.Close()

			raised, err := rt.Warnings(nil).RunCheck(cmd.Context())
			if err != nil {
				return err
			}
			if len(raised) == 0 {
				color.Green("No new warnings")
				return nil
			}
			for _, w := range raised {
				fmt.Println(severityColor(w.Severity)("%s", warning.Title(w)))
				fmt.Printf("    %s\n", w.Message)
			}
			return nil
		},
	}
}

func listCommand(settings *conf.Settings, info *buildinfo.Context) *cobra.Command {
	var (
		status string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored warnings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if status != "" && status != datastore.WarningActive && status != datastore.WarningResolved {
				return errors.ValidationError("status must be active or resolved")
			}
			rt, err := analysis.Open(settings, info)
			if err != nil {
				return err
			}
			defer rt.Close()

			records, err := rt.Store.ListWarnings(status, limit)
			if err != nil {
				return err
			}
			for _, w := range records {
				fmt.Printf("%5d  %-9s %s  %s  %s\n",
					w.ID, w.Status, severityColor(w.Severity)("%-6s", w.Severity),
					humanize.RelTime(w.Timestamp, time.Now(), "ago", "from now"), w.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", datastore.WarningActive, "Filter by status (active, resolved, empty for all)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of warnings")
	return cmd
}

func resolveCommand(settings *conf.Settings, info *buildinfo.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <id>",
		Short: "Mark a warning resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return errors.ValidationError("warning id must be a positive integer")
			}
			rt, err := analysis.Open(settings, info)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.Warnings(nil).Resolve(uint(id)); err != nil {
				return err
			}
			color.Green("Warning %d resolved", id)
			return nil
		},
	}
}
