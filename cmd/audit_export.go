// Copyright (c) 2026 John Dewey

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER
// DEALINGS IN THE SOFTWARE.

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/retr0h/gatehouse/internal/audit"
	"github.com/retr0h/gatehouse/internal/audit/export"
	"github.com/retr0h/gatehouse/internal/cli"
)

// auditExportCmd represents the audit export command.
var auditExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export audit events as JSON lines",
	Long: `Export audit events as JSON lines to a file, or to stdout with
--output -. Filters narrow the events that are written.
`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		output, _ := cmd.Flags().GetString("output")
		batchSize, _ := cmd.Flags().GetInt("batch-size")

		filter, err := exportFilter(cmd, time.Now())
		if err != nil {
			cli.LogFatal(logger, "invalid filter", err)
		}

		log := openAuditLog()
		defer func() { _ = log.Close() }()

		var exporter export.Exporter
		if output == "-" {
			exporter = export.NewWriterExporter(os.Stdout)
		} else {
			exporter = export.NewFileExporter(appFs, output)
		}

		result, err := export.Run(
			ctx,
			logger,
			log.List,
			exporter,
			filter,
			batchSize,
			func(exported int, total int) {
				_, _ = fmt.Fprintf(os.Stderr, "\r  exported %d/%d", exported, total)
			},
		)
		_, _ = fmt.Fprintln(os.Stderr)
		if err != nil {
			_ = log.Close()
			cli.LogFatal(logger, "failed to export audit log", err, "output", output)
		}

		logger.Info(
			"audit export complete",
			"total", result.TotalEntries,
			"exported", result.ExportedEntries,
			"filtered", result.FilteredEntries,
		)
	},
}

func exportFilter(
	cmd *cobra.Command,
	now time.Time,
) (export.Filter, error) {
	actor, _ := cmd.Flags().GetString("actor")
	action, _ := cmd.Flags().GetString("action")
	status, _ := cmd.Flags().GetString("status")
	since, _ := cmd.Flags().GetString("since")

	filter := export.Filter{
		Actor:  actor,
		Action: action,
		Status: audit.Status(status),
	}

	if since != "" {
		t, err := parseSince(since, now)
		if err != nil {
			return export.Filter{}, err
		}
		filter.Since = t
	}

	return filter, nil
}

// parseSince accepts a duration relative to now ("24h") or an RFC3339
// timestamp.
func parseSince(
	s string,
	now time.Time,
) (time.Time, error) {
	if d, err := time.ParseDuration(s); err == nil {
		if d < 0 {
			return time.Time{}, fmt.Errorf("since duration must not be negative: %s", s)
		}
		return now.Add(-d), nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("since must be a duration or RFC3339 timestamp: %s", s)
	}

	return t, nil
}

func init() {
	auditCmd.AddCommand(auditExportCmd)

	auditExportCmd.PersistentFlags().StringP("output", "o", "", "Output file, or - for stdout")
	auditExportCmd.PersistentFlags().String("actor", "", "Only export events by this actor")
	auditExportCmd.PersistentFlags().String("action", "", "Only export events with this action")
	auditExportCmd.PersistentFlags().
		String("status", "", "Only export events with this status (success, denied, error)")
	auditExportCmd.PersistentFlags().
		String("since", "", "Only export events newer than a duration or RFC3339 time")
	auditExportCmd.PersistentFlags().Int("batch-size", 500, "Events fetched per batch")

	_ = auditExportCmd.MarkPersistentFlagRequired("output")
}
