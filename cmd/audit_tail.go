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
	"os"

	"github.com/spf13/cobra"

	"github.com/retr0h/gatehouse/internal/cli"
)

// auditTailCmd represents the audit tail command.
var auditTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Show the most recent audit events",
	Run: func(cmd *cobra.Command, _ []string) {
		n, _ := cmd.Flags().GetInt("lines")

		log := openAuditLog()
		defer func() { _ = log.Close() }()

		events, err := log.Tail(n)
		if err != nil {
			_ = log.Close()
			cli.LogFatal(logger, "failed to read audit log", err)
		}

		if jsonOutput {
			_ = cli.PrintJSON(os.Stdout, events)
			return
		}

		cli.PrintCompactTable(os.Stdout, []cli.Section{cli.AuditSection(events)})
	},
}

func init() {
	auditCmd.AddCommand(auditTailCmd)

	auditTailCmd.PersistentFlags().IntP("lines", "n", 20, "Number of events to show")
}
