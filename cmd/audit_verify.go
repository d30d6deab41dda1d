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
	"errors"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/retr0h/gatehouse/internal/cli"
)

// auditVerifyCmd represents the audit verify command.
var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the audit hash chain",
	Long: `Recompute every event hash and check that each event links to its
predecessor. Exits non-zero when the chain is broken.
`,
	Run: func(_ *cobra.Command, _ []string) {
		log := openAuditLog()
		defer func() { _ = log.Close() }()

		result, err := log.Verify()
		if err != nil {
			_ = log.Close()
			cli.LogFatal(logger, "failed to verify audit log", err)
		}

		if jsonOutput {
			_ = cli.PrintJSON(os.Stdout, result)
		} else {
			cli.PrintKV(os.Stdout,
				"Events", strconv.Itoa(result.Events),
				"Skipped", strconv.Itoa(result.Skipped),
				"Intact", strconv.FormatBool(result.Intact),
			)
			if !result.Intact {
				cli.PrintWarning(os.Stdout, result.Reason)
			}
		}

		if !result.Intact {
			_ = log.Close()
			cli.LogFatal(logger, "audit chain is broken", errors.New(result.Reason),
				"broken_at", result.BrokenAt)
		}
	},
}

func init() {
	auditCmd.AddCommand(auditVerifyCmd)
}
