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

	"github.com/retr0h/gatehouse/internal/authz"
	"github.com/retr0h/gatehouse/internal/cli"
)

// roleCmd represents the role command.
var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Inspect roles and permissions",
}

// roleListCmd represents the role list command.
var roleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured roles and their effective permissions",
	Run: func(_ *cobra.Command, _ []string) {
		roles, err := authz.New(appConfig.RoleDefinitions())
		if err != nil {
			cli.LogFatal(logger, "failed to load roles", err)
		}

		infos := roles.Describe()
		if jsonOutput {
			_ = cli.PrintJSON(os.Stdout, infos)
			return
		}

		cli.PrintCompactTable(os.Stdout, []cli.Section{cli.RoleSection(infos)})
	},
}

func init() {
	rootCmd.AddCommand(roleCmd)
	roleCmd.AddCommand(roleListCmd)
}
