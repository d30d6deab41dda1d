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
	"time"

	"github.com/spf13/cobra"

	"github.com/retr0h/gatehouse/internal/cli"
	"github.com/retr0h/gatehouse/internal/validation"
)

// userAddCmd represents the user add command.
var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a new identity",
	Long: `Register a new identity with the given role. The password is read
from the terminal, or line by line from stdin when it is piped.
`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		username, _ := cmd.Flags().GetString("username")
		role, _ := cmd.Flags().GetString("role")

		if msg, ok := validation.Var(username, validation.TagUsername); !ok {
			cli.LogFatal(logger, "invalid username", errors.New(msg))
		}

		password, err := cli.NewPasswordReader(os.Stdin, os.Stderr).ReadNew()
		if err != nil {
			cli.LogFatal(logger, "failed to read password", err)
		}

		c, err := openCore(ctx, logger, &appConfig)
		if err != nil {
			cli.LogFatal(logger, "failed to open components", err)
		}
		defer c.Close()

		id, err := c.access.Register(ctx, localActor(), username, password, role)
		if err != nil {
			c.Close()
			cli.LogFatal(logger, "failed to register user", err, "username", username)
		}

		if jsonOutput {
			_ = cli.PrintJSON(os.Stdout, id)
			return
		}

		cli.PrintKV(os.Stdout, "Username", id.Username, "Role", id.Role,
			"Created", id.CreatedAt.Format(time.RFC3339))
	},
}

func init() {
	userCmd.AddCommand(userAddCmd)

	userAddCmd.PersistentFlags().StringP("username", "u", "", "Username of the new identity")
	userAddCmd.PersistentFlags().StringP("role", "r", "viewer", "Role assigned to the identity")

	_ = userAddCmd.MarkPersistentFlagRequired("username")
}
