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

	"github.com/spf13/cobra"

	"github.com/retr0h/gatehouse/internal/cli"
	"github.com/retr0h/gatehouse/internal/validation"
)

// userPasswdCmd represents the user passwd command.
var userPasswdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Replace the password of an identity",
	Long: `Replace the password of an identity. Sessions held by the identity in a
running server are not affected by this command; restart or use the API to
revoke them.
`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		username, _ := cmd.Flags().GetString("username")

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

		if err := c.access.ChangePassword(ctx, localActor(), username, password); err != nil {
			c.Close()
			cli.LogFatal(logger, "failed to change password", err, "username", username)
		}

		logger.Info("password changed", "username", username)
	},
}

func init() {
	userCmd.AddCommand(userPasswdCmd)

	userPasswdCmd.PersistentFlags().StringP("username", "u", "", "Username of the identity")

	_ = userPasswdCmd.MarkPersistentFlagRequired("username")
}
