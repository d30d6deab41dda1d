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
	"context"

	"github.com/spf13/cobra"

	"github.com/retr0h/gatehouse/internal/api"
	"github.com/retr0h/gatehouse/internal/audit"
	"github.com/retr0h/gatehouse/internal/cli"
	"github.com/retr0h/gatehouse/internal/session"
	"github.com/retr0h/gatehouse/internal/telemetry"
)

// startCmd represents the start command.
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the gatehouse API server",
	Long: `Start the HTTP API, the expired-session sweeper and, when configured,
the NATS audit forwarder. Shuts down gracefully on SIGINT/SIGTERM.
`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()

		shutdownTracer, err := telemetry.InitTracer(
			ctx,
			"gatehouse",
			appConfig.Telemetry.Tracing,
		)
		if err != nil {
			cli.LogFatal(logger, "failed to initialize tracer", err)
		}

		metricsHandler, metricsPath, shutdownMeter, err := telemetry.InitMeter(
			ctx,
			"gatehouse",
			appConfig.Telemetry.Metrics,
		)
		if err != nil {
			cli.LogFatal(logger, "failed to initialize meter", err)
		}

		var auditOpts []audit.Option
		var closeNATS func()
		if natsCfg := appConfig.Audit.NATS; natsCfg.URL != "" {
			nc, err := cli.ConnectNATS("gatehouse-audit", natsCfg)
			if err != nil {
				cli.LogFatal(logger, "failed to connect to nats", err, "url", natsCfg.URL)
			}
			closeNATS = nc.Close

			auditOpts = append(
				auditOpts,
				audit.WithForwarder(audit.NewNATSForwarder(logger, nc, natsCfg.Subject)),
			)
		}

		c, err := openCore(ctx, logger, &appConfig, auditOpts...)
		if err != nil {
			cli.LogFatal(logger, "failed to open components", err)
		}

		if _, err := c.access.Bootstrap(ctx); err != nil {
			cli.LogFatal(logger, "failed to bootstrap administrator", err)
		}

		server := api.New(
			appConfig,
			logger,
			c.access,
			api.WithAuditReader(c.log),
			api.WithAuditVerifier(c.log),
			api.WithQueryLimit(appConfig.RateLimits.Query),
			api.WithMetrics(metricsHandler, metricsPath),
		)

		servers := []cli.Lifecycle{server}
		if schedule := appConfig.Sessions.SweepSchedule; schedule != "" {
			sweeper, err := session.NewSweeper(logger, schedule, c.sessions, c.limiter)
			if err != nil {
				cli.LogFatal(logger, "failed to create sweeper", err, "schedule", schedule)
			}
			servers = append(servers, sweeper)
		}

		cli.RunServer(ctx, servers, func() {
			c.Close()
			if closeNATS != nil {
				closeNATS()
			}
			_ = shutdownMeter(context.Background())
			_ = shutdownTracer(context.Background())
		})
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
