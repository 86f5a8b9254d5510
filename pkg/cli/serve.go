package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/leaktrawl/pkg/cli/config"
	httpctrl "github.com/secmon-lab/leaktrawl/pkg/controller/http"
	"github.com/secmon-lab/leaktrawl/pkg/service/worker"
	"github.com/secmon-lab/leaktrawl/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var configPath string
	var monitorURLs []string
	var monitorInterval time.Duration
	var repoCfg config.Repository
	var llmCfg config.LLM
	var browserCfg config.Browser
	var sentryCfg config.Sentry

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("LEAKTRAWL_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Path to the TOML tuning file",
			Sources:     cli.EnvVars("LEAKTRAWL_CONFIG"),
			Destination: &configPath,
		},
		&cli.StringSliceFlag{
			Name:        "monitor-url",
			Usage:       "Leak site URL to re-crawl on a schedule (can be specified multiple times)",
			Sources:     cli.EnvVars("LEAKTRAWL_MONITOR_URLS"),
			Destination: &monitorURLs,
		},
		&cli.DurationFlag{
			Name:        "monitor-interval",
			Usage:       "Interval between scheduled crawl sweeps",
			Value:       6 * time.Hour,
			Sources:     cli.EnvVars("LEAKTRAWL_MONITOR_INTERVAL"),
			Destination: &monitorInterval,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, browserCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			sentryCloser, err := sentryCfg.Configure(c.Root().Version)
			if err != nil {
				return goerr.Wrap(err, "failed to configure sentry")
			}
			defer sentryCloser()

			ucs, repoCloser, err := buildUseCases(ctx, &repoCfg, &llmCfg, &browserCfg, configPath)
			if err != nil {
				return err
			}
			defer repoCloser()

			httpHandler, err := httpctrl.New(ucs)
			if err != nil {
				return goerr.Wrap(err, "failed to create http server")
			}

			if len(monitorURLs) > 0 {
				monitor := worker.NewMonitorWorker(ucs.Agent, monitorURLs, monitorInterval)
				if err := monitor.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start monitor worker")
				}
				defer monitor.Stop()
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}
			}

			return nil
		},
	}
}
