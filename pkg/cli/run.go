package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/leaktrawl/pkg/cli/config"
	"github.com/secmon-lab/leaktrawl/pkg/domain/types"
	"github.com/secmon-lab/leaktrawl/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdRun() *cli.Command {
	var targetURL string
	var configPath string
	var repoCfg config.Repository
	var llmCfg config.LLM
	var browserCfg config.Browser

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "url",
			Usage:       "Target site URL to monitor",
			Required:    true,
			Sources:     cli.EnvVars("LEAKTRAWL_TARGET_URL"),
			Destination: &targetURL,
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Path to the TOML tuning file",
			Sources:     cli.EnvVars("LEAKTRAWL_CONFIG"),
			Destination: &configPath,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, browserCfg.Flags()...)

	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Run one agent pass against a target site",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ucs, closer, err := buildUseCases(ctx, &repoCfg, &llmCfg, &browserCfg, configPath)
			if err != nil {
				return err
			}
			defer closer()

			report, err := ucs.Agent.Run(ctx, usecase.RunInput{URL: targetURL})
			if err != nil {
				return goerr.Wrap(err, "agent run failed", goerr.V("url", targetURL))
			}

			statusColor := color.New(color.FgGreen, color.Bold)
			if report.Status != types.RunStatusComplete {
				statusColor = color.New(color.FgRed, color.Bold)
			}
			fmt.Printf("Run %s after %d steps (%s)\n",
				statusColor.Sprint(report.Status),
				report.StepsRan,
				report.StartURL,
			)
			return nil
		},
	}
}
