package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/leaktrawl/pkg/cli/config"
	"github.com/secmon-lab/leaktrawl/pkg/domain/model"
	"github.com/secmon-lab/leaktrawl/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdEval() *cli.Command {
	var truthPath string
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "truth",
			Usage:       "Path to the ground-truth dataset (JSON array of entries)",
			Required:    true,
			Sources:     cli.EnvVars("LEAKTRAWL_EVAL_TRUTH"),
			Destination: &truthPath,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "eval",
		Usage: "Score the stored corpus against a ground-truth dataset",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			// #nosec G304 - path is expected to be provided by CLI argument
			data, err := os.ReadFile(truthPath)
			if err != nil {
				return goerr.Wrap(err, "failed to read ground-truth file", goerr.V("path", truthPath))
			}
			var truth []*model.Entry
			if err := json.Unmarshal(data, &truth); err != nil {
				return goerr.Wrap(err, "failed to parse ground-truth file", goerr.V("path", truthPath))
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				_ = repo.Close(ctx)
			}()

			report, err := usecase.NewEvalUseCase(repo).Evaluate(ctx, truth)
			if err != nil {
				return goerr.Wrap(err, "evaluation failed")
			}

			printEvalReport(report)
			return nil
		},
	}
}

func printEvalReport(report *model.EvalReport) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	bold.Printf("Coverage: %d/%d records found\n", report.Found, report.Truth)
	for _, victim := range report.Missing {
		red.Printf("  missing: %s\n", victim)
	}

	fields := make([]string, 0, len(report.Fields))
	for name := range report.Fields {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	bold.Println("Field accuracy:")
	for _, name := range fields {
		score := report.Fields[name]
		line := fmt.Sprintf("  %-12s %3d/%3d exact (%.0f%%), soft %.2f",
			name, score.Matched, score.Total, score.Accuracy()*100, score.Soft())
		if score.Matched == score.Total {
			green.Println(line)
		} else {
			fmt.Println(line)
		}
	}
}
