package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/leaktrawl/pkg/cli/config"
	"github.com/secmon-lab/leaktrawl/pkg/service/llm"
	"github.com/secmon-lab/leaktrawl/pkg/usecase"
	"github.com/secmon-lab/leaktrawl/pkg/utils/logging"
)

// buildUseCases wires the repository, LLM gateway, browser factory and use
// cases from the shared command flags. The returned closer releases the
// repository connection.
func buildUseCases(ctx context.Context, repoCfg *config.Repository, llmCfg *config.LLM, browserCfg *config.Browser, configPath string) (*usecase.UseCases, func(), error) {
	appCfg, err := config.LoadAppConfiguration(configPath)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to load app configuration")
	}

	repo, err := repoCfg.Configure(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to initialize repository")
	}
	closer := func() {
		if err := repo.Close(ctx); err != nil {
			logging.Default().Error("failed to close repository", "error", err.Error())
		}
	}

	var gatewayOpts []llm.Option
	if w := appCfg.WindowFor(llmCfg.Model()); w > 0 {
		gatewayOpts = append(gatewayOpts, llm.WithContextWindow(w))
	}
	gateway, err := llmCfg.Configure(ctx, gatewayOpts...)
	if err != nil {
		closer()
		return nil, nil, goerr.Wrap(err, "failed to configure LLM gateway")
	}

	// The session factory needs the extract use case and the use cases need
	// the factory, so the extractor closes over the aggregate assigned
	// below.
	var ucs *usecase.UseCases
	extractor := func(ctx context.Context, pageURL, rawHTML string) (bool, error) {
		return ucs.Extract.ProcessPage(ctx, pageURL, rawHTML)
	}

	opts := appCfg.UseCaseOptions()
	opts = append(opts, usecase.WithSessionFactory(browserCfg.SessionFactory(extractor)))
	opts = append(opts, usecase.WithGatewayFactory(func(ctx context.Context, modelID string) (llm.Gateway, error) {
		var extra []llm.Option
		if w := appCfg.WindowFor(modelID); w > 0 {
			extra = append(extra, llm.WithContextWindow(w))
		}
		return llmCfg.GatewayFor(ctx, modelID, extra...)
	}))
	ucs = usecase.New(repo, gateway, opts...)

	return ucs, closer, nil
}
