package config

import (
	"context"
	"log/slog"

	"github.com/secmon-lab/leaktrawl/pkg/domain/interfaces"
	"github.com/secmon-lab/leaktrawl/pkg/service/browser"
	"github.com/secmon-lab/leaktrawl/pkg/service/llm"
	"github.com/secmon-lab/leaktrawl/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Browser holds CLI flags for the browser session
type Browser struct {
	headless bool
	proxy    string
}

// Flags returns CLI flags for browser configuration
func (b *Browser) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "headless",
			Usage:       "Run the browser without a visible window",
			Value:       true,
			Sources:     cli.EnvVars("LEAKTRAWL_HEADLESS"),
			Destination: &b.headless,
		},
		&cli.StringFlag{
			Name:        "proxy",
			Usage:       "Proxy address for browser traffic (e.g. socks5://127.0.0.1:9050)",
			Sources:     cli.EnvVars("LEAKTRAWL_PROXY"),
			Destination: &b.proxy,
		},
	}
}

// LogAttrs returns log attributes for the browser configuration
func (b *Browser) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.Bool("headless", b.headless),
		slog.String("proxy", b.proxy),
	}
}

// SessionFactory returns the browser session constructor used by the agent
// use case. The extractor is injected into the scrape_and_store action. A
// per-run headless override from the run input wins over the flag.
func (b *Browser) SessionFactory(extractor browser.Extractor) usecase.SessionFactory {
	return func(ctx context.Context, input usecase.RunInput, gateway llm.Gateway) (interfaces.BrowserSession, error) {
		headless := b.headless
		if input.Headless != nil {
			headless = *input.Headless
		}

		opts := []browser.Option{
			browser.WithExtractor(extractor),
		}
		if b.proxy != "" {
			opts = append(opts, browser.WithProxy(b.proxy))
		}
		return browser.New(ctx, input.URL, headless, gateway, opts...)
	}
}
