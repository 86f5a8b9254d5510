package browser

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/leaktrawl/pkg/service/llm"
	"github.com/secmon-lab/leaktrawl/pkg/utils/logging"
)

const (
	launchRetries   = 5
	navigateTimeout = 60 * time.Second
)

// Extractor runs the extraction pipeline against the current page. The
// dispatcher injects it into the scrape_and_store action so the planner
// never supplies pipeline collaborators itself.
type Extractor func(ctx context.Context, pageURL, rawHTML string) (bool, error)

// Session owns one live browser and one active page. At most one session
// should exist per agent run; the agent use case rejects concurrent runs
// before constructing a second one.
type Session struct {
	browser   *rod.Browser
	page      *rod.Page
	launch    *launcher.Launcher
	gateway   llm.Gateway
	extractor Extractor

	headless bool
	proxy    string
	startURL string

	mu       sync.Mutex
	released bool
}

// Option is a functional option for session configuration
type Option func(*Session)

// WithProxy routes browser traffic through the given proxy address
// (e.g. socks5://localhost:9050 for Tor-fronted leak sites).
func WithProxy(addr string) Option {
	return func(s *Session) {
		s.proxy = addr
	}
}

// WithExtractor wires the extraction pipeline into the scrape_and_store
// action.
func WithExtractor(fn Extractor) Option {
	return func(s *Session) {
		s.extractor = fn
	}
}

// New launches a browser and navigates to startURL. A navigation timeout
// triggers a full teardown (browser process and automation driver) and a
// relaunch, up to launchRetries attempts; exhausting the retries propagates
// the error and the run aborts.
func New(ctx context.Context, startURL string, headless bool, gateway llm.Gateway, opts ...Option) (*Session, error) {
	if startURL == "" {
		return nil, goerr.New("start URL cannot be empty")
	}
	if gateway == nil {
		return nil, goerr.New("LLM gateway is required")
	}

	s := &Session{
		gateway:  gateway,
		headless: headless,
		startURL: startURL,
	}
	for _, opt := range opts {
		opt(s)
	}

	logger := logging.From(ctx)

	var lastErr error
	for attempt := 1; attempt <= launchRetries; attempt++ {
		if err := s.launchBrowser(ctx); err != nil {
			s.teardown(ctx)
			return nil, goerr.Wrap(err, "failed to launch browser")
		}

		err := s.navigate(ctx, startURL)
		if err == nil {
			return s, nil
		}
		if !isTimeout(err) {
			s.teardown(ctx)
			return nil, goerr.Wrap(err, "failed to open start page", goerr.V("url", startURL))
		}

		lastErr = err
		logger.Warn("navigation timed out, resetting browser",
			"url", startURL,
			"attempt", attempt,
			"retries", launchRetries,
		)
		s.teardown(ctx)
	}

	return nil, goerr.Wrap(lastErr, "unable to open page after launch retries",
		goerr.V("url", startURL),
		goerr.V("retries", launchRetries),
	)
}

func (s *Session) launchBrowser(ctx context.Context) error {
	launch := launcher.New().
		Leakless(true).
		Headless(s.headless)
	if s.proxy != "" {
		launch = launch.Proxy(s.proxy)
	}

	controlURL, err := launch.Launch()
	if err != nil {
		return goerr.Wrap(err, "failed to start browser process")
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return goerr.Wrap(err, "failed to connect to browser")
	}

	page, err := stealth.Page(browser)
	if err != nil {
		return goerr.Wrap(err, "failed to create stealth page")
	}

	s.launch = launch
	s.browser = browser
	s.page = page
	return nil
}

func (s *Session) navigate(ctx context.Context, url string) error {
	page := s.page.Context(ctx).Timeout(navigateTimeout)
	if err := page.Navigate(url); err != nil {
		return err
	}
	return page.WaitLoad()
}

// URL returns the current page URL
func (s *Session) URL() string {
	info, err := s.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// Content returns the raw HTML of the current page
func (s *Session) Content(ctx context.Context) (string, error) {
	html, err := s.page.Context(ctx).HTML()
	if err != nil {
		return "", goerr.Wrap(err, "failed to read page content")
	}
	return html, nil
}

// Release tears down the browser session. It is idempotent and safe to
// call multiple times; the agent loop guarantees it runs on every exit
// path.
func (s *Session) Release(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return
	}
	s.released = true
	s.teardown(ctx)
}

func (s *Session) teardown(ctx context.Context) {
	logger := logging.From(ctx)

	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			logger.Warn("failed to close browser", "error", err.Error())
		}
		s.browser = nil
		s.page = nil
	}
	if s.launch != nil {
		s.launch.Cleanup()
		s.launch = nil
	}
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
