// Package browser internal/infrastructure/browser/chromedp_session.go
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/damon-houk/fx-threshold-checker/internal/domain/service"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/logger"
)

// ChromeOptions configures the Chrome instances started for each session
type ChromeOptions struct {
	Headless bool

	// ExecPath overrides the Chrome binary lookup when set
	ExecPath string

	WindowWidth  int
	WindowHeight int
}

// ChromeSessionFactory starts one Chrome instance per session
type ChromeSessionFactory struct {
	opts   ChromeOptions
	logger logger.Logger
}

var _ service.SessionFactory = (*ChromeSessionFactory)(nil)

// NewChromeSessionFactory creates a new Chrome session factory
func NewChromeSessionFactory(opts ChromeOptions, log logger.Logger) *ChromeSessionFactory {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	if opts.WindowWidth <= 0 || opts.WindowHeight <= 0 {
		opts.WindowWidth, opts.WindowHeight = 1920, 1080
	}

	return &ChromeSessionFactory{
		opts:   opts,
		logger: log.WithField("component", "browser"),
	}
}

func (f *ChromeSessionFactory) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", f.opts.Headless),
		chromedp.WindowSize(f.opts.WindowWidth, f.opts.WindowHeight),
	)
	if f.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(f.opts.ExecPath))
	}
	return opts
}

// NewSession starts a browser and opens a blank tab. The browser lives until the session
// is closed, independent of ctx; ctx only bounds the startup.
func (f *ChromeSessionFactory) NewSession(ctx context.Context) (service.PageSession, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), f.allocatorOptions()...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	session := &ChromeSession{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}

	stop := context.AfterFunc(ctx, cancelTab)
	err := chromedp.Run(tabCtx)
	stop()

	if err != nil {
		session.Close()
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	f.logger.Debug("Browser session started", map[string]interface{}{
		"headless": f.opts.Headless,
	})

	return session, nil
}

// ChromeSession is one Chrome instance with a single tab
type ChromeSession struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
}

var _ service.PageSession = (*ChromeSession)(nil)

// run executes actions on the tab, bounded by the caller's deadline and cancellation
func (s *ChromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if deadline, ok := ctx.Deadline(); ok {
		runCtx, cancel = context.WithDeadline(s.ctx, deadline)
	} else {
		runCtx, cancel = context.WithCancel(s.ctx)
	}
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *ChromeSession) WaitPresent(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery))
}

func (s *ChromeSession) WaitClickable(ctx context.Context, selector string) error {
	return s.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.WaitEnabled(selector, chromedp.ByQuery),
	)
}

func (s *ChromeSession) Click(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

func (s *ChromeSession) Clear(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.Clear(selector, chromedp.ByQuery))
}

func (s *ChromeSession) Type(ctx context.Context, selector, text string) error {
	return s.run(ctx, chromedp.SendKeys(selector, text, chromedp.ByQuery))
}

func (s *ChromeSession) Press(ctx context.Context, selector string, key service.Key) error {
	k, err := keyCode(key)
	if err != nil {
		return err
	}
	return s.run(ctx, chromedp.SendKeys(selector, k, chromedp.ByQuery))
}

func (s *ChromeSession) Value(ctx context.Context, selector string) (string, error) {
	var value string
	if err := s.run(ctx, chromedp.Value(selector, &value, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return value, nil
}

// Close shuts down the tab and the browser process
func (s *ChromeSession) Close() error {
	s.cancelTab()
	s.cancelAlloc()
	return nil
}

func keyCode(key service.Key) (string, error) {
	switch key {
	case service.KeyArrowDown:
		return kb.ArrowDown, nil
	case service.KeyEnter:
		return kb.Enter, nil
	default:
		return "", fmt.Errorf("unsupported key %q", key)
	}
}
