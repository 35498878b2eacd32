// Package chrome implements the driver capability on top of chromedp. One
// browser process is shared through an exec allocator; every session gets
// its own isolated browser context (a dedicated tab with separate storage).
package chrome

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/browsergrid/internal/config"
	"github.com/xkilldash9x/browsergrid/internal/driver"
)

// Factory launches browser contexts off a shared exec allocator. It
// satisfies driver.Factory.
type Factory struct {
	log *zap.Logger
	cfg *config.Config

	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

var _ driver.Factory = (*Factory)(nil)

// NewFactory configures the exec allocator. The browser executable itself is
// started lazily by the first session.
func NewFactory(ctx context.Context, logger *zap.Logger, cfg *config.Config) *Factory {
	f := &Factory{
		log: logger.Named("chrome_factory"),
		cfg: cfg,
	}
	f.allocatorCtx, f.allocatorCancel = chromedp.NewExecAllocator(ctx, f.allocatorOptions()...)

	f.log.Info("Browser allocator initialized",
		zap.Bool("headless", cfg.Browser.Headless),
		zap.Bool("ignore_tls_errors", cfg.Browser.IgnoreTLSErrors),
	)
	return f
}

// allocatorOptions builds the flag set for the browser executable.
func (f *Factory) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)

	browserCfg := f.cfg.Browser
	if browserCfg.Headless {
		opts = append(opts, chromedp.Headless)
	}

	opts = append(opts,
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),

		// Stability flags for containerized environments.
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("metrics-recording-only", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-prompt-on-repost", true),
		chromedp.Flag("disable-extensions", true),

		// GPU often causes issues in headless/containerized environments.
		chromedp.Flag("disable-gpu", browserCfg.Headless),

		chromedp.Flag("ignore-certificate-errors", browserCfg.IgnoreTLSErrors),
	)

	// Operator-supplied flags, "name" or "name=value".
	for _, arg := range browserCfg.Args {
		arg = strings.TrimPrefix(strings.TrimSpace(arg), "--")
		if arg == "" {
			continue
		}
		if name, value, found := strings.Cut(arg, "="); found {
			opts = append(opts, chromedp.Flag(name, value))
		} else {
			opts = append(opts, chromedp.Flag(arg, true))
		}
	}

	return opts
}

// New starts one isolated browser context and returns the driver bound to
// it. Implements driver.Factory.
func (f *Factory) New(ctx context.Context) (driver.Driver, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, fmt.Errorf("allocator is shut down")
	}
	f.mu.Unlock()

	tabCtx, cancel := chromedp.NewContext(f.allocatorCtx,
		chromedp.WithLogf(f.log.Sugar().Debugf),
		chromedp.WithErrorf(f.log.Sugar().Errorf),
	)

	// Force the target to actually start so a broken browser install fails
	// session creation rather than the first command.
	if err := chromedp.Run(tabCtx, chromedp.Navigate("about:blank")); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start browser context: %w", err)
	}

	return newDriver(f.log, tabCtx, cancel), nil
}

// Close shuts down the shared browser process. Sessions must be closed
// first; the registry's CloseAll runs before this on shutdown.
func (f *Factory) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.allocatorCancel()
	f.log.Info("Browser allocator shut down")
}
