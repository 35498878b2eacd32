package ops

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/browsergrid/api/schemas"
	"github.com/xkilldash9x/browsergrid/internal/driver"
)

// Navigate loads url in the session's browser and reports where it ended up.
// A completed load whose readiness check failed is still a success; the
// failure text travels in the result's Warning field so callers can assert
// on readiness deliberately instead of having flaky pages abort a flow.
func (f *Facade) Navigate(ctx context.Context, sessionID, url string) (schemas.NavigationResult, error) {
	if strings.TrimSpace(url) == "" {
		return schemas.NavigationResult{}, schemas.Errorf(schemas.KindInvalidArgument, "url must not be empty")
	}

	timeout := time.Duration(f.cfg.Driver.DefaultPageLoadSeconds) * time.Second
	result := schemas.NavigationResult{URL: url}
	err := f.run(ctx, sessionID, func(drv driver.Driver) error {
		warning, navErr := drv.Navigate(ctx, url, timeout)
		if navErr != nil {
			return navErr
		}
		result.Warning = warning
		if current, curErr := drv.CurrentURL(ctx); curErr == nil {
			result.CurrentURL = current
		}
		return nil
	})
	if err != nil {
		return schemas.NavigationResult{}, err
	}

	if result.Warning != "" {
		f.log.Warn("Navigation completed with readiness warning",
			zap.String("session_id", sessionID),
			zap.String("url", url),
			zap.String("warning", result.Warning),
		)
	}
	return result, nil
}

// CurrentURL reports the session's current location.
func (f *Facade) CurrentURL(ctx context.Context, sessionID string) (string, error) {
	var out string
	err := f.run(ctx, sessionID, func(drv driver.Driver) error {
		var cmdErr error
		out, cmdErr = drv.CurrentURL(ctx)
		return cmdErr
	})
	return out, err
}

// Title reports the current document title.
func (f *Facade) Title(ctx context.Context, sessionID string) (string, error) {
	var out string
	err := f.run(ctx, sessionID, func(drv driver.Driver) error {
		var cmdErr error
		out, cmdErr = drv.Title(ctx)
		return cmdErr
	})
	return out, err
}

// PageSource returns the current document's serialized markup.
func (f *Facade) PageSource(ctx context.Context, sessionID string) (string, error) {
	var out string
	err := f.run(ctx, sessionID, func(drv driver.Driver) error {
		var cmdErr error
		out, cmdErr = drv.PageSource(ctx)
		return cmdErr
	})
	return out, err
}

// Back navigates one step back in the session's history.
func (f *Facade) Back(ctx context.Context, sessionID string) error {
	return f.run(ctx, sessionID, func(drv driver.Driver) error {
		return drv.Back(ctx)
	})
}

// Forward navigates one step forward in the session's history.
func (f *Facade) Forward(ctx context.Context, sessionID string) error {
	return f.run(ctx, sessionID, func(drv driver.Driver) error {
		return drv.Forward(ctx)
	})
}

// Refresh reloads the current page. Element handles issued before the reload
// will surface as stale on their next use.
func (f *Facade) Refresh(ctx context.Context, sessionID string) error {
	return f.run(ctx, sessionID, func(drv driver.Driver) error {
		return drv.Refresh(ctx)
	})
}

// Screenshot captures the session's viewport as PNG bytes.
func (f *Facade) Screenshot(ctx context.Context, sessionID string) ([]byte, error) {
	var out []byte
	err := f.run(ctx, sessionID, func(drv driver.Driver) error {
		var cmdErr error
		out, cmdErr = drv.Screenshot(ctx)
		return cmdErr
	})
	return out, err
}
