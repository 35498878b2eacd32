// Package ops is the operation facade: the single entry point callers use to
// act on a session. Every operation resolves the session, acquires its
// command lock for the duration of the driver work, and translates failures
// into the service's error taxonomy.
//
// The facade holds no automation state of its own. Sessions live in the
// registry, element handles in the element manager, and timing in the wait
// engine; this package only composes them.
package ops

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/xkilldash9x/browsergrid/api/schemas"
	"github.com/xkilldash9x/browsergrid/internal/config"
	"github.com/xkilldash9x/browsergrid/internal/driver"
	"github.com/xkilldash9x/browsergrid/internal/elements"
	"github.com/xkilldash9x/browsergrid/internal/registry"
	"github.com/xkilldash9x/browsergrid/internal/waitengine"
)

// Facade exposes every per-session operation of the service.
type Facade struct {
	log      *zap.Logger
	cfg      *config.Config
	sessions *registry.Registry
	elements *elements.Manager
	wait     *waitengine.Engine
}

// New wires a facade over the given collaborators.
func New(logger *zap.Logger, cfg *config.Config, sessions *registry.Registry, elems *elements.Manager, wait *waitengine.Engine) *Facade {
	return &Facade{
		log:      logger.Named("ops"),
		cfg:      cfg,
		sessions: sessions,
		elements: elems,
		wait:     wait,
	}
}

// run executes fn under sessionID's command lock. Context errors pass
// through untouched; anything else without a taxonomy kind becomes a driver
// error.
func (f *Facade) run(ctx context.Context, sessionID string, fn func(drv driver.Driver) error) error {
	s, err := f.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	if err := s.Command(ctx, fn); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return schemas.WrapDriver(err)
	}
	return nil
}

// runElement resolves an element handle first, then executes fn under the
// session's command lock. The handle lookup itself never touches the driver.
func (f *Facade) runElement(ctx context.Context, sessionID, elementID string, fn func(drv driver.Driver, el driver.Element) error) error {
	el, err := f.elements.Get(sessionID, elementID)
	if err != nil {
		return err
	}
	return f.run(ctx, sessionID, func(drv driver.Driver) error {
		return fn(drv, el)
	})
}

// snapshotDetails reads an element's display state field by field. Each
// probe that fails leaves its zero value; discovery already succeeded, so a
// flaky probe must not fail the operation. Caller holds the command lock.
func snapshotDetails(ctx context.Context, elementID string, el driver.Element) schemas.ElementDetails {
	d := schemas.ElementDetails{ElementID: elementID}
	if tag, err := el.TagName(ctx); err == nil {
		d.TagName = tag
	}
	if v, err := el.IsDisplayed(ctx); err == nil {
		d.Displayed = v
	}
	if v, err := el.IsEnabled(ctx); err == nil {
		d.Enabled = v
	}
	if v, err := el.IsSelected(ctx); err == nil {
		d.Selected = v
	}
	if text, err := el.Text(ctx); err == nil {
		d.Text = text
	}
	if v, err := el.Attribute(ctx, "value"); err == nil {
		d.Value = v
	}
	return d
}
