package ops

import (
	"context"

	"github.com/xkilldash9x/browsergrid/api/schemas"
	"github.com/xkilldash9x/browsergrid/internal/driver"
	"github.com/xkilldash9x/browsergrid/internal/locator"
)

// SwitchToFrameByIndex scopes subsequent element queries to the nth frame on
// the page.
func (f *Facade) SwitchToFrameByIndex(ctx context.Context, sessionID string, index int) error {
	if index < 0 {
		return schemas.Errorf(schemas.KindInvalidArgument, "frame index must not be negative: %d", index)
	}
	return f.run(ctx, sessionID, func(drv driver.Driver) error {
		return drv.SwitchToFrame(ctx, driver.FrameTarget{Index: &index})
	})
}

// SwitchToFrameByName scopes subsequent element queries to the frame whose
// name or id attribute matches.
func (f *Facade) SwitchToFrameByName(ctx context.Context, sessionID, name string) error {
	if name == "" {
		return schemas.Errorf(schemas.KindInvalidArgument, "frame name must not be empty")
	}
	return f.run(ctx, sessionID, func(drv driver.Driver) error {
		return drv.SwitchToFrame(ctx, driver.FrameTarget{Name: name})
	})
}

// SwitchToFrameByLocator locates the frame element itself and scopes
// subsequent element queries to it.
func (f *Facade) SwitchToFrameByLocator(ctx context.Context, sessionID, strategy, value string) error {
	loc, err := locator.Resolve(strategy, value)
	if err != nil {
		return err
	}
	return f.run(ctx, sessionID, func(drv driver.Driver) error {
		return drv.SwitchToFrame(ctx, driver.FrameTarget{Locator: &loc})
	})
}

// SwitchToDefault returns element scoping to the top-level document.
func (f *Facade) SwitchToDefault(ctx context.Context, sessionID string) error {
	return f.run(ctx, sessionID, func(drv driver.Driver) error {
		return drv.SwitchToDefault(ctx)
	})
}

// SwitchToParent returns element scoping one frame up. At the top level it
// is a no-op success.
func (f *Facade) SwitchToParent(ctx context.Context, sessionID string) error {
	return f.run(ctx, sessionID, func(drv driver.Driver) error {
		return drv.SwitchToParent(ctx)
	})
}

// AlertText reads the text of the currently open dialog.
func (f *Facade) AlertText(ctx context.Context, sessionID string) (schemas.AlertInfo, error) {
	var info schemas.AlertInfo
	err := f.run(ctx, sessionID, func(drv driver.Driver) error {
		var cmdErr error
		info.Text, cmdErr = drv.AlertText(ctx)
		return cmdErr
	})
	if err != nil {
		return schemas.AlertInfo{}, err
	}
	return info, nil
}

// AcceptAlert accepts the currently open dialog.
func (f *Facade) AcceptAlert(ctx context.Context, sessionID string) error {
	return f.run(ctx, sessionID, func(drv driver.Driver) error {
		return drv.AcceptAlert(ctx)
	})
}

// DismissAlert dismisses the currently open dialog.
func (f *Facade) DismissAlert(ctx context.Context, sessionID string) error {
	return f.run(ctx, sessionID, func(drv driver.Driver) error {
		return drv.DismissAlert(ctx)
	})
}

// SendAlertText types into the currently open prompt dialog.
func (f *Facade) SendAlertText(ctx context.Context, sessionID, text string) error {
	return f.run(ctx, sessionID, func(drv driver.Driver) error {
		return drv.SendAlertText(ctx, text)
	})
}
