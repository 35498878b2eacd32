package ops

import (
	"context"

	"github.com/xkilldash9x/browsergrid/api/schemas"
	"github.com/xkilldash9x/browsergrid/internal/driver"
)

// SelectByVisibleText selects the option of a select control whose rendered
// text matches exactly.
func (f *Facade) SelectByVisibleText(ctx context.Context, sessionID, elementID, text string) error {
	return f.runElement(ctx, sessionID, elementID, func(drv driver.Driver, el driver.Element) error {
		return el.SelectByVisibleText(ctx, text)
	})
}

// SelectByValue selects the option whose value attribute matches exactly.
func (f *Facade) SelectByValue(ctx context.Context, sessionID, elementID, value string) error {
	return f.runElement(ctx, sessionID, elementID, func(drv driver.Driver, el driver.Element) error {
		return el.SelectByValue(ctx, value)
	})
}

// SelectByIndex selects the option at the given zero-based index.
func (f *Facade) SelectByIndex(ctx context.Context, sessionID, elementID string, index int) error {
	if index < 0 {
		return schemas.Errorf(schemas.KindInvalidArgument, "option index must not be negative: %d", index)
	}
	return f.runElement(ctx, sessionID, elementID, func(drv driver.Driver, el driver.Element) error {
		return el.SelectByIndex(ctx, index)
	})
}

// Options lists a select control's options, or only the selected ones.
func (f *Facade) Options(ctx context.Context, sessionID, elementID string, selectedOnly bool) ([]schemas.SelectOption, error) {
	var out []schemas.SelectOption
	err := f.runElement(ctx, sessionID, elementID, func(drv driver.Driver, el driver.Element) error {
		var cmdErr error
		out, cmdErr = el.Options(ctx, selectedOnly)
		return cmdErr
	})
	return out, err
}

// DeselectAll clears every selection of a multi-select control.
func (f *Facade) DeselectAll(ctx context.Context, sessionID, elementID string) error {
	return f.runElement(ctx, sessionID, elementID, func(drv driver.Driver, el driver.Element) error {
		return el.DeselectAll(ctx)
	})
}

// SetCheckbox drives a checkbox to the requested state, clicking only when
// the current state differs. Already-correct state is a no-op success.
func (f *Facade) SetCheckbox(ctx context.Context, sessionID, elementID string, checked bool) error {
	return f.runElement(ctx, sessionID, elementID, func(drv driver.Driver, el driver.Element) error {
		current, err := el.IsSelected(ctx)
		if err != nil {
			return err
		}
		if current == checked {
			return nil
		}
		return el.Click(ctx)
	})
}
