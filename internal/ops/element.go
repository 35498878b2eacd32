package ops

import (
	"context"

	"github.com/xkilldash9x/browsergrid/api/schemas"
	"github.com/xkilldash9x/browsergrid/internal/driver"
	"github.com/xkilldash9x/browsergrid/internal/locator"
)

// FindElement locates the first element matching (strategy, value), registers
// it, and returns its handle with a best-effort state snapshot. The driver
// retries up to the session's implicit wait before reporting a miss.
func (f *Facade) FindElement(ctx context.Context, sessionID, strategy, value string) (schemas.ElementDetails, error) {
	loc, err := locator.Resolve(strategy, value)
	if err != nil {
		return schemas.ElementDetails{}, err
	}

	var details schemas.ElementDetails
	err = f.run(ctx, sessionID, func(drv driver.Driver) error {
		el, findErr := drv.FindOne(ctx, loc)
		if findErr != nil {
			return findErr
		}
		details = snapshotDetails(ctx, f.elements.Store(sessionID, el), el)
		return nil
	})
	if err != nil {
		return schemas.ElementDetails{}, err
	}
	return details, nil
}

// FindElements locates every element matching (strategy, value), registers
// each, and returns their handles. No match is a zero-count result, not an
// error.
func (f *Facade) FindElements(ctx context.Context, sessionID, strategy, value string) (schemas.FindResult, error) {
	loc, err := locator.Resolve(strategy, value)
	if err != nil {
		return schemas.FindResult{}, err
	}

	result := schemas.FindResult{Elements: []schemas.ElementDetails{}}
	err = f.run(ctx, sessionID, func(drv driver.Driver) error {
		els, findErr := drv.FindAll(ctx, loc)
		if findErr != nil {
			return findErr
		}
		for _, el := range els {
			result.Elements = append(result.Elements, snapshotDetails(ctx, f.elements.Store(sessionID, el), el))
		}
		result.Count = len(result.Elements)
		return nil
	})
	if err != nil {
		return schemas.FindResult{}, err
	}
	return result, nil
}

// Click clicks a previously located element.
func (f *Facade) Click(ctx context.Context, sessionID, elementID string) error {
	return f.runElement(ctx, sessionID, elementID, func(drv driver.Driver, el driver.Element) error {
		return el.Click(ctx)
	})
}

// SendKeys types text into an element, optionally clearing its current value
// first.
func (f *Facade) SendKeys(ctx context.Context, sessionID, elementID, text string, clearFirst bool) error {
	return f.runElement(ctx, sessionID, elementID, func(drv driver.Driver, el driver.Element) error {
		return el.SendKeys(ctx, text, clearFirst)
	})
}

// Attribute reads one attribute of an element. A missing attribute reads as
// an empty string.
func (f *Facade) Attribute(ctx context.Context, sessionID, elementID, name string) (string, error) {
	if name == "" {
		return "", schemas.Errorf(schemas.KindInvalidArgument, "attribute name must not be empty")
	}
	var out string
	err := f.runElement(ctx, sessionID, elementID, func(drv driver.Driver, el driver.Element) error {
		var cmdErr error
		out, cmdErr = el.Attribute(ctx, name)
		return cmdErr
	})
	return out, err
}

// Clear empties an element's current value without typing anything new.
func (f *Facade) Clear(ctx context.Context, sessionID, elementID string) error {
	return f.runElement(ctx, sessionID, elementID, func(drv driver.Driver, el driver.Element) error {
		return el.SendKeys(ctx, "", true)
	})
}

// Displayed reports whether the element is currently visible.
func (f *Facade) Displayed(ctx context.Context, sessionID, elementID string) (bool, error) {
	var out bool
	err := f.runElement(ctx, sessionID, elementID, func(drv driver.Driver, el driver.Element) error {
		var cmdErr error
		out, cmdErr = el.IsDisplayed(ctx)
		return cmdErr
	})
	return out, err
}

// Enabled reports whether the element is currently enabled.
func (f *Facade) Enabled(ctx context.Context, sessionID, elementID string) (bool, error) {
	var out bool
	err := f.runElement(ctx, sessionID, elementID, func(drv driver.Driver, el driver.Element) error {
		var cmdErr error
		out, cmdErr = el.IsEnabled(ctx)
		return cmdErr
	})
	return out, err
}

// Text reads an element's rendered text.
func (f *Facade) Text(ctx context.Context, sessionID, elementID string) (string, error) {
	var out string
	err := f.runElement(ctx, sessionID, elementID, func(drv driver.Driver, el driver.Element) error {
		var cmdErr error
		out, cmdErr = el.Text(ctx)
		return cmdErr
	})
	return out, err
}

// Details re-reads the state snapshot of an already located element.
func (f *Facade) Details(ctx context.Context, sessionID, elementID string) (schemas.ElementDetails, error) {
	var details schemas.ElementDetails
	err := f.runElement(ctx, sessionID, elementID, func(drv driver.Driver, el driver.Element) error {
		details = snapshotDetails(ctx, elementID, el)
		return nil
	})
	if err != nil {
		return schemas.ElementDetails{}, err
	}
	return details, nil
}

// ElementScreenshot captures just the element's bounding box as PNG bytes.
func (f *Facade) ElementScreenshot(ctx context.Context, sessionID, elementID string) ([]byte, error) {
	var out []byte
	err := f.runElement(ctx, sessionID, elementID, func(drv driver.Driver, el driver.Element) error {
		var cmdErr error
		out, cmdErr = el.Screenshot(ctx)
		return cmdErr
	})
	return out, err
}
