package chrome

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/browsergrid/api/schemas"
	"github.com/xkilldash9x/browsergrid/internal/driver"
)

// element is one located DOM node. The node is identified by its backend
// node id, which survives as long as the node stays attached; once the node
// detaches, resolving it fails and every operation reports staleness.
type element struct {
	drv  *Driver
	node *cdp.Node
}

var _ driver.Element = (*element)(nil)

// JS helpers invoked with `this` bound to the element. Each either returns a
// JSON-encodable value or throws; a throw surfaces as a driver error.
const (
	jsScrollIntoView = `function() { this.scrollIntoView({block: 'center', inline: 'center'}); }`
	jsClearValue     = `function() {
		this.value = '';
		this.dispatchEvent(new Event('input', {bubbles: true}));
		this.dispatchEvent(new Event('change', {bubbles: true}));
	}`
	jsGetAttribute = `function(name) {
		var v = this.getAttribute(name);
		return v === null ? '' : v;
	}`
	jsText    = `function() { return (this.innerText !== undefined ? this.innerText : this.textContent) || ''; }`
	jsTagName = `function() { return this.tagName.toLowerCase(); }`
	// Mirrors the usual visibility heuristic: in the layout tree and not
	// styled invisible.
	jsIsDisplayed = `function() {
		if (!this.getClientRects().length) return false;
		var style = window.getComputedStyle(this);
		return style.visibility !== 'hidden' && style.display !== 'none' && style.opacity !== '0';
	}`
	jsIsEnabled  = `function() { return !this.disabled; }`
	jsIsSelected = `function() { return !!(this.checked || this.selected); }`

	jsSelectByText = `function(text) {
		if (this.tagName !== 'SELECT') throw new Error('element is not a select control');
		for (var i = 0; i < this.options.length; i++) {
			if (this.options[i].text.trim() === text) {
				this.options[i].selected = true;
				this.dispatchEvent(new Event('change', {bubbles: true}));
				return;
			}
		}
		throw new Error('no option with visible text: ' + text);
	}`
	jsSelectByValue = `function(value) {
		if (this.tagName !== 'SELECT') throw new Error('element is not a select control');
		for (var i = 0; i < this.options.length; i++) {
			if (this.options[i].value === value) {
				this.options[i].selected = true;
				this.dispatchEvent(new Event('change', {bubbles: true}));
				return;
			}
		}
		throw new Error('no option with value: ' + value);
	}`
	jsSelectByIndex = `function(index) {
		if (this.tagName !== 'SELECT') throw new Error('element is not a select control');
		if (index >= this.options.length) throw new Error('option index out of range: ' + index);
		this.options[index].selected = true;
		this.dispatchEvent(new Event('change', {bubbles: true}));
	}`
	jsOptions = `function(selectedOnly) {
		if (this.tagName !== 'SELECT') throw new Error('element is not a select control');
		var out = [];
		for (var i = 0; i < this.options.length; i++) {
			var o = this.options[i];
			if (selectedOnly && !o.selected) continue;
			out.push({index: i, text: o.text.trim(), value: o.value, selected: o.selected});
		}
		return out;
	}`
	jsDeselectAll = `function() {
		if (this.tagName !== 'SELECT') throw new Error('element is not a select control');
		if (!this.multiple) throw new Error('cannot deselect options of a single-select control');
		for (var i = 0; i < this.options.length; i++) this.options[i].selected = false;
		this.dispatchEvent(new Event('change', {bubbles: true}));
	}`
)

// resolve maps the node to a live remote object. Failure means the node has
// detached from the document.
func (el *element) resolve(ctx context.Context) (runtime.RemoteObjectID, error) {
	var id runtime.RemoteObjectID
	err := el.drv.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithBackendNodeID(el.node.BackendNodeID).Do(ctx)
		if err != nil {
			return err
		}
		id = obj.ObjectID
		return nil
	}))
	if err != nil {
		return "", schemas.Errorf(schemas.KindStaleElement, "element is no longer attached to the document: %v", err)
	}
	return id, nil
}

// call invokes a JS function literal with `this` bound to the element and
// unmarshals the returned value into out when out is non-nil.
func (el *element) call(ctx context.Context, fn string, out interface{}, args ...interface{}) error {
	objID, err := el.resolve(ctx)
	if err != nil {
		return err
	}

	callArgs := make([]*runtime.CallArgument, 0, len(args))
	for _, a := range args {
		raw, err := json.Marshal(a)
		if err != nil {
			return schemas.Errorf(schemas.KindInvalidArgument, "unencodable argument: %v", err)
		}
		callArgs = append(callArgs, &runtime.CallArgument{Value: raw})
	}

	err = el.drv.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		res, exc, err := runtime.CallFunctionOn(fn).
			WithObjectID(objID).
			WithArguments(callArgs).
			WithReturnByValue(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return fmt.Errorf("%s", exceptionText(exc))
		}
		if out != nil && res != nil && res.Value != nil {
			return json.Unmarshal(res.Value, out)
		}
		return nil
	}))
	if err != nil {
		return schemas.WrapDriver(err)
	}
	return nil
}

func (el *element) Click(ctx context.Context) error {
	if err := el.call(ctx, jsScrollIntoView, nil); err != nil {
		return err
	}
	if err := el.drv.run(ctx, chromedp.MouseClickNode(el.node)); err != nil {
		return schemas.Errorf(schemas.KindDriver, "click failed: %v", err)
	}
	return nil
}

func (el *element) SendKeys(ctx context.Context, text string, clearFirst bool) error {
	if clearFirst {
		if err := el.call(ctx, jsClearValue, nil); err != nil {
			return err
		}
	} else if err := el.call(ctx, jsScrollIntoView, nil); err != nil {
		return err
	}
	if err := el.drv.run(ctx, chromedp.KeyEventNode(el.node, text)); err != nil {
		return schemas.Errorf(schemas.KindDriver, "sending keys failed: %v", err)
	}
	return nil
}

func (el *element) Attribute(ctx context.Context, name string) (string, error) {
	var out string
	err := el.call(ctx, jsGetAttribute, &out, name)
	return out, err
}

func (el *element) Text(ctx context.Context) (string, error) {
	var out string
	err := el.call(ctx, jsText, &out)
	return out, err
}

func (el *element) TagName(ctx context.Context) (string, error) {
	var out string
	err := el.call(ctx, jsTagName, &out)
	return out, err
}

func (el *element) IsDisplayed(ctx context.Context) (bool, error) {
	var out bool
	err := el.call(ctx, jsIsDisplayed, &out)
	return out, err
}

func (el *element) IsEnabled(ctx context.Context) (bool, error) {
	var out bool
	err := el.call(ctx, jsIsEnabled, &out)
	return out, err
}

func (el *element) IsSelected(ctx context.Context) (bool, error) {
	var out bool
	err := el.call(ctx, jsIsSelected, &out)
	return out, err
}

func (el *element) Screenshot(ctx context.Context) ([]byte, error) {
	if err := el.call(ctx, jsScrollIntoView, nil); err != nil {
		return nil, err
	}
	var buf []byte
	err := el.drv.run(ctx, chromedp.Screenshot([]cdp.NodeID{el.node.NodeID}, &buf, chromedp.ByNodeID))
	if err != nil {
		return nil, schemas.Errorf(schemas.KindDriver, "element screenshot failed: %v", err)
	}
	return buf, nil
}

func (el *element) SelectByVisibleText(ctx context.Context, text string) error {
	return el.call(ctx, jsSelectByText, nil, text)
}

func (el *element) SelectByValue(ctx context.Context, value string) error {
	return el.call(ctx, jsSelectByValue, nil, value)
}

func (el *element) SelectByIndex(ctx context.Context, index int) error {
	return el.call(ctx, jsSelectByIndex, nil, index)
}

func (el *element) Options(ctx context.Context, selectedOnly bool) ([]schemas.SelectOption, error) {
	var out []schemas.SelectOption
	err := el.call(ctx, jsOptions, &out, selectedOnly)
	return out, err
}

func (el *element) DeselectAll(ctx context.Context) error {
	return el.call(ctx, jsDeselectAll, nil)
}
