package chrome

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/browsergrid/api/schemas"
	"github.com/xkilldash9x/browsergrid/internal/driver"
)

// scriptObjectGroup names the remote object group script results live in so
// they can be released in one call after conversion. Elements survive the
// release: by then they are held by backend node id in the DOM domain.
const scriptObjectGroup = "browsergrid-script"

// maxScriptDepth bounds result traversal so cyclic structures cannot hang a
// conversion.
const maxScriptDepth = 16

// ExecuteScript runs a script body with `arguments` bound, awaits a promise
// result, and converts the outcome into the tagged value tree. The result is
// fetched by reference, not by value, so element references inside it stay
// live and convertible.
func (d *Driver) ExecuteScript(ctx context.Context, script string, args []interface{}) (driver.ScriptValue, error) {
	if args == nil {
		args = []interface{}{}
	}
	argJSON, err := json.Marshal(args)
	if err != nil {
		return driver.ScriptValue{}, schemas.Errorf(schemas.KindInvalidArgument, "unencodable script arguments: %v", err)
	}
	expr := fmt.Sprintf("(function() { %s\n }).apply(null, %s)", script, argJSON)

	var result driver.ScriptValue
	err = d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		defer func() {
			_ = runtime.ReleaseObjectGroup(scriptObjectGroup).Do(ctx)
		}()

		obj, exc, err := runtime.Evaluate(expr).
			WithReturnByValue(false).
			WithAwaitPromise(true).
			WithObjectGroup(scriptObjectGroup).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return fmt.Errorf("%s", exceptionText(exc))
		}

		result, err = d.convertRemote(ctx, obj, 0)
		return err
	}))
	if err != nil {
		return driver.ScriptValue{}, schemas.Errorf(schemas.KindDriver, "script execution failed: %v", err)
	}
	return result, nil
}

// convertRemote turns one remote object into a tagged value, recursing into
// arrays and plain objects by enumerating their own properties.
func (d *Driver) convertRemote(ctx context.Context, obj *runtime.RemoteObject, depth int) (driver.ScriptValue, error) {
	if obj == nil || obj.Type == runtime.TypeUndefined {
		return driver.NullValue(), nil
	}
	if depth > maxScriptDepth {
		return driver.NullValue(), fmt.Errorf("script result nests deeper than %d levels", maxScriptDepth)
	}

	switch obj.Type {
	case runtime.TypeBoolean, runtime.TypeNumber, runtime.TypeString:
		if obj.Value != nil {
			var v interface{}
			if err := json.Unmarshal(obj.Value, &v); err != nil {
				return driver.NullValue(), err
			}
			return driver.ScalarValue(v), nil
		}
		// NaN, Infinity and friends have no JSON form; their source text
		// is the best available representation.
		if obj.UnserializableValue != "" {
			return driver.ScalarValue(string(obj.UnserializableValue)), nil
		}
		return driver.NullValue(), nil

	case runtime.TypeObject:
		switch obj.Subtype {
		case runtime.SubtypeNull:
			return driver.NullValue(), nil
		case runtime.SubtypeNode:
			node, err := d.adoptNode(ctx, obj.ObjectID)
			if err != nil {
				return driver.NullValue(), fmt.Errorf("failed to adopt returned node: %w", err)
			}
			return driver.ElementValue(&element{drv: d, node: node}), nil
		case runtime.SubtypeArray:
			return d.convertArray(ctx, obj, depth)
		default:
			return d.convertObject(ctx, obj, depth)
		}

	default:
		// Functions, symbols, and bigints have no value representation.
		return driver.NullValue(), nil
	}
}

func (d *Driver) convertArray(ctx context.Context, obj *runtime.RemoteObject, depth int) (driver.ScriptValue, error) {
	props, err := d.ownProperties(ctx, obj.ObjectID)
	if err != nil {
		return driver.NullValue(), err
	}

	type indexed struct {
		index int
		value *runtime.RemoteObject
	}
	var entries []indexed
	for _, p := range props {
		if p.Value == nil {
			continue
		}
		i, err := strconv.Atoi(p.Name)
		if err != nil {
			// length and other non-index properties
			continue
		}
		entries = append(entries, indexed{index: i, value: p.Value})
	}
	sort.Slice(entries, func(a, b int) bool { return entries[a].index < entries[b].index })

	items := make([]driver.ScriptValue, 0, len(entries))
	for _, e := range entries {
		v, err := d.convertRemote(ctx, e.value, depth+1)
		if err != nil {
			return driver.NullValue(), err
		}
		items = append(items, v)
	}
	return driver.ListValue(items), nil
}

func (d *Driver) convertObject(ctx context.Context, obj *runtime.RemoteObject, depth int) (driver.ScriptValue, error) {
	props, err := d.ownProperties(ctx, obj.ObjectID)
	if err != nil {
		return driver.NullValue(), err
	}

	out := make(map[string]driver.ScriptValue, len(props))
	for _, p := range props {
		if !p.Enumerable || p.Value == nil {
			continue
		}
		v, err := d.convertRemote(ctx, p.Value, depth+1)
		if err != nil {
			return driver.NullValue(), err
		}
		out[p.Name] = v
	}
	return driver.MapValue(out), nil
}

func (d *Driver) ownProperties(ctx context.Context, id runtime.RemoteObjectID) ([]*runtime.PropertyDescriptor, error) {
	props, _, _, exc, err := runtime.GetProperties(id).WithOwnProperties(true).Do(ctx)
	if err != nil {
		return nil, err
	}
	if exc != nil {
		return nil, fmt.Errorf("%s", exceptionText(exc))
	}
	return props, nil
}

// adoptNode moves a script-returned node reference into the DOM domain,
// where it is addressable by node id independent of any object group.
func (d *Driver) adoptNode(ctx context.Context, id runtime.RemoteObjectID) (*cdp.Node, error) {
	nodeID, err := dom.RequestNode(id).Do(ctx)
	if err != nil {
		return nil, err
	}
	node, err := dom.DescribeNode().WithNodeID(nodeID).Do(ctx)
	if err != nil {
		return nil, err
	}
	// DescribeNode leaves the frontend id unset on the returned node.
	node.NodeID = nodeID
	return node, nil
}

func exceptionText(exc *runtime.ExceptionDetails) string {
	if exc == nil {
		return "unknown script exception"
	}
	if exc.Exception != nil && exc.Exception.Description != "" {
		return exc.Exception.Description
	}
	return exc.Text
}
