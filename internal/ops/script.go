package ops

import (
	"context"
	"strings"

	"github.com/xkilldash9x/browsergrid/api/schemas"
	"github.com/xkilldash9x/browsergrid/internal/driver"
)

// ExecuteScript runs a script body in the session's page and returns its
// result as plain JSON-encodable data. Element references found anywhere in
// the result, at any nesting depth, are registered with the element manager
// and rendered as {"elementId": "..."} objects so callers can use them in
// later element operations.
func (f *Facade) ExecuteScript(ctx context.Context, sessionID, script string, args []interface{}) (schemas.ScriptResult, error) {
	if strings.TrimSpace(script) == "" {
		return schemas.ScriptResult{}, schemas.Errorf(schemas.KindInvalidArgument, "script must not be empty")
	}

	var value driver.ScriptValue
	err := f.run(ctx, sessionID, func(drv driver.Driver) error {
		var cmdErr error
		value, cmdErr = drv.ExecuteScript(ctx, script, args)
		return cmdErr
	})
	if err != nil {
		return schemas.ScriptResult{}, err
	}
	return schemas.ScriptResult{Value: f.transformValue(sessionID, value)}, nil
}

// transformValue walks a script result structurally, minting handles for
// element references as it goes. The walk mirrors the value's own shape:
// lists stay lists, maps stay maps, scalars pass through.
func (f *Facade) transformValue(sessionID string, v driver.ScriptValue) interface{} {
	switch v.Kind {
	case driver.KindNull:
		return nil
	case driver.KindScalar:
		return v.Scalar
	case driver.KindElement:
		return map[string]interface{}{"elementId": f.elements.Store(sessionID, v.Element)}
	case driver.KindList:
		out := make([]interface{}, 0, len(v.List))
		for _, item := range v.List {
			out = append(out, f.transformValue(sessionID, item))
		}
		return out
	case driver.KindMap:
		out := make(map[string]interface{}, len(v.Map))
		for key, item := range v.Map {
			out[key] = f.transformValue(sessionID, item)
		}
		return out
	default:
		return nil
	}
}
