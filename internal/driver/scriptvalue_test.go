package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruthy(t *testing.T) {
	truthy := []ScriptValue{
		ScalarValue(true),
		ScalarValue("true"),
		ScalarValue("TRUE"),
		ScalarValue("True"),
	}
	for _, v := range truthy {
		assert.True(t, v.Truthy(), "%v", v.Scalar)
	}

	falsy := []ScriptValue{
		ScalarValue(false),
		ScalarValue("false"),
		ScalarValue("yes"),
		ScalarValue(" true"),
		ScalarValue(float64(1)),
		NullValue(),
		ListValue([]ScriptValue{ScalarValue(true)}),
		MapValue(map[string]ScriptValue{"ok": ScalarValue(true)}),
	}
	for _, v := range falsy {
		assert.False(t, v.Truthy(), "%v", v.Scalar)
	}
}
