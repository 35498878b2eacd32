package driver

import "strings"

// ScriptValueKind tags the variants a script result can take.
type ScriptValueKind int

const (
	// KindNull covers null and undefined results.
	KindNull ScriptValueKind = iota
	// KindScalar carries a JSON-decodable primitive (bool, number, string).
	KindScalar
	// KindElement carries a live element reference returned by the script.
	KindElement
	// KindList carries an ordered sequence of nested values.
	KindList
	// KindMap carries a string-keyed object of nested values.
	KindMap
)

// ScriptValue is the recursive tagged variant a script execution produces.
// Results are transformed structurally rather than type-cased: a value is
// exactly one of null, scalar, element, list, or map, and lists and maps
// nest arbitrarily.
type ScriptValue struct {
	Kind    ScriptValueKind
	Scalar  interface{}
	Element Element
	List    []ScriptValue
	Map     map[string]ScriptValue
}

// NullValue returns the null variant.
func NullValue() ScriptValue { return ScriptValue{Kind: KindNull} }

// ScalarValue wraps a primitive.
func ScalarValue(v interface{}) ScriptValue {
	if v == nil {
		return NullValue()
	}
	return ScriptValue{Kind: KindScalar, Scalar: v}
}

// ElementValue wraps a live element reference.
func ElementValue(el Element) ScriptValue {
	return ScriptValue{Kind: KindElement, Element: el}
}

// ListValue wraps a sequence of nested values.
func ListValue(items []ScriptValue) ScriptValue {
	return ScriptValue{Kind: KindList, List: items}
}

// MapValue wraps an object of nested values.
func MapValue(m map[string]ScriptValue) ScriptValue {
	return ScriptValue{Kind: KindMap, Map: m}
}

// Truthy reports whether the value satisfies a script-condition wait. Only
// boolean true and the string "true" (any letter case) count; everything
// else, including non-zero numbers, is false.
func (v ScriptValue) Truthy() bool {
	if v.Kind != KindScalar {
		return false
	}
	switch s := v.Scalar.(type) {
	case bool:
		return s
	case string:
		return strings.EqualFold(s, "true")
	default:
		return false
	}
}
