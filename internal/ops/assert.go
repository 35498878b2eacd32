package ops

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/xkilldash9x/browsergrid/api/schemas"
)

// MatchMode names how an assertion compares actual against expected.
type MatchMode string

const (
	MatchEquals     MatchMode = "equals"
	MatchContains   MatchMode = "contains"
	MatchStartsWith MatchMode = "startsWith"
	MatchEndsWith   MatchMode = "endsWith"
	// MatchRegexp treats expected as a regular expression the actual value
	// must match somewhere.
	MatchRegexp MatchMode = "matches"
)

// ParseMatchMode normalizes a wire-form match mode name.
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "equals":
		return MatchEquals, nil
	case "contains":
		return MatchContains, nil
	case "startswith":
		return MatchStartsWith, nil
	case "endswith":
		return MatchEndsWith, nil
	case "matches", "regexp":
		return MatchRegexp, nil
	default:
		return "", schemas.Errorf(schemas.KindInvalidArgument, "invalid match mode: %q", s)
	}
}

// compare applies mode and builds the assertion verdict. A comparison that
// does not hold is a successful operation with Passed false; only a broken
// regular expression is an error.
func compare(subject, actual, expected string, mode MatchMode) (schemas.AssertionResult, error) {
	var passed bool
	switch mode {
	case MatchEquals:
		passed = actual == expected
	case MatchContains:
		passed = strings.Contains(actual, expected)
	case MatchStartsWith:
		passed = strings.HasPrefix(actual, expected)
	case MatchEndsWith:
		passed = strings.HasSuffix(actual, expected)
	case MatchRegexp:
		re, err := regexp.Compile(expected)
		if err != nil {
			return schemas.AssertionResult{}, schemas.Errorf(schemas.KindInvalidArgument,
				"invalid assertion pattern %q: %v", expected, err)
		}
		passed = re.MatchString(actual)
	default:
		return schemas.AssertionResult{}, schemas.Errorf(schemas.KindInvalidArgument, "invalid match mode: %q", mode)
	}

	result := schemas.AssertionResult{Passed: passed, Expected: expected, Actual: actual}
	if !passed {
		result.Message = fmt.Sprintf("%s assertion failed: %s %q, got %q", subject, mode, expected, actual)
	}
	return result, nil
}

// AssertElementText compares an element's rendered text against expected.
func (f *Facade) AssertElementText(ctx context.Context, sessionID, elementID, expected string, mode MatchMode) (schemas.AssertionResult, error) {
	actual, err := f.Text(ctx, sessionID, elementID)
	if err != nil {
		return schemas.AssertionResult{}, err
	}
	return compare("element text", actual, expected, mode)
}

// AssertElementAttribute compares one attribute of an element against
// expected.
func (f *Facade) AssertElementAttribute(ctx context.Context, sessionID, elementID, name, expected string, mode MatchMode) (schemas.AssertionResult, error) {
	actual, err := f.Attribute(ctx, sessionID, elementID, name)
	if err != nil {
		return schemas.AssertionResult{}, err
	}
	return compare(fmt.Sprintf("attribute %q", name), actual, expected, mode)
}

// AssertElementState compares a boolean property of an element, one of
// displayed, enabled, or selected, against the expected state.
func (f *Facade) AssertElementState(ctx context.Context, sessionID, elementID, property string, expected bool) (schemas.AssertionResult, error) {
	details, err := f.Details(ctx, sessionID, elementID)
	if err != nil {
		return schemas.AssertionResult{}, err
	}

	var actual bool
	switch strings.ToLower(strings.TrimSpace(property)) {
	case "displayed":
		actual = details.Displayed
	case "enabled":
		actual = details.Enabled
	case "selected":
		actual = details.Selected
	default:
		return schemas.AssertionResult{}, schemas.Errorf(schemas.KindInvalidArgument,
			"element state property must be displayed, enabled, or selected: %q", property)
	}

	result := schemas.AssertionResult{
		Passed:   actual == expected,
		Expected: strconv.FormatBool(expected),
		Actual:   strconv.FormatBool(actual),
	}
	if !result.Passed {
		result.Message = fmt.Sprintf("element state assertion failed: %s expected %t, got %t", property, expected, actual)
	}
	return result, nil
}

// AssertURL compares the session's current location against expected.
func (f *Facade) AssertURL(ctx context.Context, sessionID, expected string, mode MatchMode) (schemas.AssertionResult, error) {
	actual, err := f.CurrentURL(ctx, sessionID)
	if err != nil {
		return schemas.AssertionResult{}, err
	}
	return compare("url", actual, expected, mode)
}

// AssertTitle compares the current document title against expected.
func (f *Facade) AssertTitle(ctx context.Context, sessionID, expected string, mode MatchMode) (schemas.AssertionResult, error) {
	actual, err := f.Title(ctx, sessionID)
	if err != nil {
		return schemas.AssertionResult{}, err
	}
	return compare("title", actual, expected, mode)
}
