package locator_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/browsergrid/api/schemas"
	"github.com/xkilldash9x/browsergrid/internal/locator"
)

func TestResolve_SynonymsNormalize(t *testing.T) {
	cases := []struct {
		a, b string
	}{
		{"css", "cssSelector"},
		{"class", "className"},
		{"tag", "tagName"},
		{"link", "linkText"},
		{"partiallink", "partialLinkText"},
	}

	for _, tc := range cases {
		la, err := locator.Resolve(tc.a, "some-value")
		require.NoError(t, err)
		lb, err := locator.Resolve(tc.b, "some-value")
		require.NoError(t, err)
		assert.Equal(t, la, lb, "%q and %q must normalize identically", tc.a, tc.b)
	}
}

func TestResolve_CaseInsensitive(t *testing.T) {
	la, err := locator.Resolve("XPATH", "//div")
	require.NoError(t, err)
	lb, err := locator.Resolve("xpath", "//div")
	require.NoError(t, err)
	assert.Equal(t, la, lb)
}

func TestResolve_UnknownStrategyFails(t *testing.T) {
	_, err := locator.Resolve("bogus", "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, schemas.ErrInvalidLocator))
	assert.Contains(t, err.Error(), "bogus", "error must name the offending strategy")
}

func TestResolve_EmptyInputsFail(t *testing.T) {
	_, err := locator.Resolve("", "x")
	assert.True(t, errors.Is(err, schemas.ErrInvalidLocator))

	_, err = locator.Resolve("id", "")
	assert.True(t, errors.Is(err, schemas.ErrInvalidLocator))
}

func TestQuery_Compilation(t *testing.T) {
	tests := []struct {
		strategy string
		value    string
		want     string
		kind     locator.QueryKind
	}{
		{"css", "div.item", "div.item", locator.QueryCSS},
		{"xpath", "//div[@id='x']", "//div[@id='x']", locator.QueryXPath},
		{"id", "login", `//*[@id='login']`, locator.QueryXPath},
		{"name", "q", `//*[@name='q']`, locator.QueryXPath},
		{"tag", "button", "//button", locator.QueryXPath},
		{"link", "Sign in", `//a[normalize-space(.)='Sign in']`, locator.QueryXPath},
		{"partiallink", "Sign", `//a[contains(., 'Sign')]`, locator.QueryXPath},
	}

	for _, tc := range tests {
		loc, err := locator.Resolve(tc.strategy, tc.value)
		require.NoError(t, err)
		q, kind := loc.Query()
		assert.Equal(t, tc.want, q)
		assert.Equal(t, tc.kind, kind)
	}
}

func TestQuery_ClassNameMatchesWholeToken(t *testing.T) {
	loc, err := locator.Resolve("className", "btn")
	require.NoError(t, err)
	q, kind := loc.Query()
	assert.Equal(t, locator.QueryXPath, kind)
	assert.Contains(t, q, "' btn '")
}

func TestQuery_QuotesInValues(t *testing.T) {
	loc, err := locator.Resolve("linkText", "it's \"quoted\"")
	require.NoError(t, err)
	q, _ := loc.Query()
	// Mixed quotes force a concat() literal.
	assert.Contains(t, q, "concat(")
}
