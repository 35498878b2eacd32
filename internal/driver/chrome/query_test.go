package chrome

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/browsergrid/internal/locator"
)

func TestPlanQueryScopesEveryXPathStrategyToTheActiveFrame(t *testing.T) {
	// Every strategy without a native CSS form compiles to XPath and must
	// not take the document-wide search path while a frame is active.
	xpathStrategies := []string{
		"id", "name", "className", "tagName",
		"linkText", "partialLinkText", "xpath",
	}
	for _, strategy := range xpathStrategies {
		loc, err := locator.Resolve(strategy, "target")
		require.NoError(t, err)
		_, kind := loc.Query()
		require.Equal(t, locator.QueryXPath, kind, strategy)

		assert.Equal(t, queryModeFrameXPath, planQuery(kind, true), strategy)
		assert.Equal(t, queryModeSearch, planQuery(kind, false), strategy)
	}
}

func TestPlanQueryKeepsCSSOnQuerySelector(t *testing.T) {
	loc, err := locator.Resolve("css", ".target")
	require.NoError(t, err)
	_, kind := loc.Query()

	assert.Equal(t, queryModeCSS, planQuery(kind, true),
		"querySelectorAll scopes to the frame's content document natively")
	assert.Equal(t, queryModeCSS, planQuery(kind, false))
}
