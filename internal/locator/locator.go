// Package locator normalizes (strategy, value) pairs into the single query
// concept consumed by element lookup and wait operations. It is pure value
// logic with no knowledge of any driver.
package locator

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/browsergrid/api/schemas"
)

// Strategy is a canonical locator strategy. Synonyms accepted on the wire
// ("css", "class", "link", ...) are folded into these during Resolve.
type Strategy string

const (
	ByID              Strategy = "id"
	ByName            Strategy = "name"
	ByClassName       Strategy = "className"
	ByTagName         Strategy = "tagName"
	ByLinkText        Strategy = "linkText"
	ByPartialLinkText Strategy = "partialLinkText"
	ByCSSSelector     Strategy = "cssSelector"
	ByXPath           Strategy = "xpath"
)

// QueryKind tells the driver how to execute the normalized query string.
type QueryKind int

const (
	// QueryCSS queries are CSS selectors.
	QueryCSS QueryKind = iota
	// QueryXPath queries are XPath expressions.
	QueryXPath
)

// Locator is an immutable normalized locator. Locators are scoped to one
// operation and never stored.
type Locator struct {
	Strategy Strategy
	Value    string
}

// synonyms maps every accepted lowercase strategy spelling to its canonical
// strategy.
var synonyms = map[string]Strategy{
	"id":              ByID,
	"name":            ByName,
	"classname":       ByClassName,
	"class":           ByClassName,
	"tagname":         ByTagName,
	"tag":             ByTagName,
	"linktext":        ByLinkText,
	"link":            ByLinkText,
	"partiallinktext": ByPartialLinkText,
	"partiallink":     ByPartialLinkText,
	"cssselector":     ByCSSSelector,
	"css":             ByCSSSelector,
	"xpath":           ByXPath,
}

// Resolve normalizes a (strategy, value) pair. Matching is case-insensitive
// and unrecognized strategies fail with an invalid-locator error naming the
// offending value; there is no default strategy.
func Resolve(strategy, value string) (Locator, error) {
	if strategy == "" || value == "" {
		return Locator{}, schemas.Errorf(schemas.KindInvalidLocator, "locator strategy and value must not be empty")
	}
	canonical, ok := synonyms[strings.ToLower(strings.TrimSpace(strategy))]
	if !ok {
		return Locator{}, schemas.Errorf(schemas.KindInvalidLocator, "invalid locator strategy: %q", strategy)
	}
	return Locator{Strategy: canonical, Value: value}, nil
}

// Query compiles the locator into an executable query. Strategies without a
// native CSS equivalent reduce to XPath.
func (l Locator) Query() (string, QueryKind) {
	switch l.Strategy {
	case ByCSSSelector:
		return l.Value, QueryCSS
	case ByID:
		return fmt.Sprintf(`//*[@id=%s]`, xpathLiteral(l.Value)), QueryXPath
	case ByName:
		return fmt.Sprintf(`//*[@name=%s]`, xpathLiteral(l.Value)), QueryXPath
	case ByClassName:
		return fmt.Sprintf(`//*[contains(concat(' ', normalize-space(@class), ' '), %s)]`,
			xpathLiteral(" "+l.Value+" ")), QueryXPath
	case ByTagName:
		return "//" + l.Value, QueryXPath
	case ByLinkText:
		return fmt.Sprintf(`//a[normalize-space(.)=%s]`, xpathLiteral(l.Value)), QueryXPath
	case ByPartialLinkText:
		return fmt.Sprintf(`//a[contains(., %s)]`, xpathLiteral(l.Value)), QueryXPath
	case ByXPath:
		return l.Value, QueryXPath
	default:
		// Resolve is the only constructor, so this is unreachable for
		// well-formed locators.
		return l.Value, QueryCSS
	}
}

// String renders the locator for log output and error messages.
func (l Locator) String() string {
	return fmt.Sprintf("%s=%s", l.Strategy, l.Value)
}

// xpathLiteral quotes s as an XPath string literal. Values containing both
// quote characters require concat().
func xpathLiteral(s string) string {
	if !strings.Contains(s, `'`) {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, `'`)
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
