// Package driver defines the automation capability a session exclusively
// owns. The registry, wait engine, and operation facade program against
// these interfaces; the chromedp-backed implementation lives in the chrome
// subpackage and test doubles in internal/mocks.
//
// Implementations are NOT safe for concurrent commands on the same session;
// the owning session's command lock enforces one in-flight call at a time.
package driver

import (
	"context"
	"time"

	"github.com/xkilldash9x/browsergrid/api/schemas"
	"github.com/xkilldash9x/browsergrid/internal/locator"
)

// Factory creates one driver per session. Creation starts a real automation
// instance, so a browser window becoming visible is expected.
type Factory interface {
	New(ctx context.Context) (Driver, error)
}

// Driver is the per-session automation capability.
type Driver interface {
	// -- Navigation --

	// Navigate loads url, blocking until the page load completes or
	// pageLoadTimeout elapses. A completed load whose post-load readiness
	// check failed returns a non-empty warning and a nil error.
	Navigate(ctx context.Context, url string, pageLoadTimeout time.Duration) (warning string, err error)
	CurrentURL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	PageSource(ctx context.Context) (string, error)
	Back(ctx context.Context) error
	Forward(ctx context.Context) error
	Refresh(ctx context.Context) error

	// -- Element discovery --

	// FindOne returns the first element matching loc, retrying up to the
	// configured implicit wait. A miss is a KindElementNotFound error.
	FindOne(ctx context.Context, loc locator.Locator) (Element, error)
	// FindAll returns every element matching loc. No match is an empty
	// slice, not an error.
	FindAll(ctx context.Context, loc locator.Locator) ([]Element, error)

	// -- Script execution --

	// ExecuteScript runs a script body (Selenium semantics: `arguments`
	// is bound, `return` produces the result) and returns a tagged value
	// that may contain element references, nested lists, and nested maps.
	ExecuteScript(ctx context.Context, script string, args []interface{}) (ScriptValue, error)

	// Screenshot captures the viewport as PNG bytes.
	Screenshot(ctx context.Context) ([]byte, error)

	// -- Cookies --

	Cookies(ctx context.Context) ([]schemas.Cookie, error)
	AddCookie(ctx context.Context, c schemas.Cookie) error
	DeleteCookie(ctx context.Context, name string) error
	DeleteAllCookies(ctx context.Context) error

	// -- Frames --

	// SwitchToFrame scopes subsequent element queries to the frame
	// selected by target. Unresolvable targets fail with
	// KindFrameNotFound.
	SwitchToFrame(ctx context.Context, target FrameTarget) error
	SwitchToDefault(ctx context.Context) error
	SwitchToParent(ctx context.Context) error

	// -- Alerts --

	// AlertText fails with KindNoAlert when no dialog is open, as do the
	// other alert operations.
	AlertText(ctx context.Context) (string, error)
	AcceptAlert(ctx context.Context) error
	DismissAlert(ctx context.Context) error
	SendAlertText(ctx context.Context, text string) error

	// -- Configuration and lifecycle --

	// SetImplicitWait changes how long FindOne retries before reporting a
	// miss.
	SetImplicitWait(d time.Duration)
	// Quit releases the automation instance. Safe to call once; the
	// session registry guarantees it is not called twice.
	Quit(ctx context.Context) error
}

// Element is one located DOM node. The underlying node can detach at any
// time; operations against a detached node fail with KindStaleElement.
type Element interface {
	Click(ctx context.Context) error
	SendKeys(ctx context.Context, text string, clearFirst bool) error
	Attribute(ctx context.Context, name string) (string, error)
	Text(ctx context.Context) (string, error)
	TagName(ctx context.Context) (string, error)
	IsDisplayed(ctx context.Context) (bool, error)
	IsEnabled(ctx context.Context) (bool, error)
	IsSelected(ctx context.Context) (bool, error)
	Screenshot(ctx context.Context) ([]byte, error)

	// Select-control operations. All fail with a driver error when the
	// element is not a <select>.
	SelectByVisibleText(ctx context.Context, text string) error
	SelectByValue(ctx context.Context, value string) error
	SelectByIndex(ctx context.Context, index int) error
	Options(ctx context.Context, selectedOnly bool) ([]schemas.SelectOption, error)
	DeselectAll(ctx context.Context) error
}

// FrameTarget selects a frame by exactly one of its fields.
type FrameTarget struct {
	// Index selects the nth frame on the page when non-nil.
	Index *int
	// Name selects a frame by its name or id attribute when non-empty.
	Name string
	// Locator selects the frame element itself when non-nil.
	Locator *locator.Locator
}
