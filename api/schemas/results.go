package schemas

import "time"

// -- Operation Result Payloads --
// These types are the success payloads operations return to the transport
// layer. They mirror the wire shapes one-to-one so handlers can encode them
// directly.

// SessionInfo describes one registered session.
type SessionInfo struct {
	SessionID    string    `json:"sessionId"`
	CreatedAt    time.Time `json:"createdAt"`
	ImplicitWait int       `json:"implicitWaitSeconds"`
}

// NavigationResult reports the outcome of a navigation. A navigation whose
// page load completed but whose readiness check failed is still a success,
// carrying a non-empty Warning so callers can assert on it deliberately.
type NavigationResult struct {
	URL        string `json:"url"`
	CurrentURL string `json:"currentUrl"`
	Warning    string `json:"warning,omitempty"`
}

// ElementDetails is the best-effort snapshot taken when an element is
// discovered. Every field except ElementID is read independently; a probe
// that fails leaves its zero value rather than failing the find.
type ElementDetails struct {
	ElementID string `json:"elementId"`
	TagName   string `json:"tagName"`
	Displayed bool   `json:"displayed"`
	Enabled   bool   `json:"enabled"`
	Selected  bool   `json:"selected"`
	Text      string `json:"text"`
	Value     string `json:"value,omitempty"`
}

// FindResult is returned by multi-element finds.
type FindResult struct {
	Count    int              `json:"count"`
	Elements []ElementDetails `json:"elements"`
}

// WaitResult reports a satisfied wait. ElementID is set only for
// element-producing conditions (present, visible, clickable).
type WaitResult struct {
	Satisfied bool   `json:"satisfied"`
	ElementID string `json:"elementId,omitempty"`
	TagName   string `json:"tagName,omitempty"`
	Text      string `json:"text,omitempty"`
}

// Cookie carries the full attribute surface of a browser cookie.
type Cookie struct {
	Name     string     `json:"name"`
	Value    string     `json:"value"`
	Domain   string     `json:"domain,omitempty"`
	Path     string     `json:"path,omitempty"`
	Secure   bool       `json:"secure"`
	HTTPOnly bool       `json:"httpOnly"`
	Expiry   *time.Time `json:"expiry,omitempty"`
}

// SelectOption describes one <option> of a select control.
type SelectOption struct {
	Index    int    `json:"index"`
	Text     string `json:"text"`
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

// ScriptResult holds the transformed value of a script execution. Element
// references discovered inside the result have been registered and appear
// as {"elementId": "..."} objects.
type ScriptResult struct {
	Value interface{} `json:"value"`
}

// AssertionResult reports the outcome of an assertion operation. A false
// Passed is a successful operation whose comparison did not hold; it is not
// an error.
type AssertionResult struct {
	Passed   bool   `json:"passed"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Message  string `json:"message,omitempty"`
}

// AlertInfo carries the text of the currently open dialog.
type AlertInfo struct {
	Text string `json:"text"`
}
