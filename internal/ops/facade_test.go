package ops_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/browsergrid/api/schemas"
	"github.com/xkilldash9x/browsergrid/internal/config"
	"github.com/xkilldash9x/browsergrid/internal/driver"
	"github.com/xkilldash9x/browsergrid/internal/elements"
	"github.com/xkilldash9x/browsergrid/internal/mocks"
	"github.com/xkilldash9x/browsergrid/internal/ops"
	"github.com/xkilldash9x/browsergrid/internal/registry"
	"github.com/xkilldash9x/browsergrid/internal/waitengine"
)

type mockFactory struct{ drv driver.Driver }

func (f mockFactory) New(ctx context.Context) (driver.Driver, error) { return f.drv, nil }

// newFacade builds a facade over a single mocked driver session and returns
// the collaborators a test needs to seed expectations and inspect handles.
func newFacade(t *testing.T) (*ops.Facade, *mocks.MockDriver, *elements.Manager, string) {
	t.Helper()
	drv := new(mocks.MockDriver)
	drv.On("SetImplicitWait", mock.Anything).Return()

	cfg := config.NewDefaultConfig()
	elems := elements.NewManager()
	reg := registry.New(zap.NewNop(), cfg, mockFactory{drv: drv}, elems)
	wait := waitengine.New(zap.NewNop(), reg, elems, 20*time.Millisecond)
	facade := ops.New(zap.NewNop(), cfg, reg, elems, wait)

	s, err := reg.Create(context.Background())
	require.NoError(t, err)
	return facade, drv, elems, s.ID()
}

// expectSnapshot seeds the best-effort state probes taken on discovery.
func expectSnapshot(el *mocks.MockElement, tag, text string) {
	el.On("TagName", mock.Anything).Return(tag, nil)
	el.On("IsDisplayed", mock.Anything).Return(true, nil)
	el.On("IsEnabled", mock.Anything).Return(true, nil)
	el.On("IsSelected", mock.Anything).Return(false, nil)
	el.On("Text", mock.Anything).Return(text, nil)
	el.On("Attribute", mock.Anything, "value").Return("", nil)
}

func TestFindElement_RegistersHandleWithSnapshot(t *testing.T) {
	facade, drv, elems, sid := newFacade(t)

	el := new(mocks.MockElement)
	expectSnapshot(el, "input", "")
	drv.On("FindOne", mock.Anything, mock.Anything).Return(el, nil)

	details, err := facade.FindElement(context.Background(), sid, "css", "#login")
	require.NoError(t, err)

	assert.Equal(t, "input", details.TagName)
	assert.True(t, details.Displayed)
	require.NotEmpty(t, details.ElementID)

	stored, err := elems.Get(sid, details.ElementID)
	require.NoError(t, err)
	assert.Same(t, driver.Element(el), stored)
}

func TestFindElement_SnapshotProbesAreBestEffort(t *testing.T) {
	facade, drv, _, sid := newFacade(t)

	el := new(mocks.MockElement)
	el.On("TagName", mock.Anything).Return("div", nil)
	el.On("IsDisplayed", mock.Anything).Return(false, errors.New("detached"))
	el.On("IsEnabled", mock.Anything).Return(false, errors.New("detached"))
	el.On("IsSelected", mock.Anything).Return(false, errors.New("detached"))
	el.On("Text", mock.Anything).Return("", errors.New("detached"))
	el.On("Attribute", mock.Anything, "value").Return("", errors.New("detached"))
	drv.On("FindOne", mock.Anything, mock.Anything).Return(el, nil)

	details, err := facade.FindElement(context.Background(), sid, "id", "flaky")
	require.NoError(t, err, "probe failures must not fail the find")
	assert.Equal(t, "div", details.TagName)
	assert.False(t, details.Displayed)
	assert.NotEmpty(t, details.ElementID)
}

func TestFindElement_InvalidStrategy(t *testing.T) {
	facade, drv, _, sid := newFacade(t)

	_, err := facade.FindElement(context.Background(), sid, "bogus", "x")
	assert.True(t, errors.Is(err, schemas.ErrInvalidLocator))
	drv.AssertNotCalled(t, "FindOne", mock.Anything, mock.Anything)
}

func TestFindElement_UnknownSession(t *testing.T) {
	facade, _, _, _ := newFacade(t)

	_, err := facade.FindElement(context.Background(), "ghost", "css", "#x")
	assert.True(t, errors.Is(err, schemas.ErrSessionNotFound))
}

func TestFindElements_NoMatchIsEmptyResult(t *testing.T) {
	facade, drv, _, sid := newFacade(t)
	drv.On("FindAll", mock.Anything, mock.Anything).Return([]driver.Element{}, nil)

	result, err := facade.FindElements(context.Background(), sid, "css", ".absent")
	require.NoError(t, err)
	assert.Zero(t, result.Count)
	assert.Empty(t, result.Elements)
}

func TestFindElements_EachMatchGetsOwnHandle(t *testing.T) {
	facade, drv, elems, sid := newFacade(t)

	first, second := new(mocks.MockElement), new(mocks.MockElement)
	expectSnapshot(first, "li", "one")
	expectSnapshot(second, "li", "two")
	drv.On("FindAll", mock.Anything, mock.Anything).Return([]driver.Element{first, second}, nil)

	result, err := facade.FindElements(context.Background(), sid, "css", "li")
	require.NoError(t, err)
	require.Equal(t, 2, result.Count)
	assert.NotEqual(t, result.Elements[0].ElementID, result.Elements[1].ElementID)
	assert.Equal(t, 2, elems.Count(sid))
}

func TestClick_ResolvesHandle(t *testing.T) {
	facade, _, elems, sid := newFacade(t)

	el := new(mocks.MockElement)
	el.On("Click", mock.Anything).Return(nil)
	id := elems.Store(sid, el)

	require.NoError(t, facade.Click(context.Background(), sid, id))
	el.AssertCalled(t, "Click", mock.Anything)
}

func TestClick_UnknownHandle(t *testing.T) {
	facade, _, _, sid := newFacade(t)

	err := facade.Click(context.Background(), sid, "never-issued")
	assert.True(t, errors.Is(err, schemas.ErrElementNotFound))
}

func TestClick_StaleElementSurfaces(t *testing.T) {
	facade, _, elems, sid := newFacade(t)

	el := new(mocks.MockElement)
	el.On("Click", mock.Anything).Return(schemas.Errorf(schemas.KindStaleElement, "node detached"))
	id := elems.Store(sid, el)

	err := facade.Click(context.Background(), sid, id)
	assert.True(t, errors.Is(err, schemas.ErrStaleElement))

	// The handle is not purged; a retry reports staleness again rather
	// than not-found.
	err = facade.Click(context.Background(), sid, id)
	assert.True(t, errors.Is(err, schemas.ErrStaleElement))
}

func TestSendKeys(t *testing.T) {
	facade, _, elems, sid := newFacade(t)

	el := new(mocks.MockElement)
	el.On("SendKeys", mock.Anything, "admin", true).Return(nil)
	id := elems.Store(sid, el)

	require.NoError(t, facade.SendKeys(context.Background(), sid, id, "admin", true))
}

func TestAttribute_RequiresName(t *testing.T) {
	facade, _, elems, sid := newFacade(t)
	id := elems.Store(sid, new(mocks.MockElement))

	_, err := facade.Attribute(context.Background(), sid, id, "")
	assert.Equal(t, schemas.KindInvalidArgument, schemas.KindOf(err))
}

func TestNavigate(t *testing.T) {
	facade, drv, _, sid := newFacade(t)

	drv.On("Navigate", mock.Anything, "https://example.com/", mock.Anything).Return("", nil)
	drv.On("CurrentURL", mock.Anything).Return("https://example.com/home", nil)

	result, err := facade.Navigate(context.Background(), sid, "https://example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/", result.URL)
	assert.Equal(t, "https://example.com/home", result.CurrentURL)
	assert.Empty(t, result.Warning)
}

func TestNavigate_ReadinessWarningIsNotAnError(t *testing.T) {
	facade, drv, _, sid := newFacade(t)

	drv.On("Navigate", mock.Anything, mock.Anything, mock.Anything).
		Return("document readyState did not reach complete", nil)
	drv.On("CurrentURL", mock.Anything).Return("https://slow.example.com/", nil)

	result, err := facade.Navigate(context.Background(), sid, "https://slow.example.com/")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Warning)
}

func TestNavigate_EmptyURL(t *testing.T) {
	facade, _, _, sid := newFacade(t)

	_, err := facade.Navigate(context.Background(), sid, "  ")
	assert.Equal(t, schemas.KindInvalidArgument, schemas.KindOf(err))
}

func TestSetCheckbox_OnlyClicksOnStateChange(t *testing.T) {
	facade, _, elems, sid := newFacade(t)

	alreadyChecked := new(mocks.MockElement)
	alreadyChecked.On("IsSelected", mock.Anything).Return(true, nil)
	id := elems.Store(sid, alreadyChecked)
	require.NoError(t, facade.SetCheckbox(context.Background(), sid, id, true))
	alreadyChecked.AssertNotCalled(t, "Click", mock.Anything)

	unchecked := new(mocks.MockElement)
	unchecked.On("IsSelected", mock.Anything).Return(false, nil)
	unchecked.On("Click", mock.Anything).Return(nil)
	id = elems.Store(sid, unchecked)
	require.NoError(t, facade.SetCheckbox(context.Background(), sid, id, true))
	unchecked.AssertCalled(t, "Click", mock.Anything)
}

func TestExecuteScript_TransformsNestedElements(t *testing.T) {
	facade, drv, elems, sid := newFacade(t)

	el := new(mocks.MockElement)
	drv.On("ExecuteScript", mock.Anything, mock.Anything, mock.Anything).Return(driver.MapValue(map[string]driver.ScriptValue{
		"count": driver.ScalarValue(float64(2)),
		"items": driver.ListValue([]driver.ScriptValue{
			driver.ElementValue(el),
			driver.NullValue(),
		}),
	}), nil)

	result, err := facade.ExecuteScript(context.Background(), sid, "return scan()", nil)
	require.NoError(t, err)

	top, ok := result.Value.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), top["count"])

	items, ok := top["items"].([]interface{})
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Nil(t, items[1])

	ref, ok := items[0].(map[string]interface{})
	require.True(t, ok)
	id, ok := ref["elementId"].(string)
	require.True(t, ok, "element references must be minted as handle objects")

	stored, err := elems.Get(sid, id)
	require.NoError(t, err)
	assert.Same(t, driver.Element(el), stored)
}

func TestExecuteScript_EmptyScript(t *testing.T) {
	facade, _, _, sid := newFacade(t)

	_, err := facade.ExecuteScript(context.Background(), sid, "", nil)
	assert.Equal(t, schemas.KindInvalidArgument, schemas.KindOf(err))
}

func TestAssertions(t *testing.T) {
	facade, drv, _, sid := newFacade(t)
	drv.On("Title", mock.Anything).Return("Dashboard - Acme", nil)

	cases := []struct {
		mode     ops.MatchMode
		expected string
		passed   bool
	}{
		{ops.MatchEquals, "Dashboard - Acme", true},
		{ops.MatchEquals, "Dashboard", false},
		{ops.MatchContains, "board", true},
		{ops.MatchStartsWith, "Dash", true},
		{ops.MatchEndsWith, "Acme", true},
		{ops.MatchEndsWith, "Dash", false},
		{ops.MatchRegexp, `^Dashboard - \w+$`, true},
	}
	for _, tc := range cases {
		result, err := facade.AssertTitle(context.Background(), sid, tc.expected, tc.mode)
		require.NoError(t, err)
		assert.Equalf(t, tc.passed, result.Passed, "mode=%s expected=%q", tc.mode, tc.expected)
		assert.Equal(t, "Dashboard - Acme", result.Actual)
		if !tc.passed {
			assert.NotEmpty(t, result.Message)
		}
	}
}

func TestAssertTitle_BrokenPattern(t *testing.T) {
	facade, drv, _, sid := newFacade(t)
	drv.On("Title", mock.Anything).Return("x", nil)

	_, err := facade.AssertTitle(context.Background(), sid, "(unclosed", ops.MatchRegexp)
	assert.Equal(t, schemas.KindInvalidArgument, schemas.KindOf(err))
}

func TestParseMatchMode(t *testing.T) {
	m, err := ops.ParseMatchMode("")
	require.NoError(t, err)
	assert.Equal(t, ops.MatchEquals, m)

	m, err = ops.ParseMatchMode("StartsWith")
	require.NoError(t, err)
	assert.Equal(t, ops.MatchStartsWith, m)

	_, err = ops.ParseMatchMode("sounds-like")
	assert.Equal(t, schemas.KindInvalidArgument, schemas.KindOf(err))
}

func TestWaitFor_ValidatesInput(t *testing.T) {
	facade, _, _, sid := newFacade(t)

	_, err := facade.WaitFor(context.Background(), sid, "css", "#x", "eventually", "", 1)
	assert.Equal(t, schemas.KindInvalidArgument, schemas.KindOf(err))

	_, err = facade.WaitFor(context.Background(), sid, "css", "#x", "present", "", -1)
	assert.Equal(t, schemas.KindInvalidArgument, schemas.KindOf(err))
}

func TestCookies(t *testing.T) {
	facade, drv, _, sid := newFacade(t)

	drv.On("Cookies", mock.Anything).Return([]schemas.Cookie{{Name: "sid", Value: "abc"}}, nil)
	drv.On("DeleteCookie", mock.Anything, "sid").Return(nil)

	got, err := facade.Cookies(context.Background(), sid)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "sid", got[0].Name)

	require.NoError(t, facade.DeleteCookie(context.Background(), sid, "sid"))

	err = facade.AddCookie(context.Background(), sid, schemas.Cookie{Value: "nameless"})
	assert.Equal(t, schemas.KindInvalidArgument, schemas.KindOf(err))
}

func TestCookieByName(t *testing.T) {
	facade, drv, _, sid := newFacade(t)
	drv.On("Cookies", mock.Anything).Return([]schemas.Cookie{
		{Name: "sid", Value: "abc"},
		{Name: "theme", Value: "dark"},
	}, nil)

	cookie, found, err := facade.Cookie(context.Background(), sid, "theme")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "dark", cookie.Value)

	_, found, err = facade.Cookie(context.Background(), sid, "absent")
	require.NoError(t, err, "a missing cookie is not an error")
	assert.False(t, found)
}

func TestClearAndStateProbes(t *testing.T) {
	facade, _, elems, sid := newFacade(t)

	el := new(mocks.MockElement)
	el.On("SendKeys", mock.Anything, "", true).Return(nil)
	el.On("IsDisplayed", mock.Anything).Return(true, nil)
	el.On("IsEnabled", mock.Anything).Return(false, nil)
	id := elems.Store(sid, el)

	require.NoError(t, facade.Clear(context.Background(), sid, id))
	el.AssertCalled(t, "SendKeys", mock.Anything, "", true)

	displayed, err := facade.Displayed(context.Background(), sid, id)
	require.NoError(t, err)
	assert.True(t, displayed)

	enabled, err := facade.Enabled(context.Background(), sid, id)
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestAssertElementState(t *testing.T) {
	facade, _, elems, sid := newFacade(t)

	el := new(mocks.MockElement)
	expectSnapshot(el, "input", "")
	id := elems.Store(sid, el)

	result, err := facade.AssertElementState(context.Background(), sid, id, "enabled", true)
	require.NoError(t, err)
	assert.True(t, result.Passed)

	result, err = facade.AssertElementState(context.Background(), sid, id, "selected", true)
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.NotEmpty(t, result.Message)

	_, err = facade.AssertElementState(context.Background(), sid, id, "shiny", true)
	assert.Equal(t, schemas.KindInvalidArgument, schemas.KindOf(err))
}

func TestSwitchToFrame_Validation(t *testing.T) {
	facade, drv, _, sid := newFacade(t)

	err := facade.SwitchToFrameByIndex(context.Background(), sid, -1)
	assert.Equal(t, schemas.KindInvalidArgument, schemas.KindOf(err))

	err = facade.SwitchToFrameByName(context.Background(), sid, "")
	assert.Equal(t, schemas.KindInvalidArgument, schemas.KindOf(err))

	drv.On("SwitchToFrame", mock.Anything, mock.Anything).
		Return(schemas.Errorf(schemas.KindFrameNotFound, "no frame named checkout"))
	err = facade.SwitchToFrameByName(context.Background(), sid, "checkout")
	assert.True(t, errors.Is(err, schemas.ErrFrameNotFound))
}

func TestAlerts_NoAlertKindSurfaces(t *testing.T) {
	facade, drv, _, sid := newFacade(t)

	drv.On("AlertText", mock.Anything).Return("", schemas.Errorf(schemas.KindNoAlert, "no dialog open"))

	_, err := facade.AlertText(context.Background(), sid)
	assert.True(t, errors.Is(err, schemas.ErrNoAlert))
}
