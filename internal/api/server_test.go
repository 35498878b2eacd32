package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/browsergrid/api/schemas"
	"github.com/xkilldash9x/browsergrid/internal/api"
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

func newTestServer(t *testing.T) (*httptest.Server, *mocks.MockDriver) {
	t.Helper()
	drv := new(mocks.MockDriver)
	drv.On("SetImplicitWait", mock.Anything).Return()
	drv.On("Quit", mock.Anything).Return(nil)

	cfg := config.NewDefaultConfig()
	elems := elements.NewManager()
	reg := registry.New(zap.NewNop(), cfg, mockFactory{drv: drv}, elems)
	wait := waitengine.New(zap.NewNop(), reg, elems, 20*time.Millisecond)
	facade := ops.New(zap.NewNop(), cfg, reg, elems, wait)
	srv := api.NewServer(zap.NewNop(), cfg, reg, facade)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, drv
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]interface{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		_ = json.NewDecoder(resp.Body).Decode(&decoded)
	}
	return resp, decoded
}

func createSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/sessions", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id, ok := body["sessionId"].(string)
	require.True(t, ok)
	require.NotEmpty(t, id)
	return id
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	ts, _ := newTestServer(t)

	sid := createSession(t, ts)

	resp, _ := doJSON(t, http.MethodDelete, ts.URL+"/api/v1/sessions/"+sid, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Closing again maps session-not-found to 404.
	resp, body := doJSON(t, http.MethodDelete, ts.URL+"/api/v1/sessions/"+sid, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	errObj, ok := body["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, string(schemas.KindSessionNotFound), errObj["kind"])
}

func TestNavigateOverHTTP(t *testing.T) {
	ts, drv := newTestServer(t)
	sid := createSession(t, ts)

	drv.On("Navigate", mock.Anything, "https://example.com/", mock.Anything).Return("", nil)
	drv.On("CurrentURL", mock.Anything).Return("https://example.com/", nil)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/sessions/"+sid+"/navigate",
		`{"url": "https://example.com/"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://example.com/", body["currentUrl"])
}

func TestFindElementOverHTTP(t *testing.T) {
	ts, drv := newTestServer(t)
	sid := createSession(t, ts)

	el := new(mocks.MockElement)
	el.On("TagName", mock.Anything).Return("button", nil)
	el.On("IsDisplayed", mock.Anything).Return(true, nil)
	el.On("IsEnabled", mock.Anything).Return(true, nil)
	el.On("IsSelected", mock.Anything).Return(false, nil)
	el.On("Text", mock.Anything).Return("Submit", nil)
	el.On("Attribute", mock.Anything, "value").Return("", nil)
	el.On("Click", mock.Anything).Return(nil)
	drv.On("FindOne", mock.Anything, mock.Anything).Return(el, nil)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/sessions/"+sid+"/elements/find",
		`{"strategy": "css", "value": "button[type=submit]"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "button", body["tagName"])

	elementID, ok := body["elementId"].(string)
	require.True(t, ok)

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/v1/sessions/"+sid+"/elements/"+elementID+"/click", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	el.AssertCalled(t, "Click", mock.Anything)
}

func TestErrorKindStatusMapping(t *testing.T) {
	ts, drv := newTestServer(t)
	sid := createSession(t, ts)

	// Unknown session.
	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/v1/sessions/ghost/url", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Invalid locator.
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/sessions/"+sid+"/elements/find",
		`{"strategy": "telepathy", "value": "x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errObj := body["error"].(map[string]interface{})
	assert.Equal(t, string(schemas.KindInvalidLocator), errObj["kind"])

	// Unknown element handle.
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/v1/sessions/"+sid+"/elements/never-issued/click", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Stale element handle.
	el := new(mocks.MockElement)
	el.On("TagName", mock.Anything).Return("a", nil)
	el.On("IsDisplayed", mock.Anything).Return(true, nil)
	el.On("IsEnabled", mock.Anything).Return(true, nil)
	el.On("IsSelected", mock.Anything).Return(false, nil)
	el.On("Text", mock.Anything).Return("", nil)
	el.On("Attribute", mock.Anything, "value").Return("", nil)
	el.On("Click", mock.Anything).Return(schemas.Errorf(schemas.KindStaleElement, "node detached"))
	drv.On("FindOne", mock.Anything, mock.Anything).Return(el, nil).Once()

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/api/v1/sessions/"+sid+"/elements/find",
		`{"strategy": "css", "value": "a"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	elementID := body["elementId"].(string)

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/v1/sessions/"+sid+"/elements/"+elementID+"/click", "")
	assert.Equal(t, http.StatusGone, resp.StatusCode)

	// Wait timeout. Wait polls query without blocking on the implicit wait.
	drv.On("FindAll", mock.Anything, mock.Anything).Return([]driver.Element{}, nil)
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/v1/sessions/"+sid+"/wait",
		`{"strategy": "css", "value": "#never", "condition": "present", "timeoutSeconds": 1}`)
	assert.Equal(t, http.StatusRequestTimeout, resp.StatusCode)
}

func TestCookieLookupMissOverHTTP(t *testing.T) {
	ts, drv := newTestServer(t)
	sid := createSession(t, ts)

	drv.On("Cookies", mock.Anything).Return([]schemas.Cookie{{Name: "theme", Value: "dark"}}, nil)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/sessions/"+sid+"/cookies/theme", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "dark", body["value"])

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/v1/sessions/"+sid+"/cookies/absent", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	errObj, ok := body["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, string(schemas.KindCookieNotFound), errObj["kind"])
}

func TestImplicitWaitRoundTripOverHTTP(t *testing.T) {
	ts, _ := newTestServer(t)
	sid := createSession(t, ts)

	resp, body := doJSON(t, http.MethodPut, ts.URL+"/api/v1/sessions/"+sid+"/settings/implicit-wait",
		`{"seconds": 3}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(3), body["implicitWaitSeconds"])

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/v1/sessions/"+sid+"/settings/implicit-wait", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(3), body["implicitWaitSeconds"])
}

func TestCloseAllOverHTTP(t *testing.T) {
	ts, _ := newTestServer(t)
	createSession(t, ts)
	createSession(t, ts)

	resp, body := doJSON(t, http.MethodDelete, ts.URL+"/api/v1/sessions", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["closed"])
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}
