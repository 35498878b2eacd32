package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xkilldash9x/browsergrid/api/schemas"
	"github.com/xkilldash9x/browsergrid/internal/ops"
)

// -- Session lifecycle --

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.Create(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, schemas.SessionInfo{
		SessionID:    session.ID(),
		CreatedAt:    session.CreatedAt(),
		ImplicitWait: session.ImplicitWait(),
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.sessions.List(r.Context()))
}

func (s *Server) handleCloseAllSessions(w http.ResponseWriter, r *http.Request) {
	closed := s.sessions.CloseAll(r.Context())
	s.respond(w, http.StatusOK, map[string]int{"closed": closed})
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Close(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusNoContent, nil)
}

func (s *Server) handleSetImplicitWait(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Seconds int `json:"seconds"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.sessions.SetImplicitWait(r.Context(), chi.URLParam(r, "sessionID"), req.Seconds); err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]int{"implicitWaitSeconds": req.Seconds})
}

func (s *Server) handleGetImplicitWait(w http.ResponseWriter, r *http.Request) {
	seconds, err := s.sessions.ImplicitWait(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]int{"implicitWaitSeconds": seconds})
}

// -- Navigation --

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.facade.Navigate(r.Context(), chi.URLParam(r, "sessionID"), req.URL)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, result)
}

func (s *Server) handleCurrentURL(w http.ResponseWriter, r *http.Request) {
	url, err := s.facade.CurrentURL(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) handleTitle(w http.ResponseWriter, r *http.Request) {
	title, err := s.facade.Title(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"title": title})
}

func (s *Server) handlePageSource(w http.ResponseWriter, r *http.Request) {
	source, err := s.facade.PageSource(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"source": source})
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	s.respondNoContent(w, s.facade.Back(r.Context(), chi.URLParam(r, "sessionID")))
}

func (s *Server) handleForward(w http.ResponseWriter, r *http.Request) {
	s.respondNoContent(w, s.facade.Forward(r.Context(), chi.URLParam(r, "sessionID")))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.respondNoContent(w, s.facade.Refresh(r.Context(), chi.URLParam(r, "sessionID")))
}

func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	png, err := s.facade.Screenshot(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondPNG(w, png)
}

// -- Element discovery and interaction --

type locatorRequest struct {
	Strategy string `json:"strategy"`
	Value    string `json:"value"`
}

func (s *Server) handleFindElement(w http.ResponseWriter, r *http.Request) {
	var req locatorRequest
	if !s.decode(w, r, &req) {
		return
	}
	details, err := s.facade.FindElement(r.Context(), chi.URLParam(r, "sessionID"), req.Strategy, req.Value)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, details)
}

func (s *Server) handleFindElements(w http.ResponseWriter, r *http.Request) {
	var req locatorRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.facade.FindElements(r.Context(), chi.URLParam(r, "sessionID"), req.Strategy, req.Value)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, result)
}

func (s *Server) handleElementDetails(w http.ResponseWriter, r *http.Request) {
	details, err := s.facade.Details(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "elementID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, details)
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	s.respondNoContent(w, s.facade.Click(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "elementID")))
}

func (s *Server) handleSendKeys(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text       string `json:"text"`
		ClearFirst bool   `json:"clearFirst"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	err := s.facade.SendKeys(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "elementID"), req.Text, req.ClearFirst)
	s.respondNoContent(w, err)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.respondNoContent(w, s.facade.Clear(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "elementID")))
}

func (s *Server) handleElementDisplayed(w http.ResponseWriter, r *http.Request) {
	displayed, err := s.facade.Displayed(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "elementID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]bool{"displayed": displayed})
}

func (s *Server) handleElementEnabled(w http.ResponseWriter, r *http.Request) {
	enabled, err := s.facade.Enabled(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "elementID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]bool{"enabled": enabled})
}

func (s *Server) handleElementText(w http.ResponseWriter, r *http.Request) {
	text, err := s.facade.Text(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "elementID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"text": text})
}

func (s *Server) handleElementAttribute(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	value, err := s.facade.Attribute(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "elementID"), name)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"name": name, "value": value})
}

func (s *Server) handleElementScreenshot(w http.ResponseWriter, r *http.Request) {
	png, err := s.facade.ElementScreenshot(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "elementID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondPNG(w, png)
}

// -- Select controls --

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		By    string `json:"by"`
		Text  string `json:"text"`
		Value string `json:"value"`
		Index int    `json:"index"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	elementID := chi.URLParam(r, "elementID")
	var err error
	switch req.By {
	case "text":
		err = s.facade.SelectByVisibleText(r.Context(), sessionID, elementID, req.Text)
	case "value":
		err = s.facade.SelectByValue(r.Context(), sessionID, elementID, req.Value)
	case "index":
		err = s.facade.SelectByIndex(r.Context(), sessionID, elementID, req.Index)
	default:
		err = schemas.Errorf(schemas.KindInvalidArgument, "select 'by' must be text, value, or index: %q", req.By)
	}
	s.respondNoContent(w, err)
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	selectedOnly := r.URL.Query().Get("selected") == "true"
	options, err := s.facade.Options(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "elementID"), selectedOnly)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]interface{}{"options": options})
}

func (s *Server) handleDeselectAll(w http.ResponseWriter, r *http.Request) {
	s.respondNoContent(w, s.facade.DeselectAll(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "elementID")))
}

func (s *Server) handleSetCheckbox(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Checked bool `json:"checked"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	err := s.facade.SetCheckbox(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "elementID"), req.Checked)
	s.respondNoContent(w, err)
}

// -- Waits --

func (s *Server) handleWait(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Strategy       string `json:"strategy"`
		Value          string `json:"value"`
		Condition      string `json:"condition"`
		Text           string `json:"text"`
		TimeoutSeconds int    `json:"timeoutSeconds"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.facade.WaitFor(r.Context(), chi.URLParam(r, "sessionID"),
		req.Strategy, req.Value, req.Condition, req.Text, req.TimeoutSeconds)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, result)
}

func (s *Server) handleWaitScript(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Script         string `json:"script"`
		TimeoutSeconds int    `json:"timeoutSeconds"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	err := s.facade.WaitForScript(r.Context(), chi.URLParam(r, "sessionID"), req.Script, req.TimeoutSeconds)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, schemas.WaitResult{Satisfied: true})
}

func (s *Server) handleSleep(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Millis int `json:"millis"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	s.respondNoContent(w, s.facade.Sleep(r.Context(), chi.URLParam(r, "sessionID"), req.Millis))
}

// -- Cookies --

func (s *Server) handleCookies(w http.ResponseWriter, r *http.Request) {
	cookies, err := s.facade.Cookies(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]interface{}{"cookies": cookies})
}

func (s *Server) handleAddCookie(w http.ResponseWriter, r *http.Request) {
	var cookie schemas.Cookie
	if !s.decode(w, r, &cookie) {
		return
	}
	s.respondNoContent(w, s.facade.AddCookie(r.Context(), chi.URLParam(r, "sessionID"), cookie))
}

func (s *Server) handleCookie(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	cookie, found, err := s.facade.Cookie(r.Context(), chi.URLParam(r, "sessionID"), name)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if !found {
		s.respondError(w, schemas.Errorf(schemas.KindCookieNotFound, "no cookie named %q", name))
		return
	}
	s.respond(w, http.StatusOK, cookie)
}

func (s *Server) handleDeleteCookie(w http.ResponseWriter, r *http.Request) {
	s.respondNoContent(w, s.facade.DeleteCookie(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "name")))
}

func (s *Server) handleDeleteAllCookies(w http.ResponseWriter, r *http.Request) {
	s.respondNoContent(w, s.facade.DeleteAllCookies(r.Context(), chi.URLParam(r, "sessionID")))
}

// -- Frames --

func (s *Server) handleSwitchFrame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index    *int   `json:"index"`
		Name     string `json:"name"`
		Strategy string `json:"strategy"`
		Value    string `json:"value"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	var err error
	switch {
	case req.Index != nil:
		err = s.facade.SwitchToFrameByIndex(r.Context(), sessionID, *req.Index)
	case req.Name != "":
		err = s.facade.SwitchToFrameByName(r.Context(), sessionID, req.Name)
	case req.Strategy != "":
		err = s.facade.SwitchToFrameByLocator(r.Context(), sessionID, req.Strategy, req.Value)
	default:
		err = schemas.Errorf(schemas.KindInvalidArgument, "frame target must specify index, name, or locator")
	}
	s.respondNoContent(w, err)
}

func (s *Server) handleSwitchParent(w http.ResponseWriter, r *http.Request) {
	s.respondNoContent(w, s.facade.SwitchToParent(r.Context(), chi.URLParam(r, "sessionID")))
}

func (s *Server) handleSwitchDefault(w http.ResponseWriter, r *http.Request) {
	s.respondNoContent(w, s.facade.SwitchToDefault(r.Context(), chi.URLParam(r, "sessionID")))
}

// -- Alerts --

func (s *Server) handleAlertText(w http.ResponseWriter, r *http.Request) {
	info, err := s.facade.AlertText(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, info)
}

func (s *Server) handleAcceptAlert(w http.ResponseWriter, r *http.Request) {
	s.respondNoContent(w, s.facade.AcceptAlert(r.Context(), chi.URLParam(r, "sessionID")))
}

func (s *Server) handleDismissAlert(w http.ResponseWriter, r *http.Request) {
	s.respondNoContent(w, s.facade.DismissAlert(r.Context(), chi.URLParam(r, "sessionID")))
}

func (s *Server) handleSendAlertText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	s.respondNoContent(w, s.facade.SendAlertText(r.Context(), chi.URLParam(r, "sessionID"), req.Text))
}

// -- Scripts and assertions --

func (s *Server) handleExecuteScript(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Script string        `json:"script"`
		Args   []interface{} `json:"args"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.facade.ExecuteScript(r.Context(), chi.URLParam(r, "sessionID"), req.Script, req.Args)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, result)
}

func (s *Server) handleAssert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject   string `json:"subject"`
		ElementID string `json:"elementId"`
		Attribute string `json:"attribute"`
		Expected  string `json:"expected"`
		Mode      string `json:"mode"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	mode, err := ops.ParseMatchMode(req.Mode)
	if err != nil {
		s.respondError(w, err)
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	var result schemas.AssertionResult
	switch req.Subject {
	case "url":
		result, err = s.facade.AssertURL(r.Context(), sessionID, req.Expected, mode)
	case "title":
		result, err = s.facade.AssertTitle(r.Context(), sessionID, req.Expected, mode)
	case "elementText":
		result, err = s.facade.AssertElementText(r.Context(), sessionID, req.ElementID, req.Expected, mode)
	case "elementAttribute":
		result, err = s.facade.AssertElementAttribute(r.Context(), sessionID, req.ElementID, req.Attribute, req.Expected, mode)
	case "elementDisplayed", "elementEnabled", "elementSelected":
		property := strings.TrimPrefix(req.Subject, "element")
		expected, parseErr := strconv.ParseBool(req.Expected)
		if parseErr != nil {
			err = schemas.Errorf(schemas.KindInvalidArgument, "expected must be true or false: %q", req.Expected)
			break
		}
		result, err = s.facade.AssertElementState(r.Context(), sessionID, req.ElementID, property, expected)
	default:
		err = schemas.Errorf(schemas.KindInvalidArgument,
			"assertion subject must be url, title, elementText, elementAttribute, or an element state: %q", req.Subject)
	}
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, result)
}

// -- Small response helpers --

func (s *Server) respondNoContent(w http.ResponseWriter, err error) {
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusNoContent, nil)
}

func (s *Server) respondPNG(w http.ResponseWriter, png []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		s.log.Error("Failed to write screenshot response", zap.Error(err))
	}
}
