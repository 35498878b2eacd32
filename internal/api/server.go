// Package api exposes the service over HTTP. Handlers are thin: decode,
// delegate to the registry or the operation facade, encode. All session and
// element semantics live below this layer.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/xkilldash9x/browsergrid/api/schemas"
	"github.com/xkilldash9x/browsergrid/internal/config"
	"github.com/xkilldash9x/browsergrid/internal/ops"
	"github.com/xkilldash9x/browsergrid/internal/registry"
)

// Server carries the handler dependencies.
type Server struct {
	log      *zap.Logger
	cfg      *config.Config
	sessions *registry.Registry
	facade   *ops.Facade
}

// NewServer wires the HTTP layer over the registry and facade.
func NewServer(logger *zap.Logger, cfg *config.Config, sessions *registry.Registry, facade *ops.Facade) *Server {
	return &Server{
		log:      logger.Named("api"),
		cfg:      cfg,
		sessions: sessions,
		facade:   facade,
	}
}

// Router builds the route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Get("/", s.handleListSessions)
		r.Delete("/", s.handleCloseAllSessions)

		r.Route("/{sessionID}", func(r chi.Router) {
			r.Delete("/", s.handleCloseSession)
			r.Put("/settings/implicit-wait", s.handleSetImplicitWait)
			r.Get("/settings/implicit-wait", s.handleGetImplicitWait)

			r.Post("/navigate", s.handleNavigate)
			r.Get("/url", s.handleCurrentURL)
			r.Get("/title", s.handleTitle)
			r.Get("/source", s.handlePageSource)
			r.Post("/back", s.handleBack)
			r.Post("/forward", s.handleForward)
			r.Post("/refresh", s.handleRefresh)
			r.Get("/screenshot", s.handleScreenshot)

			r.Post("/elements/find", s.handleFindElement)
			r.Post("/elements/find-all", s.handleFindElements)
			r.Route("/elements/{elementID}", func(r chi.Router) {
				r.Get("/", s.handleElementDetails)
				r.Post("/click", s.handleClick)
				r.Post("/keys", s.handleSendKeys)
				r.Post("/clear", s.handleClear)
				r.Get("/text", s.handleElementText)
				r.Get("/displayed", s.handleElementDisplayed)
				r.Get("/enabled", s.handleElementEnabled)
				r.Get("/attribute", s.handleElementAttribute)
				r.Get("/screenshot", s.handleElementScreenshot)
				r.Post("/select", s.handleSelect)
				r.Get("/options", s.handleOptions)
				r.Post("/deselect-all", s.handleDeselectAll)
				r.Post("/checkbox", s.handleSetCheckbox)
			})

			r.Post("/wait", s.handleWait)
			r.Post("/wait/script", s.handleWaitScript)
			r.Post("/sleep", s.handleSleep)

			r.Get("/cookies", s.handleCookies)
			r.Post("/cookies", s.handleAddCookie)
			r.Delete("/cookies", s.handleDeleteAllCookies)
			r.Get("/cookies/{name}", s.handleCookie)
			r.Delete("/cookies/{name}", s.handleDeleteCookie)

			r.Post("/frame", s.handleSwitchFrame)
			r.Post("/frame/parent", s.handleSwitchParent)
			r.Post("/frame/default", s.handleSwitchDefault)

			r.Get("/alert", s.handleAlertText)
			r.Post("/alert/accept", s.handleAcceptAlert)
			r.Post("/alert/dismiss", s.handleDismissAlert)
			r.Post("/alert/text", s.handleSendAlertText)

			r.Post("/script", s.handleExecuteScript)
			r.Post("/assert", s.handleAssert)
		})
	})

	return r
}

// ListenAndServe blocks serving HTTP until ctx is cancelled, then drains
// in-flight requests within the configured shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		// Waits and page loads can legitimately hold a request open for
		// minutes.
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("Request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// -- Encoding helpers --

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    schemas.ErrorKind `json:"kind"`
	Message string            `json:"message"`
}

func (s *Server) respond(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to encode response", zap.Error(err))
	}
}

// respondError maps the taxonomy onto HTTP status codes.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	kind := schemas.KindOf(err)

	var status int
	switch kind {
	case schemas.KindSessionNotFound, schemas.KindElementNotFound,
		schemas.KindFrameNotFound, schemas.KindNoAlert, schemas.KindCookieNotFound:
		status = http.StatusNotFound
	case schemas.KindStaleElement:
		status = http.StatusGone
	case schemas.KindInvalidLocator, schemas.KindInvalidArgument:
		status = http.StatusBadRequest
	case schemas.KindTimeout:
		status = http.StatusRequestTimeout
	default:
		status = http.StatusInternalServerError
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// Client went away or hit its own deadline mid-operation.
			status = http.StatusRequestTimeout
		}
	}

	s.respond(w, status, errorBody{Error: errorDetail{Kind: kind, Message: err.Error()}})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, into interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		s.respondError(w, schemas.Errorf(schemas.KindInvalidArgument, "malformed request body: %v", err))
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": s.sessions.Count(),
	})
}
