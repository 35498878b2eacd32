// Package registry owns the session table: creation, lookup, configuration,
// and teardown of browser automation sessions, keyed by opaque identifiers
// and safe under arbitrary concurrent callers.
//
// Two locks exist at this layer and they never nest in a blocking way: the
// registry's map lock is held only for O(1) map operations, and each
// session's command lock is held only while a single automation command is
// in flight. Registry operations release the map lock before touching any
// command lock, so managing many sessions never waits on a slow command in
// one of them.
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/browsergrid/api/schemas"
	"github.com/xkilldash9x/browsergrid/internal/config"
	"github.com/xkilldash9x/browsergrid/internal/driver"
	"github.com/xkilldash9x/browsergrid/internal/elements"
)

// Registry maps session ids to live sessions.
type Registry struct {
	log      *zap.Logger
	cfg      *config.Config
	factory  driver.Factory
	elements *elements.Manager

	mu       sync.RWMutex
	sessions map[string]*Session
}

// New creates an empty registry backed by the given driver factory.
func New(logger *zap.Logger, cfg *config.Config, factory driver.Factory, elems *elements.Manager) *Registry {
	return &Registry{
		log:      logger.Named("session_registry"),
		cfg:      cfg,
		factory:  factory,
		elements: elems,
		sessions: make(map[string]*Session),
	}
}

// Create allocates a new session with a fresh driver capability and the
// configured default implicit wait. The new automation instance becoming
// externally visible (a browser window appearing) is expected.
func (r *Registry) Create(ctx context.Context) (*Session, error) {
	drv, err := r.factory.New(ctx)
	if err != nil {
		return nil, schemas.Errorf(schemas.KindDriver, "driver startup failed: %v", err)
	}

	defaultWait := r.cfg.Driver.DefaultImplicitWaitSeconds
	drv.SetImplicitWait(time.Duration(defaultWait) * time.Second)

	s := newSession(uuid.New().String(), drv, defaultWait)

	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()

	r.log.Info("Session created",
		zap.String("session_id", s.id),
		zap.Int("implicit_wait_seconds", defaultWait),
	)
	return s, nil
}

// Get looks up a session by id. Safe under concurrent create and close.
func (r *Registry) Get(sessionID string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return nil, schemas.Errorf(schemas.KindSessionNotFound, "session not found: %s", sessionID)
	}
	return s, nil
}

// SetImplicitWait updates the session's implicit wait and propagates it to
// the driver capability. The driver call is serialized with other commands
// on the same session so a wait-setting change cannot race an in-flight
// find. Last write wins; the stored value is visible to subsequent callers
// via ImplicitWait.
func (r *Registry) SetImplicitWait(ctx context.Context, sessionID string, seconds int) error {
	if seconds < 0 {
		return schemas.Errorf(schemas.KindInvalidArgument, "implicit wait must not be negative: %d", seconds)
	}
	s, err := r.Get(sessionID)
	if err != nil {
		return err
	}

	err = s.Command(ctx, func(drv driver.Driver) error {
		drv.SetImplicitWait(time.Duration(seconds) * time.Second)
		return nil
	})
	if err != nil {
		return schemas.WrapDriver(err)
	}

	s.setImplicitWait(seconds)
	return nil
}

// ImplicitWait reads back the session's implicit wait in seconds.
func (r *Registry) ImplicitWait(sessionID string) (int, error) {
	s, err := r.Get(sessionID)
	if err != nil {
		return 0, err
	}
	return s.ImplicitWait(), nil
}

// Close tears down one session. Closing an id that is unknown, or already
// closed, reports session-not-found; a successful close releases the driver
// capability and purges every element handle the session issued. A driver
// that fails to quit is logged and the session is removed regardless.
func (r *Registry) Close(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	if ok {
		delete(r.sessions, sessionID)
	}
	r.mu.Unlock()

	if !ok {
		return schemas.Errorf(schemas.KindSessionNotFound, "session not found: %s", sessionID)
	}

	r.teardown(ctx, s)
	return nil
}

// CloseAll closes every session registered at the moment of the call and
// returns how many there were. Sessions created concurrently with the call
// may or may not be included. Per-session close failures are tolerated.
func (r *Registry) CloseAll(ctx context.Context) int {
	r.mu.Lock()
	snapshot := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		snapshot = append(snapshot, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	var g errgroup.Group
	for _, s := range snapshot {
		s := s
		g.Go(func() error {
			r.teardown(ctx, s)
			return nil
		})
	}
	// teardown never returns an error; Wait only provides the join point.
	_ = g.Wait()

	r.log.Info("Closed all sessions", zap.Int("count", len(snapshot)))
	return len(snapshot)
}

// List returns a best-effort snapshot of sessionID to current location. A
// session whose location cannot be read is reported with its error text
// rather than omitted.
func (r *Registry) List(ctx context.Context) map[string]string {
	r.mu.RLock()
	snapshot := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		snapshot = append(snapshot, s)
	}
	r.mu.RUnlock()

	out := make(map[string]string, len(snapshot))
	for _, s := range snapshot {
		var loc string
		err := s.Command(ctx, func(drv driver.Driver) error {
			var cmdErr error
			loc, cmdErr = drv.CurrentURL(ctx)
			return cmdErr
		})
		if err != nil {
			out[s.id] = fmt.Sprintf("Error: %s", err.Error())
			continue
		}
		out[s.id] = loc
	}
	return out
}

// Count reports how many sessions are currently registered.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// teardown quits the driver under the command lock (bounded by the
// configured grace period so an unresponsive browser cannot hang shutdown)
// and purges the session's element handles.
func (r *Registry) teardown(ctx context.Context, s *Session) {
	grace := r.cfg.Driver.SessionShutdownGracePeriod
	if grace <= 0 {
		grace = 10 * time.Second
	}
	quitCtx, cancel := context.WithTimeout(ctx, grace)
	defer cancel()

	err := s.Command(quitCtx, func(drv driver.Driver) error {
		return drv.Quit(quitCtx)
	})
	if err != nil {
		r.log.Warn("Error quitting driver during session close",
			zap.String("session_id", s.id),
			zap.Error(err),
		)
	}

	r.elements.ClearSession(s.id)
	r.log.Info("Session closed", zap.String("session_id", s.id))
}
