package registry

import (
	"context"
	"sync"
	"time"

	"github.com/xkilldash9x/browsergrid/internal/driver"
)

// Session is one live automation instance: the driver capability it
// exclusively owns, its mutable configuration, and the command lock that
// serializes automation commands against it.
type Session struct {
	id        string
	drv       driver.Driver
	createdAt time.Time

	// cmd is the command lock: capacity one, so at most one automation
	// command is in flight at any instant. A channel rather than a mutex
	// so acquisition can respect context cancellation. Mutual exclusion
	// only; no FIFO fairness is guaranteed.
	cmd chan struct{}

	// stateMu protects the session's own configuration, independently of
	// any in-flight command.
	stateMu      sync.RWMutex
	implicitWait int
}

func newSession(id string, drv driver.Driver, implicitWaitSeconds int) *Session {
	return &Session{
		id:           id,
		drv:          drv,
		createdAt:    time.Now().UTC(),
		cmd:          make(chan struct{}, 1),
		implicitWait: implicitWaitSeconds,
	}
}

// ID returns the session's opaque identifier.
func (s *Session) ID() string { return s.id }

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Command runs fn with exclusive access to the session's driver capability.
// It blocks while another command is in flight; if ctx expires first, fn
// never runs and the context error is returned. The lock is held only for
// the duration of fn, never across polls of a longer wait.
func (s *Session) Command(ctx context.Context, fn func(drv driver.Driver) error) error {
	select {
	case s.cmd <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.cmd }()

	return fn(s.drv)
}

// ImplicitWait reads the session's current implicit wait in seconds.
func (s *Session) ImplicitWait() int {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.implicitWait
}

func (s *Session) setImplicitWait(seconds int) {
	s.stateMu.Lock()
	s.implicitWait = seconds
	s.stateMu.Unlock()
}
