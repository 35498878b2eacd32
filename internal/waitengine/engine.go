// Package waitengine implements the bounded polling protocol that blocks a
// caller until a named condition over a located element (or an arbitrary
// script predicate) becomes true, or a timeout elapses.
//
// Each poll attempt is a short, lock-held driver query; the session's
// command lock is never held across the whole wait, so independent
// operations against the same session are not starved by a waiter.
package waitengine

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/browsergrid/api/schemas"
	"github.com/xkilldash9x/browsergrid/internal/driver"
	"github.com/xkilldash9x/browsergrid/internal/elements"
	"github.com/xkilldash9x/browsergrid/internal/locator"
	"github.com/xkilldash9x/browsergrid/internal/registry"
)

// Condition names a predicate the engine can poll for.
type Condition string

const (
	// ConditionPresent succeeds as soon as the locator matches at least
	// one element.
	ConditionPresent Condition = "present"
	// ConditionVisible succeeds when a matched element reports visible.
	ConditionVisible Condition = "visible"
	// ConditionClickable succeeds when a matched element is visible and
	// enabled.
	ConditionClickable Condition = "clickable"
	// ConditionInvisible succeeds when no element matches or the matched
	// element reports not visible.
	ConditionInvisible Condition = "invisible"
	// ConditionTextEquals succeeds when the matched element's text equals
	// the expected text exactly.
	ConditionTextEquals Condition = "textEquals"
)

// ParseCondition normalizes a wire-form condition name. "textToBe" is the
// legacy spelling of textEquals and remains accepted.
func ParseCondition(s string) (Condition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "present":
		return ConditionPresent, nil
	case "visible":
		return ConditionVisible, nil
	case "clickable":
		return ConditionClickable, nil
	case "invisible":
		return ConditionInvisible, nil
	case "textequals", "texttobe":
		return ConditionTextEquals, nil
	default:
		return "", schemas.Errorf(schemas.KindInvalidArgument, "invalid wait condition: %q", s)
	}
}

// Spec is one immutable wait invocation.
type Spec struct {
	Locator   locator.Locator
	Condition Condition
	// Text is the expected text for ConditionTextEquals.
	Text    string
	Timeout time.Duration
}

// Engine polls driver state through a session's command lock.
type Engine struct {
	log      *zap.Logger
	sessions *registry.Registry
	elements *elements.Manager
	poll     time.Duration
}

// New creates a wait engine with the given poll interval.
func New(logger *zap.Logger, sessions *registry.Registry, elems *elements.Manager, pollInterval time.Duration) *Engine {
	if pollInterval <= 0 {
		pollInterval = 250 * time.Millisecond
	}
	return &Engine{
		log:      logger.Named("wait_engine"),
		sessions: sessions,
		elements: elems,
		poll:     pollInterval,
	}
}

// pollOutcome carries the result of one poll attempt.
type pollOutcome struct {
	satisfied bool
	element   driver.Element
}

// WaitFor blocks the calling goroutine until the spec's condition holds or
// its timeout elapses. Element-producing conditions register the element and
// return its id. A timeout is reported as a KindTimeout error: an expected,
// non-fatal outcome distinct from unknown sessions, invalid locators, and
// unexpected driver faults.
func (e *Engine) WaitFor(ctx context.Context, sessionID string, spec Spec) (schemas.WaitResult, error) {
	s, err := e.sessions.Get(sessionID)
	if err != nil {
		return schemas.WaitResult{}, err
	}
	if spec.Condition == ConditionTextEquals && spec.Text == "" {
		return schemas.WaitResult{}, schemas.Errorf(schemas.KindInvalidArgument,
			"condition %s requires expected text", spec.Condition)
	}

	deadline := time.Now().Add(spec.Timeout)
	for {
		outcome, err := e.evaluate(ctx, s, spec)
		if err != nil {
			return schemas.WaitResult{}, err
		}
		if outcome.satisfied {
			return e.buildResult(ctx, s, sessionID, outcome)
		}
		if !time.Now().Before(deadline) {
			return schemas.WaitResult{}, schemas.Errorf(schemas.KindTimeout,
				"timed out after %s waiting for %s on %s", spec.Timeout, spec.Condition, spec.Locator)
		}
		if err := hesitate(ctx, e.poll); err != nil {
			return schemas.WaitResult{}, err
		}
	}
}

// WaitForScript polls a script expression until an error-free evaluation
// returns a truthy value. A script error on a given attempt counts as
// "condition not yet true", never as a failure of the whole wait; only
// exhausting the timeout without a truthy evaluation produces a timeout.
func (e *Engine) WaitForScript(ctx context.Context, sessionID, script string, timeout time.Duration) error {
	s, err := e.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(script) == "" {
		return schemas.Errorf(schemas.KindInvalidArgument, "script must not be empty")
	}

	deadline := time.Now().Add(timeout)
	for {
		var value driver.ScriptValue
		cmdErr := s.Command(ctx, func(drv driver.Driver) error {
			var scriptErr error
			value, scriptErr = drv.ExecuteScript(ctx, script, nil)
			return scriptErr
		})
		if cmdErr == nil && value.Truthy() {
			return nil
		}
		if cmdErr != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		if !time.Now().Before(deadline) {
			return schemas.Errorf(schemas.KindTimeout,
				"timed out after %s waiting for script condition", timeout)
		}
		if err := hesitate(ctx, e.poll); err != nil {
			return err
		}
	}
}

// Sleep suspends the caller for exactly d. It validates the session exists
// before suspending but issues no driver command.
func (e *Engine) Sleep(ctx context.Context, sessionID string, d time.Duration) error {
	if _, err := e.sessions.Get(sessionID); err != nil {
		return err
	}
	return hesitate(ctx, d)
}

// evaluate runs one poll attempt under the session's command lock.
func (e *Engine) evaluate(ctx context.Context, s *registry.Session, spec Spec) (pollOutcome, error) {
	var outcome pollOutcome
	err := s.Command(ctx, func(drv driver.Driver) error {
		var pollErr error
		outcome, pollErr = evaluateCondition(ctx, drv, spec)
		return pollErr
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return pollOutcome{}, err
		}
		return pollOutcome{}, schemas.WrapDriver(err)
	}
	return outcome, nil
}

func evaluateCondition(ctx context.Context, drv driver.Driver, spec Spec) (pollOutcome, error) {
	// FindAll does not block on the session's implicit wait the way FindOne
	// does, so one poll attempt costs one DOM query and the engine alone
	// owns the wait's timing.
	els, findErr := drv.FindAll(ctx, spec.Locator)

	if findErr != nil {
		switch schemas.KindOf(findErr) {
		case schemas.KindElementNotFound, schemas.KindStaleElement:
			// No (usable) match yet. That satisfies invisible and merely
			// postpones everything else.
			return pollOutcome{satisfied: spec.Condition == ConditionInvisible}, nil
		default:
			return pollOutcome{}, findErr
		}
	}
	if len(els) == 0 {
		return pollOutcome{satisfied: spec.Condition == ConditionInvisible}, nil
	}
	el := els[0]

	switch spec.Condition {
	case ConditionPresent:
		return pollOutcome{satisfied: true, element: el}, nil

	case ConditionVisible, ConditionClickable, ConditionInvisible:
		displayed, err := el.IsDisplayed(ctx)
		if err != nil {
			if schemas.KindOf(err) == schemas.KindStaleElement {
				return pollOutcome{satisfied: spec.Condition == ConditionInvisible}, nil
			}
			return pollOutcome{}, err
		}
		switch spec.Condition {
		case ConditionInvisible:
			return pollOutcome{satisfied: !displayed}, nil
		case ConditionVisible:
			return pollOutcome{satisfied: displayed, element: el}, nil
		default: // ConditionClickable
			if !displayed {
				return pollOutcome{}, nil
			}
			enabled, err := el.IsEnabled(ctx)
			if err != nil {
				if schemas.KindOf(err) == schemas.KindStaleElement {
					return pollOutcome{}, nil
				}
				return pollOutcome{}, err
			}
			return pollOutcome{satisfied: enabled, element: el}, nil
		}

	case ConditionTextEquals:
		text, err := el.Text(ctx)
		if err != nil {
			if schemas.KindOf(err) == schemas.KindStaleElement {
				return pollOutcome{}, nil
			}
			return pollOutcome{}, err
		}
		return pollOutcome{satisfied: text == spec.Text}, nil

	default:
		return pollOutcome{}, schemas.Errorf(schemas.KindInvalidArgument, "invalid wait condition: %q", spec.Condition)
	}
}

// buildResult registers a produced element and reads its display snapshot.
// The snapshot reads are best-effort: the wait already succeeded.
func (e *Engine) buildResult(ctx context.Context, s *registry.Session, sessionID string, outcome pollOutcome) (schemas.WaitResult, error) {
	result := schemas.WaitResult{Satisfied: true}
	if outcome.element == nil {
		return result, nil
	}

	result.ElementID = e.elements.Store(sessionID, outcome.element)

	_ = s.Command(ctx, func(drv driver.Driver) error {
		if text, err := outcome.element.Text(ctx); err == nil {
			result.Text = text
		}
		if tag, err := outcome.element.TagName(ctx); err == nil {
			result.TagName = tag
		}
		return nil
	})
	return result, nil
}

// hesitate pauses execution, respecting context cancellation.
func hesitate(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
