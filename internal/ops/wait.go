package ops

import (
	"context"
	"time"

	"github.com/xkilldash9x/browsergrid/api/schemas"
	"github.com/xkilldash9x/browsergrid/internal/locator"
	"github.com/xkilldash9x/browsergrid/internal/waitengine"
)

// WaitFor blocks until the named condition holds for the located element or
// timeoutSeconds elapses. Zero timeoutSeconds uses the configured default
// explicit wait.
func (f *Facade) WaitFor(ctx context.Context, sessionID, strategy, value, condition, text string, timeoutSeconds int) (schemas.WaitResult, error) {
	if timeoutSeconds < 0 {
		return schemas.WaitResult{}, schemas.Errorf(schemas.KindInvalidArgument, "timeout must not be negative: %d", timeoutSeconds)
	}
	loc, err := locator.Resolve(strategy, value)
	if err != nil {
		return schemas.WaitResult{}, err
	}
	cond, err := waitengine.ParseCondition(condition)
	if err != nil {
		return schemas.WaitResult{}, err
	}
	if timeoutSeconds == 0 {
		timeoutSeconds = f.cfg.Driver.DefaultExplicitWaitSeconds
	}

	return f.wait.WaitFor(ctx, sessionID, waitengine.Spec{
		Locator:   loc,
		Condition: cond,
		Text:      text,
		Timeout:   time.Duration(timeoutSeconds) * time.Second,
	})
}

// WaitForScript blocks until the script evaluates truthy without error, or
// timeoutSeconds elapses.
func (f *Facade) WaitForScript(ctx context.Context, sessionID, script string, timeoutSeconds int) error {
	if timeoutSeconds < 0 {
		return schemas.Errorf(schemas.KindInvalidArgument, "timeout must not be negative: %d", timeoutSeconds)
	}
	if timeoutSeconds == 0 {
		timeoutSeconds = f.cfg.Driver.DefaultExplicitWaitSeconds
	}
	return f.wait.WaitForScript(ctx, sessionID, script, time.Duration(timeoutSeconds)*time.Second)
}

// Sleep suspends the caller for the given number of milliseconds after
// validating the session exists.
func (f *Facade) Sleep(ctx context.Context, sessionID string, millis int) error {
	if millis < 0 {
		return schemas.Errorf(schemas.KindInvalidArgument, "sleep duration must not be negative: %d", millis)
	}
	return f.wait.Sleep(ctx, sessionID, time.Duration(millis)*time.Millisecond)
}
