package ops

import (
	"context"

	"github.com/xkilldash9x/browsergrid/api/schemas"
	"github.com/xkilldash9x/browsergrid/internal/driver"
)

// Cookies returns every cookie visible to the session's current page.
func (f *Facade) Cookies(ctx context.Context, sessionID string) ([]schemas.Cookie, error) {
	var out []schemas.Cookie
	err := f.run(ctx, sessionID, func(drv driver.Driver) error {
		var cmdErr error
		out, cmdErr = drv.Cookies(ctx)
		return cmdErr
	})
	return out, err
}

// Cookie returns the named cookie and whether it exists. A missing cookie
// is an ordinary outcome, not an error.
func (f *Facade) Cookie(ctx context.Context, sessionID, name string) (schemas.Cookie, bool, error) {
	if name == "" {
		return schemas.Cookie{}, false, schemas.Errorf(schemas.KindInvalidArgument, "cookie name must not be empty")
	}
	cookies, err := f.Cookies(ctx, sessionID)
	if err != nil {
		return schemas.Cookie{}, false, err
	}
	for _, c := range cookies {
		if c.Name == name {
			return c, true, nil
		}
	}
	return schemas.Cookie{}, false, nil
}

// AddCookie sets a cookie on the session's current page. Name and value are
// required; domain, path, expiry, and the flags are optional.
func (f *Facade) AddCookie(ctx context.Context, sessionID string, c schemas.Cookie) error {
	if c.Name == "" {
		return schemas.Errorf(schemas.KindInvalidArgument, "cookie name must not be empty")
	}
	return f.run(ctx, sessionID, func(drv driver.Driver) error {
		return drv.AddCookie(ctx, c)
	})
}

// DeleteCookie removes the named cookie. Deleting a cookie that does not
// exist is a no-op success.
func (f *Facade) DeleteCookie(ctx context.Context, sessionID, name string) error {
	if name == "" {
		return schemas.Errorf(schemas.KindInvalidArgument, "cookie name must not be empty")
	}
	return f.run(ctx, sessionID, func(drv driver.Driver) error {
		return drv.DeleteCookie(ctx, name)
	})
}

// DeleteAllCookies removes every cookie visible to the session.
func (f *Facade) DeleteAllCookies(ctx context.Context, sessionID string) error {
	return f.run(ctx, sessionID, func(drv driver.Driver) error {
		return drv.DeleteAllCookies(ctx)
	})
}
