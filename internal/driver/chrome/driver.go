package chrome

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/browsergrid/api/schemas"
	"github.com/xkilldash9x/browsergrid/internal/driver"
	"github.com/xkilldash9x/browsergrid/internal/locator"
)

// Driver drives one isolated browser context. The owning session's command
// lock serializes all calls, so only the dialog state, which a CDP event
// goroutine also touches, needs its own lock.
type Driver struct {
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc

	waitMu       sync.Mutex
	implicitWait time.Duration

	dialogMu sync.Mutex
	dialog   *page.EventJavascriptDialogOpening

	// frames is the stack of iframe element nodes queries are scoped to.
	// Empty means the top-level document. Mutated only under the command
	// lock.
	frames []*cdp.Node
}

var _ driver.Driver = (*Driver)(nil)

func newDriver(logger *zap.Logger, tabCtx context.Context, cancel context.CancelFunc) *Driver {
	d := &Driver{
		log:    logger.Named("chrome_driver"),
		ctx:    tabCtx,
		cancel: cancel,
	}

	// Dialogs block every other command until handled, so their state is
	// captured eagerly off the event stream.
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *page.EventJavascriptDialogOpening:
			d.dialogMu.Lock()
			d.dialog = e
			d.dialogMu.Unlock()
		case *page.EventJavascriptDialogClosed:
			d.dialogMu.Lock()
			d.dialog = nil
			d.dialogMu.Unlock()
		}
	})

	return d
}

// run executes actions against the browser context, honoring the caller's
// cancellation as well as the context's own lifetime.
func (d *Driver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(d.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		// The caller's context expired, not the browser context; report
		// the caller's reason so deadline-based dispatch upstream works.
		return ctx.Err()
	}
	return err
}

// -- Navigation --

func (d *Driver) Navigate(ctx context.Context, url string, pageLoadTimeout time.Duration) (string, error) {
	navCtx, cancel := context.WithTimeout(ctx, pageLoadTimeout)
	defer cancel()

	if err := d.run(navCtx, chromedp.Navigate(url)); err != nil {
		// A load event that never fired is a readiness problem, not a
		// navigation failure: the document is there, just not settled.
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Sprintf("page load did not complete within %s", pageLoadTimeout), nil
		}
		return "", schemas.Errorf(schemas.KindDriver, "navigation to %s failed: %v", url, err)
	}

	var ready string
	if err := d.run(ctx, chromedp.Evaluate("document.readyState", &ready)); err == nil && ready != "complete" {
		return fmt.Sprintf("document readyState is %q after load", ready), nil
	}
	return "", nil
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	var out string
	if err := d.run(ctx, chromedp.Location(&out)); err != nil {
		return "", schemas.Errorf(schemas.KindDriver, "failed to read location: %v", err)
	}
	return out, nil
}

func (d *Driver) Title(ctx context.Context) (string, error) {
	var out string
	if err := d.run(ctx, chromedp.Title(&out)); err != nil {
		return "", schemas.Errorf(schemas.KindDriver, "failed to read title: %v", err)
	}
	return out, nil
}

func (d *Driver) PageSource(ctx context.Context) (string, error) {
	var out string
	if err := d.run(ctx, chromedp.OuterHTML("html", &out, chromedp.ByQuery)); err != nil {
		return "", schemas.Errorf(schemas.KindDriver, "failed to read page source: %v", err)
	}
	return out, nil
}

func (d *Driver) Back(ctx context.Context) error {
	if err := d.run(ctx, chromedp.NavigateBack()); err != nil {
		return schemas.Errorf(schemas.KindDriver, "history back failed: %v", err)
	}
	return nil
}

func (d *Driver) Forward(ctx context.Context) error {
	if err := d.run(ctx, chromedp.NavigateForward()); err != nil {
		return schemas.Errorf(schemas.KindDriver, "history forward failed: %v", err)
	}
	return nil
}

func (d *Driver) Refresh(ctx context.Context) error {
	if err := d.run(ctx, chromedp.Reload()); err != nil {
		return schemas.Errorf(schemas.KindDriver, "reload failed: %v", err)
	}
	return nil
}

// -- Element discovery --

func (d *Driver) FindOne(ctx context.Context, loc locator.Locator) (driver.Element, error) {
	nodes, err := d.findNodes(ctx, loc, true)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, schemas.Errorf(schemas.KindElementNotFound, "no element matching %s", loc)
	}
	return &element{drv: d, node: nodes[0]}, nil
}

func (d *Driver) FindAll(ctx context.Context, loc locator.Locator) ([]driver.Element, error) {
	nodes, err := d.findNodes(ctx, loc, false)
	if err != nil {
		return nil, err
	}
	out := make([]driver.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &element{drv: d, node: n})
	}
	return out, nil
}

// findNodes runs one DOM query. When waiting, the query blocks until a match
// appears or the implicit wait is spent; otherwise it returns whatever
// matches right now, possibly nothing.
func (d *Driver) findNodes(ctx context.Context, loc locator.Locator, waitForMatch bool) ([]*cdp.Node, error) {
	query, kind := loc.Query()
	frame := d.currentFrame()

	if planQuery(kind, frame != nil) == queryModeFrameXPath {
		return d.findFrameNodes(ctx, frame, loc, query, waitForMatch)
	}

	opts := make([]chromedp.QueryOption, 0, 3)
	if kind == locator.QueryXPath {
		opts = append(opts, chromedp.BySearch)
	} else {
		opts = append(opts, chromedp.ByQueryAll)
	}
	if frame != nil {
		opts = append(opts, chromedp.FromNode(frame))
	}

	var nodes []*cdp.Node
	if !waitForMatch {
		opts = append(opts, chromedp.AtLeast(0))
		if err := d.run(ctx, chromedp.Nodes(query, &nodes, opts...)); err != nil {
			return nil, schemas.Errorf(schemas.KindDriver, "query %s failed: %v", loc, err)
		}
		return nodes, nil
	}

	findCtx, cancel := context.WithTimeout(ctx, d.findBudget())
	defer cancel()
	if err := d.run(findCtx, chromedp.Nodes(query, &nodes, opts...)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, schemas.Errorf(schemas.KindElementNotFound, "no element matching %s", loc)
		}
		return nil, schemas.Errorf(schemas.KindDriver, "query %s failed: %v", loc, err)
	}
	return nodes, nil
}

// findFrameNodes answers a frame-scoped XPath query. Unlike chromedp.Nodes
// there is no built-in waiting, so the waiting variant retries until a match
// appears or the implicit-wait budget is spent.
func (d *Driver) findFrameNodes(ctx context.Context, frame *cdp.Node, loc locator.Locator, expr string, waitForMatch bool) ([]*cdp.Node, error) {
	nodes, err := d.frameXPathNodes(ctx, frame, expr)
	if err != nil {
		return nil, schemas.Errorf(schemas.KindDriver, "query %s failed: %v", loc, err)
	}
	if !waitForMatch || len(nodes) > 0 {
		return nodes, nil
	}

	deadline := time.Now().Add(d.findBudget())
	for {
		if !time.Now().Before(deadline) {
			return nil, schemas.Errorf(schemas.KindElementNotFound, "no element matching %s", loc)
		}
		select {
		case <-time.After(frameQueryPollInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		nodes, err = d.frameXPathNodes(ctx, frame, expr)
		if err != nil {
			return nil, schemas.Errorf(schemas.KindDriver, "query %s failed: %v", loc, err)
		}
		if len(nodes) > 0 {
			return nodes, nil
		}
	}
}

// findBudget is the implicit wait, floored so a zero wait still allows one
// query round trip.
func (d *Driver) findBudget() time.Duration {
	d.waitMu.Lock()
	w := d.implicitWait
	d.waitMu.Unlock()
	if w < 500*time.Millisecond {
		return 500 * time.Millisecond
	}
	return w
}

func (d *Driver) currentFrame() *cdp.Node {
	if len(d.frames) == 0 {
		return nil
	}
	return d.frames[len(d.frames)-1]
}

// -- Screenshots --

func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := d.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, schemas.Errorf(schemas.KindDriver, "screenshot failed: %v", err)
	}
	return buf, nil
}

// -- Cookies --

func (d *Driver) Cookies(ctx context.Context) ([]schemas.Cookie, error) {
	var out []schemas.Cookie
	err := d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := network.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		out = make([]schemas.Cookie, 0, len(cookies))
		for _, c := range cookies {
			cookie := schemas.Cookie{
				Name:     c.Name,
				Value:    c.Value,
				Domain:   c.Domain,
				Path:     c.Path,
				Secure:   c.Secure,
				HTTPOnly: c.HTTPOnly,
			}
			// Expires is seconds since epoch; session cookies carry -1.
			if c.Expires > 0 {
				t := time.Unix(int64(c.Expires), 0).UTC()
				cookie.Expiry = &t
			}
			out = append(out, cookie)
		}
		return nil
	}))
	if err != nil {
		return nil, schemas.Errorf(schemas.KindDriver, "failed to read cookies: %v", err)
	}
	return out, nil
}

func (d *Driver) AddCookie(ctx context.Context, c schemas.Cookie) error {
	err := d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		params := network.SetCookie(c.Name, c.Value).
			WithSecure(c.Secure).
			WithHTTPOnly(c.HTTPOnly)
		if c.Domain != "" {
			params = params.WithDomain(c.Domain)
		} else {
			// Without a domain the browser needs the URL to scope the
			// cookie to the current page.
			var loc string
			if err := chromedp.Location(&loc).Do(ctx); err != nil {
				return err
			}
			params = params.WithURL(loc)
		}
		if c.Path != "" {
			params = params.WithPath(c.Path)
		}
		if c.Expiry != nil {
			expires := cdp.TimeSinceEpoch(*c.Expiry)
			params = params.WithExpires(&expires)
		}
		return params.Do(ctx)
	}))
	if err != nil {
		return schemas.Errorf(schemas.KindDriver, "failed to set cookie %q: %v", c.Name, err)
	}
	return nil
}

func (d *Driver) DeleteCookie(ctx context.Context, name string) error {
	err := d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := network.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		for _, c := range cookies {
			if c.Name != name {
				continue
			}
			del := network.DeleteCookies(name).WithDomain(c.Domain).WithPath(c.Path)
			if err := del.Do(ctx); err != nil {
				return err
			}
		}
		// A name with no match is a no-op.
		return nil
	}))
	if err != nil {
		return schemas.Errorf(schemas.KindDriver, "failed to delete cookie %q: %v", name, err)
	}
	return nil
}

func (d *Driver) DeleteAllCookies(ctx context.Context) error {
	err := d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return network.ClearBrowserCookies().Do(ctx)
	}))
	if err != nil {
		return schemas.Errorf(schemas.KindDriver, "failed to clear cookies: %v", err)
	}
	return nil
}

// -- Frames --

func (d *Driver) SwitchToFrame(ctx context.Context, target driver.FrameTarget) error {
	node, err := d.resolveFrame(ctx, target)
	if err != nil {
		return err
	}
	d.frames = append(d.frames, node)
	return nil
}

func (d *Driver) resolveFrame(ctx context.Context, target driver.FrameTarget) (*cdp.Node, error) {
	switch {
	case target.Index != nil:
		loc, _ := locator.Resolve("css", "iframe, frame")
		nodes, err := d.findNodes(ctx, loc, false)
		if err != nil {
			return nil, err
		}
		if *target.Index >= len(nodes) {
			return nil, schemas.Errorf(schemas.KindFrameNotFound,
				"no frame at index %d, page has %d", *target.Index, len(nodes))
		}
		return nodes[*target.Index], nil

	case target.Name != "":
		name := strings.ReplaceAll(target.Name, `'`, `\'`)
		sel := fmt.Sprintf("iframe[name='%[1]s'], iframe[id='%[1]s'], frame[name='%[1]s'], frame[id='%[1]s']", name)
		loc, _ := locator.Resolve("css", sel)
		nodes, err := d.findNodes(ctx, loc, false)
		if err != nil {
			return nil, err
		}
		if len(nodes) == 0 {
			return nil, schemas.Errorf(schemas.KindFrameNotFound, "no frame named %q", target.Name)
		}
		return nodes[0], nil

	case target.Locator != nil:
		nodes, err := d.findNodes(ctx, *target.Locator, true)
		if err != nil {
			if schemas.KindOf(err) == schemas.KindElementNotFound {
				return nil, schemas.Errorf(schemas.KindFrameNotFound, "no frame matching %s", *target.Locator)
			}
			return nil, err
		}
		if len(nodes) == 0 {
			return nil, schemas.Errorf(schemas.KindFrameNotFound, "no frame matching %s", *target.Locator)
		}
		return nodes[0], nil

	default:
		return nil, schemas.Errorf(schemas.KindInvalidArgument, "frame target must specify index, name, or locator")
	}
}

func (d *Driver) SwitchToDefault(ctx context.Context) error {
	d.frames = nil
	return nil
}

func (d *Driver) SwitchToParent(ctx context.Context) error {
	if len(d.frames) > 0 {
		d.frames = d.frames[:len(d.frames)-1]
	}
	return nil
}

// -- Alerts --

func (d *Driver) AlertText(ctx context.Context) (string, error) {
	d.dialogMu.Lock()
	defer d.dialogMu.Unlock()
	if d.dialog == nil {
		return "", schemas.Errorf(schemas.KindNoAlert, "no alert is present")
	}
	return d.dialog.Message, nil
}

func (d *Driver) AcceptAlert(ctx context.Context) error {
	return d.handleDialog(ctx, true, nil)
}

func (d *Driver) DismissAlert(ctx context.Context) error {
	return d.handleDialog(ctx, false, nil)
}

func (d *Driver) SendAlertText(ctx context.Context, text string) error {
	return d.handleDialog(ctx, true, &text)
}

func (d *Driver) handleDialog(ctx context.Context, accept bool, promptText *string) error {
	d.dialogMu.Lock()
	if d.dialog == nil {
		d.dialogMu.Unlock()
		return schemas.Errorf(schemas.KindNoAlert, "no alert is present")
	}
	d.dialog = nil
	d.dialogMu.Unlock()

	params := page.HandleJavaScriptDialog(accept)
	if promptText != nil {
		params = params.WithPromptText(*promptText)
	}
	err := d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return params.Do(ctx)
	}))
	if err != nil {
		return schemas.Errorf(schemas.KindDriver, "failed to handle dialog: %v", err)
	}
	return nil
}

// -- Configuration and lifecycle --

func (d *Driver) SetImplicitWait(w time.Duration) {
	d.waitMu.Lock()
	d.implicitWait = w
	d.waitMu.Unlock()
}

func (d *Driver) Quit(ctx context.Context) error {
	// Cancel waits for the browser context to close gracefully; the plain
	// cancel afterwards is the hard backstop.
	err := chromedp.Cancel(d.ctx)
	d.cancel()
	if err != nil {
		return schemas.Errorf(schemas.KindDriver, "browser context shutdown failed: %v", err)
	}
	return nil
}
