package chrome

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/browsergrid/internal/locator"
)

// queryMode names how one DOM query executes.
type queryMode int

const (
	// queryModeCSS runs DOM.querySelectorAll, optionally from the active
	// frame's content document.
	queryModeCSS queryMode = iota
	// queryModeSearch runs DOM.performSearch across the whole document.
	queryModeSearch
	// queryModeFrameXPath evaluates the XPath inside the active frame's
	// content document. DOM.performSearch always searches document-wide,
	// so it cannot honor a frame scope.
	queryModeFrameXPath
)

// planQuery picks the execution mode for a compiled query. Every XPath-form
// query must take the in-frame evaluation path while a frame is active;
// otherwise matches could come from outside the switched frame.
func planQuery(kind locator.QueryKind, inFrame bool) queryMode {
	switch {
	case kind == locator.QueryCSS:
		return queryModeCSS
	case inFrame:
		return queryModeFrameXPath
	default:
		return queryModeSearch
	}
}

// frameQueryObjectGroup scopes the remote objects an in-frame query creates
// so they can be released in one call once the nodes are adopted.
const frameQueryObjectGroup = "browsergrid-frame-query"

// frameQueryPollInterval paces retries of a waiting in-frame query.
const frameQueryPollInterval = 100 * time.Millisecond

// jsFrameXPath runs with `this` bound to the frame element and returns the
// matching nodes of its content document in document order. Cross-origin
// frames have no accessible content document and throw.
const jsFrameXPath = `function(expr) {
	var doc = this.contentDocument;
	if (!doc) throw new Error('frame content document is not accessible');
	var res = doc.evaluate(expr, doc, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
	var out = [];
	for (var i = 0; i < res.snapshotLength; i++) out.push(res.snapshotItem(i));
	return out;
}`

// frameXPathNodes evaluates expr in frame's content document and adopts every
// match into the DOM domain. One call is one query; waiting belongs to the
// caller.
func (d *Driver) frameXPathNodes(ctx context.Context, frame *cdp.Node, expr string) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	err := d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		defer func() {
			_ = runtime.ReleaseObjectGroup(frameQueryObjectGroup).Do(ctx)
		}()

		frameObj, err := dom.ResolveNode().WithBackendNodeID(frame.BackendNodeID).Do(ctx)
		if err != nil {
			return err
		}
		arg, err := json.Marshal(expr)
		if err != nil {
			return err
		}
		res, exc, err := runtime.CallFunctionOn(jsFrameXPath).
			WithObjectID(frameObj.ObjectID).
			WithArguments([]*runtime.CallArgument{{Value: arg}}).
			WithReturnByValue(false).
			WithObjectGroup(frameQueryObjectGroup).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return fmt.Errorf("%s", exceptionText(exc))
		}

		props, err := d.ownProperties(ctx, res.ObjectID)
		if err != nil {
			return err
		}
		type indexed struct {
			index int
			id    runtime.RemoteObjectID
		}
		var entries []indexed
		for _, p := range props {
			if p.Value == nil || p.Value.ObjectID == "" {
				continue
			}
			i, err := strconv.Atoi(p.Name)
			if err != nil {
				continue
			}
			entries = append(entries, indexed{index: i, id: p.Value.ObjectID})
		}
		sort.Slice(entries, func(a, b int) bool { return entries[a].index < entries[b].index })

		for _, e := range entries {
			node, err := d.adoptNode(ctx, e.id)
			if err != nil {
				return err
			}
			nodes = append(nodes, node)
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}
	return nodes, nil
}
