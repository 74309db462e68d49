package chromium

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sjc5/critical/internal/ic"
	"github.com/sjc5/kit/pkg/safecache"
)

const defaultLaunchTimeout = 30 * time.Second

type Config struct {
	// Browser binary. Empty means FindExecutable("").
	ExecPath string

	// Extra command line flags for the browser.
	Args []string

	LaunchTimeout time.Duration

	Logger ic.Logger
}

/*
Engine computes critical CSS with a headless Chrome or Chromium. The browser
is launched on first use and shared by every request; each request gets its
own tab per viewport. Call Close when done.
*/
type Engine struct {
	cfg Config
	log ic.Logger

	execPath *safecache.Cache[string]
	// Every request of a run shares one *ic.Ignore.
	ignores *safecache.CacheMap[*ic.Ignore, *ic.Ignore, *ignoreRules]

	launch func(ctx context.Context, execPath string, args []string) (*browser, error)

	mu      sync.Mutex
	browser *browser
	closed  bool
}

func New(cfg Config) *Engine {
	if cfg.LaunchTimeout <= 0 {
		cfg.LaunchTimeout = defaultLaunchTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = ic.Log
	}
	return &Engine{
		cfg:      cfg,
		log:      log,
		execPath: safecache.New(func() (string, error) { return FindExecutable(cfg.ExecPath) }, nil),
		ignores:  safecache.NewMap(compileIgnore, ignoreKeyMaker, nil),
		launch:   launch,
	}
}

func ignoreKeyMaker(ig *ic.Ignore) *ic.Ignore { return ig }

func (e *Engine) ensureBrowser(ctx context.Context) (*browser, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, errors.New("engine is closed")
	}
	if e.browser != nil {
		if e.browser.conn.alive() {
			return e.browser, nil
		}
		// Crashed, killed, or dropped the devtools socket.
		e.log.Warningf("browser connection lost (%v); relaunching", e.browser.conn.closeErr())
		_ = e.browser.close()
		e.browser = nil
	}

	execPath, err := e.execPath.Get()
	if err != nil {
		return nil, err
	}

	launchCtx, cancel := context.WithTimeout(ctx, e.cfg.LaunchTimeout)
	defer cancel()

	e.log.Debugf("launching %s", execPath)
	b, err := e.launch(launchCtx, execPath, e.cfg.Args)
	if err != nil {
		return nil, fmt.Errorf("error launching browser: %w", err)
	}
	e.browser = b
	return b, nil
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	if e.browser == nil {
		return nil
	}
	err := e.browser.close()
	e.browser = nil
	return err
}

func (e *Engine) Generate(ctx context.Context, req ic.Request) (*ic.Result, error) {
	po, err := pageOptionsFrom(req.Penthouse)
	if err != nil {
		return nil, err
	}
	ignore, err := e.ignores.Get(req.Ignore)
	if err != nil {
		return nil, err
	}

	page := req.HTML
	if page == nil {
		page, err = os.ReadFile(filepath.Join(req.Base, req.Src))
		if err != nil {
			return nil, fmt.Errorf("error reading page: %w", err)
		}
	}

	srv, err := newPageServer(req.Base, req.AssetPaths, req.Src, page)
	if err != nil {
		return nil, fmt.Errorf("error starting page server: %w", err)
	}
	defer srv.Close()

	b, err := e.ensureBrowser(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, po.timeout)
	defer cancel()

	var passes [][]ruleEntry
	for _, vp := range req.Viewports() {
		entries, err := classifyPage(ctx, b.conn, srv.URL(), vp, po)
		if err != nil {
			return nil, fmt.Errorf("error rendering %s at %dx%d: %w", req.Src, vp.Width, vp.Height, err)
		}
		passes = append(passes, entries)
	}

	critical, _, all := mergeViewports(passes)
	kept, dropped := ignore.apply(critical)
	criticalCSS := strings.Join(kept, "")

	res := &ic.Result{CSS: criticalCSS}
	if req.Extract {
		res.Uncritical = strings.Join(uncriticalRules(all, critical, dropped), "")
	} else {
		res.Uncritical = strings.Join(all, "")
	}

	if req.Inline && criticalCSS != "" {
		out, err := inlineCritical(page, criticalCSS)
		if err != nil {
			return nil, err
		}
		res.HTML = string(out)
	}

	e.log.Debugf("%s: %d of %d rules critical", req.Src, len(kept), len(all))
	return res, nil
}

// uncriticalRules keeps cascade order: everything not critical, plus
// critical rules that lost parts to ignore filters.
func uncriticalRules(all, critical, dropped []string) []string {
	isCritical := make(map[string]bool, len(critical))
	for _, c := range critical {
		isCritical[c] = true
	}
	isDropped := make(map[string]bool, len(dropped))
	for _, d := range dropped {
		isDropped[d] = true
	}
	var out []string
	for _, r := range all {
		if !isCritical[r] || isDropped[r] {
			out = append(out, r)
		}
	}
	return out
}

func classifyPage(ctx context.Context, c *conn, url string, vp ic.Dimension, po pageOptions) ([]ruleEntry, error) {
	var target struct {
		TargetID string `json:"targetId"`
	}
	if err := c.call(ctx, "", "Target.createTarget", map[string]any{"url": "about:blank"}, &target); err != nil {
		return nil, err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = c.call(closeCtx, "", "Target.closeTarget", map[string]any{"targetId": target.TargetID}, nil)
	}()

	var attached struct {
		SessionID string `json:"sessionId"`
	}
	if err := c.call(ctx, "", "Target.attachToTarget", map[string]any{
		"targetId": target.TargetID,
		"flatten":  true,
	}, &attached); err != nil {
		return nil, err
	}
	sid := attached.SessionID

	if err := c.call(ctx, sid, "Emulation.setDeviceMetricsOverride", map[string]any{
		"width":             vp.Width,
		"height":            vp.Height,
		"deviceScaleFactor": 1,
		"mobile":            false,
	}, nil); err != nil {
		return nil, err
	}

	if po.userAgent != "" {
		if err := c.call(ctx, sid, "Emulation.setUserAgentOverride", map[string]any{"userAgent": po.userAgent}, nil); err != nil {
			return nil, err
		}
	}

	if po.blockJSRequests {
		if err := c.call(ctx, sid, "Network.enable", nil, nil); err != nil {
			return nil, err
		}
		if err := c.call(ctx, sid, "Network.setBlockedURLs", map[string]any{
			"urls": []string{"*.js", "*.mjs"},
		}, nil); err != nil {
			return nil, err
		}
	}

	if err := c.call(ctx, sid, "Page.enable", nil, nil); err != nil {
		return nil, err
	}

	loaded, unsubscribe := c.subscribe(sid, "Page.loadEventFired")
	defer unsubscribe()

	var nav struct {
		ErrorText string `json:"errorText"`
	}
	if err := c.call(ctx, sid, "Page.navigate", map[string]any{"url": url}, &nav); err != nil {
		return nil, err
	}
	if nav.ErrorText != "" {
		return nil, fmt.Errorf("navigation failed: %s", nav.ErrorText)
	}

	select {
	case <-loaded:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for page load: %w", ctx.Err())
	}

	if po.renderWait > 0 {
		select {
		case <-time.After(po.renderWait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	var eval struct {
		Result struct {
			Value json.RawMessage `json:"value"`
		} `json:"result"`
		ExceptionDetails *struct {
			Text string `json:"text"`
		} `json:"exceptionDetails"`
	}
	if err := c.call(ctx, sid, "Runtime.evaluate", map[string]any{
		"expression":    classifyScript,
		"returnByValue": true,
	}, &eval); err != nil {
		return nil, err
	}
	if eval.ExceptionDetails != nil {
		return nil, fmt.Errorf("error classifying rules: %s", eval.ExceptionDetails.Text)
	}

	var entries []ruleEntry
	if len(eval.Result.Value) > 0 {
		if err := json.Unmarshal(eval.Result.Value, &entries); err != nil {
			return nil, fmt.Errorf("error decoding rule classification: %w", err)
		}
	}
	return entries, nil
}
