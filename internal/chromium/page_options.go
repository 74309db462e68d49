package chromium

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	defaultPageTimeout = 30 * time.Second
	defaultRenderWait  = 100 * time.Millisecond
)

// pageOptions are the penthouse keys the engine understands. Other keys are
// accepted and ignored.
type pageOptions struct {
	timeout         time.Duration
	renderWait      time.Duration
	blockJSRequests bool
	userAgent       string
}

func pageOptionsFrom(raw map[string]any) (pageOptions, error) {
	po := pageOptions{
		timeout:         defaultPageTimeout,
		renderWait:      defaultRenderWait,
		blockJSRequests: true,
	}

	if v, ok := raw["timeout"]; ok {
		ms, err := millis(v)
		if err != nil {
			return po, fmt.Errorf("penthouse.timeout: %w", err)
		}
		if ms > 0 {
			po.timeout = ms
		}
	}
	if v, ok := raw["renderWaitTime"]; ok {
		ms, err := millis(v)
		if err != nil {
			return po, fmt.Errorf("penthouse.renderWaitTime: %w", err)
		}
		po.renderWait = ms
	}
	if v, ok := raw["blockJSRequests"]; ok {
		b, ok := v.(bool)
		if !ok {
			return po, fmt.Errorf("penthouse.blockJSRequests: must be a boolean, got %T", v)
		}
		po.blockJSRequests = b
	}
	if v, ok := raw["userAgent"]; ok {
		s, ok := v.(string)
		if !ok {
			return po, fmt.Errorf("penthouse.userAgent: must be a string, got %T", v)
		}
		po.userAgent = s
	}
	return po, nil
}

func millis(v any) (time.Duration, error) {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, err
		}
		f = parsed
	default:
		return 0, fmt.Errorf("must be a number of milliseconds, got %T", v)
	}
	if f < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return time.Duration(f * float64(time.Millisecond)), nil
}
