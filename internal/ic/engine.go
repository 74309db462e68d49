package ic

import "context"

// Engine computes critical CSS for one page. It is opaque to the
// orchestration: any error it returns is treated as an engine failure.
type Engine interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

type EngineFunc func(ctx context.Context, req Request) (*Result, error)

func (f EngineFunc) Generate(ctx context.Context, req Request) (*Result, error) {
	return f(ctx, req)
}

// Request is the per-file engine invocation record.
type Request struct {
	Base string
	Src  string

	// Current content of Src in the asset set. Engines should render this
	// rather than whatever is on disk under Base.
	HTML []byte

	Target     Target
	Inline     bool
	Extract    bool
	Width      int
	Height     int
	Dimensions []Dimension
	Ignore     *Ignore
	AssetPaths []string
	Penthouse  map[string]any
}

// Viewports returns Dimensions, or the single Width x Height viewport.
func (r Request) Viewports() []Dimension {
	if len(r.Dimensions) > 0 {
		return r.Dimensions
	}
	return []Dimension{{Width: r.Width, Height: r.Height}}
}

// Result fields are optional; an empty string means the engine did not
// produce that artifact.
type Result struct {
	HTML       string
	CSS        string
	Uncritical string
}
