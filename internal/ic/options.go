package ic

const (
	DefaultWidth  = 1300
	DefaultHeight = 900
	DefaultSrc    = "index.html"
	DefaultDest   = "index.html"
)

// Options is the resolved, immutable plugin configuration. Build one with
// Resolve; every processing task receives its own copy and must treat the
// slices and maps inside it as read-only.
type Options struct {
	/*
		Base is the directory the engine resolves the page and its
		stylesheets against. If empty, the host's output path is used.
	*/
	Base string

	// Src is a default only. Each discovered HTML file is still addressed
	// by its own filename when it is processed.
	Src string

	/*
		Dest is the asset the inlined HTML is written to. When it was not
		explicitly configured, each file's inlined HTML replaces the file
		itself (or the split target's "html" name, if present).
	*/
	Dest string

	Inline  bool
	Extract bool

	Width  int
	Height int

	// Additional viewports. When non-empty, the engine renders each of
	// these instead of the single Width x Height viewport.
	Dimensions []Dimension

	Target Target

	// Passed through to the engine unmodified.
	Ignore *Ignore

	AssetPaths []string

	// Engine-specific options, opaque to the orchestration.
	Penthouse map[string]any

	set map[string]bool
}

type Dimension struct {
	Width  int
	Height int
}

// IsSet reports whether the named top-level field (schema spelling, e.g.
// "dest") was supplied by the user rather than defaulted.
func (o *Options) IsSet(field string) bool {
	return o.set[field]
}

func defaultOptions() Options {
	return Options{
		Inline:  true,
		Extract: true,
		Width:   DefaultWidth,
		Height:  DefaultHeight,
		Src:     DefaultSrc,
		Dest:    DefaultDest,
		set:     map[string]bool{},
	}
}

type TargetKind uint8

const (
	TargetNone TargetKind = iota
	TargetSingleFile
	TargetSplit
)

func (k TargetKind) String() string {
	switch k {
	case TargetSingleFile:
		return "single"
	case TargetSplit:
		return "split"
	default:
		return "none"
	}
}

/*
Target is either a single filename (the inline-only destination) or a split
record naming separate css, html and uncritical outputs. Branch on Kind;
File is only meaningful for TargetSingleFile and the CSS/HTML/Uncritical
names only for TargetSplit.
*/
type Target struct {
	Kind       TargetKind
	File       string
	CSS        string
	HTML       string
	Uncritical string
}

func SingleFile(name string) Target {
	return Target{Kind: TargetSingleFile, File: name}
}

func Split(css, html, uncritical string) Target {
	return Target{Kind: TargetSplit, CSS: css, HTML: html, Uncritical: uncritical}
}

func (t Target) IsSplit() bool {
	return t.Kind == TargetSplit
}

// Ignore holds the engine's skip rules. Their meaning is defined entirely
// by the engine.
// Clone returns a deep copy: nothing in the result shares memory with o.
func (o *Options) Clone() *Options {
	c := *o
	c.Dimensions = append([]Dimension(nil), o.Dimensions...)
	c.AssetPaths = append([]string(nil), o.AssetPaths...)
	if o.Ignore != nil {
		c.Ignore = &Ignore{
			AtRule: cloneValue(o.Ignore.AtRule).([]any),
			Rule:   cloneValue(o.Ignore.Rule).([]any),
			Decl:   cloneValue(o.Ignore.Decl),
		}
	}
	if o.Penthouse != nil {
		c.Penthouse = cloneValue(o.Penthouse).(map[string]any)
	}
	if o.set != nil {
		c.set = make(map[string]bool, len(o.set))
		for k, v := range o.set {
			c.set[k] = v
		}
	}
	return &c
}

// cloneValue copies the containers a decoded options file can hold.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return t
		}
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case map[any]any:
		if t == nil {
			return t
		}
		out := make(map[any]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		if t == nil {
			return t
		}
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

type Ignore struct {
	AtRule []any
	Rule   []any
	Decl   any
}
