package ic

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/sjc5/kit/pkg/typed"
	"github.com/tdewolff/minify/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const defaultConcurrency = 100

type Config struct {
	// Resolved options (see Resolve). Required.
	Options *Options

	// Engine computes the critical CSS for each page. Required.
	Engine Engine

	Logger Logger

	/*
		Concurrency caps how many engine invocations may be in flight at
		once. Every file's task is still started up front; tasks over the
		cap simply wait their turn. Defaults to 100.
	*/
	Concurrency int64

	// Minify critical and uncritical CSS artifacts before writing them.
	MinifyCSS bool

	/*
		By default, when two source files resolve to the same artifact name
		the last one to finish wins silently. With StrictTargets, the second
		writer fails with an AssetWriteError wrapping ErrTargetCollision.
	*/
	StrictTargets bool
}

type State uint8

const (
	StateIdle State = iota
	StateDiscovering
	StateDispatching
	StateAwaiting
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDiscovering:
		return "discovering"
	case StateDispatching:
		return "dispatching"
	case StateAwaiting:
		return "awaiting"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

/*
Orchestrator runs one post-emission phase: it discovers HTML assets, starts
one task per file, waits for all of them, and reports the first failure.
Failed tasks never cancel their siblings and nothing is rolled back, so a
failed run may still leave successful files' artifacts in the asset set.
An Orchestrator runs once; create a new one per build.
*/
type Orchestrator struct {
	opts   Options
	engine Engine
	log    Logger
	strict bool

	sem      *semaphore.Weighted
	minifier *minify.M

	// artifact name -> source file that wrote it
	owners typed.SyncMap[string, string]

	mu    sync.Mutex
	state State
	ran   bool
}

func NewOrchestrator(c Config) (*Orchestrator, error) {
	if c.Options == nil {
		return nil, &InvalidConfigurationError{Reason: "options are required"}
	}
	if c.Engine == nil {
		return nil, errors.New("an engine is required")
	}
	o := &Orchestrator{
		opts:   *c.Options,
		engine: c.Engine,
		log:    c.Logger,
		strict: c.StrictTargets,
	}
	if o.log == nil {
		o.log = Log
	}
	weight := c.Concurrency
	if weight <= 0 {
		weight = defaultConcurrency
	}
	o.sem = semaphore.NewWeighted(weight)
	if c.MinifyCSS {
		o.minifier = newMinifier()
	}
	return o, nil
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Once failed, a run stays failed while the remaining tasks settle.
func (o *Orchestrator) transition(to State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateFailed {
		return
	}
	o.log.Debugf("state %s -> %s", o.state, to)
	o.state = to
}

/*
Run processes every HTML asset in assets. outputPath is the host's output
directory; it becomes the engine's base unless Options.Base is set. Run
returns only after every task has settled, with nil or the first failure
observed.
*/
func (o *Orchestrator) Run(ctx context.Context, assets AssetSet, outputPath string) error {
	o.mu.Lock()
	if o.ran {
		o.mu.Unlock()
		return ErrAlreadyRan
	}
	o.ran = true
	o.mu.Unlock()

	o.transition(StateDiscovering)
	htmlFiles, err := Discover(assets)
	if err != nil {
		o.transition(StateFailed)
		o.log.Errorf("critical CSS processing failed: %v", err)
		return err
	}
	if len(htmlFiles) == 0 {
		o.log.Warningf("%v", ErrNoHTMLFiles)
		o.transition(StateCompleted)
		return nil
	}

	base := o.opts.Base
	if base == "" {
		base = outputPath
	}

	o.transition(StateDispatching)

	var g errgroup.Group
	var failures atomic.Int32
	for _, name := range htmlFiles {
		g.Go(func() error {
			err := o.processFile(ctx, assets, base, name)
			if err != nil {
				failures.Add(1)
				o.transition(StateFailed)
			}
			return err
		})
	}

	o.transition(StateAwaiting)

	if err := g.Wait(); err != nil {
		if n := failures.Load(); n > 1 {
			o.log.Errorf("%d of %d files failed; reporting the first", n, len(htmlFiles))
		}
		o.log.Errorf("critical CSS processing failed: %v", err)
		return err
	}

	o.transition(StateCompleted)
	return nil
}
