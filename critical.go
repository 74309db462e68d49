package critical

import (
	"context"

	"github.com/sjc5/critical/internal/chromium"
	"github.com/sjc5/critical/internal/ic"
)

type Config = ic.Config
type Options = ic.Options
type Dimension = ic.Dimension
type Target = ic.Target
type Ignore = ic.Ignore
type Engine = ic.Engine
type EngineFunc = ic.EngineFunc
type Request = ic.Request
type Result = ic.Result
type Logger = ic.Logger
type AssetSet = ic.AssetSet
type MemoryAssets = ic.MemoryAssets
type DirAssets = ic.DirAssets
type ChromiumConfig = chromium.Config

type InvalidConfigurationError = ic.InvalidConfigurationError
type EngineInvocationError = ic.EngineInvocationError
type AssetWriteError = ic.AssetWriteError

var (
	ErrNoHTMLFiles     = ic.ErrNoHTMLFiles
	ErrAlreadyRan      = ic.ErrAlreadyRan
	ErrTargetCollision = ic.ErrTargetCollision
)

var SingleFile = ic.SingleFile
var Split = ic.Split
var NewMemoryAssets = ic.NewMemoryAssets
var NewDirAssets = ic.NewDirAssets
var LoadOptionsFile = ic.LoadOptionsFile
var ReadOptionsFile = ic.ReadOptionsFile
var NewLogger = ic.NewLogger

type Critical struct {
	opts *ic.Options
	cfg  ic.Config

	// set when New created the engine itself
	ownEngine *chromium.Engine
}

/*
New resolves the user's options against the closed schema and returns a
runner. An unknown or mistyped option fails here, before any build output
is touched. With no cfg.Engine, a headless Chromium engine is created on
first use; call Close to shut it down.
*/
func New(user map[string]any, cfg Config) (*Critical, error) {
	opts, err := ic.Resolve(user)
	if err != nil {
		return nil, err
	}
	cfg.Options = opts
	if cfg.Logger == nil {
		cfg.Logger = ic.Log
	}

	c := &Critical{opts: opts, cfg: cfg}
	if cfg.Engine == nil {
		c.ownEngine = chromium.New(chromium.Config{Logger: cfg.Logger})
		c.cfg.Engine = c.ownEngine
	}
	return c, nil
}

// NewChromiumEngine returns the default engine with explicit settings, for
// hosts that want to pick the browser binary or share one engine.
func NewChromiumEngine(cfg ChromiumConfig) *chromium.Engine {
	return chromium.New(cfg)
}

// Options returns a copy of the resolved options. Changing it does not
// affect later runs.
func (c *Critical) Options() Options {
	return *c.opts.Clone()
}

// Run processes one build's emitted assets and returns once every HTML
// file has settled. Each call is an independent run.
func (c *Critical) Run(ctx context.Context, assets AssetSet, outputPath string) error {
	o, err := ic.NewOrchestrator(c.cfg)
	if err != nil {
		return err
	}
	return o.Run(ctx, assets, outputPath)
}

// AfterEmit is the asynchronous form of Run for emit hooks: it returns
// immediately and calls done exactly once, after every task has settled.
func (c *Critical) AfterEmit(ctx context.Context, assets AssetSet, outputPath string, done func(error)) {
	go func() {
		err := c.Run(ctx, assets, outputPath)
		if done != nil {
			done(err)
		}
	}()
}

func (c *Critical) Close() error {
	if c.ownEngine == nil {
		return nil
	}
	return c.ownEngine.Close()
}
