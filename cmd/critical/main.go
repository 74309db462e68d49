// critical inlines above-the-fold CSS into the HTML files of an already
// built site, in place.
//
// Usage:
//
//	critical [--dir dist] [--config critical.json] [--watch] [flags]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/pflag"

	"github.com/sjc5/critical"
	"github.com/sjc5/critical/internal/ic"
)

type flags struct {
	dir           string
	config        string
	concurrency   int64
	minify        bool
	strictTargets bool
	chrome        string
	chromeArgs    []string
	ignore        []string
	watch         bool
	verbose       bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			ic.Log.Errorf("%v", err)
			os.Exit(1)
		}
	}
}

func run(args []string) error {
	var f flags
	fs := pflag.NewFlagSet("critical", pflag.ContinueOnError)
	fs.StringVarP(&f.dir, "dir", "d", "dist", "build output directory to process")
	fs.StringVarP(&f.config, "config", "c", "", "options file (JSON, JSONC or YAML)")
	fs.Int64Var(&f.concurrency, "concurrency", 0, "maximum pages rendered at once (default 100)")
	fs.BoolVar(&f.minify, "minify", false, "minify generated CSS files")
	fs.BoolVar(&f.strictTargets, "strict-targets", false, "fail when two pages write the same artifact")
	fs.StringVar(&f.chrome, "chrome", "", "Chrome or Chromium binary (default: CHROME_PATH, then PATH)")
	fs.StringSliceVar(&f.chromeArgs, "chrome-arg", nil, "extra browser flag (repeatable)")
	fs.StringSliceVar(&f.ignore, "ignore", nil, "glob of output files to skip (repeatable)")
	fs.BoolVarP(&f.watch, "watch", "w", false, "re-run when HTML or CSS in --dir changes")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "print debug output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	if f.verbose {
		pterm.EnableDebugMessages()
	}

	user := map[string]any{}
	if f.config != "" {
		var err error
		if user, err = ic.ReadOptionsFile(f.config); err != nil {
			return err
		}
	}

	info, err := os.Stat(f.dir)
	if err != nil {
		return fmt.Errorf("error reading output directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", f.dir)
	}

	engine := critical.NewChromiumEngine(critical.ChromiumConfig{
		ExecPath: f.chrome,
		Args:     f.chromeArgs,
		Logger:   ic.Log,
	})
	defer engine.Close()

	c, err := critical.New(user, critical.Config{
		Engine:        engine,
		Logger:        ic.Log,
		Concurrency:   f.concurrency,
		MinifyCSS:     f.minify,
		StrictTargets: f.strictTargets,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	assets := ic.NewDirAssets(f.dir, f.ignore...)
	runOnce := func(ctx context.Context) error {
		return c.Run(ctx, assets, f.dir)
	}

	if err := runOnce(ctx); err != nil && !f.watch {
		return err
	}
	if !f.watch {
		return nil
	}

	err = ic.Watch(ctx, ic.WatchConfig{
		Dir:        f.dir,
		Ignore:     f.ignore,
		Logger:     ic.Log,
		IsOwnWrite: assets.WroteContent,
		Run:        runOnce,
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
