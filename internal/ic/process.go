package ic

import (
	"context"
	"fmt"
)

func (o *Orchestrator) processFile(ctx context.Context, assets AssetSet, base, name string) error {
	if err := o.generateAndApply(ctx, assets, base, name); err != nil {
		o.log.Errorf("Failed to process %s: %v", name, err)
		return err
	}
	return nil
}

func (o *Orchestrator) generateAndApply(ctx context.Context, assets AssetSet, base, name string) error {
	dest := o.htmlDest(name)
	html, _ := assets.Read(name)

	req := Request{
		Base:       base,
		Src:        name,
		HTML:       html,
		Target:     o.engineTarget(dest),
		Inline:     o.opts.Inline,
		Extract:    o.opts.Extract,
		Width:      o.opts.Width,
		Height:     o.opts.Height,
		Dimensions: o.opts.Dimensions,
		Ignore:     o.opts.Ignore,
		AssetPaths: o.opts.AssetPaths,
		Penthouse:  o.opts.Penthouse,
	}

	o.log.Infof("Processing critical CSS for %s", name)

	result, err := o.generate(ctx, req)
	if err != nil {
		return &EngineInvocationError{File: name, Err: err}
	}

	t := o.opts.Target

	if o.opts.Inline && result.HTML != "" {
		if err := o.write(assets, name, dest, result.HTML, false); err != nil {
			return err
		}
		o.log.Infof("Updated %s with inlined critical CSS", dest)
	}

	if o.opts.Extract && t.IsSplit() && t.CSS != "" && result.CSS != "" {
		if err := o.write(assets, name, t.CSS, result.CSS, true); err != nil {
			return err
		}
		o.log.Infof("Generated critical CSS file: %s", t.CSS)
	}

	if t.IsSplit() && t.Uncritical != "" && result.Uncritical != "" {
		if err := o.write(assets, name, t.Uncritical, result.Uncritical, true); err != nil {
			return err
		}
		o.log.Infof("Generated uncritical CSS file: %s", t.Uncritical)
	}

	return nil
}

// The engine call is the only suspension point of a task. The semaphore is
// acquired here rather than around task start, so every task is running
// before any is waited on.
func (o *Orchestrator) generate(ctx context.Context, req Request) (*Result, error) {
	if err := o.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("error acquiring engine slot: %w", err)
	}
	defer o.sem.Release(1)

	result, err := o.engine.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &Result{}
	}
	return result, nil
}

// htmlDest is where a file's inlined HTML goes: an explicit dest, else the
// split target's html name, else the file itself.
func (o *Orchestrator) htmlDest(name string) string {
	if o.opts.IsSet("dest") && o.opts.Dest != "" {
		return o.opts.Dest
	}
	if t := o.opts.Target; t.IsSplit() && t.HTML != "" {
		return t.HTML
	}
	return name
}

func (o *Orchestrator) engineTarget(dest string) Target {
	t := o.opts.Target
	if t.IsSplit() {
		return Split(t.CSS, dest, t.Uncritical)
	}
	return SingleFile(dest)
}

func (o *Orchestrator) write(assets AssetSet, source, target, content string, isCSS bool) error {
	if o.strict {
		if owner, loaded := o.owners.LoadOrStore(target, source); loaded && owner != source {
			return &AssetWriteError{File: target, Err: fmt.Errorf("%w (%s)", ErrTargetCollision, owner)}
		}
	}
	if isCSS && o.minifier != nil {
		minified, err := minifyCSS(o.minifier, content)
		if err != nil {
			return &AssetWriteError{File: target, Err: err}
		}
		content = minified
	}
	if err := assets.Replace(target, []byte(content)); err != nil {
		return &AssetWriteError{File: target, Err: err}
	}
	return nil
}
