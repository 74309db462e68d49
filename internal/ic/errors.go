package ic

import (
	"errors"
	"fmt"
)

var (
	// ErrNoHTMLFiles is never returned from Run. It is the text of the
	// warning logged when discovery finds nothing to process.
	ErrNoHTMLFiles = errors.New("no HTML files found to process")

	ErrAlreadyRan      = errors.New("orchestrator has already run")
	ErrTargetCollision = errors.New("target already written by another source file")
)

type InvalidConfigurationError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid configuration: %s", e.Reason)
	}
	return fmt.Sprintf("invalid configuration: options.%s %s", e.Field, e.Reason)
}

type EngineInvocationError struct {
	File string
	Err  error
}

func (e *EngineInvocationError) Error() string {
	return fmt.Sprintf("error generating critical CSS for %s: %v", e.File, e.Err)
}

func (e *EngineInvocationError) Unwrap() error {
	return e.Err
}

type AssetWriteError struct {
	File string
	Err  error
}

func (e *AssetWriteError) Error() string {
	return fmt.Sprintf("error writing asset %s: %v", e.File, e.Err)
}

func (e *AssetWriteError) Unwrap() error {
	return e.Err
}
