package ic

import (
	"io"

	"github.com/pterm/pterm"
)

type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warningf(format string, args ...any)
	Errorf(format string, args ...any)
}

const LogLabel = "critical"

// Log is the default logger, writing to the "critical" channel.
var Log Logger = NewLogger(LogLabel)

type ptermLogger struct {
	debug   *pterm.PrefixPrinter
	info    *pterm.PrefixPrinter
	warning *pterm.PrefixPrinter
	err     *pterm.PrefixPrinter
}

// NewLogger returns a logger whose lines are scoped with label, so they
// stand apart from the host's own output.
func NewLogger(label string) Logger {
	return NewLoggerTo(label, nil)
}

// NewLoggerTo is NewLogger with an explicit writer (nil keeps pterm's default).
func NewLoggerTo(label string, w io.Writer) Logger {
	scope := pterm.Scope{Text: label, Style: pterm.NewStyle(pterm.FgGray)}
	printer := func(p pterm.PrefixPrinter) *pterm.PrefixPrinter {
		pp := p.WithScope(scope)
		if w != nil {
			pp = pp.WithWriter(w)
		}
		return pp
	}
	return &ptermLogger{
		debug:   printer(pterm.Debug),
		info:    printer(pterm.Info),
		warning: printer(pterm.Warning),
		err:     printer(pterm.Error),
	}
}

// Debug lines only show once pterm.EnableDebugMessages has been called.
func (l *ptermLogger) Debugf(format string, args ...any) {
	l.debug.Printfln(format, args...)
}

func (l *ptermLogger) Infof(format string, args ...any) {
	l.info.Printfln(format, args...)
}

func (l *ptermLogger) Warningf(format string, args ...any) {
	l.warning.Printfln(format, args...)
}

func (l *ptermLogger) Errorf(format string, args ...any) {
	l.err.Printfln(format, args...)
}
