package hdeye

import (
	"io"
	"log"
	"os"
	"sync"
)

// Logger receives non-fatal diagnostics, such as option values the generator
// does not recognize and therefore omits from the output.
type Logger interface {
	DebugEnabled() bool
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// stdlog routes levels to a pair of standard library loggers.
// Its debug flag is fixed at construction so it needs no locking.
type stdlog struct {
	debug    bool
	out, err *log.Logger
}

// NewDefaultLogger returns a logger writing debug and informational messages
// to stdout and warnings and errors to stderr.
func NewDefaultLogger(prefix string, debug bool) Logger {
	flags := log.LstdFlags | log.Lmicroseconds | log.Lmsgprefix
	return &stdlog{
		debug: debug,
		out:   log.New(os.Stdout, bracket(prefix), flags),
		err:   log.New(os.Stderr, bracket(prefix), flags),
	}
}

// NewWriterLogger returns a logger writing every level to w without timestamps.
func NewWriterLogger(w io.Writer, prefix string, debug bool) Logger {
	l := log.New(w, bracket(prefix), 0)
	return &stdlog{debug: debug, out: l, err: l}
}

func bracket(prefix string) string {
	if prefix == "" {
		return ""
	}
	return "[" + prefix + "] "
}

func (l *stdlog) DebugEnabled() bool { return l.debug }

func (l *stdlog) Debugf(format string, args ...any) {
	if l.debug {
		l.out.Printf("DEBUG: "+format, args...)
	}
}

func (l *stdlog) Infof(format string, args ...any)  { l.out.Printf("INFO: "+format, args...) }
func (l *stdlog) Warnf(format string, args ...any)  { l.err.Printf("WARN: "+format, args...) }
func (l *stdlog) Errorf(format string, args ...any) { l.err.Printf("ERROR: "+format, args...) }

type nopLogger struct{}

func (nopLogger) DebugEnabled() bool    { return false }
func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// NopLogger returns a Logger that discards all messages.
func NopLogger() Logger { return nopLogger{} }

var stdLogger = sync.OnceValue(func() Logger {
	return NewDefaultLogger("hdeye", false)
})
