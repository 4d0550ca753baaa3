package dlog

import (
	"io"
	"log"
	"os"
)

// Logger wraps the standard library logger. Debug output is only
// compiled in when building with the debug tag.
type Logger struct {
	*log.Logger
}

type LoggerOption struct {
	f func(*Logger)
}

func NewLogger(options ...LoggerOption) *Logger {
	l := &Logger{log.New(os.Stderr, "", log.LstdFlags)}

	for _, option := range options {
		option.f(l)
	}

	return l
}

// A Logger writing nowhere. Handy in tests.
func Discard() *Logger {
	return NewLogger(LoggerSetOutput(io.Discard))
}

func LoggerSetOutput(w io.Writer) LoggerOption {
	return LoggerOption{
		func(l *Logger) {
			l.SetOutput(w)
		},
	}
}

func LoggerSetPrefix(p string) LoggerOption {
	return LoggerOption{
		func(l *Logger) {
			l.SetPrefix(p)
		},
	}
}

func LoggerSetFlags(flag int) LoggerOption {
	return LoggerOption{
		func(l *Logger) {
			l.SetFlags(flag)
		},
	}
}
