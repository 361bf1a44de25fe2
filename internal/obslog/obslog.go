// Package obslog wraps stdlib log with the teacher's prefixed-line
// convention ("[GoKitt] ..." in cmd/wasm/main.go), generalized to a
// small leveled logger so every package can tag its own component
// name instead of hand-rolling fmt.Println calls.
package obslog

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
)

// Level is a logging severity, ordered lowest to highest.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

var threshold atomic.Int32

func init() {
	threshold.Store(int32(LevelInfo))
}

// SetLevel changes the minimum level written by any Logger. The
// default is LevelInfo.
func SetLevel(l Level) {
	threshold.Store(int32(l))
}

var out = log.New(os.Stderr, "", log.LstdFlags)

// SetOutput redirects every Logger's output, for tests that want to
// capture log lines.
func SetOutput(w io.Writer) {
	out.SetOutput(w)
}

// Logger emits "[osmtopo] component: [LEVEL] message" lines for one named
// component, mirroring the teacher's "[GoKitt] message" prefix but
// scoped per-package instead of one global tag.
type Logger struct {
	component string
}

// New returns a Logger tagged with component, e.g. "graph" or
// "changeset".
func New(component string) *Logger {
	return &Logger{component: component}
}

func (l *Logger) log(level Level, format string, args []any) {
	if int32(level) < threshold.Load() {
		return
	}
	prefix := "[osmtopo] " + l.component + ": "
	if len(args) == 0 {
		out.Output(3, prefix+"["+level.String()+"] "+format)
		return
	}
	out.Output(3, prefix+"["+level.String()+"] "+fmt.Sprintf(format, args...))
}

func (l *Logger) Debugf(format string, args ...any) { l.log(LevelDebug, format, args) }
func (l *Logger) Infof(format string, args ...any)  { l.log(LevelInfo, format, args) }
func (l *Logger) Warnf(format string, args ...any)  { l.log(LevelWarn, format, args) }
func (l *Logger) Errorf(format string, args ...any) { l.log(LevelError, format, args) }
