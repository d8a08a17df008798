package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Logger writes one JSON object per line. Every entry carries "ts" in the configured location and a
// "level" derived from "status" when the caller does not set one explicitly.
// It is safe for concurrent use.
type Logger struct {
	mu  sync.Mutex
	out io.Writer
	loc *time.Location
	now func() time.Time
}

// New creates a Logger writing to w with timestamps rendered in loc (UTC when nil).
func New(w io.Writer, loc *time.Location) *Logger {
	if w == nil {
		w = os.Stdout
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Logger{out: w, loc: loc, now: time.Now}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return New(io.Discard, time.UTC)
}

// Log writes a raw entry. The map is modified in place.
func (l *Logger) Log(data map[string]any) {
	if l == nil {
		return
	}
	data["ts"] = l.now().In(l.loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		b = []byte(fmt.Sprintf(`{"level":"error","msg":"failed to marshal log entry","error":%q}`, err.Error()))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.out.Write(append(b, '\n'))
}

// Info logs a component event at info level.
func (l *Logger) Info(component, event string, fields map[string]any) {
	l.Log(entry("info", component, event, fields))
}

// Warn logs a component event at warn level.
func (l *Logger) Warn(component, event string, fields map[string]any) {
	l.Log(entry("warn", component, event, fields))
}

// Error logs a component event at error level with the error message under "error_message".
func (l *Logger) Error(component, event string, err error, fields map[string]any) {
	e := entry("error", component, event, fields)
	e["status"] = "error"
	if err != nil {
		e["error_message"] = err.Error()
	}
	l.Log(e)
}

func entry(level, component, event string, fields map[string]any) map[string]any {
	e := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		e[k] = v
	}
	e["level"] = level
	e["component"] = component
	e["event"] = event
	return e
}
