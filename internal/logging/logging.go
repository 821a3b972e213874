package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

func (l Level) String() string {
	if n, ok := levelNames[l]; ok {
		return n
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel maps a level name to a Level. The empty string means info.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Logger writes one JSON object per line. Loggers derived with WithFields
// share the writer, lock and level of the process-wide logger.
type Logger struct {
	mu    *sync.Mutex
	out   io.Writer
	level *Level
	base  map[string]interface{}
}

var (
	defaultMu     sync.Mutex
	defaultLogger *Logger
)

func Init(w io.Writer, lvl Level, baseFields map[string]interface{}) {
	if w == nil {
		w = os.Stderr
	}
	l := lvl
	defaultMu.Lock()
	defaultLogger = &Logger{
		mu:    &sync.Mutex{},
		out:   w,
		level: &l,
		base:  copyMap(baseFields),
	}
	defaultMu.Unlock()
}

func current() *Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		l := LevelInfo
		defaultLogger = &Logger{mu: &sync.Mutex{}, out: os.Stderr, level: &l}
	}
	return defaultLogger
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	nm := make(map[string]interface{}, len(m))
	for k, v := range m {
		nm[k] = v
	}
	return nm
}

// WithFields returns a logger that adds fields to every entry it writes.
func WithFields(fields map[string]interface{}) *Logger {
	return current().With(fields)
}

func (l *Logger) With(fields map[string]interface{}) *Logger {
	nl := &Logger{
		mu:    l.mu,
		out:   l.out,
		level: l.level,
		base:  copyMap(l.base),
	}
	if len(fields) > 0 {
		if nl.base == nil {
			nl.base = make(map[string]interface{}, len(fields))
		}
		for k, v := range fields {
			nl.base[k] = v
		}
	}
	return nl
}

func (l *Logger) log(lvl Level, msg string, extra map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lvl < *l.level {
		return
	}
	entry := make(map[string]interface{}, 4+len(l.base)+len(extra))
	for k, v := range l.base {
		entry[k] = v
	}
	for k, v := range extra {
		entry[k] = v
	}
	entry["ts"] = time.Now().Format(time.RFC3339Nano)
	entry["lvl"] = lvl.String()
	entry["msg"] = msg
	b, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(l.out, "%s %s %s\n", time.Now().Format(time.RFC3339Nano), lvl, msg)
		return
	}
	l.out.Write(append(b, '\n'))
}

func (l *Logger) Debug(msg string, extra map[string]interface{}) { l.log(LevelDebug, msg, extra) }
func (l *Logger) Info(msg string, extra map[string]interface{})  { l.log(LevelInfo, msg, extra) }
func (l *Logger) Warn(msg string, extra map[string]interface{})  { l.log(LevelWarn, msg, extra) }
func (l *Logger) Error(msg string, extra map[string]interface{}) { l.log(LevelError, msg, extra) }

// Top-level convenience wrappers
func Debug(msg string, extra map[string]interface{}) { current().Debug(msg, extra) }
func Info(msg string, extra map[string]interface{})  { current().Info(msg, extra) }
func Warn(msg string, extra map[string]interface{})  { current().Warn(msg, extra) }
func Error(msg string, extra map[string]interface{}) { current().Error(msg, extra) }

func SetLevel(lvl Level) {
	l := current()
	l.mu.Lock()
	*l.level = lvl
	l.mu.Unlock()
}
