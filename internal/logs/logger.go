package logs

import (
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level string

const (
	INFO  Level = "INFO"
	WARN  Level = "WARN"
	ERROR Level = "ERROR"
	DEBUG Level = "DEBUG"
)

// zapLevels maps our levels onto zap's.
var zapLevels = map[Level]zapcore.Level{
	DEBUG: zapcore.DebugLevel,
	INFO:  zapcore.InfoLevel,
	WARN:  zapcore.WarnLevel,
	ERROR: zapcore.ErrorLevel,
}

// ParseLevel accepts level names in any case ("info", "WARN", ...).
func ParseLevel(s string) (Level, error) {
	level := Level(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := zapLevels[level]; !ok {
		return "", errors.Errorf("unknown log level %q", s)
	}
	return level, nil
}

func fromZapLevel(l zapcore.Level) Level {
	switch {
	case l <= zapcore.DebugLevel:
		return DEBUG
	case l == zapcore.InfoLevel:
		return INFO
	case l == zapcore.WarnLevel:
		return WARN
	default:
		return ERROR
	}
}

type Entry struct {
	TimeStamp time.Time      `json:"timestamp"`
	Level     Level          `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Logger is a zap logger that also keeps the most recent entries in
// memory, so the health analyzer and admin APIs can inspect them.
type Logger struct {
	zap  *zap.Logger
	ring *ring
}

// NewLogger builds a Logger.
//
// level: minimum log level to record (DEBUG, INFO, WARN, ERROR)
//
// maxSize: maximum number of log entries kept in memory
//
// sinks: optional writers that also receive every entry as JSON
func NewLogger(maxSize int, level Level, sinks ...zapcore.WriteSyncer) *Logger {
	enabler, ok := zapLevels[level]
	if !ok {
		enabler = zapcore.InfoLevel
	}

	r := &ring{
		entries: make([]Entry, 0, maxSize),
		maxSize: maxSize,
	}
	var core zapcore.Core = &ringCore{LevelEnabler: enabler, ring: r}
	if len(sinks) > 0 {
		core = zapcore.NewTee(core, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.NewMultiWriteSyncer(sinks...),
			enabler,
		))
	}

	return &Logger{zap: zap.New(core), ring: r}
}

// With returns a child Logger that adds fields to every entry. The child
// shares the in-memory buffer with its parent.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{zap: l.zap.With(fields...), ring: l.ring}
}

// Zap exposes the underlying zap logger.
func (l *Logger) Zap() *zap.Logger {
	return l.zap
}

func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.zap.Debug(msg, fields...)
}

func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.zap.Info(msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.zap.Warn(msg, fields...)
}

func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.zap.Error(msg, fields...)
}

func (l *Logger) Sync() error {
	return l.zap.Sync()
}

// GetLast returns up to n of the most recent entries, oldest first.
func (l *Logger) GetLast(n int) []Entry {
	return l.ring.last(n)
}

/* ---------------- in-memory buffer ---------------- */

type ring struct {
	mu      sync.Mutex
	entries []Entry
	maxSize int
}

func (r *ring) add(e Entry) {
	if r.maxSize <= 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) >= r.maxSize {
		//remove oldest entry(ring behavior)
		r.entries = r.entries[1:]
	}
	r.entries = append(r.entries, e)
}

func (r *ring) last(n int) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n > len(r.entries) {
		n = len(r.entries)
	}
	if n <= 0 {
		return []Entry{}
	}

	start := len(r.entries) - n
	out := make([]Entry, n)
	copy(out, r.entries[start:])
	return out
}

// ringCore is a zapcore.Core that appends entries to a ring.
type ringCore struct {
	zapcore.LevelEnabler
	fields []zapcore.Field
	ring   *ring
}

func (c *ringCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &ringCore{LevelEnabler: c.LevelEnabler, fields: merged, ring: c.ring}
}

func (c *ringCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(e.Level) {
		return ce.AddCore(e, c)
	}
	return ce
}

func (c *ringCore) Write(e zapcore.Entry, fields []zapcore.Field) error {
	var encoded map[string]any
	if len(c.fields)+len(fields) > 0 {
		enc := zapcore.NewMapObjectEncoder()
		for _, f := range c.fields {
			f.AddTo(enc)
		}
		for _, f := range fields {
			f.AddTo(enc)
		}
		encoded = enc.Fields
	}

	c.ring.add(Entry{
		TimeStamp: e.Time,
		Level:     fromZapLevel(e.Level),
		Message:   e.Message,
		Fields:    encoded,
	})
	return nil
}

func (c *ringCore) Sync() error {
	return nil
}
