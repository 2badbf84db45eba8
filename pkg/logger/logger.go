package logger

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Logger struct {
	zl        zerolog.Logger
	collector *LogCollector
}

type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout, stderr, or file path
	TimeFormat string
}

func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	out, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = cfg.TimeFormat
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: cfg.TimeFormat}
	}

	// four frames up from Msg: emit, the level method, then the caller
	zl := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		CallerWithSkipFrameCount(4).
		Logger()
	return &Logger{zl: zl}, nil
}

func openOutput(dest string) (io.Writer, error) {
	switch dest {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	f, err := os.OpenFile(dest, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// NewNop discards everything.
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With returns a child tagged with component. The child shares the
// parent's collector.
func (l *Logger) With(component string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", component).Logger(), collector: l.collector}
}

func (l *Logger) Debug(msg string, fields ...Field) { emit(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { emit(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { emit(l.zl.Warn(), msg, fields) }

// Error also feeds the collector, when one is attached.
func (l *Logger) Error(msg string, fields ...Field) {
	emit(l.zl.Error(), msg, fields)
	l.collect("error", msg, fields)
}

func emit(e *zerolog.Event, msg string, fields []Field) {
	if e == nil {
		return
	}
	for _, f := range fields {
		f.addTo(e)
	}
	e.Msg(msg)
}

func (l *Logger) collect(level, msg string, fields []Field) {
	if l.collector == nil {
		return
	}
	caller := "unknown"
	if _, file, line, ok := runtime.Caller(2); ok {
		file = trimToModule(file)
		caller = fmt.Sprintf("%s:%d", file, line)
	}
	kv := make(map[string]any, len(fields))
	for _, f := range fields {
		kv[f.Key] = f.plain()
	}
	l.collector.AddLog(level, msg, kv, caller)
}

// trimToModule cuts an absolute source path down to its package directory.
func trimToModule(file string) string {
	for _, root := range []string{"/internal/", "/pkg/", "/cmd/"} {
		if i := strings.LastIndex(file, root); i >= 0 {
			return file[i+1:]
		}
	}
	return file
}

// AddCollector attaches a collector, replacing and closing any previous one.
func (l *Logger) AddCollector(config *CollectionConfig) {
	if l.collector != nil {
		l.collector.Close()
	}
	l.collector = NewLogCollector(config)
}

// RemoveCollector flushes and detaches the collector.
func (l *Logger) RemoveCollector() {
	if l.collector != nil {
		l.collector.Close()
		l.collector = nil
	}
}

// Field is one structured key/value on a log line.
type Field struct {
	Key   string
	Value any
}

func (f Field) addTo(e *zerolog.Event) {
	switch v := f.Value.(type) {
	case string:
		e.Str(f.Key, v)
	case int:
		e.Int(f.Key, v)
	case int64:
		e.Int64(f.Key, v)
	case float64:
		e.Float64(f.Key, v)
	case bool:
		e.Bool(f.Key, v)
	case []string:
		e.Strs(f.Key, v)
	case error:
		e.AnErr(f.Key, v)
	default:
		e.Interface(f.Key, v)
	}
}

// plain is the JSON-friendly value kept by the collector.
func (f Field) plain() any {
	if err, ok := f.Value.(error); ok {
		return err.Error()
	}
	return f.Value
}

func String(key, value string) Field           { return Field{key, value} }
func Strings(key string, value []string) Field { return Field{key, value} }
func Int(key string, value int) Field          { return Field{key, value} }
func Int64(key string, value int64) Field      { return Field{key, value} }
func Float64(key string, value float64) Field  { return Field{key, value} }
func Any(key string, value any) Field          { return Field{key, value} }

// Error logs err under "error".
func Error(err error) Field { return Field{"error", err} }

// Duration logs d as whole milliseconds.
func Duration(key string, d time.Duration) Field { return Field{key, d.Milliseconds()} }
