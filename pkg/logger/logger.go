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

// Logger is a thin zerolog wrapper with typed fields and an optional
// error digest that forwards repeated failures to a publisher.
type Logger struct {
	zl     zerolog.Logger
	digest *Digest
}

// Config selects level, encoding and sink. Output is "stdout", "stderr"
// or a file path opened for append.
type Config struct {
	Level      string
	Format     string
	Output     string
	TimeFormat string
}

func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}
	w, err := sink(cfg.Output)
	if err != nil {
		return nil, err
	}

	tf := cfg.TimeFormat
	if tf == "" {
		tf = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = tf
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: tf}
	}

	// skip emit, the level method and the Logger frame
	zl := zerolog.New(w).Level(level).With().Timestamp().CallerWithSkipFrameCount(3).Logger()
	return &Logger{zl: zl}, nil
}

// NewWriter logs JSON to w at level, for tests and embedding.
func NewWriter(w io.Writer, level zerolog.Level) *Logger {
	return &Logger{zl: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

func sink(out string) (io.Writer, error) {
	switch out {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	f, err := os.OpenFile(out, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// Nop returns a logger that discards everything. Used by tests and by
// components constructed without a logger.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With returns a child logger tagged with a component name. The digest is shared.
func (l *Logger) With(component string) *Logger {
	return &Logger{
		zl:     l.zl.With().Str("component", component).Logger(),
		digest: l.digest,
	}
}

func (l *Logger) Info(msg string, fields ...Field) {
	l.emit(l.zl.Info(), msg, fields)
}

func (l *Logger) Debug(msg string, fields ...Field) {
	l.emit(l.zl.Debug(), msg, fields)
}

func (l *Logger) Warn(msg string, fields ...Field) {
	l.emit(l.zl.Warn(), msg, fields)
}

func (l *Logger) Error(msg string, fields ...Field) {
	l.emit(l.zl.Error(), msg, fields)
	l.addToDigest("error", msg, fields)
}

func (l *Logger) emit(e *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		f.apply(e)
	}
	e.Msg(msg)
}

func (l *Logger) addToDigest(level, msg string, fields []Field) {
	if l.digest == nil {
		return
	}

	// skip: addToDigest -> Error -> caller
	caller := "unknown"
	if _, file, line, ok := runtime.Caller(2); ok {
		parts := strings.Split(file, "Sentinel")
		caller = fmt.Sprintf("%s:%d", parts[len(parts)-1], line)
	}

	values := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		values[f.key] = f.value()
	}

	l.digest.Add(level, msg, values, caller)
}

// AttachDigest starts aggregating error logs. Any previous digest is closed.
func (l *Logger) AttachDigest(cfg *DigestConfig) {
	if l.digest != nil {
		l.digest.Close()
	}
	l.digest = NewDigest(cfg)
}

// DetachDigest flushes and stops the digest.
func (l *Logger) DetachDigest() {
	if l.digest != nil {
		l.digest.Close()
		l.digest = nil
	}
}

type kind uint8

const (
	kindString kind = iota
	kindInt64
	kindFloat
	kindBool
	kindError
	kindAny
)

// Field is one typed key/value pair. Build it with the constructors below.
type Field struct {
	key  string
	kind kind
	str  string
	num  int64
	flt  float64
	val  interface{}
}

func (f Field) apply(e *zerolog.Event) {
	switch f.kind {
	case kindString:
		e.Str(f.key, f.str)
	case kindInt64:
		e.Int64(f.key, f.num)
	case kindFloat:
		e.Float64(f.key, f.flt)
	case kindBool:
		e.Bool(f.key, f.num == 1)
	case kindError:
		if err, _ := f.val.(error); err != nil {
			e.Err(err)
		}
	default:
		e.Interface(f.key, f.val)
	}
}

// value is the plain form stored in digests.
func (f Field) value() interface{} {
	switch f.kind {
	case kindString:
		return f.str
	case kindInt64:
		return f.num
	case kindFloat:
		return f.flt
	case kindBool:
		return f.num == 1
	case kindError:
		if err, _ := f.val.(error); err != nil {
			return err.Error()
		}
		return nil
	}
	return f.val
}

func String(key, value string) Field { return Field{key: key, kind: kindString, str: value} }

func Int(key string, value int) Field { return Int64(key, int64(value)) }

func Int64(key string, value int64) Field { return Field{key: key, kind: kindInt64, num: value} }

func Float64(key string, value float64) Field { return Field{key: key, kind: kindFloat, flt: value} }

func Bool(key string, value bool) Field {
	f := Field{key: key, kind: kindBool}
	if value {
		f.num = 1
	}
	return f
}

func Error(err error) Field { return Field{key: "error", kind: kindError, val: err} }

func Any(key string, value interface{}) Field { return Field{key: key, kind: kindAny, val: value} }

// Duration logs whole milliseconds.
func Duration(key string, value time.Duration) Field { return Int64(key, value.Milliseconds()) }

// Strings logs a comma-joined list.
func Strings(key string, value []string) Field { return String(key, strings.Join(value, ",")) }
