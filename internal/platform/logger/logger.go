package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Field is a key-value pair attached to a log entry.
type Field struct {
	Key   string
	Value string
}

func F(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "<nil>"}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Logger writes timestamped key=value lines. Zero configuration; callers in
// tests pass New(io.Discard) or inspect the writer.
type Logger struct {
	out *log.Logger
}

func New(w io.Writer) *Logger {
	return &Logger{out: log.New(w, "", 0)}
}

func Default() *Logger {
	return New(os.Stderr)
}

func (l *Logger) Debug(msg string, fields ...Field) { l.write(LevelDebug, msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.write(LevelInfo, msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.write(LevelWarn, msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.write(LevelError, msg, fields) }

func (l *Logger) write(level Level, msg string, fields []Field) {
	entry := fmt.Sprintf("%s [%s] %s", time.Now().UTC().Format(time.RFC3339), level, msg)
	for _, f := range fields {
		entry += " " + f.Key + "=" + f.Value
	}
	l.out.Println(entry)
}
