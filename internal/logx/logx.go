// Package logx is a small leveled logger for cmd/poolctl. The pool
// package itself never imports this — a library has no business writing
// to stdout on its own behalf.
package logx

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
)

// Level is a logging severity.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Format selects the logger's output encoding.
type Format int

const (
	Text Format = iota
	JSON
)

// Logger writes leveled, optionally colored or JSON-encoded log lines.
type Logger struct {
	out    io.Writer
	level  Level
	format Format
}

// Config configures a Logger via Configure.
type Config struct {
	Level  Level
	Format Format
}

var (
	defaultLogger = &Logger{out: os.Stdout, level: Info, format: Text}

	debugColor = color.New(color.FgCyan)
	infoColor  = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed)
)

// Configure replaces the package-level default logger's settings.
func Configure(cfg Config) {
	defaultLogger.level = cfg.Level
	defaultLogger.format = cfg.Format
}

type logEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Pool      string `json:"pool,omitempty"`
}

func (l *Logger) log(level Level, pool, msg string) {
	if level < l.level {
		return
	}

	ts := time.Now().Format("2006/01/02 15:04:05")

	if l.format == JSON {
		_ = json.NewEncoder(l.out).Encode(logEntry{
			Timestamp: ts,
			Level:     level.String(),
			Message:   msg,
			Pool:      pool,
		})
		return
	}

	var levelColor *color.Color
	switch level {
	case Debug:
		levelColor = debugColor
	case Info:
		levelColor = infoColor
	case Warn:
		levelColor = warnColor
	case Error:
		levelColor = errorColor
	}

	levelStr := levelColor.Sprintf("%-5s", level.String())
	if pool != "" {
		fmt.Fprintf(l.out, "%s %s [%s]: %s\n", ts, levelStr, pool, msg)
		return
	}
	fmt.Fprintf(l.out, "%s %s: %s\n", ts, levelStr, msg)
}

func (l *Logger) Debug(msg string, args ...any) { l.log(Debug, "", fmt.Sprintf(msg, args...)) }
func (l *Logger) Info(msg string, args ...any)  { l.log(Info, "", fmt.Sprintf(msg, args...)) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(Warn, "", fmt.Sprintf(msg, args...)) }

func (l *Logger) Errorf(err error, msg string, args ...any) {
	l.log(Error, "", fmt.Sprintf(msg, args...)+": "+err.Error())
}

// PoolEvent logs a pool-scoped line (job dispatched, worker retired,
// restart check ran) tagging it with the pool's name.
func (l *Logger) PoolEvent(pool, msg string, args ...any) {
	l.log(Info, pool, fmt.Sprintf(msg, args...))
}

func Debug(msg string, args ...any)              { defaultLogger.Debug(msg, args...) }
func Info(msg string, args ...any)                { defaultLogger.Info(msg, args...) }
func Warn(msg string, args ...any)                { defaultLogger.Warn(msg, args...) }
func Errorf(err error, msg string, args ...any)   { defaultLogger.Errorf(err, msg, args...) }
func PoolEvent(pool, msg string, args ...any)     { defaultLogger.PoolEvent(pool, msg, args...) }
