// Package logger provides a dual-output logger: a terminal logger on stderr
// filtered at the configured level, and a logfmt run log written at debug
// level to a timestamped file.
package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// Logger writes to the terminal and, when a log directory is given, to a run log file.
type Logger struct {
	term *log.Logger
	file *log.Logger
	f    *os.File
}

// New creates a logger that writes to stderr at level and to <logsDir>/run-<ts>.log.
// An empty logsDir disables the file output.
func New(logsDir string, level log.Level) (*Logger, error) {
	return newLogger(os.Stderr, logsDir, level)
}

func newLogger(w io.Writer, logsDir string, level log.Level) (*Logger, error) {
	l := &Logger{
		term: log.NewWithOptions(w, log.Options{
			Prefix: "kb-yarn",
			Level:  level,
		}),
	}
	if logsDir == "" {
		return l, nil
	}

	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create logs dir: %w", err)
	}

	ts := time.Now().Format("20060102-150405.000")
	logPath := filepath.Join(logsDir, fmt.Sprintf("run-%s.log", ts))

	f, err := os.Create(logPath)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	l.f = f
	l.file = log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           log.DebugLevel,
		Formatter:       log.LogfmtFormatter,
	})
	return l, nil
}

// NewDiscard returns a logger that drops everything (used by tests and library callers).
func NewDiscard() *Logger {
	return &Logger{term: log.New(io.Discard)}
}

// ParseLevel maps a level name ("debug", "info", "warn", "error") to a log.Level.
// Empty input means warn.
func ParseLevel(s string) (log.Level, error) {
	if s == "" {
		return log.WarnLevel, nil
	}
	lvl, err := log.ParseLevel(s)
	if err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, err)
	}
	return lvl, nil
}

// LogPath returns the path of the current log file, or empty string if there is none.
func (l *Logger) LogPath() string {
	if l.f == nil {
		return ""
	}
	return l.f.Name()
}

// Debug logs msg with key/value pairs at debug level.
func (l *Logger) Debug(msg string, keyvals ...any) {
	l.term.Debug(msg, keyvals...)
	if l.file != nil {
		l.file.Debug(msg, keyvals...)
	}
}

// Info logs msg with key/value pairs at info level.
func (l *Logger) Info(msg string, keyvals ...any) {
	l.term.Info(msg, keyvals...)
	if l.file != nil {
		l.file.Info(msg, keyvals...)
	}
}

// Warn logs msg with key/value pairs at warn level.
func (l *Logger) Warn(msg string, keyvals ...any) {
	l.term.Warn(msg, keyvals...)
	if l.file != nil {
		l.file.Warn(msg, keyvals...)
	}
}

// Error logs msg with key/value pairs at error level.
func (l *Logger) Error(msg string, keyvals ...any) {
	l.term.Error(msg, keyvals...)
	if l.file != nil {
		l.file.Error(msg, keyvals...)
	}
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	if l.f != nil {
		return l.f.Close()
	}
	return nil
}

// LatestLogPath returns the path to the most recent run log in logsDir.
// Returns "" if no logs exist.
func LatestLogPath(logsDir string) string {
	logs := runLogs(logsDir)
	if len(logs) == 0 {
		return ""
	}
	return logs[len(logs)-1]
}

// Prune removes the oldest run logs in logsDir so that at most keep remain.
// A missing directory is not an error.
func Prune(logsDir string, keep int) error {
	logs := runLogs(logsDir)
	if keep < 0 {
		keep = 0
	}
	var errs []error
	for len(logs) > keep {
		if err := os.Remove(logs[0]); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
		logs = logs[1:]
	}
	return errors.Join(errs...)
}

// runLogs lists .log files in logsDir, oldest first.
func runLogs(logsDir string) []string {
	entries, err := os.ReadDir(logsDir)
	if err != nil {
		return nil
	}
	// ReadDir returns sorted by name; run-<ts> logs sort chronologically.
	var out []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".log" {
			out = append(out, filepath.Join(logsDir, e.Name()))
		}
	}
	return out
}
