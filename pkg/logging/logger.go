// Package logging provides structured debug logging for surf components.
// Both the daemon and the client write to a session-specific file under
// ~/.surf/logs/ so interleaved runs stay separable; if the file cannot be
// opened the logger falls back to stderr rather than failing the caller.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Logger writes timestamped, component-tagged entries. All levels write
// unconditionally; there is no level filtering.
type Logger struct {
	sessionID string
	component string
	file      *os.File
	logger    *log.Logger
	logPath   string
	mu        sync.Mutex
	closeOnce sync.Once
}

var (
	sessionID     string
	sessionIDOnce sync.Once

	logDir  string
	dirOnce sync.Once
	dirErr  error
)

func currentSessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

func ensureLogDir() error {
	dirOnce.Do(func() {
		home, err := os.UserHomeDir()
		if err != nil {
			dirErr = fmt.Errorf("failed to resolve home directory: %w", err)
			return
		}
		logDir = filepath.Join(home, ".surf", "logs")
		if err := os.MkdirAll(logDir, 0o750); err != nil {
			dirErr = fmt.Errorf("failed to create log directory: %w", err)
		}
	})
	return dirErr
}

// NewLogger creates a logger for one component, writing to
// ~/.surf/logs/<session-id>-surf.log. On failure it returns a stderr
// fallback logger along with the error so callers can detect fallback mode.
func NewLogger(component string) (*Logger, error) {
	if err := ensureLogDir(); err != nil {
		return fallbackLogger(component, err), err
	}

	sessID := currentSessionID()
	logPath := filepath.Join(logDir, sessID+"-surf.log")

	// Append mode: daemon components share one file per session.
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		err = fmt.Errorf("failed to open log file: %w", err)
		return fallbackLogger(component, err), err
	}

	return &Logger{
		sessionID: sessID,
		component: component,
		file:      file,
		logger:    log.New(file, "", 0),
		logPath:   logPath,
	}, nil
}

func fallbackLogger(component string, err error) *Logger {
	logger := log.New(os.Stderr, fmt.Sprintf("[%s] ", component), log.LstdFlags)
	logger.Printf("file logging unavailable, using stderr: %v", err)
	return &Logger{
		sessionID: currentSessionID(),
		component: component,
		logger:    logger,
	}
}

func (l *Logger) write(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	l.logger.Printf("[%s] [%s] [%s] %s", timestamp, l.component, level, fmt.Sprintf(format, args...))
}

// Debugf logs a debug-level message.
func (l *Logger) Debugf(format string, args ...any) { l.write("DEBUG", format, args...) }

// Infof logs an info-level message.
func (l *Logger) Infof(format string, args ...any) { l.write("INFO", format, args...) }

// Warnf logs a warning-level message.
func (l *Logger) Warnf(format string, args ...any) { l.write("WARN", format, args...) }

// Errorf logs an error-level message.
func (l *Logger) Errorf(format string, args ...any) { l.write("ERROR", format, args...) }

// Writer returns the underlying log destination.
func (l *Logger) Writer() io.Writer {
	if l.file != nil {
		return l.file
	}
	return os.Stderr
}

// SessionID returns the process-wide logging session ID.
func (l *Logger) SessionID() string { return l.sessionID }

// LogPath returns the log file path, empty in fallback mode.
func (l *Logger) LogPath() string { return l.logPath }

// Close closes the log file. Safe to call more than once.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}
