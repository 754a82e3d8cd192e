package convlog

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	RoleCustomer = "CLIENTE"
	RoleAgent    = "AGENTE"
)

// Logger appends one line per message to a plain-text transcript:
//
//	[2026-10-19 14:05] CLIENTE - Ana Torres: pago el viernes
type Logger struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func New(path string) *Logger {
	return &Logger{path: path, now: time.Now}
}

// WithClock replaces the timestamp source.
func (l *Logger) WithClock(now func() time.Time) *Logger {
	l.now = now
	return l
}

func (l *Logger) Log(role, customer, message string) error {
	line := fmt.Sprintf("[%s] %s - %s: %s\n",
		l.now().Format("2006-01-02 15:04"), role, customer, strings.ReplaceAll(message, "\n", " "))

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open conversation log: %w", err)
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return fmt.Errorf("write conversation log: %w", err)
	}
	return f.Close()
}
