package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Outcome codes.
const (
	OutcomeSuccess  = "SUCCESS"
	OutcomeRejected = "REJECTED"
	OutcomeSkipped  = "SKIPPED"
	OutcomeError    = "ERROR"
)

// Rotation defaults.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 5
	DefaultMaxAgeDays = 30
)

// Entry is a single audit record.
type Entry struct {
	Timestamp    time.Time              `json:"ts"`
	User         string                 `json:"user"`
	Receiver     int                    `json:"receiver"`
	ReceiverName string                 `json:"receiverName,omitempty"`
	Action       string                 `json:"action"`
	Params       map[string]interface{} `json:"params"`
	Outcome      string                 `json:"outcome"`
	Code         string                 `json:"code"`
	LatencyMs    int64                  `json:"latencyMs"`
}

// Logger writes audit entries.
type Logger struct {
	mu       sync.Mutex
	filePath string
	out      *lumberjack.Logger
}

// NewLogger creates an audit logger writing to logDir/audit.jsonl.
func NewLogger(logDir string) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filePath := filepath.Join(logDir, "audit.jsonl")
	return &Logger{
		filePath: filePath,
		out: &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    DefaultMaxSizeMB,
			MaxBackups: DefaultMaxBackups,
			MaxAge:     DefaultMaxAgeDays,
			Compress:   true,
		},
	}, nil
}

type userKey struct{}

// WithUser attaches the authenticated user to ctx.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFromContext returns the user attached by WithUser, or "local".
func UserFromContext(ctx context.Context) string {
	if user, ok := ctx.Value(userKey{}).(string); ok && user != "" {
		return user
	}
	return "local"
}

// LogCommand records one dispatched command.
func (l *Logger) LogCommand(ctx context.Context, index int, receiverName, action string, params map[string]interface{}, outcome string, err error, latency time.Duration) {
	if params == nil {
		params = make(map[string]interface{})
	}
	entry := Entry{
		Timestamp:    time.Now().UTC(),
		User:         UserFromContext(ctx),
		Receiver:     index,
		ReceiverName: receiverName,
		Action:       action,
		Params:       params,
		Outcome:      outcome,
		Code:         codeFromError(err),
		LatencyMs:    latency.Milliseconds(),
	}
	l.writeEntry(entry)
}

func (l *Logger) writeEntry(entry Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.out == nil {
		return
	}

	jsonData, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to marshal audit entry: %v\n", err)
		return
	}
	if _, err := l.out.Write(append(jsonData, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write audit entry: %v\n", err)
	}
}

// codeFromError maps an error to the code of its innermost sentinel.
func codeFromError(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

// Close closes the current file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.out != nil {
		err := l.out.Close()
		l.out = nil
		return err
	}
	return nil
}

// GetFilePath returns the path of the current audit file.
func (l *Logger) GetFilePath() string {
	return l.filePath
}

// Rotate starts a new file and keeps the old one as a backup.
func (l *Logger) Rotate() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.out == nil {
		return fmt.Errorf("audit logger is closed")
	}
	return l.out.Rotate()
}
