package logger

import (
	"sync"

	"github.com/rs/zerolog"
)

// LogMessage is one captured log entry.
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
	Err     error
}

type testLogCore struct {
	mu       sync.Mutex
	messages []LogMessage
}

// TestLogger captures log messages for assertions instead of writing them.
// Derived loggers from WithField and friends share the same capture buffer.
type TestLogger struct {
	core    *testLogCore
	fields  map[string]interface{}
	err     error
	zerolog *zerolog.Logger
}

// NewTestLogger creates a new test logger
func NewTestLogger() *TestLogger {
	nop := zerolog.Nop()
	return &TestLogger{
		core:    &testLogCore{},
		zerolog: &nop,
	}
}

func (l *TestLogger) log(level, msg string, fields map[string]interface{}) {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.messages = append(l.core.messages, LogMessage{
		Level:   level,
		Message: msg,
		Fields:  merged,
		Err:     l.err,
	})
}

func (l *TestLogger) Debug(msg string) { l.log("DEBUG", msg, nil) }
func (l *TestLogger) Info(msg string)  { l.log("INFO", msg, nil) }
func (l *TestLogger) Warn(msg string)  { l.log("WARN", msg, nil) }
func (l *TestLogger) Error(msg string) { l.log("ERROR", msg, nil) }
func (l *TestLogger) Fatal(msg string) { l.log("FATAL", msg, nil) }

func (l *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.log("DEBUG", msg, fields)
}

func (l *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.log("INFO", msg, fields)
}

func (l *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.log("WARN", msg, fields)
}

func (l *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.log("ERROR", msg, fields)
}

func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &TestLogger{core: l.core, fields: merged, err: l.err, zerolog: l.zerolog}
}

func (l *TestLogger) WithError(err error) Logger {
	return &TestLogger{core: l.core, fields: l.fields, err: err, zerolog: l.zerolog}
}

func (l *TestLogger) GetZerolog() *zerolog.Logger {
	return l.zerolog
}

// Messages returns a copy of all captured log messages.
func (l *TestLogger) Messages() []LogMessage {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()

	messages := make([]LogMessage, len(l.core.messages))
	copy(messages, l.core.messages)
	return messages
}

// MessagesByLevel returns all captured messages of one level.
func (l *TestLogger) MessagesByLevel(level string) []LogMessage {
	var filtered []LogMessage
	for _, msg := range l.Messages() {
		if msg.Level == level {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

// HasMessage checks if a message with the given text was logged.
func (l *TestLogger) HasMessage(text string) bool {
	for _, msg := range l.Messages() {
		if msg.Message == text {
			return true
		}
	}
	return false
}

// Clear discards all captured messages.
func (l *TestLogger) Clear() {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.messages = l.core.messages[:0]
}
