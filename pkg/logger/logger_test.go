package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{
			name:    "valid options with info level",
			opts:    Options{Level: "info"},
			wantErr: false,
		},
		{
			name:    "valid options with debug level",
			opts:    Options{Level: "debug"},
			wantErr: false,
		},
		{
			name:    "empty level defaults to info",
			opts:    Options{},
			wantErr: false,
		},
		{
			name:    "invalid log level",
			opts:    Options{Level: "invalid"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func TestNewWithFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "test.log")

	logger, err := New(Options{Level: "info", File: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("hello from the test")

	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected log file to be created: %v", err)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"fatal", zerolog.FatalLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"", zerolog.InfoLevel, false},
		{"invalid", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if level != tt.expected {
				t.Errorf("parseLogLevel() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func TestGlobalLogger(t *testing.T) {
	if err := Initialize(Options{Level: "debug"}); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	logger := GetLogger()
	if logger == nil {
		t.Fatal("GetLogger() returned nil")
	}

	// Calling GetLogger again returns the same instance.
	if GetLogger() != logger {
		t.Error("GetLogger() should return the initialized instance")
	}
}

func TestTestLoggerCapturesMessages(t *testing.T) {
	logger := NewTestLogger()

	logger.Info("first")
	logger.WithField("creator", "handle").Warn("second")
	logger.InfoWithFields("third", map[string]interface{}{"count": 3})

	messages := logger.Messages()
	if len(messages) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(messages))
	}

	if messages[0].Message != "first" || messages[0].Level != "INFO" {
		t.Errorf("Unexpected first message: %+v", messages[0])
	}

	if messages[1].Fields["creator"] != "handle" {
		t.Errorf("Expected creator field on second message, got %v", messages[1].Fields)
	}

	if messages[2].Fields["count"] != 3 {
		t.Errorf("Expected count field on third message, got %v", messages[2].Fields)
	}

	if !logger.HasMessage("second") {
		t.Error("Expected HasMessage to find the warning")
	}

	if len(logger.MessagesByLevel("WARN")) != 1 {
		t.Error("Expected exactly one warning")
	}
}

func TestTestLoggerDerivedLoggersShareCapture(t *testing.T) {
	logger := NewTestLogger()

	derived := logger.WithField("component", "pool")
	derived.Error("boom")

	messages := logger.Messages()
	if len(messages) != 1 {
		t.Fatalf("Expected derived message in parent buffer, got %d messages", len(messages))
	}
	if messages[0].Fields["component"] != "pool" {
		t.Errorf("Expected component field, got %v", messages[0].Fields)
	}

	logger.Clear()
	if len(logger.Messages()) != 0 {
		t.Error("Expected Clear to empty the buffer")
	}
}
