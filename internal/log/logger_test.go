package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/felixgeelhaar/stagehand/internal/errors"
)

func newBufferLogger(level Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:     level,
		Format:    FormatJSON,
		Output:    NewOutput(&buf),
		Component: "test",
	})
	return logger, &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	line := strings.TrimSpace(buf.String())
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("failed to decode log line %q: %v", line, err)
	}
	return entry
}

func TestLoggerLevels(t *testing.T) {
	logger, buf := newBufferLogger(LevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	if buf.Len() != 0 {
		t.Fatalf("messages below warn should be dropped, got %q", buf.String())
	}

	logger.Warn("warn message", "phase_id", "1_1")
	entry := decodeLine(t, buf)
	if entry["msg"] != "warn message" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["phase_id"] != "1_1" {
		t.Errorf("phase_id = %v", entry["phase_id"])
	}
	if entry["component"] != "test" {
		t.Errorf("component = %v", entry["component"])
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Format: FormatText, Output: NewOutput(&buf)})

	logger.Info("hello", "stage", 2)
	out := buf.String()
	if !strings.Contains(out, "msg=hello") || !strings.Contains(out, "stage=2") {
		t.Errorf("unexpected text output: %q", out)
	}
}

func TestWithAndGroup(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug)

	logger.With("build_id", "b-1").WithGroup("phase").Info("materialized", "id", "1_2")
	entry := decodeLine(t, buf)

	if entry["build_id"] != "b-1" {
		t.Errorf("build_id = %v", entry["build_id"])
	}
	group, ok := entry["phase"].(map[string]any)
	if !ok || group["id"] != "1_2" {
		t.Errorf("phase group = %v", entry["phase"])
	}
}

func TestWithErrorPipelineError(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug)

	cause := errors.NewShellAfterBuildError("echo hi")
	err := fmt.Errorf("stage 1: %w", errors.NewCallbackFailureError("1_1", "execution", cause))
	logger.WithError(err).Error("dry run failed")

	entry := decodeLine(t, buf)
	if entry["error_code"] != string(errors.ErrCodeCallbackFailure) {
		t.Errorf("error_code = %v", entry["error_code"])
	}
	if !strings.Contains(fmt.Sprint(entry["cause"]), "SCRIPT-002") {
		t.Errorf("cause = %v", entry["cause"])
	}
}

func TestWithErrorPlain(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug)

	if logger.WithError(nil) != logger {
		t.Error("WithError(nil) should return the same logger")
	}

	logger.WithError(fmt.Errorf("boom")).Warn("something")
	entry := decodeLine(t, buf)
	if entry["error"] != "boom" {
		t.Errorf("error = %v", entry["error"])
	}
	if _, ok := entry["error_code"]; ok {
		t.Error("plain errors have no error_code")
	}
}

func TestLogError(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug)

	logger.LogError(nil)
	if buf.Len() != 0 {
		t.Fatal("LogError(nil) should not log")
	}

	logger.LogError(errors.NewInvalidTagError(1))
	entry := decodeLine(t, buf)
	if entry["msg"] != "operation failed" || entry["error_code"] != "ARG-001" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if _, ok := entry["suggestions"]; !ok {
		t.Error("suggestions should be logged")
	}
}

func TestEnabled(t *testing.T) {
	logger, _ := newBufferLogger(LevelInfo)
	ctx := context.Background()

	if logger.Enabled(ctx, LevelDebug) {
		t.Error("debug should be disabled at info level")
	}
	if !logger.Enabled(ctx, LevelError) {
		t.Error("error should be enabled at info level")
	}
	if logger.Config().Level != LevelInfo {
		t.Error("Config() should return the configuration")
	}
}
