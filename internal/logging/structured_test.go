package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoggerCreation(t *testing.T) {
	logger := New("ratelimit")

	if logger.component != "ratelimit" {
		t.Errorf("expected component 'ratelimit', got '%s'", logger.component)
	}
}

func TestLoggerWithSession(t *testing.T) {
	logger := New("session").WithSession("sess-42")

	if logger.session != "sess-42" {
		t.Errorf("expected session 'sess-42', got '%s'", logger.session)
	}
}

func TestEventSerialization(t *testing.T) {
	event := Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     LevelWarn,
		Component: "store",
		Event:     "quota_trim",
		Extra:     map[string]interface{}{"kept": 5},
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"event":"quota_trim"`) {
		t.Errorf("missing event field: %s", data)
	}
	if strings.Contains(string(data), "duration_ms") {
		t.Errorf("zero duration should be omitted: %s", data)
	}
}

func TestLogOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	logger := New("retry").WithSession("s1")
	logger.Error("attempt_failed", map[string]interface{}{"attempt": 2}, errors.New("boom"))

	var got Event
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got.Level != LevelError || got.Component != "retry" || got.Session != "s1" {
		t.Errorf("unexpected event: %+v", got)
	}
	if got.Error != "boom" {
		t.Errorf("expected error 'boom', got %q", got.Error)
	}
}

func TestTimedEvent(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	start := time.Now().Add(-50 * time.Millisecond)
	New("pipeline").TimedEvent("analyze_done", start, nil)

	var got Event
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got.Duration < 50 {
		t.Errorf("expected duration >= 50ms, got %d", got.Duration)
	}
}
