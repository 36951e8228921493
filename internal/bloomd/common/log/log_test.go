package log

import (
	"errors"
	"testing"
)

type testLogger struct {
	entries []string
	fields  []map[string]any
}

func (l *testLogger) record(level, msg string, f map[string]any) {
	l.entries = append(l.entries, level+":"+msg)
	l.fields = append(l.fields, f)
}

func (l *testLogger) Info(f map[string]any, msg string)  { l.record("INFO", msg, f) }
func (l *testLogger) Error(f map[string]any, msg string) { l.record("ERROR", msg, f) }
func (l *testLogger) Debug(f map[string]any, msg string) { l.record("DEBUG", msg, f) }
func (l *testLogger) Warn(f map[string]any, msg string)  { l.record("WARN", msg, f) }
func (l *testLogger) Panic(_ map[string]any, msg string) {}
func (l *testLogger) Fatal(_ map[string]any, msg string) {}

func TestActualZapLogger(t *testing.T) {
	Debug(map[string]any{
		"key1": "value1",
		"key2": 42,
		"err":  errors.New("boom"),
	}, "test debug")
	Info(nil, "test info")
	Warn(nil, "test warn")
	Error(nil, "test error")
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic, but none occurred")
		}
	}()
	Panic(nil, "test panic")
}

func TestSetLoggerAndGlobalLogging(t *testing.T) {
	orig := GetLogger()
	defer SetLogger(orig)
	tlog := &testLogger{}
	SetLogger(tlog)

	Info(nil, "info msg")
	Error(nil, "error msg")
	Debug(nil, "debug msg")
	Warn(nil, "warn msg")

	expected := []string{
		"INFO:info msg",
		"ERROR:error msg",
		"DEBUG:debug msg",
		"WARN:warn msg",
	}
	if len(tlog.entries) != len(expected) {
		t.Fatalf("expected %d log entries, got %d", len(expected), len(tlog.entries))
	}
	for i, msg := range expected {
		if tlog.entries[i] != msg {
			t.Errorf("expected log[%d] = %q, got %q", i, msg, tlog.entries[i])
		}
	}
}

func TestConfigure_ValidLevels(t *testing.T) {
	orig := GetLogger()
	defer SetLogger(orig)

	for _, tc := range []struct{ env, level string }{
		{"dev", "debug"},
		{"prod", "info"},
		{"prod", "WARN"},
		{"dev", "error"},
	} {
		if err := Configure(tc.env, tc.level); err != nil {
			t.Errorf("Configure(%q, %q): unexpected error: %v", tc.env, tc.level, err)
		}
	}
}

func TestConfigure_InvalidLevel(t *testing.T) {
	orig := GetLogger()
	defer SetLogger(orig)
	tlog := &testLogger{}
	SetLogger(tlog)

	if err := Configure("dev", "notalevel"); err == nil {
		t.Fatal("expected error for invalid log level, got nil")
	}
	if GetLogger() != Logger(tlog) {
		t.Error("global logger replaced despite configuration error")
	}
}

func TestWith_MergesFields(t *testing.T) {
	tlog := &testLogger{}
	l := With(tlog, map[string]any{"session": "s1", "k": "bound"})

	l.Info(map[string]any{"k": "call", "x": 1}, "hello")
	l.Warn(nil, "warned")

	if len(tlog.fields) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(tlog.fields))
	}
	got := tlog.fields[0]
	if got["session"] != "s1" || got["k"] != "call" || got["x"] != 1 {
		t.Errorf("unexpected merged fields: %v", got)
	}
	if tlog.fields[1]["session"] != "s1" {
		t.Errorf("bound field missing on nil call fields: %v", tlog.fields[1])
	}
}

func TestWith_NoFieldsReturnsSameLogger(t *testing.T) {
	tlog := &testLogger{}
	if With(tlog, nil) != Logger(tlog) {
		t.Error("expected With with no fields to return the logger unchanged")
	}
}

func TestNoopLogger_TestAllLevels(t *testing.T) {
	orig := GetLogger()
	defer SetLogger(orig)
	SetLogger(NewNoopLogger())

	Debug(nil, "debug message")
	Info(nil, "info message")
	Warn(nil, "warn message")
	Error(nil, "error message")
	Panic(nil, "panic message")
	Fatal(nil, "fatal message")
}
