package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextFieldsPropagate(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf})

	ctx := logg.WithRequestID(context.Background(), "req-1")
	ctx = logg.WithOrderID(ctx, "ord-9")
	logg.Info(ctx, "hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["request_id"] != "req-1" || entry["order_id"] != "ord-9" {
		t.Fatalf("missing context fields: %v", entry)
	}
	if entry["service"] != "test" {
		t.Fatalf("missing service field: %v", entry)
	}
}

func TestErrorIncludesStack(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf})

	logg.Error(context.Background(), "boom", errors.New("failure"))

	if !strings.Contains(buf.String(), "stack") {
		t.Fatal("expected stack field on error log")
	}
	if !strings.Contains(buf.String(), "failure") {
		t.Fatal("expected error message in log")
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel(" DEBUG ") != zerolog.DebugLevel {
		t.Fatal("expected debug level")
	}
	if ParseLevel("nonsense") != zerolog.InfoLevel {
		t.Fatal("expected info fallback")
	}
	if ParseLevel("") != zerolog.InfoLevel {
		t.Fatal("expected info default")
	}
}
