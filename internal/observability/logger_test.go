package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/dbchat/dbchat/internal/config"
)

func testConfig() config.Config {
	cfg, _ := config.Load("dbchat-test", func(string) (string, bool) { return "", false })
	cfg.Observability.LogJSON = true
	return cfg
}

func TestNewLoggerAttachesTraceIDFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(testConfig(), &buf)

	ctx := ContextWithTraceID(context.Background(), "trace-42")
	logger.InfoContext(ctx, "something happened")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if record["trace_id"] != "trace-42" {
		t.Fatalf("trace_id = %v", record["trace_id"])
	}
	if record["service"] != "dbchat-test" {
		t.Fatalf("service = %v", record["service"])
	}
}

func TestNewLoggerOmitsTraceIDWithoutContextValue(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(testConfig(), &buf)

	logger.Info("plain")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if _, ok := record["trace_id"]; ok {
		t.Fatalf("unexpected trace_id: %v", record["trace_id"])
	}
}

func TestSessionLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := SessionLogger(NewLogger(testConfig(), &buf), "s-1")
	logger.Info("turn completed")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if record["session_id"] != "s-1" {
		t.Fatalf("session_id = %v", record["session_id"])
	}

	if SessionLogger(nil, "s-2") != nil {
		t.Fatal("nil base must stay nil")
	}
}
