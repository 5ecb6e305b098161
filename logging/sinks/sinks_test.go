package sinks

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"voxelnav/logging"
)

func TestConsoleSinkRendersOneLine(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, logging.ConsoleConfig{})

	err := sink.Write(logging.Event{
		Type:     "pathing.execution_failed",
		Tick:     7,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryPathing,
		Actor:    logging.EntityRef{ID: "a1", Kind: logging.EntityKindAgent},
		Payload:  map[string]int{"cursor": 3},
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	line := buf.String()
	for _, want := range []string{"warn", "[pathing]", "pathing.execution_failed", "tick=7", "actor=agent:a1", `payload={"cursor":3}`} {
		if !strings.Contains(line, want) {
			t.Fatalf("line %q missing %q", line, want)
		}
	}
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("color disabled but line has ANSI codes: %q", line)
	}
}

func TestConsoleSinkColorsWarnAndErrorOnly(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, logging.ConsoleConfig{UseColor: true})

	sink.Write(logging.Event{Type: "pathing.calc_failed", Severity: logging.SeverityWarn})
	if !strings.Contains(buf.String(), "\x1b[33mwarn\x1b[0m") {
		t.Fatalf("warn line not highlighted: %q", buf.String())
	}

	buf.Reset()
	sink.Write(logging.Event{Type: "pathing.execution_failed", Severity: logging.SeverityError})
	if !strings.Contains(buf.String(), "\x1b[31merror\x1b[0m") {
		t.Fatalf("error line not highlighted: %q", buf.String())
	}

	buf.Reset()
	sink.Write(logging.Event{Type: "pathing.calc_started", Severity: logging.SeverityInfo})
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("info line should stay plain: %q", buf.String())
	}
}

func TestJSONSinkFlushesAtBatchSize(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSON(&buf, 2, 0)

	if err := sink.Write(logging.Event{Type: "pathing.calc_started", TraceID: "t-1"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("record reached the writer before the batch filled")
	}

	if err := sink.Write(logging.Event{Type: "pathing.calc_finished", TraceID: "t-1"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("flushed lines = %d, want 2", len(lines))
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("first line is not valid JSON: %v", err)
	}
	if rec["type"] != "pathing.calc_started" || rec["traceId"] != "t-1" {
		t.Fatalf("record = %v", rec)
	}

	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestJSONSinkCloseFlushesPending(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSON(&buf, 10, 0)

	if err := sink.Write(logging.Event{Type: "pathing.calc_started"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("record reached the writer before Close")
	}

	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !strings.Contains(buf.String(), "pathing.calc_started") {
		t.Fatalf("Close did not drain the buffer: %q", buf.String())
	}

	// Closing twice must not error.
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestMemorySinkCopiesBothDirections(t *testing.T) {
	sink := NewMemorySink()

	extra := map[string]any{"service": "navmon"}
	if err := sink.Write(logging.Event{Type: "pathing.calc_started", Extra: extra}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	extra["service"] = "mutated"
	got := sink.Events()
	if len(got) != 1 {
		t.Fatalf("stored events = %d, want 1", len(got))
	}
	if got[0].Extra["service"] != "navmon" {
		t.Fatalf("stored event shares the caller's map: %v", got[0].Extra)
	}

	got[0].Extra["service"] = "mutated-again"
	if sink.Events()[0].Extra["service"] != "navmon" {
		t.Fatalf("returned event shares the stored map")
	}

	sink.Reset()
	if len(sink.Events()) != 0 {
		t.Fatalf("reset left events behind")
	}
}
