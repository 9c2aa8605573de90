package logreader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func eventLine(i int) string {
	return fmt.Sprintf(`{"ts":"2025-11-10T15:30:%02dZ","event":"tool:call","lvl":"info","session_id":"s1","data":{"tool_name":"bash-%d"}}`, i%60, i)
}

func TestListPagination(t *testing.T) {
	lines := make([]string, 10)
	for i := range lines {
		lines[i] = eventLine(i)
	}
	path := writeLog(t, lines...)

	// Every page must return exactly the lines in [offset, offset+limit).
	for offset := 0; offset <= 10; offset += 3 {
		result, err := List(path, offset, 3)
		if err != nil {
			t.Fatal(err)
		}
		wantLen := 3
		if offset+3 > 10 {
			wantLen = 10 - offset
		}
		if wantLen < 0 {
			wantLen = 0
		}
		if len(result.Events) != wantLen {
			t.Errorf("offset %d: got %d events, want %d", offset, len(result.Events), wantLen)
		}
		for i, item := range result.Events {
			if item.Line != offset+i {
				t.Errorf("offset %d: events[%d].Line = %d, want %d", offset, i, item.Line, offset+i)
			}
		}
		if result.Total != 10 {
			t.Errorf("offset %d: Total = %d, want 10", offset, result.Total)
		}
		wantMore := offset+3 < 10
		if result.HasMore != wantMore {
			t.Errorf("offset %d: HasMore = %v, want %v", offset, result.HasMore, wantMore)
		}
	}
}

func TestListSkipsCorruptLines(t *testing.T) {
	path := writeLog(t,
		eventLine(0),
		eventLine(1),
		"",
		eventLine(3),
		"{this is not json",
		eventLine(5),
	)

	result, err := List(path, 0, 100)
	if err != nil {
		t.Fatal(err)
	}

	// Blank and corrupt lines are omitted from Events but keep their slot
	// in the line numbering and the total.
	if result.Total != 6 {
		t.Errorf("Total = %d, want 6", result.Total)
	}
	wantLines := []int{0, 1, 3, 5}
	if len(result.Events) != len(wantLines) {
		t.Fatalf("got %d events, want %d", len(result.Events), len(wantLines))
	}
	for i, want := range wantLines {
		if result.Events[i].Line != want {
			t.Errorf("events[%d].Line = %d, want %d", i, result.Events[i].Line, want)
		}
	}
}

func TestListNumberingStableAcrossCorruption(t *testing.T) {
	// Ten lines with index 4 corrupt: the items after the corruption keep
	// their physical line numbers.
	path := writeLog(t,
		eventLine(0), eventLine(1), eventLine(2), eventLine(3),
		"not json at all",
		eventLine(5), eventLine(6), eventLine(7), eventLine(8), eventLine(9),
	)

	result, err := List(path, 0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Events) != 9 {
		t.Fatalf("got %d events, want 9", len(result.Events))
	}
	if result.Events[4].Line != 5 {
		t.Errorf("events[4].Line = %d, want 5", result.Events[4].Line)
	}
	if result.Total != 10 {
		t.Errorf("Total = %d, want 10", result.Total)
	}
}

func TestListInvalidRange(t *testing.T) {
	path := writeLog(t, eventLine(0))

	for _, tc := range []struct {
		name          string
		offset, limit int
	}{
		{"negative offset", -1, 10},
		{"zero limit", 0, 0},
		{"limit above max", 0, MaxLimit + 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := List(path, tc.offset, tc.limit)
			if !errors.Is(err, ErrInvalidRange) {
				t.Errorf("expected ErrInvalidRange, got %v", err)
			}
		})
	}
}

func TestListMissingFile(t *testing.T) {
	result, err := List(filepath.Join(t.TempDir(), "nope.jsonl"), 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if result.Total != 0 || len(result.Events) != 0 || result.HasMore {
		t.Errorf("missing file should yield empty result, got %+v", result)
	}
}

func TestListNoTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	content := eventLine(0) + "\n" + eventLine(1)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := List(path, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if result.Total != 2 {
		t.Errorf("Total = %d, want 2 (final unterminated line counts)", result.Total)
	}
	if len(result.Events) != 2 {
		t.Errorf("got %d events, want 2", len(result.Events))
	}
}

func TestGetByByteOffset(t *testing.T) {
	path := writeLog(t, eventLine(0), eventLine(1), eventLine(2))

	result, err := List(path, 0, 10)
	if err != nil {
		t.Fatal(err)
	}

	// Byte offsets from List must round-trip to the same event via Get.
	for _, item := range result.Events {
		event := Get(path, item.Line, item.ByteOffset)
		if event == nil {
			t.Fatalf("line %d: Get returned nil", item.Line)
		}
		if event["line"] != item.Line {
			t.Errorf("line mismatch: got %v, want %d", event["line"], item.Line)
		}
		data, _ := event["data"].(map[string]any)
		want := fmt.Sprintf("bash-%d", item.Line)
		if data["tool_name"] != want {
			t.Errorf("line %d: tool_name = %v, want %s", item.Line, data["tool_name"], want)
		}
	}
}

func TestGetByLineScan(t *testing.T) {
	path := writeLog(t, eventLine(0), eventLine(1), eventLine(2))

	event := Get(path, 2, -1)
	if event == nil {
		t.Fatal("expected event at line 2")
	}
	if event["line"] != 2 {
		t.Errorf("line = %v, want 2", event["line"])
	}

	if Get(path, 99, -1) != nil {
		t.Error("out-of-range line should return nil")
	}
}

func TestGetCorruptLine(t *testing.T) {
	path := writeLog(t, eventLine(0), "garbage", eventLine(2))

	if Get(path, 1, -1) != nil {
		t.Error("corrupt line should return nil")
	}
	if Get(filepath.Join(t.TempDir(), "nope.jsonl"), 0, -1) != nil {
		t.Error("missing file should return nil")
	}
}

func TestTailContinuity(t *testing.T) {
	path := writeLog(t, eventLine(0), eventLine(1))

	events, pos, lineCount := Tail(path, 0, 0)
	if len(events) != 2 {
		t.Fatalf("first tail: got %d events, want 2", len(events))
	}
	if lineCount != 2 {
		t.Errorf("first tail: lineCount = %d, want 2", lineCount)
	}

	// Append two more lines and resume from the returned cursor.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(eventLine(2) + "\n" + eventLine(3) + "\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	events, pos2, lineCount := Tail(path, pos, lineCount)
	if len(events) != 2 {
		t.Fatalf("second tail: got %d events, want 2", len(events))
	}
	if events[0].Line != 2 || events[1].Line != 3 {
		t.Errorf("line numbers must continue: got %d, %d", events[0].Line, events[1].Line)
	}
	if pos2 <= pos {
		t.Errorf("cursor must advance: %d -> %d", pos, pos2)
	}

	// No new data: nothing returned, cursor unchanged.
	events, pos3, lineCount3 := Tail(path, pos2, lineCount)
	if len(events) != 0 || pos3 != pos2 || lineCount3 != lineCount {
		t.Errorf("idle tail changed state: events=%d pos=%d->%d lines=%d->%d",
			len(events), pos2, pos3, lineCount, lineCount3)
	}
}

func TestTailLeavesPartialLine(t *testing.T) {
	path := writeLog(t, eventLine(0))

	// Simulate a writer mid-line: no trailing newline yet.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(`{"ts":"2025-11-10T15:31:00Z","event":"tool:cal`); err != nil {
		t.Fatal(err)
	}
	f.Close()

	events, pos, lineCount := Tail(path, 0, 0)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1 (partial line must not be consumed)", len(events))
	}
	if lineCount != 1 {
		t.Errorf("lineCount = %d, want 1", lineCount)
	}

	// Writer finishes the line; the next poll picks it up whole.
	f, err = os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("l\",\"lvl\":\"info\"}\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	events, _, lineCount = Tail(path, pos, lineCount)
	if len(events) != 1 {
		t.Fatalf("second tail: got %d events, want 1", len(events))
	}
	if events[0].Event != "tool:call" {
		t.Errorf("reassembled event = %q, want tool:call", events[0].Event)
	}
	if events[0].Line != 1 {
		t.Errorf("reassembled line = %d, want 1", events[0].Line)
	}
}

func TestTailMissingFile(t *testing.T) {
	events, pos, lineCount := Tail(filepath.Join(t.TempDir(), "nope.jsonl"), 100, 5)
	if len(events) != 0 || pos != 0 || lineCount != 0 {
		t.Errorf("missing file should reset cursor, got pos=%d lines=%d", pos, lineCount)
	}
}

func TestCountLines(t *testing.T) {
	path := writeLog(t, eventLine(0), "", eventLine(2))
	if n := CountLines(path); n != 3 {
		t.Errorf("CountLines = %d, want 3", n)
	}

	empty := filepath.Join(t.TempDir(), "empty.jsonl")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if n := CountLines(empty); n != 0 {
		t.Errorf("CountLines(empty) = %d, want 0", n)
	}

	if n := CountLines(filepath.Join(t.TempDir(), "nope")); n != 0 {
		t.Errorf("CountLines(missing) = %d, want 0", n)
	}
}

func TestItemFields(t *testing.T) {
	line := `{"ts":"2025-11-10T15:30:00Z","event":"tool:call","lvl":"debug","session_id":"abc","data":{"tool_name":"grep"}}`
	path := writeLog(t, line)

	result, err := List(path, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	item := result.Events[0]
	if item.Event != "tool:call" {
		t.Errorf("Event = %q", item.Event)
	}
	if item.Lvl != "debug" {
		t.Errorf("Lvl = %q", item.Lvl)
	}
	if item.SessionID != "abc" {
		t.Errorf("SessionID = %q", item.SessionID)
	}
	if item.TS != "2025-11-10T15:30:00Z" {
		t.Errorf("TS = %v", item.TS)
	}
	if item.Size != len(line) {
		t.Errorf("Size = %d, want %d", item.Size, len(line))
	}
	if item.ByteOffset != 0 {
		t.Errorf("ByteOffset = %d, want 0", item.ByteOffset)
	}
	if item.Preview != "Tool: grep" {
		t.Errorf("Preview = %q", item.Preview)
	}
}

func TestItemToleratesOddTypes(t *testing.T) {
	// A numeric lvl or ts must not mark the line corrupt.
	path := writeLog(t, `{"ts":1762788600,"event":"tool:call","lvl":3,"data":{"name":"ls"}}`)

	result, err := List(path, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Events) != 1 {
		t.Fatal("line with non-string fields should still parse")
	}
	item := result.Events[0]
	if item.Lvl != "" {
		t.Errorf("non-string lvl should degrade to empty, got %q", item.Lvl)
	}
	if item.Preview != "Tool: ls" {
		t.Errorf("Preview = %q", item.Preview)
	}
}
