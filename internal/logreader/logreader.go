package logreader

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/ampview/ampview/internal/types"
)

// Limit bounds for List. Offsets below zero or limits outside this range
// are caller errors, rejected explicitly so the host layer can map them to
// a 4xx response.
const (
	MinLimit = 1
	MaxLimit = 5000
)

// ErrInvalidRange is returned by List when offset or limit is out of bounds.
var ErrInvalidRange = errors.New("invalid offset or limit")

// List reads a page of lightweight event projections from a JSONL file.
// Offsets count physical lines (0-indexed) including blank and corrupt
// ones, so offsets stay stable as the file grows. Total counts all
// physical lines; blank or unparseable lines are skipped from Events but
// still counted. A missing file yields an empty well-formed result.
func List(path string, offset, limit int) (*types.ListResult, error) {
	if offset < 0 || limit < MinLimit || limit > MaxLimit {
		return nil, fmt.Errorf("%w: offset=%d limit=%d", ErrInvalidRange, offset, limit)
	}

	result := &types.ListResult{
		Events: []types.EventItem{},
		Offset: offset,
		Limit:  limit,
	}

	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("cannot open event log", "path", path, "error", err)
		}
		return result, nil
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	var pos int64
	lineNum := 0

	for {
		line, rerr := reader.ReadBytes('\n')
		if len(line) == 0 && rerr != nil {
			break
		}
		lineStart := pos
		pos += int64(len(line))

		if lineNum >= offset && len(result.Events) < limit {
			if item, ok := parseItem(line, lineNum, lineStart); ok {
				result.Events = append(result.Events, item)
			}
		}
		lineNum++

		if rerr != nil {
			break
		}
	}

	result.Total = lineNum
	result.HasMore = offset+limit < lineNum
	return result, nil
}

// Get reads one full event by line number. When byteOffset >= 0 it seeks
// straight to that position and parses a single line; otherwise it scans
// from the start counting lines, kept only for callers without an offset.
// Returns nil when the line does not exist, is blank, or fails to parse.
func Get(path string, lineNum int, byteOffset int64) types.Event {
	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("cannot open event log", "path", path, "error", err)
		}
		return nil
	}
	defer f.Close()

	if byteOffset >= 0 {
		if _, err := f.Seek(byteOffset, io.SeekStart); err != nil {
			log.Warn("cannot seek event log", "path", path, "offset", byteOffset, "error", err)
			return nil
		}
		line, err := bufio.NewReader(f).ReadBytes('\n')
		if len(line) == 0 && err != nil {
			return nil
		}
		return decodeEvent(line, lineNum)
	}

	reader := bufio.NewReader(f)
	current := 0
	for {
		line, rerr := reader.ReadBytes('\n')
		if len(line) == 0 && rerr != nil {
			return nil
		}
		if current == lineNum {
			return decodeEvent(line, lineNum)
		}
		current++
		if rerr != nil {
			return nil
		}
	}
}

// Tail reads lines appended after lastPos, seeking directly there instead
// of rescanning from the start. Line numbers continue from lastLineCount.
// Only complete lines (ending in a newline) are consumed, so a partially
// written final line is picked up whole on a later call. The caller owns
// the returned cursor; the reader keeps no state between calls.
func Tail(path string, lastPos int64, lastLineCount int) ([]types.EventItem, int64, int) {
	events := []types.EventItem{}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return events, 0, 0
		}
		log.Warn("cannot open event log", "path", path, "error", err)
		return events, lastPos, lastLineCount
	}
	defer f.Close()

	if _, err := f.Seek(lastPos, io.SeekStart); err != nil {
		log.Warn("cannot seek event log", "path", path, "offset", lastPos, "error", err)
		return events, lastPos, lastLineCount
	}

	reader := bufio.NewReader(f)
	pos := lastPos
	lineCount := lastLineCount

	for {
		line, rerr := reader.ReadBytes('\n')
		if rerr != nil {
			// Incomplete trailing line stays unread until the writer
			// finishes it.
			break
		}
		lineStart := pos
		pos += int64(len(line))

		if item, ok := parseItem(line, lineCount, lineStart); ok {
			events = append(events, item)
		}
		lineCount++
	}

	return events, pos, lineCount
}

// CountLines counts newline bytes in a file. Used for pagination totals
// and to initialize a tail cursor at the current end of file.
func CountLines(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	buf := make([]byte, 64*1024)
	count := 0
	for {
		n, err := f.Read(buf)
		count += bytes.Count(buf[:n], []byte{'\n'})
		if err != nil {
			break
		}
	}
	return count
}

// parseItem turns one raw line into a lightweight projection. Blank and
// unparseable lines report ok=false and are skipped by callers.
func parseItem(line []byte, lineNum int, byteOffset int64) (types.EventItem, bool) {
	stripped := bytes.TrimSpace(line)
	if len(stripped) == 0 {
		return types.EventItem{}, false
	}

	var raw map[string]any
	if err := json.Unmarshal(stripped, &raw); err != nil {
		return types.EventItem{}, false
	}

	kind, _ := raw["event"].(string)
	data, _ := raw["data"].(map[string]any)

	return types.EventItem{
		Line:       lineNum,
		ByteOffset: byteOffset,
		TS:         raw["ts"],
		Event:      kind,
		Lvl:        stringField(raw, "lvl"),
		SessionID:  stringField(raw, "session_id"),
		Preview:    computePreview(kind, data),
		Size:       len(stripped),
	}, true
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// decodeEvent parses a full event payload and records its line number.
func decodeEvent(line []byte, lineNum int) types.Event {
	stripped := bytes.TrimSpace(line)
	if len(stripped) == 0 {
		return nil
	}
	var event types.Event
	if err := json.Unmarshal(stripped, &event); err != nil {
		return nil
	}
	event["line"] = lineNum
	return event
}
