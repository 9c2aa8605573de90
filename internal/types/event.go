package types

// Event is one fully-parsed JSON object from an events.jsonl line. No
// schema is enforced; the reader adds a "line" key so callers know where
// the event came from.
type Event map[string]any

// EventItem is a lightweight projection of one log line, carrying only
// what the list view needs. ByteOffset is the byte position of the start
// of the line, enabling O(1) random access later via the reader's Get.
type EventItem struct {
	Line       int    `json:"line"`
	ByteOffset int64  `json:"byte_offset"`
	TS         any    `json:"ts,omitempty"`
	Event      string `json:"event,omitempty"`
	Lvl        string `json:"lvl,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
	Preview    string `json:"preview"`
	Size       int    `json:"size"`
}

// ListResult is a page of lightweight events plus the pagination math the
// caller needs to fetch the next page.
type ListResult struct {
	Events  []EventItem `json:"events"`
	Total   int         `json:"total"`
	Offset  int         `json:"offset"`
	Limit   int         `json:"limit"`
	HasMore bool        `json:"has_more"`
}
