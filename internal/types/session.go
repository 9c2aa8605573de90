package types

import "encoding/json"

// Session represents one logged interaction unit discovered on disk.
// Sessions are shared by pointer between their owning Project and the
// tree's SessionIndex, so both views always see the same entity.
type Session struct {
	ID          string `json:"id"`
	ProjectSlug string `json:"project_slug"`

	// Timestamp is whatever the metadata recorded as creation time. It is
	// not guaranteed to be parseable, or present at all.
	Timestamp string `json:"timestamp"`

	// ParentID links to another session's ID when this session was spawned
	// from it. Children is derived from ParentID links and rebuilt on every
	// scan; it is never persisted.
	ParentID string     `json:"parent_id,omitempty"`
	Children []*Session `json:"-"`

	EventsPath     string `json:"-"`
	TranscriptPath string `json:"-"`

	// Optional descriptive fields from metadata.json. All may be empty.
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status,omitempty"`
	Bundle      string   `json:"bundle,omitempty"`
	Labels      []string `json:"labels,omitempty"`
}

// Project is a named collection of sessions corresponding to one top-level
// directory under the projects root.
type Project struct {
	Slug string `json:"slug"`
	Path string `json:"path"`

	// Sessions is sorted by ID ascending after every scan.
	Sessions []*Session `json:"sessions"`
}

// SessionTree is the result of a full or incremental scan: projects in
// lexicographic order plus a flat index for O(1) session lookup. Every
// session reachable from Projects appears exactly once in SessionIndex
// and vice versa.
type SessionTree struct {
	Projects     []*Project
	SessionIndex map[string]*Session
}

// Metadata mirrors the optional metadata.json sidecar written next to a
// session's log files. Every field is optional; Context is kept opaque and
// surfaced verbatim to callers.
type Metadata struct {
	ParentSessionID string          `json:"parent_session_id"`
	Created         string          `json:"created"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Status          string          `json:"status"`
	Bundle          string          `json:"bundle"`
	Labels          []string        `json:"labels"`
	Context         json.RawMessage `json:"context"`
}
