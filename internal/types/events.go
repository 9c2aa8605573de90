package types

import "time"

// BusEvent represents all notifications published on the internal event bus.
type BusEvent interface {
	EventType() string
}

// TreeRefreshed is emitted after a scan completes and the new tree has been
// published to readers.
type TreeRefreshed struct {
	Projects        int           `json:"projects"`
	Sessions        int           `json:"sessions"`
	SessionsScanned int           `json:"sessions_scanned"`
	SessionsCached  int           `json:"sessions_cached"`
	Duration        time.Duration `json:"duration"`
}

func (e TreeRefreshed) EventType() string { return "tree_refreshed" }

// ProjectsDirChanged is emitted when the filesystem watcher sees activity
// under the projects root. The tree cache is stale once this fires.
type ProjectsDirChanged struct {
	Path string `json:"path"`
}

func (e ProjectsDirChanged) EventType() string { return "projects_dir_changed" }
