package scanner

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ampview/ampview/internal/types"
)

// ScanState tracks what the scanner learned from previous scans: per-entry
// modification times for the incremental fast path, plus metrics for the
// status endpoint. It describes the cache's knowledge, not the tree's
// content, and lives for the whole process.
type ScanState struct {
	ProjectMtimes map[string]time.Time
	SessionMtimes map[string]time.Time

	IsScanning       bool
	LastScanDuration time.Duration
	SessionsScanned  int
	SessionsCached   int
}

// Stats is a read-only snapshot of scan metrics.
type Stats struct {
	IsScanning       bool          `json:"is_scanning"`
	LastScanDuration time.Duration `json:"last_scan_duration"`
	SessionsScanned  int           `json:"sessions_scanned"`
	SessionsCached   int           `json:"sessions_cached"`
}

// Scanner builds SessionTrees from the on-disk projects layout, reusing
// previously-built sessions when a directory's mtime has not advanced.
// Scan must not be called concurrently; the owning cache layer serializes
// it. Stats is safe to call from any goroutine.
type Scanner struct {
	mu    sync.Mutex // guards the metric fields of state
	state *ScanState
}

// New creates a Scanner with fresh scan state.
func New() *Scanner {
	return &Scanner{
		state: &ScanState{
			ProjectMtimes: make(map[string]time.Time),
			SessionMtimes: make(map[string]time.Time),
		},
	}
}

// Stats returns a snapshot of the current scan metrics.
func (s *Scanner) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		IsScanning:       s.state.IsScanning,
		LastScanDuration: s.state.LastScanDuration,
		SessionsScanned:  s.state.SessionsScanned,
		SessionsCached:   s.state.SessionsCached,
	}
}

// Scan walks projectsDir (layout: <dir>/<project>/sessions/<session>/) and
// builds a SessionTree. When existing is non-nil, sessions whose directory
// mtime has not advanced since the last scan are reused without re-reading
// metadata. A maxAgeDays > 0 excludes sessions whose directory is older
// than that many days. A missing projects directory yields an empty tree;
// per-entry I/O failures skip that entry and never abort the scan.
func (s *Scanner) Scan(projectsDir string, existing *types.SessionTree, maxAgeDays int) *types.SessionTree {
	start := time.Now()
	s.mu.Lock()
	s.state.IsScanning = true
	s.mu.Unlock()

	scanned, cached := 0, 0
	defer func() {
		s.mu.Lock()
		s.state.IsScanning = false
		s.state.LastScanDuration = time.Since(start)
		s.state.SessionsScanned = scanned
		s.state.SessionsCached = cached
		s.mu.Unlock()
	}()

	tree := &types.SessionTree{SessionIndex: make(map[string]*types.Session)}

	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		// A viewer pointed at a not-yet-created log directory is normal.
		if !os.IsNotExist(err) {
			log.Warn("cannot read projects directory", "dir", projectsDir, "error", err)
		}
		s.prune(tree)
		return tree
	}

	var existingSessions map[string]*types.Session
	if existing != nil {
		existingSessions = existing.SessionIndex
	}

	var cutoff time.Time
	if maxAgeDays > 0 {
		cutoff = time.Now().AddDate(0, 0, -maxAgeDays)
	}

	// os.ReadDir already sorts entries lexicographically by name.
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		slug := entry.Name()
		projectPath := filepath.Join(projectsDir, slug)
		sessionsDir := filepath.Join(projectPath, "sessions")

		info, err := os.Stat(sessionsDir)
		if err != nil || !info.IsDir() {
			continue
		}

		sessionEntries, err := os.ReadDir(sessionsDir)
		if err != nil {
			log.Warn("cannot read sessions directory", "dir", sessionsDir, "error", err)
			continue
		}

		project := &types.Project{Slug: slug, Path: projectPath}

		for _, se := range sessionEntries {
			if !se.IsDir() {
				continue
			}
			id := se.Name()
			sessionDir := filepath.Join(sessionsDir, id)

			fi, err := se.Info()
			if err != nil {
				continue
			}
			mtime := fi.ModTime()

			// Age filter runs before the reuse decision.
			if !cutoff.IsZero() && mtime.Before(cutoff) {
				continue
			}

			if cachedMtime, ok := s.state.SessionMtimes[id]; ok && !mtime.After(cachedMtime) {
				if prev, ok := existingSessions[id]; ok {
					// Reuse via a shallow copy: readers may still hold the
					// previous tree, so its sessions must never be written.
					// Children are derived and rebuilt below.
					sess := *prev
					sess.Children = nil
					project.Sessions = append(project.Sessions, &sess)
					tree.SessionIndex[id] = &sess
					cached++
					continue
				}
			}

			scanned++
			s.state.SessionMtimes[id] = mtime

			sess := readSession(sessionDir, id, slug)
			project.Sessions = append(project.Sessions, sess)
			tree.SessionIndex[id] = sess
		}

		sort.Slice(project.Sessions, func(i, j int) bool {
			return project.Sessions[i].ID < project.Sessions[j].ID
		})

		tree.Projects = append(tree.Projects, project)
		s.state.ProjectMtimes[slug] = info.ModTime()
	}

	// Rebuild parent/child links in one pass. Iterating projects in order
	// keeps children ordering deterministic. A parent_id pointing outside
	// the index leaves the child parentless but keeps the field.
	for _, project := range tree.Projects {
		for _, sess := range project.Sessions {
			if sess.ParentID == "" {
				continue
			}
			if parent, ok := tree.SessionIndex[sess.ParentID]; ok {
				parent.Children = append(parent.Children, sess)
			}
		}
	}

	s.prune(tree)
	return tree
}

// prune drops mtime bookkeeping for sessions and projects that no longer
// exist, so deleted entries do not leak memory across the process lifetime.
func (s *Scanner) prune(tree *types.SessionTree) {
	for id := range s.state.SessionMtimes {
		if _, ok := tree.SessionIndex[id]; !ok {
			delete(s.state.SessionMtimes, id)
		}
	}
	slugs := make(map[string]struct{}, len(tree.Projects))
	for _, p := range tree.Projects {
		slugs[p.Slug] = struct{}{}
	}
	for slug := range s.state.ProjectMtimes {
		if _, ok := slugs[slug]; !ok {
			delete(s.state.ProjectMtimes, slug)
		}
	}
}

// readSession builds a Session from a session directory. A missing or
// malformed metadata file degrades to default field values.
func readSession(dir, id, slug string) *types.Session {
	sess := &types.Session{
		ID:             id,
		ProjectSlug:    slug,
		EventsPath:     filepath.Join(dir, "events.jsonl"),
		TranscriptPath: filepath.Join(dir, "transcript.jsonl"),
	}

	meta, err := ReadMetadata(dir)
	if err != nil {
		return sess
	}

	sess.Timestamp = meta.Created
	sess.ParentID = meta.ParentSessionID
	sess.Name = meta.Name
	sess.Description = meta.Description
	sess.Status = meta.Status
	sess.Bundle = meta.Bundle
	sess.Labels = meta.Labels
	return sess
}

// ReadMetadata loads the metadata.json sidecar for a session directory.
func ReadMetadata(dir string) (*types.Metadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta types.Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Get looks up a session by ID via the tree's flat index.
func Get(id string, tree *types.SessionTree) *types.Session {
	if tree == nil {
		return nil
	}
	return tree.SessionIndex[id]
}

// Ancestors returns the chain from the root ancestor down to the session
// itself, for breadcrumb navigation. The walk keeps a visited set so a
// parent_id chain corrupted into a cycle cannot loop forever.
func Ancestors(id string, tree *types.SessionTree) []*types.Session {
	sess := Get(id, tree)
	if sess == nil {
		return nil
	}

	chain := []*types.Session{sess}
	visited := map[string]bool{sess.ID: true}

	for cur := sess; cur.ParentID != ""; {
		parent := Get(cur.ParentID, tree)
		if parent == nil || visited[parent.ID] {
			break
		}
		visited[parent.ID] = true
		chain = append(chain, parent)
		cur = parent
	}

	// Walked child-to-parent; callers want root first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
