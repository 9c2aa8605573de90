package state

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/ampview/ampview/internal/events"
	"github.com/ampview/ampview/internal/scanner"
	"github.com/ampview/ampview/internal/types"
)

// DefaultCacheDuration is how long a scanned tree stays fresh before the
// next read triggers an incremental rescan. Incremental scans are cheap,
// so this mostly bounds how stale the session list can look.
const DefaultCacheDuration = 30 * time.Second

// Config holds configuration for the tree cache Manager.
type Config struct {
	ProjectsDir   string        // Root of the on-disk session layout
	CacheDuration time.Duration // Tree freshness window (default 30s)
	MaxAgeDays    int           // Exclude sessions older than this (0 = no filter)
}

// Manager owns the process-wide SessionTree cache. It is the single writer:
// scans are serialized, and a freshly built tree is published by swapping
// the reference under the lock so readers always observe a complete tree.
type Manager struct {
	config   Config
	scanner  *scanner.Scanner
	eventBus *events.Bus

	mu       sync.RWMutex
	tree     *types.SessionTree
	lastScan time.Time
	stale    bool

	scanMu  sync.Mutex // allows only one scan at a time
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewManager creates a Manager with the given configuration.
func NewManager(config Config) *Manager {
	if config.ProjectsDir == "" {
		config.ProjectsDir = DefaultProjectsDir()
	}
	if config.CacheDuration == 0 {
		config.CacheDuration = DefaultCacheDuration
	}

	return &Manager{
		config:   config,
		scanner:  scanner.New(),
		eventBus: events.NewBus(),
		done:     make(chan struct{}),
	}
}

// DefaultProjectsDir returns ~/.amplifier/projects.
func DefaultProjectsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".amplifier", "projects")
	}
	return filepath.Join(home, ".amplifier", "projects")
}

// EventBus returns a subscription channel for tree-cache notifications.
// Callers that outlive their interest should hand it back via Unsubscribe.
func (m *Manager) EventBus() <-chan types.BusEvent {
	return m.eventBus.Subscribe()
}

// Unsubscribe releases a channel obtained from EventBus and closes it.
func (m *Manager) Unsubscribe(ch <-chan types.BusEvent) {
	m.eventBus.Unsubscribe(ch)
}

// ProjectsDir returns the configured projects root.
func (m *Manager) ProjectsDir() string {
	return m.config.ProjectsDir
}

// Tree returns the current session tree, rescanning first when the cache
// has expired, the watcher flagged a change, or no scan has run yet.
func (m *Manager) Tree() *types.SessionTree {
	m.mu.RLock()
	tree := m.tree
	fresh := tree != nil && !m.stale && time.Since(m.lastScan) <= m.config.CacheDuration
	m.mu.RUnlock()

	if fresh {
		return tree
	}
	return m.Refresh()
}

// Refresh runs an incremental scan and atomically publishes the new tree.
// Concurrent readers keep seeing the previous complete tree until the swap.
func (m *Manager) Refresh() *types.SessionTree {
	m.scanMu.Lock()
	defer m.scanMu.Unlock()

	m.mu.RLock()
	existing := m.tree
	m.mu.RUnlock()

	tree := m.scanner.Scan(m.config.ProjectsDir, existing, m.config.MaxAgeDays)

	m.mu.Lock()
	m.tree = tree
	m.lastScan = time.Now()
	m.stale = false
	m.mu.Unlock()

	m.updateWatches(tree)

	stats := m.scanner.Stats()
	m.eventBus.Publish(types.TreeRefreshed{
		Projects:        len(tree.Projects),
		Sessions:        len(tree.SessionIndex),
		SessionsScanned: stats.SessionsScanned,
		SessionsCached:  stats.SessionsCached,
		Duration:        stats.LastScanDuration,
	})

	return tree
}

// Session looks up a session by ID in the current tree.
func (m *Manager) Session(id string) *types.Session {
	return scanner.Get(id, m.Tree())
}

// Ancestors returns the root-to-session chain for breadcrumbs.
func (m *Manager) Ancestors(id string) []*types.Session {
	return scanner.Ancestors(id, m.Tree())
}

// Stats describes the cache for the status endpoint.
type Stats struct {
	Scan          scanner.Stats
	ProjectCount  int
	SessionCount  int
	CacheAge      time.Duration
	CacheDuration time.Duration
}

// Stats returns a snapshot of scan metrics and cache freshness.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Stats{
		Scan:          m.scanner.Stats(),
		CacheDuration: m.config.CacheDuration,
	}
	if m.tree != nil {
		s.ProjectCount = len(m.tree.Projects)
		s.SessionCount = len(m.tree.SessionIndex)
	}
	if !m.lastScan.IsZero() {
		s.CacheAge = time.Since(m.lastScan)
	}
	return s
}

// MarkStale forces the next Tree call to rescan regardless of cache age.
func (m *Manager) MarkStale() {
	m.mu.Lock()
	m.stale = true
	m.mu.Unlock()
}

// StartWatching begins watching the projects root with fsnotify so changes
// invalidate the cache immediately instead of waiting out the expiry.
// Watch failures are non-fatal; the time-based expiry still applies.
func (m *Manager) StartWatching() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	m.watcher = watcher

	if err := watcher.Add(m.config.ProjectsDir); err != nil {
		// Directory may not exist yet; retried on each refresh.
		log.Warn("cannot watch projects directory", "dir", m.config.ProjectsDir, "error", err)
	}

	go m.watchLoop()
	return nil
}

func (m *Manager) watchLoop() {
	for {
		select {
		case <-m.done:
			return
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.MarkStale()
			m.eventBus.Publish(types.ProjectsDirChanged{Path: event.Name})
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("filesystem watcher error", "error", err)
		}
	}
}

// updateWatches keeps the watcher aligned with the current project layout.
// fsnotify is not recursive, so each project's sessions directory is
// watched individually.
func (m *Manager) updateWatches(tree *types.SessionTree) {
	if m.watcher == nil {
		return
	}
	if err := m.watcher.Add(m.config.ProjectsDir); err != nil && !os.IsNotExist(err) {
		log.Debug("watch add failed", "dir", m.config.ProjectsDir, "error", err)
	}
	for _, project := range tree.Projects {
		sessionsDir := filepath.Join(project.Path, "sessions")
		if err := m.watcher.Add(sessionsDir); err != nil && !os.IsNotExist(err) {
			log.Debug("watch add failed", "dir", sessionsDir, "error", err)
		}
	}
}

// Close releases the watcher and event bus.
func (m *Manager) Close() {
	close(m.done)
	if m.watcher != nil {
		m.watcher.Close()
	}
	m.eventBus.Close()
}
