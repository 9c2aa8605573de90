package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ampview/ampview/internal/logreader"
	"github.com/ampview/ampview/internal/scanner"
	"github.com/ampview/ampview/internal/types"
)

const (
	defaultListLimit = 200
	streamInterval   = 2 * time.Second
)

func (s *Server) handleStatus(c *gin.Context) {
	stats := s.manager.Stats()

	c.JSON(http.StatusOK, gin.H{
		"is_scanning":        stats.Scan.IsScanning,
		"last_scan_duration": stats.Scan.LastScanDuration.Seconds(),
		"sessions_scanned":   stats.Scan.SessionsScanned,
		"sessions_cached":    stats.Scan.SessionsCached,
		"project_count":      stats.ProjectCount,
		"session_count":      stats.SessionCount,
		"cache_age":          stats.CacheAge.Seconds(),
		"cache_duration":     stats.CacheDuration.Seconds(),
	})
}

func (s *Server) handleProjects(c *gin.Context) {
	tree := s.manager.Tree()
	stats := s.manager.Stats()
	start, _ := ParseDateFilter(c.Query("since"))
	end, _ := ParseDateFilter(c.Query("until"))
	filtering := !start.IsZero() || !end.IsZero()

	projects := make([]gin.H, 0, len(tree.Projects))
	for _, project := range tree.Projects {
		count := len(project.Sessions)
		if filtering {
			count = 0
			for _, sess := range project.Sessions {
				if sessionInRange(sess, start, end) {
					count++
				}
			}
		}
		if count == 0 {
			continue
		}
		projects = append(projects, gin.H{
			"slug":          project.Slug,
			"path":          project.Path,
			"session_count": count,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"projects":    projects,
		"is_scanning": stats.Scan.IsScanning,
	})
}

func (s *Server) handleRefresh(c *gin.Context) {
	s.manager.Refresh()
	stats := s.manager.Stats()

	c.JSON(http.StatusOK, gin.H{
		"status":           "success",
		"message":          "Session tree refreshed",
		"sessions_scanned": stats.Scan.SessionsScanned,
		"sessions_cached":  stats.Scan.SessionsCached,
		"duration":         stats.Scan.LastScanDuration.Seconds(),
	})
}

// sessionJSON is the wire shape for one session in listings; children are
// flattened to IDs so the payload stays shallow.
func sessionJSON(sess *types.Session) gin.H {
	children := make([]string, 0, len(sess.Children))
	for _, child := range sess.Children {
		children = append(children, child.ID)
	}
	return gin.H{
		"id":           sess.ID,
		"project_slug": sess.ProjectSlug,
		"timestamp":    sess.Timestamp,
		"parent_id":    sess.ParentID,
		"children":     children,
		"name":         sess.Name,
		"description":  sess.Description,
		"status":       sess.Status,
		"bundle":       sess.Bundle,
		"labels":       sess.Labels,
	}
}

func (s *Server) handleSessions(c *gin.Context) {
	slug := c.Query("project")
	if slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'project' parameter"})
		return
	}

	tree := s.manager.Tree()
	var project *types.Project
	for _, p := range tree.Projects {
		if p.Slug == slug {
			project = p
			break
		}
	}
	if project == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	start, _ := ParseDateFilter(c.Query("since"))
	end, _ := ParseDateFilter(c.Query("until"))

	sessions := make([]gin.H, 0, len(project.Sessions))
	for _, sess := range project.Sessions {
		if sessionInRange(sess, start, end) {
			sessions = append(sessions, sessionJSON(sess))
		}
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (s *Server) handleEventList(c *gin.Context) {
	sessionID := c.Query("session")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'session' parameter"})
		return
	}

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offset"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}

	sess := s.manager.Session(sessionID)
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	result, err := logreader.List(sess.EventsPath, offset, limit)
	if err != nil {
		if errors.Is(err, logreader.ErrInvalidRange) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offset or limit"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleEventDetail(c *gin.Context) {
	sess := s.manager.Session(c.Param("session"))
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	lineNum, err := strconv.Atoi(c.Param("line"))
	if err != nil || lineNum < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid line number"})
		return
	}

	byteOffset := int64(-1)
	if raw := c.Query("byte_offset"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid byte_offset"})
			return
		}
		byteOffset = parsed
	}

	event := logreader.Get(sess.EventsPath, lineNum, byteOffset)
	if event == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	c.JSON(http.StatusOK, event)
}

func (s *Server) handleSessionMetadata(c *gin.Context) {
	sess := s.manager.Session(c.Param("session"))
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	// Context is read on demand rather than held in memory for every session.
	var context json.RawMessage
	if meta, err := scanner.ReadMetadata(filepath.Dir(sess.EventsPath)); err == nil {
		context = meta.Context
	}
	if len(context) == 0 {
		context = json.RawMessage("{}")
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":        sess.ID,
		"timestamp":         sess.Timestamp,
		"parent_session_id": sess.ParentID,
		"context":           context,
	})
}

func (s *Server) handleSessionHierarchy(c *gin.Context) {
	sessionID := c.Param("session")
	if s.manager.Session(sessionID) == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	chain := s.manager.Ancestors(sessionID)
	hierarchy := make([]gin.H, 0, len(chain))
	for _, sess := range chain {
		hierarchy = append(hierarchy, sessionJSON(sess))
	}

	c.JSON(http.StatusOK, gin.H{"hierarchy": hierarchy})
}

// handleStream is the SSE live tail. The cursor starts at the current end
// of file so history already fetched through the list endpoint is not
// replayed, then the log is polled until the client goes away.
func (s *Server) handleStream(c *gin.Context) {
	sess := s.manager.Session(c.Param("session"))
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	var pos int64
	if fi, err := os.Stat(sess.EventsPath); err == nil {
		pos = fi.Size()
	}
	lineCount := logreader.CountLines(sess.EventsPath)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.Flush()

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()
	ctx := c.Request.Context()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			events, newPos, newCount := logreader.Tail(sess.EventsPath, pos, lineCount)
			pos, lineCount = newPos, newCount
			if len(events) > 0 {
				c.SSEvent("new_events", events)
				c.Writer.Flush()
			}
		}
	}
}
