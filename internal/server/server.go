package server

import (
	"fmt"
	"net"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/ampview/ampview/internal/state"
)

// Server exposes the session tree and event logs over HTTP, including an
// SSE live-tail stream per session.
type Server struct {
	manager *state.Manager
	router  *gin.Engine
}

// New creates the HTTP server around a tree cache manager.
func New(manager *state.Manager) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	s := &Server{
		manager: manager,
		router:  router,
	}

	api := router.Group("/api")
	{
		api.GET("/status", s.handleStatus)
		api.GET("/projects", noCache, s.handleProjects)
		api.POST("/refresh", s.handleRefresh)
		api.GET("/sessions", noCache, s.handleSessions)
		api.GET("/events/list", s.handleEventList)
		api.GET("/events/:session/:line", s.handleEventDetail)
		api.GET("/session/:session/metadata", s.handleSessionMetadata)
		api.GET("/session/:session/hierarchy", s.handleSessionHierarchy)
	}
	router.GET("/stream/:session", s.handleStream)

	return s
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves on host:port, auto-incrementing the port up to ten times when
// the requested one is taken.
func (s *Server) Run(host string, port int) error {
	const maxAttempts = 10

	for attempt := 0; attempt < maxAttempts; attempt++ {
		addr := fmt.Sprintf("%s:%d", host, port+attempt)
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			if attempt < maxAttempts-1 {
				log.Warn("port in use, trying next", "addr", addr)
				continue
			}
			return fmt.Errorf("ports %d-%d all in use: %w", port, port+attempt, err)
		}

		log.Info("listening", "url", fmt.Sprintf("http://%s", addr))
		return http.Serve(listener, s.router)
	}
	return nil
}

// Browsers cache aggressively; session listings must always be live.
func noCache(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Next()
}
