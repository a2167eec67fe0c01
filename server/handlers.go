package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"chatrelay/pkg/auth"
	"chatrelay/pkg/config"
	"chatrelay/pkg/health"
	"chatrelay/pkg/logger"
	"chatrelay/pkg/middleware"
	"chatrelay/pkg/relay"
	"chatrelay/pkg/storage"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Server wires the relay core to its HTTP and WebSocket surfaces
type Server struct {
	cfg        *config.ServerConfig
	hub        *Hub
	registry   *relay.Registry
	dispatcher *relay.Dispatcher
	monitor    *health.Monitor
	store      storage.Store
	upgrader   websocket.Upgrader

	httpServer *http.Server
	serverMu   sync.Mutex
}

// NewServer builds the full relay: registry, router, dispatcher, hub, and
// optional audit store, all from configuration.
func NewServer(cfg *config.ServerConfig) (*Server, error) {
	hub := NewHub()
	registry := relay.NewRegistry()
	router := relay.NewRouter(registry, hub, hub)
	dispatcher := relay.NewDispatcher(registry, router, auth.ForToken(cfg.AgentToken), hub)
	hub.SetDispatcher(dispatcher)

	s := &Server{
		cfg:        cfg,
		hub:        hub,
		registry:   registry,
		dispatcher: dispatcher,
		monitor:    health.NewMonitor(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}

	if cfg.Database.Enabled {
		store, err := storage.NewStore(cfg.Database)
		if err != nil {
			// Audit storage is best-effort; the relay runs without it
			logger.Get().ErrorWithErr("failed to initialize audit storage", err)
			s.monitor.SetComponentStatus("storage", health.StatusUnhealthy, err.Error())
		} else {
			s.store = store
			dispatcher.SetAuditLog(store)
			s.monitor.SetComponentStatus("storage", health.StatusOK, "audit log ready")
		}
	}

	return s, nil
}

// checkOrigin enforces the configured origin allowlist on upgrades
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true // non-browser clients send no Origin header
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" {
			return true
		}
		if strings.EqualFold(allowed, origin) || strings.EqualFold(allowed, parsed.Host) {
			return true
		}
	}
	return false
}

// buildRouter assembles the gin routing table
func (s *Server) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.CORS(s.cfg.AllowedOrigins))

	router.GET("/ws", s.handleWebSocket)
	router.GET("/health", s.handleHealth)
	if s.store != nil {
		router.GET("/stats", s.handleStats)
	}

	return router
}

// handleWebSocket upgrades the connection and hands it to the hub
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Get().WarnWith("websocket upgrade failed", "remote", c.ClientIP(), "error", err)
		return
	}

	session := s.hub.Add(conn)
	logger.Get().DebugWith("websocket upgraded", "sid", session.SID, "remote", c.ClientIP())
}

// handleHealth reports relay liveness. Always 200: a degraded component is
// detail for the monitor, not a reason for probes to recycle the process.
func (s *Server) handleHealth(c *gin.Context) {
	agents := s.registry.AgentCount()
	clients := s.hub.Count() - agents
	if clients < 0 {
		clients = 0
	}
	c.JSON(http.StatusOK, s.monitor.GetHealth(clients, agents))
}

// statsRecentLimit bounds how much of the audit log /stats exposes
const statsRecentLimit = 20

// handleStats serves audit-log aggregates and the most recent lifecycle
// events when storage is enabled
func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.store.Stats()
	if err != nil {
		logger.Get().ErrorWithErr("failed to read audit stats", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
		return
	}

	events, err := s.store.RecentEvents(statsRecentLimit)
	if err != nil {
		logger.Get().ErrorWithErr("failed to read recent audit events", err)
		events = nil
	}
	if events == nil {
		events = []*storage.ConnectionEvent{}
	}

	c.JSON(http.StatusOK, gin.H{
		"totals":        stats,
		"recent_events": events,
	})
}

// Start binds the HTTP server and blocks until it stops
func (s *Server) Start() error {
	server := &http.Server{
		Addr:    s.cfg.Address(),
		Handler: s.buildRouter(),
	}

	s.serverMu.Lock()
	s.httpServer = server
	s.serverMu.Unlock()

	logger.Get().InfoWith("relay listening", "address", s.cfg.Address())
	return server.ListenAndServe()
}

// Shutdown runs the graceful shutdown sequence: notify and close every live
// session, wait out the grace period, then stop the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	coordinator := NewShutdownCoordinator(s.hub, s.cfg.Shutdown)
	coordinator.DrainSessions()

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			logger.Get().ErrorWithErr("failed to close audit storage", err)
		}
	}

	s.serverMu.Lock()
	server := s.httpServer
	s.serverMu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}
