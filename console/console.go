package console

import (
	"context"
	"html/template"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"chatrelay/pkg/config"
	"chatrelay/pkg/logger"
	"chatrelay/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// DefaultTemplatesDir is where the console page template lives relative to
// the working directory.
const DefaultTemplatesDir = "web/templates"

// Console serves the agent console page. It is a separate process from the
// relay: agents load the page from here, and the page itself opens a
// WebSocket to the relay address baked into it.
type Console struct {
	cfg       *config.ConsoleConfig
	templates *template.Template
	startTime time.Time

	httpServer *http.Server
	serverMu   sync.Mutex
}

// pageData is what the console template renders with
type pageData struct {
	RelayAddress string
	AgentToken   string
}

// NewConsole loads templates and builds the console server
func NewConsole(cfg *config.ConsoleConfig, templatesDir string) (*Console, error) {
	if templatesDir == "" {
		templatesDir = DefaultTemplatesDir
	}

	tmpl, err := template.ParseGlob(filepath.Join(templatesDir, "*.html"))
	if err != nil {
		return nil, err
	}

	return &Console{
		cfg:       cfg,
		templates: tmpl,
		startTime: time.Now(),
	}, nil
}

// buildRouter assembles the gin routing table
func (cs *Console) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogging())

	router.GET("/", cs.handleIndex)
	router.GET("/health", cs.handleHealth)

	return router
}

// handleIndex renders the console page with the relay address and agent
// token the page needs to identify itself.
func (cs *Console) handleIndex(c *gin.Context) {
	data := pageData{
		RelayAddress: cs.cfg.RelayAddress,
		AgentToken:   cs.cfg.AgentToken,
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := cs.templates.ExecuteTemplate(c.Writer, "console.html", data); err != nil {
		logger.Get().ErrorWithErr("failed to render console template", err)
		c.AbortWithStatus(http.StatusInternalServerError)
	}
}

// handleHealth reports console liveness
func (cs *Console) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   "Agent console is running.",
		"timestamp": time.Now().Unix(),
	})
}

// Start binds the HTTP server and blocks until it stops
func (cs *Console) Start() error {
	server := &http.Server{
		Addr:    cs.cfg.Address(),
		Handler: cs.buildRouter(),
	}

	cs.serverMu.Lock()
	cs.httpServer = server
	cs.serverMu.Unlock()

	logger.Get().InfoWith("console listening", "address", cs.cfg.Address(), "relay", cs.cfg.RelayAddress)
	return server.ListenAndServe()
}

// Shutdown stops the HTTP listener
func (cs *Console) Shutdown(ctx context.Context) error {
	cs.serverMu.Lock()
	server := cs.httpServer
	cs.serverMu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}
