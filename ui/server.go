// Package ui exposes the chatbot over HTTP. Deterministic data endpoints
// (summary, analysis, store lookup) bypass generation entirely; only /api/ask
// reaches the full pipeline.
package ui

import (
	"log"
	"net/http"
	"strings"

	"liftbot/app"
	"liftbot/domain/core"
	"liftbot/internal/config"
	"liftbot/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Server wraps the gin engine around the chat pipeline.
type Server struct {
	router *gin.Engine
	chat   *app.ChatService
	store  *store.RecordStore
	port   string
}

// NewServer builds the HTTP surface.
func NewServer(cfg config.ServerConfig, chat *app.ChatService, s *store.RecordStore) *Server {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	srv := &Server{
		router: gin.Default(),
		chat:   chat,
		store:  s,
		port:   cfg.Port,
	}
	srv.registerRoutes()
	return srv
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.POST("/ask", s.handleAsk)
		api.GET("/summary", s.handleSummary)
		api.GET("/analysis", s.handleAnalysis)
		api.GET("/stores/:id", s.handleStore)
	}
}

// Run starts the server and blocks.
func (s *Server) Run() error {
	addr := ":" + s.port
	log.Printf("[Server] Listening on %s", addr)
	return s.router.Run(addr)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"records": s.store.Len(),
		"session": s.chat.SessionID(),
	})
}

type askRequest struct {
	Question string `json:"question" binding:"required"`
}

func (s *Server) handleAsk(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	answer := s.chat.Answer(c.Request.Context(), req.Question)
	c.JSON(http.StatusOK, gin.H{
		"question":    req.Question,
		"answer":      answer,
		"answer_html": renderMarkdown(answer),
	})
}

func (s *Server) handleSummary(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Summary())
}

func (s *Server) handleAnalysis(c *gin.Context) {
	report, err := s.chat.Analysis()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleStore(c *gin.Context) {
	id := c.Param("id")
	rec, ok := s.store.FindByStoreID(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": core.NewNotFoundError("store", id).Error(),
		})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// renderMarkdown converts a generated answer to HTML for web clients.
func renderMarkdown(text string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return string(markdown.ToHTML([]byte(text), p, renderer))
}
