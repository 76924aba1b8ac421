// Package server exposes the engine API over HTTP for the bot front-end
// replicas.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yegorpanin/alchemy/internal/engine"
	"github.com/yegorpanin/alchemy/internal/logger"
	"github.com/yegorpanin/alchemy/internal/resolver"
	"github.com/yegorpanin/alchemy/internal/store"
	"github.com/yegorpanin/alchemy/internal/vocab"
)

// Options configures a Server.
type Options struct {
	// Rate is the per-client request rate (requests/second); Burst is
	// the token bucket size. Zero values disable limiting.
	Rate  float64
	Burst int
}

// Server wires the engine and resolver into HTTP handlers.
type Server struct {
	engine   *engine.Engine
	resolver *resolver.Resolver
	log      *logger.Logger
	limits   *clientLimits
}

// New creates a Server.
func New(e *engine.Engine, r *resolver.Resolver, log *logger.Logger, opts Options) *Server {
	s := &Server{
		engine:   e,
		resolver: r,
		log:      log.With("component", "server"),
	}
	if opts.Rate > 0 {
		s.limits = newClientLimits(opts.Rate, opts.Burst)
	}
	return s
}

// Router builds the gin engine with all routes and middleware.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLog())
	if s.limits != nil {
		router.Use(s.rateLimit())
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")
	{
		v1.POST("/combine", s.handleCombine)
		v1.GET("/leaderboard", s.handleLeaderboard)
		v1.GET("/users/:id", s.handleGetUser)
		v1.GET("/similar", s.handleSimilar)
		v1.GET("/analogy", s.handleAnalogy)
		v1.POST("/mix", s.handleMix)
		v1.GET("/between", s.handleBetween)
	}
	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, listen string) error {
	srv := &http.Server{
		Addr:              listen,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type combineRequest struct {
	WordA    string `json:"word_a" binding:"required"`
	WordB    string `json:"word_b" binding:"required"`
	UserID   string `json:"user_id" binding:"required"`
	UserName string `json:"user_name"`
}

func (s *Server) handleCombine(c *gin.Context) {
	var req combineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out, err := s.engine.ResolveCombination(c.Request.Context(), req.WordA, req.WordB,
		store.User{ID: req.UserID, Name: req.UserName})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleLeaderboard(c *gin.Context) {
	limit := intQuery(c, "limit", 10)
	entries, err := s.engine.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if entries == nil {
		entries = []store.LeaderboardEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"leaders": entries})
}

func (s *Server) handleGetUser(c *gin.Context) {
	rec, err := s.engine.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleSimilar(c *gin.Context) {
	word := c.Query("word")
	if word == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "word is required"})
		return
	}
	matches, err := s.resolver.SimilarWords(word,
		intQuery(c, "k", 0),
		floatQuery(c, "min", -1),
		floatQuery(c, "max", -1))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"word": vocab.Canonical(word), "matches": matches})
}

func (s *Server) handleAnalogy(c *gin.Context) {
	a, b, w := c.Query("a"), c.Query("b"), c.Query("c")
	if a == "" || b == "" || w == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a, b and c are required"})
		return
	}
	matches, err := s.resolver.Analogy(a, b, w, intQuery(c, "k", 0))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

// mixTermRequest distinguishes an omitted weight (defaults to 1) from an
// explicit zero, which mutes the word while still excluding it.
type mixTermRequest struct {
	Word     string   `json:"word" binding:"required"`
	Weight   *float32 `json:"weight"`
	Subtract bool     `json:"subtract"`
}

type mixRequest struct {
	Terms []mixTermRequest `json:"terms" binding:"required"`
	K     int              `json:"k"`
}

func (s *Server) handleMix(c *gin.Context) {
	var req mixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	terms := make([]resolver.MixTerm, len(req.Terms))
	for i, t := range req.Terms {
		weight := float32(1)
		if t.Weight != nil {
			weight = *t.Weight
		}
		terms[i] = resolver.MixTerm{Word: t.Word, Weight: weight, Subtract: t.Subtract}
	}
	matches, err := s.resolver.Mix(terms, req.K)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

func (s *Server) handleBetween(c *gin.Context) {
	a, b := c.Query("a"), c.Query("b")
	if a == "" || b == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a and b are required"})
		return
	}
	matches, err := s.resolver.Between(a, b, intQuery(c, "k", 0))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

// writeError maps engine errors onto HTTP statuses.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, vocab.ErrNotFound):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, resolver.ErrNoResult):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no combination found"})
	case errors.Is(err, resolver.ErrNoTerms), errors.Is(err, resolver.ErrBadSimilarband):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable, try again"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusRequestTimeout, gin.H{"error": "request cancelled"})
	default:
		s.log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func intQuery(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func floatQuery(c *gin.Context, name string, def float32) float32 {
	v := c.Query(name)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return def
	}
	return float32(f)
}
