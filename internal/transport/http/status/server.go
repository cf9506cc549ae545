// Package statushttp serves read-only views of the running scanner.
package statushttp

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"roshi/internal/alert"
	"roshi/internal/catalog"
	"roshi/internal/logger"
	"roshi/internal/scanner"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultAlertLimit = 50
	maxAlertLimit     = 500
)

// ReportSource exposes the last scan cycle.
type ReportSource interface {
	LastReport() (scanner.CycleReport, bool)
}

// CatalogSource exposes the active catalog.
type CatalogSource interface {
	Snapshot() catalog.Snapshot
}

type Config struct {
	Addr     string
	Reports  ReportSource
	Alerts   alert.Store
	Catalog  CatalogSource
	Gatherer prometheus.Gatherer
}

type Server struct {
	addr    string
	router  *gin.Engine
	reports ReportSource
	alerts  alert.Store
	catalog CatalogSource
	started time.Time
}

func NewServer(cfg Config) (*Server, error) {
	if cfg.Reports == nil {
		return nil, errors.New("status server requires a report source")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9991"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	s := &Server{
		addr:    cfg.Addr,
		router:  router,
		reports: cfg.Reports,
		alerts:  cfg.Alerts,
		catalog: cfg.Catalog,
		started: time.Now(),
	}
	router.GET("/healthz", s.handleHealth)
	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}
	api := router.Group("/api")
	api.GET("/scan/last", s.handleLastScan)
	api.GET("/alerts", s.handleAlerts)
	api.GET("/catalog", s.handleCatalog)
	return s, nil
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{
		"status": "ok",
		"uptime": time.Since(s.started).Truncate(time.Second).String(),
	}
	if last, ok := s.reports.LastReport(); ok {
		body["last_cycle"] = last.FinishedAt
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleLastScan(c *gin.Context) {
	last, ok := s.reports.LastReport()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no scan cycle has run yet"})
		return
	}
	c.JSON(http.StatusOK, last)
}

func (s *Server) handleAlerts(c *gin.Context) {
	if s.alerts == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "alert store not configured"})
		return
	}
	limit := defaultAlertLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxAlertLimit)
	}
	records, err := s.alerts.List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if records == nil {
		records = []alert.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"alerts": records})
}

func (s *Server) handleCatalog(c *gin.Context) {
	if s.catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "catalog not configured"})
		return
	}
	c.JSON(http.StatusOK, s.catalog.Snapshot())
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), c.ClientIP(), time.Since(start))
	}
}

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("status server listening on %s", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
