package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/KaramelBytes/orderlens-cli/internal/dataset"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// Options configures the dashboard.
type Options struct {
	// gin mode: debug, release or test. Empty keeps gin's current mode.
	Mode string
	// Number of categories charted per city.
	TopN int
	// Variables preselected in the correlation view.
	DefaultVars []string
	// Access log destination; nil uses gin.DefaultWriter.
	LogOutput io.Writer
}

type Server struct {
	router *gin.Engine
	table  *dataset.Table
	opts   Options
}

// NewServer creates a new server instance over a loaded table.
func NewServer(t *dataset.Table, opts Options) *Server {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	if opts.TopN <= 0 {
		opts.TopN = 10
	}
	if len(opts.DefaultVars) == 0 {
		opts.DefaultVars = []string{
			string(dataset.ProductWeight),
			string(dataset.FreightValue),
			string(dataset.ReviewScore),
		}
	}
	logOut := opts.LogOutput
	if logOut == nil {
		logOut = gin.DefaultWriter
	}

	router := gin.New()
	router.Use(requestID(), gin.LoggerWithWriter(logOut), gin.Recovery())

	server := &Server{
		router: router,
		table:  t,
		opts:   opts,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures the page and API routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.index)

	api := s.router.Group("/api")
	{
		api.GET("/health", s.healthCheck)
		api.GET("/cities", s.cities)
		api.GET("/categories", s.categories)
		api.GET("/correlation", s.correlation)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// requestID tags every request with an X-Request-ID, keeping one supplied by
// the client.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
