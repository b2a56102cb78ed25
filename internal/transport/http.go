package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler dispatches a JSON-RPC method. Returned *Error values are written
// as-is; any other error becomes an internal error.
type Handler interface {
	Handle(ctx context.Context, method string, params json.RawMessage) (any, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, method string, params json.RawMessage) (any, error)

func (f HandlerFunc) Handle(ctx context.Context, method string, params json.RawMessage) (any, error) {
	return f(ctx, method, params)
}

type serverConfig struct {
	auth     gin.HandlerFunc
	gatherer prometheus.Gatherer
	mounts   map[string]http.Handler
	logger   *slog.Logger
}

// ServerOption configures NewServer.
type ServerOption func(*serverConfig)

// WithAuth installs bearer authentication on the RPC and mounted routes.
func WithAuth(resolver PrincipalResolver) ServerOption {
	return func(c *serverConfig) {
		c.auth = AuthMiddleware(resolver)
	}
}

// WithMetrics exposes the gatherer at GET /metrics.
func WithMetrics(gatherer prometheus.Gatherer) ServerOption {
	return func(c *serverConfig) {
		c.gatherer = gatherer
	}
}

// WithMount serves h for every method under path.
func WithMount(path string, h http.Handler) ServerOption {
	return func(c *serverConfig) {
		c.mounts[path] = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(c *serverConfig) {
		c.logger = logger
	}
}

// Server wires HTTP handlers.
type Server struct {
	handler Handler
	logger  *slog.Logger
}

// NewServer creates the HTTP router: POST /rpc, GET /health and, when
// configured, GET /metrics and mounted handlers.
func NewServer(handler Handler, opts ...ServerOption) *gin.Engine {
	cfg := &serverConfig{mounts: make(map[string]http.Handler)}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(cfg.logger))

	srv := &Server{handler: handler, logger: cfg.logger}
	r.GET("/health", srv.handleHealth)
	if cfg.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.gatherer, promhttp.HandlerOpts{})))
	}

	authed := r.Group("/")
	if cfg.auth != nil {
		authed.Use(cfg.auth)
	}
	authed.POST("/rpc", srv.handleRPC)
	for path, h := range cfg.mounts {
		authed.Any(path, gin.WrapH(h))
	}

	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (s *Server) handleRPC(c *gin.Context) {
	req, err := ParseRequest(c.Request.Body)
	if err != nil {
		var rpcErr *Error
		if !errors.As(err, &rpcErr) {
			rpcErr = NewError(ErrInvalidReq, "invalid request")
		}
		WriteError(c.Writer, nil, rpcErr.Code, rpcErr.Message, nil)
		return
	}

	result, err := s.handler.Handle(c.Request.Context(), req.Method, req.Params)
	if err != nil {
		var rpcErr *Error
		if errors.As(err, &rpcErr) {
			WriteError(c.Writer, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
			return
		}
		s.logger.Error("rpc handler failed", "method", req.Method, "error", err)
		WriteError(c.Writer, req.ID, ErrInternal, err.Error(), nil)
		return
	}

	WriteResult(c.Writer, req.ID, result)
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
