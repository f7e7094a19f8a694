// FILE: trafficview/src/internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"trafficview/src/internal/auth"
	"trafficview/src/internal/config"
	"trafficview/src/internal/limit"
	"trafficview/src/internal/reload"
	"trafficview/src/internal/tls"
	"trafficview/src/internal/version"

	"github.com/dustin/go-humanize"
	"github.com/lixenwraith/log"
	"github.com/lixenwraith/log/compat"
	"github.com/valyala/fasthttp"
)

const (
	shutdownTimeout   = 2 * time.Second
	startupGrace      = 100 * time.Millisecond
	configTestTimeout = 30 * time.Second
)

// Server exposes queries, exports, reloads and configuration over HTTP
type Server struct {
	// Server section as it was at startup; changes need a restart
	config config.ServerConfig

	store      *config.Store
	controller *reload.Controller
	prober     config.Prober
	logger     *log.Logger

	// Runtime
	server    *fasthttp.Server
	baseCtx   context.Context
	startTime time.Time
	exports   *exportCache

	// Security components
	authenticator *auth.Authenticator
	tlsManager    *tls.Manager
	limiter       *limit.Limiter

	// Statistics
	totalRequests atomic.Uint64
	authFailures  atomic.Uint64
	authSuccesses atomic.Uint64
}

// New wires the API around a controller and the config store it reads from.
func New(store *config.Store, controller *reload.Controller, prober config.Prober, logger *log.Logger) (*Server, error) {
	if store == nil || controller == nil {
		return nil, fmt.Errorf("server requires a config store and a controller")
	}
	cfg := store.Get().Server

	s := &Server{
		config:     cfg,
		store:      store,
		controller: controller,
		prober:     prober,
		logger:     logger,
		baseCtx:    context.Background(),
		startTime:  time.Now(),
		exports:    newExportCache(int(cfg.ExportCacheSize)),
	}

	tlsManager, err := tls.NewManager(&cfg.TLS, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create TLS manager: %w", err)
	}
	s.tlsManager = tlsManager

	authenticator, err := auth.New(cfg.Auth, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticator: %w", err)
	}
	s.authenticator = authenticator
	if authenticator != nil && tlsManager == nil {
		logger.Warn("msg", "Authentication enabled without TLS, credentials travel in clear text",
			"component", "server",
			"auth_type", cfg.Auth.Type)
	}

	s.limiter = limit.New(cfg.RateLimit, logger)

	return s, nil
}

// Handler returns the request router without a listener.
func (s *Server) Handler() fasthttp.RequestHandler {
	return s.requestHandler
}

// Start listens in the background until ctx is cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	s.baseCtx = ctx

	s.server = &fasthttp.Server{
		Name:               version.UserAgent(),
		Handler:            s.requestHandler,
		Logger:             compat.NewFastHTTPAdapter(s.logger),
		ReadTimeout:        time.Duration(s.config.ReadTimeoutMS) * time.Millisecond,
		WriteTimeout:       time.Duration(s.config.WriteTimeoutMS) * time.Millisecond,
		MaxRequestBodySize: int(s.config.MaxRequestBodySize),
		TLSConfig:          s.tlsManager.GetHTTPConfig(),
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("msg", "HTTP server started",
			"component", "server",
			"host", s.config.Host,
			"port", s.config.Port,
			"tls_enabled", s.tlsManager != nil,
			"auth_enabled", s.authenticator != nil)

		var err error
		if s.tlsManager != nil {
			// Certificates are already in TLSConfig
			err = s.server.ListenAndServeTLS(addr, "", "")
		} else {
			err = s.server.ListenAndServe(addr)
		}
		if err != nil {
			errChan <- err
		}
	}()

	go func() {
		<-ctx.Done()
		s.shutdownServer()
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("failed to start HTTP server on %s: %w", addr, err)
	case <-time.After(startupGrace):
		return nil
	}
}

// Stop shuts the listener down and releases limiter and auth state.
func (s *Server) Stop() {
	s.logger.Info("msg", "Stopping HTTP server", "component", "server")

	s.shutdownServer()
	s.limiter.Shutdown()
	s.authenticator.Stop()

	s.logger.Info("msg", "HTTP server stopped", "component", "server")
}

func (s *Server) shutdownServer() {
	if s.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.ShutdownWithContext(ctx); err != nil {
		s.logger.Debug("msg", "HTTP server shutdown incomplete",
			"component", "server",
			"error", err)
	}
}

func (s *Server) requestHandler(ctx *fasthttp.RequestCtx) {
	s.totalRequests.Add(1)
	remoteAddr := ctx.RemoteAddr().String()

	if allowed, statusCode, message := s.limiter.CheckHTTP(remoteAddr); !allowed {
		s.logger.Warn("msg", "Rate limited",
			"component", "server",
			"remote_addr", remoteAddr,
			"status_code", statusCode)
		writeError(ctx, statusCode, message)
		return
	}

	path := string(ctx.Path())

	if !s.authenticator.IsPublic(path) {
		authHeader := string(ctx.Request.Header.Peek("Authorization"))
		identity, err := s.authenticator.AuthenticateHTTP(authHeader, remoteAddr)
		if err != nil {
			s.authFailures.Add(1)
			s.logger.Warn("msg", "Authentication failed",
				"component", "server",
				"remote_addr", remoteAddr,
				"path", path,
				"error", err)
			ctx.Response.Header.Set("WWW-Authenticate", s.authenticator.Challenge())
			writeError(ctx, fasthttp.StatusUnauthorized, "Unauthorized")
			return
		}
		if identity != nil {
			s.authSuccesses.Add(1)
			s.logger.Debug("msg", "Request authenticated",
				"component", "server",
				"user", identity.Username,
				"method", identity.Method,
				"path", path)
		}
	}

	method := string(ctx.Method())
	switch path {
	case "/data":
		if requireMethod(ctx, method, fasthttp.MethodGet) {
			s.handleQuery(ctx)
		}
	case "/data.json":
		if requireMethod(ctx, method, fasthttp.MethodGet) {
			s.handleExport(ctx, "json")
		}
	case "/data.ndjson":
		if requireMethod(ctx, method, fasthttp.MethodGet) {
			s.handleExport(ctx, "ndjson")
		}
	case "/data.csv":
		if requireMethod(ctx, method, fasthttp.MethodGet) {
			s.handleExport(ctx, "csv")
		}
	case "/reload":
		if requireMethod(ctx, method, fasthttp.MethodPost) {
			s.handleReload(ctx)
		}
	case "/status":
		if requireMethod(ctx, method, fasthttp.MethodGet) {
			s.handleStatus(ctx)
		}
	case "/config":
		switch method {
		case fasthttp.MethodGet:
			s.handleGetConfig(ctx)
		case fasthttp.MethodPut, fasthttp.MethodPatch:
			s.handleSetConfig(ctx)
		default:
			ctx.Response.Header.Set("Allow", "GET, PUT, PATCH")
			writeError(ctx, fasthttp.StatusMethodNotAllowed, "Method not allowed")
		}
	case "/config/test":
		if requireMethod(ctx, method, fasthttp.MethodPost) {
			s.handleTestConfig(ctx)
		}
	default:
		writeJSON(ctx, fasthttp.StatusNotFound, map[string]any{
			"error": "Not Found",
			"endpoints": []string{
				"GET /data", "GET /data.json", "GET /data.ndjson", "GET /data.csv",
				"POST /reload", "GET /status",
				"GET /config", "PUT /config", "POST /config/test",
			},
		})
	}
}

func (s *Server) handleStatus(ctx *fasthttp.RequestCtx) {
	stats := s.controller.Stats()

	status := map[string]any{
		"service": "TrafficView",
		"version": version.Get(),
		"server": map[string]any{
			"host":       s.config.Host,
			"port":       s.config.Port,
			"start_time": s.startTime.UTC(),
			"uptime":     humanize.RelTime(s.startTime, time.Now(), "", ""),
		},
		"reload": stats,
		"features": map[string]any{
			"auth":       s.authenticator.GetStats(),
			"tls":        s.tlsManager.GetStats(),
			"rate_limit": s.limiter.GetStats(),
		},
		"statistics": map[string]any{
			"total_requests": s.totalRequests.Load(),
			"auth_failures":  s.authFailures.Load(),
			"auth_successes": s.authSuccesses.Load(),
			"export_cache":   s.exports.stats(),
		},
	}

	writeJSON(ctx, fasthttp.StatusOK, status)
}

func requireMethod(ctx *fasthttp.RequestCtx, method, want string) bool {
	if method == want || (want == fasthttp.MethodGet && method == fasthttp.MethodHead) {
		return true
	}
	ctx.Response.Header.Set("Allow", want)
	writeError(ctx, fasthttp.StatusMethodNotAllowed, "Method not allowed")
	return false
}

func writeJSON(ctx *fasthttp.RequestCtx, statusCode int, v any) {
	ctx.SetStatusCode(statusCode)
	ctx.SetContentType("application/json")
	json.NewEncoder(ctx).Encode(v)
}

func writeError(ctx *fasthttp.RequestCtx, statusCode int, message string) {
	writeJSON(ctx, statusCode, map[string]any{"error": message})
}
