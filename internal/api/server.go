// Package api provides the HTTP API and WebSocket monitor for the
// knxlink gateway.
//
// It exposes gateway health, traffic statistics from the recorder, and
// a live bus-monitor stream over WebSocket.
//
// The server follows the same lifecycle pattern as other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/arlobright/knxlink/internal/cemi"
	"github.com/arlobright/knxlink/internal/infrastructure/config"
	"github.com/arlobright/knxlink/internal/infrastructure/logging"
	"github.com/arlobright/knxlink/internal/recorder"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// StatsProvider exposes recorded traffic statistics.
// Satisfied by *recorder.Recorder. Optional - if nil, the stats
// endpoint reports the recorder as disabled.
type StatsProvider interface {
	FrameCount(ctx context.Context) (int, error)
	ErrorCount(ctx context.Context) (int, error)
	MessageCodeStats(ctx context.Context) ([]recorder.MessageCodeStat, error)
}

// BrokerStatus reports MQTT connectivity for the health endpoint.
// Optional - if nil, broker state is omitted.
type BrokerStatus interface {
	IsConnected() bool
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	WS        config.WebSocketConfig
	Logger    *logging.Logger
	Interface string
	Stats     StatsProvider
	Broker    BrokerStatus
	Version   string
}

// Server is the HTTP API server for the knxlink gateway.
//
// It manages the HTTP listener, routes, middleware, and the WebSocket
// hub that streams live bus traffic to monitor clients.
type Server struct {
	cfg     config.APIConfig
	wsCfg   config.WebSocketConfig
	logger  *logging.Logger
	iface   string
	stats   StatsProvider
	broker  BrokerStatus
	version string
	server  *http.Server
	hub     *Hub
	cancel  context.CancelFunc
	started time.Time
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &Server{
		cfg:     deps.Config,
		wsCfg:   deps.WS,
		logger:  deps.Logger,
		iface:   deps.Interface,
		stats:   deps.Stats,
		broker:  deps.Broker,
		version: deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub and launches the HTTP listener in a
// background goroutine. The server is stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation of background goroutines
//
// Returns:
//   - error: If the server fails to start
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.wsCfg, s.logger)
	go s.hub.Run(srvCtx)

	s.started = time.Now()
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server started", "address", s.server.Addr)
	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}

// HandleFrame broadcasts a bus frame to monitor clients subscribed to
// the bus.frame channel. It satisfies device.FrameListener so main can
// wire it straight into the listener registry.
func (s *Server) HandleFrame(iface string, frame cemi.Frame) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(ChannelBusFrame, map[string]any{
		"interface":    iface,
		"message_code": frame.MessageCode().String(),
		"length":       frame.Length(),
		"payload":      fmt.Sprintf("%x", frame.Raw()),
	})
}
