package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bazelment/yoloswe/ptystream/ptyparse"
	"github.com/bazelment/yoloswe/ptystream/sink"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Logger receives connection logs (default: slog.Default()).
	Logger *slog.Logger

	// AllowedOrigins are browser origins accepted besides localhost.
	AllowedOrigins []string

	// HistorySize is the number of events replayed to new clients
	// (default: sink.DefaultHistorySize).
	HistorySize int

	// ClientBufferSize is each client's queue length (default: 256).
	ClientBufferSize int

	// SourceBufferSize is the queue between the parser and the fan-out
	// loop (default: 1024).
	SourceBufferSize int
}

// ServerOption is a functional option for configuring a Server.
type ServerOption func(*ServerConfig)

// WithServerLogger sets the logger.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(c *ServerConfig) {
		c.Logger = logger
	}
}

// WithAllowedOrigins accepts additional browser origins.
func WithAllowedOrigins(origins ...string) ServerOption {
	return func(c *ServerConfig) {
		c.AllowedOrigins = append(c.AllowedOrigins, origins...)
	}
}

// WithHistorySize sets how many events are replayed to new clients.
func WithHistorySize(n int) ServerOption {
	return func(c *ServerConfig) {
		c.HistorySize = n
	}
}

// WithClientBufferSize sets each client's queue length.
func WithClientBufferSize(n int) ServerOption {
	return func(c *ServerConfig) {
		c.ClientBufferSize = n
	}
}

// Server streams events to WebSocket clients. It implements
// ptyparse.Sink; HandleEvent never blocks the parser.
type Server struct {
	logger      *slog.Logger
	history     *sink.History
	broadcaster *Broadcaster
	source      chan sink.Envelope
	upgrader    websocket.Upgrader
	cfg         ServerConfig
	seq         sink.Sequencer
	dropped     atomic.Int64
	clients     atomic.Int64
	mu          sync.Mutex
	running     bool
	closed      bool
}

// NewServer creates a server. Call Run (or ListenAndServe) to start the
// fan-out loop.
func NewServer(opts ...ServerOption) *Server {
	cfg := ServerConfig{
		HistorySize:      sink.DefaultHistorySize,
		ClientBufferSize: 256,
		SourceBufferSize: 1024,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Server{
		logger:      cfg.Logger,
		history:     sink.NewHistory(cfg.HistorySize),
		broadcaster: NewBroadcaster(cfg.Logger),
		source:      make(chan sink.Envelope, cfg.SourceBufferSize),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     allowOrigins(cfg.AllowedOrigins),
		},
		cfg: cfg,
	}
}

// HandleEvent numbers e, records it in the history and queues it for
// connected clients. Events are dropped if the fan-out loop falls behind
// or the server is closed; the history still has them.
func (s *Server) HandleEvent(e ptyparse.Event) {
	// Held exclusively so history order matches sequence order.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	env := s.seq.Next(e)
	s.history.Append(env)
	select {
	case s.source <- env:
	default:
		s.dropped.Add(1)
	}
}

// Dropped returns how many events were not queued for live delivery.
func (s *Server) Dropped() int64 {
	return s.dropped.Load()
}

// History returns the replay history.
func (s *Server) History() *sink.History {
	return s.history
}

// Run fans out events until ctx is cancelled or Close is called. It
// returns ErrServerClosed if the server was already closed.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrServerClosed
	}
	if s.running {
		s.mu.Unlock()
		return errors.New("remote server already running")
	}
	s.running = true
	s.mu.Unlock()

	s.broadcaster.Run(ctx, s.source)
	return nil
}

// Close stops accepting events and disconnects every client once queued
// events are delivered. Safe to call more than once.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.source)
	if !s.running {
		// No fan-out loop is left to disconnect clients.
		s.broadcaster.closeAll()
	}
}

// Handler returns the HTTP routes:
//
//	GET /events   WebSocket stream; ?since=N replays only events after seq N
//	GET /history  replay history as a JSON array
//	GET /healthz  liveness and client count
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", s.serveEvents)
	mux.HandleFunc("GET /history", s.serveHistory)
	mux.HandleFunc("GET /healthz", s.serveHealth)
	return mux
}

// ListenAndServe serves Handler on addr and runs the fan-out loop until
// ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is like ListenAndServe with an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := s.Run(runCtx); err != nil {
			s.logger.Warn("remote fan-out not started", "error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()
	s.logger.Info("remote server listening", "addr", ln.Addr().String())

	select {
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		s.Close()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	}
}

func (s *Server) serveEvents(w http.ResponseWriter, r *http.Request) {
	var since uint64
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid since", http.StatusBadRequest)
			return
		}
		since = n
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	c := newConn(ws)
	defer c.closeNow()

	s.clients.Add(1)
	defer s.clients.Add(-1)

	// Subscribe before reading the history so nothing falls in between;
	// live envelopes already covered by the replay are skipped.
	id, live := s.broadcaster.Subscribe(s.cfg.ClientBufferSize)
	defer s.broadcaster.Unsubscribe(id)

	go c.readLoop()
	s.logger.Debug("websocket client connected", "remote", r.RemoteAddr, "since", since)

	last := since
	for _, env := range s.history.Since(since) {
		if err := c.writeJSON(env); err != nil {
			s.logger.Debug("websocket write failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		last = env.Seq
	}

	for {
		select {
		case <-c.closeCh:
			s.logger.Debug("websocket client disconnected", "remote", r.RemoteAddr)
			return
		case env, ok := <-live:
			if !ok {
				c.closeWith(websocket.CloseNormalClosure, "stream ended")
				return
			}
			if env.Seq <= last {
				continue
			}
			if err := c.writeJSON(env); err != nil {
				s.logger.Debug("websocket write failed", "remote", r.RemoteAddr, "error", err)
				return
			}
			last = env.Seq
		}
	}
}

func (s *Server) serveHistory(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	envs := s.history.Snapshot()
	if envs == nil {
		envs = []sink.Envelope{}
	}
	if err := json.NewEncoder(w).Encode(envs); err != nil {
		s.logger.Debug("history write failed", "error", err)
	}
}

func (s *Server) serveHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":      true,
		"clients": s.clients.Load(),
		"events":  s.history.Len(),
		"dropped": s.Dropped(),
	})
}
