// Package server streams rebuilt meshes to websocket clients.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Faultbox/geoidmesh/internal/config"
	"github.com/Faultbox/geoidmesh/internal/logger"
	"github.com/Faultbox/geoidmesh/internal/mesh"
	"github.com/Faultbox/geoidmesh/internal/metrics"
	"github.com/Faultbox/geoidmesh/internal/rebuild"
	"github.com/Faultbox/geoidmesh/internal/render"
)

// ErrRateLimited is sent to a client that asks for rebuilds too often.
var ErrRateLimited = errors.New("rate limited")

// Server owns the rebuild worker and the connected clients.
type Server struct {
	cfg      config.ServerConfig
	place    render.Placement
	view     render.View
	metrics  *metrics.Collector
	coord    *rebuild.Coordinator
	upgrader websocket.Upgrader
	log      *zap.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}

	// pubMu orders the snapshot a new client receives against broadcasts.
	pubMu  sync.Mutex
	latest []byte // guarded by pubMu
}

// New wires a server around builder. Attach m to the builder with
// mesh.WithObserver to also record build metrics.
func New(cfg *config.Config, builder *mesh.Builder, m *metrics.Collector) *Server {
	s := &Server{
		cfg:     cfg.Server,
		place:   cfg.Placement(),
		view:    cfg.View(),
		metrics: m,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log:     logger.Named("server"),
		clients: make(map[*client]struct{}),
	}
	s.coord = rebuild.New(builder.Build, s.publish,
		rebuild.OnSuperseded(m.RebuildSuperseded),
	)
	return s
}

// Coordinator returns the rebuild worker. Run starts it; tests may run it
// directly.
func (s *Server) Coordinator() *rebuild.Coordinator {
	return s.coord
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.Handle("/metrics", s.metrics.Handler())
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Run builds the initial mesh at initialShift, then serves until ctx is
// cancelled and shuts down gracefully.
func (s *Server) Run(ctx context.Context, initialShift float64) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln, initialShift)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, initialShift float64) error {
	httpSrv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.coord.Run(ctx)
	})
	g.Go(func() error {
		s.log.Info("listening", zap.String("addr", ln.Addr().String()))
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		s.log.Info("shutting down")
		s.closeClients()
		return httpSrv.Shutdown(shutdownCtx)
	})

	s.coord.Request(initialShift)
	return g.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	if s.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(s.cfg.MaxMessageBytes)
	}

	c := &client{
		conn:    conn,
		limiter: rate.NewLimiter(rate.Limit(s.cfg.RequestsPerSec), s.cfg.Burst),
		timeout: s.cfg.WriteTimeout,
	}
	s.attach(c)
	defer s.unregister(c)

	log := s.log.With(zap.String("remote", conn.RemoteAddr().String()))
	log.Debug("client connected")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		s.metrics.MessageReceived("rebuild")

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			s.sendError(c, 0, fmt.Errorf("invalid request: %w", err))
			continue
		}
		shift, err := req.Shift()
		if err != nil {
			s.sendError(c, 0, err)
			continue
		}
		if !c.limiter.Allow() {
			s.metrics.RateLimited()
			s.sendError(c, 0, ErrRateLimited)
			continue
		}

		seq := s.coord.Request(shift)
		log.Debug("rebuild requested", zap.Float64("phase_shift", shift), zap.Uint64("seq", seq))
	}
}

// publish receives rebuild results on the worker goroutine.
func (s *Server) publish(r rebuild.Result) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	if r.Err != nil {
		s.log.Warn("rebuild failed", zap.Uint64("seq", r.Seq), zap.Error(r.Err))
		s.broadcast(TypeError, newError(r.Seq, r.Err))
		return
	}

	update, err := newMeshUpdate(r.Seq, r.Mesh, s.place, s.view)
	if err != nil {
		s.log.Error("packing mesh", zap.Uint64("seq", r.Seq), zap.Error(err))
		return
	}
	data, err := json.Marshal(update)
	if err != nil {
		s.log.Error("encoding mesh update", zap.Error(err))
		return
	}

	s.latest = data
	s.broadcastRaw(TypeMeshUpdate, data)
}

// attach registers c and sends it the latest mesh. A publish running at the
// same time either lands before the snapshot is taken or is broadcast to c
// after it, so c never ends on an older mesh.
func (s *Server) attach(c *client) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.register(c)
	if s.latest != nil {
		s.write(c, TypeMeshUpdate, s.latest)
	}
}

func (s *Server) register(c *client) {
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.metrics.ConnectionOpened()
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	s.mu.Unlock()
	if ok {
		s.metrics.ConnectionClosed()
	}
	c.conn.Close()
}

func (s *Server) snapshot() []*client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		out = append(out, c)
	}
	return out
}

func (s *Server) closeClients() {
	for _, c := range s.snapshot() {
		c.close()
	}
}

func (s *Server) broadcast(msgType string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Error("encoding message", zap.String("type", msgType), zap.Error(err))
		return
	}
	s.broadcastRaw(msgType, data)
}

func (s *Server) broadcastRaw(msgType string, data []byte) {
	for _, c := range s.snapshot() {
		s.write(c, msgType, data)
	}
}

func (s *Server) sendError(c *client, seq uint64, err error) {
	data, mErr := json.Marshal(newError(seq, err))
	if mErr != nil {
		return
	}
	s.write(c, TypeError, data)
}

func (s *Server) write(c *client, msgType string, data []byte) {
	if err := c.send(data); err != nil {
		s.log.Debug("websocket write failed", zap.String("type", msgType), zap.Error(err))
		return
	}
	s.metrics.MessageSent(msgType, len(data))
}
