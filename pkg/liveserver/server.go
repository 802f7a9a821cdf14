package liveserver

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

var (
	activeConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "autotrader_dashboard_connections",
		Help: "Current number of dashboard WebSocket connections",
	})

	rejectedConnections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autotrader_dashboard_rejected_total",
		Help: "Dashboard connections rejected",
	}, []string{"reason"})
)

func init() {
	prometheus.MustRegister(activeConnections)
	prometheus.MustRegister(rejectedConnections)
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Server exposes the hub over /ws plus a /health endpoint. It is meant for
// local dashboards; origin checking is disabled.
type Server struct {
	hub      *Hub
	srv      *http.Server
	logger   Logger
	upgrader websocket.Upgrader
	mu       sync.Mutex

	maxConnections int
	connSemaphore  chan struct{}

	// Per-IP connection rate limiting.
	ipLimiters sync.Map
	rateLimit  rate.Limit
	rateBurst  int
}

// NewServer creates a server around the given hub.
func NewServer(hub *Hub, logger Logger) *Server {
	s := &Server{
		hub:            hub,
		logger:         logger,
		maxConnections: 64,
		connSemaphore:  make(chan struct{}, 64),
		rateLimit:      10,
		rateBurst:      20,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(*http.Request) bool { return true },
	}
	return s
}

// Start serves until the context is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.mu.Lock()
	s.srv = &http.Server{Addr: addr, Handler: mux}
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("starting live server", "addr", addr)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return s.Stop(context.Background())
	}
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv == nil {
		return nil
	}
	if s.logger != nil {
		s.logger.Info("stopping live server")
	}
	return s.srv.Shutdown(ctx)
}

// Broadcast forwards a message to every connected client.
func (s *Server) Broadcast(msgType string, data interface{}) {
	s.hub.Broadcast(Message{Type: msgType, Data: data})
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	return s.hub.ClientCount()
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.ipLimiter(remoteIP(r)).Allow() {
		rejectedConnections.WithLabelValues("rate_limit").Inc()
		http.Error(w, "Too many requests", http.StatusTooManyRequests)
		return
	}

	select {
	case s.connSemaphore <- struct{}{}:
		activeConnections.Inc()
		defer func() {
			<-s.connSemaphore
			activeConnections.Dec()
		}()
	default:
		rejectedConnections.WithLabelValues("connection_limit").Inc()
		http.Error(w, "Server busy", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("websocket upgrade failed", "error", err)
		}
		return
	}

	client := NewClient(uuid.NewString())
	s.hub.Register(client)
	if s.logger != nil {
		s.logger.Info("client connected", "client_id", client.id, "remote_addr", r.RemoteAddr)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.writePump(conn, client)
	}()
	go func() {
		defer wg.Done()
		s.readPump(conn, client)
	}()
	wg.Wait()

	s.hub.Unregister(client)
	conn.Close()
	if s.logger != nil {
		s.logger.Info("client disconnected", "client_id", client.id)
	}
}

func (s *Server) writePump(conn *websocket.Conn, client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-client.Outbox():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains the connection; clients only send pongs.
func (s *Server) readPump(conn *websocket.Conn, client *Client) {
	defer s.hub.Unregister(client)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
		"time":    time.Now().Unix(),
	})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) ipLimiter(ip string) *rate.Limiter {
	if val, ok := s.ipLimiters.Load(ip); ok {
		return val.(*rate.Limiter)
	}
	actual, _ := s.ipLimiters.LoadOrStore(ip, rate.NewLimiter(s.rateLimit, s.rateBurst))
	return actual.(*rate.Limiter)
}
