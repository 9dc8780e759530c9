package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zhubert/cubensis-link/logger"
)

// shutdownTimeout bounds graceful shutdown in ListenAndServe.
const shutdownTimeout = 5 * time.Second

// ServerHandler answers one decoded request.
type ServerHandler func(req Request) Response

// DefaultHandler acknowledges SetProject the way Cubensis does.
func DefaultHandler(req Request) Response {
	switch req.(type) {
	case SetProjectRequest:
		return Success("Successfully loaded scene", SeverityInfo)
	default:
		return Failure("unsupported request "+req.Kind(), SeverityError)
	}
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the server's logger.
func WithServerLogger(log *slog.Logger) ServerOption {
	return func(s *Server) {
		s.log = log
	}
}

// Server is a stand-in for the Cubensis side of the protocol, serving
// websocket upgrades on /socket. It is used for local development and tests.
type Server struct {
	handler  ServerHandler
	upgrader websocket.Upgrader
	log      *slog.Logger
	mux      *http.ServeMux
}

// NewServer returns a Server that answers each request with handler. A nil
// handler means DefaultHandler.
func NewServer(handler ServerHandler, opts ...ServerOption) *Server {
	if handler == nil {
		handler = DefaultHandler
	}
	s := &Server{
		handler: handler,
		upgrader: websocket.Upgrader{
			// Editors and tools connect from arbitrary local origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		mux: http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.WithComponent("rpc-server")
	}
	s.mux.HandleFunc("/socket", s.handleSocket)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s, ReadHeaderTimeout: HandshakeTimeout}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	log := s.log.With("remote", r.RemoteAddr)
	log.Info("client connected")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("read error", "error", err)
			}
			log.Info("client disconnected")
			return
		}

		req, err := DecodeRequest(data)
		if err != nil {
			log.Debug("skipping undecodable frame", "error", err)
			continue
		}
		log.Debug("received request", "kind", req.Kind())

		out, err := json.Marshal(s.handler(req))
		if err != nil {
			log.Error("failed to encode response", "error", err)
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
			log.Warn("write error", "error", err)
			return
		}
	}
}
