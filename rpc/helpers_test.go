package rpc

import (
	"bytes"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/zhubert/cubensis-link/config"
)

type note struct {
	channel string
	message string
}

// recordingNotifier captures every notification in order.
type recordingNotifier struct {
	mu    sync.Mutex
	notes []note
}

func (r *recordingNotifier) Info(m string)  { r.add("info", m) }
func (r *recordingNotifier) Warn(m string)  { r.add("warn", m) }
func (r *recordingNotifier) Error(m string) { r.add("error", m) }

func (r *recordingNotifier) add(channel, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note{channel, message})
}

func (r *recordingNotifier) all() []note {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]note(nil), r.notes...)
}

func (r *recordingNotifier) count(channel, message string) int {
	n := 0
	for _, got := range r.all() {
		if got.channel == channel && got.message == message {
			n++
		}
	}
	return n
}

// syncBuffer is a goroutine-safe log sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) lines() []string {
	return strings.Split(strings.TrimSpace(b.String()), "\n")
}

func newCaptureLogger() (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

// peer is the Cubensis end of a test connection. It records every frame the
// client sends and exposes the accepted connection so tests can push frames.
type peer struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader
	conns    chan *websocket.Conn

	mu     sync.Mutex
	frames []string
}

func newPeer(t *testing.T) *peer {
	t.Helper()
	p := &peer{conns: make(chan *websocket.Conn, 4)}
	mux := http.NewServeMux()
	mux.HandleFunc("/socket", func(w http.ResponseWriter, r *http.Request) {
		conn, err := p.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		p.conns <- conn
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			p.mu.Lock()
			p.frames = append(p.frames, string(data))
			p.mu.Unlock()
		}
	})
	p.srv = httptest.NewServer(mux)
	t.Cleanup(p.srv.Close)
	return p
}

func (p *peer) config(t *testing.T) config.Configuration {
	t.Helper()
	return configFor(t, p.srv.URL)
}

func (p *peer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-p.conns:
		t.Cleanup(func() { conn.Close() })
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("client never connected")
		return nil
	}
}

func (p *peer) received() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.frames...)
}

func configFor(t *testing.T, rawURL string) config.Configuration {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return config.Configuration{Host: host, Port: port}
}

// unusedPort returns a loopback port with nothing listening on it.
func unusedPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}
