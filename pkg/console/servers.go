package console

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/lidargate/pkg/framework"
)

// Stdio serves the console on a reader/writer pair, e.g. stdin/stdout.
type Stdio struct {
	In  io.Reader
	Out io.Writer
}

// AddToLoop implements fx.LoopAdder.
func (s *Stdio) AddToLoop(l *fx.Loop) {
	l.AddRunnable(fx.NamedRun("console-stdio", s))
}

// Run implements fx.Runnable. The blocking read is abandoned, not
// interrupted, when ctx is done.
func (s *Stdio) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- Serve(ctx, "stdio", NewStreamLines(s.In, s.Out))
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TCPServer serves line consoles to TCP clients.
type TCPServer struct {
	Addr string

	lock     sync.Mutex
	listener net.Listener
	readyCh  chan struct{}
}

// NewTCPServer creates a TCPServer.
func NewTCPServer(addr string) *TCPServer {
	return &TCPServer{Addr: addr, readyCh: make(chan struct{})}
}

// AddToLoop implements fx.LoopAdder.
func (s *TCPServer) AddToLoop(l *fx.Loop) {
	l.AddRunnable(fx.NamedRun("console-tcp", s))
}

// ListenAddr waits until the server is listening and returns the address.
func (s *TCPServer) ListenAddr(ctx context.Context) (net.Addr, error) {
	select {
	case <-s.readyCh:
		s.lock.Lock()
		defer s.lock.Unlock()
		return s.listener.Addr(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run implements fx.Runnable.
func (s *TCPServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.lock.Lock()
	s.listener = ln
	s.lock.Unlock()
	close(s.readyCh)
	glog.Infof("console listening on tcp %s", ln.Addr())

	var conns sync.WaitGroup
	defer conns.Wait()
	return fx.RunWithContextCloser(ctx, ln, func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return err
			}
			conns.Add(1)
			go func() {
				defer conns.Done()
				s.serveConn(ctx, conn)
			}()
		}
	})
}

func (s *TCPServer) serveConn(ctx context.Context, conn net.Conn) {
	source := "tcp:" + conn.RemoteAddr().String()
	glog.V(1).Infof("%s connected", source)
	err := fx.RunWithContextCloser(ctx, conn, func() error {
		return Serve(ctx, source, NewStreamLines(conn, conn))
	})
	glog.V(1).Infof("%s disconnected: %v", source, err)
}

// WebsocketServer serves the console over websocket at Path.
type WebsocketServer struct {
	Addr string
	Path string
}

// DefaultWebsocketPath is the path served when Path is empty.
const DefaultWebsocketPath = "/console"

// AddToLoop implements fx.LoopAdder.
func (s *WebsocketServer) AddToLoop(l *fx.Loop) {
	l.AddRunnable(fx.NamedRun("console-ws", s))
}

// Handler returns the websocket handler bound to the loop in ctx.
func (s *WebsocketServer) Handler(ctx context.Context) http.Handler {
	return websocket.Handler(func(conn *websocket.Conn) {
		source := "ws:" + conn.Request().RemoteAddr
		glog.V(1).Infof("%s connected", source)
		err := fx.RunWithContextCloser(ctx, conn, func() error {
			return Serve(ctx, source, NewWebsocketLines(conn))
		})
		glog.V(1).Infof("%s disconnected: %v", source, err)
	})
}

// Run implements fx.Runnable.
func (s *WebsocketServer) Run(ctx context.Context) error {
	path := s.Path
	if path == "" {
		path = DefaultWebsocketPath
	}
	mux := http.NewServeMux()
	mux.Handle(path, s.Handler(ctx))
	server := &http.Server{Addr: s.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	glog.Infof("console listening on ws://%s%s", s.Addr, path)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			glog.Warningf("console ws shutdown: %v", err)
		}
		return ctx.Err()
	}
}
