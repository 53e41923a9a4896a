package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hexiro/spotify-to-musi/internal/shared"
	"golang.org/x/oauth2"
)

// CallbackServer hosts an [OAuthHandler] on the redirect URI's host and
// port for the duration of one authorization flow.
type CallbackServer struct {
	handler  *OAuthHandler
	logger   *log.Logger
	path     string
	srv      *http.Server
	listener net.Listener
}

// NewCallbackServer creates a server for the given redirect URI, e.g.
// "http://localhost:8903/callback". The server does not listen until
// [CallbackServer.Start] is called.
func NewCallbackServer(redirectURI string, handler *OAuthHandler, logger *log.Logger) (*CallbackServer, error) {
	parsed, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URI: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("invalid redirect URI: missing host in %q", redirectURI)
	}

	path := parsed.Path
	if path == "" {
		path = "/"
	}

	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	mux := http.NewServeMux()
	mux.Handle(path, Chain(handler, RequestLogging(logger)))

	return &CallbackServer{
		handler: handler,
		logger:  logger,
		path:    path,
		srv: &http.Server{
			Addr:              parsed.Host,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Start binds the listener and begins serving in the background. Bind
// errors, like the port already being taken, are returned synchronously.
func (s *CallbackServer) Start() error {
	listener, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind callback server: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("callback server failed", "error", err)
		}
	}()

	s.logger.Debug("callback server listening", "addr", listener.Addr().String(), "path", s.path)
	return nil
}

// Addr returns the bound address. Only valid after Start.
func (s *CallbackServer) Addr() string {
	if s.listener == nil {
		return s.srv.Addr
	}
	return s.listener.Addr().String()
}

// WaitForToken blocks until the authorization flow completes or the
// context expires.
func (s *CallbackServer) WaitForToken(ctx context.Context) (*oauth2.Token, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: no authorization callback received", shared.ErrTimeout)
	case result := <-s.handler.Result():
		if err := result.Error(); err != nil {
			return nil, err
		}
		return result.Token, nil
	}
}

// Shutdown gracefully stops the server.
func (s *CallbackServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
