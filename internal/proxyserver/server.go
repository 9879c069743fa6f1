package proxyserver

import (
	"errors"
	"log/slog"
	"net"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// ConnHandler serves one accepted client connection.
type ConnHandler interface {
	Handle(conn net.Conn)
}

// Server accepts TCP connections on the bind address and spawns one handler
// goroutine per connection. There is no graceful drain: Shutdown closes the
// listener and in-flight sessions run to their own completion.
type Server struct {
	addr    string
	handler ConnHandler
	logger  *slog.Logger

	mutex    sync.Mutex
	listener net.Listener
	closed   bool
}

// New creates a server for the given bind address. The address is validated
// before any socket is opened.
func New(addr string, handler ConnHandler, logger *slog.Logger) (*Server, error) {
	if err := validateHost(addr); err != nil {
		return nil, err
	}

	return &Server{
		addr:    addr,
		handler: handler,
		logger:  logger,
	}, nil
}

// Start binds the listening socket and accepts connections until Shutdown
// is called. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	if s.closed {
		s.mutex.Unlock()
		return ln.Close()
	}
	s.listener = ln
	s.mutex.Unlock()

	s.logger.Info("Listening for requests", slog.String("address", s.addr))

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		go s.handler.Handle(conn)
	}
}

// Shutdown stops accepting new connections by closing the listener.
func (s *Server) Shutdown() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.closed = true
	if s.listener == nil {
		return nil
	}

	return s.listener.Close()
}

func validateHost(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cant be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}
