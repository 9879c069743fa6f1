package handler

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/kpetrou/tcp-balancer/internal/httpmsg"
	"github.com/kpetrou/tcp-balancer/internal/metrics"
	"github.com/kpetrou/tcp-balancer/internal/ratelimit"
	"github.com/kpetrou/tcp-balancer/internal/router"
)

// ConnectionHandler serves one client connection: it binds the connection to
// a single upstream and relays requests and responses sequentially until the
// client hangs up or the session hits a fatal error.
type ConnectionHandler struct {
	logger    *slog.Logger
	router    *router.Router
	limiter   ratelimit.Strategy
	collector *metrics.Collector
}

func New(logger *slog.Logger, rtr *router.Router, limiter ratelimit.Strategy, collector *metrics.Collector) *ConnectionHandler {
	return &ConnectionHandler{
		logger:    logger,
		router:    rtr,
		limiter:   limiter,
		collector: collector,
	}
}

// Handle runs the relay loop for one accepted client connection. It closes
// both sockets before returning.
func (h *ConnectionHandler) Handle(clientConn net.Conn) {
	defer clientConn.Close()

	clientIP := ipOf(clientConn.RemoteAddr())
	h.logger.Info("Connection received", slog.String("client", clientIP))

	upstreamConn, upstreamAddr, err := h.router.Route()
	if err != nil {
		h.logger.Warn("No live upstream available", slog.String("client", clientIP))
		h.sendResponse(clientConn, clientIP, httpmsg.ErrorResponse(http.StatusBadGateway))
		return
	}
	defer upstreamConn.Close()

	clientReader := bufio.NewReader(clientConn)
	upstreamReader := bufio.NewReader(upstreamConn)

	for {
		req, err := httpmsg.ReadRequest(clientReader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				h.logger.Debug("Client finished sending requests, shutting down connection",
					slog.String("client", clientIP))
				return
			}
			if errors.Is(err, httpmsg.ErrConnection) {
				h.logger.Info("Error reading request from client",
					slog.String("client", clientIP),
					slog.Any("err", err))
				return
			}

			h.logger.Debug("Error parsing request",
				slog.String("client", clientIP),
				slog.Any("err", err))
			h.sendResponse(clientConn, clientIP, httpmsg.ErrorResponse(requestErrorStatus(err)))
			continue
		}

		h.logger.Info("Received request",
			slog.String("client", clientIP),
			slog.String("upstream", upstreamAddr),
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path))

		if !h.limiter.Allow(clientIP) {
			h.logger.Info("Rate limit exceeded",
				slog.String("client", clientIP))
			h.collector.Emit(metrics.MetricEvent{
				Type:      metrics.EventRequestDenied,
				Timestamp: time.Now(),
			})
			h.sendResponse(clientConn, clientIP, httpmsg.ErrorResponse(http.StatusTooManyRequests))
			continue
		}

		httpmsg.ExtendHeader(req, "X-Forwarded-For", clientIP)

		start := time.Now()
		if err := httpmsg.WriteRequest(req, upstreamConn); err != nil {
			h.logger.Error("Failed to send request to upstream",
				slog.String("upstream", upstreamAddr),
				slog.Any("err", err))
			h.sendResponse(clientConn, clientIP, httpmsg.ErrorResponse(http.StatusBadGateway))
			return
		}

		h.logger.Debug("Forwarded request to upstream",
			slog.String("upstream", upstreamAddr))
		h.collector.Emit(metrics.MetricEvent{
			Type:      metrics.EventRequestForwarded,
			Timestamp: time.Now(),
			Upstream:  upstreamAddr,
		})

		resp, err := httpmsg.ReadResponse(upstreamReader, req.Method)
		if err != nil {
			h.logger.Error("Error reading response from upstream",
				slog.String("upstream", upstreamAddr),
				slog.Any("err", err))
			h.sendResponse(clientConn, clientIP, httpmsg.ErrorResponse(http.StatusBadGateway))
			return
		}

		h.sendResponse(clientConn, clientIP, resp)
		h.collector.Emit(metrics.MetricEvent{
			Type:       metrics.EventResponseRelayed,
			Timestamp:  time.Now(),
			Upstream:   upstreamAddr,
			Duration:   time.Since(start),
			StatusCode: resp.StatusCode,
		})
		h.logger.Debug("Forwarded response to client",
			slog.String("client", clientIP))
	}
}

func (h *ConnectionHandler) sendResponse(conn net.Conn, clientIP string, resp *http.Response) {
	h.logger.Info("Sending response",
		slog.String("client", clientIP),
		slog.Int("status", resp.StatusCode))

	if err := httpmsg.WriteResponse(resp, conn); err != nil {
		h.logger.Warn("Failed to send response to client",
			slog.String("client", clientIP),
			slog.Any("err", err))
	}
}

// requestErrorStatus maps a request framing error to the client-visible
// status. Oversized bodies get 413, everything else 400.
func requestErrorStatus(err error) int {
	if errors.Is(err, httpmsg.ErrBodyTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func ipOf(addr net.Addr) string {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
