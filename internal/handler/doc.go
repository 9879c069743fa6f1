// Package handler implements the per-connection relay loop of the proxy.
// It coordinates upstream routing, rate limiting, request forwarding and
// response relaying for one client connection at a time.
package handler
