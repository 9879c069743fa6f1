// Package proxyserver owns the proxy's listening socket. It validates the
// configured bind address, accepts client connections and hands each one to
// a connection handler in its own goroutine.
package proxyserver
