// Package upstream tracks the liveness of the configured upstream servers.
// The pool is built once at startup; addresses and their indices never change
// afterwards, only the per-index alive flag does.
package upstream
