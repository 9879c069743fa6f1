// Package httpmsg reads and writes HTTP/1.x messages on raw TCP streams.
// It wraps the net/http wire codecs, buffers message bodies fully in memory
// so they can be relayed verbatim, and classifies read failures into the
// error categories the proxy maps to client-visible status codes.
package httpmsg
