package httpmsg

import "errors"

// MaxBodySize is the largest request body the proxy will buffer.
const MaxBodySize = 10 << 20

var (
	// ErrMalformed indicates a request that could not be parsed, including
	// requests cut off mid-message.
	ErrMalformed = errors.New("malformed request")

	// ErrBodyTooLarge indicates a request body exceeding MaxBodySize.
	ErrBodyTooLarge = errors.New("request body too large")

	// ErrLengthMismatch indicates a body shorter than its declared
	// Content-Length.
	ErrLengthMismatch = errors.New("content length mismatch")

	// ErrConnection indicates a transport-level failure on the stream.
	ErrConnection = errors.New("connection error")
)
