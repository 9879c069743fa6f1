package httpmsg

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
)

// ReadRequest reads one HTTP request from the stream, buffering the full body.
// It returns io.EOF when the peer closed the connection before sending any
// bytes of a new request. Other failures wrap ErrConnection, ErrMalformed,
// ErrBodyTooLarge or ErrLengthMismatch.
func ReadRequest(r *bufio.Reader) (*http.Request, error) {
	req, err := http.ReadRequest(r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, classifyReadError(err)
	}

	if req.ContentLength > MaxBodySize {
		_ = req.Body.Close()
		return nil, fmt.Errorf("%w: declared length %d", ErrBodyTooLarge, req.ContentLength)
	}

	body, err := io.ReadAll(io.LimitReader(req.Body, MaxBodySize+1))
	_ = req.Body.Close()
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: %v", ErrLengthMismatch, err)
		}
		return nil, classifyReadError(err)
	}

	if len(body) > MaxBodySize {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrBodyTooLarge, MaxBodySize)
	}
	if req.ContentLength >= 0 && int64(len(body)) != req.ContentLength {
		return nil, fmt.Errorf("%w: declared %d, read %d", ErrLengthMismatch, req.ContentLength, len(body))
	}

	// Rewind the body so the request can be serialized again downstream.
	req.Body = io.NopCloser(bytes.NewReader(body))
	req.ContentLength = int64(len(body))
	req.TransferEncoding = nil

	return req, nil
}

// WriteRequest serializes the request, headers and body, to the stream.
func WriteRequest(req *http.Request, w io.Writer) error {
	return req.Write(w)
}

// ExtendHeader appends value to the named header's comma-separated list,
// setting the header if it is not present yet.
func ExtendHeader(req *http.Request, name, value string) {
	if prior := req.Header.Get(name); prior != "" {
		req.Header.Set(name, prior+", "+value)
		return
	}
	req.Header.Set(name, value)
}

func classifyReadError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return fmt.Errorf("%w: %v", ErrMalformed, err)
}
