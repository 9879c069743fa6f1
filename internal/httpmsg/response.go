package httpmsg

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
)

// ReadResponse reads one HTTP response from the stream, buffering the full
// body. The request method is needed to frame bodiless responses such as
// replies to HEAD. Any failure wraps ErrConnection.
func ReadResponse(r *bufio.Reader, method string) (*http.Response, error) {
	resp, err := http.ReadResponse(r, &http.Request{Method: method})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))
	if method != http.MethodHead {
		resp.ContentLength = int64(len(body))
		resp.TransferEncoding = nil
	}

	return resp, nil
}

// WriteResponse serializes the response, headers and body, to the stream.
func WriteResponse(resp *http.Response, w io.Writer) error {
	return resp.Write(w)
}

// ErrorResponse synthesizes a minimal response carrying only the status
// line and its standard reason text. Internal failure detail never reaches
// the client.
func ErrorResponse(status int) *http.Response {
	body := []byte(fmt.Sprintf("%d %s", status, http.StatusText(status)))

	return &http.Response{
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode: status,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header: http.Header{
			"Content-Type": []string{"text/plain; charset=utf-8"},
		},
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
	}
}
