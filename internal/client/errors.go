package client

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
)

type httpStatusError struct {
	statusCode int
	status     string
	body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("%s: %s", e.status, e.body)
}

func describe(op string, code int, body string, err error) string {
	if code != 0 {
		return fmt.Sprintf("%s: HTTP %d %s: %s", op, code, http.StatusText(code), body)
	}
	return fmt.Sprintf("%s: %v", op, err)
}

func split(err error) (int, string) {
	var hs *httpStatusError
	if errors.As(err, &hs) {
		return hs.statusCode, hs.body
	}
	return 0, ""
}

// SubmissionError reports a failed query submission. StatusCode is zero when no response
// was received.
type SubmissionError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *SubmissionError) Error() string { return describe("submit query", e.StatusCode, e.Body, e.Err) }
func (e *SubmissionError) Unwrap() error { return e.Err }

// StatusError reports a failed status check.
type StatusError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *StatusError) Error() string { return describe("check status", e.StatusCode, e.Body, e.Err) }
func (e *StatusError) Unwrap() error { return e.Err }

// DownloadError reports a failed artifact download. No output file is written.
type DownloadError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *DownloadError) Error() string { return describe("download", e.StatusCode, e.Body, e.Err) }
func (e *DownloadError) Unwrap() error { return e.Err }

func newSubmissionError(err error) *SubmissionError {
	code, body := split(err)
	return &SubmissionError{StatusCode: code, Body: body, Err: err}
}

func newStatusError(err error) *StatusError {
	code, body := split(err)
	return &StatusError{StatusCode: code, Body: body, Err: err}
}

func newDownloadError(err error) *DownloadError {
	code, body := split(err)
	return &DownloadError{StatusCode: code, Body: body, Err: err}
}

// StatusCode returns the HTTP status carried by any client error, or zero.
func StatusCode(err error) int {
	var se *SubmissionError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	var st *StatusError
	if errors.As(err, &st) {
		return st.StatusCode
	}
	var de *DownloadError
	if errors.As(err, &de) {
		return de.StatusCode
	}
	code, _ := split(err)
	return code
}

// Retryable reports whether err looks transient: network failures and 408/425/429/5xx.
// The client never retries on its own.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	switch code := StatusCode(err); {
	case code == http.StatusRequestTimeout, code == http.StatusTooEarly, code == http.StatusTooManyRequests:
		return true
	case code >= 500:
		return true
	case code != 0:
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	retryable := []string{
		"timeout",
		"tls handshake",
		"connection reset",
		"connection refused",
		"broken pipe",
		"unexpected eof",
	}
	for _, key := range retryable {
		if strings.Contains(msg, key) {
			return true
		}
	}
	return false
}
