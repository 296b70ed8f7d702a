package client

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"swissdox-cli/internal/jobs"
	"swissdox-cli/internal/output"
)

type TraceEvent struct {
	Stage      string
	Operation  string
	Method     string
	URL        string
	StatusCode int
	DurationMs int64
	Bytes      int64
	Request    string
	Response   string
	Error      string
}

type API struct {
	baseURL string
	http    *http.Client
	creds   Credentials
	trace   func(TraceEvent)
	log     zerolog.Logger
}

const (
	maxBodyBytes          = 2 << 20
	connectTimeout        = 10 * time.Second
	tlsHandshakeTimeout   = 10 * time.Second
	responseHeaderTimeout = 60 * time.Second
	expectContinueTimeout = 1 * time.Second
	keepAliveTimeout      = 30 * time.Second
	idleConnTimeout       = 90 * time.Second
	maxIdleConns          = 100
	maxIdleConnsPerHost   = 10
)

// maxResponseBytes bounds a decoded 2xx body. Larger responses fail instead of being cut.
var maxResponseBytes int64 = 64 << 20

func New(baseURL string, creds Credentials) *API {
	dialer := &net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: keepAliveTimeout,
	}
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		log:     zerolog.Nop(),
		// No client-wide Timeout: artifacts can be large, callers bound each call with ctx.
		http: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           dialer.DialContext,
				TLSHandshakeTimeout:   tlsHandshakeTimeout,
				ResponseHeaderTimeout: responseHeaderTimeout,
				ExpectContinueTimeout: expectContinueTimeout,
				IdleConnTimeout:       idleConnTimeout,
				MaxIdleConns:          maxIdleConns,
				MaxIdleConnsPerHost:   maxIdleConnsPerHost,
			},
		},
	}
}

func (a *API) SetTrace(fn func(TraceEvent)) {
	a.trace = fn
}

func (a *API) SetLogger(l zerolog.Logger) {
	a.log = l
}

func (a *API) BaseURL() string { return a.baseURL }

func (a *API) emitTrace(ev TraceEvent) {
	if a.trace != nil {
		a.trace(ev)
	}
}

func readReqBody(req *http.Request) string {
	if req == nil || req.GetBody == nil {
		return ""
	}
	rc, err := req.GetBody()
	if err != nil {
		return ""
	}
	defer rc.Close()
	b, err := io.ReadAll(io.LimitReader(rc, maxBodyBytes))
	if err != nil {
		return ""
	}
	return string(b)
}

func traceBody(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if utf8.Valid(b) {
		return string(b)
	}
	sum := sha256.Sum256(b)
	return fmt.Sprintf("<binary bytes=%d sha256=%s>", len(b), hex.EncodeToString(sum[:]))
}

func (a *API) newRequest(ctx context.Context, method, rawURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	if a.creds != nil {
		for k, vs := range a.creds.Header() {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// Submit validates q and posts it to the query endpoint. Invalid input never reaches
// the network.
func (a *API) Submit(ctx context.Context, q jobs.QueryDefinition) (Submission, error) {
	if err := q.Validate(); err != nil {
		return Submission{}, err
	}
	form := url.Values{}
	form.Set("query", q.Query)
	form.Set("name", q.Name)
	form.Set("comment", q.Comment)
	form.Set("expirationDate", q.ExpirationValue())

	req, err := a.newRequest(ctx, http.MethodPost, a.baseURL+"/query", strings.NewReader(form.Encode()))
	if err != nil {
		return Submission{}, newSubmissionError(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, code, err := a.do("submit", req)
	if err != nil {
		return Submission{}, newSubmissionError(err)
	}
	resp := json.RawMessage(body)
	if !json.Valid(body) {
		resp, _ = json.Marshal(string(body))
	}
	a.log.Info().
		Str("operation", "submit").
		Int("status", code).
		Str("name", q.Name).
		Str("expiration", q.ExpirationValue()).
		Msg("query submitted")
	return Submission{Response: resp, Query: q.Query, StatusCode: code}, nil
}

// Statuses lists every job visible to the credentials.
func (a *API) Statuses(ctx context.Context) ([]jobs.JobRecord, error) {
	req, err := a.newRequest(ctx, http.MethodGet, a.baseURL+"/status", nil)
	if err != nil {
		return nil, newStatusError(err)
	}
	body, _, err := a.do("status", req)
	if err != nil {
		return nil, newStatusError(err)
	}
	var out []jobs.JobRecord
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, newStatusError(fmt.Errorf("decode status list: %w", err))
	}
	return out, nil
}

// Status fetches one job. A job the service does not know yet is reported as
// (zero, false, nil).
func (a *API) Status(ctx context.Context, id jobs.JobID) (jobs.JobRecord, bool, error) {
	if strings.TrimSpace(id.String()) == "" {
		return jobs.JobRecord{}, false, &jobs.ValidationError{Field: "id", Message: "must not be empty"}
	}
	req, err := a.newRequest(ctx, http.MethodGet, a.baseURL+"/status/"+url.PathEscape(id.String()), nil)
	if err != nil {
		return jobs.JobRecord{}, false, newStatusError(err)
	}
	body, _, err := a.do("status", req)
	if err != nil {
		if StatusCode(err) == http.StatusNotFound {
			return jobs.JobRecord{}, false, nil
		}
		return jobs.JobRecord{}, false, newStatusError(err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return jobs.JobRecord{}, false, nil
	}
	if body[0] == '[' {
		var list []jobs.JobRecord
		if err := json.Unmarshal(body, &list); err != nil {
			return jobs.JobRecord{}, false, newStatusError(fmt.Errorf("decode status: %w", err))
		}
		for _, r := range list {
			if r.ID == id {
				return r, true, nil
			}
		}
		return jobs.JobRecord{}, false, nil
	}
	var rec jobs.JobRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return jobs.JobRecord{}, false, newStatusError(fmt.Errorf("decode status: %w", err))
	}
	if rec.ID == "" {
		return jobs.JobRecord{}, false, nil
	}
	return rec, true, nil
}

// Download fetches rawURL and replaces outputPath with the body. Non-2xx responses write
// nothing. An empty body is logged as a warning and still written.
func (a *API) Download(ctx context.Context, rawURL, outputPath string) (int64, error) {
	req, err := a.newRequest(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, newDownloadError(err)
	}
	req.Header.Del("Accept")
	a.emitTrace(TraceEvent{
		Stage:     "request",
		Operation: "download",
		Method:    req.Method,
		URL:       req.URL.String(),
	})
	start := time.Now()
	resp, err := a.http.Do(req)
	if err != nil {
		a.emitTrace(TraceEvent{
			Stage:      "error",
			Operation:  "download",
			Method:     req.Method,
			URL:        req.URL.String(),
			DurationMs: time.Since(start).Milliseconds(),
			Error:      err.Error(),
		})
		return 0, newDownloadError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		a.emitTrace(TraceEvent{
			Stage:      "response",
			Operation:  "download",
			Method:     req.Method,
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			DurationMs: time.Since(start).Milliseconds(),
			Response:   traceBody(body),
		})
		return 0, newDownloadError(&httpStatusError{
			statusCode: resp.StatusCode,
			status:     resp.Status,
			body:       strings.TrimSpace(string(body)),
		})
	}

	n, err := output.WriteAtomic(outputPath, resp.Body)
	a.emitTrace(TraceEvent{
		Stage:      "response",
		Operation:  "download",
		Method:     req.Method,
		URL:        req.URL.String(),
		StatusCode: resp.StatusCode,
		DurationMs: time.Since(start).Milliseconds(),
		Bytes:      n,
		Response:   fmt.Sprintf("<artifact bytes=%d path=%s>", n, outputPath),
	})
	if err != nil {
		return n, newDownloadError(err)
	}
	ev := a.log.Info()
	if n == 0 {
		ev = a.log.Warn()
	}
	ev.Str("operation", "download").
		Int("status", resp.StatusCode).
		Int64("bytes", n).
		Str("path", outputPath).
		Msg(downloadMessage(n))
	return n, nil
}

func downloadMessage(n int64) string {
	if n == 0 {
		return "the file is empty"
	}
	return fmt.Sprintf("size of file: %.2f KB", float64(n)/1024)
}

// do sends req once and returns the body of a 2xx response. Other statuses become
// *httpStatusError.
func (a *API) do(op string, req *http.Request) ([]byte, int, error) {
	reqBody := readReqBody(req)
	a.emitTrace(TraceEvent{
		Stage:     "request",
		Operation: op,
		Method:    req.Method,
		URL:       req.URL.String(),
		Request:   reqBody,
	})
	start := time.Now()
	resp, err := a.http.Do(req)
	if err != nil {
		a.emitTrace(TraceEvent{
			Stage:      "error",
			Operation:  op,
			Method:     req.Method,
			URL:        req.URL.String(),
			DurationMs: time.Since(start).Milliseconds(),
			Request:    reqBody,
			Error:      err.Error(),
		})
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	a.emitTrace(TraceEvent{
		Stage:      "response",
		Operation:  op,
		Method:     req.Method,
		URL:        req.URL.String(),
		StatusCode: resp.StatusCode,
		DurationMs: time.Since(start).Milliseconds(),
		Bytes:      int64(len(body)),
		Request:    reqBody,
		Response:   traceBody(clip(body)),
	})
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, resp.StatusCode, &httpStatusError{
			statusCode: resp.StatusCode,
			status:     resp.Status,
			body:       strings.TrimSpace(string(clip(body))),
		}
	}
	if int64(len(body)) > maxResponseBytes {
		return nil, resp.StatusCode, fmt.Errorf("response too large: more than %d bytes", maxResponseBytes)
	}
	return body, resp.StatusCode, nil
}

func clip(b []byte) []byte {
	if len(b) > maxBodyBytes {
		return b[:maxBodyBytes]
	}
	return b
}
