package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"swissdox-cli/internal/jobs"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func newResp(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func testCreds() Credentials {
	return HeaderCredentials{"X-Api-Key": {"k"}, "X-Api-Secret": {"s"}}
}

func TestReadReqBodyAndTraceBody(t *testing.T) {
	if readReqBody(nil) != "" {
		t.Fatal("nil request should be empty")
	}
	req, err := http.NewRequest(http.MethodPost, "http://x", bytes.NewReader([]byte("abc")))
	if err != nil {
		t.Fatal(err)
	}
	if got := readReqBody(req); got != "abc" {
		t.Fatalf("got=%q", got)
	}
	if got := traceBody([]byte("Zürich")); got != "Zürich" {
		t.Fatalf("got=%q", got)
	}
	if got := traceBody([]byte{0xff, 0x00, 0x01}); !strings.Contains(got, "<binary bytes=3 sha256=") {
		t.Fatalf("got=%q", got)
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) {
		t.Fatal("nil should not be retryable")
	}
	if !Retryable(newStatusError(io.EOF)) {
		t.Fatal("EOF should be retryable")
	}
	if !Retryable(newStatusError(&net.DNSError{IsTimeout: true})) {
		t.Fatal("timeout net error should be retryable")
	}
	if !Retryable(errors.New("connection refused")) {
		t.Fatal("message-based retry expected")
	}
	if Retryable(errors.New("permission denied")) {
		t.Fatal("non-retry message should be false")
	}
	for _, code := range []int{408, 425, 429, 500, 502, 503, 504} {
		err := newStatusError(&httpStatusError{statusCode: code, status: "x", body: "y"})
		if !Retryable(err) {
			t.Fatalf("status %d should be retryable", code)
		}
	}
	if Retryable(newSubmissionError(&httpStatusError{statusCode: 400, status: "400", body: "timeout in body"})) {
		t.Fatal("400 should not be retryable")
	}
}

func TestSubmitSendsFormWithCredentials(t *testing.T) {
	var got url.Values
	var gotKey, gotSecret, gotCT string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/query" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		gotKey = r.Header.Get("X-API-Key")
		gotSecret = r.Header.Get("X-API-Secret")
		gotCT = r.Header.Get("Content-Type")
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		got = r.PostForm
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":42,"status":"queued"}`)
	}))
	defer ts.Close()

	api := New(ts.URL+"/api/", testCreds())
	var traces []TraceEvent
	api.SetTrace(func(ev TraceEvent) { traces = append(traces, ev) })

	q := jobs.QueryDefinition{Query: "query:\n  content:\n    AND: [Bern]", Name: "bern", Comment: "demo", Expiration: &jobs.Date{Year: 2026, Month: 12, Day: 31}}
	sub, err := api.Submit(context.Background(), q)
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if sub.StatusCode != http.StatusCreated || sub.Query != q.Query {
		t.Fatalf("sub=%+v", sub)
	}
	if id, ok := sub.JobID(); !ok || id != "42" {
		t.Fatalf("JobID=%q ok=%v", id, ok)
	}
	if gotKey != "k" || gotSecret != "s" {
		t.Fatalf("credentials not attached: %q %q", gotKey, gotSecret)
	}
	if gotCT != "application/x-www-form-urlencoded" {
		t.Fatalf("content-type=%q", gotCT)
	}
	if got.Get("query") != q.Query || got.Get("name") != "bern" || got.Get("comment") != "demo" || got.Get("expirationDate") != "2026-12-31" {
		t.Fatalf("form=%v", got)
	}
	if len(traces) != 2 || traces[0].Stage != "request" || traces[1].StatusCode != http.StatusCreated || traces[1].Operation != "submit" {
		t.Fatalf("traces=%+v", traces)
	}

	q.Expiration = nil
	if _, err := api.Submit(context.Background(), q); err != nil {
		t.Fatal(err)
	}
	if _, ok := got["expirationDate"]; !ok || got.Get("expirationDate") != "" {
		t.Fatalf("expirationDate should be sent empty: %v", got)
	}
}

func TestSubmitValidationFailsBeforeNetwork(t *testing.T) {
	var calls atomic.Int32
	api := New("http://x", nil)
	api.http = &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		calls.Add(1)
		return newResp(200, `{}`), nil
	})}
	bad := []jobs.QueryDefinition{
		{Query: "q", Name: "n", Comment: "c", Expiration: &jobs.Date{Year: 2026, Month: 13, Day: 1}},
		{Query: "q", Name: "", Comment: "c"},
		{Query: "", Name: "n", Comment: "c"},
	}
	for _, q := range bad {
		if _, err := api.Submit(context.Background(), q); !jobs.IsValidationError(err) {
			t.Fatalf("err=%v want ValidationError", err)
		}
	}
	if calls.Load() != 0 {
		t.Fatalf("no request expected, got %d", calls.Load())
	}
}

func TestSubmitErrors(t *testing.T) {
	api := New("http://x", nil)
	api.http = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if strings.Contains(req.URL.Host, "down") {
			return nil, io.EOF
		}
		return newResp(400, " bad query \n"), nil
	})}
	q := jobs.QueryDefinition{Query: "q", Name: "n", Comment: "c"}

	_, err := api.Submit(context.Background(), q)
	var se *SubmissionError
	if !errors.As(err, &se) || se.StatusCode != 400 || se.Body != "bad query" {
		t.Fatalf("err=%#v", err)
	}
	if !strings.Contains(se.Error(), "HTTP 400") || !strings.Contains(se.Error(), "bad query") {
		t.Fatalf("message=%q", se.Error())
	}

	api.baseURL = "http://down"
	_, err = api.Submit(context.Background(), q)
	if !errors.As(err, &se) || se.StatusCode != 0 || !errors.Is(err, io.EOF) {
		t.Fatalf("err=%#v", err)
	}
}

func TestSubmitNonJSONResponseKeptAsString(t *testing.T) {
	api := New("http://x", nil)
	api.http = &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return newResp(200, "accepted"), nil
	})}
	sub, err := api.Submit(context.Background(), jobs.QueryDefinition{Query: "q", Name: "n", Comment: "c"})
	if err != nil {
		t.Fatal(err)
	}
	if string(sub.Response) != `"accepted"` {
		t.Fatalf("response=%s", sub.Response)
	}
	if _, ok := sub.JobID(); ok {
		t.Fatal("no id expected")
	}
}

func TestStatuses(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/status":
			if r.Header.Get("X-API-Key") != "k" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = io.WriteString(w, `[{"id":1,"name":"Alpha","status":"finished","downloadUrl":"https://x/a.tsv"},{"id":2,"name":"Beta","status":"running"}]`)
		case "/status/1":
			_, _ = io.WriteString(w, `[{"id":1,"name":"Alpha","status":"finished","downloadUrl":"https://x/a.tsv"}]`)
		case "/status/2":
			_, _ = io.WriteString(w, `{"id":"2","name":"Beta","status":"running"}`)
		case "/status/3":
			_, _ = io.WriteString(w, `[]`)
		case "/status/500":
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, "upstream")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	api := New(ts.URL, testCreds())
	recs, err := api.Statuses(context.Background())
	if err != nil || len(recs) != 2 {
		t.Fatalf("recs=%v err=%v", recs, err)
	}
	if id, ok := jobs.FindID(recs, "beta", false); !ok || id != "2" {
		t.Fatalf("id=%q ok=%v", id, ok)
	}

	rec, ok, err := api.Status(context.Background(), "1")
	if err != nil || !ok || rec.DownloadURL != "https://x/a.tsv" {
		t.Fatalf("rec=%+v ok=%v err=%v", rec, ok, err)
	}
	rec, ok, err = api.Status(context.Background(), "2")
	if err != nil || !ok || rec.Status != "running" {
		t.Fatalf("rec=%+v ok=%v err=%v", rec, ok, err)
	}
	for _, id := range []jobs.JobID{"3", "404"} {
		if _, ok, err := api.Status(context.Background(), id); ok || err != nil {
			t.Fatalf("id %s: ok=%v err=%v want not found", id, ok, err)
		}
	}
	_, _, err = api.Status(context.Background(), "500")
	var st *StatusError
	if !errors.As(err, &st) || st.StatusCode != http.StatusBadGateway || st.Body != "upstream" {
		t.Fatalf("err=%v", err)
	}
	if _, _, err := api.Status(context.Background(), " "); !jobs.IsValidationError(err) {
		t.Fatalf("err=%v want ValidationError", err)
	}

	unauth := New(ts.URL, nil)
	if _, err := unauth.Statuses(context.Background()); StatusCode(err) != http.StatusUnauthorized {
		t.Fatalf("err=%v", err)
	}
}

func TestStatusesBadJSON(t *testing.T) {
	api := New("http://x", nil)
	api.http = &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return newResp(200, "{bad"), nil
	})}
	_, err := api.Statuses(context.Background())
	var st *StatusError
	if !errors.As(err, &st) || !strings.Contains(err.Error(), "decode status list") {
		t.Fatalf("err=%v", err)
	}
}

func TestStatusesLargeBodyIsNotTruncated(t *testing.T) {
	body := `[{"id":1,"name":"a","status":"finished"},{"id":2,"name":"b","status":"queued"}]`
	old := maxResponseBytes
	t.Cleanup(func() { maxResponseBytes = old })

	api := New("http://x", nil)
	api.http = &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return newResp(200, body), nil
	})}

	maxResponseBytes = int64(len(body))
	recs, err := api.Statuses(context.Background())
	if err != nil || len(recs) != 2 {
		t.Fatalf("recs=%+v err=%v", recs, err)
	}

	maxResponseBytes = int64(len(body)) - 1
	_, err = api.Statuses(context.Background())
	var st *StatusError
	if !errors.As(err, &st) || !strings.Contains(err.Error(), "response too large") {
		t.Fatalf("err=%v", err)
	}
	if strings.Contains(err.Error(), "decode") {
		t.Fatalf("oversized body should not reach the decoder: %v", err)
	}
}

func TestDownload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Secret") != "s" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, "no secret")
			return
		}
		switch r.URL.Path {
		case "/a.tsv":
			_, _ = io.WriteString(w, "id\thead\n1\tx\n")
		case "/empty.tsv":
		case "/gone.tsv":
			w.WriteHeader(http.StatusGone)
			_, _ = io.WriteString(w, "expired")
		}
	}))
	defer ts.Close()

	var logBuf bytes.Buffer
	api := New("http://unused", testCreds())
	api.SetLogger(zerolog.New(&logBuf))
	dir := t.TempDir()

	p := filepath.Join(dir, "a.tsv")
	if err := os.WriteFile(p, []byte("stale content"), 0o644); err != nil {
		t.Fatal(err)
	}
	n, err := api.Download(context.Background(), ts.URL+"/a.tsv", p)
	if err != nil || n != 13 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if b, _ := os.ReadFile(p); string(b) != "id\thead\n1\tx\n" {
		t.Fatalf("content=%q", b)
	}

	emptyPath := filepath.Join(dir, "empty.tsv")
	n, err = api.Download(context.Background(), ts.URL+"/empty.tsv", emptyPath)
	if err != nil || n != 0 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if _, err := os.Stat(emptyPath); err != nil {
		t.Fatalf("empty artifact should still be written: %v", err)
	}
	if !strings.Contains(logBuf.String(), `"level":"warn"`) || !strings.Contains(logBuf.String(), `"bytes":0`) {
		t.Fatalf("expected empty warning, log=%s", logBuf.String())
	}

	gonePath := filepath.Join(dir, "gone.tsv")
	_, err = api.Download(context.Background(), ts.URL+"/gone.tsv", gonePath)
	var de *DownloadError
	if !errors.As(err, &de) || de.StatusCode != http.StatusGone || de.Body != "expired" {
		t.Fatalf("err=%v", err)
	}
	if _, err := os.Stat(gonePath); !os.IsNotExist(err) {
		t.Fatalf("no file expected on failure, err=%v", err)
	}

	noCreds := New("http://unused", nil)
	if _, err := noCreds.Download(context.Background(), ts.URL+"/a.tsv", filepath.Join(dir, "x.tsv")); StatusCode(err) != http.StatusForbidden {
		t.Fatalf("err=%v", err)
	}
}

func TestDownloadTransportError(t *testing.T) {
	api := New("http://x", nil)
	var traces []TraceEvent
	api.SetTrace(func(ev TraceEvent) { traces = append(traces, ev) })
	api.http = &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, &net.DNSError{IsTimeout: true}
	})}
	_, err := api.Download(context.Background(), "http://x/a.tsv", filepath.Join(t.TempDir(), "a.tsv"))
	var de *DownloadError
	if !errors.As(err, &de) || de.StatusCode != 0 || !Retryable(err) {
		t.Fatalf("err=%v", err)
	}
	if len(traces) != 2 || traces[1].Stage != "error" {
		t.Fatalf("traces=%+v", traces)
	}
}

func TestContextCanceled(t *testing.T) {
	api := New("http://x", nil)
	api.http = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return nil, req.Context().Err()
	})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := api.Statuses(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v want context.Canceled", err)
	}
}
