package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"swissdox-cli/internal/client"
	"swissdox-cli/internal/config"
	"swissdox-cli/internal/jobs"
	"swissdox-cli/internal/ledger"
	"swissdox-cli/internal/metrics"
)

// CommonOptions are the persistent flags every command shares.
type CommonOptions struct {
	ConfigPath  string
	Verbose     bool
	LogFile     string
	MetricsFile string
	// Timeout bounds each request; zero falls back to run.request_timeout_second.
	Timeout time.Duration
}

type session struct {
	opts    CommonOptions
	cfg     config.Config
	log     *Logger
	api     *client.API
	metrics *metrics.Metrics

	ledgerMu sync.Mutex
	ledger   *ledger.DB
}

// openSession loads config and logging. withAPI also requires credentials and
// builds the HTTP client.
func openSession(opts CommonOptions, withAPI bool) (*session, error) {
	cfgPath, err := config.ResolvePath(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadOrInit(cfgPath)
	if err != nil {
		return nil, err
	}
	var creds config.Credentials
	if withAPI {
		creds, err = loadCredentialsForRun()
		if err != nil {
			return nil, err
		}
	}
	log, err := NewLogger(opts.Verbose, opts.LogFile)
	if err != nil {
		return nil, err
	}
	s := &session{opts: opts, cfg: cfg, log: log, metrics: metrics.New()}
	if withAPI {
		s.api = client.New(cfg.Server.BaseURL, creds)
		s.api.SetLogger(log.Zerolog())
		s.api.SetTrace(s.trace)
	}
	return s, nil
}

func (s *session) trace(ev client.TraceEvent) {
	if ev.Stage == "response" || ev.Stage == "error" {
		s.metrics.RecordRequest(ev.Operation, ev.StatusCode, time.Duration(ev.DurationMs)*time.Millisecond)
	}
	if ev.Operation == "download" && ev.Stage == "response" && ev.StatusCode/100 == 2 {
		s.metrics.RecordDownload(ev.Bytes)
	}
	s.log.Event("http_"+ev.Stage, map[string]any{
		"operation":   ev.Operation,
		"method":      ev.Method,
		"url":         ev.URL,
		"status_code": ev.StatusCode,
		"duration_ms": ev.DurationMs,
		"bytes":       ev.Bytes,
		"request":     clipBody(ev.Request),
		"response":    ev.Response,
		"error":       ev.Error,
	})
}

// clipBody keeps trace records short; query bodies can be large.
func clipBody(body string) string {
	const limit = 512
	if len(body) <= limit {
		return body
	}
	return body[:limit] + fmt.Sprintf("...(%d bytes)", len(body))
}

func (s *session) close() error {
	var firstErr error
	if s.opts.MetricsFile != "" {
		if err := s.metrics.WriteTextfile(s.opts.MetricsFile); err != nil {
			firstErr = err
		}
	}
	if s.ledger != nil {
		if err := s.ledger.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := s.log.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (s *session) requestTimeout() time.Duration {
	if s.opts.Timeout > 0 {
		return s.opts.Timeout
	}
	return s.cfg.Run.RequestTimeout()
}

func (s *session) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.requestTimeout())
}

// openLedger opens the ledger once. A ledger that cannot be opened is reported
// and skipped; the remote service stays authoritative.
func (s *session) openLedger() *ledger.DB {
	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()
	if s.ledger != nil || s.cfg.Ledger.Disabled {
		return s.ledger
	}
	db, err := ledger.Open(s.cfg.Ledger.Path)
	if err != nil {
		s.log.Info(fmt.Sprintf("ledger unavailable: %v", err))
		s.cfg.Ledger.Disabled = true
		return nil
	}
	s.ledger = db
	return db
}

func (s *session) statuses(ctx context.Context) ([]jobs.JobRecord, error) {
	cctx, cancel := s.callCtx(ctx)
	defer cancel()
	return s.api.Statuses(cctx)
}

// lookup fetches the record ref points at. An id is asked for directly; a name needs
// the full listing.
func (s *session) lookup(ctx context.Context, ref jobs.Ref) (jobs.JobRecord, bool, error) {
	if ref.ID != "" {
		cctx, cancel := s.callCtx(ctx)
		defer cancel()
		return s.api.Status(cctx, ref.ID)
	}
	records, err := s.statuses(ctx)
	if err != nil {
		return jobs.JobRecord{}, false, err
	}
	return jobs.Find(records, ref)
}

func refLabel(ref jobs.Ref) string {
	if ref.ID != "" {
		if strings.TrimSpace(ref.Name) != "" {
			return fmt.Sprintf("%s (id %s)", ref.Name, ref.ID)
		}
		return "id " + ref.ID.String()
	}
	return ref.Name
}

func mustAbsPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func humanDurationShort(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	sec := int64(d.Round(time.Second) / time.Second)
	h := sec / 3600
	m := (sec % 3600) / 60
	sec = sec % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, sec)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, sec)
	}
	return fmt.Sprintf("%ds", sec)
}
