package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"swissdox-cli/internal/jobs"
	"swissdox-cli/internal/ledger"
	"swissdox-cli/internal/output"
)

type DownloadOptions struct {
	CommonOptions
	Name string
	ID   string
	// Output is the artifact path; empty means <OutputDir>/<name>.tsv.
	Output    string
	OutputDir string
}

func RunDownload(ctx context.Context, opts DownloadOptions) error {
	ref := jobs.Ref{Name: opts.Name, ID: jobs.JobID(strings.TrimSpace(opts.ID))}
	if ref.Name == "" && ref.ID == "" {
		return &jobs.ValidationError{Field: "job", Message: "either --name or --id is required"}
	}
	s, err := openSession(opts.CommonOptions, true)
	if err != nil {
		return err
	}
	defer func() { _ = s.close() }()

	records, err := s.statuses(ctx)
	if err != nil {
		return err
	}
	rec, found, err := jobs.Find(records, ref)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no job matches %s", refLabel(ref))
	}
	if rec.DownloadURL == "" {
		return fmt.Errorf("job %s has no download yet (status %q)", refLabel(ref), rec.Status)
	}
	target := opts.Output
	if target == "" {
		target = output.ArtifactPath(opts.OutputDir, firstNonEmpty(rec.Name, ref.Name, rec.ID.String()))
	}
	_, err = s.downloadRecord(ctx, rec, target)
	return err
}

// downloadRecord writes the artifact of rec to target and records it in the ledger.
// Only an explicit --timeout bounds the transfer; artifacts can take long to stream.
func (s *session) downloadRecord(ctx context.Context, rec jobs.JobRecord, target string) (int64, error) {
	if rec.DownloadURL == "" {
		return 0, fmt.Errorf("job %s has no download yet (status %q)", refLabel(jobs.Ref{Name: rec.Name, ID: rec.ID}), rec.Status)
	}
	dctx := ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}
	start := time.Now()
	n, err := s.api.Download(dctx, rec.DownloadURL, target)
	if err != nil {
		return n, err
	}
	s.log.Info(fmt.Sprintf("[%s] artifact written: %s (%d bytes, %s)", firstNonEmpty(rec.Name, rec.ID.String()), mustAbsPath(target), n, humanDurationShort(time.Since(start))))
	if db := s.openLedger(); db != nil {
		if _, err := db.RecordDownload(ledger.Download{
			JobID:     rec.ID.String(),
			Name:      rec.Name,
			URL:       rec.DownloadURL,
			Path:      mustAbsPath(target),
			SizeBytes: n,
		}); err != nil {
			s.log.Info(fmt.Sprintf("ledger: %v", err))
		}
	}
	return n, nil
}
