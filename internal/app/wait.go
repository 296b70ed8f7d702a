package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"swissdox-cli/internal/client"
	"swissdox-cli/internal/jobs"
	"swissdox-cli/internal/output"
)

const (
	maxPollFailures    = 5
	notFoundStatusText = "not found"
)

var (
	pollBackoffBase = 500 * time.Millisecond
	pollBackoffMax  = 30 * time.Second
)

type WaitOptions struct {
	CommonOptions
	Name string
	ID   string
	// Download, when set, fetches the artifact once the job is done.
	Download  bool
	OutputDir string
	Output    string
}

// JobFailedError reports a job that reached one of the failed statuses.
type JobFailedError struct {
	Ref    jobs.Ref
	Status string
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("job %s ended with status %q", refLabel(e.Ref), e.Status)
}

func RunWait(ctx context.Context, opts WaitOptions) error {
	ref := jobs.Ref{Name: opts.Name, ID: jobs.JobID(strings.TrimSpace(opts.ID))}
	if ref.Name == "" && ref.ID == "" {
		return &jobs.ValidationError{Field: "job", Message: "either a job name or --id is required"}
	}
	s, err := openSession(opts.CommonOptions, true)
	if err != nil {
		return err
	}
	defer func() { _ = s.close() }()

	rec, err := s.waitForJob(ctx, ref)
	if err != nil {
		return err
	}
	if !opts.Download {
		return nil
	}
	target := opts.Output
	if target == "" {
		target = output.ArtifactPath(opts.OutputDir, firstNonEmpty(rec.Name, ref.Name, rec.ID.String()))
	}
	_, err = s.downloadRecord(ctx, rec, target)
	return err
}

// waitForJob polls until the job reaches a terminal status, the poll deadline passes,
// or ctx ends. Transient lookup failures are retried with capped exponential backoff.
func (s *session) waitForJob(ctx context.Context, ref jobs.Ref) (jobs.JobRecord, error) {
	policy := s.cfg.Run.StatusPolicy()
	interval := s.cfg.Run.PollInterval()
	timeout := s.cfg.Run.PollTimeout()
	deadline := time.Now().Add(timeout)
	start := time.Now()
	label := refLabel(ref)

	failures := 0
	lastStatus := ""
	for {
		rec, found, err := s.lookup(ctx, ref)
		if err != nil {
			if ctx.Err() != nil {
				return jobs.JobRecord{}, ctx.Err()
			}
			if !client.Retryable(err) {
				return jobs.JobRecord{}, err
			}
			failures++
			if failures > maxPollFailures {
				return jobs.JobRecord{}, fmt.Errorf("giving up on %s after %d failed polls: %w", label, failures, err)
			}
			delay := pollBackoff(failures)
			s.log.Info(fmt.Sprintf("[%s] status check failed, retrying in %s: %v", label, delay, err))
			if err := sleepUntil(ctx, delay, deadline); err != nil {
				return jobs.JobRecord{}, s.pollStopped(err, label, timeout)
			}
			continue
		}
		failures = 0

		status := notFoundStatusText
		if found {
			status = rec.Status
			if ref.ID == "" {
				ref.ID = rec.ID
			}
		}
		s.metrics.RecordPoll(status)
		if status != lastStatus {
			lastStatus = status
			s.log.Info(fmt.Sprintf("[%s] status: %s (%s)", label, status, humanDurationShort(time.Since(start))))
		}
		if found && policy.IsDone(rec.Status) {
			return rec, nil
		}
		if found && policy.IsFailed(rec.Status) {
			return rec, &JobFailedError{Ref: ref, Status: rec.Status}
		}
		if err := sleepUntil(ctx, interval, deadline); err != nil {
			return jobs.JobRecord{}, s.pollStopped(err, label, timeout)
		}
	}
}

var errPollDeadline = errors.New("poll deadline reached")

func (s *session) pollStopped(err error, label string, timeout time.Duration) error {
	if errors.Is(err, errPollDeadline) {
		return fmt.Errorf("polling %s timed out after %s", label, humanDurationShort(timeout))
	}
	return err
}

// sleepUntil waits d, or returns errPollDeadline when d would cross deadline.
func sleepUntil(ctx context.Context, d time.Duration, deadline time.Time) error {
	if time.Now().Add(d).After(deadline) {
		return errPollDeadline
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func pollBackoff(attempt int) time.Duration {
	if attempt <= 0 {
		return pollBackoffBase
	}
	d := pollBackoffBase * time.Duration(1<<(attempt-1))
	if d > pollBackoffMax {
		return pollBackoffMax
	}
	return d
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
