package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"swissdox-cli/internal/client"
	"swissdox-cli/internal/input"
	"swissdox-cli/internal/jobs"
	"swissdox-cli/internal/ledger"
	"swissdox-cli/internal/output"
)

type SubmitOptions struct {
	CommonOptions
	Inputs []string
	// Name overrides the file stem for a single file and prefixes stems otherwise.
	Name    string
	Comment string
	Expires string
	// SaveResponseDir keeps each acknowledgment as JSON when set.
	SaveResponseDir string
	Wait            bool
	OutputDir       string
}

type submitTask struct {
	file  input.QueryFile
	query jobs.QueryDefinition
}

func RunSubmit(ctx context.Context, opts SubmitOptions) error {
	files, err := input.Discover(opts.Inputs)
	if err != nil {
		return err
	}
	tasks, err := buildSubmitTasks(files, opts)
	if err != nil {
		return err
	}
	s, err := openSession(opts.CommonOptions, true)
	if err != nil {
		return err
	}
	defer func() { _ = s.close() }()
	startAll := time.Now()

	var successCount atomic.Int64
	var failedCount atomic.Int64
	var wg sync.WaitGroup
	sem := semaphore.NewWeighted(int64(s.cfg.Run.MaxConcurrent))

	for _, task := range tasks {
		task := task
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				failedCount.Add(1)
				s.log.Info(fmt.Sprintf("[%s] submit failed: %v", task.query.Name, err))
				return
			}
			defer sem.Release(1)

			if s.runSubmitTask(ctx, opts, task) {
				successCount.Add(1)
				return
			}
			failedCount.Add(1)
		}()
	}
	wg.Wait()
	if errors.Is(ctx.Err(), context.Canceled) {
		return context.Canceled
	}

	success := int(successCount.Load())
	failed := int(failedCount.Load())
	if len(tasks) > 1 {
		s.log.Info(fmt.Sprintf("done: %d succeeded, %d failed, took %s", success, failed, humanDurationShort(time.Since(startAll))))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d submissions failed", failed, len(tasks))
	}
	return nil
}

// buildSubmitTasks validates every query before anything is sent and refuses names
// that would collide on the service or on disk.
func buildSubmitTasks(files []input.QueryFile, opts SubmitOptions) ([]submitTask, error) {
	var exp *jobs.Date
	if strings.TrimSpace(opts.Expires) != "" {
		d, err := jobs.ParseDate(strings.TrimSpace(opts.Expires))
		if err != nil {
			return nil, err
		}
		exp = &d
	}
	name := strings.TrimSpace(opts.Name)
	tasks := make([]submitTask, 0, len(files))
	byName := map[string]string{}
	byPath := map[string]string{}
	for _, f := range files {
		qname := f.Name
		switch {
		case name != "" && len(files) == 1:
			qname = name
		case name != "":
			qname = name + "-" + f.Name
		}
		q := jobs.QueryDefinition{
			Query:      f.Content,
			Name:       qname,
			Comment:    opts.Comment,
			Expiration: exp,
		}
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", f.Path, err)
		}
		key := strings.ToLower(strings.TrimSpace(qname))
		if prev, ok := byName[key]; ok {
			return nil, fmt.Errorf("query name %q used by both %s and %s", qname, prev, f.Path)
		}
		byName[key] = f.Path
		if opts.Wait {
			target := output.ArtifactPath(opts.OutputDir, qname)
			if prev, ok := byPath[target]; ok {
				return nil, fmt.Errorf("%s and %s would both download to %s", prev, f.Path, target)
			}
			byPath[target] = f.Path
		}
		tasks = append(tasks, submitTask{file: f, query: q})
	}
	return tasks, nil
}

func (s *session) runSubmitTask(ctx context.Context, opts SubmitOptions, task submitTask) bool {
	label := task.query.Name
	cctx, cancel := s.callCtx(ctx)
	sub, err := s.api.Submit(cctx, task.query)
	cancel()
	s.recordSubmission(task.query, sub, err)
	if err != nil {
		if isContextCanceledErr(ctx, err) {
			s.log.Info(fmt.Sprintf("[%s] canceled", label))
			return false
		}
		s.log.Info(fmt.Sprintf("[%s] submit failed: %v", label, err))
		return false
	}
	jobID, hasID := sub.JobID()
	if hasID {
		s.log.Info(fmt.Sprintf("[%s] submitted from %s: HTTP %d, job id %s", label, filepath.Base(task.file.Path), sub.StatusCode, jobID))
	} else {
		s.log.Info(fmt.Sprintf("[%s] submitted from %s: %s", label, filepath.Base(task.file.Path), sub))
	}

	if opts.SaveResponseDir != "" {
		p, err := output.UniquePath(opts.SaveResponseDir, "submission_"+output.Slug(label), "json")
		if err == nil {
			err = output.WriteJSON(p, sub)
		}
		if err != nil {
			s.log.Info(fmt.Sprintf("[%s] saving response failed: %v", label, err))
			return false
		}
		s.log.Info(fmt.Sprintf("[%s] response saved: %s", label, mustAbsPath(p)))
	}

	if !opts.Wait {
		return true
	}
	ref := jobs.Ref{Name: label}
	if hasID {
		ref.ID = jobs.JobID(jobID)
	}
	rec, err := s.waitForJob(ctx, ref)
	if err != nil {
		s.log.Info(fmt.Sprintf("[%s] wait failed: %v", label, err))
		return false
	}
	if _, err := s.downloadRecord(ctx, rec, output.ArtifactPath(opts.OutputDir, label)); err != nil {
		s.log.Info(fmt.Sprintf("[%s] download failed: %v", label, err))
		return false
	}
	return true
}

func (s *session) recordSubmission(q jobs.QueryDefinition, sub client.Submission, submitErr error) {
	db := s.openLedger()
	if db == nil {
		return
	}
	entry := ledger.Submission{
		Name:       q.Name,
		Comment:    q.Comment,
		Query:      q.Query,
		Expiration: q.ExpirationValue(),
		StatusCode: sub.StatusCode,
		Response:   string(sub.Response),
	}
	if submitErr != nil {
		entry.StatusCode = client.StatusCode(submitErr)
		entry.Response = submitErr.Error()
	} else if id, ok := sub.JobID(); ok {
		entry.JobID = id
	}
	if _, err := db.RecordSubmission(entry); err != nil {
		s.log.Info(fmt.Sprintf("ledger: %v", err))
	}
}

func isContextCanceledErr(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, context.Canceled)
}
