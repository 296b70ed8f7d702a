package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"
)

type HistoryOptions struct {
	CommonOptions
	Limit int
	JSON  bool
}

type historyEntry struct {
	JobID       string    `json:"job_id,omitempty"`
	Name        string    `json:"name"`
	Comment     string    `json:"comment,omitempty"`
	Expiration  string    `json:"expiration,omitempty"`
	StatusCode  int       `json:"status_code"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// RunHistory lists submissions recorded on this machine, newest first.
func RunHistory(_ context.Context, opts HistoryOptions) error {
	s, err := openSession(opts.CommonOptions, false)
	if err != nil {
		return err
	}
	defer func() { _ = s.close() }()

	if s.cfg.Ledger.Disabled {
		return errors.New("ledger is disabled (ledger.disabled in config)")
	}
	db := s.openLedger()
	if db == nil {
		return errors.New("ledger unavailable")
	}
	subs, err := db.Submissions(opts.Limit)
	if err != nil {
		return err
	}
	entries := make([]historyEntry, 0, len(subs))
	for _, sub := range subs {
		entries = append(entries, historyEntry{
			JobID:       sub.JobID,
			Name:        sub.Name,
			Comment:     sub.Comment,
			Expiration:  sub.Expiration,
			StatusCode:  sub.StatusCode,
			SubmittedAt: sub.SubmittedAt,
		})
	}
	if opts.JSON {
		return printJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Println("no submissions recorded")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SUBMITTED\tJOB\tNAME\tHTTP\tEXPIRES")
	for _, e := range entries {
		job := e.JobID
		if job == "" {
			job = "-"
		}
		exp := e.Expiration
		if exp == "" {
			exp = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", e.SubmittedAt.Local().Format("2006-01-02 15:04"), job, e.Name, e.StatusCode, exp)
	}
	return w.Flush()
}
