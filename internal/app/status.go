package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"swissdox-cli/internal/jobs"
)

type StatusOptions struct {
	CommonOptions
	ID   string
	JSON bool
}

func RunStatus(ctx context.Context, opts StatusOptions) error {
	s, err := openSession(opts.CommonOptions, true)
	if err != nil {
		return err
	}
	defer func() { _ = s.close() }()

	var records []jobs.JobRecord
	if id := strings.TrimSpace(opts.ID); id != "" {
		rec, found, err := s.lookup(ctx, jobs.Ref{ID: jobs.JobID(id)})
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("job id %s not found", id)
		}
		records = []jobs.JobRecord{rec}
	} else {
		records, err = s.statuses(ctx)
		if err != nil {
			return err
		}
	}
	if opts.JSON {
		return printJSON(records)
	}
	return printRecords(records)
}

type NamesOptions struct {
	CommonOptions
	CaseSensitive bool
}

// RunNames prints every job name the way name lookups compare them.
func RunNames(ctx context.Context, opts NamesOptions) error {
	s, err := openSession(opts.CommonOptions, true)
	if err != nil {
		return err
	}
	defer func() { _ = s.close() }()

	records, err := s.statuses(ctx)
	if err != nil {
		return err
	}
	for _, name := range jobs.Names(records, opts.CaseSensitive) {
		fmt.Println(name)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRecords(records []jobs.JobRecord) error {
	if len(records) == 0 {
		fmt.Println("no jobs")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tDOWNLOAD")
	for _, r := range records {
		dl := r.DownloadURL
		if dl == "" {
			dl = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Status, dl)
	}
	return w.Flush()
}
