package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"swissdox-cli/internal/corpus"
	"swissdox-cli/internal/output"
)

type SegmentOptions struct {
	CommonOptions
	Input string
	// Output is the JSONL path; empty means next to Input, "-" means stdout.
	Output     string
	Translated bool
	DetectLang bool
}

type segmentedDocument struct {
	ID         string   `json:"id,omitempty"`
	MediumCode string   `json:"medium_code"`
	Kind       string   `json:"kind"`
	Paragraphs []string `json:"paragraphs,omitempty"`
	Language   string   `json:"language,omitempty"`
}

var newLanguageTagger = func() *corpus.LanguageTagger {
	return corpus.NewLanguageTagger()
}

// RunSegment turns a downloaded TSV artifact into one JSON document per row.
func RunSegment(ctx context.Context, opts SegmentOptions) error {
	if strings.TrimSpace(opts.Input) == "" {
		return fmt.Errorf("a TSV file is required")
	}
	s, err := openSession(opts.CommonOptions, false)
	if err != nil {
		return err
	}
	defer func() { _ = s.close() }()

	in, err := os.Open(opts.Input)
	if err != nil {
		return err
	}
	defer in.Close()

	target := opts.Output
	if target == "" {
		target = strings.TrimSuffix(opts.Input, filepath.Ext(opts.Input)) + ".jsonl"
	}
	var (
		w  io.Writer = os.Stdout
		af *output.AtomicFile
	)
	if target == "-" {
		s.log.UseStderr()
	} else {
		af, err = output.CreateAtomic(target)
		if err != nil {
			return err
		}
		defer af.Abort()
		w = af
	}

	seg := corpus.NewSegmenter(s.cfg.Corpus.Markers(), s.cfg.Corpus.Classifier(), s.log.Zerolog())
	var tagger *corpus.LanguageTagger
	if opts.DetectLang {
		tagger = newLanguageTagger()
	}
	jw := output.NewJSONLWriter(w)
	empty := 0
	err = corpus.ReadTSV(in, func(row corpus.Row) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		res := seg.Segment(row, opts.Translated)
		s.metrics.RecordSegment(res.Kind.String(), len(res.Paragraphs))
		doc := segmentedDocument{
			ID:         row.ID,
			MediumCode: row.MediumCode,
			Kind:       res.Kind.String(),
			Paragraphs: res.Paragraphs,
		}
		if res.Empty() {
			empty++
		} else if tagger != nil {
			doc.Language, _ = tagger.TagResult(res)
		}
		return jw.Write(doc)
	})
	if err != nil {
		return fmt.Errorf("segment %s: %w", opts.Input, err)
	}
	if err := jw.Flush(); err != nil {
		return err
	}
	if af != nil {
		if err := af.Commit(); err != nil {
			return err
		}
		s.log.Info(fmt.Sprintf("segmented %d rows (%d without text): %s", jw.Count(), empty, mustAbsPath(target)))
	}
	return nil
}
