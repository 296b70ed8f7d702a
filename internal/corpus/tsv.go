package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	colID                = "id"
	colMediumCode        = "medium_code"
	colHead              = "head"
	colSubhead           = "subhead"
	colContent           = "content"
	colTranslatedHead    = "translated_head"
	colTranslatedSubhead = "translated_subhead"
	colTranslatedInput   = "translated_input"
)

var ErrMissingColumn = errors.New("missing required column")

// ReadTSV streams rows of a downloaded artifact to fn. Columns are located by the header
// line; an empty or missing subhead cell becomes an absent subhead.
func ReadTSV(r io.Reader, fn func(Row) error) error {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range []string{colMediumCode, colHead, colContent} {
		if _, ok := idx[col]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		line++
		if err != nil {
			return fmt.Errorf("read row %d: %w", line, err)
		}
		cell := func(name string) string {
			i, ok := idx[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return rec[i]
		}
		optional := func(name string) *string {
			v := cell(name)
			if v == "" {
				return nil
			}
			return &v
		}
		row := Row{
			ID:                cell(colID),
			MediumCode:        cell(colMediumCode),
			Head:              cell(colHead),
			Subhead:           optional(colSubhead),
			Content:           cell(colContent),
			TranslatedHead:    cell(colTranslatedHead),
			TranslatedSubhead: optional(colTranslatedSubhead),
			TranslatedInput:   cell(colTranslatedInput),
		}
		if err := fn(row); err != nil {
			return err
		}
	}
}
