package output

import (
	"bufio"
	"encoding/json"
	"io"
)

// JSONLWriter writes one JSON document per line.
type JSONLWriter struct {
	buf *bufio.Writer
	enc *json.Encoder
	n   int
}

func NewJSONLWriter(w io.Writer) *JSONLWriter {
	buf := bufio.NewWriter(w)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return &JSONLWriter{buf: buf, enc: enc}
}

func (w *JSONLWriter) Write(v any) error {
	if err := w.enc.Encode(v); err != nil {
		return err
	}
	w.n++
	return nil
}

func (w *JSONLWriter) Count() int { return w.n }

func (w *JSONLWriter) Flush() error { return w.buf.Flush() }

// WriteJSON writes v indented to path, replacing any existing file.
func WriteJSON(path string, v any) error {
	f, err := CreateAtomic(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		f.Abort()
		return err
	}
	return f.Commit()
}
