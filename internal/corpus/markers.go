package corpus

import "strings"

const (
	DefaultNoiseMarker     = "<LG>"
	DefaultParagraphMarker = "<ParagTitle>"
)

// Markers are the literal tags embedded in raw corpus text. Changing them changes the
// format being read.
type Markers struct {
	Noise          string
	ParagraphTitle string
}

func DefaultMarkers() Markers {
	return Markers{Noise: DefaultNoiseMarker, ParagraphTitle: DefaultParagraphMarker}
}

// Strip drops every line that contains the noise marker anywhere in it.
func (m Markers) Strip(content string) string {
	if m.Noise == "" || !strings.Contains(content, m.Noise) {
		return content
	}
	lines := SplitLines(content)
	kept := lines[:0]
	for _, line := range lines {
		if strings.Contains(line, m.Noise) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// Paragraphs splits on the paragraph-title marker. Empty segments are kept.
func (m Markers) Paragraphs(text string) []string {
	if m.ParagraphTitle == "" {
		return []string{text}
	}
	return strings.Split(text, m.ParagraphTitle)
}

func StripStructuralMarkers(content string) string {
	return DefaultMarkers().Strip(content)
}

func SplitLines(content string) []string {
	return strings.Split(content, "\n")
}
