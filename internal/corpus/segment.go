package corpus

import "github.com/rs/zerolog"

type ResultKind int

const (
	ResultEmpty ResultKind = iota
	ResultParagraphs
)

func (k ResultKind) String() string {
	if k == ResultParagraphs {
		return "paragraphs"
	}
	return "empty"
}

// Result separates "no textual content" from a list of paragraphs. When Kind is
// ResultParagraphs the head block is Paragraphs[0].
type Result struct {
	Kind       ResultKind
	Paragraphs []string
}

func (r Result) Empty() bool { return r.Kind == ResultEmpty }

type Segmenter struct {
	Markers    Markers
	Classifier Classifier
	log        zerolog.Logger
}

func NewSegmenter(markers Markers, classifier Classifier, log zerolog.Logger) *Segmenter {
	return &Segmenter{Markers: markers, Classifier: classifier, log: log}
}

func DefaultSegmenter() *Segmenter {
	return NewSegmenter(DefaultMarkers(), DefaultClassifier(), zerolog.Nop())
}

// Segment returns the head block followed by the body paragraphs of the selected field
// family. Audio and video rows yield an empty result.
func (s *Segmenter) Segment(r Row, translated bool) Result {
	if s.Classifier.IsNonTextual(r) {
		s.log.Info().
			Str("operation", "segment").
			Str("id", r.ID).
			Str("medium_code", r.MediumCode).
			Msg("no textual content: audio or video transcription")
		return Result{Kind: ResultEmpty}
	}
	f := r.family(translated)
	head := f.head + "\n"
	if f.subhead != nil {
		head += *f.subhead + "\n"
	}
	body := s.Markers.Paragraphs(s.Markers.Strip(f.content))
	paragraphs := make([]string, 0, len(body)+1)
	paragraphs = append(paragraphs, head)
	paragraphs = append(paragraphs, body...)
	return Result{Kind: ResultParagraphs, Paragraphs: paragraphs}
}
