package corpus

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// DefaultLanguages covers the national languages of the corpus plus English.
var DefaultLanguages = []lingua.Language{lingua.German, lingua.French, lingua.Italian, lingua.English}

// LanguageTagger guesses the language of segmented text.
type LanguageTagger struct {
	detector lingua.LanguageDetector
}

func NewLanguageTagger(languages ...lingua.Language) *LanguageTagger {
	if len(languages) == 0 {
		languages = DefaultLanguages
	}
	d := lingua.NewLanguageDetectorBuilder().
		FromLanguages(languages...).
		WithPreloadedLanguageModels().
		Build()
	return &LanguageTagger{detector: d}
}

// Tag returns the lower-case ISO 639-1 code of the most likely language.
func (t *LanguageTagger) Tag(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	lang, ok := t.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}

// TagResult tags the joined paragraphs of a result.
func (t *LanguageTagger) TagResult(r Result) (string, bool) {
	if r.Empty() {
		return "", false
	}
	return t.Tag(strings.Join(r.Paragraphs, "\n"))
}
