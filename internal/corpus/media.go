package corpus

var (
	DefaultVideoCodes = []string{"SRFV", "RTSV"}
	DefaultAudioCodes = []string{"SRFA"}
)

// Classifier decides whether a row is a transcription of audio or video.
type Classifier struct {
	video map[string]struct{}
	audio map[string]struct{}
}

func NewClassifier(video, audio []string) Classifier {
	return Classifier{video: codeSet(video), audio: codeSet(audio)}
}

func DefaultClassifier() Classifier {
	return NewClassifier(DefaultVideoCodes, DefaultAudioCodes)
}

func codeSet(codes []string) map[string]struct{} {
	m := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		m[c] = struct{}{}
	}
	return m
}

func (c Classifier) IsVideo(code string) bool {
	_, ok := c.video[code]
	return ok
}

func (c Classifier) IsAudio(code string) bool {
	_, ok := c.audio[code]
	return ok
}

// IsNonTextual reports true for audio and video medium codes. Unknown codes are text.
func (c Classifier) IsNonTextual(r Row) bool {
	return c.IsVideo(r.MediumCode) || c.IsAudio(r.MediumCode)
}
