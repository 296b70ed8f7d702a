package corpus

// Row is one retrieved document. Subhead fields are nil when the source cell is absent,
// which is distinct from an empty string.
type Row struct {
	ID                string
	MediumCode        string
	Head              string
	Subhead           *string
	Content           string
	TranslatedHead    string
	TranslatedSubhead *string
	TranslatedInput   string
}

// Text returns a pointer to s, for building rows with a present subhead.
func Text(s string) *string { return &s }

type fields struct {
	head    string
	subhead *string
	content string
}

func (r Row) family(translated bool) fields {
	if translated {
		return fields{head: r.TranslatedHead, subhead: r.TranslatedSubhead, content: r.TranslatedInput}
	}
	return fields{head: r.Head, subhead: r.Subhead, content: r.Content}
}
