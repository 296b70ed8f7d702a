package jobs

// Ref names a job by name, by id, or both. An id wins when present.
type Ref struct {
	Name string
	ID   JobID
}

func (r Ref) empty() bool {
	return r.Name == "" && r.ID == ""
}

// FindID returns the id of the first record whose name matches. Names are trimmed and,
// unless caseSensitive, lower-cased on both sides.
func FindID(records []JobRecord, name string, caseSensitive bool) (JobID, bool) {
	want := normalizeName(name, caseSensitive)
	for _, r := range records {
		if normalizeName(r.Name, caseSensitive) == want {
			return r.ID, true
		}
	}
	return "", false
}

// Find returns the record for ref. A missing match is not an error.
func Find(records []JobRecord, ref Ref) (JobRecord, bool, error) {
	if ref.empty() {
		return JobRecord{}, false, &ValidationError{Message: "either a job name or a job id is required"}
	}
	id := ref.ID
	if id == "" {
		found, ok := FindID(records, ref.Name, false)
		if !ok {
			return JobRecord{}, false, nil
		}
		id = found
	}
	for _, r := range records {
		if r.ID == id {
			return r, true, nil
		}
	}
	return JobRecord{}, false, nil
}

// ResolveDownloadURL returns the artifact locator of the referenced job. It reports false
// when no record matches or the job has no artifact yet.
func ResolveDownloadURL(records []JobRecord, ref Ref) (string, bool, error) {
	r, ok, err := Find(records, ref)
	if err != nil || !ok {
		return "", false, err
	}
	if r.DownloadURL == "" {
		return "", false, nil
	}
	return r.DownloadURL, true, nil
}

// Names lists every record name normalized the same way FindID compares them.
func Names(records []JobRecord, caseSensitive bool) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, normalizeName(r.Name, caseSensitive))
	}
	return out
}
