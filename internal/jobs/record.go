package jobs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// JobID is the service's opaque identifier, kept as its literal JSON text whether the
// service sends a number or a string.
type JobID string

func (id *JobID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = JobID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("job id: %w", err)
	}
	*id = JobID(n.String())
	return nil
}

func (id JobID) String() string { return string(id) }

// JobRecord is a read-only snapshot of one job as reported by the status endpoints.
type JobRecord struct {
	ID          JobID  `json:"id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	DownloadURL string `json:"downloadUrl,omitempty"`
}

// StatusPolicy says which status strings end a job. Statuses are compared verbatim.
type StatusPolicy struct {
	Done   string
	Failed []string
}

func (p StatusPolicy) IsDone(status string) bool {
	return p.Done != "" && status == p.Done
}

func (p StatusPolicy) IsFailed(status string) bool {
	for _, s := range p.Failed {
		if s != "" && status == s {
			return true
		}
	}
	return false
}

func (p StatusPolicy) IsTerminal(status string) bool {
	return p.IsDone(status) || p.IsFailed(status)
}

func normalizeName(name string, caseSensitive bool) string {
	name = strings.TrimSpace(name)
	if !caseSensitive {
		name = strings.ToLower(name)
	}
	return name
}
