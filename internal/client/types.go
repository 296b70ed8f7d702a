package client

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Credentials supplies the authentication headers attached to every request.
type Credentials interface {
	Header() http.Header
}

type HeaderCredentials http.Header

func (h HeaderCredentials) Header() http.Header { return http.Header(h).Clone() }

// Submission is the service's acknowledgment of a new query, returned verbatim, with the
// query text that was sent.
type Submission struct {
	Response   json.RawMessage `json:"response"`
	Query      string          `json:"query"`
	StatusCode int             `json:"status_code"`
}

// JobID extracts the "id" member of the acknowledgment when the service sends one.
func (s Submission) JobID() (string, bool) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(s.Response, &m); err != nil {
		return "", false
	}
	raw, ok := m["id"]
	if !ok {
		return "", false
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str, str != ""
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

func (s Submission) String() string {
	return fmt.Sprintf("HTTP %d %s", s.StatusCode, string(s.Response))
}
