package app

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"swissdox-cli/internal/config"
	"swissdox-cli/internal/jobs"
)

// fakeService is an in-memory stand-in for the retrieval API.
type fakeService struct {
	mu       sync.Mutex
	srv      *httptest.Server
	nextID   int
	jobs     []jobs.JobRecord
	forms    []map[string]string
	headers  []http.Header
	hits     map[string]int
	artifact map[string]string
	// polls counts status calls per submitted job; static jobs are absent.
	polls map[string]int

	// statusFlow lists the statuses a job moves through, one per poll.
	statusFlow []string
	// failStatus answers this many /status calls with failCode first.
	failStatus int
	failCode   int
	submitCode int
	inFlight   int
	maxFlight  int
}

func newFakeService(t *testing.T) *fakeService {
	t.Helper()
	f := &fakeService{
		nextID:     100,
		hits:       map[string]int{},
		artifact:   map[string]string{},
		polls:      map[string]int{},
		statusFlow: []string{"finished"},
		submitCode: http.StatusCreated,
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeService) URL() string { return f.srv.URL + "/api" }

func (f *fakeService) hit(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[key]
}

func (f *fakeService) addJob(rec jobs.JobRecord, artifact string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if artifact != "" {
		rec.DownloadURL = f.srv.URL + "/files/" + rec.ID.String() + ".tsv"
		f.artifact[rec.ID.String()] = artifact
	}
	f.jobs = append(f.jobs, rec)
}

func (f *fakeService) serve(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/query":
		f.serveSubmit(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/api/status":
		f.serveStatus(w, "")
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/status/"):
		f.serveStatus(w, strings.TrimPrefix(r.URL.Path, "/api/status/"))
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/files/"):
		f.mu.Lock()
		f.hits["download"]++
		body, ok := f.artifact[strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/files/"), ".tsv")]
		f.mu.Unlock()
		if !ok {
			http.Error(w, "gone", http.StatusGone)
			return
		}
		_, _ = io.WriteString(w, body)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeService) serveSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.hits["submit"]++
	f.inFlight++
	if f.inFlight > f.maxFlight {
		f.maxFlight = f.inFlight
	}
	form := map[string]string{}
	for k := range r.PostForm {
		form[k] = r.PostForm.Get(k)
	}
	f.forms = append(f.forms, form)
	f.headers = append(f.headers, r.Header.Clone())
	code := f.submitCode
	id := f.nextID
	f.nextID++
	if code/100 == 2 {
		f.jobs = append(f.jobs, jobs.JobRecord{ID: jobs.JobID(fmt.Sprint(id)), Name: form["name"], Status: "queued"})
		f.polls[fmt.Sprint(id)] = 0
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()
	if code/100 != 2 {
		http.Error(w, "query rejected", code)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id, "status": "queued"})
}

// serveStatus moves every submitted job one step through statusFlow per call.
func (f *fakeService) serveStatus(w http.ResponseWriter, id string) {
	f.mu.Lock()
	f.hits["status"]++
	if f.failStatus > 0 {
		f.failStatus--
		code := f.failCode
		f.mu.Unlock()
		http.Error(w, "unavailable", code)
		return
	}
	for i := range f.jobs {
		jid := f.jobs[i].ID.String()
		n, tracked := f.polls[jid]
		if !tracked {
			continue
		}
		if n >= len(f.statusFlow) {
			n = len(f.statusFlow) - 1
		}
		f.polls[jid]++
		f.jobs[i].Status = f.statusFlow[n]
		if f.jobs[i].Status == "finished" && f.jobs[i].DownloadURL == "" {
			f.jobs[i].DownloadURL = f.srv.URL + "/files/" + jid + ".tsv"
			if _, ok := f.artifact[jid]; !ok {
				f.artifact[jid] = "medium_code\thead\tcontent\nNZZ\tH\tbody\n"
			}
		}
	}
	snapshot := append([]jobs.JobRecord(nil), f.jobs...)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if id == "" {
		_ = json.NewEncoder(w).Encode(snapshot)
		return
	}
	for _, rec := range snapshot {
		if rec.ID.String() == id {
			_ = json.NewEncoder(w).Encode(rec)
			return
		}
	}
	http.Error(w, "no such job", http.StatusNotFound)
}

// setupRun points HOME, credentials and config at temp locations and returns options
// that talk to baseURL. mutate may adjust the config before it is saved.
func setupRun(t *testing.T, baseURL string, mutate func(*config.Config)) CommonOptions {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.APIKeyEnvName, "test-key")
	t.Setenv(config.APISecretEnvName, "test-secret")

	cfg, err := config.Default()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Server.BaseURL = baseURL
	cfg.Run.PollIntervalMs = 1
	cfg.Run.PollTimeoutSecond = 5
	cfg.Run.RequestTimeoutSecond = 5
	cfg.Ledger.Path = filepath.Join(home, "ledger.db")
	if mutate != nil {
		mutate(&cfg)
	}
	cfgPath := filepath.Join(home, "config.yaml")
	if err := config.Save(cfgPath, cfg); err != nil {
		t.Fatal(err)
	}

	oldBackoff := pollBackoffBase
	pollBackoffBase = time.Millisecond
	t.Cleanup(func() { pollBackoffBase = oldBackoff })
	return CommonOptions{ConfigPath: cfgPath}
}

func writeQuery(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}
