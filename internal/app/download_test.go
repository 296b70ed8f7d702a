package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"swissdox-cli/internal/jobs"
)

func TestRunDownload(t *testing.T) {
	svc := newFakeService(t)
	svc.addJob(jobs.JobRecord{ID: "1", Name: "Report A", Status: "finished"}, "medium_code\thead\tcontent\nNZZ\tH\tC\n")
	svc.addJob(jobs.JobRecord{ID: "2", Name: "Pending", Status: "running"}, "")
	svc.addJob(jobs.JobRecord{ID: "3", Name: "Empty", Status: "finished"}, "")
	opts := setupRun(t, svc.URL(), nil)
	dir := t.TempDir()

	var err error
	captureStdout(t, func() {
		err = RunDownload(context.Background(), DownloadOptions{CommonOptions: opts, Name: "REPORT A", OutputDir: dir})
	})
	if err != nil {
		t.Fatalf("RunDownload error: %v", err)
	}
	if b, _ := os.ReadFile(filepath.Join(dir, "Report_A.tsv")); !strings.Contains(string(b), "NZZ") {
		t.Fatalf("artifact=%q", b)
	}

	explicit := filepath.Join(dir, "by-id.tsv")
	captureStdout(t, func() {
		err = RunDownload(context.Background(), DownloadOptions{CommonOptions: opts, ID: "1", Output: explicit})
	})
	if err != nil {
		t.Fatalf("RunDownload by id error: %v", err)
	}
	if _, err := os.Stat(explicit); err != nil {
		t.Fatal(err)
	}

	err = RunDownload(context.Background(), DownloadOptions{CommonOptions: opts, Name: "pending", OutputDir: dir})
	if err == nil || !strings.Contains(err.Error(), "no download yet") {
		t.Fatalf("err=%v", err)
	}
	err = RunDownload(context.Background(), DownloadOptions{CommonOptions: opts, Name: "missing", OutputDir: dir})
	if err == nil || !strings.Contains(err.Error(), "no job matches") {
		t.Fatalf("err=%v", err)
	}
	if err := RunDownload(context.Background(), DownloadOptions{CommonOptions: opts}); !jobs.IsValidationError(err) {
		t.Fatalf("err=%v want ValidationError", err)
	}
}

func TestRunDownloadEmptyArtifactWarns(t *testing.T) {
	svc := newFakeService(t)
	svc.addJob(jobs.JobRecord{ID: "1", Name: "Report", Status: "finished"}, "")
	opts := setupRun(t, svc.URL(), nil)
	// addJob with an empty body leaves no locator; publish an empty artifact by hand.
	svc.mu.Lock()
	svc.jobs[0].DownloadURL = svc.srv.URL + "/files/1.tsv"
	svc.artifact["1"] = ""
	svc.mu.Unlock()

	target := filepath.Join(t.TempDir(), "empty.tsv")
	var err error
	out := captureStdout(t, func() {
		err = RunDownload(context.Background(), DownloadOptions{CommonOptions: opts, ID: "1", Output: target})
	})
	if err != nil {
		t.Fatalf("RunDownload error: %v", err)
	}
	if info, err := os.Stat(target); err != nil || info.Size() != 0 {
		t.Fatalf("empty artifact should still be written: %v", err)
	}
	if !strings.Contains(out, "the file is empty") {
		t.Fatalf("missing empty-file warning:\n%s", out)
	}
}

func TestRunDownloadGoneWritesNothing(t *testing.T) {
	svc := newFakeService(t)
	svc.addJob(jobs.JobRecord{ID: "1", Name: "Report", Status: "finished"}, "")
	svc.mu.Lock()
	svc.jobs[0].DownloadURL = svc.srv.URL + "/files/expired.tsv"
	svc.mu.Unlock()
	opts := setupRun(t, svc.URL(), nil)

	target := filepath.Join(t.TempDir(), "gone.tsv")
	err := RunDownload(context.Background(), DownloadOptions{CommonOptions: opts, ID: "1", Output: target})
	if err == nil || !strings.Contains(err.Error(), "410") {
		t.Fatalf("err=%v", err)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatalf("nothing should be written, stat err=%v", err)
	}
}
