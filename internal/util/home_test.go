package util

import (
	"path/filepath"
	"testing"
)

func TestDefaultPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	appDir, err := DefaultAppDir()
	if err != nil {
		t.Fatalf("DefaultAppDir error: %v", err)
	}
	wantApp := filepath.Join(home, ".swissdox-cli")
	if appDir != wantApp {
		t.Fatalf("appDir=%q want=%q", appDir, wantApp)
	}

	for name, fn := range map[string]func() (string, error){
		".env":        DefaultEnvPath,
		"config.yaml": DefaultConfigPath,
		"ledger.db":   DefaultLedgerPath,
	} {
		got, err := fn()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if want := filepath.Join(wantApp, name); got != want {
			t.Fatalf("got=%q want=%q", got, want)
		}
	}
}
