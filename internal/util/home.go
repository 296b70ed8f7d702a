package util

import (
	"fmt"
	"os"
	"path/filepath"
)

const appDirName = ".swissdox-cli"

func DefaultAppDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, appDirName), nil
}

func DefaultEnvPath() (string, error) {
	return inAppDir(".env")
}

func DefaultConfigPath() (string, error) {
	return inAppDir("config.yaml")
}

func DefaultLedgerPath() (string, error) {
	return inAppDir("ledger.db")
}

func inAppDir(name string) (string, error) {
	base, err := DefaultAppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, name), nil
}
