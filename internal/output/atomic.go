package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const filePerm os.FileMode = 0o644

// AtomicFile is written under a temporary name next to its final path and only appears
// at that path on Commit.
type AtomicFile struct {
	*os.File
	finalPath string
	done      bool
}

func CreateAtomic(finalPath string) (*AtomicFile, error) {
	dir := filepath.Dir(finalPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(finalPath)+".*.part")
	if err != nil {
		return nil, fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	return &AtomicFile{File: tmp, finalPath: finalPath}, nil
}

// Commit fsyncs the temp file and renames it over the final path, replacing any
// existing file.
func (f *AtomicFile) Commit() error {
	if f.done {
		return fmt.Errorf("atomic file %s already closed", f.finalPath)
	}
	f.done = true
	tmpPath := f.Name()
	if err := f.Sync(); err != nil {
		f.File.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("fsync %s: %w", tmpPath, err)
	}
	if err := f.File.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, filePerm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, f.finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s -> %s: %w", tmpPath, f.finalPath, err)
	}
	return syncDir(filepath.Dir(f.finalPath))
}

// Abort discards the temp file. It is a no-op after Commit.
func (f *AtomicFile) Abort() {
	if f.done {
		return
	}
	f.done = true
	f.File.Close()
	os.Remove(f.Name())
}

// WriteAtomic copies r into path through an AtomicFile and returns the bytes written.
func WriteAtomic(path string, r io.Reader) (int64, error) {
	f, err := CreateAtomic(path)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, r)
	if err != nil {
		f.Abort()
		return n, fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Commit(); err != nil {
		return n, err
	}
	return n, nil
}

func syncDir(path string) error {
	d, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("fsync dir open %s: %w", path, err)
	}
	if err := d.Sync(); err != nil {
		d.Close()
		return fmt.Errorf("fsync dir %s: %w", path, err)
	}
	return d.Close()
}
