package input

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Extensions picked up when walking a directory. Files named explicitly are
// always read.
var Extensions = []string{".yaml", ".yml", ".query", ".txt"}

type QueryFile struct {
	Path    string
	Name    string
	Content string
}

// Discover reads query files from files and directories. Each file's content is
// the query text sent as-is; its Name defaults to the file stem.
func Discover(inputs []string) ([]QueryFile, error) {
	var out []QueryFile
	seen := map[string]struct{}{}
	add := func(path string) error {
		key := path
		if abs, err := filepath.Abs(path); err == nil {
			key = abs
		}
		if _, exists := seen[key]; exists {
			return nil
		}
		qf, ok, err := readQuery(path)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		seen[key] = struct{}{}
		out = append(out, qf)
		return nil
	}
	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if err := add(in); err != nil {
				return nil, err
			}
			continue
		}
		var found []string
		err = filepath.WalkDir(in, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != in && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if hasQueryExt(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		for _, p := range found {
			if err := add(p); err != nil {
				return nil, err
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no query files found (extensions %s)", strings.Join(Extensions, ", "))
	}
	return out, nil
}

func hasQueryExt(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// readQuery skips blank files; a query with no text can never validate.
func readQuery(path string) (QueryFile, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return QueryFile{}, false, err
	}
	content := strings.TrimPrefix(string(b), "\ufeff")
	if strings.TrimSpace(content) == "" {
		return QueryFile{}, false, nil
	}
	base := filepath.Base(path)
	return QueryFile{
		Path:    path,
		Name:    strings.TrimSuffix(base, filepath.Ext(base)),
		Content: content,
	}, true, nil
}
