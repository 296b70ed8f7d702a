package output

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var unsafeName = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

func random8() (string, error) {
	b := make([]byte, 8)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b), nil
}

// Slug turns a query name into a file name stem.
func Slug(name string) string {
	s := unsafeName.ReplaceAllString(strings.TrimSpace(name), "_")
	s = strings.Trim(s, "._")
	if s == "" {
		return "query"
	}
	return s
}

// ArtifactPath is the default download target for a query name.
func ArtifactPath(outDir, name string) string {
	return filepath.Join(outDir, Slug(name)+".tsv")
}

// UniquePath returns outDir/<prefix>_<random>.<ext> that does not exist yet.
func UniquePath(outDir, prefix, ext string) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	for i := 0; i < 100; i++ {
		s, err := random8()
		if err != nil {
			return "", err
		}
		p := filepath.Join(outDir, fmt.Sprintf("%s_%s.%s", Slug(prefix), s, ext))
		if _, err := os.Stat(p); err == nil {
			continue
		}
		return p, nil
	}
	return "", fmt.Errorf("could not find a free file name in %s", outDir)
}
