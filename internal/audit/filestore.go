package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileStore writes one JSON file per bundle under
// {dir}/yyyy/MM/dd/{session}/{yyyyMMdd_HHmmssfff}_{session}_bundle.json.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Save(ctx context.Context, b Bundle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.Path(b)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("audit: create bundle dir: %w", err)
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("audit: encode bundle: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("audit: write bundle: %w", err)
	}
	return nil
}

// Path is where Save puts b.
func (s *FileStore) Path(b Bundle) string {
	t := b.CreatedAt.UTC()
	session := SafeName(b.SessionID)
	stamp := fmt.Sprintf("%s%03d", t.Format("20060102_150405"), t.Nanosecond()/int(time.Millisecond))
	return filepath.Join(s.dir, t.Format("2006"), t.Format("01"), t.Format("02"), session,
		stamp+"_"+session+"_bundle.json")
}

// ReadFile loads a bundle written by FileStore.
func ReadFile(path string) (Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Bundle{}, fmt.Errorf("audit: read %s: %w", path, err)
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return Bundle{}, fmt.Errorf("audit: decode %s: %w", path, err)
	}
	return b, nil
}

// SafeName replaces characters that are not safe in a file name.
func SafeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == "." || s == ".." {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' || r == '"' || r == '<' || r == '>' || r == '|':
			return '_'
		case r < 0x20:
			return '_'
		}
		return r
	}, s)
}
