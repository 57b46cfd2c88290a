package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Sink receives the finished archive. It is write-only from the assembler's
// point of view.
type Sink interface {
	Save(ctx context.Context, name string, data []byte) error
}

// DirSink writes archives into a directory, replacing any file with the same
// name.
type DirSink struct {
	Dir string
}

func (s DirSink) Save(_ context.Context, name string, data []byte) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", s.Dir, err)
	}

	// Write beside the target and rename into place.
	tmp, err := os.CreateTemp(s.Dir, ".archive-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	return os.Rename(tmp.Name(), s.Path(name))
}

// Path is where Save writes name.
func (s DirSink) Path(name string) string {
	return filepath.Join(s.Dir, filepath.Base(name))
}

// MemorySink keeps saved archives in memory.
type MemorySink struct {
	Saved map[string][]byte
}

func (s *MemorySink) Save(_ context.Context, name string, data []byte) error {
	if s.Saved == nil {
		s.Saved = make(map[string][]byte)
	}
	s.Saved[name] = append([]byte(nil), data...)
	return nil
}
