// Package source provides queue.File implementations for files on disk,
// dropped folders and in-memory buffers.
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// genericTypes carry no information the classifier can use; files detected as
// one of these are classified by extension instead.
var genericTypes = map[string]bool{
	"application/octet-stream": true,
	"text/plain":               true,
}

// DetectType sniffs the media type from the start of data. It returns "" when
// only a generic type could be determined.
func DetectType(data []byte) string {
	return usable(mimetype.Detect(data).String())
}

func usable(mt string) string {
	base := mt
	if i := strings.IndexByte(base, ';'); i >= 0 {
		base = base[:i]
	}
	if genericTypes[strings.TrimSpace(base)] {
		return ""
	}
	return mt
}

// File is a file on disk. Name is the path relative to the input root, with
// forward slashes.
type File struct {
	path      string
	name      string
	size      int64
	mediaType string
}

// Open stats path and sniffs its media type. The file's name is its base name.
func Open(path string) (*File, error) {
	return open(path, filepath.Base(path))
}

func open(path, name string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("detect type of %s: %w", path, err)
	}
	return &File{
		path:      path,
		name:      filepath.ToSlash(name),
		size:      info.Size(),
		mediaType: usable(mt.String()),
	}, nil
}

func (f *File) Name() string      { return f.name }
func (f *File) Size() int64       { return f.size }
func (f *File) MediaType() string { return f.mediaType }
func (f *File) Path() string      { return f.path }

func (f *File) ReadAll(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(f.path)
}

// Walk returns every regular file below root, sorted by name. Names keep the
// root folder itself as their first element, so "photos/2023/a.heic" under
// root "photos" is archived as photos/2023/a.jpg. Hidden files and folders are
// skipped.
func Walk(root string) ([]*File, error) {
	root = filepath.Clean(root)
	parent := filepath.Dir(root)

	var files []*File
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(parent, path)
		if err != nil {
			return err
		}
		f, err := open(path, rel)
		if err != nil {
			return err
		}
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })
	return files, nil
}

// Collect expands paths into files: directories are walked, files opened.
func Collect(paths ...string) ([]*File, error) {
	var files []*File
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if info.IsDir() {
			walked, err := Walk(p)
			if err != nil {
				return nil, err
			}
			files = append(files, walked...)
			continue
		}
		f, err := Open(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return nil, errors.New("no input files")
	}
	return files, nil
}

// Memory is an in-memory file.
type Memory struct {
	name      string
	mediaType string
	data      []byte
}

// NewMemory returns an in-memory file. An empty mediaType is sniffed from
// data.
func NewMemory(name, mediaType string, data []byte) *Memory {
	if mediaType == "" {
		mediaType = DetectType(data)
	}
	return &Memory{name: name, mediaType: mediaType, data: data}
}

func (m *Memory) Name() string      { return m.name }
func (m *Memory) Size() int64       { return int64(len(m.data)) }
func (m *Memory) MediaType() string { return m.mediaType }

func (m *Memory) ReadAll(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.data, nil
}
