// Package archive bundles converted queue items into a single zip.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/tendant/simple-converter/internal/media"
	"github.com/tendant/simple-converter/internal/queue"
)

// DefaultName is the archive file name when none is configured.
const DefaultName = "converted.zip"

// Entry is one file inside the archive.
type Entry struct {
	Name string
	Data []byte
}

// PageSplitter turns one PDF into single-page PDFs, in page order.
type PageSplitter func(ctx context.Context, data []byte) ([][]byte, error)

// Assembler collects the outputs of finished items and writes them to a sink.
type Assembler struct {
	split    PageSplitter
	sink     Sink
	name     string
	modified time.Time
	logger   *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithName sets the archive file name handed to the sink.
func WithName(name string) Option {
	return func(a *Assembler) {
		if strings.TrimSpace(name) != "" {
			a.name = name
		}
	}
}

// WithModified fixes the modification time stored for every entry.
func WithModified(t time.Time) Option {
	return func(a *Assembler) { a.modified = t }
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func New(split PageSplitter, sink Sink, opts ...Option) *Assembler {
	a := &Assembler{
		split:    split,
		sink:     sink,
		name:     DefaultName,
		modified: time.Now(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Entries returns the archive entries for items, in item order. Only
// selected, done items contribute. Split documents contribute one entry per
// page; everything else contributes its stored output. Names that collide get
// a numeric suffix. A document that cannot be split is left out and its name
// returned in skipped; only cancellation aborts the whole set.
func (a *Assembler) Entries(ctx context.Context, items []*queue.Item) (entries []Entry, skipped []string, err error) {
	used := make(map[string]bool)
	add := func(name string, data []byte) {
		name = uniqueName(media.CleanArchivePath(name), used)
		used[name] = true
		entries = append(entries, Entry{Name: name, Data: data})
	}

	for _, item := range items {
		snap := item.Snapshot()
		if !snap.Selected || snap.Status != queue.StatusDone {
			continue
		}

		if snap.Category == media.CategoryDocument && snap.Options.Document.Action == media.DocumentSplit {
			pages, err := a.pagesOf(ctx, item)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, nil, ctxErr
				}
				a.logger.Warn("leaving document out of archive", "item_id", snap.ID, "name", snap.Name, "err", err)
				skipped = append(skipped, snap.Name)
				continue
			}
			for i, page := range pages {
				add(media.PageName(snap.Name, i+1), page)
			}
			continue
		}

		out := item.Output()
		if out == nil {
			continue
		}
		add(media.OutputName(snap.Name, snap.Target), out)
	}
	return entries, skipped, nil
}

func (a *Assembler) pagesOf(ctx context.Context, item *queue.Item) ([][]byte, error) {
	data, err := item.File().ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	pages, err := a.split(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}
	return pages, nil
}

// Assemble builds the archive for items and hands it to the sink. It returns
// the number of entries written; zero means nothing was saved. Documents that
// could not be split are logged and left out.
func (a *Assembler) Assemble(ctx context.Context, items []*queue.Item) (int, error) {
	entries, skipped, err := a.Entries(ctx, items)
	if err != nil {
		return 0, err
	}
	if len(skipped) > 0 {
		a.logger.Warn("archive incomplete", "skipped", skipped)
	}
	if len(entries) == 0 {
		a.logger.Info("nothing to archive")
		return 0, nil
	}

	data, err := a.Zip(entries)
	if err != nil {
		return 0, err
	}
	if err := a.sink.Save(ctx, a.name, data); err != nil {
		return 0, fmt.Errorf("save archive: %w", err)
	}
	a.logger.Info("archive saved", "name", a.name, "entries", len(entries), "bytes", len(data))
	return len(entries), nil
}

// Zip compresses entries into a zip archive, in order.
func (a *Assembler) Zip(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.Name,
			Method:   zip.Deflate,
			Modified: a.modified,
		})
		if err != nil {
			return nil, fmt.Errorf("add %s: %w", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			return nil, fmt.Errorf("write %s: %w", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}

// uniqueName appends -2, -3, ... before the extension until name is unused.
func uniqueName(name string, used map[string]bool) string {
	if !used[name] {
		return name
	}
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d%s", base, n, ext)
		if !used[candidate] {
			return candidate
		}
	}
}
