package converters

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"sync"
	"testing"
)

// fakeEngine records every Exec call and writes produce(args) to the last
// argument, which is the output name for every job in this package.
type fakeEngine struct {
	mu        sync.Mutex
	loadErr   error
	execErr   error
	deleteErr error
	produce   func(args []string) []byte
	files     map[string][]byte
	calls     [][]string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{files: map[string][]byte{}}
}

func (e *fakeEngine) Load(context.Context) error { return e.loadErr }

func (e *fakeEngine) WriteFile(name string, data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.files[name] = data
	return nil
}

func (e *fakeEngine) ReadFile(name string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	data, ok := e.files[name]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", name, os.ErrNotExist)
	}
	return data, nil
}

func (e *fakeEngine) DeleteFile(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.files[name]; !ok {
		return os.ErrNotExist
	}
	if e.deleteErr != nil {
		return e.deleteErr
	}
	delete(e.files, name)
	return nil
}

func (e *fakeEngine) Exec(_ context.Context, args ...string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, append([]string(nil), args...))
	if e.execErr != nil {
		return e.execErr
	}
	out := []byte("encoded")
	if e.produce != nil {
		out = e.produce(args)
	}
	e.files[args[len(args)-1]] = out
	return nil
}

func (e *fakeEngine) lastCall(t *testing.T) []string {
	t.Helper()
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.calls) == 0 {
		t.Fatal("engine was never executed")
	}
	return e.calls[len(e.calls)-1]
}

func (e *fakeEngine) scratchLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.files)
}

type fakeHEIC struct {
	quality int
	out     []byte
	err     error
}

func (f *fakeHEIC) DecodeJPEG(_ context.Context, _ []byte, quality int) ([]byte, error) {
	f.quality = quality
	return f.out, f.err
}

// pngBytes returns a w x h PNG. The left half is opaque orange, the right
// half fully transparent.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w/2; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// pdfBytes builds a minimal PDF with the given number of empty pages.
func pdfBytes(t *testing.T, pages int) []byte {
	t.Helper()

	var objects []string
	kids := ""
	for i := 0; i < pages; i++ {
		kids += fmt.Sprintf("%d 0 R ", i+3)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, pages),
	)
	for i := 0; i < pages; i++ {
		objects = append(objects, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 200] /Resources << >> >>")
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}
