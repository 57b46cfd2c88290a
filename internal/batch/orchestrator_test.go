package batch

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/tendant/simple-converter/internal/converters"
	"github.com/tendant/simple-converter/internal/media"
	"github.com/tendant/simple-converter/internal/queue"
)

type memFile struct {
	name string
	data []byte
}

func (f memFile) Name() string { return f.name }
func (f memFile) Size() int64 { return int64(len(f.data)) }
func (f memFile) MediaType() string { return "" }
func (f memFile) ReadAll(context.Context) ([]byte, error) { return f.data, nil }

// stubConverter fails every request whose data is "bad" and echoes the name
// otherwise. HEIC requests come back as JPEG.
type stubConverter struct {
	mu    sync.Mutex
	seen  []converters.Request
	after func(req converters.Request)
}

func (s *stubConverter) Convert(_ context.Context, req converters.Request) (converters.Output, error) {
	s.mu.Lock()
	s.seen = append(s.seen, req)
	s.mu.Unlock()
	if s.after != nil {
		defer s.after(req)
	}

	if string(req.Data) == "bad" {
		return converters.Output{}, &converters.DecodeError{Op: "test", Err: errors.New("corrupt input")}
	}
	target := req.Target
	if req.Category == media.CategoryHEIC {
		target = media.TargetJPEG
	}
	return converters.Output{Data: []byte("out:" + req.Name), Target: target}, nil
}

type recorder struct {
	statuses map[string][]queue.Status
	progress []int
}

func newRecorder() *recorder {
	return &recorder{statuses: map[string][]queue.Status{}}
}

func (r *recorder) ItemUpdated(snap queue.Snapshot) {
	r.statuses[snap.Name] = append(r.statuses[snap.Name], snap.Status)
}

func (r *recorder) ProgressUpdated(percent int) {
	r.progress = append(r.progress, percent)
}

func TestRunIsolatesFailures(t *testing.T) {
	q := queue.New()
	q.Add(
		memFile{name: "a.png", data: []byte("ok")},
		memFile{name: "b.png", data: []byte("bad")},
		memFile{name: "c.wav", data: []byte("ok")},
	)
	rec := newRecorder()
	orch := New(&stubConverter{}, nil, rec)

	summary, err := orch.Run(context.Background(), q)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Total != 3 || summary.Done != 2 || summary.Failed != 1 || summary.Progress != 100 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	items := q.Items()
	if items[0].Status() != queue.StatusDone || items[2].Status() != queue.StatusDone {
		t.Fatalf("good items not done: %s %s", items[0].Status(), items[2].Status())
	}
	if items[1].Status() != queue.StatusError || !strings.Contains(items[1].Err(), "corrupt input") {
		t.Fatalf("bad item: status=%s err=%q", items[1].Status(), items[1].Err())
	}
	if string(items[0].Output()) != "out:a.png" {
		t.Fatalf("unexpected output %q", items[0].Output())
	}

	want := []queue.Status{queue.StatusConverting, queue.StatusError}
	if got := rec.statuses["b.png"]; len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("b.png transitions = %v, want %v", got, want)
	}
}

func TestRunProgressIsMonotonic(t *testing.T) {
	q := queue.New()
	q.Add(
		memFile{name: "1.png", data: []byte("ok")},
		memFile{name: "2.png", data: []byte("ok")},
		memFile{name: "3.png", data: []byte("bad")},
	)
	rec := newRecorder()
	if _, err := New(&stubConverter{}, nil, rec).Run(context.Background(), q); err != nil {
		t.Fatal(err)
	}

	want := []int{33, 67, 100}
	if len(rec.progress) != len(want) {
		t.Fatalf("progress = %v, want %v", rec.progress, want)
	}
	for i := range want {
		if rec.progress[i] != want[i] {
			t.Fatalf("progress = %v, want %v", rec.progress, want)
		}
	}
}

func TestRunOnlySelectedSnapshot(t *testing.T) {
	q := queue.New()
	items := q.Add(
		memFile{name: "a.png", data: []byte("ok")},
		memFile{name: "b.png", data: []byte("ok")},
		memFile{name: "c.png", data: []byte("ok")},
	)
	if err := items[1].SetSelected(false); err != nil {
		t.Fatal(err)
	}

	// Selecting b.png mid-run must not add it to the current run.
	conv := &stubConverter{after: func(req converters.Request) {
		if req.Name == "a.png" {
			_ = items[1].SetSelected(true)
		}
	}}
	summary, err := New(conv, nil).Run(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Total != 2 || len(conv.seen) != 2 {
		t.Fatalf("unexpected run size: summary=%+v seen=%d", summary, len(conv.seen))
	}
	if conv.seen[0].Name != "a.png" || conv.seen[1].Name != "c.png" {
		t.Fatalf("wrong order: %s, %s", conv.seen[0].Name, conv.seen[1].Name)
	}
	if items[1].Status() != queue.StatusPending {
		t.Fatalf("b.png status = %s, want pending", items[1].Status())
	}
}

func TestRunEmptyPublishesNothing(t *testing.T) {
	rec := newRecorder()
	summary, err := New(&stubConverter{}, nil, rec).Run(context.Background(), queue.New())
	if err != nil {
		t.Fatal(err)
	}
	if summary != (Summary{}) {
		t.Fatalf("expected zero summary, got %+v", summary)
	}
	if len(rec.progress) != 0 || len(rec.statuses) != 0 {
		t.Fatal("observers notified for empty run")
	}
}

func TestRunCancelBetweenItems(t *testing.T) {
	q := queue.New()
	q.Add(
		memFile{name: "a.png", data: []byte("ok")},
		memFile{name: "b.png", data: []byte("ok")},
		memFile{name: "c.png", data: []byte("ok")},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	conv := &stubConverter{after: func(req converters.Request) {
		if req.Name == "a.png" {
			cancel()
		}
	}}

	summary, err := New(conv, nil).Run(ctx, q)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if summary.Done != 1 || summary.Skipped != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	items := q.Items()
	if items[0].Status() != queue.StatusDone {
		t.Fatalf("running item did not finish: %s", items[0].Status())
	}
	for _, it := range items[1:] {
		if it.Status() != queue.StatusPending {
			t.Fatalf("%s status = %s, want pending", it.File().Name(), it.Status())
		}
	}
}

func TestRunUnsupportedNeverConverts(t *testing.T) {
	q := queue.New()
	q.Add(memFile{name: "notes.txt", data: []byte("ok")})
	conv := &stubConverter{}

	summary, err := New(conv, nil).Run(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Failed != 1 || len(conv.seen) != 0 {
		t.Fatalf("unsupported file reached the converter: summary=%+v seen=%d", summary, len(conv.seen))
	}
	if !strings.Contains(q.Items()[0].Err(), "unsupported type") {
		t.Fatalf("unexpected error: %q", q.Items()[0].Err())
	}
}

func TestRunHEICForcesJPEG(t *testing.T) {
	q := queue.New()
	items := q.Add(memFile{name: "photo.heic", data: []byte("ok")})

	if _, err := New(&stubConverter{}, nil).Run(context.Background(), q); err != nil {
		t.Fatal(err)
	}
	snap := items[0].Snapshot()
	if snap.Status != queue.StatusDone || snap.Target != media.TargetJPEG {
		t.Fatalf("unexpected heic result: %+v", snap)
	}
}

func TestRunPassesActiveOptions(t *testing.T) {
	q := queue.New()
	items := q.Add(memFile{name: "song.wav", data: []byte("ok")})
	vbr := media.AudioOptions{Mode: media.AudioModeVariable, Bitrate: 192, VBRQuality: 2, SampleRate: 44100, Channels: 2}
	if err := items[0].SetOptions(vbr); err != nil {
		t.Fatal(err)
	}

	conv := &stubConverter{}
	if _, err := New(conv, nil).Run(context.Background(), q); err != nil {
		t.Fatal(err)
	}
	got, ok := conv.seen[0].Options.(media.AudioOptions)
	if !ok || got != vbr {
		t.Fatalf("converter got options %#v, want %#v", conv.seen[0].Options, vbr)
	}
	if conv.seen[0].Target != media.TargetMP3 {
		t.Fatalf("target = %s", conv.seen[0].Target)
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		completed, total, want int
	}{
		{0, 0, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{5, 5, 100},
	}
	for _, tt := range tests {
		if got := Progress(tt.completed, tt.total); got != tt.want {
			t.Errorf("Progress(%d, %d) = %d, want %d", tt.completed, tt.total, got, tt.want)
		}
	}
}

func pngData(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestEngineInitFailureOnlyFailsTranscodes(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "ffmpeg-not-installed")
	engine := converters.NewFFmpegEngine(missing, t.TempDir(), nil)
	defer engine.Close()
	set := converters.NewSet(engine, nil, nil)

	q := queue.New()
	items := q.Add(
		memFile{name: "song.wav", data: []byte("RIFF")},
		memFile{name: "photo.png", data: pngData(t)},
		memFile{name: "clip.mov", data: []byte("moov")},
		memFile{name: "doc.pdf", data: []byte("%PDF-1.4")},
		memFile{name: "voice.ogg", data: []byte("OggS")},
	)

	summary, err := New(set, nil).Run(context.Background(), q)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Done != 2 || summary.Failed != 3 || summary.Progress != 100 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	for _, idx := range []int{0, 2, 4} {
		snap := items[idx].Snapshot()
		if snap.Status != queue.StatusError || !strings.Contains(snap.Error, "transcoding engine") {
			t.Fatalf("%s: expected engine init error, got %+v", snap.Name, snap)
		}
	}
	for _, idx := range []int{1, 3} {
		if snap := items[idx].Snapshot(); snap.Status != queue.StatusDone {
			t.Fatalf("%s: expected done, got %+v", snap.Name, snap)
		}
	}
}

// panicConverter panics on one file name and delegates everything else.
type panicConverter struct {
	name string
	next Converter
}

func (p panicConverter) Convert(ctx context.Context, req converters.Request) (converters.Output, error) {
	if req.Name == p.name {
		panic("index out of range")
	}
	return p.next.Convert(ctx, req)
}

func TestRunRecoversFromConverterPanic(t *testing.T) {
	q := queue.New()
	items := q.Add(
		memFile{name: "a.png", data: []byte("ok")},
		memFile{name: "boom.png", data: []byte("ok")},
		memFile{name: "c.png", data: []byte("ok")},
	)

	summary, err := New(panicConverter{name: "boom.png", next: &stubConverter{}}, nil).Run(context.Background(), q)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Done != 2 || summary.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	snap := items[1].Snapshot()
	if snap.Status != queue.StatusError || !strings.Contains(snap.Error, "converter panic: index out of range") {
		t.Fatalf("panicking item not recorded as error: %+v", snap)
	}
	if items[2].Status() != queue.StatusDone {
		t.Fatalf("item after panic not converted: %s", items[2].Status())
	}
}
