package converters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Engine is the shared transcoding engine. It owns a scratch namespace that
// jobs write inputs to and read outputs from.
//
// An Engine runs one job at a time. Callers that share an instance must not
// overlap jobs; running several jobs in parallel needs one Engine per worker.
type Engine interface {
	// Load initialises the engine once. Later calls return the first result.
	Load(ctx context.Context) error
	WriteFile(name string, data []byte) error
	ReadFile(name string) ([]byte, error)
	DeleteFile(name string) error
	// Exec runs the engine with args; scratch names in args resolve inside
	// the scratch namespace.
	Exec(ctx context.Context, args ...string) error
}

// FFmpegEngine is an Engine backed by the ffmpeg binary and a private scratch
// directory.
type FFmpegEngine struct {
	binary  string
	baseDir string
	logger  *slog.Logger

	once    sync.Once
	loadErr error
	path    string
	dir     string

	execMu sync.Mutex
}

// NewFFmpegEngine returns an unloaded engine. baseDir is where the scratch
// directory is created; empty means the OS temp dir.
func NewFFmpegEngine(binary, baseDir string, logger *slog.Logger) *FFmpegEngine {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FFmpegEngine{binary: binary, baseDir: baseDir, logger: logger}
}

func (e *FFmpegEngine) Load(ctx context.Context) error {
	e.once.Do(func() {
		if err := e.load(ctx); err != nil {
			e.loadErr = &EngineInitError{Err: err}
			e.logger.Error("transcoding engine failed to start", "binary", e.binary, "err", err)
			return
		}
		e.logger.Info("transcoding engine ready", "binary", e.path, "scratch_dir", e.dir)
	})
	return e.loadErr
}

func (e *FFmpegEngine) load(ctx context.Context) error {
	path, err := exec.LookPath(e.binary)
	if err != nil {
		return fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	cmd := exec.CommandContext(ctx, path, "-hide_banner", "-version")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg -version failed: %w\nOutput: %s", err, strings.TrimSpace(string(out)))
	}

	dir, err := os.MkdirTemp(e.baseDir, "converter-scratch-*")
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	e.path = path
	e.dir = dir
	return nil
}

func (e *FFmpegEngine) WriteFile(name string, data []byte) error {
	p, err := e.scratchPath(name)
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o600)
}

func (e *FFmpegEngine) ReadFile(name string) ([]byte, error) {
	p, err := e.scratchPath(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

func (e *FFmpegEngine) DeleteFile(name string) error {
	p, err := e.scratchPath(name)
	if err != nil {
		return err
	}
	return os.Remove(p)
}

func (e *FFmpegEngine) Exec(ctx context.Context, args ...string) error {
	if e.dir == "" {
		return errors.New("transcoding engine not loaded")
	}
	e.execMu.Lock()
	defer e.execMu.Unlock()

	full := append([]string{"-hide_banner", "-nostdin", "-y"}, args...)
	cmd := exec.CommandContext(ctx, e.path, full...)
	cmd.Dir = e.dir

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %w\nOutput: %s", err, tail(string(output), 2048))
	}
	return nil
}

// ScratchEntries reports how many entries are left in the scratch namespace.
// Cleanup is best effort, so a long session with persistent failures can grow
// this number.
func (e *FFmpegEngine) ScratchEntries() (int, error) {
	if e.dir == "" {
		return 0, nil
	}
	entries, err := os.ReadDir(e.dir)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Close removes the scratch directory. The engine cannot be used afterwards.
func (e *FFmpegEngine) Close() error {
	if e.dir == "" {
		return nil
	}
	return os.RemoveAll(e.dir)
}

func (e *FFmpegEngine) scratchPath(name string) (string, error) {
	if e.dir == "" {
		return "", errors.New("transcoding engine not loaded")
	}
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid scratch name %q", name)
	}
	return filepath.Join(e.dir, name), nil
}

// runJob writes data under a random scratch name, runs the engine with the
// arguments built from the input and output names and reads the output back.
// Both scratch entries are removed afterwards; removal failures are logged and
// never returned.
func runJob(ctx context.Context, engine Engine, logger *slog.Logger, data []byte, inExt, outExt string, build func(in, out string) []string) ([]byte, error) {
	if err := engine.Load(ctx); err != nil {
		var initErr *EngineInitError
		if errors.As(err, &initErr) {
			return nil, err
		}
		return nil, &EngineInitError{Err: err}
	}

	id := uuid.NewString()
	in := "in-" + id + inExt
	out := "out-" + id + outExt
	defer cleanupScratch(engine, logger, in, out)

	if err := engine.WriteFile(in, data); err != nil {
		return nil, fmt.Errorf("write scratch input: %w", err)
	}
	if err := engine.Exec(ctx, build(in, out)...); err != nil {
		return nil, &DecodeError{Op: "transcode", Err: err}
	}
	result, err := engine.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("read scratch output: %w", err)
	}
	return result, nil
}

func cleanupScratch(engine Engine, logger *slog.Logger, names ...string) {
	for _, name := range names {
		if err := engine.DeleteFile(name); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("scratch cleanup failed", "name", name, "err", err)
		}
	}
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
