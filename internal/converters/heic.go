package converters

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tendant/simple-converter/internal/media"
)

// HEICQuality is the fixed JPEG quality used for HEIC output.
const HEICQuality = 92

// HEICDecoder turns HEIC/HEIF bytes into JPEG bytes.
type HEICDecoder interface {
	DecodeJPEG(ctx context.Context, data []byte, quality int) ([]byte, error)
}

// HEICConverter converts HEIC photos to JPEG. Whatever target was requested,
// the output is always JPEG.
type HEICConverter struct {
	decoder HEICDecoder
}

func NewHEICConverter(decoder HEICDecoder) *HEICConverter {
	return &HEICConverter{decoder: decoder}
}

func (c *HEICConverter) Name() string {
	return "heic"
}

func (c *HEICConverter) Accepts(t media.Target) bool {
	return media.CategoryOf(t) == media.CategoryImage
}

func (c *HEICConverter) Convert(ctx context.Context, req Request) (Output, error) {
	if c.decoder == nil {
		return Output{}, &DecodeError{Op: "heic", Err: errors.New("no HEIC decoder configured")}
	}
	data, err := c.decoder.DecodeJPEG(ctx, req.Data, HEICQuality)
	if err != nil {
		return Output{}, &DecodeError{Op: "heic", Err: err}
	}
	if len(data) == 0 {
		return Output{}, &EncodeError{Target: media.TargetJPEG}
	}
	return Output{Data: data, Target: media.TargetJPEG}, nil
}

// HeifConvert is a HEICDecoder backed by the libheif heif-convert tool.
type HeifConvert struct {
	binary  string
	tempDir string
}

// NewHeifConvert returns a decoder that runs binary (default "heif-convert")
// with temporary files under tempDir (empty means the OS temp dir).
func NewHeifConvert(binary, tempDir string) *HeifConvert {
	if strings.TrimSpace(binary) == "" {
		binary = "heif-convert"
	}
	return &HeifConvert{binary: binary, tempDir: tempDir}
}

func (h *HeifConvert) DecodeJPEG(ctx context.Context, data []byte, quality int) ([]byte, error) {
	if _, err := exec.LookPath(h.binary); err != nil {
		return nil, fmt.Errorf("%s not found in PATH: %w (install libheif-examples)", h.binary, err)
	}

	dir, err := os.MkdirTemp(h.tempDir, "heic-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "input.heic")
	output := filepath.Join(dir, "output.jpg")
	if err := os.WriteFile(input, data, 0o600); err != nil {
		return nil, fmt.Errorf("write heic input: %w", err)
	}

	cmd := exec.CommandContext(ctx, h.binary, "-q", strconv.Itoa(quality), input, output)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("heif-convert failed: %w\nOutput: %s", err, tail(string(out), 2048))
	}

	return os.ReadFile(output)
}
