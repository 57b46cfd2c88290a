package converters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tendant/simple-converter/internal/media"
)

// FileInfo contains metadata about a source file.
type FileInfo struct {
	Name       string         `json:"name"`
	MediaType  string         `json:"media_type"`
	Category   media.Category `json:"category"`
	Size       int64          `json:"size"`
	Width      int            `json:"width,omitempty"`
	Height     int            `json:"height,omitempty"`
	Duration   float64        `json:"duration,omitempty"` // seconds
	Codec      string         `json:"codec,omitempty"`
	SampleRate int            `json:"sample_rate,omitempty"`
	Channels   int            `json:"channels,omitempty"`
	Pages      int            `json:"pages,omitempty"`
}

// Prober reads metadata without converting. Audio and video go through
// ffprobe; images and PDFs are inspected in-process.
type Prober struct {
	ffprobe string
	tempDir string
}

func NewProber(ffprobe, tempDir string) *Prober {
	if strings.TrimSpace(ffprobe) == "" {
		ffprobe = "ffprobe"
	}
	return &Prober{ffprobe: ffprobe, tempDir: tempDir}
}

// Probe returns metadata for one file. Unsupported files only get the fields
// known without decoding.
func (p *Prober) Probe(ctx context.Context, name, mediaType string, data []byte) (*FileInfo, error) {
	class := media.Classify(mediaType, name)
	info := &FileInfo{
		Name:      name,
		MediaType: mediaType,
		Category:  class.Category,
		Size:      int64(len(data)),
	}

	switch class.Category {
	case media.CategoryImage:
		cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, &DecodeError{Op: "image config", Err: err}
		}
		info.Width, info.Height = cfg.Width, cfg.Height
		info.Codec = format
	case media.CategoryDocument:
		pages, err := PageCount(data)
		if err != nil {
			return nil, err
		}
		info.Pages = pages
	case media.CategoryAudio, media.CategoryVideo, media.CategoryHEIC:
		if err := p.probeStreams(ctx, name, data, info); err != nil {
			return nil, err
		}
	}
	return info, nil
}

func (p *Prober) probeStreams(ctx context.Context, name string, data []byte, info *FileInfo) error {
	dir, err := os.MkdirTemp(p.tempDir, "probe-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "input"+inputExt(name))
	if err := os.WriteFile(input, data, 0o600); err != nil {
		return fmt.Errorf("write probe input: %w", err)
	}

	cmd := exec.CommandContext(ctx, p.ffprobe, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", input)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffprobe failed: %w\nOutput: %s", err, tail(string(output), 2048))
	}
	return parseProbe(output, info)
}

type probeResult struct {
	Streams []struct {
		CodecName  string `json:"codec_name"`
		CodecType  string `json:"codec_type"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// parseProbe fills info from ffprobe JSON. The first video stream wins for
// dimensions and codec; audio fields come from the first audio stream.
func parseProbe(output []byte, info *FileInfo) error {
	var res probeResult
	if err := json.Unmarshal(output, &res); err != nil {
		return fmt.Errorf("ffprobe parse: %w", err)
	}

	var sawVideo, sawAudio bool
	for _, s := range res.Streams {
		switch strings.ToLower(s.CodecType) {
		case "video":
			if sawVideo {
				continue
			}
			sawVideo = true
			info.Width, info.Height = s.Width, s.Height
			info.Codec = s.CodecName
		case "audio":
			if sawAudio {
				continue
			}
			sawAudio = true
			if sr, err := strconv.Atoi(strings.TrimSpace(s.SampleRate)); err == nil {
				info.SampleRate = sr
			}
			info.Channels = s.Channels
			if !sawVideo {
				info.Codec = s.CodecName
			}
		}
	}
	if d, err := strconv.ParseFloat(strings.TrimSpace(res.Format.Duration), 64); err == nil {
		info.Duration = d
	}
	return nil
}
