package converters

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/tendant/simple-converter/internal/media"
)

// VideoConverter transcodes video to WEBM (VP9 video, Opus audio).
type VideoConverter struct {
	engine Engine
	logger *slog.Logger
}

func NewVideoConverter(engine Engine, logger *slog.Logger) *VideoConverter {
	if logger == nil {
		logger = slog.Default()
	}
	return &VideoConverter{engine: engine, logger: logger}
}

func (c *VideoConverter) Name() string {
	return "video"
}

func (c *VideoConverter) Accepts(t media.Target) bool {
	return t == media.TargetWEBM
}

func (c *VideoConverter) Convert(ctx context.Context, req Request) (Output, error) {
	if !c.Accepts(req.Target) {
		return Output{}, &UnsupportedTargetError{Category: media.CategoryVideo, Target: req.Target}
	}
	opts, ok := req.Options.(media.VideoOptions)
	if !ok {
		opts = media.DefaultOptions().Video
	}

	data, err := runJob(ctx, c.engine, c.logger, req.Data, inputExt(req.Name), ".webm", func(in, out string) []string {
		return VideoArgs(in, out, opts.QualityFactor)
	})
	if err != nil {
		return Output{}, err
	}
	if len(data) == 0 {
		return Output{}, &EncodeError{Target: req.Target}
	}
	return Output{Data: data, Target: req.Target}, nil
}

// VideoArgs builds the VP9/Opus command line. quality is the constant rate
// factor, clamped to 18-40; -b:v 0 puts libvpx-vp9 in constant quality mode.
func VideoArgs(in, out string, quality int) []string {
	if quality < media.MinVideoQuality {
		quality = media.MinVideoQuality
	}
	if quality > media.MaxVideoQuality {
		quality = media.MaxVideoQuality
	}
	return []string{
		"-i", in,
		"-c:v", "libvpx-vp9",
		"-crf", strconv.Itoa(quality),
		"-b:v", "0",
		"-c:a", "libopus",
		"-b:a", "96k",
		out,
	}
}
