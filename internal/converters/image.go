package converters

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/tendant/simple-converter/internal/media"
)

// ImageConverter re-encodes raster images to JPEG, PNG or WEBP.
type ImageConverter struct {
	engine Engine
	logger *slog.Logger
}

// NewImageConverter returns an image converter. engine is only used when the
// in-process decoders cannot read the input; it may be nil.
func NewImageConverter(engine Engine, logger *slog.Logger) *ImageConverter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageConverter{engine: engine, logger: logger}
}

func (c *ImageConverter) Name() string {
	return "image"
}

func (c *ImageConverter) Accepts(t media.Target) bool {
	return t == media.TargetJPEG || t == media.TargetPNG || t == media.TargetWEBP
}

func (c *ImageConverter) Convert(ctx context.Context, req Request) (Output, error) {
	if !c.Accepts(req.Target) {
		return Output{}, &UnsupportedTargetError{Category: media.CategoryImage, Target: req.Target}
	}
	opts, ok := req.Options.(media.ImageOptions)
	if !ok {
		opts = media.DefaultOptions().Image
	}

	src, err := c.decode(ctx, req)
	if err != nil {
		return Output{}, err
	}

	data, err := EncodeImage(flatten(src, req.Target), req.Target, opts.Quality)
	if err != nil {
		return Output{}, err
	}
	return Output{Data: data, Target: req.Target}, nil
}

// decode reads the image in-process first and falls back to the transcoding
// engine, which understands more container variants.
func (c *ImageConverter) decode(ctx context.Context, req Request) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(req.Data), imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}
	if c.engine == nil {
		return nil, &DecodeError{Op: "image", Err: err}
	}

	c.logger.Debug("in-process image decode failed, retrying through engine", "name", req.Name, "err", err)
	png, engineErr := runJob(ctx, c.engine, c.logger, req.Data, inputExt(req.Name), ".png", func(in, out string) []string {
		return []string{"-i", in, "-frames:v", "1", out}
	})
	if engineErr != nil {
		return nil, &DecodeError{Op: "image", Err: errors.Join(err, engineErr)}
	}
	img, err = imaging.Decode(bytes.NewReader(png))
	if err != nil {
		return nil, &DecodeError{Op: "image", Err: err}
	}
	return img, nil
}

// flatten draws src onto a canvas the size of the source. JPEG has no alpha
// channel, so its canvas starts white.
func flatten(src image.Image, target media.Target) *image.NRGBA {
	b := src.Bounds()
	bg := color.Color(color.Transparent)
	if target == media.TargetJPEG {
		bg = color.White
	}
	canvas := imaging.New(b.Dx(), b.Dy(), bg)
	return imaging.Overlay(canvas, src, image.Pt(0, 0), 1.0)
}

// EncodeImage encodes img as target. quality is a 1-100 slider value, clamped
// before it is scaled for the encoder; PNG ignores it.
func EncodeImage(img image.Image, target media.Target, quality int) ([]byte, error) {
	scale := QualityScale(quality)

	var buf bytes.Buffer
	var err error
	switch target {
	case media.TargetJPEG:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(int(scale*100+0.5)))
	case media.TargetPNG:
		err = imaging.Encode(&buf, img, imaging.PNG)
	case media.TargetWEBP:
		err = webp.Encode(&buf, img, &webp.Options{Quality: float32(scale * 100)})
	default:
		return nil, &UnsupportedTargetError{Category: media.CategoryImage, Target: target}
	}
	if err != nil {
		return nil, &EncodeError{Target: target, Err: err}
	}
	if buf.Len() == 0 {
		return nil, &EncodeError{Target: target}
	}
	return buf.Bytes(), nil
}

// QualityScale clamps a 1-100 slider value and maps it to 0-1.
func QualityScale(quality int) float64 {
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}
	return float64(quality) / 100
}

func inputExt(name string) string {
	ext := strings.ToLower(filepath.Ext(strings.ReplaceAll(name, "\\", "/")))
	if ext == "" {
		return ".bin"
	}
	return ext
}
