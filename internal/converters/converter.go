// Package converters provides the per-category conversion adapters (image,
// HEIC, audio, video, document) behind one uniform contract, plus the shared
// transcoding engine they run on.
package converters

import (
	"context"
	"log/slog"

	"github.com/tendant/simple-converter/internal/media"
)

// Converter converts one file of a single category.
type Converter interface {
	// Name returns the converter name (e.g. "image", "audio")
	Name() string

	// Accepts returns true if this converter can produce the given target
	Accepts(target media.Target) bool

	// Convert runs the conversion described by req
	Convert(ctx context.Context, req Request) (Output, error)
}

// Request is a single conversion job.
type Request struct {
	Name      string
	MediaType string
	Category  media.Category
	Target    media.Target
	Options   media.Options
	Data      []byte
}

// Output is the result of a conversion. Data is nil for documents that are
// split into pages; their pages are produced later by SplitPages.
type Output struct {
	Data   []byte
	Target media.Target
	Pages  int
}

// Set routes requests to the converter for their category.
type Set struct {
	Image    Converter
	HEIC     Converter
	Audio    Converter
	Video    Converter
	Document Converter
}

// NewSet wires the standard converters. engine is shared by the audio and
// video paths and used as the fallback image decoder.
func NewSet(engine Engine, heic HEICDecoder, logger *slog.Logger) *Set {
	if logger == nil {
		logger = slog.Default()
	}
	return &Set{
		Image:    NewImageConverter(engine, logger),
		HEIC:     NewHEICConverter(heic),
		Audio:    NewAudioConverter(engine, logger),
		Video:    NewVideoConverter(engine, logger),
		Document: NewDocumentConverter(),
	}
}

// For returns the converter for a category, or nil.
func (s *Set) For(c media.Category) Converter {
	switch c {
	case media.CategoryImage:
		return s.Image
	case media.CategoryHEIC:
		return s.HEIC
	case media.CategoryAudio:
		return s.Audio
	case media.CategoryVideo:
		return s.Video
	case media.CategoryDocument:
		return s.Document
	default:
		return nil
	}
}

// Accepts reports whether the converter for c can produce t.
func (s *Set) Accepts(c media.Category, t media.Target) bool {
	conv := s.For(c)
	return conv != nil && conv.Accepts(t)
}

// Convert dispatches req to the converter for its category.
func (s *Set) Convert(ctx context.Context, req Request) (Output, error) {
	conv := s.For(req.Category)
	if conv == nil {
		return Output{}, &UnsupportedTypeError{Name: req.Name, MediaType: req.MediaType}
	}
	if !conv.Accepts(req.Target) {
		return Output{}, &UnsupportedTargetError{Category: req.Category, Target: req.Target}
	}
	return conv.Convert(ctx, req)
}
