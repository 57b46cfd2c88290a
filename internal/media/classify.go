// Package media classifies input files into conversion categories and owns the
// target tables, output naming rules and per-category option blocks shared by
// the queue, the converters and the archive assembler.
package media

import (
	"path"
	"strings"
)

// Category is the coarse content kind that selects a converter.
type Category string

const (
	CategoryImage       Category = "image"
	CategoryHEIC        Category = "heic"
	CategoryAudio       Category = "audio"
	CategoryVideo       Category = "video"
	CategoryDocument    Category = "document"
	CategoryUnsupported Category = "unsupported"
)

// Target is the requested output media type.
type Target string

const (
	TargetJPEG Target = "image/jpeg"
	TargetPNG  Target = "image/png"
	TargetWEBP Target = "image/webp"
	TargetMP3  Target = "audio/mpeg"
	TargetAAC  Target = "audio/aac"
	TargetOGG  Target = "audio/ogg"
	TargetOPUS Target = "audio/opus"
	TargetWAV  Target = "audio/wav"
	TargetWEBM Target = "video/webm"
	TargetPDF  Target = "application/pdf"
)

var (
	heicTargets     = []Target{TargetJPEG}
	imageTargets    = []Target{TargetJPEG, TargetPNG, TargetWEBP}
	audioTargets    = []Target{TargetMP3, TargetAAC, TargetOGG, TargetOPUS, TargetWAV}
	videoTargets    = []Target{TargetWEBM}
	documentTargets = []Target{TargetPDF}
)

var (
	heicExts  = map[string]bool{".heic": true, ".heif": true}
	heicTypes = map[string]bool{"image/heic": true, "image/heif": true, "image/heic-sequence": true, "image/heif-sequence": true}

	imageExts = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".webp": true,
		".gif": true, ".bmp": true, ".tif": true, ".tiff": true,
	}
	audioExts = map[string]bool{
		".mp3": true, ".aac": true, ".m4a": true, ".wav": true,
		".ogg": true, ".opus": true, ".flac": true,
	}
	videoExts = map[string]bool{".mp4": true, ".mov": true, ".mkv": true, ".webm": true}
)

// Classification is the result of Classify.
type Classification struct {
	Category Category
	Targets  []Target
}

// Classify determines the category of a file from its declared media type and
// name, together with the list of valid output targets. Checks run in order:
// HEIC, image, audio, video, PDF.
func Classify(mediaType, name string) Classification {
	mt := normalizeType(mediaType)
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(name, "\\", "/")))

	switch {
	case heicExts[ext] || heicTypes[mt]:
		return newClassification(CategoryHEIC, heicTargets)
	case strings.HasPrefix(mt, "image/") || imageExts[ext]:
		return newClassification(CategoryImage, imageTargets)
	case strings.HasPrefix(mt, "audio/") || audioExts[ext]:
		return newClassification(CategoryAudio, audioTargets)
	case strings.HasPrefix(mt, "video/") || videoExts[ext]:
		return newClassification(CategoryVideo, videoTargets)
	case mt == "application/pdf" || ext == ".pdf":
		return newClassification(CategoryDocument, documentTargets)
	default:
		return Classification{Category: CategoryUnsupported}
	}
}

func newClassification(c Category, targets []Target) Classification {
	return Classification{Category: c, Targets: append([]Target(nil), targets...)}
}

// Allows reports whether t is one of the valid targets.
func (c Classification) Allows(t Target) bool {
	for _, v := range c.Targets {
		if v == t {
			return true
		}
	}
	return false
}

// Default returns the first valid target, or "" for unsupported files.
func (c Classification) Default() Target {
	if len(c.Targets) == 0 {
		return ""
	}
	return c.Targets[0]
}

// Supported reports whether the file can be converted at all.
func (c Classification) Supported() bool {
	return c.Category != CategoryUnsupported
}

// CategoryOf returns the category a target belongs to. JPEG maps to image.
func CategoryOf(t Target) Category {
	switch t {
	case TargetJPEG, TargetPNG, TargetWEBP:
		return CategoryImage
	case TargetMP3, TargetAAC, TargetOGG, TargetOPUS, TargetWAV:
		return CategoryAudio
	case TargetWEBM:
		return CategoryVideo
	case TargetPDF:
		return CategoryDocument
	default:
		return CategoryUnsupported
	}
}

func normalizeType(mediaType string) string {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}
