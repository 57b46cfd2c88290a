package media

import (
	"errors"
	"fmt"
)

// ErrInvalidOptions is wrapped by every option validation failure.
var ErrInvalidOptions = errors.New("invalid options")

// Options is one of ImageOptions, AudioOptions, VideoOptions or DocumentOptions.
type Options interface {
	Category() Category
	Validate() error
	options()
}

// ImageOptions configures the image re-encoder. Quality is a 1-100 slider
// value; out of range values are clamped at encode time.
type ImageOptions struct {
	Quality int `json:"quality"`
}

// AudioMode selects constant or variable bitrate encoding.
type AudioMode string

const (
	AudioModeConstant AudioMode = "cbr"
	AudioModeVariable AudioMode = "vbr"
)

// AudioOptions configures the audio transcoder. Bitrate is in kbps and
// VBRQuality is the 0-9 quality index used when Mode is variable. Bitrate and
// quality are ignored for WAV.
type AudioOptions struct {
	Mode       AudioMode `json:"mode"`
	Bitrate    int       `json:"bitrate"`
	VBRQuality int       `json:"vbr_quality"`
	SampleRate int       `json:"sample_rate"`
	Channels   int       `json:"channels"`
}

// VideoOptions configures the video transcoder. Lower QualityFactor means
// higher fidelity and larger files.
type VideoOptions struct {
	QualityFactor int `json:"quality_factor"`
}

// DocumentAction selects what happens to a PDF.
type DocumentAction string

const (
	DocumentKeep  DocumentAction = "keep"
	DocumentSplit DocumentAction = "split"
)

// DocumentOptions configures the document path.
type DocumentOptions struct {
	Action DocumentAction `json:"action"`
}

const (
	MinVideoQuality = 18
	MaxVideoQuality = 40
	MaxVBRQuality   = 9
)

func (ImageOptions) Category() Category    { return CategoryImage }
func (AudioOptions) Category() Category    { return CategoryAudio }
func (VideoOptions) Category() Category    { return CategoryVideo }
func (DocumentOptions) Category() Category { return CategoryDocument }

func (ImageOptions) options()    {}
func (AudioOptions) options()    {}
func (VideoOptions) options()    {}
func (DocumentOptions) options() {}

func (o ImageOptions) Validate() error { return nil }

func (o AudioOptions) Validate() error {
	switch o.Mode {
	case AudioModeConstant, AudioModeVariable:
	default:
		return fmt.Errorf("%w: audio mode %q", ErrInvalidOptions, o.Mode)
	}
	if o.Bitrate <= 0 {
		return fmt.Errorf("%w: audio bitrate must be positive (got %d)", ErrInvalidOptions, o.Bitrate)
	}
	if o.VBRQuality < 0 || o.VBRQuality > MaxVBRQuality {
		return fmt.Errorf("%w: audio quality index must be 0-%d (got %d)", ErrInvalidOptions, MaxVBRQuality, o.VBRQuality)
	}
	if o.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive (got %d)", ErrInvalidOptions, o.SampleRate)
	}
	if o.Channels <= 0 {
		return fmt.Errorf("%w: channel count must be positive (got %d)", ErrInvalidOptions, o.Channels)
	}
	return nil
}

func (o VideoOptions) Validate() error {
	if o.QualityFactor < MinVideoQuality || o.QualityFactor > MaxVideoQuality {
		return fmt.Errorf("%w: video quality factor must be %d-%d (got %d)", ErrInvalidOptions, MinVideoQuality, MaxVideoQuality, o.QualityFactor)
	}
	return nil
}

func (o DocumentOptions) Validate() error {
	switch o.Action {
	case DocumentKeep, DocumentSplit:
		return nil
	default:
		return fmt.Errorf("%w: document action %q", ErrInvalidOptions, o.Action)
	}
}

// OptionSet holds one block per category. Only the block matching the item's
// target is consulted; the others are kept so switching targets loses nothing.
type OptionSet struct {
	Image    ImageOptions    `json:"image"`
	Audio    AudioOptions    `json:"audio"`
	Video    VideoOptions    `json:"video"`
	Document DocumentOptions `json:"document"`
}

// DefaultOptions returns the category defaults used for newly queued items.
func DefaultOptions() OptionSet {
	return OptionSet{
		Image: ImageOptions{Quality: 90},
		Audio: AudioOptions{
			Mode:       AudioModeConstant,
			Bitrate:    192,
			VBRQuality: 2,
			SampleRate: 44100,
			Channels:   2,
		},
		Video:    VideoOptions{QualityFactor: 28},
		Document: DocumentOptions{Action: DocumentKeep},
	}
}

// For returns the block consulted for category c. HEIC images share the image
// block. Unsupported categories return nil.
func (s OptionSet) For(c Category) Options {
	switch c {
	case CategoryImage, CategoryHEIC:
		return s.Image
	case CategoryAudio:
		return s.Audio
	case CategoryVideo:
		return s.Video
	case CategoryDocument:
		return s.Document
	default:
		return nil
	}
}

// With returns a copy of s with the block for o's category replaced by o.
func (s OptionSet) With(o Options) OptionSet {
	switch v := o.(type) {
	case ImageOptions:
		s.Image = v
	case AudioOptions:
		s.Audio = v
	case VideoOptions:
		s.Video = v
	case DocumentOptions:
		s.Document = v
	}
	return s
}
