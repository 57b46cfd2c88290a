package main

import (
	"fmt"
	"strings"

	"github.com/tendant/simple-converter/internal/media"
	"github.com/tendant/simple-converter/internal/queue"
)

var targetNames = map[string]media.Target{
	"jpg":  media.TargetJPEG,
	"jpeg": media.TargetJPEG,
	"png":  media.TargetPNG,
	"webp": media.TargetWEBP,
	"mp3":  media.TargetMP3,
	"aac":  media.TargetAAC,
	"m4a":  media.TargetAAC,
	"ogg":  media.TargetOGG,
	"opus": media.TargetOPUS,
	"wav":  media.TargetWAV,
	"webm": media.TargetWEBM,
	"pdf":  media.TargetPDF,
}

// parseTarget accepts a short name ("mp3") or a media type ("audio/mpeg").
func parseTarget(s string) (media.Target, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if t, ok := targetNames[strings.TrimPrefix(s, ".")]; ok {
		return t, nil
	}
	for _, t := range targetNames {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown target %q", s)
}

// settings are the per-category choices applied to every queued item.
type settings struct {
	ImageTarget string
	AudioTarget string

	Quality int

	AudioMode    string
	Bitrate      int
	VBRQuality   int
	SampleRate   int
	Channels     int
	VideoQuality int

	PDFAction string
}

func defaultSettings() settings {
	d := media.DefaultOptions()
	return settings{
		ImageTarget:  "jpg",
		AudioTarget:  "mp3",
		Quality:      d.Image.Quality,
		AudioMode:    string(d.Audio.Mode),
		Bitrate:      d.Audio.Bitrate,
		VBRQuality:   d.Audio.VBRQuality,
		SampleRate:   d.Audio.SampleRate,
		Channels:     d.Audio.Channels,
		VideoQuality: d.Video.QualityFactor,
		PDFAction:    string(d.Document.Action),
	}
}

// plan is a validated settings value.
type plan struct {
	targets map[media.Category]media.Target
	options []media.Options
}

func (s settings) plan() (plan, error) {
	image, err := parseTarget(s.ImageTarget)
	if err != nil {
		return plan{}, err
	}
	if media.CategoryOf(image) != media.CategoryImage {
		return plan{}, fmt.Errorf("image target must be jpg, png or webp (got %s)", s.ImageTarget)
	}
	audio, err := parseTarget(s.AudioTarget)
	if err != nil {
		return plan{}, err
	}
	if media.CategoryOf(audio) != media.CategoryAudio {
		return plan{}, fmt.Errorf("audio target must be mp3, aac, ogg, opus or wav (got %s)", s.AudioTarget)
	}

	opts := []media.Options{
		media.ImageOptions{Quality: s.Quality},
		media.AudioOptions{
			Mode:       media.AudioMode(s.AudioMode),
			Bitrate:    s.Bitrate,
			VBRQuality: s.VBRQuality,
			SampleRate: s.SampleRate,
			Channels:   s.Channels,
		},
		media.VideoOptions{QualityFactor: s.VideoQuality},
		media.DocumentOptions{Action: media.DocumentAction(s.PDFAction)},
	}
	for _, o := range opts {
		if err := o.Validate(); err != nil {
			return plan{}, err
		}
	}

	return plan{
		targets: map[media.Category]media.Target{
			media.CategoryImage: image,
			media.CategoryAudio: audio,
		},
		options: opts,
	}, nil
}

// apply sets the target and option blocks on item. Categories with a single
// target keep their default.
func (p plan) apply(item *queue.Item) error {
	class := item.Classification()
	if !class.Supported() {
		return nil
	}
	if t, ok := p.targets[class.Category]; ok {
		if err := item.SetTarget(t); err != nil {
			return fmt.Errorf("%s: %w", item.File().Name(), err)
		}
	}
	for _, o := range p.options {
		if err := item.SetOptions(o); err != nil {
			return fmt.Errorf("%s: %w", item.File().Name(), err)
		}
	}
	return nil
}
