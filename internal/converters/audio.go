package converters

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/tendant/simple-converter/internal/media"
)

// AudioConverter transcodes audio through the shared engine.
type AudioConverter struct {
	engine Engine
	logger *slog.Logger
}

func NewAudioConverter(engine Engine, logger *slog.Logger) *AudioConverter {
	if logger == nil {
		logger = slog.Default()
	}
	return &AudioConverter{engine: engine, logger: logger}
}

func (c *AudioConverter) Name() string {
	return "audio"
}

func (c *AudioConverter) Accepts(t media.Target) bool {
	return media.CategoryOf(t) == media.CategoryAudio
}

func (c *AudioConverter) Convert(ctx context.Context, req Request) (Output, error) {
	opts, ok := req.Options.(media.AudioOptions)
	if !ok {
		opts = media.DefaultOptions().Audio
	}
	codec, err := AudioArgs(req.Target, opts)
	if err != nil {
		return Output{}, err
	}

	data, err := runJob(ctx, c.engine, c.logger, req.Data, inputExt(req.Name), media.Extension(req.Target), func(in, out string) []string {
		args := []string{"-i", in, "-vn"}
		args = append(args, codec...)
		return append(args, out)
	})
	if err != nil {
		return Output{}, err
	}
	if len(data) == 0 {
		return Output{}, &EncodeError{Target: req.Target}
	}
	return Output{Data: data, Target: req.Target}, nil
}

// AudioArgs builds the encoder arguments for target. WAV is raw PCM and takes
// neither bitrate nor quality.
func AudioArgs(target media.Target, opts media.AudioOptions) ([]string, error) {
	args := []string{
		"-ar", strconv.Itoa(opts.SampleRate),
		"-ac", strconv.Itoa(opts.Channels),
	}

	switch target {
	case media.TargetMP3:
		args = append(args, "-c:a", "libmp3lame")
		if opts.Mode == media.AudioModeVariable {
			args = append(args, "-q:a", strconv.Itoa(opts.VBRQuality))
		} else {
			args = append(args, "-b:a", bitrate(opts.Bitrate))
		}
	case media.TargetAAC:
		args = append(args, "-c:a", "aac", "-b:a", bitrate(opts.Bitrate), "-movflags", "+faststart")
	case media.TargetOGG:
		args = append(args, "-c:a", "libvorbis", "-b:a", bitrate(opts.Bitrate))
	case media.TargetOPUS:
		args = append(args, "-c:a", "libopus", "-b:a", bitrate(opts.Bitrate))
	case media.TargetWAV:
		args = append(args, "-c:a", "pcm_s16le")
	default:
		return nil, &UnsupportedTargetError{Category: media.CategoryAudio, Target: target}
	}
	return args, nil
}

func bitrate(kbps int) string {
	return strconv.Itoa(kbps) + "k"
}
