package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tendant/simple-converter/internal/archive"
	"github.com/tendant/simple-converter/internal/batch"
	"github.com/tendant/simple-converter/internal/bus"
	"github.com/tendant/simple-converter/internal/converters"
	"github.com/tendant/simple-converter/internal/media"
	"github.com/tendant/simple-converter/internal/queue"
	"github.com/tendant/simple-converter/internal/source"
	"github.com/tendant/simple-converter/pkg/schema"
)

type runOptions struct {
	outputDir   string
	archiveName string
	noArchive   bool
}

func newRootCommand() *cobra.Command {
	s := defaultSettings()
	var opts runOptions

	rootCmd := &cobra.Command{
		Use:           "convert [flags] <file|folder>...",
		Short:         "Convert images, audio, video and PDFs locally and bundle the results into a zip",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("out") {
				cfg.OutputDir = opts.outputDir
			}
			if cmd.Flags().Changed("name") {
				cfg.ArchiveName = opts.archiveName
			}
			return runConvert(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, s, opts.noArchive, args)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.outputDir, "out", "o", ".", "Directory the archive is written to (overrides OUTPUT_DIR)")
	flags.StringVar(&opts.archiveName, "name", "converted.zip", "Archive file name (overrides ARCHIVE_NAME)")
	flags.BoolVar(&opts.noArchive, "no-archive", false, "Convert and report without writing an archive")
	flags.StringVar(&s.ImageTarget, "image-target", s.ImageTarget, "Image output: jpg, png or webp")
	flags.StringVar(&s.AudioTarget, "audio-target", s.AudioTarget, "Audio output: mp3, aac, ogg, opus or wav")
	flags.IntVarP(&s.Quality, "quality", "q", s.Quality, "Image quality, 1-100")
	flags.StringVar(&s.AudioMode, "audio-mode", s.AudioMode, "Audio bitrate mode: cbr or vbr")
	flags.IntVar(&s.Bitrate, "bitrate", s.Bitrate, "Audio bitrate in kbps")
	flags.IntVar(&s.VBRQuality, "vbr-quality", s.VBRQuality, "MP3 variable bitrate quality, 0 (best) to 9")
	flags.IntVar(&s.SampleRate, "sample-rate", s.SampleRate, "Audio sample rate in Hz")
	flags.IntVar(&s.Channels, "channels", s.Channels, "Audio channel count")
	flags.IntVar(&s.VideoQuality, "video-quality", s.VideoQuality, "Video quality factor, 18 (best) to 40 (smallest)")
	flags.StringVar(&s.PDFAction, "pdf", s.PDFAction, "PDF action: keep or split")

	rootCmd.AddCommand(newProbeCommand())
	return rootCmd
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func runConvert(ctx context.Context, stdout, stderr io.Writer, cfg config, s settings, noArchive bool, paths []string) error {
	logger := newLogger(stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	p, err := s.plan()
	if err != nil {
		return err
	}

	files, err := source.Collect(paths...)
	if err != nil {
		return err
	}
	q := queue.New()
	for _, f := range files {
		q.Add(f)
	}
	for _, item := range q.Items() {
		if !item.Classification().Supported() {
			logger.Warn("skipping unsupported file", "name", item.File().Name(), "media_type", item.File().MediaType())
			_ = item.SetSelected(false)
			continue
		}
		if err := p.apply(item); err != nil {
			return err
		}
	}
	logger.Info("converter starting", "files", q.Len(), "ffmpeg", cfg.FFmpegPath, "output_dir", cfg.OutputDir, "archive", cfg.ArchiveName)

	engine := converters.NewFFmpegEngine(cfg.FFmpegPath, cfg.ScratchDir, logger)
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Warn("remove scratch dir", "err", err)
		}
	}()
	set := converters.NewSet(engine, converters.NewHeifConvert(cfg.HeifConvertPath, cfg.ScratchDir), logger)

	observers := []batch.Observer{batch.LogObserver{Logger: logger}}
	var publisher *bus.Publisher
	if cfg.NATSURL != "" {
		nc, err := bus.Connect(cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		defer nc.Close()
		logger.Info("connected to NATS", "nats_url", cfg.NATSURL, "subject", cfg.EventSubject)
		publisher = bus.NewPublisher(nc, cfg.EventSubject, logger)
		observers = append(observers, publisher)
	}
	if isTerminal(stderr) {
		observers = append(observers, batch.ObserverFuncs{OnProgress: func(percent int) {
			fmt.Fprintf(stderr, "progress: %d%%\n", percent)
		}})
	}

	summary, runErr := batch.New(set, logger, observers...).Run(ctx, q)

	entries := 0
	var archiveErr error
	if runErr == nil && !noArchive {
		asm := archive.New(converters.SplitPages, archive.DirSink{Dir: cfg.OutputDir},
			archive.WithName(cfg.ArchiveName),
			archive.WithLogger(logger),
		)
		entries, archiveErr = asm.Assemble(ctx, q.Items())
	}
	if n, err := engine.ScratchEntries(); err == nil && n > 0 {
		logger.Warn("scratch entries left after run", "count", n)
	}

	if publisher != nil {
		done := schema.BatchDone{
			Total:            summary.Total,
			TotalDone:        summary.Done,
			TotalFailed:      summary.Failed,
			TotalSkipped:     summary.Skipped,
			ArchiveEntries:   entries,
			ProcessingTimeMs: summary.Duration.Milliseconds(),
		}
		if entries > 0 {
			done.ArchiveName = cfg.ArchiveName
		}
		if err := errors.Join(runErr, archiveErr); err != nil {
			done.Error = err.Error()
		}
		publisher.Finished(done)
	}

	fmt.Fprintln(stdout, renderTable(stdout, resultColumns, itemRows(q.Items())))
	fmt.Fprintf(stdout, "%d done, %d failed, %d skipped\n", summary.Done, summary.Failed, summary.Skipped)
	if entries > 0 {
		fmt.Fprintf(stdout, "archive: %s (%d files)\n", archive.DirSink{Dir: cfg.OutputDir}.Path(cfg.ArchiveName), entries)
	}

	if runErr != nil {
		return runErr
	}
	if archiveErr != nil {
		return archiveErr
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", summary.Failed, summary.Total)
	}
	return nil
}

func itemRows(items []*queue.Item) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		snap := item.Snapshot()
		status := string(snap.Status)
		detail := ""
		switch {
		case !snap.Selected:
			status = "skipped"
		case snap.Status == queue.StatusError:
			detail = firstLine(snap.Error)
		case snap.Status == queue.StatusDone && snap.HasOutput:
			detail = humanBytes(int64(len(item.Output())))
		case snap.Status == queue.StatusDone:
			detail = "split into pages"
		}
		rows = append(rows, []string{snap.Name, string(snap.Category), targetLabel(snap.Target), status, detail})
	}
	return rows
}

func targetLabel(t media.Target) string {
	if t == "" {
		return "-"
	}
	return strings.TrimPrefix(media.Extension(t), ".")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
