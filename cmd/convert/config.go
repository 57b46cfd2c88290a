package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

type config struct {
	FFmpegPath      string
	FFprobePath     string
	HeifConvertPath string
	ScratchDir      string
	OutputDir       string
	ArchiveName     string
	NATSURL         string
	EventSubject    string
	LogLevel        slog.Level
	ProbeTimeoutSec int
}

func loadConfig() (config, error) {
	cfg := config{
		FFmpegPath:      getenv("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:     getenv("FFPROBE_PATH", "ffprobe"),
		HeifConvertPath: getenv("HEIF_CONVERT_PATH", "heif-convert"),
		ScratchDir:      getenv("SCRATCH_DIR", ""),
		OutputDir:       getenv("OUTPUT_DIR", "."),
		ArchiveName:     getenv("ARCHIVE_NAME", "converted.zip"),
		NATSURL:         getenv("NATS_URL", ""),
		EventSubject:    getenv("EVENT_SUBJECT", "converter.events"),
	}

	level, err := parseLevel(getenv("LOG_LEVEL", "info"))
	if err != nil {
		return config{}, err
	}
	cfg.LogLevel = level

	timeout, err := parsePositiveInt(getenv("PROBE_TIMEOUT_SEC", "30"), "PROBE_TIMEOUT_SEC")
	if err != nil {
		return config{}, err
	}
	cfg.ProbeTimeoutSec = timeout

	if strings.ContainsAny(cfg.ArchiveName, `/\`) {
		return config{}, fmt.Errorf("ARCHIVE_NAME must be a file name, got %q", cfg.ArchiveName)
	}
	return cfg, nil
}

func parseLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return level, nil
}

func parsePositiveInt(value string, name string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be greater than zero (got %d)", name, v)
	}
	return v, nil
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
