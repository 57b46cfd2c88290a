package main

import (
	"log/slog"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"FFMPEG_PATH", "FFPROBE_PATH", "HEIF_CONVERT_PATH", "SCRATCH_DIR", "OUTPUT_DIR", "ARCHIVE_NAME", "NATS_URL", "EVENT_SUBJECT", "LOG_LEVEL", "PROBE_TIMEOUT_SEC"} {
		t.Setenv(k, "")
	}

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig returned error: %v", err)
	}

	if cfg.FFmpegPath != "ffmpeg" || cfg.FFprobePath != "ffprobe" || cfg.HeifConvertPath != "heif-convert" {
		t.Fatalf("unexpected tool paths: %s %s %s", cfg.FFmpegPath, cfg.FFprobePath, cfg.HeifConvertPath)
	}
	if cfg.OutputDir != "." || cfg.ArchiveName != "converted.zip" {
		t.Fatalf("unexpected output: %s %s", cfg.OutputDir, cfg.ArchiveName)
	}
	if cfg.NATSURL != "" || cfg.EventSubject != "converter.events" {
		t.Fatalf("unexpected bus settings: %q %q", cfg.NATSURL, cfg.EventSubject)
	}
	if cfg.LogLevel != slog.LevelInfo || cfg.ProbeTimeoutSec != 30 {
		t.Fatalf("unexpected level/timeout: %v %d", cfg.LogLevel, cfg.ProbeTimeoutSec)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("ARCHIVE_NAME", "batch.zip")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("NATS_URL", "nats://10.0.0.1:4222")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig returned error: %v", err)
	}
	if cfg.ArchiveName != "batch.zip" || cfg.LogLevel != slog.LevelDebug || cfg.NATSURL != "nats://10.0.0.1:4222" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadConfigInvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"LOG_LEVEL", "loud"},
		{"PROBE_TIMEOUT_SEC", "0"},
		{"PROBE_TIMEOUT_SEC", "soon"},
		{"ARCHIVE_NAME", "../escape.zip"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := loadConfig(); err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}
