package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tendant/simple-converter/internal/converters"
	"github.com/tendant/simple-converter/internal/media"
	"github.com/tendant/simple-converter/internal/source"
)

func newProbeCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "probe <file|folder>...",
		Short: "Show how inputs are classified and what they contain",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runProbe(cmd.Context(), cmd.OutOrStdout(), cfg, asJSON, args)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

type probeRow struct {
	*converters.FileInfo
	Targets []media.Target `json:"targets"`
	Error   string         `json:"error,omitempty"`
}

func runProbe(ctx context.Context, out io.Writer, cfg config, asJSON bool, paths []string) error {
	files, err := source.Collect(paths...)
	if err != nil {
		return err
	}
	prober := converters.NewProber(cfg.FFprobePath, cfg.ScratchDir)

	rows := make([]probeRow, 0, len(files))
	for _, f := range files {
		class := media.Classify(f.MediaType(), f.Name())
		row := probeRow{
			FileInfo: &converters.FileInfo{Name: f.Name(), MediaType: f.MediaType(), Category: class.Category, Size: f.Size()},
			Targets:  class.Targets,
		}

		data, err := f.ReadAll(ctx)
		if err != nil {
			row.Error = err.Error()
			rows = append(rows, row)
			continue
		}

		probeCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.ProbeTimeoutSec)*time.Second)
		info, err := prober.Probe(probeCtx, f.Name(), f.MediaType(), data)
		cancel()
		if err != nil {
			row.Error = firstLine(err.Error())
		} else {
			row.FileInfo = info
		}
		rows = append(rows, row)
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		table = append(table, []string{
			r.Name,
			string(r.Category),
			humanBytes(r.Size),
			describe(r),
			targetList(r.Targets),
		})
	}
	fmt.Fprintln(out, renderTable(out, probeColumns, table))
	return nil
}

func describe(r probeRow) string {
	if r.Error != "" {
		return "error: " + r.Error
	}
	var parts []string
	if r.Codec != "" {
		parts = append(parts, r.Codec)
	}
	if r.Width > 0 && r.Height > 0 {
		parts = append(parts, fmt.Sprintf("%dx%d", r.Width, r.Height))
	}
	if r.Duration > 0 {
		parts = append(parts, strconv.FormatFloat(r.Duration, 'f', 1, 64)+"s")
	}
	if r.SampleRate > 0 {
		parts = append(parts, fmt.Sprintf("%d Hz/%dch", r.SampleRate, r.Channels))
	}
	if r.Pages > 0 {
		parts = append(parts, fmt.Sprintf("%d pages", r.Pages))
	}
	return strings.Join(parts, ", ")
}

func targetList(targets []media.Target) string {
	if len(targets) == 0 {
		return "-"
	}
	labels := make([]string, len(targets))
	for i, t := range targets {
		labels[i] = targetLabel(t)
	}
	return strings.Join(labels, ",")
}
