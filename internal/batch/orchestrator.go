// Package batch runs the selected queue items through the converters, one at
// a time, and reports item status and overall progress to observers.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/tendant/simple-converter/internal/converters"
	"github.com/tendant/simple-converter/internal/media"
	"github.com/tendant/simple-converter/internal/queue"
)

// Converter is the part of converters.Set the orchestrator needs.
type Converter interface {
	Convert(ctx context.Context, req converters.Request) (converters.Output, error)
}

// Summary is the outcome of one run.
type Summary struct {
	Total    int           `json:"total"`
	Done     int           `json:"done"`
	Failed   int           `json:"failed"`
	Skipped  int           `json:"skipped"`
	Progress int           `json:"progress"`
	Duration time.Duration `json:"duration"`
}

// Orchestrator converts queue items sequentially. The converters share one
// transcoding engine that cannot run two jobs at once, so a run never
// overlaps items and two runs must not overlap on the same Orchestrator.
type Orchestrator struct {
	conv      Converter
	observers []Observer
	logger    *slog.Logger
}

func New(conv Converter, logger *slog.Logger, observers ...Observer) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{conv: conv, observers: observers, logger: logger}
}

// Run converts the items of q that are selected when Run is called, in queue
// order. A failing item is marked as error and the run moves on. ctx is
// checked between items: once it is done the remaining items stay pending and
// Run returns ctx.Err() with the partial summary. The item being converted
// always finishes.
func (o *Orchestrator) Run(ctx context.Context, q *queue.Queue) (Summary, error) {
	return o.RunItems(ctx, q.Selected())
}

// RunItems is Run over an explicit snapshot.
func (o *Orchestrator) RunItems(ctx context.Context, items []*queue.Item) (Summary, error) {
	start := time.Now()
	summary := Summary{Total: len(items)}
	if len(items) == 0 {
		return summary, nil
	}
	o.logger.Info("batch started", "items", len(items))

	completed := 0
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			summary.Skipped = len(items) - completed
			summary.Duration = time.Since(start)
			o.logger.Warn("batch cancelled", "completed", completed, "remaining", summary.Skipped, "err", err)
			return summary, err
		}

		if o.convertItem(ctx, item) {
			summary.Done++
		} else {
			summary.Failed++
		}
		completed++

		summary.Progress = Progress(completed, len(items))
		for _, obs := range o.observers {
			obs.ProgressUpdated(summary.Progress)
		}
	}

	summary.Duration = time.Since(start)
	o.logger.Info("batch finished", "done", summary.Done, "failed", summary.Failed, "duration_ms", summary.Duration.Milliseconds())
	return summary, nil
}

// convertItem runs one item to a terminal state and reports whether it ended
// up done. Every failure is recorded on the item, never returned.
func (o *Orchestrator) convertItem(ctx context.Context, item *queue.Item) bool {
	itemLogger := o.logger.With("item_id", item.ID(), "name", item.File().Name())

	if err := item.MarkConverting(); err != nil {
		// Already converted in an earlier run, or removed from pending some other way.
		itemLogger.Warn("item not pending, skipping", "status", item.Status(), "err", err)
		return item.Status() == queue.StatusDone
	}
	o.notify(item)

	// The running item is allowed to finish even if ctx is cancelled.
	jobCtx := context.WithoutCancel(ctx)
	out, err := o.convert(jobCtx, item)
	if err != nil {
		itemLogger.Error("conversion failed", "err", err)
		if markErr := item.MarkError(err.Error()); markErr != nil {
			itemLogger.Error("record failure", "err", markErr)
		}
		o.notify(item)
		return false
	}

	if err := item.MarkDone(out.Data, out.Target); err != nil {
		itemLogger.Error("record result", "err", err)
		o.notify(item)
		return false
	}
	itemLogger.Info("converted", "target", out.Target, "bytes", len(out.Data), "pages", out.Pages)
	o.notify(item)
	return true
}

func (o *Orchestrator) convert(ctx context.Context, item *queue.Item) (out converters.Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("converter panic: %v", r)
		}
	}()

	category, target, opts := item.Job()
	f := item.File()
	if category == media.CategoryUnsupported {
		return converters.Output{}, &converters.UnsupportedTypeError{Name: f.Name(), MediaType: f.MediaType()}
	}

	data, err := f.ReadAll(ctx)
	if err != nil {
		return converters.Output{}, fmt.Errorf("read %s: %w", f.Name(), err)
	}

	return o.conv.Convert(ctx, converters.Request{
		Name:      f.Name(),
		MediaType: f.MediaType(),
		Category:  category,
		Target:    target,
		Options:   opts,
		Data:      data,
	})
}

func (o *Orchestrator) notify(item *queue.Item) {
	if len(o.observers) == 0 {
		return
	}
	snap := item.Snapshot()
	for _, obs := range o.observers {
		obs.ItemUpdated(snap)
	}
}

// Progress is completed/total as a rounded percentage.
func Progress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
