package batch

import (
	"log/slog"

	"github.com/tendant/simple-converter/internal/queue"
)

// Observer receives item status changes and overall progress during a run.
// Calls are made from the goroutine running the batch, in order.
type Observer interface {
	ItemUpdated(snap queue.Snapshot)
	ProgressUpdated(percent int)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	OnItem     func(queue.Snapshot)
	OnProgress func(int)
}

func (f ObserverFuncs) ItemUpdated(snap queue.Snapshot) {
	if f.OnItem != nil {
		f.OnItem(snap)
	}
}

func (f ObserverFuncs) ProgressUpdated(percent int) {
	if f.OnProgress != nil {
		f.OnProgress(percent)
	}
}

// LogObserver writes status changes to a structured logger.
type LogObserver struct {
	Logger *slog.Logger
}

func (l LogObserver) ItemUpdated(snap queue.Snapshot) {
	logger := l.logger()
	switch snap.Status {
	case queue.StatusError:
		logger.Warn("item failed", "item_id", snap.ID, "name", snap.Name, "err", snap.Error)
	default:
		logger.Debug("item updated", "item_id", snap.ID, "name", snap.Name, "status", snap.Status, "target", snap.Target)
	}
}

func (l LogObserver) ProgressUpdated(percent int) {
	l.logger().Info("progress", "percent", percent)
}

func (l LogObserver) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}
