package bus

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/simple-converter/internal/queue"
	"github.com/tendant/simple-converter/pkg/schema"
)

// JSONPublisher is satisfied by *Client.
type JSONPublisher interface {
	PublishJSON(subject string, v any) error
}

// Publisher forwards batch progress to a subject as schema events. Publish
// failures are logged and never interrupt the batch.
type Publisher struct {
	pub     JSONPublisher
	subject string
	batchID string
	logger  *slog.Logger
	now     func() time.Time
}

func NewPublisher(pub JSONPublisher, subject string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		pub:     pub,
		subject: subject,
		batchID: uuid.NewString(),
		logger:  logger,
		now:     time.Now,
	}
}

// BatchID identifies the events of this publisher's run.
func (p *Publisher) BatchID() string { return p.batchID }

func (p *Publisher) ItemUpdated(snap queue.Snapshot) {
	p.publish(schema.ItemEvent{
		Type:       schema.EventItem,
		BatchID:    p.batchID,
		ItemID:     snap.ID,
		Name:       snap.Name,
		Category:   string(snap.Category),
		Target:     string(snap.Target),
		Status:     schema.ItemStatus(snap.Status),
		Error:      snap.Error,
		HappenedAt: p.now().Unix(),
	})
}

func (p *Publisher) ProgressUpdated(percent int) {
	p.publish(schema.ProgressEvent{
		Type:       schema.EventProgress,
		BatchID:    p.batchID,
		Percent:    percent,
		HappenedAt: p.now().Unix(),
	})
}

// Finished publishes the closing event of a run.
func (p *Publisher) Finished(done schema.BatchDone) {
	done.Type = schema.EventBatch
	done.BatchID = p.batchID
	if done.HappenedAt == 0 {
		done.HappenedAt = p.now().Unix()
	}
	p.publish(done)
}

func (p *Publisher) publish(v any) {
	if err := p.pub.PublishJSON(p.subject, v); err != nil {
		p.logger.Warn("publish event failed", "subject", p.subject, "err", err)
	}
}
