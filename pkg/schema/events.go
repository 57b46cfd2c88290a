// pkg/schema/events.go
package schema

type EventType string

const (
	EventItem     EventType = "item"
	EventProgress EventType = "progress"
	EventBatch    EventType = "batch"
)

type ItemStatus string

const (
	ItemPending    ItemStatus = "pending"
	ItemConverting ItemStatus = "converting"
	ItemDone       ItemStatus = "done"
	ItemError      ItemStatus = "error"
)

type ItemEvent struct {
	Type       EventType  `json:"type"`
	BatchID    string     `json:"batch_id"`
	ItemID     string     `json:"item_id"`
	Name       string     `json:"name"`
	Category   string     `json:"category"`
	Target     string     `json:"target,omitempty"`
	Status     ItemStatus `json:"status"`
	Error      string     `json:"error,omitempty"`
	HappenedAt int64      `json:"happened_at"`
}

type ProgressEvent struct {
	Type       EventType `json:"type"`
	BatchID    string    `json:"batch_id"`
	Percent    int       `json:"percent"`
	HappenedAt int64     `json:"happened_at"`
}

type BatchDone struct {
	Type             EventType `json:"type"`
	BatchID          string    `json:"batch_id"`
	Total            int       `json:"total"`
	TotalDone        int       `json:"total_done"`
	TotalFailed      int       `json:"total_failed"`
	TotalSkipped     int       `json:"total_skipped"`
	ArchiveName      string    `json:"archive_name,omitempty"`
	ArchiveEntries   int       `json:"archive_entries"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	Error            string    `json:"error,omitempty"`
	HappenedAt       int64     `json:"happened_at"`
}
