// Package queue holds the unit of conversion work: one input file together
// with its target, options and lifecycle status.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/tendant/simple-converter/internal/media"
)

// Status represents the lifecycle state of a queue item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConverting Status = "converting"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

var (
	// ErrItemBusy is returned when an item is edited while it is converting.
	ErrItemBusy = errors.New("item is converting")
	// ErrItemFinished is returned when a done or failed item is reconfigured.
	ErrItemFinished = errors.New("item already converted")
	// ErrItemNotFound is returned for ids that are not in the queue.
	ErrItemNotFound = errors.New("item not found")
	// ErrInvalidTarget is returned when a target is outside the item's valid set.
	ErrInvalidTarget = errors.New("target not valid for file")
	// ErrInvalidTransition is returned for status changes the state machine forbids.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// File is the input contract supplied by the picker, drag-drop or folder walk.
type File interface {
	// Name is the file name, optionally prefixed with a relative directory path.
	Name() string
	Size() int64
	// MediaType is the declared media type, possibly empty.
	MediaType() string
	ReadAll(ctx context.Context) ([]byte, error)
}

// Item is one queued conversion. It is safe for concurrent use: the
// presentation layer may edit it while the orchestrator is running.
type Item struct {
	mu       sync.Mutex
	id       string
	file     File
	class    media.Classification
	selected bool
	target   media.Target
	status   Status
	output   []byte
	err      string
	options  media.OptionSet
}

// Snapshot is a read-only copy of an item's state.
type Snapshot struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Size      int64           `json:"size"`
	MediaType string          `json:"media_type"`
	Category  media.Category  `json:"category"`
	Targets   []media.Target  `json:"targets"`
	Selected  bool            `json:"selected"`
	Target    media.Target    `json:"target"`
	Status    Status          `json:"status"`
	HasOutput bool            `json:"has_output"`
	Error     string          `json:"error,omitempty"`
	Options   media.OptionSet `json:"options"`
}

// NewItem classifies f and returns a pending, selected item with the default
// target and category default options.
func NewItem(f File) *Item {
	class := media.Classify(f.MediaType(), f.Name())
	return &Item{
		id:       uuid.NewString(),
		file:     f,
		class:    class,
		selected: true,
		target:   class.Default(),
		status:   StatusPending,
		options:  media.DefaultOptions(),
	}
}

func (i *Item) ID() string { return i.id }

func (i *Item) File() File { return i.file }

// Classification returns the category and valid targets computed for the file.
func (i *Item) Classification() media.Classification {
	return media.Classification{
		Category: i.class.Category,
		Targets:  append([]media.Target(nil), i.class.Targets...),
	}
}

func (i *Item) Snapshot() Snapshot {
	i.mu.Lock()
	defer i.mu.Unlock()
	return Snapshot{
		ID:        i.id,
		Name:      i.file.Name(),
		Size:      i.file.Size(),
		MediaType: i.file.MediaType(),
		Category:  i.class.Category,
		Targets:   append([]media.Target(nil), i.class.Targets...),
		Selected:  i.selected,
		Target:    i.target,
		Status:    i.status,
		HasOutput: i.output != nil,
		Error:     i.err,
		Options:   i.options,
	}
}

func (i *Item) Selected() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.selected
}

func (i *Item) Status() Status {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.status
}

func (i *Item) Target() media.Target {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.target
}

// Output returns the converted bytes; nil unless the item is done and the
// conversion produced a single output.
func (i *Item) Output() []byte {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.output
}

func (i *Item) Err() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.err
}

// Options returns the full option set, including blocks for other categories.
func (i *Item) Options() media.OptionSet {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.options
}

// SetSelected toggles inclusion in the next run and in the archive. Finished
// items may still be toggled.
func (i *Item) SetSelected(selected bool) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.status == StatusConverting {
		return ErrItemBusy
	}
	i.selected = selected
	return nil
}

// SetTarget changes the output target. Only pending items accept edits and
// only targets from the item's valid set are accepted.
func (i *Item) SetTarget(t media.Target) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.editable(); err != nil {
		return err
	}
	if !i.class.Allows(t) {
		return fmt.Errorf("%w: %s for %s", ErrInvalidTarget, t, i.class.Category)
	}
	i.target = t
	return nil
}

// SetOptions validates o and replaces the block for its category. Blocks for
// other categories are left untouched. Like SetTarget it only applies to
// pending items.
func (i *Item) SetOptions(o media.Options) error {
	if o == nil {
		return fmt.Errorf("%w: nil options", media.ErrInvalidOptions)
	}
	if err := o.Validate(); err != nil {
		return err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.editable(); err != nil {
		return err
	}
	i.options = i.options.With(o)
	return nil
}

// editable reports whether target and options may still change. Callers hold mu.
func (i *Item) editable() error {
	switch i.status {
	case StatusPending:
		return nil
	case StatusConverting:
		return ErrItemBusy
	default:
		return fmt.Errorf("%w: status %s", ErrItemFinished, i.status)
	}
}

// MarkConverting moves a pending item to converting.
func (i *Item) MarkConverting() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.status != StatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, i.status, StatusConverting)
	}
	i.status = StatusConverting
	return nil
}

// MarkDone records the output of a finished conversion. When the realised
// target differs from the requested one (HEIC always yields JPEG) the target
// is overwritten. output may be nil for split documents.
func (i *Item) MarkDone(output []byte, target media.Target) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.status != StatusConverting {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, i.status, StatusDone)
	}
	i.status = StatusDone
	i.output = output
	i.err = ""
	if target != "" {
		i.target = target
	}
	return nil
}

// MarkError records a failed conversion.
func (i *Item) MarkError(message string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.status != StatusConverting {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, i.status, StatusError)
	}
	i.status = StatusError
	i.output = nil
	i.err = message
	return nil
}

// Job returns everything a converter needs, read under one lock.
func (i *Item) Job() (category media.Category, target media.Target, opts media.Options) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.class.Category, i.target, i.options.For(i.class.Category)
}
