package queue

import (
	"fmt"
	"sync"
)

// Queue is the ordered collection of items shown to the user.
type Queue struct {
	mu    sync.RWMutex
	items []*Item
}

func New() *Queue {
	return &Queue{}
}

// Add enqueues one item per file, in order, and returns the new items.
func (q *Queue) Add(files ...File) []*Item {
	added := make([]*Item, 0, len(files))
	for _, f := range files {
		added = append(added, NewItem(f))
	}
	q.mu.Lock()
	q.items = append(q.items, added...)
	q.mu.Unlock()
	return added
}

// Get returns the item with the given id.
func (q *Queue) Get(id string) (*Item, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	for _, it := range q.items {
		if it.id == id {
			return it, true
		}
	}
	return nil, false
}

// Remove drops an item. Converting items cannot be removed.
func (q *Queue) Remove(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for idx, it := range q.items {
		if it.id != id {
			continue
		}
		if it.Status() == StatusConverting {
			return ErrItemBusy
		}
		q.items = append(q.items[:idx:idx], q.items[idx+1:]...)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrItemNotFound, id)
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.items = nil
	q.mu.Unlock()
}

// Items returns the items in queue order.
func (q *Queue) Items() []*Item {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return append([]*Item(nil), q.items...)
}

// Selected returns the selected items in queue order.
func (q *Queue) Selected() []*Item {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]*Item, 0, len(q.items))
	for _, it := range q.items {
		if it.Selected() {
			out = append(out, it)
		}
	}
	return out
}

// SelectAll toggles selection on every item that is not converting.
func (q *Queue) SelectAll(selected bool) {
	for _, it := range q.Items() {
		_ = it.SetSelected(selected)
	}
}

func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.items)
}
