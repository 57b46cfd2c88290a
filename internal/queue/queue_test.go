package queue

import (
	"errors"
	"testing"
)

func TestQueueAddKeepsOrder(t *testing.T) {
	q := New()
	items := q.Add(memFile{name: "a.png"}, memFile{name: "b.mp3"}, memFile{name: "c.pdf"})

	if q.Len() != 3 || len(items) != 3 {
		t.Fatalf("unexpected queue length: %d", q.Len())
	}
	for idx, it := range q.Items() {
		if it != items[idx] {
			t.Fatalf("item %d out of order", idx)
		}
	}
}

func TestQueueSelected(t *testing.T) {
	q := New()
	items := q.Add(memFile{name: "a.png"}, memFile{name: "b.png"}, memFile{name: "c.png"})
	if err := items[1].SetSelected(false); err != nil {
		t.Fatal(err)
	}

	selected := q.Selected()
	if len(selected) != 2 || selected[0] != items[0] || selected[1] != items[2] {
		t.Fatalf("unexpected selection: %v", selected)
	}

	q.SelectAll(false)
	if len(q.Selected()) != 0 {
		t.Fatal("SelectAll(false) left items selected")
	}
}

func TestQueueRemoveAndClear(t *testing.T) {
	q := New()
	items := q.Add(memFile{name: "a.png"}, memFile{name: "b.png"})

	if err := q.Remove(items[0].ID()); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := q.Get(items[0].ID()); ok {
		t.Fatal("removed item still present")
	}
	if got, ok := q.Get(items[1].ID()); !ok || got != items[1] {
		t.Fatal("remaining item missing")
	}

	_ = items[1].MarkConverting()
	if err := q.Remove(items[1].ID()); !errors.Is(err, ErrItemBusy) {
		t.Fatalf("expected ErrItemBusy removing converting item, got %v", err)
	}

	if err := q.Remove(items[0].ID()); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound removing twice, got %v", err)
	}

	q.Clear()
	if q.Len() != 0 {
		t.Fatal("Clear left items behind")
	}
}
