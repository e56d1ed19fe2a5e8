package layout

import (
	"slices"
	"testing"
)

func TestQueueOrder(t *testing.T) {
	in := images(3, 10, 10)
	q := NewQueue(in)
	in[0] = nil // queue keeps its own copy

	if q.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", q.Len())
	}
	a, _ := q.PopFront()
	b, _ := q.PopBack()
	if a.ID != "img00" || b.ID != "img02" {
		t.Fatalf("got %s/%s, want img00/img02", a.ID, b.ID)
	}
	q.PushFront(a)
	q.PushBack(b)
	var got []string
	for _, i := range q.Slice() {
		got = append(got, i.ID)
	}
	if want := []string{"img00", "img01", "img02"}; !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestQueueGrowWrapped(t *testing.T) {
	q := NewQueue(nil)
	all := images(20, 10, 10)
	// force head to wrap around before growing
	for _, i := range all[10:] {
		q.PushBack(i)
	}
	for i := 9; i >= 0; i-- {
		q.PushFront(all[i])
	}
	got := q.Slice()
	if len(got) != len(all) {
		t.Fatalf("Len() = %d, want %d", len(got), len(all))
	}
	for i := range all {
		if got[i] != all[i] {
			t.Fatalf("position %d: got %s, want %s", i, got[i].ID, all[i].ID)
		}
	}
}

func TestQueueEmpty(t *testing.T) {
	q := NewQueue(nil)
	if _, ok := q.PopFront(); ok {
		t.Error("PopFront on empty queue succeeded")
	}
	if _, ok := q.PopBack(); ok {
		t.Error("PopBack on empty queue succeeded")
	}
	if _, ok := q.PeekFront(); ok {
		t.Error("PeekFront on empty queue succeeded")
	}
}

func TestQueuePushRowFront(t *testing.T) {
	all := images(4, 10, 10)
	q := NewQueue(all[2:])
	q.PushRowFront(Row{Images: []ScaledImage{{Image: all[0], Scale: 1}, {Image: all[1], Scale: 1}}})

	got := q.Slice()
	for i := range all {
		if got[i] != all[i] {
			t.Fatalf("position %d: got %s, want %s", i, got[i].ID, all[i].ID)
		}
	}
}

func TestQueueClone(t *testing.T) {
	q := NewQueue(images(3, 10, 10))
	c := q.Clone()
	c.PopFront()
	if q.Len() != 3 || c.Len() != 2 {
		t.Errorf("clone is not independent: %d/%d", q.Len(), c.Len())
	}
}
