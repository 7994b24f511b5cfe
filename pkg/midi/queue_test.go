package midi

import (
	"testing"
)

func TestQueueOrdersByOffset(t *testing.T) {
	q := NewQueue(8)

	if !q.IsEmpty() {
		t.Error("Expected queue to be empty")
	}

	// Add events out of order
	q.Push(NoteOn(300, 0, 62, 100))
	q.Push(NoteOn(100, 0, 60, 100))
	q.Push(NoteOn(200, 0, 61, 100))

	if q.Len() != 3 {
		t.Fatalf("Expected 3 events, got %d", q.Len())
	}

	offsets := []int32{100, 200, 300}
	for i, want := range offsets {
		e, ok := q.Next(1000)
		if !ok {
			t.Fatalf("Event %d: expected an event", i)
		}
		if e.SampleOffset() != want {
			t.Errorf("Event %d: expected offset %d, got %d", i, want, e.SampleOffset())
		}
	}
	if !q.IsEmpty() {
		t.Error("Expected queue to be drained")
	}
}

func TestQueueKeepsInsertionOrderForEqualOffsets(t *testing.T) {
	q := NewQueue(8)
	q.Push(NoteOn(10, 0, 60, 100))
	q.Push(NoteOff(10, 0, 60))
	q.Push(NoteOn(10, 0, 61, 100))

	want := []EventType{EventTypeNoteOn, EventTypeNoteOff, EventTypeNoteOn}
	for i, typ := range want {
		e, _ := q.Next(10)
		if e.Type() != typ {
			t.Errorf("Event %d: expected type %v, got %v", i, typ, e.Type())
		}
	}
}

func TestQueueNextOnlyReturnsDueEvents(t *testing.T) {
	q := NewQueue(4)
	q.Push(NoteOn(0, 0, 60, 100))
	q.Push(NoteOn(50, 0, 61, 100))

	count := 0
	for sample := int32(0); sample < 50; sample++ {
		for {
			if _, ok := q.Next(sample); !ok {
				break
			}
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected 1 due event before sample 50, got %d", count)
	}
	if e, ok := q.Peek(); !ok || e.Offset != 50 {
		t.Errorf("Expected pending event at 50, got %v", e)
	}
}

func TestQueueCapacity(t *testing.T) {
	q := NewQueue(2)
	if !q.Push(NoteOn(0, 0, 60, 1)) || !q.Push(NoteOn(1, 0, 61, 1)) {
		t.Fatal("Expected two pushes to succeed")
	}
	if q.Push(NoteOn(2, 0, 62, 1)) {
		t.Error("Expected push to fail when full")
	}

	// Consuming one frees a slot.
	q.Next(0)
	if !q.Push(NoteOn(2, 0, 62, 1)) {
		t.Error("Expected push to succeed after a pop")
	}
	if q.Len() != 2 || q.Cap() != 2 {
		t.Errorf("Expected 2 of 2, got %d of %d", q.Len(), q.Cap())
	}
}

func TestQueueRebase(t *testing.T) {
	q := NewQueue(4)
	q.Push(NoteOn(600, 0, 60, 1))
	q.Rebase(512)
	if e, _ := q.Peek(); e.Offset != 88 {
		t.Errorf("Expected offset 88 after rebase, got %d", e.Offset)
	}
}

func TestQueueDoesNotAllocate(t *testing.T) {
	q := NewQueue(64)
	allocs := testing.AllocsPerRun(100, func() {
		for i := int32(0); i < 32; i++ {
			q.Push(NoteOn(31-i, 0, 60, 100))
		}
		for {
			if _, ok := q.Next(1 << 30); !ok {
				break
			}
		}
	})
	if allocs != 0 {
		t.Errorf("Expected no allocations, got %f", allocs)
	}
}
