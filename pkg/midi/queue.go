package midi

// Queue is a fixed-capacity FIFO of events ordered by sample offset. Push
// keeps insertion order for equal offsets. Nothing allocates after NewQueue.
type Queue struct {
	events []Event
	head   int
}

func NewQueue(capacity int) *Queue {
	return &Queue{
		events: make([]Event, 0, capacity),
	}
}

// Push inserts e after every queued event with an offset <= e.Offset. It
// returns false when the queue is full.
func (q *Queue) Push(e Event) bool {
	if len(q.events) == cap(q.events) {
		if q.head == 0 {
			return false
		}
		q.compact()
	}

	i := len(q.events)
	q.events = q.events[:i+1]
	for i > q.head && q.events[i-1].Offset > e.Offset {
		q.events[i] = q.events[i-1]
		i--
	}
	q.events[i] = e
	return true
}

// Next pops the earliest event if it is due at or before sample.
func (q *Queue) Next(sample int32) (Event, bool) {
	if q.head >= len(q.events) || q.events[q.head].Offset > sample {
		return Event{}, false
	}
	e := q.events[q.head]
	q.head++
	if q.head == len(q.events) {
		q.Clear()
	}
	return e, true
}

// Peek returns the earliest event without removing it.
func (q *Queue) Peek() (Event, bool) {
	if q.head >= len(q.events) {
		return Event{}, false
	}
	return q.events[q.head], true
}

func (q *Queue) Len() int {
	return len(q.events) - q.head
}

func (q *Queue) Cap() int {
	return cap(q.events)
}

func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

func (q *Queue) Clear() {
	q.events = q.events[:0]
	q.head = 0
}

// Rebase subtracts offset from every queued event, for carrying events
// past the end of one block into the next.
func (q *Queue) Rebase(offset int32) {
	for i := q.head; i < len(q.events); i++ {
		q.events[i].Offset -= offset
	}
}

func (q *Queue) compact() {
	n := copy(q.events, q.events[q.head:])
	q.events = q.events[:n]
	q.head = 0
}
