package modulation

import (
	"context"
	"fmt"
	"sync"
)

// ShapeBuilder rebuilds breakpoint tables off the audio thread. Submit
// records the latest handles for a shape; Run resamples pending shapes and
// publishes the finished tables. Only the newest submission per shape is
// built.
type ShapeBuilder struct {
	shapes []*Shape

	mu      sync.Mutex
	pending [][]Handle
	wake    chan struct{}
	built   func(shape int)
}

// NewShapeBuilder creates a builder serving shapes by index.
func NewShapeBuilder(shapes ...*Shape) *ShapeBuilder {
	return &ShapeBuilder{
		shapes:  shapes,
		pending: make([][]Handle, len(shapes)),
		wake:    make(chan struct{}, 1),
	}
}

// OnBuilt registers a callback invoked on the builder goroutine after a
// table is published. Set it before Run.
func (b *ShapeBuilder) OnBuilt(fn func(shape int)) {
	b.built = fn
}

// Submit validates handles and queues a rebuild of shape.
func (b *ShapeBuilder) Submit(shape int, handles []Handle) error {
	if shape < 0 || shape >= len(b.shapes) {
		return fmt.Errorf("modulation: shape %d out of range", shape)
	}
	if err := ValidateHandles(handles); err != nil {
		return err
	}

	b.mu.Lock()
	b.pending[shape] = append([]Handle(nil), handles...)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
	return nil
}

// Run processes submissions until ctx is cancelled.
func (b *ShapeBuilder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-b.wake:
			b.Flush()
		}
	}
}

// Flush builds and publishes every pending shape on the calling goroutine.
func (b *ShapeBuilder) Flush() {
	b.mu.Lock()
	work := make([][]Handle, len(b.pending))
	copy(work, b.pending)
	for i := range b.pending {
		b.pending[i] = nil
	}
	b.mu.Unlock()

	for i, handles := range work {
		if handles == nil {
			continue
		}
		table, err := BreakpointTable(handles)
		if err != nil {
			// Submit already validated the handles.
			continue
		}
		b.shapes[i].Publish(table, handles)
		if b.built != nil {
			b.built(i)
		}
	}
}
