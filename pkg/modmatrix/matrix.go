// Package modmatrix routes modulation sources to destinations.
//
// The routing lives in an immutable Table. The control thread builds a new
// Table and publishes it with one atomic store; the audio thread loads the
// current Table once per control tick and never sees a partial update.
// A Table holds no signal values: every Value call reads the sources fresh
// from a SourceReader, normally a voice, so one shared routing produces
// independent modulation per voice.
package modmatrix

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/justyntemme/wtsynth/pkg/dsp"
)

var (
	ErrUnknownSource      = errors.New("modmatrix: unknown source")
	ErrUnknownDestination = errors.New("modmatrix: unknown destination")
)

// Connection routes Source to Dest scaled by Depth in [-1, 1].
type Connection struct {
	Source SourceID
	Dest   DestinationID
	Depth  float64
}

// SourceReader supplies the current value of each source.
type SourceReader interface {
	SourceValue(id SourceID) float64
}

// Table is an immutable routing table indexed by destination.
type Table struct {
	byDest [NumDestinations][]Connection
	all    []Connection
}

// NewTable validates conns and groups them by destination, keeping
// insertion order. Depths are clamped to [-1, 1].
func NewTable(conns []Connection) (*Table, error) {
	t := &Table{all: make([]Connection, 0, len(conns))}
	for _, c := range conns {
		if !c.Source.Valid() {
			return nil, fmt.Errorf("%w: %d", ErrUnknownSource, c.Source)
		}
		if !c.Dest.Valid() {
			return nil, fmt.Errorf("%w: %d", ErrUnknownDestination, c.Dest)
		}
		c.Depth = dsp.Clamp(c.Depth, -1, 1)
		t.byDest[c.Dest] = append(t.byDest[c.Dest], c)
		t.all = append(t.all, c)
	}
	return t, nil
}

// Value sums source*depth over every connection targeting dest. ok is
// false, with a zero value, when dest is not a known destination.
func (t *Table) Value(dest DestinationID, src SourceReader) (v float64, ok bool) {
	if !dest.Valid() {
		return 0, false
	}
	for _, c := range t.byDest[dest] {
		v += src.SourceValue(c.Source) * c.Depth
	}
	return v, true
}

// Routed reports whether any connection targets dest.
func (t *Table) Routed(dest DestinationID) bool {
	return dest.Valid() && len(t.byDest[dest]) > 0
}

// Uses reports whether any connection reads src.
func (t *Table) Uses(src SourceID) bool {
	for _, c := range t.all {
		if c.Source == src {
			return true
		}
	}
	return false
}

// Connections returns a copy of the routing in insertion order.
func (t *Table) Connections() []Connection {
	out := make([]Connection, len(t.all))
	copy(out, t.all)
	return out
}

// Len returns the number of connections.
func (t *Table) Len() int {
	return len(t.all)
}

// Matrix holds the published routing table.
type Matrix struct {
	table atomic.Pointer[Table]
}

// New returns a matrix with no connections.
func New() *Matrix {
	m := &Matrix{}
	empty, _ := NewTable(nil)
	m.table.Store(empty)
	return m
}

// Table returns the current routing.
func (m *Matrix) Table() *Table {
	return m.table.Load()
}

// Publish replaces the routing. A nil table is ignored.
func (m *Matrix) Publish(t *Table) {
	if t != nil {
		m.table.Store(t)
	}
}

// Set builds a table from conns and publishes it.
func (m *Matrix) Set(conns []Connection) error {
	t, err := NewTable(conns)
	if err != nil {
		return err
	}
	m.Publish(t)
	return nil
}

// Connect publishes the current routing plus c.
func (m *Matrix) Connect(c Connection) error {
	return m.Set(append(m.Table().Connections(), c))
}

// Disconnect publishes the current routing without any connection from
// src to dest.
func (m *Matrix) Disconnect(src SourceID, dest DestinationID) error {
	conns := m.Table().Connections()
	kept := conns[:0]
	for _, c := range conns {
		if c.Source != src || c.Dest != dest {
			kept = append(kept, c)
		}
	}
	return m.Set(kept)
}

// Value evaluates dest against the current routing.
func (m *Matrix) Value(dest DestinationID, src SourceReader) (float64, bool) {
	return m.table.Load().Value(dest, src)
}
