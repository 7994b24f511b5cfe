package wavetable

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Set is an ordered sequence of wavetables spanning morph positions 0..1 for
// one oscillator slot. All members share one table size and therefore one
// rung layout.
type Set struct {
	tables []*Wavetable
	size   int
}

// NewSet validates that every table has the same size.
func NewSet(tables ...*Wavetable) (*Set, error) {
	if len(tables) == 0 {
		return nil, ErrEmpty
	}
	size := tables[0].Size()
	for i, t := range tables {
		if t.Size() != size {
			return nil, fmt.Errorf("%w: table %d has size %d, expected %d", ErrMalformed, i, t.Size(), size)
		}
	}
	return &Set{tables: tables, size: size}, nil
}

// BuildSet band-limits every raw wave concurrently and assembles the set in
// input order.
func BuildSet(ctx context.Context, raws [][]float32) (*Set, error) {
	if len(raws) == 0 {
		return nil, ErrEmpty
	}
	size := len(raws[0])
	for i, raw := range raws {
		if len(raw) != size {
			return nil, fmt.Errorf("%w: wave %d has size %d, expected %d", ErrMalformed, i, len(raw), size)
		}
	}

	tables := make([]*Wavetable, len(raws))
	g, ctx := errgroup.WithContext(ctx)
	for i, raw := range raws {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			wt, err := Build(raw)
			if err != nil {
				return fmt.Errorf("wave %d: %w", i, err)
			}
			tables[i] = wt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return NewSet(tables...)
}

// Len returns the number of morph frames.
func (s *Set) Len() int {
	return len(s.tables)
}

// TableSize returns the shared table size.
func (s *Set) TableSize() int {
	return s.size
}

// Table returns morph frame i.
func (s *Set) Table(i int) *Wavetable {
	return s.tables[i]
}

// Sample reads the set at phase for the given morph position in [0, 1] and
// phase increment. The two nearest frames are each read from the rung that is
// alias-safe for delta and crossfaded linearly.
func (s *Set) Sample(phase, position, delta float64) float64 {
	if len(s.tables) == 1 {
		return s.tables[0].Sample(phase, delta)
	}
	if position <= 0 {
		position = 0
	} else if position >= 1 {
		position = 1
	}

	idx := position * float64(len(s.tables)-1)
	i0 := int(idx)
	frac := idx - float64(i0)
	if i0 >= len(s.tables)-1 {
		i0 = len(s.tables) - 1
		frac = 0
	}

	rung := s.tables[i0].RungFor(delta)
	s0 := s.tables[i0].SampleRung(rung, phase)
	if frac == 0 {
		return s0
	}
	s1 := s.tables[i0+1].SampleRung(rung, phase)
	return s0 + (s1-s0)*frac
}
