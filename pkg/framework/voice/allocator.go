// Package voice implements polyphonic note-to-voice allocation over a fixed
// pool. Nothing in this package allocates after NewAllocator.
package voice

import (
	"github.com/justyntemme/wtsynth/pkg/midi"
)

// Voice represents a single voice in the synthesizer
type Voice interface {
	// IsBusy is true while the gate is on or the output has not yet
	// settled to zero
	IsBusy() bool
	// IsGateOn is true between StartNote and StopNote
	IsGateOn() bool
	// CurrentNote returns the note this voice is assigned to, including a
	// note queued behind a steal
	CurrentNote() uint8
	// StartNote begins a note on an idle voice
	StartNote(note, velocity uint8)
	// StopNote closes the gate; the release tail keeps sounding
	StopNote()
	// StealNote quick-kills whatever is sounding and starts note once the
	// output reaches zero
	StealNote(note, velocity uint8)
	// Kill quick-kills the voice without queuing anything
	Kill()
}

// Allocator maps notes onto a fixed voice pool. A repeated note retriggers
// the voice already holding it; otherwise the first idle voice is used, and
// when every voice is busy the note is dropped.
type Allocator struct {
	voices       []Voice
	maxVoices    int
	sustainPedal bool
	sustained    []int // voice indices held by the pedal
}

// NewAllocator creates a new voice allocator
func NewAllocator(voices []Voice) *Allocator {
	return &Allocator{
		voices:    voices,
		maxVoices: len(voices),
		sustained: make([]int, 0, len(voices)),
	}
}

// SetMaxVoices limits how many voices of the pool are used
func (a *Allocator) SetMaxVoices(max int) {
	if max > len(a.voices) {
		max = len(a.voices)
	}
	if max < 1 {
		max = 1
	}
	a.maxVoices = max
}

// MaxVoices returns the usable pool size
func (a *Allocator) MaxVoices() int {
	return a.maxVoices
}

// Voice returns the voice at index i
func (a *Allocator) Voice(i int) Voice {
	return a.voices[i]
}

// ProcessEvent handles note and sustain events. It reports false when a
// note-on was dropped or a note-off matched no voice.
func (a *Allocator) ProcessEvent(e midi.Event) bool {
	switch e.Type() {
	case midi.EventTypeNoteOn:
		if e.Velocity() == 0 {
			return a.NoteOff(e.Note())
		}
		_, ok := a.NoteOn(e.Note(), e.Velocity())
		return ok
	case midi.EventTypeNoteOff:
		return a.NoteOff(e.Note())
	case midi.EventTypeControlChange:
		switch e.Controller() {
		case midi.CCSustain:
			a.SetSustainPedal(e.Value() >= 64)
		case midi.CCAllNotesOff:
			a.AllNotesOff()
		case midi.CCAllSoundOff:
			a.Reset()
		}
	}
	return true
}

// NoteOn assigns note to a voice and returns its index. ok is false when
// the pool is full and the note was dropped.
func (a *Allocator) NoteOn(note, velocity uint8) (index int, ok bool) {
	if idx := a.findNote(note, false); idx >= 0 {
		a.unsustain(idx)
		a.voices[idx].StealNote(note, velocity)
		return idx, true
	}

	for i := 0; i < a.maxVoices; i++ {
		if !a.voices[i].IsBusy() {
			a.voices[i].StartNote(note, velocity)
			return i, true
		}
	}
	return -1, false
}

// NoteOff releases the voice holding note, or parks it on the sustain list
// while the pedal is down. It returns false when no gated voice holds note.
func (a *Allocator) NoteOff(note uint8) bool {
	idx := a.findNote(note, true)
	if idx < 0 {
		return false
	}
	if a.sustainPedal {
		a.sustain(idx)
		return true
	}
	a.voices[idx].StopNote()
	return true
}

// SetSustainPedal sets the sustain pedal state. Lifting the pedal stops
// every voice parked on the sustain list.
func (a *Allocator) SetSustainPedal(on bool) {
	a.sustainPedal = on
	if on {
		return
	}
	for _, idx := range a.sustained {
		a.voices[idx].StopNote()
	}
	a.sustained = a.sustained[:0]
}

// SustainPedal returns the pedal state
func (a *Allocator) SustainPedal() bool {
	return a.sustainPedal
}

// SustainedCount returns how many voices the pedal is holding
func (a *Allocator) SustainedCount() int {
	return len(a.sustained)
}

// AllNotesOff releases every gated voice and clears the sustain list
func (a *Allocator) AllNotesOff() {
	for i := 0; i < a.maxVoices; i++ {
		if a.voices[i].IsGateOn() {
			a.voices[i].StopNote()
		}
	}
	a.sustained = a.sustained[:0]
}

// Reset kills all voices and clears the pedal
func (a *Allocator) Reset() {
	for _, v := range a.voices {
		v.Kill()
	}
	a.sustained = a.sustained[:0]
	a.sustainPedal = false
}

// GetActiveVoiceCount returns the number of busy voices
func (a *Allocator) GetActiveVoiceCount() int {
	count := 0
	for _, v := range a.voices[:a.maxVoices] {
		if v.IsBusy() {
			count++
		}
	}
	return count
}

// findNote returns the index of the busy voice holding note, or -1. With
// gated set, only voices whose gate is still on match.
func (a *Allocator) findNote(note uint8, gated bool) int {
	for i := 0; i < a.maxVoices; i++ {
		v := a.voices[i]
		if !v.IsBusy() || v.CurrentNote() != note {
			continue
		}
		if gated && !v.IsGateOn() {
			continue
		}
		return i
	}
	return -1
}

func (a *Allocator) sustain(idx int) {
	for _, s := range a.sustained {
		if s == idx {
			return
		}
	}
	a.sustained = append(a.sustained, idx)
}

func (a *Allocator) unsustain(idx int) {
	for i, s := range a.sustained {
		if s == idx {
			a.sustained = append(a.sustained[:i], a.sustained[i+1:]...)
			return
		}
	}
}
