package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

type EventType uint8

const (
	EventTypeNoteOff EventType = iota
	EventTypeNoteOn
	EventTypePolyPressure
	EventTypeControlChange
	EventTypeProgramChange
	EventTypeChannelPressure
	EventTypePitchBend
)

const (
	CCModWheel       uint8 = 1
	CCBreath         uint8 = 2
	CCFoot           uint8 = 4
	CCPortamentoTime uint8 = 5
	CCVolume         uint8 = 7
	CCBalance        uint8 = 8
	CCPan            uint8 = 10
	CCExpression     uint8 = 11
	CCSustain        uint8 = 64
	CCPortamento     uint8 = 65
	CCSostenuto      uint8 = 66
	CCSoft           uint8 = 67
	CCLegato         uint8 = 68
	CCHold2          uint8 = 69
	CCAllSoundOff    uint8 = 120
	CCResetAll       uint8 = 121
	CCLocalControl   uint8 = 122
	CCAllNotesOff    uint8 = 123
)

// Event is a channel voice message stamped with its sample offset inside
// the current block. It is a plain value so queues of events never
// allocate on the audio thread.
type Event struct {
	Kind    EventType
	Channel uint8
	Offset  int32
	Data1   uint8 // note, controller or program
	Data2   uint8 // velocity, value or pressure
	Bend    int16 // -8192 to 8191, 0 is center
}

func NoteOn(offset int32, channel, note, velocity uint8) Event {
	return Event{Kind: EventTypeNoteOn, Channel: channel, Offset: offset, Data1: note, Data2: velocity}
}

func NoteOff(offset int32, channel, note uint8) Event {
	return Event{Kind: EventTypeNoteOff, Channel: channel, Offset: offset, Data1: note}
}

func ControlChange(offset int32, channel, controller, value uint8) Event {
	return Event{Kind: EventTypeControlChange, Channel: channel, Offset: offset, Data1: controller, Data2: value}
}

func PitchBend(offset int32, channel uint8, value int16) Event {
	return Event{Kind: EventTypePitchBend, Channel: channel, Offset: offset, Bend: value}
}

func (e Event) Type() EventType {
	return e.Kind
}

func (e Event) SampleOffset() int32 {
	return e.Offset
}

func (e Event) Note() uint8 {
	return e.Data1
}

func (e Event) Velocity() uint8 {
	return e.Data2
}

func (e Event) Controller() uint8 {
	return e.Data1
}

func (e Event) Value() uint8 {
	return e.Data2
}

// NormalizedVelocity maps 0..127 to 0..1.
func (e Event) NormalizedVelocity() float64 {
	return float64(e.Data2) / 127.0
}

// NormalizedBend maps the bend to -1..1.
func (e Event) NormalizedBend() float64 {
	if e.Bend >= 0 {
		return float64(e.Bend) / 8191.0
	}
	return float64(e.Bend) / 8192.0
}

func (e Event) String() string {
	switch e.Kind {
	case EventTypeNoteOn:
		return fmt.Sprintf("NoteOn{ch:%d, note:%d, vel:%d, offset:%d}", e.Channel, e.Data1, e.Data2, e.Offset)
	case EventTypeNoteOff:
		return fmt.Sprintf("NoteOff{ch:%d, note:%d, offset:%d}", e.Channel, e.Data1, e.Offset)
	case EventTypeControlChange:
		return fmt.Sprintf("CC{ch:%d, ctrl:%d, val:%d, offset:%d}", e.Channel, e.Data1, e.Data2, e.Offset)
	case EventTypePitchBend:
		return fmt.Sprintf("PitchBend{ch:%d, val:%d, offset:%d}", e.Channel, e.Bend, e.Offset)
	case EventTypePolyPressure:
		return fmt.Sprintf("PolyPressure{ch:%d, note:%d, pressure:%d, offset:%d}", e.Channel, e.Data1, e.Data2, e.Offset)
	case EventTypeChannelPressure:
		return fmt.Sprintf("ChannelPressure{ch:%d, pressure:%d, offset:%d}", e.Channel, e.Data2, e.Offset)
	case EventTypeProgramChange:
		return fmt.Sprintf("ProgramChange{ch:%d, prog:%d, offset:%d}", e.Channel, e.Data1, e.Offset)
	}
	return fmt.Sprintf("Event{type:%d, offset:%d}", e.Kind, e.Offset)
}

// Decode parses one raw channel voice message. A note-on with velocity zero
// decodes as a note-off. ok is false for anything the engine does not
// handle, including system messages.
func Decode(offset int32, raw []byte) (e Event, ok bool) {
	msg := gomidi.Message(raw)
	var ch, a, b uint8
	var rel int16
	var abs uint16

	switch {
	case msg.GetNoteStart(&ch, &a, &b):
		return NoteOn(offset, ch, a, b), true
	case msg.GetNoteEnd(&ch, &a):
		return NoteOff(offset, ch, a), true
	case msg.GetControlChange(&ch, &a, &b):
		return ControlChange(offset, ch, a, b), true
	case msg.GetPitchBend(&ch, &rel, &abs):
		return PitchBend(offset, ch, rel), true
	case msg.GetPolyAfterTouch(&ch, &a, &b):
		return Event{Kind: EventTypePolyPressure, Channel: ch, Offset: offset, Data1: a, Data2: b}, true
	case msg.GetAfterTouch(&ch, &b):
		return Event{Kind: EventTypeChannelPressure, Channel: ch, Offset: offset, Data2: b}, true
	case msg.GetProgramChange(&ch, &a):
		return Event{Kind: EventTypeProgramChange, Channel: ch, Offset: offset, Data1: a}, true
	}
	return Event{}, false
}

// Encode renders e as raw MIDI bytes.
func Encode(e Event) []byte {
	switch e.Kind {
	case EventTypeNoteOn:
		return gomidi.NoteOn(e.Channel, e.Data1, e.Data2).Bytes()
	case EventTypeNoteOff:
		return gomidi.NoteOff(e.Channel, e.Data1).Bytes()
	case EventTypeControlChange:
		return gomidi.ControlChange(e.Channel, e.Data1, e.Data2).Bytes()
	case EventTypePitchBend:
		return gomidi.Pitchbend(e.Channel, e.Bend).Bytes()
	case EventTypePolyPressure:
		return gomidi.PolyAfterTouch(e.Channel, e.Data1, e.Data2).Bytes()
	case EventTypeChannelPressure:
		return gomidi.AfterTouch(e.Channel, e.Data2).Bytes()
	case EventTypeProgramChange:
		return gomidi.ProgramChange(e.Channel, e.Data1).Bytes()
	}
	return nil
}

func NoteNumberToName(note uint8) string {
	noteNames := [...]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	octave := int(note/12) - 1
	return fmt.Sprintf("%s%d", noteNames[note%12], octave)
}
