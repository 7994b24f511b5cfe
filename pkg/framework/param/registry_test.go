package param

import (
	"errors"
	"testing"
)

func TestRegistryAssignsIDs(t *testing.T) {
	r := NewRegistry()
	err := r.Add(
		MixParameter(0, "mix").Build(),
		FrequencyParameter(0, "cutoff", 20, 20000, 1000).Build(),
	)
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}

	if r.Count() != 2 {
		t.Fatalf("Expected 2 parameters, got %d", r.Count())
	}
	mixID, ok := r.GetID("mix")
	if !ok {
		t.Fatal("Expected mix to be registered")
	}
	cutoffID, _ := r.GetID("cutoff")
	if mixID == 0 || cutoffID == 0 || mixID == cutoffID {
		t.Errorf("Expected distinct non-zero IDs, got %d and %d", mixID, cutoffID)
	}
	if r.Get(cutoffID).Name != "cutoff" {
		t.Errorf("Expected cutoff by ID, got %s", r.Get(cutoffID).Name)
	}
	if r.GetByIndex(0).Name != "mix" {
		t.Errorf("Expected registration order to be kept, got %s first", r.GetByIndex(0).Name)
	}
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	r := NewRegistry()
	if err := r.Add(MixParameter(0, "mix").Build()); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	err := r.Add(MixParameter(0, "mix").Build())
	if !errors.Is(err, ErrDuplicateParameter) {
		t.Errorf("Expected ErrDuplicateParameter, got %v", err)
	}

	// A failed group leaves nothing behind
	err = r.Add(LevelParameter(0, "level", 50).Build(), MixParameter(0, "mix").Build())
	if !errors.Is(err, ErrDuplicateParameter) {
		t.Errorf("Expected ErrDuplicateParameter, got %v", err)
	}
	if r.GetByName("level") != nil || r.Count() != 1 {
		t.Errorf("Expected only mix registered, got %d parameters", r.Count())
	}

	err = r.Add(LevelParameter(7, "a", 50).Build(), LevelParameter(7, "b", 50).Build())
	if !errors.Is(err, ErrDuplicateParameter) {
		t.Errorf("Expected a duplicate ID to fail, got %v", err)
	}
}

func TestRegistrySkipsReservedIDs(t *testing.T) {
	r := NewRegistry()
	err := r.Add(LevelParameter(0, "auto", 50).Build(), LevelParameter(1, "fixed", 50).Build())
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if id, _ := r.GetID("fixed"); id != 1 {
		t.Errorf("Expected fixed to keep ID 1, got %d", id)
	}
	if id, _ := r.GetID("auto"); id != 2 {
		t.Errorf("Expected auto to skip the reserved ID, got %d", id)
	}
}

func TestRegistrySet(t *testing.T) {
	r := NewRegistry()
	r.Add(FrequencyParameter(0, "cutoff", 20, 20000, 1000).Build())

	var notified string
	r.Listen(func(p *Parameter) {
		notified = p.Name
	})

	before := r.Version()
	if err := r.Set("cutoff", 440); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if got := r.Value("cutoff"); got < 439.999 || got > 440.001 {
		t.Errorf("Expected 440, got %f", got)
	}
	if notified != "cutoff" {
		t.Errorf("Expected listener to see cutoff, got %q", notified)
	}
	if r.Version() <= before {
		t.Error("Expected version to increase after Set")
	}

	// Out of range values clamp
	r.Set("cutoff", 1e9)
	if got := r.Value("cutoff"); got != 20000 {
		t.Errorf("Expected clamp to 20000, got %f", got)
	}

	if err := r.Set("missing", 1); !errors.Is(err, ErrUnknownParameter) {
		t.Errorf("Expected ErrUnknownParameter, got %v", err)
	}
}

func TestRegistrySetText(t *testing.T) {
	r := NewRegistry()
	r.Add(
		FrequencyParameter(0, "cutoff", 20, 20000, 1000).Build(),
		Choice(0, "mode", []ChoiceOption{{Value: 0, Name: "lowpass"}, {Value: 1, Name: "highpass"}}).Build(),
	)

	if err := r.SetText("cutoff", "2.5 kHz"); err != nil {
		t.Fatalf("SetText error: %v", err)
	}
	if got := r.Value("cutoff"); got < 2499.999 || got > 2500.001 {
		t.Errorf("Expected 2500, got %f", got)
	}
	if err := r.SetText("mode", "highpass"); err != nil {
		t.Fatalf("SetText error: %v", err)
	}
	if got := r.Value("mode"); got != 1 {
		t.Errorf("Expected highpass, got %f", got)
	}
	if err := r.SetText("mode", "notch"); err == nil {
		t.Error("Expected an unknown option to fail")
	}
	if err := r.SetText("missing", "1"); !errors.Is(err, ErrUnknownParameter) {
		t.Errorf("Expected ErrUnknownParameter, got %v", err)
	}
}

func TestRegistryResetAll(t *testing.T) {
	r := NewRegistry()
	r.Add(LevelParameter(0, "level", 80).Build())
	r.Set("level", 10)
	r.ResetAll()
	if got := r.Value("level"); got < 79.999 || got > 80.001 {
		t.Errorf("Expected default 80, got %f", got)
	}
}

func TestIndexedName(t *testing.T) {
	if got := IndexedName("osc_level", 2); got != "osc_level_2" {
		t.Errorf("Expected osc_level_2, got %s", got)
	}
}
