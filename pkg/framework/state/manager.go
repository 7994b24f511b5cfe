// Package state saves and loads patches: parameter values plus named
// sections owned by other components, encoded as JSON.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/justyntemme/wtsynth/pkg/framework/debug"
	"github.com/justyntemme/wtsynth/pkg/framework/param"
)

// Format identifies patch files written by Manager.
const Format = "wtsynth-patch"

var ErrInvalidFormat = errors.New("state: invalid patch format")

// Section saves and restores one named part of a patch.
type Section struct {
	Save func() (any, error)
	Load func(raw json.RawMessage) error
}

type document struct {
	Format   string                     `json:"format"`
	Version  uint32                     `json:"version"`
	Params   map[string]float64         `json:"params"`
	Sections map[string]json.RawMessage `json:"sections,omitempty"`
}

// Manager handles patch saving and loading
type Manager struct {
	version  uint32
	registry *param.Registry
	sections map[string]Section
	order    []string
	logger   *debug.Logger
}

// NewManager creates a new state manager
func NewManager(registry *param.Registry) *Manager {
	return &Manager{
		version:  1,
		registry: registry,
		sections: make(map[string]Section),
		logger:   debug.Default(),
	}
}

// SetLogger replaces the logger used for load warnings
func (m *Manager) SetLogger(logger *debug.Logger) {
	m.logger = logger
}

// AddSection registers a named section. Registering a name twice replaces
// the earlier section.
func (m *Manager) AddSection(name string, s Section) {
	if _, exists := m.sections[name]; !exists {
		m.order = append(m.order, name)
	}
	m.sections[name] = s
}

// Save writes every parameter by name and every section to w.
func (m *Manager) Save(w io.Writer) error {
	doc := document{
		Format:   Format,
		Version:  m.version,
		Params:   make(map[string]float64, m.registry.Count()),
		Sections: make(map[string]json.RawMessage, len(m.sections)),
	}

	for _, p := range m.registry.All() {
		if p.ReadOnly {
			continue
		}
		doc.Params[p.Name] = p.GetPlainValue()
	}

	for _, name := range m.order {
		s := m.sections[name]
		if s.Save == nil {
			continue
		}
		v, err := s.Save()
		if err != nil {
			return fmt.Errorf("saving section %s: %w", name, err)
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding section %s: %w", name, err)
		}
		doc.Sections[name] = raw
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Load reads a patch from r. Unknown parameters and sections are skipped,
// out-of-range values are clamped with a warning, and a failing section is
// reported after every other section has loaded.
func (m *Manager) Load(r io.Reader) error {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if doc.Format != Format {
		return fmt.Errorf("%w: format %q", ErrInvalidFormat, doc.Format)
	}
	if doc.Version > m.version {
		return fmt.Errorf("patch version %d is newer than supported version %d", doc.Version, m.version)
	}

	for name, value := range doc.Params {
		p := m.registry.GetByName(name)
		if p == nil {
			// Ignore unknown parameters for forward compatibility
			m.logger.Debug("patch: skipping unknown parameter %s", name)
			continue
		}
		if math.IsNaN(value) {
			m.logger.Warn("patch: %s is NaN, using default", name)
			p.Reset()
			continue
		}
		if value < p.Min || value > p.Max {
			m.logger.Warn("patch: %s=%g outside [%g, %g], clamping", name, value, p.Min, p.Max)
		}
		if err := m.registry.Set(name, value); err != nil {
			return err
		}
	}

	var errs []error
	for _, name := range m.order {
		raw, ok := doc.Sections[name]
		if !ok {
			continue
		}
		if s := m.sections[name]; s.Load != nil {
			if err := s.Load(raw); err != nil {
				errs = append(errs, fmt.Errorf("loading section %s: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}
