package modmatrix

// ConnectionSpec is the saved form of a Connection, using names so patches
// survive changes to the numeric IDs.
type ConnectionSpec struct {
	Source      string  `json:"source"`
	Destination string  `json:"destination"`
	Depth       float64 `json:"depth"`
}

// Specs returns the current routing in saved form.
func (m *Matrix) Specs() []ConnectionSpec {
	conns := m.Table().Connections()
	specs := make([]ConnectionSpec, len(conns))
	for i, c := range conns {
		specs[i] = ConnectionSpec{
			Source:      c.Source.String(),
			Destination: c.Dest.String(),
			Depth:       c.Depth,
		}
	}
	return specs
}

// ParseSpecs resolves names into connections. It fails on the first
// unknown source or destination.
func ParseSpecs(specs []ConnectionSpec) ([]Connection, error) {
	conns := make([]Connection, 0, len(specs))
	for _, s := range specs {
		src, err := ParseSource(s.Source)
		if err != nil {
			return nil, err
		}
		dest, err := ParseDestination(s.Destination)
		if err != nil {
			return nil, err
		}
		conns = append(conns, Connection{Source: src, Dest: dest, Depth: s.Depth})
	}
	return conns, nil
}

// LoadSpecs parses specs and publishes them as the routing.
func (m *Matrix) LoadSpecs(specs []ConnectionSpec) error {
	conns, err := ParseSpecs(specs)
	if err != nil {
		return err
	}
	return m.Set(conns)
}
