package param

// Builder assembles a Parameter.
type Builder struct {
	p      *Parameter
	def    float64
	hasDef bool
}

// New starts a continuous parameter over [0, 1]. An ID of 0 is assigned
// by the Registry.
func New(id uint32, name string) *Builder {
	return &Builder{p: &Parameter{ID: id, Name: name, Max: 1}}
}

// Range sets the plain range.
func (b *Builder) Range(min, max float64) *Builder {
	b.p.Min, b.p.Max = min, max
	return b
}

// Default sets the default in plain units. It may be called before or after
// Range.
func (b *Builder) Default(plain float64) *Builder {
	b.def, b.hasDef = plain, true
	return b
}

// Unit sets the unit label.
func (b *Builder) Unit(unit string) *Builder {
	b.p.Unit = unit
	return b
}

// Steps makes the parameter discrete with count positions.
func (b *Builder) Steps(count int32) *Builder {
	b.p.StepCount = count
	if b.p.Kind == Continuous {
		b.p.Kind = Discrete
	}
	return b
}

// Toggle makes an on/off switch.
func (b *Builder) Toggle() *Builder {
	b.p.Min, b.p.Max = 0, 1
	b.p.StepCount = 1
	b.p.Kind = Toggle
	return b
}

// ReadOnly excludes the parameter from patches.
func (b *Builder) ReadOnly() *Builder {
	b.p.ReadOnly = true
	return b
}

// Formatter sets display formatting and parsing in plain units. Either may
// be nil.
func (b *Builder) Formatter(format func(float64) string, parse func(string) (float64, error)) *Builder {
	b.p.format = format
	b.p.parse = parse
	return b
}

// Build returns the parameter set to its default.
func (b *Builder) Build() *Parameter {
	if b.hasDef {
		b.p.DefaultValue = b.p.Normalize(b.def)
	}
	b.p.Reset()
	return b.p
}
