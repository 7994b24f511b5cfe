package param

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	ErrUnknownParameter   = errors.New("param: unknown parameter")
	ErrDuplicateParameter = errors.New("param: duplicate parameter")
)

// Registry holds the engine parameters in registration order and indexes
// them by ID and name. Lookups are safe from any goroutine.
type Registry struct {
	mu     sync.RWMutex
	byID   map[uint32]*Parameter
	byName map[string]*Parameter
	order  []*Parameter
	lastID uint32

	listeners []func(*Parameter)
	version   atomic.Uint64
}

func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[uint32]*Parameter),
		byName: make(map[string]*Parameter),
	}
}

// IndexedName names the i-th instance of a repeated parameter, e.g.
// IndexedName("osc_level", 1) is "osc_level_1".
func IndexedName(base string, i int) string {
	return fmt.Sprintf("%s_%d", base, i)
}

// Add registers params as a group. A parameter with ID 0 gets the next free
// ID. If any name or explicit ID is already taken nothing is registered.
func (r *Registry) Add(params ...*Parameter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make(map[string]bool, len(params))
	ids := make(map[uint32]bool, len(params))
	for _, p := range params {
		if _, taken := r.byName[p.Name]; taken || names[p.Name] {
			return fmt.Errorf("%w: name %s", ErrDuplicateParameter, p.Name)
		}
		names[p.Name] = true
		if p.ID == 0 {
			continue
		}
		if _, taken := r.byID[p.ID]; taken || ids[p.ID] {
			return fmt.Errorf("%w: id %d (%s)", ErrDuplicateParameter, p.ID, p.Name)
		}
		ids[p.ID] = true
	}

	for _, p := range params {
		if p.ID == 0 {
			p.ID = r.freeID(ids)
		}
		r.byID[p.ID] = p
		r.byName[p.Name] = p
		r.order = append(r.order, p)
	}
	r.version.Add(1)
	return nil
}

// freeID returns the next ID not registered and not reserved.
func (r *Registry) freeID(reserved map[uint32]bool) uint32 {
	for {
		r.lastID++
		if _, taken := r.byID[r.lastID]; !taken && !reserved[r.lastID] {
			return r.lastID
		}
	}
}

// Get returns the parameter with the given ID, or nil.
func (r *Registry) Get(id uint32) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

// GetByName returns the named parameter, or nil.
func (r *Registry) GetByName(name string) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

func (r *Registry) GetID(name string) (uint32, bool) {
	if p := r.GetByName(name); p != nil {
		return p.ID, true
	}
	return 0, false
}

// GetByIndex returns the index-th registered parameter, or nil.
func (r *Registry) GetByIndex(index int32) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || int(index) >= len(r.order) {
		return nil
	}
	return r.order[index]
}

func (r *Registry) Count() int32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int32(len(r.order))
}

// All returns a copy of the parameters in registration order.
func (r *Registry) All() []*Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Parameter(nil), r.order...)
}

// Listen registers fn to be called after every Set. Listeners run on the
// caller's goroutine.
func (r *Registry) Listen(fn func(*Parameter)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.listeners = append(r.listeners, fn)
}

// Set assigns a plain value to the named parameter, clamping it to range.
func (r *Registry) Set(name string, plain float64) error {
	p := r.GetByName(name)
	if p == nil {
		return fmt.Errorf("%w: %s", ErrUnknownParameter, name)
	}
	p.SetPlainValue(plain)
	r.version.Add(1)

	r.mu.RLock()
	listeners := r.listeners
	r.mu.RUnlock()
	for _, fn := range listeners {
		fn(p)
	}
	return nil
}

// SetText parses text with the named parameter's formatter units, e.g.
// "1.2 kHz" or "ladder", and assigns the result.
func (r *Registry) SetText(name, text string) error {
	p := r.GetByName(name)
	if p == nil {
		return fmt.Errorf("%w: %s", ErrUnknownParameter, name)
	}
	plain, err := p.Parse(text)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return r.Set(name, plain)
}

// Value returns the plain value of the named parameter, or 0 when unknown.
func (r *Registry) Value(name string) float64 {
	if p := r.GetByName(name); p != nil {
		return p.GetPlainValue()
	}
	return 0
}

// Version increases on every registration and Set. The audio thread
// compares it against the last version it saw to skip unchanged blocks.
func (r *Registry) Version() uint64 {
	return r.version.Load()
}

// ResetAll restores every parameter to its default.
func (r *Registry) ResetAll() {
	for _, p := range r.All() {
		p.Reset()
	}
	r.version.Add(1)
}
