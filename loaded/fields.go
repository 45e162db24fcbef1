package loaded

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/dhamidi/classpool/classfile"
)

var (
	ErrDuplicateStatic = errors.New("static field storage already exists")
	ErrNotStatic       = errors.New("no static field with that name")
)

// Value is whatever the runtime stores in a field: int32, int64, float32,
// float64, string or a heap reference owned by the runtime.
type Value any

// StaticCell is the storage of one static field. A class has exactly one
// cell per static field name for as long as it is loaded; running code reads
// and writes it through Load and Store.
type StaticCell struct {
	mu    sync.RWMutex
	value Value
}

func NewStaticCell(initial Value) *StaticCell {
	return &StaticCell{value: initial}
}

func (c *StaticCell) Load() Value {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

func (c *StaticCell) Store(v Value) {
	c.mu.Lock()
	c.value = v
	c.mu.Unlock()
}

// Fields holds a class's own field declarations in declaration order and
// the storage of its static fields, keyed by field name.
type Fields struct {
	entries []*classfile.FieldEntry

	mu      sync.RWMutex
	statics map[string]*StaticCell
}

// NewFields keeps entries in the order given. Static storage starts empty;
// it is filled by class initialization through InsertStatic.
func NewFields(entries []*classfile.FieldEntry) *Fields {
	return &Fields{
		entries: slices.Clone(entries),
		statics: make(map[string]*StaticCell),
	}
}

// ResolveFields resolves every field_info against cp. The first failure
// aborts the whole set.
func ResolveFields(infos []classfile.FieldInfo, cp *classfile.ConstantPool) (*Fields, error) {
	entries := make([]*classfile.FieldEntry, 0, len(infos))
	for i, info := range infos {
		entry, err := classfile.ResolveField(info, cp)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		entries = append(entries, entry)
	}
	return NewFields(entries), nil
}

// Entries returns the declared fields in declaration order.
func (f *Fields) Entries() []*classfile.FieldEntry {
	return slices.Clone(f.entries)
}

func (f *Fields) Len() int { return len(f.entries) }

// Lookup returns the first declared field called name.
func (f *Fields) Lookup(name string) (*classfile.FieldEntry, bool) {
	for _, e := range f.entries {
		if string(e.Name.Bytes) == name {
			return e, true
		}
	}
	return nil, false
}

// StaticEntries returns the static fields in declaration order.
func (f *Fields) StaticEntries() []*classfile.FieldEntry {
	var statics []*classfile.FieldEntry
	for _, e := range f.entries {
		if e.IsStatic() {
			statics = append(statics, e)
		}
	}
	return statics
}

// InsertStatic installs the storage for the static field name. Each name
// gets one cell for the lifetime of the class, so a second insert fails.
func (f *Fields) InsertStatic(name string, cell *StaticCell) error {
	declared := false
	for _, e := range f.entries {
		if e.IsStatic() && string(e.Name.Bytes) == name {
			declared = true
			break
		}
	}
	if !declared {
		return fmt.Errorf("%w: %s", ErrNotStatic, name)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.statics[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateStatic, name)
	}
	f.statics[name] = cell
	return nil
}

// Static returns the storage of the static field name, or false if the class
// has no initialized static field of that name.
func (f *Fields) Static(name string) (*StaticCell, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	cell, ok := f.statics[name]
	return cell, ok
}
