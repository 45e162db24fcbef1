package loaded

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dhamidi/classpool/classfile"
)

var ErrDuplicateField = errors.New("duplicate field")

// Class is the loaded metadata of one class: its constant pool, its names
// and its fields. Everything but static storage is immutable once Load
// returns.
type Class struct {
	Name        *classfile.Utf8Info
	SuperName   *classfile.Utf8Info
	AccessFlags classfile.AccessFlags
	Pool        *classfile.ConstantPool
	Fields      *Fields

	initOnce sync.Once
	initErr  error
}

type loadOptions struct {
	strict bool
}

type LoadOption func(*loadOptions)

// WithStrictValidation checks every constant pool reference before
// anything is resolved, instead of only the references loading follows.
func WithStrictValidation() LoadOption {
	return func(o *loadOptions) {
		o.strict = true
	}
}

// Load resolves a parsed class file. It either returns a complete Class or
// an error; nothing is partially loaded.
func Load(cf *classfile.ClassFile, opts ...LoadOption) (*Class, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	if o.strict {
		if err := cf.ConstantPool.Validate(); err != nil {
			return nil, err
		}
	}

	name, err := cf.ClassName()
	if err != nil {
		return nil, fmt.Errorf("this_class: %w", err)
	}
	super, err := cf.SuperClassName()
	if err != nil {
		return nil, fmt.Errorf("class %s super_class: %w", name, err)
	}

	fields, err := ResolveFields(cf.Fields, cf.ConstantPool)
	if err != nil {
		return nil, fmt.Errorf("class %s: %w", name, err)
	}
	if err := checkDuplicateFields(fields); err != nil {
		return nil, fmt.Errorf("class %s: %w", name, err)
	}

	return &Class{
		Name:        name,
		SuperName:   super,
		AccessFlags: cf.AccessFlags,
		Pool:        cf.ConstantPool,
		Fields:      fields,
	}, nil
}

// checkDuplicateFields enforces JVMS §4.5: no two fields of a class share
// both name and descriptor.
func checkDuplicateFields(fields *Fields) error {
	type key struct{ name, desc string }
	seen := make(map[key]bool, fields.Len())
	for _, e := range fields.entries {
		k := key{string(e.Name.Bytes), e.Descriptor.Descriptor()}
		if seen[k] {
			return fmt.Errorf("%w: %s %s", ErrDuplicateField, k.name, k.desc)
		}
		seen[k] = true
	}
	return nil
}

func (c *Class) String() string {
	return classfile.InternalToSourceName(c.Name.String())
}
