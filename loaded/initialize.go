package loaded

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dhamidi/classpool/classfile"
)

var ErrBadConstantValue = errors.New("bad ConstantValue attribute")

// Initialize creates the storage of every static field, seeded from its
// ConstantValue attribute or with the type's default value. It runs once per
// class; later calls return the first result.
func (c *Class) Initialize() error {
	c.initOnce.Do(func() {
		c.initErr = c.initializeStatics()
	})
	return c.initErr
}

func (c *Class) initializeStatics() error {
	statics := c.Fields.StaticEntries()
	cells := make(map[string]*StaticCell, len(statics))
	for _, f := range statics {
		name := string(f.Name.Bytes)
		if _, ok := cells[name]; ok {
			return fmt.Errorf("class %s: %w: %s", c.Name, ErrDuplicateStatic, name)
		}
		value, err := c.initialValue(f)
		if err != nil {
			return fmt.Errorf("class %s field %s: %w", c.Name, f.Name, err)
		}
		cells[name] = NewStaticCell(value)
	}

	for _, f := range statics {
		name := string(f.Name.Bytes)
		if err := c.Fields.InsertStatic(name, cells[name]); err != nil {
			return fmt.Errorf("class %s: %w", c.Name, err)
		}
	}
	return nil
}

func (c *Class) initialValue(f *classfile.FieldEntry) (Value, error) {
	attr := f.Attribute(c.Pool, "ConstantValue")
	if attr == nil {
		return DefaultValue(f.Descriptor), nil
	}
	if len(attr.Info) != 2 {
		return nil, fmt.Errorf("%w: length %d", ErrBadConstantValue, len(attr.Info))
	}
	return c.loadConstant(binary.BigEndian.Uint16(attr.Info), f.Descriptor)
}

// loadConstant loads the constant at index as a value of type desc
// (JVMS §4.7.2).
func (c *Class) loadConstant(index uint16, desc classfile.FieldDescriptor) (Value, error) {
	e, err := c.Pool.Entry(index)
	if err != nil {
		return nil, err
	}
	if !e.Tag().Loadable() {
		return nil, fmt.Errorf("%w: %s at index %d is not loadable", ErrBadConstantValue, e.Tag(), index)
	}

	want, ok := constantTag(desc)
	if !ok {
		return nil, fmt.Errorf("%w: field of type %s cannot have a constant value", ErrBadConstantValue, desc)
	}
	if e.Tag() != want {
		return nil, &classfile.TagMismatchError{Index: index, Expected: want, Actual: e.Tag()}
	}

	switch v := e.(type) {
	case *classfile.IntegerInfo:
		return v.Int32(), nil
	case *classfile.LongInfo:
		return v.Int64(), nil
	case *classfile.FloatInfo:
		return v.Float32(), nil
	case *classfile.DoubleInfo:
		return v.Float64(), nil
	case *classfile.StringInfo:
		s, err := c.Pool.Utf8(v.StringIndex)
		if err != nil {
			return nil, err
		}
		return s.String(), nil
	}
	return nil, fmt.Errorf("%w: unexpected %s", ErrBadConstantValue, e.Tag())
}

func constantTag(desc classfile.FieldDescriptor) (classfile.Tag, bool) {
	if desc.IsArray() {
		return 0, false
	}
	switch desc.Base {
	case classfile.BaseInt, classfile.BaseShort, classfile.BaseChar, classfile.BaseByte, classfile.BaseBoolean:
		return classfile.TagInteger, true
	case classfile.BaseLong:
		return classfile.TagLong, true
	case classfile.BaseFloat:
		return classfile.TagFloat, true
	case classfile.BaseDouble:
		return classfile.TagDouble, true
	case classfile.BaseReference:
		if desc.ClassName == "java/lang/String" {
			return classfile.TagString, true
		}
	}
	return 0, false
}

// DefaultValue is the value a field of type desc holds before it is
// assigned. References default to nil.
func DefaultValue(desc classfile.FieldDescriptor) Value {
	if desc.IsArray() {
		return nil
	}
	switch desc.Base {
	case classfile.BaseInt, classfile.BaseShort, classfile.BaseChar, classfile.BaseByte, classfile.BaseBoolean:
		return int32(0)
	case classfile.BaseLong:
		return int64(0)
	case classfile.BaseFloat:
		return float32(0)
	case classfile.BaseDouble:
		return float64(0)
	}
	return nil
}
