package classfile

import (
	"fmt"
	"iter"
	"math"
)

// PoolEntry is one constant of a constant pool. The set of implementations
// is closed: there is exactly one type per Tag, and Tag is derived from the
// type, so an entry can never disagree with its own kind.
//
// Index fields are raw 1-based pool indices. They are not checked when an
// entry is built; ConstantPool checks them when they are dereferenced.
type PoolEntry interface {
	Tag() Tag
	poolEntry()
}

// Utf8Info holds the raw modified UTF-8 payload of a CONSTANT_Utf8. A
// single *Utf8Info is shared by the pool and everything resolved from it, so
// Bytes must not be modified after the pool is built.
type Utf8Info struct {
	Bytes []byte
}

func (c *Utf8Info) Tag() Tag { return TagUtf8 }

func (c *Utf8Info) Length() uint16 { return uint16(len(c.Bytes)) }

// String decodes the payload for display. Malformed sequences are decoded
// leniently rather than rejected.
func (c *Utf8Info) String() string { return decodeModifiedUtf8(c.Bytes) }

type IntegerInfo struct {
	Bytes uint32
}

func (c *IntegerInfo) Tag() Tag { return TagInteger }

func (c *IntegerInfo) Int32() int32 { return int32(c.Bytes) }

type FloatInfo struct {
	Bytes uint32
}

func (c *FloatInfo) Tag() Tag { return TagFloat }

func (c *FloatInfo) Float32() float32 { return math.Float32frombits(c.Bytes) }

// LongInfo keeps the two halves exactly as encoded.
type LongInfo struct {
	HighBytes uint32
	LowBytes  uint32
}

func (c *LongInfo) Tag() Tag { return TagLong }

func (c *LongInfo) Int64() int64 { return int64(uint64(c.HighBytes)<<32 | uint64(c.LowBytes)) }

// DoubleInfo keeps the two halves exactly as encoded.
type DoubleInfo struct {
	HighBytes uint32
	LowBytes  uint32
}

func (c *DoubleInfo) Tag() Tag { return TagDouble }

func (c *DoubleInfo) Float64() float64 {
	return math.Float64frombits(uint64(c.HighBytes)<<32 | uint64(c.LowBytes))
}

type ClassInfo struct {
	NameIndex uint16
}

func (c *ClassInfo) Tag() Tag { return TagClass }

type StringInfo struct {
	StringIndex uint16
}

func (c *StringInfo) Tag() Tag { return TagString }

type FieldrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *FieldrefInfo) Tag() Tag { return TagFieldref }

type MethodrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *MethodrefInfo) Tag() Tag { return TagMethodref }

type InterfaceMethodrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *InterfaceMethodrefInfo) Tag() Tag { return TagInterfaceMethodref }

type NameAndTypeInfo struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (c *NameAndTypeInfo) Tag() Tag { return TagNameAndType }

type MethodHandleInfo struct {
	ReferenceKind  MethodHandleKind
	ReferenceIndex uint16
}

func (c *MethodHandleInfo) Tag() Tag { return TagMethodHandle }

type MethodTypeInfo struct {
	DescriptorIndex uint16
}

func (c *MethodTypeInfo) Tag() Tag { return TagMethodType }

type DynamicInfo struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (c *DynamicInfo) Tag() Tag { return TagDynamic }

type InvokeDynamicInfo struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (c *InvokeDynamicInfo) Tag() Tag { return TagInvokeDynamic }

type ModuleInfo struct {
	NameIndex uint16
}

func (c *ModuleInfo) Tag() Tag { return TagModule }

type PackageInfo struct {
	NameIndex uint16
}

func (c *PackageInfo) Tag() Tag { return TagPackage }

func (*Utf8Info) poolEntry()               {}
func (*IntegerInfo) poolEntry()            {}
func (*FloatInfo) poolEntry()              {}
func (*LongInfo) poolEntry()               {}
func (*DoubleInfo) poolEntry()             {}
func (*ClassInfo) poolEntry()              {}
func (*StringInfo) poolEntry()             {}
func (*FieldrefInfo) poolEntry()           {}
func (*MethodrefInfo) poolEntry()          {}
func (*InterfaceMethodrefInfo) poolEntry() {}
func (*NameAndTypeInfo) poolEntry()        {}
func (*MethodHandleInfo) poolEntry()       {}
func (*MethodTypeInfo) poolEntry()         {}
func (*DynamicInfo) poolEntry()            {}
func (*InvokeDynamicInfo) poolEntry()      {}
func (*ModuleInfo) poolEntry()             {}
func (*PackageInfo) poolEntry()            {}

type slotKind uint8

const (
	slotUnused slotKind = iota
	slotValue
	slotContinuation
)

type slot struct {
	kind  slotKind
	entry PoolEntry
}

// ConstantPool is the 1-indexed constant table of one class. Slot 0 is never
// addressable and the slot after every long or double is an explicit
// continuation slot.
type ConstantPool struct {
	slots []slot
}

// NewConstantPool builds a pool whose entries are numbered from 1 in the
// order given, skipping an index after each long and double.
func NewConstantPool(entries ...PoolEntry) (*ConstantPool, error) {
	cp := &ConstantPool{slots: make([]slot, 1, min(len(entries), math.MaxUint16)+1)}
	for i, e := range entries {
		if _, err := cp.Append(e); err != nil {
			return nil, fmt.Errorf("constant pool entry %d: %w", i, err)
		}
	}
	return cp, nil
}

// Append adds e at the next free index and returns that index. Indices are
// u2 values and constant_pool_count is too, so the highest usable index is
// 65534.
func (cp *ConstantPool) Append(e PoolEntry) (uint16, error) {
	if e == nil {
		return 0, ErrNilPoolEntry
	}
	if len(cp.slots) == 0 {
		cp.slots = append(cp.slots, slot{kind: slotUnused})
	}
	width := e.Tag().Width()
	if len(cp.slots)+width > math.MaxUint16 {
		return 0, fmt.Errorf("%w: no room for a %s at index %d", ErrConstantPoolFull, e.Tag(), len(cp.slots))
	}
	index := uint16(len(cp.slots))
	cp.slots = append(cp.slots, slot{kind: slotValue, entry: e})
	if width == 2 {
		cp.slots = append(cp.slots, slot{kind: slotContinuation})
	}
	return index, nil
}

// Count is the constant_pool_count the pool would be written with: one more
// than the highest index.
func (cp *ConstantPool) Count() uint16 {
	if len(cp.slots) == 0 {
		return 1
	}
	return uint16(len(cp.slots))
}

// Entry returns the constant at index.
func (cp *ConstantPool) Entry(index uint16) (PoolEntry, error) {
	if index == 0 {
		return nil, &IndexError{Index: index, Count: cp.Count(), Reason: "index 0 is not used"}
	}
	if int(index) >= len(cp.slots) {
		return nil, &IndexError{Index: index, Count: cp.Count(), Reason: "out of range"}
	}
	s := cp.slots[index]
	if s.kind == slotContinuation {
		prev := cp.slots[index-1].entry
		return nil, &IndexError{
			Index:  index,
			Count:  cp.Count(),
			Reason: fmt.Sprintf("second slot of the %s at index %d", prev.Tag(), index-1),
		}
	}
	return s.entry, nil
}

// Lookup returns the constant at index if it is of kind tag.
func (cp *ConstantPool) Lookup(index uint16, tag Tag) (PoolEntry, error) {
	e, err := cp.Entry(index)
	if err != nil {
		return nil, err
	}
	if e.Tag() != tag {
		return nil, &TagMismatchError{Index: index, Expected: tag, Actual: e.Tag()}
	}
	return e, nil
}

func lookup[T PoolEntry](cp *ConstantPool, index uint16, tag Tag) (T, error) {
	var zero T
	e, err := cp.Lookup(index, tag)
	if err != nil {
		return zero, err
	}
	return e.(T), nil
}

// All yields every addressable constant with its index, in index order.
func (cp *ConstantPool) All() iter.Seq2[uint16, PoolEntry] {
	return func(yield func(uint16, PoolEntry) bool) {
		for i, s := range cp.slots {
			if s.kind != slotValue {
				continue
			}
			if !yield(uint16(i), s.entry) {
				return
			}
		}
	}
}

func (cp *ConstantPool) Utf8(index uint16) (*Utf8Info, error) {
	return lookup[*Utf8Info](cp, index, TagUtf8)
}

func (cp *ConstantPool) Integer(index uint16) (*IntegerInfo, error) {
	return lookup[*IntegerInfo](cp, index, TagInteger)
}

func (cp *ConstantPool) Float(index uint16) (*FloatInfo, error) {
	return lookup[*FloatInfo](cp, index, TagFloat)
}

func (cp *ConstantPool) Long(index uint16) (*LongInfo, error) {
	return lookup[*LongInfo](cp, index, TagLong)
}

func (cp *ConstantPool) Double(index uint16) (*DoubleInfo, error) {
	return lookup[*DoubleInfo](cp, index, TagDouble)
}

func (cp *ConstantPool) Class(index uint16) (*ClassInfo, error) {
	return lookup[*ClassInfo](cp, index, TagClass)
}

func (cp *ConstantPool) StringEntry(index uint16) (*StringInfo, error) {
	return lookup[*StringInfo](cp, index, TagString)
}

func (cp *ConstantPool) NameAndType(index uint16) (*NameAndTypeInfo, error) {
	return lookup[*NameAndTypeInfo](cp, index, TagNameAndType)
}

func (cp *ConstantPool) MethodHandle(index uint16) (*MethodHandleInfo, error) {
	return lookup[*MethodHandleInfo](cp, index, TagMethodHandle)
}

func (cp *ConstantPool) MethodType(index uint16) (*MethodTypeInfo, error) {
	return lookup[*MethodTypeInfo](cp, index, TagMethodType)
}

func (cp *ConstantPool) Dynamic(index uint16) (*DynamicInfo, error) {
	return lookup[*DynamicInfo](cp, index, TagDynamic)
}

func (cp *ConstantPool) InvokeDynamic(index uint16) (*InvokeDynamicInfo, error) {
	return lookup[*InvokeDynamicInfo](cp, index, TagInvokeDynamic)
}

func (cp *ConstantPool) Module(index uint16) (*ModuleInfo, error) {
	return lookup[*ModuleInfo](cp, index, TagModule)
}

func (cp *ConstantPool) Package(index uint16) (*PackageInfo, error) {
	return lookup[*PackageInfo](cp, index, TagPackage)
}

// ClassName resolves a CONSTANT_Class to its name.
func (cp *ConstantPool) ClassName(index uint16) (*Utf8Info, error) {
	c, err := cp.Class(index)
	if err != nil {
		return nil, err
	}
	return cp.Utf8(c.NameIndex)
}

// StringValue resolves a CONSTANT_String to its payload.
func (cp *ConstantPool) StringValue(index uint16) (*Utf8Info, error) {
	s, err := cp.StringEntry(index)
	if err != nil {
		return nil, err
	}
	return cp.Utf8(s.StringIndex)
}

// NameAndTypeOf resolves both halves of a CONSTANT_NameAndType.
func (cp *ConstantPool) NameAndTypeOf(index uint16) (name, descriptor *Utf8Info, err error) {
	nt, err := cp.NameAndType(index)
	if err != nil {
		return nil, nil, err
	}
	if name, err = cp.Utf8(nt.NameIndex); err != nil {
		return nil, nil, err
	}
	if descriptor, err = cp.Utf8(nt.DescriptorIndex); err != nil {
		return nil, nil, err
	}
	return name, descriptor, nil
}

// MemberRef is a fully dereferenced Fieldref, Methodref or
// InterfaceMethodref.
type MemberRef struct {
	Kind       Tag
	Class      *Utf8Info
	Name       *Utf8Info
	Descriptor *Utf8Info
}

func (cp *ConstantPool) Fieldref(index uint16) (MemberRef, error) {
	return cp.memberRef(index, TagFieldref)
}

func (cp *ConstantPool) Methodref(index uint16) (MemberRef, error) {
	return cp.memberRef(index, TagMethodref)
}

func (cp *ConstantPool) InterfaceMethodref(index uint16) (MemberRef, error) {
	return cp.memberRef(index, TagInterfaceMethodref)
}

func (cp *ConstantPool) memberRef(index uint16, tag Tag) (MemberRef, error) {
	e, err := cp.Lookup(index, tag)
	if err != nil {
		return MemberRef{}, err
	}
	var classIndex, ntIndex uint16
	switch ref := e.(type) {
	case *FieldrefInfo:
		classIndex, ntIndex = ref.ClassIndex, ref.NameAndTypeIndex
	case *MethodrefInfo:
		classIndex, ntIndex = ref.ClassIndex, ref.NameAndTypeIndex
	case *InterfaceMethodrefInfo:
		classIndex, ntIndex = ref.ClassIndex, ref.NameAndTypeIndex
	}
	class, err := cp.ClassName(classIndex)
	if err != nil {
		return MemberRef{}, err
	}
	name, desc, err := cp.NameAndTypeOf(ntIndex)
	if err != nil {
		return MemberRef{}, err
	}
	return MemberRef{Kind: tag, Class: class, Name: name, Descriptor: desc}, nil
}

// Validate checks every cross reference in the pool at once. Lookups on an
// unvalidated pool still check each reference as it is followed.
func (cp *ConstantPool) Validate() error {
	for index, e := range cp.All() {
		if err := cp.validateEntry(e); err != nil {
			return fmt.Errorf("constant pool entry %d (%s): %w", index, e.Tag(), err)
		}
	}
	return nil
}

func (cp *ConstantPool) validateEntry(e PoolEntry) error {
	switch c := e.(type) {
	case *Utf8Info, *IntegerInfo, *FloatInfo, *LongInfo, *DoubleInfo:
		return nil
	case *ClassInfo:
		return cp.expect(c.NameIndex, TagUtf8)
	case *StringInfo:
		return cp.expect(c.StringIndex, TagUtf8)
	case *ModuleInfo:
		return cp.expect(c.NameIndex, TagUtf8)
	case *PackageInfo:
		return cp.expect(c.NameIndex, TagUtf8)
	case *FieldrefInfo:
		return cp.expectRef(c.ClassIndex, c.NameAndTypeIndex)
	case *MethodrefInfo:
		return cp.expectRef(c.ClassIndex, c.NameAndTypeIndex)
	case *InterfaceMethodrefInfo:
		return cp.expectRef(c.ClassIndex, c.NameAndTypeIndex)
	case *NameAndTypeInfo:
		if err := cp.expect(c.NameIndex, TagUtf8); err != nil {
			return err
		}
		return cp.expect(c.DescriptorIndex, TagUtf8)
	case *MethodTypeInfo:
		desc, err := cp.Utf8(c.DescriptorIndex)
		if err != nil {
			return err
		}
		_, err = ParseMethodDescriptorBytes(desc.Bytes)
		return err
	case *DynamicInfo:
		return cp.expect(c.NameAndTypeIndex, TagNameAndType)
	case *InvokeDynamicInfo:
		return cp.expect(c.NameAndTypeIndex, TagNameAndType)
	case *MethodHandleInfo:
		return cp.validateMethodHandle(c)
	}
	return fmt.Errorf("unexpected entry type %T", e)
}

func (cp *ConstantPool) expect(index uint16, tag Tag) error {
	_, err := cp.Lookup(index, tag)
	return err
}

func (cp *ConstantPool) expectRef(classIndex, ntIndex uint16) error {
	if err := cp.expect(classIndex, TagClass); err != nil {
		return err
	}
	return cp.expect(ntIndex, TagNameAndType)
}

// validateMethodHandle checks the reference kind against the kind of the
// referenced member (JVMS §4.4.8). Interface method handles for kinds 6 and
// 7 are accepted regardless of class file version.
func (cp *ConstantPool) validateMethodHandle(c *MethodHandleInfo) error {
	if !c.ReferenceKind.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidReferenceKind, c.ReferenceKind)
	}
	switch c.ReferenceKind {
	case RefGetField, RefGetStatic, RefPutField, RefPutStatic:
		return cp.expect(c.ReferenceIndex, TagFieldref)
	case RefInvokeVirtual, RefNewInvokeSpecial:
		return cp.expect(c.ReferenceIndex, TagMethodref)
	case RefInvokeInterface:
		return cp.expect(c.ReferenceIndex, TagInterfaceMethodref)
	}
	e, err := cp.Entry(c.ReferenceIndex)
	if err != nil {
		return err
	}
	if t := e.Tag(); t != TagMethodref && t != TagInterfaceMethodref {
		return &TagMismatchError{Index: c.ReferenceIndex, Expected: TagMethodref, Actual: t}
	}
	return nil
}
