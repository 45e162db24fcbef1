package classfile

import "fmt"

// FieldInfo is a field_info structure as read from the class file, with
// its references still unresolved.
type FieldInfo struct {
	AccessFlags     AccessFlags
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []AttributeInfo
}

// FieldEntry is a resolved field declaration. It is never modified after
// ResolveField returns it; Name is the pool's own Utf8Info.
type FieldEntry struct {
	AccessFlags AccessFlags
	Name        *Utf8Info
	Descriptor  FieldDescriptor
	Attributes  []AttributeInfo
}

// ResolveField validates info's access flags, dereferences its name and
// parses its descriptor against cp. Attributes are passed through as-is.
func ResolveField(info FieldInfo, cp *ConstantPool) (*FieldEntry, error) {
	flags, err := ValidateFieldFlags(info.AccessFlags)
	if err != nil {
		return nil, err
	}

	name, err := cp.Utf8(info.NameIndex)
	if err != nil {
		return nil, fmt.Errorf("field name: %w", err)
	}

	descBytes, err := cp.Utf8(info.DescriptorIndex)
	if err != nil {
		return nil, fmt.Errorf("field %s descriptor: %w", name, err)
	}
	desc, err := ParseFieldDescriptorBytes(descBytes.Bytes)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", name, err)
	}

	return &FieldEntry{
		AccessFlags: flags,
		Name:        name,
		Descriptor:  desc,
		Attributes:  info.Attributes,
	}, nil
}

func (f *FieldEntry) NameString() string { return f.Name.String() }

func (f *FieldEntry) Attribute(cp *ConstantPool, name string) *AttributeInfo {
	return findAttribute(f.Attributes, cp, name)
}

func (f *FieldEntry) IsPublic() bool    { return f.AccessFlags.IsPublic() }
func (f *FieldEntry) IsPrivate() bool   { return f.AccessFlags.IsPrivate() }
func (f *FieldEntry) IsProtected() bool { return f.AccessFlags.IsProtected() }
func (f *FieldEntry) IsStatic() bool    { return f.AccessFlags.IsStatic() }
func (f *FieldEntry) IsFinal() bool     { return f.AccessFlags.IsFinal() }
func (f *FieldEntry) IsVolatile() bool  { return f.AccessFlags.IsVolatile() }
func (f *FieldEntry) IsTransient() bool { return f.AccessFlags.IsTransient() }
func (f *FieldEntry) IsSynthetic() bool { return f.AccessFlags.IsSynthetic() }
func (f *FieldEntry) IsEnum() bool      { return f.AccessFlags.IsEnum() }

// Visibility returns the Java keyword for the field's access level, or
// "package" when none is set.
func (f *FieldEntry) Visibility() string {
	switch {
	case f.IsPublic():
		return "public"
	case f.IsPrivate():
		return "private"
	case f.IsProtected():
		return "protected"
	}
	return "package"
}

func (f *FieldEntry) String() string {
	var result string
	if v := f.Visibility(); v != "package" {
		result = v + " "
	}
	if f.IsStatic() {
		result += "static "
	}
	if f.IsFinal() {
		result += "final "
	}
	if f.IsVolatile() {
		result += "volatile "
	}
	if f.IsTransient() {
		result += "transient "
	}
	return result + f.Descriptor.String() + " " + f.NameString()
}
