package classfile

// MethodInfo is a method_info structure. Methods are carried unresolved;
// only their names and descriptors are offered for tooling.
type MethodInfo struct {
	AccessFlags     AccessFlags
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []AttributeInfo
}

func (m *MethodInfo) Name(cp *ConstantPool) (*Utf8Info, error) {
	return cp.Utf8(m.NameIndex)
}

func (m *MethodInfo) Descriptor(cp *ConstantPool) (MethodDescriptor, error) {
	desc, err := cp.Utf8(m.DescriptorIndex)
	if err != nil {
		return MethodDescriptor{}, err
	}
	return ParseMethodDescriptorBytes(desc.Bytes)
}

func (m *MethodInfo) IsStatic() bool   { return m.AccessFlags.IsStatic() }
func (m *MethodInfo) IsAbstract() bool { return m.AccessFlags.IsAbstract() }
func (m *MethodInfo) IsNative() bool   { return m.AccessFlags.IsNative() }
