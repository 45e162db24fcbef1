package classfile

// AttributeInfo is an attribute kept as the raw bytes that followed its
// header. Bodies are interpreted by whoever needs them.
type AttributeInfo struct {
	NameIndex uint16
	Info      []byte
}

func (a *AttributeInfo) Name(cp *ConstantPool) (*Utf8Info, error) {
	return cp.Utf8(a.NameIndex)
}

// findAttribute returns the first attribute called name. Attributes whose
// name index does not resolve are skipped, as the JVM ignores attributes it
// cannot recognise.
func findAttribute(attrs []AttributeInfo, cp *ConstantPool, name string) *AttributeInfo {
	for i := range attrs {
		n, err := attrs[i].Name(cp)
		if err != nil {
			continue
		}
		if string(n.Bytes) == name {
			return &attrs[i]
		}
	}
	return nil
}
