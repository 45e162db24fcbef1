package classfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const readChunk = 4096

type reader struct {
	r   io.Reader
	err error
}

func (r *reader) readU1() uint8 {
	if r.err != nil {
		return 0
	}
	var buf [1]byte
	_, r.err = io.ReadFull(r.r, buf[:])
	return buf[0]
}

func (r *reader) readU2() uint16 {
	if r.err != nil {
		return 0
	}
	var buf [2]byte
	_, r.err = io.ReadFull(r.r, buf[:])
	return binary.BigEndian.Uint16(buf[:])
}

func (r *reader) readU4() uint32 {
	if r.err != nil {
		return 0
	}
	var buf [4]byte
	_, r.err = io.ReadFull(r.r, buf[:])
	return binary.BigEndian.Uint32(buf[:])
}

// readBytes reads n bytes. The buffer grows with the data actually read, not
// with the declared length.
func (r *reader) readBytes(n uint32) []byte {
	if r.err != nil {
		return nil
	}
	buf := bytes.NewBuffer(make([]byte, 0, min(int64(n), readChunk)))
	_, r.err = io.CopyN(buf, r.r, int64(n))
	return buf.Bytes()
}

func ParseFile(path string) (*ClassFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open class file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// ParseBytes parses a class file that is already in memory.
func ParseBytes(data []byte) (*ClassFile, error) {
	return Parse(bytes.NewReader(data))
}

// Parse reads a class file. The constant pool is decoded but not validated,
// and no field is resolved.
func Parse(rd io.Reader) (*ClassFile, error) {
	r := &reader{r: rd}

	magic := r.readU4()
	if r.err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", r.err)
	}
	if magic != Magic {
		return nil, fmt.Errorf("invalid magic number: 0x%X (expected 0xCAFEBABE)", magic)
	}

	cf := &ClassFile{
		MinorVersion: r.readU2(),
		MajorVersion: r.readU2(),
	}
	if r.err != nil {
		return nil, fmt.Errorf("failed to read version: %w", r.err)
	}

	cp, err := readConstantPool(r)
	if err != nil {
		return nil, err
	}
	cf.ConstantPool = cp

	cf.AccessFlags = AccessFlags(r.readU2())
	cf.ThisClass = r.readU2()
	cf.SuperClass = r.readU2()

	interfacesCount := r.readU2()
	if r.err != nil {
		return nil, fmt.Errorf("failed to read class info: %w", r.err)
	}

	cf.Interfaces = make([]uint16, interfacesCount)
	for i := uint16(0); i < interfacesCount; i++ {
		cf.Interfaces[i] = r.readU2()
	}
	if r.err != nil {
		return nil, fmt.Errorf("failed to read interfaces: %w", r.err)
	}

	fieldsCount := r.readU2()
	if r.err != nil {
		return nil, fmt.Errorf("failed to read fields count: %w", r.err)
	}

	cf.Fields = make([]FieldInfo, fieldsCount)
	for i := uint16(0); i < fieldsCount; i++ {
		field, err := readFieldInfo(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read field %d: %w", i, err)
		}
		cf.Fields[i] = field
	}

	methodsCount := r.readU2()
	if r.err != nil {
		return nil, fmt.Errorf("failed to read methods count: %w", r.err)
	}

	cf.Methods = make([]MethodInfo, methodsCount)
	for i := uint16(0); i < methodsCount; i++ {
		method, err := readMethodInfo(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read method %d: %w", i, err)
		}
		cf.Methods[i] = method
	}

	cf.Attributes, err = readAttributes(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read class attributes: %w", err)
	}

	return cf, nil
}

// ReadConstantPool reads constant_pool_count followed by the pool entries,
// as they appear in a class file after the version numbers.
func ReadConstantPool(rd io.Reader) (*ConstantPool, error) {
	return readConstantPool(&reader{r: rd})
}

func readConstantPool(r *reader) (*ConstantPool, error) {
	count := r.readU2()
	if r.err != nil {
		return nil, fmt.Errorf("failed to read constant pool count: %w", r.err)
	}
	if count == 0 {
		return nil, fmt.Errorf("invalid constant pool count 0")
	}

	cp := &ConstantPool{slots: make([]slot, 1, count)}
	for i := uint16(1); i < count; {
		entry, err := readConstantPoolEntry(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read constant pool entry %d: %w", i, err)
		}
		width := entry.Tag().Width()
		if int(i)+width > int(count) {
			return nil, &IndexError{Index: i + 1, Count: count, Reason: fmt.Sprintf("second slot of the %s at index %d is past the end of the pool", entry.Tag(), i)}
		}
		if _, err := cp.Append(entry); err != nil {
			return nil, fmt.Errorf("failed to add constant pool entry %d: %w", i, err)
		}
		i += uint16(width)
	}
	return cp, nil
}

func readConstantPoolEntry(r *reader) (PoolEntry, error) {
	b := r.readU1()
	if r.err != nil {
		return nil, r.err
	}
	tag, err := TagFromByte(b)
	if err != nil {
		return nil, err
	}

	var entry PoolEntry
	switch tag {
	case TagUtf8:
		length := r.readU2()
		entry = &Utf8Info{Bytes: r.readBytes(uint32(length))}
	case TagInteger:
		entry = &IntegerInfo{Bytes: r.readU4()}
	case TagFloat:
		entry = &FloatInfo{Bytes: r.readU4()}
	case TagLong:
		high := r.readU4()
		entry = &LongInfo{HighBytes: high, LowBytes: r.readU4()}
	case TagDouble:
		high := r.readU4()
		entry = &DoubleInfo{HighBytes: high, LowBytes: r.readU4()}
	case TagClass:
		entry = &ClassInfo{NameIndex: r.readU2()}
	case TagString:
		entry = &StringInfo{StringIndex: r.readU2()}
	case TagFieldref:
		classIndex := r.readU2()
		entry = &FieldrefInfo{ClassIndex: classIndex, NameAndTypeIndex: r.readU2()}
	case TagMethodref:
		classIndex := r.readU2()
		entry = &MethodrefInfo{ClassIndex: classIndex, NameAndTypeIndex: r.readU2()}
	case TagInterfaceMethodref:
		classIndex := r.readU2()
		entry = &InterfaceMethodrefInfo{ClassIndex: classIndex, NameAndTypeIndex: r.readU2()}
	case TagNameAndType:
		nameIndex := r.readU2()
		entry = &NameAndTypeInfo{NameIndex: nameIndex, DescriptorIndex: r.readU2()}
	case TagMethodHandle:
		kind := MethodHandleKind(r.readU1())
		entry = &MethodHandleInfo{ReferenceKind: kind, ReferenceIndex: r.readU2()}
	case TagMethodType:
		entry = &MethodTypeInfo{DescriptorIndex: r.readU2()}
	case TagDynamic:
		bsm := r.readU2()
		entry = &DynamicInfo{BootstrapMethodAttrIndex: bsm, NameAndTypeIndex: r.readU2()}
	case TagInvokeDynamic:
		bsm := r.readU2()
		entry = &InvokeDynamicInfo{BootstrapMethodAttrIndex: bsm, NameAndTypeIndex: r.readU2()}
	case TagModule:
		entry = &ModuleInfo{NameIndex: r.readU2()}
	case TagPackage:
		entry = &PackageInfo{NameIndex: r.readU2()}
	}
	if r.err != nil {
		return nil, r.err
	}
	return entry, nil
}

func readFieldInfo(r *reader) (FieldInfo, error) {
	field := FieldInfo{
		AccessFlags:     AccessFlags(r.readU2()),
		NameIndex:       r.readU2(),
		DescriptorIndex: r.readU2(),
	}
	attrs, err := readAttributes(r)
	if err != nil {
		return FieldInfo{}, err
	}
	field.Attributes = attrs
	return field, nil
}

func readMethodInfo(r *reader) (MethodInfo, error) {
	method := MethodInfo{
		AccessFlags:     AccessFlags(r.readU2()),
		NameIndex:       r.readU2(),
		DescriptorIndex: r.readU2(),
	}
	attrs, err := readAttributes(r)
	if err != nil {
		return MethodInfo{}, err
	}
	method.Attributes = attrs
	return method, nil
}

func readAttributes(r *reader) ([]AttributeInfo, error) {
	count := r.readU2()
	if r.err != nil {
		return nil, r.err
	}
	attrs := make([]AttributeInfo, count)
	for i := range attrs {
		nameIndex := r.readU2()
		length := r.readU4()
		info := r.readBytes(length)
		if r.err != nil {
			return nil, r.err
		}
		attrs[i] = AttributeInfo{NameIndex: nameIndex, Info: info}
	}
	return attrs, nil
}
