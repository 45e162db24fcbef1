package classfile

import (
	"strconv"
	"strings"
)

// BaseType is the first character of a non-array field descriptor.
type BaseType byte

const (
	BaseByte      BaseType = 'B'
	BaseChar      BaseType = 'C'
	BaseDouble    BaseType = 'D'
	BaseFloat     BaseType = 'F'
	BaseInt       BaseType = 'I'
	BaseLong      BaseType = 'J'
	BaseShort     BaseType = 'S'
	BaseBoolean   BaseType = 'Z'
	BaseReference BaseType = 'L'
)

var baseTypeNames = map[BaseType]string{
	BaseByte:    "byte",
	BaseChar:    "char",
	BaseDouble:  "double",
	BaseFloat:   "float",
	BaseInt:     "int",
	BaseLong:    "long",
	BaseShort:   "short",
	BaseBoolean: "boolean",
}

// maxArrayDimensions is the limit JVMS §4.3.2 puts on array descriptors.
const maxArrayDimensions = 255

// FieldDescriptor is a parsed field type. For class types Base is
// BaseReference and ClassName holds the internal (slash separated) name.
type FieldDescriptor struct {
	ArrayDepth int
	Base       BaseType
	ClassName  string
}

func (fd FieldDescriptor) String() string {
	var sb strings.Builder
	if fd.Base == BaseReference {
		sb.WriteString(InternalToSourceName(fd.ClassName))
	} else {
		sb.WriteString(baseTypeNames[fd.Base])
	}
	for i := 0; i < fd.ArrayDepth; i++ {
		sb.WriteString("[]")
	}
	return sb.String()
}

// Descriptor renders fd back in descriptor syntax.
func (fd FieldDescriptor) Descriptor() string {
	var sb strings.Builder
	for i := 0; i < fd.ArrayDepth; i++ {
		sb.WriteByte('[')
	}
	sb.WriteByte(byte(fd.Base))
	if fd.Base == BaseReference {
		sb.WriteString(fd.ClassName)
		sb.WriteByte(';')
	}
	return sb.String()
}

func (fd FieldDescriptor) IsArray() bool {
	return fd.ArrayDepth > 0
}

func (fd FieldDescriptor) IsPrimitive() bool {
	return fd.ArrayDepth == 0 && fd.Base != BaseReference
}

func (fd FieldDescriptor) IsReference() bool {
	return !fd.IsPrimitive()
}

// IsWide reports whether a value of this type takes two local variable or
// operand stack slots.
func (fd FieldDescriptor) IsWide() bool {
	return fd.ArrayDepth == 0 && (fd.Base == BaseLong || fd.Base == BaseDouble)
}

// Element strips one array dimension.
func (fd FieldDescriptor) Element() FieldDescriptor {
	if fd.ArrayDepth > 0 {
		fd.ArrayDepth--
	}
	return fd
}

type MethodDescriptor struct {
	Parameters []FieldDescriptor
	Return     *FieldDescriptor
}

func (md MethodDescriptor) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	for i, p := range md.Parameters {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.String())
	}
	sb.WriteString(")")
	if md.Return != nil {
		sb.WriteString(" ")
		sb.WriteString(md.Return.String())
	} else {
		sb.WriteString(" void")
	}
	return sb.String()
}

// descriptorText is a descriptor either as a string or as the raw bytes of
// a CONSTANT_Utf8.
type descriptorText interface {
	~string | ~[]byte
}

// ParseFieldDescriptor parses desc as a FieldType (JVMS §4.3.2). The whole
// string must be consumed.
func ParseFieldDescriptor(desc string) (FieldDescriptor, error) {
	return parseFieldDescriptor(desc)
}

// ParseFieldDescriptorBytes is ParseFieldDescriptor over a Utf8 payload. It
// does not copy b; only a class name is copied out of it.
func ParseFieldDescriptorBytes(b []byte) (FieldDescriptor, error) {
	return parseFieldDescriptor(b)
}

func parseFieldDescriptor[S descriptorText](desc S) (FieldDescriptor, error) {
	fd, n, err := parseFieldType(desc, 0)
	if err != nil {
		return FieldDescriptor{}, err
	}
	if n != len(desc) {
		return FieldDescriptor{}, &DescriptorError{Descriptor: string(desc), Offset: n, Reason: "trailing characters"}
	}
	return fd, nil
}

// ParseMethodDescriptor parses desc as a MethodDescriptor (JVMS §4.3.3).
func ParseMethodDescriptor(desc string) (MethodDescriptor, error) {
	return parseMethodDescriptor(desc)
}

func ParseMethodDescriptorBytes(b []byte) (MethodDescriptor, error) {
	return parseMethodDescriptor(b)
}

func parseMethodDescriptor[S descriptorText](desc S) (MethodDescriptor, error) {
	if len(desc) == 0 || desc[0] != '(' {
		return MethodDescriptor{}, &DescriptorError{Descriptor: string(desc), Offset: 0, Reason: "expected '('"}
	}

	var md MethodDescriptor
	i := 1
	for i < len(desc) && desc[i] != ')' {
		fd, next, err := parseFieldType(desc, i)
		if err != nil {
			return MethodDescriptor{}, err
		}
		md.Parameters = append(md.Parameters, fd)
		i = next
	}
	if i >= len(desc) {
		return MethodDescriptor{}, &DescriptorError{Descriptor: string(desc), Offset: i, Reason: "expected ')'"}
	}
	i++

	if i < len(desc) && desc[i] == 'V' {
		i++
	} else {
		fd, next, err := parseFieldType(desc, i)
		if err != nil {
			return MethodDescriptor{}, err
		}
		md.Return = &fd
		i = next
	}
	if i != len(desc) {
		return MethodDescriptor{}, &DescriptorError{Descriptor: string(desc), Offset: i, Reason: "trailing characters"}
	}
	return md, nil
}

// parseFieldType parses one FieldType starting at start and returns the
// offset just past it.
func parseFieldType[S descriptorText](desc S, start int) (FieldDescriptor, int, error) {
	var fd FieldDescriptor
	i := start

	for i < len(desc) && desc[i] == '[' {
		fd.ArrayDepth++
		i++
	}
	if fd.ArrayDepth > maxArrayDimensions {
		return FieldDescriptor{}, 0, &DescriptorError{Descriptor: string(desc), Offset: start, Reason: "more than 255 array dimensions"}
	}
	if i >= len(desc) {
		return FieldDescriptor{}, 0, &DescriptorError{Descriptor: string(desc), Offset: i, Reason: "unexpected end of descriptor"}
	}

	switch c := BaseType(desc[i]); c {
	case BaseByte, BaseChar, BaseDouble, BaseFloat, BaseInt, BaseLong, BaseShort, BaseBoolean:
		fd.Base = c
		return fd, i + 1, nil
	case BaseReference:
		end := i + 1
		for end < len(desc) && desc[end] != ';' {
			end++
		}
		if end == len(desc) {
			return FieldDescriptor{}, 0, &DescriptorError{Descriptor: string(desc), Offset: i, Reason: "class name not terminated by ';'"}
		}
		name := string(desc[i+1 : end])
		if reason := checkClassName(name); reason != "" {
			return FieldDescriptor{}, 0, &DescriptorError{Descriptor: string(desc), Offset: i + 1, Reason: reason}
		}
		fd.Base = BaseReference
		fd.ClassName = name
		return fd, end + 1, nil
	default:
		return FieldDescriptor{}, 0, &DescriptorError{Descriptor: string(desc), Offset: i, Reason: "unexpected character " + strconv.QuoteRune(rune(desc[i]))}
	}
}

func checkClassName(name string) string {
	if name == "" {
		return "empty class name"
	}
	if strings.ContainsAny(name, ".[") {
		return "class name contains '.' or '['"
	}
	if name[0] == '/' || name[len(name)-1] == '/' || strings.Contains(name, "//") {
		return "empty class name segment"
	}
	return ""
}

func InternalToSourceName(name string) string {
	return strings.ReplaceAll(name, "/", ".")
}

func SourceToInternalName(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}
