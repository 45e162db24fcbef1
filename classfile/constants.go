package classfile

import "strconv"

const (
	Magic = 0xCAFEBABE
)

type AccessFlags uint16

const (
	AccPublic       AccessFlags = 0x0001
	AccPrivate      AccessFlags = 0x0002
	AccProtected    AccessFlags = 0x0004
	AccStatic       AccessFlags = 0x0008
	AccFinal        AccessFlags = 0x0010
	AccSuper        AccessFlags = 0x0020
	AccSynchronized AccessFlags = 0x0020
	AccVolatile     AccessFlags = 0x0040
	AccBridge       AccessFlags = 0x0040
	AccTransient    AccessFlags = 0x0080
	AccVarargs      AccessFlags = 0x0080
	AccNative       AccessFlags = 0x0100
	AccInterface    AccessFlags = 0x0200
	AccAbstract     AccessFlags = 0x0400
	AccStrict       AccessFlags = 0x0800
	AccSynthetic    AccessFlags = 0x1000
	AccAnnotation   AccessFlags = 0x2000
	AccEnum         AccessFlags = 0x4000
	AccModule       AccessFlags = 0x8000
)

// FieldAccessMask holds every flag a field_info may carry. Other bits are
// reserved and ignored.
const FieldAccessMask = AccPublic | AccPrivate | AccProtected | AccStatic | AccFinal |
	AccVolatile | AccTransient | AccSynthetic | AccEnum

func (f AccessFlags) IsPublic() bool       { return f&AccPublic != 0 }
func (f AccessFlags) IsPrivate() bool      { return f&AccPrivate != 0 }
func (f AccessFlags) IsProtected() bool    { return f&AccProtected != 0 }
func (f AccessFlags) IsStatic() bool       { return f&AccStatic != 0 }
func (f AccessFlags) IsFinal() bool        { return f&AccFinal != 0 }
func (f AccessFlags) IsSuper() bool        { return f&AccSuper != 0 }
func (f AccessFlags) IsSynchronized() bool { return f&AccSynchronized != 0 }
func (f AccessFlags) IsVolatile() bool     { return f&AccVolatile != 0 }
func (f AccessFlags) IsBridge() bool       { return f&AccBridge != 0 }
func (f AccessFlags) IsTransient() bool    { return f&AccTransient != 0 }
func (f AccessFlags) IsVarargs() bool      { return f&AccVarargs != 0 }
func (f AccessFlags) IsNative() bool       { return f&AccNative != 0 }
func (f AccessFlags) IsInterface() bool    { return f&AccInterface != 0 }
func (f AccessFlags) IsAbstract() bool     { return f&AccAbstract != 0 }
func (f AccessFlags) IsStrict() bool       { return f&AccStrict != 0 }
func (f AccessFlags) IsSynthetic() bool    { return f&AccSynthetic != 0 }
func (f AccessFlags) IsAnnotation() bool   { return f&AccAnnotation != 0 }
func (f AccessFlags) IsEnum() bool         { return f&AccEnum != 0 }
func (f AccessFlags) IsModule() bool       { return f&AccModule != 0 }

// ValidateFieldFlags masks raw to FieldAccessMask and rejects combinations
// that are contradictory regardless of the declaring class.
func ValidateFieldFlags(raw AccessFlags) (AccessFlags, error) {
	flags := raw & FieldAccessMask

	visibility := 0
	for _, f := range []AccessFlags{AccPublic, AccPrivate, AccProtected} {
		if flags&f != 0 {
			visibility++
		}
	}
	if visibility > 1 {
		return 0, &AccessFlagsError{Flags: flags, Reason: "more than one of public, private and protected"}
	}
	if flags.IsFinal() && flags.IsVolatile() {
		return 0, &AccessFlagsError{Flags: flags, Reason: "final and volatile"}
	}
	return flags, nil
}

// Tag is the discriminant byte of a constant pool entry. Its value is the
// byte as it appears in the class file.
type Tag uint8

const (
	TagUtf8               Tag = 1
	TagInteger            Tag = 3
	TagFloat              Tag = 4
	TagLong               Tag = 5
	TagDouble             Tag = 6
	TagClass              Tag = 7
	TagString             Tag = 8
	TagFieldref           Tag = 9
	TagMethodref          Tag = 10
	TagInterfaceMethodref Tag = 11
	TagNameAndType        Tag = 12
	TagMethodHandle       Tag = 15
	TagMethodType         Tag = 16
	TagDynamic            Tag = 17
	TagInvokeDynamic      Tag = 18
	TagModule             Tag = 19
	TagPackage            Tag = 20
)

var tagNames = map[Tag]string{
	TagUtf8:               "Utf8",
	TagInteger:            "Integer",
	TagFloat:              "Float",
	TagLong:               "Long",
	TagDouble:             "Double",
	TagClass:              "Class",
	TagString:             "String",
	TagFieldref:           "Fieldref",
	TagMethodref:          "Methodref",
	TagInterfaceMethodref: "InterfaceMethodref",
	TagNameAndType:        "NameAndType",
	TagMethodHandle:       "MethodHandle",
	TagMethodType:         "MethodType",
	TagDynamic:            "Dynamic",
	TagInvokeDynamic:      "InvokeDynamic",
	TagModule:             "Module",
	TagPackage:            "Package",
}

// Tags returns all defined tags in byte order.
func Tags() []Tag {
	return []Tag{
		TagUtf8, TagInteger, TagFloat, TagLong, TagDouble, TagClass, TagString,
		TagFieldref, TagMethodref, TagInterfaceMethodref, TagNameAndType,
		TagMethodHandle, TagMethodType, TagDynamic, TagInvokeDynamic,
		TagModule, TagPackage,
	}
}

// TagFromByte maps a tag byte to its Tag. Reserved bytes 2, 13 and 14 are
// rejected like any other undefined value.
func TagFromByte(b byte) (Tag, error) {
	t := Tag(b)
	if _, ok := tagNames[t]; !ok {
		return 0, &UnknownTagError{Byte: b}
	}
	return t, nil
}

func (t Tag) Byte() byte { return byte(t) }

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return "Tag(" + strconv.Itoa(int(t)) + ")"
}

// Loadable reports whether ldc, ldc_w or ldc2_w may reference an entry of
// this kind (JVMS §4.4, table 4.4-C).
func (t Tag) Loadable() bool {
	switch t {
	case TagInteger, TagFloat, TagLong, TagDouble, TagClass, TagString,
		TagMethodHandle, TagMethodType, TagDynamic:
		return true
	}
	return false
}

// Width is the number of pool indices an entry of this kind occupies.
func (t Tag) Width() int {
	if t == TagLong || t == TagDouble {
		return 2
	}
	return 1
}

type MethodHandleKind uint8

const (
	RefGetField         MethodHandleKind = 1
	RefGetStatic        MethodHandleKind = 2
	RefPutField         MethodHandleKind = 3
	RefPutStatic        MethodHandleKind = 4
	RefInvokeVirtual    MethodHandleKind = 5
	RefInvokeStatic     MethodHandleKind = 6
	RefInvokeSpecial    MethodHandleKind = 7
	RefNewInvokeSpecial MethodHandleKind = 8
	RefInvokeInterface  MethodHandleKind = 9
)

func (k MethodHandleKind) Valid() bool {
	return k >= RefGetField && k <= RefInvokeInterface
}

func (k MethodHandleKind) String() string {
	switch k {
	case RefGetField:
		return "getField"
	case RefGetStatic:
		return "getStatic"
	case RefPutField:
		return "putField"
	case RefPutStatic:
		return "putStatic"
	case RefInvokeVirtual:
		return "invokeVirtual"
	case RefInvokeStatic:
		return "invokeStatic"
	case RefInvokeSpecial:
		return "invokeSpecial"
	case RefNewInvokeSpecial:
		return "newInvokeSpecial"
	case RefInvokeInterface:
		return "invokeInterface"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}
