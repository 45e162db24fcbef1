package classfile

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownTag               = errors.New("unknown constant pool tag")
	ErrInvalidConstantPoolIndex = errors.New("invalid constant pool index")
	ErrConstantPoolTagMismatch  = errors.New("constant pool tag mismatch")
	ErrMalformedDescriptor      = errors.New("malformed descriptor")
	ErrIllegalAccessFlags       = errors.New("illegal access flags")
	ErrInvalidReferenceKind     = errors.New("invalid method handle reference kind")
	ErrConstantPoolFull         = errors.New("constant pool full")
	ErrNilPoolEntry             = errors.New("nil constant pool entry")
)

type UnknownTagError struct {
	Byte byte
}

func (e *UnknownTagError) Error() string {
	return fmt.Sprintf("unknown constant pool tag: %d", e.Byte)
}

func (e *UnknownTagError) Unwrap() error { return ErrUnknownTag }

// IndexError reports an index that does not address a constant: zero, past
// the end of the pool, or the second slot of a long or double.
type IndexError struct {
	Index  uint16
	Count  uint16
	Reason string
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("invalid constant pool index %d (count %d): %s", e.Index, e.Count, e.Reason)
}

func (e *IndexError) Unwrap() error { return ErrInvalidConstantPoolIndex }

type TagMismatchError struct {
	Index    uint16
	Expected Tag
	Actual   Tag
}

func (e *TagMismatchError) Error() string {
	return fmt.Sprintf("constant pool index %d: expected %s, found %s", e.Index, e.Expected, e.Actual)
}

func (e *TagMismatchError) Unwrap() error { return ErrConstantPoolTagMismatch }

type DescriptorError struct {
	Descriptor string
	Offset     int
	Reason     string
}

func (e *DescriptorError) Error() string {
	return fmt.Sprintf("malformed descriptor %q at offset %d: %s", e.Descriptor, e.Offset, e.Reason)
}

func (e *DescriptorError) Unwrap() error { return ErrMalformedDescriptor }

type AccessFlagsError struct {
	Flags  AccessFlags
	Reason string
}

func (e *AccessFlagsError) Error() string {
	return fmt.Sprintf("illegal access flags 0x%04X: %s", uint16(e.Flags), e.Reason)
}

func (e *AccessFlagsError) Unwrap() error { return ErrIllegalAccessFlags }
