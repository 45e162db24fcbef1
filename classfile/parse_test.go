package classfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type classWriter struct {
	bytes.Buffer
}

func (w *classWriter) u1(v uint8)  { w.WriteByte(v) }
func (w *classWriter) u2(v uint16) { _ = binary.Write(&w.Buffer, binary.BigEndian, v) }
func (w *classWriter) u4(v uint32) { _ = binary.Write(&w.Buffer, binary.BigEndian, v) }

func (w *classWriter) utf8(s string) {
	w.u1(uint8(TagUtf8))
	w.u2(uint16(len(s)))
	w.WriteString(s)
}

// sampleClass encodes:
//
//	public class Sample {
//	    public static final long BIG = 0x100000002L;
//	    private String name;
//	}
func sampleClass() []byte {
	var w classWriter
	w.u4(Magic)
	w.u2(0)
	w.u2(65)

	// 1 Sample, 2 Class #1, 3 java/lang/Object, 4 Class #3, 5 BIG, 6 J,
	// 7 Long (8 reserved), 9 ConstantValue, 10 name, 11 Ljava/lang/String;
	w.u2(12)
	w.utf8("Sample")
	w.u1(uint8(TagClass))
	w.u2(1)
	w.utf8("java/lang/Object")
	w.u1(uint8(TagClass))
	w.u2(3)
	w.utf8("BIG")
	w.utf8("J")
	w.u1(uint8(TagLong))
	w.u4(1)
	w.u4(2)
	w.utf8("ConstantValue")
	w.utf8("name")
	w.utf8("Ljava/lang/String;")

	w.u2(uint16(AccPublic | AccSuper))
	w.u2(2)
	w.u2(4)
	w.u2(0)

	w.u2(2)
	w.u2(uint16(AccPublic | AccStatic | AccFinal))
	w.u2(5)
	w.u2(6)
	w.u2(1)
	w.u2(9)
	w.u4(2)
	w.u2(7)

	w.u2(uint16(AccPrivate))
	w.u2(10)
	w.u2(11)
	w.u2(0)

	w.u2(0)
	w.u2(0)
	return w.Bytes()
}

func TestParseClassFile(t *testing.T) {
	cf, err := ParseBytes(sampleClass())
	require.NoError(t, err)

	t.Run("header", func(t *testing.T) {
		assert.Equal(t, uint16(65), cf.MajorVersion)
		assert.True(t, cf.AccessFlags.IsPublic())
		assert.False(t, cf.IsInterface())

		name, err := cf.ClassName()
		require.NoError(t, err)
		assert.Equal(t, "Sample", name.String())

		super, err := cf.SuperClassName()
		require.NoError(t, err)
		assert.Equal(t, "java/lang/Object", super.String())

		ifaces, err := cf.InterfaceNames()
		require.NoError(t, err)
		assert.Empty(t, ifaces)
	})

	t.Run("constant pool", func(t *testing.T) {
		cp := cf.ConstantPool
		assert.Equal(t, uint16(12), cp.Count())

		l, err := cp.Long(7)
		require.NoError(t, err)
		assert.Equal(t, uint32(1), l.HighBytes)
		assert.Equal(t, uint32(2), l.LowBytes)

		_, err = cp.Entry(8)
		assert.ErrorIs(t, err, ErrInvalidConstantPoolIndex)

		u, err := cp.Utf8(9)
		require.NoError(t, err)
		assert.Equal(t, "ConstantValue", u.String())

		assert.NoError(t, cp.Validate())
	})

	t.Run("fields", func(t *testing.T) {
		require.Len(t, cf.Fields, 2)

		big, err := ResolveField(cf.Fields[0], cf.ConstantPool)
		require.NoError(t, err)
		assert.Equal(t, "BIG", big.NameString())
		assert.Equal(t, "long", big.Descriptor.String())
		require.NotNil(t, big.Attribute(cf.ConstantPool, "ConstantValue"))

		name, err := ResolveField(cf.Fields[1], cf.ConstantPool)
		require.NoError(t, err)
		assert.Equal(t, "private java.lang.String name", name.String())
	})
}

func TestReadConstantPool(t *testing.T) {
	t.Run("unknown tag", func(t *testing.T) {
		for _, b := range []byte{0, 2, 13, 14, 21, 255} {
			var w classWriter
			w.u2(2)
			w.u1(b)
			w.u2(1)
			_, err := ReadConstantPool(&w)
			var tagErr *UnknownTagError
			require.ErrorAs(t, err, &tagErr, "tag %d", b)
			assert.Equal(t, b, tagErr.Byte)
		}
	})

	t.Run("double in last slot", func(t *testing.T) {
		var w classWriter
		w.u2(2)
		w.u1(uint8(TagDouble))
		w.u4(0)
		w.u4(0)
		_, err := ReadConstantPool(&w)
		assert.ErrorIs(t, err, ErrInvalidConstantPoolIndex)
	})

	t.Run("truncated", func(t *testing.T) {
		var w classWriter
		w.u2(3)
		w.utf8("x")
		_, err := ReadConstantPool(&w)
		require.Error(t, err)
	})

	t.Run("lazy references", func(t *testing.T) {
		var w classWriter
		w.u2(3)
		w.u1(uint8(TagClass))
		w.u2(40)
		w.utf8("unused")
		cp, err := ReadConstantPool(&w)
		require.NoError(t, err)
		_, err = cp.ClassName(1)
		assert.ErrorIs(t, err, ErrInvalidConstantPoolIndex)
	})
}

func TestParseBadMagic(t *testing.T) {
	data := sampleClass()
	data[0] = 0
	_, err := ParseBytes(data)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnknownTag))
	assert.Contains(t, err.Error(), "invalid magic number")
}

func TestParseTruncatedAttribute(t *testing.T) {
	var w classWriter
	w.u4(Magic)
	w.u2(0)
	w.u2(65)
	w.u2(1)
	w.u2(uint16(AccPublic))
	w.u2(0)
	w.u2(0)
	w.u2(0)
	w.u2(0)
	w.u2(0)
	// One class attribute claiming almost 4 GiB with four bytes present.
	w.u2(1)
	w.u2(1)
	w.u4(0xFFFFFFF0)
	w.WriteString("body")
	data := w.Bytes()

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := ParseBytes(data)
	runtime.ReadMemStats(&after)

	assert.ErrorIs(t, err, io.EOF)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(16<<20))
}
