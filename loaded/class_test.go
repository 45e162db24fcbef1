package loaded

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/classpool/classfile"
)

// constantsClass builds a class whose pool is:
//
//	1 "Consts"       2 Class #1      3 "ConstantValue"
//	4 "I"            5 "J"           6 "Ljava/lang/String;"
//	7 "D"            8 Integer 42    9 Long (10 reserved)
//	11 String #12    12 "hi"         13 Double (14 reserved)
//	15 "MAX" 16 "BIG" 17 "GREETING" 18 "RATE" 19 "counter" 20 "label"
func constantsClass(t testing.TB, fields ...classfile.FieldInfo) *classfile.ClassFile {
	t.Helper()
	cp, err := classfile.NewConstantPool(
		utf8("Consts"),
		&classfile.ClassInfo{NameIndex: 1},
		utf8("ConstantValue"),
		utf8("I"),
		utf8("J"),
		utf8("Ljava/lang/String;"),
		utf8("D"),
		&classfile.IntegerInfo{Bytes: 42},
		&classfile.LongInfo{HighBytes: 1, LowBytes: 0},
		&classfile.StringInfo{StringIndex: 12},
		utf8("hi"),
		&classfile.DoubleInfo{HighBytes: 0x40000000, LowBytes: 0},
		utf8("MAX"),
		utf8("BIG"),
		utf8("GREETING"),
		utf8("RATE"),
		utf8("counter"),
		utf8("label"),
	)
	require.NoError(t, err)
	return &classfile.ClassFile{
		MajorVersion: 65,
		ConstantPool: cp,
		AccessFlags:  classfile.AccPublic | classfile.AccSuper,
		ThisClass:    2,
		Fields:       fields,
	}
}

func constantValue(index uint16) []classfile.AttributeInfo {
	return []classfile.AttributeInfo{{NameIndex: 3, Info: []byte{byte(index >> 8), byte(index)}}}
}

const staticFinal = classfile.AccPublic | classfile.AccStatic | classfile.AccFinal

func TestLoad(t *testing.T) {
	cf := constantsClass(t,
		classfile.FieldInfo{AccessFlags: staticFinal, NameIndex: 15, DescriptorIndex: 4, Attributes: constantValue(8)},
		classfile.FieldInfo{AccessFlags: classfile.AccPrivate, NameIndex: 20, DescriptorIndex: 6},
	)

	class, err := Load(cf, WithStrictValidation())
	require.NoError(t, err)
	assert.Equal(t, "Consts", class.String())
	assert.Nil(t, class.SuperName)
	assert.Equal(t, 2, class.Fields.Len())

	name, err := cf.ConstantPool.Utf8(1)
	require.NoError(t, err)
	assert.Same(t, name, class.Name)
}

func TestLoadErrors(t *testing.T) {
	t.Run("bad this_class", func(t *testing.T) {
		cf := constantsClass(t)
		cf.ThisClass = 1
		_, err := Load(cf)
		assert.ErrorIs(t, err, classfile.ErrConstantPoolTagMismatch)
	})

	t.Run("bad field", func(t *testing.T) {
		cf := constantsClass(t,
			classfile.FieldInfo{NameIndex: 15, DescriptorIndex: 4},
			classfile.FieldInfo{NameIndex: 16, DescriptorIndex: 15},
		)
		class, err := Load(cf)
		assert.ErrorIs(t, err, classfile.ErrMalformedDescriptor)
		assert.Nil(t, class)
	})

	t.Run("duplicate name and descriptor", func(t *testing.T) {
		cf := constantsClass(t,
			classfile.FieldInfo{NameIndex: 19, DescriptorIndex: 4},
			classfile.FieldInfo{NameIndex: 19, DescriptorIndex: 4},
		)
		_, err := Load(cf)
		assert.ErrorIs(t, err, ErrDuplicateField)
	})

	t.Run("strict validation", func(t *testing.T) {
		cf := constantsClass(t)
		_, err := cf.ConstantPool.Append(&classfile.ClassInfo{NameIndex: 9})
		require.NoError(t, err)

		_, err = Load(cf)
		assert.NoError(t, err, "unused broken entries are tolerated by default")

		_, err = Load(cf, WithStrictValidation())
		assert.ErrorIs(t, err, classfile.ErrConstantPoolTagMismatch)
	})
}

func TestInitialize(t *testing.T) {
	cf := constantsClass(t,
		classfile.FieldInfo{AccessFlags: staticFinal, NameIndex: 15, DescriptorIndex: 4, Attributes: constantValue(8)},
		classfile.FieldInfo{AccessFlags: staticFinal, NameIndex: 16, DescriptorIndex: 5, Attributes: constantValue(9)},
		classfile.FieldInfo{AccessFlags: staticFinal, NameIndex: 17, DescriptorIndex: 6, Attributes: constantValue(11)},
		classfile.FieldInfo{AccessFlags: staticFinal, NameIndex: 18, DescriptorIndex: 7, Attributes: constantValue(13)},
		classfile.FieldInfo{AccessFlags: classfile.AccStatic, NameIndex: 19, DescriptorIndex: 5},
		classfile.FieldInfo{AccessFlags: classfile.AccStatic, NameIndex: 20, DescriptorIndex: 6},
		classfile.FieldInfo{AccessFlags: classfile.AccPrivate, NameIndex: 1, DescriptorIndex: 4},
	)
	class, err := Load(cf)
	require.NoError(t, err)
	require.NoError(t, class.Initialize())

	want := map[string]Value{
		"MAX":      int32(42),
		"BIG":      int64(1) << 32,
		"GREETING": "hi",
		"RATE":     2.0,
		"counter":  int64(0),
		"label":    nil,
	}
	for name, v := range want {
		cell, ok := class.Fields.Static(name)
		require.True(t, ok, name)
		assert.Equal(t, v, cell.Load(), name)
	}

	_, ok := class.Fields.Static("Consts")
	assert.False(t, ok, "instance fields have no static storage")

	cell, _ := class.Fields.Static("counter")
	cell.Store(int64(3))
	require.NoError(t, class.Initialize())
	again, _ := class.Fields.Static("counter")
	assert.Same(t, cell, again)
	assert.Equal(t, int64(3), again.Load())
}

func TestInitializeErrors(t *testing.T) {
	tests := []struct {
		name  string
		field classfile.FieldInfo
		want  error
	}{
		{
			name:  "integer for long field",
			field: classfile.FieldInfo{AccessFlags: staticFinal, NameIndex: 16, DescriptorIndex: 5, Attributes: constantValue(8)},
			want:  classfile.ErrConstantPoolTagMismatch,
		},
		{
			name:  "utf8 is not loadable",
			field: classfile.FieldInfo{AccessFlags: staticFinal, NameIndex: 15, DescriptorIndex: 4, Attributes: constantValue(12)},
			want:  ErrBadConstantValue,
		},
		{
			name:  "index into reserved slot",
			field: classfile.FieldInfo{AccessFlags: staticFinal, NameIndex: 16, DescriptorIndex: 5, Attributes: constantValue(10)},
			want:  classfile.ErrInvalidConstantPoolIndex,
		},
		{
			name: "attribute body too long",
			field: classfile.FieldInfo{AccessFlags: staticFinal, NameIndex: 15, DescriptorIndex: 4,
				Attributes: []classfile.AttributeInfo{{NameIndex: 3, Info: []byte{0, 8, 0}}}},
			want: ErrBadConstantValue,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class, err := Load(constantsClass(t, tt.field))
			require.NoError(t, err)

			err = class.Initialize()
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, class.Initialize(), tt.want, "the first result is kept")
		})
	}
}

func TestInitializeSameNameStatics(t *testing.T) {
	cf := constantsClass(t,
		classfile.FieldInfo{AccessFlags: classfile.AccStatic, NameIndex: 19, DescriptorIndex: 4},
		classfile.FieldInfo{AccessFlags: classfile.AccStatic, NameIndex: 19, DescriptorIndex: 5},
	)
	class, err := Load(cf)
	require.NoError(t, err, "name and descriptor differ, so the class loads")

	err = class.Initialize()
	assert.ErrorIs(t, err, ErrDuplicateStatic)

	_, ok := class.Fields.Static("counter")
	assert.False(t, ok, "no storage is installed when initialization fails")
}

func TestDefaultValue(t *testing.T) {
	tests := map[string]Value{
		"I":                  int32(0),
		"Z":                  int32(0),
		"C":                  int32(0),
		"J":                  int64(0),
		"F":                  float32(0),
		"D":                  float64(0),
		"Ljava/lang/Object;": nil,
		"[I":                 nil,
	}
	for desc, want := range tests {
		fd, err := classfile.ParseFieldDescriptor(desc)
		require.NoError(t, err)
		assert.Equal(t, want, DefaultValue(fd), desc)
	}
}
