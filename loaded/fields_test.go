package loaded

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/classpool/classfile"
)

func utf8(s string) *classfile.Utf8Info {
	return &classfile.Utf8Info{Bytes: []byte(s)}
}

// declarationPool lays out 1 "B", 2 "A", 3 "I", 4 "Ljava/lang/String;".
func declarationPool(t testing.TB) *classfile.ConstantPool {
	t.Helper()
	cp, err := classfile.NewConstantPool(utf8("B"), utf8("A"), utf8("I"), utf8("Ljava/lang/String;"))
	require.NoError(t, err)
	return cp
}

func TestResolveFieldsKeepsDeclarationOrder(t *testing.T) {
	cp := declarationPool(t)
	fields, err := ResolveFields([]classfile.FieldInfo{
		{AccessFlags: classfile.AccStatic, NameIndex: 1, DescriptorIndex: 3},
		{AccessFlags: classfile.AccPrivate, NameIndex: 2, DescriptorIndex: 4},
	}, cp)
	require.NoError(t, err)

	var names []string
	for _, e := range fields.Entries() {
		names = append(names, e.NameString())
	}
	assert.Equal(t, []string{"B", "A"}, names)
	assert.Equal(t, 2, fields.Len())
}

func TestResolveFieldsAbortsOnFailure(t *testing.T) {
	cp := declarationPool(t)
	fields, err := ResolveFields([]classfile.FieldInfo{
		{NameIndex: 1, DescriptorIndex: 3},
		{AccessFlags: classfile.AccFinal | classfile.AccVolatile, NameIndex: 2, DescriptorIndex: 3},
	}, cp)
	assert.ErrorIs(t, err, classfile.ErrIllegalAccessFlags)
	assert.Nil(t, fields)
}

func TestFieldsEntriesIsACopy(t *testing.T) {
	cp := declarationPool(t)
	fields, err := ResolveFields([]classfile.FieldInfo{
		{NameIndex: 1, DescriptorIndex: 3},
		{NameIndex: 2, DescriptorIndex: 3},
	}, cp)
	require.NoError(t, err)

	entries := fields.Entries()
	entries[0], entries[1] = entries[1], entries[0]
	assert.Equal(t, "B", fields.Entries()[0].NameString())
}

func TestFieldsLookup(t *testing.T) {
	cp := declarationPool(t)
	fields, err := ResolveFields([]classfile.FieldInfo{
		{AccessFlags: classfile.AccStatic, NameIndex: 1, DescriptorIndex: 3},
		{NameIndex: 2, DescriptorIndex: 4},
	}, cp)
	require.NoError(t, err)

	a, ok := fields.Lookup("A")
	require.True(t, ok)
	assert.Equal(t, "java.lang.String", a.Descriptor.String())

	_, ok = fields.Lookup("C")
	assert.False(t, ok)

	statics := fields.StaticEntries()
	require.Len(t, statics, 1)
	assert.Equal(t, "B", statics[0].NameString())
}

func TestFieldsStaticStorage(t *testing.T) {
	cp := declarationPool(t)
	fields, err := ResolveFields([]classfile.FieldInfo{
		{AccessFlags: classfile.AccStatic, NameIndex: 1, DescriptorIndex: 3},
		{NameIndex: 2, DescriptorIndex: 3},
	}, cp)
	require.NoError(t, err)

	_, ok := fields.Static("B")
	assert.False(t, ok, "storage is empty until initialization")

	cell := NewStaticCell(int32(1))
	require.NoError(t, fields.InsertStatic("B", cell))

	got, ok := fields.Static("B")
	require.True(t, ok)
	assert.Same(t, cell, got)
	assert.Equal(t, int32(1), got.Load())

	got.Store(int32(5))
	again, _ := fields.Static("B")
	assert.Equal(t, int32(5), again.Load())

	assert.ErrorIs(t, fields.InsertStatic("B", NewStaticCell(nil)), ErrDuplicateStatic)
	assert.ErrorIs(t, fields.InsertStatic("A", NewStaticCell(nil)), ErrNotStatic)
	assert.ErrorIs(t, fields.InsertStatic("missing", NewStaticCell(nil)), ErrNotStatic)

	_, ok = fields.Static("missing")
	assert.False(t, ok)
}

func TestStaticCellConcurrentAccess(t *testing.T) {
	cp := declarationPool(t)
	fields, err := ResolveFields([]classfile.FieldInfo{
		{AccessFlags: classfile.AccStatic, NameIndex: 1, DescriptorIndex: 3},
	}, cp)
	require.NoError(t, err)
	require.NoError(t, fields.InsertStatic("B", NewStaticCell(int32(0))))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int32) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cell, ok := fields.Static("B")
				if !ok {
					t.Error("static B disappeared")
					return
				}
				cell.Store(n)
				_ = cell.Load()
			}
		}(int32(i))
	}
	wg.Wait()

	cell, _ := fields.Static("B")
	v, ok := cell.Load().(int32)
	require.True(t, ok)
	assert.GreaterOrEqual(t, v, int32(0))
	assert.Less(t, v, int32(8))
}
