// FILE: lixenwraith/paramconfig/array_test.go
package paramconfig

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// npyBytes renders a version 1 npy file holding little-endian float64 values.
func npyBytes(t *testing.T, descr string, fortran bool, values []float64) []byte {
	t.Helper()
	order := "False"
	if fortran {
		order = "True"
	}
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': %s, 'shape': (%d,), }", descr, order, len(values))
	for (10+len(header)+1)%64 != 0 {
		header += " "
	}
	header += "\n"

	var buf bytes.Buffer
	buf.Write(npyMagic)
	buf.Write([]byte{1, 0})
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(len(header))))
	buf.WriteString(header)
	for _, v := range values {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
	}
	return buf.Bytes()
}

func TestArrayDeserializer(t *testing.T) {
	dir := t.TempDir()
	obj := MustNew("arr", Array("a", nil))
	d := ArrayDeserializer{}

	t.Run("Sequence", func(t *testing.T) {
		require.NoError(t, d.Deserialize("a", []any{int64(1), "2.5", 3.0}, obj))
		assert.Equal(t, []float64{1, 2.5, 3}, obj.Get("a"))
	})

	t.Run("DelimitedText", func(t *testing.T) {
		require.NoError(t, d.Deserialize("a", "1, 2;3 4", obj))
		assert.Equal(t, []float64{1, 2, 3, 4}, obj.Get("a"))
		require.NoError(t, d.Deserialize("a", "[5 6]", obj))
		assert.Equal(t, []float64{5, 6}, obj.Get("a"))
		assert.Error(t, d.Deserialize("a", "1, two", obj))
	})

	t.Run("Buffer", func(t *testing.T) {
		buf := make([]byte, 16)
		binary.LittleEndian.PutUint64(buf, math.Float64bits(1.5))
		binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(-2))
		require.NoError(t, d.Deserialize("a", buf, obj))
		assert.Equal(t, []float64{1.5, -2}, obj.Get("a"))
		assert.Error(t, d.Deserialize("a", buf[:7], obj))
	})

	t.Run("TextFile", func(t *testing.T) {
		path := filepath.Join(dir, "a.txt")
		require.NoError(t, os.WriteFile(path, []byte("# header\n1 2\n\n3\n"), 0644))
		require.NoError(t, d.Deserialize("a", path, obj))
		assert.Equal(t, []float64{1, 2, 3}, obj.Get("a"))

		csvPath := filepath.Join(dir, "a.csv")
		require.NoError(t, os.WriteFile(csvPath, []byte("4,5\n6,7\n"), 0644))
		require.NoError(t, d.Deserialize("a", csvPath, obj))
		assert.Equal(t, []float64{4, 5, 6, 7}, obj.Get("a"))
	})

	t.Run("NPY", func(t *testing.T) {
		path := filepath.Join(dir, "a.npy")
		require.NoError(t, os.WriteFile(path, npyBytes(t, "<f8", false, []float64{0.25, 8, -1}), 0644))
		require.NoError(t, d.Deserialize("a", path, obj))
		assert.Equal(t, []float64{0.25, 8, -1}, obj.Get("a"))

		bad := filepath.Join(dir, "fortran.npy")
		require.NoError(t, os.WriteFile(bad, npyBytes(t, "<f8", true, []float64{1}), 0644))
		var te *TypeError
		assert.ErrorAs(t, d.Deserialize("a", bad, obj), &te)
	})

	t.Run("MissingFile", func(t *testing.T) {
		assert.Error(t, d.Deserialize("a", filepath.Join(dir, "nope.npy"), obj))
	})
}

func TestReadNPYIntegers(t *testing.T) {
	header := "{'descr': '<i4', 'fortran_order': False, 'shape': (3,), }\n"
	var buf bytes.Buffer
	buf.Write(npyMagic)
	buf.Write([]byte{1, 0})
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(len(header))))
	buf.WriteString(header)
	for _, v := range []int32{7, -3, 0} {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
	}

	got, err := readNPY(&buf)
	require.NoError(t, err)
	assert.Equal(t, []float64{7, -3, 0}, got)

	_, err = readNPY(bytes.NewReader([]byte("not numpy at all")))
	assert.Error(t, err)
}

func TestArraySerializer(t *testing.T) {
	obj := MustNew("arr", Array("a", []float64{1, 2.5}), Array("empty", nil))

	v, err := ArraySerializer{}.Serialize("a", obj)
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.5}, v)

	v, err = ArraySerializer{}.Serialize("empty", obj)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestDataFrame(t *testing.T) {
	dir := t.TempDir()
	obj := MustNew("frames", DataFrame("df", nil), Series("s", nil))
	d := NewDataFrameDeserializer()

	t.Run("CSV", func(t *testing.T) {
		path := filepath.Join(dir, "t.csv")
		require.NoError(t, os.WriteFile(path, []byte("a,b\n1,x\n2.5,\n"), 0644))
		require.NoError(t, d.Deserialize("df", path, obj))

		tbl := obj.Get("df").(*Table)
		assert.Equal(t, []string{"a", "b"}, tbl.Columns)
		assert.Equal(t, [][]any{{int64(1), "x"}, {2.5, nil}}, tbl.Rows)

		col, ok := tbl.Column("a")
		require.True(t, ok)
		assert.Equal(t, []any{int64(1), 2.5}, col)
		_, ok = tbl.Column("c")
		assert.False(t, ok)
	})

	t.Run("JSONRecords", func(t *testing.T) {
		path := filepath.Join(dir, "t.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"a": 1, "b": "x"}, {"b": "y"}]`), 0644))
		require.NoError(t, d.Deserialize("df", path, obj))

		tbl := obj.Get("df").(*Table)
		assert.Equal(t, []string{"a", "b"}, tbl.Columns)
		assert.Equal(t, [][]any{{int64(1), "x"}, {nil, "y"}}, tbl.Rows)
	})

	t.Run("Columns", func(t *testing.T) {
		require.NoError(t, d.Deserialize("df", MapOf("x", []any{1, 2}, "y", []any{3}), obj))
		tbl := obj.Get("df").(*Table)
		assert.Equal(t, []string{"x", "y"}, tbl.Columns)
		assert.Equal(t, [][]any{{1, 3}, {2, nil}}, tbl.Rows)
	})

	t.Run("Rows", func(t *testing.T) {
		require.NoError(t, d.Deserialize("df", []any{[]any{1, 2}, []any{3, 4, 5}}, obj))
		tbl := obj.Get("df").(*Table)
		assert.Equal(t, []string{"0", "1", "2"}, tbl.Columns)

		v, err := DataFrameSerializer{}.Serialize("df", obj)
		require.NoError(t, err)
		assert.Equal(t, []any{[]any{1, 2}, []any{3, 4, 5}}, v)
		assert.Contains(t, DataFrameSerializer{}.Help("df", obj), "DataFrame axes")
	})

	t.Run("UnregisteredSuffix", func(t *testing.T) {
		err := d.Deserialize("df", filepath.Join(dir, "t.parquet"), obj)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no table loader")
	})

	t.Run("SeriesFromFile", func(t *testing.T) {
		path := filepath.Join(dir, "s.tsv")
		require.NoError(t, os.WriteFile(path, []byte("v\tw\n1\ta\n2\tb\n"), 0644))
		require.NoError(t, NewSeriesDeserializer().Deserialize("s", path, obj))
		assert.Equal(t, SeriesValue{int64(1), int64(2)}, obj.Get("s"))
	})

	t.Run("SeriesScalar", func(t *testing.T) {
		require.NoError(t, NewSeriesDeserializer().Deserialize("s", "solo", obj))
		assert.Equal(t, SeriesValue{"solo"}, obj.Get("s"))

		v, err := SeriesSerializer{}.Serialize("s", obj)
		require.NoError(t, err)
		assert.Equal(t, []any{"solo"}, v)
	})
}
