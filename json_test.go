// FILE: lixenwraith/paramconfig/json_test.go
package paramconfig

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestJSONHierarchicalSelection round-trips a filtered two-level tree and
// checks that key order and attribute subsets survive.
func TestJSONHierarchicalSelection(t *testing.T) {
	objA := newBigParams(t, "a")
	objB := newBigParams(t, "b")
	mutateBigParams(t, objA)
	mutateBigParams(t, objB)
	src := NewTree().Add("z", objA).AddTree("b", NewTree().Add("q", objB))

	only := OnlyTree(map[string]*Selection{
		"b": OnlyTree(map[string]*Selection{"q": Only("list_", "string")}),
		"z": Only("number", "list_selector"),
	})
	opts := DefaultJSONWriteOptions()
	opts.Only = only

	var buf bytes.Buffer
	require.NoError(t, SerializeToJSON(&buf, src, opts))
	text := buf.String()
	assert.Less(t, strings.Index(text, `"z"`), strings.Index(text, `"b"`))

	dstA := newBigParams(t, "a")
	dstB := newBigParams(t, "b")
	dst := NewTree().Add("z", dstA).AddTree("b", NewTree().Add("q", dstB))
	ropts := DefaultJSONReadOptions()
	ropts.OnMissing = Raise
	require.NoError(t, DeserializeFromJSON(strings.NewReader(text), dst, ropts))

	assert.Equal(t, objA.Get("number"), dstA.Get("number"))
	assert.Equal(t, objA.Get("list_selector"), dstA.Get("list_selector"))
	assert.Equal(t, int64(10), dstA.Get("integer"), "unselected attributes keep defaults")
	assert.Equal(t, objB.Get("list_"), dstB.Get("list_"))
	assert.Equal(t, objB.Get("string"), dstB.Get("string"))
	assert.Equal(t, -10.0, dstB.Get("number"))

	data, err := decodeJSON(strings.NewReader(text))
	require.NoError(t, err)
	root := data.(*Map)
	assert.Equal(t, []string{"z", "b"}, root.Keys())
	z, _ := root.Sub("z")
	assert.Equal(t, []string{"list_selector", "number"}, z.Keys())
	q, _ := root.Sub("b")
	q, _ = q.Sub("q")
	assert.Equal(t, []string{"list_", "string"}, q.Keys())
}

func TestJSONRoundTrip(t *testing.T) {
	src := newBigParams(t, "big")
	mutateBigParams(t, src)

	var buf bytes.Buffer
	require.NoError(t, SerializeToJSON(&buf, Leaf{src}, DefaultJSONWriteOptions()))

	dst := newBigParams(t, "big")
	opts := DefaultJSONReadOptions()
	opts.OnMissing = Raise
	require.NoError(t, DeserializeFromJSON(&buf, Leaf{dst}, opts))
	assertSameValues(t, src, dst)
}

func TestJSONDateZones(t *testing.T) {
	zone := time.FixedZone("UTC+5", 5*60*60)
	when := time.Date(2020, 1, 2, 3, 4, 5, 0, zone)
	src := MustNew("obj", Date("d", when))
	logger, logs := observedLogger()
	src.SetLogger(logger)

	var buf bytes.Buffer
	require.NoError(t, SerializeToJSON(&buf, Leaf{src}, DefaultJSONWriteOptions()))
	assert.Zero(t, logs.Len())

	dst := MustNew("obj", Date("d", time.Time{}))
	require.NoError(t, DeserializeFromJSON(&buf, Leaf{dst}, DefaultJSONReadOptions()))
	got := dst.Get("d").(time.Time)
	assert.True(t, when.Equal(got), "want %s, got %s", when, got)
}

func TestJSONIndent(t *testing.T) {
	obj := MustNew("p", Integer("x", 1), String("s", "<b>"))

	var compact bytes.Buffer
	require.NoError(t, SerializeToJSON(&compact, Leaf{obj}, JSONWriteOptions{}))
	assert.Equal(t, "{\"s\":\"<b>\",\"x\":1}\n", compact.String())

	var pretty bytes.Buffer
	require.NoError(t, SerializeToJSON(&pretty, Leaf{obj}, DefaultJSONWriteOptions()))
	assert.Equal(t, "{\n  \"s\": \"<b>\",\n  \"x\": 1\n}\n", pretty.String())
}

func TestJSONErrors(t *testing.T) {
	obj := MustNew("p", Integer("x", 1))

	err := DeserializeFromJSON(strings.NewReader(`[1, 2]`), Leaf{obj}, JSONReadOptions{})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	err = DeserializeFromJSON(strings.NewReader(`{"x": `), Leaf{obj}, JSONReadOptions{})
	assert.ErrorContains(t, err, "failed to parse JSON")

	err = DeserializeFromJSON(strings.NewReader(`{"x": 1} {}`), Leaf{obj}, JSONReadOptions{})
	assert.Error(t, err)
}

func TestJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.json")
	obj := MustNew("p", Integer("x", 3), Number("f", 0.5))
	require.NoError(t, SerializeToJSONFile(path, Leaf{obj}, DefaultJSONWriteOptions()))

	dst := MustNew("p", Integer("x", 0), Number("f", 0))
	require.NoError(t, DeserializeFromJSONFile(path, Leaf{dst}, DefaultJSONReadOptions()))
	assert.Equal(t, int64(3), dst.Get("x"))
	assert.Equal(t, 0.5, dst.Get("f"))
}

func TestMapJSON(t *testing.T) {
	var m Map
	require.NoError(t, m.UnmarshalJSON([]byte(`{"b": 1, "a": {"c": 2.5, "d": [1, "x"]}}`)))
	assert.Equal(t, []string{"b", "a"}, m.Keys())

	b, err := m.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"b":1,"a":{"c":2.5,"d":[1,"x"]}}`, string(b))
	assert.Equal(t, string(b), m.String())

	assert.Error(t, m.UnmarshalJSON([]byte(`[1]`)))
}
