// FILE: lixenwraith/paramconfig/helpers_test.go
package paramconfig

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var int64Type = reflect.TypeOf(int64(0))

// observedLogger captures warnings for assertions.
func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.WarnLevel)
	return zap.New(core), logs
}

// newBigParams declares one attribute of most kinds, all accepting nil
// except the list selector.
func newBigParams(t *testing.T, name string) *Object {
	t.Helper()
	obj, err := New(name,
		Array("array", []float64{1, 2}),
		Boolean("boolean", true, AllowNone()),
		ClassSelector("class_selector", int64Type, nil),
		Date("date", time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC), AllowNone()),
		DateRange("date_range", &[2]time.Time{
			time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC),
		}, AllowNone()),
		Dict("dict_", map[string]any{"foo": "bar"}, AllowNone(), Doc("dict means dictionary")),
		Integer("integer", 10, AllowNone()),
		List("list_", []any{int64(1), int64(2), int64(3)}, AllowNone(), Class(int64Type)),
		ListSelector("list_selector", []any{int64(2), int64(2)}, Objects(int64(1), int64(2), int64(3))),
		Magnitude("magnitude", 0.5, AllowNone()),
		Number("number", -10, AllowNone(), Doc("here is a number")),
		NumericTuple("numeric_tuple", []float64{5, 10}, AllowNone()),
		ObjectSelector("object_selector", "1", Objects("1", int64(2), true), AllowNone()),
		Range("range_", []float64{-1, 2}, AllowNone()),
		Series("series", SeriesValue{int64(0), int64(1), int64(2)}, AllowNone()),
		String("string", "foo", AllowNone(), Doc("this is a string")),
		Tuple("tuple_", []any{int64(3), int64(4), "fi"}, AllowNone()),
		XYCoordinates("x_y_coordinates", []float64{1, 2}, AllowNone()),
	)
	require.NoError(t, err)
	return obj
}

// mutateBigParams moves every attribute of newBigParams off its default.
func mutateBigParams(t *testing.T, obj *Object) {
	t.Helper()
	values := map[string]any{
		"array":           []float64{3, 4.5},
		"boolean":         false,
		"class_selector":  int64Type,
		"date":            time.Date(2021, 5, 6, 0, 0, 0, 0, time.UTC),
		"date_range":      [2]time.Time{time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2010, 6, 1, 12, 0, 0, 0, time.UTC)},
		"dict_":           map[string]any{"a": int64(1), "b": []any{"c"}},
		"integer":         int64(5),
		"list_":           []any{int64(4), int64(5)},
		"list_selector":   []any{int64(1), int64(3)},
		"magnitude":       0.25,
		"number":          3.5,
		"numeric_tuple":   []float64{1, 2.5},
		"object_selector": int64(2),
		"range_":          []float64{0, 1},
		"series":          SeriesValue{"x", "y"},
		"string":          "bar",
		"tuple_":          []any{int64(1), "a", true},
		"x_y_coordinates": []float64{-3, 7},
	}
	for _, name := range sortedKeys(values) {
		require.NoError(t, obj.Set(name, values[name]), name)
	}
}

// assertSameValues compares every attribute of two objects, times by instant.
func assertSameValues(t *testing.T, want, got Parameterized) {
	t.Helper()
	for _, p := range want.Params() {
		w, g := want.Get(p.Name), got.Get(p.Name)
		switch wv := w.(type) {
		case time.Time:
			gv, ok := g.(time.Time)
			require.True(t, ok, "%s: got %T", p.Name, g)
			require.True(t, wv.Equal(gv), "%s: want %s, got %s", p.Name, wv, gv)
		case [2]time.Time:
			gv, ok := g.([2]time.Time)
			require.True(t, ok, "%s: got %T", p.Name, g)
			require.True(t, wv[0].Equal(gv[0]) && wv[1].Equal(gv[1]), "%s: want %v, got %v", p.Name, wv, gv)
		default:
			require.Equal(t, w, g, p.Name)
		}
	}
}
