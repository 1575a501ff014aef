// FILE: lixenwraith/paramconfig/date.go
package paramconfig

import (
	"fmt"
	"math"
	"time"
)

// maxOrdinal is the proleptic Gregorian ordinal of 9999-12-31.
const maxOrdinal = 3652059

var (
	// DefaultDateSerializeLayouts are tried in order; the first that
	// reproduces the value exactly is used. Layouts without a zone read back
	// as UTC, so times in other zones fall through to the offset layouts.
	DefaultDateSerializeLayouts = []string{
		"2006-01-02",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05.000000",
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02T15:04:05.000000Z07:00",
	}
	// DefaultDateDeserializeLayouts are tried in order when parsing strings.
	DefaultDateDeserializeLayouts = []string{
		"2006-01-02T15:04:05.000000",
		"2006-01-02T15:04:05",
		"2006-01-02",
		"2006-01-02T15:04:05.000000Z07:00",
		"2006-01-02T15:04:05Z07:00",
	}
	ordinalEpoch = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// DateSerializer writes times as strings using the first layout in Layouts
// that round-trips exactly. With no layouts it writes a POSIX timestamp.
type DateSerializer struct {
	Layouts []string
}

// NewDateSerializer returns a serializer with DefaultDateSerializeLayouts.
func NewDateSerializer() DateSerializer {
	return DateSerializer{Layouts: DefaultDateSerializeLayouts}
}

func (s DateSerializer) Serialize(name string, obj Parameterized) (any, error) {
	v := obj.Get(name)
	if v == nil {
		return nil, nil
	}
	t, ok := v.(time.Time)
	if !ok {
		return castString(v), nil
	}
	return s.encode(name, obj, t), nil
}

func (s DateSerializer) Help(name string, obj Parameterized) string {
	t, ok := obj.Get(name).(time.Time)
	if !ok {
		return ""
	}
	return s.help(t)
}

func (s DateSerializer) encode(name string, obj Parameterized, t time.Time) any {
	if len(s.Layouts) == 0 {
		return timestamp(t)
	}
	str, _, exact := formatDate(t, s.Layouts)
	if !exact {
		loggerFor(nil, obj).Warn(fmt.Sprintf("Loss of info for datetime %s in serialized format string", t),
			loggerField(obj, name))
	}
	return str
}

func (s DateSerializer) help(t time.Time) string {
	if len(s.Layouts) == 0 {
		return "Timestamp"
	}
	_, layout, _ := formatDate(t, s.Layouts)
	return "Date format string: " + layout
}

// formatDate returns the first rendering that parses back to t, or the last
// rendering with exact=false. Renderings are parsed the way DateDeserializer
// parses them, with time.Parse.
func formatDate(t time.Time, layouts []string) (str, layout string, exact bool) {
	for _, layout = range layouts {
		str = t.Format(layout)
		back, err := time.Parse(layout, str)
		if err == nil && back.Equal(t) {
			return str, layout, true
		}
	}
	return str, layout, false
}

func timestamp(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

// DateRangeSerializer applies the DateSerializer policy to both ends of a range.
type DateRangeSerializer struct {
	DateSerializer
}

// NewDateRangeSerializer returns a serializer with DefaultDateSerializeLayouts.
func NewDateRangeSerializer() DateRangeSerializer {
	return DateRangeSerializer{DateSerializer: NewDateSerializer()}
}

func (s DateRangeSerializer) Serialize(name string, obj Parameterized) (any, error) {
	v := obj.Get(name)
	if v == nil {
		return nil, nil
	}
	r, ok := v.([2]time.Time)
	if !ok {
		return nil, typeErrorf(obj, name, "expected a date range, got %T", v)
	}
	return []any{s.encode(name, obj, r[0]), s.encode(name, obj, r[1])}, nil
}

// Help assumes both ends share a granularity and describes the start.
func (s DateRangeSerializer) Help(name string, obj Parameterized) string {
	r, ok := obj.Get(name).([2]time.Time)
	if !ok {
		return ""
	}
	return s.help(r[0])
}

// DateDeserializer parses times from strings with Layouts, from numbers as
// timestamps or ordinals, and finally from RFC 3339 strings.
type DateDeserializer struct {
	Layouts []string
}

// NewDateDeserializer returns a deserializer with DefaultDateDeserializeLayouts.
func NewDateDeserializer() DateDeserializer {
	return DateDeserializer{Layouts: DefaultDateDeserializeLayouts}
}

func (d DateDeserializer) Deserialize(name string, raw any, obj Parameterized) error {
	if done, err := noneCheck(name, raw, obj); done {
		return err
	}
	t, ok := d.parse(raw)
	if !ok {
		return typeErrorf(obj, name, "cannot convert \"%v\" to datetime", raw)
	}
	return set(obj, name, t)
}

func (d DateDeserializer) parse(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v != nil {
			return *v, true
		}
		return time.Time{}, false
	case string:
		for _, layout := range d.Layouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
	}

	if f, err := castFloat(raw); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		if _, isBool := raw.(bool); !isBool {
			if f != math.Trunc(f) || f > maxOrdinal {
				sec, frac := math.Modf(f)
				return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC(), true
			}
			if f >= 1 {
				return ordinalEpoch.AddDate(0, 0, int(f)-1), true
			}
		}
	}

	if s, ok := raw.(string); ok {
		for _, layout := range []string{time.RFC3339Nano, time.DateTime} {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// DateRangeDeserializer parses both ends of a range with the DateDeserializer policy.
type DateRangeDeserializer struct {
	DateDeserializer
}

// NewDateRangeDeserializer returns a deserializer with DefaultDateDeserializeLayouts.
func NewDateRangeDeserializer() DateRangeDeserializer {
	return DateRangeDeserializer{DateDeserializer: NewDateDeserializer()}
}

func (d DateRangeDeserializer) Deserialize(name string, raw any, obj Parameterized) error {
	if done, err := noneCheck(name, raw, obj); done {
		return err
	}
	elems, ok := toSlice(raw)
	if !ok || len(elems) != 2 {
		return typeErrorf(obj, name, "cannot convert \"%v\" to a date range", raw)
	}
	var r [2]time.Time
	for i, e := range elems {
		t, ok := d.parse(e)
		if !ok {
			return typeErrorf(obj, name, "cannot convert \"%v\" from \"%v\" to datetime", e, raw)
		}
		r[i] = t
	}
	return set(obj, name, r)
}
