// FILE: lixenwraith/paramconfig/struct.go
package paramconfig

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// StructTag names the field tag FromStruct and Decode read attribute names
// from. The "doc" tag supplies documentation.
const StructTag = "param"

var (
	timeType      = reflect.TypeOf(time.Time{})
	dateRangeType = reflect.TypeOf([2]time.Time{})
	durationType  = reflect.TypeOf(time.Duration(0))
	tableType     = reflect.TypeOf((*Table)(nil))
	seriesType    = reflect.TypeOf(SeriesValue(nil))
	float64sType  = reflect.TypeOf([]float64(nil))
	dictType      = reflect.TypeOf(map[string]any(nil))
)

// FromStruct declares an object from the exported fields of a struct,
// using the field values as defaults. The kind of each attribute follows
// the Go type. Nested structs are flattened into dotted attribute names.
func FromStruct(name string, structWithDefaults any) (*Object, error) {
	v := reflect.ValueOf(structWithDefaults)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, fmt.Errorf("FromStruct requires a non-nil struct pointer or value")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("FromStruct requires a struct or struct pointer, got %T", structWithDefaults)
	}

	var (
		params []*Param
		errs   []string
	)
	structFields(v, "", &params, &errs)
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to declare %d field(s): %s", len(errs), strings.Join(errs, "; "))
	}
	return New(name, params...)
}

func structFields(v reflect.Value, prefix string, params *[]*Param, errs *[]string) {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)
		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get(StructTag)
		if tag == "-" {
			continue
		}
		key := field.Name
		if tag != "" {
			if parts := strings.Split(tag, ","); parts[0] != "" {
				key = parts[0]
			}
		}
		path := key
		if prefix != "" {
			path = joinPath(prefix, key)
		}

		ft := field.Type
		if ft.Kind() == reflect.Struct && ft != timeType {
			structFields(fieldValue, path, params, errs)
			continue
		}
		if ft.Kind() == reflect.Ptr && ft.Elem().Kind() == reflect.Struct && ft != tableType {
			if fieldValue.IsNil() {
				continue
			}
			structFields(fieldValue.Elem(), path, params, errs)
			continue
		}

		if path == NameParam {
			*errs = append(*errs, fmt.Sprintf("field %s: attribute %q is reserved", field.Name, NameParam))
			continue
		}
		p := paramForField(path, ft, fieldValue.Interface())
		if doc := field.Tag.Get("doc"); doc != "" {
			p.Doc = doc
		}
		*params = append(*params, p)
	}
}

// paramForField picks the attribute kind for a Go field type.
func paramForField(name string, t reflect.Type, def any) *Param {
	switch t {
	case timeType:
		return Date(name, def.(time.Time))
	case dateRangeType:
		r := def.([2]time.Time)
		if r[0].IsZero() && r[1].IsZero() {
			return DateRange(name, nil)
		}
		return DateRange(name, &r)
	case durationType:
		return Parameter(name, def.(time.Duration).String())
	case tableType:
		return DataFrame(name, def.(*Table))
	case seriesType:
		return Series(name, def.(SeriesValue))
	case float64sType:
		return Array(name, def.([]float64))
	case dictType:
		return Dict(name, def.(map[string]any))
	}

	rv := reflect.ValueOf(def)
	switch t.Kind() {
	case reflect.String:
		return String(name, rv.String())
	case reflect.Bool:
		return Boolean(name, rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Integer(name, rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Integer(name, int64(rv.Uint()), Bounds(0, float64(^uint64(0))))
	case reflect.Float32, reflect.Float64:
		return Number(name, rv.Float())
	case reflect.Slice, reflect.Array:
		elems, _ := toSlice(def)
		var opts []Option
		if et := t.Elem(); et.Kind() != reflect.Interface {
			opts = append(opts, Class(et))
		}
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			elems = nil
		}
		return List(name, elems, opts...)
	case reflect.Map:
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[fmt.Sprint(iter.Key().Interface())] = iter.Value().Interface()
		}
		return Dict(name, m)
	}
	return Parameter(name, def)
}

// Decode copies the current values into target, a pointer to a struct
// tagged like the one FromStruct was given. Dotted attribute names fill
// nested structs.
func (o *Object) Decode(target any) error {
	nested := NewMap()
	for _, n := range o.order {
		if n == NameParam {
			continue
		}
		setNestedValue(nested, strings.Split(n, PathDelimiter), decodableValue(o.values[n]))
	}
	if err := decodeInto(nested, target, StructTag); err != nil {
		return fmt.Errorf("failed to decode %q into %T: %w", o.Name(), target, err)
	}
	return nil
}

// decodableValue adapts values mapstructure cannot convert on its own.
func decodableValue(v any) any {
	switch t := v.(type) {
	case [2]time.Time:
		return []time.Time{t[0], t[1]}
	case SeriesValue:
		return []any(t)
	}
	return v
}
