// FILE: lixenwraith/paramconfig/decode.go
package paramconfig

import (
	"encoding"
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// decodeInto is the single decoding path for building Go values out of raw
// file data. target must be a non-nil pointer.
func decodeInto(raw any, target any, tagName string) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("decode target must be non-nil pointer, got %T", target)
	}
	if m, ok := raw.(*Map); ok {
		raw = m.ToMap()
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          tagName,
		WeaklyTypedInput: true,
		DecodeHook:       decodeHook(),
		ZeroFields:       true,
	})
	if err != nil {
		return fmt.Errorf("decoder creation failed: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	return nil
}

// decodeHook returns the composite hook for all string-sourced conversions
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		stringToURLHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
		mapstructure.TextUnmarshallerHookFunc(),
	)
}

// stringToURLHookFunc handles url.URL conversion
func stringToURLHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		isPtr := t.Kind() == reflect.Ptr
		targetType := t
		if isPtr {
			targetType = t.Elem()
		}
		if targetType != reflect.TypeOf(url.URL{}) {
			return data, nil
		}

		str := data.(string)
		if len(str) > 2048 {
			return nil, fmt.Errorf("URL too long: %d bytes", len(str))
		}
		u, err := url.Parse(str)
		if err != nil {
			return nil, fmt.Errorf("invalid URL: %w", err)
		}
		if isPtr {
			return u, nil
		}
		return *u, nil
	}
}

// castInt converts raw to int64 the way a native integer cast would:
// decimal strings parse, floats truncate, booleans become 0/1. Strings are
// parsed in base 10 only, so prefixed literals such as "0x10" are rejected.
func castInt(raw any) (int64, error) {
	if s, ok := raw.(string); ok {
		out, err := strconv.ParseInt(decimalDigits(strings.TrimSpace(s)), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid literal for integer: %q", s)
		}
		return out, nil
	}
	var out int64
	if err := mapstructure.WeakDecode(raw, &out); err != nil {
		return 0, fmt.Errorf("cannot convert %v (%T) to integer: %w", raw, raw, err)
	}
	return out, nil
}

// decimalDigits drops single underscores between digits ("1_000").
// Anything else is returned unchanged for ParseInt to judge.
func decimalDigits(s string) string {
	if !strings.Contains(s, "_") {
		return s
	}
	for i := 0; i < len(s); i++ {
		if s[i] != '_' {
			continue
		}
		if i == 0 || i == len(s)-1 || !isDigit(s[i-1]) || !isDigit(s[i+1]) {
			return s
		}
	}
	return strings.ReplaceAll(s, "_", "")
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

// castFloat converts raw to float64.
func castFloat(raw any) (float64, error) {
	if s, ok := raw.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, fmt.Errorf("could not convert string to float: %q", raw)
		}
		raw = s
	}
	var out float64
	if err := mapstructure.WeakDecode(raw, &out); err != nil {
		return 0, fmt.Errorf("cannot convert %v (%T) to float: %w", raw, raw, err)
	}
	return out, nil
}

// castString converts raw to its string form.
func castString(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case fmt.Stringer:
		return v.String()
	}
	var out string
	if err := mapstructure.WeakDecode(raw, &out); err == nil {
		return out
	}
	return fmt.Sprint(raw)
}

// toFloat reports numeric values as float64 without parsing strings.
func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	}
	if n, ok := v.(json.Number); ok {
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// toSlice views any slice or array as []any.
func toSlice(v any) ([]any, bool) {
	if a, ok := v.([]any); ok {
		return a, true
	}
	if _, ok := v.(string); ok {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// construct builds a value of class from raw, the way calling the class with
// raw as its only argument would.
func construct(class reflect.Type, raw any) (any, error) {
	if raw != nil && reflect.TypeOf(raw).AssignableTo(class) {
		return raw, nil
	}

	// Text-based types (net.IP, big numbers, custom enums)
	if s, ok := raw.(string); ok {
		if reflect.PointerTo(class).Implements(reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()) {
			ptr := reflect.New(class)
			if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
				return nil, fmt.Errorf("cannot construct %s from %q: %w", class, s, err)
			}
			return ptr.Elem().Interface(), nil
		}
	}

	switch class.Kind() {
	case reflect.Interface:
		return nil, fmt.Errorf("cannot construct interface type %s from %T", class, raw)
	case reflect.Ptr:
		ptr := reflect.New(class.Elem())
		if err := decodeInto(raw, ptr.Interface(), "param"); err != nil {
			return nil, fmt.Errorf("cannot construct %s: %w", class, err)
		}
		return ptr.Interface(), nil
	}

	ptr := reflect.New(class)
	if err := decodeInto(raw, ptr.Interface(), "param"); err != nil {
		return nil, fmt.Errorf("cannot construct %s: %w", class, err)
	}
	return ptr.Elem().Interface(), nil
}
