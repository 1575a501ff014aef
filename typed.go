// File: lixenwraith/paramconfig/typed.go
package paramconfig

import (
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// value returns the current value of a declared attribute.
func (o *Object) value(name string) (any, error) {
	if _, ok := o.params[name]; !ok {
		return nil, fmt.Errorf("%w %q in %q", ErrUnknownParam, name, o.Name())
	}
	return o.values[name], nil
}

// String retrieves an attribute as a string.
// Attempts conversion from common types if the stored value isn't already a string.
func (o *Object) String(name string) (string, error) {
	val, err := o.value(name)
	if err != nil {
		return "", err
	}
	if val == nil {
		return "", nil // Treat nil as empty string for convenience
	}

	switch v := val.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	case []byte:
		return string(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case reflect.Type:
		return v.String(), nil
	default:
		return "", fmt.Errorf("cannot convert type %T to string for %s.%s", val, o.Name(), name)
	}
}

// Int64 retrieves an attribute as an int64.
// Attempts conversion from numeric types, parsable strings, and booleans.
func (o *Object) Int64(name string) (int64, error) {
	val, err := o.value(name)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return 0, fmt.Errorf("value of %s.%s is None, cannot convert to int64", o.Name(), name)
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Float32, reflect.Float64:
		return int64(v.Float()), nil // Truncate
	case reflect.String:
		s := v.String()
		i, err := strconv.ParseInt(s, 0, 64)
		if err == nil {
			return i, nil
		}
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			return int64(f), nil
		}
		return 0, fmt.Errorf("cannot convert string %q to int64 for %s.%s: %w", s, o.Name(), name, err)
	case reflect.Bool:
		if v.Bool() {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("cannot convert type %T to int64 for %s.%s", val, o.Name(), name)
}

// Float64 retrieves an attribute as a float64.
func (o *Object) Float64(name string) (float64, error) {
	val, err := o.value(name)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return 0, fmt.Errorf("value of %s.%s is None, cannot convert to float64", o.Name(), name)
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), nil
	case reflect.String:
		s := v.String()
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert string %q to float64 for %s.%s: %w", s, o.Name(), name, err)
		}
		return f, nil
	case reflect.Bool:
		if v.Bool() {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("cannot convert type %T to float64 for %s.%s", val, o.Name(), name)
}

// Bool retrieves an attribute as a bool. Strings accept the same tokens
// the boolean converter does; numbers are true when non-zero.
func (o *Object) Bool(name string) (bool, error) {
	val, err := o.value(name)
	if err != nil {
		return false, err
	}
	if val == nil {
		return false, fmt.Errorf("value of %s.%s is None, cannot convert to bool", o.Name(), name)
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.String:
		s := v.String()
		if inTokens(s, trueTokens) {
			return true, nil
		}
		if inTokens(s, falseTokens) {
			return false, nil
		}
		return false, fmt.Errorf("cannot convert string %q to bool for %s.%s", s, o.Name(), name)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() != 0, nil
	case reflect.Float32, reflect.Float64:
		return v.Float() != 0, nil
	}
	return false, fmt.Errorf("cannot convert type %T to bool for %s.%s", val, o.Name(), name)
}

// Time retrieves a Date attribute, parsing strings as RFC 3339.
func (o *Object) Time(name string) (time.Time, error) {
	val, err := o.value(name)
	if err != nil {
		return time.Time{}, err
	}
	switch v := val.(type) {
	case nil:
		return time.Time{}, fmt.Errorf("value of %s.%s is None, cannot convert to time", o.Name(), name)
	case time.Time:
		return v, nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("cannot convert string %q to time for %s.%s: %w", v, o.Name(), name, err)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("cannot convert type %T to time for %s.%s", val, o.Name(), name)
}
