// FILE: lixenwraith/paramconfig/object.go
package paramconfig

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Parameterized is a typed object: a fixed, enumerable set of named attributes
// with declared kinds and validated assignment.
type Parameterized interface {
	Name() string
	Params() []*Param
	Param(name string) (*Param, bool)
	Get(name string) any
	Set(name string, value any) error
}

// Cloner is implemented by objects that can produce an independent copy.
type Cloner interface {
	Clone() Parameterized
}

// Object is the reference Parameterized implementation.
// It is not safe for concurrent mutation.
type Object struct {
	order  []string
	params map[string]*Param
	values map[string]any
	logger *zap.Logger
}

// New declares an object with the given attributes. The identity attribute
// "name" is declared implicitly and set to name.
func New(name string, params ...*Param) (*Object, error) {
	o := &Object{
		params: make(map[string]*Param, len(params)+1),
		values: make(map[string]any, len(params)+1),
	}
	all := append([]*Param{String(NameParam, name, Doc("String identifier for this object"))}, params...)
	for _, p := range all {
		if p == nil || p.Name == "" {
			return nil, fmt.Errorf("object %q: parameter name cannot be empty", name)
		}
		if _, exists := o.params[p.Name]; exists {
			return nil, fmt.Errorf("object %q: parameter %q declared twice", name, p.Name)
		}
		if !p.Kind.Valid() {
			return nil, fmt.Errorf("object %q: parameter %q has invalid kind %s", name, p.Name, p.Kind)
		}
		o.params[p.Name] = p
		o.order = append(o.order, p.Name)
		def, err := normalize(p, p.Default)
		if err == nil {
			err = validate(p, def)
		}
		if err != nil {
			return nil, fmt.Errorf("object %q: invalid default for %q: %w", name, p.Name, err)
		}
		o.values[p.Name] = copyValue(def)
	}
	return o, nil
}

// MustNew is like New but panics on error.
func MustNew(name string, params ...*Param) *Object {
	o, err := New(name, params...)
	if err != nil {
		panic(fmt.Sprintf("object declaration failed: %v", err))
	}
	return o
}

// Name returns the identity attribute.
func (o *Object) Name() string {
	s, _ := o.values[NameParam].(string)
	return s
}

// Params returns declared attributes in declaration order.
func (o *Object) Params() []*Param {
	out := make([]*Param, len(o.order))
	for i, n := range o.order {
		out[i] = o.params[n]
	}
	return out
}

// Param looks up one declared attribute.
func (o *Object) Param(name string) (*Param, bool) {
	p, ok := o.params[name]
	return p, ok
}

// Get returns the current value, or nil for undeclared names.
func (o *Object) Get(name string) any {
	return o.values[name]
}

// Set normalizes and validates value before assigning it.
func (o *Object) Set(name string, value any) error {
	p, ok := o.params[name]
	if !ok {
		return fmt.Errorf("%w %q in %q", ErrUnknownParam, name, o.Name())
	}
	v, err := normalize(p, value)
	if err != nil {
		return err
	}
	if err := validate(p, v); err != nil {
		return err
	}
	o.values[name] = v
	return nil
}

// Reset restores every attribute except the identity to its default.
func (o *Object) Reset() {
	for _, n := range o.order {
		if n == NameParam {
			continue
		}
		def, _ := normalize(o.params[n], o.params[n].Default)
		o.values[n] = copyValue(def)
	}
}

// Logger returns the object's warning logger, or nil when unset.
func (o *Object) Logger() *zap.Logger {
	return o.logger
}

// SetLogger routes this object's conversion warnings to logger.
func (o *Object) SetLogger(logger *zap.Logger) {
	o.logger = logger
}

// Copy returns an independent object with the same declarations and values.
func (o *Object) Copy() *Object {
	c := &Object{
		order:  append([]string(nil), o.order...),
		params: make(map[string]*Param, len(o.params)),
		values: make(map[string]any, len(o.values)),
		logger: o.logger,
	}
	for k, p := range o.params {
		c.params[k] = p
	}
	for k, v := range o.values {
		c.values[k] = copyValue(v)
	}
	return c
}

// Clone implements Cloner.
func (o *Object) Clone() Parameterized {
	return o.Copy()
}

// Values returns a snapshot of the current values keyed by attribute.
func (o *Object) Values() map[string]any {
	out := make(map[string]any, len(o.values))
	for k, v := range o.values {
		out[k] = copyValue(v)
	}
	return out
}

// Debug returns a human-readable dump of the object state
func (o *Object) Debug() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", o.Name())
	names := append([]string(nil), o.order...)
	sort.Strings(names)
	for _, n := range names {
		p := o.params[n]
		fmt.Fprintf(&b, "  %s (%s) = %v", n, p.Kind, o.values[n])
		if !valuesEqual(o.values[n], p.Default) {
			fmt.Fprintf(&b, " [default: %v]", p.Default)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// normalize widens Go values into the canonical representation of the kind.
func normalize(p *Param, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	switch p.Kind {
	case KindInteger:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return rv.Int(), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return int64(rv.Uint()), nil
		}
	case KindNumber, KindMagnitude:
		switch rv.Kind() {
		case reflect.Float32, reflect.Float64:
			return rv.Float(), nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return float64(rv.Int()), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return float64(rv.Uint()), nil
		}
	case KindArray, KindNumericTuple, KindRange, KindXYCoordinates:
		if f, ok := v.([]float64); ok {
			return f, nil
		}
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			out := make([]float64, rv.Len())
			for i := range out {
				f, ok := toFloat(rv.Index(i).Interface())
				if !ok {
					return nil, fmt.Errorf("element %d (%v) is not numeric", i, rv.Index(i).Interface())
				}
				out[i] = f
			}
			return out, nil
		}
	case KindTuple, KindList, KindHookList, KindListSelector, KindMultiFileSelector:
		if a, ok := v.([]any); ok {
			return a, nil
		}
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			out := make([]any, rv.Len())
			for i := range out {
				out[i] = rv.Index(i).Interface()
			}
			return out, nil
		}
	case KindDict:
		if m, ok := v.(*Map); ok {
			return m.ToMap(), nil
		}
	case KindDate:
		if t, ok := v.(*time.Time); ok && t != nil {
			return *t, nil
		}
	case KindDateRange:
		if ts, ok := v.([]time.Time); ok && len(ts) == 2 {
			return [2]time.Time{ts[0], ts[1]}, nil
		}
	case KindSeries:
		if a, ok := v.([]any); ok {
			return SeriesValue(a), nil
		}
	}
	return v, nil
}

// validate checks a normalized value against the descriptor.
func validate(p *Param, v any) error {
	if v == nil {
		if p.AllowNone {
			return nil
		}
		return fmt.Errorf("parameter %q does not accept None", p.Name)
	}
	switch p.Kind {
	case KindString:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("parameter %q expects a string, got %T", p.Name, v)
		}
	case KindInteger:
		i, ok := v.(int64)
		if !ok {
			return fmt.Errorf("parameter %q expects an integer, got %T", p.Name, v)
		}
		return checkBounds(p, float64(i))
	case KindNumber, KindMagnitude:
		f, ok := v.(float64)
		if !ok {
			return fmt.Errorf("parameter %q expects a number, got %T", p.Name, v)
		}
		return checkBounds(p, f)
	case KindBoolean:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("parameter %q expects a bool, got %T", p.Name, v)
		}
	case KindArray:
		if _, ok := v.([]float64); !ok {
			return fmt.Errorf("parameter %q expects []float64, got %T", p.Name, v)
		}
	case KindNumericTuple, KindRange, KindXYCoordinates:
		f, ok := v.([]float64)
		if !ok {
			return fmt.Errorf("parameter %q expects []float64, got %T", p.Name, v)
		}
		return checkLength(p, len(f))
	case KindTuple:
		a, ok := v.([]any)
		if !ok {
			return fmt.Errorf("parameter %q expects a tuple, got %T", p.Name, v)
		}
		return checkLength(p, len(a))
	case KindList, KindHookList:
		a, ok := v.([]any)
		if !ok {
			return fmt.Errorf("parameter %q expects a list, got %T", p.Name, v)
		}
		if p.Class != nil {
			for i, e := range a {
				if !isInstance(e, p.Class) {
					return fmt.Errorf("parameter %q element %d: %T is not a %s", p.Name, i, e, p.Class)
				}
			}
		}
	case KindDict:
		if _, ok := v.(map[string]any); !ok {
			return fmt.Errorf("parameter %q expects map[string]any, got %T", p.Name, v)
		}
	case KindDate:
		if _, ok := v.(time.Time); !ok {
			return fmt.Errorf("parameter %q expects time.Time, got %T", p.Name, v)
		}
	case KindDateRange:
		r, ok := v.([2]time.Time)
		if !ok {
			return fmt.Errorf("parameter %q expects [2]time.Time, got %T", p.Name, v)
		}
		if r[1].Before(r[0]) {
			return fmt.Errorf("parameter %q: end %s precedes start %s", p.Name, r[1], r[0])
		}
	case KindObjectSelector:
		if len(p.Choices) > 0 {
			if _, ok := findChoiceByValue(p, v); !ok {
				return fmt.Errorf("parameter %q: %v not in choices %v", p.Name, v, p.ChoiceNames())
			}
		}
	case KindListSelector, KindMultiFileSelector:
		a, ok := v.([]any)
		if !ok {
			return fmt.Errorf("parameter %q expects a list, got %T", p.Name, v)
		}
		for _, e := range a {
			if _, ok := findChoiceByValue(p, e); !ok {
				return fmt.Errorf("parameter %q: %v not in choices %v", p.Name, e, p.ChoiceNames())
			}
		}
	case KindClassSelector:
		if p.Class == nil {
			return nil
		}
		if p.IsInstance {
			if !isInstance(v, p.Class) {
				return fmt.Errorf("parameter %q expects an instance of %s, got %T", p.Name, p.Class, v)
			}
			return nil
		}
		t, ok := v.(reflect.Type)
		if !ok {
			return fmt.Errorf("parameter %q expects a type, got %T", p.Name, v)
		}
		if !t.AssignableTo(p.Class) && !(p.Class.Kind() == reflect.Interface && t.Implements(p.Class)) {
			return fmt.Errorf("parameter %q: %s is not a %s", p.Name, t, p.Class)
		}
	case KindDataFrame:
		if _, ok := v.(*Table); !ok {
			return fmt.Errorf("parameter %q expects *Table, got %T", p.Name, v)
		}
	case KindSeries:
		if _, ok := v.(SeriesValue); !ok {
			return fmt.Errorf("parameter %q expects SeriesValue, got %T", p.Name, v)
		}
	}
	return nil
}

func checkBounds(p *Param, f float64) error {
	if f < p.Lower || f > p.Upper {
		return fmt.Errorf("parameter %q: %v outside bounds [%v, %v]", p.Name, f, p.Lower, p.Upper)
	}
	return nil
}

func checkLength(p *Param, n int) error {
	if p.Length > 0 && n != p.Length {
		return fmt.Errorf("parameter %q: expected %d elements, got %d", p.Name, p.Length, n)
	}
	return nil
}

// isInstance reports whether v can be held where class is declared.
func isInstance(v any, class reflect.Type) bool {
	if v == nil {
		return false
	}
	t := reflect.TypeOf(v)
	return t.AssignableTo(class)
}

// copyValue copies slices and maps so objects never share mutable state.
func copyValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	case []float64:
		return append([]float64(nil), t...)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = copyValue(e)
		}
		return out
	case SeriesValue:
		return SeriesValue(copyValue([]any(t)).([]any))
	case *Table:
		return t.Copy()
	}
	return v
}
