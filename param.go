// FILE: lixenwraith/paramconfig/param.go
package paramconfig

import (
	"fmt"
	"math"
	"path/filepath"
	"reflect"
	"sort"
	"time"
)

// NameParam is the identity attribute every Object declares. It is never
// serialized unless requested explicitly.
const NameParam = "name"

// Choice is one named allowed value of a selector attribute.
type Choice struct {
	Name  string
	Value any
}

// Param describes a declared attribute.
type Param struct {
	Name       string
	Kind       Kind
	Default    any
	Doc        string
	AllowNone  bool
	Lower      float64 // inclusive; -Inf when unbounded
	Upper      float64 // inclusive; +Inf when unbounded
	Choices    []Choice
	Class      reflect.Type // element class (List, HookList) or selector class (ClassSelector)
	IsInstance bool
	Length     int    // fixed tuple length; 0 means any
	Pattern    string // MultiFileSelector glob
}

// Range returns the allowed values keyed by name, in declaration order.
func (p *Param) Range() []Choice {
	return p.Choices
}

// ChoiceNames lists choice names in declaration order.
func (p *Param) ChoiceNames() []string {
	names := make([]string, len(p.Choices))
	for i, c := range p.Choices {
		names[i] = c.Name
	}
	return names
}

// Bounded reports whether either bound is finite.
func (p *Param) Bounded() bool {
	return !math.IsInf(p.Lower, -1) || !math.IsInf(p.Upper, 1)
}

// Option configures a Param at declaration.
type Option func(*Param)

// Doc sets the documentation string.
func Doc(doc string) Option {
	return func(p *Param) { p.Doc = doc }
}

// AllowNone permits nil values.
func AllowNone() Option {
	return func(p *Param) { p.AllowNone = true }
}

// Bounds sets inclusive numeric bounds. Use math.Inf for an open side.
func Bounds(lower, upper float64) Option {
	return func(p *Param) {
		p.Lower = lower
		p.Upper = upper
	}
}

// Objects declares selector choices named by their formatted value.
func Objects(values ...any) Option {
	return func(p *Param) {
		for _, v := range values {
			p.Choices = append(p.Choices, Choice{Name: choiceName(v), Value: v})
		}
	}
}

// Choices declares explicitly named selector choices.
func Choices(choices ...Choice) Option {
	return func(p *Param) { p.Choices = append(p.Choices, choices...) }
}

// Class sets the nested class. For ClassSelector without IsInstance, the
// choices default to the class itself when none are declared.
func Class(t reflect.Type) Option {
	return func(p *Param) { p.Class = t }
}

// IsInstance makes a ClassSelector hold instances rather than types.
func IsInstance() Option {
	return func(p *Param) { p.IsInstance = true }
}

// Length fixes the element count of a tuple kind.
func Length(n int) Option {
	return func(p *Param) { p.Length = n }
}

// Glob sets the pattern a MultiFileSelector draws its choices from.
func Glob(pattern string) Option {
	return func(p *Param) { p.Pattern = pattern }
}

func choiceName(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case reflect.Type:
		return t.Name()
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

func declare(name string, kind Kind, def any, opts []Option) *Param {
	p := &Param{
		Name:    name,
		Kind:    kind,
		Default: def,
		Lower:   math.Inf(-1),
		Upper:   math.Inf(1),
	}
	for _, opt := range opts {
		opt(p)
	}
	if def == nil && kind != KindListSelector && kind != KindMultiFileSelector {
		p.AllowNone = true
	}
	return p
}

// Parameter declares an untyped attribute.
func Parameter(name string, def any, opts ...Option) *Param {
	return declare(name, KindParameter, def, opts)
}

// String declares a string attribute.
func String(name, def string, opts ...Option) *Param {
	return declare(name, KindString, def, opts)
}

// Integer declares an int64 attribute.
func Integer(name string, def int64, opts ...Option) *Param {
	return declare(name, KindInteger, def, opts)
}

// Number declares a float64 attribute.
func Number(name string, def float64, opts ...Option) *Param {
	return declare(name, KindNumber, def, opts)
}

// Magnitude declares a float64 attribute bounded to [0, 1].
func Magnitude(name string, def float64, opts ...Option) *Param {
	return declare(name, KindMagnitude, def, append([]Option{Bounds(0, 1)}, opts...))
}

// Boolean declares a bool attribute.
func Boolean(name string, def bool, opts ...Option) *Param {
	return declare(name, KindBoolean, def, opts)
}

// Array declares a dense float64 buffer.
func Array(name string, def []float64, opts ...Option) *Param {
	return declare(name, KindArray, nilIfEmpty(def), opts)
}

// Tuple declares a fixed-size heterogeneous sequence. Length defaults to len(def).
func Tuple(name string, def []any, opts ...Option) *Param {
	return declare(name, KindTuple, nilIfEmpty(def), append([]Option{Length(len(def))}, opts...))
}

// NumericTuple declares a fixed-size float64 sequence. Length defaults to len(def).
func NumericTuple(name string, def []float64, opts ...Option) *Param {
	return declare(name, KindNumericTuple, nilIfEmpty(def), append([]Option{Length(len(def))}, opts...))
}

// Range declares a numeric (low, high) pair.
func Range(name string, def []float64, opts ...Option) *Param {
	return declare(name, KindRange, nilIfEmpty(def), append([]Option{Length(2)}, opts...))
}

// XYCoordinates declares a numeric (x, y) pair.
func XYCoordinates(name string, def []float64, opts ...Option) *Param {
	return declare(name, KindXYCoordinates, nilIfEmpty(def), append([]Option{Length(2)}, opts...))
}

// List declares a list attribute; Class constrains its elements.
func List(name string, def []any, opts ...Option) *Param {
	if def == nil {
		def = []any{}
	}
	return declare(name, KindList, def, opts)
}

// HookList declares a list of callables or hooks.
func HookList(name string, def []any, opts ...Option) *Param {
	if def == nil {
		def = []any{}
	}
	return declare(name, KindHookList, def, opts)
}

// Dict declares a string-keyed mapping.
func Dict(name string, def map[string]any, opts ...Option) *Param {
	var v any
	if def != nil {
		v = def
	}
	return declare(name, KindDict, v, opts)
}

// Date declares a time.Time attribute. A zero def declares no default.
func Date(name string, def time.Time, opts ...Option) *Param {
	var v any
	if !def.IsZero() {
		v = def
	}
	return declare(name, KindDate, v, opts)
}

// DateRange declares a (start, end) pair of times. A nil def declares no default.
func DateRange(name string, def *[2]time.Time, opts ...Option) *Param {
	var v any
	if def != nil {
		v = *def
	}
	return declare(name, KindDateRange, v, opts)
}

// ObjectSelector declares an attribute restricted to its choices.
func ObjectSelector(name string, def any, opts ...Option) *Param {
	return declare(name, KindObjectSelector, def, opts)
}

// ListSelector declares a list whose elements are restricted to the choices.
// It never allows nil.
func ListSelector(name string, def []any, opts ...Option) *Param {
	if def == nil {
		def = []any{}
	}
	return declare(name, KindListSelector, def, opts)
}

// MultiFileSelector declares a list of files; choices come from Glob.
func MultiFileSelector(name string, def []any, opts ...Option) *Param {
	if def == nil {
		def = []any{}
	}
	p := declare(name, KindMultiFileSelector, def, opts)
	if p.Pattern != "" && len(p.Choices) == 0 {
		matches, _ := filepath.Glob(p.Pattern)
		sort.Strings(matches)
		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil {
				abs = m
			}
			p.Choices = append(p.Choices, Choice{Name: m, Value: abs})
		}
	}
	return p
}

// ClassSelector declares an attribute holding either an instance of class
// (with IsInstance) or a type assignable to class.
func ClassSelector(name string, class reflect.Type, def any, opts ...Option) *Param {
	p := declare(name, KindClassSelector, def, append([]Option{Class(class)}, opts...))
	if !p.IsInstance && len(p.Choices) == 0 && class != nil {
		p.Choices = []Choice{{Name: class.Name(), Value: class}}
	}
	return p
}

// DataFrame declares a tabular attribute.
func DataFrame(name string, def *Table, opts ...Option) *Param {
	var v any
	if def != nil {
		v = def
	}
	return declare(name, KindDataFrame, v, opts)
}

// Series declares a one-dimensional labelled sequence.
func Series(name string, def SeriesValue, opts ...Option) *Param {
	var v any
	if def != nil {
		v = def
	}
	return declare(name, KindSeries, v, opts)
}

func nilIfEmpty[T any](s []T) any {
	if s == nil {
		return nil
	}
	return s
}
