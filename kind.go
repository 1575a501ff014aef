// FILE: lixenwraith/paramconfig/kind.go
package paramconfig

import (
	"fmt"
	"strings"
)

// Kind is the declared category of an attribute. Converter lookup dispatches on it.
type Kind int

const (
	KindParameter Kind = iota // untyped attribute, verbatim conversion
	KindString
	KindInteger
	KindNumber
	KindMagnitude
	KindBoolean
	KindArray
	KindTuple
	KindNumericTuple
	KindRange
	KindXYCoordinates
	KindList
	KindHookList
	KindDict
	KindDate
	KindDateRange
	KindObjectSelector
	KindListSelector
	KindMultiFileSelector
	KindClassSelector
	KindDataFrame
	KindSeries
	kindCount
)

var kindNames = [...]string{
	KindParameter:         "Parameter",
	KindString:            "String",
	KindInteger:           "Integer",
	KindNumber:            "Number",
	KindMagnitude:         "Magnitude",
	KindBoolean:           "Boolean",
	KindArray:             "Array",
	KindTuple:             "Tuple",
	KindNumericTuple:      "NumericTuple",
	KindRange:             "Range",
	KindXYCoordinates:     "XYCoordinates",
	KindList:              "List",
	KindHookList:          "HookList",
	KindDict:              "Dict",
	KindDate:              "Date",
	KindDateRange:         "DateRange",
	KindObjectSelector:    "ObjectSelector",
	KindListSelector:      "ListSelector",
	KindMultiFileSelector: "MultiFileSelector",
	KindClassSelector:     "ClassSelector",
	KindDataFrame:         "DataFrame",
	KindSeries:            "Series",
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k >= 0 && k < kindCount
}

// ParseKind resolves a kind by name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(name, s) {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown attribute kind %q", s)
}

// Kinds returns every declared kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// isNumericTuple reports kinds whose elements are cast to float64.
func (k Kind) isNumericTuple() bool {
	return k == KindNumericTuple || k == KindRange || k == KindXYCoordinates
}
