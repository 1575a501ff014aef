// FILE: lixenwraith/paramconfig/errors.go
package paramconfig

import (
	"errors"
	"fmt"
)

var (
	ErrMissingKey     = errors.New("missing key")
	ErrInvalidPolicy  = errors.New("invalid missing-key policy")
	ErrINIDepth       = errors.New("INI format cannot serialize hierarchical parameterized dictionaries greater than depth 1")
	ErrTargetConflict = errors.New("invalid flag target")
	ErrNoYAMLBackend  = errors.New("no YAML backend available")
	ErrShapeMismatch  = errors.New("data and object trees differ in shape")
	ErrNotCloneable   = errors.New("parameterized instance cannot be cloned")
	ErrUnknownParam   = errors.New("unknown parameter")
	ErrAmbiguousName  = errors.New("ambiguous tunable name")
)

// TypeError is the single error type returned when a value cannot be
// converted to or from an attribute. Its message reads "object.attribute: message".
type TypeError struct {
	Object    string
	Attribute string
	Message   string
	Err       error
}

func (e *TypeError) Error() string {
	msg := e.Message
	switch {
	case msg == "" && e.Err != nil:
		msg = e.Err.Error()
	case e.Err != nil:
		msg = msg + ": " + e.Err.Error()
	}
	return fmt.Sprintf("%s.%s: %s", e.Object, e.Attribute, msg)
}

func (e *TypeError) Unwrap() error {
	return e.Err
}

// typeErrorf builds a TypeError for the attribute name of obj.
func typeErrorf(obj Parameterized, name string, format string, args ...any) *TypeError {
	return &TypeError{Object: obj.Name(), Attribute: name, Message: fmt.Sprintf(format, args...)}
}

// wrapTypeError wraps err unless it already is a TypeError.
func wrapTypeError(obj Parameterized, name string, err error) error {
	if err == nil {
		return nil
	}
	var te *TypeError
	if errors.As(err, &te) {
		return err
	}
	return &TypeError{Object: obj.Name(), Attribute: name, Err: err}
}
