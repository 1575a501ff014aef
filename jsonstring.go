// FILE: lixenwraith/paramconfig/jsonstring.go
package paramconfig

import "strings"

// jsonStringKinds are the container kinds that string-only formats carry as JSON text.
var jsonStringKinds = []Kind{
	KindArray, KindDataFrame, KindDateRange, KindDict, KindList, KindHookList,
	KindListSelector, KindMultiFileSelector, KindNumericTuple, KindRange,
	KindSeries, KindTuple, KindXYCoordinates,
}

// fileSuffixes lists, per kind, the suffixes that mark a string as a file
// path to hand to the inner deserializer instead of decoding it as JSON.
var fileSuffixes = map[Kind][]string{
	KindArray:     arrayFileSuffixes,
	KindDataFrame: tableSuffixes,
	KindSeries:    tableSuffixes,
}

// JSONStringSerializer encodes the output of Inner as a JSON string.
type JSONStringSerializer struct {
	Inner Serializer
}

func (s JSONStringSerializer) Serialize(name string, obj Parameterized) (any, error) {
	v, err := s.Inner.Serialize(name, obj)
	if err != nil || v == nil {
		return v, err
	}
	b, err := marshalJSON(v)
	if err != nil {
		return nil, wrapTypeError(obj, name, err)
	}
	return string(b), nil
}

func (s JSONStringSerializer) Help(name string, obj Parameterized) string {
	if h := helpOf(s.Inner, name, obj); h != "" {
		return "A JSON object. " + h
	}
	return "A JSON object"
}

// JSONStringDeserializer decodes a JSON string and hands the result to Inner.
// Strings ending in one of FileSuffixes go to Inner untouched.
type JSONStringDeserializer struct {
	Inner        Deserializer
	FileSuffixes []string
}

func (d JSONStringDeserializer) Deserialize(name string, raw any, obj Parameterized) error {
	if done, err := noneCheck(name, raw, obj); done {
		return err
	}
	s, ok := raw.(string)
	if !ok {
		return d.Inner.Deserialize(name, raw, obj)
	}
	if len(d.FileSuffixes) > 0 && hasSuffix(s, d.FileSuffixes) {
		return d.Inner.Deserialize(name, s, obj)
	}
	v, err := decodeJSON(strings.NewReader(s))
	if err != nil {
		return wrapTypeError(obj, name, err)
	}
	return d.Inner.Deserialize(name, v, obj)
}

// noneTokenDeserializer reads the literal "None" or "none" as nil for
// attributes that allow it.
type noneTokenDeserializer struct {
	Inner Deserializer
}

func (d noneTokenDeserializer) Deserialize(name string, raw any, obj Parameterized) error {
	if s, ok := raw.(string); ok && (s == "None" || s == "none") {
		if p, ok := obj.Param(name); ok && p.AllowNone {
			return set(obj, name, nil)
		}
	}
	return d.Inner.Deserialize(name, raw, obj)
}
