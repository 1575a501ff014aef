// FILE: lixenwraith/paramconfig/array.go
package paramconfig

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// arrayFileSuffixes are the suffixes treated as paths to array files.
var arrayFileSuffixes = []string{"npy", "csv", "txt"}

// ArraySerializer writes an array as a list of numbers.
type ArraySerializer struct{}

func (ArraySerializer) Serialize(name string, obj Parameterized) (any, error) {
	a, ok := obj.Get(name).([]float64)
	if !ok || a == nil {
		return nil, nil
	}
	out := make([]any, len(a))
	for i, f := range a {
		out[i] = f
	}
	return out, nil
}

// ArrayDeserializer reads arrays from numbers, .npy/.csv/.txt files,
// little-endian float64 buffers, or delimited numeric text.
type ArrayDeserializer struct{}

func (ArrayDeserializer) Deserialize(name string, raw any, obj Parameterized) error {
	if done, err := noneCheck(name, raw, obj); done {
		return err
	}
	var (
		a   []float64
		err error
	)
	switch v := raw.(type) {
	case []float64:
		a = v
	case []byte:
		a, err = decodeFloat64Buffer(v)
	case string:
		switch fileSuffix(v) {
		case "npy":
			a, err = loadNPY(v)
		case "csv", "txt":
			a, err = loadNumericText(v)
		default:
			a, err = parseNumericText(v)
		}
	default:
		elems, ok := toSlice(v)
		if !ok {
			return typeErrorf(obj, name, "cannot convert %v (%T) to an array", raw, raw)
		}
		a = make([]float64, len(elems))
		for i, e := range elems {
			if a[i], err = castFloat(e); err != nil {
				err = fmt.Errorf("element %d: %w", i, err)
				break
			}
		}
	}
	if err != nil {
		return wrapTypeError(obj, name, err)
	}
	return set(obj, name, a)
}

func decodeFloat64Buffer(b []byte) ([]float64, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("buffer size %d is not a multiple of element size 8", len(b))
	}
	out := make([]float64, len(b)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return out, nil
}

var numericSep = regexp.MustCompile(`[\s,;]+`)

// parseNumericText reads numbers separated by commas, semicolons or whitespace.
func parseNumericText(s string) ([]float64, error) {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	out := []float64{}
	for _, field := range numericSep.Split(s, -1) {
		if field == "" {
			continue
		}
		f, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("string is not a delimited list of numbers: %w", err)
		}
		out = append(out, f)
	}
	return out, nil
}

func loadNumericText(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open array '%s': %w", path, err)
	}
	defer f.Close()

	var out []float64
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		vals, err := parseNumericText(line)
		if err != nil {
			return nil, fmt.Errorf("failed to parse array '%s': %w", path, err)
		}
		out = append(out, vals...)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read array '%s': %w", path, err)
	}
	return out, nil
}

var (
	npyMagic   = []byte("\x93NUMPY")
	npyDescrRe = regexp.MustCompile(`'descr'\s*:\s*'([<>|=])([fiub])(\d+)'`)
	npyOrderRe = regexp.MustCompile(`'fortran_order'\s*:\s*(True|False)`)
)

// loadNPY reads a numeric .npy file, flattening it in C order.
func loadNPY(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open array '%s': %w", path, err)
	}
	defer f.Close()

	a, err := readNPY(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("failed to read array '%s': %w", path, err)
	}
	return a, nil
}

func readNPY(r io.Reader) ([]float64, error) {
	prefix := make([]byte, 8)
	if _, err := io.ReadFull(r, prefix); err != nil {
		return nil, err
	}
	if !bytes.Equal(prefix[:6], npyMagic) {
		return nil, fmt.Errorf("not an npy file")
	}

	var headerLen int
	switch prefix[6] {
	case 1:
		var n uint16
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, err
		}
		headerLen = int(n)
	case 2, 3:
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, err
		}
		headerLen = int(n)
	default:
		return nil, fmt.Errorf("unsupported npy version %d", prefix[6])
	}
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	m := npyDescrRe.FindSubmatch(header)
	if m == nil {
		return nil, fmt.Errorf("unsupported npy dtype in header %q", header)
	}
	if o := npyOrderRe.FindSubmatch(header); o != nil && string(o[1]) == "True" {
		return nil, fmt.Errorf("fortran-ordered npy arrays are not supported")
	}
	var order binary.ByteOrder = binary.LittleEndian
	if m[1][0] == '>' {
		order = binary.BigEndian
	}
	size, _ := strconv.Atoi(string(m[3]))
	read := npyElemReader(m[2][0], size, order)
	if read == nil {
		return nil, fmt.Errorf("unsupported npy dtype %s%s", m[2], m[3])
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data)%size != 0 {
		return nil, fmt.Errorf("truncated npy data")
	}
	out := make([]float64, len(data)/size)
	for i := range out {
		out[i] = read(data[i*size:])
	}
	return out, nil
}

func npyElemReader(kind byte, size int, order binary.ByteOrder) func([]byte) float64 {
	switch {
	case kind == 'f' && size == 8:
		return func(b []byte) float64 { return math.Float64frombits(order.Uint64(b)) }
	case kind == 'f' && size == 4:
		return func(b []byte) float64 { return float64(math.Float32frombits(order.Uint32(b))) }
	case kind == 'i' && size == 8:
		return func(b []byte) float64 { return float64(int64(order.Uint64(b))) }
	case kind == 'i' && size == 4:
		return func(b []byte) float64 { return float64(int32(order.Uint32(b))) }
	case kind == 'i' && size == 2:
		return func(b []byte) float64 { return float64(int16(order.Uint16(b))) }
	case kind == 'i' && size == 1:
		return func(b []byte) float64 { return float64(int8(b[0])) }
	case (kind == 'u' || kind == 'b') && size == 1:
		return func(b []byte) float64 { return float64(b[0]) }
	case kind == 'u' && size == 2:
		return func(b []byte) float64 { return float64(order.Uint16(b)) }
	case kind == 'u' && size == 4:
		return func(b []byte) float64 { return float64(order.Uint32(b)) }
	case kind == 'u' && size == 8:
		return func(b []byte) float64 { return float64(order.Uint64(b)) }
	}
	return nil
}
