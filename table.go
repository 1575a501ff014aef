// FILE: lixenwraith/paramconfig/table.go
package paramconfig

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Table is a small column-labelled row store backing the DataFrame kind.
type Table struct {
	Columns []string
	Rows    [][]any
}

// NewTable builds a table, naming unlabelled columns by index.
func NewTable(columns []string, rows [][]any) *Table {
	width := len(columns)
	for _, r := range rows {
		width = max(width, len(r))
	}
	cols := append([]string(nil), columns...)
	for i := len(cols); i < width; i++ {
		cols = append(cols, strconv.Itoa(i))
	}
	return &Table{Columns: cols, Rows: rows}
}

// Copy returns a deep copy.
func (t *Table) Copy() *Table {
	if t == nil {
		return nil
	}
	rows := make([][]any, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = append([]any(nil), r...)
	}
	return &Table{Columns: append([]string(nil), t.Columns...), Rows: rows}
}

// Column returns the values of the named column.
func (t *Table) Column(name string) ([]any, bool) {
	idx := -1
	for i, c := range t.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	out := make([]any, len(t.Rows))
	for i, r := range t.Rows {
		if idx < len(r) {
			out[i] = r[idx]
		}
	}
	return out, true
}

// Axes describes the row and column labels.
func (t *Table) Axes() string {
	return fmt.Sprintf("[rows 0..%d, columns %q]", len(t.Rows), t.Columns)
}

// SeriesValue is the value of a Series attribute.
type SeriesValue []any

// Axes describes the row labels.
func (s SeriesValue) Axes() string {
	return fmt.Sprintf("[rows 0..%d]", len(s))
}

// TableLoader reads a table from a file path.
type TableLoader func(path string) (*Table, error)

// DefaultTableLoaders handles the formats readable without extra dependencies.
// Other recognized suffixes need a loader registered on the deserializer.
func DefaultTableLoaders() map[string]TableLoader {
	return map[string]TableLoader{
		"csv":  func(p string) (*Table, error) { return loadDelimited(p, ',') },
		"tsv":  func(p string) (*Table, error) { return loadDelimited(p, '\t') },
		"json": loadJSONTable,
	}
}

// tableSuffixes are the file suffixes treated as paths to tabular files.
var tableSuffixes = []string{
	"csv", "tsv", "json", "html", "xls", "xlsx", "h5", "feather", "parquet", "dta", "sas7bdat", "pkl",
}

func fileSuffix(s string) string {
	ext := filepath.Ext(s)
	if len(ext) < 2 {
		return ""
	}
	return strings.ToLower(ext[1:])
}

func hasSuffix(s string, suffixes []string) bool {
	suffix := fileSuffix(s)
	for _, x := range suffixes {
		if suffix == x {
			return true
		}
	}
	return false
}

// loadTable picks a loader by suffix, falling back to tab-delimited text.
func loadTable(path string, loaders map[string]TableLoader) (*Table, error) {
	suffix := fileSuffix(path)
	if load, ok := loaders[suffix]; ok {
		return load(path)
	}
	if hasSuffix(path, tableSuffixes) {
		return nil, fmt.Errorf("no table loader registered for .%s files", suffix)
	}
	return loadDelimited(path, '\t')
}

func loadDelimited(path string, sep rune) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table '%s': %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = sep
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return &Table{}, nil
		}
		return nil, fmt.Errorf("failed to read table header '%s': %w", path, err)
	}

	var rows [][]any
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read table '%s': %w", path, err)
		}
		row := make([]any, len(rec))
		for i, cell := range rec {
			row[i] = parseCell(cell)
		}
		rows = append(rows, row)
	}
	return NewTable(header, rows), nil
}

// parseCell reads a text cell as an integer, float, or string. Empty cells are nil.
func parseCell(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func loadJSONTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table '%s': %w", path, err)
	}
	defer f.Close()

	v, err := decodeJSON(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse table '%s': %w", path, err)
	}
	t, err := tableFrom(v)
	if err != nil {
		return nil, fmt.Errorf("failed to build table from '%s': %w", path, err)
	}
	return t, nil
}

// tableFrom builds a table from rows ([][]any, list of lists or list of
// records) or columns (a mapping of column name to values).
func tableFrom(v any) (*Table, error) {
	switch t := v.(type) {
	case *Table:
		return t, nil
	case [][]any:
		return NewTable(nil, t), nil
	case map[string][]any:
		m := NewMap()
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			m.Set(k, t[k])
		}
		return tableFromColumns(m)
	}
	if m, ok := asMap(v); ok {
		return tableFromColumns(m)
	}
	elems, ok := toSlice(v)
	if !ok {
		return nil, fmt.Errorf("cannot build a table from %T", v)
	}
	if len(elems) > 0 {
		if _, isRecord := asMap(elems[0]); isRecord {
			return tableFromRecords(elems)
		}
	}
	rows := make([][]any, len(elems))
	for i, e := range elems {
		row, ok := toSlice(e)
		if !ok {
			return nil, fmt.Errorf("row %d is %T, not a sequence", i, e)
		}
		rows[i] = append([]any(nil), row...)
	}
	return NewTable(nil, rows), nil
}

func tableFromColumns(m *Map) (*Table, error) {
	cols := m.Keys()
	var columns [][]any
	height := 0
	for _, c := range cols {
		raw, _ := m.Get(c)
		var vals []any
		if sub, ok := raw.(*Map); ok {
			// index-keyed column, as written by column-oriented JSON
			for _, k := range sub.Keys() {
				x, _ := sub.Get(k)
				vals = append(vals, x)
			}
		} else if s, ok := toSlice(raw); ok {
			vals = s
		} else {
			return nil, fmt.Errorf("column %q is %T, not a sequence", c, raw)
		}
		columns = append(columns, vals)
		height = max(height, len(vals))
	}
	rows := make([][]any, height)
	for i := range rows {
		rows[i] = make([]any, len(cols))
		for j, vals := range columns {
			if i < len(vals) {
				rows[i][j] = vals[i]
			}
		}
	}
	return &Table{Columns: cols, Rows: rows}, nil
}

func tableFromRecords(records []any) (*Table, error) {
	var cols []string
	seen := make(map[string]bool)
	recs := make([]*Map, len(records))
	for i, r := range records {
		m, ok := asMap(r)
		if !ok {
			return nil, fmt.Errorf("record %d is %T, not a mapping", i, r)
		}
		recs[i] = m
		for _, k := range m.Keys() {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	rows := make([][]any, len(recs))
	for i, m := range recs {
		rows[i] = make([]any, len(cols))
		for j, c := range cols {
			rows[i][j], _ = m.Get(c)
		}
	}
	return &Table{Columns: cols, Rows: rows}, nil
}

// DataFrameSerializer writes a table as its list of rows.
type DataFrameSerializer struct{}

func (DataFrameSerializer) Serialize(name string, obj Parameterized) (any, error) {
	t, ok := obj.Get(name).(*Table)
	if !ok || t == nil {
		return nil, nil
	}
	rows := make([]any, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = append([]any(nil), r...)
	}
	return rows, nil
}

func (DataFrameSerializer) Help(name string, obj Parameterized) string {
	t, ok := obj.Get(name).(*Table)
	if !ok || t == nil {
		return ""
	}
	return "DataFrame axes: " + t.Axes()
}

// DataFrameDeserializer accepts tables, paths to tabular files, rows and columns.
type DataFrameDeserializer struct {
	Loaders map[string]TableLoader
}

// NewDataFrameDeserializer returns a deserializer with DefaultTableLoaders.
func NewDataFrameDeserializer() DataFrameDeserializer {
	return DataFrameDeserializer{Loaders: DefaultTableLoaders()}
}

func (d DataFrameDeserializer) Deserialize(name string, raw any, obj Parameterized) error {
	if done, err := noneCheck(name, raw, obj); done {
		return err
	}
	if path, ok := raw.(string); ok {
		t, err := loadTable(path, d.Loaders)
		if err != nil {
			return wrapTypeError(obj, name, err)
		}
		return set(obj, name, t)
	}
	t, err := tableFrom(raw)
	if err != nil {
		return wrapTypeError(obj, name, err)
	}
	return set(obj, name, t)
}

// SeriesSerializer writes a series as a plain list.
type SeriesSerializer struct{}

func (SeriesSerializer) Serialize(name string, obj Parameterized) (any, error) {
	s, ok := obj.Get(name).(SeriesValue)
	if !ok || s == nil {
		return nil, nil
	}
	return append([]any(nil), s...), nil
}

func (SeriesSerializer) Help(name string, obj Parameterized) string {
	s, ok := obj.Get(name).(SeriesValue)
	if !ok || s == nil {
		return ""
	}
	return "Series axes: " + s.Axes()
}

// SeriesDeserializer accepts sequences, or a path whose table's first column is used.
type SeriesDeserializer struct {
	Loaders map[string]TableLoader
}

// NewSeriesDeserializer returns a deserializer with DefaultTableLoaders.
func NewSeriesDeserializer() SeriesDeserializer {
	return SeriesDeserializer{Loaders: DefaultTableLoaders()}
}

func (d SeriesDeserializer) Deserialize(name string, raw any, obj Parameterized) error {
	if done, err := noneCheck(name, raw, obj); done {
		return err
	}
	if path, ok := raw.(string); ok && hasSuffix(path, tableSuffixes) {
		t, err := loadTable(path, d.Loaders)
		if err != nil {
			return wrapTypeError(obj, name, err)
		}
		var col []any
		if len(t.Columns) > 0 {
			col, _ = t.Column(t.Columns[0])
		}
		return set(obj, name, SeriesValue(col))
	}
	elems, ok := toSlice(raw)
	if !ok {
		elems = []any{raw}
	}
	return set(obj, name, SeriesValue(append([]any(nil), elems...)))
}
