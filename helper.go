// File: lixenwraith/paramconfig/helper.go
package paramconfig

import (
	"sort"
	"strings"
)

// PathDelimiter separates tree keys and the attribute name in dotted names.
const PathDelimiter = "."

// sortedKeys returns the keys of m in ascending order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// joinPath builds a dotted name from path segments.
func joinPath(segments ...string) string {
	return strings.Join(segments, PathDelimiter)
}

// flattenMap converts a nested Map into dotted paths. Nested Maps are
// descended; every other value is a leaf.
func flattenMap(nested *Map, prefix string) map[string]any {
	flat := make(map[string]any)
	for _, key := range nested.Keys() {
		newPath := key
		if prefix != "" {
			newPath = prefix + PathDelimiter + key
		}
		value, _ := nested.Get(key)
		if sub, isMap := value.(*Map); isMap {
			for subPath, subValue := range flattenMap(sub, newPath) {
				flat[subPath] = subValue
			}
		} else {
			flat[newPath] = value
		}
	}
	return flat
}

// setNestedValue sets a value in a nested Map along path, creating
// intermediate Maps. A non-Map segment in the way is replaced.
func setNestedValue(nested *Map, path []string, value any) {
	current := nested
	for _, segment := range path[:len(path)-1] {
		next, ok := current.Sub(segment)
		if !ok {
			next = NewMap()
			current.Set(segment, next)
		}
		current = next
	}
	current.Set(path[len(path)-1], value)
}
