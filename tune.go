// FILE: lixenwraith/paramconfig/tune.go
package paramconfig

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Trial samples hyperparameter values. Its method set matches goptuna's
// Trial, so a goptuna trial can be passed directly.
type Trial interface {
	SuggestFloat(name string, low, high float64) (float64, error)
	SuggestLogFloat(name string, low, high float64) (float64, error)
	SuggestInt(name string, low, high int) (int, error)
	SuggestCategorical(name string, choices []string) (string, error)
}

// Tunable is an object that knows which of its attributes can be tuned and
// how to sample them.
type Tunable interface {
	Parameterized

	// Tunable names the tunable attributes. Names should not contain ".".
	Tunable() []string

	// SuggestParams samples the attributes in only from trial and assigns
	// them. Sampled names are prefix followed by the attribute name.
	SuggestParams(trial Trial, only []string, prefix string) error
}

// TuneOptions controls TunableNames and SuggestTree.
type TuneOptions struct {
	// OnDecimal governs keys and names containing ".", which make dotted
	// names ambiguous. DefaultPolicy means Warn.
	OnDecimal MissingPolicy

	// Quiet suppresses the warning about names in only that match nothing.
	Quiet bool

	Logger *zap.Logger
}

type tunableAt struct {
	prefix string
	obj    Tunable
}

// collectTunables walks root depth first in insertion order.
func collectTunables(root Node, policy MissingPolicy, logger *zap.Logger) ([]tunableAt, error) {
	var out []tunableAt
	var walk func(n Node, path []string) error
	walk = func(n Node, path []string) error {
		switch t := n.(type) {
		case Leaf:
			if tun, ok := t.Parameterized.(Tunable); ok {
				out = append(out, tunableAt{joinPath(path...), tun})
			}
		case *Tree:
			for _, key := range t.Keys() {
				if strings.Contains(key, PathDelimiter) {
					where := ""
					if len(path) > 0 {
						where = " at " + keyChain(path)
					}
					msg := fmt.Sprintf("found key%s with '.' in its name: %q; this can lead to ambiguities in tunable names and should be avoided", where, key)
					if err := decimalPolicy(policy, logger, msg); err != nil {
						return err
					}
				}
				child, _ := t.Get(key)
				if err := walk(child, extend(path, key)); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(root, nil); err != nil {
		return nil, err
	}
	return out, nil
}

// uniqueNames fails when two tunables produce the same dotted name, as with
// a key "a.b" next to a key "a" holding "b". No policy can resolve that.
func uniqueNames(tunables []tunableAt) error {
	seen := make(map[string]bool)
	for _, t := range tunables {
		for _, n := range t.obj.Tunable() {
			name := dotted(t.prefix) + n
			if seen[name] {
				return fmt.Errorf("%w: %q names more than one attribute", ErrAmbiguousName, name)
			}
			seen[name] = true
		}
	}
	return nil
}

func decimalPolicy(policy MissingPolicy, logger *zap.Logger, msg string) error {
	switch policy {
	case Raise:
		return fmt.Errorf("%w: %s", ErrAmbiguousName, msg)
	case Warn:
		logger.Warn(msg)
	}
	return nil
}

func dotted(prefix string) string {
	if prefix == "" {
		return ""
	}
	return prefix + PathDelimiter
}

// TunableNames returns the sorted names of every tunable attribute in root,
// formatted "key0.key1.attribute".
func TunableNames(root Node, opts TuneOptions) ([]string, error) {
	if !opts.OnDecimal.valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPolicy, opts.OnDecimal)
	}
	policy := opts.OnDecimal.or(Warn)
	logger := loggerFor(opts.Logger, nil)

	tunables, err := collectTunables(root, policy, logger)
	if err != nil {
		return nil, err
	}
	if err := uniqueNames(tunables); err != nil {
		return nil, err
	}
	var names []string
	for _, t := range tunables {
		own := t.obj.Tunable()
		var withDot []string
		for _, n := range own {
			if strings.Contains(n, PathDelimiter) {
				withDot = append(withDot, n)
			}
			names = append(names, dotted(t.prefix)+n)
		}
		if len(withDot) > 0 {
			msg := fmt.Sprintf("found parameters in %q with '.' in their name: %v; these can lead to ambiguities and should be avoided", t.prefix, withDot)
			if err := decimalPolicy(policy, logger, msg); err != nil {
				return nil, err
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// cloneTree deep-copies root. Every object must implement Cloner.
func cloneTree(root Node, path []string) (Node, error) {
	switch t := root.(type) {
	case Leaf:
		c, ok := t.Parameterized.(Cloner)
		if !ok {
			return nil, fmt.Errorf("%w: %q at %s", ErrNotCloneable, t.Name(), keyChain(path))
		}
		return Leaf{c.Clone()}, nil
	case *Tree:
		out := NewTree()
		for _, key := range t.Keys() {
			child, _ := t.Get(key)
			cc, err := cloneTree(child, extend(path, key))
			if err != nil {
				return nil, err
			}
			out.Set(key, cc)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported tree node %T", root)
}

// SuggestTree deep-copies root and lets every tunable object in the copy
// sample its share of only from trial. A nil only means every tunable name.
// root itself is not modified.
func SuggestTree(trial Trial, root Node, only []string, opts TuneOptions) (Node, error) {
	if !opts.OnDecimal.valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPolicy, opts.OnDecimal)
	}
	logger := loggerFor(opts.Logger, nil)
	policy := opts.OnDecimal.or(Warn)
	if only == nil {
		names, err := TunableNames(root, opts)
		if err != nil {
			return nil, err
		}
		only = names
		// already checked
		policy = Ignore
	}
	remaining := make(map[string]bool, len(only))
	for _, n := range only {
		remaining[n] = true
	}

	cp, err := cloneTree(root, nil)
	if err != nil {
		return nil, err
	}
	tunables, err := collectTunables(cp, policy, logger)
	if err != nil {
		return nil, err
	}
	if err := uniqueNames(tunables); err != nil {
		return nil, err
	}
	for _, t := range tunables {
		prefix := dotted(t.prefix)
		own := make(map[string]bool)
		for _, n := range t.obj.Tunable() {
			own[n] = true
		}
		selected := []string{}
		for _, n := range sortedKeys(remaining) {
			if !strings.HasPrefix(n, prefix) {
				continue
			}
			if attr := n[len(prefix):]; own[attr] {
				selected = append(selected, attr)
				delete(remaining, n)
			}
		}
		if err := t.obj.SuggestParams(trial, selected, prefix); err != nil {
			return nil, fmt.Errorf("failed to suggest parameters for %s: %w", keyChain(strings.Split(t.prefix, PathDelimiter)), err)
		}
	}
	if !opts.Quiet && len(remaining) > 0 {
		logger.Warn(fmt.Sprintf("\"only\" contained extra parameters: %v. To suppress this warning, set Quiet", sortedKeys(remaining)))
	}
	return cp, nil
}

// NewOnlyObject declares an object with a single ListSelector attribute
// "only" whose choices are the tunable names. It records which
// hyperparameters a run should optimize.
func NewOnlyObject(name string, tunable []string, defaults []string) (*Object, error) {
	choices := append([]string(nil), tunable...)
	sort.Strings(choices)
	objs := make([]any, len(choices))
	for i, c := range choices {
		objs[i] = c
	}
	def := make([]any, len(defaults))
	for i, d := range defaults {
		def[i] = d
	}
	return New(name, ListSelector("only", def,
		Objects(objs...),
		Doc("When performing hyperparameter optimization, only optimize these parameters"),
	))
}

// OnlyNames reads the "only" attribute of an object built by NewOnlyObject.
func OnlyNames(obj Parameterized) []string {
	vals, _ := toSlice(obj.Get("only"))
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		out = append(out, castString(v))
	}
	return out
}
