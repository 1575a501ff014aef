// FILE: lixenwraith/paramconfig/tree.go
package paramconfig

import (
	"fmt"
	"strings"
)

// Node is either a Leaf holding one object or a *Tree of named children.
type Node interface {
	node()
}

// Leaf wraps a single object as a tree node.
type Leaf struct {
	Parameterized
}

func (Leaf) node() {}

// Tree is an ordered mapping of keys to child nodes. Traversal follows
// insertion order.
type Tree struct {
	keys     []string
	children map[string]Node
}

func (*Tree) node() {}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{children: make(map[string]Node)}
}

// Set places n at key, keeping the position of an existing key.
func (t *Tree) Set(key string, n Node) *Tree {
	if t.children == nil {
		t.children = make(map[string]Node)
	}
	if _, exists := t.children[key]; !exists {
		t.keys = append(t.keys, key)
	}
	t.children[key] = n
	return t
}

// Add places obj at key.
func (t *Tree) Add(key string, obj Parameterized) *Tree {
	return t.Set(key, Leaf{obj})
}

// AddTree places a subtree at key.
func (t *Tree) AddTree(key string, sub *Tree) *Tree {
	return t.Set(key, sub)
}

// Get returns the child at key.
func (t *Tree) Get(key string) (Node, bool) {
	if t == nil {
		return nil, false
	}
	n, ok := t.children[key]
	return n, ok
}

// Keys returns child keys in insertion order.
func (t *Tree) Keys() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.keys...)
}

// Len returns the number of children.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// Lookup follows path down the tree to an object.
func (t *Tree) Lookup(path ...string) (Parameterized, bool) {
	var n Node = t
	for _, key := range path {
		branch, ok := n.(*Tree)
		if !ok {
			return nil, false
		}
		if n, ok = branch.Get(key); !ok {
			return nil, false
		}
	}
	leaf, ok := n.(Leaf)
	if !ok {
		return nil, false
	}
	return leaf.Parameterized, true
}

// asNode accepts an object, a Leaf or a *Tree.
func asNode(v any) (Node, error) {
	switch t := v.(type) {
	case Node:
		if t == nil {
			return nil, fmt.Errorf("nil tree node")
		}
		return t, nil
	case Parameterized:
		return Leaf{t}, nil
	}
	return nil, fmt.Errorf("%T is neither a parameterized object nor a tree", v)
}

// keyChain renders a path the way missing-key messages report it.
func keyChain(path []string) string {
	return "(" + strings.Join(path, ", ") + ")"
}

func extend(path []string, key string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, key)
}

// SerializeTree serializes every object in root. The data and help Maps
// mirror the tree's shape; leaves are serialized as by SerializeToDict.
// With Raise, the first missing attribute aborts the whole walk.
func SerializeTree(root Node, opts SerializeOptions) (data, help *Map, err error) {
	opts, err = opts.resolved()
	if err != nil {
		return nil, nil, err
	}

	type item struct {
		node Node
		only *Selection
		ov   *SerializerOverrides
		data *Map
		help *Map
	}
	data, help = NewMap(), NewMap()
	queue := []item{{root, opts.Only, opts.Overrides, data, help}}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]

		switch n := it.node.(type) {
		case Leaf:
			d, h, err := serializeFlat(n.Parameterized, it.only, it.ov, opts)
			if err != nil {
				return nil, nil, err
			}
			for _, k := range d.Keys() {
				v, _ := d.Get(k)
				it.data.Set(k, v)
				if s, ok := h[k]; ok {
					it.help.Set(k, s)
				}
			}
		case *Tree:
			for _, key := range n.Keys() {
				child, _ := n.Get(key)
				d, h := NewMap(), NewMap()
				it.data.Set(key, d)
				it.help.Set(key, h)
				queue = append(queue, item{child, it.only.child(key), it.ov.child(key), d, h})
			}
		default:
			return nil, nil, fmt.Errorf("unsupported tree node %T", it.node)
		}
	}
	return data, help, nil
}

// DeserializeTree zips data against root. Keys with no matching node and
// nodes with no matching data are reported under the missing policy. A branch
// receiving a non-mapping value is an ErrShapeMismatch.
func DeserializeTree(data *Map, root Node, opts DeserializeOptions) error {
	opts, err := opts.resolved()
	if err != nil {
		return err
	}
	logger := loggerFor(opts.Logger, nil)

	type item struct {
		node Node
		data any
		ov   *DeserializerOverrides
		path []string
	}
	queue := []item{{root, data, opts.Overrides, nil}}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]

		m, ok := asMap(it.data)
		if !ok {
			return fmt.Errorf("%w: expected a mapping at %s, got %T", ErrShapeMismatch, keyChain(it.path), it.data)
		}

		switch n := it.node.(type) {
		case Leaf:
			if err := deserializeFlat(m, n.Parameterized, it.ov, opts); err != nil {
				return err
			}
		case *Tree:
			for _, key := range m.Keys() {
				if _, ok := n.Get(key); ok {
					continue
				}
				msg := fmt.Sprintf("data contains hierarchical key chain %s but no parameterized instance to match it",
					keyChain(extend(it.path, key)))
				if err := opts.OnMissing.apply(logger, msg); err != nil {
					return err
				}
			}
			for _, key := range n.Keys() {
				child, _ := n.Get(key)
				sub, ok := m.Get(key)
				if !ok {
					msg := fmt.Sprintf("no data for hierarchical key chain %s", keyChain(extend(it.path, key)))
					if err := opts.OnMissing.apply(logger, msg); err != nil {
						return err
					}
					continue
				}
				queue = append(queue, item{child, sub, it.ov.child(key), extend(it.path, key)})
			}
		default:
			return fmt.Errorf("unsupported tree node %T", it.node)
		}
	}
	return nil
}
