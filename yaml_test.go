// FILE: lixenwraith/paramconfig/yaml_test.go
package paramconfig

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var yamlBackendNames = []string{"yaml.v3", "yaml.v2"}

func TestYAMLRoundTrip(t *testing.T) {
	for _, backend := range yamlBackendNames {
		t.Run(backend, func(t *testing.T) {
			src := newBigParams(t, "big")
			mutateBigParams(t, src)

			wopts := DefaultYAMLWriteOptions()
			wopts.Backends = []string{backend}
			var buf bytes.Buffer
			require.NoError(t, SerializeToYAML(&buf, Leaf{src}, wopts))

			dst := newBigParams(t, "big")
			ropts := DefaultYAMLReadOptions()
			ropts.Backends = []string{backend}
			ropts.OnMissing = Raise
			require.NoError(t, DeserializeFromYAML(&buf, Leaf{dst}, ropts))
			assertSameValues(t, src, dst)
		})
	}
}

// TestYAMLHelpPlacement checks that the combined doc and serializer help of
// an attribute appears before the next top-level key's help.
func TestYAMLHelpPlacement(t *testing.T) {
	first := MustNew("first", Date("when", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Doc("Start date")))
	second := MustNew("second", String("label", "x", Doc("Label help")))
	tree := NewTree().Add("first", first).Add("second", second)

	for _, backend := range yamlBackendNames {
		t.Run(backend, func(t *testing.T) {
			opts := DefaultYAMLWriteOptions()
			opts.Backends = []string{backend}
			var buf bytes.Buffer
			require.NoError(t, SerializeToYAML(&buf, tree, opts))
			text := buf.String()

			combined := strings.Index(text, "Start date. Date format string: 2006-01-02")
			require.GreaterOrEqual(t, combined, 0, text)
			assert.Less(t, combined, strings.Index(text, "Label help"))
		})
	}

	t.Run("InlineComment", func(t *testing.T) {
		opts := DefaultYAMLWriteOptions()
		opts.Backends = []string{"yaml.v3"}
		var buf bytes.Buffer
		require.NoError(t, SerializeToYAML(&buf, tree, opts))
		var line string
		for _, l := range strings.Split(buf.String(), "\n") {
			if strings.Contains(l, "# Start date") {
				line = l
			}
		}
		assert.Contains(t, line, "when:", "help sits on the key's own line")
	})

	t.Run("LeadingBlock", func(t *testing.T) {
		opts := DefaultYAMLWriteOptions()
		opts.Backends = []string{"yaml.v2"}
		var buf bytes.Buffer
		require.NoError(t, SerializeToYAML(&buf, tree, opts))
		assert.True(t, strings.HasPrefix(buf.String(), "# == Help ==\n# first:\n"), buf.String())
	})

	t.Run("NoHelp", func(t *testing.T) {
		opts := DefaultYAMLWriteOptions()
		opts.IncludeHelp = false
		var buf bytes.Buffer
		require.NoError(t, SerializeToYAML(&buf, tree, opts))
		assert.NotContains(t, buf.String(), "#")
	})
}

func TestYAMLOrder(t *testing.T) {
	tree := NewTree().
		Add("zeta", MustNew("z", Integer("b", 1), Integer("a", 2))).
		Add("alpha", MustNew("a", Integer("x", 3)))

	var buf bytes.Buffer
	require.NoError(t, SerializeToYAML(&buf, tree, YAMLWriteOptions{}))
	assert.Equal(t, "zeta:\n  a: 2\n  b: 1\nalpha:\n  x: 3\n", buf.String())
}

func TestYAMLBackends(t *testing.T) {
	obj := MustNew("p", Integer("x", 1))

	err := SerializeToYAML(io.Discard, Leaf{obj}, YAMLWriteOptions{Backends: []string{"ruamel"}})
	assert.ErrorIs(t, err, ErrNoYAMLBackend)
	err = DeserializeFromYAML(strings.NewReader("x: 2"), Leaf{obj}, YAMLReadOptions{Backends: []string{}})
	assert.ErrorIs(t, err, ErrNoYAMLBackend)

	// the first registered backend in the list wins
	var buf bytes.Buffer
	require.NoError(t, SerializeToYAML(&buf, Leaf{obj}, YAMLWriteOptions{Backends: []string{"ruamel", "yaml.v2"}}))
	assert.Equal(t, "x: 1\n", buf.String())
}

type upperYAML struct{ yamlV3Backend }

func (upperYAML) Name() string { return "upper" }

func (u upperYAML) Encode(w io.Writer, data, help *Map) error {
	var buf bytes.Buffer
	if err := u.yamlV3Backend.Encode(&buf, data, help); err != nil {
		return err
	}
	_, err := io.WriteString(w, strings.ToUpper(buf.String()))
	return err
}

func TestRegisterYAMLBackend(t *testing.T) {
	RegisterYAMLBackend(upperYAML{})
	obj := MustNew("p", String("s", "quiet"))

	var buf bytes.Buffer
	require.NoError(t, SerializeToYAML(&buf, Leaf{obj}, YAMLWriteOptions{Backends: []string{"upper"}}))
	assert.Equal(t, "S: QUIET\n", buf.String())
}

func TestYAMLReadEdgeCases(t *testing.T) {
	for _, backend := range yamlBackendNames {
		t.Run(backend, func(t *testing.T) {
			obj := MustNew("p", Integer("x", 1), Parameter("any", nil))
			opts := YAMLReadOptions{Backends: []string{backend}}

			require.NoError(t, DeserializeFromYAML(strings.NewReader(""), Leaf{obj}, opts))
			assert.Equal(t, int64(1), obj.Get("x"), "empty document changes nothing")

			err := DeserializeFromYAML(strings.NewReader("- 1\n- 2\n"), Leaf{obj}, opts)
			assert.Error(t, err)

			require.NoError(t, DeserializeFromYAML(strings.NewReader("x: 7\nany: ~\n"), Leaf{obj}, opts))
			assert.Equal(t, int64(7), obj.Get("x"))
			assert.Nil(t, obj.Get("any"))
		})
	}

	t.Run("Anchors", func(t *testing.T) {
		obj := MustNew("p", Integer("x", 0), Integer("y", 0))
		tree := NewTree().Add("a", obj)
		in := "base: &b\n  x: 4\na:\n  <<: *b\n  y: 5\n"
		opts := YAMLReadOptions{DeserializeOptions: DeserializeOptions{OnMissing: Ignore}}
		require.NoError(t, DeserializeFromYAML(strings.NewReader(in), tree, opts))
		assert.Equal(t, int64(4), obj.Get("x"))
		assert.Equal(t, int64(5), obj.Get("y"))
	})
}

func TestYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	obj := MustNew("p", Integer("x", 3), Boolean("on", true))
	require.NoError(t, SerializeToYAMLFile(path, Leaf{obj}, DefaultYAMLWriteOptions()))

	dst := MustNew("p", Integer("x", 0), Boolean("on", false))
	require.NoError(t, DeserializeFromYAMLFile(path, Leaf{dst}, DefaultYAMLReadOptions()))
	assert.Equal(t, int64(3), dst.Get("x"))
	assert.Equal(t, true, dst.Get("on"))
}
