// FILE: lixenwraith/paramconfig/ini_test.go
package paramconfig

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/ini.v1"
)

// TestINIGenericReader checks that a plain INI reader sees exact values.
func TestINIGenericReader(t *testing.T) {
	obj := MustNew("params", Number("number", 1e-4), Boolean("boolean", false))

	opts := DefaultINIWriteOptions()
	opts.IncludeHelp = false
	var buf bytes.Buffer
	require.NoError(t, SerializeToINI(&buf, Leaf{obj}, opts))
	assert.False(t, strings.HasPrefix(buf.String(), "#"))

	f, err := ini.Load(buf.Bytes())
	require.NoError(t, err)
	sec := f.Section("params")

	num, err := sec.Key("number").Float64()
	require.NoError(t, err)
	assert.Equal(t, 1e-4, num)
	b, err := sec.Key("boolean").Bool()
	require.NoError(t, err)
	assert.False(t, b)
}

func TestINIRoundTrip(t *testing.T) {
	src := newBigParams(t, "big")
	mutateBigParams(t, src)

	var buf bytes.Buffer
	require.NoError(t, SerializeToINI(&buf, Leaf{src}, DefaultINIWriteOptions()))

	dst := newBigParams(t, "big")
	opts := DefaultINIReadOptions()
	opts.OnMissing = Raise
	require.NoError(t, DeserializeFromINI(&buf, Leaf{dst}, opts))
	assertSameValues(t, src, dst)
}

func TestININone(t *testing.T) {
	obj := newBigParams(t, "big")
	for _, name := range []string{"integer", "string", "dict_", "date"} {
		require.NoError(t, obj.Set(name, nil))
	}

	var buf bytes.Buffer
	require.NoError(t, SerializeToINI(&buf, Leaf{obj}, INIWriteOptions{}))
	text := buf.String()
	assert.Contains(t, text, "\ninteger\n", "nil is written as a bare key")
	assert.Contains(t, text, "\nclass_selector\n")

	dst := newBigParams(t, "big")
	require.NoError(t, DeserializeFromINI(strings.NewReader(text), Leaf{dst}, INIReadOptions{}))
	assertSameValues(t, obj, dst)

	t.Run("NoneToken", func(t *testing.T) {
		dst := newBigParams(t, "big")
		in := "[big]\ninteger = None\nstring = None\nnumber = none\n"
		require.NoError(t, DeserializeFromINI(strings.NewReader(in), Leaf{dst}, INIReadOptions{}))
		assert.Nil(t, dst.Get("integer"))
		assert.Equal(t, "None", dst.Get("string"), "strings keep the literal")
		assert.Nil(t, dst.Get("number"))
	})
}

func TestINIHelpBanner(t *testing.T) {
	obj := newBigParams(t, "big")
	var buf bytes.Buffer
	require.NoError(t, SerializeToINI(&buf, Leaf{obj}, DefaultINIWriteOptions()))
	text := buf.String()

	require.True(t, strings.HasPrefix(text, "# == Help ==\n# [big]\n"), text)
	assert.Contains(t, text, "# string: this is a string\n")
	assert.Contains(t, text, "# dict_: dict means dictionary. A JSON object\n")
	assert.Less(t, strings.Index(text, "# string:"), strings.Index(text, "\n[big]\n"))

	buf.Reset()
	opts := DefaultINIWriteOptions()
	opts.HelpPrefix = ";"
	require.NoError(t, SerializeToINI(&buf, Leaf{obj}, opts))
	assert.True(t, strings.HasPrefix(buf.String(), "; == Help ==\n"))
}

func TestINIMultilineHelp(t *testing.T) {
	obj := MustNew("obj", String("s", "v", Doc("line one\nline two\nkey = injected")))
	var buf bytes.Buffer
	require.NoError(t, SerializeToINI(&buf, Leaf{obj}, DefaultINIWriteOptions()))
	text := buf.String()
	assert.Contains(t, text, "# s: line one\n# line two\n# key = injected\n")

	logger, logs := observedLogger()
	dst := MustNew("obj", String("s", ""))
	opts := DefaultINIReadOptions()
	opts.OnMissing = Raise
	opts.Logger = logger
	require.NoError(t, DeserializeFromINI(strings.NewReader(text), Leaf{dst}, opts))
	assert.Equal(t, "v", dst.Get("s"))
	assert.Zero(t, logs.Len())
}

func TestINIQuotedStrings(t *testing.T) {
	values := []string{
		`"quoted"`, `'single'`, `"""triple`, ` "padded" `, `"a"b"`, `"x`,
		"a#b", "a;b", "  pad  ", "multi\nline", "back`tick", "", "None", `"#"`,
	}
	for _, v := range values {
		src := MustNew("obj", String("s", v))
		var buf bytes.Buffer
		require.NoError(t, SerializeToINI(&buf, Leaf{src}, DefaultINIWriteOptions()))

		dst := MustNew("obj", String("s", "unset"))
		require.NoError(t, DeserializeFromINI(&buf, Leaf{dst}, DefaultINIReadOptions()), "%q", v)
		assert.Equal(t, v, dst.Get("s"), "%q", v)
	}
}

func TestINIWholeFloats(t *testing.T) {
	obj := MustNew("obj", Parameter("p", 1.0), Number("n", 2.0), Number("small", 1e-4), Integer("i", 3))
	opts := DefaultINIWriteOptions()
	opts.IncludeHelp = false
	var buf bytes.Buffer
	require.NoError(t, SerializeToINI(&buf, Leaf{obj}, opts))
	f, err := ini.Load(buf.Bytes())
	require.NoError(t, err)
	sec := f.Section("obj")
	assert.Equal(t, "1.0", sec.Key("p").String())
	assert.Equal(t, "2.0", sec.Key("n").String())
	assert.Equal(t, "0.0001", sec.Key("small").String())
	assert.Equal(t, "3", sec.Key("i").String())

	dst := MustNew("obj", Parameter("p", nil), Number("n", 0), Number("small", 0), Integer("i", 0))
	require.NoError(t, DeserializeFromINI(&buf, Leaf{dst}, DefaultINIReadOptions()))
	assert.Equal(t, "1.0", dst.Get("p"))
	assert.Equal(t, 2.0, dst.Get("n"))

	assert.Equal(t, "1.0", iniFloat("1"))
	assert.Equal(t, "1e+21", iniFloat("1e+21"))
	assert.Equal(t, "+Inf", iniFloat("+Inf"))
	assert.Equal(t, "NaN", iniFloat("NaN"))
}

func TestINISections(t *testing.T) {
	a := MustNew("a", Integer("x", 1), String("s", "a"))
	b := MustNew("b", Integer("x", 2))
	tree := NewTree().Add("first", a).Add("second", b)

	var buf bytes.Buffer
	require.NoError(t, SerializeToINI(&buf, tree, INIWriteOptions{}))
	text := buf.String()
	assert.Less(t, strings.Index(text, "[first]"), strings.Index(text, "[second]"))

	a2 := MustNew("a", Integer("x", 0), String("s", ""))
	b2 := MustNew("b", Integer("x", 0))
	require.NoError(t, DeserializeFromINI(strings.NewReader(text), NewTree().Add("first", a2).Add("second", b2), INIReadOptions{}))
	assert.Equal(t, int64(1), a2.Get("x"))
	assert.Equal(t, "a", a2.Get("s"))
	assert.Equal(t, int64(2), b2.Get("x"))

	t.Run("NamedSection", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, SerializeToINI(&buf, Leaf{a}, INIWriteOptions{Section: "custom"}))
		assert.Contains(t, buf.String(), "[custom]")

		dst := MustNew("a", Integer("x", 0), String("s", ""))
		err := DeserializeFromINI(bytes.NewReader(buf.Bytes()), Leaf{dst}, INIReadOptions{})
		assert.ErrorContains(t, err, "INI section 'a' not found")
		require.NoError(t, DeserializeFromINI(bytes.NewReader(buf.Bytes()), Leaf{dst}, INIReadOptions{Section: "custom"}))
		assert.Equal(t, int64(1), dst.Get("x"))
	})

	t.Run("Depth", func(t *testing.T) {
		deep := NewTree().AddTree("nested", NewTree().Add("a", a))
		assert.ErrorIs(t, SerializeToINI(&bytes.Buffer{}, deep, INIWriteOptions{}), ErrINIDepth)
		assert.ErrorIs(t, DeserializeFromINI(strings.NewReader("[nested]\n"), deep, INIReadOptions{}), ErrINIDepth)
	})
}

func TestINIDefaults(t *testing.T) {
	in := "[DEFAULT]\nx = 5\n\n[first]\ns = own\n\n[second]\nx = 9\n"
	a := MustNew("a", Integer("x", 0), String("s", ""))
	b := MustNew("b", Integer("x", 0), String("s", ""))
	tree := NewTree().Add("first", a).Add("second", b)

	opts := INIReadOptions{Defaults: map[string]string{"s": "inherited", "x": "1"}}
	require.NoError(t, DeserializeFromINI(strings.NewReader(in), tree, opts))
	assert.Equal(t, int64(5), a.Get("x"), "DEFAULT section beats option defaults")
	assert.Equal(t, "own", a.Get("s"))
	assert.Equal(t, int64(9), b.Get("x"))
	assert.Equal(t, "inherited", b.Get("s"))
}

func TestINIFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "params.ini")
	obj := MustNew("p", Integer("x", 3))
	require.NoError(t, SerializeToINIFile(path, Leaf{obj}, DefaultINIWriteOptions()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	dst := MustNew("p", Integer("x", 0))
	require.NoError(t, DeserializeFromINIFile(path, Leaf{dst}, DefaultINIReadOptions()))
	assert.Equal(t, int64(3), dst.Get("x"))

	err = DeserializeFromINIFile(filepath.Join(t.TempDir(), "missing.ini"), Leaf{dst}, DefaultINIReadOptions())
	assert.ErrorContains(t, err, "failed to open INI file")
}
