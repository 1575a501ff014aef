// FILE: lixenwraith/paramconfig/tune_test.go
package paramconfig

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTrial answers deterministically and records every sampled name.
type fakeTrial struct {
	asked []string
}

func (f *fakeTrial) SuggestFloat(name string, low, high float64) (float64, error) {
	f.asked = append(f.asked, name)
	return low, nil
}

func (f *fakeTrial) SuggestLogFloat(name string, low, high float64) (float64, error) {
	f.asked = append(f.asked, name)
	return math.Sqrt(low * high), nil
}

func (f *fakeTrial) SuggestInt(name string, low, high int) (int, error) {
	f.asked = append(f.asked, name)
	return high, nil
}

func (f *fakeTrial) SuggestCategorical(name string, choices []string) (string, error) {
	f.asked = append(f.asked, name)
	return choices[len(choices)-1], nil
}

type tunableModel struct {
	*Object
}

func newTunableModel() *tunableModel {
	return &tunableModel{MustNew("model",
		Number("lr", 1e-3),
		Integer("layers", 2),
		ObjectSelector("act", "relu", Objects("relu", "tanh")),
		String("fixed", "yes"),
	)}
}

func (m *tunableModel) Tunable() []string { return []string{"lr", "layers", "act"} }

func (m *tunableModel) SuggestParams(trial Trial, only []string, prefix string) error {
	for _, name := range only {
		var v any
		var err error
		switch name {
		case "lr":
			v, err = trial.SuggestLogFloat(prefix+name, 1e-4, 1e-2)
		case "layers":
			var n int
			n, err = trial.SuggestInt(prefix+name, 1, 5)
			v = int64(n)
		case "act":
			v, err = trial.SuggestCategorical(prefix+name, []string{"relu", "tanh"})
		}
		if err != nil {
			return err
		}
		if err := m.Set(name, v); err != nil {
			return err
		}
	}
	return nil
}

func (m *tunableModel) Clone() Parameterized {
	return &tunableModel{m.Copy()}
}

// opaqueTunable delegates to an object without exposing Clone.
type opaqueTunable struct {
	inner *Object
}

func (o opaqueTunable) Name() string { return o.inner.Name() }
func (o opaqueTunable) Params() []*Param { return o.inner.Params() }
func (o opaqueTunable) Param(name string) (*Param, bool) { return o.inner.Param(name) }
func (o opaqueTunable) Get(name string) any { return o.inner.Get(name) }
func (o opaqueTunable) Set(name string, value any) error { return o.inner.Set(name, value) }
func (o opaqueTunable) Tunable() []string { return []string{"x"} }
func (o opaqueTunable) SuggestParams(Trial, []string, string) error { return nil }

func newTuneTree() (*Tree, *tunableModel, *tunableModel) {
	top := newTunableModel()
	nested := newTunableModel()
	tree := NewTree().
		Add("model", top).
		Add("plain", MustNew("plain", Integer("seed", 1))).
		AddTree("data", NewTree().Add("aug", nested))
	return tree, top, nested
}

func TestTunableNames(t *testing.T) {
	tree, _, _ := newTuneTree()
	names, err := TunableNames(tree, TuneOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"data.aug.act", "data.aug.layers", "data.aug.lr",
		"model.act", "model.layers", "model.lr",
	}, names)

	single, err := TunableNames(Leaf{newTunableModel()}, TuneOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"act", "layers", "lr"}, single)

	_, err = TunableNames(tree, TuneOptions{OnDecimal: MissingPolicy(42)})
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestSuggestTree(t *testing.T) {
	t.Run("AllNames", func(t *testing.T) {
		tree, top, nested := newTuneTree()
		trial := &fakeTrial{}
		out, err := SuggestTree(trial, tree, nil, TuneOptions{})
		require.NoError(t, err)

		assert.ElementsMatch(t, []string{
			"data.aug.act", "data.aug.layers", "data.aug.lr",
			"model.act", "model.layers", "model.lr",
		}, trial.asked)

		got, ok := out.(*Tree).Lookup("model")
		require.True(t, ok)
		assert.Equal(t, int64(5), got.Get("layers"))
		assert.Equal(t, "tanh", got.Get("act"))
		assert.InDelta(t, 1e-3, got.Get("lr"), 1e-12)
		assert.Equal(t, "yes", got.Get("fixed"))
		assert.IsType(t, &tunableModel{}, got)

		// the source tree is untouched
		assert.Equal(t, int64(2), top.Get("layers"))
		assert.Equal(t, "relu", nested.Get("act"))
	})

	t.Run("Subset", func(t *testing.T) {
		tree, _, _ := newTuneTree()
		trial := &fakeTrial{}
		logger, logs := observedLogger()
		out, err := SuggestTree(trial, tree, []string{"data.aug.layers", "model.ghost"}, TuneOptions{Logger: logger})
		require.NoError(t, err)
		assert.Equal(t, []string{"data.aug.layers"}, trial.asked)

		nested, ok := out.(*Tree).Lookup("data", "aug")
		require.True(t, ok)
		assert.Equal(t, int64(5), nested.Get("layers"))
		assert.Equal(t, "relu", nested.Get("act"))

		require.Equal(t, 1, logs.Len())
		assert.Contains(t, logs.All()[0].Message, "[model.ghost]")
	})

	t.Run("Quiet", func(t *testing.T) {
		tree, _, _ := newTuneTree()
		logger, logs := observedLogger()
		_, err := SuggestTree(&fakeTrial{}, tree, []string{"nothing"}, TuneOptions{Quiet: true, Logger: logger})
		require.NoError(t, err)
		assert.Zero(t, logs.Len())
	})

	t.Run("NotCloneable", func(t *testing.T) {
		opaque := opaqueTunable{MustNew("opaque", Integer("x", 1))}
		tree := NewTree().Add("o", opaque)
		_, err := SuggestTree(&fakeTrial{}, tree, nil, TuneOptions{})
		assert.ErrorIs(t, err, ErrNotCloneable)
	})
}

func TestDecimalKeys(t *testing.T) {
	tree := NewTree().Add("v1.2", newTunableModel())

	logger, logs := observedLogger()
	names, err := TunableNames(tree, TuneOptions{Logger: logger})
	require.NoError(t, err)
	assert.Contains(t, names, "v1.2.lr")
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, `"v1.2"`)

	_, err = TunableNames(tree, TuneOptions{OnDecimal: Raise})
	assert.ErrorIs(t, err, ErrAmbiguousName)

	logger, logs = observedLogger()
	_, err = TunableNames(tree, TuneOptions{OnDecimal: Ignore, Logger: logger})
	require.NoError(t, err)
	assert.Zero(t, logs.Len())
}

func TestCollidingNames(t *testing.T) {
	tree := NewTree().
		Add("data.aug", newTunableModel()).
		AddTree("data", NewTree().Add("aug", newTunableModel()))

	logger, _ := observedLogger()
	for _, policy := range []MissingPolicy{Ignore, Warn} {
		_, err := TunableNames(tree, TuneOptions{OnDecimal: policy, Logger: logger})
		assert.ErrorIs(t, err, ErrAmbiguousName, policy.String())
		assert.ErrorContains(t, err, `"data.aug.lr"`)
	}

	_, err := SuggestTree(&fakeTrial{}, tree, []string{"data.aug.lr"}, TuneOptions{OnDecimal: Ignore})
	assert.ErrorIs(t, err, ErrAmbiguousName)
}

func TestOnlyObject(t *testing.T) {
	tree, _, _ := newTuneTree()
	names, err := TunableNames(tree, TuneOptions{})
	require.NoError(t, err)

	only, err := NewOnlyObject("hpo", names, []string{"model.lr"})
	require.NoError(t, err)
	assert.Equal(t, []string{"model.lr"}, OnlyNames(only))

	p, ok := only.Param("only")
	require.True(t, ok)
	assert.Equal(t, KindListSelector, p.Kind)
	assert.Equal(t, names, p.ChoiceNames())

	assert.Error(t, only.Set("only", []any{"model.unknown"}))

	// the selection round-trips through a flat dict
	require.NoError(t, only.Set("only", []any{"data.aug.act", "model.layers"}))
	dict, _, err := SerializeToDict(only, SerializeOptions{})
	require.NoError(t, err)
	fresh, err := NewOnlyObject("hpo", names, nil)
	require.NoError(t, err)
	assert.Empty(t, OnlyNames(fresh))
	require.NoError(t, DeserializeFromDict(dict, fresh, DeserializeOptions{}))
	assert.Equal(t, []string{"data.aug.act", "model.layers"}, OnlyNames(fresh))

	_, err = NewOnlyObject("hpo", names, []string{"bogus"})
	assert.Error(t, err)
}
