package pytree_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/born-ml/trainstate/internal/pytree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() pytree.Node {
	return pytree.NewDict().
		Set("a", pytree.Leaf{Value: 1}).
		Set("b", pytree.NewDict().
			Set("c", pytree.Leaf{Value: 2}).
			Set("d", pytree.List{pytree.Leaf{Value: 3}, pytree.Leaf{Value: 4}})).
		Set("e", pytree.NewRecord("Point").
			Set("x", pytree.Leaf{Value: 5}))
}

func TestFlattenWithPath_OrderAndPaths(t *testing.T) {
	leaves := pytree.FlattenWithPath(sampleTree())
	require.Len(t, leaves, 5)

	var paths []string
	var values []any
	for _, l := range leaves {
		paths = append(paths, l.Path.String())
		values = append(values, l.Value)
	}

	assert.Equal(t, []string{"a", "b.c", "b.d[0]", "b.d[1]", "e.x"}, paths)
	assert.Equal(t, []any{1, 2, 3, 4, 5}, values)
}

func TestDict_InsertionOrder(t *testing.T) {
	d := pytree.NewDict().
		Set("z", pytree.Leaf{Value: "z"}).
		Set("a", pytree.Leaf{Value: "a"}).
		Set("m", pytree.Leaf{Value: "m"})
	d.Set("z", pytree.Leaf{Value: "z2"})

	assert.Equal(t, []string{"z", "a", "m"}, d.Keys())
	assert.Equal(t, []any{"z2", "a", "m"}, pytree.Leaves(d))
}

func TestKeyPath_String(t *testing.T) {
	tests := []struct {
		path pytree.KeyPath
		want string
	}{
		{nil, ""},
		{pytree.KeyPath{pytree.Key("a")}, "a"},
		{pytree.KeyPath{pytree.Index(0)}, "[0]"},
		{pytree.KeyPath{pytree.Key("layers"), pytree.Index(2), pytree.Key("weight")}, "layers[2].weight"},
		{pytree.KeyPath{pytree.Field("opt_state"), pytree.Field("mu"), pytree.Key("bias")}, "opt_state.mu.bias"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.path.String())
	}
}

func TestParseKeyPath(t *testing.T) {
	for _, s := range []string{"", "a", "[0]", "b.c", "layers[2].weight", "opt_state.mu.bias", "x[1][0].y"} {
		path, err := pytree.ParseKeyPath(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, path.String())
	}

	path, err := pytree.ParseKeyPath("layers[2].weight")
	require.NoError(t, err)
	assert.Equal(t, pytree.KeyPath{pytree.Key("layers"), pytree.Index(2), pytree.Key("weight")}, path)

	for _, bad := range []string{".a", "a.", "a..b", "a[", "a[x]", "a[-1]", "a]", "[0]b", "a.[0]"} {
		_, err := pytree.ParseKeyPath(bad)
		assert.ErrorIs(t, err, pytree.ErrInvalidPath, bad)
	}
}

func TestWalk_EmptyAndRootLeaf(t *testing.T) {
	assert.Equal(t, 0, pytree.NumLeaves(nil))
	assert.Equal(t, 0, pytree.NumLeaves(pytree.NewDict()))
	assert.Equal(t, 0, pytree.NumLeaves(pytree.List{}))
	assert.Equal(t, 0, pytree.NumLeaves(pytree.NewDict().Set("x", nil)))

	leaves := pytree.FlattenWithPath(pytree.Leaf{Value: 42})
	require.Len(t, leaves, 1)
	assert.Equal(t, "", leaves[0].Path.String())
	assert.Equal(t, 42, leaves[0].Value)
}

func TestWalk_StopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	visited := 0
	err := pytree.Walk(sampleTree(), func(_ pytree.KeyPath, v any) error {
		visited++
		if v == 3 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 3, visited)
}

func TestWalk_PathsAreNotAliased(t *testing.T) {
	tree := pytree.NewDict().Set("p", pytree.List{
		pytree.Leaf{Value: 0}, pytree.Leaf{Value: 1}, pytree.Leaf{Value: 2},
	})
	var paths []pytree.KeyPath
	_ = pytree.Walk(tree, func(p pytree.KeyPath, _ any) error {
		paths = append(paths, p)
		return nil
	})
	require.Len(t, paths, 3)
	assert.Equal(t, "p[0]", paths[0].String())
	assert.Equal(t, "p[1]", paths[1].String())
	assert.Equal(t, "p[2]", paths[2].String())
}

func TestMap_NewTreeInputUntouched(t *testing.T) {
	in := sampleTree()
	out, err := pytree.Map(in, func(_ pytree.KeyPath, v any) (any, error) {
		return v.(int) * 10, nil
	})
	require.NoError(t, err)

	assert.Equal(t, []any{10, 20, 30, 40, 50}, pytree.Leaves(out))
	assert.Equal(t, []any{1, 2, 3, 4, 5}, pytree.Leaves(in))
	require.NoError(t, pytree.SameStructure(in, out))
}

func TestMap_ErrorCarriesPath(t *testing.T) {
	boom := errors.New("bad leaf")
	_, err := pytree.Map(sampleTree(), func(p pytree.KeyPath, v any) (any, error) {
		if p.String() == "b.d[1]" {
			return nil, boom
		}
		return v, nil
	})
	require.ErrorIs(t, err, boom)

	var pe *pytree.PathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "b.d[1]", pe.Path.String())
	assert.Equal(t, "b.d[1]: bad leaf", err.Error())
}

func TestMap2_Combines(t *testing.T) {
	a := sampleTree()
	b, err := pytree.Map(a, func(_ pytree.KeyPath, v any) (any, error) { return v.(int) + 100, nil })
	require.NoError(t, err)

	sum, err := pytree.Map2(a, b, func(_ pytree.KeyPath, x, y any) (any, error) {
		return x.(int) + y.(int), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []any{102, 104, 106, 108, 110}, pytree.Leaves(sum))
}

func TestSameStructure_Mismatches(t *testing.T) {
	base := pytree.NewDict().Set("w", pytree.Leaf{Value: 1}).Set("b", pytree.Leaf{Value: 2})

	tests := []struct {
		name  string
		other pytree.Node
		path  string
	}{
		{"missing key", pytree.NewDict().Set("w", pytree.Leaf{Value: 1}), ""},
		{"renamed key", pytree.NewDict().Set("w", pytree.Leaf{Value: 1}).Set("bias", pytree.Leaf{Value: 2}), ""},
		{"reordered", pytree.NewDict().Set("b", pytree.Leaf{Value: 2}).Set("w", pytree.Leaf{Value: 1}), ""},
		{"leaf vs list", pytree.NewDict().Set("w", pytree.List{}).Set("b", pytree.Leaf{Value: 2}), "w"},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pytree.SameStructure(base, tt.other)
			require.ErrorIs(t, err, pytree.ErrStructureMismatch)
			var pe *pytree.PathError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.path, pe.Path.String())
		})
	}

	require.NoError(t, pytree.SameStructure(nil, nil))
	var typedNil *pytree.Dict
	require.NoError(t, pytree.SameStructure(typedNil, nil))
}

func TestSameStructure_RecordNames(t *testing.T) {
	a := pytree.NewRecord("A").Set("x", pytree.Leaf{})
	b := pytree.NewRecord("B").Set("x", pytree.Leaf{})
	require.ErrorIs(t, pytree.SameStructure(a, b), pytree.ErrStructureMismatch)

	d := pytree.NewDict().Set("x", pytree.Leaf{})
	require.ErrorIs(t, pytree.SameStructure(a, d), pytree.ErrStructureMismatch)
}

func TestEqual(t *testing.T) {
	eq := func(x, y any) bool { return x == y }
	assert.True(t, pytree.Equal(sampleTree(), sampleTree(), eq))

	other, _ := pytree.Map(sampleTree(), func(p pytree.KeyPath, v any) (any, error) {
		if p.String() == "e.x" {
			return -1, nil
		}
		return v, nil
	})
	assert.False(t, pytree.Equal(sampleTree(), other, eq))
	assert.False(t, pytree.Equal(sampleTree(), pytree.NewDict(), eq))
}

func ExampleFlattenWithPath() {
	tree := pytree.NewDict().
		Set("layers", pytree.List{
			pytree.NewDict().Set("weight", pytree.Leaf{Value: "w0"}),
		}).
		Set("scale", pytree.Leaf{Value: 0.5})

	for _, l := range pytree.FlattenWithPath(tree) {
		fmt.Println(l.Path, l.Value)
	}
	// Output:
	// layers[0].weight w0
	// scale 0.5
}
