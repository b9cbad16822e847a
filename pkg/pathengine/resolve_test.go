package pathengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/jsondash/pkg/jsonvalue"
)

func TestResolve(t *testing.T) {
	doc := jsonvalue.MustParse(`{
		"data": {
			"rates": {"INR": 83.1, "USD": 1},
			"items": [{"price": 10}, {"price": 20, "tags": ["a", "b"]}],
			"grid": [[1, 2], [3, 4]],
			"nothing": null
		},
		"name": "fx"
	}`)

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "nested member", path: "data.rates.INR", want: "83.1"},
		{name: "top level", path: "name", want: "fx"},
		{name: "index then member", path: "data.items[1].price", want: "20"},
		{name: "index into nested array", path: "data.items[1].tags[0]", want: "a"},
		{name: "array of arrays", path: "data.grid[1][0]", want: "3"},
		{name: "array node", path: "data.items", want: `[{"price":10},{"price":20,"tags":["a","b"]}]`},
		{name: "legitimate null", path: "data.nothing", want: "null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(doc, tt.path)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestResolveNotFound(t *testing.T) {
	doc := jsonvalue.MustParse(`{"a":{"b":null,"list":[1,2],"s":"text"},"n":null}`)

	for _, path := range []string{
		"missing",
		"a.missing",
		"a.list[2]",
		"a.s[0]",     // index into a string
		"a.list.x",   // member into an array
		"a.s.length", // member into a string
		"a.b.c",      // null ancestor
		"n.x",        // null ancestor at the top
		"n[0]",
		"a..b", // malformed
		"a[x]",
	} {
		t.Run(path, func(t *testing.T) {
			v, ok := Resolve(doc, path)
			assert.False(t, ok)
			assert.True(t, v.IsAbsent())
		})
	}
}

func TestResolveNullShortCircuit(t *testing.T) {
	_, ok := Resolve(jsonvalue.MustParse(`{"a":null}`), "a.b")
	assert.False(t, ok)

	_, ok = Resolve(jsonvalue.MustParse(`{"a":{"b":null}}`), "a.b.c")
	assert.False(t, ok)
}

func TestResolveEmptyPathIsIdentity(t *testing.T) {
	for _, src := range []string{`{"a":1}`, `[1,2]`, `"s"`, `3`, `null`, `{}`} {
		doc := jsonvalue.MustParse(src)
		got, ok := Resolve(doc, "")
		require.True(t, ok, src)
		assert.True(t, doc.Equal(got), src)
	}
}

func TestResolveAbsentRoot(t *testing.T) {
	_, ok := Resolve(jsonvalue.Value{}, "")
	assert.False(t, ok)
	_, ok = Resolve(jsonvalue.Value{}, "a.b")
	assert.False(t, ok)
}

func TestResolveDoesNotMutate(t *testing.T) {
	doc := jsonvalue.MustParse(`{"a":[{"b":1}]}`)
	before := doc.String()
	_, _ = Resolve(doc, "a[0].b")
	_ = Enumerate(doc)
	_ = FindArrayPaths(doc)
	_ = ColumnsOf(doc, "a")
	assert.Equal(t, before, doc.String())
}

func TestResolveOr(t *testing.T) {
	doc := jsonvalue.MustParse(`{"a":{"b":null,"c":"hi"}}`)
	assert.Equal(t, "hi", ResolveOr(doc, "a.c", "--"))
	assert.Equal(t, "--", ResolveOr(doc, "a.b", "--"))
	assert.Equal(t, "N/A", ResolveOr(doc, "a.z", "N/A"))
	assert.Equal(t, "--", ResolveOr(jsonvalue.Value{}, "a", "--"))
}
