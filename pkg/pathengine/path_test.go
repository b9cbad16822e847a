package pathengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		path string
		want Path
	}{
		{name: "empty", path: "", want: Path{}},
		{name: "single member", path: "data", want: Path{{Kind: MemberSegment, Key: "data"}}},
		{
			name: "dotted",
			path: "data.rates.INR",
			want: Path{
				{Kind: MemberSegment, Key: "data"},
				{Kind: MemberSegment, Key: "rates"},
				{Kind: MemberSegment, Key: "INR"},
			},
		},
		{
			name: "index attaches to member",
			path: "data.items[3].price",
			want: Path{
				{Kind: MemberSegment, Key: "data"},
				{Kind: MemberSegment, Key: "items"},
				{Kind: IndexSegment, Index: 3},
				{Kind: MemberSegment, Key: "price"},
			},
		},
		{
			name: "repeated indexes",
			path: "grid[1][20]",
			want: Path{
				{Kind: MemberSegment, Key: "grid"},
				{Kind: IndexSegment, Index: 1},
				{Kind: IndexSegment, Index: 20},
			},
		},
		{
			name: "unicode identifier",
			path: "prix.€uro",
			want: Path{
				{Kind: MemberSegment, Key: "prix"},
				{Kind: MemberSegment, Key: "€uro"},
			},
		},
		{
			name: "identifier with spaces and dashes",
			path: "bad-key.with space",
			want: Path{
				{Kind: MemberSegment, Key: "bad-key"},
				{Kind: MemberSegment, Key: "with space"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMalformed(t *testing.T) {
	for _, path := range []string{
		".a",
		"a.",
		"a..b",
		"[0]",
		"a.[0]",
		"a[",
		"a[1",
		"a[]",
		"a[-1]",
		"a[x]",
		"a[1]b",
		"a[1]]",
		"a[99999999999999999999999]",
	} {
		t.Run(path, func(t *testing.T) {
			_, err := Parse(path)
			require.ErrorIs(t, err, ErrMalformedPath)
			assert.False(t, Valid(path))
		})
	}
}

func TestPathStringRoundTrip(t *testing.T) {
	for _, path := range []string{
		"a",
		"a.b.c",
		"items[0]",
		"data.items[3].price",
		"grid[0][1].x",
	} {
		t.Run(path, func(t *testing.T) {
			p := MustParse(path)
			assert.Equal(t, path, p.String())
			again, err := Parse(p.String())
			require.NoError(t, err)
			assert.Equal(t, p, again)
		})
	}
}

func TestPathBuilders(t *testing.T) {
	base := Path{}.Member("data").Member("items")
	withIdx := base.Index(2).Member("price")
	assert.Equal(t, "data.items", base.String(), "builders must not alias the receiver")
	assert.Equal(t, "data.items[2].price", withIdx.String())
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "a", Join("", "a"))
	assert.Equal(t, "a", Join("a", ""))
	assert.Equal(t, "a.b", Join("a", "b"))
	assert.Equal(t, "items[0].price", Join(IndexPath("items", 0), "price"))
}
