package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextRoundTrip(t *testing.T) {
	run := &Run{StorePath: "/tmp/w.yaml", NoColor: true}
	ctx := IntoContext(context.Background(), run)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, run, got)
	assert.Same(t, run, RunFrom(ctx))
}

func TestFromContextMissing(t *testing.T) {
	tests := map[string]context.Context{
		"empty":       context.Background(),
		"nil run":     IntoContext(context.Background(), nil),
		"foreign key": context.WithValue(context.Background(), struct{}{}, &Run{}),
	}
	for name, ctx := range tests {
		t.Run(name, func(t *testing.T) {
			_, ok := FromContext(ctx)
			assert.False(t, ok)
			assert.Equal(t, NewCliParams(), RunFrom(ctx))
		})
	}
}

func TestInnerContextWins(t *testing.T) {
	outer := IntoContext(context.Background(), &Run{ConfigFile: "outer.yaml"})
	inner := IntoContext(outer, &Run{ConfigFile: "inner.yaml"})
	assert.Equal(t, "inner.yaml", RunFrom(inner).ConfigFile)
	assert.Equal(t, "outer.yaml", RunFrom(outer).ConfigFile)
}
