package operations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context) error { return nil }

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(NewFuncStep("b", "Second", noop)))
	require.NoError(t, r.Register(NewFuncStep("a", "First", noop)))

	assert.Equal(t, 2, r.Count())
	assert.Equal(t, []string{"b", "a"}, r.ListIDs())
	assert.True(t, r.Has("a"))
	assert.False(t, r.Has("c"))

	step, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "First", step.Name())

	steps := r.List()
	require.Len(t, steps, 2)
	assert.Equal(t, "b", steps[0].ID())
}

func TestRegistry_RegisterErrors(t *testing.T) {
	r := NewRegistry()

	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(NewFuncStep("", "No ID", noop)))

	require.NoError(t, r.Register(NewFuncStep("x", "X", noop)))
	assert.Error(t, r.Register(NewFuncStep("x", "Again", noop)))

	_, err := r.Get("missing")
	assert.Error(t, err)
}

func TestBaseStage_Nil(t *testing.T) {
	var b *BaseStage
	assert.Empty(t, b.ID())
	assert.Empty(t, b.Name())
}
