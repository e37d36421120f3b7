package workspace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()

	_, err := r.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNoDataset)

	r.Set(ctx, "s1", &Workspace{FileName: "a.csv"})
	ws, err := r.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "a.csv", ws.FileName)
	assert.False(t, ws.LoadedAt.IsZero())

	r.Set(ctx, "s1", &Workspace{FileName: "b.csv"})
	ws, _ = r.Get(ctx, "s1")
	assert.Equal(t, "b.csv", ws.FileName)
	assert.Equal(t, 1, r.Len())

	r.Delete(ctx, "s1")
	_, err = r.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNoDataset)
}
