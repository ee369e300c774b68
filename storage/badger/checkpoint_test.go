package badger

import (
	"context"
	"testing"

	"github.com/poiesic/talkrag/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointRepository(t *testing.T) {
	_, repo, backend, err := NewMemoryIndex()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	cp, err := repo.LoadCheckpoint(ctx, "ingest:talks.csv")
	require.NoError(t, err)
	assert.Nil(t, cp)

	require.NoError(t, repo.SaveCheckpoint(ctx, &core.Checkpoint{Name: "ingest:talks.csv", Position: 12}))
	require.NoError(t, repo.SaveCheckpoint(ctx, &core.Checkpoint{Name: "reembed", Position: 3}))

	cp, err = repo.LoadCheckpoint(ctx, "ingest:talks.csv")
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, int64(12), cp.Position)
	assert.False(t, cp.UpdatedAt.IsZero())

	require.NoError(t, repo.DeleteCheckpoint(ctx, "ingest:talks.csv"))
	cp, err = repo.LoadCheckpoint(ctx, "ingest:talks.csv")
	require.NoError(t, err)
	assert.Nil(t, cp)
	require.NoError(t, repo.DeleteCheckpoint(ctx, "never-saved"))

	require.NoError(t, repo.ResetCheckpoints(ctx))
	cp, err = repo.LoadCheckpoint(ctx, "reembed")
	require.NoError(t, err)
	assert.Nil(t, cp)
}
