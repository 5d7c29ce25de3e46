package jobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTracker(t *testing.T) {
	ctx := context.Background()
	tr := NewMemory()

	_, err := tr.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, tr.Put(ctx, Job{ID: "j-1", FileName: "august.pdf", Status: StatusQueued}))
	queued, err := tr.Get(ctx, "j-1")
	require.NoError(t, err)
	assert.False(t, queued.CreatedAt.IsZero())

	queued.Status = StatusDone
	queued.ParsedRows = 12
	queued.Updated = 10
	require.NoError(t, tr.Put(ctx, queued))

	done, err := tr.Get(ctx, "j-1")
	require.NoError(t, err)
	assert.Equal(t, StatusDone, done.Status)
	assert.Equal(t, 12, done.ParsedRows)
	assert.Equal(t, queued.CreatedAt, done.CreatedAt)
	assert.False(t, done.UpdatedAt.Before(queued.UpdatedAt))
}
