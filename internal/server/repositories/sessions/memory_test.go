package sessions

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/agrocms/internal/common"
	"github.com/dmitrijs2005/agrocms/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_Lifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := NewMemoryRepository()
	repo.now = func() time.Time { return now }

	require.NoError(t, repo.Create(ctx, &models.Session{ID: "a", UserID: 1, Expires: now.Add(time.Hour)}))

	s, err := repo.Find(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.UserID)

	newExp := now.Add(2 * time.Hour)
	require.NoError(t, repo.Touch(ctx, "a", newExp))
	s, _ = repo.Find(ctx, "a")
	assert.Equal(t, newExp, s.Expires)

	require.NoError(t, repo.Delete(ctx, "a"))
	require.NoError(t, repo.Delete(ctx, "a"))
	_, err = repo.Find(ctx, "a")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, repo.Touch(ctx, "a", newExp), common.ErrorNotFound)
}

func TestMemory_ExpiredIsInvisibleUntilSwept(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := NewMemoryRepository()
	repo.now = func() time.Time { return now }

	require.NoError(t, repo.Create(ctx, &models.Session{ID: "old", UserID: 1, Expires: now}))
	require.NoError(t, repo.Create(ctx, &models.Session{ID: "new", UserID: 2, Expires: now.Add(time.Minute)}))

	_, err := repo.Find(ctx, "old")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Equal(t, 2, repo.Len())

	n, err := repo.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, repo.Len())
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	exp := time.Now().Add(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i%26))
			_ = repo.Create(ctx, &models.Session{ID: id, UserID: int64(i), Expires: exp})
			_, _ = repo.Find(ctx, id)
			_, _ = repo.DeleteExpired(ctx)
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, repo.Len(), 26)
}
