package repository

import (
	"context"
	"testing"
	"time"

	"atelier/internal/cache"
	"atelier/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })
	return mr
}

func TestDesignRequestRepository_ListOrdering(t *testing.T) {
	f := newFixture(t)
	repo := NewDesignRequestRepository(f.db)
	ctx := context.Background()

	t1 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	f.request(t, "t1", models.RequestStatusNew, t1)
	f.request(t, "t2", models.RequestStatusAccepted, t1.Add(time.Hour))
	f.request(t, "t3", models.RequestStatusNew, t1.Add(2*time.Hour))

	got, err := repo.List(ctx, RequestFilter{OwnerID: f.owner.ID})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"t3", "t2", "t1"}, []string{got[0].Title, got[1].Title, got[2].Title})
	require.NotNil(t, got[0].Category)
	assert.Equal(t, "Kitchen", got[0].Category.Name)

	onlyNew, err := repo.List(ctx, RequestFilter{Status: models.RequestStatusNew})
	require.NoError(t, err)
	assert.Len(t, onlyNew, 2)
	require.NotNil(t, onlyNew[0].Owner)

	limited, err := repo.List(ctx, RequestFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "t3", limited[0].Title)
}

func TestDesignRequestRepository_ListBreaksTiesByID(t *testing.T) {
	f := newFixture(t)
	repo := NewDesignRequestRepository(f.db)

	same := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	first := f.request(t, "first", models.RequestStatusNew, same)
	second := f.request(t, "second", models.RequestStatusNew, same)

	got, err := repo.List(context.Background(), RequestFilter{OwnerID: f.owner.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)
}

func TestDesignRequestRepository_ApplyReview(t *testing.T) {
	f := newFixture(t)
	repo := NewDesignRequestRepository(f.db)
	ctx := context.Background()

	req := f.request(t, "kitchen", models.RequestStatusNew, time.Now())

	require.NoError(t, repo.ApplyReview(ctx, req.ID, models.RequestStatusNew, ReviewUpdate{
		Status:       models.RequestStatusAccepted,
		AdminComment: "Will start Monday",
	}))

	got, err := repo.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusAccepted, got.Status)
	assert.Equal(t, "Will start Monday", got.AdminComment)
	assert.Nil(t, got.DesignImage)
	require.NotNil(t, got.Owner)
	assert.Equal(t, f.owner.Email, got.Owner.Email)

	// A stale writer that still believes the request is new is refused.
	err = repo.ApplyReview(ctx, req.ID, models.RequestStatusNew, ReviewUpdate{
		Status:       models.RequestStatusAccepted,
		AdminComment: "late",
	})
	assert.True(t, models.IsCode(err, models.CodeInvalidState))

	design := "design_images/kitchen.png"
	require.NoError(t, repo.ApplyReview(ctx, req.ID, models.RequestStatusAccepted, ReviewUpdate{
		Status:       models.RequestStatusCompleted,
		AdminComment: "Done",
		DesignImage:  &design,
	}))

	got, err = repo.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusCompleted, got.Status)
	require.NotNil(t, got.DesignImage)
	assert.Equal(t, design, *got.DesignImage)
}

func TestDesignRequestRepository_DeleteIfNew(t *testing.T) {
	f := newFixture(t)
	repo := NewDesignRequestRepository(f.db)
	ctx := context.Background()

	fresh := f.request(t, "fresh", models.RequestStatusNew, time.Now())
	started := f.request(t, "started", models.RequestStatusAccepted, time.Now())

	ok, err := repo.DeleteIfNew(ctx, started.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.DeleteIfNew(ctx, fresh.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.GetByID(ctx, fresh.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
	_, err = repo.GetByID(ctx, started.ID)
	assert.NoError(t, err)
}

func TestDesignRequestRepository_SummariesAreCachedAndInvalidated(t *testing.T) {
	mr := withRedis(t)
	f := newFixture(t)
	repo := NewDesignRequestRepository(f.db)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"c1", "c2", "c3", "c4", "c5"} {
		f.request(t, title, models.RequestStatusCompleted, base.Add(time.Duration(i)*time.Hour))
	}
	accepted := f.request(t, "wip", models.RequestStatusAccepted, base)

	recent, err := repo.RecentCompleted(ctx, 4)
	require.NoError(t, err)
	require.Len(t, recent, 4)
	assert.Equal(t, "c5", recent[0].Title)
	assert.Equal(t, "c2", recent[3].Title)
	assert.True(t, mr.Exists(cache.RecentCompletedKey(4)))

	count, err := repo.CountByStatus(ctx, models.RequestStatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.True(t, mr.Exists(cache.RequestCountKey("accepted")))

	design := "design_images/wip.png"
	require.NoError(t, repo.ApplyReview(ctx, accepted.ID, models.RequestStatusAccepted, ReviewUpdate{
		Status:      models.RequestStatusCompleted,
		DesignImage: &design,
	}))
	assert.False(t, mr.Exists(cache.RecentCompletedKey(4)))
	assert.False(t, mr.Exists(cache.RequestCountKey("accepted")))

	count, err = repo.CountByStatus(ctx, models.RequestStatusAccepted)
	require.NoError(t, err)
	assert.Zero(t, count)
}
