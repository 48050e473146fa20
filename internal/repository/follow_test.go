package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"socialnet/internal/models"
	"socialnet/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowRepository_CreateAndDeleteAreIdempotent(t *testing.T) {
	db := setupSQLite(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")

	created, err := repo.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(1), testutil.Count(t, db, &models.Follow{}, "follower_id = ?", a.ID))

	deleted, err := repo.Delete(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Zero(t, testutil.Count(t, db, &models.Follow{}, "1 = 1"))
}

func TestFollowRepository_CountMatchesListedPages(t *testing.T) {
	testutil.StartMiniredis(t)
	db := setupSQLite(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	target := testutil.CreateUser(t, db, "target")
	base := testutil.Now().Add(-time.Hour)
	for i := 0; i < 23; i++ {
		u := testutil.CreateUser(t, db, fmt.Sprintf("fan%02d", i))
		// Pairs share a timestamp to exercise the id tiebreak.
		testutil.Follow(t, db, u.ID, target.ID, base.Add(time.Duration(i/2)*time.Second))
	}

	count, err := repo.CountFollowers(ctx, target.ID)
	require.NoError(t, err)

	seen := map[uint]bool{}
	var previous *models.Follow
	for offset := 0; ; offset += 10 {
		page, err := repo.ListFollowers(ctx, target.ID, 10, offset)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		for i := range page {
			edge := page[i]
			require.NotNil(t, edge.Follower)
			assert.False(t, seen[edge.FollowerID], "duplicate follower across pages")
			seen[edge.FollowerID] = true
			if previous != nil {
				assert.False(t, edge.CreatedAt.After(previous.CreatedAt), "newest first")
			}
			previous = &edge
		}
	}

	assert.Equal(t, int64(23), count)
	assert.Len(t, seen, int(count))
}

func TestFollowRepository_CountsInvalidateOnMutation(t *testing.T) {
	mr, _ := testutil.StartMiniredis(t)
	db := setupSQLite(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")
	c := testutil.CreateUser(t, db, "c")

	n, err := repo.CountFollowing(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, mr.Exists("follow:following:1"))

	_, err = repo.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = repo.Create(ctx, a.ID, c.ID)
	require.NoError(t, err)

	n, err = repo.CountFollowing(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = repo.Delete(ctx, a.ID, b.ID)
	require.NoError(t, err)
	n, err = repo.CountFollowers(ctx, b.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFollowRepository_FollowingIDsBatches(t *testing.T) {
	db := setupSQLite(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()
	me := testutil.CreateUser(t, db, "me")
	var want []uint
	for i := 0; i < 5; i++ {
		u := testutil.CreateUser(t, db, fmt.Sprintf("u%d", i))
		testutil.Follow(t, db, me.ID, u.ID, testutil.Now())
		want = append(want, u.ID)
	}

	var got []uint
	var after uint
	for {
		batch, err := repo.FollowingIDs(ctx, me.ID, after, 2)
		require.NoError(t, err)
		if len(batch) == 0 {
			break
		}
		assert.LessOrEqual(t, len(batch), 2)
		got = append(got, batch...)
		after = batch[len(batch)-1]
	}
	assert.Equal(t, want, got)

	exists, err := repo.Exists(ctx, me.ID, want[0])
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.Exists(ctx, want[0], me.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}
