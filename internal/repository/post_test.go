package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"socialnet/internal/models"
	"socialnet/internal/pagination"
	"socialnet/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_FeedOrderAndScope(t *testing.T) {
	db := setupSQLite(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	now := testutil.Now()

	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")
	c := testutil.CreateUser(t, db, "c")
	stranger := testutil.CreateUser(t, db, "stranger")
	testutil.Follow(t, db, a.ID, b.ID, now)
	testutil.Follow(t, db, a.ID, c.ID, now)

	fromB := testutil.CreatePost(t, db, b.ID, "t1", now.Add(-2*time.Minute))
	fromC := testutil.CreatePost(t, db, c.ID, "t2", now.Add(-time.Minute))
	testutil.CreatePost(t, db, stranger.ID, "unrelated", now)
	testutil.CreatePost(t, db, a.ID, "own", now)

	posts, err := repo.ListFeed(ctx, a.ID, pagination.Cursor{}, 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, fromC.ID, posts[0].ID)
	assert.Equal(t, fromB.ID, posts[1].ID)
	require.NotNil(t, posts[0].Author)
	assert.Equal(t, "c", posts[0].Author.Username)
}

func TestPostRepository_FeedEmptyFollowSet(t *testing.T) {
	db := setupSQLite(t)
	repo := NewPostRepository(db)
	loner := testutil.CreateUser(t, db, "loner")
	other := testutil.CreateUser(t, db, "other")
	testutil.CreatePost(t, db, other.ID, "hello", testutil.Now())

	posts, err := repo.ListFeed(context.Background(), loner.ID, pagination.Cursor{}, 10)
	require.NoError(t, err)
	assert.Empty(t, posts)

	page, total, err := repo.ListFeedPage(context.Background(), loner.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, page)
	assert.Zero(t, total)
}

func TestPostRepository_FeedCursorWalksEveryPostOnce(t *testing.T) {
	db := setupSQLite(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	reader := testutil.CreateUser(t, db, "reader")
	base := testutil.Now().Add(-time.Hour)

	for i := 0; i < 3; i++ {
		author := testutil.CreateUser(t, db, fmt.Sprintf("author%d", i))
		testutil.Follow(t, db, reader.ID, author.ID, base)
		for j := 0; j < 8; j++ {
			// Several posts share a timestamp so the id tiebreak matters.
			testutil.CreatePost(t, db, author.ID, "p", base.Add(time.Duration(j)*time.Second))
		}
	}

	const limit = 5
	seen := map[uint]bool{}
	var cursor pagination.Cursor
	var last *models.Post
	for pages := 0; pages < 10; pages++ {
		posts, err := repo.ListFeed(ctx, reader.ID, cursor, limit)
		require.NoError(t, err)
		hasMore := len(posts) > limit
		if hasMore {
			posts = posts[:limit]
		}
		for _, p := range posts {
			assert.False(t, seen[p.ID], "post %d returned twice", p.ID)
			seen[p.ID] = true
			if last != nil {
				newer := p.CreatedAt.After(last.CreatedAt) ||
					(p.CreatedAt.Equal(last.CreatedAt) && p.ID > last.ID)
				assert.False(t, newer, "feed must be newest first")
			}
			last = p
		}
		if !hasMore {
			break
		}
		cursor = pagination.After(last.CreatedAt, last.ID)
	}

	assert.Len(t, seen, 24)

	_, total, err := repo.ListFeedPage(ctx, reader.ID, 10, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(24), total)
}

func TestPostRepository_LikeIsIdempotent(t *testing.T) {
	db := setupSQLite(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "author")
	fan := testutil.CreateUser(t, db, "fan")
	post := testutil.CreatePost(t, db, author.ID, "hi", testutil.Now())

	created, err := repo.Like(ctx, fan.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Like(ctx, fan.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, created)

	viewed, err := repo.GetByID(ctx, post.ID, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, viewed.LikesCount)
	assert.True(t, viewed.Liked)

	anon, err := repo.GetByID(ctx, post.ID, 0)
	require.NoError(t, err)
	assert.False(t, anon.Liked)

	removed, err := repo.Unlike(ctx, fan.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = repo.Unlike(ctx, fan.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestPostRepository_ConcurrentLikesInsertOnce(t *testing.T) {
	db := setupSQLite(t)
	repo := NewPostRepository(db)
	author := testutil.CreateUser(t, db, "author")
	fan := testutil.CreateUser(t, db, "fan")
	post := testutil.CreatePost(t, db, author.ID, "hi", testutil.Now())

	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := repo.Like(context.Background(), fan.ID, post.ID)
			assert.NoError(t, err)
			if created {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, createdCount)
	assert.Equal(t, int64(1), testutil.Count(t, db, &models.Like{}, "post_id = ?", post.ID))
}

func TestPostRepository_DeleteCascades(t *testing.T) {
	db := setupSQLite(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "author")
	fan := testutil.CreateUser(t, db, "fan")
	post := testutil.CreatePost(t, db, author.ID, "doomed", testutil.Now())

	require.NoError(t, db.Create(&models.Like{UserID: fan.ID, PostID: post.ID}).Error)
	require.NoError(t, db.Omit("User").Create(&models.Comment{UserID: fan.ID, PostID: post.ID, Content: "c"}).Error)
	require.NoError(t, db.Omit("Sender").Create(&models.Notification{UserID: author.ID, SenderID: fan.ID, PostID: &post.ID, Kind: models.NotificationKindLike, Message: "m"}).Error)
	msg := &models.DirectMessage{SenderID: fan.ID, RecipientID: author.ID, Content: "look", PostID: &post.ID}
	require.NoError(t, db.Omit("Sender", "Recipient").Create(msg).Error)
	repost := &models.Post{AuthorID: fan.ID, Content: "rt", SharedPostID: &post.ID}
	require.NoError(t, db.Omit("Author", "SharedPost").Create(repost).Error)

	require.NoError(t, repo.Delete(ctx, post.ID))

	assert.Zero(t, testutil.Count(t, db, &models.Like{}, "post_id = ?", post.ID))
	assert.Zero(t, testutil.Count(t, db, &models.Comment{}, "post_id = ?", post.ID))
	assert.Zero(t, testutil.Count(t, db, &models.Notification{}, "post_id = ?", post.ID))
	assert.Equal(t, int64(1), testutil.Count(t, db, &models.DirectMessage{}, "id = ? AND post_id IS NULL", msg.ID))
	assert.Equal(t, int64(1), testutil.Count(t, db, &models.Post{}, "id = ? AND shared_post_id IS NULL", repost.ID))

	_, err := repo.GetByID(ctx, post.ID, 0)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)

	err = repo.Delete(ctx, post.ID)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestPostRepository_SharedPostPreload(t *testing.T) {
	db := setupSQLite(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "author")
	sharer := testutil.CreateUser(t, db, "sharer")
	original := testutil.CreatePost(t, db, author.ID, "original", testutil.Now())

	repost := &models.Post{AuthorID: sharer.ID, Content: "", SharedPostID: &original.ID}
	require.NoError(t, repo.Create(ctx, repost))

	got, err := repo.GetByID(ctx, repost.ID, 0)
	require.NoError(t, err)
	require.NotNil(t, got.SharedPost)
	assert.Equal(t, "original", got.SharedPost.Content)
	require.NotNil(t, got.SharedPost.Author)
	assert.Equal(t, "author", got.SharedPost.Author.Username)

	posts, total, err := repo.ListByAuthor(ctx, sharer.ID, 10, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, posts, 1)
}
