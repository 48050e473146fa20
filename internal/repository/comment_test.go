package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"socialnet/internal/models"
	"socialnet/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	comment := &models.Comment{Content: "Nice post!", PostID: 1, UserID: 1}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "comments"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.Create(ctx, comment)
	assert.NoError(t, err)
	assert.Equal(t, uint(1), comment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepository_ListByPostOldestFirst(t *testing.T) {
	db := setupSQLite(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "author")
	post := testutil.CreatePost(t, db, author.ID, "p", testutil.Now())
	base := testutil.Now().Add(-time.Hour)

	for i, text := range []string{"first", "second", "third"} {
		at := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, db.Omit("User").Create(&models.Comment{
			UserID: author.ID, PostID: post.ID, Content: text, CreatedAt: at, UpdatedAt: at,
		}).Error)
	}

	comments, total, err := repo.ListByPost(ctx, post.ID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
	require.NotNil(t, comments[0].User)

	comments, _, err = repo.ListByPost(ctx, post.ID, 2, 2)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "third", comments[0].Content)
}

func TestCommentRepository_UpdateAndDelete(t *testing.T) {
	db := setupSQLite(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "author")
	post := testutil.CreatePost(t, db, author.ID, "p", testutil.Now())

	comment := &models.Comment{UserID: author.ID, PostID: post.ID, Content: "draft"}
	require.NoError(t, repo.Create(ctx, comment))

	comment.Content = "final"
	require.NoError(t, repo.Update(ctx, comment))
	got, err := repo.GetByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Content)

	require.NoError(t, repo.Delete(ctx, comment.ID))
	_, err = repo.GetByID(ctx, comment.ID)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}
