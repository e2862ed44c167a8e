package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepositoryLikeTwice(t *testing.T) {
	mock := newMock(t)
	repo := NewCommentRepository(mock)
	ctx := context.Background()

	mock.ExpectQuery(`INSERT INTO comment_likes`).
		WithArgs("c1", "u1").
		WillReturnRows(mock.NewRows([]string{"like_count"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO comment_likes`).
		WithArgs("c1", "u1").
		WillReturnError(pgx.ErrNoRows)

	liked, count, err := repo.Like(ctx, "c1", "u1")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, count)

	liked, _, err = repo.Like(ctx, "c1", "u1")
	require.NoError(t, err)
	assert.False(t, liked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepositoryDeleteMissing(t *testing.T) {
	mock := newMock(t)
	repo := NewCommentRepository(mock)

	mock.ExpectExec(`DELETE FROM comments WHERE id = \$1 OR parent_id = \$1`).
		WithArgs("gone").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "gone"), ErrCommentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepositoryRepliesSkipsEmptyParents(t *testing.T) {
	mock := newMock(t)
	repo := NewCommentRepository(mock)

	replies, err := repo.Replies(context.Background(), nil, false)
	require.NoError(t, err)
	assert.Empty(t, replies)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepositoryHide(t *testing.T) {
	mock := newMock(t)
	repo := NewCommentRepository(mock)

	mock.ExpectExec(`UPDATE comments SET is_hidden = TRUE`).
		WithArgs("c1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.Hide(context.Background(), "c1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
