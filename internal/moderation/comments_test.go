package moderation

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujalbistaa/scamwatch/internal/models"
)

func TestAddCommentOnPendingWarning(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.create(t, "Fake Bank Email")

	c, err := f.comments.Add(ctx, f.author, w.ID, "  Got the same email yesterday.  ")
	require.NoError(t, err)

	assert.NotZero(t, c.ID)
	assert.Equal(t, "Got the same email yesterday.", c.Text)
	assert.Equal(t, "u1", c.Username)
	assert.Equal(t, w.ID, c.WarningID)

	_, err = f.comments.Add(ctx, f.admin, w.ID, "Checking this one.")
	assert.NoError(t, err)
}

func TestCommentsFollowWarningVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hidden := f.create(t, "Fake Bank Email")
	_, err := f.comments.Add(ctx, f.author, hidden.ID, "More detail from the author.")
	require.NoError(t, err)

	// a hidden warning is indistinguishable from a missing one
	_, hiddenErr := f.comments.Add(ctx, f.other, hidden.ID, "hello")
	_, missingErr := f.comments.Add(ctx, f.other, 9999, "hello")
	assert.ErrorIs(t, hiddenErr, models.ErrNotFound)
	assert.ErrorIs(t, missingErr, models.ErrNotFound)

	for _, caller := range []Caller{{}, f.other} {
		got, err := f.comments.List(ctx, caller, hidden.ID)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
	for _, caller := range []Caller{f.author, f.admin} {
		got, err := f.comments.List(ctx, caller, hidden.ID)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	}

	_, err = f.engine.Approve(ctx, f.admin, hidden.ID)
	require.NoError(t, err)
	_, err = f.comments.Add(ctx, f.other, hidden.ID, "Same here.")
	require.NoError(t, err)
	got, err := f.comments.List(ctx, Caller{}, hidden.ID)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestAddCommentToMissingWarningPersistsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.comments.Add(ctx, f.author, 9999, "hello")
	require.ErrorIs(t, err, models.ErrNotFound)

	got, err := f.comments.List(ctx, f.admin, 9999)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAddCommentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.create(t, "Fake Bank Email")

	_, err := f.comments.Add(ctx, Caller{}, w.ID, "hello")
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = f.comments.Add(ctx, f.author, w.ID, "   ")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.comments.Add(ctx, f.author, w.ID, strings.Repeat("a", CommentMax+1))
	assert.ErrorIs(t, err, models.ErrValidation)

	// the bound counts characters, not bytes
	_, err = f.comments.Add(ctx, f.author, w.ID, strings.Repeat("é", CommentMax))
	assert.NoError(t, err)
}

func TestListCommentsOldestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.create(t, "Fake Bank Email")
	other := f.create(t, "Unrelated report")

	for _, text := range []string{"first", "second", "third"} {
		_, err := f.comments.Add(ctx, f.author, w.ID, text)
		require.NoError(t, err)
	}
	_, err := f.comments.Add(ctx, f.author, other.ID, "elsewhere")
	require.NoError(t, err)

	got, err := f.comments.List(ctx, f.author, w.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Text)
	assert.Equal(t, "third", got[2].Text)
	assert.True(t, got[0].CreatedAt.Before(got[2].CreatedAt))
}

func TestDeleteComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.create(t, "Fake Bank Email")
	c, err := f.comments.Add(ctx, f.author, w.ID, "spam spam spam")
	require.NoError(t, err)

	assert.ErrorIs(t, f.comments.Delete(ctx, f.other, c.ID), models.ErrUnauthorized)
	assert.ErrorIs(t, f.comments.Delete(ctx, Caller{}, c.ID), models.ErrUnauthorized)
	require.NoError(t, f.comments.Delete(ctx, f.admin, c.ID))
	assert.ErrorIs(t, f.comments.Delete(ctx, f.admin, c.ID), models.ErrNotFound)

	got, err := f.comments.List(ctx, f.admin, w.ID)
	require.NoError(t, err)
	assert.Empty(t, got)

	// the warning itself is untouched
	_, err = f.engine.Get(ctx, f.admin, w.ID)
	assert.NoError(t, err)
}
