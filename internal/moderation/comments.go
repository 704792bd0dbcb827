package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sujalbistaa/scamwatch/internal/models"
)

// CommentRecords is the comment store.
type CommentRecords interface {
	Create(ctx context.Context, c *models.Comment) error
	Get(ctx context.Context, id uint) (*models.Comment, error)
	Delete(ctx context.Context, id uint) error
	ListByWarning(ctx context.Context, warningID uint) ([]models.Comment, error)
}

// Comments manages the discussion thread under each warning.
//
// The thread follows the visibility of its warning: anyone may read and
// comment on an Approved warning, while a Pending or Rejected one is open
// only to its author and to admins. To everyone else a hidden warning
// behaves exactly like a missing one. A comment added while its warning is being deleted may fail on the
// foreign key instead of with ErrNotFound; that race is not resolved here.
type Comments struct {
	warnings Warnings
	comments CommentRecords
	now      func() time.Time
}

func NewComments(warnings Warnings, comments CommentRecords) *Comments {
	return &Comments{
		warnings: warnings,
		comments: comments,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Add posts a comment by the caller on warningID.
func (c *Comments) Add(ctx context.Context, caller Caller, warningID uint, text string) (models.CommentView, error) {
	if err := requireIdentity(caller); err != nil {
		return models.CommentView{}, err
	}
	text, err := validateComment(text)
	if err != nil {
		return models.CommentView{}, err
	}
	w, err := c.warnings.Get(ctx, warningID)
	if err != nil {
		return models.CommentView{}, err
	}
	if !visible(caller, w) {
		return models.CommentView{}, fmt.Errorf("%w: warning %d", models.ErrNotFound, warningID)
	}

	comment := &models.Comment{
		Text:      text,
		WarningID: warningID,
		UserID:    caller.UserID,
		CreatedAt: c.now(),
	}
	if err := c.comments.Create(ctx, comment); err != nil {
		return models.CommentView{}, fmt.Errorf("create comment: %w", err)
	}
	slog.InfoContext(ctx, "comment added",
		slog.Uint64("comment_id", uint64(comment.ID)),
		slog.Uint64("warning_id", uint64(warningID)),
	)
	return models.NewCommentView(comment), nil
}

// List returns the comments on warningID oldest first. A missing warning,
// or one the caller cannot see, has no comments.
func (c *Comments) List(ctx context.Context, caller Caller, warningID uint) ([]models.CommentView, error) {
	w, err := c.warnings.Get(ctx, warningID)
	if errors.Is(err, models.ErrNotFound) {
		return []models.CommentView{}, nil
	}
	if err != nil {
		return nil, err
	}
	if !visible(caller, w) {
		return []models.CommentView{}, nil
	}

	comments, err := c.comments.ListByWarning(ctx, warningID)
	if err != nil {
		return nil, err
	}
	views := make([]models.CommentView, 0, len(comments))
	for i := range comments {
		views = append(views, models.NewCommentView(&comments[i]))
	}
	return views, nil
}

// Delete removes a single comment. Admin only.
func (c *Comments) Delete(ctx context.Context, caller Caller, id uint) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if err := c.comments.Delete(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "comment deleted",
		slog.Uint64("comment_id", uint64(id)),
		slog.Uint64("admin_id", uint64(caller.UserID)),
	)
	return nil
}
