package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sujalbistaa/scamwatch/internal/models"
)

// CommentStore persists comments keyed by warning.
type CommentStore struct {
	db *gorm.DB
}

func NewCommentStore(db *gorm.DB) *CommentStore {
	return &CommentStore{db: db}
}

// Create inserts c and reloads it with the commenting user.
func (s *CommentStore) Create(ctx context.Context, c *models.Comment) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error; err != nil {
		return err
	}
	return s.db.WithContext(ctx).Preload("User").First(c, c.ID).Error
}

func (s *CommentStore) Get(ctx context.Context, id uint) (*models.Comment, error) {
	var c models.Comment
	if err := s.db.WithContext(ctx).Preload("User").First(&c, id).Error; err != nil {
		return nil, notFound(err, "comment", id)
	}
	return &c, nil
}

func (s *CommentStore) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "comment", id)
	}
	return nil
}

// ListByWarning returns the comments on a warning oldest first.
func (s *CommentStore) ListByWarning(ctx context.Context, warningID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("warning_id = ?", warningID).
		Order("created_at asc").Order("id asc").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}
