package store

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sujalbistaa/scamwatch/internal/models"
)

// WarningFilter narrows List. Zero values mean no filtering on that field.
type WarningFilter struct {
	Status     models.Status
	CategoryID uint
	// Term is a case-insensitive substring matched against title or description.
	Term string
}

// WarningStore persists warnings. Every read preloads Author and Category.
type WarningStore struct {
	db *gorm.DB
}

func NewWarningStore(db *gorm.DB) *WarningStore {
	return &WarningStore{db: db}
}

func (s *WarningStore) joined(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Author").Preload("Category")
}

// Create inserts w and reloads it with its author and category.
func (s *WarningStore) Create(ctx context.Context, w *models.Warning) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(w).Error; err != nil {
		return err
	}
	return s.joined(ctx).First(w, w.ID).Error
}

func (s *WarningStore) Get(ctx context.Context, id uint) (*models.Warning, error) {
	var w models.Warning
	if err := s.joined(ctx).First(&w, id).Error; err != nil {
		return nil, notFound(err, "warning", id)
	}
	return &w, nil
}

// Save writes every column of w and reloads its associations, since the
// category may have changed.
func (s *WarningStore) Save(ctx context.Context, w *models.Warning) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(w).Error; err != nil {
		return err
	}
	return s.joined(ctx).First(w, w.ID).Error
}

// SetStatus updates only the status column.
func (s *WarningStore) SetStatus(ctx context.Context, id uint, status models.Status) (*models.Warning, error) {
	res := s.db.WithContext(ctx).Model(&models.Warning{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	// RowsAffected is 0 both for a missing row and, on some drivers, for an
	// unchanged value, so existence is settled by the reload.
	return s.Get(ctx, id)
}

// Delete removes the warning and all of its comments in one transaction.
func (s *WarningStore) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("warning_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Warning{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound(gorm.ErrRecordNotFound, "warning", id)
		}
		return nil
	})
}

// List returns matching warnings newest first. The term is matched in Go
// with Unicode case folding, since SQLite's LOWER only folds ASCII.
func (s *WarningStore) List(ctx context.Context, f WarningFilter) ([]models.Warning, error) {
	q := s.joined(ctx)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.CategoryID != 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}

	var warnings []models.Warning
	if err := q.Order("created_at desc").Order("id desc").Find(&warnings).Error; err != nil {
		return nil, err
	}
	if term := strings.TrimSpace(f.Term); term != "" {
		warnings = matchTerm(warnings, term)
	}
	return warnings, nil
}

// matchTerm keeps the warnings whose title or description contains term,
// ignoring case. It filters in place.
func matchTerm(warnings []models.Warning, term string) []models.Warning {
	fold := cases.Fold()
	needle := fold.String(term)

	kept := warnings[:0]
	for _, w := range warnings {
		if strings.Contains(fold.String(w.Title), needle) || strings.Contains(fold.String(w.Description), needle) {
			kept = append(kept, w)
		}
	}
	return kept
}
