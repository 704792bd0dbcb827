// Package store holds the GORM-backed stores for users, categories,
// warnings and comments.
package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/sujalbistaa/scamwatch/internal/models"
)

// notFound maps gorm.ErrRecordNotFound to models.ErrNotFound.
func notFound(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %d", models.ErrNotFound, what, id)
	}
	return err
}
