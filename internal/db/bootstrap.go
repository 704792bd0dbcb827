package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sujalbistaa/scamwatch/internal/models"
)

// PasswordHasher hashes bootstrap credentials before they are stored.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// BootstrapOptions controls the optional parts of the seed.
type BootstrapOptions struct {
	AdminEmail    string
	AdminUsername string
	AdminPassword string
	SeedDemo      bool
	Hasher        PasswordHasher
}

// DefaultCategories is the fixed category catalog.
var DefaultCategories = []models.Category{
	{ID: 1, Name: "Phishing", Emoji: "🎣", Description: "Email and website scams that steal personal information"},
	{ID: 2, Name: "Phone Scam", Emoji: "📞", Description: "Fraudulent phone calls and SMS messages"},
	{ID: 3, Name: "Investment Scam", Emoji: "💰", Description: "Fake investment opportunities and Ponzi schemes"},
	{ID: 4, Name: "Romance Scam", Emoji: "💔", Description: "Online dating and romance fraud"},
	{ID: 5, Name: "Other", Emoji: "⚠️", Description: "Other types of scams"},
}

// Bootstrap seeds reference data. It is safe to run on every start: rows that
// already exist are left untouched.
func Bootstrap(ctx context.Context, db *gorm.DB, opts BootstrapOptions) error {
	tx := db.WithContext(ctx)

	for _, c := range DefaultCategories {
		c := c
		if err := tx.Where(models.Category{ID: c.ID}).FirstOrCreate(&c).Error; err != nil {
			return fmt.Errorf("seed category %q: %w", c.Name, err)
		}
	}

	if opts.AdminEmail != "" {
		created, err := ensureUser(ctx, db, opts.Hasher, opts.AdminUsername, opts.AdminEmail, opts.AdminPassword, true)
		if err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		if created {
			slog.InfoContext(ctx, "bootstrap admin created", slog.String("email", opts.AdminEmail))
		}
	}

	if opts.SeedDemo {
		if err := seedDemo(ctx, db, opts.Hasher); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
	}
	return nil
}

func ensureUser(ctx context.Context, db *gorm.DB, hasher PasswordHasher, username, email, password string, admin bool) (bool, error) {
	email = strings.TrimSpace(email)
	var existing models.User
	err := db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if hasher == nil {
		return false, errors.New("password hasher is required")
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return false, err
	}
	u := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      admin,
	}
	if err := db.WithContext(ctx).Create(&u).Error; err != nil {
		return false, err
	}
	return true, nil
}

func seedDemo(ctx context.Context, db *gorm.DB, hasher PasswordHasher) error {
	if _, err := ensureUser(ctx, db, hasher, "demo", "demo@test.com", "demo12345", false); err != nil {
		return err
	}

	var count int64
	if err := db.WithContext(ctx).Model(&models.Warning{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	var demo models.User
	if err := db.WithContext(ctx).Where("email = ?", "demo@test.com").First(&demo).Error; err != nil {
		return err
	}

	now := time.Now().UTC()
	warnings := []models.Warning{
		{
			Title:        "Fake Bank Email",
			Description:  "Received email claiming to be from bank asking for credentials",
			WarningSigns: "Suspicious sender email, urgency tactics, asking for personal information",
			CategoryID:   1,
			AuthorID:     demo.ID,
			Status:       models.StatusApproved,
			CreatedAt:    now.Add(-time.Minute),
		},
		{
			Title:        "IRS Phone Call Scam",
			Description:  "Call claiming to be IRS threatening arrest if not paid immediately",
			WarningSigns: "Threatening language, demands immediate payment, asks for gift cards",
			CategoryID:   2,
			AuthorID:     demo.ID,
			Status:       models.StatusApproved,
			CreatedAt:    now,
		},
	}
	if err := db.WithContext(ctx).Omit("Author", "Category", "Comments").Create(&warnings).Error; err != nil {
		return err
	}
	slog.InfoContext(ctx, "demo data seeded", slog.Int("warnings", len(warnings)))
	return nil
}
