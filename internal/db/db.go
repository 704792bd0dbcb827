package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sujalbistaa/scamwatch/internal/models"
)

// Init opens a GORM connection for databaseURL, which must start with
// "postgres://" or "sqlite://". SQL statements are logged only when debug is set.
func Init(ctx context.Context, databaseURL string, debug bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	memory := false

	switch {
	case strings.HasPrefix(databaseURL, "postgres://"):
		dialector = postgres.Open(databaseURL)
		slog.InfoContext(ctx, "connecting to PostgreSQL database")
	case strings.HasPrefix(databaseURL, "sqlite://"):
		dsn := sqliteDSN(strings.TrimPrefix(databaseURL, "sqlite://"))
		memory = strings.Contains(dsn, ":memory:")
		dialector = sqlite.Open(dsn)
		slog.InfoContext(ctx, "connecting to SQLite database", slog.String("dsn", dsn))
	default:
		return nil, fmt.Errorf("invalid database url prefix, must start with 'postgres://' or 'sqlite://'")
	}

	logMode := logger.Silent
	if debug {
		logMode = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logMode),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}
	if memory {
		// every connection to :memory: is a separate database
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.InfoContext(ctx, "database connection established")
	return db, nil
}

// Migrate creates or updates the schema. Comments cascade with their
// warning; users referenced by comments cannot be deleted.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Warning{},
		&models.Comment{},
	)
}

// sqliteDSN turns on foreign key enforcement, which SQLite leaves off by default.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}
