// database.go - Handles database connection and setup

package database // Declares the package name

import ( // Import required packages
	"context"

	"envsense-backend/config" // Project config
	"envsense-backend/models" // User and Location models
	"envsense-backend/store"  // Record store

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/driver/sqlite"      // SQLite driver for GORM
	"gorm.io/gorm"               // GORM ORM
	"gorm.io/gorm/logger"
)

// Connect opens the database and runs migrations.
func Connect(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		TranslateError: true,                                  // Surface unique violations as gorm.ErrDuplicatedKey
		Logger:         logger.Default.LogMode(logger.Silent), // Request logging happens in middleware
	})
	if err != nil {
		return nil, err
	}

	// SQLite has a single writer; one connection keeps writes serialized instead of busy
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	// Auto-migrate the models (create tables if needed)
	if err := db.AutoMigrate(&models.User{}, &models.Location{}); err != nil {
		return nil, err
	}
	return db, nil
}

// EnsureAdmin creates a default admin user if configured and none exists.
// Credentials come from the environment, never from code.
func EnsureAdmin(ctx context.Context, users *store.UserStore, cfg *config.Config) error {
	if !cfg.CreateAdmin {
		return nil
	}
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		log.Warn().Msg("CREATE_ADMIN set without ADMIN_EMAIL/ADMIN_PASSWORD, skipping admin bootstrap")
		return nil
	}

	count, err := users.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &models.User{
		Name:     "admin",
		Email:    cfg.AdminEmail,
		Password: string(hash),
		Role:     models.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}
	log.Info().Str("email", admin.Email).Msg("default admin created")
	return nil
}
