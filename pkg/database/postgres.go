package database

import (
	"fmt"
	"time"

	"onlineShop/domain"
	"onlineShop/pkg/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func InitPostgres(cfg *config.Config) (*gorm.DB, error) {
	return Open(cfg.Database.DSN(), cfg.App.Environment)
}

// Open connects with the given DSN, tunes the pool and migrates the schema.
func Open(dsn, env string) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if env == "production" {
		logLevel = gormlogger.Error
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:      gormlogger.Default.LogMode(logLevel),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Partial unique indexes: one in_cart line per (user, product), and usernames
// and emails unique among users that are not soft deleted.
var partialIndexes = []struct {
	name string
	ddl  string
}{
	{"cart line", `CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_user_product_in_cart
		ON orders (user_id, product_id) WHERE status = 'in_cart'`},
	{"username", `CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_live
		ON users (username) WHERE deleted_at IS NULL`},
	{"email", `CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_live
		ON users (email) WHERE deleted_at IS NULL`},
}

// Migrate creates the tables and the partial unique indexes.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.User{}, &domain.Product{}, &domain.Order{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	for _, idx := range partialIndexes {
		if err := db.Exec(idx.ddl).Error; err != nil {
			return fmt.Errorf("failed to create %s index: %w", idx.name, err)
		}
	}

	return nil
}

func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
