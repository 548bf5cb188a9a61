package storage

import (
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"chopchop-server-go/internal/platform/errors"
	"chopchop-server-go/internal/platform/storage/migrations"
)

// Open opens the sqlite database at path, creating its directory, and brings
// the schema up to date.
func Open(path string) (*gorm.DB, error) {
	const op = "storage.Open"

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(errors.KindStorage, op, "create data directory", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, op, "open database", err)
	}

	mgr := NewMigrationManager(db)
	mgr.AddMigration(migrations.Initial())
	if err := mgr.RunMigrations(); err != nil {
		return nil, err
	}

	return db, nil
}
