package migrations

import (
	"gorm.io/gorm"
)

// Initial returns the migration that creates the core tables.
func Initial() *initialMigration {
	return &initialMigration{}
}

type initialMigration struct{}

func (m *initialMigration) Version() string {
	return "001_initial"
}

func (m *initialMigration) Description() string {
	return "Create user data, chat history and recipe tables"
}

func (m *initialMigration) Up(db *gorm.DB) error {
	// Raw SQL so the schema stays stable even when the Go models evolve.
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS user_data (
			id VARCHAR(36) PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			items JSON,
			recipes JSON,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return err
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS chat_messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email VARCHAR(255) NOT NULL,
			role VARCHAR(32) NOT NULL,
			content TEXT NOT NULL,
			image_format VARCHAR(16),
			created_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return err
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS recent_recipes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email VARCHAR(255) NOT NULL,
			recipe_id VARCHAR(255) NOT NULL,
			payload JSON NOT NULL,
			created_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return err
	}

	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_chat_messages_email ON chat_messages(email)`).Error; err != nil {
		return err
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_chat_messages_created_at ON chat_messages(created_at)`).Error; err != nil {
		return err
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_recent_recipes_email ON recent_recipes(email)`).Error; err != nil {
		return err
	}

	return nil
}

func (m *initialMigration) Down(db *gorm.DB) error {
	if err := db.Exec(`DROP TABLE IF EXISTS recent_recipes`).Error; err != nil {
		return err
	}
	if err := db.Exec(`DROP TABLE IF EXISTS chat_messages`).Error; err != nil {
		return err
	}
	if err := db.Exec(`DROP TABLE IF EXISTS user_data`).Error; err != nil {
		return err
	}
	return nil
}
