package storage

import (
	"time"

	"gorm.io/datatypes"
)

// UserData is the per-user document of grocery items and saved recipes, keyed
// by the account email.
type UserData struct {
	ID        string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Items     datatypes.JSON `gorm:"type:json" json:"items"`
	Recipes   datatypes.JSON `gorm:"type:json" json:"recipes"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (UserData) TableName() string { return "user_data" }

// ChatMessage is one turn of a conversation. ImageFormat is set on user turns
// that carried an image attachment.
type ChatMessage struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Email       string    `gorm:"index;not null" json:"email"`
	Role        string    `gorm:"type:varchar(32);not null" json:"role"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	ImageFormat string    `gorm:"type:varchar(16)" json:"image_format,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

func (ChatMessage) TableName() string { return "chat_messages" }

// RecentRecipe is one entry of the rolling recently-generated recipe list.
type RecentRecipe struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Email     string         `gorm:"index;not null" json:"email"`
	RecipeID  string         `gorm:"not null" json:"recipe_id"`
	Payload   datatypes.JSON `gorm:"type:json;not null" json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

func (RecentRecipe) TableName() string { return "recent_recipes" }
