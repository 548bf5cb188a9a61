package storage

import (
	"context"

	"gorm.io/gorm"

	"chopchop-server-go/internal/platform/errors"
)

// ChatHistoryRepository persists conversation turns.
type ChatHistoryRepository struct {
	db *gorm.DB
}

func NewChatHistoryRepository(db *gorm.DB) *ChatHistoryRepository {
	return &ChatHistoryRepository{db: db}
}

func (r *ChatHistoryRepository) Append(ctx context.Context, msg *ChatMessage) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "history.append", "append chat message", err)
	}
	return nil
}

// List returns up to limit turns for email, newest first. limit <= 0 means
// no cap.
func (r *ChatHistoryRepository) List(ctx context.Context, email string, limit int) ([]ChatMessage, error) {
	var messages []ChatMessage
	q := r.db.WithContext(ctx).Where("email = ?", email).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&messages).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "history.list", "list chat messages", err)
	}
	return messages, nil
}

func (r *ChatHistoryRepository) DeleteByEmail(ctx context.Context, email string) error {
	if err := r.db.WithContext(ctx).Where("email = ?", email).Delete(&ChatMessage{}).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "history.delete", "delete chat messages", err)
	}
	return nil
}
