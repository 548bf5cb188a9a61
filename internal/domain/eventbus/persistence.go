package eventbus

import (
	"context"
	"time"

	"chopchop-server-go/internal/platform/logging"
	"chopchop-server-go/internal/platform/storage"
)

const persistTimeout = 10 * time.Second

// Persister subscribes to chat and recipe events and writes them to storage.
// Failures are logged and swallowed; persistence never blocks or fails a
// request.
type Persister struct {
	history *storage.ChatHistoryRepository
	recipes *storage.RecentRecipeRepository
	logger  *logging.Logger
}

func NewPersister(history *storage.ChatHistoryRepository, recipes *storage.RecentRecipeRepository, logger *logging.Logger) *Persister {
	return &Persister{history: history, recipes: recipes, logger: logger}
}

// Register wires the persister onto bus.
func (p *Persister) Register(bus *AsyncEventBus) error {
	if err := bus.SubscribeAsync(EventChatTurn, p.onChatTurn); err != nil {
		return err
	}
	return bus.SubscribeAsync(EventRecipeGenerated, p.onRecipeGenerated)
}

func (p *Persister) onChatTurn(event ChatTurnEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	err := p.history.Append(ctx, &storage.ChatMessage{
		Email:       event.Email,
		Role:        event.Role,
		Content:     event.Content,
		ImageFormat: event.ImageFormat,
		CreatedAt:   event.CreatedAt,
	})
	if err != nil {
		p.logger.WarnTag("STORE", "chat turn not persisted: %v", err)
	}
}

func (p *Persister) onRecipeGenerated(event RecipeGeneratedEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	err := p.recipes.Add(ctx, &storage.RecentRecipe{
		Email:     event.Email,
		RecipeID:  event.RecipeID,
		Payload:   event.Payload,
		CreatedAt: event.CreatedAt,
	})
	if err != nil {
		p.logger.WarnTag("STORE", "generated recipe not persisted: %v", err)
	}
}
