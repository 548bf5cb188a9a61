package eventbus

import "time"

// Topics.
const (
	EventChatTurn        = "chat:turn"
	EventRecipeGenerated = "recipe:generated"
)

// ChatTurnEvent is one conversation turn to persist.
type ChatTurnEvent struct {
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	ImageFormat string    `json:"image_format,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RecipeGeneratedEvent is a structured recipe the model produced.
type RecipeGeneratedEvent struct {
	Email     string    `json:"email"`
	RecipeID  string    `json:"recipe_id"`
	Payload   []byte    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}
