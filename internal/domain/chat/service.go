package chat

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"chopchop-server-go/internal/platform/config"
	"chopchop-server-go/internal/platform/errors"
	"chopchop-server-go/internal/platform/logging"
	"chopchop-server-go/internal/platform/observability"
	"chopchop-server-go/internal/platform/storage"

	"chopchop-server-go/internal/domain/eventbus"
	"chopchop-server-go/internal/domain/image"
	"chopchop-server-go/internal/domain/model"
	"chopchop-server-go/internal/domain/reply"
)

// historyWindow is how many prior turns ride along as model context.
const historyWindow = 10

// HistoryReader provides prior turns for context.
type HistoryReader interface {
	List(ctx context.Context, email string, limit int) ([]storage.ChatMessage, error)
}

// Service runs one chat turn end to end: normalize the attachment, pick the
// path, call the model, interpret the completion, and hand persistence to the
// event bus.
type Service struct {
	provider   model.Provider
	normalizer *image.Normalizer
	history    HistoryReader
	bus        *eventbus.AsyncEventBus
	cfg        *config.ModelConfig
	logger     *logging.Logger
}

func NewService(
	provider model.Provider,
	normalizer *image.Normalizer,
	history HistoryReader,
	bus *eventbus.AsyncEventBus,
	cfg *config.ModelConfig,
	logger *logging.Logger,
) *Service {
	return &Service{
		provider:   provider,
		normalizer: normalizer,
		history:    history,
		bus:        bus,
		cfg:        cfg,
		logger:     logger,
	}
}

// Request is one incoming chat turn.
type Request struct {
	Email   string
	Message string
	Image   *image.Attachment
}

// Response is the interpreted model reply plus what the turn was classified
// as.
type Response struct {
	Reply         reply.Reply
	RecipeRequest bool
	Image         *image.Normalized
}

// Chat executes a single turn.
func (s *Service) Chat(ctx context.Context, req Request) (*Response, error) {
	const op = "chat.Chat"

	if strings.TrimSpace(req.Message) == "" && req.Image == nil {
		return nil, errors.New(errors.KindDomain, op, "message or image is required")
	}

	ctx, endSpan := observability.StartSpan(ctx, "chat", "turn")

	var normalized *image.Normalized
	if req.Image != nil {
		raw, err := decodeAttachment(req.Image.Data)
		if err != nil {
			endSpan(err)
			return nil, errors.Wrap(errors.KindDecode, op, "decode attachment", err)
		}
		normalized, err = s.normalizer.Normalize(raw, req.Image.Format)
		if err != nil {
			endSpan(err)
			return nil, err
		}
	}

	recipeRequest := IsRecipeRequest(req.Message, normalized != nil)

	history, err := s.priorTurns(ctx, req.Email)
	if err != nil {
		// context is nice to have, a turn without it still works
		s.logger.WarnTag("CHAT", "history unavailable, continuing without context: %v", err)
		history = nil
	}

	modelReq := model.Request{
		System:  plainSystemPrompt,
		History: history,
		Text:    req.Message,
		Params: model.Params{
			MaxTokens:   s.cfg.Plain.MaxTokens,
			Temperature: s.cfg.Plain.Temperature,
			TopP:        s.cfg.Plain.TopP,
		},
	}
	if recipeRequest {
		modelReq.System = recipeSystemPrompt
		modelReq.Params = model.Params{
			MaxTokens:   s.cfg.Recipe.MaxTokens,
			Temperature: s.cfg.Recipe.Temperature,
			TopP:        s.cfg.Recipe.TopP,
		}
	}
	if normalized != nil {
		modelReq.Image = &model.Image{Data: normalized.Data, Format: normalized.Format}
		if modelReq.Text == "" {
			modelReq.Text = "What do you see in this image?"
		}
	}

	completion, err := s.provider.Converse(ctx, modelReq)
	if err != nil {
		endSpan(err)
		return nil, err
	}
	endSpan(nil)

	interpreted := reply.Interpret(completion)

	s.recordTurn(req, normalized, completion)
	if recipeRequest {
		s.recordRecipes(req.Email, interpreted)
	}

	observability.RecordMetric(ctx, "chat_turns", 1,
		map[string]string{"recipe_request": fmt.Sprintf("%t", recipeRequest)})

	return &Response{
		Reply:         interpreted,
		RecipeRequest: recipeRequest,
		Image:         normalized,
	}, nil
}

// priorTurns loads the recent history oldest first, the order models expect.
func (s *Service) priorTurns(ctx context.Context, email string) ([]model.Message, error) {
	stored, err := s.history.List(ctx, email, historyWindow)
	if err != nil {
		return nil, err
	}

	turns := make([]model.Message, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		turns = append(turns, model.Message{
			Role:    stored[i].Role,
			Content: stored[i].Content,
		})
	}
	return turns, nil
}

// recordTurn publishes both sides of the exchange for background persistence.
func (s *Service) recordTurn(req Request, normalized *image.Normalized, completion string) {
	now := time.Now()

	userEvent := eventbus.ChatTurnEvent{
		Email:     req.Email,
		Role:      "user",
		Content:   req.Message,
		CreatedAt: now,
	}
	if normalized != nil {
		userEvent.ImageFormat = normalized.Format
	}
	s.bus.PublishAsync(eventbus.EventChatTurn, userEvent)

	s.bus.PublishAsync(eventbus.EventChatTurn, eventbus.ChatTurnEvent{
		Email:     req.Email,
		Role:      "assistant",
		Content:   completion,
		CreatedAt: now.Add(time.Millisecond),
	})
}

// recordRecipes extracts structured recipes from the reply and publishes them
// for the rolling recent-recipes list.
func (s *Service) recordRecipes(email string, interpreted reply.Reply) {
	obj := interpreted.Structured()
	if obj == nil {
		return
	}
	recipes, ok := obj["recipes"].([]interface{})
	if !ok {
		return
	}

	now := time.Now()
	for i, entry := range recipes {
		recipe, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}

		payload, err := sonic.Marshal(recipe)
		if err != nil {
			s.logger.WarnTag("CHAT", "recipe payload not serializable: %v", err)
			continue
		}

		id, _ := recipe["id"].(string)
		if id == "" {
			id = uuid.NewString()
		}

		s.bus.PublishAsync(eventbus.EventRecipeGenerated, eventbus.RecipeGeneratedEvent{
			Email:     email,
			RecipeID:  id,
			Payload:   payload,
			CreatedAt: now.Add(time.Duration(i) * time.Millisecond),
		})
	}
}

// decodeAttachment accepts plain base64 or a full data URL.
func decodeAttachment(data string) ([]byte, error) {
	if data == "" {
		return nil, fmt.Errorf("empty attachment data")
	}
	if idx := strings.Index(data, "base64,"); idx >= 0 && strings.HasPrefix(data, "data:") {
		data = data[idx+len("base64,"):]
	}
	return base64.StdEncoding.DecodeString(data)
}
