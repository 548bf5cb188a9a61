// Package chatapi exposes the chat turn endpoint.
package chatapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"chopchop-server-go/internal/domain/chat"
	domainimage "chopchop-server-go/internal/domain/image"
	"chopchop-server-go/internal/platform/errors"
	"chopchop-server-go/internal/platform/logging"
	httptransport "chopchop-server-go/internal/transport/http"
)

// Service is the HTTP transport for the chat domain.
type Service struct {
	chat   *chat.Service
	logger *logging.Logger
}

func NewService(chatService *chat.Service, logger *logging.Logger) (*Service, error) {
	if chatService == nil {
		return nil, errors.New(errors.KindConfig, "chatapi.new", "chat service is required")
	}
	return &Service{chat: chatService, logger: logger}, nil
}

// Register mounts the chat routes on an authenticated route group.
func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	router.POST("/chat", s.handleChat)

	s.logger.InfoTag("HTTP", "chat routes registered")
	return nil
}

type chatRequest struct {
	Message string           `json:"message"`
	Image   *imageAttachment `json:"image"`
}

type imageAttachment struct {
	Data   string `json:"data" binding:"required"`
	Format string `json:"format"`
}

type chatResponse struct {
	Reply         interface{} `json:"reply"`
	RecipeRequest bool        `json:"recipe_request"`
}

func (s *Service) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	turn := chat.Request{
		Email:   httptransport.SessionEmail(c),
		Message: req.Message,
	}
	if req.Image != nil {
		turn.Image = &domainimage.Attachment{
			Data:   req.Image.Data,
			Format: req.Image.Format,
		}
	}

	resp, err := s.chat.Chat(c.Request.Context(), turn)
	if err != nil {
		s.respondChatError(c, err)
		return
	}

	httptransport.RespondSuccess(c, http.StatusOK, chatResponse{
		Reply:         resp.Reply,
		RecipeRequest: resp.RecipeRequest,
	}, "")
}

// respondChatError maps domain error kinds onto HTTP statuses.
func (s *Service) respondChatError(c *gin.Context, err error) {
	switch {
	case errors.IsKind(err, errors.KindDomain):
		httptransport.RespondError(c, http.StatusBadRequest, err.Error(), nil)
	case errors.IsKind(err, errors.KindDecode):
		httptransport.RespondError(c, http.StatusUnprocessableEntity, err.Error(), nil)
	case errors.IsKind(err, errors.KindUpstream):
		s.logger.ErrorTag("MODEL", "upstream failure: %v", err)
		httptransport.RespondError(c, http.StatusBadGateway, "model request failed",
			gin.H{"details": err.Error()})
	default:
		s.logger.ErrorTag("CHAT", "chat turn failed: %v", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "chat turn failed", nil)
	}
}
