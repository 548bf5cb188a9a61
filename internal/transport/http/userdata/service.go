// Package userdata exposes the persisted user state: grocery data, chat
// history, recent recipes and the digest email trigger.
package userdata

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"chopchop-server-go/internal/domain/mail"
	"chopchop-server-go/internal/platform/errors"
	"chopchop-server-go/internal/platform/logging"
	"chopchop-server-go/internal/platform/storage"
	httptransport "chopchop-server-go/internal/transport/http"
)

const defaultHistoryLimit = 50

// Service is the HTTP transport for stored user data.
type Service struct {
	userData *storage.UserDataRepository
	history  *storage.ChatHistoryRepository
	recipes  *storage.RecentRecipeRepository
	digest   *mail.DigestService
	logger   *logging.Logger
}

// NewService wires the repositories. digest may be nil when mail is disabled.
func NewService(
	userData *storage.UserDataRepository,
	history *storage.ChatHistoryRepository,
	recipes *storage.RecentRecipeRepository,
	digest *mail.DigestService,
	logger *logging.Logger,
) (*Service, error) {
	if userData == nil || history == nil || recipes == nil {
		return nil, errors.New(errors.KindConfig, "userdata.new", "repositories are required")
	}
	return &Service{
		userData: userData,
		history:  history,
		recipes:  recipes,
		digest:   digest,
		logger:   logger,
	}, nil
}

// Register mounts the user data routes on an authenticated route group.
func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	router.POST("/save-data", s.handleSaveData)
	router.GET("/get-data", s.handleGetData)
	router.POST("/update-data", s.handleUpdateData)
	router.GET("/chat-history", s.handleChatHistory)
	router.POST("/recent-recipes/add", s.handleRecipeAdd)
	router.GET("/recent-recipes/get", s.handleRecipeGet)
	router.POST("/send-email", s.handleSendEmail)

	s.logger.InfoTag("HTTP", "user data routes registered")
	return nil
}

type dataRequest struct {
	Items   json.RawMessage `json:"items"`
	Recipes json.RawMessage `json:"recipes"`
}

func (s *Service) handleSaveData(c *gin.Context) {
	var req dataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	email := httptransport.SessionEmail(c)
	err := s.userData.Save(c.Request.Context(), email,
		datatypes.JSON(req.Items), datatypes.JSON(req.Recipes))
	if err != nil {
		s.logger.ErrorTag("STORE", "save data failed: %v", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "save failed", nil)
		return
	}

	httptransport.RespondSuccess(c, http.StatusOK, nil, "saved")
}

func (s *Service) handleGetData(c *gin.Context) {
	email := httptransport.SessionEmail(c)

	record, err := s.userData.Find(c.Request.Context(), email)
	if err != nil {
		s.logger.ErrorTag("STORE", "get data failed: %v", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "lookup failed", nil)
		return
	}
	if record == nil {
		httptransport.RespondSuccess(c, http.StatusOK, gin.H{
			"items":   []any{},
			"recipes": []any{},
		}, "")
		return
	}

	httptransport.RespondSuccess(c, http.StatusOK, gin.H{
		"items":   rawOrEmpty(record.Items),
		"recipes": rawOrEmpty(record.Recipes),
	}, "")
}

func (s *Service) handleUpdateData(c *gin.Context) {
	var req dataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	email := httptransport.SessionEmail(c)
	err := s.userData.Update(c.Request.Context(), email,
		datatypes.JSON(req.Items), datatypes.JSON(req.Recipes))
	if err != nil {
		s.logger.ErrorTag("STORE", "update data failed: %v", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "update failed", nil)
		return
	}

	httptransport.RespondSuccess(c, http.StatusOK, nil, "updated")
}

type historyEntry struct {
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	ImageFormat string    `json:"image_format,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Service) handleChatHistory(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			httptransport.RespondError(c, http.StatusBadRequest, "invalid limit", nil)
			return
		}
		limit = parsed
	}

	email := httptransport.SessionEmail(c)
	messages, err := s.history.List(c.Request.Context(), email, limit)
	if err != nil {
		s.logger.ErrorTag("STORE", "chat history failed: %v", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "lookup failed", nil)
		return
	}

	entries := make([]historyEntry, 0, len(messages))
	for _, msg := range messages {
		entries = append(entries, historyEntry{
			Role:        msg.Role,
			Content:     msg.Content,
			ImageFormat: msg.ImageFormat,
			CreatedAt:   msg.CreatedAt,
		})
	}

	httptransport.RespondSuccess(c, http.StatusOK, gin.H{"messages": entries}, "")
}

type recipeAddRequest struct {
	Recipe json.RawMessage `json:"recipe" binding:"required"`
}

func (s *Service) handleRecipeAdd(c *gin.Context) {
	var req recipeAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "recipe is required", nil)
		return
	}

	var recipe map[string]interface{}
	if err := sonic.Unmarshal(req.Recipe, &recipe); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "recipe must be a JSON object", nil)
		return
	}

	recipeID, _ := recipe["id"].(string)
	if recipeID == "" {
		recipeID = uuid.NewString()
	}

	email := httptransport.SessionEmail(c)
	err := s.recipes.Add(c.Request.Context(), &storage.RecentRecipe{
		Email:     email,
		RecipeID:  recipeID,
		Payload:   datatypes.JSON(req.Recipe),
		CreatedAt: time.Now(),
	})
	if err != nil {
		s.logger.ErrorTag("STORE", "recipe add failed: %v", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "save failed", nil)
		return
	}

	httptransport.RespondSuccess(c, http.StatusOK, gin.H{"id": recipeID}, "saved")
}

func (s *Service) handleRecipeGet(c *gin.Context) {
	email := httptransport.SessionEmail(c)

	recent, err := s.recipes.List(c.Request.Context(), email)
	if err != nil {
		s.logger.ErrorTag("STORE", "recipe list failed: %v", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "lookup failed", nil)
		return
	}

	payloads := make([]json.RawMessage, 0, len(recent))
	for _, entry := range recent {
		payloads = append(payloads, json.RawMessage(entry.Payload))
	}

	httptransport.RespondSuccess(c, http.StatusOK, gin.H{"recipes": payloads}, "")
}

func (s *Service) handleSendEmail(c *gin.Context) {
	if s.digest == nil {
		httptransport.RespondError(c, http.StatusServiceUnavailable, "mail is not configured", nil)
		return
	}

	email := httptransport.SessionEmail(c)
	if err := s.digest.Send(c.Request.Context(), email); err != nil {
		s.logger.ErrorTag("MAIL", "digest send failed: %v", err)
		httptransport.RespondError(c, http.StatusBadGateway, "digest send failed", nil)
		return
	}

	httptransport.RespondSuccess(c, http.StatusOK, nil, "digest sent")
}

func rawOrEmpty(raw datatypes.JSON) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("[]")
	}
	return json.RawMessage(raw)
}
