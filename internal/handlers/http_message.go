package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mercury-im/mercury/internal/database"
	"github.com/mercury-im/mercury/internal/groups"
	"github.com/mercury-im/mercury/internal/handlers/dto"
	"github.com/mercury-im/mercury/internal/middleware"
	"github.com/mercury-im/mercury/internal/models"
	"github.com/mercury-im/mercury/internal/router"
)

const defaultHistoryLimit = 50

type MessageHandler struct {
	db     *database.Database
	router *router.Router
	index  *groups.Index
}

func NewMessageHandler(db *database.Database, r *router.Router, index *groups.Index) *MessageHandler {
	return &MessageHandler{db: db, router: r, index: index}
}

// statusFromRouterError отображает таксономию ядра на HTTP-статусы
func statusFromRouterError(err error) int {
	switch {
	case errors.Is(err, router.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, router.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, router.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// SendMessage — HTTP-путь отправки; живое соединение для него не нужно
func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.router.Send(userID, router.SendRequest{
		RecipientID: req.RecipientID,
		GroupID:     req.GroupID,
		Kind:        req.Kind,
		Content:     req.Content,
		FileURL:     req.FileURL,
		FileName:    req.FileName,
		FileSize:    req.FileSize,
		Duration:    req.Duration,
	})
	if err != nil {
		c.JSON(statusFromRouterError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": dto.MessageResponseFrom(message)})
}

// GetDirectHistory возвращает переписку с пользователем
func (h *MessageHandler) GetDirectHistory(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	otherID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	messages, err := h.db.GetDirectMessages(userID, otherID, historyLimit(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messageResponses(messages)})
}

// GetGroupHistory доступна только участникам группы
func (h *MessageHandler) GetGroupHistory(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	if !h.index.IsMember(groupID, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this group"})
		return
	}

	messages, err := h.db.GetGroupMessages(groupID, historyLimit(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messageResponses(messages)})
}

// GetPinnedDirect возвращает закрепленные сообщения личной переписки
func (h *MessageHandler) GetPinnedDirect(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	otherID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	messages, err := h.db.GetPinnedDirectMessages(userID, otherID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messageResponses(messages)})
}

// GetPinnedGroup возвращает закрепленные сообщения группы
func (h *MessageHandler) GetPinnedGroup(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	if !h.index.IsMember(groupID, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this group"})
		return
	}

	messages, err := h.db.GetPinnedGroupMessages(groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messageResponses(messages)})
}

// PinMessage закрепляет или открепляет сообщение
func (h *MessageHandler) PinMessage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req dto.PinMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.router.Pin(userID, req.MessageID.String(), *req.Pinned)
	if err != nil {
		c.JSON(statusFromRouterError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": dto.MessageResponseFrom(message)})
}

// DeleteMessage — мягкое удаление своего сообщения
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	if err := h.router.Delete(userID, messageID.String()); err != nil {
		c.JSON(statusFromRouterError(err), gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusOK)
}

func historyLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", ""))
	if err != nil || limit <= 0 || limit > 200 {
		return defaultHistoryLimit
	}
	return limit
}

func messageResponses(messages []models.Message) []dto.MessageResponse {
	responses := make([]dto.MessageResponse, len(messages))
	for i := range messages {
		responses[i] = dto.MessageResponseFrom(&messages[i])
	}
	return responses
}
