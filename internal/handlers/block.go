package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mercury-im/mercury/internal/middleware"
	"github.com/mercury-im/mercury/internal/moderation"
)

type BlockHandler struct {
	filter *moderation.Filter
}

func NewBlockHandler(filter *moderation.Filter) *BlockHandler {
	return &BlockHandler{filter: filter}
}

// Block запрещает доставку сообщений от указанного пользователя
func (h *BlockHandler) Block(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	blockedID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.filter.Block(userID, blockedID); err != nil {
		if errors.Is(err, moderation.ErrSelfBlock) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to block user"})
		return
	}

	c.Status(http.StatusOK)
}

// Unblock снимает блокировку; снятие несуществующей — тоже успех
func (h *BlockHandler) Unblock(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	blockedID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.filter.Unblock(userID, blockedID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unblock user"})
		return
	}

	c.Status(http.StatusOK)
}

// ListBlocked возвращает черный список текущего пользователя
func (h *BlockHandler) ListBlocked(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	c.JSON(http.StatusOK, gin.H{"blocked": h.filter.BlockedSet(userID)})
}
