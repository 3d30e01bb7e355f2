package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mercury-im/mercury/internal/database"
	"github.com/mercury-im/mercury/internal/groups"
	"github.com/mercury-im/mercury/internal/middleware"
	"github.com/mercury-im/mercury/internal/models"
)

type GroupHandler struct {
	db    *database.Database
	index *groups.Index
}

func NewGroupHandler(db *database.Database, index *groups.Index) *GroupHandler {
	return &GroupHandler{db: db, index: index}
}

func groupResponse(g *models.Group) gin.H {
	members := make([]gin.H, len(g.Members))
	for i, m := range g.Members {
		members[i] = gin.H{"id": m.ID, "username": m.Username}
	}
	return gin.H{
		"id":         g.ID,
		"code":       g.Code,
		"name":       g.Name,
		"created_by": g.CreatedBy,
		"created_at": g.CreatedAt,
		"members":    members,
	}
}

// CreateGroup создаёт группу, создатель сразу становится участником
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req struct {
		Name string `json:"name" binding:"required,min=1,max=100"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group := &models.Group{
		Name:      req.Name,
		CreatedBy: userID,
		CreatedAt: time.Now(),
	}

	if err := h.db.CreateGroup(group); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create group"})
		return
	}

	created, err := h.db.GetGroup(group.ID.String())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load group"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"group": groupResponse(created)})
}

// JoinGroup добавляет текущего пользователя в группу по коду
func (h *GroupHandler) JoinGroup(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req struct {
		Code string `json:"code" binding:"required,len=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.db.FindGroupByCode(req.Code)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		return
	}

	if err := h.db.JoinGroup(userID.String(), group.ID.String()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join group"})
		return
	}

	// Вступивший должен сразу видеть себя участником
	h.index.Invalidate(group.ID)

	joined, err := h.db.GetGroup(group.ID.String())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load group"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"group": groupResponse(joined)})
}

// GetGroup доступен только участникам
func (h *GroupHandler) GetGroup(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	group, err := h.db.GetGroup(groupID.String())
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		return
	}

	if !h.index.IsMember(groupID, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this group"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"group": groupResponse(group)})
}

// SearchGroups ищет по точному коду, затем по имени
func (h *GroupHandler) SearchGroups(c *gin.Context) {
	query := c.Query("q")

	if len(query) == 6 {
		if group, err := h.db.FindGroupByCode(query); err == nil {
			c.JSON(http.StatusOK, gin.H{"groups": []gin.H{groupResponse(group)}})
			return
		}
	}

	found, err := h.db.SearchGroupsByName(query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search groups"})
		return
	}

	result := make([]gin.H, len(found))
	for i := range found {
		result[i] = gin.H{
			"id":   found[i].ID,
			"code": found[i].Code,
			"name": found[i].Name,
		}
	}

	c.JSON(http.StatusOK, gin.H{"groups": result})
}

// MyGroups возвращает группы текущего пользователя
func (h *GroupHandler) MyGroups(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	userGroups, err := h.db.GetUserGroups(userID.String())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load groups"})
		return
	}

	result := make([]gin.H, len(userGroups))
	for i := range userGroups {
		result[i] = gin.H{
			"id":   userGroups[i].ID,
			"code": userGroups[i].Code,
			"name": userGroups[i].Name,
		}
	}

	c.JSON(http.StatusOK, gin.H{"groups": result})
}
