package server

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/mercury-im/mercury/internal/handlers"
	"github.com/mercury-im/mercury/internal/middleware"
	"github.com/mercury-im/mercury/pkg/auth"
)

func APIEndpoints(
	r *gin.Engine,
	jwtMgr *auth.JWTManager,
	rdb *redis.Client,
	authH *handlers.AuthHandler,
	userH *handlers.UserHandler,
	groupH *handlers.GroupHandler,
	messageH *handlers.MessageHandler,
	blockH *handlers.BlockHandler,
	uploadH *handlers.UploadHandler,
	wsH *handlers.WebSocketHandler,
) {
	// Auth endpoints
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", authH.Register)
		authGroup.POST("/login", authH.Login)
		authGroup.POST("/logout", middleware.AuthMiddleware(jwtMgr, rdb), authH.Logout)
	}

	// API endpoints
	api := r.Group("/api/v1", middleware.AuthMiddleware(jwtMgr, rdb))
	{
		api.GET("/users/me", userH.GetMe)
		api.GET("/users/search", userH.SearchUsers)
		api.GET("/users/online", userH.GetOnlineUsers)
		api.GET("/users/:id", userH.GetUser)
		api.POST("/users/:id/block", blockH.Block)
		api.DELETE("/users/:id/block", blockH.Unblock)
		api.GET("/blocks", blockH.ListBlocked)

		api.POST("/groups", groupH.CreateGroup)
		api.POST("/groups/join", groupH.JoinGroup)
		api.GET("/groups", groupH.MyGroups)
		api.GET("/groups/search", groupH.SearchGroups)
		api.GET("/groups/:id", groupH.GetGroup)

		api.POST("/messages", messageH.SendMessage)
		api.GET("/messages/direct/:id", messageH.GetDirectHistory)
		api.GET("/messages/direct/:id/pinned", messageH.GetPinnedDirect)
		api.GET("/messages/group/:id", messageH.GetGroupHistory)
		api.GET("/messages/group/:id/pinned", messageH.GetPinnedGroup)
		api.POST("/messages/pin", messageH.PinMessage)
		api.DELETE("/messages/:id", messageH.DeleteMessage)

		api.POST("/upload", uploadH.Upload)
	}

	r.GET("/files/:ref", uploadH.Download)

	// WebSocket
	r.GET("/ws", middleware.WSAuthMiddleware(jwtMgr, rdb), wsH.HandleWebSocket)
}
