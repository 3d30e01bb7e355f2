package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/mercury-im/mercury/internal/calls"
	"github.com/mercury-im/mercury/internal/config"
	"github.com/mercury-im/mercury/internal/database"
	"github.com/mercury-im/mercury/internal/filestore"
	"github.com/mercury-im/mercury/internal/groups"
	"github.com/mercury-im/mercury/internal/handlers"
	"github.com/mercury-im/mercury/internal/logger"
	"github.com/mercury-im/mercury/internal/moderation"
	"github.com/mercury-im/mercury/internal/router"
	ws "github.com/mercury-im/mercury/internal/websocket"
	"github.com/mercury-im/mercury/pkg/auth"
	"go.uber.org/zap"
)

type Server struct {
	Router *gin.Engine
	DB     *database.Database
	Redis  *redis.Client
	Hub    *ws.Hub
	Config *config.Config
}

func NewServer() *Server {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println(".env not found, using environment variables")
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("logger init failed: %v", err)
	}

	dbConn := &database.Database{}
	if err := dbConn.Connect(); err != nil {
		logger.Log.Fatal("postgres connect failed", zap.Error(err))
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Log.Fatal("invalid REDIS_URL", zap.Error(err))
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Log.Fatal("redis connect failed", zap.Error(err))
	}

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenExpiry)

	ctx := context.Background()
	hub := ws.NewHub()
	index := groups.NewIndex(ctx, dbConn)
	filter := moderation.NewFilter(ctx, dbConn)
	msgRouter := router.New(dbConn, hub, index, filter)
	relay := calls.NewRelay(hub, index)

	// Обрыв транспорта завершает участие пользователя во всех звонках
	hub.SetDisconnectHandler(relay.DropUser)

	files, err := filestore.NewLocalFileStore(cfg.UploadsPath)
	if err != nil {
		logger.Log.Fatal("filestore init failed", zap.Error(err))
	}

	authH := handlers.NewAuthHandler(dbConn, jwtMgr, rdb)
	userH := handlers.NewUserHandler(dbConn, hub)
	groupH := handlers.NewGroupHandler(dbConn, index)
	messageH := handlers.NewMessageHandler(dbConn, msgRouter, index)
	blockH := handlers.NewBlockHandler(filter)
	uploadH := handlers.NewUploadHandler(files, cfg.BaseURL, cfg.MaxUploadMB)
	eventH := handlers.NewEventHandler(dbConn, msgRouter, relay, index)
	wsH := handlers.NewWebSocketHandler(hub, eventH)

	engine := gin.Default()
	APIEndpoints(engine, jwtMgr, rdb, authH, userH, groupH, messageH, blockH, uploadH, wsH)

	return &Server{
		Router: engine,
		DB:     dbConn,
		Redis:  rdb,
		Hub:    hub,
		Config: cfg,
	}
}

func (s *Server) Run() {
	httpServer := &http.Server{
		Addr:              ":" + s.Config.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, _ := errgroup.WithContext(context.Background())

	g.Go(func() error {
		s.Hub.Run()
		return nil
	})

	g.Go(func() error {
		logger.Log.Info("server starting", zap.String("port", s.Config.Port))
		return httpServer.ListenAndServe()
	})

	if err := g.Wait(); err != nil {
		logger.Log.Fatal("server run error", zap.Error(err))
	}
}
