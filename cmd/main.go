package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/alecbaum/wagl-backend-sub002/internal/config"
	"github.com/alecbaum/wagl-backend-sub002/internal/counter"
	"github.com/alecbaum/wagl-backend-sub002/internal/dispatcher"
	"github.com/alecbaum/wagl-backend-sub002/internal/domain"
	"github.com/alecbaum/wagl-backend-sub002/internal/handler"
	"github.com/alecbaum/wagl-backend-sub002/internal/hub"
	"github.com/alecbaum/wagl-backend-sub002/internal/middleware"
	"github.com/alecbaum/wagl-backend-sub002/internal/ratelimit"
	"github.com/alecbaum/wagl-backend-sub002/internal/relay"
	"github.com/alecbaum/wagl-backend-sub002/internal/repository"
	"github.com/alecbaum/wagl-backend-sub002/internal/resilience"
	"github.com/alecbaum/wagl-backend-sub002/internal/service"
	"github.com/alecbaum/wagl-backend-sub002/pkg/database"
	"github.com/alecbaum/wagl-backend-sub002/pkg/jwt"
	pkglog "github.com/alecbaum/wagl-backend-sub002/pkg/log"
	"github.com/alecbaum/wagl-backend-sub002/pkg/pubsub"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty,
		ServiceName: cfg.Log.ServiceName,
	})
	logger := pkglog.L()

	// Connect to database using GORM
	db, err := database.New(cfg.Database.ToDatabaseConfig())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Auto-migrate
	if err := database.AutoMigrate(db,
		&domain.SessionModel{},
		&domain.RoomModel{},
		&domain.ParticipantModel{},
		&domain.InviteModel{},
		&domain.MessageModel{},
	); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	logger.Info().Msg("database migration completed")

	// Connect to Redis: counter store and event bus share the client
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()
	logger.Info().Msg("redis connected")

	// Initialize repositories
	sessionRepo := repository.NewGormSessionRepository(db)
	roomRepo := repository.NewGormRoomRepository(db)
	participantRepo := repository.NewGormParticipantRepository(db)
	inviteRepo := repository.NewGormInviteRepository(db)
	messageRepo := repository.NewGormMessageRepository(db)

	// Rate limiter over the shared counter store
	counterStore := counter.NewRedisStore(rdb, "ratelimit")
	limiter := ratelimit.NewLimiter(counterStore, cfg.RateLimit)

	// Relay client behind the resilience pipeline
	relayListener := resilience.NewLogListener(logger, "relay")
	relayClient := relay.NewClient(cfg.Relay, relayListener)
	mapper := relay.NewStaticMapper(cfg.Relay.RoomPool)

	// Relay dispatcher
	disp := dispatcher.New(relayClient, cfg.Dispatcher)
	disp.Start()
	defer disp.Stop()

	// Event bus for cross-instance room fan-out
	bus := pubsub.NewRedisPubSubFromClient(rdb)

	// Initialize services
	sessionService := service.NewSessionService(
		sessionRepo, roomRepo, participantRepo, inviteRepo, messageRepo,
		mapper, disp, bus,
	)
	inviteService := service.NewInviteService(sessionRepo, inviteRepo)

	// Auth middleware with local JWT validation
	jwtManager := jwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.AccessDuration, cfg.Auth.Issuer)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager)

	// WebSocket hub and fan-out
	wsHub := hub.NewHub(cfg.WebSocket)
	go wsHub.Run()

	fanout := hub.NewFanout(bus, wsHub)
	fanoutCtx, cancelFanout := context.WithCancel(context.Background())
	defer cancelFanout()
	go func() {
		if err := fanout.Run(fanoutCtx); err != nil && fanoutCtx.Err() == nil {
			logger.Error().Err(err).Msg("room fan-out stopped")
		}
	}()

	// Initialize handlers
	httpHandler := handler.NewHandler(sessionService, inviteService, limiter, authMiddleware)
	wsHandler := handler.NewWSHandler(wsHub, sessionService, cfg.WebSocket)
	webhookHandler := handler.NewWebhookHandler(sessionService, cfg.Auth.WebhookSecret)
	healthHandler := handler.NewHealthHandler(db, rdb, relayClient)

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	httpHandler.RegisterRoutes(r)
	wsHandler.RegisterRoutes(r)
	webhookHandler.RegisterRoutes(r)
	healthHandler.RegisterRoutes(r)

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info().
		Str("addr", addr).
		Str("driver", cfg.Database.Driver).
		Str("relay", cfg.Relay.BaseURL).
		Msg("session backend starting")
	if err := r.Run(addr); err != nil {
		logger.Fatal().Err(err).Msg("failed to start server")
	}
}
