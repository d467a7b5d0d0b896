package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/drdata1010/plan-b-backend-sub001/internal/auth"
	"github.com/drdata1010/plan-b-backend-sub001/internal/config"
	"github.com/drdata1010/plan-b-backend-sub001/internal/domain"
	"github.com/drdata1010/plan-b-backend-sub001/internal/events"
	"github.com/drdata1010/plan-b-backend-sub001/internal/handler"
	"github.com/drdata1010/plan-b-backend-sub001/internal/repository"
	"github.com/drdata1010/plan-b-backend-sub001/internal/service"
	"github.com/drdata1010/plan-b-backend-sub001/internal/ws"
	"github.com/drdata1010/plan-b-backend-sub001/pkg/database"
	pkglog "github.com/drdata1010/plan-b-backend-sub001/pkg/log"
	"github.com/drdata1010/plan-b-backend-sub001/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		pkglog.L().Fatal().Err(err).Msg("failed to load config")
	}

	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty,
		ServiceName: cfg.Log.ServiceName,
	})
	logger := pkglog.L()

	// Persistence: a real database when configured, in-memory stores for
	// quick local runs.
	var repos *repository.Repositories
	if cfg.Database.Driver == "memory" {
		repos = repository.NewMemoryRepositories()
		logger.Warn().Msg("using in-memory repositories; data is not persisted")
	} else {
		db, err := database.New(&cfg.Database)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		if err := database.AutoMigrate(db,
			&domain.UserProfile{},
			&domain.Ticket{},
			&domain.TicketComment{},
			&domain.TicketSequence{},
			&domain.ChatSession{},
			&domain.ChatMessage{},
			&domain.Expert{},
			&domain.AvailabilitySlot{},
			&domain.Consultation{},
			&domain.Attachment{},
		); err != nil {
			logger.Fatal().Err(err).Msg("failed to auto-migrate")
		}
		repos = &repository.Repositories{
			Users:         repository.NewGormUserRepository(db),
			Tickets:       repository.NewGormTicketRepository(db),
			Chats:         repository.NewGormChatRepository(db),
			Experts:       repository.NewGormExpertRepository(db),
			Consultations: repository.NewGormConsultationRepository(db),
			Attachments:   repository.NewGormAttachmentRepository(db),
		}
		logger.Info().Str("driver", cfg.Database.Driver).Msg("database ready")
	}

	// Identity provider and token verification cache.
	tokens, err := auth.NewTokenManager(cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL, cfg.Auth.Issuer)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create token manager")
	}
	var provider auth.IdentityProvider
	switch cfg.Auth.Provider {
	case "synthetic":
		logger.Warn().Msg("synthetic identity provider enabled; development only")
		provider = auth.NewSyntheticProvider()
	default:
		provider = auth.NewJWTProvider(tokens)
	}
	authenticator := auth.NewAuthenticator(provider, cfg.Auth.TokenCacheTTL)
	mw := auth.NewMiddleware(authenticator)

	// Broker: local fan-out, optionally bridged through the Redis relay so
	// several instances share one destination space.
	local := ws.NewLocalBroker(cfg.WebSocket.MessageMaxSize)
	var broker ws.Broker = local
	if cfg.Relay.Enabled {
		relay, err := ws.NewRelayBroker(local, cfg.Relay)
		if err != nil {
			logger.Fatal().Err(err).Msg("relay unavailable")
		}
		broker = relay
		logger.Info().Str("host", cfg.Relay.Host).Msg("relay broker enabled")
	}
	defer broker.Close()

	// Blob storage for attachments.
	var blobs storage.BlobStore
	switch cfg.Storage.Backend {
	case "s3":
		blobs, err = storage.NewS3Store(context.Background(), cfg.Storage.S3)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize s3 storage")
		}
	default:
		blobs, err = storage.NewLocalStore(cfg.Storage.Local)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize local storage")
		}
	}

	// Event stream.
	var producer events.Producer = events.NoopProducer{}
	if cfg.Events.Enabled {
		kp, err := events.NewKafkaProducer(cfg.Events.Brokers, cfg.Events.Topic)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create kafka producer")
		}
		producer = kp
		logger.Info().Str("brokers", cfg.Events.Brokers).Msg("event stream enabled")
	}
	defer producer.Close()

	// AI assistant.
	var responder service.AIResponder
	if cfg.AI.Enabled && cfg.AI.APIKey != "" {
		responder = service.NewOpenAIResponder(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.MaxTokens, cfg.AI.Temperature)
		logger.Info().Str("model", cfg.AI.Model).Msg("ai assistant enabled")
	}

	// Services.
	notifier := service.NewNotificationService(broker)
	userSvc := service.NewUserService(repos.Users, tokens)
	ticketSvc := service.NewTicketService(repos.Tickets, notifier, producer)
	chatSvc := service.NewChatService(repos.Chats, broker, notifier, producer, responder, cfg.AI.History)
	expertSvc := service.NewExpertService(repos.Experts)
	consultationSvc := service.NewConsultationService(repos.Consultations, repos.Experts, notifier, producer)
	attachmentSvc := service.NewAttachmentService(repos.Attachments, blobs, 0)

	// Websocket endpoint.
	wsOpts := ws.Options{
		MessageMaxSize:  cfg.WebSocket.MessageMaxSize,
		SendBufferLimit: cfg.WebSocket.SendBufferLimit,
		SendTimeLimit:   cfg.WebSocket.SendTimeLimit,
		PingInterval:    cfg.WebSocket.PingInterval,
		PongWait:        cfg.WebSocket.PongWait,
	}
	rules := ws.NewRuleTable(ws.DefaultRules(cfg.Auth.Required))
	wsHandler := ws.NewHandler(authenticator, broker, rules, wsOpts, cfg.Auth.Required, cfg.WebSocket.AllowedOrigins)

	// HTTP surface.
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), pkglog.GinMiddleware(*logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ws", wsHandler.Handle)

	api := r.Group("/api/v1")
	handler.NewAuthHandler(userSvc, mw).RegisterRoutes(api)
	handler.NewTicketHandler(ticketSvc, mw).RegisterRoutes(api)
	chatHandler := handler.NewChatHandler(chatSvc, mw)
	chatHandler.RegisterRoutes(api)
	chatHandler.RegisterApp(wsHandler)
	handler.NewExpertHandler(expertSvc, mw).RegisterRoutes(api)
	handler.NewConsultationHandler(consultationSvc, expertSvc, mw).RegisterRoutes(api)
	handler.NewAttachmentHandler(attachmentSvc, mw).RegisterRoutes(api)
	handler.NewNotificationHandler(notifier, mw).RegisterRoutes(api)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}
