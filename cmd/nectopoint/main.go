package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nectopoint-client/internal/api"
	"nectopoint-client/internal/config"
	"nectopoint-client/internal/events"
	"nectopoint-client/internal/handler"
	"nectopoint-client/internal/models"
	"nectopoint-client/internal/repository"
	"nectopoint-client/internal/service"
	"nectopoint-client/internal/sse"
	"nectopoint-client/pkg/telegram"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// storage bundles the stores for the configured driver and how to close them.
type storage struct {
	sessions  repository.SessionStore
	readState repository.ReadStateRepository
	close     func() error
}

func openStorage(cfg *config.Config) (*storage, error) {
	switch cfg.StorageDriver {
	case config.StorageSQLite:
		db, err := gorm.Open(sqlite.Open(cfg.DatabaseURL), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("get database instance: %w", err)
		}
		sessions, err := repository.NewGormSessionStore(db)
		if err != nil {
			return nil, err
		}
		readState, err := repository.NewGormReadStateRepository(db)
		if err != nil {
			return nil, err
		}
		return &storage{sessions: sessions, readState: readState, close: sqlDB.Close}, nil

	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return &storage{
			sessions:  repository.NewRedisSessionStore(client, cfg.RedisPrefix),
			readState: repository.NewRedisReadStateRepository(client, cfg.RedisPrefix),
			close:     client.Close,
		}, nil

	default:
		return &storage{
			sessions:  repository.NewMemorySessionStore(),
			readState: repository.NewMemoryReadStateRepository(),
			close:     func() error { return nil },
		}, nil
	}
}

func main() {
	logrus.Info("Initializing config...")
	cfg := config.GetConfig()
	logrus.SetLevel(cfg.LogLevel)
	logrus.Info("Config initialized...")

	logger := logrus.New()
	logger.SetLevel(cfg.LogLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	store, err := openStorage(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to open storage")
	}
	logrus.WithField("driver", cfg.StorageDriver).Info("Storage opened")

	client, err := api.NewClient(cfg.APIURL, api.WithTimeout(cfg.HTTPTimeout), api.WithLogger(logger))
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create API client")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	bus := events.NewBus[*models.SessionSnapshot]("session", 8)

	sessionService := service.NewSessionService(client, store.sessions, store.readState, bus)
	sessionService.SetLogger(logger)
	sessionService.SetStaleGuard(cfg.StaleGuard)
	sessionService.SetExpiredHandler(cancel)
	client.SetForbiddenHandler(sessionService.HandleForbidden)

	notificationService := service.NewNotificationService(client, store.sessions, store.readState)
	notificationService.SetLogger(logger)

	var snapshot *models.SessionSnapshot
	if cfg.CPF != "" {
		snapshot, err = sessionService.Login(ctx, cfg.CPF, cfg.Password)
	} else {
		snapshot, err = sessionService.Refresh(ctx)
	}
	if err != nil {
		store.close()
		logrus.WithError(err).Fatal("Failed to load session")
	}
	logrus.WithFields(logrus.Fields{
		"collaborator_id": snapshot.CollaboratorID,
		"role":            snapshot.Profile.Role,
	}).Info("Session loaded")

	receiver := sse.NewReceiver(client.HTTPClient(), logger)
	receiver.SetConnectTimeout(cfg.HTTPTimeout)
	receiver.OnForbidden(sessionService.HandleForbidden)
	receiver.OnStateChange(func(state sse.State) {
		logger.WithField("state", state.String()).Debug("Event stream state changed")
	})
	if err := receiver.Start(ctx, client.StreamURL(), sessionService.PingHandler(ctx)); err != nil {
		logrus.WithError(err).Warn("Event stream unavailable, session will only refresh on demand")
	}

	updates, unsubscribe := bus.Subscribe()
	go func() {
		for update := range updates {
			count, err := notificationService.UnreadCount(update.CollaboratorID)
			if err != nil {
				logger.WithError(err).Warn("Failed to count unread notifications")
				continue
			}
			logger.WithField("unread", count).Info("Session updated")
		}
	}()

	var bot *telegram.Client
	if cfg.TelegramEnabled() {
		bot, err = telegram.NewClient(cfg.TelegramToken, cfg.TelegramDebug)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to create Telegram client")
		}
		logrus.Infof("Authorized on account %s", bot.Bot.Self.UserName)

		notifier := service.NewTelegramNotifier(bot, cfg.TelegramChatID, notificationService)
		notifierUpdates, unsubscribeNotifier := bus.Subscribe()
		defer unsubscribeNotifier()
		go notifier.Run(ctx, notifierUpdates)
		if _, err := notifier.Notify(snapshot); err != nil {
			logrus.WithError(err).Warn("Failed to forward pending notifications")
		}

		botHandler := handler.NewHandler(bot, sessionService, notificationService, cfg.TelegramChatID, cfg.NotificationPageSize)
		go botHandler.HandleUpdates(ctx, bot.Updates())
	}

	logrus.Info("Client started. Press Ctrl+C to stop.")
	<-ctx.Done()

	receiver.Stop()
	unsubscribe()
	if bot != nil {
		bot.Stop()
	}
	if err := store.close(); err != nil {
		logrus.Infof("Error closing storage: %v", err)
	}

	logrus.Info("Client stopped gracefully")
}
