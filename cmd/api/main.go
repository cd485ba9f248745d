// Package main - точка входа REST API приложения LingoQuest.
//
// LingoQuest превращает изучение языка в игру: уроки дают опыт, опыт
// поднимает уровень, ежедневные занятия держат серию, а достижения
// отмечают вехи прогресса.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries)
// - Infrastructure: PostgreSQL, Redis, auth, event bus
// - Interface: HTTP handlers
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/lingoquest/lingoquest-backend/config"
	"github.com/lingoquest/lingoquest-backend/internal/application/command"
	"github.com/lingoquest/lingoquest-backend/internal/application/query"
	"github.com/lingoquest/lingoquest-backend/internal/infrastructure/auth"
	"github.com/lingoquest/lingoquest-backend/internal/infrastructure/messaging"
	"github.com/lingoquest/lingoquest-backend/internal/infrastructure/persistence/postgres"
	"github.com/lingoquest/lingoquest-backend/internal/infrastructure/persistence/redis"
	httpserver "github.com/lingoquest/lingoquest-backend/internal/interface/http"
	"github.com/lingoquest/lingoquest-backend/internal/interface/http/handlers"
	"github.com/lingoquest/lingoquest-backend/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	// .env существует только в development; в production конфигурация
	// приходит из окружения.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(logger.Options{
		Output: os.Stdout,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
	})
	log.Info("starting LingoQuest API",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database")

	var dbConn *postgres.Connection
	if cfg.Database.URL != "" {
		dbConn, err = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	} else {
		dbConn, err = postgres.NewConnection(ctx, postgres.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			Database:        cfg.Database.Name,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			SSLMode:         cfg.Database.SSLMode,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.ConnMaxLifetime,
			MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		})
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection")
		dbConn.Close()
	}()
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Database.AutoMigrate {
		log.Info("running database migrations")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("migrations completed")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis")
		redisCache, err = redis.NewCache(redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			// API работает и без Redis: лидерборд читается из базы,
			// сессии проверяются напрямую в PostgreSQL.
			log.Warn("failed to connect to Redis, caching disabled", logger.Err(err))
			redisCache = nil
		} else {
			defer redisCache.Close()
			log.Info("Redis connection established")
		}
	}

	var (
		sessionCache     *redis.SessionCache
		leaderboardCache *redis.LeaderboardCache
		rateLimiter      *redis.RateLimiter
	)
	if redisCache != nil {
		sessionCache = redis.NewSessionCache(redisCache)
		leaderboardCache = redis.NewLeaderboardCache(redisCache)
		rateLimiter = redis.NewRateLimiter(redisCache, cfg.Server.RateLimitPerMinute)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ
	// ─────────────────────────────────────────────────────────────────────────
	userRepo := postgres.NewUserRepository(dbConn)
	sessionRepo := postgres.NewSessionRepository(dbConn)
	catalogRepo := postgres.NewCatalogRepository(dbConn)
	enrollmentRepo := postgres.NewEnrollmentRepository(dbConn)
	progressRepo := postgres.NewProgressRepository(dbConn)
	achievementRepo := postgres.NewAchievementRepository(dbConn)
	uow := postgres.NewUnitOfWork(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	var eventBus messaging.EventBus
	if cfg.Events.UseRedis && redisCache != nil {
		eventBus, err = messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:     redisCache.Client(),
			InstanceID: uuid.NewString(),
			LocalBusConfig: messaging.InMemoryEventBusConfig{
				AsyncMode:      cfg.Events.AsyncMode,
				WorkerPoolSize: cfg.Events.WorkerPoolSize,
				Logger:         log,
			},
			Logger: log,
		})
		if err != nil {
			return fmt.Errorf("failed to create event bus: %w", err)
		}
	} else {
		eventBus = messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{
			AsyncMode:      cfg.Events.AsyncMode,
			WorkerPoolSize: cfg.Events.WorkerPoolSize,
			Logger:         log,
		})
	}
	defer func() {
		log.Info("closing event bus")
		_ = eventBus.Close()
	}()

	if leaderboardCache != nil {
		projector := messaging.NewLeaderboardProjector(userRepo, leaderboardCache, log)
		if err := projector.Register(eventBus); err != nil {
			return fmt.Errorf("failed to register leaderboard projector: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ИНИЦИАЛИЗАЦИЯ AUTH
	// ─────────────────────────────────────────────────────────────────────────
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)

	tokens, err := auth.NewTokenManager([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return fmt.Errorf("failed to create token manager: %w", err)
	}

	var verifierCache auth.SessionCache
	if sessionCache != nil {
		verifierCache = sessionCache
	}
	verifier := auth.NewSessionVerifier(tokens, sessionRepo, verifierCache, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ИНИЦИАЛИЗАЦИЯ APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	idGen := command.IDGeneratorFunc(uuid.NewString)

	var cmdSessionCache command.SessionCache
	if sessionCache != nil {
		cmdSessionCache = sessionCache
	}

	registerCmd := command.NewRegisterHandler(userRepo, hasher, eventBus, idGen, log)
	loginCmd := command.NewLoginHandler(userRepo, sessionRepo, cmdSessionCache, hasher, tokens, eventBus, idGen, cfg.Auth.SessionTTL, log)
	logoutCmd := command.NewLogoutHandler(sessionRepo, cmdSessionCache, log)
	enrollCmd := command.NewEnrollHandler(catalogRepo, enrollmentRepo, eventBus, idGen, log)
	unenrollCmd := command.NewUnenrollHandler(catalogRepo, enrollmentRepo, eventBus, log)
	completeLessonCmd := command.NewCompleteLessonHandler(catalogRepo, enrollmentRepo, uow, eventBus, idGen, log)
	checkStreakCmd := command.NewCheckStreakHandler(uow, eventBus, idGen, log)

	var queryLeaderboardCache query.LeaderboardCache
	if leaderboardCache != nil {
		queryLeaderboardCache = leaderboardCache
	}

	leaderboardQuery := query.NewGetLeaderboardHandler(queryLeaderboardCache, userRepo, log)
	progressQuery := query.NewGetProgressSummaryHandler(userRepo, achievementRepo, catalogRepo, enrollmentRepo, progressRepo)
	targetsQuery := query.NewListAchievementTargetsHandler(userRepo, achievementRepo, progressRepo)
	achievementsQuery := query.NewListAchievementsHandler(achievementRepo)
	languagesQuery := query.NewListLanguagesHandler(catalogRepo)
	lessonQuery := query.NewGetLessonHandler(catalogRepo, progressRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 10. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	healthChecker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	healthChecker.AddCheck("postgres", handlers.NewPingCheck(dbConn))
	if redisCache != nil {
		healthChecker.AddCheck("redis", handlers.NewPingCheck(redisCache))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. СОЗДАНИЕ HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.Server.Host
	httpConfig.Port = cfg.Server.Port
	httpConfig.ReadTimeout = cfg.Server.ReadTimeout
	httpConfig.WriteTimeout = cfg.Server.WriteTimeout
	httpConfig.IdleTimeout = cfg.Server.IdleTimeout
	httpConfig.RequestTimeout = cfg.Server.RequestTimeout
	httpConfig.MaxBodyBytes = cfg.Server.MaxBodyBytes
	httpConfig.EnableCORS = cfg.Server.EnableCORS
	httpConfig.AllowedOrigins = cfg.Server.AllowedOrigins
	httpConfig.RateLimitPerMinute = cfg.Server.RateLimitPerMinute

	var serverLimiter httpserver.RateLimiter
	if rateLimiter != nil {
		serverLimiter = rateLimiter
	}

	httpDeps := httpserver.Dependencies{
		Register:       registerCmd,
		Login:          loginCmd,
		Logout:         logoutCmd,
		Enroll:         enrollCmd,
		Unenroll:       unenrollCmd,
		CompleteLesson: completeLessonCmd,
		CheckStreak:    checkStreakCmd,

		GetLeaderboard:         leaderboardQuery,
		GetProgressSummary:     progressQuery,
		ListAchievementTargets: targetsQuery,
		ListAchievements:       achievementsQuery,
		ListLanguages:          languagesQuery,
		GetLesson:              lessonQuery,

		Authenticator: verifier,
		HealthChecker: healthChecker,
		RateLimiter:   serverLimiter,
		Logger:        log,
	}

	httpServer := httpserver.NewServer(httpConfig, httpDeps)

	// ─────────────────────────────────────────────────────────────────────────
	// 12. ЗАПУСК И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	errCh := httpServer.StartAsync()

	log.Info("LingoQuest API is running", logger.String("address", httpConfig.Address()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			log.Error("http server error", logger.Err(err))
			return err
		}
	}

	log.Info("starting graceful shutdown", logger.Duration("timeout", cfg.App.ShutdownTimeout))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		return err
	}

	log.Info("shutdown completed")
	return nil
}
