// Package main is the entry point for the guild XP hub service.
//
// The hub turns raw guild activity into a progression ledger: inbound
// activity events are sharded to ordered award workers, level-ups and
// season transitions fan out through the in-memory event bus, and the
// REST API serves the leaderboard, rank, and season surfaces.
//
// The architecture follows Clean Architecture and DDD:
// - Domain: pure progression and season rules, no external dependencies
// - Application: use case orchestration (Commands/Queries/EventHandlers)
// - Infrastructure: repositories, messaging, scheduler, Discord REST
// - Interface: HTTP API
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/guildhub/guild-xp-hub/config"

	// Application layer
	"github.com/guildhub/guild-xp-hub/internal/application/command"
	"github.com/guildhub/guild-xp-hub/internal/application/eventhandler"
	"github.com/guildhub/guild-xp-hub/internal/application/query"

	// Domain layer
	"github.com/guildhub/guild-xp-hub/internal/domain/leaderboard"
	"github.com/guildhub/guild-xp-hub/internal/domain/member"

	// Infrastructure layer
	"github.com/guildhub/guild-xp-hub/internal/infrastructure/external/discord"
	"github.com/guildhub/guild-xp-hub/internal/infrastructure/messaging"
	"github.com/guildhub/guild-xp-hub/internal/infrastructure/metrics"
	"github.com/guildhub/guild-xp-hub/internal/infrastructure/persistence/postgres"
	"github.com/guildhub/guild-xp-hub/internal/infrastructure/persistence/redis"
	"github.com/guildhub/guild-xp-hub/internal/infrastructure/scheduler"
	"github.com/guildhub/guild-xp-hub/internal/infrastructure/scheduler/jobs"

	// Interface layer
	httpserver "github.com/guildhub/guild-xp-hub/internal/interface/http"
	"github.com/guildhub/guild-xp-hub/internal/interface/http/handlers"

	// Packages
	"github.com/guildhub/guild-xp-hub/pkg/logger"
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
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.Setup(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	log.Info("starting guild XP hub",
		"name", cfg.App.Name,
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")

	var dbConn *postgres.Connection
	if cfg.Database.URL != "" {
		dbConn, err = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	} else {
		pgCfg := postgres.DefaultConfig()
		pgCfg.MaxConns = cfg.Database.MaxConns
		pgCfg.MinConns = cfg.Database.MinConns
		pgCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
		pgCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime
		dbConn, err = postgres.NewConnection(ctx, pgCfg)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. MIGRATIONS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("running database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("migrations completed")

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS (optional)
	// A missing cache degrades leaderboard reads to the store; it never
	// keeps the service from starting.
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var lbCache leaderboard.Cache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")

		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		if cfg.Redis.URL != "" {
			redisCache, err = redis.NewCacheFromURL(cfg.Redis.URL, redisCfg)
		} else {
			redisCache, err = redis.NewCache(redisCfg)
		}
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			lbCache = redis.NewLeaderboardCache(redisCache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	guildRepo := postgres.NewGuildRepository(dbConn)
	memberRepo := postgres.NewMembershipRepository(dbConn)
	profileRepo := postgres.NewProfileRepository(dbConn)
	seasonRepo := postgres.NewSeasonRepository(dbConn)
	leaderboardRepo := postgres.NewLeaderboardRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. METRICS
	// ─────────────────────────────────────────────────────────────────────────
	appMetrics := metrics.New()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	eventBusConfig := messaging.DefaultInMemoryEventBusConfig()
	eventBusConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(eventBusConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 9. DISCORD CLIENT
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing Discord client...")
	discordConfig := discord.DefaultClientConfig(cfg.Discord.Token)
	discordConfig.BaseURL = cfg.Discord.BaseURL
	discordConfig.Timeout = cfg.Discord.RequestTimeout
	discordConfig.Logger = log
	discordClient := discord.NewClient(discordConfig)

	// ─────────────────────────────────────────────────────────────────────────
	// 10. APPLICATION LAYER (Commands, Queries)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	awardXP := command.NewAwardXPHandler(memberRepo, guildRepo, eventBus)
	adjustProgress := command.NewAdjustProgressHandler(memberRepo)
	guildSettings := command.NewGuildSettingsHandler(guildRepo, memberRepo, profileRepo)
	createSeason := command.NewCreateSeasonHandler(seasonRepo, lbCache, eventBus)
	deleteSeason := command.NewDeleteSeasonHandler(seasonRepo)
	renameSeason := command.NewRenameSeasonHandler(seasonRepo)
	startTempSeason := command.NewStartTemporarySeasonHandler(seasonRepo, guildRepo, eventBus)
	stopTempSeason := command.NewStopTemporarySeasonHandler(seasonRepo, guildRepo, eventBus)

	getLeaderboard := query.NewGetLeaderboardHandler(leaderboardRepo, lbCache)
	getRank := query.NewGetRankHandler(leaderboardRepo)
	getSeasons := query.NewGetSeasonsHandler(seasonRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 11. EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("registering event handlers...")

	onLevelUp := eventhandler.NewOnLevelUpHandler(profileRepo, discordClient, log)
	if err := eventBus.Subscribe(onLevelUp.EventType(), onLevelUp.Handle); err != nil {
		return fmt.Errorf("failed to subscribe level-up handler: %w", err)
	}

	onTempSeasonEnded := eventhandler.NewOnTempSeasonEndedHandler(guildRepo, discordClient, log)
	if err := eventBus.Subscribe(onTempSeasonEnded.EventType(), onTempSeasonEnded.Handle); err != nil {
		return fmt.Errorf("failed to subscribe season-ended handler: %w", err)
	}

	if err := eventBus.SubscribeAll(appMetrics.ObserveEvent); err != nil {
		return fmt.Errorf("failed to subscribe metrics observer: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 12. ACTIVITY DISPATCHER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing activity dispatcher...",
		"shards", cfg.Dispatcher.ShardCount,
		"queue_size", cfg.Dispatcher.QueueSize,
	)

	dispatcher := messaging.NewActivityDispatcher(messaging.DispatcherConfig{
		ShardCount:     cfg.Dispatcher.ShardCount,
		QueueSize:      cfg.Dispatcher.QueueSize,
		ProcessTimeout: cfg.Dispatcher.ProcessTimeout,
		Logger:         log,
	}, func(ctx context.Context, ev member.ActivityEvent) error {
		_, err := awardXP.Handle(ctx, command.AwardXPCommand{Event: ev})
		return err
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 13. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		log.Info("initializing scheduler...")

		sched = scheduler.NewScheduler(scheduler.SchedulerConfig{
			Logger: log,
			Tick:   cfg.Scheduler.Tick,
		})

		expiryJob := jobs.NewSeasonExpiryJob(seasonRepo, stopTempSeason, log, jobs.DefaultSeasonExpiryConfig())
		if err := sched.Register(expiryJob, scheduler.NewIntervalSchedule(cfg.Scheduler.SeasonExpiryInterval)); err != nil {
			return fmt.Errorf("failed to register season expiry job: %w", err)
		}

		if redisCache != nil {
			warmConfig := jobs.DefaultWarmLeaderboardsConfig()
			warmConfig.TopN = cfg.Scheduler.WarmTopN
			warmConfig.CacheTTL = cfg.Scheduler.WarmCacheTTL

			warmJob := jobs.NewWarmLeaderboardsJob(
				guildRepo, leaderboardRepo, redis.NewLeaderboardCache(redisCache), log, warmConfig)
			if err := sched.Register(warmJob, scheduler.NewIntervalSchedule(cfg.Scheduler.WarmLeaderboardInterval)); err != nil {
				return fmt.Errorf("failed to register warm leaderboards job: %w", err)
			}
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 14. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	healthChecker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	healthChecker.AddCheck("database", handlers.NewPingCheck(dbConn))
	if redisCache != nil {
		healthChecker.AddCheck("cache", handlers.NewPingCheck(redisCache))
	}
	healthChecker.AddCheck("discord", handlers.NewReporterCheck(discordClient))

	// ─────────────────────────────────────────────────────────────────────────
	// 15. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server...")

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.EnableMetrics = cfg.HTTP.MetricsEnabled
	httpConfig.AdminAPIKeys = cfg.HTTP.AdminAPIKeys

	httpServer := httpserver.NewServer(httpConfig, httpserver.Dependencies{
		Enqueuer:        dispatcher,
		AdjustProgress:  adjustProgress,
		CreateSeason:    createSeason,
		DeleteSeason:    deleteSeason,
		RenameSeason:    renameSeason,
		StartTempSeason: startTempSeason,
		StopTempSeason:  stopTempSeason,
		GuildSettings:   guildSettings,
		GetLeaderboard:  getLeaderboard,
		GetRank:         getRank,
		GetSeasons:      getSeasons,
		Logger:          log,
		Metrics:         appMetrics,
		HealthChecker:   healthChecker,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 16. START SERVICES
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 2)

	go func() {
		log.Info("starting HTTP server", "address", httpConfig.Address())
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	if sched != nil {
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 17. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("guild XP hub is running", "http_address", httpConfig.Address())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		log.Error("service error", "error", err)
		return err
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	var shutdownErr error

	// Stop accepting new API traffic first.
	log.Info("stopping HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", "error", err)
		shutdownErr = err
	}

	// No new jobs while the workers drain.
	if sched != nil {
		log.Info("stopping scheduler...")
		if err := sched.Stop(); err != nil {
			log.Error("failed to stop scheduler gracefully", "error", err)
			shutdownErr = err
		}
	}

	// Drain queued activity so accepted events still land on the ledger.
	log.Info("draining activity dispatcher...")
	if err := dispatcher.Close(); err != nil {
		log.Error("failed to drain dispatcher", "error", err)
		shutdownErr = err
	}

	// Event bus, cache and database close via defer.

	if shutdownErr != nil {
		log.Warn("shutdown completed with errors")
	} else {
		log.Info("shutdown completed successfully")
	}

	return nil
}
