// Package main - точка входа для API-сервера журнала физвоспитания.
//
// Сервер ведёт журнал посещений и баллов студентов и проводит
// семестровую архивацию: студент, набравший порог баллов, получает
// зачёт, его счётчики сбрасываются, а история уходит в архив.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries)
// - Infrastructure: PostgreSQL, Redis, внешний справочник студентов
// - Interface: HTTP endpoints
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/physed-hub/phys-ed-journal/config"
	"github.com/physed-hub/phys-ed-journal/internal/application/command"
	"github.com/physed-hub/phys-ed-journal/internal/application/query"
	"github.com/physed-hub/phys-ed-journal/internal/domain/semester"
	"github.com/physed-hub/phys-ed-journal/internal/infrastructure/external/directory"
	"github.com/physed-hub/phys-ed-journal/internal/infrastructure/persistence/postgres"
	"github.com/physed-hub/phys-ed-journal/internal/infrastructure/persistence/redis"
	"github.com/physed-hub/phys-ed-journal/internal/infrastructure/scheduler"
	"github.com/physed-hub/phys-ed-journal/internal/infrastructure/scheduler/jobs"
	httpserver "github.com/physed-hub/phys-ed-journal/internal/interface/http"
	"github.com/physed-hub/phys-ed-journal/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting phys-ed journal",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.Bool("debug", cfg.App.Debug),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := connectDatabase(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Database.AutoMigrate {
		log.Info("running database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("migrations completed")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ
	// ─────────────────────────────────────────────────────────────────────────
	studentRepo := postgres.NewStudentRepository(dbConn)
	journalRepo := postgres.NewJournalRepository(dbConn)
	archiveRepo := postgres.NewArchiveRepository(dbConn)
	semesterRepo := postgres.NewSemesterRepository(dbConn)
	groupRepo := postgres.NewGroupRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	// Без Redis активный семестр читается напрямую из PostgreSQL.
	var activeProvider semester.ActiveProvider = &dbActiveProvider{semesters: semesterRepo}
	var summaryCache httpserver.SummaryCache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		cache, err := redis.NewCache(redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", logger.Err(err))
		} else {
			defer cache.Close()
			activeProvider = redis.NewActiveSemesterCache(cache, semesterRepo)
			summaryCache = redis.NewSummaryCache(cache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ ВНЕШНЕГО СПРАВОЧНИКА СТУДЕНТОВ
	// ─────────────────────────────────────────────────────────────────────────
	directoryConfig := directory.DefaultClientConfig(cfg.Directory.BaseURL)
	directoryConfig.APIKey = cfg.Directory.APIKey
	directoryConfig.Timeout = cfg.Directory.RequestTimeout
	directoryConfig.Logger = log
	directoryClient := directory.NewClient(directoryConfig)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ИНИЦИАЛИЗАЦИЯ APPLICATION LAYER (Commands, Queries)
	// ─────────────────────────────────────────────────────────────────────────
	recordVisit := command.NewRecordVisitHandler(studentRepo, journalRepo)
	recordPoints := command.NewRecordPointsHandler(studentRepo, journalRepo, activeProvider)
	recordStandards := command.NewRecordStandardsHandler(studentRepo, journalRepo, activeProvider)
	archiveStudent := command.NewArchiveStudentHandler(
		studentRepo, archiveRepo, semesterRepo, activeProvider, cfg.Archive.PointThreshold)
	startSemester := command.NewStartSemesterHandler(semesterRepo, activeProvider)
	syncStudents := command.NewSyncStudentsHandler(directoryClient, studentRepo, activeProvider)

	getStudentSummary := query.NewGetStudentSummaryHandler(studentRepo, journalRepo)
	getStudentHistory := query.NewGetStudentHistoryHandler(journalRepo)
	listArchived := query.NewListArchivedStudentsHandler(archiveRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ЗАПУСК ПЛАНИРОВЩИКА ФОНОВЫХ ЗАДАЧ
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Scheduler.Enabled {
		sched := scheduler.New(log)

		sweepJob := jobs.NewArchiveSweepJob(studentRepo, activeProvider, archiveStudent, log)
		if err := sched.Register(sweepJob, scheduler.DailyAt(cfg.Scheduler.ArchiveSweepHour)); err != nil {
			return fmt.Errorf("failed to register archive sweep job: %w", err)
		}

		if cfg.Directory.BaseURL != "" {
			syncJob := jobs.NewSyncStudentsJob(syncStudents, cfg.Directory.SyncBatchSize, log)
			if err := sched.Register(syncJob, scheduler.Every(cfg.Scheduler.SyncStudentsInterval)); err != nil {
				return fmt.Errorf("failed to register sync job: %w", err)
			}
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			log.Info("stopping scheduler...")
			_ = sched.Stop()
		}()
		log.Info("scheduler started")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. ЗАПУСК HTTP-СЕРВЕРА
	// ─────────────────────────────────────────────────────────────────────────
	serverConfig := httpserver.DefaultConfig()
	serverConfig.Host = cfg.HTTP.Host
	serverConfig.Port = cfg.HTTP.Port
	serverConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	serverConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	serverConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	serverConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	serverConfig.TeacherKeyHashes = cfg.HTTP.TeacherKeyHashes
	serverConfig.AdminKeyHash = cfg.HTTP.AdminKeyHash

	server := httpserver.NewServer(serverConfig, httpserver.Dependencies{
		RecordVisit:          recordVisit,
		RecordPoints:         recordPoints,
		RecordStandards:      recordStandards,
		ArchiveStudent:       archiveStudent,
		StartSemester:        startSemester,
		SyncStudents:         syncStudents,
		GetStudentSummary:    getStudentSummary,
		GetStudentHistory:    getStudentHistory,
		ListArchivedStudents: listArchived,
		Groups:               groupRepo,
		Summaries:            summaryCache,
		Logger:               log,
	})

	log.Info("starting HTTP server", logger.String("address", serverConfig.Address()))
	errCh := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 11. ОЖИДАНИЕ СИГНАЛА ЗАВЕРШЕНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	return logger.New(opts)
}

func connectDatabase(ctx context.Context, cfg *config.Config) (*postgres.Connection, error) {
	if cfg.Database.URL != "" {
		return postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	}

	return postgres.NewConnection(ctx, postgres.Config{
		Host:              cfg.Database.Host,
		Port:              cfg.Database.Port,
		Database:          cfg.Database.Name,
		User:              cfg.Database.User,
		Password:          cfg.Database.Password,
		SSLMode:           cfg.Database.SSLMode,
		MaxConns:          cfg.Database.MaxConns,
		MinConns:          cfg.Database.MinConns,
		MaxConnLifetime:   cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime:   cfg.Database.ConnMaxIdleTime,
		HealthCheckPeriod: postgres.DefaultConfig().HealthCheckPeriod,
		ConnectTimeout:    cfg.Database.ConnectTimeout,
	})
}

// dbActiveProvider читает активный семестр напрямую из PostgreSQL.
// Используется, когда Redis выключен или недоступен.
type dbActiveProvider struct {
	semesters semester.Repository
}

func (p *dbActiveProvider) Active(ctx context.Context) (*semester.Semester, error) {
	return p.semesters.GetActive(ctx)
}

func (p *dbActiveProvider) Refresh(ctx context.Context) error {
	return nil
}
