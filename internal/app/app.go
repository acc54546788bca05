package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"ProcureAI/internal/config"
	"ProcureAI/internal/domain"
	"ProcureAI/internal/handlers"
	"ProcureAI/internal/infrastructure/events"
	"ProcureAI/internal/infrastructure/llm"
	"ProcureAI/internal/infrastructure/lock"
	"ProcureAI/internal/infrastructure/mail"
	"ProcureAI/internal/infrastructure/parser"
	"ProcureAI/internal/infrastructure/scheduler"
	"ProcureAI/internal/infrastructure/storage"
	"ProcureAI/internal/infrastructure/telegram"
	"ProcureAI/internal/logging"
	"ProcureAI/internal/ports"
	"ProcureAI/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	syncer    *usecase.Syncer
	scheduler *usecase.Scheduler
	server    *http.Server
	closers   []func() error
}

// OpenStore connects to Postgres, applies migrations and seeds the vendor
// directory of an empty database.
func OpenStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sqlx.DB, *storage.PostgresRepository, error) {
	db, err := storage.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, nil, err
	}
	if err := storage.Migrate(ctx, db, logger.With("component", "migrations")); err != nil {
		db.Close()
		return nil, nil, err
	}

	repo := storage.NewPostgresRepository(db)
	seeded, err := repo.Seed(ctx, storage.DefaultVendors())
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("seed vendors: %w", err)
	}
	if seeded > 0 {
		logger.Info("vendor directory seeded", "count", seeded)
	}
	return db, repo, nil
}

// New builds a runnable application instance.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	db, repo, err := OpenStore(ctx, cfg, baseLogger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)

	gateway := llm.NewGateway(llm.NewChatClient(cfg.AI), baseLogger.With("component", "ai"))
	mailer := mail.NewSMTPSender(cfg.SMTP, baseLogger.With("component", "mail.smtp"))
	replyParser := parser.NewReplyParser(parser.DefaultRegistry(), baseLogger.With("component", "parser"))
	inbox := mail.NewIMAPInbox(cfg.IMAP, replyParser, baseLogger.With("component", "mail.imap"))

	locker, err := a.newLocker(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	publisher := a.newPublisher()

	procurement := usecase.NewProcurement(usecase.ProcurementDeps{
		Store:      repo,
		Structurer: gateway,
		Mailer:     mailer,
		Events:     publisher,
		Logger:     baseLogger.With("component", "procurement"),
	})
	a.syncer = usecase.NewSyncer(usecase.SyncDeps{
		Store:     repo,
		Inbox:     inbox,
		Extractor: gateway,
		Scorer:    gateway,
		Locker:    locker,
		Events:    publisher,
		Logger:    baseLogger.With("component", "sync"),
		Timeout:   cfg.Sync.Timeout,
	})
	a.scheduler = usecase.NewScheduler(
		scheduler.NewIntervalScheduler(usecase.SyncInterval),
		a.syncer,
		baseLogger.With("component", "scheduler"),
	)

	h := handlers.NewHandler(procurement, a.syncer, baseLogger.With("component", "http"))
	a.server = &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

func (a *Application) newLocker(ctx context.Context) (ports.Locker, error) {
	if a.cfg.Redis.Addr == "" {
		return lock.NewLocalLocker(), nil
	}

	rdb := lock.NewRedisClient(a.cfg.Redis)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", a.cfg.Redis.Addr, err)
	}
	a.closers = append(a.closers, rdb.Close)
	a.logger.Info("using redis sync lock", "addr", a.cfg.Redis.Addr)
	ttl := lock.TTLFor(a.cfg.Redis.LockTTL, a.cfg.Sync.Timeout)
	if ttl != a.cfg.Redis.LockTTL {
		a.logger.Warn("redis lock ttl raised above sync timeout", "configured", a.cfg.Redis.LockTTL, "ttl", ttl)
	}
	return lock.NewRedisLocker(rdb, ttl, a.logger.With("component", "lock")), nil
}

func (a *Application) newPublisher() ports.EventPublisher {
	var fan events.Fanout
	if len(a.cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(a.cfg.Kafka, a.logger.With("component", "events.kafka"))
		a.closers = append(a.closers, kp.Close)
		fan = append(fan, kp)
	}
	if a.cfg.Telegram.Enabled() {
		fan = append(fan, telegram.NewNotifier(a.cfg.Telegram))
	}
	if len(fan) == 0 {
		return events.Noop{}
	}
	return fan
}

// Run serves HTTP and the background sync until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
	case err := <-serveErr:
		runErr = fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http shutdown", "error", err)
	}
	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		a.logger.Error("scheduler shutdown", "error", err)
	}
	return runErr
}

// SyncOnce performs a single inbox sync outside the scheduler.
func (a *Application) SyncOnce(ctx context.Context) (domain.SyncResult, error) {
	return a.syncer.SyncProposals(ctx)
}

// Close releases external connections in reverse order of creation.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
