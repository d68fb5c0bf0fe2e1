package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/westock/internal/adapter/classifier"
	"github.com/rl1809/westock/internal/adapter/storage"
	"github.com/rl1809/westock/internal/config"
	"github.com/rl1809/westock/internal/core/service"
	"github.com/rl1809/westock/internal/port"
)

// App owns the opened stores and the services built on them.
type App struct {
	Config *config.Config
	Log    *slog.Logger

	Store      *storage.SQLiteStore
	Remote     port.RemoteStore // nil when running standalone
	Repo       *service.Repository
	Sync       *service.SyncService
	Share      *service.ShareService
	Backup     *service.BackupService
	Lock       *service.LockService
	Classifier port.ImageClassifier

	db *sql.DB
}

// New opens the local store, runs the one-time legacy migration, connects
// the configured remote backend and wires the services. An unreachable
// remote is logged and the app continues standalone.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	db, err := storage.OpenSQLite(ctx, cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	store := storage.NewSQLiteStore(db, cfg.Storage.MaxBytes, log)

	if cfg.Storage.LegacyPath != "" {
		if err := store.Migrate(ctx, storage.NewLegacyFileStore(cfg.Storage.LegacyPath)); err != nil {
			log.Warn("legacy migration failed, will retry on next start", slog.Any("error", err))
		}
	}

	a := &App{
		Config:     cfg,
		Log:        log,
		Store:      store,
		Classifier: classifier.New(classifier.Config{APIKey: cfg.Classifier.APIKey, Model: cfg.Classifier.Model}, log),
		db:         db,
	}

	if cfg.RemoteEnabled() {
		remote, err := connectRemote(ctx, cfg.Remote, log)
		if err != nil {
			log.Warn("remote store unavailable, running standalone",
				slog.String("backend", cfg.Remote.Backend),
				slog.Any("error", err),
			)
		} else {
			a.Remote = remote
		}
	}

	a.Repo = service.NewRepository(log, store)
	a.Backup = service.NewBackupService(a.Repo)
	a.Lock = service.NewLockService(store)

	a.Sync = service.NewSyncService(log, a.Repo, a.Remote, cfg.Sync.PushTimeout)
	a.Share = service.NewShareService(log, a.Repo, a.Remote, cfg.Share.MaxItemBytes)

	return a, nil
}

// RemoteContext bounds an interactive remote call by remote.timeout.
func (a *App) RemoteContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.Config.Remote.Timeout)
}

// Close drains pending pushes before closing the stores.
func (a *App) Close() error {
	a.Sync.Close()

	if a.Remote != nil {
		if err := a.Remote.Close(); err != nil {
			a.Log.Warn("close remote store", slog.Any("error", err))
		}
	}
	return a.db.Close()
}

func connectRemote(ctx context.Context, cfg config.RemoteConfig, log *slog.Logger) (port.RemoteStore, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	switch cfg.Backend {
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		log.Info("connected to redis", slog.String("addr", cfg.RedisAddr))
		return storage.NewRedisAdapter(rdb), nil

	case config.BackendMySQL:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("connect mysql: %w", err)
		}
		adapter := storage.NewMySQLAdapter(db)
		if err := adapter.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("connected to mysql")
		return adapter, nil
	}

	return nil, fmt.Errorf("unknown remote backend %q", cfg.Backend)
}
