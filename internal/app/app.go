package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/enriqueruelasgarcia/Users-mongo/internal/cache"
	"github.com/enriqueruelasgarcia/Users-mongo/internal/config"
	"github.com/enriqueruelasgarcia/Users-mongo/internal/dto"
	"github.com/enriqueruelasgarcia/Users-mongo/internal/metrics"
	"github.com/enriqueruelasgarcia/Users-mongo/internal/service"
	"github.com/enriqueruelasgarcia/Users-mongo/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type App struct {
	cfg    config.Config
	log    *slog.Logger
	store  *storage.Client
	redis  *redis.Client
	router *gin.Engine
}

// New builds the application. The storage client is created unconnected;
// call ConnectStorage to establish it while the router is already serving.
func New(cfg config.Config, log *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	a.store = storage.New(storage.Options{
		URI:             cfg.Mongo.URI,
		Database:        cfg.Mongo.Database,
		UsersCollection: cfg.Mongo.UsersCollection,
		ConnectTimeout:  cfg.Mongo.ConnectTimeout.Duration(),
	}, log)

	var userCache service.UserCache
	if cfg.Redis.Enabled() {
		rdb, err := newRedis(cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.redis = rdb
		userCache = cache.NewUserCache(rdb, cfg.Redis.DefaultTTL.Duration())
		log.Info("redis cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.DefaultTTL.Duration())
	}

	r, err := newRouter(cfg, log, a.store, userCache)
	if err != nil {
		a.closeRedis()
		return nil, err
	}
	a.router = r
	return a, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// ConnectStorage connects to MongoDB. Requests are answered with
// "database not connected" until it returns nil.
func (a *App) ConnectStorage(ctx context.Context) error {
	if err := a.store.Connect(ctx); err != nil {
		return err
	}
	metrics.StorageReady.Set(1)
	return nil
}

func (a *App) Close(ctx context.Context) error {
	a.closeRedis()
	metrics.StorageReady.Set(0)
	if err := a.store.Close(ctx); err != nil {
		return fmt.Errorf("mongo disconnect: %w", err)
	}
	return nil
}

func (a *App) closeRedis() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

func newRedis(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}

func newRouter(cfg config.Config, log *slog.Logger, store *storage.Client, userCache service.UserCache) (*gin.Engine, error) {
	if log == nil {
		return nil, errors.New("app: nil logger")
	}
	if err := dto.RegisterValidators(); err != nil {
		return nil, err
	}
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "Content-Type", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	if err := Setup(r, cfg, log, store, userCache); err != nil {
		return nil, err
	}
	return r, nil
}
