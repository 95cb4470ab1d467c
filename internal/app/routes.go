package app

import (
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/enriqueruelasgarcia/Users-mongo/internal/config"
	"github.com/enriqueruelasgarcia/Users-mongo/internal/handlers"
	"github.com/enriqueruelasgarcia/Users-mongo/internal/middleware"
	"github.com/enriqueruelasgarcia/Users-mongo/internal/repo"
	"github.com/enriqueruelasgarcia/Users-mongo/internal/service"
	"github.com/enriqueruelasgarcia/Users-mongo/internal/storage"
	"github.com/enriqueruelasgarcia/Users-mongo/web"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
)

// Setup registers all routes on the given engine.
func Setup(r *gin.Engine, cfg config.Config, log *slog.Logger, store *storage.Client, userCache service.UserCache) error {
	r.Use(middleware.RequestID(), middleware.Logger(log))

	if err := registerWebRoutes(r, cfg); err != nil {
		return err
	}
	r.GET("/health", healthHandler(cfg, store))
	r.GET("/version", versionHandler(cfg))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger-doc.json", swaggerDocHandler())
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(http.StatusFound, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
	))

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	api := r.Group("/api", middleware.RequireStorage(store))
	userRepo := repo.NewMongoUserRepo(store, cfg.Mongo.OpTimeout.Duration())
	userSvc := service.NewUserService(userRepo, userCache, service.WithLocation(loc))
	userHandler := handlers.NewUserHandler(userSvc, log)
	registerUserRoutes(api, userHandler)
	return nil
}

func registerWebRoutes(r *gin.Engine, cfg config.Config) error {
	views, public := web.Views(), web.Public()
	if cfg.App.WebDir != "" {
		views = os.DirFS(filepath.Join(cfg.App.WebDir, "views"))
		public = os.DirFS(filepath.Join(cfg.App.WebDir, "public"))
	}
	index, err := fs.ReadFile(views, "index.html")
	if err != nil {
		return err
	}
	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", index)
	})
	r.StaticFS("/public", http.FS(public))
	return nil
}

func healthHandler(cfg config.Config, store *storage.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !store.Ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "env": cfg.App.Env, "storage": "connecting"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "env": cfg.App.Env, "storage": "connected"})
	}
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": cfg.App.Version})
	}
}

func swaggerDocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := swag.ReadDoc("swagger")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
	}
}

func registerUserRoutes(api *gin.RouterGroup, h *handlers.UserHandler) {
	api.POST("/users", h.Create)
	api.GET("/users", h.List)
	api.POST("/users/:_id/exercises", h.AddExercise)
	api.GET("/users/:_id/logs", h.Logs)
}
