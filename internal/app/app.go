// Package app wires configuration, storage, services and the HTTP router.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskboard-api/internal/config"
	"github.com/yukikurage/taskboard-api/internal/logging"
	"github.com/yukikurage/taskboard-api/internal/services"
	"github.com/yukikurage/taskboard-api/internal/storage"
)

// Services groups the domain services handed to the router.
type Services struct {
	Users         *services.UserService
	Tasks         *services.TaskService
	Notifications *services.NotificationService
}

// NewServices builds the services on top of store. uploader and drafter may
// be nil.
func NewServices(store *Store, uploader services.AssetUploader, drafter services.TaskDrafter) Services {
	notifications := services.NewNotificationService(store.Notices)
	return Services{
		Users:         services.NewUserService(store.Users),
		Tasks:         services.NewTaskService(store.Tasks, store.Users, notifications, uploader, drafter),
		Notifications: notifications,
	}
}

type App struct {
	cfg    *config.Config
	store  *Store
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config) *App {
	return &App{cfg: cfg}
}

// Initialize connects to the database, runs migrations and builds the router.
func (a *App) Initialize(ctx context.Context) error {
	gin.SetMode(a.cfg.GinMode)

	store, err := OpenStore(ctx, a.cfg)
	if err != nil {
		return err
	}
	a.store = store

	if err := store.Migrate(ctx); err != nil {
		return err
	}

	svc := NewServices(store, a.uploader(), a.drafter())

	sessionStore, err := NewSessionStore(a.cfg)
	if err != nil {
		return err
	}

	a.router = NewRouter(a.cfg, sessionStore, store, svc)
	a.server = &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// uploader returns nil when uploads are not configured. The nil check keeps
// a typed nil pointer out of the interface.
func (a *App) uploader() services.AssetUploader {
	client, err := storage.New(a.cfg.Storage, nil)
	if err != nil {
		logging.Logger.WithError(err).Warn("Asset uploads disabled")
		return nil
	}
	return client
}

func (a *App) drafter() services.TaskDrafter {
	if a.cfg.OpenAIAPIKey == "" {
		logging.Logger.Warn("AI task drafting disabled: OPENAI_API_KEY is not set")
		return nil
	}
	return services.NewAIService(a.cfg.OpenAIAPIKey)
}

// Run serves HTTP until SIGINT or SIGTERM and then shuts down gracefully.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		logging.Logger.Infof("Server starting on %s", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-quit:
		logging.Logger.WithField("signal", sig.String()).Info("Shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.Shutdown(ctx)
}

// Shutdown stops the HTTP server and closes the store.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.server != nil {
		errs = append(errs, a.server.Shutdown(ctx))
	}
	if a.store != nil {
		errs = append(errs, a.store.Close(ctx))
	}
	return errors.Join(errs...)
}

// NewSessionStore returns the cookie or redis session backend.
func NewSessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	switch cfg.Session.Store {
	case "redis":
		rs, err := redisStore.NewStore(
			10,                         // Redis pool size
			"tcp",                      // network type
			cfg.Session.RedisAddr(),    // Redis address from config
			"",                         // username (empty for default user)
			"",                         // password (empty = no password)
			[]byte(cfg.Session.Secret), // authentication key
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis store: %w", err)
		}
		store = rs
	default:
		store = cookie.NewStore([]byte(cfg.Session.Secret))
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.Session.MaxAge,
		HttpOnly: true,
		Secure:   cfg.IsRelease(),
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}
