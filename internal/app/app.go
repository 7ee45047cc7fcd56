package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"todoTracker/internal/auth"
	"todoTracker/internal/config"
	"todoTracker/internal/handlers"
	"todoTracker/internal/logger"
	"todoTracker/internal/middleware"
	"todoTracker/internal/repository/todo/inmemory"
	"todoTracker/internal/repository/todo/postgres"
	"todoTracker/internal/repository/todo/sqlite"
	"todoTracker/internal/service"
	"todoTracker/internal/storage/attachments"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config      *config.Config
	server      *http.Server
	router      *chi.Mux
	repository  service.TodoRepository // интерфейс!
	attachments service.AttachmentStore
	gate        middleware.Authorizer
	service     handlers.Service
	shutdowns   []func() // функции для graceful shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

// Option подменяет зависимость до Init; используется в тестах
type Option func(*App)

func WithRepository(repo service.TodoRepository) Option {
	return func(a *App) { a.repository = repo }
}

func WithAttachmentStore(store service.AttachmentStore) Option {
	return func(a *App) { a.attachments = store }
}

func WithAuthorizer(gate middleware.Authorizer) Option {
	return func(a *App) { a.gate = gate }
}

func (a *App) Init(ctx context.Context, opts ...Option) (*App, error) {
	for _, opt := range opts {
		opt(a)
	}

	if err := logger.Init(a.config.Logging.Development); err != nil {
		return nil, fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	if a.repository == nil {
		if err := a.initRepository(ctx); err != nil {
			a.Shutdown()
			return nil, err
		}
	}

	if a.attachments == nil {
		store, err := attachments.New(ctx, attachments.Config{
			Bucket:        a.config.Attachments.Bucket,
			Region:        a.config.Attachments.Region,
			Endpoint:      a.config.Attachments.Endpoint,
			URLExpiration: a.config.Attachments.URLExpiration,
		})
		if err != nil {
			a.Shutdown()
			return nil, fmt.Errorf("инициализация хранилища вложений: %w", err)
		}
		a.attachments = store
	}

	if a.gate == nil {
		verifier, err := auth.NewVerifierFromFile(a.config.Auth.CertificateFile)
		if err != nil {
			a.Shutdown()
			return nil, fmt.Errorf("инициализация проверки токенов: %w", err)
		}
		a.gate = auth.NewGate(verifier)
	}

	todoService := service.NewTodoService(a.repository, a.attachments)
	a.service = &todoService

	a.initRouter()

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      otelhttp.NewHandler(a.router, "todo-tracker"),
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	logger.Info("Приложение инициализировано",
		zap.String("repository", a.config.Repository.Type),
		zap.String("addr", a.server.Addr))
	return a, nil
}

func (a *App) initRepository(ctx context.Context) error {
	switch a.config.Repository.Type {
	case config.RepositoryPostgres:
		storage, err := postgres.New(ctx, a.config.Database.URL,
			postgres.WithMaxConns(a.config.Database.MaxConnections),
			postgres.WithMinConns(a.config.Database.MinConnections),
			postgres.WithIdleTimeout(a.config.Database.IdleTimeout),
		)
		if err != nil {
			return fmt.Errorf("подключение к postgres: %w", err)
		}
		if err := storage.Migrate(); err != nil {
			storage.Close()
			return fmt.Errorf("миграции postgres: %w", err)
		}
		a.repository = storage
		a.shutdowns = append(a.shutdowns, storage.Close)

	case config.RepositorySQLite:
		storage, err := sqlite.New(a.config.SQLite.Path)
		if err != nil {
			return fmt.Errorf("открытие sqlite: %w", err)
		}
		a.repository = storage
		a.shutdowns = append(a.shutdowns, func() {
			if err := storage.Close(); err != nil {
				logger.Error("Ошибка закрытия sqlite", err)
			}
		})

	case config.RepositoryInMemory:
		a.repository = inmemory.NewTodoStorage()

	default:
		return fmt.Errorf("неизвестный тип репозитория %q", a.config.Repository.Type)
	}
	return nil
}

func (a *App) initRouter() {
	handler := handlers.NewTodoHandler(a.service)

	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	// Allow-Origin всегда равен Origin запроса, а не "*"
	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc:  originAllowed(a.config.CORS.AllowedOrigins),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)

	r.Get("/health", handler.HealthCheck) // GET /health

	r.Group(func(r chi.Router) {
		// до Authorize пользователя в контексте нет, ключ лимита - IP
		if a.config.RateLimit.IPRequestsPerMinute > 0 {
			r.Use(middleware.RateLimit(a.config.RateLimit.IPRequestsPerMinute))
		}
		r.Use(middleware.Authorize(a.gate))
		r.Use(middleware.RateLimit(a.config.RateLimit.RequestsPerMinute))

		r.Route("/todos", func(r chi.Router) {
			r.Get("/", handler.GetTodos)    // GET /todos[?sortBy=&sortOrder=|?filter=]
			r.Post("/", handler.CreateTodo) // POST /todos

			r.Route("/{todoId}", func(r chi.Router) {
				r.Patch("/", handler.UpdateTodo)                  // PATCH /todos/{todoId}
				r.Delete("/", handler.DeleteTodo)                 // DELETE /todos/{todoId}
				r.Post("/attachment", handler.GenerateUploadURL) // POST /todos/{todoId}/attachment
			})
		})
	})

	a.router = r
}

// originAllowed сверяет Origin со списком; "*" разрешает любой
func originAllowed(allowed []string) func(r *http.Request, origin string) bool {
	return func(_ *http.Request, origin string) bool {
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// Handler - собранный роутер без сервера
func (a *App) Handler() http.Handler {
	return a.router
}

// Run обслуживает запросы до отмены ctx, затем останавливает сервер
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http-сервер: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()

		logger.Info("Остановка сервера...")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("остановка http-сервера: %w", err)
		}
		return nil
	})

	err := g.Wait()
	a.Shutdown()
	return err
}

// Shutdown освобождает ресурсы в обратном порядке
func (a *App) Shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
