package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"
	"todoTracker/internal/logger"
	"todoTracker/internal/models/todo"
	repo "todoTracker/internal/repository"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// done хранится как BOOLEAN, created_at как TIMESTAMPTZ.
// Индексы: todos_pkey(todo_id), idx_todos_user_created(user_id, created_at),
// idx_todos_user_done(user_id, done).
const todoColumns = `todo_id, user_id, name, due_date, done, created_at, attachment_url`

const slowQuery = 100 * time.Millisecond

type PoolOption func(*pgxpool.Config)

func WithMaxConns(n int32) PoolOption {
	return func(c *pgxpool.Config) {
		if n > 0 {
			c.MaxConns = n
		}
	}
}

func WithMinConns(n int32) PoolOption {
	return func(c *pgxpool.Config) {
		if n > 0 {
			c.MinConns = n
		}
	}
}

func WithIdleTimeout(d time.Duration) PoolOption {
	return func(c *pgxpool.Config) {
		if d > 0 {
			c.MaxConnIdleTime = d
		}
	}
}

type Storage struct {
	pool       *pgxpool.Pool
	connString string
}

func New(ctx context.Context, connString string, opts ...PoolOption) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5
	for _, opt := range opts {
		opt(config)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool, connString: connString}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) GetByID(ctx context.Context, todoID string) (*todo.Todo, error) {
	start := time.Now()
	defer warnIfSlow("get_by_id", start)

	query := `SELECT ` + todoColumns + ` FROM todos WHERE todo_id = $1`

	rows, _ := s.pool.Query(ctx, query, todoID)
	found, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[todo.Todo])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	return normalize(found), nil
}

// все задачи владельца в естественном порядке индекса
func (s *Storage) ListByOwner(ctx context.Context, userID string) ([]*todo.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos
				WHERE user_id = $1
				ORDER BY created_at ASC`

	return s.list(ctx, "list_by_owner", query, userID)
}

func (s *Storage) ListByOwnerSorted(ctx context.Context, userID string, ascending bool) ([]*todo.Todo, error) {
	direction := "DESC"
	if ascending {
		direction = "ASC"
	}

	query := `SELECT ` + todoColumns + ` FROM todos
				WHERE user_id = $1
				ORDER BY created_at ` + direction

	return s.list(ctx, "list_by_owner_sorted", query, userID)
}

func (s *Storage) ListByOwnerDone(ctx context.Context, userID string, done bool) ([]*todo.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos
				WHERE user_id = $1 AND done = $2
				ORDER BY created_at ASC`

	return s.list(ctx, "list_by_owner_done", query, userID, done)
}

// put: запись с тем же todo_id перезаписывается
func (s *Storage) Create(ctx context.Context, todoToCreate *todo.Todo) error {
	start := time.Now()
	defer warnIfSlow("create", start)

	query := `INSERT INTO todos (` + todoColumns + `)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (todo_id) DO UPDATE SET
					user_id = EXCLUDED.user_id,
					name = EXCLUDED.name,
					due_date = EXCLUDED.due_date,
					done = EXCLUDED.done,
					created_at = EXCLUDED.created_at,
					attachment_url = EXCLUDED.attachment_url`

	_, err := s.pool.Exec(ctx, query,
		todoToCreate.TodoID,
		todoToCreate.UserID,
		todoToCreate.Name,
		todoToCreate.DueDate,
		todoToCreate.Done,
		todoToCreate.CreatedAt,
		todoToCreate.AttachmentURL,
	)
	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}
	return nil
}

func (s *Storage) UpdateFields(ctx context.Context, todoID string, update todo.Update) (*todo.Todo, error) {
	query := `UPDATE todos
				SET name = $1,
					due_date = $2,
					done = $3
				WHERE todo_id = $4
				RETURNING ` + todoColumns

	return s.one(ctx, "update_fields", query, update.Name, update.DueDate, update.Done, todoID)
}

// полное удаление, возвращает запись до удаления
func (s *Storage) Delete(ctx context.Context, todoID string) (*todo.Todo, error) {
	query := `DELETE FROM todos
				WHERE todo_id = $1
				RETURNING ` + todoColumns

	return s.one(ctx, "delete", query, todoID)
}

func (s *Storage) SetAttachmentURL(ctx context.Context, todoID, url string) (*todo.Todo, error) {
	query := `UPDATE todos
				SET attachment_url = $1
				WHERE todo_id = $2
				RETURNING ` + todoColumns

	return s.one(ctx, "set_attachment_url", query, url, todoID)
}

// Migrate применяет встроенные миграции
func (s *Storage) Migrate() error {
	logger.Info("Repository: Применение миграций")

	m, err := s.migrator()
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: Не удалось применить миграции", err)
		return fmt.Errorf("применение миграций: %w", err)
	}

	logger.Info("Repository: Миграции применены")
	return nil
}

func (s *Storage) Down() error {
	logger.Info("Repository: Откат миграций")

	m, err := s.migrator()
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: Не удалось откатить миграции", err)
		return fmt.Errorf("откат миграций: %w", err)
	}
	return nil
}

func (s *Storage) migrator() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("чтение миграций: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, MigrationURL(s.connString))
	if err != nil {
		return nil, fmt.Errorf("инициализация миграций: %w", err)
	}
	return m, nil
}

func closeMigrator(m *migrate.Migrate) {
	if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
		logger.Warn("Repository: Ошибка закрытия мигратора",
			zap.NamedError("source", srcErr),
			zap.NamedError("database", dbErr))
	}
}

// MigrationURL переводит postgres:// строку подключения в схему драйвера pgx5
func MigrationURL(connString string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(connString, prefix) {
			return "pgx5://" + strings.TrimPrefix(connString, prefix)
		}
	}
	return connString
}

func (s *Storage) list(ctx context.Context, op, query string, args ...any) ([]*todo.Todo, error) {
	start := time.Now()
	defer warnIfSlow(op, start)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.String("operation", op))
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	todos, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[todo.Todo])
	if err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err, zap.String("operation", op))
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	for _, t := range todos {
		normalize(t)
	}
	return todos, nil
}

// one выполняет запрос с RETURNING и возвращает одну запись
func (s *Storage) one(ctx context.Context, op, query string, args ...any) (*todo.Todo, error) {
	start := time.Now()
	defer warnIfSlow(op, start)

	rows, _ := s.pool.Query(ctx, query, args...)
	t, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[todo.Todo])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Ошибка изменения задачи", err, zap.String("operation", op))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return normalize(t), nil
}

func normalize(t *todo.Todo) *todo.Todo {
	t.CreatedAt = t.CreatedAt.UTC()
	return t
}

func warnIfSlow(op string, start time.Time) {
	if elapsed := time.Since(start); elapsed > slowQuery {
		logger.Warn("Repository: Медленный запрос",
			zap.String("operation", op),
			zap.Duration("ms", elapsed))
	}
}
