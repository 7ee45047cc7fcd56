package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"todoTracker/internal/logger"
	"todoTracker/internal/models/todo"
	repo "todoTracker/internal/repository"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const todoColumns = `todo_id, user_id, name, due_date, done, created_at, attachment_url`

// todoRow - представление записи на уровне SQLite
type todoRow struct {
	TodoID        string  `db:"todo_id"`
	UserID        string  `db:"user_id"`
	Name          string  `db:"name"`
	DueDate       string  `db:"due_date"`
	Done          int     `db:"done"`
	CreatedAt     string  `db:"created_at"`
	AttachmentURL *string `db:"attachment_url"`
}

func fromTodo(t *todo.Todo) todoRow {
	return todoRow{
		TodoID:        t.TodoID,
		UserID:        t.UserID,
		Name:          t.Name,
		DueDate:       t.DueDate,
		Done:          boolToInt(t.Done),
		CreatedAt:     t.CreatedAt.UTC().Format(todo.TimestampLayout),
		AttachmentURL: t.AttachmentURL,
	}
}

func (r todoRow) toTodo() (*todo.Todo, error) {
	createdAt, err := time.Parse(todo.TimestampLayout, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("разбор created_at задачи %s: %w", r.TodoID, err)
	}

	return &todo.Todo{
		UserID:        r.UserID,
		TodoID:        r.TodoID,
		Name:          r.Name,
		DueDate:       r.DueDate,
		Done:          r.Done == 1,
		CreatedAt:     createdAt,
		AttachmentURL: r.AttachmentURL,
	}, nil
}

type Storage struct {
	db *sqlx.DB
}

// New открывает (или создаёт) базу по пути dbPath и применяет миграции
func New(dbPath string) (*Storage, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("открытие sqlite: %w", err)
	}

	// один писатель, чтобы не ловить SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("включение WAL: %w", err)
	}

	s := &Storage{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("применение миграций: %w", err)
	}

	logger.Info("Repository: Успешное открытие SQLite", zap.String("path", dbPath))
	return s, nil
}

func (s *Storage) Close() error {
	logger.Info("Repository: Закрытие SQLite")
	return s.db.Close()
}

func (s *Storage) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'")
	if err != nil {
		return fmt.Errorf("проверка таблицы schema_version: %w", err)
	}

	if tableCount > 0 {
		if err := s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
			return fmt.Errorf("чтение версии схемы: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("миграция v%d: %w", m.version, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			return fmt.Errorf("запись версии v%d: %w", m.version, err)
		}
	}
	return nil
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) GetByID(ctx context.Context, todoID string) (*todo.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE todo_id = ?`
	return s.one(ctx, "get_by_id", query, todoID)
}

func (s *Storage) ListByOwner(ctx context.Context, userID string) ([]*todo.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos
		WHERE user_id = ?
		ORDER BY created_at ASC`
	return s.list(ctx, "list_by_owner", query, userID)
}

func (s *Storage) ListByOwnerSorted(ctx context.Context, userID string, ascending bool) ([]*todo.Todo, error) {
	direction := "DESC"
	if ascending {
		direction = "ASC"
	}

	query := `SELECT ` + todoColumns + ` FROM todos
		WHERE user_id = ?
		ORDER BY created_at ` + direction
	return s.list(ctx, "list_by_owner_sorted", query, userID)
}

func (s *Storage) ListByOwnerDone(ctx context.Context, userID string, done bool) ([]*todo.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos
		WHERE user_id = ? AND done = ?
		ORDER BY created_at ASC`
	return s.list(ctx, "list_by_owner_done", query, userID, boolToInt(done))
}

func (s *Storage) Create(ctx context.Context, todoToCreate *todo.Todo) error {
	query := `INSERT OR REPLACE INTO todos (` + todoColumns + `)
		VALUES (:todo_id, :user_id, :name, :due_date, :done, :created_at, :attachment_url)`

	if _, err := s.db.NamedExecContext(ctx, query, fromTodo(todoToCreate)); err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err)
		return fmt.Errorf("добавление задачи: %w", err)
	}
	return nil
}

func (s *Storage) UpdateFields(ctx context.Context, todoID string, update todo.Update) (*todo.Todo, error) {
	query := `UPDATE todos
		SET name = ?, due_date = ?, done = ?
		WHERE todo_id = ?
		RETURNING ` + todoColumns
	return s.one(ctx, "update_fields", query, update.Name, update.DueDate, boolToInt(update.Done), todoID)
}

func (s *Storage) Delete(ctx context.Context, todoID string) (*todo.Todo, error) {
	query := `DELETE FROM todos WHERE todo_id = ? RETURNING ` + todoColumns
	return s.one(ctx, "delete", query, todoID)
}

func (s *Storage) SetAttachmentURL(ctx context.Context, todoID, url string) (*todo.Todo, error) {
	query := `UPDATE todos SET attachment_url = ? WHERE todo_id = ? RETURNING ` + todoColumns
	return s.one(ctx, "set_attachment_url", query, url, todoID)
}

func (s *Storage) one(ctx context.Context, op, query string, args ...any) (*todo.Todo, error) {
	var row todoRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Ошибка запроса", err, zap.String("operation", op))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return row.toTodo()
}

func (s *Storage) list(ctx context.Context, op, query string, args ...any) ([]*todo.Todo, error) {
	var rows []todoRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.String("operation", op))
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	todos := make([]*todo.Todo, 0, len(rows))
	for _, row := range rows {
		t, err := row.toTodo()
		if err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	return todos, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
