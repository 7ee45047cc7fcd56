package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"
	"todoTracker/internal/models/todo"
	"todoTracker/internal/repository"
	"todoTracker/internal/repository/todo/sqlite"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStorage(t *testing.T) (*sqlite.Storage, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "todos.db")
	storage, err := sqlite.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })
	return storage, path
}

func newTodo(t *testing.T, storage *sqlite.Storage, userID, name string, createdAt time.Time, done bool) *todo.Todo {
	t.Helper()

	item := &todo.Todo{
		UserID:    userID,
		TodoID:    uuid.NewString(),
		Name:      name,
		DueDate:   "2024-01-01",
		Done:      done,
		CreatedAt: createdAt,
	}
	require.NoError(t, storage.Create(context.Background(), item))
	return item
}

// TestStorage_CreateAndGet тестирует создание и получение задачи
func TestStorage_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	storage, _ := newStorage(t)

	created := newTodo(t, storage, "u1", "Buy milk", todo.Now(), false)

	retrieved, err := storage.GetByID(ctx, created.TodoID)
	require.NoError(t, err)
	assert.Equal(t, created, retrieved)
	assert.NoError(t, storage.HealthCheck(ctx))
}

// TestStorage_DoneEncoding проверяет, что done лежит в базе как 0/1
func TestStorage_DoneEncoding(t *testing.T) {
	storage, path := newStorage(t)

	doneTodo := newTodo(t, storage, "u1", "done", todo.Now(), true)
	openTodo := newTodo(t, storage, "u1", "open", todo.Now(), false)

	raw, err := sqlx.Open("sqlite", path)
	require.NoError(t, err)
	defer raw.Close()

	var encoded int
	require.NoError(t, raw.Get(&encoded, "SELECT done FROM todos WHERE todo_id = ?", doneTodo.TodoID))
	assert.Equal(t, 1, encoded)

	require.NoError(t, raw.Get(&encoded, "SELECT done FROM todos WHERE todo_id = ?", openTodo.TodoID))
	assert.Equal(t, 0, encoded)
}

// TestStorage_GetByID_NotFound тестирует отсутствие записи
func TestStorage_GetByID_NotFound(t *testing.T) {
	storage, _ := newStorage(t)

	_, err := storage.GetByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// TestStorage_ListByOwnerSorted тестирует порядок по createdAt
func TestStorage_ListByOwnerSorted(t *testing.T) {
	ctx := context.Background()
	storage, _ := newStorage(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	newTodo(t, storage, "u1", "second", base.Add(2*time.Hour+5*time.Millisecond), false)
	newTodo(t, storage, "u1", "first", base.Add(2*time.Hour), false)
	newTodo(t, storage, "u1", "third", base.Add(3*time.Hour), true)
	newTodo(t, storage, "u2", "foreign", base, false)

	asc, err := storage.ListByOwnerSorted(ctx, "u1", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, names(asc))

	desc, err := storage.ListByOwnerSorted(ctx, "u1", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "second", "first"}, names(desc))

	all, err := storage.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, names(asc), names(all))
}

// TestStorage_ListByOwnerDone тестирует фильтр по done
func TestStorage_ListByOwnerDone(t *testing.T) {
	ctx := context.Background()
	storage, _ := newStorage(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	newTodo(t, storage, "u1", "a", base, true)
	newTodo(t, storage, "u1", "b", base.Add(time.Minute), false)
	newTodo(t, storage, "u2", "c", base, true)

	done, err := storage.ListByOwnerDone(ctx, "u1", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, names(done))

	notDone, err := storage.ListByOwnerDone(ctx, "u1", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, names(notDone))
}

// TestStorage_Mutations тестирует обновление, вложение и удаление
func TestStorage_Mutations(t *testing.T) {
	ctx := context.Background()
	storage, _ := newStorage(t)

	created := newTodo(t, storage, "u1", "Buy milk", todo.Now(), false)

	updated, err := storage.UpdateFields(ctx, created.TodoID, todo.Update{
		Name:    "Buy oat milk",
		DueDate: "2024-01-02",
		Done:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", updated.Name)
	assert.True(t, updated.Done)
	assert.Equal(t, "u1", updated.UserID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	withAttachment, err := storage.SetAttachmentURL(ctx, created.TodoID, "https://bucket.s3.amazonaws.com/key")
	require.NoError(t, err)
	require.NotNil(t, withAttachment.AttachmentURL)
	assert.Equal(t, "https://bucket.s3.amazonaws.com/key", *withAttachment.AttachmentURL)
	assert.True(t, withAttachment.Done)

	deleted, err := storage.Delete(ctx, created.TodoID)
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", deleted.Name)

	_, err = storage.GetByID(ctx, created.TodoID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = storage.UpdateFields(ctx, created.TodoID, todo.Update{})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = storage.SetAttachmentURL(ctx, created.TodoID, "x")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = storage.Delete(ctx, created.TodoID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// TestStorage_Reopen тестирует повторное открытие базы с уже применёнными миграциями
func TestStorage_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.db")

	first, err := sqlite.New(path)
	require.NoError(t, err)
	created := newTodo(t, first, "u1", "persisted", todo.Now(), false)
	require.NoError(t, first.Close())

	second, err := sqlite.New(path)
	require.NoError(t, err)
	defer second.Close()

	retrieved, err := second.GetByID(context.Background(), created.TodoID)
	require.NoError(t, err)
	assert.Equal(t, "persisted", retrieved.Name)
}

func names(todos []*todo.Todo) []string {
	res := make([]string, 0, len(todos))
	for _, t := range todos {
		res = append(res, t.Name)
	}
	return res
}
