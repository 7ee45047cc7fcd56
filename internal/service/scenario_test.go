package service_test

import (
	"context"
	"testing"
	"time"
	"todoTracker/internal/models/todo"
	"todoTracker/internal/repository/todo/inmemory"
	"todoTracker/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// TestTodoService_Lifecycle проверяет полный путь задачи на настоящем хранилище
func TestTodoService_Lifecycle(t *testing.T) {
	ctx := context.Background()

	store := new(MockAttachmentStore)
	store.On("AttachmentURL", mock.Anything).Return("https://bucket.s3.amazonaws.com/key")
	store.On("UploadURL", mock.Anything, mock.Anything).Return("https://signed.example/key", nil)

	svc := service.NewTodoService(inmemory.NewTodoStorage(), store)

	created, err := svc.CreateTodo(ctx, "u1", "Buy milk", "2024-01-01")
	require.NoError(t, err)
	assert.False(t, created.Done)

	updated, err := svc.UpdateTodo(ctx, "u1", created.TodoID, todo.Update{
		Name:    "Buy oat milk",
		DueDate: "2024-01-02",
		Done:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", updated.Name)
	assert.True(t, updated.Done)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	_, err = svc.DeleteTodo(ctx, "u2", created.TodoID)
	assertBusinessError(t, err, service.CodeForbidden, service.ErrForbidden)

	uploadURL, err := svc.RequestAttachmentUpload(ctx, "u1", created.TodoID)
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example/key", uploadURL)

	todos, err := svc.ListTodos(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, todos, 1)
	require.NotNil(t, todos[0].AttachmentURL)
	assert.Equal(t, "https://bucket.s3.amazonaws.com/key", *todos[0].AttachmentURL)

	deleted, err := svc.DeleteTodo(ctx, "u1", created.TodoID)
	require.NoError(t, err)
	assert.Equal(t, created.TodoID, deleted.TodoID)

	_, err = svc.UpdateTodo(ctx, "u1", created.TodoID, todo.Update{Name: "x"})
	assertBusinessError(t, err, service.CodeNotFound, service.ErrNotFound)

	todos, err = svc.ListTodos(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, todos)
}

// TestTodoService_SortedAndFilteredProperties проверяет порядок и состав выборок
func TestTodoService_SortedAndFilteredProperties(t *testing.T) {
	ctx := context.Background()
	repo := inmemory.NewTodoStorage()
	svc := service.NewTodoService(repo, new(MockAttachmentStore))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, done := range []bool{true, false, true, false, false} {
		require.NoError(t, repo.Create(ctx, &todo.Todo{
			UserID:    "u1",
			TodoID:    string(rune('a' + i)),
			Name:      string(rune('a' + i)),
			Done:      done,
			CreatedAt: base.Add(time.Duration(4-i) * time.Minute),
		}))
	}
	require.NoError(t, repo.Create(ctx, &todo.Todo{UserID: "u2", TodoID: "z", Done: true, CreatedAt: base}))

	asc, err := svc.ListTodosSorted(ctx, "u1", service.SortByCreatedAt, service.SortOrderAsc)
	require.NoError(t, err)
	require.Len(t, asc, 5)
	for i := 1; i < len(asc); i++ {
		assert.False(t, asc[i].CreatedAt.Before(asc[i-1].CreatedAt))
	}

	desc, err := svc.ListTodosSorted(ctx, "u1", service.SortByCreatedAt, service.SortOrderDesc)
	require.NoError(t, err)
	require.Len(t, desc, 5)
	for i := range desc {
		assert.Equal(t, asc[len(asc)-1-i].TodoID, desc[i].TodoID)
	}

	done, err := svc.ListTodosFiltered(ctx, "u1", service.FilterDone)
	require.NoError(t, err)
	notDone, err := svc.ListTodosFiltered(ctx, "u1", service.FilterNotDone)
	require.NoError(t, err)

	assert.Len(t, done, 2)
	assert.Len(t, notDone, 3)
	for _, item := range done {
		assert.True(t, item.Done)
		assert.Equal(t, "u1", item.UserID)
	}
	for _, item := range notDone {
		assert.False(t, item.Done)
		assert.Equal(t, "u1", item.UserID)
	}
}
