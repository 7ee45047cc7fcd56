package handlers

import (
	"context"
	"todoTracker/internal/models/todo"
)

type Service interface {
	HealthCheck(ctx context.Context) error
	ListTodos(ctx context.Context, userID string) ([]*todo.Todo, error)
	ListTodosSorted(ctx context.Context, userID, sortBy, sortOrder string) ([]*todo.Todo, error)
	ListTodosFiltered(ctx context.Context, userID, filter string) ([]*todo.Todo, error)
	CreateTodo(ctx context.Context, userID, name, dueDate string) (*todo.Todo, error)
	UpdateTodo(ctx context.Context, userID, todoID string, update todo.Update) (*todo.Todo, error)
	DeleteTodo(ctx context.Context, userID, todoID string) (*todo.Todo, error)
	RequestAttachmentUpload(ctx context.Context, userID, todoID string) (string, error)
}
