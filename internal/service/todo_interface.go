package service

import (
	"context"
	"todoTracker/internal/models/todo"
)

// TodoRepository - хранилище записей. Реализации тонкие: без повторов
// и без бизнес-проверок, отсутствие записи - repository.ErrNotFound.
type TodoRepository interface {
	HealthCheck(context.Context) error
	GetByID(ctx context.Context, todoID string) (*todo.Todo, error)
	ListByOwner(ctx context.Context, userID string) ([]*todo.Todo, error)
	ListByOwnerSorted(ctx context.Context, userID string, ascending bool) ([]*todo.Todo, error)
	ListByOwnerDone(ctx context.Context, userID string, done bool) ([]*todo.Todo, error)
	Create(context.Context, *todo.Todo) error
	UpdateFields(ctx context.Context, todoID string, update todo.Update) (*todo.Todo, error)
	Delete(ctx context.Context, todoID string) (*todo.Todo, error)
	SetAttachmentURL(ctx context.Context, todoID, url string) (*todo.Todo, error)
}

// AttachmentStore - объектное хранилище вложений
type AttachmentStore interface {
	AttachmentURL(objectKey string) string
	UploadURL(ctx context.Context, objectKey string) (string, error)
}
