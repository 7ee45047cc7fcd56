package service

import (
	"context"
	"errors"
	"fmt"
	"todoTracker/internal/logger"
	"todoTracker/internal/models/todo"
	"todoTracker/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// здесь происходит проверка владельца и параметров запросов

const (
	SortByCreatedAt = "createdAt"

	SortOrderAsc  = "asc"
	SortOrderDesc = "desc"

	FilterDone    = "done"
	FilterNotDone = "not"
)

const resourceTodo = "задача"

type TodoService struct {
	repo        TodoRepository
	attachments AttachmentStore
}

func NewTodoService(repo TodoRepository, attachments AttachmentStore) TodoService {
	return TodoService{
		repo:        repo,
		attachments: attachments,
	}
}

func (s *TodoService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

func (s *TodoService) ListTodos(ctx context.Context, userID string) ([]*todo.Todo, error) {
	ctx, span := startSpan(ctx, "ListTodos", userID)
	defer span.End()

	logger.Info("Service: Получение всех задач пользователя", zap.String("user_id", userID))

	todos, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, recordError(span, fmt.Errorf("получение задач: %w", err))
	}
	return todos, nil
}

func (s *TodoService) ListTodosSorted(ctx context.Context, userID, sortBy, sortOrder string) ([]*todo.Todo, error) {
	ctx, span := startSpan(ctx, "ListTodosSorted", userID,
		attribute.String("sort.by", sortBy),
		attribute.String("sort.order", sortOrder))
	defer span.End()

	ascending, err := parseSortOrder(sortOrder)
	if err != nil {
		return nil, recordError(span, err)
	}

	logger.Info("Service: Сортировка задач пользователя",
		zap.String("user_id", userID),
		zap.String("sort_by", sortBy),
		zap.Bool("ascending", ascending))

	var todos []*todo.Todo
	switch sortBy {
	case SortByCreatedAt:
		todos, err = s.repo.ListByOwnerSorted(ctx, userID, ascending)
	default:
		return nil, recordError(span, NewValidationError("sortBy", sortBy, SortByCreatedAt))
	}

	if err != nil {
		return nil, recordError(span, fmt.Errorf("сортировка задач: %w", err))
	}
	return todos, nil
}

func (s *TodoService) ListTodosFiltered(ctx context.Context, userID, filter string) ([]*todo.Todo, error) {
	ctx, span := startSpan(ctx, "ListTodosFiltered", userID, attribute.String("filter", filter))
	defer span.End()

	done, err := parseFilter(filter)
	if err != nil {
		return nil, recordError(span, err)
	}

	logger.Info("Service: Фильтрация задач пользователя",
		zap.String("user_id", userID),
		zap.Bool("done", done))

	todos, err := s.repo.ListByOwnerDone(ctx, userID, done)
	if err != nil {
		return nil, recordError(span, fmt.Errorf("фильтрация задач: %w", err))
	}
	return todos, nil
}

func (s *TodoService) CreateTodo(ctx context.Context, userID, name, dueDate string) (*todo.Todo, error) {
	ctx, span := startSpan(ctx, "CreateTodo", userID)
	defer span.End()

	newTodo := todo.New(userID, todo.WithName(name), todo.WithDueDate(dueDate))

	logger.Info("Service: Создание задачи",
		zap.String("user_id", userID),
		zap.String("todo_id", newTodo.TodoID))

	if err := s.repo.Create(ctx, newTodo); err != nil {
		return nil, recordError(span, fmt.Errorf("создание задачи: %w", err))
	}
	return newTodo, nil
}

// UpdateTodo перезаписывает только name, dueDate и done
func (s *TodoService) UpdateTodo(ctx context.Context, userID, todoID string, update todo.Update) (*todo.Todo, error) {
	return s.withOwnedTodo(ctx, "UpdateTodo", userID, todoID, func(ctx context.Context, _ *todo.Todo) (*todo.Todo, error) {
		return s.repo.UpdateFields(ctx, todoID, update)
	})
}

// DeleteTodo удаляет задачу насовсем и возвращает её последнее состояние
func (s *TodoService) DeleteTodo(ctx context.Context, userID, todoID string) (*todo.Todo, error) {
	return s.withOwnedTodo(ctx, "DeleteTodo", userID, todoID, func(ctx context.Context, _ *todo.Todo) (*todo.Todo, error) {
		return s.repo.Delete(ctx, todoID)
	})
}

// SetAttachment привязывает к задаче публичный адрес объекта attachmentID
func (s *TodoService) SetAttachment(ctx context.Context, userID, todoID, attachmentID string) (*todo.Todo, error) {
	attachmentURL := s.attachments.AttachmentURL(attachmentID)

	return s.withOwnedTodo(ctx, "SetAttachment", userID, todoID, func(ctx context.Context, _ *todo.Todo) (*todo.Todo, error) {
		logger.Info("Service: Привязка вложения",
			zap.String("todo_id", todoID),
			zap.String("attachment_url", attachmentURL))
		return s.repo.SetAttachmentURL(ctx, todoID, attachmentURL)
	})
}

// GenerateUploadURL выдаёт подписанную ссылку на загрузку. Владельца
// задачи здесь не проверяют: проверка выполняется в SetAttachment.
func (s *TodoService) GenerateUploadURL(ctx context.Context, attachmentID string) (string, error) {
	ctx, span := tracer.Start(ctx, "TodoService.GenerateUploadURL")
	defer span.End()

	logger.Info("Service: Генерация ссылки на загрузку", zap.String("attachment_id", attachmentID))

	uploadURL, err := s.attachments.UploadURL(ctx, attachmentID)
	if err != nil {
		return "", recordError(span, fmt.Errorf("генерация ссылки на загрузку: %w", err))
	}
	return uploadURL, nil
}

// RequestAttachmentUpload создаёт ключ объекта, привязывает его к задаче
// и только после успешной привязки выдаёт ссылку на загрузку
func (s *TodoService) RequestAttachmentUpload(ctx context.Context, userID, todoID string) (string, error) {
	attachmentID := uuid.NewString()

	if _, err := s.SetAttachment(ctx, userID, todoID, attachmentID); err != nil {
		return "", err
	}
	return s.GenerateUploadURL(ctx, attachmentID)
}

// withOwnedTodo - общая схема для изменений: найти, проверить владельца, выполнить act
func (s *TodoService) withOwnedTodo(
	ctx context.Context,
	op, userID, todoID string,
	act func(context.Context, *todo.Todo) (*todo.Todo, error),
) (*todo.Todo, error) {
	ctx, span := startSpan(ctx, op, userID, attribute.String("todo.id", todoID))
	defer span.End()

	existing, err := s.repo.GetByID(ctx, todoID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Info("Service: Задача не найдена",
				zap.String("operation", op),
				zap.String("todo_id", todoID))
			return nil, recordError(span, NewNotFound(resourceTodo, todoID))
		}
		return nil, recordError(span, fmt.Errorf("получение задачи: %w", err))
	}

	if !existing.IsOwnedBy(userID) {
		logger.Warn("Service: Попытка доступа к чужой задаче",
			zap.String("operation", op),
			zap.String("todo_id", todoID),
			zap.String("user_id", userID))
		return nil, recordError(span, NewForbidden(resourceTodo, todoID))
	}

	result, err := act(ctx, existing)
	if err != nil {
		// задачу удалили между чтением и записью
		if errors.Is(err, repository.ErrNotFound) {
			return nil, recordError(span, NewNotFound(resourceTodo, todoID))
		}
		return nil, recordError(span, fmt.Errorf("%s: %w", op, err))
	}

	logger.Info("Service: Операция над задачей выполнена",
		zap.String("operation", op),
		zap.String("todo_id", todoID))
	return result, nil
}

func parseSortOrder(sortOrder string) (bool, error) {
	switch sortOrder {
	case SortOrderAsc:
		return true, nil
	case SortOrderDesc:
		return false, nil
	default:
		return false, NewValidationError("sortOrder", sortOrder, SortOrderAsc, SortOrderDesc)
	}
}

func parseFilter(filter string) (bool, error) {
	switch filter {
	case FilterDone:
		return true, nil
	case FilterNotDone:
		return false, nil
	default:
		return false, NewValidationError("filter", filter, FilterDone, FilterNotDone)
	}
}
