package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"
	"todoTracker/internal/handlers/dto"
	"todoTracker/internal/logger"
	"todoTracker/internal/middleware"
	"todoTracker/internal/models/todo"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const contentTypeJSON = "application/json"

// maxBodyBytes - предел тела запроса, дальше 413
const maxBodyBytes = 1 << 20

type TodoHandler struct {
	TodoService Service
}

func NewTodoHandler(todoService Service) TodoHandler {
	return TodoHandler{
		TodoService: todoService,
	}
}

// GetTodos обслуживает три выборки: все задачи, сортировку (sortBy, sortOrder) и фильтр (filter)
func (h *TodoHandler) GetTodos(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	filtered := query.Has("filter")
	sorted := query.Has("sortBy") || query.Has("sortOrder")

	if filtered && sorted {
		logger.Warn("HTTP: Фильтр и сортировка в одном запросе",
			zap.String("query", r.URL.RawQuery),
			zap.String("client_ip", r.RemoteAddr))
		responseWithValidationError(w, "filter", "filter нельзя сочетать с sortBy/sortOrder")
		return
	}

	var (
		todos []*todo.Todo
		err   error
	)
	switch {
	case filtered:
		logger.Info("HTTP: Вызов сервиса фильтрации задач")
		todos, err = h.TodoService.ListTodosFiltered(r.Context(), userID, query.Get("filter"))
	case sorted:
		logger.Info("HTTP: Вызов сервиса сортировки задач")
		todos, err = h.TodoService.ListTodosSorted(r.Context(), userID, query.Get("sortBy"), query.Get("sortOrder"))
	default:
		logger.Info("HTTP: Вызов сервиса получения задач")
		todos, err = h.TodoService.ListTodos(r.Context(), userID)
	}

	if err != nil {
		handleError(w, err, "не удалось получить задачи")
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", len(todos)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	// пустой список отдаём как [], а не null
	if todos == nil {
		todos = []*todo.Todo{}
	}
	responseWithJSON(w, http.StatusOK, toPayload("items", todos))
}

func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if !requireJSON(w, r) {
		return
	}

	var request dto.CreateTodoRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	if !validateFields(w, r, request.Name, request.DueDate) {
		return
	}

	logger.Info("HTTP: Вызов сервиса создания задачи")
	created, err := h.TodoService.CreateTodo(r.Context(), userID, request.Name, request.DueDate)
	if err != nil {
		handleError(w, err, "не удалось создать задачу")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("todo_id", created.TodoID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("item", created))
}

func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if !requireJSON(w, r) {
		return
	}

	todoID := chi.URLParam(r, "todoId")

	var request dto.UpdateTodoRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	if !validateFields(w, r, request.Name, request.DueDate) {
		return
	}
	if request.Done == nil {
		logger.Warn("HTTP: Ошибка валидации",
			zap.String("field", "done"),
			zap.String("error", "empty_field"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithValidationError(w, "done", "поле done обязательно")
		return
	}

	logger.Info("HTTP: Вызов сервиса обновления задачи", zap.String("todo_id", todoID))
	updated, err := h.TodoService.UpdateTodo(r.Context(), userID, todoID, request.ToUpdate())
	if err != nil {
		handleError(w, err, "не удалось обновить задачу")
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.String("todo_id", todoID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("item", updated))
}

func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	todoID := chi.URLParam(r, "todoId")

	logger.Info("HTTP: Вызов сервиса удаления задачи", zap.String("todo_id", todoID))
	deleted, err := h.TodoService.DeleteTodo(r.Context(), userID, todoID)
	if err != nil {
		handleError(w, err, "не удалось удалить задачу")
		return
	}

	logger.Info("HTTP_OUT: Задача удалена",
		zap.String("todo_id", todoID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("item", deleted))
}

// GenerateUploadURL привязывает к задаче новый ключ вложения и отдаёт ссылку на загрузку
func (h *TodoHandler) GenerateUploadURL(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	todoID := chi.URLParam(r, "todoId")

	logger.Info("HTTP: Вызов сервиса выдачи ссылки на загрузку", zap.String("todo_id", todoID))
	uploadURL, err := h.TodoService.RequestAttachmentUpload(r.Context(), userID, todoID)
	if err != nil {
		handleError(w, err, "не удалось выдать ссылку на загрузку")
		return
	}

	logger.Info("HTTP_OUT: Ссылка на загрузку выдана",
		zap.String("todo_id", todoID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(dto.UploadURLResponse{UploadURL: uploadURL})
}

func (h *TodoHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.TodoService.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Сервис нездоров", err)
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unhealthy"),
			toPayload("service", "todo-tracker"),
		)
		return
	}

	responseWithJSON(w, http.StatusOK,
		toPayload("status", "ok"),
		toPayload("service", "todo-tracker"),
	)
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		logger.Warn("HTTP: Нет пользователя в контексте запроса",
			zap.String("path", r.URL.Path),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return userID, true
}

func requireJSON(w http.ResponseWriter, r *http.Request) bool {
	if checkContentType(r, contentTypeJSON) {
		return true
	}

	logger.Warn("HTTP: Неверный тип контента",
		zap.String("expected", contentTypeJSON),
		zap.String("received", r.Header.Get("Content-Type")),
		zap.String("client_ip", r.RemoteAddr))
	responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
	return false
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		logger.Warn("HTTP: Тело запроса превышает предел",
			zap.Int64("limit", tooLarge.Limit),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusRequestEntityTooLarge, "тело запроса слишком большое")
		return false
	}

	logger.Warn("HTTP: ошибка чтения JSON",
		zap.Error(err),
		zap.String("client_ip", r.RemoteAddr))
	responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
	return false
}

func validateFields(w http.ResponseWriter, r *http.Request, name, dueDate string) bool {
	if !validName(name) {
		logger.Warn("HTTP: Ошибка валидации",
			zap.String("field", "name"),
			zap.String("error", "empty_field"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithValidationError(w, "name", "название не может быть пустым")
		return false
	}

	if !validDueDate(dueDate) {
		logger.Warn("HTTP: Ошибка валидации",
			zap.String("field", "dueDate"),
			zap.String("error", "wrong_value"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithValidationError(w, "dueDate", "dueDate должен быть в формате YYYY-MM-DD")
		return false
	}
	return true
}
