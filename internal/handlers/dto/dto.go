package dto

import (
	"todoTracker/internal/models/todo"
)

type CreateTodoRequest struct {
	Name    string `json:"name"`
	DueDate string `json:"dueDate"`
}

// UpdateTodoRequest - все три поля обязательны, done указателем, чтобы отличить false от отсутствия
type UpdateTodoRequest struct {
	Name    string `json:"name"`
	DueDate string `json:"dueDate"`
	Done    *bool  `json:"done"`
}

func (r UpdateTodoRequest) ToUpdate() todo.Update {
	update := todo.Update{
		Name:    r.Name,
		DueDate: r.DueDate,
	}
	if r.Done != nil {
		update.Done = *r.Done
	}
	return update
}

type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
}
