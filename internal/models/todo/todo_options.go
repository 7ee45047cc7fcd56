package todo

import "github.com/google/uuid"

// TodoOption заполняет поля новой задачи, которые передал клиент
type TodoOption func(*Todo)

func WithName(name string) TodoOption {
	return func(t *Todo) {
		t.Name = name
	}
}

func WithDueDate(dueDate string) TodoOption {
	return func(t *Todo) {
		t.DueDate = dueDate
	}
}

// New собирает задачу с серверными значениями по умолчанию:
// новый id, текущее время, done=false и пустое вложение
func New(userID string, options ...TodoOption) *Todo {
	t := &Todo{
		UserID:        userID,
		TodoID:        uuid.NewString(),
		CreatedAt:     Now(),
		Done:          false,
		AttachmentURL: nil,
	}

	for _, opt := range options {
		if opt != nil {
			opt(t)
		}
	}
	return t
}
