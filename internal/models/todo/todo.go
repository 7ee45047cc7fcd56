package todo

import (
	"encoding/json"
	"fmt"
	"time"
)

// Todo - запись списка дел. UserID, TodoID и CreatedAt после создания не меняются.
type Todo struct {
	UserID        string    `json:"userId" db:"user_id"`
	TodoID        string    `json:"todoId" db:"todo_id"`
	Name          string    `json:"name" db:"name"`
	DueDate       string    `json:"dueDate" db:"due_date"`
	Done          bool      `json:"done" db:"done"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	AttachmentURL *string   `json:"attachmentUrl" db:"attachment_url"`
}

// Update - поля, которые владелец может перезаписать
type Update struct {
	Name    string `json:"name"`
	DueDate string `json:"dueDate"`
	Done    bool   `json:"done"`
}

// DueDateLayout - формат dueDate (ISO-8601, только дата)
const DueDateLayout = "2006-01-02"

// TimestampLayout совпадает с toISOString: фиксированная ширина,
// поэтому строковый порядок равен хронологическому
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Now - текущее время в том виде, в каком его хранит createdAt
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// MarshalJSON пишет createdAt в TimestampLayout, всегда с тремя знаками миллисекунд
func (t Todo) MarshalJSON() ([]byte, error) {
	type alias Todo
	return json.Marshal(struct {
		alias
		CreatedAt string `json:"createdAt"`
	}{
		alias:     alias(t),
		CreatedAt: t.CreatedAt.UTC().Format(TimestampLayout),
	})
}

func (t *Todo) UnmarshalJSON(data []byte) error {
	type alias Todo
	aux := struct {
		*alias
		CreatedAt string `json:"createdAt"`
	}{
		alias: (*alias)(t),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.CreatedAt == "" {
		t.CreatedAt = time.Time{}
		return nil
	}
	createdAt, err := time.Parse(time.RFC3339Nano, aux.CreatedAt)
	if err != nil {
		return fmt.Errorf("разбор createdAt: %w", err)
	}
	t.CreatedAt = createdAt.UTC()
	return nil
}

func (t *Todo) IsOwnedBy(userID string) bool {
	return t.UserID == userID
}

// Clone нужен хранилищам, которые не должны отдавать наружу свои указатели
func (t *Todo) Clone() *Todo {
	if t == nil {
		return nil
	}
	c := *t
	if t.AttachmentURL != nil {
		url := *t.AttachmentURL
		c.AttachmentURL = &url
	}
	return &c
}

func (t *Todo) Apply(update Update) {
	t.Name = update.Name
	t.DueDate = update.DueDate
	t.Done = update.Done
}
