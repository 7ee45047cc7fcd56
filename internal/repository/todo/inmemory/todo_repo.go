package inmemory

import (
	"context"
	"sort"
	"sync"
	"todoTracker/internal/logger"
	"todoTracker/internal/models/todo"
	repo "todoTracker/internal/repository"
)

// TodoStorage хранит копии записей: наружу никогда не уходят внутренние указатели
type TodoStorage struct {
	storage map[string]*todo.Todo
	// индекс владельца: id задач в порядке createdAt
	byOwner map[string][]string
	mtx     *sync.RWMutex
}

func NewTodoStorage() *TodoStorage {
	return &TodoStorage{
		storage: make(map[string]*todo.Todo),
		byOwner: make(map[string][]string),
		mtx:     &sync.RWMutex{},
	}
}

func (s *TodoStorage) HealthCheck(ctx context.Context) error {
	logger.Info("Repository: Соединение стабильно")
	return nil
}

func (s *TodoStorage) Create(ctx context.Context, todoToCreate *todo.Todo) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	// put перезаписывает запись с тем же ключом
	if existing, ok := s.storage[todoToCreate.TodoID]; ok {
		s.removeFromIndex(existing)
	}

	stored := todoToCreate.Clone()
	s.storage[stored.TodoID] = stored
	s.addToIndex(stored)
	return nil
}

func (s *TodoStorage) GetByID(ctx context.Context, todoID string) (*todo.Todo, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	todoToGet, ok := s.storage[todoID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return todoToGet.Clone(), nil
}

func (s *TodoStorage) ListByOwner(ctx context.Context, userID string) ([]*todo.Todo, error) {
	return s.ListByOwnerSorted(ctx, userID, true)
}

func (s *TodoStorage) ListByOwnerSorted(ctx context.Context, userID string, ascending bool) ([]*todo.Todo, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	ids := s.byOwner[userID]
	res := make([]*todo.Todo, 0, len(ids))

	for i := range ids {
		id := ids[i]
		if !ascending {
			id = ids[len(ids)-1-i]
		}
		res = append(res, s.storage[id].Clone())
	}
	return res, nil
}

func (s *TodoStorage) ListByOwnerDone(ctx context.Context, userID string, done bool) ([]*todo.Todo, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*todo.Todo{}
	for _, id := range s.byOwner[userID] {
		t := s.storage[id]
		if t.Done != done {
			continue
		}
		res = append(res, t.Clone())
	}
	return res, nil
}

func (s *TodoStorage) UpdateFields(ctx context.Context, todoID string, update todo.Update) (*todo.Todo, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.storage[todoID]
	if !ok {
		return nil, repo.ErrNotFound
	}

	existing.Apply(update)
	return existing.Clone(), nil
}

// полное удаление, возвращает запись до удаления
func (s *TodoStorage) Delete(ctx context.Context, todoID string) (*todo.Todo, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.storage[todoID]
	if !ok {
		return nil, repo.ErrNotFound
	}

	delete(s.storage, todoID)
	s.removeFromIndex(existing)
	return existing, nil
}

func (s *TodoStorage) SetAttachmentURL(ctx context.Context, todoID, url string) (*todo.Todo, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.storage[todoID]
	if !ok {
		return nil, repo.ErrNotFound
	}

	existing.AttachmentURL = &url
	return existing.Clone(), nil
}

func (s *TodoStorage) addToIndex(t *todo.Todo) {
	ids := s.byOwner[t.UserID]
	pos := sort.Search(len(ids), func(i int) bool {
		return s.storage[ids[i]].CreatedAt.After(t.CreatedAt)
	})

	ids = append(ids, "")
	copy(ids[pos+1:], ids[pos:])
	ids[pos] = t.TodoID
	s.byOwner[t.UserID] = ids
}

func (s *TodoStorage) removeFromIndex(t *todo.Todo) {
	ids := s.byOwner[t.UserID]
	for ind, val := range ids {
		if val == t.TodoID {
			ids = append(ids[:ind], ids[ind+1:]...)
			break
		}
	}

	if len(ids) == 0 {
		delete(s.byOwner, t.UserID)
		return
	}
	s.byOwner[t.UserID] = ids
}
