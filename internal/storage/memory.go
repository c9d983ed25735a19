package storage

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"tododash-api/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrTodoNotFound is returned when no todo exists with the given ID
	ErrTodoNotFound = errors.New("todo not found")
	// ErrNotOwner is returned when the todo exists but belongs to another user
	ErrNotOwner = errors.New("todo belongs to another user")
)

// memoryTodo wraps a todo with its insertion sequence so ordering stays
// deterministic when two todos share a creation timestamp.
type memoryTodo struct {
	todo models.Todo
	seq  uint64
}

// MemoryStorage provides in-memory todo storage for development and tests
type MemoryStorage struct {
	mu    sync.RWMutex
	todos map[uuid.UUID]*memoryTodo
	seq   uint64
}

// NewMemoryStorage creates a new in-memory storage instance
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		todos: make(map[uuid.UUID]*memoryTodo),
	}
}

// ListTodos returns one page of the user's todos under the query's filters,
// newest first, plus pagination computed over the same filtered set
func (s *MemoryStorage) ListTodos(userID uuid.UUID, query models.TodoQuery) ([]models.Todo, *models.Pagination, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.filteredLocked(userID, query.Search, query.Status)

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].todo.CreatedAt.Equal(matched[j].todo.CreatedAt) {
			return matched[i].seq > matched[j].seq
		}
		return matched[i].todo.CreatedAt.After(matched[j].todo.CreatedAt)
	})

	totalItems := len(matched)
	limit := query.Limit
	if limit <= 0 {
		limit = models.DefaultPageSize
	}
	page := query.Page
	if page < 1 {
		page = 1
	}

	start := (page - 1) * limit
	if start > totalItems {
		start = totalItems
	}
	end := start + limit
	if end > totalItems {
		end = totalItems
	}

	todos := make([]models.Todo, 0, end-start)
	for _, m := range matched[start:end] {
		todos = append(todos, m.todo)
	}

	pagination := &models.Pagination{
		Page:       page,
		Limit:      limit,
		TotalPages: TotalPages(int64(totalItems), limit),
		TotalItems: totalItems,
	}

	return todos, pagination, nil
}

// CountTodos counts the user's todos under the same predicate ListTodos uses
func (s *MemoryStorage) CountTodos(userID uuid.UUID, search string, status models.StatusFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.filteredLocked(userID, search, status))), nil
}

// Stats returns the user's overall finished/unfinished counts, ignoring filters
func (s *MemoryStorage) Stats(userID uuid.UUID) (*models.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.Stats{}
	for _, m := range s.todos {
		if m.todo.UserID != userID {
			continue
		}
		if m.todo.IsFinished {
			stats.Finished++
		} else {
			stats.Unfinished++
		}
	}
	return stats, nil
}

// CreateTodo creates a new unfinished todo for the user
func (s *MemoryStorage) CreateTodo(userID uuid.UUID, params models.CreateTodoParams) (*models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	todo := models.Todo{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       params.Title,
		Description: params.Description,
		IsFinished:  false,
		Cover:       params.Cover,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.seq++
	s.todos[todo.ID] = &memoryTodo{todo: todo, seq: s.seq}

	result := todo
	return &result, nil
}

// GetTodoByID retrieves the user's todo by ID
func (s *MemoryStorage) GetTodoByID(userID, todoID uuid.UUID) (*models.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.todos[todoID]
	if !ok {
		return nil, ErrTodoNotFound
	}
	if m.todo.UserID != userID {
		return nil, ErrNotOwner
	}

	todo := m.todo
	return &todo, nil
}

// UpdateTodo updates the user's todo in place
func (s *MemoryStorage) UpdateTodo(userID, todoID uuid.UUID, params models.UpdateTodoParams) (*models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.todos[todoID]
	if !ok {
		return nil, ErrTodoNotFound
	}
	if m.todo.UserID != userID {
		return nil, ErrNotOwner
	}

	m.todo.Title = params.Title
	if params.Description != nil {
		m.todo.Description = *params.Description
	}
	if params.IsFinished != nil {
		m.todo.IsFinished = *params.IsFinished
	}
	if params.CoverChanged {
		m.todo.Cover = params.Cover
	}
	m.todo.UpdatedAt = time.Now()

	todo := m.todo
	return &todo, nil
}

// DeleteTodo removes the user's todo
func (s *MemoryStorage) DeleteTodo(userID, todoID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.todos[todoID]
	if !ok {
		return ErrTodoNotFound
	}
	if m.todo.UserID != userID {
		return ErrNotOwner
	}

	delete(s.todos, todoID)
	return nil
}

// filteredLocked collects the user's todos matching the search and status
// predicate. Callers must hold at least a read lock.
func (s *MemoryStorage) filteredLocked(userID uuid.UUID, search string, status models.StatusFilter) []*memoryTodo {
	needle := strings.ToLower(strings.TrimSpace(search))

	matched := make([]*memoryTodo, 0, len(s.todos))
	for _, m := range s.todos {
		if m.todo.UserID != userID {
			continue
		}
		if needle != "" {
			title := strings.ToLower(m.todo.Title)
			description := strings.ToLower(m.todo.Description)
			if !strings.Contains(title, needle) && !strings.Contains(description, needle) {
				continue
			}
		}
		if status == models.StatusFinished && !m.todo.IsFinished {
			continue
		}
		if status == models.StatusUnfinished && m.todo.IsFinished {
			continue
		}
		matched = append(matched, m)
	}
	return matched
}
