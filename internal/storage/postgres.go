package storage

import (
	"errors"
	"strings"

	"tododash-api/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostgresStorage implements todo storage using PostgreSQL with GORM.
// The queries stay within portable SQL so the sqlite driver can run the same
// code in tests.
type PostgresStorage struct {
	db *gorm.DB
}

// NewPostgresStorage creates a new PostgreSQL storage instance
func NewPostgresStorage(db *gorm.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

// ListTodos returns one page of the user's todos under the query's filters,
// newest first, plus pagination computed over the same filtered set
func (s *PostgresStorage) ListTodos(userID uuid.UUID, query models.TodoQuery) ([]models.Todo, *models.Pagination, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = models.DefaultPageSize
	}
	page := query.Page
	if page < 1 {
		page = 1
	}

	scoped := s.scopedQuery(userID, query.Search, query.Status)

	var totalItems int64
	if err := scoped.Count(&totalItems).Error; err != nil {
		return nil, nil, err
	}

	var todos []models.Todo
	err := scoped.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&todos).Error
	if err != nil {
		return nil, nil, err
	}

	pagination := &models.Pagination{
		Page:       page,
		Limit:      limit,
		TotalPages: TotalPages(totalItems, limit),
		TotalItems: int(totalItems),
	}

	return todos, pagination, nil
}

// CountTodos counts the user's todos under the same predicate ListTodos uses
func (s *PostgresStorage) CountTodos(userID uuid.UUID, search string, status models.StatusFilter) (int64, error) {
	var count int64
	err := s.scopedQuery(userID, search, status).Count(&count).Error
	return count, err
}

// Stats returns the user's overall finished/unfinished counts, ignoring filters
func (s *PostgresStorage) Stats(userID uuid.UUID) (*models.Stats, error) {
	stats := &models.Stats{}

	err := s.db.Model(&models.Todo{}).
		Where("user_id = ? AND is_finished = ?", userID, true).
		Count(&stats.Finished).Error
	if err != nil {
		return nil, err
	}

	err = s.db.Model(&models.Todo{}).
		Where("user_id = ? AND is_finished = ?", userID, false).
		Count(&stats.Unfinished).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// CreateTodo creates a new unfinished todo for the user
func (s *PostgresStorage) CreateTodo(userID uuid.UUID, params models.CreateTodoParams) (*models.Todo, error) {
	todo := &models.Todo{
		UserID:      userID,
		Title:       params.Title,
		Description: params.Description,
		IsFinished:  false,
		Cover:       params.Cover,
	}

	if err := s.db.Create(todo).Error; err != nil {
		return nil, err
	}

	return todo, nil
}

// GetTodoByID retrieves the user's todo by ID
func (s *PostgresStorage) GetTodoByID(userID, todoID uuid.UUID) (*models.Todo, error) {
	return s.findOwned(userID, todoID)
}

// UpdateTodo updates the user's todo
func (s *PostgresStorage) UpdateTodo(userID, todoID uuid.UUID, params models.UpdateTodoParams) (*models.Todo, error) {
	todo, err := s.findOwned(userID, todoID)
	if err != nil {
		return nil, err
	}

	todo.Title = params.Title
	if params.Description != nil {
		todo.Description = *params.Description
	}
	if params.IsFinished != nil {
		todo.IsFinished = *params.IsFinished
	}
	if params.CoverChanged {
		todo.Cover = params.Cover
	}

	if err := s.db.Save(todo).Error; err != nil {
		return nil, err
	}

	return todo, nil
}

// DeleteTodo removes the user's todo
func (s *PostgresStorage) DeleteTodo(userID, todoID uuid.UUID) error {
	if _, err := s.findOwned(userID, todoID); err != nil {
		return err
	}

	return s.db.Delete(&models.Todo{}, "id = ?", todoID).Error
}

// findOwned loads a todo by ID and verifies ownership. The lookup is not
// scoped to the user so a foreign row can be distinguished from a missing one.
func (s *PostgresStorage) findOwned(userID, todoID uuid.UUID) (*models.Todo, error) {
	var todo models.Todo
	if err := s.db.First(&todo, "id = ?", todoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, err
	}
	if todo.UserID != userID {
		return nil, ErrNotOwner
	}
	return &todo, nil
}

// scopedQuery builds the filtered base query: the user's todos, optionally
// narrowed by a case-insensitive substring search and a status filter
func (s *PostgresStorage) scopedQuery(userID uuid.UUID, search string, status models.StatusFilter) *gorm.DB {
	query := s.db.Model(&models.Todo{}).Where("user_id = ?", userID)

	search = strings.TrimSpace(search)
	if search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		query = query.Where(
			`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`,
			pattern, pattern,
		)
	}

	if status == models.StatusFinished {
		query = query.Where("is_finished = ?", true)
	} else if status == models.StatusUnfinished {
		query = query.Where("is_finished = ?", false)
	}

	return query
}

// escapeLike neutralizes LIKE metacharacters so the search term always
// matches as a literal substring
func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}
