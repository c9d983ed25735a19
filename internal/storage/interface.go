package storage

import (
	"tododash-api/internal/models"

	"github.com/google/uuid"
)

// Store defines the interface for todo storage operations.
// Every method takes the owner's user ID; rows belonging to other users are
// never returned or touched.
type Store interface {
	ListTodos(userID uuid.UUID, query models.TodoQuery) ([]models.Todo, *models.Pagination, error)
	CountTodos(userID uuid.UUID, search string, status models.StatusFilter) (int64, error)
	Stats(userID uuid.UUID) (*models.Stats, error)

	CreateTodo(userID uuid.UUID, params models.CreateTodoParams) (*models.Todo, error)
	GetTodoByID(userID, todoID uuid.UUID) (*models.Todo, error)
	UpdateTodo(userID, todoID uuid.UUID, params models.UpdateTodoParams) (*models.Todo, error)
	DeleteTodo(userID, todoID uuid.UUID) error
}
