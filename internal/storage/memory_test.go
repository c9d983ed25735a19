package storage

import (
	"fmt"
	"testing"

	"tododash-api/internal/models"
	"tododash-api/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage_CreateAndGet(t *testing.T) {
	store := NewMemoryStorage()
	userID := uuid.New()

	created, err := store.CreateTodo(userID, models.CreateTodoParams{
		Title:       "Buy groceries",
		Description: "<p>Milk and eggs</p>",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, userID, created.UserID)
	assert.False(t, created.IsFinished, "New todos start unfinished")
	assert.Nil(t, created.Cover)

	got, err := store.GetTodoByID(userID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Buy groceries", got.Title)
}

func TestMemoryStorage_OwnershipIsolation(t *testing.T) {
	store := NewMemoryStorage()
	owner := uuid.New()
	intruder := uuid.New()

	created, err := store.CreateTodo(owner, models.CreateTodoParams{Title: "Private"})
	require.NoError(t, err)

	t.Run("get by non-owner", func(t *testing.T) {
		_, err := store.GetTodoByID(intruder, created.ID)
		assert.ErrorIs(t, err, ErrNotOwner)
	})

	t.Run("update by non-owner", func(t *testing.T) {
		_, err := store.UpdateTodo(intruder, created.ID, models.UpdateTodoParams{Title: "Hijacked"})
		assert.ErrorIs(t, err, ErrNotOwner)
	})

	t.Run("delete by non-owner", func(t *testing.T) {
		err := store.DeleteTodo(intruder, created.ID)
		assert.ErrorIs(t, err, ErrNotOwner)
	})

	t.Run("missing todo", func(t *testing.T) {
		_, err := store.GetTodoByID(owner, uuid.New())
		assert.ErrorIs(t, err, ErrTodoNotFound)
	})

	t.Run("listing excludes foreign todos", func(t *testing.T) {
		todos, pagination, err := store.ListTodos(intruder, models.TodoQuery{Status: models.StatusAll})
		require.NoError(t, err)
		assert.Empty(t, todos)
		assert.Equal(t, 0, pagination.TotalItems)
	})
}

func TestMemoryStorage_SearchAndStatusFilters(t *testing.T) {
	store := NewMemoryStorage()
	userID := uuid.New()

	seed := []struct {
		title       string
		description string
		finished    bool
	}{
		{"Buy groceries", "<p>Milk and eggs</p>", false},
		{"Clean the house", "<p>Vacuum the LIVING room</p>", true},
		{"Write report", "<p>Quarterly numbers</p>", false},
	}
	for _, s := range seed {
		created, err := store.CreateTodo(userID, models.CreateTodoParams{
			Title:       s.title,
			Description: s.description,
		})
		require.NoError(t, err)
		if s.finished {
			finished := true
			_, err = store.UpdateTodo(userID, created.ID, models.UpdateTodoParams{
				Title:      s.title,
				IsFinished: &finished,
			})
			require.NoError(t, err)
		}
	}

	t.Run("search matches title case-insensitively", func(t *testing.T) {
		todos, _, err := store.ListTodos(userID, models.TodoQuery{Search: "GROCERIES", Status: models.StatusAll})
		require.NoError(t, err)
		require.Len(t, todos, 1)
		assert.Equal(t, "Buy groceries", todos[0].Title)
	})

	t.Run("search matches description case-insensitively", func(t *testing.T) {
		todos, _, err := store.ListTodos(userID, models.TodoQuery{Search: "living", Status: models.StatusAll})
		require.NoError(t, err)
		require.Len(t, todos, 1)
		assert.Equal(t, "Clean the house", todos[0].Title)
	})

	t.Run("status finished", func(t *testing.T) {
		todos, _, err := store.ListTodos(userID, models.TodoQuery{Status: models.StatusFinished})
		require.NoError(t, err)
		require.Len(t, todos, 1)
		assert.True(t, todos[0].IsFinished)
	})

	t.Run("status unfinished", func(t *testing.T) {
		todos, _, err := store.ListTodos(userID, models.TodoQuery{Status: models.StatusUnfinished})
		require.NoError(t, err)
		assert.Len(t, todos, 2)
	})

	t.Run("search and status combine", func(t *testing.T) {
		count, err := store.CountTodos(userID, "clean", models.StatusUnfinished)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})

	t.Run("no match", func(t *testing.T) {
		todos, pagination, err := store.ListTodos(userID, models.TodoQuery{Search: "nonexistent", Status: models.StatusAll})
		require.NoError(t, err)
		assert.Empty(t, todos)
		assert.Equal(t, 0, pagination.TotalPages)
	})
}

func TestMemoryStorage_StatsIgnoreFilters(t *testing.T) {
	store := NewMemoryStorage()
	userID := uuid.New()
	other := uuid.New()

	for i := 0; i < 3; i++ {
		created, err := store.CreateTodo(userID, models.CreateTodoParams{Title: fmt.Sprintf("Task %d", i)})
		require.NoError(t, err)
		if i == 0 {
			finished := true
			_, err = store.UpdateTodo(userID, created.ID, models.UpdateTodoParams{
				Title:      created.Title,
				IsFinished: &finished,
			})
			require.NoError(t, err)
		}
	}
	_, err := store.CreateTodo(other, models.CreateTodoParams{Title: "Foreign"})
	require.NoError(t, err)

	stats, err := store.Stats(userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Finished)
	assert.Equal(t, int64(2), stats.Unfinished)
}

func TestMemoryStorage_Pagination(t *testing.T) {
	store := NewMemoryStorage()
	userID := uuid.New()

	// One item over a page boundary
	for i := 0; i < models.DefaultPageSize+1; i++ {
		_, err := store.CreateTodo(userID, models.CreateTodoParams{Title: fmt.Sprintf("Task %02d", i)})
		require.NoError(t, err)
	}

	t.Run("first page is full and newest first", func(t *testing.T) {
		todos, pagination, err := store.ListTodos(userID, models.TodoQuery{Status: models.StatusAll, Page: 1})
		require.NoError(t, err)
		assert.Len(t, todos, models.DefaultPageSize)
		assert.Equal(t, 2, pagination.TotalPages)
		assert.Equal(t, models.DefaultPageSize+1, pagination.TotalItems)
		assert.Equal(t, "Task 20", todos[0].Title, "Latest insert comes first")
	})

	t.Run("second page holds the remainder", func(t *testing.T) {
		todos, pagination, err := store.ListTodos(userID, models.TodoQuery{Status: models.StatusAll, Page: 2})
		require.NoError(t, err)
		require.Len(t, todos, 1)
		assert.Equal(t, "Task 00", todos[0].Title, "Oldest insert lands on the last page")
		assert.Equal(t, 2, pagination.Page)
	})

	t.Run("page past the end is empty", func(t *testing.T) {
		todos, _, err := store.ListTodos(userID, models.TodoQuery{Status: models.StatusAll, Page: 9})
		require.NoError(t, err)
		assert.Empty(t, todos)
	})
}

func TestMemoryStorage_Update(t *testing.T) {
	store := NewMemoryStorage()
	userID := uuid.New()

	created, err := store.CreateTodo(userID, models.CreateTodoParams{
		Title:       "Original",
		Description: "old text",
	})
	require.NoError(t, err)

	t.Run("omitted fields stay untouched", func(t *testing.T) {
		updated, err := store.UpdateTodo(userID, created.ID, models.UpdateTodoParams{Title: "Renamed"})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Title)
		assert.Equal(t, "old text", updated.Description)
		assert.False(t, updated.IsFinished)
	})

	t.Run("toggle finished", func(t *testing.T) {
		updated, err := store.UpdateTodo(userID, created.ID, models.UpdateTodoParams{
			Title:      "Renamed",
			IsFinished: testutil.BoolPtr(true),
		})
		require.NoError(t, err)
		assert.True(t, updated.IsFinished)
	})

	t.Run("cover only changes when flagged", func(t *testing.T) {
		updated, err := store.UpdateTodo(userID, created.ID, models.UpdateTodoParams{
			Title:        "Renamed",
			Cover:        testutil.StringPtr("todos/abc.png"),
			CoverChanged: true,
		})
		require.NoError(t, err)
		require.NotNil(t, updated.Cover)
		assert.Equal(t, "todos/abc.png", *updated.Cover)

		// Without the flag a nil cover means "leave alone", not "clear"
		updated, err = store.UpdateTodo(userID, created.ID, models.UpdateTodoParams{Title: "Renamed"})
		require.NoError(t, err)
		require.NotNil(t, updated.Cover)

		updated, err = store.UpdateTodo(userID, created.ID, models.UpdateTodoParams{
			Title:        "Renamed",
			CoverChanged: true,
		})
		require.NoError(t, err)
		assert.Nil(t, updated.Cover)
	})
}

func TestMemoryStorage_Delete(t *testing.T) {
	store := NewMemoryStorage()
	userID := uuid.New()

	created, err := store.CreateTodo(userID, models.CreateTodoParams{Title: "Ephemeral"})
	require.NoError(t, err)

	require.NoError(t, store.DeleteTodo(userID, created.ID))

	_, err = store.GetTodoByID(userID, created.ID)
	assert.ErrorIs(t, err, ErrTodoNotFound)

	err = store.DeleteTodo(userID, created.ID)
	assert.ErrorIs(t, err, ErrTodoNotFound)
}
