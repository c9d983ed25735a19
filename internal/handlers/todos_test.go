package handlers

import (
	"bytes"
	"fmt"
	"strings"
	"net/http"
	"net/http/httptest"
	"testing"

	"tododash-api/internal/blob"
	"tododash-api/internal/middleware"
	"tododash-api/internal/models"
	"tododash-api/internal/storage"
	"tododash-api/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type todoTestEnv struct {
	router *gin.Engine
	store  *storage.MemoryStorage
	blobs  *blob.LocalStore
	userID uuid.UUID
}

// setupTodoEnv wires the handler against in-memory storage and a temp-dir
// blob store, with a stub auth middleware injecting the owner identity
func setupTodoEnv(t *testing.T) *todoTestEnv {
	gin.SetMode(gin.TestMode)

	store := storage.NewMemoryStorage()
	blobs, err := blob.NewLocalStore(&blob.Config{Dir: t.TempDir(), BaseURL: "/uploads"})
	require.NoError(t, err)

	userID := uuid.New()
	handler := NewTodoHandler(store, blobs)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, userID)
		c.Next()
	})
	router.GET("/", handler.ListTodos)
	router.POST("/todos", handler.CreateTodo)
	router.PUT("/todos/:todoId", handler.UpdateTodo)
	router.DELETE("/todos/:todoId", handler.DeleteTodo)

	return &todoTestEnv{router: router, store: store, blobs: blobs, userID: userID}
}

func (env *todoTestEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestListTodos(t *testing.T) {
	env := setupTodoEnv(t)

	t.Run("empty dashboard", func(t *testing.T) {
		w := env.do(httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.TodoPageResponse
		testutil.ParseJSONResponse(t, w, &resp)
		assert.Empty(t, resp.Data)
		assert.Equal(t, 0, resp.Pagination.TotalItems)
		assert.Equal(t, int64(0), resp.Stats.Finished)
		assert.Equal(t, models.StatusAll, resp.Filters.Status)
	})

	_, err := env.store.CreateTodo(env.userID, models.CreateTodoParams{Title: "Buy groceries"})
	require.NoError(t, err)
	created, err := env.store.CreateTodo(env.userID, models.CreateTodoParams{Title: "Clean house"})
	require.NoError(t, err)
	finished := true
	_, err = env.store.UpdateTodo(env.userID, created.ID, models.UpdateTodoParams{
		Title:      created.Title,
		IsFinished: &finished,
	})
	require.NoError(t, err)

	t.Run("stats stay unfiltered while data is filtered", func(t *testing.T) {
		w := env.do(httptest.NewRequest("GET", "/?status=unfinished&search=groceries", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.TodoPageResponse
		testutil.ParseJSONResponse(t, w, &resp)
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "Buy groceries", resp.Data[0].Title)
		assert.Equal(t, int64(1), resp.Stats.Finished, "Stats ignore the listing filter")
		assert.Equal(t, int64(1), resp.Stats.Unfinished)
		assert.Equal(t, "groceries", resp.Filters.Search)
		assert.Equal(t, models.StatusUnfinished, resp.Filters.Status)
	})

	t.Run("search echo matches the applied trimmed predicate", func(t *testing.T) {
		w := env.do(httptest.NewRequest("GET", "/?search=%20groceries%20", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.TodoPageResponse
		testutil.ParseJSONResponse(t, w, &resp)
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "Buy groceries", resp.Data[0].Title)
		assert.Equal(t, "groceries", resp.Filters.Search)
	})

	t.Run("invalid status", func(t *testing.T) {
		w := env.do(httptest.NewRequest("GET", "/?status=done", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp models.ErrorResponse
		testutil.ParseJSONResponse(t, w, &resp)
		assert.Equal(t, "INVALID_STATUS", resp.Code)
	})

	t.Run("invalid page", func(t *testing.T) {
		w := env.do(httptest.NewRequest("GET", "/?page=0", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp models.ErrorResponse
		testutil.ParseJSONResponse(t, w, &resp)
		assert.Equal(t, "INVALID_PAGE", resp.Code)
	})
}

func TestCreateTodo(t *testing.T) {
	t.Run("without cover", func(t *testing.T) {
		env := setupTodoEnv(t)
		req := testutil.MakeMultipartRequest(t, "POST", "/todos", map[string]string{
			"title":       "  Buy groceries  ",
			"description": "<p>Milk</p>",
		})
		w := env.do(req)
		assert.Equal(t, http.StatusCreated, w.Code)

		var resp models.TodoView
		testutil.ParseJSONResponse(t, w, &resp)
		assert.Equal(t, "Buy groceries", resp.Title, "Title gets trimmed")
		assert.Equal(t, "<p>Milk</p>", resp.Description)
		assert.False(t, resp.IsFinished)
		assert.Nil(t, resp.CoverURL)
	})

	t.Run("with cover image", func(t *testing.T) {
		env := setupTodoEnv(t)
		req := testutil.MakeMultipartRequest(t, "POST", "/todos",
			map[string]string{"title": "With cover"},
			testutil.FormFile{Field: "cover", Filename: "cover.png", Content: testutil.TinyPNG()},
		)
		w := env.do(req)
		assert.Equal(t, http.StatusCreated, w.Code)

		var resp models.TodoView
		testutil.ParseJSONResponse(t, w, &resp)
		require.NotNil(t, resp.Cover)
		require.NotNil(t, resp.CoverURL)
		assert.Equal(t, "/uploads/"+*resp.Cover, *resp.CoverURL)
		assert.True(t, env.blobs.Exists(*resp.Cover), "Blob is stored on disk")
	})

	t.Run("missing title", func(t *testing.T) {
		env := setupTodoEnv(t)
		req := testutil.MakeMultipartRequest(t, "POST", "/todos", map[string]string{"title": "   "})
		w := env.do(req)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp models.ErrorResponse
		testutil.ParseJSONResponse(t, w, &resp)
		assert.Equal(t, "VALIDATION_ERROR", resp.Code)
		assert.Contains(t, resp.Details, "title")
	})

	t.Run("title too long", func(t *testing.T) {
		env := setupTodoEnv(t)
		long := make([]byte, models.MaxTitleLength+1)
		for i := range long {
			long[i] = 'a'
		}
		req := testutil.MakeMultipartRequest(t, "POST", "/todos", map[string]string{"title": string(long)})
		w := env.do(req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("title length counts characters not bytes", func(t *testing.T) {
		env := setupTodoEnv(t)

		// 255 characters but 765 bytes; must pass the limit
		title := strings.Repeat("日", models.MaxTitleLength)
		req := testutil.MakeMultipartRequest(t, "POST", "/todos", map[string]string{"title": title})
		w := env.do(req)
		assert.Equal(t, http.StatusCreated, w.Code)

		var resp models.TodoView
		testutil.ParseJSONResponse(t, w, &resp)
		assert.Equal(t, title, resp.Title)

		// One character over the limit fails regardless of encoding width
		req = testutil.MakeMultipartRequest(t, "POST", "/todos", map[string]string{
			"title": strings.Repeat("日", models.MaxTitleLength+1),
		})
		w = env.do(req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("non-image cover rejected", func(t *testing.T) {
		env := setupTodoEnv(t)
		req := testutil.MakeMultipartRequest(t, "POST", "/todos",
			map[string]string{"title": "Bad cover"},
			testutil.FormFile{Field: "cover", Filename: "cover.png", Content: []byte("just plain text")},
		)
		w := env.do(req)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp models.ErrorResponse
		testutil.ParseJSONResponse(t, w, &resp)
		assert.Contains(t, resp.Details, "cover")

		count, err := env.store.CountTodos(env.userID, "", models.StatusAll)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count, "No row is created for a rejected cover")
	})

	t.Run("oversized cover rejected", func(t *testing.T) {
		env := setupTodoEnv(t)
		big := append(testutil.TinyPNG(), make([]byte, MaxCoverSize)...)
		req := testutil.MakeMultipartRequest(t, "POST", "/todos",
			map[string]string{"title": "Huge cover"},
			testutil.FormFile{Field: "cover", Filename: "cover.png", Content: big},
		)
		w := env.do(req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUpdateTodo(t *testing.T) {
	t.Run("toggle finished", func(t *testing.T) {
		env := setupTodoEnv(t)
		created, err := env.store.CreateTodo(env.userID, models.CreateTodoParams{Title: "Toggle me"})
		require.NoError(t, err)

		req := testutil.MakeMultipartRequest(t, "PUT", "/todos/"+created.ID.String(), map[string]string{
			"title":       "Toggle me",
			"is_finished": "true",
		})
		w := env.do(req)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.TodoView
		testutil.ParseJSONResponse(t, w, &resp)
		assert.True(t, resp.IsFinished)
	})

	t.Run("invalid is_finished", func(t *testing.T) {
		env := setupTodoEnv(t)
		created, err := env.store.CreateTodo(env.userID, models.CreateTodoParams{Title: "Task"})
		require.NoError(t, err)

		req := testutil.MakeMultipartRequest(t, "PUT", "/todos/"+created.ID.String(), map[string]string{
			"title":       "Task",
			"is_finished": "yes please",
		})
		w := env.do(req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid todo id", func(t *testing.T) {
		env := setupTodoEnv(t)
		req := testutil.MakeMultipartRequest(t, "PUT", "/todos/not-a-uuid", map[string]string{"title": "X"})
		w := env.do(req)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp models.ErrorResponse
		testutil.ParseJSONResponse(t, w, &resp)
		assert.Equal(t, "INVALID_TODO_ID", resp.Code)
	})

	t.Run("missing todo", func(t *testing.T) {
		env := setupTodoEnv(t)
		req := testutil.MakeMultipartRequest(t, "PUT", "/todos/"+uuid.NewString(), map[string]string{"title": "X"})
		w := env.do(req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("foreign todo", func(t *testing.T) {
		env := setupTodoEnv(t)
		foreign, err := env.store.CreateTodo(uuid.New(), models.CreateTodoParams{Title: "Not yours"})
		require.NoError(t, err)

		req := testutil.MakeMultipartRequest(t, "PUT", "/todos/"+foreign.ID.String(), map[string]string{"title": "Mine now"})
		w := env.do(req)
		assert.Equal(t, http.StatusForbidden, w.Code)

		var resp models.ErrorResponse
		testutil.ParseJSONResponse(t, w, &resp)
		assert.Equal(t, "FORBIDDEN", resp.Code)
	})

	t.Run("new cover replaces old blob", func(t *testing.T) {
		env := setupTodoEnv(t)
		oldKey, err := env.blobs.Save(bytes.NewReader(testutil.TinyPNG()), ".png")
		require.NoError(t, err)
		created, err := env.store.CreateTodo(env.userID, models.CreateTodoParams{
			Title: "Covered",
			Cover: &oldKey,
		})
		require.NoError(t, err)

		req := testutil.MakeMultipartRequest(t, "PUT", "/todos/"+created.ID.String(),
			map[string]string{"title": "Covered"},
			testutil.FormFile{Field: "cover", Filename: "new.png", Content: testutil.TinyPNG()},
		)
		w := env.do(req)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.TodoView
		testutil.ParseJSONResponse(t, w, &resp)
		require.NotNil(t, resp.Cover)
		assert.NotEqual(t, oldKey, *resp.Cover)
		assert.False(t, env.blobs.Exists(oldKey), "Old blob is deleted")
		assert.True(t, env.blobs.Exists(*resp.Cover))
	})

	t.Run("remove_cover wins over a new upload", func(t *testing.T) {
		env := setupTodoEnv(t)
		oldKey, err := env.blobs.Save(bytes.NewReader(testutil.TinyPNG()), ".png")
		require.NoError(t, err)
		created, err := env.store.CreateTodo(env.userID, models.CreateTodoParams{
			Title: "Covered",
			Cover: &oldKey,
		})
		require.NoError(t, err)

		req := testutil.MakeMultipartRequest(t, "PUT", "/todos/"+created.ID.String(),
			map[string]string{"title": "Covered", "remove_cover": "true"},
			testutil.FormFile{Field: "cover", Filename: "new.png", Content: testutil.TinyPNG()},
		)
		w := env.do(req)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.TodoView
		testutil.ParseJSONResponse(t, w, &resp)
		assert.Nil(t, resp.Cover)
		assert.Nil(t, resp.CoverURL)
		assert.False(t, env.blobs.Exists(oldKey))
	})

	t.Run("cover untouched when neither flag nor file given", func(t *testing.T) {
		env := setupTodoEnv(t)
		key, err := env.blobs.Save(bytes.NewReader(testutil.TinyPNG()), ".png")
		require.NoError(t, err)
		created, err := env.store.CreateTodo(env.userID, models.CreateTodoParams{
			Title: "Covered",
			Cover: &key,
		})
		require.NoError(t, err)

		req := testutil.MakeMultipartRequest(t, "PUT", "/todos/"+created.ID.String(),
			map[string]string{"title": "Renamed"})
		w := env.do(req)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.TodoView
		testutil.ParseJSONResponse(t, w, &resp)
		require.NotNil(t, resp.Cover)
		assert.Equal(t, key, *resp.Cover)
		assert.True(t, env.blobs.Exists(key))
	})
}

func TestDeleteTodo(t *testing.T) {
	t.Run("deletes row and cover blob", func(t *testing.T) {
		env := setupTodoEnv(t)
		key, err := env.blobs.Save(bytes.NewReader(testutil.TinyPNG()), ".png")
		require.NoError(t, err)
		created, err := env.store.CreateTodo(env.userID, models.CreateTodoParams{
			Title: "Doomed",
			Cover: &key,
		})
		require.NoError(t, err)

		w := env.do(httptest.NewRequest("DELETE", "/todos/"+created.ID.String(), nil))
		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.DeleteTodoResponse
		testutil.ParseJSONResponse(t, w, &resp)
		assert.Equal(t, 1, resp.Page)
		assert.Equal(t, models.StatusAll, resp.Status)

		_, err = env.store.GetTodoByID(env.userID, created.ID)
		assert.ErrorIs(t, err, storage.ErrTodoNotFound)
		assert.False(t, env.blobs.Exists(key))
	})

	t.Run("reclaims page after last item on it disappears", func(t *testing.T) {
		env := setupTodoEnv(t)
		var last *models.Todo
		for i := 0; i < models.DefaultPageSize+1; i++ {
			todo, err := env.store.CreateTodo(env.userID, models.CreateTodoParams{
				Title: fmt.Sprintf("Task %02d", i),
			})
			require.NoError(t, err)
			last = todo
		}

		// The caller was viewing page 2; deleting the 21st item leaves 20
		w := env.do(httptest.NewRequest("DELETE", "/todos/"+last.ID.String()+"?page=2", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.DeleteTodoResponse
		testutil.ParseJSONResponse(t, w, &resp)
		assert.Equal(t, 1, resp.Page, "Page clamps to the shrunken listing")
	})

	t.Run("reclaim respects the active filter", func(t *testing.T) {
		env := setupTodoEnv(t)
		match, err := env.store.CreateTodo(env.userID, models.CreateTodoParams{Title: "groceries run"})
		require.NoError(t, err)
		_, err = env.store.CreateTodo(env.userID, models.CreateTodoParams{Title: "unrelated"})
		require.NoError(t, err)

		w := env.do(httptest.NewRequest("DELETE", "/todos/"+match.ID.String()+"?search=%20groceries%20&page=1", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.DeleteTodoResponse
		testutil.ParseJSONResponse(t, w, &resp)
		assert.Equal(t, 1, resp.Page)
		assert.Equal(t, "groceries", resp.Search, "Echoed search is the trimmed value the recount used")
	})

	t.Run("foreign todo", func(t *testing.T) {
		env := setupTodoEnv(t)
		foreign, err := env.store.CreateTodo(uuid.New(), models.CreateTodoParams{Title: "Not yours"})
		require.NoError(t, err)

		w := env.do(httptest.NewRequest("DELETE", "/todos/"+foreign.ID.String(), nil))
		assert.Equal(t, http.StatusForbidden, w.Code)

		_, err = env.store.GetTodoByID(foreign.UserID, foreign.ID)
		assert.NoError(t, err, "Foreign todo survives the attempt")
	})

	t.Run("missing todo", func(t *testing.T) {
		env := setupTodoEnv(t)
		w := env.do(httptest.NewRequest("DELETE", "/todos/"+uuid.NewString(), nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
