package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"tododash-api/internal/blob"
	"tododash-api/internal/logging"
	"tododash-api/internal/middleware"
	"tododash-api/internal/models"
	"tododash-api/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MaxCoverSize is the maximum allowed cover image size in bytes (2MB)
const MaxCoverSize = 2 << 20

// TodoHandler handles the todo dashboard operations
type TodoHandler struct {
	storage storage.Store
	blobs   blob.Store
}

// NewTodoHandler creates a new todo handler
func NewTodoHandler(store storage.Store, blobs blob.Store) *TodoHandler {
	return &TodoHandler{storage: store, blobs: blobs}
}

// ListTodos handles GET /
// Returns one page of the caller's todos under the search/status filter,
// overall completion stats and the echoed filters.
func (h *TodoHandler) ListTodos(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthenticated(c)
		return
	}

	status, ok := parseStatusFilter(c, c.DefaultQuery("status", string(models.StatusAll)))
	if !ok {
		return
	}

	page, ok := parsePage(c, c.DefaultQuery("page", "1"))
	if !ok {
		return
	}

	// Trimmed up front so the echoed filter matches the applied predicate
	search := strings.TrimSpace(c.Query("search"))

	todos, pagination, err := h.storage.ListTodos(userID, models.TodoQuery{
		Search: search,
		Status: status,
		Page:   page,
		Limit:  models.DefaultPageSize,
	})
	if err != nil {
		respondInternal(c, "Failed to retrieve todos")
		return
	}

	// Stats always cover the unfiltered set so the chart shows overall progress
	stats, err := h.storage.Stats(userID)
	if err != nil {
		respondInternal(c, "Failed to compute stats")
		return
	}

	c.JSON(http.StatusOK, models.TodoPageResponse{
		Data:       h.decorate(todos),
		Pagination: pagination,
		Stats:      stats,
		Filters:    &models.Filters{Search: search, Status: status},
	})
}

// CreateTodo handles POST /todos
// Accepts a multipart form with title, optional description and optional
// cover image. The cover blob is stored before the row is created.
func (h *TodoHandler) CreateTodo(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthenticated(c)
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	if msg := validateTitle(title); msg != "" {
		respondValidation(c, "title", msg)
		return
	}

	coverFile, err := c.FormFile("cover")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		respondValidation(c, "cover", "Cover upload could not be read")
		return
	}

	var cover *string
	if coverFile != nil {
		key, msg := h.saveCover(coverFile)
		if msg != "" {
			respondValidation(c, "cover", msg)
			return
		}
		cover = &key
	}

	todo, err := h.storage.CreateTodo(userID, models.CreateTodoParams{
		Title:       title,
		Description: c.PostForm("description"),
		Cover:       cover,
	})
	if err != nil {
		respondInternal(c, "Failed to create todo")
		return
	}

	c.JSON(http.StatusCreated, h.view(todo))
}

// UpdateTodo handles PUT /todos/:todoId
// Cover resolution is exclusive and ordered: remove_cover wins over a new
// upload; with neither, the cover stays untouched.
func (h *TodoHandler) UpdateTodo(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthenticated(c)
		return
	}

	todoID, err := uuid.Parse(c.Param("todoId"))
	if err != nil {
		respondInvalidTodoID(c)
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	if msg := validateTitle(title); msg != "" {
		respondValidation(c, "title", msg)
		return
	}

	params := models.UpdateTodoParams{Title: title}

	if description, ok := c.GetPostForm("description"); ok {
		params.Description = &description
	}

	if finishedStr, ok := c.GetPostForm("is_finished"); ok {
		finished, parseErr := strconv.ParseBool(finishedStr)
		if parseErr != nil {
			respondValidation(c, "is_finished", "is_finished must be a boolean")
			return
		}
		params.IsFinished = &finished
	}

	removeCover := false
	if removeStr, ok := c.GetPostForm("remove_cover"); ok {
		removeCover, _ = strconv.ParseBool(removeStr)
	}

	coverFile, err := c.FormFile("cover")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		respondValidation(c, "cover", "Cover upload could not be read")
		return
	}

	todo, err := h.storage.GetTodoByID(userID, todoID)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	switch {
	case removeCover:
		if todo.Cover != nil {
			h.deleteBlob(*todo.Cover)
		}
		params.Cover = nil
		params.CoverChanged = true
	case coverFile != nil:
		key, msg := h.saveCover(coverFile)
		if msg != "" {
			respondValidation(c, "cover", msg)
			return
		}
		if todo.Cover != nil {
			h.deleteBlob(*todo.Cover)
		}
		params.Cover = &key
		params.CoverChanged = true
	}

	updated, err := h.storage.UpdateTodo(userID, todoID, params)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.view(updated))
}

// DeleteTodo handles DELETE /todos/:todoId
// Deletes the cover blob, then the row, and returns the reclaimed page for
// the caller's current filter so the client can re-render a valid view.
func (h *TodoHandler) DeleteTodo(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthenticated(c)
		return
	}

	todoID, err := uuid.Parse(c.Param("todoId"))
	if err != nil {
		respondInvalidTodoID(c)
		return
	}

	status, ok := parseStatusFilter(c, c.DefaultQuery("status", string(models.StatusAll)))
	if !ok {
		return
	}

	page, ok := parsePage(c, c.DefaultQuery("page", "1"))
	if !ok {
		return
	}

	search := strings.TrimSpace(c.Query("search"))

	todo, err := h.storage.GetTodoByID(userID, todoID)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	if todo.Cover != nil {
		h.deleteBlob(*todo.Cover)
	}

	if err := h.storage.DeleteTodo(userID, todoID); err != nil {
		respondStoreError(c, err)
		return
	}

	// Recount under the same filter and clamp the page so the caller never
	// lands past the end of the shrunken listing
	totalItems, err := h.storage.CountTodos(userID, search, status)
	if err != nil {
		respondInternal(c, "Failed to recount todos")
		return
	}

	c.JSON(http.StatusOK, models.DeleteTodoResponse{
		Page:    storage.ReclaimPage(page, totalItems, models.DefaultPageSize),
		Search:  search,
		Status:  status,
		Message: "Todo deleted",
	})
}

// saveCover validates the uploaded file as an image within the size limit
// and stores it. Returns the blob key, or a validation message on failure.
func (h *TodoHandler) saveCover(fileHeader *multipart.FileHeader) (string, string) {
	if fileHeader.Size > MaxCoverSize {
		return "", "Cover image must not exceed 2MB"
	}

	f, err := fileHeader.Open()
	if err != nil {
		return "", "Cover upload could not be read"
	}
	defer f.Close()

	// Sniff the real content type; the client-declared one is not trusted
	mtype, err := mimetype.DetectReader(f)
	if err != nil || !strings.HasPrefix(mtype.String(), "image/") {
		return "", "Cover must be an image"
	}

	// DetectReader consumed the head of the stream; reopen for the full copy
	src, err := fileHeader.Open()
	if err != nil {
		return "", "Cover upload could not be read"
	}
	defer src.Close()

	key, err := h.blobs.Save(src, mtype.Extension())
	if err != nil {
		logging.Logger.WithField("error", err.Error()).Error("Failed to store cover blob")
		return "", "Cover upload failed"
	}

	return key, ""
}

// deleteBlob removes a cover blob best-effort; a failure leaves an orphaned
// blob rather than blocking the row mutation
func (h *TodoHandler) deleteBlob(key string) {
	if err := h.blobs.Delete(key); err != nil && !errors.Is(err, blob.ErrBlobNotFound) {
		logging.Logger.WithFields(map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		}).Warn("Failed to delete cover blob")
	}
}

// view decorates a todo with its resolved cover URL
func (h *TodoHandler) view(todo *models.Todo) models.TodoView {
	view := models.TodoView{Todo: *todo}
	if todo.Cover != nil {
		url := h.blobs.URL(*todo.Cover)
		view.CoverURL = &url
	}
	return view
}

func (h *TodoHandler) decorate(todos []models.Todo) []models.TodoView {
	views := make([]models.TodoView, 0, len(todos))
	for i := range todos {
		views = append(views, h.view(&todos[i]))
	}
	return views
}

// Validation and response helpers

func validateTitle(title string) string {
	if title == "" {
		return "Title is required"
	}
	// The limit counts characters, not bytes
	if utf8.RuneCountInString(title) > models.MaxTitleLength {
		return "Title must not exceed 255 characters"
	}
	return ""
}

func parseStatusFilter(c *gin.Context, value string) (models.StatusFilter, bool) {
	status := models.StatusFilter(value)
	if !status.IsValid() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    "INVALID_STATUS",
			Message: "Status must be one of: all, finished, unfinished",
		})
		return "", false
	}
	return status, true
}

func parsePage(c *gin.Context, value string) (int, bool) {
	page, err := strconv.Atoi(value)
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    "INVALID_PAGE",
			Message: "Page must be a positive integer",
		})
		return 0, false
	}
	return page, true
}

func respondValidation(c *gin.Context, field, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Code:    "VALIDATION_ERROR",
		Message: "Invalid input",
		Details: map[string]interface{}{field: message},
	})
}

func respondStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrTodoNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Code:    "TODO_NOT_FOUND",
			Message: "The requested todo was not found",
		})
	case errors.Is(err, storage.ErrNotOwner):
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Code:    "FORBIDDEN",
			Message: "You do not have access to this todo",
		})
	default:
		respondInternal(c, "Storage operation failed")
	}
}

func respondInvalidTodoID(c *gin.Context) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Code:    "INVALID_TODO_ID",
		Message: "Invalid todo ID format",
	})
}

func respondUnauthenticated(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Code:    "UNAUTHORIZED",
		Message: "User not authenticated",
	})
}

func respondInternal(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Code:    "INTERNAL_ERROR",
		Message: message,
	})
}
