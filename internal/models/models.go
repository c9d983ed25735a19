package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatusFilter selects which completion states a todo listing includes
type StatusFilter string

const (
	StatusAll        StatusFilter = "all"
	StatusFinished   StatusFilter = "finished"
	StatusUnfinished StatusFilter = "unfinished"
)

// IsValid reports whether the filter is one of the known values
func (f StatusFilter) IsValid() bool {
	return f == StatusAll || f == StatusFinished || f == StatusUnfinished
}

// MaxTitleLength is the maximum allowed todo title length
const MaxTitleLength = 255

// DefaultPageSize is the fixed number of todos per page
const DefaultPageSize = 20

// User represents a registered user
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string         `gorm:"uniqueIndex;not null;size:255" json:"email"`
	PasswordHash string         `gorm:"not null;size:255" json:"-"` // Never expose password hash
	Name         string         `gorm:"size:100" json:"name,omitempty"`
	IsActive     bool           `gorm:"default:true;index" json:"isActive"`
	LastLoginAt  *time.Time     `gorm:"type:timestamp" json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Todos        []Todo         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeCreate hook to generate UUID if not set
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// RefreshToken represents a refresh token for JWT authentication
type RefreshToken struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"userId"`
	Token     string         `gorm:"uniqueIndex;not null;size:255" json:"-"` // Hashed token
	ExpiresAt time.Time      `gorm:"not null;index" json:"expiresAt"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	RevokedAt *time.Time     `gorm:"type:timestamp;index" json:"revokedAt,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	User      User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeCreate hook to generate UUID if not set
func (rt *RefreshToken) BeforeCreate(_ *gorm.DB) error {
	if rt.ID == uuid.Nil {
		rt.ID = uuid.New()
	}
	return nil
}

// IsValid checks if the refresh token is still valid
func (rt *RefreshToken) IsValid() bool {
	return rt.RevokedAt == nil && time.Now().Before(rt.ExpiresAt)
}

// Todo represents a single task owned by one user.
// Description holds rich text (HTML) produced by the client editor.
// Cover, when non-nil, is a blob store key for the cover image.
type Todo struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"userId"`
	Title       string         `gorm:"not null;size:255" json:"title"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	IsFinished  bool           `gorm:"default:false;index" json:"isFinished"`
	Cover       *string        `gorm:"size:255" json:"cover,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook to generate UUID if not set
func (t *Todo) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TodoView is a Todo decorated with its resolved cover URL for responses
type TodoView struct {
	Todo
	CoverURL *string `json:"coverUrl"`
}

// TodoQuery describes one page of a user's filtered todo listing
type TodoQuery struct {
	Search string
	Status StatusFilter
	Page   int
	Limit  int
}

// CreateTodoParams carries the validated fields for a new todo
type CreateTodoParams struct {
	Title       string
	Description string
	Cover       *string
}

// UpdateTodoParams carries the validated fields for a todo update.
// Cover is applied only when CoverChanged is set; nil then clears the cover.
type UpdateTodoParams struct {
	Title        string
	Description  *string
	IsFinished   *bool
	Cover        *string
	CoverChanged bool
}

// Stats holds the owner's overall completion counts, independent of any filter
type Stats struct {
	Finished   int64 `json:"finished"`
	Unfinished int64 `json:"unfinished"`
}

// Filters echoes the search/status state the listing was computed under
type Filters struct {
	Search string       `json:"search"`
	Status StatusFilter `json:"status"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
	TotalItems int `json:"totalItems"`
}

// TodoPageResponse is the full dashboard payload for one listing request
type TodoPageResponse struct {
	Data       []TodoView  `json:"data"`
	Pagination *Pagination `json:"pagination"`
	Stats      *Stats      `json:"stats"`
	Filters    *Filters    `json:"filters"`
}

// DeleteTodoResponse returns the reclaimed page so the client can re-render
// the same filtered view without landing past its end
type DeleteTodoResponse struct {
	Page    int          `json:"page"`
	Search  string       `json:"search"`
	Status  StatusFilter `json:"status"`
	Message string       `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Authentication DTOs

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=72"` // bcrypt max is 72 bytes
	Name     string `json:"name,omitempty" binding:"max=100"`
}

// LoginRequest represents a user login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest represents a refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// AuthResponse represents the response after successful authentication
type AuthResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	TokenType    string    `json:"tokenType"` // Always "Bearer"
	ExpiresIn    int       `json:"expiresIn"` // Access token expiry in seconds
	User         *UserInfo `json:"user"`
}

// UserInfo represents public user information (safe to expose)
type UserInfo struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name,omitempty"`
}
