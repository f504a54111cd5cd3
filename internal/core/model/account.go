package model

import "time"

// Role of an admin user.
type Role string

const RoleAdmin Role = "admin"

// User is an admin account that authenticates with email and password.
type User struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	Role             Role      `json:"role"`
	IsActive         bool      `json:"isActive"`
	RefreshTokenHash string    `json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Client is a tenant. Its API calls authenticate with Basic credentials.
type Client struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	ImageURL          string    `json:"imageUrl,omitempty"`
	IsActive          bool      `json:"isActive"`
	BasicUsername     string    `json:"basicUsername"`
	BasicPasswordHash string    `json:"-"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// ModelType groups models. A nil ClientID marks a global type.
type ModelType struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ClientID    *string   `json:"clientId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ModelStatus string

const (
	ModelActive   ModelStatus = "active"
	ModelInactive ModelStatus = "inactive"
)

// Model is one prompt owned by a client.
type Model struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Prompt      string         `json:"prompt"`
	Status      ModelStatus    `json:"status"`
	Data        map[string]any `json:"data"`
	ClientID    string         `json:"clientId"`
	ModelTypeID string         `json:"modelTypeId"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Template is the read-only view of an active model used by extraction.
type Template struct {
	ID          string
	ClientID    string
	Name        string
	Description string
	Prompt      string
}

func (m *Model) Template() Template {
	return Template{
		ID:          m.ID,
		ClientID:    m.ClientID,
		Name:        m.Name,
		Description: m.Description,
		Prompt:      m.Prompt,
	}
}
