package store

import (
	"context"
	"errors"

	"github.com/agenthands/modelhub/internal/core/model"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

type UserRepository interface {
	CreateUser(ctx context.Context, u *model.User) error
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	FindUserByID(ctx context.Context, id string) (*model.User, error)
	SetRefreshTokenHash(ctx context.Context, userID, hash string) error
}

type ClientRepository interface {
	CreateClient(ctx context.Context, c *model.Client) error
	FindClientByID(ctx context.Context, id string) (*model.Client, error)
	FindClientByBasicUsername(ctx context.Context, username string) (*model.Client, error)
	ListClients(ctx context.Context, q model.PageQuery) ([]model.Client, int, error)
	UpdateClientPassword(ctx context.Context, id, hash string) error
}

type ModelTypeRepository interface {
	CreateModelType(ctx context.Context, mt *model.ModelType) error
	FindModelTypeByID(ctx context.Context, id string) (*model.ModelType, error)
	FindGlobalModelType(ctx context.Context, name string) (*model.ModelType, error)
	// ListModelTypes returns global types when q.ClientID is empty and the
	// client's own types otherwise.
	ListModelTypes(ctx context.Context, q model.PageQuery) ([]model.ModelType, int, error)
}

type ModelRepository interface {
	CreateModel(ctx context.Context, m *model.Model) error
	FindModelByID(ctx context.Context, id string) (*model.Model, error)
	FindClientModel(ctx context.Context, clientID, id string) (*model.Model, error)
	ListModels(ctx context.Context, q model.PageQuery) ([]model.Model, int, error)
	ListClientModels(ctx context.Context, q model.ClientModelQuery) ([]model.Model, int, error)
	// FindActiveTemplates returns the client's active models, oldest first.
	FindActiveTemplates(ctx context.Context, clientID string) ([]model.Template, error)
}

// LogRepository is append only.
type LogRepository interface {
	AppendLog(ctx context.Context, entry *model.ExtractionLog) error
	ListLogs(ctx context.Context, clientID string, limit int) ([]model.ExtractionLog, error)
	LogStats(ctx context.Context, clientID string) (model.LogStats, error)
}

type Store interface {
	UserRepository
	ClientRepository
	ModelTypeRepository
	ModelRepository
	LogRepository

	Migrate(ctx context.Context) error
	Close()
}

// sortColumns maps the sort fields accepted from clients to columns.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"name":      "name",
}

// SortColumn reports whether field can be sorted on.
func SortColumn(field string) (string, bool) {
	col, ok := sortColumns[field]
	return col, ok
}
