package store

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agenthands/modelhub/internal/core/model"
)

// Memory is a Store held in process memory. Records are copied on the way
// in and out so callers never share state with the store.
type Memory struct {
	mu         sync.RWMutex
	users      map[string]model.User
	clients    map[string]model.Client
	modelTypes map[string]model.ModelType
	models     map[string]model.Model
	logs       []model.ExtractionLog

	// Now and NewID are overridable for deterministic tests.
	Now   func() time.Time
	NewID func() string
}

func NewMemory() *Memory {
	return &Memory{
		users:      make(map[string]model.User),
		clients:    make(map[string]model.Client),
		modelTypes: make(map[string]model.ModelType),
		models:     make(map[string]model.Model),
		Now:        func() time.Time { return time.Now().UTC() },
		NewID:      uuid.NewString,
	}
}

func (m *Memory) Migrate(context.Context) error { return nil }
func (m *Memory) Close()                        {}

func (m *Memory) stamp(id *string, createdAt *time.Time) {
	if *id == "" {
		*id = m.NewID()
	}
	if createdAt.IsZero() {
		*createdAt = m.Now()
	}
}

func containsFold(s, sub string) bool {
	return sub == "" || strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}

func newestFirst(a, b time.Time) int { return b.Compare(a) }

func (m *Memory) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrConflict
		}
	}
	m.stamp(&u.ID, &u.CreatedAt)
	u.UpdatedAt = u.CreatedAt
	if u.Role == "" {
		u.Role = model.RoleAdmin
	}
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) FindUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindUserByID(_ context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) SetRefreshTokenHash(_ context.Context, userID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.RefreshTokenHash = hash
	u.UpdatedAt = m.Now()
	m.users[userID] = u
	return nil
}

func (m *Memory) CreateClient(_ context.Context, c *model.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.clients {
		if existing.Name == c.Name || existing.BasicUsername == c.BasicUsername {
			return ErrConflict
		}
	}
	m.stamp(&c.ID, &c.CreatedAt)
	c.UpdatedAt = c.CreatedAt
	m.clients[c.ID] = *c
	return nil
}

func (m *Memory) FindClientByID(_ context.Context, id string) (*model.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *Memory) FindClientByBasicUsername(_ context.Context, username string) (*model.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.clients {
		if c.BasicUsername == username {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListClients(_ context.Context, q model.PageQuery) ([]model.Client, int, error) {
	q = q.Normalize()
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []model.Client
	for _, c := range m.clients {
		if containsFold(c.Name, q.SearchText) {
			matched = append(matched, c)
		}
	}
	slices.SortFunc(matched, func(a, b model.Client) int {
		return cmp.Or(newestFirst(a.CreatedAt, b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return page(matched, q.Limit, q.Offset()), len(matched), nil
}

func (m *Memory) UpdateClientPassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[id]
	if !ok {
		return ErrNotFound
	}
	c.BasicPasswordHash = hash
	c.UpdatedAt = m.Now()
	m.clients[id] = c
	return nil
}

func sameOwner(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (m *Memory) CreateModelType(_ context.Context, mt *model.ModelType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mt.ClientID != nil {
		if _, ok := m.clients[*mt.ClientID]; !ok {
			return ErrNotFound
		}
	}
	for _, existing := range m.modelTypes {
		if existing.Name == mt.Name && sameOwner(existing.ClientID, mt.ClientID) {
			return ErrConflict
		}
	}
	m.stamp(&mt.ID, &mt.CreatedAt)
	mt.UpdatedAt = mt.CreatedAt
	stored := *mt
	if mt.ClientID != nil {
		owner := *mt.ClientID
		stored.ClientID = &owner
	}
	m.modelTypes[mt.ID] = stored
	return nil
}

func (m *Memory) FindModelTypeByID(_ context.Context, id string) (*model.ModelType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mt, ok := m.modelTypes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &mt, nil
}

func (m *Memory) FindGlobalModelType(_ context.Context, name string) (*model.ModelType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, mt := range m.modelTypes {
		if mt.ClientID == nil && mt.Name == name {
			return &mt, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListModelTypes(_ context.Context, q model.PageQuery) ([]model.ModelType, int, error) {
	q = q.Normalize()
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []model.ModelType
	for _, mt := range m.modelTypes {
		global := mt.ClientID == nil
		switch {
		case q.ClientID == "" && global:
		case q.ClientID != "" && !global && *mt.ClientID == q.ClientID:
		default:
			continue
		}
		matched = append(matched, mt)
	}
	slices.SortFunc(matched, func(a, b model.ModelType) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return page(matched, q.Limit, q.Offset()), len(matched), nil
}

func (m *Memory) CreateModel(_ context.Context, md *model.Model) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[md.ClientID]; !ok {
		return ErrNotFound
	}
	if _, ok := m.modelTypes[md.ModelTypeID]; !ok {
		return ErrNotFound
	}
	m.stamp(&md.ID, &md.CreatedAt)
	md.UpdatedAt = md.CreatedAt
	if md.Status == "" {
		md.Status = model.ModelActive
	}
	if md.Data == nil {
		md.Data = map[string]any{}
	}
	m.models[md.ID] = *md
	return nil
}

func (m *Memory) FindModelByID(_ context.Context, id string) (*model.Model, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	md, ok := m.models[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &md, nil
}

func (m *Memory) FindClientModel(_ context.Context, clientID, id string) (*model.Model, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	md, ok := m.models[id]
	if !ok || md.ClientID != clientID {
		return nil, ErrNotFound
	}
	return &md, nil
}

func (m *Memory) ListModels(_ context.Context, q model.PageQuery) ([]model.Model, int, error) {
	q = q.Normalize()
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []model.Model
	for _, md := range m.models {
		if q.ClientID != "" && md.ClientID != q.ClientID {
			continue
		}
		if containsFold(md.Name, q.SearchText) {
			matched = append(matched, md)
		}
	}
	slices.SortFunc(matched, func(a, b model.Model) int {
		return cmp.Or(newestFirst(a.CreatedAt, b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return page(matched, q.Limit, q.Offset()), len(matched), nil
}

func (m *Memory) ListClientModels(_ context.Context, q model.ClientModelQuery) ([]model.Model, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []model.Model
	for _, md := range m.models {
		if md.ClientID != q.ClientID {
			continue
		}
		if q.ModelTypeID != "" && md.ModelTypeID != q.ModelTypeID {
			continue
		}
		if containsFold(md.Name, q.Search) {
			matched = append(matched, md)
		}
	}

	field, desc := q.SortField, q.SortDesc
	if _, ok := SortColumn(field); !ok {
		field, desc = "createdAt", true
	}
	slices.SortFunc(matched, func(a, b model.Model) int {
		var c int
		switch field {
		case "name":
			c = cmp.Compare(a.Name, b.Name)
		case "updatedAt":
			c = a.UpdatedAt.Compare(b.UpdatedAt)
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if desc {
			c = -c
		}
		return cmp.Or(c, cmp.Compare(a.ID, b.ID))
	})

	limit := q.Limit
	if limit < 1 {
		limit = len(matched)
	}
	return page(matched, limit, max(q.Offset, 0)), len(matched), nil
}

func (m *Memory) FindActiveTemplates(_ context.Context, clientID string) ([]model.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var active []model.Model
	for _, md := range m.models {
		if md.ClientID == clientID && md.Status == model.ModelActive {
			active = append(active, md)
		}
	}
	slices.SortFunc(active, func(a, b model.Model) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})

	templates := make([]model.Template, 0, len(active))
	for i := range active {
		templates = append(templates, active[i].Template())
	}
	return templates, nil
}

func (m *Memory) AppendLog(_ context.Context, entry *model.ExtractionLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[entry.ClientID]; !ok {
		return ErrNotFound
	}
	m.stamp(&entry.ID, &entry.CreatedAt)
	stored := *entry
	stored.ModelsUsed = slices.Clone(entry.ModelsUsed)
	m.logs = append(m.logs, stored)
	return nil
}

func (m *Memory) ListLogs(_ context.Context, clientID string, limit int) ([]model.ExtractionLog, error) {
	if limit < 1 {
		limit = model.DefaultLogLimit
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []model.ExtractionLog
	for _, l := range m.logs {
		if l.ClientID == clientID {
			matched = append(matched, l)
		}
	}
	slices.SortStableFunc(matched, func(a, b model.ExtractionLog) int {
		return newestFirst(a.CreatedAt, b.CreatedAt)
	})
	return page(matched, limit, 0), nil
}

func (m *Memory) LogStats(_ context.Context, clientID string) (model.LogStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var (
		s     model.LogStats
		total int64
	)
	for _, l := range m.logs {
		if l.ClientID != clientID {
			continue
		}
		s.TotalExtractions++
		total += l.DurationMs
		switch l.Status {
		case model.StatusSuccess:
			s.SuccessCount++
		case model.StatusError:
			s.ErrorCount++
		}
	}
	if s.TotalExtractions > 0 {
		s.AvgDurationMs = float64(total) / float64(s.TotalExtractions)
	}
	return s, nil
}

var _ Store = (*Memory)(nil)
