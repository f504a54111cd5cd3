package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/modelhub/internal/core/model"
)

// newTestMemory returns a store whose clock advances one second per record.
func newTestMemory() *Memory {
	m := NewMemory()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	m.Now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	seq := 0
	m.NewID = func() string {
		seq++
		return fmt.Sprintf("id-%03d", seq)
	}
	return m
}

func seedClient(t *testing.T, m *Memory, name string) *model.Client {
	t.Helper()
	c := &model.Client{Name: name, BasicUsername: name + "-user", BasicPasswordHash: "h", IsActive: true}
	require.NoError(t, m.CreateClient(context.Background(), c))
	return c
}

func seedType(t *testing.T, m *Memory, name string, owner *string) *model.ModelType {
	t.Helper()
	mt := &model.ModelType{Name: name, ClientID: owner}
	require.NoError(t, m.CreateModelType(context.Background(), mt))
	return mt
}

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()

	u := &model.User{Name: "Admin", Email: "admin@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, m.CreateUser(ctx, u))
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, model.RoleAdmin, u.Role)

	assert.ErrorIs(t, m.CreateUser(ctx, &model.User{Email: "ADMIN@example.com"}), ErrConflict)

	got, err := m.FindUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	require.NoError(t, m.SetRefreshTokenHash(ctx, u.ID, "abc"))
	got, err = m.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "abc", got.RefreshTokenHash)

	assert.ErrorIs(t, m.SetRefreshTokenHash(ctx, "missing", "abc"), ErrNotFound)
	_, err = m.FindUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryClients(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()

	acme := seedClient(t, m, "acme")
	seedClient(t, m, "globex")
	seedClient(t, m, "initech")

	err := m.CreateClient(ctx, &model.Client{Name: "acme", BasicUsername: "other"})
	assert.ErrorIs(t, err, ErrConflict)
	err = m.CreateClient(ctx, &model.Client{Name: "other", BasicUsername: "acme-user"})
	assert.ErrorIs(t, err, ErrConflict)

	got, err := m.FindClientByBasicUsername(ctx, "acme-user")
	require.NoError(t, err)
	assert.Equal(t, acme.ID, got.ID)

	list, total, err := m.ListClients(ctx, model.PageQuery{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, list, 2)
	assert.Equal(t, "initech", list[0].Name, "newest first")

	list, total, err = m.ListClients(ctx, model.PageQuery{SearchText: "GLO"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "globex", list[0].Name)

	list, _, err = m.ListClients(ctx, model.PageQuery{Page: 5})
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, m.UpdateClientPassword(ctx, acme.ID, "new-hash"))
	got, err = m.FindClientByID(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.BasicPasswordHash)
}

func TestMemoryModelTypes(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()
	acme := seedClient(t, m, "acme")

	seedType(t, m, "voc_model", nil)
	seedType(t, m, "lang", nil)
	own := seedType(t, m, "voc_model", &acme.ID)

	assert.ErrorIs(t, m.CreateModelType(ctx, &model.ModelType{Name: "lang"}), ErrConflict)
	assert.NoError(t, m.CreateModelType(ctx, &model.ModelType{Name: "lang", ClientID: &acme.ID}))

	missing := "ghost"
	assert.ErrorIs(t, m.CreateModelType(ctx, &model.ModelType{Name: "x", ClientID: &missing}), ErrNotFound)

	global, total, err := m.ListModelTypes(ctx, model.PageQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "lang", global[0].Name)
	for _, mt := range global {
		assert.Nil(t, mt.ClientID)
	}

	scoped, total, err := m.ListModelTypes(ctx, model.PageQuery{ClientID: acme.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, own.ID, scoped[1].ID)

	found, err := m.FindGlobalModelType(ctx, "voc_model")
	require.NoError(t, err)
	assert.Nil(t, found.ClientID)
}

func TestMemoryModelsAndTemplates(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()
	acme := seedClient(t, m, "acme")
	other := seedClient(t, m, "globex")
	voc := seedType(t, m, "voc_model", nil)
	lang := seedType(t, m, "lang", nil)

	create := func(client, typ, name string, status model.ModelStatus) *model.Model {
		md := &model.Model{Name: name, Prompt: "analyze " + name, Status: status, ClientID: client, ModelTypeID: typ}
		require.NoError(t, m.CreateModel(ctx, md))
		return md
	}
	sentiment := create(acme.ID, voc.ID, "sentiment", model.ModelActive)
	create(acme.ID, lang.ID, "archived", model.ModelInactive)
	compliance := create(acme.ID, voc.ID, "compliance", model.ModelActive)
	create(other.ID, voc.ID, "foreign", model.ModelActive)

	assert.ErrorIs(t, m.CreateModel(ctx, &model.Model{Name: "x", ClientID: acme.ID, ModelTypeID: "nope"}), ErrNotFound)

	templates, err := m.FindActiveTemplates(ctx, acme.ID)
	require.NoError(t, err)
	require.Len(t, templates, 2)
	assert.Equal(t, sentiment.ID, templates[0].ID)
	assert.Equal(t, compliance.ID, templates[1].ID)
	assert.Equal(t, "analyze compliance", templates[1].Prompt)

	none, err := m.FindActiveTemplates(ctx, "no-such-client")
	require.NoError(t, err)
	assert.Empty(t, none)

	all, total, err := m.ListModels(ctx, model.PageQuery{})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Equal(t, "foreign", all[0].Name)

	items, total, err := m.ListClientModels(ctx, model.ClientModelQuery{
		ClientID: acme.ID, ModelTypeID: voc.ID, Limit: 10, SortField: "name",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, []string{"compliance", "sentiment"}, []string{items[0].Name, items[1].Name})

	items, total, err = m.ListClientModels(ctx, model.ClientModelQuery{ClientID: acme.ID, Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 1)
	assert.Equal(t, "archived", items[0].Name, "default sort is newest first")

	_, err = m.FindClientModel(ctx, other.ID, sentiment.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := m.FindClientModel(ctx, acme.ID, sentiment.ID)
	require.NoError(t, err)
	assert.Equal(t, "sentiment", got.Name)
}

func TestMemoryLogs(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()
	acme := seedClient(t, m, "acme")
	other := seedClient(t, m, "globex")

	add := func(client string, status model.LogStatus, ms int64) {
		require.NoError(t, m.AppendLog(ctx, &model.ExtractionLog{ClientID: client, Status: status, DurationMs: ms}))
	}
	add(acme.ID, model.StatusSuccess, 100)
	add(acme.ID, model.StatusError, 300)
	add(acme.ID, model.StatusSuccess, 200)
	add(other.ID, model.StatusSuccess, 999)

	assert.ErrorIs(t, m.AppendLog(ctx, &model.ExtractionLog{ClientID: "ghost"}), ErrNotFound)

	logs, err := m.ListLogs(ctx, acme.ID, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.EqualValues(t, 200, logs[0].DurationMs)
	assert.EqualValues(t, 300, logs[1].DurationMs)

	logs, err = m.ListLogs(ctx, acme.ID, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 3)

	stats, err := m.LogStats(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LogStats{TotalExtractions: 3, SuccessCount: 2, ErrorCount: 1, AvgDurationMs: 200}, stats)

	empty, err := m.LogStats(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, empty)
}
