package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agenthands/modelhub/internal/config"
	"github.com/agenthands/modelhub/internal/core/model"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Postgres is the pgx backed Store.
type Postgres struct {
	Pool   *pgxpool.Pool
	logger *slog.Logger
}

// OpenPostgres creates a pgx pool for cfg and verifies the connection.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*Postgres, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime.Duration > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime.Duration
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "modelhub"

	dialCtx := ctx
	if cfg.DialTimeout.Duration > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout.Duration)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(dialCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("connected to postgres")
	return &Postgres{Pool: pool, logger: logger}, nil
}

func (p *Postgres) Close() {
	p.Pool.Close()
}

// HealthCheck pings the database within timeout.
func (p *Postgres) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return p.Pool.Ping(ctx)
}

// Migrate creates the tables and indexes when they are missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	for _, q := range schemaQueries {
		if _, err := p.Pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	p.logger.Info("database schema ready", "statements", len(schemaQueries))
	return nil
}

// pgError maps driver errors to the package sentinels.
func pgError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		switch pe.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrConflict, pe.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrNotFound, pe.ConstraintName)
		}
	}
	return err
}

func stamp(id *string, createdAt *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if createdAt.IsZero() {
		*createdAt = time.Now().UTC()
	}
}

func (p *Postgres) CreateUser(ctx context.Context, u *model.User) error {
	stamp(&u.ID, &u.CreatedAt)
	u.UpdatedAt = u.CreatedAt
	if u.Role == "" {
		u.Role = model.RoleAdmin
	}
	_, err := p.Pool.Exec(ctx, InsertUserQuery,
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role), u.IsActive, u.CreatedAt)
	return pgError(err)
}

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u    model.User
		role string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.IsActive,
		&u.RefreshTokenHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, pgError(err)
	}
	u.Role = model.Role(role)
	return &u, nil
}

func (p *Postgres) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(p.Pool.QueryRow(ctx, FindUserByEmailQuery, email))
}

func (p *Postgres) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrNotFound
	}
	return scanUser(p.Pool.QueryRow(ctx, FindUserByIDQuery, id))
}

func (p *Postgres) SetRefreshTokenHash(ctx context.Context, userID, hash string) error {
	tag, err := p.Pool.Exec(ctx, SetRefreshTokenHashQuery, userID, hash)
	if err != nil {
		return pgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) CreateClient(ctx context.Context, c *model.Client) error {
	stamp(&c.ID, &c.CreatedAt)
	c.UpdatedAt = c.CreatedAt
	_, err := p.Pool.Exec(ctx, InsertClientQuery,
		c.ID, c.Name, c.Description, c.ImageURL, c.IsActive, c.BasicUsername, c.BasicPasswordHash, c.CreatedAt)
	return pgError(err)
}

func scanClient(row pgx.Row) (*model.Client, error) {
	var c model.Client
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.ImageURL, &c.IsActive,
		&c.BasicUsername, &c.BasicPasswordHash, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, pgError(err)
	}
	return &c, nil
}

func (p *Postgres) FindClientByID(ctx context.Context, id string) (*model.Client, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrNotFound
	}
	return scanClient(p.Pool.QueryRow(ctx, FindClientByIDQuery, id))
}

func (p *Postgres) FindClientByBasicUsername(ctx context.Context, username string) (*model.Client, error) {
	return scanClient(p.Pool.QueryRow(ctx, FindClientByUsernameQuery, username))
}

func (p *Postgres) ListClients(ctx context.Context, q model.PageQuery) ([]model.Client, int, error) {
	q = q.Normalize()
	var total int
	if err := p.Pool.QueryRow(ctx, CountClientsQuery, q.SearchText).Scan(&total); err != nil {
		return nil, 0, pgError(err)
	}
	rows, err := p.Pool.Query(ctx, ListClientsQuery, q.SearchText, q.Limit, q.Offset())
	if err != nil {
		return nil, 0, pgError(err)
	}
	defer rows.Close()

	clients := []model.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		clients = append(clients, *c)
	}
	return clients, total, rows.Err()
}

func (p *Postgres) UpdateClientPassword(ctx context.Context, id, hash string) error {
	if uuid.Validate(id) != nil {
		return ErrNotFound
	}
	tag, err := p.Pool.Exec(ctx, UpdateClientPasswordQuery, id, hash)
	if err != nil {
		return pgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) CreateModelType(ctx context.Context, mt *model.ModelType) error {
	stamp(&mt.ID, &mt.CreatedAt)
	mt.UpdatedAt = mt.CreatedAt
	_, err := p.Pool.Exec(ctx, InsertModelTypeQuery, mt.ID, mt.Name, mt.Description, mt.ClientID, mt.CreatedAt)
	return pgError(err)
}

func scanModelType(row pgx.Row) (*model.ModelType, error) {
	var mt model.ModelType
	err := row.Scan(&mt.ID, &mt.Name, &mt.Description, &mt.ClientID, &mt.CreatedAt, &mt.UpdatedAt)
	if err != nil {
		return nil, pgError(err)
	}
	return &mt, nil
}

func (p *Postgres) FindModelTypeByID(ctx context.Context, id string) (*model.ModelType, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrNotFound
	}
	return scanModelType(p.Pool.QueryRow(ctx, FindModelTypeByIDQuery, id))
}

func (p *Postgres) FindGlobalModelType(ctx context.Context, name string) (*model.ModelType, error) {
	return scanModelType(p.Pool.QueryRow(ctx, FindGlobalModelTypeQuery, name))
}

func (p *Postgres) ListModelTypes(ctx context.Context, q model.PageQuery) ([]model.ModelType, int, error) {
	q = q.Normalize()

	var (
		total int
		rows  pgx.Rows
		err   error
	)
	if q.ClientID == "" {
		err = p.Pool.QueryRow(ctx, CountGlobalModelTypesQuery).Scan(&total)
		if err == nil {
			rows, err = p.Pool.Query(ctx, ListGlobalModelTypesQuery, q.Limit, q.Offset())
		}
	} else {
		if uuid.Validate(q.ClientID) != nil {
			return []model.ModelType{}, 0, nil
		}
		err = p.Pool.QueryRow(ctx, CountClientModelTypesQuery, q.ClientID).Scan(&total)
		if err == nil {
			rows, err = p.Pool.Query(ctx, ListClientModelTypesQuery, q.ClientID, q.Limit, q.Offset())
		}
	}
	if err != nil {
		return nil, 0, pgError(err)
	}
	defer rows.Close()

	types := []model.ModelType{}
	for rows.Next() {
		mt, err := scanModelType(rows)
		if err != nil {
			return nil, 0, err
		}
		types = append(types, *mt)
	}
	return types, total, rows.Err()
}

func (p *Postgres) CreateModel(ctx context.Context, m *model.Model) error {
	stamp(&m.ID, &m.CreatedAt)
	m.UpdatedAt = m.CreatedAt
	if m.Status == "" {
		m.Status = model.ModelActive
	}
	if m.Data == nil {
		m.Data = map[string]any{}
	}
	_, err := p.Pool.Exec(ctx, InsertModelQuery,
		m.ID, m.Name, m.Description, m.Prompt, string(m.Status), m.Data, m.ClientID, m.ModelTypeID, m.CreatedAt)
	return pgError(err)
}

func scanModel(row pgx.Row) (*model.Model, error) {
	var (
		m      model.Model
		status string
	)
	err := row.Scan(&m.ID, &m.Name, &m.Description, &m.Prompt, &status, &m.Data,
		&m.ClientID, &m.ModelTypeID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, pgError(err)
	}
	m.Status = model.ModelStatus(status)
	return &m, nil
}

func collectModels(rows pgx.Rows) ([]model.Model, error) {
	defer rows.Close()
	models := []model.Model{}
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, err
		}
		models = append(models, *m)
	}
	return models, rows.Err()
}

func (p *Postgres) FindModelByID(ctx context.Context, id string) (*model.Model, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrNotFound
	}
	return scanModel(p.Pool.QueryRow(ctx, FindModelByIDQuery, id))
}

func (p *Postgres) FindClientModel(ctx context.Context, clientID, id string) (*model.Model, error) {
	if uuid.Validate(id) != nil || uuid.Validate(clientID) != nil {
		return nil, ErrNotFound
	}
	return scanModel(p.Pool.QueryRow(ctx, FindClientModelQuery, id, clientID))
}

func (p *Postgres) ListModels(ctx context.Context, q model.PageQuery) ([]model.Model, int, error) {
	q = q.Normalize()
	var total int
	if err := p.Pool.QueryRow(ctx, CountModelsQuery, q.ClientID, q.SearchText).Scan(&total); err != nil {
		return nil, 0, pgError(err)
	}
	rows, err := p.Pool.Query(ctx, ListModelsQuery, q.ClientID, q.SearchText, q.Limit, q.Offset())
	if err != nil {
		return nil, 0, pgError(err)
	}
	models, err := collectModels(rows)
	if err != nil {
		return nil, 0, pgError(err)
	}
	return models, total, nil
}

func (p *Postgres) ListClientModels(ctx context.Context, q model.ClientModelQuery) ([]model.Model, int, error) {
	if uuid.Validate(q.ClientID) != nil {
		return []model.Model{}, 0, nil
	}
	var total int
	err := p.Pool.QueryRow(ctx, CountClientModelsQuery, q.ClientID, q.ModelTypeID, q.Search).Scan(&total)
	if err != nil {
		return nil, 0, pgError(err)
	}

	col, ok := SortColumn(q.SortField)
	if !ok {
		col, q.SortDesc = "created_at", true
	}
	dir := "ASC"
	if q.SortDesc {
		dir = "DESC"
	}
	query := fmt.Sprintf("%s ORDER BY %s %s, id LIMIT $4 OFFSET $5", ListClientModelsQuery, col, dir)

	rows, err := p.Pool.Query(ctx, query, q.ClientID, q.ModelTypeID, q.Search, q.Limit, q.Offset)
	if err != nil {
		return nil, 0, pgError(err)
	}
	models, err := collectModels(rows)
	if err != nil {
		return nil, 0, pgError(err)
	}
	return models, total, nil
}

func (p *Postgres) FindActiveTemplates(ctx context.Context, clientID string) ([]model.Template, error) {
	if uuid.Validate(clientID) != nil {
		return []model.Template{}, nil
	}
	rows, err := p.Pool.Query(ctx, FindActiveTemplatesQuery, clientID)
	if err != nil {
		return nil, pgError(err)
	}
	defer rows.Close()

	templates := []model.Template{}
	for rows.Next() {
		var t model.Template
		if err := rows.Scan(&t.ID, &t.ClientID, &t.Name, &t.Description, &t.Prompt); err != nil {
			return nil, pgError(err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (p *Postgres) AppendLog(ctx context.Context, entry *model.ExtractionLog) error {
	stamp(&entry.ID, &entry.CreatedAt)
	_, err := p.Pool.Exec(ctx, InsertLogQuery,
		entry.ID, entry.ClientID, entry.ModelsUsed, entry.TranscriptionSize, entry.DurationMs,
		entry.AudioSource, string(entry.Status), entry.ErrorMessage, entry.Metadata, entry.Response, entry.CreatedAt)
	return pgError(err)
}

func (p *Postgres) ListLogs(ctx context.Context, clientID string, limit int) ([]model.ExtractionLog, error) {
	if uuid.Validate(clientID) != nil {
		return []model.ExtractionLog{}, nil
	}
	if limit < 1 {
		limit = model.DefaultLogLimit
	}
	rows, err := p.Pool.Query(ctx, ListLogsQuery, clientID, limit)
	if err != nil {
		return nil, pgError(err)
	}
	defer rows.Close()

	logs := []model.ExtractionLog{}
	for rows.Next() {
		var (
			l      model.ExtractionLog
			status string
		)
		err := rows.Scan(&l.ID, &l.ClientID, &l.ModelsUsed, &l.TranscriptionSize, &l.DurationMs,
			&l.AudioSource, &status, &l.ErrorMessage, &l.Metadata, &l.Response, &l.CreatedAt)
		if err != nil {
			return nil, pgError(err)
		}
		l.Status = model.LogStatus(status)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (p *Postgres) LogStats(ctx context.Context, clientID string) (model.LogStats, error) {
	var s model.LogStats
	if uuid.Validate(clientID) != nil {
		return s, nil
	}
	err := p.Pool.QueryRow(ctx, LogStatsQuery, clientID).
		Scan(&s.TotalExtractions, &s.SuccessCount, &s.ErrorCount, &s.AvgDurationMs)
	return s, pgError(err)
}

var _ Store = (*Postgres)(nil)
