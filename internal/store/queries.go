package store

var schemaQueries = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                 uuid PRIMARY KEY,
		name               varchar(100) NOT NULL,
		email              varchar(255) NOT NULL UNIQUE,
		password           varchar(255) NOT NULL,
		role               varchar(20)  NOT NULL DEFAULT 'admin',
		is_active          boolean      NOT NULL DEFAULT true,
		refresh_token_hash varchar(128),
		created_at         timestamptz  NOT NULL DEFAULT now(),
		updated_at         timestamptz  NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS clients (
		id                  uuid PRIMARY KEY,
		name                varchar(255) NOT NULL UNIQUE,
		description         varchar(500),
		image_url           varchar(1024),
		is_active           boolean      NOT NULL DEFAULT true,
		basic_username      varchar(255) NOT NULL UNIQUE,
		basic_password_hash varchar(255) NOT NULL,
		created_at          timestamptz  NOT NULL DEFAULT now(),
		updated_at          timestamptz  NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS model_types (
		id          uuid PRIMARY KEY,
		name        varchar(255) NOT NULL,
		description varchar(500),
		client_id   uuid REFERENCES clients(id) ON DELETE CASCADE,
		created_at  timestamptz NOT NULL DEFAULT now(),
		updated_at  timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS model_types_name_client_key
		ON model_types (name, COALESCE(client_id, '00000000-0000-0000-0000-000000000000'::uuid))`,
	`CREATE TABLE IF NOT EXISTS models (
		id            uuid PRIMARY KEY,
		name          varchar(255) NOT NULL,
		description   text,
		prompt        text        NOT NULL DEFAULT '',
		status        varchar(20) NOT NULL DEFAULT 'active',
		data          jsonb       NOT NULL DEFAULT '{}',
		client_id     uuid        NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		model_type_id uuid        NOT NULL REFERENCES model_types(id) ON DELETE RESTRICT,
		created_at    timestamptz NOT NULL DEFAULT now(),
		updated_at    timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS models_client_id_idx ON models (client_id)`,
	`CREATE INDEX IF NOT EXISTS models_model_type_id_idx ON models (model_type_id)`,
	`CREATE TABLE IF NOT EXISTS extraction_logs (
		id                 uuid PRIMARY KEY,
		client_id          uuid        NOT NULL REFERENCES clients(id),
		models_used        jsonb,
		transcription_size integer,
		duration_ms        integer,
		audio_source       varchar(255),
		status             varchar(50) NOT NULL DEFAULT 'success',
		error_message      text,
		metadata           jsonb,
		response           jsonb,
		created_at         timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS extraction_logs_client_created_idx ON extraction_logs (client_id, created_at DESC)`,
}

const (
	userColumns = `id::text, name, email, password, role, is_active, COALESCE(refresh_token_hash, ''), created_at, updated_at`

	InsertUserQuery = `
		INSERT INTO users (id, name, email, password, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`

	FindUserByEmailQuery = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	FindUserByIDQuery    = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	SetRefreshTokenHashQuery = `
		UPDATE users SET refresh_token_hash = NULLIF($2, ''), updated_at = now() WHERE id = $1`

	clientColumns = `id::text, name, COALESCE(description, ''), COALESCE(image_url, ''), is_active,
		basic_username, basic_password_hash, created_at, updated_at`

	InsertClientQuery = `
		INSERT INTO clients (id, name, description, image_url, is_active, basic_username, basic_password_hash, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8, $8)`

	FindClientByIDQuery       = `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	FindClientByUsernameQuery = `SELECT ` + clientColumns + ` FROM clients WHERE basic_username = $1`

	ListClientsQuery = `
		SELECT ` + clientColumns + ` FROM clients
		WHERE ($1::text = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	CountClientsQuery = `
		SELECT count(*) FROM clients WHERE ($1::text = '' OR name ILIKE '%' || $1 || '%')`

	UpdateClientPasswordQuery = `
		UPDATE clients SET basic_password_hash = $2, updated_at = now() WHERE id = $1`

	modelTypeColumns = `id::text, name, COALESCE(description, ''), client_id::text, created_at, updated_at`

	InsertModelTypeQuery = `
		INSERT INTO model_types (id, name, description, client_id, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $5)`

	FindModelTypeByIDQuery   = `SELECT ` + modelTypeColumns + ` FROM model_types WHERE id = $1`
	FindGlobalModelTypeQuery = `SELECT ` + modelTypeColumns + ` FROM model_types WHERE name = $1 AND client_id IS NULL`

	ListGlobalModelTypesQuery = `
		SELECT ` + modelTypeColumns + ` FROM model_types WHERE client_id IS NULL
		ORDER BY name LIMIT $1 OFFSET $2`
	CountGlobalModelTypesQuery = `SELECT count(*) FROM model_types WHERE client_id IS NULL`

	ListClientModelTypesQuery = `
		SELECT ` + modelTypeColumns + ` FROM model_types WHERE client_id = $1
		ORDER BY name LIMIT $2 OFFSET $3`
	CountClientModelTypesQuery = `SELECT count(*) FROM model_types WHERE client_id = $1`

	modelColumns = `id::text, name, COALESCE(description, ''), prompt, status, data, client_id::text, model_type_id::text, created_at, updated_at`

	InsertModelQuery = `
		INSERT INTO models (id, name, description, prompt, status, data, client_id, model_type_id, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $9)`

	FindModelByIDQuery   = `SELECT ` + modelColumns + ` FROM models WHERE id = $1`
	FindClientModelQuery = `SELECT ` + modelColumns + ` FROM models WHERE id = $1 AND client_id = $2`

	ListModelsQuery = `
		SELECT ` + modelColumns + ` FROM models
		WHERE ($1::text = '' OR client_id::text = $1)
		  AND ($2::text = '' OR name ILIKE '%' || $2 || '%')
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	CountModelsQuery = `
		SELECT count(*) FROM models
		WHERE ($1::text = '' OR client_id::text = $1)
		  AND ($2::text = '' OR name ILIKE '%' || $2 || '%')`

	// ORDER BY is appended after the column is checked with SortColumn.
	ListClientModelsQuery = `
		SELECT ` + modelColumns + ` FROM models
		WHERE client_id = $1
		  AND ($2::text = '' OR model_type_id::text = $2)
		  AND ($3::text = '' OR name ILIKE '%' || $3 || '%')`

	CountClientModelsQuery = `
		SELECT count(*) FROM models
		WHERE client_id = $1
		  AND ($2::text = '' OR model_type_id::text = $2)
		  AND ($3::text = '' OR name ILIKE '%' || $3 || '%')`

	FindActiveTemplatesQuery = `
		SELECT id::text, client_id::text, name, COALESCE(description, ''), prompt
		FROM models
		WHERE client_id = $1 AND status = 'active'
		ORDER BY created_at, id`

	InsertLogQuery = `
		INSERT INTO extraction_logs (id, client_id, models_used, transcription_size, duration_ms,
			audio_source, status, error_message, metadata, response, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, NULLIF($8, ''), $9, $10, $11)`

	ListLogsQuery = `
		SELECT id::text, client_id::text, models_used, COALESCE(transcription_size, 0), COALESCE(duration_ms, 0),
			COALESCE(audio_source, ''), status, COALESCE(error_message, ''), metadata, response, created_at
		FROM extraction_logs
		WHERE client_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	LogStatsQuery = `
		SELECT count(*),
			count(*) FILTER (WHERE status = 'success'),
			count(*) FILTER (WHERE status = 'error'),
			COALESCE(avg(COALESCE(duration_ms, 0)), 0)::float8
		FROM extraction_logs
		WHERE client_id = $1`
)
