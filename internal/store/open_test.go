package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/modelhub/internal/config"
)

func TestOpen(t *testing.T) {
	st, err := Open(context.Background(), config.DatabaseConfig{Driver: "memory"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, st)

	_, err = Open(context.Background(), config.DatabaseConfig{Driver: "mongo"}, nil)
	assert.EqualError(t, err, "unsupported database driver: mongo")

	_, err = Open(context.Background(), config.DatabaseConfig{Driver: "postgres", URL: "://bad"}, nil)
	assert.ErrorContains(t, err, "invalid database url")
}
