package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPgxURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/catalog", pgxURL("postgres://u:p@db:5432/catalog"))
	assert.Equal(t, "pgx5://db/catalog", pgxURL("postgresql://db/catalog"))
	assert.Equal(t, "pgx5://db/catalog", pgxURL("pgx5://db/catalog"))
}
