package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConnect_Error(t *testing.T) {
	cfg := Config{
		Driver:             "invalid",
		ConnectionString:   "invalid",
		MaxOpenConnections: 10,
		MaxIdleConnections: 5,
		ConnMaxLifetime:    time.Hour,
	}

	db, err := Connect(cfg)
	assert.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "sql: unknown driver")
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "$1", Placeholder(DriverPostgres, 1))
	assert.Equal(t, "$3", Placeholder(DriverPostgres, 3))
	assert.Equal(t, "?", Placeholder(DriverMySQL, 1))
	assert.Equal(t, "?", Placeholder(DriverMySQL, 3))
}
