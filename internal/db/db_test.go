package db

import (
	"testing"

	"github.com/senyabanana/proposal-service/internal/router/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnString(t *testing.T) {
	t.Run("explicit connection", func(t *testing.T) {
		got, err := ConnString(config.Config{PostgresConn: "postgres://u:p@db:5432/app"})
		require.NoError(t, err)
		assert.Equal(t, "postgres://u:p@db:5432/app", got)
	})

	t.Run("assembled", func(t *testing.T) {
		got, err := ConnString(config.Config{
			PostgresUser: "u",
			PostgresPass: "p",
			PostgresHost: "db",
			PostgresPort: "5432",
			PostgresDB:   "app",
		})
		require.NoError(t, err)
		assert.Equal(t, "postgres://u:p@db:5432/app?sslmode=disable", got)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := ConnString(config.Config{PostgresUser: "u"})
		assert.Error(t, err)
	})
}
