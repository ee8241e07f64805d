package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUp(t *testing.T) {
	for _, dialect := range []string{DialectPostgres, DialectSQLite} {
		t.Run(dialect, func(t *testing.T) {
			scripts, err := Up(dialect)
			require.NoError(t, err)
			require.NotEmpty(t, scripts)
			assert.Contains(t, scripts[0], "CREATE TABLE IF NOT EXISTS tasks")
			assert.Contains(t, scripts[0], "idempotency_keys")
		})
	}

	_, err := Up("mysql")
	assert.Error(t, err)
}
