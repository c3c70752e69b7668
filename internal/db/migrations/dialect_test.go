package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallacemaster800-spec/acameria-academy/internal/db/bunx"
)

func TestDialectDetection(t *testing.T) {
	db, err := bunx.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	assert.True(t, IsSQLite(db))
	assert.False(t, IsPostgreSQL(db))
}
