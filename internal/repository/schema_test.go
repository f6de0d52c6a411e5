package repository

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var historyTable = regexp.MustCompile(`(?s)CREATE TABLE IF NOT EXISTS approval_history \((.*?)\n\);`)

func TestSchema_HistoryIsNeverCascadeDeleted(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "..", "migrations", "*.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		b, err := os.ReadFile(f)
		require.NoError(t, err)
		assert.NotRegexp(t, `(?i)approval_history[^;]*ON DELETE CASCADE`, string(b), f)
	}

	b, err := os.ReadFile(filepath.Join("..", "..", "migrations", "001_init.sql"))
	require.NoError(t, err)
	m := historyTable.FindStringSubmatch(string(b))
	require.Len(t, m, 2)
	assert.Contains(t, m[1], "REFERENCES assessments(id) ON DELETE RESTRICT")
	assert.Contains(t, m[1], "seq           bigserial")
}
