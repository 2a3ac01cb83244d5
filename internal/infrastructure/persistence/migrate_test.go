package persistence

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyMigrations_RunsInNameOrder(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/0002_b.sql": {Data: []byte("B")},
		"migrations/0001_a.sql": {Data: []byte("A")},
		"migrations/README.md":  {Data: []byte("skip")},
	}
	var got []string
	err := ApplyMigrations(fsys, "migrations/*.sql", func(content string) error {
		got = append(got, content)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, got)
}

func TestApplyMigrations_WrapsErrorWithFileName(t *testing.T) {
	fsys := fstest.MapFS{"migrations/0001_a.sql": {Data: []byte("A")}}
	boom := errors.New("boom")
	err := ApplyMigrations(fsys, "migrations/*.sql", func(string) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "migrations/0001_a.sql")
}

func TestApplyMigrations_BadPattern(t *testing.T) {
	err := ApplyMigrations(fstest.MapFS{}, "[", func(string) error { return nil })
	assert.Error(t, err)
}

func TestSplitStatements(t *testing.T) {
	stmts := SplitStatements("CREATE TABLE a (x INT);\n\n  ;CREATE INDEX i ON a (x);\n")
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x INT)", stmts[0])
	assert.Equal(t, "CREATE INDEX i ON a (x)", stmts[1])
	assert.Empty(t, SplitStatements("  \n"))
}
