package mysql

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/alexanderjulianmartinez/schemawalk/internal/config"
)

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, "`shop`", quoteIdentifier("shop"))
	assert.Equal(t, "`we``ird`", quoteIdentifier("we`ird"))
}

func TestFormatDSN(t *testing.T) {
	dsn := FormatDSN(config.SourceConfig{
		Host:     "ids",
		Port:     3306,
		User:     "walker",
		Password: "secret",
		Params:   map[string]string{"charset": "utf8mb4"},
	})
	assert.Contains(t, dsn, "walker:secret@tcp(ids:3306)/")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestWithTimeout_KeepsSoonerParentDeadline(t *testing.T) {
	i := &Inspector{timeout: time.Minute}
	parent, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ctx, done := i.withTimeout(parent)
	defer done()
	pd, _ := parent.Deadline()
	d, ok := ctx.Deadline()
	require.True(t, ok)
	assert.Equal(t, pd, d)
}

// Runs against a real server; set SCHEMAWALK_INTEGRATION=1 with Docker available.
func TestInspector_Integration(t *testing.T) {
	if os.Getenv("SCHEMAWALK_INTEGRATION") == "" {
		t.Skip("SCHEMAWALK_INTEGRATION not set")
	}
	ctx := context.Background()

	ctr, err := tcmysql.Run(ctx, "mysql:8.0.36",
		tcmysql.WithDatabase("a"),
		tcmysql.WithUsername("root"),
		tcmysql.WithPassword("password"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)

	cfg := config.SourceConfig{Host: host, Port: port.Int(), User: "root", Password: "password"}
	insp, err := NewInspector(ctx, cfg, 10*time.Second)
	require.NoError(t, err)
	defer insp.Close()

	for _, stmt := range []string{
		"CREATE TABLE a.t1 (id INT NOT NULL PRIMARY KEY, label VARCHAR(32) NULL DEFAULT 'x')",
		"CREATE DATABASE b",
	} {
		_, err := insp.db.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}

	dbs, err := insp.ListDatabases(ctx)
	require.NoError(t, err)
	assert.Contains(t, dbs, "a")
	assert.Contains(t, dbs, "b")

	tables, err := insp.ListTables(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, tables)

	tables, err = insp.ListTables(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, tables)

	cols, err := insp.DescribeTable(ctx, "a", "t1")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "id", cols[0].Name)
	assert.Equal(t, "int", cols[0].Type)
	assert.Equal(t, "PRI", cols[0].Key)
	assert.Equal(t, "label", cols[1].Name)
	require.NotNil(t, cols[1].Default)
	assert.Equal(t, "x", *cols[1].Default)

	_, err = insp.DescribeTable(ctx, "a", "missing")
	assert.Error(t, err)
}
