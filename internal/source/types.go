package source

import "context"

// Column is one row of a table description. Name and Type are what the
// report prints; the remaining fields are passed through as the server
// reported them.
type Column struct {
	Name    string
	Type    string
	Null    string
	Key     string
	Default *string
	Extra   string
}

// Source is the connection a walk runs over. Close releases it and is
// called exactly once per walk.
type Source interface {
	ListDatabases(ctx context.Context) ([]string, error)
	ListTables(ctx context.Context, database string) ([]string, error)
	DescribeTable(ctx context.Context, database, table string) ([]Column, error)
	Close() error
}

// QualifiedName joins a database and table name the way the report shows it.
func QualifiedName(database, table string) string {
	return database + "." + table
}
