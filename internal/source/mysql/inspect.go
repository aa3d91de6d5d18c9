package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/alexanderjulianmartinez/schemawalk/internal/source"
)

var _ source.Source = (*Inspector)(nil)

func (i *Inspector) ListDatabases(ctx context.Context) ([]string, error) {
	return i.queryNames(ctx, "SHOW DATABASES")
}

func (i *Inspector) ListTables(ctx context.Context, database string) ([]string, error) {
	return i.queryNames(ctx, "SHOW TABLES IN "+quoteIdentifier(database))
}

func (i *Inspector) DescribeTable(ctx context.Context, database, table string) ([]source.Column, error) {
	ctx, cancel := i.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf("SHOW COLUMNS FROM %s.%s", quoteIdentifier(database), quoteIdentifier(table))
	rows, err := i.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []source.Column
	for rows.Next() {
		var (
			col  source.Column
			def  sql.NullString
			null sql.NullString
			key  sql.NullString
			extr sql.NullString
		)
		if err := rows.Scan(&col.Name, &col.Type, &null, &key, &def, &extr); err != nil {
			return nil, err
		}
		col.Null = null.String
		col.Key = key.String
		col.Extra = extr.String
		if def.Valid {
			d := def.String
			col.Default = &d
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

// queryNames runs a statement returning a single string column.
func (i *Inspector) queryNames(ctx context.Context, query string) ([]string, error) {
	ctx, cancel := i.withTimeout(ctx)
	defer cancel()

	rows, err := i.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func quoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
