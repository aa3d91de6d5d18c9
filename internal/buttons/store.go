// Package buttons serves the till button layout to the front-end widget.
package buttons

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Button is one till_buttons row. Layout columns are nullable and encode
// as JSON null when the row leaves them empty.
type Button struct {
	ButtonID int     `json:"buttonID"`
	Left     *int    `json:"left"`
	Top      *int    `json:"top"`
	Width    *int    `json:"width"`
	Label    *string `json:"label"`
	InvID    *int    `json:"invID"`
}

// Load reads every button row from table, which may be database-qualified.
func Load(ctx context.Context, db *sql.DB, table string) ([]Button, error) {
	rows, err := db.QueryContext(ctx, selectQuery(table))
	if err != nil {
		return nil, fmt.Errorf("query buttons: %w", err)
	}
	defer rows.Close()

	buttons := []Button{}
	for rows.Next() {
		var (
			b                       Button
			left, top, width, invID sql.NullInt64
			label                   sql.NullString
		)
		if err := rows.Scan(&b.ButtonID, &left, &top, &width, &label, &invID); err != nil {
			return nil, fmt.Errorf("scan button: %w", err)
		}
		b.Left = intOrNil(left)
		b.Top = intOrNil(top)
		b.Width = intOrNil(width)
		b.InvID = intOrNil(invID)
		if label.Valid {
			b.Label = &label.String
		}
		buttons = append(buttons, b)
	}
	return buttons, rows.Err()
}

func intOrNil(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func selectQuery(table string) string {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = "`" + strings.ReplaceAll(p, "`", "``") + "`"
	}
	return "SELECT `buttonID`, `left`, `top`, `width`, `label`, `invID` FROM " + strings.Join(parts, ".")
}
