package database

import (
	"context"
	"fmt"
	"strings"
)

const schemaQuery = `
SELECT table_schema, table_name, column_name, data_type, is_nullable
FROM information_schema.columns
WHERE table_schema NOT IN ('information_schema', 'pg_catalog')
ORDER BY table_schema, table_name, ordinal_position`

// SchemaText introspects the live database and renders tables and
// columns as text. The result is never cached: every call reflects the
// database state at call time.
func (c *Conn) SchemaText(ctx context.Context) (string, error) {
	rows, err := c.db.QueryContext(ctx, schemaQuery)
	if err != nil {
		return "", &ConnectionError{Err: fmt.Errorf("introspect schema: %w", err)}
	}
	defer func() { _ = rows.Close() }()

	var builder strings.Builder
	currentTable := ""
	columnsWritten := 0
	for rows.Next() {
		var tableSchema, tableName, columnName, dataType, isNullable string
		if err := rows.Scan(&tableSchema, &tableName, &columnName, &dataType, &isNullable); err != nil {
			return "", &ConnectionError{Err: fmt.Errorf("scan schema row: %w", err)}
		}

		qualified := tableName
		if tableSchema != "public" && tableSchema != "main" {
			qualified = tableSchema + "." + tableName
		}
		if qualified != currentTable {
			if currentTable != "" {
				builder.WriteString("\n)\n\n")
			}
			builder.WriteString("Table ")
			builder.WriteString(qualified)
			builder.WriteString(" (")
			currentTable = qualified
			columnsWritten = 0
		}

		if columnsWritten > 0 {
			builder.WriteString(",")
		}
		builder.WriteString("\n\t")
		builder.WriteString(columnName)
		builder.WriteString(" ")
		builder.WriteString(dataType)
		if strings.EqualFold(isNullable, "NO") {
			builder.WriteString(" NOT NULL")
		}
		columnsWritten++
	}
	if err := rows.Err(); err != nil {
		return "", &ConnectionError{Err: fmt.Errorf("iterate schema rows: %w", err)}
	}
	if currentTable == "" {
		return "(no tables)", nil
	}
	builder.WriteString("\n)")
	return builder.String(), nil
}
