package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Run executes the statement exactly as submitted and renders the
// result as a textual table. The statement is not inspected or
// sanitized; any engine rejection comes back as an ExecutionError
// carrying the engine's message.
func (c *Conn) Run(ctx context.Context, sqlText string) (string, error) {
	rows, err := c.db.QueryContext(ctx, sqlText)
	if err != nil {
		return "", &ExecutionError{Err: err}
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return "", &ExecutionError{Err: err}
	}

	maxRows := c.MaxRows
	if maxRows <= 0 {
		maxRows = defaultMaxRows
	}

	var results [][]any
	truncated := false
	for rows.Next() {
		if len(results) >= maxRows {
			truncated = true
			break
		}
		values := make([]any, len(cols))
		scanTargets := make([]any, len(cols))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return "", &ExecutionError{Err: err}
		}
		results = append(results, values)
	}
	if err := rows.Err(); err != nil {
		return "", &ExecutionError{Err: err}
	}

	return renderTable(cols, results, truncated), nil
}

func renderTable(cols []string, results [][]any, truncated bool) string {
	if len(results) == 0 {
		return "(0 rows)"
	}

	var builder strings.Builder
	t := table.NewWriter()
	t.SetOutputMirror(&builder)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(cols))
	for i, col := range cols {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, values := range results {
		row := make(table.Row, len(values))
		for i, value := range values {
			row[i] = formatValue(value)
		}
		t.AppendRow(row)
	}

	t.Render()
	if truncated {
		builder.WriteString(fmt.Sprintf("(first %d rows)", len(results)))
	} else {
		builder.WriteString(fmt.Sprintf("(%d rows)", len(results)))
	}
	return builder.String()
}

func formatValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(typed)
	default:
		return fmt.Sprintf("%v", typed)
	}
}
