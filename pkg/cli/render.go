package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/sqlite-mcp/pkg/models"
	"github.com/ekaya-inc/sqlite-mcp/pkg/services"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

var formats = []string{FormatTable, FormatJSON, FormatYAML}

func validateFormat(format string) error {
	for _, f := range formats {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("unknown format %q (expected one of %v)", format, formats)
}

// renderStructured writes v as indented JSON or YAML.
func renderStructured(w io.Writer, format string, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		// Round-trip through JSON so YAML keys follow the json tags.
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("format %q is not structured", format)
	}
}

func newTableWriter(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func renderQueryResponse(w io.Writer, format string, resp *services.QueryResponse) error {
	if format != FormatTable {
		return renderStructured(w, format, resp)
	}

	_, _ = fmt.Fprintf(w, "-- %s\n", resp.SQL)
	renderResultTable(w, resp.QueryResult)
	return nil
}

func renderResultTable(w io.Writer, result *models.QueryResult) {
	if result.RowCount == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}

	t := newTableWriter(w)
	header := make(table.Row, len(result.Columns))
	for i, col := range result.Columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, r := range result.Rows {
		row := make(table.Row, len(result.Columns))
		for i, col := range result.Columns {
			row[i] = formatValue(r[col])
		}
		t.AppendRow(row)
	}
	t.Render()

	if result.Truncated {
		_, _ = fmt.Fprintf(w, "(%d rows, truncated at limit %d)\n", result.RowCount, result.Limit)
	} else {
		_, _ = fmt.Fprintf(w, "(%d rows)\n", result.RowCount)
	}
}

func renderTables(w io.Writer, format string, tables []string) error {
	if format != FormatTable {
		return renderStructured(w, format, map[string]any{"tables": tables, "count": len(tables)})
	}

	t := newTableWriter(w)
	t.AppendHeader(table.Row{"table"})
	for _, name := range tables {
		t.AppendRow(table.Row{name})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d tables)\n", len(tables))
	return nil
}

func renderOverview(w io.Writer, format string, overview *models.DatabaseOverview) error {
	if format != FormatTable {
		return renderStructured(w, format, overview)
	}

	_, _ = fmt.Fprintf(w, "Database: %s\n", overview.Path)

	names := make([]string, 0, len(overview.Tables))
	for name := range overview.Tables {
		names = append(names, name)
	}
	sort.Strings(names)

	t := newTableWriter(w)
	t.AppendHeader(table.Row{"table", "kind", "rows", "columns"})
	for _, name := range names {
		info := overview.Tables[name]
		if info.Error != "" {
			t.AppendRow(table.Row{name, info.Kind, "error", info.Error})
			continue
		}
		rows := "-"
		if info.RowCount != nil {
			rows = fmt.Sprintf("%d", *info.RowCount)
		}
		t.AppendRow(table.Row{name, info.Kind, rows, len(info.Columns)})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d tables)\n", overview.TableCount)
	return nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
