package sqltoolkit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/futig/vitos-assistant/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	sampleRows = 3
	maxRows    = 200
	maxValue   = 300
)

// Toolkit exposes a relational dataset to the reasoning loop.
// The dataset lives in an in-memory SQLite database loaded once at startup.
type Toolkit struct {
	db     *sql.DB
	logger *zap.Logger
}

// Load reads a SQL script from path and runs it against a fresh in-memory database.
func Load(ctx context.Context, path string, logger *zap.Logger) (*Toolkit, error) {
	script, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read database script %s: %w", path, err)
	}

	tk, err := FromScript(ctx, string(script), logger)
	if err != nil {
		return nil, err
	}

	tables, err := tk.tableNames(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("relational dataset loaded",
		zap.String("path", path),
		zap.Strings("tables", tables),
	)

	return tk, nil
}

// FromScript builds the in-memory database from script statements.
func FromScript(ctx context.Context, script string, logger *zap.Logger) (*Toolkit, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open in-memory database: %w", err)
	}

	// every new connection to :memory: is a separate empty database
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if _, err := db.ExecContext(ctx, script); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load database script: %w", err)
	}

	return &Toolkit{
		db:     db,
		logger: logger,
	}, nil
}

func (t *Toolkit) Close() error {
	return t.db.Close()
}

// Tools returns the four database tools in a stable order.
func (t *Toolkit) Tools() []*Tool {
	return []*Tool{
		{
			name:        ToolQuery,
			description: "Input to this tool is a detailed and correct SQL query, output is a result from the database. If the query is not correct, an error message will be returned. If an error is returned, rewrite the query, check the query, and try again. If you hit an unknown column error, use " + ToolSchema + " to look up the correct table fields.",
			argName:     "query",
			argDesc:     "A detailed and correct SQL query.",
			fn:          t.Query,
		},
		{
			name:        ToolSchema,
			description: "Input to this tool is a comma-separated list of tables, output is the schema and sample rows for those tables. Be sure that the tables actually exist by calling " + ToolListTables + " first! Example Input: table1, table2, table3",
			argName:     "table_names",
			argDesc:     "A comma-separated list of the table names to describe.",
			fn:          t.Schema,
		},
		{
			name:        ToolListTables,
			description: "Input is an empty string, output is a comma-separated list of tables in the database.",
			argName:     "tool_input",
			argDesc:     "An empty string.",
			optional:    true,
			fn: func(ctx context.Context, _ string) (string, error) {
				return t.ListTables(ctx)
			},
		},
		{
			name:        ToolQueryChecker,
			description: "Use this tool to double check if your query is correct before executing it. Always use this tool before executing a query with " + ToolQuery + "!",
			argName:     "query",
			argDesc:     "The SQL query to validate.",
			fn:          t.Check,
		},
	}
}

// ListTables returns user table names joined with ", ".
func (t *Toolkit) ListTables(ctx context.Context) (string, error) {
	names, err := t.tableNames(ctx)
	if err != nil {
		return "", err
	}
	return strings.Join(names, ", "), nil
}

// Schema returns CREATE statements plus sample rows for each requested table.
// Unknown table names are reported back as text so the caller can correct itself.
func (t *Toolkit) Schema(ctx context.Context, tableNames string) (string, error) {
	known, err := t.tableNames(ctx)
	if err != nil {
		return "", err
	}
	knownSet := make(map[string]struct{}, len(known))
	for _, n := range known {
		knownSet[n] = struct{}{}
	}

	var requested, missing []string
	for _, raw := range strings.Split(tableNames, ",") {
		name := strings.Trim(strings.TrimSpace(raw), "`\"'[]")
		if name == "" {
			continue
		}
		if _, ok := knownSet[name]; !ok {
			missing = append(missing, name)
			continue
		}
		requested = append(requested, name)
	}

	if len(missing) > 0 {
		return fmt.Sprintf("Error: %s: %s", entity.ErrTableNotFound, strings.Join(missing, ", ")), nil
	}
	if len(requested) == 0 {
		return "Error: no table names given. Available tables: " + strings.Join(known, ", "), nil
	}

	var parts []string
	for _, name := range requested {
		info, err := t.tableInfo(ctx, name)
		if err != nil {
			return "", err
		}
		parts = append(parts, info)
	}

	return strings.Join(parts, "\n\n"), nil
}

// Query runs a statement. Row-returning statements are rendered as text, others report
// the number of affected rows. SQL errors come back as "Error: ..." text.
func (t *Toolkit) Query(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "Error: empty query", nil
	}

	if !returnsRows(query) {
		res, err := t.db.ExecContext(ctx, query)
		if err != nil {
			return "Error: " + err.Error(), nil
		}
		n, _ := res.RowsAffected()
		return fmt.Sprintf("Rows affected: %d", n), nil
	}

	rows, err := t.db.QueryContext(ctx, query)
	if err != nil {
		return "Error: " + err.Error(), nil
	}
	defer rows.Close()

	out, err := renderRows(rows, maxRows)
	if err != nil {
		return "Error: " + err.Error(), nil
	}
	return out, nil
}

// Check validates a statement with EXPLAIN, which compiles it without running it.
func (t *Toolkit) Check(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "Error: empty query", nil
	}

	rows, err := t.db.QueryContext(ctx, "EXPLAIN "+strings.TrimSuffix(query, ";"))
	if err != nil {
		ctxzap.Debug(ctx, "query check failed", zap.Error(err))
		return "Error: " + err.Error(), nil
	}
	_ = rows.Close()

	return query, nil
}

func (t *Toolkit) tableNames(ctx context.Context) ([]string, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (t *Toolkit) tableInfo(ctx context.Context, table string) (string, error) {
	var ddl string
	err := t.db.QueryRowContext(ctx,
		`SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&ddl)
	if err != nil {
		return "", fmt.Errorf("read schema of %s: %w", table, err)
	}

	rows, err := t.db.QueryContext(ctx, fmt.Sprintf(`SELECT * FROM %s LIMIT %d`, quoteIdent(table), sampleRows))
	if err != nil {
		return "", fmt.Errorf("sample rows of %s: %w", table, err)
	}
	defer rows.Close()

	sample, err := renderRows(rows, sampleRows)
	if err != nil {
		return "", fmt.Errorf("sample rows of %s: %w", table, err)
	}

	return fmt.Sprintf("%s\n\n/*\n%d rows from %s table:\n%s\n*/", strings.TrimSpace(ddl), sampleRows, table, sample), nil
}

// returnsRows classifies a statement by its first keyword, skipping leading
// comments and parentheses.
func returnsRows(query string) bool {
	head := strings.TrimLeft(strings.ToUpper(stripLeadingComments(query)), "( \t\r\n")
	if i := strings.IndexAny(head, " \t\r\n(;"); i > 0 {
		head = head[:i]
	}
	switch head {
	case "SELECT", "WITH", "PRAGMA", "EXPLAIN", "VALUES":
		return true
	default:
		return false
	}
}

// stripLeadingComments drops "--" line comments and "/* */" block comments
// that precede the first statement keyword.
func stripLeadingComments(query string) string {
	for {
		query = strings.TrimSpace(query)
		switch {
		case strings.HasPrefix(query, "--"):
			i := strings.IndexByte(query, '\n')
			if i < 0 {
				return ""
			}
			query = query[i+1:]
		case strings.HasPrefix(query, "/*"):
			i := strings.Index(query[2:], "*/")
			if i < 0 {
				return ""
			}
			query = query[i+4:]
		default:
			return query
		}
	}
}

func renderRows(rows *sql.Rows, limit int) (string, error) {
	cols, err := rows.Columns()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(strings.Join(cols, "\t"))

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	n := 0
	for rows.Next() {
		if n == limit {
			b.WriteString(fmt.Sprintf("\n... truncated after %d rows", limit))
			break
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", err
		}
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = formatValue(v)
		}
		b.WriteByte('\n')
		b.WriteString(strings.Join(cells, "\t"))
		n++
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if n == 0 {
		b.WriteString("\n(no rows)")
	}

	return b.String(), nil
}

func formatValue(v any) string {
	var s string
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		s = string(val)
	default:
		s = fmt.Sprint(val)
	}
	if len([]rune(s)) > maxValue {
		s = string([]rune(s)[:maxValue]) + "..."
	}
	return s
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
