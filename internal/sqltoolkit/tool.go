package sqltoolkit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/futig/vitos-assistant/internal/entity"
)

// Tool names as the model sees them.
const (
	ToolQuery        = "sql_db_query"
	ToolSchema       = "sql_db_schema"
	ToolListTables   = "sql_db_list_tables"
	ToolQueryChecker = "sql_db_query_checker"
)

// Tool is a single-argument database tool.
type Tool struct {
	name        string
	description string
	argName     string
	argDesc     string
	optional    bool
	fn          func(ctx context.Context, arg string) (string, error)
}

func (t *Tool) Name() string        { return t.name }
func (t *Tool) Description() string { return t.description }

// Parameters is the JSON schema of the tool arguments.
func (t *Tool) Parameters() map[string]any {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			t.argName: map[string]any{
				"type":        "string",
				"description": t.argDesc,
			},
		},
	}
	if !t.optional {
		schema["required"] = []string{t.argName}
	}
	return schema
}

// Call decodes the JSON arguments produced by the model and runs the tool.
// A bare non-JSON string is accepted as the single argument.
func (t *Tool) Call(ctx context.Context, arguments string) (string, error) {
	arg, err := t.argument(arguments)
	if err != nil {
		return "", err
	}
	return t.fn(ctx, arg)
}

func (t *Tool) argument(arguments string) (string, error) {
	arguments = strings.TrimSpace(arguments)
	if arguments == "" {
		if t.optional {
			return "", nil
		}
		return "", fmt.Errorf("%w: %s requires %q", entity.ErrInvalidArguments, t.name, t.argName)
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(arguments), &obj); err != nil {
		return arguments, nil
	}

	raw, ok := obj[t.argName]
	if !ok {
		if t.optional {
			return "", nil
		}
		return "", fmt.Errorf("%w: %s requires %q", entity.ErrInvalidArguments, t.name, t.argName)
	}

	switch v := raw.(type) {
	case string:
		return v, nil
	case []any:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, ", "), nil
	default:
		return fmt.Sprint(v), nil
	}
}
