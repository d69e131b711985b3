package agent

import "context"

// Tool is something the model may call by name with JSON arguments.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Call(ctx context.Context, arguments string) (string, error)
}
