package entity

import "time"

// ToolInvocation records a single call from the reasoning loop to a tool
type ToolInvocation struct {
	Name      string        `json:"name"`
	Arguments string        `json:"arguments"`
	Result    string        `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// AgentRequest is the input of one reasoning loop run
type AgentRequest struct {
	System  string
	History []Turn
	Input   string
}

// AgentResult is the terminal answer of a reasoning loop run
type AgentResult struct {
	Answer      string
	Iterations  int
	Invocations []ToolInvocation
}
