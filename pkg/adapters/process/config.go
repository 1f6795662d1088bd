package process

import (
	"fmt"
	"regexp"
)

// ToolConfig declares a local command exposed to the chat model as a tool.
type ToolConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description" json:"description"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args,omitempty" json:"args,omitempty"`
	Environment map[string]string `yaml:"env,omitempty" json:"env,omitempty"`

	// Params names the string arguments the model may pass. Each arrives in
	// the process environment as PARLEY_ARG_<NAME>.
	Params []string `yaml:"params,omitempty" json:"params,omitempty"`
}

var paramName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Validate reports the first problem with c.
func (c ToolConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("process tool: name is required")
	}
	if c.Command == "" {
		return fmt.Errorf("process tool %s: command is required", c.Name)
	}
	for _, p := range c.Params {
		if !paramName.MatchString(p) {
			return fmt.Errorf("process tool %s: invalid param name %q", c.Name, p)
		}
	}
	return nil
}

// Schema is the JSON Schema of the tool arguments.
func (c ToolConfig) Schema() map[string]any {
	props := make(map[string]any, len(c.Params))
	for _, p := range c.Params {
		props[p] = map[string]any{"type": "string"}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}
