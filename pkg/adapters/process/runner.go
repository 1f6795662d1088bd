// Package process exposes allow-listed local commands as chat tools.
//
// Only commands declared in configuration can run. The model never supplies
// command lines or flags: its arguments are passed as environment variables.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/registry"
)

// EnvPrefix prefixes every argument variable.
const EnvPrefix = "PARLEY_ARG_"

// DefaultTimeout bounds a single execution.
const DefaultTimeout = 30 * time.Second

// Runner executes registered commands.
type Runner struct {
	tools   map[string]ToolConfig
	order   []string
	baseDir string
	timeout time.Duration
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.timeout = d
	}
}

// NewRunner validates tools and returns a runner for them.
func NewRunner(tools []ToolConfig, opts ...RunnerOption) (*Runner, error) {
	r := &Runner{
		tools:   make(map[string]ToolConfig, len(tools)),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, t := range tools {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.tools[t.Name]; dup {
			return nil, fmt.Errorf("process tool %s: declared twice", t.Name)
		}
		r.tools[t.Name] = t
		r.order = append(r.order, t.Name)
	}
	return r, nil
}

// Tools describes the registered commands.
func (r *Runner) Tools() []domain.Tool {
	out := make([]domain.Tool, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		out = append(out, domain.Tool{Name: t.Name, Description: t.Description, Parameters: t.Schema()})
	}
	return out
}

// RegisterAll adds every command to reg.
func (r *Runner) RegisterAll(reg *registry.Registry) {
	for _, tool := range r.Tools() {
		name := tool.Name
		reg.Register(tool, func(ctx context.Context, args map[string]any) (any, error) {
			return r.Execute(ctx, name, args)
		})
	}
}

// Execute runs the named command. Stdout is the result; a JSON document on
// stdout is compacted, anything else is returned trimmed.
func (r *Runner) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	tool, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", registry.ErrToolNotFound, name)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, tool.Command, tool.Args...)
	cmd.Dir = r.baseDir
	cmd.Env = append(cmd.Environ(), environment(tool, args)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: execution failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}

	trimmed := strings.TrimSpace(stdout.String())
	if json.Valid([]byte(trimmed)) && (strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")) {
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(trimmed)); err == nil {
			return buf.String(), nil
		}
	}
	return trimmed, nil
}

// environment renders the declared params of args; undeclared keys are dropped.
func environment(tool ToolConfig, args map[string]any) []string {
	env := make([]string, 0, len(tool.Environment)+len(tool.Params))
	for k, v := range tool.Environment {
		env = append(env, k+"="+v)
	}
	for _, p := range tool.Params {
		v, ok := args[p]
		if !ok {
			continue
		}
		env = append(env, EnvPrefix+strings.ToUpper(p)+"="+stringify(v))
	}
	return env
}

func stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case int, int64, float64, bool:
		return fmt.Sprintf("%v", v)
	default:
		if data, err := json.Marshal(v); err == nil {
			return string(data)
		}
		return fmt.Sprintf("%v", v)
	}
}
