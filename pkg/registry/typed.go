package registry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
)

// Typed builds a tool whose arguments decode into In. The parameter schema is
// reflected from In (json tags name the fields, jsonschema tags describe them)
// and raw model arguments are decoded with mapstructure, so "3" fills an int.
func Typed[In any](name, description string, fn func(ctx context.Context, in In) (any, error)) (domain.Tool, ToolFunction, error) {
	params, err := SchemaFor[In]()
	if err != nil {
		return domain.Tool{}, nil, fmt.Errorf("tool %s: %w", name, err)
	}

	tool := domain.Tool{Name: name, Description: description, Parameters: params}
	call := func(ctx context.Context, args map[string]any) (any, error) {
		var in In
		if err := Decode(args, &in); err != nil {
			return nil, fmt.Errorf("tool %s: invalid arguments: %w", name, err)
		}
		return fn(ctx, in)
	}
	return tool, call, nil
}

// MustRegister registers a Typed tool and panics if its schema cannot be built.
// Schema reflection only fails on programming errors, so this suits init code.
func MustRegister[In any](r *Registry, name, description string, fn func(ctx context.Context, in In) (any, error)) {
	tool, call, err := Typed(name, description, fn)
	if err != nil {
		panic(err)
	}
	r.Register(tool, call)
}

// SchemaFor reflects a JSON schema object for T as a plain map.
func SchemaFor[T any]() (map[string]any, error) {
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
	}
	var zero T
	schema := r.Reflect(&zero)

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode schema: %w", err)
	}
	delete(out, "$schema")
	delete(out, "$id")
	return out, nil
}

// Decode copies loosely typed arguments into out using json field names.
func Decode(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(args)
}
