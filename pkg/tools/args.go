package tools

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// DecodeArgs maps a parsed argument map onto a tool's typed input struct.
// JSON numbers arrive as float64; weakly-typed decoding converts them to the
// struct's declared types. Unknown keys are tolerated, the model frequently
// sends extras.
func DecodeArgs(args map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to build argument decoder: %w", err)
	}
	if err := decoder.Decode(args); err != nil {
		return fmt.Errorf("argument shape mismatch: %w", err)
	}
	return nil
}

// CheckArgs decodes args into the input struct and runs its validate tags.
func CheckArgs(v *validator.Validate, args map[string]any, out any) error {
	if err := DecodeArgs(args, out); err != nil {
		return err
	}
	if err := v.Struct(out); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}

// ArgsFromInput converts a typed input struct back into the argument map
// shape used by Invoke. Used by the MCP handlers, which receive typed input
// from the SDK.
func ArgsFromInput(input any) (map[string]any, error) {
	data, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input: %w", err)
	}
	var args map[string]any
	if err := json.Unmarshal(data, &args); err != nil {
		return nil, fmt.Errorf("failed to rebuild argument map: %w", err)
	}
	return args, nil
}
