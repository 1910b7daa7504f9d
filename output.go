package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

func printYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return enc.Close()
}

// parseAttr splits a name=value argument. A value that parses as JSON keeps
// its JSON type, so id=42 is a number and id='"42"' a string; anything
// else is taken as a plain string.
func parseAttr(arg string) (string, any, error) {
	name, raw, ok := strings.Cut(arg, "=")
	if !ok || name == "" {
		return "", nil, fmt.Errorf("expected name=value, got %q", arg)
	}
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return name, raw, nil
	}
	return name, value, nil
}

// parseJSONObject decodes a JSON object argument. Empty input is an empty object.
func parseJSONObject(raw string) (map[string]any, error) {
	obj := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return obj, nil
	}
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, fmt.Errorf("decode JSON object: %w", err)
	}
	return obj, nil
}
