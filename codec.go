package depository

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Codec decodes raw source data into a tree value: maps keyed by string,
// []any and scalars.
// Implement this interface to feed alternative formats like TOML or HCL.
type Codec interface {
	// Decode parses data into a tree value.
	Decode(data []byte) (any, error)

	// ContentType returns the MIME type for observability and debugging.
	ContentType() string
}

// JSONCodec implements Codec using encoding/json. Numbers decode as float64.
type JSONCodec struct{}

// Decode parses JSON data.
func (JSONCodec) Decode(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// ContentType returns the JSON MIME type.
func (JSONCodec) ContentType() string {
	return "application/json"
}

// Ensure JSONCodec implements Codec.
var _ Codec = JSONCodec{}

// YAMLCodec implements Codec using gopkg.in/yaml.v3. Mappings with
// non-string keys are converted to maps keyed by the formatted key.
type YAMLCodec struct{}

// Decode parses YAML data.
func (YAMLCodec) Decode(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return normalize(v), nil
}

// ContentType returns the YAML MIME type.
func (YAMLCodec) ContentType() string {
	return "application/x-yaml"
}

// Ensure YAMLCodec implements Codec.
var _ Codec = YAMLCodec{}

func normalize(v any) any {
	switch n := v.(type) {
	case map[string]any:
		for k, child := range n {
			n[k] = normalize(child)
		}
		return n
	case map[any]any:
		out := make(map[string]any, len(n))
		for k, child := range n {
			out[fmt.Sprint(k)] = normalize(child)
		}
		return out
	case []any:
		for i, child := range n {
			n[i] = normalize(child)
		}
		return n
	default:
		return v
	}
}
