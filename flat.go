package depository

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Unflatten builds a tree from flat keys such as "api/port" or "api.port",
// splitting each key on sep. Values that parse as JSON are decoded; anything
// else is kept as a string. Empty key segments are ignored, and a key ending
// in sep with no value is a directory marker and is skipped. Keys are applied
// in sorted order, and a key that would descend through another key's scalar
// value fails with ErrPathConflict.
func Unflatten(pairs map[string][]byte, sep string) (map[string]any, error) {
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	t := tree{root: map[string]any{}}
	for _, k := range keys {
		if strings.HasSuffix(k, sep) && len(pairs[k]) == 0 {
			continue
		}
		segs := slices.DeleteFunc(strings.Split(k, sep), func(s string) bool { return s == "" })
		if len(segs) == 0 {
			continue
		}
		if err := t.write(segs, decodeScalar(pairs[k])); err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
	}
	root, _ := t.root.(map[string]any)
	return root, nil
}

// MarshalFlat is Unflatten followed by JSON encoding, the form the flat
// key-value sources emit.
func MarshalFlat(pairs map[string][]byte, sep string) ([]byte, error) {
	root, err := Unflatten(pairs, sep)
	if err != nil {
		return nil, err
	}
	return json.Marshal(root)
}

func decodeScalar(raw []byte) any {
	var v any
	if err := json.Unmarshal(raw, &v); err == nil {
		return v
	}
	return string(raw)
}
