package depository

import (
	"context"
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"
)

// Patch applies RFC 6902 JSON Patch operations to the node at path and
// writes the result back with Set, through every filter along the way. The
// node must exist. Numbers in the patched node come back as float64.
func (d *Depository) Patch(ctx context.Context, path string, ops []byte) (bool, error) {
	patch, err := jsonpatch.DecodePatch(ops)
	if err != nil {
		return false, fmt.Errorf("decode patch: %w", err)
	}

	return d.update(ctx, path, func(current any, found bool) (any, error) {
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		doc, err := json.Marshal(current)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", path, err)
		}
		patched, err := patch.Apply(doc)
		if err != nil {
			return nil, fmt.Errorf("apply patch to %s: %w", path, err)
		}
		return decodeJSON(patched)
	})
}

// Merge applies an RFC 7386 JSON Merge Patch to the node at path and writes
// the result back with Set. A missing node is merged onto an empty object.
func (d *Depository) Merge(ctx context.Context, path string, patch []byte) (bool, error) {
	return d.update(ctx, path, func(current any, found bool) (any, error) {
		if !found {
			current = map[string]any{}
		}
		doc, err := json.Marshal(current)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", path, err)
		}
		merged, err := jsonpatch.MergePatch(doc, patch)
		if err != nil {
			return nil, fmt.Errorf("merge into %s: %w", path, err)
		}
		return decodeJSON(merged)
	})
}

func decodeJSON(data []byte) (any, error) {
	return JSONCodec{}.Decode(data)
}
