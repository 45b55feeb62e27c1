package depository

import (
	"fmt"
	"strings"
)

// Root is the path addressing the whole tree.
const Root = "."

// splitPath parses a dot-delimited path into its segments. The root path
// yields no segments.
func splitPath(path string) ([]string, error) {
	if path == Root {
		return nil, nil
	}
	segs := strings.Split(path, ".")
	for _, s := range segs {
		if s == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return segs, nil
}

// ancestorKey returns the path formed by the first i segments, or Root.
func ancestorKey(segs []string, i int) string {
	if i <= 0 {
		return Root
	}
	return strings.Join(segs[:i], ".")
}

// suffixKey returns the path formed by the segments from position i on, or Root.
func suffixKey(segs []string, i int) string {
	if i >= len(segs) {
		return Root
	}
	return strings.Join(segs[i:], ".")
}

// joinKey resolves rel against base. An empty or root rel names base itself.
func joinKey(base, rel string) string {
	if rel == "" || rel == Root {
		return base
	}
	if base == Root {
		return rel
	}
	return base + "." + rel
}

// isIndex reports whether seg is digit-only and so selects an array slot.
func isIndex(seg string) bool {
	if seg == "" {
		return false
	}
	for i := 0; i < len(seg); i++ {
		if seg[i] < '0' || seg[i] > '9' {
			return false
		}
	}
	return true
}
