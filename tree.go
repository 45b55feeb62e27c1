package depository

import (
	"fmt"
	"strconv"
)

// MaxIndexGap is how far past the end of an array a write may reach. The
// gap is padded with nil; a write beyond it fails with ErrPathConflict.
const MaxIndexGap = 1024

// tree holds the root node of a Depository.
type tree struct {
	root any
}

// read returns a deep copy of the node at segs.
func (t *tree) read(segs []string) (any, bool) {
	node, ok := lookup(t.root, segs)
	if !ok {
		return nil, false
	}
	return clone(node), true
}

// write stores value at segs, creating missing intermediate containers.
// The tree is only modified if the whole path can be resolved.
func (t *tree) write(segs []string, value any) error {
	root, err := put(t.root, segs, value)
	if err != nil {
		return err
	}
	t.root = root
	return nil
}

// remove deletes the node at segs. Removing the root leaves an empty map.
func (t *tree) remove(segs []string) bool {
	if len(segs) == 0 {
		t.root = map[string]any{}
		return true
	}
	root, removed := drop(t.root, segs)
	if removed {
		t.root = root
	}
	return removed
}

// propose returns what the node at key would hold once c is applied at
// suffix below it. The live tree is left untouched.
func (t *tree) propose(key, suffix string, c change) any {
	keySegs, _ := splitPath(key)
	current, _ := t.read(keySegs)
	rel, _ := splitPath(suffix)
	scratch := tree{root: current}
	if c.delete {
		if len(rel) == 0 {
			return nil
		}
		scratch.remove(rel)
		return scratch.root
	}
	if err := scratch.write(rel, clone(c.value)); err != nil {
		return current
	}
	return scratch.root
}

func lookup(node any, segs []string) (any, bool) {
	for _, seg := range segs {
		switch n := node.(type) {
		case map[string]any:
			child, ok := n[seg]
			if !ok {
				return nil, false
			}
			node = child
		case []any:
			idx, ok := index(seg)
			if !ok || idx >= len(n) {
				return nil, false
			}
			node = n[idx]
		default:
			return nil, false
		}
	}
	return node, true
}

// put returns node with value stored at segs. Assignments happen on the way
// back up, so a failure deeper down leaves node unchanged.
func put(node any, segs []string, value any) (any, error) {
	if len(segs) == 0 {
		return value, nil
	}
	seg := segs[0]
	if node == nil {
		node = newContainer(seg)
	}
	switch n := node.(type) {
	case map[string]any:
		child, err := put(n[seg], segs[1:], value)
		if err != nil {
			return nil, err
		}
		n[seg] = child
		return n, nil
	case []any:
		idx, ok := index(seg)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not an array index", ErrPathConflict, seg)
		}
		if idx-len(n) > MaxIndexGap {
			return nil, fmt.Errorf("%w: index %d is more than %d past the end of an array of length %d", ErrPathConflict, idx, MaxIndexGap, len(n))
		}
		var existing any
		if idx < len(n) {
			existing = n[idx]
		}
		child, err := put(existing, segs[1:], value)
		if err != nil {
			return nil, err
		}
		for len(n) <= idx {
			n = append(n, nil)
		}
		n[idx] = child
		return n, nil
	default:
		return nil, fmt.Errorf("%w: cannot descend into %T at %q", ErrPathConflict, node, seg)
	}
}

// drop returns node with the entry at segs removed. Arrays are spliced so
// later elements shift down.
func drop(node any, segs []string) (any, bool) {
	seg := segs[0]
	last := len(segs) == 1
	switch n := node.(type) {
	case map[string]any:
		child, ok := n[seg]
		if !ok {
			return node, false
		}
		if last {
			delete(n, seg)
			return n, true
		}
		updated, removed := drop(child, segs[1:])
		if removed {
			n[seg] = updated
		}
		return n, removed
	case []any:
		idx, ok := index(seg)
		if !ok || idx >= len(n) {
			return node, false
		}
		if last {
			return append(n[:idx:idx], n[idx+1:]...), true
		}
		updated, removed := drop(n[idx], segs[1:])
		if removed {
			n[idx] = updated
		}
		return n, removed
	default:
		return node, false
	}
}

func index(seg string) (int, bool) {
	if !isIndex(seg) {
		return 0, false
	}
	idx, err := strconv.Atoi(seg)
	if err != nil {
		return 0, false
	}
	return idx, true
}
