package depository

import (
	"fmt"

	"github.com/theory/jsonpath"
)

// Query selects nodes from the whole tree with an RFC 9535 JSONPath
// expression, such as "$.services[*].port" or "$..enabled". Matches are deep
// copies taken from a single consistent snapshot.
func (d *Depository) Query(expression string) ([]any, error) {
	path, err := jsonpath.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONPath %s: %w", expression, err)
	}

	d.mu.RLock()
	nodes := path.Select(d.tree.root)
	out := make([]any, len(nodes))
	for i, n := range nodes {
		out[i] = clone(n)
	}
	d.mu.RUnlock()

	return out, nil
}
