package depository

import (
	"context"
	"fmt"

	"github.com/zoobzio/capitan"
)

// change is a pending set or delete.
type change struct {
	path   string
	value  any
	delete bool
}

func (c change) operation() string {
	if c.delete {
		return "delete"
	}
	return "set"
}

// outcome is the result of running a change through the pipeline.
type outcome struct {
	committed bool
	tasks     []task
}

// applyChange runs c through every filter registered along its path, least
// specific first, commits it and snapshots the watcher notifications.
// The caller holds the write lock.
func (d *Depository) applyChange(ctx context.Context, c change) (outcome, error) {
	segs, err := splitPath(c.path)
	if err != nil {
		return outcome{}, err
	}
	nodes := d.registry.handlerNodes(segs)
	start := 0

redirect:
	for {
		for i := start; i < len(nodes); i++ {
			node := nodes[i]
			if len(node.filters) == 0 {
				continue
			}
			current, _ := d.tree.read(segs[:node.depth])
			proposed := d.tree.propose(node.key, node.suffix, c)

			for _, f := range node.filters {
				fc := FilterContext{
					ProvidedKey:   c.path,
					ProvidedValue: clone(c.value),
					Key:           node.key,
					KeySuffix:     node.suffix,
					CurrentValue:  clone(current),
					ProposedValue: clone(proposed),
					DeleteKey:     c.delete,
				}
				res := f.fn(ctx, fc)

				switch res.verdict {
				case VerdictReject:
					return outcome{}, d.reject(ctx, f, fc)

				case VerdictOverride, VerdictDeleteOverride:
					next := c
					if res.key != "" {
						next.path = joinKey(node.key, res.key)
					}
					if res.verdict == VerdictOverride {
						next.value = res.value
						next.delete = false
					} else {
						next.delete = res.delete
					}

					if next.path == c.path {
						c = next
						proposed = d.tree.propose(node.key, node.suffix, c)
						continue
					}

					// Everything more specific than this node along the
					// old path is skipped.
					segs, err = splitPath(next.path)
					if err != nil {
						return outcome{}, err
					}
					capitan.Emit(ctx, ChangeRedirected,
						KeyStore.Field(d.id),
						KeyPath.Field(c.path),
						KeyTarget.Field(next.path),
						KeyFilter.Field(f.Name()),
					)
					d.metrics.OnRedirect(c.path, next.path)

					c = next
					nodes = d.registry.handlerNodes(segs)
					start = deeperThan(nodes, node.depth)
					continue redirect
				}
			}
		}
		break
	}

	committed, err := d.commit(segs, c)
	if err != nil {
		capitan.Emit(ctx, ChangeConflicted,
			KeyStore.Field(d.id),
			KeyPath.Field(c.path),
			KeyError.Field(err.Error()),
		)
		return outcome{}, fmt.Errorf("depository: %s %q: %w", c.operation(), c.path, err)
	}
	if !committed {
		return outcome{}, nil
	}

	tasks := d.notifications(ctx, segs, nodes, c)
	capitan.Emit(ctx, ChangeCommitted,
		KeyStore.Field(d.id),
		KeyPath.Field(c.path),
		KeyOperation.Field(c.operation()),
		KeyWatchers.Field(len(tasks)),
	)
	d.metrics.OnCommit(c.path, c.delete)

	return outcome{committed: true, tasks: tasks}, nil
}

func (d *Depository) commit(segs []string, c change) (bool, error) {
	if c.delete {
		return d.tree.remove(segs), nil
	}
	if err := d.tree.write(segs, clone(c.value)); err != nil {
		return false, err
	}
	return true, nil
}

func (d *Depository) reject(ctx context.Context, f *Filter, fc FilterContext) error {
	capitan.Emit(ctx, ChangeRejected,
		KeyStore.Field(d.id),
		KeyPath.Field(fc.ProvidedKey),
		KeyFilter.Field(f.Name()),
	)
	d.metrics.OnReject(fc.ProvidedKey)
	if !d.tetchy {
		return nil
	}
	return &RejectError{Filter: f, Context: fc}
}

// notifications snapshots one task per watcher along the committed path.
// Watchers outlive the call, so they get a context that is never canceled.
func (d *Depository) notifications(ctx context.Context, segs []string, nodes []handlerNode, c change) []task {
	var tasks []task
	wctx := context.WithoutCancel(ctx)
	for _, node := range nodes {
		if len(node.watchers) == 0 {
			continue
		}
		value, _ := d.tree.read(segs[:node.depth])
		for _, w := range node.watchers {
			tasks = append(tasks, task{
				ctx:     wctx,
				watcher: w,
				n: Notification{
					ProvidedKey:   c.path,
					ProvidedValue: clone(c.value),
					Key:           node.key,
					KeySuffix:     node.suffix,
					Value:         clone(value),
				},
			})
		}
	}
	return tasks
}

// deeperThan returns the index of the first node below depth.
func deeperThan(nodes []handlerNode, depth int) int {
	for i, n := range nodes {
		if n.depth > depth {
			return i
		}
	}
	return len(nodes)
}
