package depository

import (
	"context"
	"sync"
)

// task is a watcher call snapshotted at commit time.
type task struct {
	ctx     context.Context
	watcher *Watcher
	n       Notification
}

// dispatcher runs watcher tasks in enqueue order, after the call that
// queued them has returned. A drainer goroutine is started when work arrives
// and exits once the queue is empty. In manual mode nothing runs until flush.
type dispatcher struct {
	mu      sync.Mutex
	idle    *sync.Cond
	queue   []task
	running bool
	manual  bool
	fire    func(task)
}

func newDispatcher(fire func(task)) *dispatcher {
	d := &dispatcher{fire: fire}
	d.idle = sync.NewCond(&d.mu)
	return d
}

func (d *dispatcher) enqueue(tasks []task) {
	if len(tasks) == 0 {
		return
	}
	d.mu.Lock()
	d.queue = append(d.queue, tasks...)
	start := !d.manual && !d.running
	if start {
		d.running = true
	}
	d.mu.Unlock()

	if start {
		go d.drain()
	}
}

func (d *dispatcher) drain() {
	for {
		d.mu.Lock()
		t, ok := d.popLocked()
		if !ok {
			d.running = false
			d.idle.Broadcast()
			d.mu.Unlock()
			return
		}
		d.mu.Unlock()
		d.fire(t)
	}
}

// flush runs every queued task in manual mode, including tasks queued by the
// tasks themselves. Otherwise it blocks until the drainer is idle.
func (d *dispatcher) flush() {
	if d.manual {
		for {
			d.mu.Lock()
			t, ok := d.popLocked()
			d.mu.Unlock()
			if !ok {
				return
			}
			d.fire(t)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for d.running || len(d.queue) > 0 {
		d.idle.Wait()
	}
}

func (d *dispatcher) pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

func (d *dispatcher) popLocked() (task, bool) {
	if len(d.queue) == 0 {
		return task{}, false
	}
	t := d.queue[0]
	d.queue[0] = task{}
	d.queue = d.queue[1:]
	return t, true
}
