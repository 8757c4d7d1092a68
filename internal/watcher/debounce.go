package watcher

import (
	"context"
	"sync"
	"time"
)

// Debouncer groups rapid file changes into one batch per quiet window,
// de-duplicated by path with the latest event winning.
type Debouncer struct {
	delay   time.Duration
	events  chan ChangeEvent
	output  chan []ChangeEvent
	timer   *time.Timer
	pending []ChangeEvent
	mutex   sync.Mutex
}

func newDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:  delay,
		events: make(chan ChangeEvent, 100),
		output: make(chan []ChangeEvent, 10),
	}
}

func (d *Debouncer) start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-d.events:
			d.enqueue(event)
		}
	}
}

func (d *Debouncer) stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

func (d *Debouncer) add(event ChangeEvent) {
	select {
	case d.events <- event:
	default:
		// Channel full during an event storm; the batch already pending
		// triggers the same resynthesis.
	}
}

func (d *Debouncer) enqueue(event ChangeEvent) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.pending = append(d.pending, event)

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.flush)
}

func (d *Debouncer) flush() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if len(d.pending) == 0 {
		return
	}

	latest := make(map[string]ChangeEvent, len(d.pending))
	order := make([]string, 0, len(d.pending))
	for _, event := range d.pending {
		if _, seen := latest[event.Path]; !seen {
			order = append(order, event.Path)
		}
		latest[event.Path] = event
	}

	batch := make([]ChangeEvent, 0, len(order))
	for _, path := range order {
		batch = append(batch, latest[path])
	}

	select {
	case d.output <- batch:
	default:
	}

	d.pending = d.pending[:0]
}
