package watcher

import "sync"

// Serializer runs a function at most once at a time. Triggers arriving while
// a run is in flight coalesce into exactly one follow-up run, so a burst of
// change batches never queues redundant pipeline passes.
type Serializer struct {
	fn      func()
	mutex   sync.Mutex
	busy    bool
	pending bool
	wg      sync.WaitGroup
}

// NewSerializer creates a serializer for fn.
func NewSerializer(fn func()) *Serializer {
	return &Serializer{fn: fn}
}

// Trigger requests a run. It returns immediately; the run happens on its own
// goroutine.
func (s *Serializer) Trigger() {
	s.mutex.Lock()
	if s.busy {
		s.pending = true
		s.mutex.Unlock()

		return
	}
	s.busy = true
	s.mutex.Unlock()

	s.wg.Add(1)
	go s.run()
}

func (s *Serializer) run() {
	defer s.wg.Done()
	for {
		s.fn()

		s.mutex.Lock()
		if !s.pending {
			s.busy = false
			s.mutex.Unlock()

			return
		}
		s.pending = false
		s.mutex.Unlock()
	}
}

// Wait blocks until no run is in flight.
func (s *Serializer) Wait() {
	s.wg.Wait()
}
