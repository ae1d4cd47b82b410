package counter

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// Flusher periodically drains pending counters to the database.
type Flusher struct {
	interval time.Duration
	flush    func(context.Context) error

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewFlusher creates a flusher that calls FlushAll every interval.
func NewFlusher(interval time.Duration) *Flusher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Flusher{interval: interval, flush: FlushAll}
}

// Start launches the background worker. Calling Start twice is a no-op.
func (f *Flusher) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return
	}
	f.running = true
	f.stopCh = make(chan struct{})
	f.wg.Add(1)
	go f.worker()
	log.Infof("[Counter] flush worker started (every %v)", f.interval)
}

// Stop halts the worker and runs one last flush.
func (f *Flusher) Stop() {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return
	}
	f.running = false
	close(f.stopCh)
	f.mu.Unlock()

	f.wg.Wait()
	if err := f.flush(context.Background()); err != nil {
		log.Errorf("[Counter] final flush error: %v", err)
	}
}

func (f *Flusher) worker() {
	defer f.wg.Done()
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-f.stopCh:
			log.Info("[Counter] flush worker stopping")
			return
		case <-ticker.C:
			if err := f.flush(context.Background()); err != nil {
				log.Errorf("[Counter] flush error: %v", err)
			}
		}
	}
}
