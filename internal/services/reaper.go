package services

import (
	"context"
	"log"
	"time"

	"learnpulse-backend/internal/engine"
)

// Reaper sweeps idle sessions on a fixed interval. A closed tab whose
// teardown beacon never arrived still gets finalized and settled.
type Reaper struct {
	manager  *engine.Manager
	interval time.Duration
	stopChan chan struct{}
}

func NewReaper(manager *engine.Manager, interval time.Duration) *Reaper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Reaper{
		manager:  manager,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

func (r *Reaper) Start() {
	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.stopChan:
				return
			case <-ticker.C:
				if n := r.manager.ReapIdle(context.Background()); n > 0 {
					log.Printf("Reaped %d idle sessions", n)
				}
			}
		}
	}()
	log.Printf("Started idle session reaper (interval: %s)", r.interval)
}

func (r *Reaper) Stop() {
	close(r.stopChan)
}
