package membership

import (
	"log"
	"sync"
	"time"
)

// Pruner periodically drops peers that have gone quiet for too long,
// the way the teacher's FailureDetector runs a ticker-driven
// detectionLoop. There's no suspect/dead state machine here: spec.md
// §4.1 only ever removes a stale peer outright, it never demotes one.
type Pruner struct {
	table    *Table
	interval time.Duration
	maxAge   time.Duration
	recorder Recorder

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// Recorder receives the current peer table size after every prune pass.
// A nil Recorder is valid.
type Recorder interface {
	SetPeerTableSize(n int)
}

// NewPruner builds a Pruner that checks table every interval and drops
// any peer unseen for longer than maxAge. recorder may be nil.
func NewPruner(table *Table, interval, maxAge time.Duration, recorder Recorder) *Pruner {
	return &Pruner{
		table:    table,
		interval: interval,
		maxAge:   maxAge,
		recorder: recorder,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the prune loop in its own goroutine.
func (p *Pruner) Start() {
	p.wg.Add(1)
	go p.loop()
}

// Stop signals the prune loop to exit and waits for it to do so.
func (p *Pruner) Stop() {
	close(p.stopCh)
	p.wg.Wait()
}

func (p *Pruner) loop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			for _, name := range p.table.PruneOlderThan(p.maxAge) {
				log.Printf("membership: pruned stale peer %q", name)
			}
			if p.recorder != nil {
				p.recorder.SetPeerTableSize(p.table.Size())
			}
		}
	}
}
