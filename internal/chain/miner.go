package chain

import (
	"sync"
	"time"
)

// Miner seals a new block at a fixed interval. It stands in for the block
// production of a real network when the engine is served to remote players.
type Miner struct {
	chain    *Chain
	interval time.Duration

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	stopped   chan struct{}
}

// NewMiner creates a miner. An interval below one millisecond is raised to it.
func NewMiner(c *Chain, interval time.Duration) *Miner {
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	return &Miner{
		chain:    c,
		interval: interval,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start begins block production in the background.
func (m *Miner) Start() {
	m.startOnce.Do(func() {
		go m.loop()
	})
}

// Stop halts block production and waits for the loop to exit.
// A miner stopped before Start never starts.
func (m *Miner) Stop() {
	m.startOnce.Do(func() { close(m.stopped) })
	m.stopOnce.Do(func() {
		close(m.done)
	})
	<-m.stopped
}

func (m *Miner) loop() {
	defer close(m.stopped)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := m.chain.Advance(); err != nil {
				m.chain.logger.Error("cannot seal block", "error", err)
			}
		case <-m.done:
			return
		}
	}
}
