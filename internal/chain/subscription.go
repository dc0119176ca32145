package chain

import "sync"

// Subscription receives a notification for every sealed block.
// Delivery never blocks the chain: when the buffer is full the oldest
// pending block is dropped.
type Subscription struct {
	chain     *Chain
	blocks    chan Block
	done      chan struct{}
	closeOnce sync.Once
}

// Subscribe registers a new block subscription.
// bufferSize controls how many blocks can be pending before dropping.
func (c *Chain) Subscribe(bufferSize int) *Subscription {
	if bufferSize < 1 {
		bufferSize = 16
	}
	s := &Subscription{
		chain:  c,
		blocks: make(chan Block, bufferSize),
		done:   make(chan struct{}),
	}

	c.subMu.Lock()
	c.subs[s] = struct{}{}
	c.subMu.Unlock()
	return s
}

func (c *Chain) publish(b Block) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for s := range c.subs {
		s.send(b)
	}
}

func (s *Subscription) send(b Block) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.blocks <- b:
	default:
		// Buffer full, drop oldest and retry
		select {
		case <-s.blocks:
		default:
		}
		select {
		case s.blocks <- b:
		default:
		}
	}
}

// Blocks returns the channel sealed blocks are delivered on.
func (s *Subscription) Blocks() <-chan Block {
	return s.blocks
}

// Done returns a channel that closes when the subscription is closed.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close unregisters the subscription. Safe to call multiple times.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.chain.subMu.Lock()
		delete(s.chain.subs, s)
		s.chain.subMu.Unlock()
		close(s.done)
	})
}
