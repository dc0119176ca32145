// Package chain is an in-process host ledger. It supplies the primitives the
// settlement engine consumes from a blockchain runtime: account balances with
// atomic transfers, a monotonic chain height, an unpredictable entropy value
// sealed per height, and serialized all-or-nothing transactions attributed to
// a sender.
package chain

import (
	"crypto/rand"
	"encoding/binary"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"

	"github.com/vovakirdan/cardflip/internal/core"
)

// Ledger failures. Callers translate these into their own refusal codes.
var (
	ErrInsufficientBalance = errors.New("chain: insufficient balance")
	ErrInvalidTransfer     = errors.New("chain: invalid transfer")
	ErrEntropyUnavailable  = errors.New("chain: entropy not yet published")
)

// Block is a sealed chain position.
type Block struct {
	Height   uint64
	Entropy  [32]byte
	SealedAt time.Time
}

// Chain holds ledger state. All mutation goes through Execute, Advance or Mint,
// which take the write lock; readers use View.
type Chain struct {
	mu       sync.RWMutex
	blocks   []Block // index == height
	balances map[core.Account]core.Amount
	source   io.Reader
	logger   *log.Logger

	subMu sync.Mutex
	subs  map[*Subscription]struct{}
}

// Option configures a Chain.
type Option func(*Chain)

// WithEntropySource replaces crypto/rand as the source of fresh block entropy.
// Tests pass a seeded reader to make outcomes reproducible.
func WithEntropySource(r io.Reader) Option {
	return func(c *Chain) {
		c.source = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Chain) {
		c.logger = l
	}
}

// New creates a chain with a sealed genesis block at height 0.
func New(opts ...Option) (*Chain, error) {
	c := &Chain{
		balances: make(map[core.Account]core.Amount),
		source:   rand.Reader,
		subs:     make(map[*Subscription]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	c.logger = c.logger.WithPrefix("chain")

	genesis, err := c.seal(0, [32]byte{})
	if err != nil {
		return nil, errors.Wrap(err, "seal genesis")
	}
	c.blocks = append(c.blocks, genesis)
	return c, nil
}

// seal derives the entropy for a new height from the previous entropy and
// fresh bytes that nobody could know before this call.
func (c *Chain) seal(height uint64, prev [32]byte) (Block, error) {
	var fresh [32]byte
	if _, err := io.ReadFull(c.source, fresh[:]); err != nil {
		return Block{}, errors.Wrap(err, "read entropy")
	}
	var h [8]byte
	binary.BigEndian.PutUint64(h[:], height)

	d := sha3.New256()
	d.Write(prev[:])
	d.Write(h[:])
	d.Write(fresh[:])

	b := Block{Height: height, SealedAt: time.Now()}
	copy(b.Entropy[:], d.Sum(nil))
	return b, nil
}

// Advance seals the next height and notifies subscribers.
func (c *Chain) Advance() (Block, error) {
	c.mu.Lock()
	tip := c.blocks[len(c.blocks)-1]
	b, err := c.seal(tip.Height+1, tip.Entropy)
	if err != nil {
		c.mu.Unlock()
		return Block{}, err
	}
	c.blocks = append(c.blocks, b)
	c.mu.Unlock()

	c.logger.Debug("block sealed", "height", b.Height)
	c.publish(b)
	return b, nil
}

// Height returns the current chain position.
func (c *Chain) Height() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.height()
}

func (c *Chain) height() uint64 {
	return c.blocks[len(c.blocks)-1].Height
}

// Balance returns the ledger balance of an account.
func (c *Chain) Balance(acct core.Account) core.Amount {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.balances[acct]
}

// Block returns the sealed block at the given height.
func (c *Chain) Block(height uint64) (Block, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if height >= uint64(len(c.blocks)) {
		return Block{}, false
	}
	return c.blocks[height], true
}

// Mint credits an account out of thin air. Used for genesis allocations and
// the faucet, never by the engine.
func (c *Chain) Mint(to core.Account, amount core.Amount) error {
	if to == "" || amount == 0 {
		return errors.Wrapf(ErrInvalidTransfer, "mint %d to %q", amount, to)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.balances[to] > core.Amount(^uint64(0))-amount {
		return errors.Wrapf(ErrInvalidTransfer, "mint %d to %q overflows", amount, to)
	}
	c.balances[to] += amount
	c.logger.Debug("minted", "to", to, "amount", amount)
	return nil
}

// View runs fn under the read lock so that it observes state between
// transactions, never in the middle of one. fn must not call Execute.
func (c *Chain) View(fn func()) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn()
}
