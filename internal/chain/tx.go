package chain

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/vovakirdan/cardflip/internal/core"
)

// Receipt describes a committed transaction.
type Receipt struct {
	TxID   string
	Sender core.Account
	Height uint64
}

// Tx is the view a transaction body has of the ledger. It is only valid
// inside the function passed to Execute.
type Tx struct {
	chain    *Chain
	id       string
	sender   core.Account
	height   uint64
	undo     []func()
	onCommit []func()
}

// Execute runs fn as one transaction attributed to sender. Transactions are
// serialized: no other transaction or view observes state while fn runs.
// If fn returns an error, every mutation recorded in the transaction journal
// is undone in reverse order and the error is returned unchanged.
// Commit hooks run after the lock is released, in registration order.
func (c *Chain) Execute(sender core.Account, fn func(tx *Tx) error) (Receipt, error) {
	c.mu.Lock()
	tx := &Tx{
		chain:  c,
		id:     uuid.NewString(),
		sender: sender,
		height: c.height(),
	}

	if err := fn(tx); err != nil {
		tx.rollback()
		c.mu.Unlock()
		c.logger.Debug("tx reverted", "tx", tx.id, "sender", sender, "error", err)
		return Receipt{}, err
	}
	c.mu.Unlock()

	for _, hook := range tx.onCommit {
		hook()
	}
	return Receipt{TxID: tx.id, Sender: sender, Height: tx.height}, nil
}

func (tx *Tx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
	tx.onCommit = nil
}

// ID returns the transaction id.
func (tx *Tx) ID() string {
	return tx.id
}

// Sender returns the account that signed the transaction.
func (tx *Tx) Sender() core.Account {
	return tx.sender
}

// Height returns the chain position the transaction executes at.
func (tx *Tx) Height() uint64 {
	return tx.height
}

// Balance returns an account's ledger balance as seen by this transaction.
func (tx *Tx) Balance(acct core.Account) core.Amount {
	return tx.chain.balances[acct]
}

// Transfer moves amount between two ledger accounts.
func (tx *Tx) Transfer(from, to core.Account, amount core.Amount) error {
	if amount == 0 || from == "" || to == "" || from == to {
		return errors.Wrapf(ErrInvalidTransfer, "transfer %d from %q to %q", amount, from, to)
	}
	bal := tx.chain.balances
	if bal[from] < amount {
		return errors.Wrapf(ErrInsufficientBalance, "%q has %d, needs %d", from, bal[from], amount)
	}
	if bal[to] > core.Amount(^uint64(0))-amount {
		return errors.Wrapf(ErrInvalidTransfer, "credit to %q overflows", to)
	}

	bal[from] -= amount
	bal[to] += amount
	tx.OnRevert(func() {
		bal[to] -= amount
		bal[from] += amount
	})
	return nil
}

// EntropyAt returns the entropy sealed at height. Heights above the current
// chain position have not been sealed yet.
func (tx *Tx) EntropyAt(height uint64) ([32]byte, error) {
	blocks := tx.chain.blocks
	if height >= uint64(len(blocks)) {
		return [32]byte{}, errors.Wrapf(ErrEntropyUnavailable, "height %d, tip %d", height, tx.height)
	}
	return blocks[height].Entropy, nil
}

// OnRevert registers an undo step for a mutation made outside the ledger
// (component state). Undo steps run in reverse order if the transaction fails.
func (tx *Tx) OnRevert(undo func()) {
	tx.undo = append(tx.undo, undo)
}

// OnCommit registers a hook that runs once the transaction has committed.
// Hooks run after the transaction lock is released.
func (tx *Tx) OnCommit(hook func()) {
	tx.onCommit = append(tx.onCommit, hook)
}
