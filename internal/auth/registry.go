// Package auth holds the capability table deciding which contracts may pull
// funds out of the treasury. Only the owner can change it.
package auth

import (
	"sort"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/cardflip/internal/chain"
	"github.com/vovakirdan/cardflip/internal/core"
)

// Registry maps contract identities to a permission flag.
type Registry struct {
	chain   *chain.Chain
	owner   core.Account
	allowed map[core.Identity]bool
	logger  *log.Logger
}

// NewRegistry creates an empty registry administered by owner.
func NewRegistry(c *chain.Chain, owner core.Account, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		chain:   c,
		owner:   owner,
		allowed: make(map[core.Identity]bool),
		logger:  logger.WithPrefix("auth"),
	}
}

// Owner returns the administering account.
func (r *Registry) Owner() core.Account {
	return r.owner
}

// Authorize grants caller the right to request payouts. Idempotent.
func (r *Registry) Authorize(tx *chain.Tx, caller core.Identity, requester core.Account) error {
	if requester != r.owner {
		return core.ErrNotOwner
	}
	if r.allowed[caller] {
		return nil
	}
	r.allowed[caller] = true
	tx.OnRevert(func() { delete(r.allowed, caller) })
	r.logger.Info("game authorized", "caller", caller, "tx", tx.ID())
	return nil
}

// Revoke withdraws a previously granted permission. Idempotent.
func (r *Registry) Revoke(tx *chain.Tx, caller core.Identity, requester core.Account) error {
	if requester != r.owner {
		return core.ErrNotOwner
	}
	if !r.allowed[caller] {
		return nil
	}
	delete(r.allowed, caller)
	tx.OnRevert(func() { r.allowed[caller] = true })
	r.logger.Info("game revoked", "caller", caller, "tx", tx.ID())
	return nil
}

// Require refuses with ErrUnauthorized unless caller holds the permission.
// Called at the top of every privileged treasury operation.
func (r *Registry) Require(_ *chain.Tx, caller core.Identity) error {
	if !r.allowed[caller] {
		return core.ErrUnauthorized
	}
	return nil
}

// IsAuthorized reports whether caller holds the permission.
func (r *Registry) IsAuthorized(caller core.Identity) bool {
	var ok bool
	r.chain.View(func() {
		ok = r.allowed[caller]
	})
	return ok
}

// Authorized lists all permitted identities, sorted.
func (r *Registry) Authorized() []core.Identity {
	var ids []core.Identity
	r.chain.View(func() {
		ids = make([]core.Identity, 0, len(r.allowed))
		for id := range r.allowed {
			ids = append(ids, id)
		}
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
