// Package randomness turns chain entropy into a card colour.
//
// The draw for a game opened at height h uses only the entropy sealed at
// height h+1, which did not exist when the stake was committed.
//
// Rule v1:
//
//	digest = SHA3-256("cardflip/v1" || entropy(h+1) || uint64be(h))
//	colour = Red if digest[31]&1 == 0, Black otherwise
//
// Changing the rule changes the result of past games; a new rule must get a
// new version number and settled games keep the version they were drawn with.
package randomness

import (
	"encoding/binary"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/crypto/sha3"

	"github.com/vovakirdan/cardflip/internal/chain"
	"github.com/vovakirdan/cardflip/internal/core"
)

// RuleVersion identifies the bit-extraction rule implemented by Derive.
const RuleVersion = 1

var domainTag = []byte("cardflip/v1")

// DefaultCacheSize is used when the adapter is created with a non-positive size.
const DefaultCacheSize = 1024

// Derive applies rule v1 to the entropy sealed one height after commitIndex.
func Derive(entropy [32]byte, commitIndex uint64) core.Choice {
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], commitIndex)

	d := sha3.New256()
	d.Write(domainTag)
	d.Write(entropy[:])
	d.Write(idx[:])
	sum := d.Sum(nil)

	if sum[len(sum)-1]&1 == 0 {
		return core.Red
	}
	return core.Black
}

// Adapter draws outcomes from the chain and memoises them per commit index.
// Sealed entropy never changes, so cached draws stay valid. An Adapter must
// only ever be used with one chain.
type Adapter struct {
	cache *lru.Cache
}

// New creates an adapter with an LRU cache of the given size.
func New(cacheSize int) (*Adapter, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("randomness: cannot create cache: %w", err)
	}
	return &Adapter{cache: cache}, nil
}

// DeriveOutcome returns the colour drawn for a game committed at commitIndex.
// It refuses with ErrTooEarly while height commitIndex+1 is not sealed.
func (a *Adapter) DeriveOutcome(tx *chain.Tx, commitIndex uint64) (core.Choice, error) {
	if v, ok := a.cache.Get(commitIndex); ok {
		return v.(core.Choice), nil
	}

	entropy, err := tx.EntropyAt(commitIndex + 1)
	if errors.Is(err, chain.ErrEntropyUnavailable) {
		return 0, core.ErrTooEarly
	}
	if err != nil {
		return 0, err
	}

	c := Derive(entropy, commitIndex)
	a.cache.Add(commitIndex, c)
	return c, nil
}
