package state

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/veridex/reso-app/types"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrInstanceExists         = errors.New("instance already exists")
	ErrConcurrentModification = errors.New("concurrent modification")

	ErrInvalidTransition = errors.New("invalid transition")
	// StaleTransition: the instance is already finalized, so callers can
	// tell "already done" apart from a structurally invalid request.
	ErrStaleTransition = fmt.Errorf("%w: instance already finalized", ErrInvalidTransition)

	ErrNotAuthorized = errors.New("caller not authorized")
)

// TransitionEntry is one record of the append-only per-instance audit log.
// Entries are keccak chained; Hash covers the entry body and PrevHash.
type TransitionEntry struct {
	Seq      uint64         `json:"seq"`
	From     types.Stage    `json:"from"`
	To       types.Stage    `json:"to"`
	Op       string         `json:"op"`
	Caller   common.Address `json:"caller"`
	At       int64          `json:"at"`
	PrevHash common.Hash    `json:"prevHash"`
	Hash     common.Hash    `json:"hash"`
}

func (e *TransitionEntry) chain(prev common.Hash) {
	e.PrevHash = prev
	e.Hash = common.Hash{}
	dat, _ := json.Marshal(e)
	e.Hash = crypto.Keccak256Hash(dat)
}

// Store is the durable per-instance record. Commit is a compare-and-swap on
// the stored stage and is the sole concurrency-control primitive the state
// machine relies on: a transition computed against a stale read fails with
// ErrConcurrentModification instead of being applied.
type Store interface {
	CreateInstance(id uint64, designatedReporter common.Address, at int64) (*types.ResolutionInstance, error)
	Get(id uint64) (*types.ResolutionInstance, error)
	Commit(id uint64, expectedStage types.Stage, next *types.ResolutionInstance, entry *TransitionEntry) error
	// Range visits every instance until fn returns false. The scan is
	// restartable: each call starts a fresh pass over current state.
	Range(fn func(*types.ResolutionInstance) bool) error
	Transitions(id uint64) ([]TransitionEntry, error)
	Close() error
}
