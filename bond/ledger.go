package bond

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

type Status uint64

const (
	StatusHeld      Status = 1
	StatusReleased  Status = 2
	StatusForfeited Status = 3
)

func (s Status) String() string {
	switch s {
	case StatusHeld:
		return "held"
	case StatusReleased:
		return "released"
	case StatusForfeited:
		return "forfeited"
	}
	return "unknown"
}

type Role uint64

const (
	RoleReporter   Role = 1
	RoleChallenger Role = 2
)

var (
	ErrBondMismatch = errors.New("bond amount mismatch")
	ErrBondNotFound = errors.New("bond not found")
	ErrBondResolved = errors.New("bond already resolved")
)

type Bond struct {
	Id       string         `json:"id"`
	Owner    common.Address `json:"owner"`
	Amount   uint64         `json:"amount"`
	Instance uint64         `json:"instance"`
	Status   Status         `json:"status"`
	PaidTo   common.Address `json:"paidTo,omitempty"`
}

// Requirements fixes the exact stake a reporter or challenger must put up.
type Requirements struct {
	Reporter   uint64
	Challenger uint64
}

func (r Requirements) ForRole(role Role) uint64 {
	if role == RoleChallenger {
		return r.Challenger
	}
	return r.Reporter
}

// Ledger escrows reporter and challenger stakes. A bond resolves
// Held->Released or Held->Forfeited exactly once; concurrent resolution of
// the same bond admits a single winner.
type Ledger interface {
	Deposit(owner common.Address, instance uint64, role Role, amount uint64) (string, error)
	Release(bondId string) (*Bond, error)
	Forfeit(bondId string, toParty common.Address) (*Bond, error)
	Get(bondId string) (*Bond, error)
	// Balance is the net amount credited to addr by released and forfeited
	// bonds. Escrowed (held) amounts are not included.
	Balance(addr common.Address) uint64
	Close() error
}

type MemLedger struct {
	mtx      sync.Mutex
	required Requirements
	bonds    map[string]*Bond
	credits  map[common.Address]uint64
}

var _ Ledger = &MemLedger{}

func NewMemLedger(required Requirements) *MemLedger {
	return &MemLedger{
		required: required,
		bonds:    make(map[string]*Bond),
		credits:  make(map[common.Address]uint64),
	}
}

func (l *MemLedger) Deposit(owner common.Address, instance uint64, role Role, amount uint64) (string, error) {
	if amount != l.required.ForRole(role) {
		return "", ErrBondMismatch
	}
	l.mtx.Lock()
	defer l.mtx.Unlock()
	b := &Bond{
		Id:       uuid.NewString(),
		Owner:    owner,
		Amount:   amount,
		Instance: instance,
		Status:   StatusHeld,
	}
	l.bonds[b.Id] = b
	return b.Id, nil
}

func (l *MemLedger) Release(bondId string) (*Bond, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	b, ok := l.bonds[bondId]
	if !ok {
		return nil, ErrBondNotFound
	}
	if b.Status != StatusHeld {
		return nil, ErrBondResolved
	}
	b.Status = StatusReleased
	b.PaidTo = b.Owner
	l.credits[b.Owner] += b.Amount
	n := *b
	return &n, nil
}

func (l *MemLedger) Forfeit(bondId string, toParty common.Address) (*Bond, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	b, ok := l.bonds[bondId]
	if !ok {
		return nil, ErrBondNotFound
	}
	if b.Status != StatusHeld {
		return nil, ErrBondResolved
	}
	b.Status = StatusForfeited
	b.PaidTo = toParty
	l.credits[toParty] += b.Amount
	n := *b
	return &n, nil
}

func (l *MemLedger) Get(bondId string) (*Bond, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	b, ok := l.bonds[bondId]
	if !ok {
		return nil, ErrBondNotFound
	}
	n := *b
	return &n, nil
}

func (l *MemLedger) Balance(addr common.Address) uint64 {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.credits[addr]
}

func (l *MemLedger) Close() error {
	return nil
}
