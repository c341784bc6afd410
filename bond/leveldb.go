package bond

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sync"

	cosmoslog "cosmossdk.io/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/syndtr/goleveldb/leveldb"
)

var (
	KeyBondBody   = "b%s"
	KeyBondCredit = "c%x"
)

// LevelLedger keeps escrow accounting in a local leveldb so held bonds
// survive a restart. Resolution of a bond is serialized by the ledger mutex
// and written in a single batch.
type LevelLedger struct {
	mtx      sync.Mutex
	logger   cosmoslog.Logger
	db       *leveldb.DB
	required Requirements
}

var _ Ledger = &LevelLedger{}

func NewLevelLedger(dir string, required Requirements, logger cosmoslog.Logger) (*LevelLedger, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, err
	}
	return &LevelLedger{
		logger:   logger.With("module", "bondledger"),
		db:       db,
		required: required,
	}, nil
}

func (l *LevelLedger) getBond(bondId string) (*Bond, error) {
	val, err := l.db.Get([]byte(fmt.Sprintf(KeyBondBody, bondId)), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, ErrBondNotFound
		}
		return nil, err
	}
	b := new(Bond)
	if err := json.Unmarshal(val, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (l *LevelLedger) putBond(batch *leveldb.Batch, b *Bond) error {
	val, err := json.Marshal(b)
	if err != nil {
		return err
	}
	batch.Put([]byte(fmt.Sprintf(KeyBondBody, b.Id)), val)
	return nil
}

func (l *LevelLedger) credit(batch *leveldb.Batch, addr common.Address, amount uint64) error {
	key := []byte(fmt.Sprintf(KeyBondCredit, addr))
	cur := uint64(0)
	val, err := l.db.Get(key, nil)
	if err != nil && err != leveldb.ErrNotFound {
		return err
	}
	if val != nil {
		cur = new(big.Int).SetBytes(val).Uint64()
	}
	batch.Put(key, new(big.Int).SetUint64(cur+amount).Bytes())
	return nil
}

func (l *LevelLedger) Deposit(owner common.Address, instance uint64, role Role, amount uint64) (string, error) {
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
	batch := new(leveldb.Batch)
	if err := l.putBond(batch, b); err != nil {
		return "", err
	}
	if err := l.db.Write(batch, nil); err != nil {
		return "", err
	}
	l.logger.Debug("bond held", "bond", b.Id, "owner", owner, "instance", instance, "amount", amount)
	return b.Id, nil
}

func (l *LevelLedger) resolve(bondId string, status Status, toParty common.Address) (*Bond, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	b, err := l.getBond(bondId)
	if err != nil {
		return nil, err
	}
	if b.Status != StatusHeld {
		return nil, ErrBondResolved
	}
	b.Status = status
	b.PaidTo = toParty
	batch := new(leveldb.Batch)
	if err := l.putBond(batch, b); err != nil {
		return nil, err
	}
	if err := l.credit(batch, toParty, b.Amount); err != nil {
		return nil, err
	}
	if err := l.db.Write(batch, nil); err != nil {
		return nil, err
	}
	l.logger.Debug("bond resolved", "bond", b.Id, "status", status.String(), "paidTo", toParty)
	return b, nil
}

func (l *LevelLedger) Release(bondId string) (*Bond, error) {
	b, err := l.getBond(bondId)
	if err != nil {
		return nil, err
	}
	return l.resolve(bondId, StatusReleased, b.Owner)
}

func (l *LevelLedger) Forfeit(bondId string, toParty common.Address) (*Bond, error) {
	return l.resolve(bondId, StatusForfeited, toParty)
}

func (l *LevelLedger) Get(bondId string) (*Bond, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.getBond(bondId)
}

func (l *LevelLedger) Balance(addr common.Address) uint64 {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	val, err := l.db.Get([]byte(fmt.Sprintf(KeyBondCredit, addr)), nil)
	if err != nil {
		return 0
	}
	return new(big.Int).SetBytes(val).Uint64()
}

func (l *LevelLedger) Close() error {
	return l.db.Close()
}
