package state

import (
	"encoding/json"
	"fmt"
	"sync"

	cosmoslog "cosmossdk.io/log"
	"github.com/cosmos/iavl"
	dbm "github.com/cosmos/iavl/db"
	"github.com/ethereum/go-ethereum/common"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/veridex/reso-app/types"
)

var (
	KeyInstanceBody  = "r%v"
	KeyInstanceHead  = "h%v"
	KeyTransitionLog = "t%v-%010v"
)

type logHead struct {
	Seq  uint64      `json:"seq"`
	Hash common.Hash `json:"hash"`
}

// StateDB is the durable ResolutionStore: a versioned iavl tree over
// goleveldb. Every Commit writes the instance body, appends the transition
// log entry and saves a tree version in one shot; a failed commit rolls the
// working set back so no partial transition is ever visible.
type StateDB struct {
	mtx sync.RWMutex

	dir    string
	logger cosmoslog.Logger
	db     *iavl.MutableTree
	dbVer  int64
}

var _ Store = &StateDB{}

func NewStateDB(dir string, logger cosmoslog.Logger) (db *StateDB, err error) {
	logger = logger.With("module", "resodb")
	ldb, err := dbm.NewDB("reso", "goleveldb", dir)
	if err != nil {
		return nil, err
	}
	tdb := iavl.NewMutableTree(ldb, 128, true, logger)
	version, err := tdb.Load()
	if err != nil {
		return nil, err
	}
	logger.Info("load db success", "version", version)
	db = &StateDB{
		dir:    dir,
		logger: logger,
		db:     tdb,
		dbVer:  version,
	}
	return
}

func (db *StateDB) get(key string) ([]byte, error) {
	val, err := db.db.Get([]byte(key))
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return val, nil
}

func (db *StateDB) getInstance(id uint64) (*types.ResolutionInstance, error) {
	val, err := db.get(fmt.Sprintf(KeyInstanceBody, id))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, ErrNotFound
	}
	inst := new(types.ResolutionInstance)
	if err := json.Unmarshal(val, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

func (db *StateDB) getHead(id uint64) (head logHead, err error) {
	val, err := db.get(fmt.Sprintf(KeyInstanceHead, id))
	if err != nil {
		return
	}
	if val == nil {
		return
	}
	err = json.Unmarshal(val, &head)
	return
}

func (db *StateDB) save() (err error) {
	_, ver, err := db.db.SaveVersion()
	if err != nil {
		db.db.Rollback()
		return
	}
	db.dbVer = ver
	return
}

func (db *StateDB) CreateInstance(id uint64, designatedReporter common.Address, at int64) (*types.ResolutionInstance, error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	existing, err := db.getInstance(id)
	if err != nil && err != ErrNotFound {
		return nil, err
	}
	if existing != nil {
		return nil, ErrInstanceExists
	}
	inst := &types.ResolutionInstance{
		Id:                 id,
		Stage:              types.StageUnreported,
		DesignatedReporter: designatedReporter,
		CreatedAt:          at,
	}
	val, err := json.Marshal(inst)
	if err != nil {
		return nil, err
	}
	if _, err = db.db.Set([]byte(fmt.Sprintf(KeyInstanceBody, id)), val); err != nil {
		db.db.Rollback()
		return nil, err
	}
	if err = db.save(); err != nil {
		return nil, err
	}
	db.logger.Info("instance created", "instance", id, "reporter", designatedReporter)
	return inst.Clone(), nil
}

func (db *StateDB) Get(id uint64) (*types.ResolutionInstance, error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	inst, err := db.getInstance(id)
	if err != nil {
		return nil, err
	}
	return inst.Clone(), nil
}

func (db *StateDB) Commit(id uint64, expectedStage types.Stage, next *types.ResolutionInstance, entry *TransitionEntry) error {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	cur, err := db.getInstance(id)
	if err != nil {
		return err
	}
	if cur.Stage != expectedStage {
		return ErrConcurrentModification
	}
	val, err := json.Marshal(next)
	if err != nil {
		return err
	}
	if _, err = db.db.Set([]byte(fmt.Sprintf(KeyInstanceBody, id)), val); err != nil {
		db.db.Rollback()
		return err
	}
	head, err := db.getHead(id)
	if err != nil {
		db.db.Rollback()
		return err
	}
	entry.Seq = head.Seq + 1
	entry.chain(head.Hash)
	entryBz, err := json.Marshal(entry)
	if err != nil {
		db.db.Rollback()
		return err
	}
	if _, err = db.db.Set([]byte(fmt.Sprintf(KeyTransitionLog, id, entry.Seq)), entryBz); err != nil {
		db.db.Rollback()
		return err
	}
	headBz, _ := json.Marshal(logHead{Seq: entry.Seq, Hash: entry.Hash})
	if _, err = db.db.Set([]byte(fmt.Sprintf(KeyInstanceHead, id)), headBz); err != nil {
		db.db.Rollback()
		return err
	}
	if err = db.save(); err != nil {
		return err
	}
	db.logger.Debug("transition committed", "instance", id, "from", entry.From.String(), "to", entry.To.String(), "op", entry.Op, "seq", entry.Seq)
	return nil
}

func (db *StateDB) Range(fn func(*types.ResolutionInstance) bool) error {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	start := []byte("r")
	end := PrefixEndBytes(start)
	it, err := db.db.Iterator(start, end, true)
	if err != nil {
		return err
	}
	defer it.Close()
	for ; it.Valid(); it.Next() {
		inst := new(types.ResolutionInstance)
		if err := json.Unmarshal(it.Value(), inst); err != nil {
			return err
		}
		if !fn(inst) {
			break
		}
	}
	return it.Error()
}

func (db *StateDB) Transitions(id uint64) ([]TransitionEntry, error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	start := []byte(fmt.Sprintf("t%v-", id))
	end := PrefixEndBytes(start)
	it, err := db.db.Iterator(start, end, true)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	entries := make([]TransitionEntry, 0)
	for ; it.Valid(); it.Next() {
		var e TransitionEntry
		if err := json.Unmarshal(it.Value(), &e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, it.Error()
}

func (db *StateDB) Close() error {
	return db.db.Close()
}

func PrefixEndBytes(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}

	end := make([]byte, len(prefix))
	copy(end, prefix)

	for {
		if end[len(end)-1] != byte(255) {
			end[len(end)-1]++
			break
		}

		end = end[:len(end)-1]

		if len(end) == 0 {
			end = nil
			break
		}
	}

	return end
}
