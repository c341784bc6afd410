package state

import (
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/veridex/reso-app/types"
)

// MemStore implements Store in memory with the same CAS semantics as
// StateDB. Used by tests and as a scratch store.
type MemStore struct {
	mtx       sync.RWMutex
	instances map[uint64]*types.ResolutionInstance
	logs      map[uint64][]TransitionEntry
}

var _ Store = &MemStore{}

func NewMemStore() *MemStore {
	return &MemStore{
		instances: make(map[uint64]*types.ResolutionInstance),
		logs:      make(map[uint64][]TransitionEntry),
	}
}

func (s *MemStore) CreateInstance(id uint64, designatedReporter common.Address, at int64) (*types.ResolutionInstance, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if _, ok := s.instances[id]; ok {
		return nil, ErrInstanceExists
	}
	inst := &types.ResolutionInstance{
		Id:                 id,
		Stage:              types.StageUnreported,
		DesignatedReporter: designatedReporter,
		CreatedAt:          at,
	}
	s.instances[id] = inst
	return inst.Clone(), nil
}

func (s *MemStore) Get(id uint64) (*types.ResolutionInstance, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	inst, ok := s.instances[id]
	if !ok {
		return nil, ErrNotFound
	}
	return inst.Clone(), nil
}

func (s *MemStore) Commit(id uint64, expectedStage types.Stage, next *types.ResolutionInstance, entry *TransitionEntry) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	cur, ok := s.instances[id]
	if !ok {
		return ErrNotFound
	}
	if cur.Stage != expectedStage {
		return ErrConcurrentModification
	}
	log := s.logs[id]
	entry.Seq = uint64(len(log)) + 1
	prev := common.Hash{}
	if len(log) > 0 {
		prev = log[len(log)-1].Hash
	}
	entry.chain(prev)
	s.logs[id] = append(log, *entry)
	s.instances[id] = next.Clone()
	return nil
}

func (s *MemStore) Range(fn func(*types.ResolutionInstance) bool) error {
	s.mtx.RLock()
	ids := make([]uint64, 0, len(s.instances))
	for id := range s.instances {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	snapshot := make([]*types.ResolutionInstance, 0, len(ids))
	for _, id := range ids {
		snapshot = append(snapshot, s.instances[id].Clone())
	}
	s.mtx.RUnlock()
	for _, inst := range snapshot {
		if !fn(inst) {
			break
		}
	}
	return nil
}

func (s *MemStore) Transitions(id uint64) ([]TransitionEntry, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	if _, ok := s.instances[id]; !ok {
		return nil, ErrNotFound
	}
	return append([]TransitionEntry(nil), s.logs[id]...), nil
}

func (s *MemStore) Close() error {
	return nil
}
