package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/veridex/reso-app/types"
)

// MockGateway is a scripted oracle for tests: each opened case stays pending
// for PendingPolls polls, then returns the scripted verdict.
type MockGateway struct {
	mtx sync.Mutex

	PendingPolls int
	Unavailable  bool

	verdicts map[uint64]*types.Verdict
	cases    map[string]uint64
	polls    map[string]int
	nextCase int
}

var _ Gateway = &MockGateway{}

func NewMockGateway() *MockGateway {
	return &MockGateway{
		verdicts: make(map[uint64]*types.Verdict),
		cases:    make(map[string]uint64),
		polls:    make(map[string]int),
	}
}

func (g *MockGateway) Script(instance uint64, verdict *types.Verdict) {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	g.verdicts[instance] = verdict
}

func (g *MockGateway) OpenCase(ctx context.Context, instance uint64, report, challenge types.OutcomeValues, evidence [][]byte) (string, error) {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	if g.Unavailable {
		return "", ErrGatewayUnavailable
	}
	g.nextCase++
	handle := fmt.Sprintf("case-%d", g.nextCase)
	g.cases[handle] = instance
	return handle, nil
}

func (g *MockGateway) PollVerdict(ctx context.Context, handle string) (*types.Verdict, error) {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	if g.Unavailable {
		return nil, ErrGatewayUnavailable
	}
	instance, ok := g.cases[handle]
	if !ok {
		return nil, ErrCaseNotFound
	}
	g.polls[handle]++
	if g.polls[handle] <= g.PendingPolls {
		return nil, ErrVerdictPending
	}
	v, ok := g.verdicts[instance]
	if !ok {
		return nil, ErrVerdictPending
	}
	return v, nil
}
