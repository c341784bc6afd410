package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	cosmoslog "cosmossdk.io/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/veridex/reso-app/bond"
	"github.com/veridex/reso-app/gateway"
	"github.com/veridex/reso-app/state"
	"github.com/veridex/reso-app/types"
)

const eventBufSize = 256

// Service owns the mutable lifecycle of resolution instances. Each operation
// re-reads current state, runs the state machine against the snapshot and
// commits through the store's CAS; instances are independent, so operations
// on different instances never contend beyond the store lock.
type Service struct {
	logger  cosmoslog.Logger
	store   state.Store
	ledger  bond.Ledger
	gw      gateway.Gateway
	machine *state.Machine

	finalizers map[common.Address]bool
	relayer    common.Address

	now func() time.Time

	metrics *Metrics
	events  chan types.Event
}

func NewService(store state.Store, ledger bond.Ledger, gw gateway.Gateway, machine *state.Machine,
	finalizers map[common.Address]bool, relayer common.Address, logger cosmoslog.Logger) *Service {
	return &Service{
		logger:     logger.With("module", "service"),
		store:      store,
		ledger:     ledger,
		gw:         gw,
		machine:    machine,
		finalizers: finalizers,
		relayer:    relayer,
		now:        time.Now,
		metrics:    NewMetrics(),
		events:     make(chan types.Event, eventBufSize),
	}
}

// Events is the stage-transition and bond-settlement notification stream.
// Consumers that fall behind lose events; the stream is observability only.
func (s *Service) Events() <-chan types.Event {
	return s.events
}

func (s *Service) emit(ev types.Event) {
	select {
	case s.events <- ev:
	default:
		s.logger.Error("event dropped", "type", ev.Type())
	}
}

func (s *Service) authorizeFinalizer(caller common.Address) error {
	if !s.finalizers[caller] {
		return fmt.Errorf("%w: %s is not a finalizer", state.ErrNotAuthorized, caller)
	}
	return nil
}

func (s *Service) CreateInstance(caller common.Address, id uint64, designatedReporter common.Address) (*types.ResolutionInstance, error) {
	if err := s.authorizeFinalizer(caller); err != nil {
		s.metrics.Fail("createInstance")
		return nil, err
	}
	now := s.now().Unix()
	inst, err := s.store.CreateInstance(id, designatedReporter, now)
	if err != nil {
		s.metrics.Fail("createInstance")
		return nil, err
	}
	s.metrics.Ok("createInstance")
	s.emit(&types.EventCreate{Instance: id, DesignatedReporter: designatedReporter, At: now})
	return inst, nil
}

func (s *Service) SubmitReport(caller common.Address, id uint64, pass, fail uint64, evidence []byte, amount uint64) (*types.ResolutionInstance, error) {
	inst, err := s.submitReport(caller, id, pass, fail, evidence, amount)
	if err != nil {
		s.metrics.Fail(state.OpSubmitReport)
		return nil, err
	}
	s.metrics.Ok(state.OpSubmitReport)
	return inst, nil
}

func (s *Service) submitReport(caller common.Address, id uint64, pass, fail uint64, evidence []byte, amount uint64) (*types.ResolutionInstance, error) {
	inst, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	// Dry-run before taking the deposit so an invalid transition has no
	// bond side effects at all.
	if _, err := s.machine.SubmitReport(inst, caller, pass, fail, evidence, "", now); err != nil {
		return nil, err
	}
	bondId, err := s.ledger.Deposit(caller, id, bond.RoleReporter, amount)
	if err != nil {
		return nil, err
	}
	next, err := s.machine.SubmitReport(inst, caller, pass, fail, evidence, bondId, now)
	if err != nil {
		s.compensate(bondId)
		return nil, err
	}
	entry := &state.TransitionEntry{
		From: inst.Stage, To: next.Stage, Op: state.OpSubmitReport, Caller: caller, At: now.Unix(),
	}
	if err := s.store.Commit(id, inst.Stage, next, entry); err != nil {
		s.compensate(bondId)
		return nil, err
	}
	s.emit(&types.EventReport{
		Instance: id, Reporter: caller, Pass: pass, Fail: fail,
		BondId: bondId, ChallengeDeadline: next.ChallengeDeadline, At: now.Unix(),
	})
	s.emit(&types.EventBond{Instance: id, BondId: bondId, Owner: caller, Amount: amount, Status: bond.StatusHeld.String(), At: now.Unix()})
	return next, nil
}

func (s *Service) SubmitChallenge(caller common.Address, id uint64, pass, fail uint64, evidence []byte, amount uint64) (*types.ResolutionInstance, error) {
	inst, err := s.submitChallenge(caller, id, pass, fail, evidence, amount)
	if err != nil {
		s.metrics.Fail(state.OpSubmitChallenge)
		return nil, err
	}
	s.metrics.Ok(state.OpSubmitChallenge)
	return inst, nil
}

func (s *Service) submitChallenge(caller common.Address, id uint64, pass, fail uint64, evidence []byte, amount uint64) (*types.ResolutionInstance, error) {
	inst, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if _, err := s.machine.SubmitChallenge(inst, caller, pass, fail, evidence, "", now); err != nil {
		return nil, err
	}
	bondId, err := s.ledger.Deposit(caller, id, bond.RoleChallenger, amount)
	if err != nil {
		return nil, err
	}
	next, err := s.machine.SubmitChallenge(inst, caller, pass, fail, evidence, bondId, now)
	if err != nil {
		s.compensate(bondId)
		return nil, err
	}
	entry := &state.TransitionEntry{
		From: inst.Stage, To: next.Stage, Op: state.OpSubmitChallenge, Caller: caller, At: now.Unix(),
	}
	if err := s.store.Commit(id, inst.Stage, next, entry); err != nil {
		s.compensate(bondId)
		return nil, err
	}
	s.emit(&types.EventChallenge{Instance: id, Challenger: caller, Pass: pass, Fail: fail, BondId: bondId, At: now.Unix()})
	s.emit(&types.EventBond{Instance: id, BondId: bondId, Owner: caller, Amount: amount, Status: bond.StatusHeld.String(), At: now.Unix()})
	return next, nil
}

// compensate returns a deposit taken for a transition that lost its commit.
func (s *Service) compensate(bondId string) {
	if _, err := s.ledger.Release(bondId); err != nil {
		s.logger.Error("compensating release fail", "bond", bondId, "err", err)
	}
}

func (s *Service) Finalize(caller common.Address, id uint64, acceptChallenge bool) (*types.ResolutionInstance, error) {
	if err := s.authorizeFinalizer(caller); err != nil {
		s.metrics.Fail(state.OpFinalize)
		return nil, err
	}
	inst, err := s.store.Get(id)
	if err != nil {
		s.metrics.Fail(state.OpFinalize)
		return nil, err
	}
	now := s.now()
	next, ops, prevailed, err := s.machine.Finalize(inst, acceptChallenge, now)
	if err != nil {
		s.metrics.Fail(state.OpFinalize)
		return nil, err
	}
	entry := &state.TransitionEntry{
		From: inst.Stage, To: next.Stage, Op: state.OpFinalize, Caller: caller, At: now.Unix(),
	}
	if err := s.store.Commit(id, inst.Stage, next, entry); err != nil {
		s.metrics.Fail(state.OpFinalize)
		return nil, err
	}
	s.settleBonds(id, ops, now)
	s.metrics.Ok(state.OpFinalize)
	s.emit(&types.EventFinalize{
		Instance: id, Caller: caller, Pass: next.FinalValues.Pass, Fail: next.FinalValues.Fail,
		Prevailed: prevailed, At: now.Unix(),
	})
	return next, nil
}

func (s *Service) Escalate(caller common.Address, id uint64) (*types.ResolutionInstance, error) {
	if err := s.authorizeFinalizer(caller); err != nil {
		s.metrics.Fail(state.OpEscalate)
		return nil, err
	}
	inst, err := s.store.Get(id)
	if err != nil {
		s.metrics.Fail(state.OpEscalate)
		return nil, err
	}
	now := s.now()
	// Validate the transition before opening an oracle case so an invalid
	// escalation never reaches the gateway.
	if _, err := s.machine.Escalate(inst, "", now); err != nil {
		s.metrics.Fail(state.OpEscalate)
		return nil, err
	}
	evidence := [][]byte{inst.Report.Evidence, inst.Challenge.Evidence}
	handle, err := s.gw.OpenCase(context.Background(), id, inst.Report.Values(), inst.Challenge.Values(), evidence)
	if err != nil {
		s.metrics.Fail(state.OpEscalate)
		return nil, err
	}
	next, err := s.machine.Escalate(inst, handle, now)
	if err != nil {
		s.metrics.Fail(state.OpEscalate)
		return nil, err
	}
	entry := &state.TransitionEntry{
		From: inst.Stage, To: next.Stage, Op: state.OpEscalate, Caller: caller, At: now.Unix(),
	}
	if err := s.store.Commit(id, inst.Stage, next, entry); err != nil {
		// The oracle case is orphaned; a retried escalate opens a new one.
		s.logger.Error("escalate lost commit, oracle case orphaned", "instance", id, "handle", handle)
		s.metrics.Fail(state.OpEscalate)
		return nil, err
	}
	s.metrics.Ok(state.OpEscalate)
	s.emit(&types.EventEscalate{
		Instance: id, Caller: caller, DisputeHandle: handle,
		SettlementDeadline: next.SettlementDeadline, At: now.Unix(),
	})
	return next, nil
}

func (s *Service) ResolveDispute(caller common.Address, id uint64, disputeHandle string, verdict *types.Verdict) (*types.ResolutionInstance, error) {
	if caller != s.relayer && !s.finalizers[caller] {
		s.metrics.Fail(state.OpResolveDispute)
		return nil, fmt.Errorf("%w: %s may not deliver verdicts", state.ErrNotAuthorized, caller)
	}
	inst, err := s.applyVerdict(caller, id, disputeHandle, verdict)
	if err != nil {
		s.metrics.Fail(state.OpResolveDispute)
		return nil, err
	}
	s.metrics.Ok(state.OpResolveDispute)
	return inst, nil
}

func (s *Service) applyVerdict(caller common.Address, id uint64, disputeHandle string, verdict *types.Verdict) (*types.ResolutionInstance, error) {
	inst, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	next, ops, err := s.machine.ResolveDispute(inst, disputeHandle, verdict, now)
	if err != nil {
		return nil, err
	}
	entry := &state.TransitionEntry{
		From: inst.Stage, To: next.Stage, Op: state.OpResolveDispute, Caller: caller, At: now.Unix(),
	}
	if err := s.store.Commit(id, inst.Stage, next, entry); err != nil {
		return nil, err
	}
	s.settleBonds(id, ops, now)
	s.emit(&types.EventVerdict{
		Instance: id, DisputeHandle: inst.DisputeHandle,
		Pass: verdict.Pass, Fail: verdict.Fail, Prevailed: verdict.Prevailed, At: now.Unix(),
	})
	return next, nil
}

// settleBonds applies the settlement of a committed finalizing transition.
// The CAS win gates this to exactly one caller per instance, and the ledger
// refuses to resolve a bond twice.
func (s *Service) settleBonds(id uint64, ops []state.BondOp, now time.Time) {
	for _, op := range ops {
		var (
			b   *bond.Bond
			err error
		)
		if op.Forfeit {
			b, err = s.ledger.Forfeit(op.BondId, op.To)
		} else {
			b, err = s.ledger.Release(op.BondId)
		}
		if err != nil {
			s.logger.Error("bond settlement fail", "instance", id, "bond", op.BondId, "err", err)
			continue
		}
		s.emit(&types.EventBond{
			Instance: id, BondId: b.Id, Owner: b.Owner, Amount: b.Amount,
			Status: b.Status.String(), PaidTo: b.PaidTo, At: now.Unix(),
		})
	}
}

// ArchiveInstance flags a finalized instance for retention; the record stays
// readable.
func (s *Service) ArchiveInstance(caller common.Address, id uint64) (*types.ResolutionInstance, error) {
	if err := s.authorizeFinalizer(caller); err != nil {
		s.metrics.Fail(state.OpArchive)
		return nil, err
	}
	inst, err := s.store.Get(id)
	if err != nil {
		s.metrics.Fail(state.OpArchive)
		return nil, err
	}
	next, err := s.machine.Archive(inst)
	if err != nil {
		s.metrics.Fail(state.OpArchive)
		return nil, err
	}
	now := s.now()
	entry := &state.TransitionEntry{
		From: inst.Stage, To: next.Stage, Op: state.OpArchive, Caller: caller, At: now.Unix(),
	}
	if err := s.store.Commit(id, inst.Stage, next, entry); err != nil {
		s.metrics.Fail(state.OpArchive)
		return nil, err
	}
	s.metrics.Ok(state.OpArchive)
	s.emit(&types.EventArchive{Instance: id, Caller: caller, At: now.Unix()})
	return next, nil
}

func (s *Service) GetInstance(id uint64) (*types.ResolutionInstance, error) {
	return s.store.Get(id)
}

// ListInstances snapshots every instance in the given stage; stage 0 lists
// all. The underlying scan is restartable, so each call sees current state.
func (s *Service) ListInstances(stage types.Stage) ([]*types.ResolutionInstance, error) {
	insts := make([]*types.ResolutionInstance, 0)
	err := s.store.Range(func(inst *types.ResolutionInstance) bool {
		if stage == 0 || inst.Stage == stage {
			insts = append(insts, inst)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return insts, nil
}

func (s *Service) Transitions(id uint64) ([]state.TransitionEntry, error) {
	return s.store.Transitions(id)
}

// WatchDisputes polls the oracle for every instance parked in Dispute and
// applies verdicts as they land. Pending is normal and unbounded; a missed
// settlement deadline is alerted on but never auto-resolved.
func (s *Service) WatchDisputes(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollDisputes(ctx)
		}
	}
}

func (s *Service) pollDisputes(ctx context.Context) {
	all, err := s.ListInstances(0)
	if err != nil {
		s.logger.Error("list instances fail", "err", err)
		return
	}
	counts := make(map[types.Stage]int)
	disputes := make([]*types.ResolutionInstance, 0)
	for _, inst := range all {
		counts[inst.Stage]++
		if inst.Stage == types.StageDispute {
			disputes = append(disputes, inst)
		}
	}
	for _, stage := range []types.Stage{
		types.StageUnreported, types.StageDesignatedReporting,
		types.StageOpenChallenge, types.StageDispute, types.StageFinalized,
	} {
		s.metrics.SetStageCount(stage.String(), counts[stage])
	}
	for _, inst := range disputes {
		if inst.SettlementDeadline != 0 && s.now().Unix() >= inst.SettlementDeadline {
			s.logger.Error("dispute past settlement deadline", "instance", inst.Id, "handle", inst.DisputeHandle)
		}
		verdict, err := s.gw.PollVerdict(ctx, inst.DisputeHandle)
		if err != nil {
			if errors.Is(err, gateway.ErrVerdictPending) {
				continue
			}
			s.logger.Error("poll verdict fail", "instance", inst.Id, "err", err)
			continue
		}
		if _, err := s.applyVerdict(s.relayer, inst.Id, inst.DisputeHandle, verdict); err != nil {
			// A concurrent manual relay may have landed first; the
			// Finalized guard makes duplicate delivery harmless.
			s.logger.Info("apply verdict skipped", "instance", inst.Id, "err", err)
		}
	}
}
