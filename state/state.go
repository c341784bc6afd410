package state

import (
	"fmt"
	"time"

	cosmoslog "cosmossdk.io/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/veridex/reso-app/types"
)

const (
	OpSubmitReport    = "submitReport"
	OpSubmitChallenge = "submitChallenge"
	OpFinalize        = "finalize"
	OpEscalate        = "escalate"
	OpResolveDispute  = "resolveDispute"
	OpArchive         = "archive"
)

// BondOp is a settlement instruction computed by a finalizing transition.
// Ops are applied against the ledger only after the transition commits.
type BondOp struct {
	Forfeit bool
	BondId  string
	To      common.Address
}

// Machine validates stage transitions and computes the next instance
// snapshot plus the bond settlement of terminal transitions. It holds no
// mutable state of its own; every method takes the current snapshot and
// returns the next one, leaving the input untouched.
type Machine struct {
	logger           cosmoslog.Logger
	challengePeriod  time.Duration
	settlementWindow time.Duration
}

func NewMachine(challengePeriod, settlementWindow time.Duration, logger cosmoslog.Logger) *Machine {
	return &Machine{
		logger:           logger.With("module", "machine"),
		challengePeriod:  challengePeriod,
		settlementWindow: settlementWindow,
	}
}

func (m *Machine) SubmitReport(inst *types.ResolutionInstance, reporter common.Address, pass, fail uint64, evidence []byte, bondId string, now time.Time) (*types.ResolutionInstance, error) {
	if inst.Stage == types.StageFinalized {
		return nil, ErrStaleTransition
	}
	if inst.Stage != types.StageUnreported || inst.Report != nil {
		return nil, fmt.Errorf("%w: report already submitted", ErrInvalidTransition)
	}
	if reporter != inst.DesignatedReporter {
		return nil, fmt.Errorf("%w: not the designated reporter", ErrNotAuthorized)
	}
	next := inst.Clone()
	next.Stage = types.StageDesignatedReporting
	next.Report = &types.Report{
		SubmittedBy: reporter,
		Pass:        pass,
		Fail:        fail,
		Evidence:    evidence,
		SubmittedAt: now.Unix(),
		BondId:      bondId,
	}
	next.ChallengeDeadline = now.Add(m.challengePeriod).Unix()
	m.logger.Debug("report recorded", "instance", inst.Id, "reporter", reporter, "deadline", next.ChallengeDeadline)
	return next, nil
}

func (m *Machine) SubmitChallenge(inst *types.ResolutionInstance, challenger common.Address, pass, fail uint64, evidence []byte, bondId string, now time.Time) (*types.ResolutionInstance, error) {
	if inst.Stage == types.StageFinalized {
		return nil, ErrStaleTransition
	}
	if inst.Stage != types.StageDesignatedReporting {
		return nil, fmt.Errorf("%w: no open report to challenge", ErrInvalidTransition)
	}
	if inst.Challenge != nil {
		return nil, fmt.Errorf("%w: challenge already submitted", ErrInvalidTransition)
	}
	if now.Unix() >= inst.ChallengeDeadline {
		return nil, fmt.Errorf("%w: challenge period elapsed", ErrInvalidTransition)
	}
	next := inst.Clone()
	next.Stage = types.StageOpenChallenge
	next.Challenge = &types.Report{
		SubmittedBy: challenger,
		Pass:        pass,
		Fail:        fail,
		Evidence:    evidence,
		SubmittedAt: now.Unix(),
		BondId:      bondId,
	}
	m.logger.Debug("challenge recorded", "instance", inst.Id, "challenger", challenger)
	return next, nil
}

// Finalize ends an uncontested report after its challenge period, or
// settles a contested one by accepting or rejecting the challenge. The
// prevailing party takes both bonds on a contested settlement.
func (m *Machine) Finalize(inst *types.ResolutionInstance, acceptChallenge bool, now time.Time) (*types.ResolutionInstance, []BondOp, types.Party, error) {
	switch inst.Stage {
	case types.StageFinalized:
		return nil, nil, 0, ErrStaleTransition
	case types.StageDesignatedReporting:
		if now.Unix() < inst.ChallengeDeadline {
			return nil, nil, 0, fmt.Errorf("%w: challenge period still open", ErrInvalidTransition)
		}
		next := m.finalized(inst, inst.Report.Values(), now)
		ops := []BondOp{{BondId: inst.Report.BondId}}
		return next, ops, types.PartyReporter, nil
	case types.StageOpenChallenge:
		if acceptChallenge {
			next := m.finalized(inst, inst.Challenge.Values(), now)
			ops := []BondOp{
				{Forfeit: true, BondId: inst.Report.BondId, To: inst.Challenge.SubmittedBy},
				{BondId: inst.Challenge.BondId},
			}
			return next, ops, types.PartyChallenger, nil
		}
		next := m.finalized(inst, inst.Report.Values(), now)
		ops := []BondOp{
			{Forfeit: true, BondId: inst.Challenge.BondId, To: inst.Report.SubmittedBy},
			{BondId: inst.Report.BondId},
		}
		return next, ops, types.PartyReporter, nil
	default:
		return nil, nil, 0, fmt.Errorf("%w: cannot finalize from stage %v", ErrInvalidTransition, inst.Stage)
	}
}

// Escalate parks a contested resolution in Dispute pending an external
// verdict. Only reachable from OpenChallenge: an unchallenged report can
// only be finalized directly.
func (m *Machine) Escalate(inst *types.ResolutionInstance, disputeHandle string, now time.Time) (*types.ResolutionInstance, error) {
	if inst.Stage == types.StageFinalized {
		return nil, ErrStaleTransition
	}
	if inst.Stage != types.StageOpenChallenge {
		return nil, fmt.Errorf("%w: cannot escalate from stage %v", ErrInvalidTransition, inst.Stage)
	}
	next := inst.Clone()
	next.Stage = types.StageDispute
	next.DisputeHandle = disputeHandle
	next.SettlementDeadline = now.Add(m.settlementWindow).Unix()
	m.logger.Debug("escalated", "instance", inst.Id, "handle", disputeHandle)
	return next, nil
}

// ResolveDispute applies an oracle verdict. The verdict must answer the
// case recorded on the instance: a lost escalate commit can orphan an oracle
// case, and a ruling for the orphaned handle must not settle the instance.
func (m *Machine) ResolveDispute(inst *types.ResolutionInstance, disputeHandle string, verdict *types.Verdict, now time.Time) (*types.ResolutionInstance, []BondOp, error) {
	if inst.Stage == types.StageFinalized {
		return nil, nil, ErrStaleTransition
	}
	if inst.Stage != types.StageDispute {
		return nil, nil, fmt.Errorf("%w: instance not in dispute", ErrInvalidTransition)
	}
	if disputeHandle != inst.DisputeHandle {
		return nil, nil, fmt.Errorf("%w: verdict answers case %q, open dispute is %q", ErrInvalidTransition, disputeHandle, inst.DisputeHandle)
	}
	if verdict.Prevailed != types.PartyReporter && verdict.Prevailed != types.PartyChallenger {
		return nil, nil, fmt.Errorf("%w: verdict names no prevailing party", ErrInvalidTransition)
	}
	next := m.finalized(inst, types.OutcomeValues{Pass: verdict.Pass, Fail: verdict.Fail}, now)
	var ops []BondOp
	if verdict.Prevailed == types.PartyChallenger {
		ops = []BondOp{
			{Forfeit: true, BondId: inst.Report.BondId, To: inst.Challenge.SubmittedBy},
			{BondId: inst.Challenge.BondId},
		}
	} else {
		ops = []BondOp{
			{Forfeit: true, BondId: inst.Challenge.BondId, To: inst.Report.SubmittedBy},
			{BondId: inst.Report.BondId},
		}
	}
	m.logger.Debug("dispute resolved", "instance", inst.Id, "prevailed", verdict.Prevailed.String())
	return next, ops, nil
}

// Archive marks a finalized instance as archived. The record stays readable
// and immutable; archiving is the one operation valid after finalization.
func (m *Machine) Archive(inst *types.ResolutionInstance) (*types.ResolutionInstance, error) {
	if inst.Stage != types.StageFinalized {
		return nil, fmt.Errorf("%w: only finalized instances can be archived", ErrInvalidTransition)
	}
	if inst.Archived {
		return nil, fmt.Errorf("%w: already archived", ErrInvalidTransition)
	}
	next := inst.Clone()
	next.Archived = true
	return next, nil
}

func (m *Machine) finalized(inst *types.ResolutionInstance, values types.OutcomeValues, now time.Time) *types.ResolutionInstance {
	next := inst.Clone()
	next.Stage = types.StageFinalized
	next.FinalValues = &values
	next.FinalizedAt = now.Unix()
	return next
}
