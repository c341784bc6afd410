package state

import (
	"errors"
	"testing"
	"time"

	cosmoslog "cosmossdk.io/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/veridex/reso-app/types"
)

var (
	reporter   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	challenger = common.HexToAddress("0x2222222222222222222222222222222222222222")
	stranger   = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

const (
	testChallengePeriod  = 3 * 24 * time.Hour
	testSettlementWindow = 14 * 24 * time.Hour
)

func newTestMachine() *Machine {
	return NewMachine(testChallengePeriod, testSettlementWindow, cosmoslog.NewNopLogger())
}

func newUnreported(id uint64) *types.ResolutionInstance {
	return &types.ResolutionInstance{
		Id:                 id,
		Stage:              types.StageUnreported,
		DesignatedReporter: reporter,
		CreatedAt:          time.Unix(1000, 0).Unix(),
	}
}

func mustReport(t *testing.T, m *Machine, inst *types.ResolutionInstance, now time.Time) *types.ResolutionInstance {
	t.Helper()
	next, err := m.SubmitReport(inst, reporter, 80, 20, []byte("evidence"), "bond-r", now)
	if err != nil {
		t.Fatalf("submit report err: %v", err)
	}
	return next
}

func mustChallenge(t *testing.T, m *Machine, inst *types.ResolutionInstance, now time.Time) *types.ResolutionInstance {
	t.Helper()
	next, err := m.SubmitChallenge(inst, challenger, 10, 90, []byte("counter"), "bond-c", now)
	if err != nil {
		t.Fatalf("submit challenge err: %v", err)
	}
	return next
}

func TestSubmitReport_OnlyDesignatedReporter(t *testing.T) {
	m := newTestMachine()
	inst := newUnreported(1)

	_, err := m.SubmitReport(inst, stranger, 80, 20, nil, "bond-r", time.Unix(2000, 0))
	if !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestSubmitReport_SetsDeadlineAndValues(t *testing.T) {
	m := newTestMachine()
	inst := newUnreported(1)
	now := time.Unix(2000, 0)

	next := mustReport(t, m, inst, now)
	if next.Stage != types.StageDesignatedReporting {
		t.Errorf("expected designated reporting stage, got %v", next.Stage)
	}
	wantDeadline := now.Add(testChallengePeriod).Unix()
	if next.ChallengeDeadline != wantDeadline {
		t.Errorf("expected deadline %v, got %v", wantDeadline, next.ChallengeDeadline)
	}
	if next.Report == nil || next.Report.Pass != 80 || next.Report.Fail != 20 {
		t.Errorf("report values not recorded: %+v", next.Report)
	}
	if inst.Stage != types.StageUnreported || inst.Report != nil {
		t.Error("input snapshot was mutated")
	}
}

func TestSubmitReport_Twice(t *testing.T) {
	m := newTestMachine()
	now := time.Unix(2000, 0)
	reported := mustReport(t, m, newUnreported(1), now)

	_, err := m.SubmitReport(reported, reporter, 80, 20, nil, "bond-r2", now)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestSubmitChallenge_DeadlineBoundary(t *testing.T) {
	m := newTestMachine()
	now := time.Unix(2000, 0)
	reported := mustReport(t, m, newUnreported(1), now)
	deadline := time.Unix(reported.ChallengeDeadline, 0)

	// One second inside the window is accepted.
	next, err := m.SubmitChallenge(reported, challenger, 10, 90, nil, "bond-c", deadline.Add(-time.Second))
	if err != nil {
		t.Fatalf("challenge inside window err: %v", err)
	}
	if next.Stage != types.StageOpenChallenge {
		t.Errorf("expected open challenge stage, got %v", next.Stage)
	}

	// At the deadline itself the window is closed.
	_, err = m.SubmitChallenge(reported, challenger, 10, 90, nil, "bond-c", deadline)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition at deadline, got %v", err)
	}
}

func TestSubmitChallenge_Twice(t *testing.T) {
	m := newTestMachine()
	now := time.Unix(2000, 0)
	reported := mustReport(t, m, newUnreported(1), now)
	challenged := mustChallenge(t, m, reported, now.Add(time.Hour))

	_, err := m.SubmitChallenge(challenged, stranger, 50, 50, nil, "bond-c2", now.Add(2*time.Hour))
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestFinalize_UncontestedTimeout(t *testing.T) {
	m := newTestMachine()
	now := time.Unix(2000, 0)
	reported := mustReport(t, m, newUnreported(1), now)

	// Still inside the challenge period.
	_, _, _, err := m.Finalize(reported, false, now.Add(time.Hour))
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition before deadline, got %v", err)
	}

	at := time.Unix(reported.ChallengeDeadline, 0)
	next, ops, prevailed, err := m.Finalize(reported, false, at)
	if err != nil {
		t.Fatalf("finalize err: %v", err)
	}
	if next.Stage != types.StageFinalized {
		t.Errorf("expected finalized stage, got %v", next.Stage)
	}
	if next.FinalValues == nil || *next.FinalValues != (types.OutcomeValues{Pass: 80, Fail: 20}) {
		t.Errorf("expected report values at finalization, got %+v", next.FinalValues)
	}
	if prevailed != types.PartyReporter {
		t.Errorf("expected reporter to prevail, got %v", prevailed)
	}
	if len(ops) != 1 || ops[0].Forfeit || ops[0].BondId != "bond-r" {
		t.Errorf("expected single release of reporter bond, got %+v", ops)
	}
}

func TestFinalize_AcceptChallenge(t *testing.T) {
	m := newTestMachine()
	now := time.Unix(2000, 0)
	challenged := mustChallenge(t, m, mustReport(t, m, newUnreported(1), now), now.Add(time.Hour))

	next, ops, prevailed, err := m.Finalize(challenged, true, now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("finalize err: %v", err)
	}
	if *next.FinalValues != (types.OutcomeValues{Pass: 10, Fail: 90}) {
		t.Errorf("expected challenge values, got %+v", next.FinalValues)
	}
	if prevailed != types.PartyChallenger {
		t.Errorf("expected challenger to prevail, got %v", prevailed)
	}
	if len(ops) != 2 {
		t.Fatalf("expected two bond ops, got %+v", ops)
	}
	if !ops[0].Forfeit || ops[0].BondId != "bond-r" || ops[0].To != challenger {
		t.Errorf("expected reporter bond forfeited to challenger, got %+v", ops[0])
	}
	if ops[1].Forfeit || ops[1].BondId != "bond-c" {
		t.Errorf("expected challenger bond released, got %+v", ops[1])
	}
}

func TestFinalize_RejectChallenge(t *testing.T) {
	m := newTestMachine()
	now := time.Unix(2000, 0)
	challenged := mustChallenge(t, m, mustReport(t, m, newUnreported(1), now), now.Add(time.Hour))

	next, ops, prevailed, err := m.Finalize(challenged, false, now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("finalize err: %v", err)
	}
	if *next.FinalValues != (types.OutcomeValues{Pass: 80, Fail: 20}) {
		t.Errorf("expected report values, got %+v", next.FinalValues)
	}
	if prevailed != types.PartyReporter {
		t.Errorf("expected reporter to prevail, got %v", prevailed)
	}
	if !ops[0].Forfeit || ops[0].BondId != "bond-c" || ops[0].To != reporter {
		t.Errorf("expected challenger bond forfeited to reporter, got %+v", ops[0])
	}
}

func TestFinalize_UnreportedRejected(t *testing.T) {
	m := newTestMachine()

	_, _, _, err := m.Finalize(newUnreported(1), false, time.Unix(2000, 0))
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestEscalate_OnlyFromOpenChallenge(t *testing.T) {
	m := newTestMachine()
	now := time.Unix(2000, 0)
	reported := mustReport(t, m, newUnreported(1), now)

	_, err := m.Escalate(reported, "case-1", now.Add(time.Hour))
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition without challenge, got %v", err)
	}

	challenged := mustChallenge(t, m, reported, now.Add(time.Hour))
	next, err := m.Escalate(challenged, "case-1", now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("escalate err: %v", err)
	}
	if next.Stage != types.StageDispute || next.DisputeHandle != "case-1" {
		t.Errorf("dispute not recorded: stage %v handle %q", next.Stage, next.DisputeHandle)
	}
	wantDeadline := now.Add(2 * time.Hour).Add(testSettlementWindow).Unix()
	if next.SettlementDeadline != wantDeadline {
		t.Errorf("expected settlement deadline %v, got %v", wantDeadline, next.SettlementDeadline)
	}
}

func TestResolveDispute_BondsFollowPrevailingParty(t *testing.T) {
	m := newTestMachine()
	now := time.Unix(2000, 0)
	challenged := mustChallenge(t, m, mustReport(t, m, newUnreported(1), now), now.Add(time.Hour))
	disputed, err := m.Escalate(challenged, "case-1", now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("escalate err: %v", err)
	}

	cases := []struct {
		name        string
		prevailed   types.Party
		wantForfeit string
		wantTo      common.Address
		wantRelease string
	}{
		{"challenger prevails", types.PartyChallenger, "bond-r", challenger, "bond-c"},
		{"reporter prevails", types.PartyReporter, "bond-c", reporter, "bond-r"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verdict := &types.Verdict{Pass: 0, Fail: 100, Prevailed: tc.prevailed}
			next, ops, err := m.ResolveDispute(disputed, "case-1", verdict, now.Add(3*time.Hour))
			if err != nil {
				t.Fatalf("resolve err: %v", err)
			}
			if next.Stage != types.StageFinalized {
				t.Errorf("expected finalized stage, got %v", next.Stage)
			}
			if *next.FinalValues != (types.OutcomeValues{Pass: 0, Fail: 100}) {
				t.Errorf("expected verdict values, got %+v", next.FinalValues)
			}
			if !ops[0].Forfeit || ops[0].BondId != tc.wantForfeit || ops[0].To != tc.wantTo {
				t.Errorf("unexpected forfeit op %+v", ops[0])
			}
			if ops[1].Forfeit || ops[1].BondId != tc.wantRelease {
				t.Errorf("unexpected release op %+v", ops[1])
			}
		})
	}
}

func TestResolveDispute_RequiresPrevailingParty(t *testing.T) {
	m := newTestMachine()
	now := time.Unix(2000, 0)
	challenged := mustChallenge(t, m, mustReport(t, m, newUnreported(1), now), now.Add(time.Hour))
	disputed, _ := m.Escalate(challenged, "case-1", now.Add(2*time.Hour))

	_, _, err := m.ResolveDispute(disputed, "case-1", &types.Verdict{Pass: 50, Fail: 50}, now.Add(3*time.Hour))
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestResolveDispute_RejectsForeignCaseHandle(t *testing.T) {
	m := newTestMachine()
	now := time.Unix(2000, 0)
	challenged := mustChallenge(t, m, mustReport(t, m, newUnreported(1), now), now.Add(time.Hour))
	disputed, _ := m.Escalate(challenged, "case-2", now.Add(2*time.Hour))

	// A ruling for an earlier, abandoned case must not settle the instance.
	verdict := &types.Verdict{Pass: 0, Fail: 100, Prevailed: types.PartyChallenger}
	_, _, err := m.ResolveDispute(disputed, "case-1", verdict, now.Add(3*time.Hour))
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for foreign handle, got %v", err)
	}

	next, _, err := m.ResolveDispute(disputed, "case-2", verdict, now.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("resolve with matching handle err: %v", err)
	}
	if next.Stage != types.StageFinalized {
		t.Errorf("expected finalized stage, got %v", next.Stage)
	}
}

func TestResolveDispute_NotInDispute(t *testing.T) {
	m := newTestMachine()
	now := time.Unix(2000, 0)
	reported := mustReport(t, m, newUnreported(1), now)

	verdict := &types.Verdict{Pass: 0, Fail: 100, Prevailed: types.PartyChallenger}
	_, _, err := m.ResolveDispute(reported, "case-1", verdict, now.Add(time.Hour))
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestFinalizedIsTerminal(t *testing.T) {
	m := newTestMachine()
	now := time.Unix(2000, 0)
	reported := mustReport(t, m, newUnreported(1), now)
	final, _, _, err := m.Finalize(reported, false, time.Unix(reported.ChallengeDeadline, 0))
	if err != nil {
		t.Fatalf("finalize err: %v", err)
	}

	later := time.Unix(reported.ChallengeDeadline+100, 0)
	if _, err := m.SubmitReport(final, reporter, 1, 1, nil, "b", later); !errors.Is(err, ErrStaleTransition) {
		t.Errorf("report on finalized: expected ErrStaleTransition, got %v", err)
	}
	if _, err := m.SubmitChallenge(final, challenger, 1, 1, nil, "b", later); !errors.Is(err, ErrStaleTransition) {
		t.Errorf("challenge on finalized: expected ErrStaleTransition, got %v", err)
	}
	if _, _, _, err := m.Finalize(final, false, later); !errors.Is(err, ErrStaleTransition) {
		t.Errorf("finalize on finalized: expected ErrStaleTransition, got %v", err)
	}
	if _, err := m.Escalate(final, "case-1", later); !errors.Is(err, ErrStaleTransition) {
		t.Errorf("escalate on finalized: expected ErrStaleTransition, got %v", err)
	}

	// Stale is a refinement of invalid, so coarse checks still match.
	_, _, _, err = m.Finalize(final, false, later)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("ErrStaleTransition should match ErrInvalidTransition, got %v", err)
	}
}

func TestArchive_OnlyFinalizedOnce(t *testing.T) {
	m := newTestMachine()
	now := time.Unix(2000, 0)
	reported := mustReport(t, m, newUnreported(1), now)

	if _, err := m.Archive(reported); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("archive before finalization: expected ErrInvalidTransition, got %v", err)
	}

	final, _, _, err := m.Finalize(reported, false, time.Unix(reported.ChallengeDeadline, 0))
	if err != nil {
		t.Fatalf("finalize err: %v", err)
	}
	archived, err := m.Archive(final)
	if err != nil {
		t.Fatalf("archive err: %v", err)
	}
	if !archived.Archived || archived.Stage != types.StageFinalized {
		t.Errorf("archive flag not set: %+v", archived)
	}
	if *archived.FinalValues != *final.FinalValues {
		t.Errorf("archiving changed the final values: %+v", archived.FinalValues)
	}
	if _, err := m.Archive(archived); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("double archive: expected ErrInvalidTransition, got %v", err)
	}
}
