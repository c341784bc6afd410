package types

import (
	"github.com/ethereum/go-ethereum/common"
)

type Stage uint64

const (
	StageUnreported          Stage = 1
	StageDesignatedReporting Stage = 2
	StageOpenChallenge       Stage = 3
	StageDispute             Stage = 4
	StageFinalized           Stage = 5
)

func (s Stage) String() string {
	switch s {
	case StageUnreported:
		return "unreported"
	case StageDesignatedReporting:
		return "designated_reporting"
	case StageOpenChallenge:
		return "open_challenge"
	case StageDispute:
		return "dispute"
	case StageFinalized:
		return "finalized"
	}
	return "unknown"
}

// Party names which side of a contested resolution prevails at settlement.
type Party uint64

const (
	PartyReporter   Party = 1
	PartyChallenger Party = 2
)

func (p Party) String() string {
	switch p {
	case PartyReporter:
		return "reporter"
	case PartyChallenger:
		return "challenger"
	}
	return "unknown"
}

// OutcomeValues are opaque non-negative magnitudes; the engine records and
// substitutes them at finalization but never interprets their meaning.
type OutcomeValues struct {
	Pass uint64 `json:"pass"`
	Fail uint64 `json:"fail"`
}

// Verdict is the arbitration oracle's ruling on an escalated dispute. The
// prevailing side is named explicitly so bond redistribution never has to be
// inferred from value equality.
type Verdict struct {
	Pass      uint64 `json:"pass"`
	Fail      uint64 `json:"fail"`
	Prevailed Party  `json:"prevailed"`
}

type Report struct {
	SubmittedBy common.Address `json:"submittedBy"`
	Pass        uint64         `json:"pass"`
	Fail        uint64         `json:"fail"`
	Evidence    []byte         `json:"evidence"`
	SubmittedAt int64          `json:"submittedAt"`
	BondId      string         `json:"bondId"`
}

func (r *Report) Values() OutcomeValues {
	return OutcomeValues{Pass: r.Pass, Fail: r.Fail}
}

type ResolutionInstance struct {
	Id                 uint64         `json:"id"`
	Stage              Stage          `json:"stage"`
	DesignatedReporter common.Address `json:"designatedReporter"`
	Report             *Report        `json:"report,omitempty"`
	Challenge          *Report        `json:"challenge,omitempty"`
	DisputeHandle      string         `json:"disputeHandle,omitempty"`
	FinalValues        *OutcomeValues `json:"finalValues,omitempty"`
	ChallengeDeadline  int64          `json:"challengeDeadline,omitempty"`
	SettlementDeadline int64          `json:"settlementDeadline,omitempty"`
	CreatedAt          int64          `json:"createdAt"`
	FinalizedAt        int64          `json:"finalizedAt,omitempty"`
	Archived           bool           `json:"archived,omitempty"`
}

func (i *ResolutionInstance) Clone() *ResolutionInstance {
	n := *i
	if i.Report != nil {
		r := *i.Report
		r.Evidence = append([]byte(nil), i.Report.Evidence...)
		n.Report = &r
	}
	if i.Challenge != nil {
		c := *i.Challenge
		c.Evidence = append([]byte(nil), i.Challenge.Evidence...)
		n.Challenge = &c
	}
	if i.FinalValues != nil {
		v := *i.FinalValues
		n.FinalValues = &v
	}
	return &n
}
