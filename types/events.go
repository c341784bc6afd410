package types

import (
	"github.com/ethereum/go-ethereum/common"
)

const (
	EventCreateType    = "create"
	EventReportType    = "report"
	EventChallengeType = "challenge"
	EventFinalizeType  = "finalize"
	EventEscalateType  = "escalate"
	EventVerdictType   = "verdict"
	EventArchiveType   = "archive"
	EventBondType      = "bond"
)

// Event is a stage-transition or bond-settlement notification consumed by
// the indexer and other monitoring collaborators. Not required for
// correctness.
type Event interface {
	Type() string
}

type EventCreate struct {
	Instance           uint64         `json:"instance"`
	DesignatedReporter common.Address `json:"designatedReporter"`
	At                 int64          `json:"at"`
}

func (e *EventCreate) Type() string { return EventCreateType }

type EventReport struct {
	Instance          uint64         `json:"instance"`
	Reporter          common.Address `json:"reporter"`
	Pass              uint64         `json:"pass"`
	Fail              uint64         `json:"fail"`
	BondId            string         `json:"bondId"`
	ChallengeDeadline int64          `json:"challengeDeadline"`
	At                int64          `json:"at"`
}

func (e *EventReport) Type() string { return EventReportType }

type EventChallenge struct {
	Instance   uint64         `json:"instance"`
	Challenger common.Address `json:"challenger"`
	Pass       uint64         `json:"pass"`
	Fail       uint64         `json:"fail"`
	BondId     string         `json:"bondId"`
	At         int64          `json:"at"`
}

func (e *EventChallenge) Type() string { return EventChallengeType }

type EventFinalize struct {
	Instance  uint64         `json:"instance"`
	Caller    common.Address `json:"caller"`
	Pass      uint64         `json:"pass"`
	Fail      uint64         `json:"fail"`
	Prevailed Party          `json:"prevailed,omitempty"`
	At        int64          `json:"at"`
}

func (e *EventFinalize) Type() string { return EventFinalizeType }

type EventEscalate struct {
	Instance           uint64         `json:"instance"`
	Caller             common.Address `json:"caller"`
	DisputeHandle      string         `json:"disputeHandle"`
	SettlementDeadline int64          `json:"settlementDeadline"`
	At                 int64          `json:"at"`
}

func (e *EventEscalate) Type() string { return EventEscalateType }

type EventVerdict struct {
	Instance      uint64 `json:"instance"`
	DisputeHandle string `json:"disputeHandle"`
	Pass          uint64 `json:"pass"`
	Fail          uint64 `json:"fail"`
	Prevailed     Party  `json:"prevailed"`
	At            int64  `json:"at"`
}

func (e *EventVerdict) Type() string { return EventVerdictType }

type EventArchive struct {
	Instance uint64         `json:"instance"`
	Caller   common.Address `json:"caller"`
	At       int64          `json:"at"`
}

func (e *EventArchive) Type() string { return EventArchiveType }

type EventBond struct {
	Instance uint64         `json:"instance"`
	BondId   string         `json:"bondId"`
	Owner    common.Address `json:"owner"`
	Amount   uint64         `json:"amount"`
	Status   string         `json:"status"`
	PaidTo   common.Address `json:"paidTo,omitempty"`
	At       int64          `json:"at"`
}

func (e *EventBond) Type() string { return EventBondType }
