package op

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/veridex/reso-app/types"
)

// Op is the signed operation envelope carried over the service transport.
// Sig covers the envelope with the signature field replaced by the service
// identifier, binding an op to one deployment.
type Op struct {
	Version  uint8          `json:"version"`
	Type     OpType         `json:"type"`
	Instance uint64         `json:"instance"`
	Caller   common.Address `json:"caller"`
	Tx       any            `json:"tx"`
	Sig      []byte         `json:"sig"`
}

type CreateInstanceOp struct {
	DesignatedReporter common.Address `json:"designatedReporter"`
}

type SubmitReportOp struct {
	Pass     uint64 `json:"pass"`
	Fail     uint64 `json:"fail"`
	Evidence []byte `json:"evidence"`
	Amount   uint64 `json:"amount"`
}

type SubmitChallengeOp struct {
	Pass     uint64 `json:"pass"`
	Fail     uint64 `json:"fail"`
	Evidence []byte `json:"evidence"`
	Amount   uint64 `json:"amount"`
}

type FinalizeOp struct {
	AcceptChallenge bool `json:"acceptChallenge"`
}

type EscalateOp struct{}

type ResolveDisputeOp struct {
	Handle    string      `json:"handle"`
	Pass      uint64      `json:"pass"`
	Fail      uint64      `json:"fail"`
	Prevailed types.Party `json:"prevailed"`
}

type ArchiveOp struct{}

type opTmpl[Tx any] struct {
	Version  uint8          `json:"version"`
	Type     OpType         `json:"type"`
	Instance uint64         `json:"instance"`
	Caller   common.Address `json:"caller"`
	Tx       Tx             `json:"tx"`
	Sig      []byte         `json:"sig"`
}

func (o *Op) SigData(ext []byte) (dat []byte, err error) {
	no := *o
	no.Sig = ext
	dat, err = json.Marshal(no)
	return
}

func parseOpType(dat []byte) OpType {
	var o struct {
		Type OpType `json:"type"`
	}
	err := json.Unmarshal(dat, &o)
	if err != nil {
		return OpTypeUnknown
	}
	return o.Type
}

func unmarshalOp[Tx any](dat []byte) (o *Op, err error) {
	var t opTmpl[Tx]
	err = json.Unmarshal(dat, &t)
	if err != nil {
		return
	}
	o = new(Op)
	o.Version = t.Version
	o.Type = t.Type
	o.Instance = t.Instance
	o.Caller = t.Caller
	o.Tx = &t.Tx
	o.Sig = t.Sig
	return
}

func UnmarshalOp(dat []byte) (o *Op, err error) {
	tp := parseOpType(dat)
	switch tp {
	case OpTypeCreateInstance:
		o, err = unmarshalOp[CreateInstanceOp](dat)
	case OpTypeSubmitReport:
		o, err = unmarshalOp[SubmitReportOp](dat)
	case OpTypeSubmitChallenge:
		o, err = unmarshalOp[SubmitChallengeOp](dat)
	case OpTypeFinalize:
		o, err = unmarshalOp[FinalizeOp](dat)
	case OpTypeEscalate:
		o, err = unmarshalOp[EscalateOp](dat)
	case OpTypeResolveDispute:
		o, err = unmarshalOp[ResolveDisputeOp](dat)
	case OpTypeArchive:
		o, err = unmarshalOp[ArchiveOp](dat)
	default:
		return nil, ErrUnsupportedOpType
	}
	if err != nil {
		return nil, err
	}
	if o.Version > OpVersion1 {
		return nil, ErrInvalidOp
	}
	return
}

func MarshalOp(o *Op) (dat []byte, err error) {
	return json.Marshal(o)
}
