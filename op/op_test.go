package op

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/veridex/reso-app/crypto"
	"github.com/veridex/reso-app/types"
)

func TestUnmarshalOp_DispatchByType(t *testing.T) {
	caller := common.HexToAddress("0x1111111111111111111111111111111111111111")
	cases := []struct {
		name string
		op   *Op
	}{
		{"create", &Op{Version: OpVersion1, Type: OpTypeCreateInstance, Instance: 1, Caller: caller,
			Tx: &CreateInstanceOp{DesignatedReporter: caller}}},
		{"report", &Op{Version: OpVersion1, Type: OpTypeSubmitReport, Instance: 1, Caller: caller,
			Tx: &SubmitReportOp{Pass: 80, Fail: 20, Evidence: []byte("e"), Amount: 350}}},
		{"challenge", &Op{Version: OpVersion1, Type: OpTypeSubmitChallenge, Instance: 1, Caller: caller,
			Tx: &SubmitChallengeOp{Pass: 10, Fail: 90, Amount: 700}}},
		{"finalize", &Op{Version: OpVersion1, Type: OpTypeFinalize, Instance: 1, Caller: caller,
			Tx: &FinalizeOp{AcceptChallenge: true}}},
		{"escalate", &Op{Version: OpVersion1, Type: OpTypeEscalate, Instance: 1, Caller: caller,
			Tx: &EscalateOp{}}},
		{"verdict", &Op{Version: OpVersion1, Type: OpTypeResolveDispute, Instance: 1, Caller: caller,
			Tx: &ResolveDisputeOp{Handle: "case-1", Pass: 0, Fail: 100, Prevailed: types.PartyChallenger}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dat, err := MarshalOp(tc.op)
			if err != nil {
				t.Fatalf("marshal err: %v", err)
			}
			got, err := UnmarshalOp(dat)
			if err != nil {
				t.Fatalf("unmarshal err: %v", err)
			}
			if got.Type != tc.op.Type || got.Instance != tc.op.Instance || got.Caller != tc.op.Caller {
				t.Errorf("envelope fields lost: %+v", got)
			}
		})
	}

	// The typed payload survives the round trip.
	dat, _ := MarshalOp(cases[1].op)
	got, err := UnmarshalOp(dat)
	if err != nil {
		t.Fatalf("unmarshal err: %v", err)
	}
	payload, ok := got.Tx.(*SubmitReportOp)
	if !ok {
		t.Fatalf("expected *SubmitReportOp, got %T", got.Tx)
	}
	if payload.Pass != 80 || payload.Fail != 20 || payload.Amount != 350 {
		t.Errorf("payload fields lost: %+v", payload)
	}
}

func TestUnmarshalOp_UnsupportedType(t *testing.T) {
	if _, err := UnmarshalOp([]byte(`{"type":42}`)); !errors.Is(err, ErrUnsupportedOpType) {
		t.Errorf("expected ErrUnsupportedOpType, got %v", err)
	}
	if _, err := UnmarshalOp([]byte(`not json`)); !errors.Is(err, ErrUnsupportedOpType) {
		t.Errorf("expected ErrUnsupportedOpType for garbage, got %v", err)
	}
}

func TestUnmarshalOp_UnknownVersion(t *testing.T) {
	if _, err := UnmarshalOp([]byte(`{"version":9,"type":5,"tx":{}}`)); !errors.Is(err, ErrInvalidOp) {
		t.Errorf("expected ErrInvalidOp, got %v", err)
	}
}

func TestSigData_BindsServiceId(t *testing.T) {
	key, err := crypto.Generate()
	if err != nil {
		t.Fatalf("generate key err: %v", err)
	}
	o := &Op{
		Version:  OpVersion1,
		Type:     OpTypeFinalize,
		Instance: 3,
		Caller:   key.Address(),
		Tx:       &FinalizeOp{},
	}

	dat, err := o.SigData([]byte("reso-local"))
	if err != nil {
		t.Fatalf("sig data err: %v", err)
	}
	sig, err := key.Sign(dat)
	if err != nil {
		t.Fatalf("sign err: %v", err)
	}
	o.Sig = sig

	// Verification recomputes the digest from the received envelope.
	wire, _ := MarshalOp(o)
	got, err := UnmarshalOp(wire)
	if err != nil {
		t.Fatalf("unmarshal err: %v", err)
	}
	verifyData, err := got.SigData([]byte("reso-local"))
	if err != nil {
		t.Fatalf("sig data err: %v", err)
	}
	signer, err := crypto.Recover(verifyData, got.Sig)
	if err != nil {
		t.Fatalf("recover err: %v", err)
	}
	if signer != key.Address() {
		t.Errorf("recovered %v, want %v", signer, key.Address())
	}

	// The same signature does not verify for a different deployment.
	otherData, _ := got.SigData([]byte("reso-other"))
	signer, err = crypto.Recover(otherData, got.Sig)
	if err == nil && signer == key.Address() {
		t.Error("signature verified under a different service id")
	}
}

func TestSigData_LeavesEnvelopeIntact(t *testing.T) {
	o := &Op{Version: OpVersion1, Type: OpTypeEscalate, Instance: 9, Tx: &EscalateOp{}, Sig: []byte{1, 2, 3}}
	if _, err := o.SigData([]byte("svc")); err != nil {
		t.Fatalf("sig data err: %v", err)
	}
	if len(o.Sig) != 3 {
		t.Errorf("SigData mutated the envelope signature: %v", o.Sig)
	}
}
