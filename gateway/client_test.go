package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	cosmoslog "cosmossdk.io/log"
	"github.com/veridex/reso-app/types"
)

func TestHTTPGateway_OpenCase(t *testing.T) {
	var gotReq openCaseReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cases" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request err: %v", err)
		}
		json.NewEncoder(w).Encode(openCaseRes{Handle: "case-77"})
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, cosmoslog.NewNopLogger())
	handle, err := g.OpenCase(context.Background(), 9,
		types.OutcomeValues{Pass: 80, Fail: 20},
		types.OutcomeValues{Pass: 10, Fail: 90},
		[][]byte{[]byte("a"), []byte("b")})
	if err != nil {
		t.Fatalf("open case err: %v", err)
	}
	if handle != "case-77" {
		t.Errorf("handle %q, want case-77", handle)
	}
	if gotReq.Instance != 9 || gotReq.Report.Pass != 80 || gotReq.Challenge.Fail != 90 {
		t.Errorf("request not forwarded: %+v", gotReq)
	}
}

func TestHTTPGateway_OpenCaseEmptyHandle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(openCaseRes{})
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, cosmoslog.NewNopLogger())
	_, err := g.OpenCase(context.Background(), 1, types.OutcomeValues{}, types.OutcomeValues{}, nil)
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Errorf("expected ErrGatewayUnavailable, got %v", err)
	}
}

func TestHTTPGateway_PollVerdict(t *testing.T) {
	pending := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cases/case-1/verdict" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if pending {
			json.NewEncoder(w).Encode(pollVerdictRes{Pending: true})
			return
		}
		json.NewEncoder(w).Encode(pollVerdictRes{
			Verdict: &types.Verdict{Pass: 0, Fail: 100, Prevailed: types.PartyChallenger},
		})
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, cosmoslog.NewNopLogger())
	if _, err := g.PollVerdict(context.Background(), "case-1"); !errors.Is(err, ErrVerdictPending) {
		t.Fatalf("expected ErrVerdictPending, got %v", err)
	}

	pending = false
	v, err := g.PollVerdict(context.Background(), "case-1")
	if err != nil {
		t.Fatalf("poll err: %v", err)
	}
	if v.Prevailed != types.PartyChallenger || v.Fail != 100 {
		t.Errorf("unexpected verdict %+v", v)
	}
}

func TestHTTPGateway_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, cosmoslog.NewNopLogger())
	if _, err := g.PollVerdict(context.Background(), "case-1"); !errors.Is(err, ErrGatewayUnavailable) {
		t.Errorf("expected ErrGatewayUnavailable, got %v", err)
	}
}

func TestHTTPGateway_Unreachable(t *testing.T) {
	g := NewHTTPGateway("http://127.0.0.1:1", cosmoslog.NewNopLogger())
	if _, err := g.OpenCase(context.Background(), 1, types.OutcomeValues{}, types.OutcomeValues{}, nil); !errors.Is(err, ErrGatewayUnavailable) {
		t.Errorf("expected ErrGatewayUnavailable, got %v", err)
	}
}
