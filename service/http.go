package service

import (
	"errors"
	"io"
	"net/http"

	cosmoslog "cosmossdk.io/log"
	"github.com/gin-gonic/gin"
	"github.com/veridex/reso-app/bond"
	"github.com/veridex/reso-app/crypto"
	"github.com/veridex/reso-app/gateway"
	"github.com/veridex/reso-app/op"
	"github.com/veridex/reso-app/state"
	"github.com/veridex/reso-app/types"
)

const (
	KindInvalidTransition      = "invalid_transition"
	KindStaleTransition        = "stale_transition"
	KindAuthorizationFailure   = "authorization_failure"
	KindBondMismatch           = "bond_mismatch"
	KindConcurrentModification = "concurrent_modification"
	KindNotFound               = "not_found"
	KindGatewayUnavailable     = "gateway_unavailable"
	KindBadRequest             = "bad_request"
)

// ErrKind classifies an operation failure so callers can tell "too late",
// "not authorized", "already resolved" and "try again" apart.
func ErrKind(err error) string {
	switch {
	case errors.Is(err, state.ErrConcurrentModification):
		return KindConcurrentModification
	case errors.Is(err, state.ErrNotAuthorized), errors.Is(err, op.ErrInvalidSignature):
		return KindAuthorizationFailure
	case errors.Is(err, bond.ErrBondMismatch):
		return KindBondMismatch
	case errors.Is(err, state.ErrNotFound), errors.Is(err, bond.ErrBondNotFound):
		return KindNotFound
	case errors.Is(err, gateway.ErrGatewayUnavailable):
		return KindGatewayUnavailable
	case errors.Is(err, state.ErrStaleTransition):
		return KindStaleTransition
	case errors.Is(err, state.ErrInvalidTransition), errors.Is(err, state.ErrInstanceExists):
		return KindInvalidTransition
	}
	return KindBadRequest
}

type HTTPService struct {
	engine     *gin.Engine
	svc        *Service
	indexer    *Indexer
	serviceId  string
	listenAddr string
	logger     cosmoslog.Logger
}

func NewHTTPService(listenAddr, serviceId string, svc *Service, indexer *Indexer, logger cosmoslog.Logger) *HTTPService {
	r := gin.Default()
	s := &HTTPService{
		engine:     r,
		svc:        svc,
		indexer:    indexer,
		serviceId:  serviceId,
		listenAddr: listenAddr,
		logger:     logger.With("module", "http"),
	}
	s.engine.POST("/op", s.handleOp)
	s.engine.POST("/getInstance", s.handleGetInstance)
	s.engine.POST("/getInstanceSummary", s.handleGetInstanceSummary)
	s.engine.POST("/listInstances", s.handleListInstances)
	s.engine.POST("/getTransitions", s.handleGetTransitions)
	s.engine.POST("/getBonds", s.handleGetBonds)
	s.engine.GET("/metrics", gin.WrapH(svc.metrics.Handler()))
	return s
}

func (s *HTTPService) Start() error {
	return s.engine.Run(s.listenAddr)
}

type opResponse struct {
	Instance *types.ResolutionInstance `json:"instance,omitempty"`
	Error    string                    `json:"error,omitempty"`
	Kind     string                    `json:"kind,omitempty"`
}

func failOp(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch ErrKind(err) {
	case KindAuthorizationFailure:
		status = http.StatusForbidden
	case KindNotFound:
		status = http.StatusNotFound
	case KindConcurrentModification:
		status = http.StatusConflict
	case KindGatewayUnavailable:
		status = http.StatusBadGateway
	}
	c.JSON(status, opResponse{Error: err.Error(), Kind: ErrKind(err)})
}

func (s *HTTPService) handleOp(c *gin.Context) {
	dat, err := io.ReadAll(c.Request.Body)
	if err != nil {
		failOp(c, err)
		return
	}
	o, err := op.UnmarshalOp(dat)
	if err != nil {
		failOp(c, err)
		return
	}
	sigData, err := o.SigData([]byte(s.serviceId))
	if err != nil {
		failOp(c, err)
		return
	}
	signer, err := crypto.Recover(sigData, o.Sig)
	if err != nil || signer != o.Caller {
		failOp(c, op.ErrInvalidSignature)
		return
	}

	var inst *types.ResolutionInstance
	switch o.Type {
	case op.OpTypeCreateInstance:
		t := o.Tx.(*op.CreateInstanceOp)
		inst, err = s.svc.CreateInstance(o.Caller, o.Instance, t.DesignatedReporter)
	case op.OpTypeSubmitReport:
		t := o.Tx.(*op.SubmitReportOp)
		inst, err = s.svc.SubmitReport(o.Caller, o.Instance, t.Pass, t.Fail, t.Evidence, t.Amount)
	case op.OpTypeSubmitChallenge:
		t := o.Tx.(*op.SubmitChallengeOp)
		inst, err = s.svc.SubmitChallenge(o.Caller, o.Instance, t.Pass, t.Fail, t.Evidence, t.Amount)
	case op.OpTypeFinalize:
		t := o.Tx.(*op.FinalizeOp)
		inst, err = s.svc.Finalize(o.Caller, o.Instance, t.AcceptChallenge)
	case op.OpTypeEscalate:
		inst, err = s.svc.Escalate(o.Caller, o.Instance)
	case op.OpTypeResolveDispute:
		t := o.Tx.(*op.ResolveDisputeOp)
		inst, err = s.svc.ResolveDispute(o.Caller, o.Instance, t.Handle, &types.Verdict{
			Pass: t.Pass, Fail: t.Fail, Prevailed: t.Prevailed,
		})
	case op.OpTypeArchive:
		inst, err = s.svc.ArchiveInstance(o.Caller, o.Instance)
	default:
		err = op.ErrUnsupportedOpType
	}
	if err != nil {
		failOp(c, err)
		return
	}
	c.JSON(http.StatusOK, opResponse{Instance: inst})
}

type getInstanceReq struct {
	InstanceId uint64 `json:"instanceId"`
}

func (s *HTTPService) handleGetInstance(c *gin.Context) {
	var requestData getInstanceReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	inst, err := s.svc.GetInstance(requestData.InstanceId)
	if err != nil {
		failOp(c, err)
		return
	}
	c.JSON(http.StatusOK, opResponse{Instance: inst})
}

type getInstanceSummaryResponse struct {
	Instance Instance `json:"instance"`
}

// handleGetInstanceSummary serves the flattened indexed row, which carries
// the prevailing party and denormalized report fields UIs want in one read.
// The store-backed /getInstance stays the authoritative view.
func (s *HTTPService) handleGetInstanceSummary(c *gin.Context) {
	var requestData getInstanceReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	inst, err := s.indexer.getInstanceById(requestData.InstanceId)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, getInstanceSummaryResponse{Instance: inst})
}

type listInstancesReq struct {
	Stage    uint64 `json:"stage"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

type listInstancesResponse struct {
	Instances []Instance `json:"instances"`
	Total     uint64     `json:"total"`
}

func (s *HTTPService) handleListInstances(c *gin.Context) {
	var response listInstancesResponse
	response.Instances = make([]Instance, 0)
	var requestData listInstancesReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if requestData.PageSize == 0 {
		requestData.PageSize = 50
	}
	insts, total, err := s.indexer.getInstances(requestData.Stage, requestData.Page, requestData.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Instances = insts
	response.Total = total
	c.JSON(http.StatusOK, response)
}

type getTransitionsReq struct {
	InstanceId uint64 `json:"instanceId"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
}

type getTransitionsResponse struct {
	Transitions []Transition `json:"transitions"`
	Total       uint64       `json:"total"`
}

func (s *HTTPService) handleGetTransitions(c *gin.Context) {
	var response getTransitionsResponse
	response.Transitions = make([]Transition, 0)
	var requestData getTransitionsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if requestData.InstanceId == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "instanceId is required"})
		return
	}
	if requestData.PageSize == 0 {
		requestData.PageSize = 50
	}
	ts, total, err := s.indexer.getTransitionsByInstance(requestData.InstanceId, requestData.Page, requestData.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Transitions = ts
	response.Total = total
	c.JSON(http.StatusOK, response)
}

type getBondsReq struct {
	InstanceId uint64 `json:"instanceId"`
}

type getBondsResponse struct {
	Bonds []BondRow `json:"bonds"`
}

func (s *HTTPService) handleGetBonds(c *gin.Context) {
	var response getBondsResponse
	response.Bonds = make([]BondRow, 0)
	var requestData getBondsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	bonds, err := s.indexer.getBondsByInstance(requestData.InstanceId)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Bonds = bonds
	c.JSON(http.StatusOK, response)
}
