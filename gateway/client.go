package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	cosmoslog "cosmossdk.io/log"
	"github.com/veridex/reso-app/types"
)

// HTTPGateway talks to the arbitration oracle over plain JSON HTTP.
type HTTPGateway struct {
	Url    string
	logger cosmoslog.Logger
	cli    *http.Client
}

var _ Gateway = &HTTPGateway{}

func NewHTTPGateway(url string, logger cosmoslog.Logger) *HTTPGateway {
	return &HTTPGateway{
		Url:    url,
		logger: logger.With("module", "gateway"),
		cli:    &http.Client{Timeout: 15 * time.Second},
	}
}

type openCaseReq struct {
	Instance  uint64              `json:"instance"`
	Report    types.OutcomeValues `json:"report"`
	Challenge types.OutcomeValues `json:"challenge"`
	Evidence  [][]byte            `json:"evidence"`
}

type openCaseRes struct {
	Handle string `json:"handle"`
	Error  string `json:"error"`
}

func (g *HTTPGateway) post(ctx context.Context, path string, body any, out any) error {
	dat, err := json.Marshal(body)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s%s", g.Url, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(dat))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := g.cli.Do(req)
	if err != nil {
		g.logger.Error("post oracle fail", "path", path, "err", err)
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer res.Body.Close()
	buf, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if res.StatusCode >= 500 {
		return fmt.Errorf("%w: status %v", ErrGatewayUnavailable, res.StatusCode)
	}
	if err := json.Unmarshal(buf, out); err != nil {
		return fmt.Errorf("%w: bad response: %v", ErrGatewayUnavailable, err)
	}
	return nil
}

func (g *HTTPGateway) OpenCase(ctx context.Context, instance uint64, report, challenge types.OutcomeValues, evidence [][]byte) (string, error) {
	g.logger.Info("open dispute case", "instance", instance)
	var res openCaseRes
	err := g.post(ctx, "/cases", openCaseReq{
		Instance:  instance,
		Report:    report,
		Challenge: challenge,
		Evidence:  evidence,
	}, &res)
	if err != nil {
		return "", err
	}
	if res.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrGatewayUnavailable, res.Error)
	}
	if res.Handle == "" {
		return "", fmt.Errorf("%w: empty case handle", ErrGatewayUnavailable)
	}
	return res.Handle, nil
}

type pollVerdictRes struct {
	Pending bool           `json:"pending"`
	Verdict *types.Verdict `json:"verdict"`
	Error   string         `json:"error"`
}

func (g *HTTPGateway) PollVerdict(ctx context.Context, handle string) (*types.Verdict, error) {
	var res pollVerdictRes
	err := g.post(ctx, fmt.Sprintf("/cases/%s/verdict", handle), struct{}{}, &res)
	if err != nil {
		return nil, err
	}
	if res.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrCaseNotFound, res.Error)
	}
	if res.Pending || res.Verdict == nil {
		return nil, ErrVerdictPending
	}
	return res.Verdict, nil
}
