package gateway

import (
	"context"
	"errors"

	"github.com/veridex/reso-app/types"
)

var (
	// ErrGatewayUnavailable is transient: the oracle could not be reached.
	// Safe to retry; never causes instance mutation.
	ErrGatewayUnavailable = errors.New("arbitration gateway unavailable")
	// ErrVerdictPending means the case is open but undecided. The oracle is
	// untrusted and possibly slow; Pending may repeat indefinitely.
	ErrVerdictPending = errors.New("verdict pending")
	ErrCaseNotFound   = errors.New("dispute case not found")
)

// Gateway is the interface to the external arbitration oracle.
type Gateway interface {
	OpenCase(ctx context.Context, instance uint64, report, challenge types.OutcomeValues, evidence [][]byte) (string, error)
	PollVerdict(ctx context.Context, handle string) (*types.Verdict, error)
}
