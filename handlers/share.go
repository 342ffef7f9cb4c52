package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/sigmapool/mining-proxy/metrics"
	"github.com/sigmapool/mining-proxy/types"
)

// ShareResult captures the outcome of a best-effort share submission.
// It is recorded for metrics and inspectable in tests but never surfaces
// to the caller.
type ShareResult struct {
	Delivered bool
	Err       error
}

// MiningShare reformats the inbound body to the pool's share schema and
// posts it to the pool's solution route, bypassing the node. The caller
// always receives an empty successful JSON response; the pool outcome is
// captured, not propagated.
func (mp *MiningProxy) MiningShare(w http.ResponseWriter, r *http.Request) {
	metrics.ProxiedRequests.WithLabelValues("share").Inc()

	result := mp.submitShare(r)
	if result.Err != nil {
		logger.WithError(result.Err).Debug("could not submit share to pool")
		metrics.PoolSubmissions.WithLabelValues("share", "error").Inc()
	} else {
		metrics.PoolSubmissions.WithLabelValues("share", "ok").Inc()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("{}")) //nolint:errcheck
}

func (mp *MiningProxy) submitShare(r *http.Request) ShareResult {
	ctx := r.Context()

	mp.proofs.MaybeRetryDelivery(ctx)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return ShareResult{Err: err}
	}

	solution, d, err := parseMinerSolution(body)
	if err != nil {
		return ShareResult{Err: err}
	}

	share := &types.PoolShare{
		PK:    solution.PK,
		W:     solution.W,
		Nonce: solution.N,
		D:     json.RawMessage(d.String()),
	}
	err = mp.pool.SubmitSolution(ctx, share)
	if err != nil {
		return ShareResult{Err: err}
	}

	return ShareResult{Delivered: true}
}
