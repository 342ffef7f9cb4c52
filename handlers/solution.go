package handlers

import (
	"encoding/json"
	"io"
	"math/big"
	"net/http"

	"github.com/pkg/errors"

	"github.com/sigmapool/mining-proxy/metrics"
	"github.com/sigmapool/mining-proxy/rpc"
	"github.com/sigmapool/mining-proxy/types"
)

// MiningSolution forwards a block solution to the node and, when the node
// accepts it, submits the matching share to the pool (best effort). The
// caller always receives the node's response; pool failures never surface.
func (mp *MiningProxy) MiningSolution(w http.ResponseWriter, r *http.Request) {
	metrics.ProxiedRequests.WithLabelValues("solution").Inc()

	ctx := r.Context()

	// a proof that failed to reach the pool earlier gets another chance
	// before new work is accepted
	mp.proofs.MaybeRetryDelivery(ctx)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read request body")
		return
	}

	nodeBody := body
	solution, d, parseErr := parseMinerSolution(body)
	if parseErr != nil {
		// forward the raw body and let the node reject it
		logger.WithError(parseErr).Debug("could not parse solution body")
	} else {
		nodeBody, err = json.Marshal(&types.NodeSolution{
			PK: solution.PK,
			W:  solution.W,
			N:  solution.N,
			D:  json.RawMessage(d.String()),
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not serialize solution")
			return
		}
	}

	resp, err := mp.node.Forward(ctx, rpc.NodeSolutionRoute, http.MethodPost, r.Header, nodeBody)
	if err != nil {
		logger.WithError(err).Error("could not forward solution to node")
		writeError(w, http.StatusBadGateway, "node unavailable")
		return
	}

	proxyResp, err := rpc.Translate(resp)
	if err != nil {
		logger.WithError(err).Error("could not read solution response")
		writeError(w, http.StatusBadGateway, "node unavailable")
		return
	}

	if proxyResp.StatusCode == http.StatusOK && parseErr == nil {
		share := &types.PoolShare{
			PK:    solution.PK,
			W:     solution.W,
			Nonce: solution.N,
			D:     json.RawMessage(d.String()),
		}
		err = mp.pool.SubmitSolution(ctx, share)
		if err != nil {
			logger.WithError(err).Warn("could not submit solution to pool")
			metrics.PoolSubmissions.WithLabelValues("solution", "error").Inc()
		} else {
			metrics.PoolSubmissions.WithLabelValues("solution", "ok").Inc()
		}
	}

	mp.writeResponse(w, proxyResp)
}

// parseMinerSolution decodes a miner {pk,w,n,d} body, keeping d at
// arbitrary precision.
func parseMinerSolution(body []byte) (*types.MinerSolution, *big.Int, error) {
	solution := &types.MinerSolution{}
	err := json.Unmarshal(body, solution)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not parse solution body")
	}

	d, ok := new(big.Int).SetString(solution.D.String(), 10)
	if !ok {
		return nil, nil, errors.Errorf("invalid difficulty value %q", solution.D.String())
	}

	return solution, d, nil
}
