package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sigmapool/mining-proxy/metrics"
	"github.com/sigmapool/mining-proxy/rpc"
	"github.com/sigmapool/mining-proxy/services"
	"github.com/sigmapool/mining-proxy/types"
)

// MiningCandidate intercepts candidate requests. A block header change
// triggers proof regeneration: the proof may already be embedded in the
// node's candidate (fast path) or requires synthesizing a funding
// transaction first (slow path, mutually exclusive with other candidate
// requests). The outbound body carries the pool difficulty as pb.
func (mp *MiningProxy) MiningCandidate(w http.ResponseWriter, r *http.Request) {
	metrics.ProxiedRequests.WithLabelValues("candidate").Inc()

	if mp.limiter != nil && !mp.limiter.Allow(mp.getClientIP(r)) {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	if mp.proofs.GenerationInFlight() {
		metrics.CandidateResults.WithLabelValues("busy").Inc()
		writeError(w, http.StatusInternalServerError, "transaction generation in progress")
		return
	}

	ctx := r.Context()

	resp, err := mp.node.Forward(ctx, rpc.NodeCandidateRoute, http.MethodGet, r.Header, nil)
	if err != nil {
		logger.WithError(err).Error("could not fetch candidate from node")
		metrics.CandidateResults.WithLabelValues("error").Inc()
		writeError(w, http.StatusBadGateway, "node unavailable")
		return
	}

	proxyResp, err := rpc.Translate(resp)
	if err != nil {
		logger.WithError(err).Error("could not read candidate response")
		metrics.CandidateResults.WithLabelValues("error").Inc()
		writeError(w, http.StatusBadGateway, "node unavailable")
		return
	}

	// non-200 node responses pass through unmodified
	if proxyResp.StatusCode != http.StatusOK {
		metrics.CandidateResults.WithLabelValues("passthrough").Inc()
		mp.writeResponse(w, proxyResp)
		return
	}

	candidate, err := rpc.DecodeJSONMap(proxyResp.Body)
	if err != nil {
		logger.WithError(err).Warn("could not parse candidate response, passing through")
		metrics.CandidateResults.WithLabelValues("passthrough").Inc()
		mp.writeResponse(w, proxyResp)
		return
	}

	msg, _ := candidate["msg"].(string)

	if msg == mp.proofs.BlockHeader() {
		// no new work
		metrics.CandidateResults.WithLabelValues("unchanged").Inc()
		mp.writeCandidate(w, proxyResp, candidate)
		return
	}

	// a genuinely new candidate arrived
	mp.proofs.UpdateProofFromCandidate(candidate)

	if mp.proofs.CurrentProof() == "" {
		// slow path: synthesize a funding transaction first
		minerPk, _ := candidate["pk"].(string)

		generated, err := mp.proofs.GenerateProof(ctx, minerPk)
		if err != nil {
			if errors.Is(err, services.ErrGenerationBusy) {
				metrics.CandidateResults.WithLabelValues("busy").Inc()
				writeError(w, http.StatusInternalServerError, "transaction generation in progress")
				return
			}

			// fall back to the original candidate without advancing the
			// block header, so the next request retries this transition
			metrics.CandidateResults.WithLabelValues("generation_failed").Inc()
			mp.writeCandidate(w, proxyResp, candidate)
			return
		}

		metrics.CandidateResults.WithLabelValues("generated").Inc()
		candidate = generated
		mp.proofs.AdvanceBlockHeader(msg)
		mp.proofs.DeliverProofToPool(ctx)
	} else {
		// fast path: the candidate already carried a proof
		metrics.CandidateResults.WithLabelValues("embedded").Inc()
		mp.proofs.DeliverProofToPool(ctx)
		mp.proofs.AdvanceBlockHeader(msg)
	}

	mp.writeCandidate(w, proxyResp, candidate)
}

// writeCandidate rebuilds the outbound body as {msg, b, pk, pb} from the
// selected candidate, with pb set to the configured pool difficulty.
func (mp *MiningProxy) writeCandidate(w http.ResponseWriter, proxyResp *types.ProxyResponse, candidate map[string]interface{}) {
	outBody := map[string]interface{}{
		"msg": candidate["msg"],
		"b":   candidate["b"],
		"pk":  candidate["pk"],
		"pb":  json.RawMessage(mp.difficulty.String()),
	}

	body, err := json.Marshal(outBody)
	if err != nil {
		logger.WithError(err).Error("could not serialize candidate response")
		writeError(w, http.StatusInternalServerError, "could not serialize candidate")
		return
	}

	mp.writeResponse(w, &types.ProxyResponse{
		StatusCode:  http.StatusOK,
		Headers:     proxyResp.Headers,
		Body:        body,
		ContentType: "application/json",
	})
}
