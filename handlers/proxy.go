package handlers

import (
	"encoding/json"
	"io"
	"math/big"
	"net"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sigmapool/mining-proxy/metrics"
	"github.com/sigmapool/mining-proxy/rpc"
	"github.com/sigmapool/mining-proxy/services"
	"github.com/sigmapool/mining-proxy/types"
)

var logger = logrus.StandardLogger().WithField("module", "handlers")

// MiningProxy holds the proxy handler set and its collaborators. Miners
// talk to it as if it were the node; the candidate/solution/share routes
// are intercepted, everything else passes through verbatim.
type MiningProxy struct {
	node       *rpc.NodeClient
	pool       *rpc.PoolClient
	proofs     *services.ProofKeeper
	difficulty *big.Int

	limiter    *services.RateLimiter
	proxyCount uint
}

// NewMiningProxy creates the proxy handler set.
func NewMiningProxy(node *rpc.NodeClient, pool *rpc.PoolClient, proofs *services.ProofKeeper, difficulty *big.Int) *MiningProxy {
	return &MiningProxy{
		node:       node,
		pool:       pool,
		proofs:     proofs,
		difficulty: difficulty,
	}
}

// SetRateLimiter enables per-IP rate limiting on the candidate route.
func (mp *MiningProxy) SetRateLimiter(limiter *services.RateLimiter, proxyCount uint) {
	mp.limiter = limiter
	mp.proxyCount = proxyCount
}

// ProxyPass forwards any unmatched route to the node and re-emits the
// translated response unchanged.
func (mp *MiningProxy) ProxyPass(w http.ResponseWriter, r *http.Request) {
	metrics.ProxiedRequests.WithLabelValues("passthrough").Inc()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read request body")
		return
	}

	path := r.URL.Path
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}

	resp, err := mp.node.Forward(r.Context(), path, r.Method, r.Header, body)
	if err != nil {
		logger.WithError(err).WithField("path", r.URL.Path).Error("could not forward request to node")
		writeError(w, http.StatusBadGateway, "node unavailable")
		return
	}

	proxyResp, err := rpc.Translate(resp)
	if err != nil {
		logger.WithError(err).Error("could not read node response")
		writeError(w, http.StatusBadGateway, "node unavailable")
		return
	}

	mp.writeResponse(w, proxyResp)
}

func (mp *MiningProxy) writeResponse(w http.ResponseWriter, resp *types.ProxyResponse) {
	for name, vals := range resp.Headers {
		for _, val := range vals {
			w.Header().Add(name, val)
		}
	}
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.WriteHeader(resp.StatusCode)
	w.Write(resp.Body) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
	if err != nil {
		logger.WithError(err).Error("failed to encode error response")
	}
}

// getClientIP extracts the real client IP from the request
func (mp *MiningProxy) getClientIP(r *http.Request) string {
	var ip string

	if mp.proxyCount > 0 {
		forwardIps := strings.Split(r.Header.Get("X-Forwarded-For"), ", ")
		forwardIdx := len(forwardIps) - int(mp.proxyCount)
		if forwardIdx >= 0 {
			ip = forwardIps[forwardIdx]
		}
	}
	if ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
