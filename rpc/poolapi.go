package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// PoolClient talks to the mining pool server. All pool calls are JSON POSTs
// to statically configured routes.
type PoolClient struct {
	endpoint string

	solutionRoute    string
	proofRoute       string
	transactionRoute string

	fw *Forwarder
}

// NewPoolClient is used to create a new pool client
func NewPoolClient(endpoint, solutionRoute, proofRoute, transactionRoute string, timeout time.Duration) *PoolClient {
	return &PoolClient{
		endpoint:         endpoint,
		solutionRoute:    solutionRoute,
		proofRoute:       proofRoute,
		transactionRoute: transactionRoute,
		fw:               NewForwarder(timeout),
	}
}

// SubmitSolution posts a share to the pool's solution route.
func (pc *PoolClient) SubmitSolution(ctx context.Context, share interface{}) error {
	return pc.postJSON(ctx, pc.solutionRoute, share)
}

// SubmitProof posts a serialized proof to the pool's proof route.
// The proof is already canonical JSON, so it is sent as-is.
func (pc *PoolClient) SubmitProof(ctx context.Context, proof string) error {
	return pc.postJSON(ctx, pc.proofRoute, json.RawMessage(proof))
}

// NotifyTransaction posts a generated funding transaction to the pool.
func (pc *PoolClient) NotifyTransaction(ctx context.Context, tx json.RawMessage) error {
	return pc.postJSON(ctx, pc.transactionRoute, tx)
}

func (pc *PoolClient) postJSON(ctx context.Context, route string, payload interface{}) error {
	resp, err := pc.fw.ForwardJSON(ctx, pc.endpoint, route, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("pool %v returned status %v: %v", route, resp.StatusCode, string(body))
	}

	// drain so the connection can be reused
	io.Copy(io.Discard, resp.Body)

	return nil
}
