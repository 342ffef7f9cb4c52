package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/sigmapool/mining-proxy/types"
)

const (
	nodeApiKeyHeader = "api_key"

	NodeCandidateRoute        = "/mining/candidate"
	NodeCandidateWithTxsRoute = "/mining/candidateWithTxs"
	NodeSolutionRoute         = "/mining/solution"
	NodeGenerateTxRoute       = "/wallet/transaction/generate"
)

// NodeClient talks to the mining node. Generic calls are forwarded with the
// caller's headers; the node api key is attached when configured.
type NodeClient struct {
	endpoint string
	apiKey   string
	fw       *Forwarder
}

// NewNodeClient is used to create a new node client
func NewNodeClient(endpoint, apiKey string, timeout time.Duration) *NodeClient {
	return &NodeClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		fw:       NewForwarder(timeout),
	}
}

// Forward passes an inbound request through to the node verbatim.
func (nc *NodeClient) Forward(ctx context.Context, path, method string, header http.Header, body []byte) (*http.Response, error) {
	outHeader := http.Header{}
	for key, vals := range header {
		for _, val := range vals {
			outHeader.Add(key, val)
		}
	}
	if nc.apiKey != "" {
		outHeader.Set(nodeApiKeyHeader, nc.apiKey)
	}

	return nc.fw.Forward(ctx, nc.endpoint, path, method, outHeader, body)
}

// GenerateTransaction requests a funding transaction from the node wallet,
// payable to the given address. Returns the raw transaction JSON.
func (nc *NodeClient) GenerateTransaction(ctx context.Context, address string, value, fee uint64) (json.RawMessage, error) {
	payload := &types.TransactionRequest{
		Requests: []types.TransactionOutput{
			{Address: address, Value: value},
		},
		Fee: fee,
	}

	resp, err := nc.postJSON(ctx, NodeGenerateTxRoute, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "could not read transaction response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transaction generation returned status %v: %v", resp.StatusCode, string(body))
	}

	return json.RawMessage(body), nil
}

// CandidateWithTransactions requests a new mining candidate that includes
// the given transactions.
func (nc *NodeClient) CandidateWithTransactions(ctx context.Context, txs []json.RawMessage) (map[string]interface{}, error) {
	resp, err := nc.postJSON(ctx, NodeCandidateWithTxsRoute, txs)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "could not read candidate response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("candidateWithTxs returned status %v: %v", resp.StatusCode, string(body))
	}

	return DecodeJSONMap(body)
}

func (nc *NodeClient) postJSON(ctx context.Context, path string, payload interface{}) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "could not serialize node request")
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	if nc.apiKey != "" {
		header.Set(nodeApiKeyHeader, nc.apiKey)
	}

	return nc.fw.Forward(ctx, nc.endpoint, path, http.MethodPost, header, body)
}

// DecodeJSONMap parses a JSON object while keeping numbers as json.Number,
// so big difficulty/boundary values survive a re-encode unchanged.
func DecodeJSONMap(data []byte) (map[string]interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	result := map[string]interface{}{}
	err := decoder.Decode(&result)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse json object")
	}

	return result, nil
}
