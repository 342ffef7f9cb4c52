package types

import "encoding/json"

// MinerSolution is the body miners POST to the solution/share routes.
// d can exceed 64 bits, so it is kept as a raw JSON number.
type MinerSolution struct {
	PK string      `json:"pk"`
	W  string      `json:"w"`
	N  string      `json:"n"`
	D  json.Number `json:"d"`
}

// NodeSolution is the solution schema the node expects.
type NodeSolution struct {
	PK string          `json:"pk"`
	W  string          `json:"w"`
	N  string          `json:"n"`
	D  json.RawMessage `json:"d"`
}

// PoolShare is the share schema the pool expects on its solution route.
type PoolShare struct {
	PK    string          `json:"pk"`
	W     string          `json:"w"`
	Nonce string          `json:"nonce"`
	D     json.RawMessage `json:"d"`
}

// TransactionRequest is the funding request sent to the node wallet.
type TransactionRequest struct {
	Requests []TransactionOutput `json:"requests"`
	Fee      uint64              `json:"fee"`
}

// TransactionOutput is a single payment output of a funding request.
type TransactionOutput struct {
	Address string `json:"address"`
	Value   uint64 `json:"value"`
}

// CandidateProof is the subset of a candidateWithTxs response the proof
// is derived from. Decoded from the loosely typed node JSON via mapstructure.
type CandidateProof struct {
	MsgPreimage string          `mapstructure:"msgPreimage"`
	TxProofs    []CandidateLeaf `mapstructure:"txProofs"`
}

// CandidateLeaf is one Merkle path entry of a candidate proof.
type CandidateLeaf struct {
	Leaf   string        `mapstructure:"leaf"`
	Levels []interface{} `mapstructure:"levels"`
}

// PoolProof is the proof schema the pool expects; serialized as a canonical
// JSON string. An absent proof is represented by the empty string.
type PoolProof struct {
	PK          string        `json:"pk"`
	MsgPreimage string        `json:"msg_pre_image"`
	Leaf        string        `json:"leaf"`
	Levels      []interface{} `json:"levels"`
}
