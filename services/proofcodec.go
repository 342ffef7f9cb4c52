package services

import (
	"encoding/json"

	"github.com/mitchellh/mapstructure"

	"github.com/sigmapool/mining-proxy/types"
)

// ExtractProof derives the pool proof from a candidate-with-transactions
// response. Returns the serialized proof, or "" when the candidate carries
// no proof field. Missing nested fields degrade to empty/null values, the
// extraction itself never fails.
func ExtractProof(candidate map[string]interface{}) string {
	proofVal, ok := candidate["proof"]
	if !ok || proofVal == nil {
		return ""
	}

	decoded := types.CandidateProof{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &decoded,
		WeaklyTypedInput: true,
	})
	if err == nil {
		// decode errors leave the affected fields at their zero value
		decoder.Decode(proofVal) //nolint:errcheck
	}

	poolProof := types.PoolProof{
		MsgPreimage: decoded.MsgPreimage,
	}
	if pk, ok := candidate["pk"].(string); ok {
		poolProof.PK = pk
	}
	if len(decoded.TxProofs) > 0 {
		poolProof.Leaf = decoded.TxProofs[0].Leaf
		poolProof.Levels = decoded.TxProofs[0].Levels
	}

	data, err := json.Marshal(&poolProof)
	if err != nil {
		return ""
	}

	return string(data)
}
