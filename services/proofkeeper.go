package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/sigmapool/mining-proxy/metrics"
	"github.com/sigmapool/mining-proxy/rpc"
)

// ErrGenerationBusy is returned when a transaction generation is already in
// flight. Only one generation may run at a time.
var ErrGenerationBusy = errors.New("transaction generation already in progress")

// FatalFunc is invoked when the proxy cannot continue serving requests.
// Defaults to logrus.Fatalf, which exits the process.
type FatalFunc func(format string, args ...interface{})

// ProofKeeper owns the mutable mining session: the last processed block
// header, the current proof, the transaction-generation busy flag and the
// pool delivery state. All handlers share a single instance; every
// check-then-act sequence on the session fields holds the mutex.
type ProofKeeper struct {
	node   *rpc.NodeClient
	pool   *rpc.PoolClient
	logger *logrus.Entry
	fatal  FatalFunc

	wallet  string
	txValue uint64
	txFee   uint64

	mutex              sync.Mutex
	blockHeader        string
	currentProof       string
	generationInFlight bool
	poolDeliveryOK     bool
}

// NewProofKeeper creates the session state holder. wallet/txValue/txFee
// parameterize generated funding transactions.
func NewProofKeeper(node *rpc.NodeClient, pool *rpc.PoolClient, wallet string, txValue, txFee uint64) *ProofKeeper {
	return &ProofKeeper{
		node:           node,
		pool:           pool,
		logger:         logrus.StandardLogger().WithField("module", "proofs"),
		fatal:          logrus.Fatalf,
		wallet:         wallet,
		txValue:        txValue,
		txFee:          txFee,
		poolDeliveryOK: true,
	}
}

// SetFatalFunc overrides the fatal handler (used by tests).
func (kp *ProofKeeper) SetFatalFunc(fatal FatalFunc) {
	kp.fatal = fatal
}

// BlockHeader returns the last block header processed into a proof.
func (kp *ProofKeeper) BlockHeader() string {
	kp.mutex.Lock()
	defer kp.mutex.Unlock()
	return kp.blockHeader
}

// AdvanceBlockHeader stores a newly processed block header.
func (kp *ProofKeeper) AdvanceBlockHeader(header string) {
	kp.mutex.Lock()
	defer kp.mutex.Unlock()
	kp.blockHeader = header
}

// CurrentProof returns the serialized proof, or "" when none is available.
func (kp *ProofKeeper) CurrentProof() string {
	kp.mutex.Lock()
	defer kp.mutex.Unlock()
	return kp.currentProof
}

// GenerationInFlight reports whether a transaction generation is running.
func (kp *ProofKeeper) GenerationInFlight() bool {
	kp.mutex.Lock()
	defer kp.mutex.Unlock()
	return kp.generationInFlight
}

func (kp *ProofKeeper) tryBeginGeneration() bool {
	kp.mutex.Lock()
	defer kp.mutex.Unlock()
	if kp.generationInFlight {
		return false
	}
	kp.generationInFlight = true
	return true
}

func (kp *ProofKeeper) endGeneration() {
	kp.mutex.Lock()
	defer kp.mutex.Unlock()
	kp.generationInFlight = false
}

// UpdateProofFromCandidate extracts the proof from a candidate response and
// stores it unconditionally, including an empty result.
func (kp *ProofKeeper) UpdateProofFromCandidate(candidate map[string]interface{}) {
	proof := ExtractProof(candidate)
	kp.mutex.Lock()
	kp.currentProof = proof
	kp.mutex.Unlock()
}

// GenerateProof runs the transaction-generation protocol: fund a coinbase
// transaction via the node wallet, notify the pool about it (best effort),
// fetch a candidate that includes the transaction and derive the proof from
// it. Returns the new candidate, or an error if any step failed.
//
// A wallet funding failure is fatal: without a funded coinbase no future
// candidate can be serviced, so the process terminates via the fatal hook.
func (kp *ProofKeeper) GenerateProof(ctx context.Context, minerPk string) (map[string]interface{}, error) {
	if !kp.tryBeginGeneration() {
		return nil, ErrGenerationBusy
	}
	defer kp.endGeneration()

	kp.logger.WithField("pk", minerPk).Info("generating funding transaction for new proof")

	tx, err := kp.node.GenerateTransaction(ctx, kp.wallet, kp.txValue, kp.txFee)
	if err != nil {
		kp.fatal("could not generate funding transaction, no further mining work can be served: %v", err)
		return nil, err
	}

	// pool notification failures do not invalidate the generated transaction
	err = kp.pool.NotifyTransaction(ctx, tx)
	if err != nil {
		kp.logger.WithError(err).Warn("could not forward funding transaction to pool")
		metrics.PoolSubmissions.WithLabelValues("transaction", "error").Inc()
	} else {
		metrics.PoolSubmissions.WithLabelValues("transaction", "ok").Inc()
	}

	candidate, err := kp.node.CandidateWithTransactions(ctx, []json.RawMessage{tx})
	if err != nil {
		kp.logger.WithError(err).Error("could not fetch candidate with generated transaction")
		return nil, err
	}

	kp.UpdateProofFromCandidate(candidate)

	return candidate, nil
}

// DeliverProofToPool sends the current proof to the pool's proof route.
// No-op when no proof is available. On failure the delivery flag stays
// false so the next opportunity retries.
func (kp *ProofKeeper) DeliverProofToPool(ctx context.Context) {
	proof := kp.CurrentProof()
	if proof == "" {
		return
	}

	kp.setDeliveryOK(false)

	err := kp.pool.SubmitProof(ctx, proof)
	if err != nil {
		kp.logger.WithError(err).Warn("could not deliver proof to pool, will retry on next opportunity")
		metrics.ProofDeliveries.WithLabelValues("error").Inc()
		return
	}

	kp.setDeliveryOK(true)
	metrics.ProofDeliveries.WithLabelValues("ok").Inc()
}

// MaybeRetryDelivery re-attempts a failed proof delivery. Called at the
// start of solution/share handling so a stale proof gets another chance
// before new work is accepted.
func (kp *ProofKeeper) MaybeRetryDelivery(ctx context.Context) {
	if !kp.deliveryOK() {
		kp.DeliverProofToPool(ctx)
	}
}

func (kp *ProofKeeper) deliveryOK() bool {
	kp.mutex.Lock()
	defer kp.mutex.Unlock()
	return kp.poolDeliveryOK
}

func (kp *ProofKeeper) setDeliveryOK(ok bool) {
	kp.mutex.Lock()
	defer kp.mutex.Unlock()
	kp.poolDeliveryOK = ok
}
