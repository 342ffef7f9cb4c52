package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigmapool/mining-proxy/rpc"
)

func newTestKeeper(t *testing.T, nodeURL, poolURL string) *ProofKeeper {
	t.Helper()

	node := rpc.NewNodeClient(nodeURL, "", time.Second)
	pool := rpc.NewPoolClient(poolURL, "/share", "/proof", "/tx", time.Second)

	kp := NewProofKeeper(node, pool, "test-wallet", 1000000, 10000)

	nullLogger, _ := test.NewNullLogger()
	kp.logger = logrus.NewEntry(nullLogger)
	kp.SetFatalFunc(func(format string, args ...interface{}) {})

	return kp
}

func candidateWithProof(msg string) map[string]interface{} {
	candidate := map[string]interface{}{}
	data := fmt.Sprintf(`{
		"msg": %q,
		"b": 1234,
		"pk": "pk1",
		"proof": {
			"msgPreimage": "deadbeef",
			"txProofs": [{"leaf": "l1", "levels": ["a"]}]
		}
	}`, msg)
	json.Unmarshal([]byte(data), &candidate) //nolint:errcheck
	return candidate
}

func TestDeliverProofToPoolNoopWithoutProof(t *testing.T) {
	var proofPosts int64

	pool := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/proof" {
			atomic.AddInt64(&proofPosts, 1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer pool.Close()

	kp := newTestKeeper(t, "http://127.0.0.1:1", pool.URL)

	kp.DeliverProofToPool(context.Background())

	assert.Equal(t, int64(0), atomic.LoadInt64(&proofPosts))
	assert.True(t, kp.deliveryOK())
}

func TestDeliverProofRetriedExactlyOnce(t *testing.T) {
	var proofPosts int64
	var failDelivery int32 = 1

	pool := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/proof" {
			w.WriteHeader(http.StatusOK)
			return
		}
		atomic.AddInt64(&proofPosts, 1)
		if atomic.LoadInt32(&failDelivery) != 0 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer pool.Close()

	kp := newTestKeeper(t, "http://127.0.0.1:1", pool.URL)
	kp.UpdateProofFromCandidate(candidateWithProof("m1"))

	// first delivery fails, flag stays down
	kp.DeliverProofToPool(context.Background())
	assert.Equal(t, int64(1), atomic.LoadInt64(&proofPosts))
	assert.False(t, kp.deliveryOK())

	// next opportunity retries exactly once and succeeds
	atomic.StoreInt32(&failDelivery, 0)
	kp.MaybeRetryDelivery(context.Background())
	assert.Equal(t, int64(2), atomic.LoadInt64(&proofPosts))
	assert.True(t, kp.deliveryOK())

	// delivered proofs are not re-sent
	kp.MaybeRetryDelivery(context.Background())
	assert.Equal(t, int64(2), atomic.LoadInt64(&proofPosts))
}

func TestGenerateProof(t *testing.T) {
	var txNotifies int64

	node := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case rpc.NodeGenerateTxRoute:
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"tx1"}`)) //nolint:errcheck
		case rpc.NodeCandidateWithTxsRoute:
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"msg": "m2",
				"b": 1234,
				"pk": "pk1",
				"proof": {"msgPreimage": "cafe", "txProofs": [{"leaf": "l2", "levels": []}]}
			}`)) //nolint:errcheck
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer node.Close()

	pool := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/tx" {
			atomic.AddInt64(&txNotifies, 1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer pool.Close()

	kp := newTestKeeper(t, node.URL, pool.URL)

	candidate, err := kp.GenerateProof(context.Background(), "pk1")
	require.NoError(t, err)
	require.NotNil(t, candidate)

	assert.Equal(t, "m2", candidate["msg"])
	assert.Equal(t, int64(1), atomic.LoadInt64(&txNotifies))
	assert.Contains(t, kp.CurrentProof(), "cafe")
	assert.False(t, kp.GenerationInFlight())
}

func TestGenerateProofPoolNotifyFailureIsNotFatal(t *testing.T) {
	node := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case rpc.NodeGenerateTxRoute:
			w.Write([]byte(`{"id":"tx1"}`)) //nolint:errcheck
		case rpc.NodeCandidateWithTxsRoute:
			w.Write([]byte(`{"msg":"m2","pk":"pk1","proof":{"msgPreimage":"cafe","txProofs":[{"leaf":"l2","levels":[]}]}}`)) //nolint:errcheck
		}
	}))
	defer node.Close()

	pool := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer pool.Close()

	kp := newTestKeeper(t, node.URL, pool.URL)

	candidate, err := kp.GenerateProof(context.Background(), "pk1")
	require.NoError(t, err)
	assert.Equal(t, "m2", candidate["msg"])
}

func TestGenerateProofFundingFailureIsFatal(t *testing.T) {
	node := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer node.Close()

	pool := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer pool.Close()

	kp := newTestKeeper(t, node.URL, pool.URL)

	var fatalCalls int
	kp.SetFatalFunc(func(format string, args ...interface{}) {
		fatalCalls++
	})

	candidate, err := kp.GenerateProof(context.Background(), "pk1")
	assert.Error(t, err)
	assert.Nil(t, candidate)
	assert.Equal(t, 1, fatalCalls)
	assert.False(t, kp.GenerationInFlight())
}

func TestGenerateProofMutualExclusion(t *testing.T) {
	kp := newTestKeeper(t, "http://127.0.0.1:1", "http://127.0.0.1:1")

	require.True(t, kp.tryBeginGeneration())
	defer kp.endGeneration()

	_, err := kp.GenerateProof(context.Background(), "pk1")
	assert.ErrorIs(t, err, ErrGenerationBusy)
}
