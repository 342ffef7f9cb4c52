package metrics

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/sigmapool/mining-proxy/utils"
)

var (
	// ProxiedRequests counts inbound requests per route class.
	ProxiedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "miningproxy_requests_total",
		Help: "Total number of requests handled by the proxy, by route.",
	}, []string{"route"})

	// CandidateResults counts candidate request outcomes.
	CandidateResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "miningproxy_candidate_total",
		Help: "Total number of candidate requests, by outcome.",
	}, []string{"outcome"})

	// ProofDeliveries counts proof delivery attempts to the pool.
	ProofDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "miningproxy_proof_delivery_total",
		Help: "Total number of proof delivery attempts to the pool, by result.",
	}, []string{"result"})

	// PoolSubmissions counts best-effort pool submissions.
	PoolSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "miningproxy_pool_submission_total",
		Help: "Total number of pool submissions, by route and result.",
	}, []string{"route", "result"})
)

func StartMetricsServer(logger logrus.FieldLogger, host string, port string) error {
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "9090"
	}

	srv := &http.Server{
		Addr:    host + ":" + port,
		Handler: promhttp.Handler(),
	}

	listener, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}

	go func() {
		defer utils.HandleSubroutinePanic("serveMetrics")

		logger.Infof("metrics server listening on %v", srv.Addr)
		if err := srv.Serve(listener); err != nil {
			logger.WithError(err).Fatal("Error serving metrics")
		}
	}()

	return nil
}

func GetMetricsHandler() http.Handler {
	return promhttp.Handler()
}
