package main

import (
	"flag"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/urfave/negroni"

	"github.com/sigmapool/mining-proxy/handlers"
	"github.com/sigmapool/mining-proxy/metrics"
	"github.com/sigmapool/mining-proxy/rpc"
	"github.com/sigmapool/mining-proxy/services"
	"github.com/sigmapool/mining-proxy/types"
	"github.com/sigmapool/mining-proxy/utils"
)

func main() {
	configPath := flag.String("config", "", "Path to the config file, if empty string defaults will be used")
	flag.Parse()

	cfg := &types.Config{}
	err := utils.ReadConfig(cfg, *configPath)
	if err != nil {
		logrus.Fatalf("error reading config file: %v", err)
	}
	utils.Config = cfg
	logWriter, logger := utils.InitLogger()
	defer logWriter.Dispose()

	logger.WithFields(logrus.Fields{
		"config": *configPath,
		"node":   cfg.Node.Url,
		"pool":   cfg.Pool.Url,
	}).Printf("starting")

	difficulty, err := utils.PoolDifficulty(cfg)
	if err != nil {
		logger.Fatalf("error parsing pool difficulty: %v", err)
	}

	node := rpc.NewNodeClient(cfg.Node.Url, cfg.Node.ApiKey, cfg.Node.CallTimeout)
	pool := rpc.NewPoolClient(cfg.Pool.Url, cfg.Pool.SolutionRoute, cfg.Pool.ProofRoute, cfg.Pool.TransactionRoute, cfg.Pool.CallTimeout)
	proofs := services.NewProofKeeper(node, pool, cfg.Pool.Wallet, cfg.Pool.TransactionValue, cfg.Pool.TransactionFee)

	proxy := handlers.NewMiningProxy(node, pool, proofs, difficulty)
	if cfg.RateLimit.Enabled {
		proxy.SetRateLimiter(services.NewRateLimiter(cfg.RateLimit.Rate, cfg.RateLimit.Burst), cfg.RateLimit.ProxyCount)
	}

	if cfg.Metrics.Enabled && !cfg.Metrics.Public {
		err = metrics.StartMetricsServer(logger.WithField("module", "metrics"), cfg.Metrics.Host, cfg.Metrics.Port)
		if err != nil {
			logger.Fatalf("error starting metrics server: %v", err)
		}
	}

	err = startWebserver(logger, proxy)
	if err != nil {
		logger.Fatalf("error starting webserver: %v", err)
	}

	utils.WaitForCtrlC()
	logger.Println("exiting...")
}

func startWebserver(logger logrus.FieldLogger, proxy *handlers.MiningProxy) error {
	router := mux.NewRouter()

	router.HandleFunc("/mining/candidate", proxy.MiningCandidate).Methods("GET")
	router.HandleFunc("/mining/solution", proxy.MiningSolution).Methods("POST")
	router.HandleFunc("/mining/share", proxy.MiningShare).Methods("POST")

	if utils.Config.Metrics.Enabled && utils.Config.Metrics.Public {
		router.Handle("/metrics", metrics.GetMetricsHandler())
	}

	router.PathPrefix("/").HandlerFunc(proxy.ProxyPass)

	n := negroni.New()
	n.Use(negroni.NewRecovery())
	n.Use(handlers.RequestLogger())
	n.UseHandler(router)

	if utils.Config.Server.HttpWriteTimeout == 0 {
		utils.Config.Server.HttpWriteTimeout = time.Second * 60
	}
	if utils.Config.Server.HttpReadTimeout == 0 {
		utils.Config.Server.HttpReadTimeout = time.Second * 60
	}
	if utils.Config.Server.HttpIdleTimeout == 0 {
		utils.Config.Server.HttpIdleTimeout = time.Second * 120
	}
	srv := &http.Server{
		Addr:         utils.Config.Server.Host + ":" + utils.Config.Server.Port,
		WriteTimeout: utils.Config.Server.HttpWriteTimeout,
		ReadTimeout:  utils.Config.Server.HttpReadTimeout,
		IdleTimeout:  utils.Config.Server.HttpIdleTimeout,
		Handler:      n,
	}

	listener, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}

	logger.Printf("http server listening on %v", srv.Addr)
	go func() {
		defer utils.HandleSubroutinePanic("serveProxy")

		if err := srv.Serve(listener); err != nil {
			logger.WithError(err).Fatal("Error serving proxy")
		}
	}()

	return nil
}
