package types

import "time"

// Config is a struct to hold the configuration data
type Config struct {
	Logging struct {
		OutputLevel  string `yaml:"outputLevel" envconfig:"LOGGING_OUTPUT_LEVEL"`
		OutputStderr bool   `yaml:"outputStderr" envconfig:"LOGGING_OUTPUT_STDERR"`

		FilePath  string `yaml:"filePath" envconfig:"LOGGING_FILE_PATH"`
		FileLevel string `yaml:"fileLevel" envconfig:"LOGGING_FILE_LEVEL"`
	} `yaml:"logging"`

	Server struct {
		Host string `yaml:"host" envconfig:"SERVER_HOST"`
		Port string `yaml:"port" envconfig:"SERVER_PORT"`

		HttpReadTimeout  time.Duration `yaml:"httpReadTimeout" envconfig:"SERVER_HTTP_READ_TIMEOUT"`
		HttpWriteTimeout time.Duration `yaml:"httpWriteTimeout" envconfig:"SERVER_HTTP_WRITE_TIMEOUT"`
		HttpIdleTimeout  time.Duration `yaml:"httpIdleTimeout" envconfig:"SERVER_HTTP_IDLE_TIMEOUT"`
	} `yaml:"server"`

	Node struct {
		Url         string        `yaml:"url" envconfig:"NODE_URL"`
		ApiKey      string        `yaml:"apiKey" envconfig:"NODE_API_KEY"`
		CallTimeout time.Duration `yaml:"callTimeout" envconfig:"NODE_CALL_TIMEOUT"`
	} `yaml:"node"`

	Pool struct {
		Url    string `yaml:"url" envconfig:"POOL_URL"`
		Wallet string `yaml:"wallet" envconfig:"POOL_WALLET"`

		// pool share difficulty, decimal string (arbitrary precision)
		Difficulty string `yaml:"difficulty" envconfig:"POOL_DIFFICULTY"`

		SolutionRoute    string `yaml:"solutionRoute" envconfig:"POOL_SOLUTION_ROUTE"`
		ProofRoute       string `yaml:"proofRoute" envconfig:"POOL_PROOF_ROUTE"`
		TransactionRoute string `yaml:"transactionRoute" envconfig:"POOL_TRANSACTION_ROUTE"`

		TransactionValue uint64 `yaml:"transactionValue" envconfig:"POOL_TRANSACTION_VALUE"`
		TransactionFee   uint64 `yaml:"transactionFee" envconfig:"POOL_TRANSACTION_FEE"`

		CallTimeout time.Duration `yaml:"callTimeout" envconfig:"POOL_CALL_TIMEOUT"`
	} `yaml:"pool"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" envconfig:"METRICS_ENABLED"`
		Host    string `yaml:"host" envconfig:"METRICS_HOST"`
		Port    string `yaml:"port" envconfig:"METRICS_PORT"`

		// when public, /metrics is served on the proxy port instead
		// of a separate listener
		Public bool `yaml:"public" envconfig:"METRICS_PUBLIC"`
	} `yaml:"metrics"`

	RateLimit struct {
		Enabled    bool `yaml:"enabled" envconfig:"RATELIMIT_ENABLED"`
		ProxyCount uint `yaml:"proxyCount" envconfig:"RATELIMIT_PROXY_COUNT"`
		Rate       int  `yaml:"rate" envconfig:"RATELIMIT_RATE"`
		Burst      int  `yaml:"burst" envconfig:"RATELIMIT_BURST"`
	} `yaml:"rateLimit"`
}
