package utils

import (
	"fmt"
	"math/big"
	"os"

	"dario.cat/mergo"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/sigmapool/mining-proxy/config"
	"github.com/sigmapool/mining-proxy/types"
)

// Config is the globally accessible configuration
var Config *types.Config

// ReadConfig will process a configuration
func ReadConfig(cfg *types.Config, path string) error {
	err := readConfigFile(cfg, path)
	if err != nil {
		return err
	}

	// fill unset fields from the embedded defaults
	defaults := &types.Config{}
	err = yaml.Unmarshal([]byte(config.DefaultConfigYml), defaults)
	if err != nil {
		return fmt.Errorf("error decoding embedded default config: %v", err)
	}
	err = mergo.Merge(cfg, *defaults)
	if err != nil {
		return fmt.Errorf("error merging default config: %v", err)
	}

	err = readConfigEnv(cfg)
	if err != nil {
		return err
	}

	if cfg.Node.Url == "" {
		return fmt.Errorf("missing node url (need a mining node endpoint to run the proxy)")
	}
	if cfg.Pool.Url == "" {
		return fmt.Errorf("missing pool url (need a pool endpoint to run the proxy)")
	}
	if _, err := PoolDifficulty(cfg); err != nil {
		return err
	}
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.Rate <= 0 {
			return fmt.Errorf("invalid rate limit rate %v: must be positive", cfg.RateLimit.Rate)
		}
		if cfg.RateLimit.Burst <= 0 {
			return fmt.Errorf("invalid rate limit burst %v: must be positive", cfg.RateLimit.Burst)
		}
	}

	log.WithFields(log.Fields{
		"node":       cfg.Node.Url,
		"pool":       cfg.Pool.Url,
		"difficulty": cfg.Pool.Difficulty,
	}).Infof("did init config")

	return nil
}

func readConfigFile(cfg *types.Config, path string) error {
	if path == "" {
		return yaml.Unmarshal([]byte(config.DefaultConfigYml), cfg)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error opening config file %v: %v", path, err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	err = decoder.Decode(cfg)
	if err != nil {
		return fmt.Errorf("error decoding config file %v: %v", path, err)
	}

	return nil
}

func readConfigEnv(cfg *types.Config) error {
	return envconfig.Process("", cfg)
}

// PoolDifficulty parses the configured pool difficulty as an arbitrary
// precision decimal integer.
func PoolDifficulty(cfg *types.Config) (*big.Int, error) {
	diff, ok := new(big.Int).SetString(cfg.Pool.Difficulty, 10)
	if !ok {
		return nil, fmt.Errorf("invalid pool difficulty %q: not a decimal integer", cfg.Pool.Difficulty)
	}
	return diff, nil
}
