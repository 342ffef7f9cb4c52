package config

import (
	_ "embed"
)

// proxy config defaults
//
//go:embed default.config.yml
var DefaultConfigYml string
