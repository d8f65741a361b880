package config

import (
	"os"
	"strings"
)

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// GetEnvironment returns the current environment from STOCKROOM_SERVER_ENVIRONMENT.
// Defaults to development if not set.
func GetEnvironment() string {
	env := os.Getenv("STOCKROOM_SERVER_ENVIRONMENT")
	if env == "" {
		return EnvDevelopment
	}
	return strings.ToLower(env)
}

// IsProductionLike reports whether the environment is staging or production.
func IsProductionLike(env string) bool {
	env = strings.ToLower(env)
	return env == EnvStaging || env == EnvProduction
}
