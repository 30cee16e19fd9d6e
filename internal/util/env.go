package util

import (
	"os"

	"github.com/OFFIS-RIT/lendnet/backend/pkg/logger"

	"github.com/joho/godotenv"
)

// LoadEnv loads .env (or the given files) into the process environment.
// Variables that are already set win.
func LoadEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		logger.Debug("No .env file found, using system environment variables")
	}
}

// GetEnvBool reads a "true"/"false" variable; anything else yields
// defaultValue. It exists for settings needed before the typed
// configuration is loaded.
func GetEnvBool(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	if value == "true" || value == "false" {
		return value == "true"
	}

	return defaultValue
}
