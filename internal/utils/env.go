package utils

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/eventforge/internal/pkg/logger"
)

func GetEnv(key, defaultVal string, log *logger.Logger) string {
	if log != nil {
		log = log.With("env_var", key)
	}
	val, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(val) == "" {
		if log != nil {
			log.Debug("Environment variable not found, using default", "default", defaultVal)
		}
		return defaultVal
	}
	if log != nil {
		shown := val
		if sensitive(key) {
			shown = "[REDACTED]"
		}
		log.Debug("Environment variable found, using environment", "environment", shown)
	}
	return strings.TrimSpace(val)
}

func sensitive(key string) bool {
	k := strings.ToLower(key)
	for _, frag := range []string{"key", "token", "secret", "password"} {
		if strings.Contains(k, frag) {
			return true
		}
	}
	return false
}

func GetEnvAsInt(key string, defaultVal int, log *logger.Logger) int {
	raw, ok := lookup(key, log)
	if !ok {
		return defaultVal
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		if log != nil {
			log.Warn("Environment variable could not be parsed as int, using default", "env_var", key, "providedVal", raw, "defaultVal", defaultVal, "error", err)
		}
		return defaultVal
	}
	return i
}

func GetEnvAsFloat(key string, defaultVal float64, log *logger.Logger) float64 {
	raw, ok := lookup(key, log)
	if !ok {
		return defaultVal
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		if log != nil {
			log.Warn("Environment variable could not be parsed as float, using default", "env_var", key, "providedVal", raw, "defaultVal", defaultVal, "error", err)
		}
		return defaultVal
	}
	return f
}

func GetEnvAsBool(key string, defaultVal bool, log *logger.Logger) bool {
	raw, ok := lookup(key, log)
	if !ok {
		return defaultVal
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	if log != nil {
		log.Warn("Environment variable could not be parsed as bool, using default", "env_var", key, "providedVal", raw, "defaultVal", defaultVal)
	}
	return defaultVal
}

func GetEnvAsDuration(key string, defaultVal time.Duration, log *logger.Logger) time.Duration {
	raw, ok := lookup(key, log)
	if !ok {
		return defaultVal
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		if log != nil {
			log.Warn("Environment variable could not be parsed as duration, using default", "env_var", key, "providedVal", raw, "defaultVal", defaultVal.String(), "error", err)
		}
		return defaultVal
	}
	return d
}

func lookup(key string, log *logger.Logger) (string, bool) {
	raw, ok := os.LookupEnv(key)
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		if log != nil {
			log.Debug("Environment variable not found, using default", "env_var", key)
		}
		return "", false
	}
	return raw, true
}
