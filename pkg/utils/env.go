package utils

import (
	"os"
	"time"

	"github.com/spf13/cast"
)

// Getenv retrieves the value of the environment variable named by the key.
// If the variable is not present or its value is empty, Getenv returns the fallback string.
func Getenv(key, fallback string) string {
	value := os.Getenv(key)
	if len(value) == 0 {
		return fallback
	}
	return value
}

// GetenvInt is Getenv for integer settings. Unparseable values fall back.
func GetenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if len(value) == 0 {
		return fallback
	}
	n, err := ToWholeNumber(value)
	if err != nil {
		return fallback
	}
	return n
}

// GetenvBool is Getenv for boolean settings ("true", "1", "false", "0").
func GetenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if len(value) == 0 {
		return fallback
	}
	b, err := cast.ToBoolE(value)
	if err != nil {
		return fallback
	}
	return b
}

// GetenvDuration reads a Go duration string such as "1h" or "15m".
func GetenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if len(value) == 0 {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
