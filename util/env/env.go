package env

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func GetOrDefault(name, defaultValue string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return defaultValue
}

func GetDurationOrDefault(name string, defaultValue time.Duration) time.Duration {
	v, ok := os.LookupEnv(name)
	if !ok {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultValue
	}
	return d
}

// IsTruthy accepts 1/t/true/y/yes/on in any case.
func IsTruthy(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "y", "yes", "on":
		return true
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
