package handler

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// envVarMap holds overrides loaded when running locally. They take precedence
// over the process environment.
var envVarMap = map[string]string{}

func lookupEnv(key string) string {
	if val, ok := envVarMap[key]; ok {
		return val
	}
	return os.Getenv(key)
}

func GetEnv(key string) string {
	return lookupEnv(key)
}

// GetEnvOrDefault returns defaultValue when the variable is unset or blank.
func GetEnvOrDefault(key string, defaultValue string) string {
	if val := lookupEnv(key); strings.TrimSpace(val) != "" {
		return val
	}
	return defaultValue
}

// GetEnvBool parses the variable with strconv.ParseBool. Unset, blank or
// unparseable values give defaultValue.
func GetEnvBool(key string, defaultValue bool) bool {
	val, err := strconv.ParseBool(strings.TrimSpace(lookupEnv(key)))
	if err != nil {
		return defaultValue
	}
	return val
}

func MustGetEnv(key string) string {
	val := lookupEnv(key)
	if strings.TrimSpace(val) == "" {
		panic(fmt.Errorf("environment variable for '%s' has not been set", key))
	}
	return val
}
