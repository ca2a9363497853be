// Package util holds process wide switches read from the environment.
package util

import (
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

var logger = logrus.WithField("component", "idp.util")

const (
	EnvDebug     = "IDP_DEBUG"
	EnvHttpTrace = "IDP_HTTP_TRACE"
)

// DebugEnabled turns on debug logging and gin debug mode in the fake backend.
func DebugEnabled() bool {
	return Flag(EnvDebug)
}

// HttpTraceEnabled logs request timings and response bodies of every API call.
func HttpTraceEnabled() bool {
	return Flag(EnvHttpTrace)
}

// Flag reads a boolean environment switch. Unset, empty and unparsable
// values are false; an unparsable value is logged once per call.
func Flag(name string) bool {
	v, ok := os.LookupEnv(name)
	if !ok || strings.TrimSpace(v) == "" {
		return false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		logger.WithField("env", name).WithField("value", v).Warn("ignoring non boolean switch")
		return false
	}
	return b
}

// GetEnvOrSkip returns the variable or ok == false, for integration tests
// gated on the environment.
func GetEnvOrSkip(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}
