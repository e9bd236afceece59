// Package ballot hosts the globals shared by the packages of the election
// ledger: the logger and the list of prometheus collectors.
package ballot

import (
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// EnvLogLevel is the name of the environment variable to change the logging
// level.
const EnvLogLevel = "LLVL"

const defaultLevel = zerolog.InfoLevel

func init() {
	lvl := os.Getenv(EnvLogLevel)

	Logger = Logger.Level(ParseLevel(lvl))
}

var logout = zerolog.ConsoleWriter{
	Out:        os.Stdout,
	TimeFormat: time.RFC3339,
}

// Logger is a globally available logger instance. By default, it only prints
// info level logs, which can be changed with the LLVL environment variable or
// the configuration file.
var Logger = zerolog.New(logout).Level(defaultLevel).
	With().Timestamp().Logger().
	With().Caller().Logger()

// PromCollectors exposes the collectors of the packages. The proxy registers
// them when the metrics handler is served.
var PromCollectors []prometheus.Collector

// ParseLevel returns the zerolog level matching the name. Unknown or empty
// names fall back to the info level.
func ParseLevel(name string) zerolog.Level {
	switch strings.ToLower(name) {
	case "error":
		return zerolog.ErrorLevel
	case "warn":
		return zerolog.WarnLevel
	case "debug":
		return zerolog.DebugLevel
	case "trace":
		return zerolog.TraceLevel
	case "none":
		return zerolog.Disabled
	default:
		return defaultLevel
	}
}
