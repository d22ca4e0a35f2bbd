// Package logger configures the process-wide structured logger.
package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var appLogger = logrus.New()

// Setup configures the shared logger from config values. format is "json" or
// "text"; unknown levels fall back to info.
func Setup(level, format string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	appLogger.SetLevel(lvl)
	appLogger.SetOutput(os.Stdout)
	if format == "json" {
		appLogger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		appLogger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// L returns the shared application logger.
func L() *logrus.Logger {
	return appLogger
}

// WithComponent returns an entry tagged with the originating component.
func WithComponent(name string) *logrus.Entry {
	return appLogger.WithField("component", name)
}

// WithRequest returns an entry tagged with a request id and, when present,
// the acting membership.
func WithRequest(requestID string, membershipID int64) *logrus.Entry {
	fields := logrus.Fields{"request_id": requestID}
	if membershipID != 0 {
		fields["membership_id"] = membershipID
	}
	return appLogger.WithFields(fields)
}
