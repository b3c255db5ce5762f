package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the shared application logger. Engine services never log; the HTTP
// layer, jobs and the audit publisher do.
var Log = logrus.New()

func InitLogger(env string) {
	Log.SetOutput(os.Stdout)
	if env == "production" {
		Log.SetFormatter(&logrus.JSONFormatter{})
		Log.SetLevel(logrus.InfoLevel)
	} else {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		Log.SetLevel(logrus.DebugLevel)
	}
}
