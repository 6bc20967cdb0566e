package logging

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/kubecostopt/costopt-backend/internal/config"
)

var log *logrus.Logger = nil

func initLogger() {
	cfg := config.GetConfig()
	log = logrus.New()

	var logLevel logrus.Level
	switch cfg.LogLevel {
	case "DEBUG":
		logLevel = logrus.DebugLevel
	case "ERROR":
		logLevel = logrus.ErrorLevel
	default:
		logLevel = logrus.InfoLevel
	}

	log.Level = logLevel
	log.Out = os.Stdout
	log.ReportCaller = true
}

func GetLogger() *logrus.Logger {
	if log == nil {
		initLogger()
	}
	return log
}
