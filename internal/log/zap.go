package log

import (
	"go.uber.org/zap"
)

var Logger = zap.NewNop()

func InitProductionLogger() {
	Logger, _ = zap.NewProduction()
}

func InitDevelopmentLogger() {
	Logger, _ = zap.NewDevelopment()
}

// Init selects the logger for mode: "development" or "dev" picks the
// development logger, anything else the production one.
func Init(mode string) {
	switch mode {
	case "development", "dev":
		InitDevelopmentLogger()
	default:
		InitProductionLogger()
	}
}
