package advisor

import (
	"margadarshak/internal/common/logger"
	parsevendorquery "margadarshak/internal/workers/advisor/parse-vendor-query"
	synthesizerecommendations "margadarshak/internal/workers/advisor/synthesize-recommendations"
)

// The language-model stages declare their own narrow Logger. These adapters
// let them share the application logger.

type interpreterLogger struct{ logger.Logger }

func (l interpreterLogger) With(fields map[string]interface{}) parsevendorquery.Logger {
	return interpreterLogger{l.Logger.WithFields(fields)}
}

func InterpreterLogger(log logger.Logger) parsevendorquery.Logger {
	return interpreterLogger{log}
}

type synthesizerLogger struct{ logger.Logger }

func (l synthesizerLogger) With(fields map[string]interface{}) synthesizerecommendations.Logger {
	return synthesizerLogger{l.Logger.WithFields(fields)}
}

func SynthesizerLogger(log logger.Logger) synthesizerecommendations.Logger {
	return synthesizerLogger{log}
}
