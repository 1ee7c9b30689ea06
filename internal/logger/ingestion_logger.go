package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// IngestionLogger provides dedicated logging for record imports.
type IngestionLogger struct {
	*logrus.Entry
}

// NewIngestionLogger creates a new ingestion logger.
func NewIngestionLogger(baseLogger *logrus.Logger) *IngestionLogger {
	return &IngestionLogger{
		Entry: baseLogger.WithField("component", "ingestion"),
	}
}

// LogImportCompleted logs the outcome of one file import.
func (il *IngestionLogger) LogImportCompleted(kind, path string, imported, skipped int, duration time.Duration) {
	il.WithFields(logrus.Fields{
		"kind":     kind,
		"path":     path,
		"imported": imported,
		"skipped":  skipped,
		"duration": duration.String(),
	}).Info("Import completed")
}

// LogRowRejected logs a row dropped by validation.
func (il *IngestionLogger) LogRowRejected(kind string, line int, reason string) {
	il.WithFields(logrus.Fields{
		"kind":   kind,
		"line":   line,
		"reason": reason,
	}).Warn("Rejected malformed row")
}
