package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerLevels(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newLogger(buf, "debug", "development")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)

	log = newLogger(buf, "nonsense", "production")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}

func TestFeatureLoggerBuilt(t *testing.T) {
	log, buf := setupTestLogger()
	NewFeatureLogger(log).LogFeaturesBuilt("2024-R3-GEE-CAR", 5, 3, 1500*time.Microsecond)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "features", logEntry["component"])
	assert.Equal(t, "2024-R3-GEE-CAR", logEntry["match_id"])
	assert.Equal(t, 1.5, logEntry["duration_ms"])
}

func TestFeatureLoggerMalformedCounter(t *testing.T) {
	log, buf := setupTestLogger()
	NewFeatureLogger(log).LogMalformedCounter("m1", "P. Dangerfield", "tackles", -3)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "warning", logEntry["level"])
	assert.Equal(t, "tackles", logEntry["stat"])
}

func TestPredictionLoggerError(t *testing.T) {
	log, buf := setupTestLogger()
	NewPredictionLogger(log).LogPredictionError("m1", errors.New("model unavailable"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "prediction", logEntry["component"])
	assert.Equal(t, "model unavailable", logEntry["error_reason"])
}

func TestIngestionLoggerImport(t *testing.T) {
	log, buf := setupTestLogger()
	NewIngestionLogger(log).LogImportCompleted("matches", "data/matches.csv", 198, 2, time.Second)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "ingestion", logEntry["component"])
	assert.Equal(t, float64(198), logEntry["imported"])
	assert.Equal(t, float64(2), logEntry["skipped"])
}
