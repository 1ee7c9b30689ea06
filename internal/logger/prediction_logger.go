package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// PredictionLogger provides dedicated logging for estimator and prediction events.
type PredictionLogger struct {
	*logrus.Entry
}

// NewPredictionLogger creates a new prediction logger.
func NewPredictionLogger(baseLogger *logrus.Logger) *PredictionLogger {
	return &PredictionLogger{
		Entry: baseLogger.WithField("component", "prediction"),
	}
}

// LogPrediction logs a completed prediction.
func (pl *PredictionLogger) LogPrediction(matchID, modelVersion string, homeWinProbability float64, latency time.Duration) {
	pl.WithFields(logrus.Fields{
		"match_id":             matchID,
		"model_version":        modelVersion,
		"home_win_probability": homeWinProbability,
		"latency_ms":           float64(latency.Microseconds()) / 1000,
	}).Info("Prediction completed")
}

// LogPredictionError logs a failed prediction.
func (pl *PredictionLogger) LogPredictionError(matchID string, err error) {
	pl.WithFields(logrus.Fields{
		"match_id":     matchID,
		"error_reason": err.Error(),
	}).Error("Prediction failed")
}

// LogModelLoaded logs an estimator becoming available.
func (pl *PredictionLogger) LogModelLoaded(estimatorType, modelVersion string) {
	pl.WithFields(logrus.Fields{
		"estimator_type": estimatorType,
		"model_version":  modelVersion,
	}).Info("Estimator loaded")
}

// LogModelTraining logs model training events.
func (pl *PredictionLogger) LogModelTraining(modelVersion string, samples int, trainingDuration time.Duration, finalLoss float64) {
	pl.WithFields(logrus.Fields{
		"model_version":     modelVersion,
		"samples":           samples,
		"training_duration": trainingDuration.Seconds(),
		"final_loss":        finalLoss,
	}).Info("Model training completed")
}
