package ml

import (
	"fmt"
	"math"
	"time"
)

// TrainOptions controls gradient descent.
type TrainOptions struct {
	LearningRate float64
	Epochs       int
	// L2 is the ridge penalty applied to weights, not the bias.
	L2      float64
	Version string
	Now     func() time.Time
}

// DefaultTrainOptions returns the settings used when config leaves them unset.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		LearningRate: 0.05,
		Epochs:       2000,
		L2:           0.001,
	}
}

// MinTrainingSamples is the smallest sample set TrainLogistic accepts.
const MinTrainingSamples = 10

// TrainLogistic fits a logistic regression with batch gradient descent on
// log-loss. Features are standardized during training and the scaling is
// folded back into the returned weights, so the model consumes raw vectors.
// It returns the model and its final mean log-loss on the training set.
func TrainLogistic(names []string, samples [][]float64, labels []float64, opts TrainOptions) (*LogisticModel, float64, error) {
	if len(samples) != len(labels) {
		return nil, 0, fmt.Errorf("%d samples but %d labels", len(samples), len(labels))
	}
	if len(samples) < MinTrainingSamples {
		return nil, 0, fmt.Errorf("%w: %d samples, need %d", ErrInsufficientData, len(samples), MinTrainingSamples)
	}
	width := len(names)
	for i, s := range samples {
		if len(s) != width {
			return nil, 0, fmt.Errorf("%w: sample %d has %d values, expected %d", ErrFeatureMismatch, i, len(s), width)
		}
	}

	defaults := DefaultTrainOptions()
	if opts.LearningRate <= 0 {
		opts.LearningRate = defaults.LearningRate
	}
	if opts.Epochs <= 0 {
		opts.Epochs = defaults.Epochs
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	mean, scale := standardization(samples, width)
	x := make([][]float64, len(samples))
	for i, s := range samples {
		row := make([]float64, width)
		for j, v := range s {
			row[j] = (v - mean[j]) / scale[j]
		}
		x[i] = row
	}

	w := make([]float64, width)
	var b float64
	n := float64(len(x))
	grad := make([]float64, width)
	for epoch := 0; epoch < opts.Epochs; epoch++ {
		for j := range grad {
			grad[j] = 0
		}
		var gradB float64
		for i, row := range x {
			e := sigmoid(dot(w, row)+b) - labels[i]
			for j, v := range row {
				grad[j] += e * v
			}
			gradB += e
		}
		for j := range w {
			w[j] -= opts.LearningRate * (grad[j]/n + opts.L2*w[j])
		}
		b -= opts.LearningRate * gradB / n
	}

	loss := logLoss(w, b, x, labels)

	// Fold standardization into raw-space weights.
	weights := make([]float64, width)
	bias := b
	for j := range w {
		weights[j] = w[j] / scale[j]
		bias -= w[j] * mean[j] / scale[j]
	}

	trainedAt := opts.Now().UTC()
	version := opts.Version
	if version == "" {
		version = "logistic-" + trainedAt.Format("20060102T150405Z")
	}
	featureNames := make([]string, width)
	copy(featureNames, names)

	return &LogisticModel{
		FeatureNames: featureNames,
		Weights:      weights,
		Bias:         bias,
		ModelVersion: version,
		TrainedAt:    trainedAt,
	}, loss, nil
}

// standardization returns per-column mean and standard deviation. Constant
// columns get a scale of 1 so they train as a plain offset.
func standardization(samples [][]float64, width int) (mean, scale []float64) {
	mean = make([]float64, width)
	scale = make([]float64, width)
	n := float64(len(samples))
	for _, s := range samples {
		for j, v := range s {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= n
	}
	for _, s := range samples {
		for j, v := range s {
			d := v - mean[j]
			scale[j] += d * d
		}
	}
	for j := range scale {
		scale[j] = math.Sqrt(scale[j] / n)
		if scale[j] < 1e-9 {
			scale[j] = 1
		}
	}
	return mean, scale
}

func logLoss(w []float64, b float64, x [][]float64, labels []float64) float64 {
	const eps = 1e-12
	var total float64
	for i, row := range x {
		p := math.Min(math.Max(sigmoid(dot(w, row)+b), eps), 1-eps)
		total += -(labels[i]*math.Log(p) + (1-labels[i])*math.Log(1-p))
	}
	return total / float64(len(x))
}
