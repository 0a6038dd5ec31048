// Package metrics computes regression error measures on prediction vectors.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/taxitip/pkg/errors"
)

func checkPair(op string, yTrue, yPred mat.Vector) error {
	n := yTrue.Len()
	if n == 0 {
		return errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return nil
}

func residuals(yTrue, yPred mat.Vector) []float64 {
	res := make([]float64, yTrue.Len())
	for i := range res {
		res[i] = yTrue.AtVec(i) - yPred.AtVec(i)
	}
	return res
}

// SSE returns the sum of squared errors Σ(yTrue − yPred)².
func SSE(yTrue, yPred mat.Vector) (float64, error) {
	if err := checkPair("SSE", yTrue, yPred); err != nil {
		return 0, err
	}
	res := residuals(yTrue, yPred)
	return floats.Dot(res, res), nil
}

// MSE returns the mean squared error. Applied to holdout predictions it is
// the mean squared prediction error (MSPE), in squared target units.
func MSE(yTrue, yPred mat.Vector) (float64, error) {
	if err := checkPair("MSE", yTrue, yPred); err != nil {
		return 0, err
	}
	res := residuals(yTrue, yPred)
	return floats.Dot(res, res) / float64(len(res)), nil
}

// RMSE returns the square root of MSE, in target units.
func RMSE(yTrue, yPred mat.Vector) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE returns the mean absolute error.
func MAE(yTrue, yPred mat.Vector) (float64, error) {
	if err := checkPair("MAE", yTrue, yPred); err != nil {
		return 0, err
	}
	res := residuals(yTrue, yPred)
	return floats.Norm(res, 1) / float64(len(res)), nil
}

// R2Score returns the coefficient of determination 1 − SSE/TSS. A constant
// yTrue has no variance to explain and yields a ValueError.
func R2Score(yTrue, yPred mat.Vector) (float64, error) {
	if err := checkPair("R2Score", yTrue, yPred); err != nil {
		return 0, err
	}
	truth := mat.Col(nil, 0, yTrue)
	mean := stat.Mean(truth, nil)
	var tss float64
	for _, v := range truth {
		tss += (v - mean) * (v - mean)
	}
	if tss == 0 {
		return 0, errors.NewValueError("R2Score", "total sum of squares is zero (no variance in yTrue)")
	}
	res := residuals(yTrue, yPred)
	return 1 - floats.Dot(res, res)/tss, nil
}

// Report bundles the error measures printed for a holdout evaluation.
type Report struct {
	N    int     `yaml:"n"`
	MSE  float64 `yaml:"mse"`
	RMSE float64 `yaml:"rmse"`
	MAE  float64 `yaml:"mae"`
	// R2 is NaN when yTrue is constant.
	R2 float64 `yaml:"r2"`
}

// Evaluate computes a Report.
func Evaluate(yTrue, yPred mat.Vector) (Report, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return Report{}, err
	}
	mae, err := MAE(yTrue, yPred)
	if err != nil {
		return Report{}, err
	}
	r2, err := R2Score(yTrue, yPred)
	if err != nil {
		var ve *errors.ValueError
		if !errors.As(err, &ve) {
			return Report{}, err
		}
		r2 = math.NaN()
	}
	return Report{N: yTrue.Len(), MSE: mse, RMSE: math.Sqrt(mse), MAE: mae, R2: r2}, nil
}
