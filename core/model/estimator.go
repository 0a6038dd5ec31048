package model

import "gonum.org/v1/gonum/mat"

// Fitter is a model trained on a design matrix and a target vector.
type Fitter interface {
	Fit(X mat.Matrix, y mat.Vector) error
}

// Predictor produces one prediction per row of X.
type Predictor interface {
	Predict(X mat.Matrix) (*mat.VecDense, error)
}

// Regressor is a fitted-then-predict regression model.
type Regressor interface {
	Fitter
	Predictor
}
