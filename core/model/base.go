// Package model holds the fitted-state bookkeeping and the small set of
// interfaces shared by the estimators in this module.
package model

import (
	"sync"

	"github.com/YuminosukeSato/taxitip/pkg/errors"
)

// EstimatorState is the fitted state of a model.
type EstimatorState int

const (
	// NotFitted is the state before a successful Fit.
	NotFitted EstimatorState = iota
	// Fitted is the state after a successful Fit.
	Fitted
)

// BaseEstimator records whether a model has been fitted and the shape of the
// data it was fitted on. Embed it in estimators.
type BaseEstimator struct {
	mu        sync.RWMutex
	state     EstimatorState
	nSamples  int
	nFeatures int
}

// IsFitted reports whether the model has been fitted.
func (e *BaseEstimator) IsFitted() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state == Fitted
}

// SetFitted marks the model as fitted on nSamples rows of nFeatures columns.
func (e *BaseEstimator) SetFitted(nSamples, nFeatures int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = Fitted
	e.nSamples = nSamples
	e.nFeatures = nFeatures
}

// Reset returns the model to the NotFitted state.
func (e *BaseEstimator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = NotFitted
	e.nSamples = 0
	e.nFeatures = 0
}

// Dimensions returns the number of samples and features seen by Fit.
func (e *BaseEstimator) Dimensions() (nSamples, nFeatures int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.nSamples, e.nFeatures
}

// RequireFitted returns a NotFittedError naming model and method when the
// model has not been fitted.
func (e *BaseEstimator) RequireFitted(modelName, method string) error {
	if !e.IsFitted() {
		return errors.NewNotFittedError(modelName, method)
	}
	return nil
}
