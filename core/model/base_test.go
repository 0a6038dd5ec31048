package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/taxitip/pkg/errors"
)

func TestBaseEstimator_Lifecycle(t *testing.T) {
	var e BaseEstimator
	assert.False(t, e.IsFitted())

	err := e.RequireFitted("LinearRegression", "Predict")
	require.Error(t, err)
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	e.SetFitted(100, 7)
	assert.True(t, e.IsFitted())
	assert.NoError(t, e.RequireFitted("LinearRegression", "Predict"))
	n, p := e.Dimensions()
	assert.Equal(t, 100, n)
	assert.Equal(t, 7, p)

	e.Reset()
	assert.False(t, e.IsFitted())
	n, p = e.Dimensions()
	assert.Zero(t, n)
	assert.Zero(t, p)
}
