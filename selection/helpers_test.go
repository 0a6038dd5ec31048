package selection

import (
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/taxitip/pkg/log"
)

// synthetic draws an n×p design with uniform features and a target
// intercept + Σ coefs[j]·x_j + N(0, sigma²).
func synthetic(t testing.TB, n, p int, intercept float64, coefs map[int]float64, sigma float64, seed uint64) (*mat.Dense, *mat.VecDense) {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, 99))
	X := mat.NewDense(n, p, nil)
	y := mat.NewVecDense(n, nil)
	var noise distuv.Normal
	if sigma > 0 {
		noise = distuv.Normal{Mu: 0, Sigma: sigma, Src: rand.NewPCG(seed, 7)}
	}
	for i := 0; i < n; i++ {
		v := intercept
		for j := 0; j < p; j++ {
			x := rng.Float64()*4 - 2
			X.Set(i, j, x)
			v += coefs[j] * x
		}
		if sigma > 0 {
			v += noise.Rand()
		}
		y.SetVec(i, v)
	}
	return X, y
}

func quietLogger() log.Logger {
	l, _ := log.NewTestLogger(log.LevelError)
	return l
}

var goldenGrid = []float64{0.1, 0.5, 1, 2, 5, 10, 20}
