package perception

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// float64Eps is the spacing of float64 values around 1.
var float64Eps = math.Nextafter(1, 2) - 1

// Point2 is a point in the X/Y plane. Z is not used for clustering.
type Point2 struct {
	X, Y float64
}

// Standardize rescales each axis independently to zero mean and unit
// variance (population variance, as a standard scaler does). An axis with
// zero variance is only centred.
func Standardize(points []Point2) []Point2 {
	if len(points) == 0 {
		return nil
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
		ys[i] = p.Y
	}
	zscore(xs)
	zscore(ys)

	out := make([]Point2, len(points))
	for i := range out {
		out[i] = Point2{X: xs[i], Y: ys[i]}
	}
	return out
}

// zscore standardizes v in place. Variance within rounding error of zero
// counts as a constant axis, so identical inputs map to 0 rather than to
// amplified rounding noise.
func zscore(v []float64) {
	mean, variance := stat.PopMeanVariance(v, nil)
	n := float64(len(v))
	bound := n*float64Eps*variance + (n*mean*float64Eps)*(n*mean*float64Eps)
	std := math.Sqrt(variance)
	if variance <= bound {
		std = 1
	}
	for i, x := range v {
		v[i] = stat.StdScore(x, mean, std)
	}
}
