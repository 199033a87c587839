// Package vector holds the float32 vector math shared by retrieval and indexing.
package vector

import (
	"errors"
	"fmt"
	"math"
)

// UnitTolerance is the allowed deviation of a stored vector's norm from 1.
const UnitTolerance = 1e-3

// Vector integrity errors.
var (
	ErrEmpty        = errors.New("vector is empty")
	ErrDimension    = errors.New("vector dimension mismatch")
	ErrNotUnit      = errors.New("vector is not unit length")
	ErrNotFiniteVal = errors.New("vector has non-finite component")
)

// Norm returns the L2 norm of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Normalize returns a unit-length copy of v. A zero vector yields a zero copy.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	n := Norm(v)
	if n == 0 {
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / n)
	}
	return out
}

// CosineDistance returns 1 - dot(a, b) for unit vectors, clamped to [0, 2].
// Vectors of different length are maximally distant.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	// float rounding can push |dot| slightly past 1
	dot = max(-1, min(1, dot))
	return 1 - dot
}

// Validate reports whether v is usable for cosine search against dim-sized queries.
func Validate(v []float32, dim int) error {
	if len(v) == 0 {
		return ErrEmpty
	}
	if len(v) != dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimension, len(v), dim)
	}
	for _, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return ErrNotFiniteVal
		}
	}
	if n := Norm(v); math.Abs(n-1) > UnitTolerance {
		return fmt.Errorf("%w: norm %.4f", ErrNotUnit, n)
	}
	return nil
}
