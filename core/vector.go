package core

import "math"

// Vector math for embedding records. Vectors are normalized before they are
// persisted, so similarity between a stored record and a normalized query
// reduces to a dot product.

// NormalizeVector scales v to unit length and returns the result as a new
// slice. A nil or zero vector has no direction and comes back zeroed instead
// of dividing by zero. The magnitude is accumulated in float64 so long
// vectors of small components keep their precision.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return make([]float32, len(v))
	}

	inv := 1 / math.Sqrt(sum)
	unit := make([]float32, len(v))
	for i, x := range v {
		unit[i] = float32(float64(x) * inv)
	}
	return unit
}

// DotProduct returns the dot product of a and b, which for unit vectors is
// their cosine similarity. Extra components of the longer vector are ignored;
// the storage layer rejects mismatched dimensions before scoring happens.
func DotProduct(a, b []float32) float32 {
	n := min(len(a), len(b))

	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
