package core

import "math"

// NormalizeVector normalizes a vector to unit length.
// Returns a new vector. If the input is a zero vector, returns a zero vector.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var magnitude float32
	for _, val := range v {
		magnitude += val * val
	}
	magnitude = float32(math.Sqrt(float64(magnitude)))

	result := make([]float32, len(v))
	if magnitude == 0 {
		return result
	}
	for i, val := range v {
		result[i] = val / magnitude
	}
	return result
}

// DotProduct returns the dot product of a and b over their common length.
// For unit vectors this is the cosine similarity.
func DotProduct(a, b []float32) float32 {
	n := min(len(a), len(b))
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
