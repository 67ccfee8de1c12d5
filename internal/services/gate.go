package services

// DefaultMinClassificationConfidence is the gate below which a classification
// must be surfaced to an operator instead of driving schema lookup or
// generation. Prevents schema pollution from low-confidence guesses.
const DefaultMinClassificationConfidence = 0.8

// ConfidenceGate decides whether a classification result is usable. Retries
// belong to the classifier call itself, never here.
type ConfidenceGate struct {
	Min float64
}

func NewConfidenceGate(min float64) ConfidenceGate {
	if min <= 0 {
		min = DefaultMinClassificationConfidence
	}
	return ConfidenceGate{Min: min}
}

// Allow is inclusive at the boundary: confidence 0.80 passes a 0.80 gate.
func (g ConfidenceGate) Allow(confidence float64) bool {
	return confidence >= g.Min
}
