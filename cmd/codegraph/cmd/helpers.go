package cmd

import (
	"fmt"
)

// formatScore renders a fused score with enough precision to compare
// RRF values, which live well below 0.1.
func formatScore(score float64) string {
	return fmt.Sprintf("score=%.4f", score)
}
