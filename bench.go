package blur

import (
	"fmt"
	"time"
)

// DefaultIterations is the number of back-to-back calls a benchmark run
// averages over.
const DefaultIterations = 100

// BenchResult reports the timing of one strategy over a benchmark run.
type BenchResult struct {
	// Strategy is the variant that was measured.
	Strategy Strategy

	// Iterations is the number of calls averaged over.
	Iterations int

	// AvgPerCall is the average wall-clock duration of one call.
	AvgPerCall time.Duration

	// Output holds the blurred image from the final iteration.
	Output *Gray
}

// RunBench blurs g repeatedly with the given strategy and reports the
// average wall-clock time per call. The same input and output buffers are
// reused across iterations so allocation does not skew the timing.
//
// iterations values below 1 use DefaultIterations.
func RunBench(g *Gray, s Strategy, iterations int) (BenchResult, error) {
	if iterations < 1 {
		iterations = DefaultIterations
	}
	out, err := NewGray(g.Width(), g.Height())
	if err != nil {
		return BenchResult{}, err
	}

	Logger().Debug("blur: benchmark start",
		"strategy", s.String(), "width", g.Width(), "height", g.Height(),
		"iterations", iterations)

	start := time.Now()
	for i := 0; i < iterations; i++ {
		if err := s.Apply(out.data, g.data, g.width, g.height); err != nil {
			return BenchResult{}, fmt.Errorf("blur: bench %s iteration %d: %w", s, i, err)
		}
	}
	elapsed := time.Since(start)

	return BenchResult{
		Strategy:   s,
		Iterations: iterations,
		AvgPerCall: elapsed / time.Duration(iterations),
		Output:     out,
	}, nil
}
