package blur

import (
	"bytes"
	"testing"
)

// TestRunBench verifies the runner reports the configured iteration count
// and produces the same output as a direct call.
func TestRunBench(t *testing.T) {
	g := mustGray(t, 20, 20)
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			g.Set(x, y, uint8(x*y))
		}
	}

	result, err := RunBench(g, StrategyStaged, 3)
	if err != nil {
		t.Fatal(err)
	}
	if result.Iterations != 3 {
		t.Errorf("Iterations = %d, want 3", result.Iterations)
	}
	if result.Strategy != StrategyStaged {
		t.Errorf("Strategy = %v, want staged", result.Strategy)
	}
	if result.AvgPerCall < 0 {
		t.Errorf("AvgPerCall = %v, want non-negative", result.AvgPerCall)
	}

	want := make([]uint8, 400)
	if err := Staged(want, g.Pix(), 20, 20); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(result.Output.Pix(), want) {
		t.Error("benchmark output differs from direct call")
	}
}

// TestRunBenchDefaultIterations verifies non-positive iteration counts use
// the default.
func TestRunBenchDefaultIterations(t *testing.T) {
	g := mustGray(t, 8, 8)
	result, err := RunBench(g, StrategyFused, 0)
	if err != nil {
		t.Fatal(err)
	}
	if result.Iterations != DefaultIterations {
		t.Errorf("Iterations = %d, want %d", result.Iterations, DefaultIterations)
	}
}

// TestRunBenchPropagatesErrors verifies precondition failures inside the
// loop surface to the caller.
func TestRunBenchPropagatesErrors(t *testing.T) {
	g := mustGray(t, 5, 5)
	if _, err := RunBench(g, StrategyStaged, 2); err == nil {
		t.Fatal("expected error for undersized image")
	}
}

// BenchmarkStrategies measures each scheduling variant over a 512x512
// gradient, the shape the 100-iteration harness runs.
func BenchmarkStrategies(b *testing.B) {
	const width, height = 512, 512
	src := make([]uint8, width*height)
	for i := range src {
		src[i] = uint8(i)
	}
	dst := make([]uint8, width*height)

	for _, s := range Strategies() {
		b.Run(s.String(), func(b *testing.B) {
			b.SetBytes(int64(width * height))
			for i := 0; i < b.N; i++ {
				if err := s.Apply(dst, src, width, height); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkScratchPool isolates the pooled-scratch overhead of the staged
// strategy against the rolling-window variant.
func BenchmarkScratchPool(b *testing.B) {
	const width, height = 1024, 768
	src := make([]uint8, width*height)
	for i := range src {
		src[i] = uint8(3 * i)
	}
	dst := make([]uint8, width*height)

	b.Run("staged_full_scratch", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if err := Staged(dst, src, width, height); err != nil {
				b.Fatal(err)
			}
		}
	})
	b.Run("rolling_window", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if err := ComputeAtStoreAt(dst, src, width, height); err != nil {
				b.Fatal(err)
			}
		}
	})
}
