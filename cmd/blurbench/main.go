// Command blurbench benchmarks the box blur scheduling strategies.
//
// It loads a grayscale PNG, runs each strategy back-to-back for a number
// of iterations, prints the average wall-clock microseconds per call, and
// writes one output PNG per strategy named after it.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gogpu/blur"
)

func main() {
	var (
		input      = flag.String("input", "gray.png", "input PNG image")
		outputDir  = flag.String("output-dir", ".", "directory for per-strategy output PNGs")
		iterations = flag.Int("iterations", blur.DefaultIterations, "calls per strategy")
		verbose    = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if *verbose {
		blur.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	g, err := blur.LoadPNG(*input)
	if err != nil {
		log.Fatalf("Failed to load %s: %v", *input, err)
	}
	fmt.Printf("width: %d\n", g.Width())
	fmt.Printf("height: %d\n", g.Height())

	for _, s := range blur.Strategies() {
		result, err := blur.RunBench(g, s, *iterations)
		if err != nil {
			log.Fatalf("Benchmark %s failed: %v", s, err)
		}
		fmt.Printf("%s: %.3f microseconds\n", s, float64(result.AvgPerCall.Nanoseconds())/1e3)

		out := filepath.Join(*outputDir, s.String()+".png")
		if err := result.Output.SavePNG(out); err != nil {
			log.Fatalf("Failed to write %s: %v", out, err)
		}
	}
}
