// Package blur provides a separable 5x5 box blur over dense 2D grayscale
// buffers, implemented in several scheduling strategies.
//
// # Overview
//
// blur is a small kernel library for the GoGPU ecosystem. It implements one
// filter, the 5x5 box average, separable into a horizontal and a vertical
// 1x5 mean pass. The filter comes in four scheduling variants that trade
// intermediate storage for locality:
//
//   - Fused: the full 5x5 window is averaged per output pixel, with no
//     intermediate buffer.
//   - Staged: a horizontal pass materializes a full row-blurred scratch
//     buffer, then a vertical pass consumes it.
//   - ComputeAtStoreRoot: scratch rows are computed on demand inside the
//     consumer loop, stored in a full-size buffer.
//   - ComputeAtStoreAt: scratch rows are computed on demand into a rolling
//     five-row window.
//
// All variants share one mathematical contract and identical truncation
// semantics between passes; Staged and both compute-at variants produce
// bit-identical output.
//
// # Quick Start
//
//	import "github.com/gogpu/blur"
//
//	g, err := blur.LoadPNG("gray.png")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	out, err := g.Blur(blur.StrategyStaged)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := out.SavePNG("blurred.png"); err != nil {
//		log.Fatal(err)
//	}
//
// # Valid Region
//
// The filter window must fit entirely inside the image, so for a WxH input
// only the top-left (W-4)x(H-4) region of the output receives data. Pixels
// outside that region are left untouched. Inputs with width or height of 5
// or less are rejected with ErrImageTooSmall.
//
// # GPU Acceleration
//
// The CPU implementation is the reference. GPU acceleration via gogpu/wgpu
// compute shaders is opt-in through a blank import:
//
//	import _ "github.com/gogpu/blur/gpu" // enable GPU acceleration
//
// When no GPU is available the library transparently falls back to CPU.
package blur

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
