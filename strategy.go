package blur

import (
	"errors"
	"fmt"
)

// Strategy identifies one scheduling variant of the box blur. All
// strategies share the same mathematical contract and differ only in how
// intermediate results are staged.
//
// Strategy replaces the function-pointer dispatch table of classic kernel
// benchmarks with a plain enumeration: select a variant by value (or by
// name via ParseStrategy) and invoke it through Apply.
type Strategy int

const (
	// StrategyFused computes the full 5x5 window per output pixel.
	StrategyFused Strategy = iota

	// StrategyStaged runs a horizontal pass into a full scratch buffer,
	// then a vertical pass over it.
	StrategyStaged

	// StrategyComputeAtStoreAt interleaves producer and consumer over a
	// rolling five-row scratch window.
	StrategyComputeAtStoreAt

	// StrategyComputeAtStoreRoot interleaves producer and consumer over a
	// full-size scratch buffer.
	StrategyComputeAtStoreRoot
)

// ErrUnknownStrategy is returned by ParseStrategy for unrecognized names.
var ErrUnknownStrategy = errors.New("blur: unknown strategy")

// String returns the canonical strategy name. The names double as output
// file stems in the blurbench command.
func (s Strategy) String() string {
	switch s {
	case StrategyFused:
		return "fused"
	case StrategyStaged:
		return "staged"
	case StrategyComputeAtStoreAt:
		return "compute_at_store_at"
	case StrategyComputeAtStoreRoot:
		return "compute_at_store_root"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy returns the strategy with the given canonical name.
func ParseStrategy(name string) (Strategy, error) {
	for _, s := range Strategies() {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Strategies returns all strategies in benchmark order.
func Strategies() []Strategy {
	return []Strategy{
		StrategyFused,
		StrategyStaged,
		StrategyComputeAtStoreAt,
		StrategyComputeAtStoreRoot,
	}
}

// Apply blurs src into dst using this strategy. src and dst are row-major
// width x height grayscale buffers; only the top-left (width-4) x
// (height-4) region of dst is written.
//
// If a GPU accelerator is registered and supports the strategy, Apply
// dispatches to it first and falls back to the CPU implementation when the
// accelerator declines with ErrFallbackToCPU or fails.
func (s Strategy) Apply(dst, src []uint8, width, height int) error {
	if a := RegisteredAccelerator(); a != nil && a.CanAccelerate(s) {
		err := a.Blur(dst, src, width, height, s)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrFallbackToCPU) {
			Logger().Warn("blur: accelerator failed, using CPU",
				"strategy", s.String(), "err", err)
		}
	}
	return s.apply(dst, src, width, height)
}

// apply is the CPU dispatch, bypassing any registered accelerator.
func (s Strategy) apply(dst, src []uint8, width, height int) error {
	switch s {
	case StrategyFused:
		return Fused(dst, src, width, height)
	case StrategyStaged:
		return Staged(dst, src, width, height)
	case StrategyComputeAtStoreAt:
		return ComputeAtStoreAt(dst, src, width, height)
	case StrategyComputeAtStoreRoot:
		return ComputeAtStoreRoot(dst, src, width, height)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownStrategy, int(s))
	}
}
