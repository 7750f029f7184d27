package blur

import (
	"errors"
	"fmt"
	"sync"
)

// Core errors.
var (
	// ErrImageTooSmall is returned when the 5x5 window cannot fit inside the
	// input even once. Both dimensions must be strictly greater than 5.
	ErrImageTooSmall = errors.New("blur: image too small for 5x5 window")

	// ErrShortBuffer is returned when a pixel buffer is shorter than
	// width*height.
	ErrShortBuffer = errors.New("blur: pixel buffer shorter than width*height")

	// ErrAliasedBuffers is returned when dst and src share backing memory.
	// Every strategy reads the input while writing the output, so aliasing
	// would silently corrupt results.
	ErrAliasedBuffers = errors.New("blur: dst and src must not alias")
)

// kernelSize is the box window edge length. The filter is fixed at 5x5,
// separable into two 1x5 mean passes.
const kernelSize = 5

// validate checks the shared preconditions of every strategy.
func validate(dst, src []uint8, width, height int) error {
	if width <= kernelSize || height <= kernelSize {
		return fmt.Errorf("%w: %dx%d", ErrImageTooSmall, width, height)
	}
	n := width * height
	if len(src) < n {
		return fmt.Errorf("%w: src %d < %d", ErrShortBuffer, len(src), n)
	}
	if len(dst) < n {
		return fmt.Errorf("%w: dst %d < %d", ErrShortBuffer, len(dst), n)
	}
	if &dst[0] == &src[0] {
		return ErrAliasedBuffers
	}
	return nil
}

// Fused computes the 5x5 box average directly per output pixel, with no
// intermediate storage. src and dst are row-major width x height buffers;
// only the top-left (width-4) x (height-4) region of dst is written.
//
// Each output value is the sum of five horizontal row means, divided by 5
// again, truncated on store. The nested division order is part of the
// contract: it determines the truncation behavior the other strategies are
// measured against.
func Fused(dst, src []uint8, width, height int) error {
	if err := validate(dst, src, width, height); err != nil {
		return err
	}
	for i := 0; i < height-4; i++ {
		for j := 0; j < width-4; j++ {
			var acc float64
			for di := 0; di < kernelSize; di++ {
				row := (i+di)*width + j
				sum := int(src[row]) + int(src[row+1]) + int(src[row+2]) +
					int(src[row+3]) + int(src[row+4])
				acc += float64(sum) / 5.0
			}
			dst[i*width+j] = uint8(acc / 5.0)
		}
	}
	return nil
}

// Staged computes the blur in two sequential passes through a scratch
// buffer: a producer pass writes the horizontal 1x5 mean of src for every
// row, then a consumer pass writes the vertical 1x5 mean of the scratch
// into dst. The scratch is scoped to the call and never observed by the
// caller.
//
// The intermediate values are truncated to uint8, so Staged output can
// differ from Fused by a small rounding error per pixel. That discrepancy
// is part of the contract, not a bug.
func Staged(dst, src []uint8, width, height int) error {
	if err := validate(dst, src, width, height); err != nil {
		return err
	}
	f := getScratch(width * height)
	defer putScratch(f)

	producer(f, src, width, height)
	consumer(dst, f, width, height)
	return nil
}

// producer writes the horizontal 1x5 mean of src into f, covering all rows
// but only the first width-4 columns of each.
func producer(f, src []uint8, width, height int) {
	for i := 0; i < height; i++ {
		row := i * width
		for j := 0; j < width-4; j++ {
			sum := int(src[row+j]) + int(src[row+j+1]) + int(src[row+j+2]) +
				int(src[row+j+3]) + int(src[row+j+4])
			f[row+j] = uint8(float64(sum) / 5.0)
		}
	}
}

// consumer writes the vertical 1x5 mean of f into dst over the valid
// (width-4) x (height-4) region.
func consumer(dst, f []uint8, width, height int) {
	for i := 0; i < height-4; i++ {
		for j := 0; j < width-4; j++ {
			sum := int(f[i*width+j]) + int(f[(i+1)*width+j]) + int(f[(i+2)*width+j]) +
				int(f[(i+3)*width+j]) + int(f[(i+4)*width+j])
			dst[i*width+j] = uint8(float64(sum) / 5.0)
		}
	}
}

// ComputeAtStoreRoot interleaves the producer with the consumer loop while
// keeping the scratch allocated at full size: before consuming row i, the
// producer rows i..i+4 that have not been computed yet are filled in. Each
// scratch row is computed exactly once, so the output is bit-identical to
// Staged.
func ComputeAtStoreRoot(dst, src []uint8, width, height int) error {
	if err := validate(dst, src, width, height); err != nil {
		return err
	}
	f := getScratch(width * height)
	defer putScratch(f)

	produced := 0 // scratch rows [0, produced) are valid
	for i := 0; i < height-4; i++ {
		for ; produced <= i+4; produced++ {
			row := produced * width
			for j := 0; j < width-4; j++ {
				sum := int(src[row+j]) + int(src[row+j+1]) + int(src[row+j+2]) +
					int(src[row+j+3]) + int(src[row+j+4])
				f[row+j] = uint8(float64(sum) / 5.0)
			}
		}
		for j := 0; j < width-4; j++ {
			sum := int(f[i*width+j]) + int(f[(i+1)*width+j]) + int(f[(i+2)*width+j]) +
				int(f[(i+3)*width+j]) + int(f[(i+4)*width+j])
			dst[i*width+j] = uint8(float64(sum) / 5.0)
		}
	}
	return nil
}

// ComputeAtStoreAt shrinks the scratch to a rolling five-row window: as the
// consumer loop advances, producer rows are computed into window slots
// indexed modulo 5. Storage drops from width*height to 5*width bytes while
// the arithmetic, and therefore the output, stays bit-identical to Staged.
func ComputeAtStoreAt(dst, src []uint8, width, height int) error {
	if err := validate(dst, src, width, height); err != nil {
		return err
	}
	f := getScratch(kernelSize * width)
	defer putScratch(f)

	produced := 0 // window holds producer rows [produced-5, produced)
	for i := 0; i < height-4; i++ {
		for ; produced <= i+4; produced++ {
			row := produced * width
			win := (produced % kernelSize) * width
			for j := 0; j < width-4; j++ {
				sum := int(src[row+j]) + int(src[row+j+1]) + int(src[row+j+2]) +
					int(src[row+j+3]) + int(src[row+j+4])
				f[win+j] = uint8(float64(sum) / 5.0)
			}
		}
		r0 := (i % kernelSize) * width
		r1 := ((i + 1) % kernelSize) * width
		r2 := ((i + 2) % kernelSize) * width
		r3 := ((i + 3) % kernelSize) * width
		r4 := ((i + 4) % kernelSize) * width
		for j := 0; j < width-4; j++ {
			sum := int(f[r0+j]) + int(f[r1+j]) + int(f[r2+j]) +
				int(f[r3+j]) + int(f[r4+j])
			dst[i*width+j] = uint8(float64(sum) / 5.0)
		}
	}
	return nil
}

// byteBuffer wraps a slice for sync.Pool to avoid allocation warnings.
type byteBuffer struct {
	data []uint8
}

// Scratch buffer pool shared by the staged strategies. Pooling keeps the
// 100-iteration benchmark loop from paying one allocation per call; the
// buffer is still exclusively owned by a single invocation between Get and
// Put.
var scratchPool = sync.Pool{
	New: func() interface{} {
		return &byteBuffer{data: make([]uint8, 1024*1024)}
	},
}

// getScratch retrieves a scratch buffer with at least size elements.
// The returned slice is zeroed over [0, size).
func getScratch(size int) []uint8 {
	wrapper := scratchPool.Get().(*byteBuffer)
	if len(wrapper.data) < size {
		scratchPool.Put(wrapper)
		return make([]uint8, size)
	}
	buf := wrapper.data[:size]
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

// putScratch returns a scratch buffer to the pool.
func putScratch(buf []uint8) {
	// Only pool reasonably-sized buffers.
	if cap(buf) <= 16*1024*1024 {
		scratchPool.Put(&byteBuffer{data: buf[:cap(buf)]})
	}
}
