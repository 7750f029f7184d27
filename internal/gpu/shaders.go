//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/naga"
)

// The blur runs as two compute passes over one-sample-per-u32 buffers:
// a horizontal pass producing the row-blurred intermediate, then a
// vertical pass producing the output. Each pass truncates to an 8-bit
// value exactly like the CPU staged implementation, so GPU output is
// bit-identical.
//
// Sample sums stay below 2^11, far within exact f32 integer range, so
// u32(f32(sum) / 5.0) truncates to the same value as the CPU's
// uint8(float64(sum) / 5.0).

// blurHorizontalWGSL averages five consecutive samples per row. It covers
// every row but only the first width-4 columns, leaving the rest of the
// intermediate untouched.
const blurHorizontalWGSL = `
struct Params {
    width: u32,
    height: u32,
    _pad0: u32,
    _pad1: u32,
};

@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var<storage, read> src: array<u32>;
@group(0) @binding(2) var<storage, read_write> dst: array<u32>;

@compute @workgroup_size(8, 8)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let x = gid.x;
    let y = gid.y;
    if (y >= params.height || x + 4u >= params.width) {
        return;
    }
    let row = y * params.width;
    let sum = src[row + x] + src[row + x + 1u] + src[row + x + 2u]
        + src[row + x + 3u] + src[row + x + 4u];
    dst[row + x] = u32(f32(sum) / 5.0);
}
`

// blurVerticalWGSL averages five vertically consecutive samples of the
// intermediate, covering the (width-4) x (height-4) valid region.
const blurVerticalWGSL = `
struct Params {
    width: u32,
    height: u32,
    _pad0: u32,
    _pad1: u32,
};

@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var<storage, read> src: array<u32>;
@group(0) @binding(2) var<storage, read_write> dst: array<u32>;

@compute @workgroup_size(8, 8)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let x = gid.x;
    let y = gid.y;
    if (y + 4u >= params.height || x + 4u >= params.width) {
        return;
    }
    let w = params.width;
    let idx = y * w + x;
    let sum = src[idx] + src[idx + w] + src[idx + 2u * w]
        + src[idx + 3u * w] + src[idx + 4u * w];
    dst[idx] = u32(f32(sum) / 5.0);
}
`

// compileWGSL compiles a WGSL source to SPIR-V words via naga.
func compileWGSL(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("gpu: compile shader: %w", err)
	}

	spirv := make([]uint32, len(spirvBytes)/4)
	for i := range spirv {
		spirv[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirv, nil
}
