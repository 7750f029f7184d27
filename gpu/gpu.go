//go:build !nogpu

// Package gpu registers the wgpu blur accelerator.
//
// Import this package to enable GPU execution of the staged blur
// schedules. The accelerator uses wgpu/hal compute shaders and produces
// output bit-identical to the CPU implementation.
//
// If GPU initialization fails (no Vulkan available), the registration is
// silently skipped and blurring falls back to CPU.
//
// Usage:
//
//	import _ "github.com/gogpu/blur/gpu" // enable GPU acceleration
package gpu

import (
	"github.com/gogpu/blur"
	gpuimpl "github.com/gogpu/blur/internal/gpu"
	"github.com/gogpu/gpucontext"
)

func init() {
	if err := blur.RegisterAccelerator(gpuimpl.New()); err != nil {
		blur.Logger().Warn("GPU accelerator not available", "err", err)
	}
}

// SetDeviceProvider configures the blur accelerator to use a shared GPU
// device from an external provider (e.g., a gogpu window). This avoids
// creating a separate GPU instance and enables efficient device sharing.
//
// The provider must also expose direct HAL access (HalDevice/HalQueue) for
// compute dispatch.
//
// Call this after the accelerator is registered, before blur operations.
func SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	return blur.SetAcceleratorDeviceProvider(provider)
}
