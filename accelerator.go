package blur

import (
	"errors"
	"sync"
)

// ErrFallbackToCPU indicates the accelerator cannot handle this operation.
// The caller should transparently fall back to the CPU implementation.
var ErrFallbackToCPU = errors.New("blur: falling back to CPU")

// Accelerator is an optional GPU acceleration provider.
//
// When registered via RegisterAccelerator, Strategy.Apply tries GPU
// acceleration first for supported strategies. If the accelerator returns
// ErrFallbackToCPU or any error, the blur transparently falls back to CPU.
//
// Implementations are provided by GPU backend packages. Users opt in via
// blank import:
//
//	import _ "github.com/gogpu/blur/gpu" // enables GPU acceleration
type Accelerator interface {
	// Name returns the accelerator name (e.g., "wgpu").
	Name() string

	// Init initializes GPU resources. Called once during registration.
	Init() error

	// Close releases GPU resources.
	Close()

	// CanAccelerate reports whether the accelerator supports the given
	// strategy. This is a fast check used to skip the GPU entirely for
	// unsupported strategies.
	CanAccelerate(s Strategy) bool

	// Blur blurs src into dst using the given strategy's staging semantics.
	// Output values must match the CPU implementation bit for bit,
	// including the per-pass truncation.
	// Returns ErrFallbackToCPU if the operation cannot be accelerated.
	Blur(dst, src []uint8, width, height int, s Strategy) error
}

// DeviceProviderAware is an optional interface for accelerators that can
// share a GPU device with an external provider (e.g., a gogpu window).
// When SetDeviceProvider is called, the accelerator reuses the provided
// device instead of creating its own.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

var (
	accelMu sync.RWMutex
	accel   Accelerator
)

// RegisterAccelerator registers a GPU accelerator for optional GPU blurs.
//
// Only one accelerator can be registered; subsequent calls replace the
// previous one, closing it. The accelerator's Init method is called during
// registration. If Init fails, the accelerator is not registered and the
// error is returned.
//
// Typical usage via init() in GPU backend packages:
//
//	func init() {
//	    blur.RegisterAccelerator(gpu.New())
//	}
func RegisterAccelerator(a Accelerator) error {
	if a == nil {
		return errors.New("blur: accelerator must not be nil")
	}
	if err := a.Init(); err != nil {
		return err
	}
	propagateLogger(a, Logger())
	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
	Logger().Info("blur: accelerator registered", "name", a.Name())
	return nil
}

// RegisteredAccelerator returns the currently registered accelerator, or
// nil if none.
func RegisteredAccelerator() Accelerator {
	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	return a
}

// SetAcceleratorDeviceProvider passes a device provider to the registered
// accelerator, enabling GPU device sharing. If no accelerator is
// registered or it doesn't support device sharing, this is a no-op.
//
// The provider should implement HalDevice() any and HalQueue() any methods
// that return wgpu/hal types.
func SetAcceleratorDeviceProvider(provider any) error {
	a := RegisteredAccelerator()
	if a == nil {
		return nil
	}
	if dpa, ok := a.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}
