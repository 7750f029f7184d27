//go:build !nogpu

// Package gpu provides a GPU blur accelerator using gogpu/wgpu compute
// shaders.
package gpu

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unsafe"

	"github.com/gogpu/blur"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// gpuWaitTimeout bounds the fence wait after a dispatch.
const gpuWaitTimeout = 5 * time.Second

// blurParams matches the Params struct in the WGSL shaders.
// Padded to 16 bytes for uniform buffer alignment.
type blurParams struct {
	Width  uint32
	Height uint32
	Pad0   uint32
	Pad1   uint32
}

// Accelerator implements blur.Accelerator on top of wgpu/hal compute
// shaders. It runs the two-pass staged schedule on the GPU: a horizontal
// pass into an intermediate storage buffer, then a vertical pass into the
// output buffer, with the implicit storage barrier between passes
// providing the producer/consumer ordering.
//
// The fused strategy is not accelerated: its nested float64 accumulation
// has no bit-exact f32 counterpart, and the accelerator contract requires
// output identical to the CPU reference.
type Accelerator struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	horizShader hal.ShaderModule
	vertShader  hal.ShaderModule
	bindLayout  hal.BindGroupLayout
	pipeLayout  hal.PipelineLayout
	horizPipe   hal.ComputePipeline
	vertPipe    hal.ComputePipeline

	logger         *slog.Logger
	gpuReady       bool
	externalDevice bool // true when using a shared device (don't destroy on Close)
}

var _ blur.Accelerator = (*Accelerator)(nil)

// New returns an unregistered, uninitialized accelerator.
func New() *Accelerator {
	return &Accelerator{logger: blur.Logger()}
}

func (a *Accelerator) Name() string { return "wgpu" }

// SetLogger replaces the accelerator's logger. Called by blur.SetLogger
// via the logger propagation hook.
func (a *Accelerator) SetLogger(l *slog.Logger) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if l != nil {
		a.logger = l
	}
}

// CanAccelerate reports support for the staged-schedule strategies.
func (a *Accelerator) CanAccelerate(s blur.Strategy) bool {
	switch s {
	case blur.StrategyStaged, blur.StrategyComputeAtStoreAt, blur.StrategyComputeAtStoreRoot:
		return true
	default:
		return false
	}
}

// Init initializes GPU resources. A missing GPU is not an error: the
// accelerator registers anyway and declines work, so blurs fall back to
// CPU.
func (a *Accelerator) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.initGPU(); err != nil {
		a.logger.Warn("blur-gpu: GPU init failed, using CPU fallback", "err", err)
	}
	return nil
}

func (a *Accelerator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.destroyPipelines()
	if !a.externalDevice {
		if a.device != nil {
			a.device.Destroy()
			a.device = nil
		}
		if a.instance != nil {
			a.instance.Destroy()
			a.instance = nil
		}
	} else {
		// Don't destroy shared resources that we don't own.
		a.device = nil
		a.instance = nil
	}
	a.queue = nil
	a.gpuReady = false
	a.externalDevice = false
}

// SetDeviceProvider switches the accelerator to a shared GPU device from
// an external provider (e.g., gogpu). The provider must implement
// HalDevice() any and HalQueue() any returning hal.Device and hal.Queue.
func (a *Accelerator) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("blur-gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("blur-gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("blur-gpu: provider HalQueue is not hal.Queue")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.destroyPipelines()
	if !a.externalDevice && a.device != nil {
		a.device.Destroy()
	}
	if a.instance != nil {
		a.instance.Destroy()
		a.instance = nil
	}

	a.device = device
	a.queue = queue
	a.externalDevice = true

	if err := a.createPipelines(); err != nil {
		a.gpuReady = false
		return fmt.Errorf("blur-gpu: create pipelines with shared device: %w", err)
	}
	a.gpuReady = true
	a.logger.Info("blur-gpu: switched to shared GPU device")
	return nil
}

// Blur runs the two-pass blur on the GPU. The dst buffer's current
// contents are uploaded first, so samples outside the valid region
// round-trip unchanged.
func (a *Accelerator) Blur(dst, src []uint8, width, height int, s blur.Strategy) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.gpuReady || !a.CanAccelerate(s) {
		return blur.ErrFallbackToCPU
	}
	if width <= 5 || height <= 5 {
		// Precondition failures belong to the CPU path, which reports them
		// with the proper error values.
		return blur.ErrFallbackToCPU
	}
	n := width * height
	if len(src) < n || len(dst) < n {
		return blur.ErrFallbackToCPU
	}
	return a.dispatch(dst, src, width, height)
}

func (a *Accelerator) dispatch(dst, src []uint8, width, height int) error {
	w, h := uint32(width), uint32(height)
	bufSize := uint64(width*height) * 4

	srcBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "blur_src", Size: bufSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("blur-gpu: create src buffer: %w", err)
	}
	defer a.device.DestroyBuffer(srcBuf)

	scratchBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "blur_scratch", Size: bufSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("blur-gpu: create scratch buffer: %w", err)
	}
	defer a.device.DestroyBuffer(scratchBuf)

	dstBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "blur_dst", Size: bufSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("blur-gpu: create dst buffer: %w", err)
	}
	defer a.device.DestroyBuffer(dstBuf)

	stagingBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "blur_staging", Size: bufSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("blur-gpu: create staging buffer: %w", err)
	}
	defer a.device.DestroyBuffer(stagingBuf)

	paramSize := uint64(unsafe.Sizeof(blurParams{}))
	paramBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "blur_params", Size: paramSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("blur-gpu: create params buffer: %w", err)
	}
	defer a.device.DestroyBuffer(paramBuf)

	a.queue.WriteBuffer(srcBuf, 0, packSamples(src, width*height))
	a.queue.WriteBuffer(scratchBuf, 0, make([]byte, bufSize))
	a.queue.WriteBuffer(dstBuf, 0, packSamples(dst, width*height))
	params := blurParams{Width: w, Height: h}
	a.queue.WriteBuffer(paramBuf, 0, structToBytes(unsafe.Pointer(&params), unsafe.Sizeof(params)))

	horizBind, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "blur_horiz_bind", Layout: a.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: paramBuf.NativeHandle(), Offset: 0, Size: paramSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: srcBuf.NativeHandle(), Offset: 0, Size: bufSize}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: scratchBuf.NativeHandle(), Offset: 0, Size: bufSize}},
		},
	})
	if err != nil {
		return fmt.Errorf("blur-gpu: create horizontal bind group: %w", err)
	}
	defer a.device.DestroyBindGroup(horizBind)

	vertBind, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "blur_vert_bind", Layout: a.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: paramBuf.NativeHandle(), Offset: 0, Size: paramSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: scratchBuf.NativeHandle(), Offset: 0, Size: bufSize}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: dstBuf.NativeHandle(), Offset: 0, Size: bufSize}},
		},
	})
	if err != nil {
		return fmt.Errorf("blur-gpu: create vertical bind group: %w", err)
	}
	defer a.device.DestroyBindGroup(vertBind)

	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "blur_encoder"})
	if err != nil {
		return fmt.Errorf("blur-gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("blur"); err != nil {
		return fmt.Errorf("blur-gpu: begin encoding: %w", err)
	}

	groupsX := (w + 7) / 8
	groupsY := (h + 7) / 8

	// Producer pass, then consumer pass. The storage barrier between the
	// two passes orders the writes to the scratch buffer before the reads.
	horizPass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "blur_horizontal"})
	horizPass.SetPipeline(a.horizPipe)
	horizPass.SetBindGroup(0, horizBind, nil)
	horizPass.Dispatch(groupsX, groupsY, 1)
	horizPass.End()

	vertPass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "blur_vertical"})
	vertPass.SetPipeline(a.vertPipe)
	vertPass.SetBindGroup(0, vertBind, nil)
	vertPass.Dispatch(groupsX, groupsY, 1)
	vertPass.End()

	encoder.CopyBufferToBuffer(dstBuf, stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: bufSize},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("blur-gpu: end encoding: %w", err)
	}
	defer a.device.FreeCommandBuffer(cmdBuf)

	fence, err := a.device.CreateFence()
	if err != nil {
		return fmt.Errorf("blur-gpu: create fence: %w", err)
	}
	defer a.device.DestroyFence(fence)
	if err := a.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("blur-gpu: submit: %w", err)
	}
	fenceOK, err := a.device.Wait(fence, 1, gpuWaitTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("blur-gpu: wait for GPU: ok=%v err=%w", fenceOK, err)
	}

	readback := make([]byte, bufSize)
	if err := a.queue.ReadBuffer(stagingBuf, 0, readback); err != nil {
		return fmt.Errorf("blur-gpu: readback: %w", err)
	}
	unpackSamples(readback, dst, width*height)
	return nil
}

func (a *Accelerator) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	a.instance = instance
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	a.device = openDev.Device
	a.queue = openDev.Queue
	if err := a.createPipelines(); err != nil {
		a.device.Destroy()
		a.device = nil
		a.queue = nil
		return fmt.Errorf("create pipelines: %w", err)
	}
	a.gpuReady = true
	a.logger.Info("blur-gpu: GPU accelerator initialized", "adapter", selected.Info.Name)
	return nil
}

func (a *Accelerator) createPipelines() error {
	horizSPIRV, err := compileWGSL(blurHorizontalWGSL)
	if err != nil {
		return fmt.Errorf("compile horizontal shader: %w", err)
	}
	vertSPIRV, err := compileWGSL(blurVerticalWGSL)
	if err != nil {
		return fmt.Errorf("compile vertical shader: %w", err)
	}

	horizShader, err := a.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "blur_horizontal",
		Source: hal.ShaderSource{SPIRV: horizSPIRV},
	})
	if err != nil {
		return fmt.Errorf("create horizontal shader module: %w", err)
	}
	a.horizShader = horizShader

	vertShader, err := a.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "blur_vertical",
		Source: hal.ShaderSource{SPIRV: vertSPIRV},
	})
	if err != nil {
		return fmt.Errorf("create vertical shader module: %w", err)
	}
	a.vertShader = vertShader

	bindLayout, err := a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "blur_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	a.bindLayout = bindLayout

	pipeLayout, err := a.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "blur_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{a.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	a.pipeLayout = pipeLayout

	horizPipe, err := a.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "blur_horizontal_pipeline", Layout: a.pipeLayout,
		Compute: hal.ComputeState{Module: a.horizShader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("create horizontal pipeline: %w", err)
	}
	a.horizPipe = horizPipe

	vertPipe, err := a.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "blur_vertical_pipeline", Layout: a.pipeLayout,
		Compute: hal.ComputeState{Module: a.vertShader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("create vertical pipeline: %w", err)
	}
	a.vertPipe = vertPipe

	return nil
}

func (a *Accelerator) destroyPipelines() {
	if a.device == nil {
		return
	}
	if a.vertPipe != nil {
		a.device.DestroyComputePipeline(a.vertPipe)
		a.vertPipe = nil
	}
	if a.horizPipe != nil {
		a.device.DestroyComputePipeline(a.horizPipe)
		a.horizPipe = nil
	}
	if a.pipeLayout != nil {
		a.device.DestroyPipelineLayout(a.pipeLayout)
		a.pipeLayout = nil
	}
	if a.bindLayout != nil {
		a.device.DestroyBindGroupLayout(a.bindLayout)
		a.bindLayout = nil
	}
	if a.vertShader != nil {
		a.device.DestroyShaderModule(a.vertShader)
		a.vertShader = nil
	}
	if a.horizShader != nil {
		a.device.DestroyShaderModule(a.horizShader)
		a.horizShader = nil
	}
}

func structToBytes(ptr unsafe.Pointer, size uintptr) []byte {
	return unsafe.Slice((*byte)(ptr), size) //nolint:gosec // safe struct serialization
}

// packSamples widens each 8-bit sample to one little-endian u32 word, the
// layout the storage buffers use.
func packSamples(data []uint8, count int) []byte {
	out := make([]byte, count*4)
	for i := 0; i < count; i++ {
		binary.LittleEndian.PutUint32(out[i*4:], uint32(data[i]))
	}
	return out
}

// unpackSamples narrows u32 words back to 8-bit samples.
func unpackSamples(packed []byte, dst []uint8, count int) {
	for i := 0; i < count; i++ {
		dst[i] = uint8(binary.LittleEndian.Uint32(packed[i*4:]) & 0xFF) //nolint:gosec // masked to 8 bits
	}
}
