// Package gpu provides a GPU-resident acceleration backend built on WebGPU.
// Shapes are flattened into primitive records, uploaded once at Build, and
// intersected by a compute kernel; results are read back per batch.
//
// Users opt in via blank import:
//
//	import _ "github.com/lumen-render/lumen/pkg/accel/gpu" // registers "wgpu"
//
// Because the structure lives wholly on the device there is no
// unaccelerated oracle path.
package gpu

import (
	"errors"
	"fmt"
	"math"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/lumen-render/lumen/pkg/accel"
	"github.com/lumen-render/lumen/pkg/core"
	"github.com/lumen-render/lumen/pkg/geometry"
	"github.com/lumen-render/lumen/pkg/lights"
)

func init() {
	accel.Register("wgpu", func() accel.Backend { return &gpuBackend{} })
}

// ErrUnsupportedShape is returned by Build for shapes that have no GPU
// primitive encoding.
var ErrUnsupportedShape = errors.New("gpu: shape type has no GPU encoding")

const (
	primSphere = 0
	primQuad   = 1

	workgroupSize = 64

	modeClosest = 0
	modeAny     = 1
)

// prim is the CPU-side record for one GPU primitive
type prim struct {
	shape core.Shape
	kind  uint32
	a     core.Vec3 // sphere center / quad corner
	r     float64   // sphere radius
	u, v  core.Vec3 // quad edges
}

type gpuBackend struct {
	device   *wgpu.Device
	queue    *wgpu.Queue
	pipeline *wgpu.ComputePipeline
	primBuf  *wgpu.Buffer
	prims    []prim
}

func (b *gpuBackend) Name() string { return "wgpu" }

func (b *gpuBackend) Build(shapes []core.Shape) error {
	prims, err := flattenShapes(shapes)
	if err != nil {
		return err
	}
	b.prims = prims

	instance := wgpu.CreateInstance(nil)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{})
	if err != nil {
		return fmt.Errorf("gpu: no adapter: %w", err)
	}
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: "lumen-accel"})
	if err != nil {
		return fmt.Errorf("gpu: no device: %w", err)
	}
	b.device = device
	b.queue = device.GetQueue()

	shader, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "intersect",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: intersectWGSL},
	})
	if err != nil {
		return fmt.Errorf("gpu: shader: %w", err)
	}
	defer shader.Release()

	b.pipeline, err = device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   "intersect",
		Compute: wgpu.ProgrammableStageDescriptor{Module: shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("gpu: pipeline: %w", err)
	}

	b.primBuf, err = device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "prims",
		Contents: encodePrims(prims),
		Usage:    wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: prim buffer: %w", err)
	}
	return nil
}

func (b *gpuBackend) Release() {
	if b.primBuf != nil {
		b.primBuf.Release()
		b.primBuf = nil
	}
	if b.pipeline != nil {
		b.pipeline.Release()
		b.pipeline = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	b.prims = nil
}

// IntersectClosest panics when the dispatch itself fails (unbuilt backend,
// device fault): the batch interface has no error channel and a silent
// all-miss result would pass every shadow ray.
func (b *gpuBackend) IntersectClosest(rays []core.Ray, active []bool) []core.SurfaceInteraction {
	hits, err := b.dispatch(rays, active, modeClosest)
	if err != nil {
		panic(fmt.Errorf("gpu: closest-hit dispatch: %w", err))
	}
	results := make([]core.SurfaceInteraction, len(rays))
	for i, ray := range rays {
		if !core.Lane(active, i) || hits[i].prim < 0 {
			continue
		}
		p := b.prims[hits[i].prim]
		isect := core.SurfaceInteraction{
			Valid: true,
			T:     hits[i].t,
			Point: ray.At(hits[i].t),
			Shape: p.shape,
		}
		isect.Material = shapeMaterial(p.shape)
		isect.SetFaceNormal(ray, hits[i].normal)
		results[i] = isect
	}
	return results
}

func (b *gpuBackend) IntersectNaive(rays []core.Ray, active []bool) ([]core.SurfaceInteraction, error) {
	return nil, accel.ErrNaiveUnsupported
}

func (b *gpuBackend) TestOccluded(rays []core.Ray, active []bool) []bool {
	hits, err := b.dispatch(rays, active, modeAny)
	if err != nil {
		panic(fmt.Errorf("gpu: occlusion dispatch: %w", err))
	}
	results := make([]bool, len(rays))
	for i := range rays {
		if core.Lane(active, i) {
			results[i] = hits[i].prim >= 0
		}
	}
	return results
}

type gpuHit struct {
	t      float64
	normal core.Vec3
	prim   int
}

// dispatch uploads the ray batch, runs the kernel and reads back the hits.
// Inactive lanes are uploaded with tmax < tmin so the kernel skips them.
func (b *gpuBackend) dispatch(rays []core.Ray, active []bool, mode uint32) ([]gpuHit, error) {
	if b.device == nil {
		return nil, accel.ErrNotBuilt
	}
	if len(rays) == 0 {
		return nil, nil
	}

	rayBuf, err := b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "rays",
		Contents: encodeRays(rays, active),
		Usage:    wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	defer rayBuf.Release()

	hitSize := uint64(len(rays) * 8 * 4) // two vec4f per hit
	hitBuf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "hits",
		Size:  hitSize,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, err
	}
	defer hitBuf.Release()

	paramBuf, err := b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "params",
		Contents: sliceToBytes([]uint32{uint32(len(rays)), uint32(len(b.prims)), mode, 0}),
		Usage:    wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	defer paramBuf.Release()

	staging, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "readback",
		Size:  hitSize,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	defer staging.Release()

	layout := b.pipeline.GetBindGroupLayout(0)
	defer layout.Release()
	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "intersect",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: paramBuf, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: rayBuf, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: b.primBuf, Size: wgpu.WholeSize},
			{Binding: 3, Buffer: hitBuf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return nil, err
	}
	defer bindGroup.Release()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, err
	}
	defer encoder.Release()

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(b.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	groups := (uint32(len(rays)) + workgroupSize - 1) / workgroupSize
	pass.DispatchWorkgroups(groups, 1, 1)
	pass.End()

	if err := encoder.CopyBufferToBuffer(hitBuf, 0, staging, 0, hitSize); err != nil {
		return nil, err
	}
	commands, err := encoder.Finish(nil)
	if err != nil {
		return nil, err
	}
	defer commands.Release()
	b.queue.Submit(commands)

	var mapErr error
	done := false
	err = staging.MapAsync(wgpu.MapModeRead, 0, hitSize, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			mapErr = fmt.Errorf("gpu: readback map failed: %v", status)
		}
		done = true
	})
	if err != nil {
		return nil, err
	}
	for !done {
		b.device.Poll(true, nil)
	}
	if mapErr != nil {
		return nil, mapErr
	}
	defer staging.Unmap()

	words := bytesToWords(staging.GetMappedRange(0, uint(hitSize)))
	hits := make([]gpuHit, len(rays))
	for i := range rays {
		base := i * 8
		hits[i] = gpuHit{
			t: float64(math.Float32frombits(words[base])),
			normal: core.NewVec3(
				float64(math.Float32frombits(words[base+1])),
				float64(math.Float32frombits(words[base+2])),
				float64(math.Float32frombits(words[base+3]))),
			prim: int(int32(words[base+4])),
		}
	}
	return hits, nil
}

// flattenShapes encodes the scene's shapes as GPU primitives
func flattenShapes(shapes []core.Shape) ([]prim, error) {
	prims := make([]prim, 0, len(shapes))
	for _, shape := range shapes {
		switch s := shape.(type) {
		case *geometry.Sphere:
			prims = append(prims, prim{shape: shape, kind: primSphere, a: s.Center, r: s.Radius})
		case *lights.SphereLight:
			prims = append(prims, prim{shape: shape, kind: primSphere, a: s.Center, r: s.Radius})
		case *geometry.Quad:
			prims = append(prims, prim{shape: shape, kind: primQuad, a: s.Corner, u: s.U, v: s.V})
		case *lights.QuadLight:
			prims = append(prims, prim{shape: shape, kind: primQuad, a: s.Corner, u: s.U, v: s.V})
		default:
			return nil, fmt.Errorf("%w: %T", ErrUnsupportedShape, shape)
		}
	}
	return prims, nil
}

func shapeMaterial(shape core.Shape) core.Material {
	switch s := shape.(type) {
	case *geometry.Sphere:
		return s.Material
	case *lights.SphereLight:
		return s.Material
	case *geometry.Quad:
		return s.Material
	case *lights.QuadLight:
		return s.Material
	}
	return nil
}

// encodePrims packs primitives as three vec4f each: a=(pos, radius),
// b=(u, 0), c=(v, kind)
func encodePrims(prims []prim) []byte {
	words := make([]float32, 0, len(prims)*12)
	for _, p := range prims {
		words = append(words,
			float32(p.a.X), float32(p.a.Y), float32(p.a.Z), float32(p.r),
			float32(p.u.X), float32(p.u.Y), float32(p.u.Z), 0,
			float32(p.v.X), float32(p.v.Y), float32(p.v.Z), float32(p.kind),
		)
	}
	if len(words) == 0 {
		words = make([]float32, 12) // WebGPU rejects zero-sized buffers
	}
	return sliceToBytes(words)
}

// encodeRays packs rays as two vec4f each: (origin, tmin), (dir, tmax).
// Inactive lanes get an empty interval so the kernel never walks them.
func encodeRays(rays []core.Ray, active []bool) []byte {
	words := make([]float32, 0, len(rays)*8)
	for i, r := range rays {
		tMin, tMax := float32(r.TMin), float32(maxFinite(r.TMax))
		if !core.Lane(active, i) {
			tMin, tMax = 1, -1
		}
		words = append(words,
			float32(r.Origin.X), float32(r.Origin.Y), float32(r.Origin.Z), tMin,
			float32(r.Direction.X), float32(r.Direction.Y), float32(r.Direction.Z), tMax,
		)
	}
	return sliceToBytes(words)
}

func maxFinite(t float64) float64 {
	if math.IsInf(t, 1) {
		return math.MaxFloat32
	}
	return t
}

// sliceToBytes views a slice as raw bytes for buffer uploads. The result
// shares memory with the input.
func sliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(size)*len(data))
}

func bytesToWords(data []byte) []uint32 {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
}
