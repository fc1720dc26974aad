package render

import (
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/nebula3d/nebula/core"
	"github.com/nebula3d/nebula/shaders"
)

// OverlayPipeline draws diagnostic text over the particle field from a glyph
// atlas texture. Items are pushed per frame, turned into screen-space quads
// in Prepare, and recorded at the tail of the main render pass.
type OverlayPipeline struct {
	device *wgpu.Device
	queue  *wgpu.Queue

	renderer  *core.OverlayRenderer
	pipeline  *wgpu.RenderPipeline
	bindGroup *wgpu.BindGroup

	vertexBuf   *wgpu.Buffer
	vertexCount uint32

	items []core.OverlayItem
}

func NewOverlayPipeline(device *wgpu.Device, queue *wgpu.Queue, format wgpu.TextureFormat) (*OverlayPipeline, error) {
	renderer, err := core.NewOverlayRenderer(18)
	if err != nil {
		return nil, err
	}

	o := &OverlayPipeline{
		device:   device,
		queue:    queue,
		renderer: renderer,
	}

	atlas := renderer.AtlasImage
	w := uint32(atlas.Bounds().Dx())
	h := uint32(atlas.Bounds().Dy())

	texture, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Overlay Atlas",
		Size:          wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		Format:        wgpu.TextureFormatR8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, err
	}
	if err := queue.WriteTexture(texture.AsImageCopy(), atlas.Pix, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  w,
		RowsPerImage: h,
	}, &wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}); err != nil {
		return nil, err
	}

	atlasView, err := texture.CreateView(nil)
	if err != nil {
		return nil, err
	}

	sampler, err := device.CreateSampler(&wgpu.SamplerDescriptor{
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, err
	}

	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Overlay Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.OverlayWGSL},
	})
	if err != nil {
		return nil, err
	}
	defer module.Release()

	o.pipeline, err = device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Overlay Pipeline",
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: uint64(unsafe.Sizeof(core.OverlayVertex{})),
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
					{Format: wgpu.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
					{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 2},
				},
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format: format,
				Blend: &wgpu.BlendState{
					Color: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorSrcAlpha,
						DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						Operation: wgpu.BlendOperationAdd,
					},
					Alpha: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorOne,
						DstFactor: wgpu.BlendFactorOne,
						Operation: wgpu.BlendOperationAdd,
					},
				},
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, err
	}

	o.bindGroup, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: o.pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: atlasView},
			{Binding: 1, Sampler: sampler},
		},
	})
	if err != nil {
		return nil, err
	}

	return o, nil
}

func (o *OverlayPipeline) Clear() {
	o.items = o.items[:0]
	o.vertexCount = 0
}

func (o *OverlayPipeline) Push(text string, x, y, scale float32, color [4]float32) {
	o.items = append(o.items, core.OverlayItem{
		Text:     text,
		Position: [2]float32{x, y},
		Scale:    scale,
		Color:    color,
	})
}

// Prepare builds the vertex stream for the current items and uploads it,
// growing the vertex buffer when needed.
func (o *OverlayPipeline) Prepare(screenW, screenH int) error {
	o.vertexCount = 0
	if len(o.items) == 0 {
		return nil
	}

	vertices := o.renderer.BuildVertices(o.items, screenW, screenH)
	if len(vertices) == 0 {
		return nil
	}

	size := uint64(len(vertices)) * uint64(unsafe.Sizeof(core.OverlayVertex{}))
	if o.vertexBuf == nil || o.vertexBuf.GetSize() < size {
		if o.vertexBuf != nil {
			o.vertexBuf.Release()
		}
		var err error
		o.vertexBuf, err = o.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "Overlay VB",
			Size:  size,
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return err
		}
	}

	data := unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), size)
	if err := o.queue.WriteBuffer(o.vertexBuf, 0, data); err != nil {
		return err
	}
	o.vertexCount = uint32(len(vertices))
	return nil
}

func (o *OverlayPipeline) record(pass *wgpu.RenderPassEncoder) {
	if o.vertexCount == 0 || o.vertexBuf == nil {
		return
	}
	pass.SetPipeline(o.pipeline)
	pass.SetBindGroup(0, o.bindGroup, nil)
	pass.SetVertexBuffer(0, o.vertexBuf, 0, wgpu.WholeSize)
	pass.Draw(o.vertexCount, 1, 0, 0)
}
