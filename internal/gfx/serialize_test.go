package gfx

import (
	"reflect"
	"testing"

	"github.com/TFMV/devarchive/internal/serializer"
)

// roundTrip measures and writes a schema, checks the sizes agree, and
// returns the bytes for reading back.
func roundTrip(t *testing.T, schema func(*serializer.Serializer)) []byte {
	t.Helper()

	m := serializer.NewMeasurer()
	schema(m)
	if err := m.Err(); err != nil {
		t.Fatalf("measure failed: %v", err)
	}

	buf := make([]byte, m.Size())
	w := serializer.NewWriter(buf)
	schema(w)
	if err := w.Err(); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if !w.End() {
		t.Fatalf("write produced %d bytes, measured %d", w.Size(), len(buf))
	}
	return buf
}

func readBack(t *testing.T, buf []byte, schema func(*serializer.Serializer)) {
	t.Helper()

	r := serializer.NewReader(buf)
	schema(r)
	if err := r.Err(); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !r.End() {
		t.Fatalf("read consumed %d of %d bytes", r.Size(), len(buf))
	}
}

func TestSignatureDescRoundTrip(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		desc PipelineResourceSignatureDesc
	}{
		{
			name: "Empty",
			desc: PipelineResourceSignatureDesc{},
		},
		{
			// The canonical two-resource signature with an immutable
			// sampler shared by vertex and pixel stages.
			name: "TwoResourcesOneSampler",
			desc: PipelineResourceSignatureDesc{
				Resources: []PipelineResourceDesc{
					{Name: "R1", ShaderStages: ShaderTypeVertex, ArraySize: 1, ResourceType: ResourceTypeTextureSRV},
					{Name: "R2", ShaderStages: ShaderTypePixel, ArraySize: 3, ResourceType: ResourceTypeSampler},
				},
				ImmutableSamplers: []ImmutableSamplerDesc{
					{ShaderStages: ShaderTypeVertex | ShaderTypePixel, SamplerOrTextureName: "S1"},
				},
				BindingIndex: 2,
			},
		},
		{
			name: "CombinedSamplers",
			desc: PipelineResourceSignatureDesc{
				Resources: []PipelineResourceDesc{
					{Name: "g_Texture", ShaderStages: ShaderTypePixel, ArraySize: 8, ResourceType: ResourceTypeTextureSRV, VarType: VarTypeMutable, Flags: ResourceFlagCombinedSampler},
				},
				UseCombinedTextureSamplers: true,
				CombinedSamplerSuffix:      "_sampler",
				BindingIndex:               7,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			in := tc.desc
			internal := SignatureInternalData{
				ShaderStages:          ShaderTypeVertex | ShaderTypePixel,
				StaticResShaderStages: ShaderTypeVertex,
				PipelineType:          PipelineTypeGraphics,
				StaticResStageIndex:   [MaxResourceSignatures]int8{0, -1, 2, -1, -1, -1, -1, -1},
			}
			buf := roundTrip(t, func(s *serializer.Serializer) {
				SerializeSignatureDesc(s, &in, &internal)
			})

			var out PipelineResourceSignatureDesc
			var outInternal SignatureInternalData
			readBack(t, buf, func(s *serializer.Serializer) {
				SerializeSignatureDesc(s, &out, &outInternal)
			})

			// The name travels in the directory, not the blob.
			out.Name = in.Name
			if !reflect.DeepEqual(in, out) {
				t.Fatalf("desc mismatch:\n got %+v\nwant %+v", out, in)
			}
			if !reflect.DeepEqual(internal, outInternal) {
				t.Fatalf("internal data mismatch:\n got %+v\nwant %+v", outInternal, internal)
			}
		})
	}
}

func TestSamplerEnumGrid(t *testing.T) {
	t.Parallel()

	// Sweep every filter, address mode, and comparison function through
	// the sampler schema.
	for filter := FilterUnknown; filter <= FilterComparisonAnisotropic; filter++ {
		for addr := AddressUnknown; addr <= AddressBorder; addr++ {
			for cmp := ComparisonUnknown; cmp <= ComparisonAlways; cmp++ {
				in := SamplerDesc{
					Name:           "S",
					MinFilter:      filter,
					MagFilter:      filter,
					MipFilter:      filter,
					AddressU:       addr,
					AddressV:       addr,
					AddressW:       addr,
					MipLODBias:     -0.5,
					MaxAnisotropy:  16,
					ComparisonFunc: cmp,
					BorderColor:    [4]float32{0, 0.25, 0.5, 1},
					MinLOD:         0,
					MaxLOD:         1000,
				}
				buf := roundTrip(t, func(s *serializer.Serializer) { SerializeSampler(s, &in) })
				var out SamplerDesc
				readBack(t, buf, func(s *serializer.Serializer) { SerializeSampler(s, &out) })
				if !reflect.DeepEqual(in, out) {
					t.Fatalf("sampler mismatch at filter=%d addr=%d cmp=%d", filter, addr, cmp)
				}
			}
		}
	}
}

func renderPassFixture(attachments, deps int, resolve, depthStencil, shadingRate bool) RenderPassDesc {
	d := RenderPassDesc{}
	for i := 0; i < attachments; i++ {
		d.Attachments = append(d.Attachments, RenderPassAttachmentDesc{
			Format:         FormatRGBA8Unorm,
			SampleCount:    uint8(1 << (i % 4)),
			LoadOp:         LoadOpClear,
			StoreOp:        StoreOpStore,
			StencilLoadOp:  LoadOpDiscard,
			StencilStoreOp: StoreOpDiscard,
			InitialState:   StateRenderTarget,
			FinalState:     StateShaderResource,
		})
	}
	sp := SubpassDesc{}
	if attachments > 0 {
		sp.RenderTargetAttachments = []AttachmentReference{{AttachmentIndex: 0, State: StateRenderTarget}}
		if resolve {
			sp.ResolveAttachments = []AttachmentReference{{AttachmentIndex: uint32(attachments - 1), State: StateResolveDest}}
		}
		if depthStencil {
			sp.DepthStencilAttachment = &AttachmentReference{AttachmentIndex: 0, State: StateDepthWrite}
		}
		if shadingRate {
			sp.ShadingRateAttachment = &ShadingRateAttachment{
				Attachment: AttachmentReference{AttachmentIndex: 0, State: StateShadingRate},
				TileSize:   [2]uint32{16, 16},
			}
		}
	}
	d.Subpasses = []SubpassDesc{sp}
	for i := 0; i < deps; i++ {
		d.Dependencies = append(d.Dependencies, SubpassDependencyDesc{
			SrcSubpass:    uint32(i),
			DstSubpass:    uint32(i + 1),
			SrcStageMask:  StageRenderTarget,
			DstStageMask:  StagePixelShader,
			SrcAccessMask: AccessRenderTargetWrite,
			DstAccessMask: AccessShaderRead,
		})
	}
	return d
}

func TestRenderPassDescRoundTrip(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		desc RenderPassDesc
	}{
		{name: "Minimal", desc: renderPassFixture(0, 0, false, false, false)},
		{name: "OneAttachment", desc: renderPassFixture(1, 0, false, false, false)},
		{name: "MaxAttachments", desc: renderPassFixture(MaxRenderTargets, 4, false, false, false)},
		{name: "WithResolve", desc: renderPassFixture(2, 1, true, false, false)},
		{name: "WithDepthStencil", desc: renderPassFixture(2, 0, false, true, false)},
		{name: "WithShadingRate", desc: renderPassFixture(2, 0, false, false, true)},
		{name: "Everything", desc: renderPassFixture(MaxRenderTargets, 2, true, true, true)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			in := tc.desc
			buf := roundTrip(t, func(s *serializer.Serializer) { SerializeRenderPassDesc(s, &in) })
			var out RenderPassDesc
			readBack(t, buf, func(s *serializer.Serializer) { SerializeRenderPassDesc(s, &out) })
			out.Name = in.Name
			if !reflect.DeepEqual(in, out) {
				t.Fatalf("render pass mismatch:\n got %+v\nwant %+v", out, in)
			}
		})
	}
}

func graphicsFixture(layoutElems int, topology PrimitiveTopology) GraphicsPipelineCreateInfo {
	ci := GraphicsPipelineCreateInfo{}
	ci.PipelineType = PipelineTypeGraphics
	ci.Flags = PSOFlagIgnoreMissingVariables
	g := &ci.Graphics
	g.SampleMask = 0xFFFFFFFF
	g.Rasterizer = RasterizerStateDesc{
		FillMode:        FillModeSolid,
		CullMode:        CullModeBack,
		DepthClipEnable: true,
		DepthBias:       -2,
		DepthBiasClamp:  0.5,
	}
	g.DepthStencil = DepthStencilStateDesc{
		DepthEnable:      true,
		DepthWriteEnable: true,
		DepthFunc:        ComparisonLess,
		FrontFace:        StencilOpDesc{StencilFailOp: StencilOpKeep, StencilDepthFailOp: StencilOpKeep, StencilPassOp: StencilOpReplace, StencilFunc: ComparisonAlways},
		BackFace:         StencilOpDesc{StencilFailOp: StencilOpZero, StencilDepthFailOp: StencilOpInvert, StencilPassOp: StencilOpKeep, StencilFunc: ComparisonNever},
	}
	g.Blend.RenderTargets[0] = RenderTargetBlendDesc{
		BlendEnable: true,
		SrcBlend:    BlendFactorSrcAlpha,
		DestBlend:   BlendFactorInvSrcAlpha,
		BlendOp:     BlendOpAdd,
		WriteMask:   ColorMaskAll,
	}
	for i := 0; i < layoutElems; i++ {
		g.InputLayout = append(g.InputLayout, LayoutElement{
			HLSLSemantic:  "ATTRIB",
			InputIndex:    uint32(i),
			NumComponents: 4,
			ValueType:     ValueTypeFloat32,
			IsNormalized:  i%2 == 0,
			Stride:        64,
			Frequency:     FrequencyPerVertex,
		})
	}
	g.PrimitiveTopology = topology
	g.NumViewports = 1
	g.NumRenderTargets = 2
	g.RTVFormats[0] = FormatRGBA8Unorm
	g.RTVFormats[1] = FormatRGBA16Float
	g.DSVFormat = FormatD32Float
	g.SmplDesc = SampleDesc{Count: 4, Quality: 1}
	return ci
}

func TestGraphicsPipelineRoundTrip(t *testing.T) {
	t.Parallel()

	for _, layoutElems := range []int{0, 1, MaxRenderTargets} {
		for topology := TopologyUndefined; topology <= TopologyPatchList1; topology++ {
			in := graphicsFixture(layoutElems, topology)
			prsNames := []string{"Sig0", "Sig1"}
			rpName := "MainPass"

			buf := roundTrip(t, func(s *serializer.Serializer) {
				SerializeGraphicsPipeline(s, &in, &prsNames, &rpName)
			})

			var out GraphicsPipelineCreateInfo
			var outNames []string
			var outRP string
			readBack(t, buf, func(s *serializer.Serializer) {
				SerializeGraphicsPipeline(s, &out, &outNames, &outRP)
			})

			out.Name = in.Name
			if !reflect.DeepEqual(in, out) {
				t.Fatalf("graphics pipeline mismatch (elems=%d, topology=%d):\n got %+v\nwant %+v", layoutElems, topology, out, in)
			}
			if !reflect.DeepEqual(prsNames, outNames) {
				t.Fatalf("signature names mismatch: got %v", outNames)
			}
			if outRP != rpName {
				t.Fatalf("render pass name mismatch: got %q", outRP)
			}
		}
	}
}

func TestComputePipelineRoundTrip(t *testing.T) {
	t.Parallel()

	in := ComputePipelineCreateInfo{}
	in.PipelineType = PipelineTypeCompute
	prsNames := []string{"ComputeSig"}

	buf := roundTrip(t, func(s *serializer.Serializer) {
		SerializeComputePipeline(s, &in, &prsNames)
	})

	var out ComputePipelineCreateInfo
	var outNames []string
	readBack(t, buf, func(s *serializer.Serializer) {
		SerializeComputePipeline(s, &out, &outNames)
	})
	if out.PipelineType != PipelineTypeCompute || !reflect.DeepEqual(prsNames, outNames) {
		t.Fatalf("compute pipeline mismatch: %+v %v", out, outNames)
	}
}

func TestTilePipelineRoundTrip(t *testing.T) {
	t.Parallel()

	in := TilePipelineCreateInfo{}
	in.PipelineType = PipelineTypeTile
	in.Tile = TilePipelineDesc{NumRenderTargets: 3, SampleCount: 2}
	in.Tile.RTVFormats[0] = FormatBGRA8Unorm
	in.Tile.RTVFormats[2] = FormatRG16Float
	prsNames := []string{"TileSig"}

	buf := roundTrip(t, func(s *serializer.Serializer) {
		SerializeTilePipeline(s, &in, &prsNames)
	})

	var out TilePipelineCreateInfo
	var outNames []string
	readBack(t, buf, func(s *serializer.Serializer) {
		SerializeTilePipeline(s, &out, &outNames)
	})
	out.Name = in.Name
	if !reflect.DeepEqual(in, out) || !reflect.DeepEqual(prsNames, outNames) {
		t.Fatalf("tile pipeline mismatch:\n got %+v\nwant %+v", out, in)
	}
}

func TestRayTracingPipelineRoundTrip(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		general    int
		triangle   int
		procedural int
	}{
		{name: "GeneralOnly", general: 1},
		{name: "Empty", general: 0},
		{name: "AllGroups", general: 2, triangle: 2, procedural: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			in := RayTracingPipelineCreateInfo{}
			in.PipelineType = PipelineTypeRayTracing
			in.RayTracing = RayTracingPipelineDesc{ShaderRecordSize: 32, MaxRecursionDepth: 4}
			in.ShaderRecordName = "record"
			in.MaxAttributeSize = 8
			in.MaxPayloadSize = 16
			for i := 0; i < tc.general; i++ {
				in.GeneralShaders = append(in.GeneralShaders, RayTracingGeneralShaderGroup{Name: "gen", ShaderIndex: uint32(i)})
			}
			for i := 0; i < tc.triangle; i++ {
				in.TriangleHitShaders = append(in.TriangleHitShaders, RayTracingTriangleHitShaderGroup{Name: "hit", ClosestHitIndex: uint32(i), AnyHitIndex: UnusedShaderIndex})
			}
			for i := 0; i < tc.procedural; i++ {
				in.ProceduralHitShaders = append(in.ProceduralHitShaders, RayTracingProceduralHitShaderGroup{Name: "proc", IntersectionIndex: uint32(i), ClosestHitIndex: UnusedShaderIndex, AnyHitIndex: UnusedShaderIndex})
			}
			prsNames := []string{"RTSig"}

			buf := roundTrip(t, func(s *serializer.Serializer) {
				SerializeRayTracingPipeline(s, &in, &prsNames)
			})

			var out RayTracingPipelineCreateInfo
			var outNames []string
			readBack(t, buf, func(s *serializer.Serializer) {
				SerializeRayTracingPipeline(s, &out, &outNames)
			})
			out.Name = in.Name
			if !reflect.DeepEqual(in, out) || !reflect.DeepEqual(prsNames, outNames) {
				t.Fatalf("ray-tracing pipeline mismatch:\n got %+v\nwant %+v", out, in)
			}
		})
	}
}

func TestShaderHeaderRoundTrip(t *testing.T) {
	t.Parallel()

	for lang := SourceLanguageDefault; lang <= SourceLanguageMSL; lang++ {
		for compiler := CompilerDefault; compiler <= CompilerFXC; compiler++ {
			in := ShaderCreateInfo{
				ShaderType:     ShaderTypeVertex,
				EntryPoint:     "main",
				SourceLanguage: lang,
				Compiler:       compiler,
			}
			buf := roundTrip(t, func(s *serializer.Serializer) { SerializeShaderHeader(s, &in) })
			var out ShaderCreateInfo
			readBack(t, buf, func(s *serializer.Serializer) { SerializeShaderHeader(s, &out) })
			if !reflect.DeepEqual(in, out) {
				t.Fatalf("shader header mismatch at lang=%d compiler=%d", lang, compiler)
			}
		}
	}
}
