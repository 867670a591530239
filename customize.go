package hdeye

// Render state commands driven by material properties set by the inspector.
const (
	CullOff                  = "Cull Off"
	CullDefault              = "Cull [_CullMode]"
	CullForward              = "Cull [_CullModeForward]"
	ZTestEqual               = "ZTest Equal"
	ZTestDepthEqualForOpaque = "ZTest [_ZTestDepthEqualForOpaque]"
	ZWriteOn                 = "ZWrite On"
	ZWriteDefault            = "ZWrite [_ZWrite]"
	ZClipShadowCaster        = "ZClip [_ZClip]"
	BlendOneZero             = "Blend One Zero"
	BlendForward             = "Blend [_SrcBlend] [_DstBlend], [_AlphaSrcBlend] [_AlphaDstBlend]"
	ColorMaskNone            = "ColorMask 0"
)

// DefineBypassAlphaTest skips the forward alpha test of opaque materials whose
// coverage was already resolved by the depth prepass. Debug display may run
// without a prepass so the bypass is disabled there.
const DefineBypassAlphaTest = "#ifndef DEBUG_DISPLAY\n#define SHADERPASS_FORWARD_BYPASS_ALPHA_TEST\n#endif"

// ExtraDefinesForwardOpaque returns the variant defines of the forward pass of opaque materials.
func ExtraDefinesForwardOpaque() []string {
	return []string{
		"#pragma multi_compile _ DEBUG_DISPLAY",
		"#pragma multi_compile _ LIGHTMAP_ON",
		"#pragma multi_compile _ DIRLIGHTMAP_COMBINED",
		"#pragma multi_compile _ DYNAMICLIGHTMAP_ON",
		"#pragma multi_compile _ SHADOWS_SHADOWMASK",
		"#pragma multi_compile DECALS_OFF DECALS_3RT DECALS_4RT",
		"#pragma multi_compile USE_FPTL_LIGHTLIST USE_CLUSTERED_LIGHTLIST",
		"#pragma multi_compile SHADOW_LOW SHADOW_MEDIUM SHADOW_HIGH",
	}
}

// ExtraDefinesForwardTransparent returns the variant defines of the forward pass
// of transparent materials. Transparent objects only use the clustered light list.
func ExtraDefinesForwardTransparent() []string {
	return []string{
		"#pragma multi_compile _ DEBUG_DISPLAY",
		"#pragma multi_compile _ LIGHTMAP_ON",
		"#pragma multi_compile _ DIRLIGHTMAP_COMBINED",
		"#pragma multi_compile _ DYNAMICLIGHTMAP_ON",
		"#pragma multi_compile _ SHADOWS_SHADOWMASK",
		"#pragma multi_compile DECALS_OFF DECALS_3RT DECALS_4RT",
		"#define USE_CLUSTERED_LIGHTLIST",
		"#pragma multi_compile SHADOW_LOW SHADOW_MEDIUM SHADOW_HIGH",
	}
}

// ExtraDefinesForwardMaterialDepthOrMotion returns the variant defines of the
// depth and motion vector passes of forward only materials.
func ExtraDefinesForwardMaterialDepthOrMotion() []string {
	return []string{
		"#define WRITE_NORMAL_BUFFER",
		"#pragma multi_compile _ WRITE_MSAA_DEPTH",
	}
}

// SetStencilStateForDepth writes the stencil bits of the depth prepass.
func SetStencilStateForDepth(p *Pass) {
	p.State.Stencil = stencilBlock("[_StencilWriteMaskDepth]", "[_StencilRefDepth]")
}

// SetStencilStateForMotionVector writes the stencil bits flagging per object motion.
func SetStencilStateForMotionVector(p *Pass) {
	p.State.Stencil = stencilBlock("[_StencilWriteMaskMV]", "[_StencilRefMV]")
}

// SetStencilStateForForward writes the lighting stencil bits of forward rendering.
func SetStencilStateForForward(p *Pass) {
	p.State.Stencil = stencilBlock("[_StencilWriteMask]", "[_StencilRef]")
}

// SetBlendModeForForward blends the forward pass with the material blend factors.
func SetBlendModeForForward(p *Pass) {
	p.State.Blend = BlendForward
}

func stencilBlock(writeMask, ref string) []string {
	return []string{
		"Stencil",
		"{",
		"    WriteMask " + writeMask,
		"    Ref " + ref,
		"    Comp Always",
		"    Pass Replace",
		"}",
	}
}

// depthCustomizer configures the depth prepass of forward only materials.
type depthCustomizer struct{}

func (depthCustomizer) CustomizePass(_ *Material, p *Pass) {
	SetStencilStateForDepth(p)
}

// motionVectorCustomizer configures the motion vector pass.
type motionVectorCustomizer struct{}

func (motionVectorCustomizer) CustomizePass(_ *Material, p *Pass) {
	SetStencilStateForMotionVector(p)
}

// forwardCustomizer configures the forward pass. Opaque alpha tested materials
// have their coverage resolved by the depth prepass, so the forward pass skips
// the alpha test and only shades fragments matching the prepass depth.
type forwardCustomizer struct{}

func (forwardCustomizer) CustomizePass(m *Material, p *Pass) {
	SetStencilStateForForward(p)
	SetBlendModeForForward(p)

	p.RemoveDefine(DefineBypassAlphaTest)
	if m.Surface != SurfaceOpaque {
		return
	}
	if m.AlphaTest {
		p.AddDefine(DefineBypassAlphaTest)
		p.State.ZTest = ZTestEqual
	} else {
		p.State.ZTest = ""
	}
}

// forwardBinder picks the forward variant defines from the surface type,
// keeping the variant count of each material down.
type forwardBinder struct{}

func (forwardBinder) CustomizePass(m *Material, p *Pass) {
	if m.Surface == SurfaceOpaque {
		p.ExtraDefines = ExtraDefinesForwardOpaque()
	} else {
		p.ExtraDefines = ExtraDefinesForwardTransparent()
	}
}
