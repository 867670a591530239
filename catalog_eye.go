package hdeye

import (
	"github.com/soypat/hdeye/passbuild"
	"github.com/soypat/hdeye/passbuild/hlsllib"
)

// Light modes of the eye catalog passes.
const (
	LightModeMeta             = "META"
	LightModeSceneSelection   = "SceneSelectionPass"
	LightModeShadowCaster     = "ShadowCaster"
	LightModeDepthForwardOnly = "DepthForwardOnly"
	LightModeMotionVectors    = "MotionVectors"
	LightModeForwardOnly      = "ForwardOnly"
)

const (
	eyeTemplate = "EyePass.template"
	eyeMaterial = "Eye"
)

var (
	// Light transport always reads uv2.
	metaRequiredFields = []Field{
		FieldAttributesNormal,
		FieldAttributesTangent,
		FieldAttributesUV0,
		FieldAttributesUV1,
		FieldAttributesColor,
		FieldAttributesUV2,
	}
	// Tangent is always present, lighting variants need it. uv3 feeds debug display.
	litRequiredFields = []Field{
		FieldAttributesNormal,
		FieldAttributesTangent,
		FieldAttributesUV0,
		FieldAttributesUV1,
		FieldAttributesColor,
		FieldAttributesUV2,
		FieldAttributesUV3,
		FieldFragTangentToWorld,
		FieldFragPositionRWS,
		FieldFragTexCoord0,
		FieldFragTexCoord1,
		FieldFragTexCoord2,
		FieldFragTexCoord3,
		FieldFragColor,
	}
	depthPixelSlots = []SlotID{
		SlotAlpha,
		SlotAlphaClipThreshold,
		SlotDepthOffset,
	}
	depthNormalPixelSlots = []SlotID{
		SlotNormal,
		SlotSmoothness,
		SlotAlpha,
		SlotAlphaClipThreshold,
		SlotDepthOffset,
	}
	positionVertexSlots = []SlotID{SlotPosition}
)

// NewEyeCatalog returns the pass catalog of the eye master node in generation order:
// META, SceneSelectionPass, ShadowCaster, DepthForwardOnly, MotionVectors and ForwardOnly.
func NewEyeCatalog() *Catalog {
	var c Catalog
	must(c.Add(Pass{
		Name:           "META",
		LightMode:      LightModeMeta,
		TemplateName:   eyeTemplate,
		MaterialName:   eyeMaterial,
		ShaderPassName: "SHADERPASS_LIGHT_TRANSPORT",
		State:          passbuild.RenderState{Cull: CullOff},
		Includes:       []string{hlsllib.ShaderPassInclude("ShaderPassLightTransport")},
		RequiredFields: metaRequiredFields,
		PixelSlots: []SlotID{
			SlotAlbedo,
			SlotSpecularOcclusion,
			SlotNormal,
			SlotSmoothness,
			SlotAmbientOcclusion,
			SlotRefractionMask,
			SlotDiffusionProfileHash,
			SlotSubsurfaceMask,
			SlotThickness,
			SlotTangent,
			SlotAnisotropy,
			SlotEmission,
			SlotAlpha,
			SlotAlphaClipThreshold,
			SlotIrisNormal,
		},
		// Light transport never displaces vertices.
		VertexSlots: nil,
	}, nil))

	must(c.Add(Pass{
		Name:           "SceneSelectionPass",
		LightMode:      LightModeSceneSelection,
		TemplateName:   eyeTemplate,
		MaterialName:   eyeMaterial,
		ShaderPassName: "SHADERPASS_DEPTH_ONLY",
		State:          passbuild.RenderState{ColorMask: ColorMaskNone},
		ExtraDefines: []string{
			"#define SCENESELECTIONPASS",
			"#pragma editor_sync_compilation",
		},
		Includes:    []string{hlsllib.ShaderPassInclude("ShaderPassDepthOnly")},
		PixelSlots:  depthPixelSlots,
		VertexSlots: positionVertexSlots,
	}, nil))

	must(c.Add(Pass{
		Name:           "ShadowCaster",
		LightMode:      LightModeShadowCaster,
		TemplateName:   eyeTemplate,
		MaterialName:   eyeMaterial,
		ShaderPassName: "SHADERPASS_SHADOWS",
		State: passbuild.RenderState{
			Blend:     BlendOneZero,
			ZWrite:    ZWriteOn,
			ColorMask: ColorMaskNone,
			ZClip:     ZClipShadowCaster,
			Cull:      CullDefault,
		},
		Includes:    []string{hlsllib.ShaderPassInclude("ShaderPassDepthOnly")},
		PixelSlots:  depthPixelSlots,
		VertexSlots: positionVertexSlots,
	}, nil))

	must(c.Add(Pass{
		Name:           "DepthForwardOnly",
		LightMode:      LightModeDepthForwardOnly,
		TemplateName:   eyeTemplate,
		MaterialName:   eyeMaterial,
		ShaderPassName: "SHADERPASS_DEPTH_ONLY",
		State: passbuild.RenderState{
			ZWrite: ZWriteOn,
			Cull:   CullDefault,
		},
		ExtraDefines:   ExtraDefinesForwardMaterialDepthOrMotion(),
		Includes:       []string{hlsllib.ShaderPassInclude("ShaderPassDepthOnly")},
		RequiredFields: litRequiredFields,
		PixelSlots:     depthNormalPixelSlots,
		VertexSlots:    positionVertexSlots,
		UseInPreview:   true,
	}, depthCustomizer{}))

	must(c.Add(Pass{
		Name:           "MotionVectors",
		LightMode:      LightModeMotionVectors,
		TemplateName:   eyeTemplate,
		MaterialName:   eyeMaterial,
		ShaderPassName: ShaderPassMotionVectors,
		State:          passbuild.RenderState{Cull: CullDefault},
		ExtraDefines:   ExtraDefinesForwardMaterialDepthOrMotion(),
		Includes:       []string{hlsllib.ShaderPassInclude("ShaderPassMotionVectors")},
		RequiredFields: litRequiredFields,
		PixelSlots:     depthNormalPixelSlots,
		VertexSlots:    positionVertexSlots,
	}, motionVectorCustomizer{}))

	must(c.Add(Pass{
		Name:           "ForwardOnly",
		LightMode:      LightModeForwardOnly,
		TemplateName:   eyeTemplate,
		MaterialName:   eyeMaterial,
		ShaderPassName: "SHADERPASS_FORWARD",
		State: passbuild.RenderState{
			Cull:   CullForward,
			ZTest:  ZTestDepthEqualForOpaque,
			ZWrite: ZWriteDefault,
		},
		// ExtraDefines are bound per surface type by the subshader.
		Includes:       []string{hlsllib.ShaderPassInclude("ShaderPassForward")},
		RequiredFields: litRequiredFields,
		PixelSlots: []SlotID{
			SlotAlbedo,
			SlotSpecularOcclusion,
			SlotNormal,
			SlotBentNormal,
			SlotSmoothness,
			SlotAmbientOcclusion,
			SlotRefractionMask,
			SlotDiffusionProfileHash,
			SlotSubsurfaceMask,
			SlotThickness,
			SlotTangent,
			SlotAnisotropy,
			SlotEmission,
			SlotAlpha,
			SlotAlphaClipThreshold,
			SlotLighting,
			SlotBackLighting,
			SlotDepthOffset,
			SlotIrisNormal,
		},
		VertexSlots:  positionVertexSlots,
		UseInPreview: true,
	}, forwardCustomizer{}))
	must(c.Bind(LightModeForwardOnly, forwardBinder{}))
	return &c
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
