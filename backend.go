package hdeye

import (
	"github.com/google/uuid"
	"github.com/soypat/hdeye/passbuild"
	"github.com/soypat/hdeye/passbuild/hlsllib"
)

// Backend turns a finalized pass into program text. Implementations must be
// deterministic: identical arguments yield identical text.
type Backend interface {
	// AppendPass appends the text of pass p to dst. fields holds the
	// conditionally active fields; p.RequiredFields are active as well.
	// vertexActive enables the vertex description stage. Source assets the
	// text depends on may be appended to deps when it is not nil.
	AppendPass(dst []byte, m *Material, p *Pass, fields *FieldSet, vertexActive bool, deps *[]uuid.UUID) ([]byte, error)
}

// VariantKeyer is implemented by backends that can identify the compiled
// program of a pass without emitting its text. Passes with equal keys compile
// to the same program and may share a cache entry.
type VariantKeyer interface {
	VariantKey(m *Material, p *Pass, fields *FieldSet, vertexActive bool) (uint64, error)
}

// fieldDefines translates fields to the defines understood by the pass programs.
var fieldDefines = map[Field]string{
	FieldAttributesNormal:   "#define ATTRIBUTES_NEED_NORMAL",
	FieldAttributesTangent:  "#define ATTRIBUTES_NEED_TANGENT",
	FieldAttributesUV0:      "#define ATTRIBUTES_NEED_TEXCOORD0",
	FieldAttributesUV1:      "#define ATTRIBUTES_NEED_TEXCOORD1",
	FieldAttributesUV2:      "#define ATTRIBUTES_NEED_TEXCOORD2",
	FieldAttributesUV3:      "#define ATTRIBUTES_NEED_TEXCOORD3",
	FieldAttributesColor:    "#define ATTRIBUTES_NEED_COLOR",
	FieldFragTangentToWorld: "#define VARYINGS_NEED_TANGENT_TO_WORLD",
	FieldFragPositionRWS:    "#define VARYINGS_NEED_POSITION_WS",
	FieldFragTexCoord0:      "#define VARYINGS_NEED_TEXCOORD0",
	FieldFragTexCoord1:      "#define VARYINGS_NEED_TEXCOORD1",
	FieldFragTexCoord2:      "#define VARYINGS_NEED_TEXCOORD2",
	FieldFragTexCoord3:      "#define VARYINGS_NEED_TEXCOORD3",
	FieldFragColor:          "#define VARYINGS_NEED_COLOR",
	FieldFrontFace:          "#define VARYINGS_NEED_CULLFACE",

	FieldEyeGames:                          "#define _MATERIAL_FEATURE_EYE 1",
	FieldEyeCinematics:                     "#define _MATERIAL_FEATURE_EYE_CINEMATIC 1",
	FieldAlphaTest:                         "#define _ALPHATEST_ON 1",
	FieldAlphaFog:                          "#define _ENABLE_FOG_ON_TRANSPARENT 1",
	FieldBlendPreserveSpecular:             "#define _BLENDMODE_PRESERVE_SPECULAR_LIGHTING 1",
	FieldDisableDecals:                     "#define _DISABLE_DECALS 1",
	FieldDisableSSR:                        "#define _DISABLE_SSR 1",
	FieldEnergyConservingSpecular:          "#define _ENERGY_CONSERVING_SPECULAR 1",
	FieldTransmission:                      "#define _MATERIAL_FEATURE_TRANSMISSION 1",
	FieldSubsurfaceScattering:              "#define _MATERIAL_FEATURE_SUBSURFACE_SCATTERING 1",
	FieldBentNormal:                        "#define _BENT_NORMAL 1",
	FieldTangent:                           "#define _TANGENT 1",
	FieldSpecularOcclusionFromAO:           "#define _SPECULAR_OCCLUSION_FROM_AO 1",
	FieldSpecularOcclusionFromAOBentNormal: "#define _SPECULAR_OCCLUSION_FROM_AO_BENT_NORMAL 1",
	FieldSpecularOcclusionCustom:           "#define _SPECULAR_OCCLUSION_CUSTOM 1",
	FieldAmbientOcclusion:                  "#define _AMBIENT_OCCLUSION 1",
	FieldLightingGI:                        "#define LIGHTING_GI 1",
	FieldBackLightingGI:                    "#define BACK_LIGHTING_GI 1",
	FieldDepthOffset:                       "#define _DEPTHOFFSET_ON 1",
}

// FieldDefine returns the define line enabling field f.
func FieldDefine(f Field) (string, bool) {
	def, ok := fieldDefines[f]
	return def, ok
}

// ShaderLabBackend emits ShaderLab passes with HLSL programs through a
// [passbuild.Programmer]. It holds no per-call state.
type ShaderLabBackend struct {
	prog *passbuild.Programmer
	// templates maps template names to the asset identifier recorded as a dependency.
	templates map[string]uuid.UUID
}

var (
	_ Backend      = (*ShaderLabBackend)(nil)
	_ VariantKeyer = (*ShaderLabBackend)(nil)
)

// NewShaderLabBackend returns a backend writing the eye include preamble in every pass.
// templates maps pass template names to their asset identifiers for dependency
// tracking and may be nil.
func NewShaderLabBackend(templates map[string]uuid.UUID) *ShaderLabBackend {
	prog := passbuild.NewDefaultProgrammer()
	prog.SetPreamble(hlsllib.EyePreamble())
	tmpl := make(map[string]uuid.UUID, len(templates))
	for k, v := range templates {
		tmpl[k] = v
	}
	return &ShaderLabBackend{prog: prog, templates: tmpl}
}

// Decl resolves pass p into the declaration written by the programmer.
func (b *ShaderLabBackend) Decl(m *Material, p *Pass, fields *FieldSet, vertexActive bool) (passbuild.PassDecl, error) {
	all := fields.Union(p.RequiredFields...)
	decl := passbuild.PassDecl{
		Name:           p.Name,
		LightMode:      p.LightMode,
		TemplateName:   p.TemplateName,
		MaterialName:   p.MaterialName,
		ShaderPassName: p.ShaderPassName,
		State:          p.State.Clone(),
		Defines:        append([]string{}, p.ExtraDefines...),
		Includes:       append([]string{}, p.Includes...),
	}
	for _, f := range all.Fields() {
		def, ok := fieldDefines[f]
		if !ok {
			return passbuild.PassDecl{}, errorf(ErrUnknownField, p.LightMode, "no define for field %q", f)
		}
		decl.FieldDefines = append(decl.FieldDefines, def)
	}
	decl.PixelSlots = slotDecls(m, p.PixelSlots)
	if vertexActive {
		decl.VertexSlots = slotDecls(m, p.VertexSlots)
	}
	return decl, nil
}

func (b *ShaderLabBackend) AppendPass(dst []byte, m *Material, p *Pass, fields *FieldSet, vertexActive bool, deps *[]uuid.UUID) ([]byte, error) {
	decl, err := b.Decl(m, p, fields, vertexActive)
	if err != nil {
		return dst, err
	}
	dst, err = b.prog.AppendPass(dst, decl)
	if err != nil {
		return dst, err
	}
	if deps != nil {
		if id, ok := b.templates[p.TemplateName]; ok {
			*deps = append(*deps, id)
		}
	}
	return dst, nil
}

// VariantKey hashes the declaration of pass p. See [passbuild.VariantHash].
func (b *ShaderLabBackend) VariantKey(m *Material, p *Pass, fields *FieldSet, vertexActive bool) (uint64, error) {
	decl, err := b.Decl(m, p, fields, vertexActive)
	if err != nil {
		return 0, err
	}
	return passbuild.VariantHash(decl), nil
}

// Indent returns the indentation unit of the emitted text.
func (b *ShaderLabBackend) Indent() string { return b.prog.Indent() }

func slotDecls(m *Material, ids []SlotID) []passbuild.SlotDecl {
	decls := make([]passbuild.SlotDecl, 0, len(ids))
	for _, id := range ids {
		slot, _ := LookupSlot(id)
		v := m.SlotValue(id).Array()
		decl := passbuild.SlotDecl{Name: slot.Name, Components: slot.Components}
		copy(decl.Value[:], v[:])
		decls = append(decls, decl)
	}
	return decls
}
