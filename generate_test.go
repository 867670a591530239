package hdeye

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backendCall struct {
	pass         Pass
	fields       []Field
	vertexActive bool
}

// recordingBackend writes the pass light mode and records its arguments.
type recordingBackend struct {
	calls []backendCall
	dep   uuid.UUID
	err   error
}

func (b *recordingBackend) AppendPass(dst []byte, m *Material, p *Pass, fields *FieldSet, vertexActive bool, deps *[]uuid.UUID) ([]byte, error) {
	b.calls = append(b.calls, backendCall{pass: p.Clone(), fields: fields.Fields(), vertexActive: vertexActive})
	dst = append(dst, p.LightMode...)
	if deps != nil {
		*deps = append(*deps, b.dep)
	}
	return dst, b.err
}

func eyeEntry(t *testing.T, lightMode string) Entry {
	t.Helper()
	e, ok := NewEyeCatalog().Lookup(lightMode)
	require.True(t, ok, "missing pass %s", lightMode)
	return e
}

func TestGeneratorPreviewGating(t *testing.T) {
	rec := &recordingBackend{}
	gen := Generator{Backend: rec, Log: NopLogger()}
	m := NewMaterial()
	for _, lm := range NewEyeCatalog().LightModes() {
		e := eyeEntry(t, lm)
		dst := []byte("prefix")
		out, generated, err := gen.AppendPass(dst, m, e, ModePreview, nil)
		require.NoError(t, err)
		assert.Equal(t, e.Pass.UseInPreview, generated, lm)
		if generated {
			assert.Equal(t, "prefix"+lm, string(out))
		} else {
			assert.Equal(t, "prefix", string(out))
		}

		out, generated, err = gen.AppendPass(nil, m, e, ModeFullCompile, nil)
		require.NoError(t, err)
		assert.True(t, generated, lm)
		assert.Equal(t, lm, string(out))
	}
	// Only the two preview passes plus every pass in full compile.
	assert.Len(t, rec.calls, 2+6)
}

func TestGeneratorPreviewSkipIgnoresInvalidState(t *testing.T) {
	gen := Generator{Log: NopLogger()}
	out, generated, err := gen.AppendPass(nil, nil, eyeEntry(t, LightModeMeta), ModePreview, nil)
	assert.NoError(t, err)
	assert.False(t, generated)
	assert.Empty(t, out)
}

func TestGeneratorVertexActive(t *testing.T) {
	rec := &recordingBackend{}
	gen := Generator{Backend: rec, Log: NopLogger()}
	m := NewMaterial()
	for _, lm := range NewEyeCatalog().LightModes() {
		_, _, err := gen.AppendPass(nil, m, eyeEntry(t, lm), ModeFullCompile, nil)
		require.NoError(t, err)
	}
	require.Len(t, rec.calls, 6)
	for _, call := range rec.calls {
		assert.Equal(t, call.pass.LightMode != LightModeMeta, call.vertexActive, call.pass.LightMode)
	}
}

func TestGeneratorForwardCustomization(t *testing.T) {
	tests := []struct {
		name       string
		surface    SurfaceType
		alphaTest  bool
		wantZTest  string
		wantBypass bool
	}{
		{name: "opaque alpha tested", surface: SurfaceOpaque, alphaTest: true, wantZTest: ZTestEqual, wantBypass: true},
		{name: "opaque", surface: SurfaceOpaque, wantZTest: ""},
		{name: "transparent alpha tested", surface: SurfaceTransparent, alphaTest: true, wantZTest: ZTestDepthEqualForOpaque},
		{name: "transparent", surface: SurfaceTransparent, wantZTest: ZTestDepthEqualForOpaque},
	}
	gen := Generator{Backend: &recordingBackend{}, Log: NopLogger()}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m := NewMaterial()
			m.Surface = test.surface
			m.AlphaTest = test.alphaTest
			e := eyeEntry(t, LightModeForwardOnly)
			// A leftover bypass define from a previous run must not survive.
			e.Pass.AddDefine(DefineBypassAlphaTest)

			p, fields, vertexActive := gen.Resolve(m, e)
			assert.True(t, vertexActive)
			assert.Equal(t, test.wantZTest, p.State.ZTest)
			assert.Equal(t, test.wantBypass, p.HasDefine(DefineBypassAlphaTest))
			assert.Equal(t, test.alphaTest, fields.Has(FieldAlphaTest))
			assert.Equal(t, BlendForward, p.State.Blend)
			assert.Contains(t, p.State.Stencil, "    Ref [_StencilRef]")
			// The entry is left untouched.
			assert.True(t, e.Pass.HasDefine(DefineBypassAlphaTest))
			assert.Equal(t, ZTestDepthEqualForOpaque, e.Pass.State.ZTest)
		})
	}
}

func TestGeneratorStencilCustomizers(t *testing.T) {
	gen := Generator{Backend: &recordingBackend{}, Log: NopLogger()}
	m := NewMaterial()
	p, _, _ := gen.Resolve(m, eyeEntry(t, LightModeDepthForwardOnly))
	assert.Contains(t, p.State.Stencil, "    WriteMask [_StencilWriteMaskDepth]")
	p, _, _ = gen.Resolve(m, eyeEntry(t, LightModeMotionVectors))
	assert.Contains(t, p.State.Stencil, "    WriteMask [_StencilWriteMaskMV]")
	p, _, _ = gen.Resolve(m, eyeEntry(t, LightModeShadowCaster))
	assert.Nil(t, p.State.Stencil)
}

func TestGeneratorErrors(t *testing.T) {
	m := NewMaterial()
	e := eyeEntry(t, LightModeForwardOnly)
	prefix := []byte("prefix")
	deps := []uuid.UUID{EyeSubShaderAsset}

	gen := Generator{Backend: &recordingBackend{}, Log: NopLogger()}
	out, generated, err := gen.AppendPass(prefix, nil, e, ModeFullCompile, &deps)
	assert.ErrorIs(t, err, &Error{Kind: ErrNilMaterial})
	assert.False(t, generated)
	assert.Equal(t, "prefix", string(out))

	gen = Generator{Log: NopLogger()}
	out, _, err = gen.AppendPass(prefix, m, e, ModeFullCompile, &deps)
	assert.ErrorIs(t, err, &Error{Kind: ErrMissingBackend})
	assert.Equal(t, "prefix", string(out))

	gen = Generator{Backend: &recordingBackend{}, Log: NopLogger()}
	bad := Entry{Pass: Pass{Name: "Broken", LightMode: "Broken"}}
	_, _, err = gen.AppendPass(prefix, m, bad, ModeFullCompile, &deps)
	assert.ErrorIs(t, err, &Error{Kind: ErrInvalidPass})

	cause := errors.New("backend failure")
	rec := &recordingBackend{err: cause, dep: uuid.New()}
	gen = Generator{Backend: rec, Log: NopLogger()}
	out, generated, err = gen.AppendPass(prefix, m, e, ModeFullCompile, &deps)
	assert.ErrorIs(t, err, &Error{Kind: ErrBackend})
	assert.ErrorIs(t, err, cause)
	assert.False(t, generated)
	assert.Equal(t, "prefix", string(out), "no partial output")
	assert.Equal(t, []uuid.UUID{EyeSubShaderAsset}, deps, "no partial dependencies")
}

func TestGeneratorVariantKey(t *testing.T) {
	gen := Generator{Backend: NewShaderLabBackend(nil), Log: NopLogger()}
	e := eyeEntry(t, LightModeForwardOnly)
	m := NewMaterial()
	key, generated, err := gen.VariantKey(m, e, ModeFullCompile)
	require.NoError(t, err)
	require.True(t, generated)

	again, _, err := gen.VariantKey(m.Clone(), eyeEntry(t, LightModeForwardOnly), ModePreview)
	require.NoError(t, err)
	assert.Equal(t, key, again, "equal inputs share a variant")

	m.AlphaTest = true
	alpha, _, err := gen.VariantKey(m, e, ModeFullCompile)
	require.NoError(t, err)
	assert.NotEqual(t, key, alpha)

	_, generated, err = gen.VariantKey(m, eyeEntry(t, LightModeMeta), ModePreview)
	require.NoError(t, err)
	assert.False(t, generated, "skipped in preview")

	e.Pass.RequiredFields = append(e.Pass.RequiredFields, "Custom.Unknown")
	_, _, err = gen.VariantKey(m, e, ModeFullCompile)
	assert.ErrorIs(t, err, &Error{Kind: ErrUnknownField})

	gen = Generator{Backend: &recordingBackend{}, Log: NopLogger()}
	_, _, err = gen.VariantKey(m, eyeEntry(t, LightModeForwardOnly), ModeFullCompile)
	assert.ErrorIs(t, err, &Error{Kind: ErrBackend})
}

func TestGeneratorUnknownField(t *testing.T) {
	e := eyeEntry(t, LightModeForwardOnly)
	e.Pass.RequiredFields = append(e.Pass.RequiredFields, "Custom.Unknown")
	gen := Generator{Backend: NewShaderLabBackend(nil), Log: NopLogger()}
	out, _, err := gen.AppendPass([]byte("prefix"), NewMaterial(), e, ModeFullCompile, nil)
	assert.ErrorIs(t, err, &Error{Kind: ErrUnknownField})
	assert.Equal(t, "prefix", string(out))
}

func TestGeneratorDeps(t *testing.T) {
	rec := &recordingBackend{dep: uuid.New()}
	gen := Generator{Backend: rec, Log: NopLogger()}
	deps := []uuid.UUID{EyeSubShaderAsset}
	_, _, err := gen.AppendPass(nil, NewMaterial(), eyeEntry(t, LightModeMeta), ModeFullCompile, &deps)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{EyeSubShaderAsset, rec.dep}, deps)

	// nil deps disables tracking.
	_, _, err = gen.AppendPass(nil, NewMaterial(), eyeEntry(t, LightModeMeta), ModeFullCompile, nil)
	require.NoError(t, err)
}

func TestShaderLabBackendDecl(t *testing.T) {
	b := NewShaderLabBackend(nil)
	m := NewMaterial()
	m.AlphaTest = true
	e := eyeEntry(t, LightModeShadowCaster)
	fields := ActiveFields(m, &e.Pass, nil)

	decl, err := b.Decl(m, &e.Pass, &fields, true)
	require.NoError(t, err)
	assert.Contains(t, decl.FieldDefines, "#define _ALPHATEST_ON 1")
	require.Len(t, decl.VertexSlots, 1)
	assert.Equal(t, "Position", decl.VertexSlots[0].Name)
	require.Len(t, decl.PixelSlots, 3)
	assert.Equal(t, float32(0.5), decl.PixelSlots[1].Value[0], "alpha clip threshold default")

	decl, err = b.Decl(m, &e.Pass, &fields, false)
	require.NoError(t, err)
	assert.Empty(t, decl.VertexSlots)

	// Required fields are emitted with the active ones.
	fwd := eyeEntry(t, LightModeForwardOnly)
	fields = ActiveFields(m, &fwd.Pass, nil)
	decl, err = b.Decl(m, &fwd.Pass, &fields, true)
	require.NoError(t, err)
	assert.Len(t, decl.FieldDefines, fields.Len()+len(fwd.Pass.RequiredFields))
	assert.Contains(t, decl.FieldDefines, "#define VARYINGS_NEED_TANGENT_TO_WORLD")
}

func TestFieldDefinesComplete(t *testing.T) {
	all := []Field{
		FieldFrontFace, FieldEyeGames, FieldEyeCinematics, FieldAlphaTest, FieldAlphaFog,
		FieldBlendPreserveSpecular, FieldDisableDecals, FieldDisableSSR, FieldEnergyConservingSpecular,
		FieldTransmission, FieldSubsurfaceScattering, FieldBentNormal, FieldTangent,
		FieldSpecularOcclusionFromAO, FieldSpecularOcclusionFromAOBentNormal, FieldSpecularOcclusionCustom,
		FieldAmbientOcclusion, FieldLightingGI, FieldBackLightingGI, FieldDepthOffset,
	}
	all = append(all, litRequiredFields...)
	for _, f := range all {
		def, ok := FieldDefine(f)
		assert.True(t, ok, f)
		assert.NotEmpty(t, def, f)
	}
	_, ok := FieldDefine("Custom.Unknown")
	assert.False(t, ok)
}
