package hdeye

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/chewxy/math32"
	"github.com/google/uuid"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/hdeye/renderq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSubShader() *SubShader {
	return NewEyeSubShader(NopLogger())
}

func generate(t *testing.T, ss *SubShader, m *Material, mode Mode) string {
	t.Helper()
	text, err := ss.Generate(m, mode, nil)
	require.NoError(t, err)
	return text
}

func TestSubShaderLayout(t *testing.T) {
	text := generate(t, testSubShader(), NewMaterial(), ModeFullCompile)
	assert.True(t, strings.HasPrefix(text, "SubShader\n{\n    Tags { \"RenderPipeline\" = \"HDRenderPipeline\" \"RenderType\" = \"HDLitShader\" \"Queue\" = \"Geometry+0\" }\n"), text[:min(len(text), 200)])
	assert.True(t, strings.HasSuffix(text, "}\nCustomEditor \"UnityEditor.Experimental.Rendering.HDPipeline.EyeGUI\"\n"))

	last := -1
	for _, name := range []string{"META", "SceneSelectionPass", "ShadowCaster", "DepthForwardOnly", "MotionVectors", "ForwardOnly"} {
		idx := strings.Index(text, "Name \""+name+"\"")
		require.Greater(t, idx, last, "pass %s out of order", name)
		last = idx
	}
	assert.Equal(t, 6, strings.Count(text, "    Pass\n    {\n"))
	assert.Equal(t, 6, strings.Count(text, "ENDHLSL"))
}

func TestSubShaderPreview(t *testing.T) {
	text := generate(t, testSubShader(), NewMaterial(), ModePreview)
	assert.Equal(t, 2, strings.Count(text, "ENDHLSL"))
	assert.Contains(t, text, "Name \"DepthForwardOnly\"")
	assert.Contains(t, text, "Name \"ForwardOnly\"")
	for _, name := range []string{"META", "SceneSelectionPass", "ShadowCaster", "MotionVectors"} {
		assert.NotContains(t, text, "Name \""+name+"\"")
	}
}

func TestSubShaderDeterministic(t *testing.T) {
	m := NewMaterial()
	m.DoubleSided = DoubleSidedMirroredNormals
	m.Connect(SlotBentNormal)
	m.Connect(SlotLighting)
	m.SetSlotValue(SlotAmbientOcclusion, ms3.Vec{X: 0.25})
	ss := testSubShader()
	first := generate(t, ss, m, ModeFullCompile)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, generate(t, ss, m, ModeFullCompile))
		assert.Equal(t, first, generate(t, testSubShader(), m.Clone(), ModeFullCompile))
	}
}

func TestSubShaderNoStateLeak(t *testing.T) {
	ss := testSubShader()
	alphaTested := NewMaterial()
	alphaTested.AlphaTest = true
	transparent := NewMaterial()
	transparent.Surface = SurfaceTransparent
	plain := NewMaterial()

	want := generate(t, testSubShader(), plain, ModeFullCompile)
	got := generate(t, ss, alphaTested, ModeFullCompile)
	assert.Contains(t, got, "SHADERPASS_FORWARD_BYPASS_ALPHA_TEST")
	assert.Contains(t, got, "ZTest Equal")
	generate(t, ss, transparent, ModeFullCompile)
	assert.Equal(t, want, generate(t, ss, plain, ModeFullCompile))
}

func TestSubShaderForwardVariants(t *testing.T) {
	ss := testSubShader()
	m := NewMaterial()
	text := generate(t, ss, m, ModeFullCompile)
	assert.Contains(t, text, "#pragma multi_compile USE_FPTL_LIGHTLIST USE_CLUSTERED_LIGHTLIST")
	assert.NotContains(t, text, "ZTest")
	assert.NotContains(t, text, "SHADERPASS_FORWARD_BYPASS_ALPHA_TEST")

	m.Surface = SurfaceTransparent
	m.AlphaTest = true
	text = generate(t, ss, m, ModeFullCompile)
	assert.Contains(t, text, "#define USE_CLUSTERED_LIGHTLIST")
	assert.NotContains(t, text, "USE_FPTL_LIGHTLIST")
	assert.Contains(t, text, "ZTest [_ZTestDepthEqualForOpaque]")
	assert.NotContains(t, text, "ZTest Equal")
	assert.NotContains(t, text, "SHADERPASS_FORWARD_BYPASS_ALPHA_TEST")
	assert.Contains(t, text, "#define _ALPHATEST_ON 1")
	assert.Contains(t, text, "#define _ENABLE_FOG_ON_TRANSPARENT 1")
}

func TestSubShaderQueue(t *testing.T) {
	tests := []struct {
		surface   SurfaceType
		alphaTest bool
		priority  int
		want      string
	}{
		{SurfaceOpaque, false, 0, "Geometry+0"},
		{SurfaceOpaque, true, 0, "AlphaTest+0"},
		{SurfaceOpaque, false, 50, "Geometry+0"},
		{SurfaceTransparent, false, 0, "Transparent+0"},
		{SurfaceTransparent, true, -10, "Transparent-10"},
		{SurfaceTransparent, false, 100, "Transparent+100"},
	}
	ss := testSubShader()
	for _, test := range tests {
		m := NewMaterial()
		m.Surface = test.surface
		m.AlphaTest = test.alphaTest
		m.SortPriority = test.priority
		text := generate(t, ss, m, ModePreview)
		assert.Contains(t, text, "\"Queue\" = \""+test.want+"\"", "%s alpha=%t priority=%d", test.surface, test.alphaTest, test.priority)
	}

	ss.Queue = func(renderq.Type, int, bool) (int, error) { return renderq.Overlay + 1, nil }
	text := generate(t, ss, NewMaterial(), ModePreview)
	assert.Contains(t, text, "\"Queue\" = \"Overlay+1\"")

	cause := errors.New("queue table unavailable")
	ss.Queue = func(renderq.Type, int, bool) (int, error) { return 0, cause }
	_, err := ss.Generate(NewMaterial(), ModePreview, nil)
	assert.ErrorIs(t, err, &Error{Kind: ErrRenderQueue})
	assert.NotErrorIs(t, err, &Error{Kind: ErrSortPriority})
	assert.ErrorIs(t, err, cause)
}

func TestSubShaderSourceDeps(t *testing.T) {
	ss := testSubShader()
	var deps []uuid.UUID
	_, err := ss.Generate(NewMaterial(), ModeFullCompile, &deps)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{EyeSubShaderAsset, SubShaderUtilitiesAsset}, deps)

	tmpl := uuid.MustParse("0c8a7a1d2b3c4d5e8f90a1b2c3d4e5f6")
	ss.Generator.Backend = NewShaderLabBackend(map[string]uuid.UUID{eyeTemplate: tmpl})
	deps = []uuid.UUID{SubShaderUtilitiesAsset}
	_, err = ss.Generate(NewMaterial(), ModePreview, &deps)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{SubShaderUtilitiesAsset, EyeSubShaderAsset, SubShaderUtilitiesAsset, tmpl, tmpl}, deps)
}

func TestSubShaderErrors(t *testing.T) {
	nan := math32.NaN()
	tests := []struct {
		name   string
		modify func(m *Material)
		kind   ErrorKind
	}{
		{"unknown slot", func(m *Material) { m.Slots[SlotID(99)] = SlotBinding{Connected: true} }, ErrUnknownSlot},
		{"nan slot", func(m *Material) { m.SetSlotValue(SlotSmoothness, ms3.Vec{X: nan}) }, ErrInvalidSlotValue},
		{"inf slot", func(m *Material) { m.SetSlotValue(SlotEmission, ms3.Vec{Z: math32.Inf(1)}) }, ErrInvalidSlotValue},
		{"transparent priority", func(m *Material) { m.Surface = SurfaceTransparent; m.SortPriority = 101 }, ErrSortPriority},
		{"negative priority", func(m *Material) { m.SortPriority = -150 }, ErrSortPriority},
	}
	ss := testSubShader()
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m := NewMaterial()
			test.modify(m)
			deps := []uuid.UUID{EyeSubShaderAsset}
			out, err := ss.AppendSubShader([]byte("prefix"), m, ModeFullCompile, &deps)
			require.Error(t, err)
			var herr *Error
			require.True(t, errors.As(err, &herr), "want *Error, got %T", err)
			assert.Equal(t, test.kind, herr.Kind)
			assert.Equal(t, "prefix", string(out))
			assert.Equal(t, []uuid.UUID{EyeSubShaderAsset}, deps)
		})
	}

	out, err := ss.AppendSubShader([]byte("prefix"), nil, ModeFullCompile, nil)
	assert.ErrorIs(t, err, &Error{Kind: ErrNilMaterial})
	assert.Equal(t, "prefix", string(out))

	ss.Generator.Backend = nil
	out, err = ss.AppendSubShader([]byte("prefix"), NewMaterial(), ModePreview, nil)
	assert.ErrorIs(t, err, &Error{Kind: ErrMissingBackend})
	assert.Equal(t, "prefix", string(out))
}

func TestSubShaderValidateJoinsErrors(t *testing.T) {
	m := NewMaterial()
	m.Slots[SlotID(-3)] = SlotBinding{}
	m.SetSlotValue(SlotAlpha, ms3.Vec{X: math32.Inf(-1)})
	err := m.Validate()
	assert.ErrorIs(t, err, &Error{Kind: ErrUnknownSlot})
	assert.ErrorIs(t, err, &Error{Kind: ErrInvalidSlotValue})

	// Unused components of scalar slots are not validated.
	m = NewMaterial()
	m.SetSlotValue(SlotAlpha, ms3.Vec{X: 1, Y: math32.NaN()})
	assert.NoError(t, m.Validate())
}

func TestSubShaderConcurrentUse(t *testing.T) {
	ss := testSubShader()
	materials := make([]*Material, 8)
	want := make([]string, len(materials))
	for i := range materials {
		m := NewMaterial()
		m.AlphaTest = i%2 == 0
		if i%3 == 0 {
			m.Surface = SurfaceTransparent
		}
		m.DoubleSided = DoubleSidedMode(i % 4)
		materials[i] = m
		want[i] = generate(t, testSubShader(), m, ModeFullCompile)
	}
	var wg sync.WaitGroup
	got := make([]string, len(materials))
	errs := make([]error, len(materials))
	for i := range materials {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], errs[i] = ss.Generate(materials[i], ModeFullCompile, nil)
		}(i)
	}
	wg.Wait()
	require.NoError(t, errors.Join(errs...))
	assert.Equal(t, want, got)
}

func TestSubShaderVariants(t *testing.T) {
	ss := testSubShader()
	m := NewMaterial()
	full, err := ss.Variants(m, ModeFullCompile)
	require.NoError(t, err)
	want := []string{LightModeMeta, LightModeSceneSelection, LightModeShadowCaster, LightModeDepthForwardOnly, LightModeMotionVectors, LightModeForwardOnly}
	require.Len(t, full, len(want))
	for i, v := range full {
		assert.Equal(t, want[i], v.LightMode)
	}

	preview, err := ss.Variants(m, ModePreview)
	require.NoError(t, err)
	require.Len(t, preview, 2)
	assert.Equal(t, full[3], preview[0])
	assert.Equal(t, full[5], preview[1])

	// Occlusion only reaches the forward pass program.
	occluded := m.Clone()
	occluded.Connect(SlotAmbientOcclusion)
	other, err := ss.Variants(occluded, ModePreview)
	require.NoError(t, err)
	assert.Equal(t, preview[0], other[0])
	assert.NotEqual(t, preview[1].Key, other[1].Key)

	_, err = ss.Variants(nil, ModePreview)
	assert.ErrorIs(t, err, &Error{Kind: ErrNilMaterial})
	ss.Generator.Backend = &recordingBackend{}
	_, err = ss.Variants(m, ModePreview)
	assert.ErrorIs(t, err, &Error{Kind: ErrBackend})
}

func TestSubShaderPipeline(t *testing.T) {
	assert.True(t, IsPipelineCompatible("HDRenderPipeline"))
	assert.False(t, IsPipelineCompatible("UniversalRenderPipeline"))
	assert.Equal(t, 0, testSubShader().PreviewPassIndex())
}

func TestSubShaderDoubleSidedMotionVectors(t *testing.T) {
	m := NewMaterial()
	m.DoubleSided = DoubleSidedEnabled
	text := generate(t, testSubShader(), m, ModeFullCompile)
	// Every pass but motion vectors requests the face sign.
	assert.Equal(t, 5, strings.Count(text, "#define VARYINGS_NEED_CULLFACE"))
	mv := text[strings.Index(text, "Name \"MotionVectors\""):strings.Index(text, "Name \"ForwardOnly\"")]
	assert.NotContains(t, mv, "VARYINGS_NEED_CULLFACE")
}
