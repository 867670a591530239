package hdeye

import (
	"github.com/google/uuid"
	"github.com/soypat/hdeye/passbuild"
	"github.com/soypat/hdeye/renderq"
)

// QueueFunc computes the render queue of a material.
type QueueFunc func(t renderq.Type, sortPriority int, alphaTest bool) (int, error)

// Source assets the eye subshader is generated from.
var (
	// EyeSubShaderAsset identifies the eye subshader generator.
	EyeSubShaderAsset = uuid.MustParse("059cc3132f0336e40886300f3d2d7f12")
	// SubShaderUtilitiesAsset identifies the shared subshader utilities.
	SubShaderUtilitiesAsset = uuid.MustParse("713ced4e6eef4a44799a4dd59041484b")
)

const (
	// PipelineTag is the render pipeline the generated subshader targets.
	PipelineTag   = "HDRenderPipeline"
	renderTypeTag = "HDLitShader"
	eyeEditor     = "UnityEditor.Experimental.Rendering.HDPipeline.EyeGUI"
)

// SubShader assembles the passes of a catalog into one ShaderLab subshader.
// Generation never modifies the SubShader so it may be shared between goroutines
// as long as its fields are not changed concurrently.
type SubShader struct {
	Catalog   *Catalog
	Generator Generator
	// Queue computes the render queue. Nil uses [renderq.ChangeType].
	Queue QueueFunc
	// RenderType is the value of the RenderType tag.
	RenderType string
	// CustomEditor names the inspector of the generated shader. Empty omits the directive.
	CustomEditor string
	// SourceAssets are recorded as dependencies before any pass.
	SourceAssets []uuid.UUID
	// Indent is written before each line nested in the subshader block.
	Indent string
}

// NewEyeSubShader returns the subshader generator of the eye master node
// backed by the ShaderLab backend. log may be nil.
func NewEyeSubShader(log Logger) *SubShader {
	backend := NewShaderLabBackend(nil)
	return &SubShader{
		Catalog:      NewEyeCatalog(),
		Generator:    Generator{Backend: backend, Log: log},
		RenderType:   renderTypeTag,
		CustomEditor: eyeEditor,
		SourceAssets: []uuid.UUID{EyeSubShaderAsset, SubShaderUtilitiesAsset},
		Indent:       backend.Indent(),
	}
}

// PreviewPassIndex returns the index of the pass used to draw previews.
func (s *SubShader) PreviewPassIndex() int { return 0 }

// IsPipelineCompatible reports whether the subshader can be used with the named render pipeline.
func IsPipelineCompatible(pipeline string) bool {
	return pipeline == PipelineTag
}

// PassVariant identifies the compiled program of one generated pass.
type PassVariant struct {
	LightMode string
	Key       uint64
}

// Variants returns the program keys of the passes [SubShader.AppendSubShader]
// generates for m in mode, in the same order. Materials with equal variants
// compile to the same programs. The generator backend must implement [VariantKeyer].
func (s *SubShader) Variants(m *Material, mode Mode) ([]PassVariant, error) {
	if m == nil {
		return nil, errorf(ErrNilMaterial, "", "nil material")
	} else if s.Catalog == nil {
		return nil, errorf(ErrInvalidPass, "", "subshader has no pass catalog")
	}
	err := m.Validate()
	if err != nil {
		return nil, err
	}
	var variants []PassVariant
	for i := 0; i < s.Catalog.Len(); i++ {
		e := s.Catalog.Entry(i)
		if e.Binder != nil {
			e.Binder.CustomizePass(m, &e.Pass)
		}
		key, generated, err := s.Generator.VariantKey(m, e, mode)
		if err != nil {
			return nil, err
		} else if generated {
			variants = append(variants, PassVariant{LightMode: e.Pass.LightMode, Key: key})
		}
	}
	return variants, nil
}

// Generate returns the subshader text for material m. See [SubShader.AppendSubShader].
func (s *SubShader) Generate(m *Material, mode Mode, deps *[]uuid.UUID) (string, error) {
	b, err := s.AppendSubShader(nil, m, mode, deps)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// AppendSubShader appends the subshader text for material m to dst. Passes are
// generated in catalog order, passes skipped by mode leave no text. Identical
// inputs yield byte-identical output. When deps is not nil the identifiers of
// the source assets the text depends on are appended to it. On error neither
// dst nor deps are modified.
func (s *SubShader) AppendSubShader(dst []byte, m *Material, mode Mode, deps *[]uuid.UUID) ([]byte, error) {
	if m == nil {
		return dst, errorf(ErrNilMaterial, "", "nil material")
	} else if s.Catalog == nil {
		return dst, errorf(ErrInvalidPass, "", "subshader has no pass catalog")
	}
	err := m.Validate()
	if err != nil {
		return dst, err
	}

	opaque := m.Surface == SurfaceOpaque
	queueType := renderq.TypeTransparent
	if opaque {
		queueType = renderq.TypeOpaque
	}
	queueFn, queueErr := s.Queue, ErrRenderQueue
	if queueFn == nil {
		// The builtin queue arithmetic only fails on out of range priorities.
		queueFn, queueErr = renderq.ChangeType, ErrSortPriority
	}
	queue, err := queueFn(queueType, m.SortPriority, m.AlphaTest)
	if err != nil {
		return dst, &Error{Kind: queueErr, Message: "computing render queue", Err: err}
	}

	var localDeps []uuid.UUID
	var depsOut *[]uuid.UUID
	if deps != nil {
		localDeps = append(localDeps, s.SourceAssets...)
		depsOut = &localDeps
	}

	in := s.Indent
	buf := append([]byte{}, "SubShader\n{\n"...)
	buf = append(buf, in...)
	buf = passbuild.AppendTags(buf,
		"RenderPipeline", PipelineTag,
		"RenderType", s.RenderType,
		"Queue", renderq.TagValue(queue),
	)
	buf = append(buf, '\n')

	var pass []byte
	for i := 0; i < s.Catalog.Len(); i++ {
		e := s.Catalog.Entry(i)
		if e.Binder != nil {
			e.Binder.CustomizePass(m, &e.Pass)
		}
		var generated bool
		pass, generated, err = s.Generator.AppendPass(pass[:0], m, e, mode, depsOut)
		if err != nil {
			return dst, err
		} else if !generated {
			continue
		}
		buf = append(buf, '\n')
		buf = passbuild.AppendIndented(buf, pass, in)
	}
	buf = append(buf, "}\n"...)
	if s.CustomEditor != "" {
		buf = append(buf, "CustomEditor \""...)
		buf = append(buf, s.CustomEditor...)
		buf = append(buf, "\"\n"...)
	}

	if deps != nil {
		*deps = append(*deps, localDeps...)
	}
	return append(dst, buf...), nil
}
