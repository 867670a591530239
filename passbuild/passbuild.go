package passbuild

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
)

// RenderState holds the ShaderLab render-state commands of a pass.
// An empty string means the command is omitted and the ShaderLab default applies.
type RenderState struct {
	Cull      string
	ZTest     string
	ZWrite    string
	ZClip     string
	Blend     string
	ColorMask string
	// Stencil holds the lines of a Stencil block. Nil omits the block.
	Stencil []string
}

// Clone returns a deep copy of rs.
func (rs RenderState) Clone() RenderState {
	if rs.Stencil != nil {
		rs.Stencil = append([]string{}, rs.Stencil...)
	}
	return rs
}

// SlotDecl is a resolved master node slot ready for emission.
type SlotDecl struct {
	// Name is the member name in the generated description struct.
	Name string
	// Components is the vector width of the slot, 1 to 4.
	Components int
	// Value is the bound slot value. Only the first Components values are emitted.
	Value [4]float32
}

// PassDecl is a fully resolved pass. All decisions have been made by the time
// a PassDecl reaches the [Programmer]; it only formats text.
type PassDecl struct {
	Name           string
	LightMode      string
	TemplateName   string
	MaterialName   string
	ShaderPassName string
	State          RenderState
	// Defines are emitted verbatim in order after the SHADERPASS define.
	Defines []string
	// FieldDefines are the define lines derived from active and required fields.
	FieldDefines []string
	// Includes are emitted verbatim in order after the graph functions.
	Includes    []string
	PixelSlots  []SlotDecl
	VertexSlots []SlotDecl
}

// Programmer formats passes into ShaderLab/HLSL text. A Programmer holds
// only configuration so it may be shared between goroutines.
type Programmer struct {
	indent        string
	target        string
	onlyRenderers string
	preamble      []byte
}

// NewDefaultProgrammer returns a Programmer targeting shader model 4.5 on the
// platforms supported by the high definition render pipeline.
func NewDefaultProgrammer() *Programmer {
	return &Programmer{
		indent:        "    ",
		target:        "4.5",
		onlyRenderers: "d3d11 ps4 xboxone vulkan metal switch",
	}
}

// SetPreamble sets HLSL source written at the start of every program block,
// usually shared includes.
func (p *Programmer) SetPreamble(src []byte) {
	p.preamble = append(p.preamble[:0], src...)
}

// Indent returns the indentation unit used for nested blocks.
func (p *Programmer) Indent() string { return p.indent }

// AppendPass appends the ShaderLab Pass block described by decl to dst.
// On error dst is returned unmodified.
func (p *Programmer) AppendPass(dst []byte, decl PassDecl) ([]byte, error) {
	err := decl.Validate()
	if err != nil {
		return dst, err
	}
	start := len(dst)
	in := p.indent
	dst = append(dst, "Pass\n{\n"...)
	if decl.TemplateName != "" {
		dst = append(dst, in...)
		dst = append(dst, "// based on "...)
		dst = append(dst, decl.TemplateName...)
		dst = append(dst, '\n')
	}
	dst = append(dst, in...)
	dst = append(dst, "Name \""...)
	dst = append(dst, decl.Name...)
	dst = append(dst, "\"\n"...)
	dst = append(dst, in...)
	dst = AppendTags(dst, "LightMode", decl.LightMode)
	dst = append(dst, '\n')

	dst = append(dst, '\n')
	dst = AppendRenderState(dst, in, decl.State)

	dst = append(dst, '\n')
	dst = append(dst, in...)
	dst = append(dst, "HLSLPROGRAM\n\n"...)
	dst = appendLine(dst, in, "#pragma target "+p.target)
	dst = appendLine(dst, in, "#pragma only_renderers "+p.onlyRenderers)
	dst = appendLine(dst, in, "#pragma multi_compile_instancing")
	dst = append(dst, '\n')

	dst = appendLine(dst, in, "// Variant definitions")
	dst = append(dst, in...)
	dst = AppendDefineDecl(dst, "SHADERPASS", decl.ShaderPassName)
	if decl.MaterialName != "" {
		dst = append(dst, in...)
		dst = AppendDefineDecl(dst, "MATERIAL_NAME", decl.MaterialName)
	}
	for _, def := range decl.Defines {
		dst = AppendIndented(dst, []byte(def), in)
	}
	for _, def := range decl.FieldDefines {
		dst = appendLine(dst, in, def)
	}
	if len(decl.VertexSlots) > 0 {
		dst = append(dst, in...)
		dst = AppendDefineDecl(dst, "HAVE_MESH_MODIFICATION", "1")
	}
	if len(p.preamble) > 0 {
		dst = append(dst, '\n')
		dst = AppendIndented(dst, p.preamble, in)
	}

	dst = append(dst, '\n')
	dst = appendLine(dst, in, "// Graph functions")
	dst = appendDescription(dst, in, "SurfaceDescription", "SurfaceDescriptionInputs", decl.PixelSlots)
	if len(decl.VertexSlots) > 0 {
		dst = appendDescription(dst, in, "VertexDescription", "VertexDescriptionInputs", decl.VertexSlots)
	}

	if len(decl.Includes) > 0 {
		dst = append(dst, '\n')
		for _, inc := range decl.Includes {
			dst = appendLine(dst, in, inc)
		}
	}
	dst = append(dst, '\n')
	dst = appendLine(dst, in, "#pragma vertex Vert")
	dst = appendLine(dst, in, "#pragma fragment Frag")
	dst = append(dst, '\n')
	dst = append(dst, in...)
	dst = append(dst, "ENDHLSL\n}\n"...)
	if bytes.Contains(dst[start:], []byte{0}) {
		return dst[:start], errors.New("pass " + decl.Name + " produced NUL byte in output")
	}
	return dst, nil
}

// Validate checks the fields every pass requires.
func (decl PassDecl) Validate() error {
	if decl.Name == "" {
		return errors.New("pass declaration missing name")
	} else if decl.LightMode == "" {
		return fmt.Errorf("pass %q missing light mode", decl.Name)
	} else if decl.ShaderPassName == "" {
		return fmt.Errorf("pass %q missing shader pass name", decl.Name)
	}
	for _, s := range decl.PixelSlots {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("pass %q pixel slot: %w", decl.Name, err)
		}
	}
	for _, s := range decl.VertexSlots {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("pass %q vertex slot: %w", decl.Name, err)
		}
	}
	return nil
}

// Validate checks the slot can be represented in HLSL.
func (s SlotDecl) Validate() error {
	if s.Name == "" {
		return errors.New("slot zero-length name")
	} else if s.Components < 1 || s.Components > 4 {
		return fmt.Errorf("slot %q has %d components, want 1..4", s.Name, s.Components)
	}
	for _, v := range s.Value[:s.Components] {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			return fmt.Errorf("slot %q has non-finite value", s.Name)
		}
	}
	return nil
}

// HLSLType returns the HLSL type name of the slot, i.e: float, float3.
func (s SlotDecl) HLSLType() string {
	if s.Components == 1 {
		return "float"
	}
	return "float" + strconv.Itoa(s.Components)
}

// AppendRenderState appends the non-default render state commands, one per line.
func AppendRenderState(dst []byte, indent string, rs RenderState) []byte {
	for _, cmd := range [...]string{rs.Blend, rs.Cull, rs.ZTest, rs.ZWrite, rs.ZClip, rs.ColorMask} {
		if cmd != "" {
			dst = appendLine(dst, indent, cmd)
		}
	}
	for _, line := range rs.Stencil {
		dst = appendLine(dst, indent, line)
	}
	return dst
}

// AppendTags appends a ShaderLab tag block from key value pairs.
//
//	Tags { "key0" = "value0" "key1" = "value1" }
func AppendTags(dst []byte, keyValues ...string) []byte {
	if len(keyValues)%2 != 0 {
		panic("AppendTags requires key value pairs")
	}
	dst = append(dst, "Tags {"...)
	for i := 0; i < len(keyValues); i += 2 {
		dst = append(dst, " \""...)
		dst = append(dst, keyValues[i]...)
		dst = append(dst, "\" = \""...)
		dst = append(dst, keyValues[i+1]...)
		dst = append(dst, '"')
	}
	dst = append(dst, " }"...)
	return dst
}

func AppendDefineDecl(b []byte, aliasToDefine, aliasReplace string) []byte {
	b = append(b, "#define "...)
	b = append(b, aliasToDefine...)
	if aliasReplace != "" {
		b = append(b, ' ')
		b = append(b, aliasReplace...)
	}
	b = append(b, '\n')
	return b
}

// AppendIndented appends src to dst prefixing every non-empty line with indent.
// A trailing newline is added if src does not end in one.
func AppendIndented(dst, src []byte, indent string) []byte {
	for len(src) > 0 {
		line := src
		idx := bytes.IndexByte(src, '\n')
		if idx >= 0 {
			line = src[:idx]
			src = src[idx+1:]
		} else {
			src = nil
		}
		if len(line) > 0 {
			dst = append(dst, indent...)
			dst = append(dst, line...)
		}
		dst = append(dst, '\n')
	}
	return dst
}

func appendLine(dst []byte, indent, line string) []byte {
	dst = append(dst, indent...)
	dst = append(dst, line...)
	dst = append(dst, '\n')
	return dst
}

func appendDescription(dst []byte, in, structName, inputName string, slots []SlotDecl) []byte {
	dst = append(dst, in...)
	dst = append(dst, "struct "...)
	dst = append(dst, structName...)
	dst = append(dst, '\n')
	dst = append(dst, in...)
	dst = append(dst, "{\n"...)
	for _, s := range slots {
		dst = append(dst, in...)
		dst = append(dst, in...)
		dst = append(dst, s.HLSLType()...)
		dst = append(dst, ' ')
		dst = append(dst, s.Name...)
		dst = append(dst, ";\n"...)
	}
	dst = append(dst, in...)
	dst = append(dst, "};\n\n"...)

	dst = append(dst, in...)
	dst = append(dst, structName...)
	dst = append(dst, ' ')
	dst = append(dst, structName...)
	dst = append(dst, "Function("...)
	dst = append(dst, inputName...)
	dst = append(dst, " IN)\n"...)
	dst = append(dst, in...)
	dst = append(dst, "{\n"...)
	dst = append(dst, in...)
	dst = append(dst, in...)
	dst = append(dst, structName...)
	dst = append(dst, " description = ("...)
	dst = append(dst, structName...)
	dst = append(dst, ")0;\n"...)
	for _, s := range slots {
		dst = append(dst, in...)
		dst = append(dst, in...)
		dst = append(dst, "description."...)
		dst = append(dst, s.Name...)
		dst = append(dst, " = "...)
		dst = AppendSlotValue(dst, s)
		dst = append(dst, ";\n"...)
	}
	dst = append(dst, in...)
	dst = append(dst, in...)
	dst = append(dst, "return description;\n"...)
	dst = append(dst, in...)
	dst = append(dst, "}\n"...)
	return dst
}

// AppendSlotValue appends the HLSL literal of the slot value, i.e: float3(0.5,0.5,0.5).
func AppendSlotValue(dst []byte, s SlotDecl) []byte {
	if s.Components == 1 {
		return AppendFloat(dst, '-', '.', s.Value[0])
	}
	dst = append(dst, s.HLSLType()...)
	dst = append(dst, '(')
	dst = AppendFloats(dst, ',', '-', '.', s.Value[:s.Components]...)
	dst = append(dst, ')')
	return dst
}

const decimalDigits = 9

func AppendFloat(b []byte, neg, decimal byte, v float32) []byte {
	start := len(b)
	b = strconv.AppendFloat(b, float64(v), 'f', decimalDigits, 32)
	idx := bytes.IndexByte(b[start:], '.')
	if decimal != '.' && idx >= 0 {
		b[start+idx] = decimal
	}
	if b[start] == '-' {
		b[start] = neg
	}
	// Finally trim zeroes.
	end := len(b)
	for i := len(b) - 1; idx >= 0 && i > idx+start && b[i] == '0'; i-- {
		end--
	}
	return b[:end]
}

func AppendFloats(b []byte, sep, neg, decimal byte, s ...float32) []byte {
	for i, v := range s {
		b = AppendFloat(b, neg, decimal, v)
		if sep != 0 && i != len(s)-1 {
			b = append(b, sep)
		}
	}
	return b
}

// VariantHash returns a key identifying the compiled variant of decl. Two
// declarations with equal hashes produce identical pass text, so the hash may
// be used to key a shader compilation cache.
func VariantHash(decl PassDecl) uint64 {
	var sb strings.Builder
	sb.WriteString(decl.Name)
	sb.WriteByte(0)
	sb.WriteString(decl.LightMode)
	sb.WriteByte(0)
	sb.WriteString(decl.TemplateName)
	sb.WriteByte(0)
	sb.WriteString(decl.MaterialName)
	sb.WriteByte(0)
	sb.WriteString(decl.ShaderPassName)
	rs := decl.State
	for _, s := range [...]string{rs.Cull, rs.ZTest, rs.ZWrite, rs.ZClip, rs.Blend, rs.ColorMask} {
		sb.WriteByte(0)
		sb.WriteString(s)
	}
	writeList := func(list []string) {
		sb.WriteByte(1)
		for _, s := range list {
			sb.WriteString(s)
			sb.WriteByte(0)
		}
	}
	writeList(rs.Stencil)
	writeList(decl.Defines)
	writeList(decl.FieldDefines)
	writeList(decl.Includes)
	var scratch []byte
	for _, slots := range [2][]SlotDecl{decl.PixelSlots, decl.VertexSlots} {
		sb.WriteByte(2)
		for _, s := range slots {
			scratch = AppendSlotValue(scratch[:0], s)
			sb.WriteString(s.Name)
			sb.WriteByte('=')
			sb.Write(scratch)
			sb.WriteByte(0)
		}
	}
	return hash([]byte(sb.String()), 0xff51afd7ed558ccd)
}

func hash(b []byte, in uint64) uint64 {
	x := in
	for len(b) >= 8 {
		x ^= binary.LittleEndian.Uint64(b)
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
		b = b[8:]
	}
	if len(b) > 0 {
		var buf [8]byte
		copy(buf[:], b)
		x ^= binary.LittleEndian.Uint64(buf[:])
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
	}
	return x
}
