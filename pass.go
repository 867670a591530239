package hdeye

import (
	"slices"

	"github.com/soypat/hdeye/passbuild"
)

// Mode selects which passes are generated.
type Mode uint8

const (
	// ModeFullCompile generates every pass of the catalog.
	ModeFullCompile Mode = iota
	// ModePreview generates only passes usable for live preview.
	ModePreview
)

func (m Mode) String() string {
	switch m {
	case ModeFullCompile:
		return "FullCompile"
	case ModePreview:
		return "Preview"
	}
	return "Unknown"
}

// Pass describes one shader pass template. Catalog passes are never modified
// in place: generation works on a copy returned by [Pass.Clone].
type Pass struct {
	// Name is unique within a catalog.
	Name string
	// LightMode is the pass tag used as shader stage selector. Unique within a catalog.
	LightMode string
	// TemplateName and MaterialName are informational and written to the pass header.
	TemplateName string
	MaterialName string
	// ShaderPassName selects the pass program, i.e: SHADERPASS_FORWARD.
	ShaderPassName string
	// State holds the render state overrides. Empty commands use the backend default.
	State passbuild.RenderState
	// ExtraDefines are emitted in order after the pass define.
	ExtraDefines []string
	Includes     []string
	// RequiredFields are active regardless of material state.
	RequiredFields []Field
	PixelSlots     []SlotID
	VertexSlots    []SlotID
	// UseInPreview includes the pass in [ModePreview] generation.
	UseInPreview bool
}

// Clone returns a deep copy of p.
func (p *Pass) Clone() Pass {
	c := *p
	c.State = p.State.Clone()
	c.ExtraDefines = slices.Clone(p.ExtraDefines)
	c.Includes = slices.Clone(p.Includes)
	c.RequiredFields = slices.Clone(p.RequiredFields)
	c.PixelSlots = slices.Clone(p.PixelSlots)
	c.VertexSlots = slices.Clone(p.VertexSlots)
	return c
}

// PixelShaderUsesSlot reports whether the pixel stage of the pass declares slot id.
func (p *Pass) PixelShaderUsesSlot(id SlotID) bool {
	return slices.Contains(p.PixelSlots, id)
}

// VertexShaderUsesSlot reports whether the vertex stage of the pass declares slot id.
func (p *Pass) VertexShaderUsesSlot(id SlotID) bool {
	return slices.Contains(p.VertexSlots, id)
}

// AddDefine appends define to the extra defines if not already present.
func (p *Pass) AddDefine(define string) {
	if !slices.Contains(p.ExtraDefines, define) {
		p.ExtraDefines = append(p.ExtraDefines, define)
	}
}

// RemoveDefine removes the first occurrence of define from the extra defines
// and reports whether it was present. Removing an absent define is a no-op.
func (p *Pass) RemoveDefine(define string) bool {
	i := slices.Index(p.ExtraDefines, define)
	if i < 0 {
		return false
	}
	// Delete on a fresh slice so arrays shared with other passes stay intact.
	p.ExtraDefines = slices.Delete(slices.Clone(p.ExtraDefines), i, i+1)
	return true
}

// HasDefine reports whether define is among the extra defines.
func (p *Pass) HasDefine(define string) bool {
	return slices.Contains(p.ExtraDefines, define)
}

// Validate checks the pass identity and that every slot it declares exists.
func (p *Pass) Validate() error {
	if p == nil {
		return errorf(ErrInvalidPass, "", "nil pass")
	} else if p.Name == "" {
		return errorf(ErrInvalidPass, p.LightMode, "pass missing name")
	} else if p.LightMode == "" {
		return errorf(ErrInvalidPass, p.Name, "pass missing light mode")
	} else if p.ShaderPassName == "" {
		return errorf(ErrInvalidPass, p.LightMode, "pass missing shader pass name")
	}
	for _, id := range p.PixelSlots {
		slot, ok := LookupSlot(id)
		if !ok {
			return errorf(ErrUnknownSlot, p.LightMode, "pixel stage declares %s", id)
		} else if slot.Stage != StagePixel {
			return errorf(ErrUnknownSlot, p.LightMode, "pixel stage declares vertex slot %s", slot.Name)
		}
	}
	for _, id := range p.VertexSlots {
		slot, ok := LookupSlot(id)
		if !ok {
			return errorf(ErrUnknownSlot, p.LightMode, "vertex stage declares %s", id)
		} else if slot.Stage != StageVertex {
			return errorf(ErrUnknownSlot, p.LightMode, "vertex stage declares pixel slot %s", slot.Name)
		}
	}
	return nil
}

// PassCustomizer adjusts a pass for the given material before its active
// fields are resolved. It may modify the render state and defines of p, which
// is always a private copy.
type PassCustomizer interface {
	CustomizePass(m *Material, p *Pass)
}

// CustomizerFunc adapts a function to a [PassCustomizer].
type CustomizerFunc func(m *Material, p *Pass)

func (fn CustomizerFunc) CustomizePass(m *Material, p *Pass) { fn(m, p) }

// Entry is a catalog pass with its associated behavior.
type Entry struct {
	Pass Pass
	// Customizer runs during generation. May be nil.
	Customizer PassCustomizer
	// Binder assigns fields chosen by the subshader before generation. May be nil.
	Binder PassCustomizer
}

// Catalog is an ordered set of pass templates. Customizers and binders are
// associated to passes by light mode. A Catalog is read-only once built and
// may be shared between goroutines.
type Catalog struct {
	passes      []Pass
	customizers map[string]PassCustomizer
	binders     map[string]PassCustomizer
}

// Add appends a pass to the catalog with an optional customizer.
func (c *Catalog) Add(p Pass, customizer PassCustomizer) error {
	err := p.Validate()
	if err != nil {
		return err
	}
	for i := range c.passes {
		if c.passes[i].Name == p.Name {
			return errorf(ErrDuplicatePass, p.LightMode, "pass name %q already in catalog", p.Name)
		} else if c.passes[i].LightMode == p.LightMode {
			return errorf(ErrDuplicatePass, p.LightMode, "light mode already in catalog")
		}
	}
	c.passes = append(c.passes, p.Clone())
	if customizer != nil {
		if c.customizers == nil {
			c.customizers = make(map[string]PassCustomizer)
		}
		c.customizers[p.LightMode] = customizer
	}
	return nil
}

// Bind associates a binder with the pass of the given light mode. Binders
// assign fields which depend on subshader level decisions.
func (c *Catalog) Bind(lightMode string, binder PassCustomizer) error {
	if c.index(lightMode) < 0 {
		return errorf(ErrInvalidPass, lightMode, "bind to pass not in catalog")
	}
	if c.binders == nil {
		c.binders = make(map[string]PassCustomizer)
	}
	c.binders[lightMode] = binder
	return nil
}

// Len returns the number of passes in the catalog.
func (c *Catalog) Len() int { return len(c.passes) }

// Entry returns the i'th catalog entry. The returned pass is a copy.
func (c *Catalog) Entry(i int) Entry {
	p := &c.passes[i]
	return Entry{
		Pass:       p.Clone(),
		Customizer: c.customizers[p.LightMode],
		Binder:     c.binders[p.LightMode],
	}
}

// Lookup returns the entry of the pass with the given light mode.
func (c *Catalog) Lookup(lightMode string) (Entry, bool) {
	i := c.index(lightMode)
	if i < 0 {
		return Entry{}, false
	}
	return c.Entry(i), true
}

// LightModes returns the light modes of the catalog passes in catalog order.
func (c *Catalog) LightModes() []string {
	modes := make([]string, len(c.passes))
	for i := range c.passes {
		modes[i] = c.passes[i].LightMode
	}
	return modes
}

func (c *Catalog) index(lightMode string) int {
	for i := range c.passes {
		if c.passes[i].LightMode == lightMode {
			return i
		}
	}
	return -1
}
