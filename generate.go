package hdeye

import (
	"errors"

	"github.com/google/uuid"
)

// Generator produces the text of single passes.
type Generator struct {
	Backend Backend
	// Log receives non-fatal diagnostics. Nil uses a standard error logger.
	Log Logger
}

func (g *Generator) logger() Logger {
	if g.Log == nil {
		return stdLogger()
	}
	return g.Log
}

// Resolve finalizes the pass of entry e for material m without emitting it.
// The entry pass is copied, customized and its active fields resolved.
// vertexActive reports whether the pass declares the vertex position slot.
func (g *Generator) Resolve(m *Material, e Entry) (p Pass, fields FieldSet, vertexActive bool) {
	p = e.Pass.Clone()
	if e.Customizer != nil {
		e.Customizer.CustomizePass(m, &p)
	}
	fields = ActiveFields(m, &p, g.logger())
	vertexActive = p.VertexShaderUsesSlot(SlotPosition)
	return p, fields, vertexActive
}

// check reports whether the pass of entry e is generated in mode and
// whether the generator can produce it.
func (g *Generator) check(m *Material, e Entry, mode Mode) (bool, error) {
	if mode != ModeFullCompile && !e.Pass.UseInPreview {
		return false, nil
	}
	if m == nil {
		return false, errorf(ErrNilMaterial, e.Pass.LightMode, "nil material")
	} else if g.Backend == nil {
		return false, errorf(ErrMissingBackend, e.Pass.LightMode, "generator has no backend")
	}
	return true, e.Pass.Validate()
}

// AppendPass appends the text of the pass of entry e to dst. Passes not usable
// in preview are skipped in [ModePreview], in which case dst is returned
// unchanged with generated false and no error. On error dst is returned
// unchanged and nothing is appended to deps.
func (g *Generator) AppendPass(dst []byte, m *Material, e Entry, mode Mode, deps *[]uuid.UUID) (_ []byte, generated bool, err error) {
	generated, err = g.check(m, e, mode)
	if err != nil || !generated {
		return dst, false, err
	}
	p, fields, vertexActive := g.Resolve(m, e)
	log := g.logger()
	if log.DebugEnabled() {
		log.Debugf("pass %s: %d active fields %v, vertex active %t", p.LightMode, fields.Len(), fields.Strings(), vertexActive)
	}

	start := len(dst)
	var passDeps []uuid.UUID
	var depsOut *[]uuid.UUID
	if deps != nil {
		depsOut = &passDeps
	}
	out, err := g.Backend.AppendPass(dst, m, &p, &fields, vertexActive, depsOut)
	if err != nil {
		return dst[:start], false, backendError(p.LightMode, "emitting pass", err)
	}
	if deps != nil {
		*deps = append(*deps, passDeps...)
	}
	return out, true, nil
}

// VariantKey returns the key of the program the pass of entry e compiles to.
// Skipped passes return generated false. The backend must implement [VariantKeyer].
func (g *Generator) VariantKey(m *Material, e Entry, mode Mode) (key uint64, generated bool, err error) {
	generated, err = g.check(m, e, mode)
	if err != nil || !generated {
		return 0, false, err
	}
	keyer, ok := g.Backend.(VariantKeyer)
	if !ok {
		return 0, false, errorf(ErrBackend, e.Pass.LightMode, "backend %T does not key variants", g.Backend)
	}
	p, fields, vertexActive := g.Resolve(m, e)
	key, err = keyer.VariantKey(m, &p, &fields, vertexActive)
	if err != nil {
		return 0, false, backendError(p.LightMode, "keying pass", err)
	}
	return key, true, nil
}

func backendError(lightMode, msg string, err error) error {
	var herr *Error
	if errors.As(err, &herr) {
		return err
	}
	return &Error{Kind: ErrBackend, Pass: lightMode, Message: msg, Err: err}
}
