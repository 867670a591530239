// Package hdeye generates the ShaderLab subshader of an eye material for the
// high definition render pipeline.
//
// A [Catalog] holds the pass templates. For every pass the [Generator] copies
// the template, lets the pass [PassCustomizer] adjust render state and defines
// from the [Material], resolves the active fields with [ActiveFields] and hands
// the result to a [Backend] which writes the text. [SubShader] runs the whole
// catalog in order and wraps the passes with the subshader tags:
//
//	m := hdeye.NewMaterial()
//	m.AlphaTest = true
//	src, err := hdeye.NewEyeSubShader(nil).Generate(m, hdeye.ModeFullCompile, nil)
package hdeye
