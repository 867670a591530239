package hlsllib

import (
	_ "embed"
)

// ShaderPassDir is the package directory holding the high definition shader pass programs.
const ShaderPassDir = "Packages/com.unity.render-pipelines.high-definition/Runtime/RenderPipeline/ShaderPass/"

//go:embed eye_preamble.hlsl
var eyePreamble []byte

// EyePreamble returns the include block shared by every pass of the eye material.
func EyePreamble() []byte {
	return append([]byte{}, eyePreamble...)
}

// ShaderPassInclude returns the include directive of a shader pass program, i.e:
//
//	#include "Packages/com.unity.render-pipelines.high-definition/Runtime/RenderPipeline/ShaderPass/ShaderPassForward.hlsl"
func ShaderPassInclude(program string) string {
	return "#include \"" + ShaderPassDir + program + ".hlsl\""
}
