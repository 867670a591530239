package hdeye

import "slices"

// Field is a symbolic feature flag enabling code paths in the emitted pass.
type Field string

// Conditionally active fields.
const (
	FieldFrontFace                         Field = "FragInputs.isFrontFace"
	FieldEyeGames                          Field = "Material.EyeGames"
	FieldEyeCinematics                     Field = "Material.EyeCinematics"
	FieldAlphaTest                         Field = "AlphaTest"
	FieldAlphaFog                          Field = "AlphaFog"
	FieldBlendPreserveSpecular             Field = "BlendMode.PreserveSpecular"
	FieldDisableDecals                     Field = "DisableDecals"
	FieldDisableSSR                        Field = "DisableSSR"
	FieldEnergyConservingSpecular          Field = "Specular.EnergyConserving"
	FieldTransmission                      Field = "Material.Transmission"
	FieldSubsurfaceScattering              Field = "Material.SubsurfaceScattering"
	FieldBentNormal                        Field = "BentNormal"
	FieldTangent                           Field = "Tangent"
	FieldSpecularOcclusionFromAO           Field = "SpecularOcclusionFromAO"
	FieldSpecularOcclusionFromAOBentNormal Field = "SpecularOcclusionFromAOBentNormal"
	FieldSpecularOcclusionCustom           Field = "SpecularOcclusionCustom"
	FieldAmbientOcclusion                  Field = "AmbientOcclusion"
	FieldLightingGI                        Field = "LightingGI"
	FieldBackLightingGI                    Field = "BackLightingGI"
	FieldDepthOffset                       Field = "DepthOffset"
)

// Mesh attribute and interpolator fields, usually listed as required by a pass.
const (
	FieldAttributesNormal   Field = "AttributesMesh.normalOS"
	FieldAttributesTangent  Field = "AttributesMesh.tangentOS"
	FieldAttributesUV0      Field = "AttributesMesh.uv0"
	FieldAttributesUV1      Field = "AttributesMesh.uv1"
	FieldAttributesUV2      Field = "AttributesMesh.uv2"
	FieldAttributesUV3      Field = "AttributesMesh.uv3"
	FieldAttributesColor    Field = "AttributesMesh.color"
	FieldFragTangentToWorld Field = "FragInputs.tangentToWorld"
	FieldFragPositionRWS    Field = "FragInputs.positionRWS"
	FieldFragTexCoord0      Field = "FragInputs.texCoord0"
	FieldFragTexCoord1      Field = "FragInputs.texCoord1"
	FieldFragTexCoord2      Field = "FragInputs.texCoord2"
	FieldFragTexCoord3      Field = "FragInputs.texCoord3"
	FieldFragColor          Field = "FragInputs.color"
)

// FieldSet is a set of fields kept in ascending order so that iteration, and
// therefore emission, never depends on insertion order.
// The zero value is an empty set ready to use.
type FieldSet struct {
	fields []Field
}

// NewFieldSet returns a set holding fields.
func NewFieldSet(fields ...Field) FieldSet {
	var fs FieldSet
	for _, f := range fields {
		fs.Add(f)
	}
	return fs
}

// Add inserts f and reports whether it was not already present.
func (fs *FieldSet) Add(f Field) bool {
	i, found := slices.BinarySearch(fs.fields, f)
	if found {
		return false
	}
	fs.fields = slices.Insert(fs.fields, i, f)
	return true
}

// Has reports whether f is in the set.
func (fs FieldSet) Has(f Field) bool {
	_, found := slices.BinarySearch(fs.fields, f)
	return found
}

// Len returns the number of fields in the set.
func (fs FieldSet) Len() int { return len(fs.fields) }

// Fields returns the fields in ascending order. The result may be modified freely.
func (fs FieldSet) Fields() []Field { return slices.Clone(fs.fields) }

// Union returns a new set holding the fields of fs and other.
func (fs FieldSet) Union(other ...Field) FieldSet {
	u := FieldSet{fields: slices.Clone(fs.fields)}
	for _, f := range other {
		u.Add(f)
	}
	return u
}

// Strings returns the fields in ascending order as strings.
func (fs FieldSet) Strings() []string {
	s := make([]string, len(fs.fields))
	for i, f := range fs.fields {
		s[i] = string(f)
	}
	return s
}
