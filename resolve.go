package hdeye

// ShaderPassMotionVectors is the pass program excluded from front face detection.
const ShaderPassMotionVectors = "SHADERPASS_MOTION_VECTORS"

// slotFields are the fields gated on their slot being both connected in the
// graph and declared by the pass pixel stage.
var slotFields = [...]struct {
	slot  SlotID
	field Field
}{
	{slot: SlotBentNormal, field: FieldBentNormal},
	{slot: SlotTangent, field: FieldTangent},
	{slot: SlotLighting, field: FieldLightingGI},
	{slot: SlotBackLighting, field: FieldBackLightingGI},
	{slot: SlotDepthOffset, field: FieldDepthOffset},
}

// ActiveFields returns the conditionally active fields of pass p for material m.
// Neither m nor p are modified. Unrecognized option values are reported to log
// and contribute no field; a nil log discards them.
func ActiveFields(m *Material, p *Pass, log Logger) FieldSet {
	var fields FieldSet
	if m == nil || p == nil {
		return fields
	}
	if log == nil {
		log = NopLogger()
	}

	if m.DoubleSided != DoubleSidedDisabled && p.ShaderPassName != ShaderPassMotionVectors {
		// The motion vector pass cannot build its interpolators from
		// several input structs, so it never requests the face sign.
		fields.Add(FieldFrontFace)
	}

	switch m.MaterialType {
	case MaterialEyeGames:
		fields.Add(FieldEyeGames)
	case MaterialEyeCinematics:
		fields.Add(FieldEyeCinematics)
	default:
		log.Errorf("pass %s: unknown material type %s", p.LightMode, m.MaterialType)
	}

	if m.AlphaTest && p.PixelShaderUsesSlot(SlotAlphaClipThreshold) {
		fields.Add(FieldAlphaTest)
	}

	if m.Surface != SurfaceOpaque {
		if m.TransparencyFog {
			fields.Add(FieldAlphaFog)
		}
		if m.BlendPreserveSpecular {
			fields.Add(FieldBlendPreserveSpecular)
		}
	}

	if !m.ReceiveDecals {
		fields.Add(FieldDisableDecals)
	}
	if !m.ReceiveSSR {
		fields.Add(FieldDisableSSR)
	}

	if m.EnergyConservingSpecular {
		fields.Add(FieldEnergyConservingSpecular)
	}
	if m.Transmission {
		fields.Add(FieldTransmission)
	}
	if m.SubsurfaceScattering && m.Surface != SurfaceTransparent {
		fields.Add(FieldSubsurfaceScattering)
	}

	for _, sf := range slotFields {
		if m.IsSlotConnected(sf.slot) && p.PixelShaderUsesSlot(sf.slot) {
			fields.Add(sf.field)
		}
	}

	switch m.SpecularOcclusion {
	case SpecularOcclusionOff:
	case SpecularOcclusionFromAO:
		fields.Add(FieldSpecularOcclusionFromAO)
	case SpecularOcclusionFromAOAndBentNormal:
		fields.Add(FieldSpecularOcclusionFromAOBentNormal)
	case SpecularOcclusionCustom:
		fields.Add(FieldSpecularOcclusionCustom)
	default:
		log.Errorf("pass %s: unknown specular occlusion mode %s", p.LightMode, m.SpecularOcclusion)
	}

	if p.PixelShaderUsesSlot(SlotAmbientOcclusion) {
		// A default occlusion value is a no-op, skip the occlusion math.
		if m.IsSlotConnected(SlotAmbientOcclusion) || !m.HasDefaultValue(SlotAmbientOcclusion) {
			fields.Add(FieldAmbientOcclusion)
		}
	}
	return fields
}
