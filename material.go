package hdeye

import (
	"errors"
	"slices"
	"strconv"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// SurfaceType selects between opaque and blended surfaces.
type SurfaceType uint8

const (
	SurfaceOpaque SurfaceType = iota
	SurfaceTransparent
)

func (s SurfaceType) String() string {
	switch s {
	case SurfaceOpaque:
		return "Opaque"
	case SurfaceTransparent:
		return "Transparent"
	}
	return "SurfaceType(" + strconv.Itoa(int(s)) + ")"
}

// DoubleSidedMode controls rendering of back faces and their normals.
type DoubleSidedMode uint8

const (
	DoubleSidedDisabled DoubleSidedMode = iota
	DoubleSidedEnabled
	DoubleSidedFlippedNormals
	DoubleSidedMirroredNormals
)

func (d DoubleSidedMode) String() string {
	switch d {
	case DoubleSidedDisabled:
		return "Disabled"
	case DoubleSidedEnabled:
		return "Enabled"
	case DoubleSidedFlippedNormals:
		return "FlippedNormals"
	case DoubleSidedMirroredNormals:
		return "MirroredNormals"
	}
	return "DoubleSidedMode(" + strconv.Itoa(int(d)) + ")"
}

// MaterialType is the eye shading model variant.
type MaterialType uint8

const (
	MaterialEyeGames MaterialType = iota
	MaterialEyeCinematics
)

func (t MaterialType) String() string {
	switch t {
	case MaterialEyeGames:
		return "EyeGames"
	case MaterialEyeCinematics:
		return "EyeCinematics"
	}
	return "MaterialType(" + strconv.Itoa(int(t)) + ")"
}

// SpecularOcclusionMode selects how specular occlusion is computed.
type SpecularOcclusionMode uint8

const (
	SpecularOcclusionOff SpecularOcclusionMode = iota
	SpecularOcclusionFromAO
	SpecularOcclusionFromAOAndBentNormal
	SpecularOcclusionCustom
)

func (m SpecularOcclusionMode) String() string {
	switch m {
	case SpecularOcclusionOff:
		return "Off"
	case SpecularOcclusionFromAO:
		return "FromAO"
	case SpecularOcclusionFromAOAndBentNormal:
		return "FromAOAndBentNormal"
	case SpecularOcclusionCustom:
		return "Custom"
	}
	return "SpecularOcclusionMode(" + strconv.Itoa(int(m)) + ")"
}

// SlotID identifies a master node slot.
type SlotID int

// Eye master node slots.
const (
	SlotPosition SlotID = iota
	SlotAlbedo
	SlotSpecularOcclusion
	SlotNormal
	SlotBentNormal
	SlotSmoothness
	SlotAmbientOcclusion
	SlotRefractionMask
	SlotDiffusionProfileHash
	SlotSubsurfaceMask
	SlotThickness
	SlotTangent
	SlotAnisotropy
	SlotEmission
	SlotAlpha
	SlotAlphaClipThreshold
	SlotLighting
	SlotBackLighting
	SlotDepthOffset
	SlotIrisNormal
	numSlots
)

// Stage is the shader stage a slot feeds.
type Stage uint8

const (
	StagePixel Stage = iota
	StageVertex
)

// Slot is the declaration of a master node slot.
type Slot struct {
	ID   SlotID
	Name string
	// Components is the vector width: 1 for scalars, 3 for colors and normals.
	Components int
	Stage      Stage
	// Default is the value the slot carries when unbound. Scalars use X only.
	Default ms3.Vec
}

var eyeSlots = [numSlots]Slot{
	SlotPosition:             {Name: "Position", Components: 3, Stage: StageVertex},
	SlotAlbedo:               {Name: "Albedo", Components: 3, Default: ms3.Vec{X: 0.5, Y: 0.5, Z: 0.5}},
	SlotSpecularOcclusion:    {Name: "SpecularOcclusion", Components: 1, Default: ms3.Vec{X: 1}},
	SlotNormal:               {Name: "Normal", Components: 3, Default: ms3.Vec{Z: 1}},
	SlotBentNormal:           {Name: "BentNormal", Components: 3, Default: ms3.Vec{Z: 1}},
	SlotSmoothness:           {Name: "Smoothness", Components: 1, Default: ms3.Vec{X: 0.9}},
	SlotAmbientOcclusion:     {Name: "Occlusion", Components: 1, Default: ms3.Vec{X: 1}},
	SlotRefractionMask:       {Name: "RefractionMask", Components: 1, Default: ms3.Vec{X: 1}},
	SlotDiffusionProfileHash: {Name: "DiffusionProfileHash", Components: 1},
	SlotSubsurfaceMask:       {Name: "SubsurfaceMask", Components: 1, Default: ms3.Vec{X: 1}},
	SlotThickness:            {Name: "Thickness", Components: 1, Default: ms3.Vec{X: 1}},
	SlotTangent:              {Name: "Tangent", Components: 3, Default: ms3.Vec{X: 1}},
	SlotAnisotropy:           {Name: "Anisotropy", Components: 1},
	SlotEmission:             {Name: "Emission", Components: 3},
	SlotAlpha:                {Name: "Alpha", Components: 1, Default: ms3.Vec{X: 1}},
	SlotAlphaClipThreshold:   {Name: "AlphaClipThreshold", Components: 1, Default: ms3.Vec{X: 0.5}},
	SlotLighting:             {Name: "BakedGI", Components: 3},
	SlotBackLighting:         {Name: "BakedBackGI", Components: 3},
	SlotDepthOffset:          {Name: "DepthOffset", Components: 1},
	SlotIrisNormal:           {Name: "IrisNormal", Components: 3, Default: ms3.Vec{Z: 1}},
}

func init() {
	for i := range eyeSlots {
		eyeSlots[i].ID = SlotID(i)
	}
}

// EyeSlots returns the slot declarations of the eye master node ordered by id.
func EyeSlots() []Slot {
	return slices.Clone(eyeSlots[:])
}

// LookupSlot returns the declaration of slot id.
func LookupSlot(id SlotID) (Slot, bool) {
	if id < 0 || id >= numSlots {
		return Slot{}, false
	}
	return eyeSlots[id], true
}

func (id SlotID) String() string {
	if s, ok := LookupSlot(id); ok {
		return s.Name
	}
	return "SlotID(" + strconv.Itoa(int(id)) + ")"
}

// SlotBinding is the graph state of a slot.
type SlotBinding struct {
	Connected bool
	// Value is the literal bound to an unconnected slot.
	Value ms3.Vec
}

// Material is the state of an eye master node as seen by pass generation.
// It is built once by the caller and only read during generation.
type Material struct {
	Surface                  SurfaceType
	AlphaTest                bool
	SortPriority             int
	DoubleSided              DoubleSidedMode
	MaterialType             MaterialType
	TransparencyFog          bool
	BlendPreserveSpecular    bool
	ReceiveDecals            bool
	ReceiveSSR               bool
	EnergyConservingSpecular bool
	Transmission             bool
	SubsurfaceScattering     bool
	// DepthOffset exposes the depth offset slot on the node. The slot is never
	// reported as connected while DepthOffset is disabled.
	DepthOffset       bool
	SpecularOcclusion SpecularOcclusionMode
	// Slots holds slot bindings. Slots absent from the map are disconnected
	// and carry their declared default value.
	Slots map[SlotID]SlotBinding
}

// NewMaterial returns a material with the master node defaults: opaque,
// receiving decals and screen space reflections with energy conserving
// specular and specular occlusion from ambient occlusion.
func NewMaterial() *Material {
	return &Material{
		Surface:                  SurfaceOpaque,
		MaterialType:             MaterialEyeGames,
		TransparencyFog:          true,
		BlendPreserveSpecular:    true,
		ReceiveDecals:            true,
		ReceiveSSR:               true,
		EnergyConservingSpecular: true,
		SpecularOcclusion:        SpecularOcclusionFromAO,
		Slots:                    make(map[SlotID]SlotBinding),
	}
}

// Clone returns a deep copy of m.
func (m *Material) Clone() *Material {
	c := *m
	if m.Slots != nil {
		c.Slots = make(map[SlotID]SlotBinding, len(m.Slots))
		for id, b := range m.Slots {
			c.Slots[id] = b
		}
	}
	return &c
}

// Connect marks slot id as driven by a graph edge.
func (m *Material) Connect(id SlotID) {
	m.updateSlot(id, func(b *SlotBinding) { b.Connected = true })
}

// Disconnect removes the graph edge of slot id, keeping its bound value.
func (m *Material) Disconnect(id SlotID) {
	m.updateSlot(id, func(b *SlotBinding) { b.Connected = false })
}

// SetSlotValue binds a literal value to slot id.
func (m *Material) SetSlotValue(id SlotID, v ms3.Vec) {
	m.updateSlot(id, func(b *SlotBinding) { b.Value = v })
}

func (m *Material) updateSlot(id SlotID, fn func(b *SlotBinding)) {
	if m.Slots == nil {
		m.Slots = make(map[SlotID]SlotBinding)
	}
	b, ok := m.Slots[id]
	if !ok {
		slot, _ := LookupSlot(id)
		b.Value = slot.Default
	}
	fn(&b)
	m.Slots[id] = b
}

// IsSlotConnected reports whether slot id is driven by a graph edge.
func (m *Material) IsSlotConnected(id SlotID) bool {
	if id == SlotDepthOffset && !m.DepthOffset {
		return false
	}
	return m.Slots[id].Connected
}

// SlotValue returns the literal bound to slot id, or its declared default when unbound.
func (m *Material) SlotValue(id SlotID) ms3.Vec {
	if b, ok := m.Slots[id]; ok {
		return b.Value
	}
	slot, _ := LookupSlot(id)
	return slot.Default
}

// HasDefaultValue reports whether slot id carries its declared default value.
// Components beyond the slot width are ignored.
func (m *Material) HasDefaultValue(id SlotID) bool {
	slot, ok := LookupSlot(id)
	if !ok {
		return false
	}
	n := min(slot.Components, 3)
	v, def := m.SlotValue(id).Array(), slot.Default.Array()
	return slices.Equal(v[:n], def[:n])
}

// Validate checks every binding refers to a declared slot and holds a finite value.
// All problems found are joined in the returned error.
func (m *Material) Validate() error {
	if m == nil {
		return errorf(ErrNilMaterial, "", "nil material")
	}
	var errs []error
	ids := make([]SlotID, 0, len(m.Slots))
	for id := range m.Slots {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		slot, ok := LookupSlot(id)
		if !ok {
			errs = append(errs, errorf(ErrUnknownSlot, "", "material binds undeclared %s", id))
			continue
		}
		arr := m.Slots[id].Value.Array()
		for _, v := range arr[:min(slot.Components, 3)] {
			if math32.IsNaN(v) || math32.IsInf(v, 0) {
				errs = append(errs, errorf(ErrInvalidSlotValue, "", "slot %s bound to non-finite value %v", slot.Name, m.Slots[id].Value))
				break
			}
		}
	}
	return errors.Join(errs...)
}
