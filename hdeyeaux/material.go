package hdeyeaux

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/hdeye"
	"gopkg.in/yaml.v3"
)

// MaterialFile is the YAML description of an eye master node. Omitted options
// keep the defaults of [hdeye.NewMaterial]. Enumerated options are written in
// lower camel case:
//
//	surface:           opaque, transparent
//	doubleSided:       disabled, enabled, flippedNormals, mirroredNormals
//	materialType:      eyeGames, eyeCinematics
//	specularOcclusion: off, fromAO, fromAOAndBentNormal, custom
type MaterialFile struct {
	Surface                  string     `json:"surface,omitempty" yaml:"surface,omitempty"`
	AlphaTest                *bool      `json:"alphaTest,omitempty" yaml:"alphaTest,omitempty"`
	SortPriority             int        `json:"sortPriority,omitempty" yaml:"sortPriority,omitempty"`
	DoubleSided              string     `json:"doubleSided,omitempty" yaml:"doubleSided,omitempty"`
	MaterialType             string     `json:"materialType,omitempty" yaml:"materialType,omitempty"`
	TransparencyFog          *bool      `json:"transparencyFog,omitempty" yaml:"transparencyFog,omitempty"`
	BlendPreserveSpecular    *bool      `json:"blendPreserveSpecular,omitempty" yaml:"blendPreserveSpecular,omitempty"`
	ReceiveDecals            *bool      `json:"receiveDecals,omitempty" yaml:"receiveDecals,omitempty"`
	ReceiveSSR               *bool      `json:"receiveSSR,omitempty" yaml:"receiveSSR,omitempty"`
	EnergyConservingSpecular *bool      `json:"energyConservingSpecular,omitempty" yaml:"energyConservingSpecular,omitempty"`
	Transmission             *bool      `json:"transmission,omitempty" yaml:"transmission,omitempty"`
	SubsurfaceScattering     *bool      `json:"subsurfaceScattering,omitempty" yaml:"subsurfaceScattering,omitempty"`
	DepthOffset              *bool      `json:"depthOffset,omitempty" yaml:"depthOffset,omitempty"`
	SpecularOcclusion        string     `json:"specularOcclusion,omitempty" yaml:"specularOcclusion,omitempty"`
	Slots                    []SlotFile `json:"slots,omitempty" yaml:"slots,omitempty"`
}

// SlotFile binds a master node slot by name.
type SlotFile struct {
	Name      string    `json:"name" yaml:"name"`
	Connected bool      `json:"connected,omitempty" yaml:"connected,omitempty"`
	Value     []float32 `json:"value,omitempty" yaml:"value,omitempty"`
}

// LoadMaterialFile reads a YAML material description from the named file.
func LoadMaterialFile(filename string) (*hdeye.Material, error) {
	fp, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	m, err := LoadMaterial(fp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return m, nil
}

// LoadMaterial decodes a YAML material description. Unknown keys are rejected.
func LoadMaterial(r io.Reader) (*hdeye.Material, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var mf MaterialFile
	err := dec.Decode(&mf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding material: %w", err)
	}
	return mf.Material()
}

// Material converts the description to master node state.
func (mf *MaterialFile) Material() (*hdeye.Material, error) {
	m := hdeye.NewMaterial()
	var err error
	m.Surface, err = parseEnum("surface", mf.Surface, m.Surface, map[string]hdeye.SurfaceType{
		"opaque":      hdeye.SurfaceOpaque,
		"transparent": hdeye.SurfaceTransparent,
	})
	if err != nil {
		return nil, err
	}
	m.DoubleSided, err = parseEnum("doubleSided", mf.DoubleSided, m.DoubleSided, map[string]hdeye.DoubleSidedMode{
		"disabled":        hdeye.DoubleSidedDisabled,
		"enabled":         hdeye.DoubleSidedEnabled,
		"flippednormals":  hdeye.DoubleSidedFlippedNormals,
		"mirrorednormals": hdeye.DoubleSidedMirroredNormals,
	})
	if err != nil {
		return nil, err
	}
	m.MaterialType, err = parseEnum("materialType", mf.MaterialType, m.MaterialType, map[string]hdeye.MaterialType{
		"eyegames":      hdeye.MaterialEyeGames,
		"eyecinematics": hdeye.MaterialEyeCinematics,
	})
	if err != nil {
		return nil, err
	}
	m.SpecularOcclusion, err = parseEnum("specularOcclusion", mf.SpecularOcclusion, m.SpecularOcclusion, map[string]hdeye.SpecularOcclusionMode{
		"off":                 hdeye.SpecularOcclusionOff,
		"fromao":              hdeye.SpecularOcclusionFromAO,
		"fromaoandbentnormal": hdeye.SpecularOcclusionFromAOAndBentNormal,
		"custom":              hdeye.SpecularOcclusionCustom,
	})
	if err != nil {
		return nil, err
	}
	m.SortPriority = mf.SortPriority
	setBool(&m.AlphaTest, mf.AlphaTest)
	setBool(&m.TransparencyFog, mf.TransparencyFog)
	setBool(&m.BlendPreserveSpecular, mf.BlendPreserveSpecular)
	setBool(&m.ReceiveDecals, mf.ReceiveDecals)
	setBool(&m.ReceiveSSR, mf.ReceiveSSR)
	setBool(&m.EnergyConservingSpecular, mf.EnergyConservingSpecular)
	setBool(&m.Transmission, mf.Transmission)
	setBool(&m.SubsurfaceScattering, mf.SubsurfaceScattering)
	setBool(&m.DepthOffset, mf.DepthOffset)

	for _, sf := range mf.Slots {
		slot, ok := slotByName(sf.Name)
		if !ok {
			return nil, fmt.Errorf("unknown slot %q", sf.Name)
		} else if len(sf.Value) > slot.Components {
			return nil, fmt.Errorf("slot %q takes %d components, got %d", sf.Name, slot.Components, len(sf.Value))
		}
		if len(sf.Value) > 0 {
			var arr [3]float32
			copy(arr[:], sf.Value)
			m.SetSlotValue(slot.ID, ms3.Vec{X: arr[0], Y: arr[1], Z: arr[2]})
		}
		if sf.Connected {
			m.Connect(slot.ID)
		}
	}
	return m, m.Validate()
}

func parseEnum[T any](key, value string, def T, names map[string]T) (T, error) {
	if value == "" {
		return def, nil
	}
	v, ok := names[strings.ToLower(value)]
	if !ok {
		return def, fmt.Errorf("invalid %s %q", key, value)
	}
	return v, nil
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func slotByName(name string) (hdeye.Slot, bool) {
	for _, s := range hdeye.EyeSlots() {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return hdeye.Slot{}, false
}
