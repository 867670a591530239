// Package renderq implements render queue arithmetic for the high definition
// render pipeline. Queues are integers ordering draw calls; materials pick a
// queue from their surface type, a sorting priority and alpha testing.
package renderq

import (
	"fmt"
	"strconv"
)

// Builtin queue values.
const (
	Background  = 1000
	Geometry    = 2000
	AlphaTest   = 2450
	GeometryEnd = 2500
	Transparent = 3000
	Overlay     = 4000
)

// TransparentPriorityRange is the maximum absolute sorting priority offset a
// transparent queue accepts.
const TransparentPriorityRange = 100

// Priority values assigned to each queue type.
const (
	PriorityBackground                      = Background
	PriorityOpaque                          = Geometry
	PriorityOpaqueAlphaTest                 = AlphaTest
	PriorityOpaqueLast                      = GeometryEnd
	PriorityAfterPostprocessOpaque          = GeometryEnd + 1
	PriorityAfterPostprocessOpaqueAlphaTest = GeometryEnd + 10
	PriorityPreRefraction                   = 2750
	PriorityTransparent                     = Transparent
	PriorityLowTransparent                  = 3400
	PriorityAfterPostprocessTransparent     = 3700
	PriorityOverlay                         = Overlay
)

// Type is the rendering pass a material is drawn in.
type Type uint8

const (
	TypeBackground Type = iota
	TypeOpaque
	TypeAfterPostProcessOpaque
	TypePreRefraction
	TypeTransparent
	TypeLowTransparent
	TypeAfterPostprocessTransparent
	TypeOverlay
)

func (t Type) String() string {
	switch t {
	case TypeBackground:
		return "Background"
	case TypeOpaque:
		return "Opaque"
	case TypeAfterPostProcessOpaque:
		return "AfterPostProcessOpaque"
	case TypePreRefraction:
		return "PreRefraction"
	case TypeTransparent:
		return "Transparent"
	case TypeLowTransparent:
		return "LowTransparent"
	case TypeAfterPostprocessTransparent:
		return "AfterPostprocessTransparent"
	case TypeOverlay:
		return "Overlay"
	default:
		return "Type(" + strconv.Itoa(int(t)) + ")"
	}
}

// Range is an inclusive range of queue values.
type Range struct {
	Min, Max int
}

// Contains reports whether queue lies in the range.
func (r Range) Contains(queue int) bool { return queue >= r.Min && queue <= r.Max }

var (
	RangeOpaque                      = Range{Min: PriorityBackground, Max: PriorityOpaqueLast}
	RangePreRefraction               = transparentRange(PriorityPreRefraction)
	RangeTransparent                 = transparentRange(PriorityTransparent)
	RangeLowTransparent              = transparentRange(PriorityLowTransparent)
	RangeAfterPostprocessTransparent = transparentRange(PriorityAfterPostprocessTransparent)
	// RangeAllTransparent spans pre-refraction to the last regular transparent queue.
	RangeAllTransparent = Range{Min: RangePreRefraction.Min, Max: RangeTransparent.Max}
)

func transparentRange(priority int) Range {
	return Range{Min: priority - TransparentPriorityRange, Max: priority + TransparentPriorityRange}
}

// ChangeType returns the queue of target type t offset by the sorting priority.
// Opaque types ignore the offset and select the alpha test queue when alphaTest is set.
// Transparent types ignore alphaTest. An offset outside of ±[TransparentPriorityRange]
// or an unknown type returns an error.
func ChangeType(t Type, offset int, alphaTest bool) (int, error) {
	if offset < -TransparentPriorityRange || offset > TransparentPriorityRange {
		return 0, fmt.Errorf("sorting priority %d out of bounds [%d, %d]", offset, -TransparentPriorityRange, TransparentPriorityRange)
	}
	switch t {
	case TypeBackground:
		return PriorityBackground, nil
	case TypeOpaque:
		if alphaTest {
			return PriorityOpaqueAlphaTest, nil
		}
		return PriorityOpaque, nil
	case TypeAfterPostProcessOpaque:
		if alphaTest {
			return PriorityAfterPostprocessOpaqueAlphaTest, nil
		}
		return PriorityAfterPostprocessOpaque, nil
	case TypePreRefraction:
		return PriorityPreRefraction + offset, nil
	case TypeTransparent:
		return PriorityTransparent + offset, nil
	case TypeLowTransparent:
		return PriorityLowTransparent + offset, nil
	case TypeAfterPostprocessTransparent:
		return PriorityAfterPostprocessTransparent + offset, nil
	case TypeOverlay:
		return PriorityOverlay, nil
	}
	return 0, fmt.Errorf("unknown render queue type %s", t)
}

// TagValue returns the ShaderLab "Queue" tag value of a queue, i.e: Geometry+0, Transparent-20.
func TagValue(queue int) string {
	var base int
	var name string
	switch {
	case RangeAllTransparent.Contains(queue),
		RangeLowTransparent.Contains(queue),
		RangeAfterPostprocessTransparent.Contains(queue):
		base, name = Transparent, "Transparent"
	case queue >= Overlay:
		base, name = Overlay, "Overlay"
	case queue >= AlphaTest:
		base, name = AlphaTest, "AlphaTest"
	case queue >= Geometry:
		base, name = Geometry, "Geometry"
	default:
		base, name = Background, "Background"
	}
	v := queue - base
	if v < 0 {
		return name + strconv.Itoa(v)
	}
	return name + "+" + strconv.Itoa(v)
}

// IsTransparent reports whether queue belongs to any transparent range.
func IsTransparent(queue int) bool {
	return RangeAllTransparent.Contains(queue) || RangeLowTransparent.Contains(queue) ||
		RangeAfterPostprocessTransparent.Contains(queue)
}
