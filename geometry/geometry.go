// Package geometry implements the constraint engine of the editor: pure
// functions that keep scene objects inside a template's print area and
// compute the rotation-aware bounding boxes used for clamping, hit-testing
// and export framing.
package geometry

import (
	"math"

	"printstudio/core"
)

// clampAxis returns the corrected position of a span [pos, pos+size] so it
// lies within [areaPos, areaPos+areaSize]. A span larger than the area is
// pinned against both edges, which centers it on that axis; the engine never
// shrinks an object to fit.
func clampAxis(pos, size, areaPos, areaSize float64) float64 {
	if size >= areaSize {
		return areaPos - (size-areaSize)/2
	}
	if pos < areaPos {
		return areaPos
	}
	if pos+size > areaPos+areaSize {
		return areaPos + areaSize - size
	}
	return pos
}

// ClampToPrintArea shifts box the minimal distance so it lies fully inside
// print. Each axis is corrected independently.
func ClampToPrintArea(box, print core.Rect) core.Rect {
	box.X = clampAxis(box.X, box.Width, print.X, print.Width)
	box.Y = clampAxis(box.Y, box.Height, print.Y, print.Height)
	return box
}

// BoundingBox returns the axis-aligned bounds of a w-by-h object under t:
// scaled uniformly, rotated about its center, centered at (t.X, t.Y).
func BoundingBox(t core.Transform, w, h float64) core.Rect {
	sw := w * t.Scale
	sh := h * t.Scale
	sin := math.Abs(math.Sin(t.Rotation))
	cos := math.Abs(math.Cos(t.Rotation))
	bw := sw*cos + sh*sin
	bh := sw*sin + sh*cos
	return core.Rect{X: t.X - bw/2, Y: t.Y - bh/2, Width: bw, Height: bh}
}

// ClampTransform corrects t so the object's bounding box stays inside print.
// Only the position changes; scale and rotation are the user's decision.
func ClampTransform(t core.Transform, w, h float64, print core.Rect) core.Transform {
	box := BoundingBox(t, w, h)
	clamped := ClampToPrintArea(box, print)
	t.X += clamped.X - box.X
	t.Y += clamped.Y - box.Y
	return t
}

// ObjectBounds is BoundingBox applied to a scene object's base dimensions.
func ObjectBounds(o *core.SceneObject) core.Rect {
	return BoundingBox(o.Transform, o.Width, o.Height)
}

// HitsObject reports whether the point (x, y) falls inside the object's
// bounding box.
func HitsObject(o *core.SceneObject, x, y float64) bool {
	return ObjectBounds(o).Contains(x, y)
}
