package geometry

import (
	"math"
	"testing"

	"printstudio/core"
)

var printArea = core.Rect{X: 50, Y: 50, Width: 300, Height: 400}

func TestClampToPrintArea_InsideUnchanged(t *testing.T) {
	box := core.Rect{X: 100, Y: 100, Width: 80, Height: 60}
	got := ClampToPrintArea(box, printArea)
	if got != box {
		t.Errorf("box inside print area was moved: got %+v, want %+v", got, box)
	}
}

func TestClampToPrintArea_LeftOverflow(t *testing.T) {
	// A box dragged past the left edge snaps back flush against it.
	box := core.Rect{X: -20, Y: 100, Width: 80, Height: 60}
	got := ClampToPrintArea(box, printArea)
	if got.X != 50 {
		t.Errorf("X mismatch: got %g, want 50", got.X)
	}
	if got.Y != 100 {
		t.Errorf("Y should be untouched: got %g, want 100", got.Y)
	}
}

func TestClampToPrintArea_BottomRightOverflow(t *testing.T) {
	box := core.Rect{X: 340, Y: 430, Width: 80, Height: 60}
	got := ClampToPrintArea(box, printArea)
	if got.X != printArea.Right()-box.Width {
		t.Errorf("X mismatch: got %g, want %g", got.X, printArea.Right()-box.Width)
	}
	if got.Y != printArea.Bottom()-box.Height {
		t.Errorf("Y mismatch: got %g, want %g", got.Y, printArea.Bottom()-box.Height)
	}
}

func TestClampToPrintArea_OversizedCentered(t *testing.T) {
	// Wider than the print area: pinned against both edges, i.e. centered.
	box := core.Rect{X: 0, Y: 100, Width: 500, Height: 60}
	got := ClampToPrintArea(box, printArea)
	wantX := printArea.X - (box.Width-printArea.Width)/2
	if got.X != wantX {
		t.Errorf("oversized X mismatch: got %g, want %g", got.X, wantX)
	}
	if got.Width != box.Width {
		t.Error("clamping must never shrink the box")
	}
}

func TestBoundingBox_Unrotated(t *testing.T) {
	tr := core.Transform{X: 200, Y: 250, Scale: 2}
	box := BoundingBox(tr, 50, 30)
	if box.Width != 100 || box.Height != 60 {
		t.Errorf("scaled dims mismatch: got %gx%g, want 100x60", box.Width, box.Height)
	}
	if box.CenterX() != 200 || box.CenterY() != 250 {
		t.Errorf("box not centered on transform: center (%g, %g)", box.CenterX(), box.CenterY())
	}
}

func TestBoundingBox_Rotated90(t *testing.T) {
	tr := core.Transform{X: 200, Y: 250, Scale: 1, Rotation: math.Pi / 2}
	box := BoundingBox(tr, 100, 40)
	if math.Abs(box.Width-40) > 1e-9 || math.Abs(box.Height-100) > 1e-9 {
		t.Errorf("90 degree rotation should swap dims: got %gx%g", box.Width, box.Height)
	}
}

func TestBoundingBox_Rotated45(t *testing.T) {
	tr := core.Transform{X: 0, Y: 0, Scale: 1, Rotation: math.Pi / 4}
	box := BoundingBox(tr, 100, 100)
	want := 100 * math.Sqrt2
	if math.Abs(box.Width-want) > 1e-9 || math.Abs(box.Height-want) > 1e-9 {
		t.Errorf("45 degree bounds mismatch: got %gx%g, want %gx%g", box.Width, box.Height, want, want)
	}
}

func TestClampTransform_MovesCenterOnly(t *testing.T) {
	tr := core.Transform{X: 30, Y: 100, Scale: 1, Rotation: 0.3}
	got := ClampTransform(tr, 80, 60, printArea)
	if got.Scale != tr.Scale || got.Rotation != tr.Rotation {
		t.Error("clamping must not change scale or rotation")
	}
	box := BoundingBox(got, 80, 60)
	if box.X < printArea.X-1e-9 || box.Right() > printArea.Right()+1e-9 ||
		box.Y < printArea.Y-1e-9 || box.Bottom() > printArea.Bottom()+1e-9 {
		t.Errorf("clamped bounds still outside print area: %+v", box)
	}
}

func TestClampTransform_RotationGrowsFootprint(t *testing.T) {
	// An object that fits axis-aligned near the edge must move inward once
	// rotation inflates its bounding box.
	tr := core.Transform{X: printArea.X + 40, Y: 200, Scale: 1}
	if ClampTransform(tr, 80, 20, printArea) != tr {
		t.Fatal("axis-aligned object should fit unmoved")
	}
	tr.Rotation = math.Pi / 4
	got := ClampTransform(tr, 80, 20, printArea)
	if got.X <= tr.X {
		t.Errorf("rotated object should be pushed right: got X=%g, start X=%g", got.X, tr.X)
	}
}

func TestHitsObject(t *testing.T) {
	o := &core.SceneObject{
		Transform: core.Transform{X: 200, Y: 200, Scale: 1},
		Width:     100,
		Height:    50,
	}
	if !HitsObject(o, 200, 200) {
		t.Error("center point should hit")
	}
	if !HitsObject(o, 150, 175) {
		t.Error("corner point should hit")
	}
	if HitsObject(o, 140, 200) {
		t.Error("point left of bounds should miss")
	}
	if HitsObject(o, 200, 230) {
		t.Error("point below bounds should miss")
	}
}
