package core

import "fmt"

// Rect is an axis-aligned rectangle in mockup canvas coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

func (r Rect) CenterX() float64 { return r.X + r.Width/2 }
func (r Rect) CenterY() float64 { return r.Y + r.Height/2 }

// Contains reports whether the point (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.Right() && y >= r.Y && y <= r.Bottom()
}

type (
	// ProductTemplate describes the product surface the editor mounts on.
	// It is supplied by the hosting storefront and is read-only to the
	// editor: CanvasWidth/CanvasHeight are the full mockup dimensions and
	// PrintArea is the sub-rectangle user content must stay inside.
	ProductTemplate struct {
		ID                 string   `json:"id"`
		Name               string   `json:"name"`
		CanvasWidth        float64  `json:"canvasWidth"`
		CanvasHeight       float64  `json:"canvasHeight"`
		PrintArea          Rect     `json:"printArea"`
		MockupColorOptions []string `json:"mockupColorOptions"`
	}
)

// Validate rejects templates the editor cannot initialize against.
func (t ProductTemplate) Validate() error {
	if t.CanvasWidth <= 0 || t.CanvasHeight <= 0 {
		return fmt.Errorf("template %q has degenerate canvas %gx%g", t.Name, t.CanvasWidth, t.CanvasHeight)
	}
	if t.PrintArea.Width <= 0 || t.PrintArea.Height <= 0 {
		return fmt.Errorf("template %q has degenerate print area", t.Name)
	}
	if t.PrintArea.X < 0 || t.PrintArea.Y < 0 ||
		t.PrintArea.Right() > t.CanvasWidth || t.PrintArea.Bottom() > t.CanvasHeight {
		return fmt.Errorf("template %q print area exceeds canvas bounds", t.Name)
	}
	return nil
}

// DefaultColor returns the first mockup color option, or white when the
// template declares none.
func (t ProductTemplate) DefaultColor() string {
	if len(t.MockupColorOptions) > 0 {
		return t.MockupColorOptions[0]
	}
	return "#ffffff"
}
