package core

import "image"

// ObjectKind discriminates the scene object variants. Rendering and the
// property panel switch exhaustively on it instead of probing fields.
type ObjectKind string

const (
	KindText  ObjectKind = "text"
	KindImage ObjectKind = "image"
	KindShape ObjectKind = "shape"
)

// ShapeVariant enumerates the placeable shape primitives. The arrow is a
// composite of parts that are restyled together.
type ShapeVariant string

const (
	ShapeRectangle ShapeVariant = "rectangle"
	ShapeEllipse   ShapeVariant = "ellipse"
	ShapeTriangle  ShapeVariant = "triangle"
	ShapeStar      ShapeVariant = "star"
	ShapeArrow     ShapeVariant = "arrow"
)

// Alignment is the horizontal text alignment of a text object.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// Transform places an object on the mockup canvas. X and Y are the object's
// center, Scale is uniform, Rotation is in radians about the center.
type Transform struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Scale    float64 `json:"scale"`
	Rotation float64 `json:"rotation"`
}

type (
	// TextProps holds the text-only styling of a text object.
	TextProps struct {
		Content    string    `json:"content"`
		FontFamily string    `json:"fontFamily"`
		FontSize   float64   `json:"fontSize"`
		Fill       string    `json:"fill"`
		Bold       bool      `json:"bold"`
		Italic     bool      `json:"italic"`
		Underline  bool      `json:"underline"`
		Align      Alignment `json:"align"`
	}

	// ImageProps owns the decoded raster of an image object. Source and
	// Data are released when the object is removed from the scene; Data
	// keeps the originally uploaded encoding so serialization round-trips
	// without re-encoding.
	ImageProps struct {
		Source        image.Image `json:"-"`
		Data          []byte      `json:"-"`
		Format        string      `json:"format"`
		NaturalWidth  float64     `json:"naturalWidth"`
		NaturalHeight float64     `json:"naturalHeight"`
	}

	// ShapePart is one primitive of a composite shape. Recoloring a
	// composite updates every part in the same mutation.
	ShapePart struct {
		Role string `json:"role"`
		Fill string `json:"fill"`
	}

	// ShapeProps holds the styling of a shape object.
	ShapeProps struct {
		Variant ShapeVariant `json:"variant"`
		Fill    string       `json:"fill"`
		Parts   []ShapePart  `json:"parts,omitempty"`
	}
)

// SceneObject is the common envelope of every placeable object. Exactly one
// of Text, Image, Shape is non-nil, matching Kind. Width and Height are the
// untransformed base dimensions the geometry engine scales and rotates.
type SceneObject struct {
	ID        string     `json:"id"`
	Kind      ObjectKind `json:"kind"`
	Transform Transform  `json:"transform"`
	Width     float64    `json:"width"`
	Height    float64    `json:"height"`
	Opacity   float64    `json:"opacity"`
	Visible   bool       `json:"visible"`
	Locked    bool       `json:"locked"`

	Text  *TextProps  `json:"text,omitempty"`
	Image *ImageProps `json:"image,omitempty"`
	Shape *ShapeProps `json:"shape,omitempty"`
}

// Clone returns a deep copy of the object's styling and transform. The
// decoded raster of an image object is shared, not copied; clones carry
// their own reference and release it independently.
func (o *SceneObject) Clone() *SceneObject {
	dup := *o
	if o.Text != nil {
		t := *o.Text
		dup.Text = &t
	}
	if o.Image != nil {
		img := *o.Image
		dup.Image = &img
	}
	if o.Shape != nil {
		s := *o.Shape
		s.Parts = append([]ShapePart(nil), o.Shape.Parts...)
		dup.Shape = &s
	}
	return &dup
}

// ReleaseAssets drops any owned raster data so it can be collected once the
// object leaves the scene.
func (o *SceneObject) ReleaseAssets() {
	if o.Image != nil {
		o.Image.Source = nil
		o.Image.Data = nil
	}
}
