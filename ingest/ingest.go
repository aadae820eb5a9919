// Package ingest turns user-uploaded raster files into placed image
// objects. Decoding happens off the interaction path; a decode that fails
// leaves the scene untouched.
package ingest

import (
	"bytes"
	"fmt"
	"image"

	// Common raster formats accepted from uploads.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"printstudio/core"
	"printstudio/scene"
)

// DefaultFraction is the share of the print area an ingested image may
// initially occupy on its larger dimension. Images already smaller than
// that are never upscaled.
const DefaultFraction = 0.70

// Decoded is a successfully decoded upload, not yet part of any scene.
type Decoded struct {
	Source image.Image
	Data   []byte
	Format string
	Width  float64
	Height float64
}

// Decode parses an uploaded file. Non-image and corrupt payloads return an
// error and produce no scene mutation.
func Decode(data []byte) (*Decoded, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode upload: %w", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("decode upload: empty %s image", format)
	}
	return &Decoded{
		Source: img,
		Data:   data,
		Format: format,
		Width:  float64(bounds.Dx()),
		Height: float64(bounds.Dy()),
	}, nil
}

// Placer inserts decoded uploads into a scene, scaled and centered within
// the print area.
type Placer struct {
	store    *scene.Store
	fraction float64
}

// NewPlacer creates a placer using the default sizing fraction.
func NewPlacer(store *scene.Store) *Placer {
	return &Placer{store: store, fraction: DefaultFraction}
}

// Insert builds an image object from the decoded upload, downscaled so its
// larger dimension fits the configured fraction of the print area (small
// images keep their natural size), centers it in the print area, and adds
// it to the top of the scene. Returns the new object id.
func (p *Placer) Insert(dec *Decoded) string {
	print := p.store.Template().PrintArea
	scale := 1.0
	if sx := p.fraction * print.Width / dec.Width; sx < scale {
		scale = sx
	}
	if sy := p.fraction * print.Height / dec.Height; sy < scale {
		scale = sy
	}

	obj := &core.SceneObject{
		Kind: core.KindImage,
		Transform: core.Transform{
			X:     print.CenterX(),
			Y:     print.CenterY(),
			Scale: scale,
		},
		Width:   dec.Width,
		Height:  dec.Height,
		Opacity: 1,
		Visible: true,
		Image: &core.ImageProps{
			Source:        dec.Source,
			Data:          dec.Data,
			Format:        dec.Format,
			NaturalWidth:  dec.Width,
			NaturalHeight: dec.Height,
		},
	}
	return p.store.AddObject(obj)
}

// Place decodes and inserts in one step, for callers that are already off
// the interaction path.
func (p *Placer) Place(data []byte) (string, error) {
	dec, err := Decode(data)
	if err != nil {
		return "", err
	}
	return p.Insert(dec), nil
}
