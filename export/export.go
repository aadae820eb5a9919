// Package export produces the editor's two external artifacts: the
// serialized scene descriptor used for persistence and re-editing, and the
// flattened preview raster used for checkout and production.
package export

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"strings"

	"printstudio/core"
	"printstudio/ingest"
	"printstudio/render"
	"printstudio/scene"
)

// Version tags the descriptor layout so future readers can migrate old
// records.
const Version = 1

type (
	// ImageDescriptor replaces an image object's runtime raster handle
	// with a stable data URI for serialization.
	ImageDescriptor struct {
		DataURI       string  `json:"dataUri"`
		NaturalWidth  float64 `json:"naturalWidth"`
		NaturalHeight float64 `json:"naturalHeight"`
	}

	// ObjectDescriptor is the serialized form of one scene object.
	ObjectDescriptor struct {
		ID        string           `json:"id"`
		Kind      core.ObjectKind  `json:"kind"`
		Transform core.Transform   `json:"transform"`
		Width     float64          `json:"width"`
		Height    float64          `json:"height"`
		Opacity   float64          `json:"opacity"`
		Visible   bool             `json:"visible"`
		Locked    bool             `json:"locked"`
		Text      *core.TextProps  `json:"text,omitempty"`
		Shape     *core.ShapeProps `json:"shape,omitempty"`
		Image     *ImageDescriptor `json:"image,omitempty"`
	}

	// Descriptor is the persistable scene: enough structure to fully
	// reconstruct the scene graph against a template.
	Descriptor struct {
		Version     int                `json:"version"`
		TemplateID  string             `json:"templateId"`
		MockupColor string             `json:"mockupColor"`
		Objects     []ObjectDescriptor `json:"objects"`
	}
)

// Serialize walks the store's ordered object list and emits the
// descriptor. Image objects are embedded as data URIs; serialization never
// mutates the scene.
func Serialize(store *scene.Store) (*Descriptor, error) {
	objects := store.Objects()
	d := &Descriptor{
		Version:     Version,
		TemplateID:  store.Template().ID,
		MockupColor: store.MockupColor(),
		Objects:     make([]ObjectDescriptor, 0, len(objects)),
	}
	for _, o := range objects {
		od := ObjectDescriptor{
			ID:        o.ID,
			Kind:      o.Kind,
			Transform: o.Transform,
			Width:     o.Width,
			Height:    o.Height,
			Opacity:   o.Opacity,
			Visible:   o.Visible,
			Locked:    o.Locked,
		}
		if o.Text != nil {
			t := *o.Text
			od.Text = &t
		}
		if o.Shape != nil {
			sh := *o.Shape
			sh.Parts = append([]core.ShapePart(nil), o.Shape.Parts...)
			od.Shape = &sh
		}
		if o.Image != nil {
			uri, err := imageDataURI(o.Image)
			if err != nil {
				return nil, err
			}
			od.Image = &ImageDescriptor{
				DataURI:       uri,
				NaturalWidth:  o.Image.NaturalWidth,
				NaturalHeight: o.Image.NaturalHeight,
			}
		}
		d.Objects = append(d.Objects, od)
	}
	return d, nil
}

// MarshalScene serializes the store to descriptor JSON.
func MarshalScene(store *scene.Store) ([]byte, error) {
	d, err := Serialize(store)
	if err != nil {
		return nil, err
	}
	return json.Marshal(d)
}

// Load reconstructs a previously serialized scene against the given
// template, re-clamping every object. Image payloads are decoded from
// their data URIs; an object whose raster can no longer be decoded is
// skipped rather than failing the whole load.
func Load(data []byte, t core.ProductTemplate, store *scene.Store) error {
	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("parse scene descriptor: %w", err)
	}
	objects := make([]*core.SceneObject, 0, len(d.Objects))
	for _, od := range d.Objects {
		o := &core.SceneObject{
			ID:        od.ID,
			Kind:      od.Kind,
			Transform: od.Transform,
			Width:     od.Width,
			Height:    od.Height,
			Opacity:   od.Opacity,
			Visible:   od.Visible,
			Locked:    od.Locked,
		}
		if od.Text != nil {
			txt := *od.Text
			o.Text = &txt
		}
		if od.Shape != nil {
			sh := *od.Shape
			sh.Parts = append([]core.ShapePart(nil), od.Shape.Parts...)
			o.Shape = &sh
		}
		if od.Image != nil {
			raw, err := decodeDataURI(od.Image.DataURI)
			if err != nil {
				continue
			}
			dec, err := ingest.Decode(raw)
			if err != nil {
				continue
			}
			o.Image = &core.ImageProps{
				Source:        dec.Source,
				Data:          dec.Data,
				Format:        dec.Format,
				NaturalWidth:  od.Image.NaturalWidth,
				NaturalHeight: od.Image.NaturalHeight,
			}
		}
		objects = append(objects, o)
	}
	return store.Load(t, d.MockupColor, objects)
}

// Preview rasterizes the full canvas at the given multiplier and returns
// PNG bytes. The print-area guide and selection decoration are never part
// of the output, regardless of the live guide toggle. An empty scene
// produces a valid image of the bare mockup.
func Preview(surface *render.Surface, multiplier float64) ([]byte, error) {
	frame := surface.RenderFrame(multiplier)
	defer frame.Close()
	var buf bytes.Buffer
	if err := frame.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

// FileName derives the client-side download name from the product type.
func FileName(t core.ProductTemplate) string {
	slug := strings.ToLower(strings.TrimSpace(t.Name))
	slug = strings.Join(strings.Fields(slug), "-")
	if slug == "" {
		slug = "design"
	}
	return slug + "-design.png"
}

// BuildDesign assembles a persistable design record from the current scene
// and a freshly rendered preview.
func BuildDesign(store *scene.Store, surface *render.Surface, ownerID, name string, previewMultiplier float64) (*core.Design, error) {
	sceneData, err := MarshalScene(store)
	if err != nil {
		return nil, err
	}
	preview, err := Preview(surface, previewMultiplier)
	if err != nil {
		return nil, err
	}
	return &core.Design{
		OwnerID:     ownerID,
		Name:        name,
		TemplateID:  store.Template().ID,
		ColorChoice: store.MockupColor(),
		SceneData:   sceneData,
		Preview:     preview,
	}, nil
}

func imageDataURI(img *core.ImageProps) (string, error) {
	data := img.Data
	mime := "image/" + img.Format
	if len(data) == 0 {
		if img.Source == nil {
			return "", fmt.Errorf("image object has no raster to serialize")
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img.Source); err != nil {
			return "", fmt.Errorf("encode image object: %w", err)
		}
		data = buf.Bytes()
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func decodeDataURI(uri string) ([]byte, error) {
	_, b64, ok := strings.Cut(uri, ";base64,")
	if !ok {
		return nil, fmt.Errorf("unsupported data uri")
	}
	return base64.StdEncoding.DecodeString(b64)
}
