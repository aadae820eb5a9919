package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"printstudio/core"
	"printstudio/ingest"
	"printstudio/render"
	"printstudio/scene"
)

var testTemplate = core.ProductTemplate{
	ID:                 "tshirt-test",
	Name:               "Classic T-Shirt",
	CanvasWidth:        300,
	CanvasHeight:       360,
	PrintArea:          core.Rect{X: 80, Y: 70, Width: 140, Height: 180},
	MockupColorOptions: []string{"#ffffff", "#1d1d1f"},
}

func newFixture(t *testing.T) (*scene.Store, *render.Surface) {
	t.Helper()
	fonts, err := render.NewFontCatalog()
	if err != nil {
		t.Fatalf("load fonts: %v", err)
	}
	store := scene.NewStore(testTemplate)
	surface, err := render.NewSurface(store, fonts)
	if err != nil {
		t.Fatalf("create surface: %v", err)
	}
	return store, surface
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x), B: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func populate(t *testing.T, store *scene.Store) {
	t.Helper()
	store.AddObject(&core.SceneObject{
		Kind:      core.KindText,
		Transform: core.Transform{X: 150, Y: 120, Scale: 1, Rotation: 0.2},
		Opacity:   1,
		Visible:   true,
		Text: &core.TextProps{
			Content:    "Happy Birthday",
			FontFamily: "Go",
			FontSize:   18,
			Fill:       "#1d1d1f",
			Bold:       true,
			Align:      core.AlignCenter,
		},
	})
	store.AddObject(&core.SceneObject{
		Kind:      core.KindShape,
		Transform: core.Transform{X: 150, Y: 180, Scale: 1},
		Width:     60,
		Height:    60,
		Opacity:   0.8,
		Visible:   true,
		Shape: &core.ShapeProps{
			Variant: core.ShapeArrow,
			Fill:    "#4f6df5",
			Parts: []core.ShapePart{
				{Role: "shaft", Fill: "#4f6df5"},
				{Role: "head", Fill: "#4f6df5"},
			},
		},
	})
	p := ingest.NewPlacer(store)
	if _, err := p.Place(encodePNG(t, 32, 24)); err != nil {
		t.Fatalf("place image: %v", err)
	}
	store.SetMockupColor("#1d1d1f")
}

func TestSerializeLoad_RoundTrip(t *testing.T) {
	store, surface := newFixture(t)
	_ = surface
	populate(t, store)

	data, err := MarshalScene(store)
	if err != nil {
		t.Fatalf("MarshalScene() failed: %v", err)
	}

	restored := scene.NewStore(testTemplate)
	if err := Load(data, testTemplate, restored); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if restored.Len() != store.Len() {
		t.Fatalf("object count mismatch: got %d, want %d", restored.Len(), store.Len())
	}
	if restored.MockupColor() != "#1d1d1f" {
		t.Errorf("mockup color mismatch: got %s", restored.MockupColor())
	}

	orig, got := store.Objects(), restored.Objects()
	for i := range orig {
		if got[i].ID != orig[i].ID || got[i].Kind != orig[i].Kind {
			t.Errorf("object %d identity mismatch: got %s/%s", i, got[i].ID, got[i].Kind)
		}
		if got[i].Transform != orig[i].Transform {
			t.Errorf("object %d transform mismatch: got %+v, want %+v", i, got[i].Transform, orig[i].Transform)
		}
	}

	img := got[2]
	if img.Image == nil || img.Image.Source == nil {
		t.Fatal("image raster not restored from data URI")
	}
	if img.Image.NaturalWidth != 32 || img.Image.NaturalHeight != 24 {
		t.Errorf("natural dims mismatch: got %gx%g", img.Image.NaturalWidth, img.Image.NaturalHeight)
	}
}

func TestSerialize_DoesNotMutateScene(t *testing.T) {
	store, _ := newFixture(t)
	populate(t, store)

	before := store.Objects()
	transforms := make([]core.Transform, len(before))
	for i, o := range before {
		transforms[i] = o.Transform
	}

	if _, err := Serialize(store); err != nil {
		t.Fatalf("Serialize() failed: %v", err)
	}

	after := store.Objects()
	if len(after) != len(before) {
		t.Fatal("serialization changed object count")
	}
	for i, o := range after {
		if o.Transform != transforms[i] {
			t.Errorf("object %d transform changed during serialization", i)
		}
	}
}

func TestLoad_SkipsUndecodableImage(t *testing.T) {
	store, _ := newFixture(t)
	data := []byte(`{
		"version": 1,
		"templateId": "tshirt-test",
		"mockupColor": "#ffffff",
		"objects": [
			{"id": "a", "kind": "shape", "transform": {"x": 150, "y": 150, "scale": 1}, "width": 40, "height": 40, "opacity": 1, "visible": true, "shape": {"variant": "rectangle", "fill": "#ff0000"}},
			{"id": "b", "kind": "image", "transform": {"x": 150, "y": 150, "scale": 1}, "width": 40, "height": 40, "opacity": 1, "visible": true, "image": {"dataUri": "data:image/png;base64,bm90IGFuIGltYWdl", "naturalWidth": 40, "naturalHeight": 40}}
		]
	}`)
	if err := Load(data, testTemplate, store); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("object count mismatch: got %d, want 1", store.Len())
	}
	if got := store.Objects()[0]; got.Kind != core.KindShape {
		t.Errorf("surviving object mismatch: got kind %s", got.Kind)
	}
}

func TestLoad_CorruptDescriptor(t *testing.T) {
	store, _ := newFixture(t)
	if err := Load([]byte("{not json"), testTemplate, store); err == nil {
		t.Fatal("expected error for corrupt descriptor")
	}
	if store.Len() != 0 {
		t.Error("failed load mutated the scene")
	}
}

func TestPreview_Idempotent(t *testing.T) {
	store, surface := newFixture(t)
	populate(t, store)

	first, err := Preview(surface, 1)
	if err != nil {
		t.Fatalf("Preview() failed: %v", err)
	}
	second, err := Preview(surface, 1)
	if err != nil {
		t.Fatalf("second Preview() failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("repeated export of an unchanged scene differs")
	}
}

func TestPreview_GuideNeverIncluded(t *testing.T) {
	store, surface := newFixture(t)
	populate(t, store)

	surface.ShowGuide(true)
	withGuide, err := Preview(surface, 1)
	if err != nil {
		t.Fatalf("Preview() failed: %v", err)
	}
	surface.ShowGuide(false)
	withoutGuide, err := Preview(surface, 1)
	if err != nil {
		t.Fatalf("Preview() failed: %v", err)
	}
	if !bytes.Equal(withGuide, withoutGuide) {
		t.Error("guide toggle leaked into exported output")
	}
}

func TestPreview_MultiplierScalesOutput(t *testing.T) {
	_, surface := newFixture(t)

	data, err := Preview(surface, 2)
	if err != nil {
		t.Fatalf("Preview() failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("exported PNG does not decode: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 600 || b.Dy() != 720 {
		t.Errorf("output dims mismatch: got %dx%d, want 600x720", b.Dx(), b.Dy())
	}
}

func TestPreview_EmptyScene(t *testing.T) {
	_, surface := newFixture(t)
	data, err := Preview(surface, 1)
	if err != nil {
		t.Fatalf("empty-scene export failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("exported PNG does not decode: %v", err)
	}
	// Bare mockup: every pixel is the default color.
	if got := img.At(5, 5); !sameColor(got, color.RGBA{255, 255, 255, 255}) {
		t.Errorf("corner pixel mismatch: got %v", got)
	}
}

func sameColor(a, b color.Color) bool {
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	return ar == br && ag == bg && ab == bb && aa == ba
}

func TestFileName(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Classic T-Shirt", "classic-t-shirt-design.png"},
		{"  11oz Mug  ", "11oz-mug-design.png"},
		{"", "design-design.png"},
	}
	for _, tc := range cases {
		tpl := testTemplate
		tpl.Name = tc.name
		if got := FileName(tpl); got != tc.want {
			t.Errorf("FileName(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestBuildDesign(t *testing.T) {
	store, surface := newFixture(t)
	populate(t, store)

	design, err := BuildDesign(store, surface, "owner-1", "My Gift", 1)
	if err != nil {
		t.Fatalf("BuildDesign() failed: %v", err)
	}
	if design.OwnerID != "owner-1" || design.Name != "My Gift" {
		t.Errorf("record identity mismatch: %+v", design)
	}
	if design.TemplateID != testTemplate.ID || design.ColorChoice != "#1d1d1f" {
		t.Errorf("template/color mismatch: %s %s", design.TemplateID, design.ColorChoice)
	}
	if len(design.SceneData) == 0 || len(design.Preview) == 0 {
		t.Error("scene data or preview missing")
	}
	if _, err := png.Decode(bytes.NewReader(design.Preview)); err != nil {
		t.Errorf("preview is not valid PNG: %v", err)
	}
}
