// Package editor assembles the scene store, rendering surface, property
// panel, asset ingestion and export pipeline into one editing session with
// a single synchronized entry point per user interaction.
package editor

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"printstudio/core"
	"printstudio/export"
	"printstudio/ingest"
	"printstudio/panel"
	"printstudio/render"
	"printstudio/scene"
)

// Defaults for freshly added objects.
const (
	defaultFontSize   = 32.0
	defaultTextFill   = "#1d1d1f"
	defaultShapeFill  = "#4f6df5"
	defaultShapeSize  = 120.0
	defaultArrowWidth = 160.0
)

// Editor is one live editing session. Every method is serialized by the
// editor's mutex, so each interaction is an atomic state transition — the
// same model a UI event loop gives the original tool. The only
// asynchronous boundary is image decoding, which re-enters through the
// same mutex when it resolves.
type Editor struct {
	mu sync.Mutex

	store   *scene.Store
	surface *render.Surface
	panel   *panel.Controller
	placer  *ingest.Placer

	// epoch advances on template switches and teardown; a pending decode
	// started under an older epoch is discarded instead of inserting into
	// a scene that has moved on.
	epoch  int
	closed bool
}

// New creates an editor mounted on a template. A template the rendering
// surface cannot initialize against is a fatal construction error; every
// later failure mode is handled locally.
func New(t core.ProductTemplate, fonts *render.FontCatalog) (*Editor, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("initialize editor: %w", err)
	}
	store := scene.NewStore(t)
	surface, err := render.NewSurface(store, fonts)
	if err != nil {
		return nil, fmt.Errorf("initialize editor: %w", err)
	}
	return &Editor{
		store:   store,
		surface: surface,
		panel:   panel.NewController(store, fonts.Families()),
		placer:  ingest.NewPlacer(store),
	}, nil
}

// Subscribe registers a store subscriber. Callbacks run synchronously on
// the mutating call's stack and must not call back into the editor.
func (e *Editor) Subscribe(fn scene.Subscriber) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.Subscribe(fn)
}

// Template returns the active product template.
func (e *Editor) Template() core.ProductTemplate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Template()
}

// AddText places a new text object centered in the print area and selects
// it.
func (e *Editor) AddText(content string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ""
	}
	print := e.store.Template().PrintArea
	id := e.store.AddObject(&core.SceneObject{
		Kind: core.KindText,
		Transform: core.Transform{
			X:     print.CenterX(),
			Y:     print.CenterY(),
			Scale: 1,
		},
		Width:   defaultFontSize * float64(len(content)) / 2,
		Height:  defaultFontSize * 1.2,
		Opacity: 1,
		Visible: true,
		Text: &core.TextProps{
			Content:    content,
			FontFamily: render.DefaultFontFamily,
			FontSize:   defaultFontSize,
			Fill:       defaultTextFill,
			Align:      core.AlignCenter,
		},
	})
	e.surface.Select(id)
	return id
}

// AddShape places a new shape object centered in the print area and
// selects it. The arrow variant is created as a composite with shaft and
// head parts.
func (e *Editor) AddShape(variant core.ShapeVariant) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ""
	}
	print := e.store.Template().PrintArea
	w, h := defaultShapeSize, defaultShapeSize
	props := &core.ShapeProps{Variant: variant, Fill: defaultShapeFill}
	switch variant {
	case core.ShapeArrow:
		w, h = defaultArrowWidth, defaultShapeSize*0.6
		props.Parts = []core.ShapePart{
			{Role: "shaft", Fill: defaultShapeFill},
			{Role: "head", Fill: defaultShapeFill},
		}
	case core.ShapeRectangle, core.ShapeEllipse, core.ShapeTriangle, core.ShapeStar:
	default:
		props.Variant = core.ShapeRectangle
	}
	id := e.store.AddObject(&core.SceneObject{
		Kind: core.KindShape,
		Transform: core.Transform{
			X:     print.CenterX(),
			Y:     print.CenterY(),
			Scale: 1,
		},
		Width:   w,
		Height:  h,
		Opacity: 1,
		Visible: true,
		Shape:   props,
	})
	e.surface.Select(id)
	return id
}

// AddImage decodes an upload synchronously and places it. A decode failure
// leaves the scene untouched.
func (e *Editor) AddImage(data []byte) (string, error) {
	dec, err := ingest.Decode(data)
	if err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return "", fmt.Errorf("editor is closed")
	}
	id := e.placer.Insert(dec)
	e.surface.Select(id)
	return id, nil
}

// AddImageAsync decodes the upload off the interaction path; the editor
// stays interactive meanwhile. If the template switched or the editor was
// torn down before the decode resolved, the result is dropped and done
// receives an empty id.
func (e *Editor) AddImageAsync(data []byte, done func(id string, err error)) {
	e.mu.Lock()
	startEpoch := e.epoch
	e.mu.Unlock()

	go func() {
		dec, err := ingest.Decode(data)
		if err != nil {
			logrus.WithError(err).Debug("Upload rejected, scene unchanged")
			if done != nil {
				done("", err)
			}
			return
		}
		e.mu.Lock()
		if e.closed || e.epoch != startEpoch {
			e.mu.Unlock()
			if done != nil {
				done("", nil)
			}
			return
		}
		id := e.placer.Insert(dec)
		e.surface.Select(id)
		e.mu.Unlock()
		if done != nil {
			done(id, nil)
		}
	}()
}

// Pointer protocol: Down selects and starts drags, Move feeds live clamped
// transforms, Up settles the interaction.

func (e *Editor) PointerDown(x, y float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.surface.PointerDown(x, y)
}

func (e *Editor) PointerMove(x, y float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.surface.PointerMove(x, y)
}

func (e *Editor) PointerUp() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.surface.PointerUp()
}

// Selection returns the selected object id, or "".
func (e *Editor) Selection() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.surface.Selected()
}

// Select sets the selection explicitly (panel-driven selection, e.g. a
// layer list).
func (e *Editor) Select(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.surface.Select(id)
}

// ClearSelection deselects.
func (e *Editor) ClearSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.surface.ClearSelection()
}

// UpdateStyle applies a panel style patch to an object.
func (e *Editor) UpdateStyle(id string, patch scene.StylePatch) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.UpdateStyle(id, patch)
}

// UpdateTransform applies a requested transform; the effective value is
// clamped into the print area.
func (e *Editor) UpdateTransform(id string, t core.Transform) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.UpdateTransform(id, t)
}

// PanelState returns the live panel view for an object.
func (e *Editor) PanelState(id string) (*panel.State, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.panel.State(id)
}

// Panel operations routed through the controller.

func (e *Editor) SetFontFamily(id, family string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.panel.SetFontFamily(id, family)
}

func (e *Editor) SetFontSize(id string, size float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.panel.SetFontSize(id, size)
}

func (e *Editor) SetFillColor(id, hex string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.panel.SetFillColor(id, hex)
}

func (e *Editor) ToggleBold(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.panel.ToggleBold(id)
}

func (e *Editor) ToggleItalic(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.panel.ToggleItalic(id)
}

func (e *Editor) ToggleUnderline(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.panel.ToggleUnderline(id)
}

func (e *Editor) SetAlignment(id string, align core.Alignment) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.panel.SetAlignment(id, align)
}

func (e *Editor) SetContent(id, content string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.panel.SetContent(id, content)
}

func (e *Editor) SetOpacity(id string, opacity float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.panel.SetOpacity(id, opacity)
}

func (e *Editor) Duplicate(id string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.panel.Duplicate(id)
}

func (e *Editor) Delete(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.panel.Delete(id)
}

func (e *Editor) Reorder(id string, dir scene.Direction) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.panel.Reorder(id, dir)
}

func (e *Editor) SetVisible(id string, visible bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.panel.SetVisible(id, visible)
}

func (e *Editor) SetLocked(id string, locked bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.panel.SetLocked(id, locked)
}

// MockupColor returns the current cosmetic background fill.
func (e *Editor) MockupColor() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.MockupColor()
}

// SetMockupColor changes the cosmetic background fill.
func (e *Editor) SetMockupColor(hex string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.SetMockupColor(hex)
}

// ShowGuide toggles the print-area guide overlay.
func (e *Editor) ShowGuide(show bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.surface.ShowGuide(show)
}

// GuideVisible reports the guide toggle state.
func (e *Editor) GuideVisible() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.surface.GuideVisible()
}

// SetTemplate switches the product template. Any in-flight drag is settled
// first so a half-updated transform is never re-clamped; pending image
// decodes started before the switch are invalidated. Placed objects are
// preserved and re-clamped against the new print area.
func (e *Editor) SetTemplate(t core.ProductTemplate) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return fmt.Errorf("editor is closed")
	}
	if err := t.Validate(); err != nil {
		return err
	}
	e.surface.CancelDrag()
	e.epoch++
	return e.store.SetTemplate(t)
}

// SerializedScene returns the persistable scene descriptor as JSON.
func (e *Editor) SerializedScene() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return export.MarshalScene(e.store)
}

// LoadSerializedScene reconstructs a saved scene against a (possibly new)
// template, re-clamping every object. Pending decodes are invalidated.
func (e *Editor) LoadSerializedScene(data []byte, t core.ProductTemplate) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return fmt.Errorf("editor is closed")
	}
	e.surface.CancelDrag()
	e.epoch++
	return export.Load(data, t, e.store)
}

// ExportPreview rasterizes the current scene at the given multiplier. It
// is a read-only snapshot: repeated calls without intervening mutations
// produce identical output, and the guide overlay is never included.
func (e *Editor) ExportPreview(multiplier float64) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return export.Preview(e.surface, multiplier)
}

// ExportFileName is the suggested download name for the exported raster.
func (e *Editor) ExportFileName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return export.FileName(e.store.Template())
}

// BuildDesign assembles a design record (serialized scene plus preview)
// for persistence by the hosting page.
func (e *Editor) BuildDesign(ownerID, name string, previewMultiplier float64) (*core.Design, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return export.BuildDesign(e.store, e.surface, ownerID, name, previewMultiplier)
}

// Objects returns the current z-ordered object list, bottom first.
func (e *Editor) Objects() []*core.SceneObject {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Objects()
}

// Close tears the session down. Pending decodes are invalidated; further
// mutations are rejected.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.epoch++
	for _, o := range e.store.Objects() {
		o.ReleaseAssets()
	}
}
