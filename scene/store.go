// Package scene holds the authoritative, ordered collection of placeable
// objects. Every mutation goes through the Store, is clamped against the
// active template's print area, and notifies subscribers synchronously
// before returning, so the store and the rendered frame never disagree.
package scene

import (
	"github.com/oklog/ulid/v2"

	"printstudio/core"
	"printstudio/geometry"
)

// Direction selects how Reorder moves an object through the z-order.
type Direction string

const (
	Forward  Direction = "forward"
	Backward Direction = "backward"
	ToFront  Direction = "toFront"
	ToBack   Direction = "toBack"
)

// Op labels a change notification.
type Op string

const (
	OpAdd       Op = "add"
	OpRemove    Op = "remove"
	OpTransform Op = "transform"
	OpStyle     Op = "style"
	OpReorder   Op = "reorder"
	OpFlags     Op = "flags"
	OpTemplate  Op = "template"
	OpColor     Op = "color"
	OpLoad      Op = "load"
)

// Change describes a single store mutation. ID is empty for scene-wide
// changes (template switch, color, load).
type Change struct {
	Op Op
	ID string
}

// Subscriber receives change notifications synchronously, on the mutating
// call's own stack.
type Subscriber func(Change)

// TextMeasurer computes the untransformed base dimensions of a text object
// from its content and text style. The rendering surface provides the real
// implementation; tests substitute fixed metrics.
type TextMeasurer interface {
	MeasureText(o *core.SceneObject) (w, h float64)
}

// StylePatch is a shallow style merge. Nil fields are left untouched;
// fields that do not apply to the target object's variant are ignored
// rather than rejected.
type StylePatch struct {
	Content    *string         `json:"content,omitempty"`
	FontFamily *string         `json:"fontFamily,omitempty"`
	FontSize   *float64        `json:"fontSize,omitempty"`
	Fill       *string         `json:"fill,omitempty"`
	Bold       *bool           `json:"bold,omitempty"`
	Italic     *bool           `json:"italic,omitempty"`
	Underline  *bool           `json:"underline,omitempty"`
	Align      *core.Alignment `json:"align,omitempty"`
	Opacity    *float64        `json:"opacity,omitempty"`
}

// Store is the scene graph: the active template, the mockup color, and the
// z-ordered object list (first is bottom-most). It is not internally
// synchronized; the editor serializes access, matching the single-threaded
// interaction model.
type Store struct {
	template    core.ProductTemplate
	mockupColor string
	objects     []*core.SceneObject
	subs        []Subscriber
	measurer    TextMeasurer
}

// NewStore creates an empty scene against a template. The template is
// assumed validated by the editor.
func NewStore(t core.ProductTemplate) *Store {
	return &Store{
		template:    t,
		mockupColor: t.DefaultColor(),
	}
}

// SetMeasurer installs the text measurer. Existing text objects are
// re-measured and re-clamped against the new metrics.
func (s *Store) SetMeasurer(m TextMeasurer) {
	s.measurer = m
	for _, o := range s.objects {
		s.refreshTextBounds(o)
	}
}

// Subscribe registers fn for all subsequent change notifications.
func (s *Store) Subscribe(fn Subscriber) {
	s.subs = append(s.subs, fn)
}

func (s *Store) notify(c Change) {
	for _, fn := range s.subs {
		fn(c)
	}
}

// Template returns the active product template.
func (s *Store) Template() core.ProductTemplate { return s.template }

// MockupColor returns the current cosmetic background color.
func (s *Store) MockupColor() string { return s.mockupColor }

// SetMockupColor updates the background fill shown behind the print area.
func (s *Store) SetMockupColor(hex string) {
	if hex == "" || hex == s.mockupColor {
		return
	}
	s.mockupColor = hex
	s.notify(Change{Op: OpColor})
}

// SetTemplate switches the scene to a new template, preserving placed
// objects and re-clamping each one against the new print area. Objects that
// still fit keep their position; objects that no longer fit move.
func (s *Store) SetTemplate(t core.ProductTemplate) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.template = t
	for _, o := range s.objects {
		o.Transform = geometry.ClampTransform(o.Transform, o.Width, o.Height, t.PrintArea)
	}
	s.notify(Change{Op: OpTemplate})
	return nil
}

// Objects returns the z-ordered object list, bottom first. The slice is a
// copy; the elements are the live objects.
func (s *Store) Objects() []*core.SceneObject {
	return append([]*core.SceneObject(nil), s.objects...)
}

// Len returns the number of objects in the scene.
func (s *Store) Len() int { return len(s.objects) }

// Get returns the object with the given id, or nil.
func (s *Store) Get(id string) *core.SceneObject {
	if i := s.indexOf(id); i >= 0 {
		return s.objects[i]
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	for i, o := range s.objects {
		if o.ID == id {
			return i
		}
	}
	return -1
}

// AddObject inserts the object at the top of the z-order and returns its
// id. A missing id is assigned a fresh ULID; ids are never reused within a
// session. The initial placement is clamped into the print area, which
// always succeeds for a non-degenerate template.
func (s *Store) AddObject(o *core.SceneObject) string {
	if o.ID == "" {
		o.ID = ulid.Make().String()
	}
	if o.Transform.Scale == 0 {
		o.Transform.Scale = 1
	}
	if o.Kind == core.KindText {
		s.refreshTextBounds(o)
	}
	o.Transform = geometry.ClampTransform(o.Transform, o.Width, o.Height, s.template.PrintArea)
	s.objects = append(s.objects, o)
	s.notify(Change{Op: OpAdd, ID: o.ID})
	return o.ID
}

// Remove deletes the object and releases any raster data it owns. Removing
// an absent id is a no-op.
func (s *Store) Remove(id string) {
	i := s.indexOf(id)
	if i < 0 {
		return
	}
	o := s.objects[i]
	s.objects = append(s.objects[:i], s.objects[i+1:]...)
	o.ReleaseAssets()
	s.notify(Change{Op: OpRemove, ID: id})
}

// UpdateTransform applies a requested transform after passing it through
// the constraint engine; the effective transform may differ from the
// request. Applied on every step of a drag, not only on release.
func (s *Store) UpdateTransform(id string, t core.Transform) {
	o := s.Get(id)
	if o == nil {
		return
	}
	if t.Scale <= 0 {
		t.Scale = o.Transform.Scale
	}
	o.Transform = geometry.ClampTransform(t, o.Width, o.Height, s.template.PrintArea)
	s.notify(Change{Op: OpTransform, ID: id})
}

// UpdateStyle shallow-merges the patch into the object's styling. Fields
// that do not apply to the object's variant are ignored. Recoloring a
// composite shape updates every part in the same mutation. Text changes
// that alter the object's metrics re-clamp it against the print area.
func (s *Store) UpdateStyle(id string, patch StylePatch) {
	o := s.Get(id)
	if o == nil {
		return
	}
	changed := false
	remeasure := false

	if patch.Opacity != nil {
		v := *patch.Opacity
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		if o.Opacity != v {
			o.Opacity = v
			changed = true
		}
	}

	switch o.Kind {
	case core.KindText:
		t := o.Text
		if patch.Content != nil && *patch.Content != t.Content {
			t.Content = *patch.Content
			changed, remeasure = true, true
		}
		if patch.FontFamily != nil && *patch.FontFamily != t.FontFamily {
			t.FontFamily = *patch.FontFamily
			changed, remeasure = true, true
		}
		if patch.FontSize != nil && *patch.FontSize != t.FontSize {
			t.FontSize = *patch.FontSize
			changed, remeasure = true, true
		}
		if patch.Fill != nil && *patch.Fill != t.Fill {
			t.Fill = *patch.Fill
			changed = true
		}
		if patch.Bold != nil && *patch.Bold != t.Bold {
			t.Bold = *patch.Bold
			changed, remeasure = true, true
		}
		if patch.Italic != nil && *patch.Italic != t.Italic {
			t.Italic = *patch.Italic
			changed, remeasure = true, true
		}
		if patch.Underline != nil && *patch.Underline != t.Underline {
			t.Underline = *patch.Underline
			changed = true
		}
		if patch.Align != nil && *patch.Align != t.Align {
			t.Align = *patch.Align
			changed = true
		}
	case core.KindShape:
		if patch.Fill != nil && *patch.Fill != o.Shape.Fill {
			o.Shape.Fill = *patch.Fill
			for i := range o.Shape.Parts {
				o.Shape.Parts[i].Fill = *patch.Fill
			}
			changed = true
		}
	case core.KindImage:
		// Opacity only; handled above.
	}

	if remeasure {
		s.refreshTextBounds(o)
		o.Transform = geometry.ClampTransform(o.Transform, o.Width, o.Height, s.template.PrintArea)
	}
	if changed {
		s.notify(Change{Op: OpStyle, ID: id})
	}
}

// Reorder moves the object one step or to the extreme of the z-order.
// Calls at an already-extreme position are no-ops.
func (s *Store) Reorder(id string, dir Direction) {
	i := s.indexOf(id)
	if i < 0 {
		return
	}
	last := len(s.objects) - 1
	o := s.objects[i]
	switch dir {
	case Forward:
		if i == last {
			return
		}
		s.objects[i], s.objects[i+1] = s.objects[i+1], s.objects[i]
	case Backward:
		if i == 0 {
			return
		}
		s.objects[i], s.objects[i-1] = s.objects[i-1], s.objects[i]
	case ToFront:
		if i == last {
			return
		}
		s.objects = append(append(s.objects[:i], s.objects[i+1:]...), o)
	case ToBack:
		if i == 0 {
			return
		}
		s.objects = append([]*core.SceneObject{o}, append(s.objects[:i], s.objects[i+1:]...)...)
	default:
		return
	}
	s.notify(Change{Op: OpReorder, ID: id})
}

// SetVisibility toggles rendering of the object. Visibility and locking are
// independent flags.
func (s *Store) SetVisibility(id string, visible bool) {
	o := s.Get(id)
	if o == nil || o.Visible == visible {
		return
	}
	o.Visible = visible
	s.notify(Change{Op: OpFlags, ID: id})
}

// SetLocked toggles the lock flag. Locked objects are skipped by
// hit-testing and dragging but still render and export.
func (s *Store) SetLocked(id string, locked bool) {
	o := s.Get(id)
	if o == nil || o.Locked == locked {
		return
	}
	o.Locked = locked
	s.notify(Change{Op: OpFlags, ID: id})
}

// DuplicateOffset is the positional nudge applied to duplicated objects so
// the copy is visibly distinct from the original.
const DuplicateOffset = 12.0

// Duplicate clones the object with a small positional offset, assigns a
// fresh id, and inserts the copy directly above the original in the
// z-order. Returns the new id, or "" if the source is absent.
func (s *Store) Duplicate(id string) string {
	i := s.indexOf(id)
	if i < 0 {
		return ""
	}
	dup := s.objects[i].Clone()
	dup.ID = ulid.Make().String()
	dup.Transform.X += DuplicateOffset
	dup.Transform.Y += DuplicateOffset
	dup.Transform = geometry.ClampTransform(dup.Transform, dup.Width, dup.Height, s.template.PrintArea)
	s.objects = append(s.objects[:i+1], append([]*core.SceneObject{dup}, s.objects[i+1:]...)...)
	s.notify(Change{Op: OpAdd, ID: dup.ID})
	return dup.ID
}

// Load replaces the scene contents wholesale: template, mockup color, and
// objects, re-clamping every object against the template's print area.
// Used when restoring a saved design.
func (s *Store) Load(t core.ProductTemplate, mockupColor string, objects []*core.SceneObject) error {
	if err := t.Validate(); err != nil {
		return err
	}
	for _, o := range s.objects {
		o.ReleaseAssets()
	}
	s.template = t
	if mockupColor != "" {
		s.mockupColor = mockupColor
	} else {
		s.mockupColor = t.DefaultColor()
	}
	s.objects = s.objects[:0]
	for _, o := range objects {
		if o.ID == "" {
			o.ID = ulid.Make().String()
		}
		if o.Transform.Scale == 0 {
			o.Transform.Scale = 1
		}
		if o.Kind == core.KindText {
			s.refreshTextBounds(o)
		}
		o.Transform = geometry.ClampTransform(o.Transform, o.Width, o.Height, t.PrintArea)
		s.objects = append(s.objects, o)
	}
	s.notify(Change{Op: OpLoad})
	return nil
}

func (s *Store) refreshTextBounds(o *core.SceneObject) {
	if o.Kind != core.KindText || s.measurer == nil {
		return
	}
	w, h := s.measurer.MeasureText(o)
	if w > 0 && h > 0 {
		o.Width, o.Height = w, h
	}
}
