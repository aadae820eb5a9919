// Package panel translates property-panel control changes into scene store
// mutations. The controller keeps no copy of object state: every read goes
// to the store, so the panel can never drift from the scene.
package panel

import (
	"printstudio/core"
	"printstudio/scene"
)

// Font size bounds accepted by the panel. Requests outside the range are
// clamped, not rejected.
const (
	MinFontSize = 8.0
	MaxFontSize = 200.0
)

// State is the read-only view the panel renders for a selected object. It
// is assembled fresh from the store on every call.
type State struct {
	ID      string          `json:"id"`
	Kind    core.ObjectKind `json:"kind"`
	Opacity float64         `json:"opacity"`
	Visible bool            `json:"visible"`
	Locked  bool            `json:"locked"`

	Text  *core.TextProps  `json:"text,omitempty"`
	Shape *core.ShapeProps `json:"shape,omitempty"`
}

// Controller routes panel interactions for whichever object is selected.
type Controller struct {
	store    *scene.Store
	families map[string]bool
}

// NewController creates a controller over the store. fontFamilies is the
// fixed enumeration offered by the font picker; family changes outside it
// are ignored.
func NewController(store *scene.Store, fontFamilies []string) *Controller {
	families := make(map[string]bool, len(fontFamilies))
	for _, f := range fontFamilies {
		families[f] = true
	}
	return &Controller{store: store, families: families}
}

// State returns the current panel view for an object, reading live values
// from the store.
func (c *Controller) State(id string) (*State, bool) {
	o := c.store.Get(id)
	if o == nil {
		return nil, false
	}
	st := &State{
		ID:      o.ID,
		Kind:    o.Kind,
		Opacity: o.Opacity,
		Visible: o.Visible,
		Locked:  o.Locked,
	}
	if o.Text != nil {
		t := *o.Text
		st.Text = &t
	}
	if o.Shape != nil {
		sh := *o.Shape
		sh.Parts = append([]core.ShapePart(nil), o.Shape.Parts...)
		st.Shape = &sh
	}
	return st, true
}

// SetFontFamily changes a text object's family. Families outside the fixed
// catalog, and non-text objects, are no-ops.
func (c *Controller) SetFontFamily(id, family string) {
	if !c.families[family] {
		return
	}
	c.store.UpdateStyle(id, scene.StylePatch{FontFamily: &family})
}

// SetFontSize changes a text object's size, clamped to the panel bounds.
func (c *Controller) SetFontSize(id string, size float64) {
	if size < MinFontSize {
		size = MinFontSize
	}
	if size > MaxFontSize {
		size = MaxFontSize
	}
	c.store.UpdateStyle(id, scene.StylePatch{FontSize: &size})
}

// SetFillColor recolors a text or shape object. Composite shapes recolor
// all parts atomically; image objects ignore the change.
func (c *Controller) SetFillColor(id, hex string) {
	c.store.UpdateStyle(id, scene.StylePatch{Fill: &hex})
}

// ToggleBold flips the bold flag of a text object. The three text emphasis
// toggles are independent of each other.
func (c *Controller) ToggleBold(id string) {
	if o := c.store.Get(id); o != nil && o.Text != nil {
		v := !o.Text.Bold
		c.store.UpdateStyle(id, scene.StylePatch{Bold: &v})
	}
}

// ToggleItalic flips the italic flag of a text object.
func (c *Controller) ToggleItalic(id string) {
	if o := c.store.Get(id); o != nil && o.Text != nil {
		v := !o.Text.Italic
		c.store.UpdateStyle(id, scene.StylePatch{Italic: &v})
	}
}

// ToggleUnderline flips the underline flag of a text object.
func (c *Controller) ToggleUnderline(id string) {
	if o := c.store.Get(id); o != nil && o.Text != nil {
		v := !o.Text.Underline
		c.store.UpdateStyle(id, scene.StylePatch{Underline: &v})
	}
}

// SetAlignment sets the mutually exclusive horizontal alignment of a text
// object.
func (c *Controller) SetAlignment(id string, align core.Alignment) {
	switch align {
	case core.AlignLeft, core.AlignCenter, core.AlignRight:
		c.store.UpdateStyle(id, scene.StylePatch{Align: &align})
	}
}

// SetContent replaces a text object's content.
func (c *Controller) SetContent(id, content string) {
	c.store.UpdateStyle(id, scene.StylePatch{Content: &content})
}

// SetOpacity applies the universal opacity slider, clamped to [0, 1] by
// the store.
func (c *Controller) SetOpacity(id string, opacity float64) {
	c.store.UpdateStyle(id, scene.StylePatch{Opacity: &opacity})
}

// Duplicate clones the object directly above the original and returns the
// new id.
func (c *Controller) Duplicate(id string) string {
	return c.store.Duplicate(id)
}

// Delete removes the object from the scene.
func (c *Controller) Delete(id string) {
	c.store.Remove(id)
}

// Reorder moves the object through the z-order; extremes are no-ops.
func (c *Controller) Reorder(id string, dir scene.Direction) {
	c.store.Reorder(id, dir)
}

// SetVisible toggles rendering without affecting the lock flag.
func (c *Controller) SetVisible(id string, visible bool) {
	c.store.SetVisibility(id, visible)
}

// SetLocked toggles the lock flag without affecting visibility.
func (c *Controller) SetLocked(id string, locked bool) {
	c.store.SetLocked(id, locked)
}
