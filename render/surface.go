// Package render owns the drawing surface. It is the only package that
// talks to the graphics context directly: it redraws the scene on every
// store mutation, draws the print-area guide and selection affordances,
// and translates pointer input into clamped transform updates.
package render

import (
	"math"
	"strings"

	"github.com/gogpu/gg"

	"printstudio/core"
	"printstudio/geometry"
	"printstudio/scene"
)

const (
	handleTolerance    = 10.0
	handleSize         = 8.0
	rotateHandleOffset = 28.0
	minScale           = 0.05
)

type dragMode int

const (
	dragNone dragMode = iota
	dragMove
	dragScale
	dragRotate
)

type dragState struct {
	id         string
	mode       dragMode
	grabDX     float64
	grabDY     float64
	startScale float64
	startDist  float64
	startRot   float64
	startAngle float64
}

// Surface renders the scene graph into a gg context and implements the
// pointer interaction contract: click selects the top-most visible unlocked
// object, empty-space click clears the selection, and drags feed live
// clamped transforms through the store.
type Surface struct {
	store   *scene.Store
	fonts   *FontCatalog
	ctx     *gg.Context
	scratch *gg.Context

	showGuide bool
	selected  string
	drag      *dragState
}

// NewSurface creates the drawing surface for the store's active template
// and subscribes to store changes. A template the surface cannot initialize
// against is a fatal construction error.
func NewSurface(store *scene.Store, fonts *FontCatalog) (*Surface, error) {
	t := store.Template()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	s := &Surface{
		store:     store,
		fonts:     fonts,
		ctx:       gg.NewContext(int(t.CanvasWidth), int(t.CanvasHeight)),
		scratch:   gg.NewContext(1, 1),
		showGuide: true,
	}
	store.SetMeasurer(s)
	store.Subscribe(s.onChange)
	s.Redraw()
	return s, nil
}

func (s *Surface) onChange(c scene.Change) {
	switch c.Op {
	case scene.OpRemove:
		if c.ID == s.selected {
			s.selected = ""
			s.drag = nil
		}
	case scene.OpLoad:
		s.selected = ""
		s.drag = nil
		s.resize()
	case scene.OpTemplate:
		s.resize()
	}
	s.Redraw()
}

// resize re-creates the drawing context when the template dimensions
// change. Placed objects survive; the store has already re-clamped them.
func (s *Surface) resize() {
	t := s.store.Template()
	if s.ctx.Width() != int(t.CanvasWidth) || s.ctx.Height() != int(t.CanvasHeight) {
		s.ctx = gg.NewContext(int(t.CanvasWidth), int(t.CanvasHeight))
	}
}

// ShowGuide toggles the dashed print-area guide. The guide is a live-frame
// decoration only; exported frames never include it.
func (s *Surface) ShowGuide(show bool) {
	if s.showGuide == show {
		return
	}
	s.showGuide = show
	s.Redraw()
}

// GuideVisible reports the guide toggle state.
func (s *Surface) GuideVisible() bool { return s.showGuide }

// Selected returns the id of the selected object, or "".
func (s *Surface) Selected() string { return s.selected }

// Select marks an object as selected. Unknown ids clear the selection.
func (s *Surface) Select(id string) {
	if id != "" && s.store.Get(id) == nil {
		id = ""
	}
	if s.selected == id {
		return
	}
	s.selected = id
	s.Redraw()
}

// ClearSelection deselects and settles any in-flight drag.
func (s *Surface) ClearSelection() {
	s.drag = nil
	s.Select("")
}

// CancelDrag settles an in-flight drag at its current clamped state without
// changing the selection. Called before template switches.
func (s *Surface) CancelDrag() { s.drag = nil }

// HitTest returns the top-most visible, unlocked object whose bounding box
// contains the point, or nil.
func (s *Surface) HitTest(x, y float64) *core.SceneObject {
	objects := s.store.Objects()
	for i := len(objects) - 1; i >= 0; i-- {
		o := objects[i]
		if !o.Visible || o.Locked {
			continue
		}
		if geometry.HitsObject(o, x, y) {
			return o
		}
	}
	return nil
}

// PointerDown starts an interaction: a resize/rotate handle grab on the
// current selection, a move drag on a newly hit object, or a deselect on
// empty space.
func (s *Surface) PointerDown(x, y float64) {
	if s.selected != "" {
		if o := s.store.Get(s.selected); o != nil && !o.Locked && o.Visible {
			if mode := s.handleAt(o, x, y); mode != dragNone {
				s.beginDrag(o, x, y, mode)
				return
			}
		}
	}
	if hit := s.HitTest(x, y); hit != nil {
		s.selected = hit.ID
		s.beginDrag(hit, x, y, dragMove)
		s.Redraw()
		return
	}
	s.ClearSelection()
}

func (s *Surface) beginDrag(o *core.SceneObject, x, y float64, mode dragMode) {
	d := &dragState{
		id:         o.ID,
		mode:       mode,
		grabDX:     x - o.Transform.X,
		grabDY:     y - o.Transform.Y,
		startScale: o.Transform.Scale,
		startRot:   o.Transform.Rotation,
		startDist:  math.Hypot(x-o.Transform.X, y-o.Transform.Y),
		startAngle: math.Atan2(y-o.Transform.Y, x-o.Transform.X),
	}
	if d.startDist == 0 {
		d.startDist = 1
	}
	s.drag = d
}

// PointerMove advances an in-flight drag. Every intermediate transform is
// clamped by the store, so the object sticks to the print-area boundary
// during the drag instead of snapping back on release.
func (s *Surface) PointerMove(x, y float64) {
	d := s.drag
	if d == nil {
		return
	}
	o := s.store.Get(d.id)
	if o == nil {
		s.drag = nil
		return
	}
	t := o.Transform
	switch d.mode {
	case dragMove:
		t.X = x - d.grabDX
		t.Y = y - d.grabDY
	case dragScale:
		dist := math.Hypot(x-t.X, y-t.Y)
		next := d.startScale * dist / d.startDist
		if next < minScale {
			next = minScale
		}
		t.Scale = next
	case dragRotate:
		angle := math.Atan2(y-t.Y, x-t.X)
		t.Rotation = d.startRot + (angle - d.startAngle)
	default:
		return
	}
	s.store.UpdateTransform(d.id, t)
}

// PointerUp finishes the interaction; the last clamped transform stands.
func (s *Surface) PointerUp() { s.drag = nil }

func (s *Surface) handleAt(o *core.SceneObject, x, y float64) dragMode {
	box := geometry.ObjectBounds(o)
	corners := [4][2]float64{
		{box.X, box.Y},
		{box.Right(), box.Y},
		{box.X, box.Bottom()},
		{box.Right(), box.Bottom()},
	}
	for _, c := range corners {
		if math.Hypot(x-c[0], y-c[1]) <= handleTolerance {
			return dragScale
		}
	}
	if math.Hypot(x-box.CenterX(), y-(box.Y-rotateHandleOffset)) <= handleTolerance+2 {
		return dragRotate
	}
	if box.Contains(x, y) {
		return dragMove
	}
	return dragNone
}

// MeasureText implements scene.TextMeasurer: the untransformed bounds of a
// text object's content at its current style.
func (s *Surface) MeasureText(o *core.SceneObject) (float64, float64) {
	t := o.Text
	if t == nil {
		return 0, 0
	}
	face := s.fonts.Face(t.FontFamily, t.Bold, t.Italic, t.FontSize)
	s.scratch.SetFont(face)
	_, lineH := s.scratch.MeasureString("Ag")
	if lineH <= 0 {
		lineH = t.FontSize * 1.2
	}
	lines := strings.Split(t.Content, "\n")
	width := 0.0
	for _, line := range lines {
		if w, _ := s.scratch.MeasureString(line); w > width {
			width = w
		}
	}
	return width, lineH * float64(len(lines))
}

// Redraw re-renders the live frame from the store. Called synchronously
// from every store notification.
func (s *Surface) Redraw() {
	s.renderInto(s.ctx, 1, true)
}

// RenderFrame renders a fresh frame of the full canvas at the given
// multiplier, excluding the guide and all selection decoration. It never
// mutates the store or the live frame, so it can be invoked repeatedly and
// concurrently with guide toggling without the guide ever leaking into the
// output.
func (s *Surface) RenderFrame(multiplier float64) *gg.Context {
	if multiplier <= 0 {
		multiplier = 1
	}
	t := s.store.Template()
	ctx := gg.NewContext(int(t.CanvasWidth*multiplier), int(t.CanvasHeight*multiplier))
	s.renderInto(ctx, multiplier, false)
	return ctx
}

func (s *Surface) renderInto(ctx *gg.Context, mult float64, decorations bool) {
	t := s.store.Template()

	ctx.Push()
	ctx.Scale(mult, mult)

	ctx.SetColor(parseHex(s.store.MockupColor(), 1))
	ctx.DrawRectangle(0, 0, t.CanvasWidth, t.CanvasHeight)
	ctx.Fill()

	for _, o := range s.store.Objects() {
		if !o.Visible || o.Opacity <= 0 {
			continue
		}
		s.drawObject(ctx, o, mult)
	}

	if decorations {
		if s.showGuide {
			s.drawGuide(ctx, t.PrintArea)
		}
		if s.selected != "" {
			if o := s.store.Get(s.selected); o != nil {
				s.drawSelection(ctx, o)
			}
		}
	}
	ctx.Pop()
}

func (s *Surface) drawGuide(ctx *gg.Context, print core.Rect) {
	ctx.SetDash(6, 4)
	ctx.SetLineWidth(1.5)
	ctx.SetColor(parseHex("#7a7a7a", 0.9))
	ctx.DrawRectangle(print.X, print.Y, print.Width, print.Height)
	ctx.Stroke()
	ctx.ClearDash()
}

func (s *Surface) drawSelection(ctx *gg.Context, o *core.SceneObject) {
	box := geometry.ObjectBounds(o)
	ctx.SetDash(4, 3)
	ctx.SetLineWidth(1)
	ctx.SetColor(parseHex("#2f6bff", 1))
	ctx.DrawRectangle(box.X, box.Y, box.Width, box.Height)
	ctx.Stroke()
	ctx.ClearDash()

	corners := [4][2]float64{
		{box.X, box.Y},
		{box.Right(), box.Y},
		{box.X, box.Bottom()},
		{box.Right(), box.Bottom()},
	}
	for _, c := range corners {
		ctx.DrawRectangle(c[0]-handleSize/2, c[1]-handleSize/2, handleSize, handleSize)
		ctx.Fill()
	}
	ctx.DrawCircle(box.CenterX(), box.Y-rotateHandleOffset, handleSize/2+1)
	ctx.Fill()
}

func (s *Surface) drawObject(ctx *gg.Context, o *core.SceneObject, mult float64) {
	switch o.Kind {
	case core.KindText:
		s.drawText(ctx, o, mult)
	case core.KindImage:
		s.drawImage(ctx, o)
	case core.KindShape:
		s.drawShape(ctx, o)
	}
}

func (s *Surface) drawShape(ctx *gg.Context, o *core.SceneObject) {
	t := o.Transform
	w := o.Width * t.Scale
	h := o.Height * t.Scale
	left := t.X - w/2
	top := t.Y - h/2

	ctx.Push()
	ctx.RotateAbout(t.Rotation, t.X, t.Y)
	fill := parseHex(o.Shape.Fill, o.Opacity)

	switch o.Shape.Variant {
	case core.ShapeRectangle:
		ctx.SetColor(fill)
		ctx.DrawRectangle(left, top, w, h)
		ctx.Fill()
	case core.ShapeEllipse:
		ctx.SetColor(fill)
		ctx.DrawEllipse(t.X, t.Y, w/2, h/2)
		ctx.Fill()
	case core.ShapeTriangle:
		ctx.SetColor(fill)
		ctx.MoveTo(t.X, top)
		ctx.LineTo(left+w, top+h)
		ctx.LineTo(left, top+h)
		ctx.ClosePath()
		ctx.Fill()
	case core.ShapeStar:
		ctx.SetColor(fill)
		s.starPath(ctx, t.X, t.Y, w/2, h/2)
		ctx.Fill()
	case core.ShapeArrow:
		// Composite: the shaft and head are separate parts sharing an
		// atomically updated fill.
		shaft := parseHex(partFill(o.Shape, "shaft"), o.Opacity)
		head := parseHex(partFill(o.Shape, "head"), o.Opacity)
		shaftH := h / 3
		headW := w * 0.35
		ctx.SetColor(shaft)
		ctx.DrawRectangle(left, t.Y-shaftH/2, w-headW, shaftH)
		ctx.Fill()
		ctx.SetColor(head)
		ctx.MoveTo(left+w-headW, top)
		ctx.LineTo(left+w, t.Y)
		ctx.LineTo(left+w-headW, top+h)
		ctx.ClosePath()
		ctx.Fill()
	}
	ctx.Pop()
}

func partFill(shape *core.ShapeProps, role string) string {
	for _, p := range shape.Parts {
		if p.Role == role {
			return p.Fill
		}
	}
	return shape.Fill
}

func (s *Surface) starPath(ctx *gg.Context, cx, cy, rx, ry float64) {
	const points = 5
	const innerRatio = 0.42
	for i := 0; i < points*2; i++ {
		angle := float64(i)*math.Pi/points - math.Pi/2
		fx, fy := rx, ry
		if i%2 == 1 {
			fx, fy = rx*innerRatio, ry*innerRatio
		}
		x := cx + fx*math.Cos(angle)
		y := cy + fy*math.Sin(angle)
		if i == 0 {
			ctx.MoveTo(x, y)
		} else {
			ctx.LineTo(x, y)
		}
	}
	ctx.ClosePath()
}

func (s *Surface) drawImage(ctx *gg.Context, o *core.SceneObject) {
	if o.Image == nil || o.Image.Source == nil {
		return
	}
	t := o.Transform
	w := o.Width * t.Scale
	h := o.Height * t.Scale

	ctx.Push()
	ctx.RotateAbout(t.Rotation, t.X, t.Y)
	buf := gg.ImageBufFromImage(o.Image.Source)
	ctx.DrawImageEx(buf, gg.DrawImageOptions{
		X:         t.X - w/2,
		Y:         t.Y - h/2,
		DstWidth:  w,
		DstHeight: h,
		Opacity:   o.Opacity,
	})
	ctx.Pop()
}

// drawText rasterizes the text block off-screen at the effective pixel
// ratio, then places it under the object transform so rotation and export
// multipliers keep glyphs crisp.
func (s *Surface) drawText(ctx *gg.Context, o *core.SceneObject, mult float64) {
	props := o.Text
	if props == nil || props.Content == "" || o.Width <= 0 || o.Height <= 0 {
		return
	}
	t := o.Transform
	ratio := t.Scale * mult
	pw := int(math.Ceil(o.Width * ratio))
	ph := int(math.Ceil(o.Height * ratio))
	if pw <= 0 || ph <= 0 {
		return
	}

	tmp := gg.NewContext(pw, ph)
	face := s.fonts.Face(props.FontFamily, props.Bold, props.Italic, props.FontSize*ratio)
	tmp.SetFont(face)
	tmp.SetColor(parseHex(props.Fill, 1))

	_, lineH := tmp.MeasureString("Ag")
	if lineH <= 0 {
		lineH = props.FontSize * ratio * 1.2
	}
	lines := strings.Split(props.Content, "\n")
	for i, line := range lines {
		lw, _ := tmp.MeasureString(line)
		x0 := 0.0
		switch props.Align {
		case core.AlignCenter:
			x0 = (float64(pw) - lw) / 2
		case core.AlignRight:
			x0 = float64(pw) - lw
		}
		yTop := float64(i) * lineH
		tmp.DrawStringAnchored(line, x0, yTop+lineH/2, 0, 0.5)
		if props.Underline && lw > 0 {
			thickness := math.Max(1, props.FontSize*ratio/14)
			tmp.DrawRectangle(x0, yTop+lineH*0.85, lw, thickness)
			tmp.Fill()
		}
	}

	w := o.Width * t.Scale
	h := o.Height * t.Scale
	ctx.Push()
	ctx.RotateAbout(t.Rotation, t.X, t.Y)
	ctx.DrawImageEx(gg.ImageBufFromImage(tmp.Image()), gg.DrawImageOptions{
		X:         t.X - w/2,
		Y:         t.Y - h/2,
		DstWidth:  w,
		DstHeight: h,
		Opacity:   o.Opacity,
	})
	ctx.Pop()
}
