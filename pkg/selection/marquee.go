package selection

// Point is a position in view coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle in view coordinates.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// RectFromPoints builds the normalised rectangle spanned by two corners.
func RectFromPoints(a, b Point) Rect {
	return Rect{
		Left:   min(a.X, b.X),
		Top:    min(a.Y, b.Y),
		Right:  max(a.X, b.X),
		Bottom: max(a.Y, b.Y),
	}
}

// Intersects reports whether r and o overlap. Touching edges do not count.
func (r Rect) Intersects(o Rect) bool {
	return r.Left < o.Right && r.Right > o.Left && r.Top < o.Bottom && r.Bottom > o.Top
}

// ItemBounds is the rendered rectangle of one item, reported by the view.
type ItemBounds struct {
	ID     string `json:"id"`
	Bounds Rect   `json:"bounds"`
}

// Marquee drives a Selection from a drag rectangle.
type Marquee struct {
	sel    *Selection
	start  Point
	rect   Rect
	active bool
}

// NewMarquee returns a marquee that writes into sel.
func NewMarquee(sel *Selection) *Marquee {
	return &Marquee{sel: sel}
}

// Begin starts a drag at p and clears the selection immediately.
func (m *Marquee) Begin(p Point) {
	m.start = p
	m.rect = RectFromPoints(p, p)
	m.active = true
	m.sel.Clear()
}

// Update moves the drag corner to p and recomputes the selection from the
// items whose bounds intersect the drag rectangle. Ignored when no drag is
// in progress.
func (m *Marquee) Update(p Point, items []ItemBounds) {
	if !m.active {
		return
	}
	m.rect = RectFromPoints(m.start, p)

	var hit []string
	for _, it := range items {
		if m.rect.Intersects(it.Bounds) {
			hit = append(hit, it.ID)
		}
	}
	m.sel.Set(hit)
}

// End finishes the drag. The selection is kept.
func (m *Marquee) End() {
	m.active = false
}

// Active reports whether a drag is in progress.
func (m *Marquee) Active() bool {
	return m.active
}

// Rect returns the current drag rectangle and whether a drag is in progress.
func (m *Marquee) Rect() (Rect, bool) {
	return m.rect, m.active
}
