package wire

// Point is a position in page coordinates.
type Point struct {
	// X is the horizontal coordinate in CSS pixels.
	X int `json:"x"`

	// Y is the vertical coordinate in CSS pixels.
	Y int `json:"y"`
}

// Rect is an axis-aligned rectangle in page coordinates.
//
// Width and Height are always non-negative once normalized; X and Y name the
// top-left corner regardless of the drag direction that produced the rect.
type Rect struct {
	// X is the left edge in CSS pixels.
	X int `json:"x"`

	// Y is the top edge in CSS pixels.
	Y int `json:"y"`

	// Width is the rect width in CSS pixels.
	Width int `json:"width"`

	// Height is the rect height in CSS pixels.
	Height int `json:"height"`
}

// NormalizedRect builds the rect spanning two drag endpoints. The corners may
// arrive in any order; the result always has its origin at the top-left.
func NormalizedRect(a, b Point) Rect {
	x, w := span(a.X, b.X)
	y, h := span(a.Y, b.Y)
	return Rect{X: x, Y: y, Width: w, Height: h}
}

func span(p, q int) (origin, length int) {
	if p <= q {
		return p, q - p
	}
	return q, p - q
}

// MeetsMinSize reports whether both dimensions reach the threshold. Selections
// below the threshold are treated as accidental clicks and cancelled.
func (r Rect) MeetsMinSize(min int) bool {
	return r.Width >= min && r.Height >= min
}

// Scale multiplies all coordinates by the device pixel ratio so a rect picked
// in CSS pixels can address a physical-pixel screenshot.
func (r Rect) Scale(ratio float64) Rect {
	if ratio <= 0 {
		return r
	}
	return Rect{
		X:      int(float64(r.X) * ratio),
		Y:      int(float64(r.Y) * ratio),
		Width:  int(float64(r.Width) * ratio),
		Height: int(float64(r.Height) * ratio),
	}
}

// Empty reports whether the rect has zero area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}
