package reorder

// Geometry reports where items rest along the drag axis.
//
// Midpoint returns the resting midpoint of the item rendered at index, ignoring any
// visual offset applied during a drag. Midpoints must be strictly increasing with index.
type Geometry interface {
	Midpoint(index int) float64
}

// GeometryFunc adapts a plain function to Geometry.
type GeometryFunc func(index int) float64

func (f GeometryFunc) Midpoint(index int) float64 { return f(index) }

// UniformRows is the geometry of a list whose rows all have the same extent.
type UniformRows struct {
	// Origin is the position of the leading edge of row 0.
	Origin float64
	// Size is the extent of one row (including any gap) along the drag axis.
	Size float64
}

func (u UniformRows) Midpoint(index int) float64 {
	return u.Origin + u.Size*float64(index) + u.Size/2
}

// Rows is the geometry of a list with per-row extents, laid out back to back from Origin.
type Rows struct {
	Origin float64
	Sizes  []float64
}

func (r Rows) Midpoint(index int) float64 {
	pos := r.Origin
	for i := 0; i < index && i < len(r.Sizes); i++ {
		pos += r.Sizes[i]
	}
	if index < 0 || index >= len(r.Sizes) {
		return pos
	}
	return pos + r.Sizes[index]/2
}
