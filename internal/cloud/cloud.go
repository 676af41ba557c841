package cloud

// Point is a single return in Cartesian sensor or world coordinates.
type Point struct {
	X, Y, Z   float64 // Position (meters)
	Intensity uint8   // Laser return intensity
}

// Cloud is a dense point container for one processing batch. Points are
// addressed by index 0..Len()-1. Positions are immutable after Append;
// only the classification attribute may be rewritten.
type Cloud struct {
	points  []Point
	classes []uint8
}

// New creates an empty cloud with capacity for n points.
func New(n int) *Cloud {
	return &Cloud{
		points:  make([]Point, 0, n),
		classes: make([]uint8, 0, n),
	}
}

// FromPoints creates a cloud from a point slice. All points start with
// classification ClassCreated.
func FromPoints(points []Point) *Cloud {
	c := New(len(points))
	for _, p := range points {
		c.Append(p)
	}
	return c
}

// Append adds a point with classification ClassCreated and returns its index.
func (c *Cloud) Append(p Point) int {
	c.points = append(c.points, p)
	c.classes = append(c.classes, ClassCreated)
	return len(c.points) - 1
}

// Len returns the number of points in the cloud.
func (c *Cloud) Len() int { return len(c.points) }

// At returns the point at index i.
func (c *Cloud) At(i int) Point { return c.points[i] }

// Classification returns the classification code of point i.
func (c *Cloud) Classification(i int) uint8 { return c.classes[i] }

// SetClassification rewrites the classification code of point i.
func (c *Cloud) SetClassification(i int, code uint8) { c.classes[i] = code }

// Classifications returns a copy of all classification codes, indexed by
// point. Useful for before/after comparisons in tests and tooling.
func (c *Cloud) Classifications() []uint8 {
	out := make([]uint8, len(c.classes))
	copy(out, c.classes)
	return out
}
