package session

// Point is one captured mark. X and Y are source-video pixels and
// Timestamp is the video position in seconds at the moment of the click.
type Point struct {
	Section   string
	FlowLevel float64
	Run       string
	X         int
	Y         int
	Timestamp float64
}

// PointAt builds a point tagged with the state's section, flow level and run
func (s State) PointAt(x, y int, timestamp float64) Point {
	return Point{
		Section:   s.Section(),
		FlowLevel: s.FlowLevel(),
		Run:       s.RunLabel(),
		X:         x,
		Y:         y,
		Timestamp: timestamp,
	}
}

// Buffer holds the points of the run in progress in capture order.
// The zero value is an empty buffer.
type Buffer struct {
	points []Point
}

// Append adds p unless the state is paused or replaying. It reports
// whether the point was stored.
func (b *Buffer) Append(s State, p Point) bool {
	if !s.CanCapture() {
		return false
	}
	b.points = append(b.points, p)
	return true
}

// Last returns up to n of the most recent points, oldest first
func (b *Buffer) Last(n int) []Point {
	if n <= 0 {
		return nil
	}
	start := len(b.points) - n
	if start < 0 {
		start = 0
	}
	return append([]Point(nil), b.points[start:]...)
}

// Points returns a copy of every buffered point in capture order
func (b *Buffer) Points() []Point {
	return append([]Point(nil), b.points...)
}

// Len returns the number of buffered points
func (b *Buffer) Len() int {
	return len(b.points)
}

// Clear empties the buffer
func (b *Buffer) Clear() {
	b.points = nil
}
