// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
// Convention throughout: X is the column index, Y is the row index.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPoint2D creates a new Point2D.
func NewPoint2D(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Round returns the nearest integer point.
func (p Point2D) Round() PointInt {
	return PointInt{X: int(math.Round(p.X)), Y: int(math.Round(p.Y))}
}

// PointInt represents a 2D point with integer coordinates.
type PointInt struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ToFloat converts to Point2D.
func (p PointInt) ToFloat() Point2D {
	return Point2D{X: float64(p.X), Y: float64(p.Y)}
}

// RectInt represents a rectangle with integer coordinates.
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Contains returns true if the point is inside the rectangle.
func (r RectInt) Contains(p PointInt) bool {
	return p.X >= r.X && p.X < r.X+r.Width &&
		p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Intersects returns true if this rectangle intersects with another.
func (r RectInt) Intersects(other RectInt) bool {
	return r.X < other.X+other.Width && r.X+r.Width > other.X &&
		r.Y < other.Y+other.Height && r.Y+r.Height > other.Y
}

// Size represents image dimensions in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}
