// Package geometry provides basic geometric types shared by the measurement
// pipeline and its debug overlay.
package geometry

import (
	"image"
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
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

// Scale returns the point scaled by a factor.
func (p Point2D) Scale(factor float64) Point2D {
	return Point2D{X: p.X * factor, Y: p.Y * factor}
}

// ToImagePoint converts to an image.Point, truncating coordinates.
func (p Point2D) ToImagePoint() image.Point {
	return image.Pt(int(p.X), int(p.Y))
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

// FromImagePoints converts a slice of image.Point (the form OpenCV contours
// arrive in) to PointInt values.
func FromImagePoints(pts []image.Point) []PointInt {
	out := make([]PointInt, len(pts))
	for i, pt := range pts {
		out[i] = PointInt{X: pt.X, Y: pt.Y}
	}
	return out
}

// ToImagePoints converts a slice of PointInt back to image.Point values.
func ToImagePoints(pts []PointInt) []image.Point {
	out := make([]image.Point, len(pts))
	for i, pt := range pts {
		out[i] = image.Pt(pt.X, pt.Y)
	}
	return out
}

// RectInt represents a rectangle with integer coordinates.
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FromImageRect converts an image.Rectangle to a RectInt.
func FromImageRect(r image.Rectangle) RectInt {
	return RectInt{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// ToImageRect converts to an image.Rectangle.
func (r RectInt) ToImageRect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Area returns the rectangle area in pixels.
func (r RectInt) Area() int {
	return r.Width * r.Height
}

// Centroid computes the centroid (average position) of a set of points.
func Centroid(points []Point2D) Point2D {
	if len(points) == 0 {
		return Point2D{}
	}
	var sumX, sumY float64
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
	}
	n := float64(len(points))
	return Point2D{X: sumX / n, Y: sumY / n}
}
