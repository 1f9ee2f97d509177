// Package math provides small float64 vector types for terrain geometry.
package math

import "math"

// Vec2 is a point or direction in the model's horizontal XZ plane.
type Vec2 struct {
	X, Z float64
}

// Add returns v + other.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{v.X + other.X, v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{v.X - other.X, v.Z - other.Z}
}

// Scale returns v * scalar.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{v.X * s, v.Z * s}
}

// Dot returns the dot product.
func (v Vec2) Dot(other Vec2) float64 {
	return v.X*other.X + v.Z*other.Z
}

// Length returns the magnitude.
func (v Vec2) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Distance returns the distance to another point.
func (v Vec2) Distance(other Vec2) float64 {
	return v.Sub(other).Length()
}
