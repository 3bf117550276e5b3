package geo

import "math"

type Vec3 struct {
	X, Y, Z float64
}

// Vec3 methods.
func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Length() float64      { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }
func (v Vec3) Normalize() Vec3 {
	if l := v.Length(); l != 0 {
		return v.Scale(1 / l)
	}
	return Vec3{}
}
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

// RotateY spins v about the polar axis by theta radians.
func (v Vec3) RotateY(theta float64) Vec3 {
	c, s := math.Cos(theta), math.Sin(theta)
	return Vec3{v.X*c + v.Z*s, v.Y, -v.X*s + v.Z*c}
}

func toRadians(d float64) float64 {
	return d * math.Pi / 180.0
}

// VertexPosition converts a lon/lat pair in degrees at radius r to scene
// coordinates, with y pointing to the north pole.
func VertexPosition(lon, lat, r float64) Vec3 {
	la, lo := toRadians(lat), toRadians(lon)
	return Vec3{
		X: -r * math.Cos(la) * math.Cos(lo),
		Y: r * math.Sin(la),
		Z: r * math.Cos(la) * math.Sin(lo),
	}
}
