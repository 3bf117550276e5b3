package viz

import (
	"math"

	"github.com/san-kum/earther/internal/geo"
)

// Camera projects points on the unit sphere to canvas dots. The viewer sits
// on the +Z axis looking at the origin.
type Camera struct {
	Tilt float64
	Zoom float64
	// Aspect corrects for Braille dots being taller than they are wide.
	Aspect float64
}

func NewCamera() *Camera {
	return &Camera{Tilt: 0.35, Zoom: 0.9, Aspect: 1}
}

// RotatePoint spins p by the globe rotation and then tilts it towards the
// viewer.
func (c *Camera) RotatePoint(p geo.Vec3, rotation float64) geo.Vec3 {
	p = p.RotateY(rotation)
	cx, sx := math.Cos(c.Tilt), math.Sin(c.Tilt)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	return p
}

// Radius is the globe radius in dots for a canvas of sw x sh dots.
func (c *Camera) Radius(sw, sh int, scale float64) float64 {
	minDim := math.Min(float64(sw)/c.aspect(), float64(sh))
	return minDim / 2 * c.Zoom * scale
}

// Project returns dot coordinates, depth, and whether p faces the viewer.
func (c *Camera) Project(p geo.Vec3, rotation float64, sw, sh int, scale float64) (int, int, float64, bool) {
	rot := c.RotatePoint(p, rotation)
	r := c.Radius(sw, sh, scale)
	sx := int(math.Round(rot.X*r*c.aspect())) + sw/2
	sy := int(math.Round(-rot.Y*r)) + sh/2
	return sx, sy, rot.Z, rot.Z > 0 && sx >= 0 && sx < sw && sy >= 0 && sy < sh
}

func (c *Camera) aspect() float64 {
	if c.Aspect <= 0 {
		return 1
	}
	return c.Aspect
}
