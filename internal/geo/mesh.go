package geo

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// EarthRadius is the globe radius in scene units.
const EarthRadius = 637.8

const (
	// ShellFacesPerCell covers one cell cap with a triangle fan.
	ShellFacesPerCell = 4
	// GlobeFacesPerCell adds twelve wall triangles around the cap.
	GlobeFacesPerCell = 16
)

// Triangle indexes three mesh vertices.
type Triangle [3]int

// Mesh is an indexed triangle mesh. FaceColors is only set for the globe.
type Mesh struct {
	Vertices   []Vec3
	Faces      []Triangle
	FaceColors []colorful.Color
}

// Positions flattens the vertices for upload.
func (m *Mesh) Positions() []float32 {
	out := make([]float32, 0, len(m.Vertices)*3)
	for _, v := range m.Vertices {
		out = append(out, float32(v.X), float32(v.Y), float32(v.Z))
	}
	return out
}

// Indices flattens the triangles for upload.
func (m *Mesh) Indices() []int32 {
	out := make([]int32, 0, len(m.Faces)*3)
	for _, f := range m.Faces {
		out = append(out, int32(f[0]), int32(f[1]), int32(f[2]))
	}
	return out
}

// CellHeight is the terrain displacement of a cell, zero when the grid
// carries no elevation for it.
func CellHeight(r float64, c Cell) float64 {
	if !c.Atts.HasElevation {
		return 0
	}
	return r * (.00001 * c.Atts.StdElev)
}

// HexagonFaces fans a six-corner ring starting at vertex vi.
func HexagonFaces(vi int) []Triangle {
	return []Triangle{
		{0 + vi, 1 + vi, 2 + vi},
		{3 + vi, 4 + vi, 5 + vi},
		{0 + vi, 2 + vi, 3 + vi},
		{0 + vi, 3 + vi, 5 + vi},
	}
}

func wallFaces(vi int) []Triangle {
	return []Triangle{
		{0 + vi, 6 + vi, 7 + vi},
		{7 + vi, 1 + vi, 0 + vi},
		{1 + vi, 7 + vi, 8 + vi},
		{8 + vi, 2 + vi, 1 + vi},
		{2 + vi, 8 + vi, 9 + vi},
		{9 + vi, 3 + vi, 2 + vi},
		{3 + vi, 9 + vi, 10 + vi},
		{10 + vi, 4 + vi, 3 + vi},
		{4 + vi, 10 + vi, 11 + vi},
		{11 + vi, 5 + vi, 4 + vi},
		{5 + vi, 11 + vi, 6 + vi},
		{6 + vi, 0 + vi, 5 + vi},
	}
}

func ring(c Cell, r float64) []Vec3 {
	out := make([]Vec3, len(c.Vertices))
	for i, v := range c.Vertices {
		out[i] = VertexPosition(v[0], v[1], r)
	}
	return out
}

// SurfaceColor classifies a cell for the base globe.
func SurfaceColor(c Cell) colorful.Color {
	a := c.Atts
	switch {
	case a.PctLake > 5:
		return colorful.Color{R: 0, G: .4, B: .6}
	case a.PctGlacier > 5:
		return colorful.Color{R: .8, G: .8, B: .9}
	case (a.LandFrac > .5 && a.StdElev > 1) || a.LandFrac > .6:
		s := 0.0
		if c.HasPopulation {
			s = 1 - math.Min(1.0, c.Population/2000000)
		}
		return colorful.Hsl(.3*360, s, .3)
	default:
		return colorful.Color{R: .1, G: .1, B: .8}
	}
}

// IsLand reports whether SurfaceColor treats the cell as vegetated land.
func IsLand(c Cell) bool {
	a := c.Atts
	return a.PctLake <= 5 && a.PctGlacier <= 5 && ((a.LandFrac > .5 && a.StdElev > 1) || a.LandFrac > .6)
}

// BuildGlobe extrudes every cell into a prism between r-dR and r+dR.
func BuildGlobe(g *Grid, r float64) *Mesh {
	m := &Mesh{
		Vertices:   make([]Vec3, 0, g.Len()*CornersPerCell*2),
		Faces:      make([]Triangle, 0, g.Len()*GlobeFacesPerCell),
		FaceColors: make([]colorful.Color, 0, g.Len()*GlobeFacesPerCell),
	}
	vi := 0
	for _, c := range g.Cells {
		dr := CellHeight(r, c)
		m.Vertices = append(m.Vertices, ring(c, r+dr)...)
		m.Vertices = append(m.Vertices, ring(c, r-dr)...)
		faces := append(HexagonFaces(vi), wallFaces(vi)...)
		col := SurfaceColor(c)
		for _, f := range faces {
			m.Faces = append(m.Faces, f)
			m.FaceColors = append(m.FaceColors, col)
		}
		vi += CornersPerCell * 2
	}
	return m
}

// BuildShellMesh places one cap per cell at the radius chosen by radius.
// Faces of cell i start at i*ShellFacesPerCell.
func BuildShellMesh(g *Grid, radius func(Cell) float64) *Mesh {
	m := &Mesh{
		Vertices: make([]Vec3, 0, g.Len()*CornersPerCell),
		Faces:    make([]Triangle, 0, g.Len()*ShellFacesPerCell),
	}
	vi := 0
	for _, c := range g.Cells {
		m.Vertices = append(m.Vertices, ring(c, radius(c))...)
		m.Faces = append(m.Faces, HexagonFaces(vi)...)
		vi += CornersPerCell
	}
	return m
}
