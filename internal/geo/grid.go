package geo

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

// CornersPerCell is the vertex count of every cell ring. Pentagons repeat
// their last corner.
const CornersPerCell = 6

// Attributes are the per-cell surface fields of the grid file. Missing
// fields default to zero.
type Attributes struct {
	StdElev      float64
	HasElevation bool
	LandFrac     float64
	PctLake      float64
	PctGlacier   float64
	PctUrban     float64
}

// Cell is one geodesic grid cell.
type Cell struct {
	GridIndex     int
	Vertices      [][2]float64 // lon, lat in degrees
	Atts          Attributes
	Population    float64
	HasPopulation bool
	LocationName  string
}

// Center returns the unit vector through the mean of the cell corners.
func (c Cell) Center() Vec3 {
	var sum Vec3
	for _, v := range c.Vertices {
		sum = sum.Add(VertexPosition(v[0], v[1], 1))
	}
	return sum.Normalize()
}

// Grid is a geodesic grid ordered by gridIndex.
type Grid struct {
	Cells []Cell
}

func (g *Grid) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Cells)
}

type rawCell struct {
	GridIndex    int                `json:"grid_index"`
	Vertices     [][]float64        `json:"vertices"`
	Atts         map[string]float64 `json:"atts"`
	Population   *float64           `json:"population_2015"`
	LocationName *string            `json:"location_name"`
}

// LoadGrid reads a geodesic_data.json file.
func LoadGrid(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeGrid(f)
}

// DecodeGrid parses the grid JSON and normalizes every cell.
func DecodeGrid(r io.Reader) (*Grid, error) {
	var raw []rawCell
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode grid: %w", err)
	}
	cells := make([]Cell, 0, len(raw))
	for _, rc := range raw {
		c, err := rc.cell()
		if err != nil {
			return nil, err
		}
		cells = append(cells, c)
	}
	return NewGrid(cells)
}

// NewGrid sorts cells by gridIndex and checks the indexes run 0..N-1.
func NewGrid(cells []Cell) (*Grid, error) {
	if len(cells) == 0 {
		return nil, ErrEmptyGrid
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].GridIndex < cells[j].GridIndex })
	for i, c := range cells {
		if c.GridIndex != i {
			return nil, fmt.Errorf("%w: position %d holds index %d", ErrGridIndex, i, c.GridIndex)
		}
		if len(c.Vertices) == CornersPerCell-1 {
			cells[i].Vertices = append(c.Vertices, c.Vertices[len(c.Vertices)-1])
		} else if len(c.Vertices) != CornersPerCell {
			return nil, fmt.Errorf("%w: cell %d has %d", ErrCellVertices, c.GridIndex, len(c.Vertices))
		}
	}
	return &Grid{Cells: cells}, nil
}

func (rc rawCell) cell() (Cell, error) {
	c := Cell{GridIndex: rc.GridIndex}
	for _, v := range rc.Vertices {
		if len(v) < 2 {
			return Cell{}, fmt.Errorf("%w: cell %d has a short vertex", ErrCellVertices, rc.GridIndex)
		}
		c.Vertices = append(c.Vertices, [2]float64{v[0], v[1]})
	}
	if elev, ok := rc.Atts["STD_ELEV"]; ok {
		c.Atts.StdElev = elev
		c.Atts.HasElevation = true
	}
	c.Atts.LandFrac = rc.Atts["LANDFRAC_PFT"]
	c.Atts.PctLake = rc.Atts["PCT_LAKE"]
	c.Atts.PctGlacier = rc.Atts["PCT_GLACIER"]
	c.Atts.PctUrban = rc.Atts["PCT_URBAN"]
	if rc.Population != nil {
		c.Population = *rc.Population
		c.HasPopulation = true
	}
	if rc.LocationName != nil {
		c.LocationName = *rc.LocationName
	}
	return c, nil
}
