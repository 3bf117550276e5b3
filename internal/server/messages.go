package server

import (
	"encoding/json"
	"strconv"

	"github.com/san-kum/earther/internal/geo"
	"github.com/san-kum/earther/internal/shell"
)

const (
	TypeMesh        = "mesh"
	TypeShellMesh   = "shell_mesh"
	TypeShellUpdate = "shell_update"
	TypeError       = "error"
	TypeLoad        = "load"
)

// Geometry is an indexed triangle mesh ready for a WebGL buffer.
type Geometry struct {
	Positions []float32 `json:"positions"`
	Indices   []int32   `json:"indices"`
	Colors    []uint32  `json:"colors,omitempty"`
}

type ShellGeometry struct {
	ID    string `json:"id"`
	Level int    `json:"level"`
	Geometry
}

// MeshMessage is sent on connect and after every variable change.
type MeshMessage struct {
	Type     string          `json:"type"`
	RunID    string          `json:"runId,omitempty"`
	Variable string          `json:"variable,omitempty"`
	Globe    Geometry        `json:"globe"`
	Shells   []ShellGeometry `json:"shells"`
}

// ShellMeshMessage announces the geometry of a shell that just became ready.
type ShellMeshMessage struct {
	Type string `json:"type"`
	ShellGeometry
}

// ShellUpdate carries the painted frame of one shell.
type ShellUpdate struct {
	Type      string        `json:"type"`
	ID        string        `json:"id"`
	Level     int           `json:"level"`
	Rotation  float64       `json:"rotation"`
	Frame     int           `json:"frame"`
	Label     string        `json:"label,omitempty"`
	Colors    []uint32      `json:"colors"`
	Materials Materials     `json:"materials"`
	Groups    []shell.Group `json:"groups"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ClientMessage is a command from a browser.
type ClientMessage struct {
	Type    string `json:"type"`
	RunID   string `json:"runId"`
	Model   string `json:"model"`
	VarName string `json:"varName"`
}

// Materials encodes as a JSON array of numbers rather than base64.
type Materials []uint8

func (m Materials) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	b := make([]byte, 0, len(m)*3+2)
	b = append(b, '[')
	for i, v := range m {
		if i > 0 {
			b = append(b, ',')
		}
		b = strconv.AppendUint(b, uint64(v), 10)
	}
	return append(b, ']'), nil
}

func (m *Materials) UnmarshalJSON(data []byte) error {
	var vals []int
	if err := json.Unmarshal(data, &vals); err != nil {
		return err
	}
	if vals == nil {
		*m = nil
		return nil
	}
	out := make(Materials, len(vals))
	for i, v := range vals {
		out[i] = uint8(v)
	}
	*m = out
	return nil
}

func globeGeometry(m *geo.Mesh) Geometry {
	g := Geometry{Positions: m.Positions(), Indices: m.Indices()}
	g.Colors = make([]uint32, len(m.FaceColors))
	for i, c := range m.FaceColors {
		g.Colors[i] = shell.FromColorful(c).Hex()
	}
	return g
}

func shellGeometry(s *shell.Shell) ShellGeometry {
	v := s.Variable()
	sg := ShellGeometry{ID: v.Key(), Level: v.Level}
	if m := s.Mesh(); m != nil {
		sg.Geometry = Geometry{Positions: m.Positions(), Indices: m.Indices()}
	}
	return sg
}

// cellColors takes the color of the first face of every cell.
func cellColors(faces []shell.Face) []uint32 {
	out := make([]uint32, len(faces)/shell.FacesPerCell)
	for i := range out {
		out[i] = faces[i*shell.FacesPerCell].Color.Hex()
	}
	return out
}

func cellMaterials(materials []int) Materials {
	out := make(Materials, len(materials))
	for i, m := range materials {
		out[i] = uint8(m)
	}
	return out
}
