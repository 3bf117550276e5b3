package shell

const (
	// FacesPerCell is the number of triangles covering one shell cell.
	FacesPerCell = 4
	// VerticesPerFace is the renderer's vertex count per triangle.
	VerticesPerFace = 3
)

// Face is one triangle of the shell mesh as seen by the renderer.
type Face struct {
	Color         RGB
	MaterialIndex int
}

// Group is a contiguous draw range sharing one material. Start and Count
// are expressed in vertices.
type Group struct {
	Start         int `json:"start"`
	Count         int `json:"count"`
	MaterialIndex int `json:"materialIndex"`
}

// ComputeGroups run-length encodes per-face material indexes into draw
// groups.
func ComputeGroups(materials []int, verticesPerFace int) []Group {
	if len(materials) == 0 {
		return nil
	}
	groups := make([]Group, 0, 16)
	cur := Group{Start: 0, MaterialIndex: materials[0]}
	for i := 1; i < len(materials); i++ {
		if materials[i] == cur.MaterialIndex {
			continue
		}
		cur.Count = i*verticesPerFace - cur.Start
		groups = append(groups, cur)
		cur = Group{Start: i * verticesPerFace, MaterialIndex: materials[i]}
	}
	cur.Count = len(materials)*verticesPerFace - cur.Start
	return append(groups, cur)
}

func faceGroups(faces []Face, verticesPerFace int) []Group {
	materials := make([]int, len(faces))
	for i, f := range faces {
		materials[i] = f.MaterialIndex
	}
	return ComputeGroups(materials, verticesPerFace)
}
