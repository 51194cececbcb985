package keywell

import (
	"io"

	"github.com/soypat/sdf/render"
	"gonum.org/v1/gonum/spatial/r3"
)

// meshTriangles streams a Mesh's triangles in render order, so an
// extracted mesh can go through the same STL path as a directly
// rendered solid.
type meshTriangles struct {
	mesh *Mesh
	next int
}

// Triangles returns a triangle reader over the mesh for STL output.
func (m *Mesh) Triangles3() render.Renderer {
	return &meshTriangles{mesh: m}
}

func (r *meshTriangles) ReadTriangles(dst []r3.Triangle) (int, error) {
	if r.next >= len(r.mesh.Triangles) {
		return 0, io.EOF
	}
	n := 0
	for n < len(dst) && r.next < len(r.mesh.Triangles) {
		t := r.mesh.Triangles[r.next]
		dst[n] = r3.Triangle{
			r.mesh.Vertices[t[0]],
			r.mesh.Vertices[t[1]],
			r.mesh.Vertices[t[2]],
		}
		n++
		r.next++
	}
	return n, nil
}

// SaveSTL writes the mesh to filename as binary STL.
func SaveSTL(filename string, m *Mesh) error {
	return render.CreateSTL(filename, m.Triangles3())
}
