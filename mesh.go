package keywell

import (
	"context"
	"math"

	"github.com/keywell/keywell/internal/parallel"
	"github.com/soypat/sdf"
	"gonum.org/v1/gonum/spatial/r3"
)

// expensiveSampleCount is where a meshing run stops being interactive
// on typical hardware. Crossing it logs a warning but still meshes.
const expensiveSampleCount = 64 << 20

// Mesh is an indexed triangle mesh produced by iso-surface extraction.
// Triangles wind counterclockwise seen from outside the solid; normals
// are per-vertex unit vectors pointing outward.
type Mesh struct {
	Vertices  []r3.Vec
	Normals   []r3.Vec
	Triangles [][3]int
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Triangles)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// Mesher extracts triangle meshes from signed distance fields using the
// surface-nets method on a uniform grid: every cell whose corner
// samples straddle the surface gets one vertex at the mean of its edge
// crossings, and every straddling grid edge becomes one quad joining
// the four cells around it. Every returned mesh is closed and
// two-manifold; solids with features thinner than a grid cell cannot be
// meshed that way and are refused with a [MeshError].
//
// A Mesher owns a worker pool; create one per renderer or engine and
// Close it when done. Mesh may be called concurrently.
type Mesher struct {
	pool *parallel.Pool
}

// NewMesher creates a mesher with the given number of sampling workers.
// Zero or negative uses GOMAXPROCS.
func NewMesher(workers int) *Mesher {
	return &Mesher{pool: parallel.New(workers)}
}

// Close releases the worker pool.
func (m *Mesher) Close() {
	m.pool.Close()
}

// MeshSolid extracts the surface of solid with a transient mesher. For
// repeated meshing prefer a long-lived [Mesher].
func MeshSolid(ctx context.Context, solid sdf.SDF3, resolution float64) (*Mesh, error) {
	mesher := NewMesher(0)
	defer mesher.Close()
	return mesher.Mesh(ctx, solid, resolution)
}

// meshGrid is the sample lattice covering a solid's bounds plus a guard
// band of one cell, so the surface never touches the lattice boundary.
type meshGrid struct {
	origin     r3.Vec
	resolution float64
	sx, sy, sz int // sample counts per axis
}

func newMeshGrid(solid sdf.SDF3, resolution float64) meshGrid {
	b := solid.Bounds()
	size := r3.Sub(b.Max, b.Min)
	return meshGrid{
		origin:     r3.Sub(b.Min, r3.Vec{X: resolution, Y: resolution, Z: resolution}),
		resolution: resolution,
		sx:         int(math.Ceil(size.X/resolution)) + 3,
		sy:         int(math.Ceil(size.Y/resolution)) + 3,
		sz:         int(math.Ceil(size.Z/resolution)) + 3,
	}
}

func (g meshGrid) samples() int {
	return g.sx * g.sy * g.sz
}

func (g meshGrid) point(i, j, k int) r3.Vec {
	return r3.Add(g.origin, r3.Vec{
		X: float64(i) * g.resolution,
		Y: float64(j) * g.resolution,
		Z: float64(k) * g.resolution,
	})
}

// SampleCount returns the number of field evaluations meshing solid at
// the given resolution will perform, before normal estimation. It lets
// callers price a resolution without paying for it.
func SampleCount(solid sdf.SDF3, resolution float64) int {
	if !(resolution > 0) {
		return 0
	}
	return newMeshGrid(solid, resolution).samples()
}

// Mesh extracts the iso-surface of solid at the given resolution, the
// edge length of one grid cell. It honors ctx: a canceled context
// abandons the run and returns ctx.Err(). The output is deterministic
// for identical inputs regardless of worker count.
func (m *Mesher) Mesh(ctx context.Context, solid sdf.SDF3, resolution float64) (*Mesh, error) {
	if math.IsNaN(resolution) || !(resolution > 0) {
		return nil, &MeshError{Reason: "resolution must be a positive number"}
	}

	grid := newMeshGrid(solid, resolution)
	if n := grid.samples(); n > expensiveSampleCount {
		Logger().Warn("resolution is expensive for this solid",
			"resolution", resolution, "samples", n)
	}

	field, err := m.sample(ctx, solid, grid)
	if err != nil {
		return nil, err
	}

	mesh, err := extractSurface(ctx, grid, field)
	if err != nil {
		return nil, err
	}
	if err := m.estimateNormals(ctx, solid, grid, mesh); err != nil {
		return nil, err
	}
	return mesh, nil
}

// sample evaluates the field over the whole lattice, one z-plane per
// pool job.
func (m *Mesher) sample(ctx context.Context, solid sdf.SDF3, g meshGrid) ([]float64, error) {
	field := make([]float64, g.samples())
	err := m.pool.ForEach(ctx, g.sz, func(k int) {
		idx := k * g.sy * g.sx
		for j := 0; j < g.sy; j++ {
			for i := 0; i < g.sx; i++ {
				field[idx] = solid.Evaluate(g.point(i, j, k))
				idx++
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return field, nil
}

// cellEdges pairs the corner indices of a cell's 12 edges. Corner bit
// layout: bit 0 = +x, bit 1 = +y, bit 2 = +z.
var cellEdges = [12][2]int{
	{0, 1}, {2, 3}, {4, 5}, {6, 7},
	{0, 2}, {1, 3}, {4, 6}, {5, 7},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// extractSurface places one vertex per straddling cell and one quad per
// straddling interior grid edge. The pass is serial: its cost is small
// next to field sampling, and a fixed scan order keeps the output
// byte-for-byte reproducible.
func extractSurface(ctx context.Context, g meshGrid, field []float64) (*Mesh, error) {
	cx, cy, cz := g.sx-1, g.sy-1, g.sz-1
	sampleAt := func(i, j, k int) float64 {
		return field[(k*g.sy+j)*g.sx+i]
	}
	cellVertex := make([]int32, cx*cy*cz)
	for i := range cellVertex {
		cellVertex[i] = -1
	}
	cellAt := func(i, j, k int) int32 {
		return cellVertex[(k*cy+j)*cx+i]
	}

	mesh := &Mesh{}
	var corner [8]float64
	for k := 0; k < cz; k++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		for j := 0; j < cy; j++ {
			for i := 0; i < cx; i++ {
				inside := 0
				for c := 0; c < 8; c++ {
					corner[c] = sampleAt(i+c&1, j+c>>1&1, k+c>>2&1)
					if corner[c] < 0 {
						inside |= 1 << c
					}
				}
				if inside == 0 || inside == 0xff {
					continue
				}

				// Vertex at the mean of the edge crossings, in cell
				// coordinates scaled to world units.
				var sum r3.Vec
				crossings := 0.0
				for _, e := range cellEdges {
					a, b := corner[e[0]], corner[e[1]]
					if (a < 0) == (b < 0) {
						continue
					}
					t := a / (a - b)
					p0 := cornerOffset(e[0])
					p1 := cornerOffset(e[1])
					sum = r3.Add(sum, r3.Add(p0, r3.Scale(t, r3.Sub(p1, p0))))
					crossings++
				}
				local := r3.Scale(g.resolution/crossings, sum)
				cellVertex[(k*cy+j)*cx+i] = int32(len(mesh.Vertices))
				mesh.Vertices = append(mesh.Vertices, r3.Add(g.point(i, j, k), local))
			}
		}
	}

	quad := func(a, b, c, d int32, flip bool) {
		if flip {
			b, d = d, b
		}
		mesh.Triangles = append(mesh.Triangles,
			[3]int{int(a), int(b), int(c)},
			[3]int{int(a), int(c), int(d)},
		)
	}

	// Quads around straddling x-edges: the four cells sharing the edge,
	// counterclockwise seen from +x. The guard band keeps crossings off
	// the lattice boundary, so all four cells exist.
	for k := 1; k < cz; k++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		for j := 1; j < cy; j++ {
			for i := 0; i < cx; i++ {
				s0, s1 := sampleAt(i, j, k), sampleAt(i+1, j, k)
				if (s0 < 0) != (s1 < 0) {
					quad(cellAt(i, j-1, k-1), cellAt(i, j, k-1), cellAt(i, j, k), cellAt(i, j-1, k), s0 >= 0)
				}
			}
		}
	}
	// y-edges, counterclockwise seen from +y.
	for k := 1; k < cz; k++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		for j := 0; j < cy; j++ {
			for i := 1; i < cx; i++ {
				s0, s1 := sampleAt(i, j, k), sampleAt(i, j+1, k)
				if (s0 < 0) != (s1 < 0) {
					quad(cellAt(i-1, j, k-1), cellAt(i-1, j, k), cellAt(i, j, k), cellAt(i, j, k-1), s0 >= 0)
				}
			}
		}
	}
	// z-edges, counterclockwise seen from +z.
	for k := 0; k < cz; k++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		for j := 1; j < cy; j++ {
			for i := 1; i < cx; i++ {
				s0, s1 := sampleAt(i, j, k), sampleAt(i, j, k+1)
				if (s0 < 0) != (s1 < 0) {
					quad(cellAt(i-1, j-1, k), cellAt(i, j-1, k), cellAt(i, j, k), cellAt(i-1, j, k), s0 >= 0)
				}
			}
		}
	}

	if len(mesh.Triangles) == 0 {
		return nil, &MeshError{Reason: "no surface found within the solid bounds"}
	}
	if !manifold(mesh) {
		return nil, &MeshError{Reason: "surface has features thinner than the resolution; use a finer resolution"}
	}
	return mesh, nil
}

// manifold reports whether every undirected edge joins exactly two
// triangles. Features thinner than a cell sign-flip both diagonals of a
// grid face and pile four quads onto one edge; such a mesh is refused
// rather than returned.
func manifold(mesh *Mesh) bool {
	edges := make(map[[2]int]int, 3*len(mesh.Triangles)/2)
	for _, tri := range mesh.Triangles {
		for e := 0; e < 3; e++ {
			a, b := tri[e], tri[(e+1)%3]
			if a > b {
				a, b = b, a
			}
			edges[[2]int{a, b}]++
		}
	}
	for _, n := range edges {
		if n != 2 {
			return false
		}
	}
	return true
}

func cornerOffset(c int) r3.Vec {
	return r3.Vec{X: float64(c & 1), Y: float64(c >> 1 & 1), Z: float64(c >> 2 & 1)}
}

// estimateNormals fills in per-vertex normals from the central
// difference gradient of the field, in chunks across the pool.
func (m *Mesher) estimateNormals(ctx context.Context, solid sdf.SDF3, g meshGrid, mesh *Mesh) error {
	const chunk = 1024
	h := g.resolution / 2
	mesh.Normals = make([]r3.Vec, len(mesh.Vertices))

	chunks := (len(mesh.Vertices) + chunk - 1) / chunk
	return m.pool.ForEach(ctx, chunks, func(c int) {
		lo, hi := c*chunk, (c+1)*chunk
		if hi > len(mesh.Vertices) {
			hi = len(mesh.Vertices)
		}
		for v := lo; v < hi; v++ {
			p := mesh.Vertices[v]
			grad := r3.Vec{
				X: solid.Evaluate(r3.Vec{X: p.X + h, Y: p.Y, Z: p.Z}) - solid.Evaluate(r3.Vec{X: p.X - h, Y: p.Y, Z: p.Z}),
				Y: solid.Evaluate(r3.Vec{X: p.X, Y: p.Y + h, Z: p.Z}) - solid.Evaluate(r3.Vec{X: p.X, Y: p.Y - h, Z: p.Z}),
				Z: solid.Evaluate(r3.Vec{X: p.X, Y: p.Y, Z: p.Z + h}) - solid.Evaluate(r3.Vec{X: p.X, Y: p.Y, Z: p.Z - h}),
			}
			mesh.Normals[v] = normalizeOrZero(grad)
		}
	})
}
