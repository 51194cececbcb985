// Package keywell generates 3D-printable split-keyboard cases and the
// matching key-matrix wiring layout from a small set of declarative
// parameters.
//
// # Overview
//
// A keyboard is described by a [Config]: per-column curvature or side
// angles for the finger cluster, an arc for the thumb cluster, spacing,
// shell parameters and tilting angles. From a validated Config the engine
// derives, in order:
//
//   - a [Layout] of rigid per-key transforms ([SolveLayout])
//   - implicit case solids as signed-distance fields ([BuildCase]),
//     one per printable artifact (right half, mirrored left half,
//     bottom plate)
//   - a watertight triangle [Mesh] per solid ([MeshSolid])
//   - a [Wiring] mapping every key to its row/column net and a
//     board-local anchor ([DeriveWiring])
//
// The case and the wiring board consume the same Layout value, so the
// printed geometry and the board stay consistent by construction.
//
// # Quick Start
//
//	cfg := keywell.DefaultConfig()
//	layout, err := keywell.SolveLayout(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	solids, err := keywell.BuildCase(cfg, layout)
//	if err != nil {
//		log.Fatal(err)
//	}
//	mesh, err := keywell.MeshSolid(context.Background(), solids.RightHalf, 1.0)
//	if err != nil {
//		log.Fatal(err)
//	}
//	keywell.SaveSTL("right.stl", mesh)
//
// # Interactive Reload
//
// [Engine] wraps the pipeline for live-preview use: submitted configs are
// totally ordered, an in-flight regeneration is abandoned as soon as a
// newer config arrives, and only the newest config's result is ever
// delivered. Meshing cost grows cubically as the resolution shrinks;
// [SampleCount] lets callers estimate the cost up front.
//
// # Geometry Representation
//
// Solids are immutable github.com/soypat/sdf expression trees evaluated
// per query point. Sampling during meshing is a pure function of
// (point, solid) and is fanned out across a worker pool; results are
// independent of the worker count.
package keywell

// Version is the current version of the library.
const Version = "0.2.0"
