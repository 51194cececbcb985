package keywell

import (
	"github.com/soypat/sdf"
	"github.com/soypat/sdf/form2/must2"
	"github.com/soypat/sdf/form3/must3"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Switch cutout dimensions for MX-style switches. The cutout is
// centered on the key frame and punches through the mounting plate.
const (
	switchCutoutWidth = 14.0
	switchCutoutDepth = 10.0

	// keycapClearanceHeight is how far the carved keycap volume extends
	// above each key plane. It only needs to exceed the tallest case
	// wall measured from any key.
	keycapClearanceHeight = 80.0

	// screwHoleRadius fits an M3 screw with clearance.
	screwHoleRadius = 1.6
)

// CaseSolids holds the implicit solids of one generated keyboard. The
// right half is the primary build; the left half is its reflection
// across the YZ plane. Solids are immutable and safe for concurrent
// evaluation.
type CaseSolids struct {
	RightHalf   sdf.SDF3
	LeftHalf    sdf.SDF3
	BottomPlate sdf.SDF3
}

// BuildCase constructs the case solids for a solved layout. The solid
// trees are cheap to build; all real work happens later when a mesher
// samples them. Identical inputs produce identical solids.
func BuildCase(cfg Config, layout *Layout) (*CaseSolids, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	kb := cfg.Keyboard
	excess := 2 * kb.ShellThickness

	finger := clusterSolid(
		layout.FingerOutline(),
		kb.CircumferenceDistance,
		layout.maxFingerZ()+layout.FingerClearance.Y,
		excess,
	)
	thumb := clusterSolid(
		layout.ThumbOutline(),
		kb.CircumferenceDistance,
		layout.maxThumbZ()+layout.ThumbClearance.Y,
		excess,
	)

	// Solid body first, then carve the keycap volumes so the top
	// follows the key arcs, then hollow and open the underside.
	body := smoothUnion(kb.RoundingRadius, finger, thumb)
	carved := smoothDifference(kb.RoundingRadius, body, keycapClearances(layout))
	shelled := sdf.Difference3D(carved, sdf.Offset3D(carved, -kb.ShellThickness))
	opened := sdf.Cut3D(shelled, r3.Vec{}, r3.Vec{Z: 1})
	right := sdf.Difference3D(opened, switchCutouts(layout))

	return &CaseSolids{
		RightHalf:   right,
		LeftHalf:    mirrorSolid(right),
		BottomPlate: bottomPlate(layout, kb),
	}, nil
}

// clusterSolid extrudes a key-cluster outline, grown by the
// circumference distance, from below the mounting plane up to top. The
// below-plane excess lets the later hollowing pass break through the
// underside before the cut at z = 0 trims it.
func clusterSolid(outline []r2.Vec, circumference, top, excess float64) sdf.SDF3 {
	profile := sdf.Offset2D(must2.Polygon(outline), circumference)
	return extrudeSpan(profile, -excess, top)
}

// extrudeSpan extrudes a 2D profile over the given z range.
func extrudeSpan(profile sdf.SDF2, zmin, zmax float64) sdf.SDF3 {
	h := zmax - zmin
	solid := sdf.Extrude3D(profile, h)
	return sdf.Transform3D(solid, sdf.Translate3D(r3.Vec{Z: zmin + h/2}))
}

// keycapClearances returns the union of the free volumes above every
// key plane. Neighboring volumes overlap by the key clearance, so the
// carved top is continuous across each cluster.
func keycapClearances(l *Layout) sdf.SDF3 {
	solids := make([]sdf.SDF3, 0, l.FingerKeyCount()+len(l.ThumbKeys))
	for _, c := range l.Columns {
		for _, key := range c.Keys {
			solids = append(solids, clearanceVolume(key, l.FingerClearance))
		}
	}
	for _, key := range l.ThumbKeys {
		solids = append(solids, clearanceVolume(key, l.ThumbClearance))
	}
	return sdf.Union3D(solids...)
}

// clearanceVolume is the box above one key plane that must stay free
// for the keycap and the finger.
func clearanceVolume(key Transform, clearance r2.Vec) sdf.SDF3 {
	box := must3.Box(r3.Vec{
		X: 2 * clearance.X,
		Y: 2 * clearance.Y,
		Z: keycapClearanceHeight,
	}, 0)
	return transformSolid(box, key.Mul(Translation(r3.Vec{Z: keycapClearanceHeight / 2})))
}

// switchCutouts returns the union of the switch holes, one per key,
// centered on the key plane so each punches through the plate the
// hollowing pass left behind.
func switchCutouts(l *Layout) sdf.SDF3 {
	box := must3.Box(r3.Vec{
		X: switchCutoutWidth,
		Y: switchCutoutWidth,
		Z: switchCutoutDepth,
	}, 0)

	solids := make([]sdf.SDF3, 0, l.FingerKeyCount()+len(l.ThumbKeys))
	for _, c := range l.Columns {
		for _, key := range c.Keys {
			solids = append(solids, transformSolid(box, key))
		}
	}
	for _, key := range l.ThumbKeys {
		solids = append(solids, transformSolid(box, key))
	}
	return sdf.Union3D(solids...)
}

// bottomPlate closes the open underside of one half: the same grown
// cluster outlines extruded downward from the mounting plane, so the
// case rim at z = 0 rests on the plate, minus the screw holes.
func bottomPlate(l *Layout, kb Keyboard) sdf.SDF3 {
	t := kb.BottomPlateThickness
	finger := extrudeSpan(sdf.Offset2D(must2.Polygon(l.FingerOutline()), kb.CircumferenceDistance), -t, 0)
	thumb := extrudeSpan(sdf.Offset2D(must2.Polygon(l.ThumbOutline()), kb.CircumferenceDistance), -t, 0)
	plate := sdf.Union3D(finger, thumb)

	positions := screwPositions(l, kb.CircumferenceDistance/2)
	holes := make([]sdf.SDF3, len(positions))
	for i, p := range positions {
		hole := must3.Cylinder(4*t, screwHoleRadius, 0)
		holes[i] = sdf.Transform3D(hole, sdf.Translate3D(r3.Vec{X: p.X, Y: p.Y, Z: -t / 2}))
	}
	return sdf.Difference3D(plate, sdf.Union3D(holes...))
}

// screwPositions picks one hole near each extreme corner of the finger
// outline, pulled inward so the hole keeps clear of the plate edge,
// plus one at the thumb outline center.
func screwPositions(l *Layout, inset float64) []r2.Vec {
	outline := l.FingerOutline()
	center := outlineCenter(outline)

	dirs := []r2.Vec{{X: 1, Y: 1}, {X: 1, Y: -1}, {X: -1, Y: 1}, {X: -1, Y: -1}}
	positions := make([]r2.Vec, 0, len(dirs)+1)
	for _, dir := range dirs {
		best := outline[0]
		for _, p := range outline[1:] {
			if p.X*dir.X+p.Y*dir.Y > best.X*dir.X+best.Y*dir.Y {
				best = p
			}
		}
		toCenter := r2.Sub(center, best)
		norm := r2.Norm(toCenter)
		if norm > 0 {
			best = r2.Add(best, r2.Scale(inset/norm, toCenter))
		}
		positions = append(positions, best)
	}
	return append(positions, outlineCenter(l.ThumbOutline()))
}

func outlineCenter(outline []r2.Vec) r2.Vec {
	var sum r2.Vec
	for _, p := range outline {
		sum = r2.Add(sum, p)
	}
	return r2.Scale(1/float64(len(outline)), sum)
}
