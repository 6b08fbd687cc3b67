package human

import (
	"math"
	"time"
)

// Point is one sampled position on a mouse path. Delay, when nonzero, is the
// pause to take before moving to the next point.
type Point struct {
	X     float64
	Y     float64
	Delay time.Duration
}

// MousePath samples a cubic Bezier curve between the two endpoints.
//
// The two control points sit at 33% and 67% of the straight line with random
// perpendicular offsets up to ±0.3 of the distance, which bends the path the
// way a real hand drifts. Sample count is clamp(10, 30, round(dist/15)).
// Trivial moves (dist < 5) return just the endpoints.
func (t *Timing) MousePath(sx, sy, ex, ey float64) []Point {
	dx, dy := ex-sx, ey-sy
	dist := math.Hypot(dx, dy)
	if dist < 5 {
		return []Point{{X: sx, Y: sy}, {X: ex, Y: ey}}
	}

	steps := int(math.Round(dist / 15))
	if steps < 10 {
		steps = 10
	}
	if steps > 30 {
		steps = 30
	}

	// Unit perpendicular to the straight line.
	px, py := -dy/dist, dx/dist

	off1 := (t.rng.Float64()*2 - 1) * 0.3 * dist
	off2 := (t.rng.Float64()*2 - 1) * 0.3 * dist
	c1x, c1y := sx+dx*0.33+px*off1, sy+dy*0.33+py*off1
	c2x, c2y := sx+dx*0.67+px*off2, sy+dy*0.67+py*off2

	points := make([]Point, 0, steps+1)
	for i := 0; i <= steps; i++ {
		u := float64(i) / float64(steps)
		points = append(points, Point{
			X: cubic(u, sx, c1x, c2x, ex),
			Y: cubic(u, sy, c1y, c2y, ey),
		})
	}
	return points
}

// DragPath builds a drag gesture: the Bezier path with ±2px y-wobble on
// interior points, an overshoot 5–15px past the target along the drag
// direction, and a corrective point back at the target. Each point carries a
// per-step delay.
func (t *Timing) DragPath(sx, sy, ex, ey float64) []Point {
	base := t.MousePath(sx, sy, ex, ey)

	out := make([]Point, 0, len(base)+2)
	for i, p := range base {
		if i > 0 && i < len(base)-1 {
			p.Y += t.rng.Float64()*4 - 2
		}
		p.Delay = t.uniform(10, 30)
		out = append(out, p)
	}

	dx, dy := ex-sx, ey-sy
	dist := math.Hypot(dx, dy)
	if dist > 0 {
		over := 5 + t.rng.Float64()*10
		out = append(out, Point{
			X:     ex + dx/dist*over,
			Y:     ey + dy/dist*over,
			Delay: t.uniform(30, 60),
		})
		out = append(out, Point{X: ex, Y: ey, Delay: t.uniform(50, 120)})
	}
	return out
}

// ScrollSteps splits a viewport scroll into 3–6 uneven chunks with ±10px
// jitter per chunk and a 30–100ms pause after each. The chunks sum to
// approximately the requested delta.
func (t *Timing) ScrollSteps(deltaX, deltaY float64) []Point {
	n := 3 + t.rng.Intn(4)
	out := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Point{
			X:     deltaX/float64(n) + t.rng.Float64()*20 - 10,
			Y:     deltaY/float64(n) + t.rng.Float64()*20 - 10,
			Delay: t.uniform(30, 100),
		})
	}
	return out
}

func cubic(u, p0, p1, p2, p3 float64) float64 {
	v := 1 - u
	return v*v*v*p0 + 3*v*v*u*p1 + 3*v*u*u*p2 + u*u*u*p3
}
