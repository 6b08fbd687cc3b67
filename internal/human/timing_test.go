package human

import (
	"math"
	"math/rand"
	"testing"
	"time"
)

func TestDelayBounds(t *testing.T) {
	tm := New(rand.NewSource(1))

	cases := []struct {
		name     string
		fn       func() time.Duration
		min, max time.Duration
	}{
		{"navigation", tm.NavigationDelay, 800 * time.Millisecond, 2500 * time.Millisecond},
		{"preClick", tm.PreClickDelay, 100 * time.Millisecond, 400 * time.Millisecond},
		{"preType", tm.PreTypeDelay, 200 * time.Millisecond, 600 * time.Millisecond},
		{"preScroll", tm.PreScrollDelay, 500 * time.Millisecond, 1500 * time.Millisecond},
		{"postLoad", tm.PostLoadDelay, 1000 * time.Millisecond, 3000 * time.Millisecond},
		{"idle", tm.IdleDelay, 1000 * time.Millisecond, 4000 * time.Millisecond},
		{"interKey", tm.InterKeyDelay, 30 * time.Millisecond, 250 * time.Millisecond},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for i := 0; i < 1000; i++ {
				d := tc.fn()
				if d < tc.min || d > tc.max {
					t.Fatalf("delay %v outside [%v, %v]", d, tc.min, tc.max)
				}
			}
		})
	}
}

func TestClickOffsetBounds(t *testing.T) {
	tm := New(rand.NewSource(2))
	for i := 0; i < 1000; i++ {
		dx, dy := tm.ClickOffset()
		if dx < -3 || dx > 3 || dy < -3 || dy > 3 {
			t.Fatalf("offset (%f, %f) outside ±3px", dx, dy)
		}
	}
}

func TestMousePath_DeterministicUnderSeed(t *testing.T) {
	a := New(rand.NewSource(42)).MousePath(0, 0, 300, 200)
	b := New(rand.NewSource(42)).MousePath(0, 0, 300, 200)

	if len(a) != len(b) {
		t.Fatalf("path lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].X != b[i].X || a[i].Y != b[i].Y {
			t.Fatalf("point %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestMousePath_Endpoints(t *testing.T) {
	path := New(rand.NewSource(3)).MousePath(10, 20, 400, 300)

	first, last := path[0], path[len(path)-1]
	if first.X != 10 || first.Y != 20 {
		t.Errorf("path does not start at origin: %+v", first)
	}
	if math.Abs(last.X-400) > 1e-9 || math.Abs(last.Y-300) > 1e-9 {
		t.Errorf("path does not end at target: %+v", last)
	}
}

func TestMousePath_SampleCountClamped(t *testing.T) {
	tm := New(rand.NewSource(4))

	// dist/15 below 10 clamps to 10 steps (11 points).
	short := tm.MousePath(0, 0, 60, 0)
	if len(short) != 11 {
		t.Errorf("short path: got %d points, want 11", len(short))
	}

	// dist/15 above 30 clamps to 30 steps (31 points).
	long := tm.MousePath(0, 0, 2000, 0)
	if len(long) != 31 {
		t.Errorf("long path: got %d points, want 31", len(long))
	}
}

func TestMousePath_TrivialMove(t *testing.T) {
	path := New(rand.NewSource(5)).MousePath(100, 100, 102, 101)
	if len(path) != 2 {
		t.Fatalf("trivial move should return endpoints only, got %d points", len(path))
	}
}

func TestDragPath_OvershootAndCorrection(t *testing.T) {
	path := New(rand.NewSource(6)).DragPath(0, 0, 200, 0)

	if len(path) < 4 {
		t.Fatalf("drag path too short: %d points", len(path))
	}

	overshoot := path[len(path)-2]
	if overshoot.X < 205 || overshoot.X > 215 {
		t.Errorf("overshoot x=%f outside target+5..15", overshoot.X)
	}

	final := path[len(path)-1]
	if final.X != 200 || final.Y != 0 {
		t.Errorf("drag does not correct back to target: %+v", final)
	}

	for i, p := range path {
		if p.Delay <= 0 {
			t.Errorf("point %d missing per-step delay", i)
		}
	}
}

func TestScrollSteps_SumApproximatesDelta(t *testing.T) {
	tm := New(rand.NewSource(7))
	steps := tm.ScrollSteps(0, 500)

	if len(steps) < 3 || len(steps) > 6 {
		t.Fatalf("scroll split into %d steps, want 3..6", len(steps))
	}
	var sum float64
	for _, s := range steps {
		sum += s.Y
	}
	// Each step carries up to ±10px jitter.
	if math.Abs(sum-500) > 10*float64(len(steps)) {
		t.Errorf("scroll sum %f too far from 500", sum)
	}
}
