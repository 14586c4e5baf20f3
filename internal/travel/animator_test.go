package travel

import (
	"math"
	"testing"
	"time"

	"asciiflight/internal/geo"
)

// fakeClock advances by step every time it is read
type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

func newFakeClock(step time.Duration) *fakeClock {
	return &fakeClock{now: time.Unix(0, 0), step: step}
}

// lonForKm returns the longitude that lies km east of (0, 0) along the equator
func lonForKm(km float64) float64 {
	return km / geo.EarthRadiusKm * 180 / math.Pi
}

func TestAnimateDuration(t *testing.T) {
	clock := newFakeClock(100 * time.Millisecond)
	a := New(500)
	a.Clock = clock

	from := geo.Pt(0, 0)
	to := geo.Pt(lonForKm(1000), 0)
	cam := geo.NewCamera(from, 10)

	start := clock.now
	var last time.Time
	var lons []float64
	ok := a.Animate(cam, []geo.GeoPoint{from, to}, func(c *geo.Camera, preview []geo.GeoPoint) bool {
		last = clock.now
		lons = append(lons, c.Center.Lon)
		if len(preview) != a.Steps+1 {
			t.Fatalf("preview has %d points", len(preview))
		}
		return true
	})
	if !ok {
		t.Fatal("animation reported an abort")
	}

	elapsed := last.Sub(start)
	if elapsed < 2*time.Second || elapsed > 2200*time.Millisecond {
		t.Errorf("animation took %v simulated, want about 2s", elapsed)
	}

	if len(lons) < 10 {
		t.Fatalf("only %d frames", len(lons))
	}
	for i := 1; i < len(lons); i++ {
		if lons[i] < lons[i-1] {
			t.Fatalf("center moved backwards at frame %d: %v -> %v", i, lons[i-1], lons[i])
		}
	}
	if math.Abs(lons[len(lons)-1]-to.Lon) > 1e-9 {
		t.Errorf("final frame at %v, want %v", lons[len(lons)-1], to.Lon)
	}
	if cam.Center != to {
		t.Errorf("camera ends at %v", cam.Center)
	}
}

func TestAnimateZeroDistanceLeg(t *testing.T) {
	clock := newFakeClock(time.Second)
	a := New(500)
	a.Clock = clock

	p := geo.Pt(24.9633, 60.3172)
	cam := geo.NewCamera(geo.Pt(0, 0), 10)

	frames := 0
	a.Animate(cam, []geo.GeoPoint{p, p}, func(*geo.Camera, []geo.GeoPoint) bool {
		frames++
		return true
	})
	if frames != 1 {
		t.Errorf("zero distance leg took %d frames, want 1", frames)
	}
	if cam.Center != p {
		t.Errorf("camera at %v", cam.Center)
	}
}

func TestAnimateNonPositiveSpeed(t *testing.T) {
	for _, speed := range []float64{0, -10} {
		a := New(speed)
		a.Clock = newFakeClock(time.Second)

		cam := geo.NewCamera(geo.Pt(0, 0), 10)
		frames := 0
		a.Animate(cam, []geo.GeoPoint{geo.Pt(0, 0), geo.Pt(10, 10), geo.Pt(20, 0)}, func(*geo.Camera, []geo.GeoPoint) bool {
			frames++
			return true
		})
		if frames != 2 {
			t.Errorf("speed %v: %d frames, want one per leg", speed, frames)
		}
	}
}

func TestAnimateMultipleLegs(t *testing.T) {
	a := New(1000)
	a.Clock = newFakeClock(50 * time.Millisecond)

	waypoints := []geo.GeoPoint{geo.Pt(0, 0), geo.Pt(5, 5), geo.Pt(10, 0)}
	cam := geo.NewCamera(waypoints[0], 10)

	var legs []Leg
	a.OnLeg = func(l Leg) { legs = append(legs, l) }

	a.Animate(cam, waypoints, func(c *geo.Camera, preview []geo.GeoPoint) bool {
		end := preview[len(preview)-1]
		if math.Abs(end.Lon-10) > 1e-6 || math.Abs(end.Lat) > 1e-6 {
			t.Fatalf("preview should end at the final destination, got %v", end)
		}
		return true
	})

	if len(legs) != 2 {
		t.Fatalf("got %d legs", len(legs))
	}
	if legs[0].To != waypoints[1] || legs[1].From != waypoints[1] {
		t.Errorf("legs out of order: %+v", legs)
	}
	if cam.Center != waypoints[2] {
		t.Errorf("camera at %v", cam.Center)
	}
}

func TestAnimateAbort(t *testing.T) {
	a := New(100)
	a.Clock = newFakeClock(10 * time.Millisecond)

	cam := geo.NewCamera(geo.Pt(0, 0), 10)
	frames := 0
	ok := a.Animate(cam, []geo.GeoPoint{geo.Pt(0, 0), geo.Pt(30, 0)}, func(*geo.Camera, []geo.GeoPoint) bool {
		frames++
		return frames < 3
	})
	if ok {
		t.Error("expected abort")
	}
	if frames != 3 {
		t.Errorf("frame called %d times after abort", frames)
	}
	if cam.Center.Lon <= 0 || cam.Center.Lon >= 30 {
		t.Errorf("aborted camera should stay mid-route, at %v", cam.Center)
	}
}

func TestPlan(t *testing.T) {
	a := New(500)
	legs := a.Plan([]geo.GeoPoint{geo.Pt(0, 0), geo.Pt(lonForKm(1000), 0)})
	if len(legs) != 1 {
		t.Fatalf("got %d legs", len(legs))
	}
	if math.Abs(legs[0].DistanceKm-1000) > 1e-6 {
		t.Errorf("distance = %v", legs[0].DistanceKm)
	}
	if d := legs[0].Duration - 2*time.Second; d < -time.Millisecond || d > time.Millisecond {
		t.Errorf("duration = %v", legs[0].Duration)
	}

	if a.Plan([]geo.GeoPoint{geo.Pt(1, 1)}) != nil {
		t.Error("single waypoint has no legs")
	}
}
