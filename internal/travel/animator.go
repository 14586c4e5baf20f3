package travel

import (
	"log/slog"
	"time"

	"asciiflight/internal/geo"
)

// DefaultSpeedKms is the simulated flight speed in km per second
const DefaultSpeedKms = 1000.0

// Clock is the time source the animator polls
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock
var SystemClock Clock = systemClock{}

// Leg describes one hop between consecutive waypoints
type Leg struct {
	From       geo.GeoPoint
	To         geo.GeoPoint
	DistanceKm float64
	Duration   time.Duration
}

// FrameFunc renders one animation frame. preview is the geodesic from the
// current camera center to the final destination. Returning false aborts
// the animation, which is how callers layer on cancellation.
type FrameFunc func(cam *geo.Camera, preview []geo.GeoPoint) bool

// Animator flies the camera along a list of waypoints
type Animator struct {
	// SpeedKms converts leg distance into duration. Zero or negative
	// speeds complete every leg instantly.
	SpeedKms float64
	Clock    Clock
	Steps    int

	// OnLeg is called before each leg starts
	OnLeg func(Leg)
}

// New creates an animator using the wall clock
func New(speedKms float64) *Animator {
	return &Animator{
		SpeedKms: speedKms,
		Clock:    SystemClock,
		Steps:    geo.DefaultGeodesicSteps,
	}
}

// Plan computes the legs for a waypoint list without animating anything
func (a *Animator) Plan(waypoints []geo.GeoPoint) []Leg {
	if len(waypoints) < 2 {
		return nil
	}
	legs := make([]Leg, 0, len(waypoints)-1)
	for i := 1; i < len(waypoints); i++ {
		from, to := waypoints[i-1], waypoints[i]
		dist := geo.Distance(from, to)
		var d time.Duration
		if a.SpeedKms > 0 && dist > 0 {
			d = time.Duration(dist / a.SpeedKms * float64(time.Second))
		}
		legs = append(legs, Leg{From: from, To: to, DistanceKm: dist, Duration: d})
	}
	return legs
}

// Animate moves cam.Center through waypoints in order, interpolating each
// leg in geographic coordinates by elapsed clock time over leg duration and
// calling frame on every step. It blocks until the last leg completes and
// returns false if frame asked to stop early.
func (a *Animator) Animate(cam *geo.Camera, waypoints []geo.GeoPoint, frame FrameFunc) bool {
	if len(waypoints) == 0 {
		return true
	}
	clock := a.Clock
	if clock == nil {
		clock = SystemClock
	}
	dest := waypoints[len(waypoints)-1]
	slog.Debug("travel started",
		"waypoints", len(waypoints),
		"distance_km", geo.PathDistance(waypoints))

	t0 := clock.Now()
	for _, leg := range a.Plan(waypoints) {
		if a.OnLeg != nil {
			a.OnLeg(leg)
		}
		slog.Debug("travel leg",
			"from", leg.From,
			"to", leg.To,
			"distance_km", leg.DistanceKm,
			"duration", leg.Duration)

		for {
			now := clock.Now()
			elapsed := now.Sub(t0)

			t := 1.0
			if leg.Duration > 0 {
				t = min(float64(elapsed)/float64(leg.Duration), 1)
			}
			cam.Center = leg.From.Lerp(leg.To, t)

			if !frame(cam, geo.Geodesic(cam.Center, dest, a.Steps)) {
				return false
			}
			if elapsed >= leg.Duration {
				t0 = now
				break
			}
		}
	}

	cam.Center = dest
	return true
}
