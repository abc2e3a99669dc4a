// Package trajectory precomputes sampled great-circle flight paths for
// simulated movers.
//
// A trajectory is generated once at startup from a handful of waypoint legs
// and then indexed on every scheduler tick, so all the expensive spherical
// math happens exactly once per process. Generation is fully deterministic:
// the same legs, speed and sampling interval always produce the same samples.
package trajectory

import (
	"math"

	"github.com/opsdeck/tacscope/pkg/geo"
)

// Leg is one straight (great-circle) travel segment between two waypoints.
type Leg struct {
	Start geo.Coordinate
	End   geo.Coordinate
}

// Trajectory is the precomputed sample sequence for one mover.
//
// Samples are spaced one sampling interval apart in simulated time. A nil
// sample is an idle slot: the mover has no position yet (staggered start).
// Consumers index with At, which wraps modulo the length, so every trajectory
// is logically an infinite loop.
type Trajectory struct {
	// Samples holds one position per sampling interval; nil means idle.
	Samples []*geo.Coordinate

	// Bearing is the initial bearing of the first leg, in degrees
	// (-180..180, 0 = North). Multi-leg trajectories have no single
	// meaningful bearing and report 0.
	Bearing float64
}

// Len returns the loop period in samples.
func (t *Trajectory) Len() int {
	return len(t.Samples)
}

// At returns the sample at cursor i, wrapping modulo the trajectory length.
// Returns nil for idle slots and for empty trajectories.
func (t *Trajectory) At(i int) *geo.Coordinate {
	if len(t.Samples) == 0 {
		return nil
	}
	i %= len(t.Samples)
	if i < 0 {
		i += len(t.Samples)
	}
	return t.Samples[i]
}

// Generate samples constant-velocity great-circle travel along legs.
//
// speedMph is the mover's ground speed, sampleInterval is the simulated time
// between samples in seconds (matching the scheduler tick so idle slots
// measure wall-clock seconds), and leadingIdle is how many seconds of nil
// idle slots to prepend before the mover first appears.
//
// Each leg contributes ceil(distance / distancePerSample) samples, every one
// projected distancePerSample miles along the leg's initial bearing from the
// previous sample. The bearing is computed once per leg from its original
// endpoints, which keeps the path straight; the final sample may land up to
// one step past the literal endpoint, and that is acceptable.
func Generate(legs []Leg, speedMph, sampleInterval, leadingIdle float64) *Trajectory {
	traj := &Trajectory{}
	if len(legs) == 1 {
		traj.Bearing = geo.Bearing(legs[0].Start, legs[0].End)
	}

	if sampleInterval <= 0 {
		return traj
	}

	if leadingIdle > 0 {
		// Round, not truncate: 2.0/0.1 is not exact in floating point
		idleSlots := int(math.Round(leadingIdle / sampleInterval))
		traj.Samples = make([]*geo.Coordinate, idleSlots)
	}

	// Distance covered in one sampling interval
	distancePerSample := speedMph * sampleInterval / 3600.0
	if distancePerSample <= 0 {
		return traj
	}

	for _, leg := range legs {
		distance := geo.DistanceMiles(leg.Start, leg.End)
		steps := int(math.Ceil(distance / distancePerSample))

		bearing := geo.Bearing(leg.Start, leg.End)
		point := leg.Start
		for i := 0; i < steps; i++ {
			point = geo.Destination(point, distancePerSample, bearing)
			sample := point
			traj.Samples = append(traj.Samples, &sample)
		}
	}

	return traj
}
