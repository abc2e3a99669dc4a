// Package catalog holds the static registry of simulated entities.
//
// The registry is built once at process start around a configurable theater
// center and never mutated afterwards: every mover's trajectory is
// precomputed up front, so schedulers only ever read from it. Sessions layer
// their own mutable state (disposition overrides, cursors) on top.
package catalog

import (
	"github.com/opsdeck/tacscope/pkg/geo"
	"github.com/opsdeck/tacscope/pkg/marker"
	"github.com/opsdeck/tacscope/pkg/trajectory"
)

// Mover is a trajectory-bound entity: its position on any given tick comes
// from indexing its precomputed trajectory with a per-session cursor.
type Mover struct {
	ID string

	// Trajectory is the precomputed looped sample sequence
	Trajectory *trajectory.Trajectory

	// Data is the display payload template. Data.Disposition holds the
	// default used when a session has no override for this mover.
	Data marker.EntityData
}

// Catalog is the immutable entity registry.
type Catalog struct {
	center  geo.Coordinate
	statics []marker.Entity
	movers  []Mover
	moverID map[string]int
}

// New builds the registry around center. sampleInterval is the simulated
// seconds between trajectory samples and must match the scheduler tick so
// that idle padding measures real wall-clock seconds.
//
// Static placements are fixed offsets from the center, so moving the theater
// in config moves the whole scenario with it.
func New(center geo.Coordinate, sampleInterval float64) *Catalog {
	c := &Catalog{
		center:  center,
		moverID: make(map[string]int),
	}

	c.statics = []marker.Entity{
		{
			ID:          "r1",
			Coordinates: center,
			Bearing:     90,
			Data: marker.EntityData{
				Name:        "Radio Tower",
				Description: "Radio tower with a 30 mile radius",
				Disposition: marker.DispositionFriendly,
				Type:        marker.TypeRadioTower,
			},
		},
		{
			ID:          "g2",
			Coordinates: offset(center, 0, -0.043526),
			Bearing:     90,
			Data: marker.EntityData{
				Name:        "Ground operator",
				Description: "Ground operators with 4 man crew",
				Disposition: marker.DispositionFriendly,
				Type:        marker.TypeGroundOperator,
				LinkedTo:    []string{"t4"},
			},
		},
		{
			ID:          "t4",
			Coordinates: offset(center, 0.074146, 0.006474),
			Bearing:     90,
			Data: marker.EntityData{
				Name:        "Tank",
				Description: "Tank with AA missile capabilities",
				Disposition: marker.DispositionFriendly,
				Type:        marker.TypeTank,
				LinkedTo:    []string{"g2"},
				Issue:       true,
				TankStatus: &marker.TankDiagnostics{
					Fuel: 25,
					Ammo: 80,
					Health: marker.TankHealth{
						Engine:      90,
						Tracks:      85,
						Turret:      80,
						Hull:        95,
						Radio:       70,
						Electronics: 60,
					},
					Recommendations: []string{"Check fuel levels"},
				},
			},
		},
		{
			ID:          "j1",
			Coordinates: offset(center, -0.232654, -0.018226),
			Bearing:     90,
			Data: marker.EntityData{
				Name:                 "Jeep",
				Description:          "Jeep with surveillance capabilities",
				Disposition:          marker.DispositionHostile,
				Type:                 marker.TypeVehicle,
				CanChangeDisposition: true,
			},
		},
	}

	jetData := marker.EntityData{
		Name:        "Jet Fighter",
		Description: "Jet fighter with gun and missile capabilities",
		Disposition: marker.DispositionUnknown,
		Type:        marker.TypeAircraft,
		Speed:       800,
	}
	droneData := marker.EntityData{
		Name:                 "Drone",
		Description:          "Drone with surveillance capabilities",
		Disposition:          marker.DispositionUnknown,
		Type:                 marker.TypeDrone,
		CanChangeDisposition: true,
	}

	// Jets fly one long straight pass each, staggered a few seconds apart
	c.addMover("a7", jetData, jet(center, 32, -122, 800, sampleInterval, 2))
	c.addMover("a8", jetData, jet(center, 52, -142, 800, sampleInterval, 3))
	c.addMover("a9", jetData, jet(center, 175, -90, 800, sampleInterval, 5))

	// Drones loop three-leg patrol triangles near the center
	c.addMover("d6", droneData, patrol(center, sampleInterval,
		radial{5, -45}, radial{3, -45}, radial{4, -90}))
	c.addMover("d7", droneData, patrol(center, sampleInterval,
		radial{24, -80}, radial{22, -80}, radial{23, -90}))
	c.addMover("d8", droneData, patrol(center, sampleInterval,
		radial{5, -125}, radial{10, -125}, radial{10, -90}))

	return c
}

func (c *Catalog) addMover(id string, data marker.EntityData, traj *trajectory.Trajectory) {
	c.moverID[id] = len(c.movers)
	c.movers = append(c.movers, Mover{ID: id, Trajectory: traj, Data: data})
}

// Center returns the theater center the registry was built around.
func (c *Catalog) Center() geo.Coordinate {
	return c.center
}

// Statics returns the fixed entities in emit order. The returned slice is
// shared and must be treated as read-only.
func (c *Catalog) Statics() []marker.Entity {
	return c.statics
}

// Movers returns the trajectory-bound entities in emit order. The returned
// slice is shared and must be treated as read-only.
func (c *Catalog) Movers() []Mover {
	return c.movers
}

// MoverByID looks up a trajectory-bound entity.
func (c *Catalog) MoverByID(id string) (Mover, bool) {
	i, ok := c.moverID[id]
	if !ok {
		return Mover{}, false
	}
	return c.movers[i], true
}

// SeedDispositions returns a fresh override map for a new session: one slot
// per entity a viewer is allowed to classify, preloaded with the entity's
// default. Only ids present in this map accept disposition updates.
func (c *Catalog) SeedDispositions() map[string]marker.Disposition {
	seed := make(map[string]marker.Disposition)
	for _, s := range c.statics {
		if s.Data.CanChangeDisposition {
			seed[s.ID] = s.Data.Disposition
		}
	}
	for _, m := range c.movers {
		if m.Data.CanChangeDisposition {
			seed[m.ID] = m.Data.Disposition
		}
	}
	// a9 historically accepts classification as well, even though its
	// payload does not advertise it
	seed["a9"] = marker.DispositionUnknown
	return seed
}

// radial places a waypoint by distance (miles) and bearing from the center.
type radial struct {
	miles   float64
	bearing float64
}

func offset(center geo.Coordinate, dLon, dLat float64) geo.Coordinate {
	return geo.Coordinate{
		Longitude: center.Longitude + dLon,
		Latitude:  center.Latitude + dLat,
	}
}

// jet builds a single 60-mile straight pass through the theater: 30 miles
// out on an approach bearing to 30 miles out on a departure bearing.
func jet(center geo.Coordinate, fromBearing, toBearing, speedMph, sampleInterval, idleSeconds float64) *trajectory.Trajectory {
	start := geo.Destination(center, 30, fromBearing)
	end := geo.Destination(center, 30, toBearing)
	return trajectory.Generate(
		[]trajectory.Leg{{Start: start, End: end}},
		speedMph, sampleInterval, idleSeconds,
	)
}

// patrol builds a closed three-leg loop through waypoints placed by radial
// distance/bearing from the center.
func patrol(center geo.Coordinate, sampleInterval float64, a, b, c radial) *trajectory.Trajectory {
	wa := geo.Destination(center, a.miles, a.bearing)
	wb := geo.Destination(center, b.miles, b.bearing)
	wc := geo.Destination(center, c.miles, c.bearing)
	return trajectory.Generate(
		[]trajectory.Leg{
			{Start: wa, End: wb},
			{Start: wb, End: wc},
			{Start: wc, End: wa},
		},
		80, sampleInterval, 0,
	)
}
