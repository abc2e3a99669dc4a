// Package marker defines the wire types shared by the server and its
// clients: map entities, dispositions and the full-state stream event.
package marker

import "github.com/opsdeck/tacscope/pkg/geo"

// Disposition is the per-session classification of an entity.
type Disposition string

// The closed set of dispositions a viewer can assign.
const (
	DispositionUnknown  Disposition = "unknown"
	DispositionFriendly Disposition = "friendly"
	DispositionHostile  Disposition = "hostile"
	DispositionNeutral  Disposition = "neutral"
	DispositionCaution  Disposition = "caution"
)

// Valid reports whether d is a member of the closed disposition enumeration.
func (d Disposition) Valid() bool {
	switch d {
	case DispositionUnknown, DispositionFriendly, DispositionHostile,
		DispositionNeutral, DispositionCaution:
		return true
	}
	return false
}

// EntityType is the closed tag describing what kind of object an entity is.
// Icon and label selection is entirely client-side; the server only carries
// the tag.
type EntityType string

const (
	TypeTank           EntityType = "tank"
	TypeGroundOperator EntityType = "ground operator"
	TypeRadioTower     EntityType = "radio tower"
	TypeDrone          EntityType = "drone"
	TypeAircraft       EntityType = "aircraft"
	TypeMissile        EntityType = "missile"
	TypeRocket         EntityType = "rocket"
	TypeVehicle        EntityType = "vehicle"
	TypeShip           EntityType = "ship"
	TypeSubmarine      EntityType = "submarine"
	TypeSatellite      EntityType = "satellite"
	TypeUnknown        EntityType = "unknown"
)

// TankHealth holds per-subsystem health levels in percent (0-100).
type TankHealth struct {
	Engine      int `json:"engine"`
	Tracks      int `json:"tracks"`
	Turret      int `json:"turret"`
	Hull        int `json:"hull"`
	Radio       int `json:"radio"`
	Electronics int `json:"electronics"`
}

// TankDiagnostics is the optional diagnostics payload carried by tank
// entities.
type TankDiagnostics struct {
	// Fuel level in percent (0-100)
	Fuel int `json:"fuel"`

	// Ammo level in percent (0-100)
	Ammo int `json:"ammo"`

	// Health holds per-subsystem diagnostics
	Health TankHealth `json:"health"`

	// Recommendations lists maintenance actions suggested by diagnostics
	Recommendations []string `json:"recommendations"`
}

// EntityData is the display payload attached to every entity.
type EntityData struct {
	// Name is the short display name (e.g. "Jet Fighter")
	Name string `json:"name"`

	// Description is free text shown in detail panels
	Description string `json:"description"`

	// Disposition is the classification as resolved for one session:
	// the session override if present, the entity default otherwise
	Disposition Disposition `json:"disposition"`

	// Type is the closed entity-kind tag
	Type EntityType `json:"type"`

	// LinkedTo lists ids of peer entities this one operates with
	LinkedTo []string `json:"linkedTo,omitempty"`

	// Speed in miles per hour, for movers
	Speed float64 `json:"speed,omitempty"`

	// CanChangeDisposition flags entities whose classification a viewer
	// may change
	CanChangeDisposition bool `json:"canChangeDisposition,omitempty"`

	// TankStatus carries diagnostics for tank entities
	TankStatus *TankDiagnostics `json:"tankStatus,omitempty"`

	// Issue flags entities with an outstanding maintenance or readiness
	// problem
	Issue bool `json:"issue,omitempty"`
}

// Entity is one marker on the shared map: a stable id, a position, a bearing
// and the display payload.
type Entity struct {
	ID string `json:"id"`

	// Coordinates is the current position, encoded as [lon, lat]
	Coordinates geo.Coordinate `json:"coordinates"`

	// Bearing in degrees: 0 = North, 90 = East, range -180..180
	Bearing float64 `json:"bearing"`

	Data EntityData `json:"data"`
}

// Event is one push on the stream: the entire current entity list and the
// entire disposition map. Every push carries full state, never a delta, so a
// client can join or recover at any moment.
type Event struct {
	Dispositions map[string]Disposition `json:"dispositions"`
	Entities     []Entity               `json:"entities"`
}
