package domain

import (
	"time"

	"github.com/google/uuid"
)

// VesselType is descriptive only; manning rules key off tonnage and the safe
// manning document, not the type.
type VesselType string

const (
	VesselRoPaxFerry     VesselType = "ROPAX_FERRY"
	VesselFastFerry      VesselType = "FAST_FERRY"
	VesselPassengerShip  VesselType = "PASSENGER_SHIP"
	VesselExcursionBoat  VesselType = "EXCURSION_BOAT"
)

// Vessel is an operated ship. GrossTonnage of zero means "unknown" and blocks
// the tonnage-fallback manning evaluation.
type Vessel struct {
	ID           uuid.UUID
	Name         string
	IMONumber    string
	Type         VesselType
	GrossTonnage float64
	HomeFlag     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SafeManningRole is one line of a safe manning document: the minimum number
// of crew that must be able to fill the given rank.
type SafeManningRole struct {
	Role         Rank
	MinimumCount int
}

// SafeManningDocument is an authority-issued minimum-crew requirement for a
// vessel. The most recently issued document is authoritative; older documents
// are retained for history only.
type SafeManningDocument struct {
	ID       uuid.UUID
	VesselID uuid.UUID
	IssuedAt time.Time
	Issuer   string
	Roles    []SafeManningRole
}

// Sailing is a single scheduled departure. RoutePorts lists every port the
// route touches, in call order; jurisdiction dispatch matches against it.
type Sailing struct {
	ID            uuid.UUID
	VesselID      uuid.UUID
	DeparturePort string
	ArrivalPort   string
	DepartureTime time.Time
	RoutePorts    []string
}
