package domain

import (
	"time"

	"github.com/google/uuid"
)

// Rank enumerates crew ranks across the deck, engine, and steward departments.
// The set is closed: substitution and certification tables key off these
// values, so new ranks are additions to the tables, not code changes.
type Rank string

const (
	// Deck department.
	RankMaster         Rank = "MASTER"
	RankChiefOfficer   Rank = "CHIEF_OFFICER"
	RankSecondOfficer  Rank = "SECOND_OFFICER"
	RankThirdOfficer   Rank = "THIRD_OFFICER"
	RankBosun          Rank = "BOSUN"
	RankAbleSeaman     Rank = "ABLE_SEAMAN"
	RankOrdinarySeaman Rank = "ORDINARY_SEAMAN"

	// Engine department.
	RankChiefEngineer  Rank = "CHIEF_ENGINEER"
	RankSecondEngineer Rank = "SECOND_ENGINEER"
	RankThirdEngineer  Rank = "THIRD_ENGINEER"
	RankMotorman       Rank = "MOTORMAN"

	// Steward department.
	RankChiefSteward Rank = "CHIEF_STEWARD"
	RankSteward      Rank = "STEWARD"
	RankCook         Rank = "COOK"
)

// Ranks lists every known rank; used for exhaustive table checks in tests.
func Ranks() []Rank {
	return []Rank{
		RankMaster, RankChiefOfficer, RankSecondOfficer, RankThirdOfficer,
		RankBosun, RankAbleSeaman, RankOrdinarySeaman,
		RankChiefEngineer, RankSecondEngineer, RankThirdEngineer, RankMotorman,
		RankChiefSteward, RankSteward, RankCook,
	}
}

// CrewMember is a seafarer on an operator's books. VesselID is nil while the
// member is in the unassigned pool.
type CrewMember struct {
	ID             uuid.UUID
	FirstName      string // PII
	LastName       string // PII
	Nationality    string
	DateOfBirth    time.Time // PII
	Role           Rank
	VesselID       *uuid.UUID
	Certifications []Certification
	DeletedAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Deleted reports whether the member has been soft-deleted. Records are
// retained for regulatory history and never hard-deleted.
func (c CrewMember) Deleted() bool {
	return c.DeletedAt != nil
}

// FullName is used for audit actor/subject snapshots, never for matching.
func (c CrewMember) FullName() string {
	return c.FirstName + " " + c.LastName
}
