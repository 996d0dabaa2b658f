package domain

import (
	"time"

	"github.com/google/uuid"
)

// PassengerStatus follows the check-in lifecycle for one sailing.
type PassengerStatus string

const (
	PassengerCheckedIn PassengerStatus = "CHECKED_IN"
	PassengerBoarded   PassengerStatus = "BOARDED"
	PassengerNoShow    PassengerStatus = "NO_SHOW"
	PassengerCancelled PassengerStatus = "CANCELLED"
)

// IdentityDocumentType covers the document classes accepted on manifests.
type IdentityDocumentType string

const (
	DocPassport       IdentityDocumentType = "PASSPORT"
	DocNationalID     IdentityDocumentType = "NATIONAL_ID"
	DocSeamanBook     IdentityDocumentType = "SEAMAN_BOOK"
	DocResidencePermit IdentityDocumentType = "RESIDENCE_PERMIT"
)

// Passenger carries the IMO FAL Form 5 fields for one traveller on one
// sailing. DocumentNumber holds ciphertext; plaintext never touches storage.
type Passenger struct {
	ID                uuid.UUID
	SailingID         uuid.UUID
	FamilyName        string // PII
	GivenName         string // PII
	Nationality       string
	DateOfBirth       time.Time // PII
	Gender            string
	DocumentType      IdentityDocumentType
	DocumentNumber    string // encrypted at rest
	DocumentExpiry    time.Time
	PortOfEmbarkation string
	PortOfDebarkation string
	Status            PassengerStatus
	ConsentAt         *time.Time
	DeletedAt         *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Deleted reports the soft-delete marker.
func (p Passenger) Deleted() bool {
	return p.DeletedAt != nil
}
