package storage

import (
	"context"

	"github.com/google/uuid"

	"manifestgate/internal/domain"
)

// Stores are interface-driven to keep the domain logic testable and to allow
// swapping in-memory and PostgreSQL persistence without rewiring business
// code. The engine assumes read consistency within a single evaluation call;
// row-level guarantees (conditional status updates) are the store's job.

type CrewStore interface {
	SaveCrewMember(ctx context.Context, member domain.CrewMember) error
	FindCrewMember(ctx context.Context, id uuid.UUID) (domain.CrewMember, error)
	ListCrewByVessel(ctx context.Context, vesselID uuid.UUID) ([]domain.CrewMember, error)
}

type CertificationStore interface {
	SaveCertification(ctx context.Context, cert domain.Certification) error
	FindCertification(ctx context.Context, id uuid.UUID) (domain.Certification, error)
	ListCertificationsByCrewMember(ctx context.Context, crewMemberID uuid.UUID) ([]domain.Certification, error)
}

type VesselStore interface {
	SaveVessel(ctx context.Context, vessel domain.Vessel) error
	FindVessel(ctx context.Context, id uuid.UUID) (domain.Vessel, error)
	SaveManningDocument(ctx context.Context, doc domain.SafeManningDocument) error
	// LatestManningDocument returns the most recently issued document for the
	// vessel; older documents are history, never evaluation input.
	LatestManningDocument(ctx context.Context, vesselID uuid.UUID) (domain.SafeManningDocument, error)
}

type SailingStore interface {
	SaveSailing(ctx context.Context, sailing domain.Sailing) error
	FindSailing(ctx context.Context, id uuid.UUID) (domain.Sailing, error)
}

type PassengerStore interface {
	SavePassenger(ctx context.Context, passenger domain.Passenger) error
	FindPassenger(ctx context.Context, id uuid.UUID) (domain.Passenger, error)
	ListPassengersBySailing(ctx context.Context, sailingID uuid.UUID) ([]domain.Passenger, error)
}

type ManifestStore interface {
	SaveManifest(ctx context.Context, manifest domain.Manifest) error
	FindManifest(ctx context.Context, id uuid.UUID) (domain.Manifest, error)
	// ListManifestsByPassenger returns every manifest referencing the
	// passenger, newest first; used to enforce post-approval immutability. A
	// passenger regenerated onto a newer draft still belongs to the older
	// frozen manifest.
	ListManifestsByPassenger(ctx context.Context, passengerID uuid.UUID) ([]domain.Manifest, error)
	// ListManifestsBySailing returns the sailing's manifests newest first.
	ListManifestsBySailing(ctx context.Context, sailingID uuid.UUID) ([]domain.Manifest, error)
	// UpdateManifestConditional persists the manifest only while the stored
	// status still equals expected; returns ErrConflict otherwise. This is
	// what makes double-approval races lose.
	UpdateManifestConditional(ctx context.Context, manifest domain.Manifest, expected domain.ManifestStatus) error
}

type UserStore interface {
	SaveUser(ctx context.Context, user domain.User) error
	FindUserBySubject(ctx context.Context, subject string) (domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (domain.User, error)
}

// AuditStore is append-only: the interface deliberately has no update or
// delete verbs.
type AuditStore interface {
	AppendAuditEntry(ctx context.Context, entry domain.AuditLogEntry) error
	ListAuditByEntity(ctx context.Context, entityType domain.AuditEntityType, entityID string) ([]domain.AuditLogEntry, error)
}
