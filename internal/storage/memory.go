package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"manifestgate/internal/domain"
)

// In-memory stores keep tests and local development lightweight. They
// intentionally favor clarity over performance.

type InMemoryCrewStore struct {
	mu      sync.RWMutex
	members map[uuid.UUID]domain.CrewMember
}

func NewInMemoryCrewStore() *InMemoryCrewStore {
	return &InMemoryCrewStore{members: make(map[uuid.UUID]domain.CrewMember)}
}

func (s *InMemoryCrewStore) SaveCrewMember(_ context.Context, member domain.CrewMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[member.ID] = member
	return nil
}

func (s *InMemoryCrewStore) FindCrewMember(_ context.Context, id uuid.UUID) (domain.CrewMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if member, ok := s.members[id]; ok {
		return member, nil
	}
	return domain.CrewMember{}, ErrNotFound
}

func (s *InMemoryCrewStore) ListCrewByVessel(_ context.Context, vesselID uuid.UUID) ([]domain.CrewMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.CrewMember
	for _, member := range s.members {
		if member.VesselID != nil && *member.VesselID == vesselID {
			out = append(out, member)
		}
	}
	return out, nil
}

type InMemoryCertificationStore struct {
	mu    sync.RWMutex
	certs map[uuid.UUID]domain.Certification
}

func NewInMemoryCertificationStore() *InMemoryCertificationStore {
	return &InMemoryCertificationStore{certs: make(map[uuid.UUID]domain.Certification)}
}

func (s *InMemoryCertificationStore) SaveCertification(_ context.Context, cert domain.Certification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.certs[cert.ID] = cert
	return nil
}

func (s *InMemoryCertificationStore) FindCertification(_ context.Context, id uuid.UUID) (domain.Certification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cert, ok := s.certs[id]; ok {
		return cert, nil
	}
	return domain.Certification{}, ErrNotFound
}

func (s *InMemoryCertificationStore) ListCertificationsByCrewMember(_ context.Context, crewMemberID uuid.UUID) ([]domain.Certification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Certification
	for _, cert := range s.certs {
		if cert.CrewMemberID == crewMemberID {
			out = append(out, cert)
		}
	}
	return out, nil
}

type InMemoryVesselStore struct {
	mu      sync.RWMutex
	vessels map[uuid.UUID]domain.Vessel
	docs    map[uuid.UUID][]domain.SafeManningDocument
}

func NewInMemoryVesselStore() *InMemoryVesselStore {
	return &InMemoryVesselStore{
		vessels: make(map[uuid.UUID]domain.Vessel),
		docs:    make(map[uuid.UUID][]domain.SafeManningDocument),
	}
}

func (s *InMemoryVesselStore) SaveVessel(_ context.Context, vessel domain.Vessel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vessels[vessel.ID] = vessel
	return nil
}

func (s *InMemoryVesselStore) FindVessel(_ context.Context, id uuid.UUID) (domain.Vessel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if vessel, ok := s.vessels[id]; ok {
		return vessel, nil
	}
	return domain.Vessel{}, ErrNotFound
}

func (s *InMemoryVesselStore) SaveManningDocument(_ context.Context, doc domain.SafeManningDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.VesselID] = append(s.docs[doc.VesselID], doc)
	return nil
}

func (s *InMemoryVesselStore) LatestManningDocument(_ context.Context, vesselID uuid.UUID) (domain.SafeManningDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := s.docs[vesselID]
	if len(docs) == 0 {
		return domain.SafeManningDocument{}, ErrNotFound
	}
	latest := docs[0]
	for _, doc := range docs[1:] {
		if doc.IssuedAt.After(latest.IssuedAt) {
			latest = doc
		}
	}
	return latest, nil
}

type InMemorySailingStore struct {
	mu       sync.RWMutex
	sailings map[uuid.UUID]domain.Sailing
}

func NewInMemorySailingStore() *InMemorySailingStore {
	return &InMemorySailingStore{sailings: make(map[uuid.UUID]domain.Sailing)}
}

func (s *InMemorySailingStore) SaveSailing(_ context.Context, sailing domain.Sailing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sailings[sailing.ID] = sailing
	return nil
}

func (s *InMemorySailingStore) FindSailing(_ context.Context, id uuid.UUID) (domain.Sailing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sailing, ok := s.sailings[id]; ok {
		return sailing, nil
	}
	return domain.Sailing{}, ErrNotFound
}

type InMemoryPassengerStore struct {
	mu         sync.RWMutex
	passengers map[uuid.UUID]domain.Passenger
}

func NewInMemoryPassengerStore() *InMemoryPassengerStore {
	return &InMemoryPassengerStore{passengers: make(map[uuid.UUID]domain.Passenger)}
}

func (s *InMemoryPassengerStore) SavePassenger(_ context.Context, passenger domain.Passenger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passengers[passenger.ID] = passenger
	return nil
}

func (s *InMemoryPassengerStore) FindPassenger(_ context.Context, id uuid.UUID) (domain.Passenger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if passenger, ok := s.passengers[id]; ok {
		return passenger, nil
	}
	return domain.Passenger{}, ErrNotFound
}

func (s *InMemoryPassengerStore) ListPassengersBySailing(_ context.Context, sailingID uuid.UUID) ([]domain.Passenger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Passenger
	for _, passenger := range s.passengers {
		if passenger.SailingID == sailingID {
			out = append(out, passenger)
		}
	}
	return out, nil
}

type InMemoryManifestStore struct {
	mu        sync.RWMutex
	manifests map[uuid.UUID]domain.Manifest
}

func NewInMemoryManifestStore() *InMemoryManifestStore {
	return &InMemoryManifestStore{manifests: make(map[uuid.UUID]domain.Manifest)}
}

func (s *InMemoryManifestStore) SaveManifest(_ context.Context, manifest domain.Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifests[manifest.ID] = manifest
	return nil
}

func (s *InMemoryManifestStore) FindManifest(_ context.Context, id uuid.UUID) (domain.Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if manifest, ok := s.manifests[id]; ok {
		return manifest, nil
	}
	return domain.Manifest{}, ErrNotFound
}

func (s *InMemoryManifestStore) ListManifestsByPassenger(_ context.Context, passengerID uuid.UUID) ([]domain.Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Manifest
	for _, manifest := range s.manifests {
		for _, id := range manifest.PassengerIDs {
			if id == passengerID {
				out = append(out, manifest)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryManifestStore) ListManifestsBySailing(_ context.Context, sailingID uuid.UUID) ([]domain.Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Manifest
	for _, manifest := range s.manifests {
		if manifest.SailingID == sailingID {
			out = append(out, manifest)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryManifestStore) UpdateManifestConditional(_ context.Context, manifest domain.Manifest, expected domain.ManifestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.manifests[manifest.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Status != expected {
		return ErrConflict
	}
	s.manifests[manifest.ID] = manifest
	return nil
}

type InMemoryUserStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]domain.User
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{users: make(map[uuid.UUID]domain.User)}
}

func (s *InMemoryUserStore) SaveUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	return nil
}

func (s *InMemoryUserStore) FindUserBySubject(_ context.Context, subject string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.ExternalSubject == subject {
			return user, nil
		}
	}
	return domain.User{}, ErrNotFound
}

func (s *InMemoryUserStore) FindUserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return domain.User{}, ErrNotFound
}

type InMemoryAuditStore struct {
	mu      sync.RWMutex
	entries []domain.AuditLogEntry
}

func NewInMemoryAuditStore() *InMemoryAuditStore {
	return &InMemoryAuditStore{}
}

func (s *InMemoryAuditStore) AppendAuditEntry(_ context.Context, entry domain.AuditLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *InMemoryAuditStore) ListAuditByEntity(_ context.Context, entityType domain.AuditEntityType, entityID string) ([]domain.AuditLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.AuditLogEntry
	for _, entry := range s.entries {
		if entry.EntityType == entityType && entry.EntityID == entityID {
			out = append(out, entry)
		}
	}
	return out, nil
}

// All returns a copy of every entry, for tests that assert ledger contents.
func (s *InMemoryAuditStore) All() []domain.AuditLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.AuditLogEntry{}, s.entries...)
}
