package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditEntityType names the aggregate an audit entry refers to.
type AuditEntityType string

const (
	EntityCrewMember    AuditEntityType = "CREW_MEMBER"
	EntityCertification AuditEntityType = "CERTIFICATION"
	EntityVessel        AuditEntityType = "VESSEL"
	EntityPassenger     AuditEntityType = "PASSENGER"
	EntityManifest      AuditEntityType = "MANIFEST"
	EntitySailing       AuditEntityType = "SAILING"
	EntityUser          AuditEntityType = "USER"
)

// AuditAction is the verb recorded on a ledger entry. The set is closed;
// ParseAuditAction maps anything unknown to the safe read-like default
// instead of trusting free-form input.
type AuditAction string

const (
	ActionCreate     AuditAction = "CREATE"
	ActionRead       AuditAction = "READ"
	ActionUpdate     AuditAction = "UPDATE"
	ActionDelete     AuditAction = "DELETE"
	ActionApprove    AuditAction = "APPROVE"
	ActionSubmit     AuditAction = "SUBMIT"
	ActionReject     AuditAction = "REJECT"
	ActionRevoke     AuditAction = "REVOKE"
	ActionEvaluate   AuditAction = "EVALUATE"
	ActionDataExport AuditAction = "DATA_EXPORT"
	ActionAuthFailed AuditAction = "AUTH_FAILED"
)

// ParseAuditAction coerces a raw string into the closed action set. Unknown
// values fall back to ActionRead rather than propagating unvetted verbs into
// the ledger.
func ParseAuditAction(raw string) AuditAction {
	switch AuditAction(raw) {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete,
		ActionApprove, ActionSubmit, ActionReject, ActionRevoke,
		ActionEvaluate, ActionDataExport, ActionAuthFailed:
		return AuditAction(raw)
	}
	return ActionRead
}

// AuditLogEntry is one immutable row of the ledger: who did what, when, from
// where, and why. No update or delete path exists anywhere in the design.
type AuditLogEntry struct {
	ID            string // ULID, lexically time-ordered
	EntityType    AuditEntityType
	EntityID      string
	Action        AuditAction
	ActorID       uuid.UUID
	ActorName     string
	ActorRole     string
	Timestamp     time.Time
	Before        map[string]any
	After         map[string]any
	ChangedFields []string
	Reason        string
	ClientIP      string
	Device        string // display name parsed from the User-Agent header
	RequestID     string
}
