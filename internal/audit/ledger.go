// Package audit is the append-only ledger every compliance-relevant operation
// writes through. Writing to it must never fail the caller's primary
// operation: on any internal failure the ledger degrades to structured
// logging and returns a synthetic entry.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"manifestgate/internal/domain"
	"manifestgate/internal/ids"
	"manifestgate/internal/platform/metrics"
	"manifestgate/internal/storage"
	"manifestgate/pkg/requestcontext"
)

// Entry is what callers supply; the ledger fills in identity, time, and
// request provenance itself.
type Entry struct {
	EntityType    domain.AuditEntityType
	EntityID      string
	Action        domain.AuditAction
	Before        map[string]any
	After         map[string]any
	ChangedFields []string
	Reason        string
}

// Sink receives a copy of every persisted entry for fan-out (e.g. a broker).
// Sinks are fire-and-forget: their failures stay at their own boundary.
type Sink interface {
	Publish(ctx context.Context, entry domain.AuditLogEntry)
}

// Ledger resolves the acting user, stamps provenance, and appends the entry.
type Ledger struct {
	store   storage.AuditStore
	users   storage.UserStore
	log     *logrus.Logger
	metrics *metrics.Metrics
	sinks   []Sink
}

func NewLedger(store storage.AuditStore, users storage.UserStore, log *logrus.Logger, m *metrics.Metrics, sinks ...Sink) *Ledger {
	return &Ledger{store: store, users: users, log: log, metrics: m, sinks: sinks}
}

// Log appends one entry. It always returns a usable AuditLogEntry and never
// an error: audit failures are logged and swallowed so the primary business
// transaction is unaffected.
func (l *Ledger) Log(ctx context.Context, entry Entry) domain.AuditLogEntry {
	now := requestcontext.Now(ctx)
	principal := requestcontext.Principal(ctx)

	record := domain.AuditLogEntry{
		ID:            ids.New(),
		EntityType:    entry.EntityType,
		EntityID:      entry.EntityID,
		Action:        domain.ParseAuditAction(string(entry.Action)),
		Timestamp:     now,
		Before:        entry.Before,
		After:         entry.After,
		ChangedFields: entry.ChangedFields,
		Reason:        entry.Reason,
		ClientIP:      requestcontext.ClientIP(ctx),
		Device:        ParseUserAgent(requestcontext.UserAgent(ctx)),
		RequestID:     requestcontext.RequestID(ctx),
	}

	if actor, err := l.resolveUser(ctx, principal, now); err == nil {
		record.ActorID = actor.ID
		record.ActorName = actor.DisplayName()
		record.ActorRole = actor.Role
	} else {
		l.log.WithError(err).WithField("subject", principal.Subject).
			Warn("audit: user resolution failed, recording anonymous actor")
	}

	if err := l.store.AppendAuditEntry(ctx, record); err != nil {
		// Degrade, don't fail: the entry still exists as a log line.
		l.log.WithError(err).WithFields(logrus.Fields{
			"entity_type": record.EntityType,
			"entity_id":   record.EntityID,
			"action":      record.Action,
		}).Error("audit: append failed, falling back to log record")
		if l.metrics != nil {
			l.metrics.IncrementAuditFailures()
		}
		return record
	}
	if l.metrics != nil {
		l.metrics.IncrementAuditEntries()
	}

	for _, sink := range l.sinks {
		sink.Publish(ctx, record)
	}
	return record
}

// ResolveActor exposes user resolution for services that must stamp an
// approver or submitter identity on their own records.
func (l *Ledger) ResolveActor(ctx context.Context) (domain.User, error) {
	return l.resolveUser(ctx, requestcontext.Principal(ctx), requestcontext.Now(ctx))
}

// ListByEntity returns the ledger slice for one aggregate, oldest first.
func (l *Ledger) ListByEntity(ctx context.Context, entityType domain.AuditEntityType, entityID string) ([]domain.AuditLogEntry, error) {
	return l.store.ListAuditByEntity(ctx, entityType, entityID)
}

// resolveUser finds or creates the local user record for the authenticated
// principal. Lookup order: external subject, then re-link by email when the
// subject changed at the identity provider, then create. A missing email
// claim gets a deterministic placeholder so creation never blocks.
func (l *Ledger) resolveUser(ctx context.Context, principal domain.Principal, now time.Time) (domain.User, error) {
	if principal.Subject == "" {
		return domain.User{}, storage.ErrNotFound
	}

	user, err := l.users.FindUserBySubject(ctx, principal.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return domain.User{}, err
	}

	if principal.Email != "" {
		user, err = l.users.FindUserByEmail(ctx, principal.Email)
		if err == nil {
			// Identity provider rotated the subject; re-link the record.
			user.ExternalSubject = principal.Subject
			user.UpdatedAt = now
			if saveErr := l.users.SaveUser(ctx, user); saveErr != nil {
				return domain.User{}, saveErr
			}
			return user, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return domain.User{}, err
		}
	}

	email := principal.Email
	if email == "" {
		email = principal.Subject + "@placeholder.local"
	}
	user = domain.User{
		ID:              uuid.New(),
		ExternalSubject: principal.Subject,
		Email:           email,
		FirstName:       principal.FirstName,
		LastName:        principal.LastName,
		Role:            principal.PrimaryRole(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := l.users.SaveUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}
