// Package jurisdiction fans a sailing out to every regulatory regime that
// claims it and collects one verdict per regime.
package jurisdiction

import (
	"context"

	"manifestgate/internal/domain"
)

// Status is one jurisdiction's verdict on a sailing.
type Status string

const (
	StatusCompliant    Status = "COMPLIANT"
	StatusNonCompliant Status = "NON_COMPLIANT"
	StatusWarning      Status = "WARNING"
)

// Subject is the full picture one evaluation sees: the sailing, its vessel,
// the active crew, and the manifest if one has been generated.
type Subject struct {
	Sailing  domain.Sailing
	Vessel   domain.Vessel
	Crew     []domain.CrewMember
	Manifest *domain.Manifest
}

// Record is one jurisdiction's result. A failed evaluation still produces a
// Record, carrying NON_COMPLIANT and the failure as a finding, so one broken
// regime never hides the others' verdicts.
type Record struct {
	Jurisdiction string
	Status       Status
	Findings     []string
}

// Evaluator is one regulatory regime. TriggerPorts lists the UN/LOCODEs that
// pull the regime in; an empty list means the regime applies to every
// sailing.
type Evaluator interface {
	Name() string
	TriggerPorts() []string
	Evaluate(ctx context.Context, subject Subject) (Record, error)
}

// Applies reports whether the evaluator claims the sailing's route.
func Applies(e Evaluator, sailing domain.Sailing) bool {
	triggers := e.TriggerPorts()
	if len(triggers) == 0 {
		return true
	}
	for _, port := range sailing.RoutePorts {
		for _, trigger := range triggers {
			if port == trigger {
				return true
			}
		}
	}
	return false
}
