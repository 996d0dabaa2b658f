package manning

import (
	"fmt"

	"manifestgate/internal/domain"
	pkgerrors "manifestgate/pkg/errors"
)

// ViolationInsufficientCrew is reported once per unmet required role.
const ViolationInsufficientCrew = "INSUFFICIENT_CREW"

// ViolationMissingInput means neither an authoritative document nor a usable
// tonnage was supplied. Evaluating nothing is an error, not a pass.
const ViolationMissingInput = "MISSING_SAFE_MANNING_INPUT"

// Input carries everything one safe-manning evaluation needs. Document takes
// precedence over tonnage when both are present.
type Input struct {
	Crew         []domain.CrewMember
	Document     *domain.SafeManningDocument
	GrossTonnage float64
}

// Result is the full evaluation outcome. Maps are keyed by required role;
// Errors lists every unmet role with both counts, never just the first.
type Result struct {
	Compliant         bool
	Required          map[domain.Rank]int
	ActualByRole      map[domain.Rank]int
	FulfillableByRole map[domain.Rank]int
	Errors            []pkgerrors.Violation
	Warnings          []string
}

// tonnage buckets for the fallback ruleset when no authoritative document
// exists for the vessel.
const (
	tonnageSmall = 500
	tonnageLarge = 3000
)

var fallbackSmall = []domain.SafeManningRole{
	{Role: domain.RankMaster, MinimumCount: 1},
	{Role: domain.RankAbleSeaman, MinimumCount: 2},
	{Role: domain.RankChiefEngineer, MinimumCount: 1},
}

var fallbackMedium = []domain.SafeManningRole{
	{Role: domain.RankMaster, MinimumCount: 1},
	{Role: domain.RankChiefOfficer, MinimumCount: 1},
	{Role: domain.RankAbleSeaman, MinimumCount: 2},
	{Role: domain.RankOrdinarySeaman, MinimumCount: 1},
	{Role: domain.RankChiefEngineer, MinimumCount: 1},
	{Role: domain.RankMotorman, MinimumCount: 1},
	{Role: domain.RankCook, MinimumCount: 1},
}

var fallbackLarge = []domain.SafeManningRole{
	{Role: domain.RankMaster, MinimumCount: 1},
	{Role: domain.RankChiefOfficer, MinimumCount: 1},
	{Role: domain.RankSecondOfficer, MinimumCount: 1},
	{Role: domain.RankBosun, MinimumCount: 1},
	{Role: domain.RankAbleSeaman, MinimumCount: 3},
	{Role: domain.RankOrdinarySeaman, MinimumCount: 2},
	{Role: domain.RankChiefEngineer, MinimumCount: 1},
	{Role: domain.RankSecondEngineer, MinimumCount: 1},
	{Role: domain.RankMotorman, MinimumCount: 2},
	{Role: domain.RankChiefSteward, MinimumCount: 1},
	{Role: domain.RankCook, MinimumCount: 1},
}

// Evaluate is a pure function over its input: no I/O, no clock, always safe
// to retry.
func Evaluate(in Input) Result {
	result := Result{
		Required:          map[domain.Rank]int{},
		ActualByRole:      map[domain.Rank]int{},
		FulfillableByRole: map[domain.Rank]int{},
	}

	requirements, ok := resolveRequirements(in)
	if !ok {
		result.Errors = append(result.Errors, pkgerrors.Violation{
			Code:    ViolationMissingInput,
			Message: "no safe manning document and no gross tonnage: cannot resolve requirements",
		})
		return result
	}

	// An empty requirement set is vacuously satisfied.
	result.Compliant = true

	for _, req := range requirements {
		actual, fulfillable := 0, 0
		for _, member := range in.Crew {
			if member.Deleted() {
				continue
			}
			if member.Role == req.Role {
				actual++
			}
			// A member may count toward several required roles; slots are
			// not allocated exclusively.
			if RoleMatches(member.Role, req.Role) {
				fulfillable++
			}
		}
		result.Required[req.Role] = req.MinimumCount
		result.ActualByRole[req.Role] = actual
		result.FulfillableByRole[req.Role] = fulfillable

		if fulfillable < req.MinimumCount {
			result.Compliant = false
			result.Errors = append(result.Errors, pkgerrors.Violation{
				Field: string(req.Role),
				Code:  ViolationInsufficientCrew,
				Message: fmt.Sprintf("role %s requires %d, fulfillable %d",
					req.Role, req.MinimumCount, fulfillable),
			})
		} else if fulfillable == req.MinimumCount && actual < req.MinimumCount {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"role %s is met only through substitution (%d of %d by exact rank)",
				req.Role, actual, req.MinimumCount))
		}
	}

	return result
}

// resolveRequirements picks the authoritative document when present,
// otherwise the tonnage bucket table. The second return is false when neither
// input is usable.
func resolveRequirements(in Input) ([]domain.SafeManningRole, bool) {
	if in.Document != nil {
		return mergeByRole(in.Document.Roles), true
	}
	switch {
	case in.GrossTonnage <= 0:
		return nil, false
	case in.GrossTonnage < tonnageSmall:
		return fallbackSmall, true
	case in.GrossTonnage <= tonnageLarge:
		return fallbackMedium, true
	default:
		return fallbackLarge, true
	}
}

// mergeByRole collapses duplicate roles keeping max(existing, incoming) and
// preserving first-seen order so results stay deterministic.
func mergeByRole(roles []domain.SafeManningRole) []domain.SafeManningRole {
	index := map[domain.Rank]int{}
	merged := make([]domain.SafeManningRole, 0, len(roles))
	for _, role := range roles {
		if i, seen := index[role.Role]; seen {
			if role.MinimumCount > merged[i].MinimumCount {
				merged[i].MinimumCount = role.MinimumCount
			}
			continue
		}
		index[role.Role] = len(merged)
		merged = append(merged, role)
	}
	return merged
}
