// Package manning decides whether a vessel's assigned crew satisfies its
// minimum safe-manning requirement. The substitution hierarchy and the
// tonnage fallback tables are data, not conditionals, so regulators' changes
// land as table edits.
package manning

import "manifestgate/internal/domain"

// substitutions maps a requirable role to the ordered set of actual ranks
// that may fill it: the rank itself first, then ascending seniority within
// the same department. The relation is asymmetric - a junior rank never
// satisfies a senior requirement, and departments never cross.
var substitutions = map[domain.Rank][]domain.Rank{
	// Deck.
	domain.RankMaster:        {domain.RankMaster},
	domain.RankChiefOfficer:  {domain.RankChiefOfficer, domain.RankMaster},
	domain.RankSecondOfficer: {domain.RankSecondOfficer, domain.RankChiefOfficer, domain.RankMaster},
	domain.RankThirdOfficer: {
		domain.RankThirdOfficer, domain.RankSecondOfficer,
		domain.RankChiefOfficer, domain.RankMaster,
	},
	domain.RankBosun: {
		domain.RankBosun, domain.RankThirdOfficer, domain.RankSecondOfficer,
		domain.RankChiefOfficer, domain.RankMaster,
	},
	domain.RankAbleSeaman: {
		domain.RankAbleSeaman, domain.RankBosun, domain.RankThirdOfficer,
		domain.RankSecondOfficer, domain.RankChiefOfficer, domain.RankMaster,
	},
	domain.RankOrdinarySeaman: {
		domain.RankOrdinarySeaman, domain.RankAbleSeaman, domain.RankBosun,
		domain.RankThirdOfficer, domain.RankSecondOfficer,
		domain.RankChiefOfficer, domain.RankMaster,
	},

	// Engine.
	domain.RankChiefEngineer:  {domain.RankChiefEngineer},
	domain.RankSecondEngineer: {domain.RankSecondEngineer, domain.RankChiefEngineer},
	domain.RankThirdEngineer: {
		domain.RankThirdEngineer, domain.RankSecondEngineer, domain.RankChiefEngineer,
	},
	domain.RankMotorman: {
		domain.RankMotorman, domain.RankThirdEngineer,
		domain.RankSecondEngineer, domain.RankChiefEngineer,
	},

	// Steward.
	domain.RankChiefSteward: {domain.RankChiefSteward},
	domain.RankSteward:      {domain.RankSteward, domain.RankChiefSteward},
	domain.RankCook:         {domain.RankCook, domain.RankChiefSteward},
}

// RoleMatches reports whether a crew member holding actual may fill a
// requirement for required. Reflexive for every known rank; substitution only
// flows from senior to junior requirements.
func RoleMatches(actual, required domain.Rank) bool {
	for _, rank := range substitutions[required] {
		if rank == actual {
			return true
		}
	}
	return false
}

// SatisfyingRanks exposes the substitution row for a requirement, mostly for
// operator-facing explanations of why a roster falls short.
func SatisfyingRanks(required domain.Rank) []domain.Rank {
	row := substitutions[required]
	out := make([]domain.Rank, len(row))
	copy(out, row)
	return out
}
