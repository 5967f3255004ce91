package enum

import "strings"

// RevenueStream identifies a purchasable product line
type RevenueStream string

const (
	StreamTournamentTicket RevenueStream = "tournament_ticket"
	StreamXPBooster        RevenueStream = "xp_booster"
	StreamCharacterPack    RevenueStream = "character_pack"
	StreamSeasonPass       RevenueStream = "season_pass"
	StreamFounderEdition   RevenueStream = "founder_edition"
)

// ParseRevenueStream lower-cases and trims raw, returning false for unknown streams
func ParseRevenueStream(raw string) (RevenueStream, bool) {
	s := RevenueStream(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StreamTournamentTicket, StreamXPBooster, StreamCharacterPack, StreamSeasonPass, StreamFounderEdition:
		return s, true
	}
	return s, false
}

func (s RevenueStream) String() string {
	return string(s)
}

// EntitlementType returns the entitlement granted by a purchase on this stream
func (s RevenueStream) EntitlementType() string {
	if s == StreamSeasonPass {
		return EntitlementSeasonPassAnnual
	}
	return string(s)
}

// Entitlement types
const (
	EntitlementTournamentTicket = "tournament_ticket"
	EntitlementXPBooster        = "xp_booster"
	EntitlementCharacterPack    = "character_pack"
	EntitlementSeasonPassAnnual = "season_pass_annual"
	EntitlementFounderEdition   = "founder_edition"
)
