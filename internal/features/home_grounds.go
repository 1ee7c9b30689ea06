package features

import (
	"strings"
)

// DefaultHomeGrounds maps each club to the venues it treats as home.
var DefaultHomeGrounds = map[string][]string{
	"Adelaide":               {"Adelaide Oval"},
	"Brisbane Lions":         {"Gabba"},
	"Carlton":                {"MCG", "Marvel Stadium"},
	"Collingwood":            {"MCG"},
	"Essendon":               {"MCG", "Marvel Stadium"},
	"Fremantle":              {"Optus Stadium"},
	"Geelong":                {"GMHBA Stadium"},
	"Gold Coast":             {"People First Stadium"},
	"Greater Western Sydney": {"ENGIE Stadium", "Manuka Oval"},
	"Hawthorn":               {"MCG", "UTAS Stadium"},
	"Melbourne":              {"MCG"},
	"North Melbourne":        {"Marvel Stadium", "Blundstone Arena"},
	"Port Adelaide":          {"Adelaide Oval"},
	"Richmond":               {"MCG"},
	"St Kilda":               {"Marvel Stadium"},
	"Sydney":                 {"SCG"},
	"West Coast":             {"Optus Stadium"},
	"Western Bulldogs":       {"Marvel Stadium", "Mars Stadium"},
}

// HomeGrounds answers whether a venue is a home ground for a team. Team and
// venue names compare case-insensitively with surrounding and repeated spaces ignored.
type HomeGrounds struct {
	venues map[string]map[string]struct{}
}

// NewHomeGrounds builds a lookup from DefaultHomeGrounds with overrides
// replacing the venue list of any team they name.
func NewHomeGrounds(overrides map[string][]string) *HomeGrounds {
	hg := &HomeGrounds{venues: make(map[string]map[string]struct{})}
	for team, venues := range DefaultHomeGrounds {
		hg.set(team, venues)
	}
	for team, venues := range overrides {
		hg.set(team, venues)
	}
	return hg
}

func (hg *HomeGrounds) set(team string, venues []string) {
	set := make(map[string]struct{}, len(venues))
	for _, v := range venues {
		set[normalize(v)] = struct{}{}
	}
	hg.venues[normalize(team)] = set
}

// IsHomeGround reports whether venue is one of team's home grounds.
// Unknown teams have no home grounds.
func (hg *HomeGrounds) IsHomeGround(team, venue string) bool {
	set, ok := hg.venues[normalize(team)]
	if !ok {
		return false
	}
	_, ok = set[normalize(venue)]
	return ok
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
