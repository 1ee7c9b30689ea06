package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/afl-predictor/internal/datasource"
	"github.com/yourusername/afl-predictor/internal/models"
)

// Date layouts accepted for match dates, tried in order.
var matchDateLayouts = []string{
	models.DateLayout,
	"02-Jan-2006",
	"2-Jan-2006",
	"Mon, 2-Jan-2006",
	"Mon, 02-Jan-2006",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05Z07:00",
}

// DataNormalizer converts raw source rows into ledger records with canonical
// team and venue names.
type DataNormalizer struct {
	teamNameMap  map[string]string
	venueNameMap map[string]string
}

// NewDataNormalizer creates a new data normalizer
func NewDataNormalizer() *DataNormalizer {
	return &DataNormalizer{
		teamNameMap:  buildTeamNameMap(),
		venueNameMap: buildVenueNameMap(),
	}
}

// NormalizeMatch parses a match row. Parse failures are *models.ValidationError.
func (n *DataNormalizer) NormalizeMatch(rec datasource.MatchRecord) (*models.Match, error) {
	if rec.MatchID == "" {
		return nil, invalid("match_id", "required", "match_id is empty")
	}

	date, err := ParseMatchDate(rec.Date)
	if err != nil {
		return nil, invalid("date", "bad_date", err.Error())
	}
	round, err := parseInt("round", rec.Round, false)
	if err != nil {
		return nil, err
	}
	year, err := parseInt("year", rec.Year, false)
	if err != nil {
		return nil, err
	}
	homeScore, err := parseInt("home_score", rec.HomeScore, true)
	if err != nil {
		return nil, err
	}
	awayScore, err := parseInt("away_score", rec.AwayScore, true)
	if err != nil {
		return nil, err
	}

	m := &models.Match{
		ID:        rec.MatchID,
		Date:      date,
		Round:     round,
		Year:      year,
		HomeTeam:  n.NormalizeTeamName(rec.HomeTeam),
		AwayTeam:  n.NormalizeTeamName(rec.AwayTeam),
		HomeScore: homeScore,
		AwayScore: awayScore,
		Venue:     n.NormalizeVenue(rec.Venue),
		Winner:    n.normalizeWinner(rec.Winner),
	}
	return m, nil
}

// NormalizeStatLine parses a player stat row. Blank counters are left nil;
// negative counters are kept for aggregation to skip.
func (n *DataNormalizer) NormalizeStatLine(rec datasource.StatRecord) (*models.PlayerStatLine, error) {
	line := &models.PlayerStatLine{
		MatchID: rec.MatchID,
		Player:  sanitizeName(rec.Player),
		Team:    n.NormalizeTeamName(rec.Team),
	}
	for _, stat := range models.TrackedStats {
		raw, ok := rec.Counters[string(stat)]
		if !ok || raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, invalid(string(stat), "bad_integer", "not an integer: "+raw)
		}
		line.SetCounter(stat, models.IntPtr(v))
	}
	return line, nil
}

// NormalizeTeamName maps historical and sponsor names to the canonical club name.
func (n *DataNormalizer) NormalizeTeamName(name string) string {
	name = sanitizeName(name)
	if canonical, ok := n.teamNameMap[strings.ToLower(name)]; ok {
		return canonical
	}
	return name
}

// NormalizeVenue maps venue aliases to the names used by the home-ground table.
func (n *DataNormalizer) NormalizeVenue(venue string) string {
	venue = sanitizeName(venue)
	if canonical, ok := n.venueNameMap[strings.ToLower(venue)]; ok {
		return canonical
	}
	return venue
}

func (n *DataNormalizer) normalizeWinner(winner string) string {
	switch strings.ToLower(strings.TrimSpace(winner)) {
	case "":
		return ""
	case "draw", "drawn", "tie":
		return models.Draw
	}
	return n.NormalizeTeamName(winner)
}

// ParseMatchDate parses any of the accepted match date layouts.
func ParseMatchDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range matchDateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func parseInt(field, raw string, blankIsZero bool) (int, error) {
	if raw == "" {
		if blankIsZero {
			return 0, nil
		}
		return 0, invalid(field, "required", field+" is empty")
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalid(field, "bad_integer", "not an integer: "+raw)
	}
	return v, nil
}

func invalid(field, code, msg string) *models.ValidationError {
	return &models.ValidationError{Field: field, Code: code, Message: msg}
}

// sanitizeName trims and collapses internal whitespace
func sanitizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// buildTeamNameMap creates a mapping of alternative club names to canonical names
func buildTeamNameMap() map[string]string {
	return map[string]string{
		"adelaide crows":                "Adelaide",
		"brisbane":                      "Brisbane Lions",
		"brisbane bears":                "Brisbane Lions",
		"footscray":                     "Western Bulldogs",
		"bulldogs":                      "Western Bulldogs",
		"fremantle dockers":             "Fremantle",
		"geelong cats":                  "Geelong",
		"gold coast suns":               "Gold Coast",
		"gws":                           "Greater Western Sydney",
		"gws giants":                    "Greater Western Sydney",
		"greater western sydney giants": "Greater Western Sydney",
		"hawthorn hawks":                "Hawthorn",
		"kangaroos":                     "North Melbourne",
		"north melbourne kangaroos":     "North Melbourne",
		"south melbourne":               "Sydney",
		"sydney swans":                  "Sydney",
		"st. kilda":                     "St Kilda",
		"west coast eagles":             "West Coast",
	}
}

// buildVenueNameMap creates a mapping of venue aliases to canonical names
func buildVenueNameMap() map[string]string {
	return map[string]string{
		"m.c.g.":                   "MCG",
		"melbourne cricket ground": "MCG",
		"docklands":                "Marvel Stadium",
		"etihad stadium":           "Marvel Stadium",
		"telstra dome":             "Marvel Stadium",
		"kardinia park":            "GMHBA Stadium",
		"simonds stadium":          "GMHBA Stadium",
		"perth stadium":            "Optus Stadium",
		"s.c.g.":                   "SCG",
		"sydney cricket ground":    "SCG",
		"carrara":                  "People First Stadium",
		"metricon stadium":         "People First Stadium",
		"heritage bank stadium":    "People First Stadium",
		"sydney showground":        "ENGIE Stadium",
		"giants stadium":           "ENGIE Stadium",
		"york park":                "UTAS Stadium",
		"bellerive oval":           "Blundstone Arena",
		"eureka stadium":           "Mars Stadium",
		"the gabba":                "Gabba",
		"brisbane cricket ground":  "Gabba",
		"manuka":                   "Manuka Oval",
	}
}
