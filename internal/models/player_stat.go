package models

// Stat names a tracked per-player counter.
type Stat string

// Tracked statistics
const (
	StatKicks     Stat = "kicks"
	StatMarks     Stat = "marks"
	StatGoals     Stat = "goals"
	StatDisposals Stat = "disposals"
	StatHitouts   Stat = "hitouts"
	StatTackles   Stat = "tackles"
)

// TrackedStats lists the statistics in canonical feature order.
var TrackedStats = []Stat{StatKicks, StatMarks, StatGoals, StatDisposals, StatHitouts, StatTackles}

// PlayerStatLine is one player's counters for one match. A nil counter was
// not recorded by the source.
type PlayerStatLine struct {
	MatchID   string `db:"match_id" json:"match_id" validate:"required"`
	Player    string `db:"player_name" json:"player_name" validate:"required"`
	Team      string `db:"team" json:"team" validate:"required"`
	Kicks     *int   `db:"kicks" json:"kicks,omitempty"`
	Marks     *int   `db:"marks" json:"marks,omitempty"`
	Goals     *int   `db:"goals" json:"goals,omitempty"`
	Disposals *int   `db:"disposals" json:"disposals,omitempty"`
	Hitouts   *int   `db:"hitouts" json:"hitouts,omitempty"`
	Tackles   *int   `db:"tackles" json:"tackles,omitempty"`
}

// Counter returns the counter for stat, or nil when absent or unknown.
func (p *PlayerStatLine) Counter(stat Stat) *int {
	switch stat {
	case StatKicks:
		return p.Kicks
	case StatMarks:
		return p.Marks
	case StatGoals:
		return p.Goals
	case StatDisposals:
		return p.Disposals
	case StatHitouts:
		return p.Hitouts
	case StatTackles:
		return p.Tackles
	default:
		return nil
	}
}

// SetCounter assigns the counter for stat. Unknown stats are ignored.
func (p *PlayerStatLine) SetCounter(stat Stat, v *int) {
	switch stat {
	case StatKicks:
		p.Kicks = v
	case StatMarks:
		p.Marks = v
	case StatGoals:
		p.Goals = v
	case StatDisposals:
		p.Disposals = v
	case StatHitouts:
		p.Hitouts = v
	case StatTackles:
		p.Tackles = v
	}
}

// IntPtr is a convenience for building stat lines.
func IntPtr(v int) *int {
	return &v
}
