package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/yourusername/afl-predictor/internal/models"
)

// DataValidator validates match and player stat records before they reach the ledgers
type DataValidator struct {
	validate *validator.Validate
	minYear  int
	maxYear  int
}

// NewDataValidator creates a new data validator accepting years in [minYear, maxYear].
// A zero bound is not enforced.
func NewDataValidator(minYear, maxYear int) *DataValidator {
	return &DataValidator{
		validate: validator.New(),
		minYear:  minYear,
		maxYear:  maxYear,
	}
}

// ValidateMatch checks required fields and record invariants. The returned
// error is a *models.ValidationError.
func (v *DataValidator) ValidateMatch(m *models.Match) error {
	if err := v.structErr(m); err != nil {
		return err
	}
	if (v.minYear > 0 && m.Year < v.minYear) || (v.maxYear > 0 && m.Year > v.maxYear) {
		return invalid("year", "out_of_range", fmt.Sprintf("year %d outside %d-%d", m.Year, v.minYear, v.maxYear))
	}
	if m.Date.Year() != m.Year && m.Date.Year() != m.Year+1 {
		return invalid("date", "year_mismatch", fmt.Sprintf("date %s is not in season %d", m.Date.Format(models.DateLayout), m.Year))
	}
	return m.Validate()
}

// ValidateStatLine checks a stat line against the match it belongs to.
func (v *DataValidator) ValidateStatLine(line *models.PlayerStatLine, match *models.Match) error {
	if err := v.structErr(line); err != nil {
		return err
	}
	if match == nil {
		return invalid("match_id", "unknown_match", "no match "+line.MatchID)
	}
	if !match.Involves(line.Team) {
		return invalid("team", "team_not_participant", fmt.Sprintf("%s did not play in match %s", line.Team, match.ID))
	}
	return nil
}

func (v *DataValidator) structErr(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return invalid("record", "invalid", err.Error())
	}
	fe := errs[0]
	return invalid(toSnake(fe.Field()), fe.Tag(), fmt.Sprintf("failed on '%s' validation", fe.Tag()))
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
