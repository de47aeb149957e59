package rollup

import (
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/shiftlens/shiftlens/pkg/core/model"
)

// Calendar is the explicit closure calendar for one analysis window. Closures
// are supplied as dates and recurrence rules, never inferred from absent data.
type Calendar struct {
	closures map[string]bool
}

// NewCalendar builds a closure calendar from explicit dates plus RRULE
// recurrences expanded over [from, to]. Malformed dates or rules are
// configuration errors and fail construction.
func NewCalendar(dates []string, rules []string, from, to time.Time) (*Calendar, error) {
	closures := make(map[string]bool)

	for i, d := range dates {
		parsed, err := time.Parse(model.DateLayout, d)
		if err != nil {
			return nil, fmt.Errorf("invalid closure date [%d] %q: %w", i, d, err)
		}
		closures[parsed.Format(model.DateLayout)] = true
	}

	for i, s := range rules {
		rule, err := rrule.StrToRRule(s)
		if err != nil {
			return nil, fmt.Errorf("invalid closure rule [%d] %q: %w", i, s, err)
		}
		rule.DTStart(from)
		for _, occurrence := range rule.Between(from, to, true) {
			closures[occurrence.Format(model.DateLayout)] = true
		}
	}

	return &Calendar{closures: closures}, nil
}

// IsClosure reports whether the facility is closed on the given date key.
func (c *Calendar) IsClosure(date string) bool {
	if c == nil {
		return false
	}
	return c.closures[date]
}

// ClosureDates returns the resolved closure dates in order. This is the
// metadata surface: downstream consumers see exactly which dates were treated
// as closures.
func (c *Calendar) ClosureDates() []string {
	if c == nil {
		return nil
	}
	dates := make([]string, 0, len(c.closures))
	for d := range c.closures {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}
