package rollup

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/shiftlens/shiftlens/pkg/core/model"
)

// RoleCost is the monetary estimate for one role's shortage hours.
type RoleCost struct {
	Role          string
	ShortageHours float64
	HourlyRate    decimal.Decimal
	Cost          decimal.Decimal
}

// CostSummary is the costed view of a role-axis decomposition. Roles without
// a configured rate are listed with a zero rate so the hours stay visible.
type CostSummary struct {
	Roles []RoleCost
	Total decimal.Decimal
}

// CostByRole multiplies a role-axis shortage decomposition by hourly wage
// rates. This is pure post-multiplication: the hours figures pass through
// untouched and the underlying decomposition is never modified.
func CostByRole(byRole model.DecompositionResult, hourlyRates map[string]float64) CostSummary {
	roles := make([]string, 0, len(byRole.Shares))
	for role := range byRole.Shares {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	summary := CostSummary{Total: decimal.Zero}
	for _, role := range roles {
		hours := byRole.Shares[role]
		rate := decimal.NewFromFloat(hourlyRates[role])
		cost := decimal.NewFromFloat(hours).Mul(rate)
		summary.Roles = append(summary.Roles, RoleCost{
			Role:          role,
			ShortageHours: hours,
			HourlyRate:    rate,
			Cost:          cost,
		})
		summary.Total = summary.Total.Add(cost)
	}
	return summary
}
