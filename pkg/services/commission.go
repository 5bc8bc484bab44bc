package services

import (
	"venue-crm-backend/pkg/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineTotal is quantity x unit price, rounded to cents.
func LineTotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice).Round(2)
}

// EffectiveRate picks the override when present, else the venue's standard rate.
func EffectiveRate(override *decimal.Decimal, standard decimal.Decimal) decimal.Decimal {
	if override != nil {
		return *override
	}
	return standard
}

// Commission is total x rate / 100, rounded to cents.
func Commission(total, ratePercent decimal.Decimal) decimal.Decimal {
	return total.Mul(ratePercent).Div(hundred).Round(2)
}

// VenueTotals are the computed sums for one proposal venue.
type VenueTotals struct {
	Subtotal   decimal.Decimal
	Commission decimal.Decimal
}

// CalculateVenue fills each line's total and returns the venue subtotal and commission.
// The lines slice is updated in place.
func CalculateVenue(lines []models.ChargeLine, override *decimal.Decimal, standardRate decimal.Decimal) VenueTotals {
	subtotal := decimal.Zero
	for i := range lines {
		lines[i].LineTotal = LineTotal(lines[i].Quantity, lines[i].UnitPrice)
		subtotal = subtotal.Add(lines[i].LineTotal)
	}
	return VenueTotals{
		Subtotal:   subtotal,
		Commission: Commission(subtotal, EffectiveRate(override, standardRate)),
	}
}

// CalculateProposal sums the venue subtotals and commissions.
func CalculateProposal(venues []models.ProposalVenue) (total, expectedCommission decimal.Decimal) {
	total, expectedCommission = decimal.Zero, decimal.Zero
	for _, v := range venues {
		total = total.Add(v.Subtotal)
		expectedCommission = expectedCommission.Add(v.Commission)
	}
	return total.Round(2), expectedCommission.Round(2)
}

// ApplyVenueTotals recomputes every venue in place given the venues' standard
// rates, then returns the proposal totals.
func ApplyVenueTotals(venues []models.ProposalVenue, standardRates map[string]decimal.Decimal) (total, expectedCommission decimal.Decimal) {
	for i := range venues {
		totals := CalculateVenue(venues[i].ChargeLines, venues[i].CommissionRate, standardRates[venues[i].VenueID])
		venues[i].Subtotal = totals.Subtotal
		venues[i].Commission = totals.Commission
	}
	return CalculateProposal(venues)
}
