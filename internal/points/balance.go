// Package points holds the arithmetic behind loyalty balances: how many points a
// purchase earns, what a balance is worth and whether a redemption fits in it.
package points

import (
	"loyalty_points/internal/domain" // Importing domain models

	"github.com/shopspring/decimal" // Decimal arithmetic
)

var (
	// CurrencyPerPoint is the purchase amount that earns one point
	CurrencyPerPoint = decimal.NewFromInt(100)
	// MaxPurchaseAmount is the exclusive upper bound of a purchase, the capacity of a decimal(12,2) column
	MaxPurchaseAmount = decimal.New(1, 10)
)

// Summary is the derived state of a customer's points
type Summary struct {
	Earned        int64           `json:"earned_points"`         // Confirmed earn points
	Redeemed      int64           `json:"redeemed_points"`       // Confirmed redeem points
	PendingEarn   int64           `json:"pending_earn_points"`   // Earn points awaiting review
	PendingRedeem int64           `json:"pending_redeem_points"` // Redeem points awaiting review
	Balance       int64           `json:"balance"`               // Earned minus redeemed
	Available     int64           `json:"available_points"`      // Balance minus pending redemptions
	Spent         decimal.Decimal `json:"total_spent"`           // Amount of confirmed purchases
	Pending       int             `json:"pending_transactions"`  // Transactions awaiting review
}

// Summarize reduces a transaction list into a Summary
func Summarize(txs []domain.PointsTransaction) Summary {
	s := Summary{Spent: decimal.Zero}
	for _, t := range txs {
		switch t.Status {
		case domain.StatusConfirmed:
			if t.Type == domain.TypeEarn {
				s.Earned += t.Points
				s.Spent = s.Spent.Add(t.Amount)
			} else if t.Type == domain.TypeRedeem {
				s.Redeemed += t.Points
			}
		case domain.StatusPending:
			s.Pending++
			if t.Type == domain.TypeEarn {
				s.PendingEarn += t.Points
			} else if t.Type == domain.TypeRedeem {
				s.PendingRedeem += t.Points
			}
		}
	}
	s.Balance = s.Earned - s.Redeemed
	s.Available = s.Balance - s.PendingRedeem
	return s
}

// ValidPurchaseAmount reports whether amount is positive and below MaxPurchaseAmount
func ValidPurchaseAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.LessThan(MaxPurchaseAmount)
}

// ForPurchase returns the points earned by a purchase: floor(amount / 100).
// Amounts outside the valid purchase range earn nothing.
func ForPurchase(amount decimal.Decimal) int64 {
	if !ValidPurchaseAmount(amount) {
		return 0
	}
	pts := amount.Div(CurrencyPerPoint).Floor()
	if !pts.BigInt().IsInt64() {
		return 0
	}
	return pts.IntPart()
}

// RedemptionAmount is the store credit granted for redeeming points at a branch price
func RedemptionAmount(points int64, price decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(points).Mul(price)
}

// Value is the currency worth of a balance at a branch price
func Value(balance int64, price decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(balance).Mul(price)
}

// CanRedeem reports whether a redemption of the given size fits the available points
func CanRedeem(s Summary, requested int64) bool {
	return requested > 0 && requested <= s.Available
}
