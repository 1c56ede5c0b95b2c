package points

import (
	"testing"

	"loyalty_points/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tx(typ, status string, pts int64, amount string) domain.PointsTransaction {
	return domain.PointsTransaction{Type: typ, Status: status, Points: pts, Amount: decimal.RequireFromString(amount)}
}

func TestSummarizeBalanceIsEarnedMinusRedeemed(t *testing.T) {
	txs := []domain.PointsTransaction{
		tx(domain.TypeEarn, domain.StatusConfirmed, 10, "1000"),
		tx(domain.TypeEarn, domain.StatusConfirmed, 5, "550.50"),
		tx(domain.TypeEarn, domain.StatusPending, 7, "700"),
		tx(domain.TypeEarn, domain.StatusRejected, 100, "10000"),
		tx(domain.TypeRedeem, domain.StatusConfirmed, 4, "2"),
		tx(domain.TypeRedeem, domain.StatusPending, 3, "1.5"),
		tx(domain.TypeRedeem, domain.StatusRejected, 50, "25"),
	}

	s := Summarize(txs)
	assert.Equal(t, int64(15), s.Earned)
	assert.Equal(t, int64(4), s.Redeemed)
	assert.Equal(t, int64(11), s.Balance)
	assert.Equal(t, int64(7), s.PendingEarn)
	assert.Equal(t, int64(3), s.PendingRedeem)
	assert.Equal(t, int64(8), s.Available)
	assert.Equal(t, 2, s.Pending)
	assert.True(t, decimal.RequireFromString("1550.50").Equal(s.Spent))
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Balance)
	assert.Zero(t, s.Available)
	assert.True(t, s.Spent.IsZero())
}

func TestSummarizeIgnoresRedeemedStatus(t *testing.T) {
	s := Summarize([]domain.PointsTransaction{
		tx(domain.TypeEarn, domain.StatusConfirmed, 20, "2000"),
		tx(domain.TypeRedeem, domain.StatusRedeemed, 20, "10"),
	})
	assert.Equal(t, int64(20), s.Balance)
}

func TestForPurchase(t *testing.T) {
	cases := []struct {
		amount string
		want   int64
	}{
		{"0", 0},
		{"-50", 0},
		{"99.99", 0},
		{"100", 1},
		{"199.99", 1},
		{"250", 2},
		{"1000.01", 10},
		{"9999999999.99", 99999999},
		{"10000000000", 0},
		{"1000000000000000000000000", 0},
	}
	for _, c := range cases {
		t.Run(c.amount, func(t *testing.T) {
			require.Equal(t, c.want, ForPurchase(decimal.RequireFromString(c.amount)))
		})
	}
}

func TestValidPurchaseAmount(t *testing.T) {
	assert.True(t, ValidPurchaseAmount(decimal.RequireFromString("0.01")))
	assert.True(t, ValidPurchaseAmount(decimal.RequireFromString("9999999999.99")))
	assert.False(t, ValidPurchaseAmount(decimal.Zero))
	assert.False(t, ValidPurchaseAmount(decimal.RequireFromString("-1")))
	assert.False(t, ValidPurchaseAmount(MaxPurchaseAmount))
	assert.False(t, ValidPurchaseAmount(decimal.RequireFromString("1e24")))
}

func TestRedemptionAmountAndValue(t *testing.T) {
	price := decimal.RequireFromString("0.5")
	assert.True(t, decimal.RequireFromString("12.5").Equal(RedemptionAmount(25, price)))
	assert.True(t, decimal.RequireFromString("50").Equal(Value(100, price)))
	assert.True(t, Value(0, price).IsZero())
}

func TestCanRedeem(t *testing.T) {
	s := Summary{Balance: 10, PendingRedeem: 4, Available: 6}
	assert.True(t, CanRedeem(s, 6))
	assert.False(t, CanRedeem(s, 7))
	assert.False(t, CanRedeem(s, 0))
	assert.False(t, CanRedeem(s, -1))
}
