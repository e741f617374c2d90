package allocation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestGuard_WarnThenConfirm(t *testing.T) {
	g := NewGuard(DeliveryPolicy)
	req := Request{Budget: d(40), CommittedExcludingThis: d(35), Requested: d(10)}

	got := g.Check(req)
	assert.False(t, got.Accepted)
	require.NotNil(t, got.Warning)
	assert.True(t, d(5).Equal(got.Warning.Remaining))
	assert.True(t, d(5).Equal(got.Warning.OverBy))
	assert.True(t, d(40).Equal(got.Warning.Budget))
	assert.True(t, d(10).Equal(got.Warning.Requested))

	req.OverrideAccepted = true
	got = g.Check(req)
	assert.True(t, got.Accepted)
	assert.True(t, got.Overridden)
}

func TestGuard_ZeroBudgetIsUnbounded(t *testing.T) {
	g := NewGuard(AuthoringPolicy)
	got := g.Check(Request{Budget: decimal.Zero, CommittedExcludingThis: d(1000), Requested: d(500)})
	assert.True(t, got.Accepted)
	assert.Nil(t, got.Warning)
}

func TestGuard_WithinBudget(t *testing.T) {
	got := NewGuard(DeliveryPolicy).Check(Request{Budget: d(40), CommittedExcludingThis: d(30), Requested: d(10)})
	assert.True(t, got.Accepted)
	assert.Nil(t, got.Warning)
}

func TestGuard_AuthoringIgnoresOverride(t *testing.T) {
	got := NewGuard(AuthoringPolicy).Check(Request{Budget: d(10), CommittedExcludingThis: d(8), Requested: d(5), OverrideAccepted: true})
	assert.False(t, got.Accepted)
	require.NotNil(t, got.Warning)
	assert.True(t, d(3).Equal(got.Warning.OverBy))
}

func TestGuard_RemainingNeverNegative(t *testing.T) {
	got := NewGuard(DeliveryPolicy).Check(Request{Budget: d(10), CommittedExcludingThis: d(12), Requested: d(1)})
	require.NotNil(t, got.Warning)
	assert.True(t, got.Warning.Remaining.IsZero())
	assert.True(t, d(3).Equal(got.Warning.OverBy))
}

func TestGuard_DisabledPolicy(t *testing.T) {
	got := NewGuard(Policy{}).Check(Request{Budget: d(1), Requested: d(100)})
	assert.True(t, got.Accepted)
}

func TestValidateTimeEntry(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		hours     string
		date      time.Time
		milestone string
		fields    []string
	}{
		{"twelve hours accepted", "12", day, "m1", nil},
		{"over twelve rejected", "12.01", day, "m1", []string{"hours"}},
		{"zero rejected", "0", day, "m1", []string{"hours"}},
		{"missing date", "1", time.Time{}, "m1", []string{"entryDate"}},
		{"missing milestone", "1", day, "", []string{"projectMilestoneId"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ValidateTimeEntry(decimal.RequireFromString(tt.hours), tt.date, tt.milestone)
			assert.Len(t, v, len(tt.fields))
			for _, f := range tt.fields {
				assert.Contains(t, v, f)
			}
		})
	}
}
