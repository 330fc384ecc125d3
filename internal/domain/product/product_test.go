package product

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestEffectivePrice_AllTiersSet(t *testing.T) {
	p := Product{
		Price:       dec("50000"),
		Price3Items: dec("45000"),
		Price5Items: dec("40000"),
	}

	assert.True(t, dec("50000").Equal(p.EffectivePrice(1)))
	assert.True(t, dec("50000").Equal(p.EffectivePrice(2)))
	assert.True(t, dec("45000").Equal(p.EffectivePrice(3)))
	assert.True(t, dec("45000").Equal(p.EffectivePrice(4)))
	assert.True(t, dec("40000").Equal(p.EffectivePrice(5)))
	assert.True(t, dec("40000").Equal(p.EffectivePrice(100)))
}

func TestEffectivePrice_MissingTierFallsThrough(t *testing.T) {
	// No 5+ tier: quantities of 5 and above take the 3+ tier.
	p := Product{
		Price:       dec("50000"),
		Price3Items: dec("45000"),
	}
	assert.True(t, dec("45000").Equal(p.EffectivePrice(5)))

	// No tiers at all: base price regardless of quantity.
	base := Product{Price: dec("20000")}
	assert.True(t, dec("20000").Equal(base.EffectivePrice(10)))
}

func TestEffectivePrice_MonotonicNonIncreasing(t *testing.T) {
	p := Product{
		Price:       dec("50000"),
		Price3Items: dec("45000"),
		Price5Items: dec("40000"),
	}

	prev := p.EffectivePrice(1)
	for q := 2; q <= 20; q++ {
		curr := p.EffectivePrice(q)
		assert.True(t, curr.LessThanOrEqual(prev), "price increased at quantity %d", q)
		prev = curr
	}
}

func TestValidateTierPrices(t *testing.T) {
	valid := Product{Price: dec("50000"), Price3Items: dec("45000"), Price5Items: dec("40000")}
	require.NoError(t, valid.ValidateTierPrices())

	// A missing 3+ tier compares the 5+ tier against the base price.
	sparse := Product{Price: dec("50000"), Price5Items: dec("48000")}
	require.NoError(t, sparse.ValidateTierPrices())

	inverted3 := Product{Price: dec("50000"), Price3Items: dec("55000")}
	require.Error(t, inverted3.ValidateTierPrices())

	inverted5 := Product{Price: dec("50000"), Price3Items: dec("45000"), Price5Items: dec("46000")}
	require.Error(t, inverted5.ValidateTierPrices())
}

func TestAdjustPrice(t *testing.T) {
	tests := []struct {
		name       string
		price      string
		percentage string
		want       string
	}{
		{"plus five", "100000", "5", "105000"},
		{"minus five", "100000", "-5", "95000"},
		{"zero delta rounds up", "123450", "0", "123500"},
		{"already aligned", "100000", "0", "100000"},
		{"rounds up not to nearest", "100000", "0.01", "100100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AdjustPrice(dec(tt.price), dec(tt.percentage))
			assert.True(t, dec(tt.want).Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestMakeSlug(t *testing.T) {
	s := MakeSlug("Kampas Rem Depan RX-King")
	require.True(t, strings.HasPrefix(s, "kampas-rem-depan-rx-king-"))
	assert.Len(t, s, len("kampas-rem-depan-rx-king-")+6)

	// Same name produces distinct slugs.
	assert.NotEqual(t, MakeSlug("Busi NGK"), MakeSlug("Busi NGK"))
}

func TestListFilterOffset(t *testing.T) {
	assert.Equal(t, 0, ListFilter{Page: 0, PerPage: 20}.Offset())
	assert.Equal(t, 0, ListFilter{Page: 1, PerPage: 20}.Offset())
	assert.Equal(t, 40, ListFilter{Page: 3, PerPage: 20}.Offset())
}
