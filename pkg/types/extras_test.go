package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtrasAdditivePrice(t *testing.T) {
	extras := Extras{
		Layout:  &LayoutExtra{Price: decimal.RequireFromString("5.00")},
		Cutting: &CuttingExtra{Pieces: 3, Price: decimal.RequireFromString("2.50")},
	}
	assert.True(t, extras.AdditivePrice().Equal(decimal.RequireFromString("7.50")))
	assert.False(t, extras.HasPrioritize())

	extras.Prioritize = &PrioritizeExtra{}
	assert.True(t, extras.HasPrioritize())
	// prioritize never contributes to the additive total
	assert.True(t, extras.AdditivePrice().Equal(decimal.RequireFromString("7.50")))
}

func TestExtrasValidate(t *testing.T) {
	bad := Extras{Cutting: &CuttingExtra{Pieces: 0, Price: decimal.NewFromInt(1)}}
	require.Error(t, bad.Validate())

	bad = Extras{Layout: &LayoutExtra{Price: decimal.NewFromInt(-1)}}
	require.Error(t, bad.Validate())

	ok := Extras{Prioritize: &PrioritizeExtra{}}
	require.NoError(t, ok.Validate())
}

func TestExtrasScanRoundTrip(t *testing.T) {
	src := Extras{
		Layout:     &LayoutExtra{Description: "repeat pattern", Price: decimal.RequireFromString("12.00")},
		Prioritize: &PrioritizeExtra{},
	}
	val, err := src.Value()
	require.NoError(t, err)

	var dst Extras
	require.NoError(t, dst.Scan([]byte(val.(string))))
	require.NotNil(t, dst.Layout)
	assert.Equal(t, "repeat pattern", dst.Layout.Description)
	assert.True(t, dst.Layout.Price.Equal(decimal.RequireFromString("12.00")))
	assert.True(t, dst.HasPrioritize())
	assert.Nil(t, dst.Cutting)
}

func TestExtrasRejectsUnknownColumnType(t *testing.T) {
	var dst Extras
	require.Error(t, dst.Scan(42))
}

func TestExtrasJSONShape(t *testing.T) {
	raw, err := json.Marshal(Extras{Cutting: &CuttingExtra{Pieces: 2, Price: decimal.NewFromInt(4)}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"cutting":{"pieces":2,"price":"4"}}`, string(raw))
}
