package utils

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineInput struct {
	Quantity decimal.Decimal `json:"quantity" validate:"gte=0"`
}

type sampleInput struct {
	Name  string           `json:"name" validate:"required"`
	Email string           `json:"email" validate:"omitempty,email"`
	Rate  *decimal.Decimal `json:"rate" validate:"omitempty,gte=0,lte=100"`
	Lines []lineInput      `json:"lines" validate:"dive"`
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	err := Validate(sampleInput{Email: "nope"})
	require.Error(t, err)

	appErr := AsAppError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, CodeValidation, appErr.Code)
	assert.Equal(t, "name", appErr.Field)

	details, ok := appErr.Details.([]FieldError)
	require.True(t, ok)
	require.Len(t, details, 2)
	assert.Equal(t, "email", details[1].Field)
	assert.Equal(t, "email", details[1].Rule)
}

func TestValidateDecimalBounds(t *testing.T) {
	over := decimal.NewFromInt(150)
	err := Validate(sampleInput{Name: "x", Rate: &over})
	require.Error(t, err)
	assert.Equal(t, "rate", AsAppError(err).Field)

	ok := decimal.RequireFromString("12.5")
	assert.NoError(t, Validate(sampleInput{Name: "x", Rate: &ok}))
}

func TestValidateNestedPath(t *testing.T) {
	err := Validate(sampleInput{Name: "x", Lines: []lineInput{{Quantity: decimal.NewFromInt(1)}, {Quantity: decimal.NewFromInt(-1)}}})
	require.Error(t, err)
	assert.Equal(t, "lines[1].quantity", AsAppError(err).Field)
}
