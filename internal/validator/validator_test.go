package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleForm struct {
	Email    string `json:"email" validate:"required,email"`
	PinCode  string `json:"pinCode" validate:"required,len=6,numeric"`
	ItemType string `form:"itemType" validate:"required,is-item-type"`
	Cond     string `form:"condition" validate:"omitempty,is-item-condition"`
	Unit     string `form:"rentUnit" validate:"omitempty,is-rent-unit"`
}

func TestValidate_FieldNamesAndMessages(t *testing.T) {
	v := New()

	err := v.Validate(&sampleForm{
		Email:    "not-an-email",
		PinCode:  "12ab56",
		ItemType: "swap",
		Cond:     "broken",
		Unit:     "year",
	})

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, map[string]string{
		"email":     "Must be a valid email address",
		"pinCode":   "Must contain only digits",
		"itemType":  "Must be one of: selling, lending, giveaway",
		"condition": "Must be one of: new, used",
		"rentUnit":  "Must be one of: hour, day, week, month",
	}, vErr.Errors)
	assert.Contains(t, vErr.Error(), "field 'condition'")
}

func TestValidate_Valid(t *testing.T) {
	v := New()

	err := v.Validate(&sampleForm{
		Email:    "student@abo.fi",
		PinCode:  "123456",
		ItemType: "lending",
		Unit:     "week",
	})

	assert.NoError(t, err)
}

func TestValidate_Required(t *testing.T) {
	err := New().Validate(&sampleForm{})

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "This field is required", vErr.Errors["email"])
	assert.Equal(t, "This field is required", vErr.Errors["itemType"])
	assert.NotContains(t, vErr.Errors, "condition")
}
