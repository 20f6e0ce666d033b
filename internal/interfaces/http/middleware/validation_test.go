package middleware

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusPayload struct {
	Status string `json:"status" binding:"required,order_status"`
}

func sharedValidator(t *testing.T) *validator.Validate {
	t.Helper()
	SetupValidator()
	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)
	return v
}

func TestOrderStatusTag(t *testing.T) {
	v := sharedValidator(t)

	assert.NoError(t, v.Struct(statusPayload{Status: "approved"}))
	assert.Error(t, v.Struct(statusPayload{Status: "shipped"}))
}

func TestFormatValidationErrors(t *testing.T) {
	v := sharedValidator(t)

	err := v.Struct(statusPayload{Status: "shipped"})
	require.Error(t, err)

	msg := FormatValidationErrors(err)
	assert.Contains(t, msg, "status")
	assert.Contains(t, msg, "Unknown order status")
}

func TestFormatValidationErrorsPassthrough(t *testing.T) {
	err := errors.New("plain failure")
	assert.Equal(t, "plain failure", FormatValidationErrors(err))
}
