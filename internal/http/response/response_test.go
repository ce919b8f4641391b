package response

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOKWithData(t *testing.T) {
	resp := OKWithData(map[string]int{"days_left": 7})

	assert.Equal(t, StatusOK, resp.Status)
	assert.Empty(t, resp.Error)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"OK","data":{"days_left":7}}`, string(raw))
}

func TestError(t *testing.T) {
	resp := Error("plan not found")

	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "plan not found", resp.Error)
	assert.Empty(t, resp.Reason)
}

func TestAccessDenied(t *testing.T) {
	resp := AccessDenied("subscription required", "expired")

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"status":"Error","error":"subscription required","reason":"expired"}`,
		string(raw))
}

func TestValidationError(t *testing.T) {
	type request struct {
		Email    string `validate:"required,email"`
		Username string `validate:"required,alphanum"`
		Status   string `validate:"required,oneof=trial active expired inactive"`
	}

	err := validator.New().Struct(request{
		Email:    "not-an-email",
		Username: "***",
		Status:   "cancelled",
	})
	require.Error(t, err)

	resp := ValidationError(err.(validator.ValidationErrors))
	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Error, "field Email must be a valid email")
	assert.Contains(t, resp.Error, "field Username can contain only numbers and letters")
	assert.Contains(t, resp.Error, "field Status must be one of: trial active expired inactive")
}
