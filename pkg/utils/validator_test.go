package utils

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/turtacn/genguard/pkg/errors"
)

type promptRequest struct {
	RawPrompt string `validate:"notblank,max=20"`
	Source    string `validate:"omitempty,oneof=custom suggestion"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		assert.Nil(t, ValidateStruct(&promptRequest{RawPrompt: "a red fox", Source: "custom"}))
	})

	t.Run("blank prompt", func(t *testing.T) {
		err := ValidateStruct(&promptRequest{RawPrompt: "   "})
		require.NotNil(t, err)
		assert.Equal(t, apperrors.CodeInvalidRequest, err.Code())
		assert.Equal(t, http.StatusBadRequest, err.HTTPStatus())
		assert.Contains(t, err.Message(), "raw_prompt is required")
	})

	t.Run("bad source and long prompt", func(t *testing.T) {
		err := ValidateStruct(&promptRequest{RawPrompt: "this prompt is far too long", Source: "robot"})
		require.NotNil(t, err)
		assert.Contains(t, err.Message(), "raw_prompt must be at most 20 characters")
		assert.Contains(t, err.Message(), "source must be one of: custom suggestion")
	})
}
