package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Platform string `json:"platform" validate:"required,oneof=tiktok instagram"`
	Count    *int   `json:"videoCount" validate:"omitempty,min=10,max=200"`
}

func TestValidateStruct(t *testing.T) {
	n := 50
	require.NoError(t, ValidateStruct(sampleRequest{Platform: "tiktok", Count: &n}))
	require.NoError(t, ValidateStruct(sampleRequest{Platform: "instagram"}))

	err := ValidateStruct(sampleRequest{Platform: "youtube"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "platform must be one of: tiktok, instagram")

	small := 9
	err = ValidateStruct(sampleRequest{Platform: "tiktok", Count: &small})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "videoCount must be at least 10")
}
