package validator

import (
	"net/http"
	"testing"

	"github.com/ayushbirla71/survey-backend/pkg/errutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID *string `json:"id" validate:"required"`
}

type sampleRequest struct {
	Name  *string  `json:"name" validate:"required,min=1,max=10"`
	Email *string  `json:"email,omitempty" validate:"omitempty,email"`
	Items []*item  `json:"items" validate:"omitempty,dive"`
	Limit *uint32  `schema:"limit" validate:"omitempty,max=100"`
	Tags  []string `json:"-"`
}

func strPtr(s string) *string { return &s }

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(&sampleRequest{Name: strPtr("ok")}))

	err := Validate(&sampleRequest{})
	require.Error(t, err)
	code, msg := errutil.ParseHttpError(err)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid name: must satisfy required", msg)

	err = Validate(&sampleRequest{Name: strPtr("ok"), Email: strPtr("not-an-email")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email")

	err = Validate(&sampleRequest{Name: strPtr("ok"), Items: []*item{{}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "items[0].id")

	limit := uint32(1000)
	err = Validate(&sampleRequest{Name: strPtr("ok"), Limit: &limit})
	require.Error(t, err)
	assert.Equal(t, "invalid limit: must satisfy max=100", err.Error())
}
