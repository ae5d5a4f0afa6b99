package errutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHttpError(t *testing.T) {
	errNotFound := NotFoundError(errors.New("campaign not found"))

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"nil", nil, http.StatusOK, ""},
		{"validation", ValidationError(errors.New("bad input")), http.StatusBadRequest, "bad input"},
		{"not found", errNotFound, http.StatusNotFound, "campaign not found"},
		{"wrapped not found", fmt.Errorf("get campaign: %w", errNotFound), http.StatusNotFound, "get campaign: campaign not found"},
		{"conflict", ConflictError(errors.New("dup")), http.StatusConflict, "dup"},
		{"unknown", errors.New("db down"), http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg := ParseHttpError(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestSentinelIdentity(t *testing.T) {
	errNoRecipients := ValidationError(errors.New("no recipients"))
	wrapped := fmt.Errorf("resolve: %w", errNoRecipients)

	assert.True(t, errors.Is(wrapped, errNoRecipients))
	assert.False(t, IsNotFound(wrapped))
	assert.True(t, IsNotFound(NotFoundError(errors.New("x"))))
	assert.Nil(t, ValidationError(nil))
}
