package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("%w: 'text' must be non-empty", ErrValidation), http.StatusBadRequest},
		{"auth", fmt.Errorf("%w: invalid key", ErrAuth), http.StatusUnauthorized},
		{"config", fmt.Errorf("%w: PERPLEXITY_API_KEY is not set", ErrConfig), http.StatusInternalServerError},
		{"provider", fmt.Errorf("%w: %w", ErrProvider, errors.New("dial tcp: refused")), http.StatusBadGateway},
		{"double wrapped", fmt.Errorf("ask: %w", fmt.Errorf("%w: boom", ErrProvider)), http.StatusBadGateway},
		{"unclassified", errors.New("something else"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}
