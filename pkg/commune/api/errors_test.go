package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/commune-dev/commune/pkg/commune"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"page not found", commune.ErrPageNotFound, http.StatusNotFound},
		{"object not found", commune.ErrObjectNotFound, http.StatusNotFound},
		{"name taken", commune.ErrNameTaken, http.StatusConflict},
		{"page exists", commune.ErrPageExists, http.StatusConflict},
		{"post exists", commune.ErrPostExists, http.StatusConflict},
		{"invalid parent kind", commune.ErrInvalidParentKind, http.StatusBadRequest},
		{
			"store failure",
			&commune.StoreError{Collection: "pages", Op: "find", Err: errors.New("timeout")},
			http.StatusBadGateway,
		},
		{"anything else", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
