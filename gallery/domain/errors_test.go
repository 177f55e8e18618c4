package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{
			name: "network error",
			err:  NewError(KindNetwork, "fetch page", "", context.DeadlineExceeded),
			want: KindNetwork,
		},
		{
			name: "wrapped api error",
			err:  fmt.Errorf("submit: %w", NewAPIError("create image", 500, "boom")),
			want: KindAPI,
		},
		{
			name: "validation error",
			err:  &ValidationError{Fields: map[string]string{"title": "Please enter a title"}},
			want: KindValidation,
		},
		{
			name: "plain error",
			err:  errors.New("plain"),
			want: KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
			assert.True(t, IsKind(tt.err, tt.want))
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	err := NewError(KindNetwork, "fetch page", "", context.Canceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "network: fetch page: context canceled", err.Error())
}

func TestStatusCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewAPIError("create image", 422, "bad payload"))
	assert.Equal(t, 422, StatusCode(err))
	assert.Equal(t, 0, StatusCode(errors.New("plain")))
	assert.Contains(t, err.Error(), "status 422")
}

func TestValidationError_MessageIsStable(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{
		"title": "Title must be at least 3 characters",
		"file":  "File size must be less than 10MB",
	}}
	assert.Equal(t, "validation: file: File size must be less than 10MB; title: Title must be at least 3 characters", err.Error())
}

func TestIsKind_NilError(t *testing.T) {
	assert.False(t, IsKind(nil, KindUnknown))
}
