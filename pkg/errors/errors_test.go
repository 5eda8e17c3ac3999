package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error wins", New(ErrInternal, http.StatusTeapot, "brew"), http.StatusTeapot},
		{"invalid method", InvalidMethod("method", "bogus", []string{"jaccard"}), http.StatusBadRequest},
		{"wrapped not found", fmt.Errorf("lookup: %w", ErrCourseNotFound), http.StatusNotFound},
		{"invalid input", ErrInvalidInput, http.StatusBadRequest},
		{"course not found", CourseNotFound("marketing"), http.StatusNotFound},
		{"bad parameter", InvalidInput("limit must be positive"), http.StatusBadRequest},
		{"cache disabled", ErrCacheDisabled, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusCode(tt.err))
		})
	}
}

func TestInvalidMethodUnwraps(t *testing.T) {
	err := InvalidMethod("strategy", "pagerank", []string{"cosine", "smart"})
	assert.ErrorIs(t, err, ErrInvalidMethod)
	assert.Contains(t, err.Error(), `"pagerank"`)
}

func TestCourseNotFoundMessage(t *testing.T) {
	err := CourseNotFound("python-basico")
	assert.ErrorIs(t, err, ErrCourseNotFound)
	assert.Equal(t, `course not found: course "python-basico"`, err.Error())
}
