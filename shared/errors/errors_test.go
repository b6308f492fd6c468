package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusCode(NotFound("nope")))
	assert.Equal(t, http.StatusBadRequest, StatusCode(BadRequest("bad")))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(New("boom")))

	wrapped := fmt.Errorf("lookup: %w", NotFound("reply address not found"))
	assert.True(t, IsNotFound(wrapped))

	v := &ValidationError{}
	v.Add("post", "post is required")
	assert.Equal(t, http.StatusBadRequest, StatusCode(fmt.Errorf("save: %w", v)))
}

func TestValidationError(t *testing.T) {
	t.Run("empty collects to nil", func(t *testing.T) {
		v := &ValidationError{}
		assert.NoError(t, v.OrNil())
	})

	t.Run("message is sorted by field", func(t *testing.T) {
		v := &ValidationError{}
		v.Add("revision_type", "value %d is not a valid revision type", 4)
		v.Add(NonFieldErrors, "revision type does not match post type")
		v.Add(NonFieldErrors, "revision %d already exists for this post", 2)

		err := v.OrNil()
		require.Error(t, err)
		assert.True(t, v.Has(NonFieldErrors))
		assert.False(t, v.Has("post"))
		assert.Equal(t,
			"__all__: revision type does not match post type; revision 2 already exists for this post; revision_type: value 4 is not a valid revision type",
			err.Error())

		var got *ValidationError
		require.True(t, As(fmt.Errorf("wrap: %w", err), &got))
		assert.Len(t, got.Violations[NonFieldErrors], 2)
	})
}
