//go:build unit

package httperr_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"homesit/internal/handler/httperr"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbortWithError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("writes the flat error body and records the cause", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		cause := errors.New("connection refused")
		httperr.AbortWithError(c, http.StatusInternalServerError, cause, "Event processing failed")

		assert.True(t, c.IsAborted())
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"Event processing failed"}`, rec.Body.String())

		require.Len(t, c.Errors, 1)
		assert.ErrorIs(t, c.Errors[0].Err, cause)
	})

	t.Run("tolerates a nil cause", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		httperr.AbortWithError(c, http.StatusBadRequest, nil, "Invalid request")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"Invalid request"}`, rec.Body.String())
		assert.Empty(t, c.Errors)
	})
}
