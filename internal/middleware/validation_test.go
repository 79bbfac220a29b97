package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/bookmed-api/internal/model"
)

func validationRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(Validation(DefaultValidationConfig()))
	router.PUT("/appointments", func(c *gin.Context) {
		var req model.UpdateAppointmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(err)
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func TestValidationRejectsUnknownStatus(t *testing.T) {
	router := validationRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/appointments", strings.NewReader(`{"status":"DONE"}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"status"`)
	assert.Contains(t, w.Body.String(), "Invalid appointment status")
}

func TestValidationAcceptsDefinedStatus(t *testing.T) {
	router := validationRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/appointments", strings.NewReader(`{"status":"CANCELLED"}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
