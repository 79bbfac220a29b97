package appointment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/bookmed-api/internal/middleware"
	"github.com/jwalitptl/bookmed-api/internal/model"
	"github.com/jwalitptl/bookmed-api/internal/repository/memory"
	appointmentService "github.com/jwalitptl/bookmed-api/internal/service/appointment"
	authService "github.com/jwalitptl/bookmed-api/internal/service/auth"
	eventService "github.com/jwalitptl/bookmed-api/internal/service/event"
	jwtauth "github.com/jwalitptl/bookmed-api/pkg/auth"
	"github.com/jwalitptl/bookmed-api/pkg/logger"
	"github.com/jwalitptl/bookmed-api/pkg/security"
)

type env struct {
	router       *gin.Engine
	doctor       *model.User
	patient      *model.User
	doctorToken  string
	patientToken string
}

func setup(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := memory.NewUserRepository()
	appointments := memory.NewAppointmentRepository(users)
	outbox := memory.NewOutboxRepository()

	jwtSvc := jwtauth.NewJWTService("test-secret", 1)
	authSvc := authService.NewService(users, security.NewBcryptHasher(4), jwtSvc)
	svc := appointmentService.NewService(appointments, users, eventService.NewService(outbox), logger.NewLogger(nil))

	ctx := context.Background()
	spec := "Cardiology"
	doctor := &model.User{Name: "Dr. House", Email: "house@example.com", Role: model.RoleDoctor, Specialization: &spec}
	require.NoError(t, users.Create(ctx, doctor))
	patient := &model.User{Name: "John Smith", Email: "john@example.com", Role: model.RolePatient}
	require.NoError(t, users.Create(ctx, patient))

	doctorToken, err := jwtSvc.GenerateAccessToken(doctor)
	require.NoError(t, err)
	patientToken, err := jwtSvc.GenerateAccessToken(patient)
	require.NoError(t, err)

	router := gin.New()
	router.Use(middleware.Validation(middleware.DefaultValidationConfig()))
	api := router.Group("/api/v1")
	NewHandler(svc).RegisterRoutes(api, middleware.NewAuthMiddleware(authSvc))

	return &env{
		router:       router,
		doctor:       doctor,
		patient:      patient,
		doctorToken:  doctorToken,
		patientToken: patientToken,
	}
}

func (e *env) request(t *testing.T, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func tomorrow() string {
	d := time.Now().AddDate(0, 0, 2)
	return time.Date(d.Year(), d.Month(), d.Day(), 10, 0, 0, 0, time.UTC).Format(time.RFC3339)
}

func (e *env) bookAppointment(t *testing.T) string {
	t.Helper()
	w, resp := e.request(t, http.MethodPost, "/api/v1/appointments", map[string]interface{}{
		"doctorId":  e.doctor.ID.String(),
		"patientId": e.patient.ID.String(),
		"date":      tomorrow(),
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	data := resp["data"].(map[string]interface{})
	return data["id"].(string)
}

func TestCreateAppointmentEndpoint(t *testing.T) {
	e := setup(t)

	t.Run("created", func(t *testing.T) {
		w, resp := e.request(t, http.MethodPost, "/api/v1/appointments", map[string]interface{}{
			"doctorId":  e.doctor.ID.String(),
			"patientId": e.patient.ID.String(),
			"date":      tomorrow(),
		}, "")
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, true, resp["success"])

		data := resp["data"].(map[string]interface{})
		assert.Equal(t, "PENDING", data["status"])
		doctor := data["doctor"].(map[string]interface{})
		assert.Equal(t, "Dr. House", doctor["name"])
		assert.Equal(t, "Cardiology", doctor["specialization"])
	})

	t.Run("slot conflict", func(t *testing.T) {
		w, resp := e.request(t, http.MethodPost, "/api/v1/appointments", map[string]interface{}{
			"doctorId":  e.doctor.ID.String(),
			"patientId": e.patient.ID.String(),
			"date":      tomorrow(),
		}, "")
		assert.Equal(t, http.StatusConflict, w.Code)
		errObj := resp["error"].(map[string]interface{})
		assert.Equal(t, "this time slot is already booked", errObj["message"])
	})

	t.Run("missing fields", func(t *testing.T) {
		w, _ := e.request(t, http.MethodPost, "/api/v1/appointments", map[string]interface{}{
			"patientId": e.patient.ID.String(),
		}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("past date", func(t *testing.T) {
		w, _ := e.request(t, http.MethodPost, "/api/v1/appointments", map[string]interface{}{
			"doctorId":  e.doctor.ID.String(),
			"patientId": e.patient.ID.String(),
			"date":      time.Now().Add(-time.Hour).Format(time.RFC3339),
		}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown doctor", func(t *testing.T) {
		w, _ := e.request(t, http.MethodPost, "/api/v1/appointments", map[string]interface{}{
			"doctorId":  "b7cf0c4e-9d6d-4f9a-a0d6-111111111111",
			"patientId": e.patient.ID.String(),
			"date":      tomorrow(),
		}, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGetAppointmentEndpoint(t *testing.T) {
	e := setup(t)
	id := e.bookAppointment(t)

	w, resp := e.request(t, http.MethodGet, "/api/v1/appointments/"+id, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, id, data["id"])

	w, _ = e.request(t, http.MethodGet, "/api/v1/appointments/b7cf0c4e-9d6d-4f9a-a0d6-222222222222", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = e.request(t, http.MethodGet, "/api/v1/appointments/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateAppointmentEndpoint(t *testing.T) {
	e := setup(t)

	t.Run("requires auth", func(t *testing.T) {
		id := e.bookAppointment(t)
		w, _ := e.request(t, http.MethodPut, "/api/v1/appointments/"+id, map[string]interface{}{
			"status": "COMPLETED",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("doctor completes", func(t *testing.T) {
		e := setup(t)
		id := e.bookAppointment(t)
		w, resp := e.request(t, http.MethodPut, "/api/v1/appointments/"+id, map[string]interface{}{
			"status": "COMPLETED",
		}, e.doctorToken)
		assert.Equal(t, http.StatusOK, w.Code)
		data := resp["data"].(map[string]interface{})
		assert.Equal(t, "COMPLETED", data["status"])
	})

	t.Run("patient cannot complete", func(t *testing.T) {
		e := setup(t)
		id := e.bookAppointment(t)
		w, _ := e.request(t, http.MethodPut, "/api/v1/appointments/"+id, map[string]interface{}{
			"status": "COMPLETED",
		}, e.patientToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("invalid status", func(t *testing.T) {
		e := setup(t)
		id := e.bookAppointment(t)
		w, _ := e.request(t, http.MethodPut, "/api/v1/appointments/"+id, map[string]interface{}{
			"status": "DONE",
		}, e.doctorToken)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCancelAppointmentEndpoint(t *testing.T) {
	e := setup(t)
	id := e.bookAppointment(t)

	t.Run("requires auth", func(t *testing.T) {
		w, _ := e.request(t, http.MethodDelete, "/api/v1/appointments/"+id, nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w, _ = e.request(t, http.MethodDelete, "/api/v1/appointments/"+id, nil, "garbage")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("patient cancels", func(t *testing.T) {
		w, resp := e.request(t, http.MethodDelete, "/api/v1/appointments/"+id, nil, e.patientToken)
		assert.Equal(t, http.StatusOK, w.Code)
		data := resp["data"].(map[string]interface{})
		assert.Equal(t, "CANCELLED", data["status"])
	})

	t.Run("cancel is terminal", func(t *testing.T) {
		w, _ := e.request(t, http.MethodDelete, "/api/v1/appointments/"+id, nil, e.patientToken)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestListEndpoints(t *testing.T) {
	e := setup(t)

	d := time.Now().AddDate(0, 0, 2)
	for hour := 9; hour < 12; hour++ {
		slot := time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, time.UTC).Format(time.RFC3339)
		w, _ := e.request(t, http.MethodPost, "/api/v1/appointments", map[string]interface{}{
			"doctorId":  e.doctor.ID.String(),
			"patientId": e.patient.ID.String(),
			"date":      slot,
		}, "")
		require.Equal(t, http.StatusCreated, w.Code)
	}

	t.Run("doctor listing paginated", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/appointments/doctor/%s?page=1&limit=2", e.doctor.ID)
		w, resp := e.request(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusOK, w.Code)

		data := resp["data"].(map[string]interface{})
		items := data["data"].([]interface{})
		assert.Len(t, items, 2)

		pagination := data["pagination"].(map[string]interface{})
		assert.Equal(t, float64(3), pagination["total"])
		assert.Equal(t, float64(2), pagination["totalPages"])

		first := items[0].(map[string]interface{})
		patient := first["patient"].(map[string]interface{})
		assert.Equal(t, "John Smith", patient["name"])
	})

	t.Run("patient listing", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/appointments/patient/%s", e.patient.ID)
		w, resp := e.request(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		data := resp["data"].(map[string]interface{})
		pagination := data["pagination"].(map[string]interface{})
		assert.Equal(t, float64(3), pagination["total"])
	})

	t.Run("status filter", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/appointments/doctor/%s?status=CANCELLED", e.doctor.ID)
		w, resp := e.request(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		data := resp["data"].(map[string]interface{})
		pagination := data["pagination"].(map[string]interface{})
		assert.Equal(t, float64(0), pagination["total"])
		assert.Equal(t, float64(0), pagination["totalPages"])
	})

	t.Run("invalid status filter", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/appointments/doctor/%s?status=NOPE", e.doctor.ID)
		w, _ := e.request(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("date filter", func(t *testing.T) {
		day := time.Now().AddDate(0, 0, 2).Format("2006-01-02")
		path := fmt.Sprintf("/api/v1/appointments/doctor/%s?date=%s", e.doctor.ID, day)
		w, resp := e.request(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		data := resp["data"].(map[string]interface{})
		pagination := data["pagination"].(map[string]interface{})
		assert.Equal(t, float64(3), pagination["total"])
	})

	t.Run("malformed date", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/appointments/doctor/%s?date=21-05-2025", e.doctor.ID)
		w, _ := e.request(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown doctor", func(t *testing.T) {
		w, _ := e.request(t, http.MethodGet, "/api/v1/appointments/doctor/b7cf0c4e-9d6d-4f9a-a0d6-333333333333", nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("global listing", func(t *testing.T) {
		w, resp := e.request(t, http.MethodGet, "/api/v1/appointments", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		data := resp["data"].(map[string]interface{})
		pagination := data["pagination"].(map[string]interface{})
		assert.Equal(t, float64(3), pagination["total"])
	})

	t.Run("global listing by doctor and status", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/appointments?doctorId=%s&status=PENDING", e.doctor.ID)
		w, resp := e.request(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		data := resp["data"].(map[string]interface{})
		pagination := data["pagination"].(map[string]interface{})
		assert.Equal(t, float64(3), pagination["total"])
	})

	t.Run("global listing by patient", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/appointments?patientId=%s&limit=2", e.patient.ID)
		w, resp := e.request(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		data := resp["data"].(map[string]interface{})
		items := data["data"].([]interface{})
		assert.Len(t, items, 2)
		pagination := data["pagination"].(map[string]interface{})
		assert.Equal(t, float64(2), pagination["totalPages"])
	})

	t.Run("global listing with unmatched doctor", func(t *testing.T) {
		w, resp := e.request(t, http.MethodGet, "/api/v1/appointments?doctorId=b7cf0c4e-9d6d-4f9a-a0d6-333333333333", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		data := resp["data"].(map[string]interface{})
		pagination := data["pagination"].(map[string]interface{})
		assert.Equal(t, float64(0), pagination["total"])
	})

	t.Run("global listing with malformed doctor id", func(t *testing.T) {
		w, _ := e.request(t, http.MethodGet, "/api/v1/appointments?doctorId=nope", nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
