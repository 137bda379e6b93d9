package appointments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/clinic-booking/internal/sequence"
)

func newTestRouter(t *testing.T) (http.Handler, *InMemoryRepository) {
	t.Helper()
	repo := NewInMemoryRepository()
	now := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)
	svc := NewService(repo, sequence.NewMemoryAllocator(), nil, nil,
		WithLocation(time.UTC),
		WithClock(func() time.Time { return now }),
	)
	h := NewHandler(svc, nil)
	r := chi.NewRouter()
	h.PublicRoutes(r)
	h.StaffRoutes(r)
	return r, repo
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHandlerCreateAndConfirm(t *testing.T) {
	router, repo := newTestRouter(t)

	rr := doJSON(t, router, http.MethodPost, "/appointments/new",
		`{"fullName":"Rahim","mobile":"01711000000","datetime":"2025-10-05T10:00","appointmentType":"cardiology"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created struct {
		Message     string             `json:"message"`
		Appointment PendingAppointment `json:"appointment"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "Appointment created (pending confirmation)", created.Message)
	assert.Equal(t, "2025-10-05-001", created.Appointment.AppointmentNumber)

	rr = doJSON(t, router, http.MethodPost, "/appointments/new/"+created.Appointment.ID+"/confirm",
		`{"date":"2025-10-02","time":"09:30"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var confirmed struct {
		Message     string               `json:"message"`
		Appointment ConfirmedAppointment `json:"appointment"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &confirmed))
	assert.Equal(t, "Appointment confirmed", confirmed.Message)
	assert.True(t, time.Date(2025, 10, 2, 9, 30, 0, 0, time.UTC).Equal(confirmed.Appointment.ScheduledAt))

	_, err := repo.GetConfirmed(context.Background(), created.Appointment.ID)
	require.NoError(t, err)
}

func TestHandlerCreateMissingFields(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := doJSON(t, router, http.MethodPost, "/appointments/new",
		`{"fullName":"Rahim","datetime":"2025-10-05T10:00","appointmentType":"cardiology"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var body struct {
		Error  string   `json:"error"`
		Fields []string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, []string{"mobile"}, body.Fields)
}

func TestHandlerConfirmWithoutBody(t *testing.T) {
	router, _ := newTestRouter(t)
	rr := doJSON(t, router, http.MethodPost, "/appointments/new",
		`{"fullName":"Rahim","mobile":"017","datetime":"2025-10-05T10:00","appointmentType":"eye"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	var created struct {
		Appointment PendingAppointment `json:"appointment"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	rr = doJSON(t, router, http.MethodPost, "/appointments/new/"+created.Appointment.ID+"/confirm", "")
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestHandlerConfirmUnknownID(t *testing.T) {
	router, _ := newTestRouter(t)
	rr := doJSON(t, router, http.MethodPost, "/appointments/new/missing/confirm", "{}")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlerListPending(t *testing.T) {
	router, _ := newTestRouter(t)
	for range 3 {
		rr := doJSON(t, router, http.MethodPost, "/appointments/new",
			`{"fullName":"Rahim","mobile":"017","datetime":"2025-10-05T10:00","appointmentType":"eye"}`)
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	rr := doJSON(t, router, http.MethodGet, "/appointments/new?page=1&limit=2", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var page struct {
		Page       int                  `json:"page"`
		Total      int                  `json:"total"`
		TotalPages int                  `json:"totalPages"`
		Items      []PendingAppointment `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Items, 2)
}

func TestHandlerDeleteUnknownAccepted(t *testing.T) {
	router, _ := newTestRouter(t)
	rr := doJSON(t, router, http.MethodDelete, "/appointments/accepted/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
