package schedules

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func newScheduleRouter() http.Handler {
	r := chi.NewRouter()
	NewHandler(NewMemoryStore(), nil).Routes(r)
	return r
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rr
}

func TestScheduleHandlerLifecycle(t *testing.T) {
	h := newScheduleRouter()
	body := `{"appointmentType":"cardiology","schedule":[{"id":"mon","label":"Monday","mode":"custom","ranges":[{"open":"09:00","close":"12:00"}]}]}`

	assert.Equal(t, http.StatusCreated, serve(h, http.MethodPost, "/schedule/schedules", body).Code)

	rr := serve(h, http.MethodGet, "/schedule/schedules/cardiology", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"mode":"custom"`)

	rr = serve(h, http.MethodPut, "/schedule/schedules/cardiology", `{"schedule":[{"id":"tue","label":"Tuesday","mode":"24h"}]}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"id":"tue"`)

	rr = serve(h, http.MethodGet, "/schedule/schedules", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "cardiology")

	assert.Equal(t, http.StatusOK, serve(h, http.MethodDelete, "/schedule/schedules/cardiology", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/schedule/schedules/cardiology", "").Code)
}

func TestScheduleHandlerValidation(t *testing.T) {
	h := newScheduleRouter()
	rr := serve(h, http.MethodPost, "/schedule/schedules", `{"appointmentType":"eye","schedule":[{"id":"mon","label":"Monday","mode":"custom"}]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "schedule[0].ranges")
}

func TestScheduleHandlerRequiresDayLabel(t *testing.T) {
	h := newScheduleRouter()
	rr := serve(h, http.MethodPost, "/schedule/schedules", `{"appointmentType":"eye","schedule":[{"id":"mon","label":"  ","mode":"24h"}]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "schedule[0].label")
}

func TestScheduleHandlerUpdateMissing(t *testing.T) {
	h := newScheduleRouter()
	rr := serve(h, http.MethodPut, "/schedule/schedules/none", `{"schedule":[{"id":"mon","label":"Monday","mode":"24h"}]}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
