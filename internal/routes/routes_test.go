package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"clinicdesk/docs"
	"clinicdesk/internal/handlers"
	"clinicdesk/internal/monitoring"
	"clinicdesk/internal/pdf"
	"clinicdesk/internal/repositories"
	"clinicdesk/internal/scheduler"
	"clinicdesk/internal/services"
	"clinicdesk/internal/session"
)

const deskToken = "desk-token"

// 2024-06-05 is a Wednesday
var clinicNow = time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC)

// deskAuth accepts deskToken and delegates everything else to the real
// auth service.
type deskAuth struct {
	services.AuthService
}

func (a deskAuth) ParseAccessToken(ctx context.Context, token string) (session.Identity, error) {
	if token == deskToken {
		return session.Identity{UserID: 1, Email: "desk@clinic.test", SessionID: "user-1"}, nil
	}
	return a.AuthService.ParseAccessToken(ctx, token)
}

type testEnv struct {
	router *gin.Engine
	mock   sqlmock.Sqlmock
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := zap.NewNop()
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	clock := scheduler.FixedClock(clinicNow, time.UTC)
	tracker := session.NewTracker()

	users := repositories.NewUserRepository(db)
	clients := repositories.NewClientRepository(db)
	appointments := repositories.NewAppointmentRepository(db, time.UTC)

	auth := services.NewAuthService(users, session.NewMemoryDenylist(), tracker, "test-secret", 15*time.Minute, time.Hour, log)
	reset := services.NewPasswordResetService(users, repositories.NewPasswordResetRepository(db), nil, auth, log)

	h := Handlers{
		Auth:    handlers.NewAuthHandler(auth, reset, tracker),
		Clients: handlers.NewClientHandler(services.NewClientService(clients, log, metrics, nil)),
		Appointments: handlers.NewAppointmentHandler(
			services.NewAppointmentService(appointments, clients, clock, log, metrics, nil, nil),
			pdf.NewDaySheetGenerator("Test Clinic", ""),
		),
		Overview: handlers.NewOverviewHandler(services.NewOverviewService(appointments, clients, clock, log)),
	}

	r := gin.New()
	SetupRoutes(r, h, deskAuth{auth}, metrics)
	return &testEnv{router: r, mock: mock}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+deskToken)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

var appointmentCols = []string{
	"id", "appointment_number", "client_name", "client_id_number", "appointment_at",
	"reason", "cost", "attending_doctor", "notes", "created_at",
}

var clientCols = []string{"id", "id_number", "name", "phone", "email", "address", "created_at"}

func TestPublicEndpoints(t *testing.T) {
	env := newEnv(t)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/clients", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestClients_List(t *testing.T) {
	env := newEnv(t)
	env.mock.ExpectQuery("FROM clients\\s+ORDER BY created_at DESC").
		WillReturnRows(sqlmock.NewRows(clientCols).
			AddRow(int64(2), "B-2", "Bea", nil, nil, nil, clinicNow).
			AddRow(int64(1), "A-1", "Ana", "555", nil, nil, clinicNow.Add(-time.Hour)))

	w := env.do(http.MethodGet, "/api/clients", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["clients"], 2)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestClients_ListFailureRendersEmpty(t *testing.T) {
	env := newEnv(t)
	env.mock.ExpectQuery("FROM clients").WillReturnError(&pq.Error{Code: "08006", Message: "connection failure"})

	w := env.do(http.MethodGet, "/api/clients", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Failed to load clients.", body["error"])
	assert.Empty(t, body["clients"])
}

func TestClients_CreateDuplicate(t *testing.T) {
	env := newEnv(t)
	env.mock.ExpectQuery("INSERT INTO clients").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	w := env.do(http.MethodPost, "/api/clients", `{"id_number":"A-1","name":"Ana"}`)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "A client with this id number already exists.", decode(t, w)["error"])
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestClients_CreateRequiresIDNumber(t *testing.T) {
	env := newEnv(t)

	w := env.do(http.MethodPost, "/api/clients", `{"name":"Ana"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestClients_DeleteNeedsConfirmation(t *testing.T) {
	env := newEnv(t)

	w := env.do(http.MethodDelete, "/api/clients/3", "")
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestClients_DeleteConfirmed(t *testing.T) {
	env := newEnv(t)
	env.mock.ExpectExec("DELETE FROM clients").WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectQuery("FROM clients").WillReturnRows(sqlmock.NewRows(clientCols))

	w := env.do(http.MethodDelete, "/api/clients/3?confirm=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "client deleted", decode(t, w)["message"])
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

const bookingBody = `{"client_id_number":"A-1","client_name":"Ana","date":"2024-06-05","time":"10:00","reason":"cleaning","cost":40}`

func TestAppointments_SubmitConflict(t *testing.T) {
	env := newEnv(t)
	env.mock.ExpectQuery("INSERT INTO appointments").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	w := env.do(http.MethodPost, "/api/appointments/submit", bookingBody)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "An appointment already exists at this time. Please choose another time.", decode(t, w)["error"])
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestAppointments_SubmitUnknownClient(t *testing.T) {
	env := newEnv(t)
	env.mock.ExpectQuery("INSERT INTO appointments").
		WillReturnError(&pq.Error{Code: "23503", Message: "client A-1 is not registered"})

	w := env.do(http.MethodPost, "/api/appointments/submit", bookingBody)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "The client with this id number does not exist. Register the client first.", decode(t, w)["error"])
}

func TestAppointments_SubmitOtherFailureShowsStoreMessage(t *testing.T) {
	env := newEnv(t)
	env.mock.ExpectQuery("INSERT INTO appointments").
		WillReturnError(&pq.Error{Code: "57014", Message: "canceling statement due to statement timeout"})

	w := env.do(http.MethodPost, "/api/appointments/submit", bookingBody)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "canceling statement due to statement timeout", decode(t, w)["error"])
}

func TestAppointments_SubmitMissingReasonNeverTouchesStore(t *testing.T) {
	env := newEnv(t)

	w := env.do(http.MethodPost, "/api/appointments/submit",
		`{"client_id_number":"A-1","client_name":"Ana","date":"2024-06-05","time":"10:00"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestAppointments_SubmitCreatesAndReloads(t *testing.T) {
	env := newEnv(t)
	at := time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC)
	env.mock.ExpectQuery("INSERT INTO appointments").
		WithArgs("Ana", "A-1", "2024-06-05T10:00:00", "cleaning", int64(40), nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "appointment_number", "created_at"}).AddRow(int64(9), int64(3), clinicNow))
	env.mock.ExpectQuery("FROM appointments ORDER BY appointment_at ASC").
		WillReturnRows(sqlmock.NewRows(appointmentCols).
			AddRow(int64(9), int64(3), "Ana", "A-1", at, "cleaning", int64(40), nil, nil, clinicNow))

	w := env.do(http.MethodPost, "/api/appointments/submit", bookingBody)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "appointment created", body["message"])
	assert.Len(t, body["appointments"], 1)

	form := body["form"].(map[string]any)
	assert.Equal(t, "2024-06-05", form["date"])
	assert.Equal(t, "09:00", form["time"])
	assert.Nil(t, form["editing_id"])
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestAppointments_Board(t *testing.T) {
	env := newEnv(t)
	env.mock.ExpectQuery("FROM appointments ORDER BY appointment_at ASC").
		WillReturnRows(sqlmock.NewRows(appointmentCols).
			AddRow(int64(1), int64(1), "Ana", "A-1", time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC), "cleaning", nil, nil, nil, clinicNow).
			AddRow(int64(2), int64(2), "Bea", "B-2", time.Date(2024, 6, 6, 10, 0, 0, 0, time.UTC), "filling", nil, nil, nil, clinicNow))

	w := env.do(http.MethodGet, "/api/appointments/board?date=2024-06-05", "")
	require.Equal(t, http.StatusOK, w.Code)
	board := decode(t, w)["board"].(map[string]any)
	assert.Equal(t, "1 appointment scheduled", board["summary"])

	slots := board["slots"].([]any)
	require.Len(t, slots, 10)
	ten := slots[2].(map[string]any)
	assert.Equal(t, "10:00", ten["time"])
	assert.Equal(t, "occupied", ten["status"])
	assert.Equal(t, "N/A", ten["appointment"].(map[string]any)["doctor"])
}

func TestAppointments_BoardRejectsBadInput(t *testing.T) {
	env := newEnv(t)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/appointments/board?view=calendar", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/appointments/board?date=5/6/2024", "").Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestAppointments_CancelEditMakesNoStoreCall(t *testing.T) {
	env := newEnv(t)

	w := env.do(http.MethodGet, "/api/appointments/form", "")
	require.Equal(t, http.StatusOK, w.Code)
	form := decode(t, w)["form"].(map[string]any)
	assert.Equal(t, "2024-06-05", form["date"])
	assert.Equal(t, "09:00", form["time"])
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestAppointments_FormSelectsClientFromRoster(t *testing.T) {
	env := newEnv(t)
	env.mock.ExpectQuery("SELECT id_number, name FROM clients ORDER BY name ASC").
		WillReturnRows(sqlmock.NewRows([]string{"id_number", "name"}).AddRow("A-1", "Ana"))

	w := env.do(http.MethodGet, "/api/appointments/form?client_id_number=A-1&time=11:00", "")
	require.Equal(t, http.StatusOK, w.Code)
	form := decode(t, w)["form"].(map[string]any)
	assert.Equal(t, "Ana", form["client_name"])
	assert.Equal(t, "11:00", form["time"])
}

func TestAppointments_EditFormNotFound(t *testing.T) {
	env := newEnv(t)
	env.mock.ExpectQuery("FROM appointments WHERE id=\\$1").WithArgs(int64(44)).WillReturnRows(sqlmock.NewRows(appointmentCols))

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/appointments/44/form", "").Code)
}

func TestAppointments_DeleteNeedsConfirmation(t *testing.T) {
	env := newEnv(t)

	w := env.do(http.MethodDelete, "/api/appointments/4", "")
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
	assert.Equal(t, "Confirmation required.", decode(t, w)["error"])
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestAppointments_Slots(t *testing.T) {
	env := newEnv(t)

	w := env.do(http.MethodGet, "/api/appointments/slots", "")
	require.Equal(t, http.StatusOK, w.Code)
	slots := decode(t, w)["slots"].([]any)
	assert.Len(t, slots, 10)
	assert.Equal(t, "08:00", slots[0])
	assert.Equal(t, "17:00", slots[9])
}

func TestAppointments_DaySheet(t *testing.T) {
	env := newEnv(t)
	env.mock.ExpectQuery("FROM appointments ORDER BY appointment_at ASC").
		WillReturnRows(sqlmock.NewRows(appointmentCols).
			AddRow(int64(1), int64(1), "Ana", "A-1", time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC), "cleaning", int64(40), "Dr. Ruiz", nil, clinicNow))

	w := env.do(http.MethodGet, "/api/appointments/day-sheet?date=2024-06-05", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))
}

func TestOverview(t *testing.T) {
	env := newEnv(t)
	env.mock.ExpectQuery("FROM appointments ORDER BY appointment_at ASC").
		WillReturnRows(sqlmock.NewRows(appointmentCols).
			AddRow(int64(1), int64(1), "Ana", "A-1", time.Date(2024, 6, 5, 15, 0, 0, 0, time.UTC), "cleaning", nil, nil, nil, clinicNow).
			AddRow(int64(2), int64(2), "Bea", "B-2", time.Date(2024, 6, 8, 10, 0, 0, 0, time.UTC), "filling", nil, nil, nil, clinicNow))
	env.mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM clients").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	w := env.do(http.MethodGet, "/api/overview", "")
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)["stats"].(map[string]any)
	assert.EqualValues(t, 2, stats["total_appointments"])
	assert.EqualValues(t, 2, stats["registered_clients"])
	assert.EqualValues(t, 1, stats["this_week"])
}

func TestAuth_SignInAndSession(t *testing.T) {
	env := newEnv(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)

	env.mock.ExpectQuery("FROM users WHERE email=\\$1").WithArgs("desk@clinic.test").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "full_name", "password_hash", "created_at",
			"refresh_token", "refresh_expires_at", "refresh_revoked",
		}).AddRow(int64(7), "desk@clinic.test", "Front Desk", string(hash), clinicNow, nil, nil, false))
	env.mock.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/sign-in",
		strings.NewReader(`{"email":"desk@clinic.test","password":"secret1"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	tokens := decode(t, w)["tokens"].(map[string]any)
	access := tokens["access_token"].(string)
	require.NotEmpty(t, access)

	req = httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "signed_in", body["state"])
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestAuth_SignInWrongPassword(t *testing.T) {
	env := newEnv(t)
	env.mock.ExpectQuery("FROM users WHERE email=\\$1").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/sign-in",
		strings.NewReader(`{"email":"nobody@clinic.test","password":"whatever"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid email or password", decode(t, w)["error"])
}

func TestEveryAPIRouteIsDocumented(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	SetupRoutes(r, Handlers{Feed: &handlers.FeedHandler{}}, nil, monitoring.NewMetrics(prometheus.NewRegistry()))

	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(docs.SwaggerInfo.ReadDoc()), &doc))

	documented := 0
	for _, route := range r.Routes() {
		if !strings.HasPrefix(route.Path, "/api/") {
			continue
		}
		path := strings.ReplaceAll(strings.TrimPrefix(route.Path, "/api"), ":id", "{id}")
		_, ok := doc.Paths[path][strings.ToLower(route.Method)]
		assert.True(t, ok, "%s %s", route.Method, route.Path)
		documented++
	}
	assert.Equal(t, 25, documented)
}
